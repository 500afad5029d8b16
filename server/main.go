package server

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridrelay/pkg/config"
	"gridrelay/pkg/logger"
)

// shutdownTimeout bounds graceful shutdown before the server is forced down
const shutdownTimeout = 30 * time.Second

// Main is the server entrypoint
func Main() {
	addr := flag.String("addr", "", "Server address (overrides config)")
	configPath := flag.String("config", "", "Config file path (optional)")
	certFile := flag.String("cert", "", "TLS certificate file")
	keyFile := flag.String("key", "", "TLS key file")
	useTLS := flag.Bool("tls", false, "Enable TLS")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	// Initialize structured logger
	logger.Init(logger.LogLevel(*logLevel), *logFormat)
	log := logger.Get()

	log.InfoWith("relay starting")

	// Load configuration (from file or defaults)
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.ErrorWithErr("failed to load configuration", err)
		os.Exit(1)
	}

	// Override config with command-line flags if provided
	if *addr != "" {
		cfg.Address = *addr
	}
	if *certFile != "" {
		cfg.TLS.CertFile = *certFile
	}
	if *keyFile != "" {
		cfg.TLS.KeyFile = *keyFile
	}
	if *useTLS {
		cfg.TLS.Enabled = true
	}
	if *logLevel != "info" {
		cfg.Logging.Level = *logLevel
	}

	log.InfoWith("configuration loaded",
		"address", cfg.Address, "store", cfg.Store.Type, "tls", cfg.TLS.Enabled)

	srv, err := NewServer(cfg)
	if err != nil {
		log.ErrorWithErr("failed to create server", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errorChan := make(chan error, 1)
	go func() {
		errorChan <- srv.Start()
	}()

	select {
	case sig := <-sigChan:
		log.InfoWith("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.ErrorWithErr("error during shutdown", err)
		}
		log.InfoWith("server stopped")

	case err := <-errorChan:
		if err != nil {
			log.ErrorWithErr("server encountered fatal error", err)
			os.Exit(1)
		}
	}
}
