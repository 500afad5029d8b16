package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gridrelay/pkg/catalog"
	"gridrelay/pkg/config"
	"gridrelay/pkg/health"
	"gridrelay/pkg/logger"
	"gridrelay/pkg/messaging"
	"gridrelay/pkg/middleware"
	"gridrelay/pkg/session"
	"gridrelay/pkg/storage"
)

// Server wires the hub, registry and REST surface together
type Server struct {
	hub        *Hub
	registry   *session.Registry
	store      storage.Store
	catalog    *catalog.Client
	monitor    *health.Monitor
	dispatcher messaging.Dispatcher
	config     *config.ServerConfig

	httpServer *http.Server
	serverMu   sync.Mutex
}

// NewServer creates a server from configuration
func NewServer(cfg *config.ServerConfig) (*Server, error) {
	store, err := storage.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	hub := NewHub()
	registry := session.NewRegistry(store, hub)

	server := &Server{
		hub:        hub,
		registry:   registry,
		store:      store,
		catalog:    catalog.NewClient(cfg.Catalog),
		monitor:    health.NewMonitor(),
		dispatcher: messaging.NewDispatcher(),
		config:     cfg,
	}

	if err := server.registerHandlers(); err != nil {
		store.Close()
		return nil, err
	}

	server.monitor.SetComponentStatus("store", health.StatusHealthy, cfg.Store.Type)

	return server, nil
}

// registerHandlers sets up event handlers for the dispatcher
func (s *Server) registerHandlers() error {
	handlers := []messaging.Handler{
		messaging.NewCreateSessionHandler(s.registry, s.hub),
		messaging.NewJoinSessionHandler(s.registry, s.hub),
		messaging.NewUpdateGridHandler(s.registry, s.hub),
	}
	for _, h := range handlers {
		if err := s.dispatcher.Register(h); err != nil {
			return fmt.Errorf("register handler: %w", err)
		}
	}
	return nil
}

// buildRouter creates the Gin router with all routes
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	if len(s.config.CORS.AllowedOrigins) == 1 && s.config.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.CORS.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	// WebSocket endpoint for relay clients
	router.GET("/ws", s.handleWebSocket)

	// REST endpoints
	router.GET("/monsters", s.handleMonsters)
	router.GET("/healthz", s.handleHealth)

	return router
}

// handleMonsters serves the cached monster catalog passthrough
func (s *Server) handleMonsters(c *gin.Context) {
	monsters, err := s.catalog.Monsters(c.Request.Context())
	if err != nil {
		logger.Get().ErrorWithErr("monster catalog fetch failed", err)
		s.monitor.SetComponentStatus("catalog", health.StatusDegraded, err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "monster catalog unavailable"})
		return
	}
	s.monitor.SetComponentStatus("catalog", health.StatusHealthy, "")
	c.JSON(http.StatusOK, monsters)
}

// handleHealth serves the relay health snapshot
func (s *Server) handleHealth(c *gin.Context) {
	snapshot := s.monitor.GetHealth(s.hub.ClientCount(), s.hub.RoomCount())
	status := http.StatusOK
	if snapshot.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, snapshot)
}

// Start starts the HTTP server and blocks until it exits
func (s *Server) Start() error {
	router := s.buildRouter()

	httpServer := &http.Server{
		Addr:    s.config.Address,
		Handler: router,
	}

	if s.config.TLS.Enabled {
		httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		s.serverMu.Lock()
		s.httpServer = httpServer
		s.serverMu.Unlock()

		logger.Get().InfoWith("server listening with TLS", "address", s.config.Address)
		return httpServer.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
	}

	s.serverMu.Lock()
	s.httpServer = httpServer
	s.serverMu.Unlock()

	logger.Get().InfoWith("server listening", "address", s.config.Address)
	return httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	httpServer := s.httpServer
	s.serverMu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Get().ErrorWithErr("http shutdown failed, forcing close", err)
			httpServer.Close()
		}
	}

	s.hub.CloseAll()

	if err := s.store.Close(); err != nil {
		logger.Get().ErrorWithErr("store close failed", err)
		return err
	}

	return nil
}
