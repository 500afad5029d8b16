package health

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Name        string      `json:"name"`
	Status      Status      `json:"status"`
	Description string      `json:"description,omitempty"`
	LastChecked time.Time   `json:"last_checked"`
	Details     interface{} `json:"details,omitempty"`
}

// ServerHealth represents overall relay health
type ServerHealth struct {
	Status            Status            `json:"status"`
	Uptime            int64             `json:"uptime_seconds"`
	Timestamp         time.Time         `json:"timestamp"`
	ActiveConnections int               `json:"active_connections"`
	ActiveSessions    int               `json:"active_sessions"`
	Goroutines        int               `json:"goroutines"`
	MemoryMB          uint64            `json:"memory_mb"`
	CPUPercent        float64           `json:"cpu_percent"`
	Components        []ComponentHealth `json:"components"`
}

// Monitor tracks relay health metrics
type Monitor struct {
	startTime  time.Time
	mu         sync.RWMutex
	components map[string]*ComponentHealth
	proc       *process.Process
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	// Process handle failure only degrades the stats, never the monitor
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Monitor{
		startTime:  time.Now(),
		components: make(map[string]*ComponentHealth),
		proc:       proc,
	}
}

// SetComponentStatus updates the status of a component
func (m *Monitor) SetComponentStatus(name string, status Status, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = &ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		LastChecked: time.Now(),
	}
}

// GetHealth returns the current relay health
func (m *Monitor) GetHealth(activeConnections, activeSessions int) *ServerHealth {
	m.mu.RLock()
	components := make([]ComponentHealth, 0, len(m.components))
	overallStatus := StatusHealthy
	for _, comp := range m.components {
		components = append(components, *comp)
		if comp.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
		} else if comp.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}
	m.mu.RUnlock()

	var memoryMB uint64
	var cpuPercent float64
	if m.proc != nil {
		if mem, err := m.proc.MemoryInfo(); err == nil && mem != nil {
			memoryMB = mem.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			cpuPercent = cpu
		}
	}

	return &ServerHealth{
		Status:            overallStatus,
		Uptime:            int64(time.Since(m.startTime).Seconds()),
		Timestamp:         time.Now(),
		ActiveConnections: activeConnections,
		ActiveSessions:    activeSessions,
		Goroutines:        runtime.NumGoroutine(),
		MemoryMB:          memoryMB,
		CPUPercent:        cpuPercent,
		Components:        components,
	}
}
