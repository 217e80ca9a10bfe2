// Package health tracks component status and process-level metrics for
// the health endpoint.
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
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// ServerHealth represents overall server health
type ServerHealth struct {
	Status     Status            `json:"status"`
	Uptime     int64             `json:"uptime_seconds"`
	Timestamp  time.Time         `json:"timestamp"`
	Goroutines int               `json:"goroutines"`
	MemoryMB   uint64            `json:"memory_mb"`
	CPUPercent float64           `json:"cpu_percent"`
	Components []ComponentHealth `json:"components"`
}

// Monitor tracks server health metrics
type Monitor struct {
	startTime  time.Time
	mu         sync.RWMutex
	components map[string]*ComponentHealth
	proc       *process.Process
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	// Process handle is optional; metrics degrade to runtime stats.
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

// Report builds the current health snapshot. Overall status is the
// worst status across components.
func (m *Monitor) Report() ServerHealth {
	m.mu.RLock()
	components := make([]ComponentHealth, 0, len(m.components))
	overall := StatusHealthy
	for _, c := range m.components {
		components = append(components, *c)
		if c.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if c.Status == StatusDegraded && overall == StatusHealthy {
			overall = StatusDegraded
		}
	}
	m.mu.RUnlock()

	health := ServerHealth{
		Status:     overall,
		Uptime:     int64(time.Since(m.startTime).Seconds()),
		Timestamp:  time.Now(),
		Goroutines: runtime.NumGoroutine(),
		Components: components,
	}

	if m.proc != nil {
		if mem, err := m.proc.MemoryInfo(); err == nil && mem != nil {
			health.MemoryMB = mem.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			health.CPUPercent = cpu
		}
	}
	if health.MemoryMB == 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		health.MemoryMB = ms.Alloc / 1024 / 1024
	}

	return health
}
