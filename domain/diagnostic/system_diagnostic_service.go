package diagnostic

import (
	"runtime"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/console/pkg/processing"
)

// PoolMetricsSource reports per-priority processing pool metrics.
type PoolMetricsSource interface {
	GetPoolMetrics() map[string]processing.PoolMetrics
}

// TopicStatsSource reports per-topic message counters.
type TopicStatsSource interface {
	GetTopicStats() map[string]processing.TopicInfo
}

// ErrorSource reports the last processing error per topic.
type ErrorSource interface {
	LastErrors() map[string]string
}

// AlertSource reports how many motion alerts were raised.
type AlertSource interface {
	AlertCount() int
}

// LinkSource reports gateway subscription counters.
type LinkSource interface {
	Stats() (received, failed int64)
}

// Sources are the components a DiagnosticService reads from. Nil members are
// left out of the report.
type Sources struct {
	Pools  PoolMetricsSource
	Topics TopicStatsSource
	Errors ErrorSource
	Alerts AlertSource
	Link   LinkSource
}

// SystemMetrics represents process level diagnostics information
type SystemMetrics struct {
	Timestamp     time.Time `json:"timestamp"`
	Uptime        string    `json:"uptime"`
	Goroutines    int       `json:"goroutines"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	SysMB         float64   `json:"sys_mb"`
	NumGC         uint32    `json:"num_gc"`
	GatewayMsgs   int64     `json:"gateway_messages"`
	GatewayErrors int64     `json:"gateway_errors"`
	MotionAlerts  int       `json:"motion_alerts"`
}

// Report is the full diagnostics payload.
type Report struct {
	System SystemMetrics                     `json:"system"`
	Pools  map[string]processing.PoolMetrics `json:"pools,omitempty"`
	Topics map[string]processing.TopicInfo   `json:"topics,omitempty"`
	Errors map[string]string                 `json:"errors,omitempty"`
}

// DiagnosticService collects console diagnostics
type DiagnosticService struct {
	mu      sync.RWMutex
	sources Sources
	started time.Time
	now     func() time.Time
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(sources Sources) *DiagnosticService {
	return &DiagnosticService{
		sources: sources,
		started: time.Now(),
		now:     time.Now,
	}
}

// SetSources replaces the diagnostic sources.
func (s *DiagnosticService) SetSources(sources Sources) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = sources
}

// GetMetrics returns the current system metrics
func (s *DiagnosticService) GetMetrics() SystemMetrics {
	s.mu.RLock()
	src := s.sources
	s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := s.now()
	m := SystemMetrics{
		Timestamp:   now,
		Uptime:      now.Sub(s.started).Round(time.Second).String(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(mem.HeapAlloc) / (1 << 20),
		SysMB:       float64(mem.Sys) / (1 << 20),
		NumGC:       mem.NumGC,
	}
	if src.Link != nil {
		m.GatewayMsgs, m.GatewayErrors = src.Link.Stats()
	}
	if src.Alerts != nil {
		m.MotionAlerts = src.Alerts.AlertCount()
	}
	return m
}

// GetReport returns the system metrics along with pool, topic and error
// details.
func (s *DiagnosticService) GetReport() Report {
	s.mu.RLock()
	src := s.sources
	s.mu.RUnlock()

	r := Report{System: s.GetMetrics()}
	if src.Pools != nil {
		r.Pools = src.Pools.GetPoolMetrics()
	}
	if src.Topics != nil {
		r.Topics = src.Topics.GetTopicStats()
	}
	if src.Errors != nil {
		r.Errors = src.Errors.LastErrors()
	}
	return r
}

// GetMetricsHandler handles API requests for diagnostics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.GetReport(),
	})
}
