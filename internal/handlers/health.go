// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// DatabasePinger is the part of the database adapter health checks need
type DatabasePinger interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}

// QueueInspector reads queue statistics. *asynq.Inspector satisfies it.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	responder
	db          DatabasePinger
	redis       redis.UniversalClient
	queues      QueueInspector
	version     string
	environment string
	startTime   time.Time
}

// NewHealthHandler creates a new health handler. queues may be nil.
func NewHealthHandler(database DatabasePinger, redisClient redis.UniversalClient, queues QueueInspector,
	version, environment string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		responder:   responder{logger: logger.With(slog.String("handler", "health"))},
		db:          database,
		redis:       redisClient,
		queues:      queues,
		version:     version,
		environment: environment,
		startTime:   time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// ReadinessStatus is the body of /ready
type ReadinessStatus struct {
	Ready   bool              `json:"ready"`
	Details map[string]string `json:"details"`
}

// Health handles the /health endpoint. Dependencies are checked concurrently.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) ServiceInfo{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
	}
	if h.queues != nil {
		checks["asynq"] = h.checkAsynq
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		services = make(map[string]ServiceInfo, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info := check(ctx)
			mu.Lock()
			services[name] = info
			mu.Unlock()
		}()
	}
	wg.Wait()

	health := HealthStatus{
		Status:      statusHealthy,
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Services:    services,
		System:      h.getSystemInfo(),
	}
	for _, info := range services {
		if info.Status != statusHealthy {
			health.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status == statusDegraded {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.respondJSON(w, statusCode, health)
}

// Readiness handles the /ready endpoint
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := ReadinessStatus{Ready: true, Details: make(map[string]string)}

	if err := h.db.Ping(ctx); err != nil {
		status.Ready = false
		status.Details["database"] = "not ready"
	} else {
		status.Details["database"] = "ready"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		status.Ready = false
		status.Details["redis"] = "not ready"
	} else {
		status.Details["redis"] = "ready"
	}

	statusCode := http.StatusOK
	if !status.Ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.respondJSON(w, statusCode, status)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: statusHealthy, Details: make(map[string]interface{})}

	if err := h.db.Ping(ctx); err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return info
	}

	for k, v := range h.db.Health(ctx) {
		info.Details[k] = v
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: statusHealthy, Details: make(map[string]interface{})}

	pong, err := h.redis.Ping(ctx).Result()
	if err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return info
	}
	info.Details["ping"] = pong

	if stats := h.redis.PoolStats(); stats != nil {
		info.Details["total_conns"] = stats.TotalConns
		info.Details["idle_conns"] = stats.IdleConns
		info.Details["stale_conns"] = stats.StaleConns
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: statusHealthy, Details: make(map[string]interface{})}

	queues, err := h.queues.Queues()
	if err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return info
	}

	queueStats := make(map[string]interface{}, len(queues))
	for _, queue := range queues {
		qInfo, err := h.queues.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		queueStats[queue] = map[string]interface{}{
			"size":      qInfo.Size,
			"active":    qInfo.Active,
			"pending":   qInfo.Pending,
			"scheduled": qInfo.Scheduled,
			"retry":     qInfo.Retry,
			"archived":  qInfo.Archived,
			"completed": qInfo.Completed,
			"paused":    qInfo.Paused,
		}
	}
	info.Details["queues"] = queueStats

	if servers, err := h.queues.Servers(); err == nil {
		active := 0
		for _, s := range servers {
			active += len(s.ActiveWorkers)
		}
		info.Details["servers"] = len(servers)
		info.Details["active_workers"] = active
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  memStats.Alloc / 1024 / 1024,
		MemorySysMB:    memStats.Sys / 1024 / 1024,
		GCPauseTotalMs: memStats.PauseTotalNs / 1000 / 1000,
		NumGC:          memStats.NumGC,
	}
}
