package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks engine liveness and serves it as JSON.
type HealthChecker struct {
	mu           sync.RWMutex
	lastEvaluate time.Time
	lastPrice    float64
	isRunning    bool
	errors       []string
}

// HealthStatus is the JSON shape of the health endpoint.
type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastEvaluate time.Time `json:"last_evaluate"`
	LastPrice    float64   `json:"last_price"`
	IsRunning    bool      `json:"is_running"`
	Uptime       string    `json:"uptime"`
	Errors       []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// SetRunning marks the engine loop as started or stopped.
func (h *HealthChecker) SetRunning(running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isRunning = running
}

// RecordEvaluation notes a completed evaluation tick and the price it saw.
func (h *HealthChecker) RecordEvaluation(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastEvaluate = time.Now()
	h.lastPrice = price
}

// RecordError appends an error to the health report.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 20 {
		h.errors = h.errors[len(h.errors)-20:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isRunning || time.Since(h.lastEvaluate) > time.Hour {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastEvaluate: h.lastEvaluate,
		LastPrice:    h.lastPrice,
		IsRunning:    h.isRunning,
		Uptime:       time.Since(startTime).String(),
		Errors:       h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
