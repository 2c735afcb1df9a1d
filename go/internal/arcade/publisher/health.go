package publisher

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Connection is the part of a NATS connection the health check needs.
type Connection interface {
	IsConnected() bool
}

type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	NATSConnected bool     `json:"nats_connected"`
	WorkerRunning bool     `json:"worker_running"`
	Stats         Stats    `json:"stats"`
	Errors        []string `json:"errors"`
}

// HealthChecker reports whether room events are flowing to the bus.
type HealthChecker struct {
	worker     *Worker
	conn       Connection
	maxPending int
}

func NewHealthChecker(worker *Worker, conn Connection, maxPending int) *HealthChecker {
	return &HealthChecker{worker: worker, conn: conn, maxPending: maxPending}
}

func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
		Stats:   h.worker.Stats(),
	}

	if h.conn != nil {
		status.NATSConnected = h.conn.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	status.WorkerRunning = h.worker.Running()
	if !status.WorkerRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "publisher worker not running")
	}

	if h.maxPending > 0 && status.Stats.Pending > h.maxPending {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", status.Stats.Pending))
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
