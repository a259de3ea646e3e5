package grpc

import (
	"context"
	"sync"
	"time"

	"rentdesk-backend/internal/api/grpc/interceptor"
	"rentdesk-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall "" status.
const ServiceName = "rentdesk.Backend"

// Check is a named dependency probe (database ping, redis ping).
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// NewServer builds the gRPC server that carries health and reflection.
func NewServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Recovery(), interceptor.Logging()),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

// HealthMonitor runs the dependency checks and reflects the result in the
// health server. A single failing check marks the backend NOT_SERVING.
type HealthMonitor struct {
	health   *health.Server
	checks   []Check
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	failing map[string]error
}

func NewHealthMonitor(hs *health.Server, interval time.Duration, checks ...Check) *HealthMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthMonitor{
		health:   hs,
		checks:   checks,
		interval: interval,
		timeout:  5 * time.Second,
		failing:  map[string]error{},
	}
}

// CheckOnce probes every dependency and updates the serving status.
func (m *HealthMonitor) CheckOnce(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.Fn(cctx)
		cancel()

		prev, wasFailing := m.failing[c.Name]
		switch {
		case err != nil && !wasFailing:
			logger.Warn("Health check failing", "check", c.Name, "error", err)
			m.failing[c.Name] = err
		case err != nil:
			m.failing[c.Name] = err
		case wasFailing:
			logger.Info("Health check recovered", "check", c.Name, "previous_error", prev)
			delete(m.failing, c.Name)
		}
	}

	st := grpc_health_v1.HealthCheckResponse_SERVING
	if len(m.failing) > 0 {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	m.health.SetServingStatus("", st)
	m.health.SetServingStatus(ServiceName, st)
	return st
}

// Run checks immediately and then on every interval until ctx is done.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.CheckOnce(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckOnce(ctx)
		}
	}
}
