package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func dialHealth(t *testing.T) (grpc_health_v1.HealthClient, *HealthMonitor, *atomic.Bool) {
	t.Helper()
	s, hs := NewServer()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var dbDown atomic.Bool
	monitor := NewHealthMonitor(hs, 0,
		Check{Name: "postgres", Fn: func(context.Context) error {
			if dbDown.Load() {
				return errors.New("connection refused")
			}
			return nil
		}},
		Check{Name: "redis", Fn: func(context.Context) error { return nil }},
	)
	return grpc_health_v1.NewHealthClient(conn), monitor, &dbDown
}

func TestHealthMonitor(t *testing.T) {
	ctx := context.Background()
	client, monitor, dbDown := dialHealth(t)

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, monitor.CheckOnce(ctx))
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	dbDown.Store(true)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, monitor.CheckOnce(ctx))
	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)

	dbDown.Store(false)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, monitor.CheckOnce(ctx))
}

func TestHealthMonitor_RunStopsWithContext(t *testing.T) {
	_, monitor, _ := dialHealth(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
