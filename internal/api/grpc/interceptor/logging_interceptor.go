package interceptor

import (
	"context"
	"runtime/debug"
	"time"

	"rentdesk-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Logging logs every unary RPC with its method, code and latency. Health
// probes are logged at debug so they do not flood the output.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		args := []any{"rpc", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		switch {
		case code == codes.OK && isProbe(info.FullMethod):
			logger.Debug("gRPC request", args...)
		case code == codes.OK:
			logger.Info("gRPC request", args...)
		default:
			logger.Warn("gRPC request", append(args, "error", err)...)
		}
		return resp, err
	}
}

// Recovery turns a handler panic into codes.Internal.
func Recovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in gRPC handler", "rpc", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func isProbe(method string) bool {
	return method == "/grpc.health.v1.Health/Check"
}
