package control

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/queue"
)

// Server owns the listening gRPC server process, grounded on the
// teacher's cmd/receiptsd/main.go wiring of grpc.NewServer + health +
// reflection.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	log        *slog.Logger
}

// Listen builds a Server bound to addr, backed by q's read paths.
func Listen(addr string, q queue.Repository, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(requestIDInterceptor(log)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	RegisterControlServer(grpcServer, NewReader(q, log))

	return &Server{grpcServer: grpcServer, health: hs, listener: lis, log: log}, nil
}

// requestIDInterceptor attaches a request id to every unary call's
// context so a read handler's log lines can be correlated, the way the
// worker does per job (internal/worker/worker.go's execute).
func requestIDInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = common.WithRequestID(ctx, uuid.NewString())
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("control surface call failed", "request_id", common.RequestIDFromContext(ctx), "method", info.FullMethod, "error", err)
		}
		return resp, err
	}
}

// Serve blocks accepting connections until the server is stopped.
func (s *Server) Serve() error {
	s.log.Info("control surface listening", "addr", s.listener.Addr().String())
	return s.grpcServer.Serve(s.listener)
}

// Stop marks the service not-serving and gracefully stops the server,
// waiting for in-flight RPCs to complete unless ctx is canceled first.
func (s *Server) Stop(ctx context.Context) {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}
