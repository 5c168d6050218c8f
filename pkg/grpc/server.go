package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GatewayService is the health service name that follows backend
// reachability. The empty service name reports process health only.
const GatewayService = "crowelm.gateway"

type Server struct {
	srv    *ggrpc.Server
	health *health.Server
}

func New() *Server {
	s := ggrpc.NewServer(
		ggrpc.ChainUnaryInterceptor(UnaryLogInterceptor()),
		ggrpc.ChainStreamInterceptor(StreamLogInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(GatewayService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{srv: s, health: hs}
}

// SetOnline flips the gateway service status. Cached reads still work while
// offline, so the process itself stays SERVING.
func (s *Server) SetOnline(online bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if online {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(GatewayService, status)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) {
	utils.SafelyGo(func() {
		logger.Infof(ctx, "gRPC server listening on %s", lis.Addr())
		if err := s.srv.Serve(lis); err != nil {
			logger.Errorf(ctx, "gRPC server error: %v", err)
		}
	}, func(err error) {
		logger.Errorf(ctx, "gRPC server panic: %+v", err)
	})
}

func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func NewServer(ctx context.Context, port int) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	s := New()
	s.Serve(ctx, lis)
	return s, nil
}
