package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer builds a server with request ids, bearer auth, the receipts
// service and the standard health service registered.
func NewGRPCServer(svc ReceiptsServiceServer, verifier *TokenVerifier, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RequestIDInterceptor(),
		AuthInterceptor(verifier, logger),
	))
	s := grpc.NewServer(opts...)
	RegisterReceiptsServiceServer(s, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ReceiptsServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)
	return s, hs
}
