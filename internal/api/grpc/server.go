// Package grpc exposes the standard gRPC health service for load balancers
// and orchestrators, plus server reflection for admins.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"gearrent-backend/internal/api/grpc/interceptor"
	"gearrent-backend/internal/security"
)

// InventoryService is the health service name reported for the ledger
const InventoryService = "gearrent.inventory"

// NewServer builds a gRPC server with health and reflection registered.
// Both the overall and the inventory status start as SERVING.
func NewServer(v security.Verifier) (*grpc.Server, *health.Server) {
	auth := interceptor.NewAuthInterceptor(v)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.UnaryLogging(), auth.Unary()),
		grpc.ChainStreamInterceptor(auth.Stream()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(InventoryService, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(s)
	return s, healthServer
}
