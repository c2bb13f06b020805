package grpcauth

import (
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health asks the server's health service about service ("" for the whole
// server) and returns the reported status name.
func Health(ctx context.Context, conn grpc.ClientConnInterface, service string) (string, error) {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", MapError(err)
	}
	return resp.GetStatus().String(), nil
}
