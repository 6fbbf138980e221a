package main

import (
	"fmt"
	"net"

	"order-server/src/config"
	pb "order-server/src/grpc_control"
	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/server"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// startServers launches the ops HTTP server and the gRPC control server.
// The returned function stops both.
func startServers(
	ops *server.FastAPIServer,
	stats interfaces.IStatsProvider,
	conf *config.Config,
	appLogger *logger.Logger,
) (func(), error) {

	// 1. Ops HTTP + activity feed
	go func() {
		if err := ops.Start(); err != nil {
			appLogger.Error("Ops server failed: %v", err)
		}
	}()

	// 2. gRPC control
	port := conf.GrpcPort
	if port == 0 {
		port = 50051 // Default fallback
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.GrpcHost, port))
	if err != nil {
		ops.Stop()
		return nil, fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	grpcServer := grpc.NewServer()
	controlService := pb.NewControlService(stats, logger.NewLogger(conf.MConfig, "ControlService"))
	pb.RegisterOrderServerControlServer(grpcServer, controlService)

	go func() {
		appLogger.Info("Starting gRPC Control Server on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server failed: %v", err)
		}
	}()

	return func() {
		grpcServer.GracefulStop()
		if err := ops.Stop(); err != nil {
			appLogger.Warning("Ops server shutdown: %v", err)
		}
	}, nil
}
