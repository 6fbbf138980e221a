package grpc_control

import (
	"context"

	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/models"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlService implements the OrderServerControlServer interface
type ControlService struct {
	Server interfaces.IStatsProvider
	Logger *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(server interfaces.IStatsProvider, log *logger.Logger) *ControlService {
	return &ControlService{
		Server: server,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return statsToStruct(s.Server.Stats())
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetClient(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	if id < 0 {
		return nil, status.Error(codes.InvalidArgument, "client id cannot be negative")
	}

	client, ok := s.Server.ClientStatus(int(id))
	if !ok {
		return nil, status.Errorf(codes.NotFound, "client %d not found", id)
	}

	return toStruct(map[string]interface{}{
		"client_id":        client.ClientID,
		"history_size":     client.HistorySize,
		"history_capacity": client.HistoryCapacity,
	})
}

// -----------------------------------------------------------------------------

// SetAccepting pauses or resumes registration of new clients
func (s *ControlService) SetAccepting(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	previous := s.Server.IsAccepting()
	s.Server.SetAccepting(req.GetValue())

	s.Logger.Info("gRPC: SetAccepting %v (was %v)", req.GetValue(), previous)
	return toStruct(map[string]interface{}{
		"accepting": req.GetValue(),
		"previous":  previous,
	})
}

// -----------------------------------------------------------------------------

func statsToStruct(stats models.MServerStats) (*structpb.Struct, error) {
	byKind := make(map[string]interface{}, len(stats.ByKind))
	for k, v := range stats.ByKind {
		byKind[k] = v
	}

	return toStruct(map[string]interface{}{
		"registered_clients": stats.RegisteredClients,
		"accepting":          stats.Accepting,
		"history_capacity":   stats.HistoryCapacity,
		"stored_orders":      stats.StoredOrders,
		"accepted":           stats.Accepted,
		"rejected":           stats.Rejected,
		"served":             stats.Served,
		"failures":           stats.Failures,
		"by_kind":            byKind,
	})
}

// -----------------------------------------------------------------------------

func toStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return out, nil
}
