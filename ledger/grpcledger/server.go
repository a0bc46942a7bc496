package grpcledger

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kanima1/opentreasury/ledger"
)

// Server exposes a ledger.QueryService plus ledger.SubmissionService over the
// Ledger gRPC service.
type Server struct {
	UnimplementedLedgerServer
	Query  ledger.QueryService
	Submission ledger.SubmissionService
}

func (s *Server) GetBalance(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	if s == nil || s.Query == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing query service")
	}
	bal, err := s.Query.GetBalance(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.UInt64(bal), nil
}

func (s *Server) GetRecentSignatures(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	if s == nil || s.Query == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing query service")
	}
	fields := in.AsMap()
	account, _ := fields["account"].(string)
	limit := 0
	if f, ok := fields["limit"].(float64); ok {
		limit = int(f)
	}
	infos, err := s.Query.GetRecentSignatures(ctx, account, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	items := make([]any, 0, len(infos))
	for _, info := range infos {
		st, err := toStruct(info)
		if err != nil {
			return nil, status.Error(codes.Internal, "encode signature info")
		}
		items = append(items, st.AsMap())
	}
	return structpb.NewList(items)
}

func (s *Server) GetTransaction(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s == nil || s.Query == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing query service")
	}
	tx, err := s.Query.GetTransaction(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	st, err := toStruct(tx)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode transaction")
	}
	return st, nil
}

func (s *Server) GetRecentAnchorPoint(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s == nil || s.Query == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing query service")
	}
	point, err := s.Query.GetRecentAnchorPoint(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	st, err := toStruct(point)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode anchor point")
	}
	return st, nil
}

func (s *Server) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Submission == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing submission service")
	}
	txID, err := s.Submission.Submit(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(txID), nil
}

func (s *Server) AwaitConfirmation(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if s == nil || s.Submission == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing submission service")
	}
	fields := in.AsMap()
	txID, _ := fields["txId"].(string)
	blockhash, _ := fields["blockhash"].(string)
	if err := s.Submission.AwaitConfirmation(ctx, txID, blockhash); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}
