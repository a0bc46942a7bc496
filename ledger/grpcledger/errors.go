package grpcledger

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kanima1/opentreasury/ledger"
)

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case ledger.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return ledger.ErrNotFound
	default:
		// Best-effort: if the server sent a known ledger error message, preserve it.
		switch st.Message() {
		case ledger.ErrNotFound.Error():
			return ledger.ErrNotFound
		case ledger.ErrNotConfirmed.Error():
			return ledger.ErrNotConfirmed
		default:
			return err
		}
	}
}
