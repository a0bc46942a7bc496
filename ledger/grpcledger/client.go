package grpcledger

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kanima1/opentreasury/ledger"
)

// Client implements ledger.QueryService and ledger.SubmissionService over a
// Ledger gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client LedgerClient

	// Timeout applies per RPC when non-zero, on top of the caller's context.
	Timeout time.Duration
}

var _ ledger.QueryService = (*Client)(nil)
var _ ledger.SubmissionService = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewLedgerClient(cc)}, nil
}

// NewClient wraps an existing connection (tests use this with bufconn).
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewLedgerClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) GetBalance(ctx context.Context, account string) (uint64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.GetBalance(ctx, wrapperspb.String(account))
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) GetRecentSignatures(ctx context.Context, account string, limit int) ([]ledger.SignatureInfo, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	req, err := structpb.NewStruct(map[string]any{"account": account, "limit": limit})
	if err != nil {
		return nil, err
	}
	reply, err := c.client.GetRecentSignatures(ctx, req)
	if err != nil {
		return nil, mapRPC(err)
	}
	infos := make([]ledger.SignatureInfo, 0, len(reply.GetValues()))
	for _, v := range reply.GetValues() {
		st := v.GetStructValue()
		if st == nil {
			continue
		}
		var info ledger.SignatureInfo
		if err := fromStruct(st, &info); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *Client) GetTransaction(ctx context.Context, signature string) (*ledger.TransactionDetails, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.GetTransaction(ctx, wrapperspb.String(signature))
	if err != nil {
		return nil, mapRPC(err)
	}
	var tx ledger.TransactionDetails
	if err := fromStruct(reply, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) GetRecentAnchorPoint(ctx context.Context) (ledger.AnchorPoint, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.GetRecentAnchorPoint(ctx, &emptypb.Empty{})
	if err != nil {
		return ledger.AnchorPoint{}, mapRPC(err)
	}
	var point ledger.AnchorPoint
	if err := fromStruct(reply, &point); err != nil {
		return ledger.AnchorPoint{}, err
	}
	return point, nil
}

func (c *Client) Submit(ctx context.Context, signed []byte) (string, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Submit(ctx, wrapperspb.Bytes(signed))
	if err != nil {
		return "", mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) AwaitConfirmation(ctx context.Context, txID, blockhash string) error {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	req, err := structpb.NewStruct(map[string]any{"txId": txID, "blockhash": blockhash})
	if err != nil {
		return err
	}
	if _, err := c.client.AwaitConfirmation(ctx, req); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
