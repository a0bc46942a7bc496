// Package ledger defines the interfaces to the external ledger collaborators:
// the query service, the signing provider, and the submission service.
//
// The protocol consumes these as opaque capabilities; consensus and finality
// are the ledger's problem. Implementations live in subpackages (memledger,
// grpcledger) or outside this module entirely.
package ledger

import "context"

// MemoProgramID is the well-known on-chain program whose sole function is to
// record an attached UTF-8 text payload.
const MemoProgramID = "MemoSq4gqABAXKb96qnH8TySNcWxMyWCqXgDLGmfcHr"

// SignatureInfo is one item of an account's recent transaction history.
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime,omitempty"`
	Err       string `json:"err,omitempty"`
}

// AnchorPoint is the short-lived reference required to make a transaction
// valid; it prevents indefinite replay.
type AnchorPoint struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// DecodedInstruction is one instruction of a fetched transaction as decoded
// by the query service. Depending on the service's decoding shape the memo
// payload may appear in Parsed (raw string or nested object) or in Data.
type DecodedInstruction struct {
	ProgramID string `json:"programId"`
	Program   string `json:"program,omitempty"`
	Parsed    any    `json:"parsed,omitempty"`
	Data      string `json:"data,omitempty"`
}

// TransactionDetails is a fetched, decoded transaction.
type TransactionDetails struct {
	Signature    string               `json:"signature"`
	Slot         uint64               `json:"slot"`
	BlockTime    *int64               `json:"blockTime,omitempty"`
	Instructions []DecodedInstruction `json:"instructions"`
}

// Instruction is one instruction of an outgoing transaction.
type Instruction struct {
	ProgramID string   `json:"programId"`
	Accounts  []string `json:"accounts,omitempty"`
	Data      []byte   `json:"data"`
}

// Transaction is an unsigned outgoing transaction message.
type Transaction struct {
	RecentBlockhash string        `json:"recentBlockhash"`
	FeePayer        string        `json:"feePayer"`
	Instructions    []Instruction `json:"instructions"`
}

// QueryService reads ledger state.
//
// Contract:
// - All methods are non-blocking beyond the supplied context.
// - GetTransaction MUST return ErrNotFound for unknown signatures.
// - Implementations never retry on the caller's behalf.
type QueryService interface {
	GetBalance(ctx context.Context, account string) (uint64, error)
	GetRecentSignatures(ctx context.Context, account string, limit int) ([]SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*TransactionDetails, error)
	GetRecentAnchorPoint(ctx context.Context) (AnchorPoint, error)
}

// SigningProvider is the base capability of a wallet or local keypair.
//
// A provider additionally implements exactly one of DirectSubmitter or
// TransactionSigner. Callers branch on which capability is present, never on
// runtime type names.
type SigningProvider interface {
	// Identity returns the provider's account identifier, or an error when no
	// signing identity is connected.
	Identity() (string, error)
}

// DirectSubmitter signs and submits in one step, returning the transaction id.
type DirectSubmitter interface {
	SigningProvider
	SignAndSubmit(ctx context.Context, tx *Transaction) (string, error)
}

// TransactionSigner signs only; the caller hands the signed bytes to a
// SubmissionService.
type TransactionSigner interface {
	SigningProvider
	Sign(ctx context.Context, tx *Transaction) ([]byte, error)
}

// SubmissionService submits signed transactions and awaits confirmation.
type SubmissionService interface {
	Submit(ctx context.Context, signed []byte) (string, error)
	AwaitConfirmation(ctx context.Context, txID, blockhash string) error
}
