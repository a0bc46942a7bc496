// Package memledger is an in-memory ledger used by tests and the local
// development daemon.
//
// It is deliberately simple: no consensus, no fees, instant confirmation.
// Submitted memo transactions become queryable immediately.
package memledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/kanima1/opentreasury/ledger"
)

type Ledger struct {
	mu        sync.Mutex
	slot      uint64
	balances  map[string]uint64
	txs       map[string]*ledger.TransactionDetails
	history   map[string][]ledger.SignatureInfo
	confirmed map[string]bool
}

var _ ledger.QueryService = (*Ledger)(nil)
var _ ledger.SubmissionService = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{
		balances:  make(map[string]uint64),
		txs:       make(map[string]*ledger.TransactionDetails),
		history:   make(map[string][]ledger.SignatureInfo),
		confirmed: make(map[string]bool),
	}
}

// SetBalance seeds an account balance.
func (l *Ledger) SetBalance(account string, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = lamports
}

// AddTransaction registers a pre-built transaction under its signature and
// appends it to the fee payer's history.
func (l *Ledger) AddTransaction(account string, tx *ledger.TransactionDetails) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slot++
	tx.Slot = l.slot
	l.txs[tx.Signature] = tx
	l.history[account] = append([]ledger.SignatureInfo{{Signature: tx.Signature, Slot: l.slot}}, l.history[account]...)
	l.confirmed[tx.Signature] = true
}

// AddMemoTransaction registers a confirmed transaction carrying a single memo
// instruction with the given text, returning its signature.
func (l *Ledger) AddMemoTransaction(account, memo string) string {
	sig := randomSignature()
	l.AddTransaction(account, &ledger.TransactionDetails{
		Signature: sig,
		Instructions: []ledger.DecodedInstruction{{
			ProgramID: ledger.MemoProgramID,
			Program:   "spl-memo",
			Parsed:    memo,
		}},
	})
	return sig
}

func (l *Ledger) GetBalance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *Ledger) GetRecentSignatures(ctx context.Context, account string, limit int) ([]ledger.SignatureInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.history[account]
	if limit > 0 && limit < len(h) {
		h = h[:limit]
	}
	return append([]ledger.SignatureInfo(nil), h...), nil
}

func (l *Ledger) GetTransaction(ctx context.Context, signature string) (*ledger.TransactionDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txs[signature]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *tx
	cp.Instructions = append([]ledger.DecodedInstruction(nil), tx.Instructions...)
	return &cp, nil
}

func (l *Ledger) GetRecentAnchorPoint(ctx context.Context) (ledger.AnchorPoint, error) {
	if err := ctx.Err(); err != nil {
		return ledger.AnchorPoint{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slot++
	return ledger.AnchorPoint{
		Blockhash:            fmt.Sprintf("memblockhash-%d", l.slot),
		LastValidBlockHeight: l.slot + 150,
	}, nil
}

// Submit accepts a signed transaction envelope, registers it as confirmed,
// and returns its id. Every instruction's payload is stored in its decoded
// string form so verifiers see the same shape a real query service returns.
func (l *Ledger) Submit(ctx context.Context, signed []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	st, err := ledger.DecodeSignedTransaction(signed)
	if err != nil {
		return "", err
	}
	decoded := make([]ledger.DecodedInstruction, 0, len(st.Message.Instructions))
	for _, in := range st.Message.Instructions {
		decoded = append(decoded, ledger.DecodedInstruction{
			ProgramID: in.ProgramID,
			Parsed:    string(in.Data),
		})
	}
	sig := st.Signature
	l.AddTransaction(st.Message.FeePayer, &ledger.TransactionDetails{
		Signature:    sig,
		Instructions: decoded,
	})
	return sig, nil
}

func (l *Ledger) AwaitConfirmation(ctx context.Context, txID, blockhash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.confirmed[txID] {
		return ledger.ErrNotConfirmed
	}
	return nil
}

func randomSignature() string {
	b := make([]byte, 64)
	_, _ = rand.Read(b)
	return base58.Encode(b)
}
