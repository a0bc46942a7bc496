package anchor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kanima1/opentreasury/ledger"
	"github.com/kanima1/opentreasury/logging"
	"github.com/kanima1/opentreasury/otms"
)

var (
	// ErrNoSigner means no signing identity (or capability) is available.
	ErrNoSigner = errors.New("anchor: no signing identity available")

	// ErrNothingToAnchor means no valid digest was supplied.
	ErrNothingToAnchor = errors.New("anchor: nothing to anchor")
)

// Writer builds and submits the memo transaction that anchors a digest.
//
// This is the only component that costs the caller a ledger fee and produces
// an irreversible public record. It must only run on an explicit user action
// and never retries: a duplicate anchor is a user-visible event, not
// something to deduplicate silently.
type Writer struct {
	Query  ledger.QueryService
	Submit ledger.SubmissionService
	Log    logging.Logger

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

// Anchor writes the memo for (treasury, digestHex) and returns the resulting
// transaction id after confirmation.
//
// The sequence fetch anchor point → sign → submit → await confirmation is
// strictly ordered; a stale anchor point invalidates the transaction.
func (w *Writer) Anchor(ctx context.Context, treasury, digestHex string, signer ledger.SigningProvider) (string, error) {
	if signer == nil {
		return "", ErrNoSigner
	}
	identity, err := signer.Identity()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSigner, err)
	}
	if !otms.ValidDigestHex(digestHex) {
		return "", ErrNothingToAnchor
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	memo := Encode(treasury, digestHex, now().UTC().Format(time.RFC3339))

	attempt := uuid.NewString()
	w.log().Info(ctx, "anchoring digest", "attempt", attempt, "treasury", treasury, "digest", digestHex)

	point, err := w.Query.GetRecentAnchorPoint(ctx)
	if err != nil {
		return "", fmt.Errorf("anchor: fetch anchor point: %w", err)
	}

	tx := &ledger.Transaction{
		RecentBlockhash: point.Blockhash,
		FeePayer:        identity,
		Instructions: []ledger.Instruction{{
			ProgramID: ledger.MemoProgramID,
			Data:      []byte(memo),
		}},
	}

	var txID string
	switch p := signer.(type) {
	case ledger.DirectSubmitter:
		txID, err = p.SignAndSubmit(ctx, tx)
		if err != nil {
			return "", fmt.Errorf("anchor: sign and submit: %w", err)
		}
	case ledger.TransactionSigner:
		signed, err := p.Sign(ctx, tx)
		if err != nil {
			return "", fmt.Errorf("anchor: sign: %w", err)
		}
		txID, err = w.Submit.Submit(ctx, signed)
		if err != nil {
			return "", fmt.Errorf("anchor: submit: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: provider exposes no signing capability", ErrNoSigner)
	}

	if err := w.Submit.AwaitConfirmation(ctx, txID, point.Blockhash); err != nil {
		return "", fmt.Errorf("anchor: confirmation: %w", err)
	}
	w.log().Info(ctx, "anchor confirmed", "attempt", attempt, "tx", txID)
	return txID, nil
}

func (w *Writer) log() logging.Logger {
	if w.Log != nil {
		return w.Log
	}
	return logging.Nop()
}
