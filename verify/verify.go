// Package verify checks that an on-chain transaction attests to the exact
// content of an OTMS document.
//
// Verification outcomes are first-class values, not errors: "not verified"
// is a normal, testable result. Only infrastructure failures (a query-service
// outage) surface as errors.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kanima1/opentreasury/anchor"
	"github.com/kanima1/opentreasury/canonical"
	"github.com/kanima1/opentreasury/ledger"
	"github.com/kanima1/opentreasury/otms"
)

// Verdict is the outcome kind of a verification run.
type Verdict string

const (
	Verified            Verdict = "VERIFIED"
	HashMismatch        Verdict = "HASH_MISMATCH"
	TreasuryMismatch    Verdict = "TREASURY_MISMATCH"
	TransactionNotFound Verdict = "TRANSACTION_NOT_FOUND"
	NoMemoInstruction   Verdict = "NO_MEMO_INSTRUCTION"
	UnreadableMemo      Verdict = "UNREADABLE_MEMO"
	MissingHashLine     Verdict = "MISSING_HASH_LINE"
	MissingInput        Verdict = "MISSING_INPUT"
	InvalidJSON         Verdict = "INVALID_JSON"
)

// Result is a structured verification outcome with its diagnostics.
//
// HashMatched distinguishes TreasuryMismatch, where the content hash already
// matched and the verdict is warning-level, from the hard mismatch kinds.
type Result struct {
	Verdict      Verdict `json:"verdict"`
	ComputedHash string  `json:"computedHash,omitempty"`
	MemoHash     string  `json:"memoHash,omitempty"`
	HashMatched  bool    `json:"hashMatched"`
	MemoText     string  `json:"memoText,omitempty"`
	Detail       string  `json:"detail,omitempty"`
}

// OK reports whether the verdict is acceptable for audit purposes
// (Verified, or the warning-level TreasuryMismatch).
func (r Result) OK() bool {
	return r.Verdict == Verified || r.Verdict == TreasuryMismatch
}

// Verifier re-derives a document digest and matches it against the anchor
// memo fetched from the ledger.
//
// Each call is independent and restarts from scratch; no terminal state is
// ever retried automatically. Concurrent verifications share nothing.
type Verifier struct {
	Query ledger.QueryService
}

// Verify runs the full verification algorithm for one transaction id and one
// candidate document given as raw JSON text.
//
// No network call is made when the inputs are rejected up front.
func (v *Verifier) Verify(ctx context.Context, txID, documentJSON string) (Result, error) {
	txID = strings.TrimSpace(txID)
	if txID == "" || strings.TrimSpace(documentJSON) == "" {
		return Result{Verdict: MissingInput, Detail: "transaction id and document JSON are both required"}, nil
	}

	parsed, err := canonical.ParseJSON([]byte(documentJSON))
	if err != nil {
		return Result{Verdict: InvalidJSON, Detail: err.Error()}, nil
	}
	canon, err := canonical.Canonicalize(parsed)
	if err != nil {
		return Result{Verdict: InvalidJSON, Detail: err.Error()}, nil
	}
	computed := otms.DigestHex(canon)

	tx, err := v.Query.GetTransaction(ctx, txID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return Result{Verdict: TransactionNotFound, ComputedHash: computed}, nil
		}
		return Result{}, fmt.Errorf("verify: fetch transaction: %w", err)
	}

	memoText, found, readable := memoPayload(tx)
	if !found {
		return Result{Verdict: NoMemoInstruction, ComputedHash: computed}, nil
	}
	if !readable {
		return Result{Verdict: UnreadableMemo, ComputedHash: computed}, nil
	}

	memo, err := anchor.Decode(memoText)
	if err != nil {
		if errors.Is(err, anchor.ErrMissingHashLine) {
			return Result{Verdict: MissingHashLine, ComputedHash: computed, MemoText: memoText}, nil
		}
		return Result{Verdict: UnreadableMemo, ComputedHash: computed, MemoText: memoText, Detail: err.Error()}, nil
	}

	if !strings.EqualFold(computed, memo.DigestHex) {
		return Result{
			Verdict:      HashMismatch,
			ComputedHash: computed,
			MemoHash:     memo.DigestHex,
			MemoText:     memoText,
		}, nil
	}

	docTreasury := treasuryField(parsed)
	if docTreasury != "" && memo.Treasury != "" && docTreasury != memo.Treasury {
		// The content hash already matched; a treasury disagreement is a
		// warning, not a rejection.
		return Result{
			Verdict:      TreasuryMismatch,
			ComputedHash: computed,
			MemoHash:     memo.DigestHex,
			HashMatched:  true,
			MemoText:     memoText,
			Detail:       fmt.Sprintf("document treasury %q, memo treasury %q", docTreasury, memo.Treasury),
		}, nil
	}

	return Result{
		Verdict:      Verified,
		ComputedHash: computed,
		MemoHash:     memo.DigestHex,
		HashMatched:  true,
		MemoText:     memoText,
	}, nil
}

// memoPayload scans the instruction list for the memo program and extracts
// its text. The query service's decoding shape varies: the payload may be a
// raw string, a nested parsed field, or undecoded instruction data.
func memoPayload(tx *ledger.TransactionDetails) (text string, found, readable bool) {
	for _, in := range tx.Instructions {
		if in.ProgramID != ledger.MemoProgramID && in.Program != "spl-memo" {
			continue
		}
		found = true
		switch p := in.Parsed.(type) {
		case string:
			if p != "" {
				return p, true, true
			}
		case map[string]any:
			if s, ok := p["memo"].(string); ok && s != "" {
				return s, true, true
			}
			if info, ok := p["info"].(map[string]any); ok {
				if s, ok := info["memo"].(string); ok && s != "" {
					return s, true, true
				}
			}
		}
		if in.Data != "" {
			return in.Data, true, true
		}
	}
	return "", found, false
}

func treasuryField(parsed any) string {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj["treasury"].(string)
	return s
}
