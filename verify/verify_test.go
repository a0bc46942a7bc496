package verify

import (
	"context"
	"strings"
	"testing"

	"github.com/kanima1/opentreasury/anchor"
	"github.com/kanima1/opentreasury/canonical"
	"github.com/kanima1/opentreasury/ledger"
	"github.com/kanima1/opentreasury/ledger/memledger"
	"github.com/kanima1/opentreasury/otms"
)

const docJSON = `{"version":1,"standard":"OTMS","treasury":"T1","entries":[]}`

func docDigest(t *testing.T) string {
	t.Helper()
	canon, err := canonical.CanonicalizeJSON([]byte(docJSON))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %v", err)
	}
	return otms.DigestHex(canon)
}

func anchoredLedger(t *testing.T, treasury, digest string) (*memledger.Ledger, string) {
	t.Helper()
	mem := memledger.New()
	memo := anchor.Encode(treasury, digest, "2026-03-14T09:26:53Z")
	sig := mem.AddMemoTransaction(treasury, memo)
	return mem, sig
}

func TestVerify_Verified(t *testing.T) {
	mem, sig := anchoredLedger(t, "T1", docDigest(t))
	v := &Verifier{Query: mem}
	res, err := v.Verify(context.Background(), sig, docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != Verified {
		t.Fatalf("got %s want Verified (%+v)", res.Verdict, res)
	}
	if !res.HashMatched || res.MemoText == "" {
		t.Fatalf("result missing audit fields: %+v", res)
	}
}

func TestVerify_HashMismatch(t *testing.T) {
	digest := docDigest(t)
	// Alter one character of the anchored hash.
	altered := digest[:len(digest)-1]
	if strings.HasSuffix(digest, "0") {
		altered += "1"
	} else {
		altered += "0"
	}
	mem, sig := anchoredLedger(t, "T1", altered)
	v := &Verifier{Query: mem}
	res, err := v.Verify(context.Background(), sig, docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != HashMismatch {
		t.Fatalf("got %s want HashMismatch", res.Verdict)
	}
	if res.ComputedHash != digest || res.MemoHash != altered {
		t.Fatalf("diagnostics must carry both hashes: %+v", res)
	}
	if res.MemoText == "" {
		t.Fatal("diagnostics must carry raw memo text")
	}
}

func TestVerify_CaseInsensitiveHashMatch(t *testing.T) {
	mem, sig := anchoredLedger(t, "T1", strings.ToUpper(docDigest(t)))
	v := &Verifier{Query: mem}
	res, err := v.Verify(context.Background(), sig, docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != Verified {
		t.Fatalf("uppercase memo hash should still verify, got %s", res.Verdict)
	}
}

func TestVerify_TransactionNotFound(t *testing.T) {
	v := &Verifier{Query: memledger.New()}
	res, err := v.Verify(context.Background(), "unknown-signature", docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != TransactionNotFound {
		t.Fatalf("got %s want TransactionNotFound", res.Verdict)
	}
}

func TestVerify_NoMemoInstruction(t *testing.T) {
	mem := memledger.New()
	mem.AddTransaction("T1", &ledger.TransactionDetails{
		Signature: "sig-transfer",
		Instructions: []ledger.DecodedInstruction{{
			ProgramID: "11111111111111111111111111111111",
			Program:   "system",
		}},
	})
	v := &Verifier{Query: mem}
	res, err := v.Verify(context.Background(), "sig-transfer", docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != NoMemoInstruction {
		t.Fatalf("got %s want NoMemoInstruction", res.Verdict)
	}
}

func TestVerify_MissingHashLine(t *testing.T) {
	mem := memledger.New()
	sig := mem.AddMemoTransaction("T1", "just some memo\nwith no digest at all")
	v := &Verifier{Query: mem}
	res, err := v.Verify(context.Background(), sig, docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != MissingHashLine {
		t.Fatalf("got %s want MissingHashLine", res.Verdict)
	}
}

func TestVerify_TreasuryMismatchIsWarningLevel(t *testing.T) {
	mem, sig := anchoredLedger(t, "SomeoneElse", docDigest(t))
	v := &Verifier{Query: mem}
	res, err := v.Verify(context.Background(), sig, docJSON)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != TreasuryMismatch {
		t.Fatalf("got %s want TreasuryMismatch", res.Verdict)
	}
	if !res.HashMatched {
		t.Fatal("treasury mismatch must still report the matched hash")
	}
	if !res.OK() {
		t.Fatal("treasury mismatch is warning-level, not a rejection")
	}
}

// failingQuery asserts no network call is performed.
type failingQuery struct{}

func (failingQuery) GetBalance(context.Context, string) (uint64, error) {
	panic("unexpected network call")
}
func (failingQuery) GetRecentSignatures(context.Context, string, int) ([]ledger.SignatureInfo, error) {
	panic("unexpected network call")
}
func (failingQuery) GetTransaction(context.Context, string) (*ledger.TransactionDetails, error) {
	panic("unexpected network call")
}
func (failingQuery) GetRecentAnchorPoint(context.Context) (ledger.AnchorPoint, error) {
	panic("unexpected network call")
}

func TestVerify_MissingInputSkipsNetwork(t *testing.T) {
	v := &Verifier{Query: failingQuery{}}
	for _, tc := range []struct{ tx, doc string }{
		{"", docJSON},
		{"sig", ""},
		{"   ", "  "},
	} {
		res, err := v.Verify(context.Background(), tc.tx, tc.doc)
		if err != nil {
			t.Fatalf("Verify(%q,%q): %v", tc.tx, tc.doc, err)
		}
		if res.Verdict != MissingInput {
			t.Fatalf("got %s want MissingInput", res.Verdict)
		}
	}
}

func TestVerify_InvalidJSONSkipsNetwork(t *testing.T) {
	v := &Verifier{Query: failingQuery{}}
	res, err := v.Verify(context.Background(), "sig", "{not json")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verdict != InvalidJSON {
		t.Fatalf("got %s want InvalidJSON", res.Verdict)
	}
}

func TestVerify_NestedMemoPayloadShapes(t *testing.T) {
	digest := docDigest(t)
	memo := anchor.Encode("T1", digest, "2026-03-14T09:26:53Z")

	shapes := map[string]any{
		"raw string":  memo,
		"memo field":  map[string]any{"memo": memo},
		"info nested": map[string]any{"info": map[string]any{"memo": memo}},
	}
	for name, parsed := range shapes {
		t.Run(name, func(t *testing.T) {
			mem := memledger.New()
			mem.AddTransaction("T1", &ledger.TransactionDetails{
				Signature: "sig-" + name,
				Instructions: []ledger.DecodedInstruction{{
					ProgramID: ledger.MemoProgramID,
					Parsed:    parsed,
				}},
			})
			v := &Verifier{Query: mem}
			res, err := v.Verify(context.Background(), "sig-"+name, docJSON)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if res.Verdict != Verified {
				t.Fatalf("shape %s: got %s want Verified", name, res.Verdict)
			}
		})
	}
}
