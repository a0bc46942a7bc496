package anchor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kanima1/opentreasury/keys"
	"github.com/kanima1/opentreasury/ledger"
	"github.com/kanima1/opentreasury/ledger/memledger"
)

const writerDigest = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func fixedNow() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

// directSubmitter wraps a keypair to expose the other capability set.
type directSubmitter struct {
	kp  *keys.Keypair
	mem *memledger.Ledger
}

func (d *directSubmitter) Identity() (string, error) { return d.kp.Identity() }

func (d *directSubmitter) SignAndSubmit(ctx context.Context, tx *ledger.Transaction) (string, error) {
	signed, err := d.kp.Sign(ctx, tx)
	if err != nil {
		return "", err
	}
	return d.mem.Submit(ctx, signed)
}

func TestAnchor_NoSigner(t *testing.T) {
	mem := memledger.New()
	w := &Writer{Query: mem, Submit: mem}
	_, err := w.Anchor(context.Background(), "T1", writerDigest, nil)
	if !errors.Is(err, ErrNoSigner) {
		t.Fatalf("got err=%v want ErrNoSigner", err)
	}
}

func TestAnchor_NothingToAnchor(t *testing.T) {
	mem := memledger.New()
	kp, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	w := &Writer{Query: mem, Submit: mem}
	for _, digest := range []string{"", "abc", strings.Repeat("z", 64)} {
		if _, err := w.Anchor(context.Background(), "T1", digest, kp); !errors.Is(err, ErrNothingToAnchor) {
			t.Fatalf("digest %q: got err=%v want ErrNothingToAnchor", digest, err)
		}
	}
}

func TestAnchor_SignThenSubmitPath(t *testing.T) {
	mem := memledger.New()
	kp, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	w := &Writer{Query: mem, Submit: mem, Now: fixedNow}

	txID, err := w.Anchor(context.Background(), "T1", writerDigest, kp)
	if err != nil {
		t.Fatalf("Anchor: %v", err)
	}

	tx, err := mem.GetTransaction(context.Background(), txID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if len(tx.Instructions) != 1 || tx.Instructions[0].ProgramID != ledger.MemoProgramID {
		t.Fatalf("anchored transaction malformed: %+v", tx)
	}
	memoText, _ := tx.Instructions[0].Parsed.(string)
	memo, err := Decode(memoText)
	if err != nil {
		t.Fatalf("Decode anchored memo: %v", err)
	}
	if memo.Treasury != "T1" || memo.DigestHex != writerDigest {
		t.Fatalf("anchored memo mismatch: %+v", memo)
	}
	if memo.TimestampISO != "2026-03-14T09:26:53Z" {
		t.Fatalf("timestamp not taken from clock: %q", memo.TimestampISO)
	}
}

func TestAnchor_DirectSubmitPath(t *testing.T) {
	mem := memledger.New()
	kp, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	w := &Writer{Query: mem, Submit: mem}

	txID, err := w.Anchor(context.Background(), "T1", writerDigest, &directSubmitter{kp: kp, mem: mem})
	if err != nil {
		t.Fatalf("Anchor via direct submitter: %v", err)
	}
	if _, err := mem.GetTransaction(context.Background(), txID); err != nil {
		t.Fatalf("anchored transaction not queryable: %v", err)
	}
}

func TestAnchor_SignedEnvelopeVerifies(t *testing.T) {
	mem := memledger.New()
	kp, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	identity, err := kp.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	point, err := mem.GetRecentAnchorPoint(context.Background())
	if err != nil {
		t.Fatalf("GetRecentAnchorPoint: %v", err)
	}
	signed, err := kp.Sign(context.Background(), &ledger.Transaction{
		RecentBlockhash: point.Blockhash,
		FeePayer:        identity,
		Instructions:    []ledger.Instruction{{ProgramID: ledger.MemoProgramID, Data: []byte("m")}},
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := keys.VerifyEnvelope(signed, identity); err != nil {
		t.Fatalf("VerifyEnvelope: %v", err)
	}
}
