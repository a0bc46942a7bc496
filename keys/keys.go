// Package keys provides a local filesystem-backed ed25519 signing provider.
//
// Features:
// - Ed25519 keys only
// - Keys stored on the local filesystem (0600 private key files)
// - Implements the ledger signing-provider capability interfaces
//
// Wallet integrations live outside this module; this package exists so the
// CLI can anchor without an external wallet.
package keys

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/kanima1/opentreasury/canonical"
	"github.com/kanima1/opentreasury/ledger"
)

// Keypair is a local ed25519 identity.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

var _ ledger.TransactionSigner = (*Keypair)(nil)

// Generate creates a fresh keypair.
func Generate() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// FromSeedHex builds a keypair from a 32-byte (64 hex char) seed.
func FromSeedHex(seedHex string) (*Keypair, error) {
	seedHex = strings.TrimPrefix(strings.TrimSpace(seedHex), "0x")
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid seed hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("seed must be 32 bytes (64 hex chars)")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// Identity returns the base58 public key, the ledger-native account id.
func (k *Keypair) Identity() (string, error) {
	if k == nil || len(k.pub) == 0 {
		return "", errors.New("no signing identity")
	}
	return base58.Encode(k.pub), nil
}

// Sign serializes the transaction message into its canonical byte form and
// signs sha256 of those bytes, returning a signed-transaction envelope.
func (k *Keypair) Sign(ctx context.Context, tx *ledger.Transaction) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k == nil || len(k.priv) == 0 {
		return nil, errors.New("no signing identity")
	}
	canon, err := canonical.Canonicalize(tx)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256([]byte(canon))
	sig := ed25519.Sign(k.priv, digest[:])
	return ledger.EncodeSignedTransaction(ledger.SignedTransaction{
		Message:   *tx,
		Signature: base58.Encode(sig),
	})
}

// Save writes the seed to path with owner-only permissions.
func (k *Keypair) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	seed := hex.EncodeToString(k.priv.Seed())
	return os.WriteFile(path, []byte(seed+"\n"), 0o600)
}

// Load reads a keypair saved by Save.
func Load(path string) (*Keypair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromSeedHex(string(b))
}

// VerifyEnvelope checks a signed-transaction envelope against an identity.
// Used by tests and the in-memory ledger; real ledgers verify natively.
func VerifyEnvelope(raw []byte, identity string) error {
	st, err := ledger.DecodeSignedTransaction(raw)
	if err != nil {
		return err
	}
	pub, err := base58.Decode(identity)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return ledger.ErrInvalidAccount
	}
	sig, err := base58.Decode(st.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return errors.New("invalid signature encoding")
	}
	canon, err := canonical.Canonicalize(&st.Message)
	if err != nil {
		return err
	}
	digest := sha256.Sum256([]byte(canon))
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
		return errors.New("signature did not verify")
	}
	return nil
}
