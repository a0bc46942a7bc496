package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// SignedTransaction is the wire envelope a TransactionSigner produces and a
// SubmissionService consumes: the transaction message plus the base58 ed25519
// signature over the canonical message bytes.
type SignedTransaction struct {
	Message   Transaction `json:"message"`
	Signature string      `json:"signature"`
}

// EncodeSignedTransaction serializes the envelope.
func EncodeSignedTransaction(st SignedTransaction) ([]byte, error) {
	if st.Signature == "" {
		return nil, errors.New("ledger: unsigned transaction")
	}
	return json.Marshal(st)
}

// DecodeSignedTransaction parses the envelope.
func DecodeSignedTransaction(raw []byte) (SignedTransaction, error) {
	var st SignedTransaction
	if err := json.Unmarshal(raw, &st); err != nil {
		return SignedTransaction{}, fmt.Errorf("ledger: decode signed transaction: %w", err)
	}
	if st.Signature == "" {
		return SignedTransaction{}, errors.New("ledger: missing signature")
	}
	return st, nil
}

// ValidAccountID reports whether s decodes as a 32-byte base58 account id.
func ValidAccountID(s string) bool {
	b, err := base58.Decode(s)
	return err == nil && len(b) == 32
}

// ValidTransactionSignature reports whether s decodes as a 64-byte base58
// transaction signature.
func ValidTransactionSignature(s string) bool {
	b, err := base58.Decode(s)
	return err == nil && len(b) == 64
}
