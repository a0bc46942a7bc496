package otms

import "github.com/kanima1/opentreasury/canonical"

// ProofRecord binds a document to its canonical bytes and digest.
//
// Records are ephemeral: created on demand, invalidated whenever the
// underlying annotation set changes, and never persisted. A stale record must
// not be anchored; callers regenerate at anchor time.
type ProofRecord struct {
	CanonicalJSON string
	DigestHex     string
	CID           string
	AnchorTxID    string
}

// NewProofRecord canonicalizes a document and computes its digest and CID.
func NewProofRecord(d Document) (*ProofRecord, error) {
	canon, err := canonical.Canonicalize(d)
	if err != nil {
		return nil, err
	}
	return &ProofRecord{
		CanonicalJSON: canon,
		DigestHex:     DigestHex(canon),
		CID:           ContentCID(canon),
	}, nil
}
