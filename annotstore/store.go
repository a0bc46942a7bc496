// Package annotstore defines the annotation store consumed by the treasury
// service: a mapping from tracked account to its signature-keyed annotations.
package annotstore

import (
	"context"
	"errors"

	"github.com/kanima1/opentreasury/otms"
)

var ErrNotFound = errors.New("annotstore: account not found")

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Store owns annotation persistence.
//
// Contract:
// - Get MUST return ErrNotFound for accounts never written.
// - Put MUST replace the account's whole mapping atomically.
// - Annotations are mutated only through Put; they never expire on their own.
// - Returned maps are the caller's to mutate (implementations copy).
type Store interface {
	Get(ctx context.Context, accountID string) (map[string]otms.Annotation, error)
	Put(ctx context.Context, accountID string, annotations map[string]otms.Annotation) error
}
