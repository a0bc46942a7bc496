// Package testkit runs the shared conformance suite for annotation store
// implementations.
package testkit

import (
	"context"
	"testing"

	"github.com/kanima1/opentreasury/annotstore"
	"github.com/kanima1/opentreasury/otms"
)

// NewStore constructs a fresh, empty Store instance for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) annotstore.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissingAccount", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "account-1")
		if !annotstore.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := map[string]otms.Annotation{
			"sig1": {Label: otms.LabelDonation, Note: otms.Note{Description: "drive"}},
			"sig2": {Label: otms.LabelOther, Note: otms.Note{CustomCategory: "Legal"}, ProofURL: "https://example.org"},
		}
		if err := s.Put(ctx, "account-1", want); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "account-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d annotations, want %d", len(got), len(want))
		}
		for k, w := range want {
			if got[k] != w {
				t.Fatalf("annotation %s: got %+v want %+v", k, got[k], w)
			}
		}
	})

	t.Run("PutReplacesWholeMapping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, "account-1", map[string]otms.Annotation{
			"sig1": {Label: otms.LabelOps},
			"sig2": {Label: otms.LabelGrant},
		}); err != nil {
			t.Fatalf("Put(1): %v", err)
		}
		if err := s.Put(ctx, "account-1", map[string]otms.Annotation{
			"sig3": {Label: otms.LabelMilestone},
		}); err != nil {
			t.Fatalf("Put(2): %v", err)
		}
		got, err := s.Get(ctx, "account-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Put did not replace mapping: %+v", got)
		}
		if _, ok := got["sig3"]; !ok {
			t.Fatalf("replacement mapping missing sig3: %+v", got)
		}
	})

	t.Run("AccountsAreIsolated", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, "account-1", map[string]otms.Annotation{"sig1": {Label: otms.LabelOps}}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if _, err := s.Get(ctx, "account-2"); !annotstore.IsNotFound(err) {
			t.Fatalf("Get other account: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("ReturnedMapIsACopy", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, "account-1", map[string]otms.Annotation{"sig1": {Label: otms.LabelOps}}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "account-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		got["sig1"] = otms.Annotation{Label: otms.LabelGrant}
		again, err := s.Get(ctx, "account-1")
		if err != nil {
			t.Fatalf("Get again: %v", err)
		}
		if again["sig1"].Label != otms.LabelOps {
			t.Fatal("mutating the returned map leaked into the store")
		}
	})
}
