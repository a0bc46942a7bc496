package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kanima1/opentreasury/annotstore"
	"github.com/kanima1/opentreasury/annotstore/testkit"
	"github.com/kanima1/opentreasury/otms"
)

func TestLocalFSConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) annotstore.Store {
		s, err := New(filepath.Join(t.TempDir(), "annotations.json"))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	ctx := context.Background()

	s1, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s1.Put(ctx, "acc", map[string]otms.Annotation{"sig": {Label: otms.LabelGrant}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("New(reopen): %v", err)
	}
	got, err := s2.Get(ctx, "acc")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got["sig"].Label != otms.LabelGrant {
		t.Fatalf("persisted annotation mismatch: %+v", got)
	}
}

func TestCorruptFileReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Get(context.Background(), "acc"); err == nil {
		t.Fatal("expected error for corrupt store file")
	}
}
