package annotstore_test

import (
	"testing"

	"github.com/kanima1/opentreasury/annotstore"
	"github.com/kanima1/opentreasury/annotstore/testkit"
)

func TestMemStoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) annotstore.Store {
		return annotstore.NewMemStore()
	})
}
