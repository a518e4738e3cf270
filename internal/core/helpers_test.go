package core

import (
	"context"
	"testing"

	"culturecore/internal/infra/persistence/memory"
	"culturecore/pkg/domain"
)

// newSeededStore builds an in-memory store without rules and commits the seed
// function as one transaction.
func newSeededStore(t *testing.T, seed func(tx domain.Transaction) error) *memory.Store {
	t.Helper()
	store := memory.NewStore(nil)
	if _, err := store.RunInTransaction(context.Background(), seed); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func floatP(v float64) *float64 { return &v }

func stringP(v string) *string { return &v }
