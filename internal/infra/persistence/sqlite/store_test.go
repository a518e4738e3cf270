package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"culturecore/pkg/domain"
)

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	var culture domain.Culture
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		culture, err = tx.CreateCulture(domain.Culture{Name: "HEK293"})
		return err
	})
	if err != nil {
		t.Fatalf("create culture: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	cultures := reopened.ListCultures()
	if len(cultures) != 1 || cultures[0].ID != culture.ID || cultures[0].Name != "HEK293" {
		t.Fatalf("state lost across reopen: %+v", cultures)
	}
}

func TestFailedTransactionIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateCulture(domain.Culture{Name: "discarded"}); err != nil {
			return err
		}
		return domain.ValidationError{Field: "name", Reason: "rejected"}
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if cultures := reopened.ListCultures(); len(cultures) != 0 {
		t.Fatalf("rolled-back state persisted: %+v", cultures)
	}
}

func TestEmptyDatabaseStartsClean(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "fresh.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if cultures := store.ListCultures(); len(cultures) != 0 {
		t.Fatalf("fresh store not empty: %+v", cultures)
	}
}
