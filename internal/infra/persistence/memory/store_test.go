package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"culturecore/pkg/domain"
)

func seedCulture(t *testing.T, store *Store, name string) domain.Culture {
	t.Helper()
	var culture domain.Culture
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		culture, err = tx.CreateCulture(domain.Culture{Name: name})
		return err
	})
	if err != nil {
		t.Fatalf("seed culture: %v", err)
	}
	return culture
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	store := NewStore(nil)
	culture := seedCulture(t, store, "HEK293")

	got, ok := store.ListCultures(), false
	for _, c := range got {
		if c.ID == culture.ID && c.Name == "HEK293" {
			ok = true
		}
	}
	if !ok {
		t.Fatalf("committed culture not visible: %+v", got)
	}
	if culture.CreatedAt.IsZero() || culture.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not stamped: %+v", culture)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := NewStore(nil)
	sentinel := errors.New("boom")

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateCulture(domain.Culture{Name: "discarded"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if got := store.ListCultures(); len(got) != 0 {
		t.Fatalf("rolled-back culture leaked: %+v", got)
	}
}

func TestCreateValidatesReferences(t *testing.T) {
	store := NewStore(nil)

	var notFound domain.ErrNotFound
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateLot(domain.Lot{CultureID: "missing", Status: domain.LotStatusActive})
		return err
	})
	if !errors.As(err, &notFound) || notFound.Entity != domain.EntityCulture {
		t.Fatalf("lot without culture: expected culture not found, got %v", err)
	}

	culture := seedCulture(t, store, "HEK293")
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		lot, err := tx.CreateLot(domain.Lot{CultureID: culture.ID, Status: domain.LotStatusActive, SeededAt: time.Now()})
		if err != nil {
			return err
		}
		missing := "nowhere"
		_, err = tx.CreateContainer(domain.Container{LotID: lot.ID, TypeCode: "T75", Status: domain.ContainerStatusInCulture, PositionID: &missing})
		return err
	})
	if !errors.As(err, &notFound) || notFound.Entity != domain.EntityStoragePosition {
		t.Fatalf("container with dangling position: expected position not found, got %v", err)
	}
	// The failed transaction must not leave the lot behind.
	if got := store.ListLots(); len(got) != 0 {
		t.Fatalf("rolled-back lot leaked: %+v", got)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	store := NewStore(nil)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateCulture(domain.Culture{Base: domain.Base{ID: "c1"}, Name: "first"}); err != nil {
			return err
		}
		_, err := tx.CreateCulture(domain.Culture{Base: domain.Base{ID: "c1"}, Name: "second"})
		return err
	})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestUpdateMissingEntity(t *testing.T) {
	store := NewStore(nil)

	var notFound domain.ErrNotFound
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateLot("missing", func(*domain.Lot) error { return nil })
		return err
	})
	if !errors.As(err, &notFound) || notFound.Entity != domain.EntityLot {
		t.Fatalf("expected lot not found, got %v", err)
	}
}

func TestReturnedEntitiesAreClones(t *testing.T) {
	store := NewStore(nil)
	culture := seedCulture(t, store, "HEK293")

	culture.Name = "mutated locally"
	for _, c := range store.ListCultures() {
		if c.ID == culture.ID && c.Name != "HEK293" {
			t.Fatalf("caller mutation leaked into the store: %+v", c)
		}
	}

	listed := store.ListCultures()
	listed[0].Name = "mutated via list"
	again := store.ListCultures()
	if again[0].Name != "HEK293" {
		t.Fatalf("list mutation leaked into the store: %+v", again[0])
	}
}

func TestViewSeesCommittedState(t *testing.T) {
	store := NewStore(nil)
	culture := seedCulture(t, store, "HEK293")

	err := store.View(context.Background(), func(view domain.TransactionView) error {
		if _, ok := view.FindCulture(culture.ID); !ok {
			t.Fatalf("culture not visible in view")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := NewStore(nil)
	culture := seedCulture(t, store, "HEK293")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		lot, err := tx.CreateLot(domain.Lot{CultureID: culture.ID, Status: domain.LotStatusActive, SeededAt: time.Now()})
		if err != nil {
			return err
		}
		_, err = tx.CreateContainer(domain.Container{LotID: lot.ID, TypeCode: "T75", Status: domain.ContainerStatusInCulture})
		return err
	})
	if err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	snapshot := store.ExportState()
	restored := NewStore(nil)
	restored.ImportState(snapshot)

	if got := restored.ListCultures(); len(got) != 1 || got[0].ID != culture.ID {
		t.Fatalf("restored cultures: %+v", got)
	}
	if got := restored.ListLots(); len(got) != 1 {
		t.Fatalf("restored lots: %+v", got)
	}
}

func TestImportMigratesOrphans(t *testing.T) {
	store := NewStore(nil)
	culture := seedCulture(t, store, "HEK293")
	var lot domain.Lot
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		lot, err = tx.CreateLot(domain.Lot{CultureID: culture.ID, Status: domain.LotStatusActive, SeededAt: time.Now()})
		if err != nil {
			return err
		}
		_, err = tx.CreateContainer(domain.Container{LotID: lot.ID, TypeCode: "T75", Status: domain.ContainerStatusInCulture})
		return err
	})
	if err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	snapshot := store.ExportState()
	// Simulate a hand-edited state file: lot without its culture, container
	// pointing at a deleted position, nil maps.
	delete(snapshot.Cultures, culture.ID)
	for id, c := range snapshot.Containers {
		missing := "deleted-position"
		c.PositionID = &missing
		snapshot.Containers[id] = c
	}
	snapshot.Media = nil
	snapshot.Operations = nil

	restored := NewStore(nil)
	restored.ImportState(snapshot)

	if got := restored.ListLots(); len(got) != 0 {
		t.Fatalf("orphan lot survived import: %+v", got)
	}
	err = restored.View(context.Background(), func(view domain.TransactionView) error {
		if got := view.ListContainersForLot(lot.ID); len(got) != 0 {
			t.Fatalf("orphan container survived import: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestListOperationsInAppendOrder(t *testing.T) {
	store := NewStore(nil)
	culture := seedCulture(t, store, "HEK293")

	for _, opType := range []domain.OperationType{domain.OpObserve, domain.OpFeed, domain.OpPassage} {
		opType := opType
		if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			_, err := tx.AppendOperation(domain.Operation{Type: opType, CultureID: culture.ID, PerformedAt: time.Now()})
			return err
		}); err != nil {
			t.Fatalf("append %s: %v", opType, err)
		}
	}

	ops := store.ListOperations()
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
	want := []domain.OperationType{domain.OpObserve, domain.OpFeed, domain.OpPassage}
	for i, op := range ops {
		if op.Type != want[i] {
			t.Fatalf("operation %d type=%s want %s", i, op.Type, want[i])
		}
	}
}
