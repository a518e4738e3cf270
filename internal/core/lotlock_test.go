package core

import (
	"errors"
	"testing"

	"culturecore/pkg/domain"
)

func TestLotLocksConflict(t *testing.T) {
	locks := newLotLocks()

	release, err := locks.Acquire("lot-1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := locks.Acquire("lot-1"); err == nil {
		t.Fatal("second acquire must conflict")
	} else {
		var conflict domain.ConflictError
		if !errors.As(err, &conflict) || conflict.ID != "lot-1" {
			t.Fatalf("expected lot conflict, got %v", err)
		}
	}

	// Other lots are unaffected.
	other, err := locks.Acquire("lot-2")
	if err != nil {
		t.Fatalf("independent acquire: %v", err)
	}
	other()

	release()
	release() // idempotent
	again, err := locks.Acquire("lot-1")
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	again()
}
