package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Operations are append-only: there is
// deliberately no update or delete for them.
type Transaction interface {
	Snapshot() TransactionView
	CreateCulture(Culture) (Culture, error)
	UpdateCulture(id string, mutator func(*Culture) error) (Culture, error)
	CreateLot(Lot) (Lot, error)
	UpdateLot(id string, mutator func(*Lot) error) (Lot, error)
	CreateContainer(Container) (Container, error)
	UpdateContainer(id string, mutator func(*Container) error) (Container, error)
	CreateBank(Bank) (Bank, error)
	UpdateBank(id string, mutator func(*Bank) error) (Bank, error)
	CreateCryoVial(CryoVial) (CryoVial, error)
	UpdateCryoVial(id string, mutator func(*CryoVial) error) (CryoVial, error)
	CreateNomenclature(Nomenclature) (Nomenclature, error)
	UpdateNomenclature(id string, mutator func(*Nomenclature) error) (Nomenclature, error)
	CreateBatch(Batch) (Batch, error)
	UpdateBatch(id string, mutator func(*Batch) error) (Batch, error)
	CreateReadyMedium(ReadyMedium) (ReadyMedium, error)
	UpdateReadyMedium(id string, mutator func(*ReadyMedium) error) (ReadyMedium, error)
	CreateStoragePosition(StoragePosition) (StoragePosition, error)
	UpdateStoragePosition(id string, mutator func(*StoragePosition) error) (StoragePosition, error)
	AppendOperation(Operation) (Operation, error)
}

// TransactionView provides read-only access to a single consistent snapshot.
// All reads used within one operation's validation come from one view, so
// there is no time-of-check/time-of-use gap across calls.
type TransactionView interface {
	RuleView
	ListLotsForCulture(cultureID string) []Lot
	ListContainersForLot(lotID string) []Container
	ListBanksForCulture(cultureID string) []Bank
	ListVialsForBank(bankID string) []CryoVial
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetLot(id string) (Lot, bool)
	GetBank(id string) (Bank, bool)
	ListCultures() []Culture
	ListLots() []Lot
	ListBanks() []Bank
	ListOperations() []Operation
}
