package core

import (
	"fmt"
	"os"

	"culturecore/internal/infra/persistence/memory"
	"culturecore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	CULTURECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	CULTURECORE_SQLITE_PATH: path to sqlite file (default ./culturecore.db)
//	CULTURECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("CULTURECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("CULTURECORE_SQLITE_PATH")
		return NewSQLiteStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("CULTURECORE_POSTGRES_DSN")
		return NewPostgresStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
