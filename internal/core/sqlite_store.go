package core

import "culturecore/internal/infra/persistence/sqlite"

// NewSQLiteStore constructs a new SQLite-backed persistent store using the
// provided file path (may be empty for default) and rules engine.
func NewSQLiteStore(path string, engine *RulesEngine) (*sqlite.Store, error) {
	return sqlite.NewStore(path, engine)
}
