package core

import (
	"fmt"
	"os"

	"chambercore/internal/infra/persistence/memory"
	"chambercore/internal/infra/persistence/postgres"
	"chambercore/internal/infra/persistence/sqlite"
)

// StoreOption configures the in-memory registry state shared by every
// backend.
type StoreOption = memory.Option

// WithSampleIndexOrigin sets the first index assigned to samples within a run.
func WithSampleIndexOrigin(origin uint64) StoreOption {
	return memory.WithSampleIndexOrigin(origin)
}

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	CHAMBERCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	CHAMBERCORE_SQLITE_PATH: path to sqlite file (default ./chambercore.db)
//	CHAMBERCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine, opts ...StoreOption) (PersistentStore, error) {
	driver := os.Getenv("CHAMBERCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		path := os.Getenv("CHAMBERCORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine, opts...)
	case StoragePostgres:
		dsn := os.Getenv("CHAMBERCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// NewMemoryStore constructs the ephemeral backend directly, bypassing
// environment selection.
func NewMemoryStore(engine *RulesEngine, opts ...StoreOption) *memory.Store {
	return memory.NewStore(engine, opts...)
}

// NewSQLiteStore constructs the embedded SQLite backend directly.
func NewSQLiteStore(path string, engine *RulesEngine, opts ...StoreOption) (*sqlite.Store, error) {
	return sqlite.NewStore(path, engine, opts...)
}
