package config

import (
	"os"

	"tasklist/internal/storage"
	"tasklist/internal/storage/memory"
	"tasklist/internal/storage/sqlite"
)

// CreateEngine builds the storage engine for the configured environment.
// The testing environment gets a fresh in-memory engine; every other
// environment opens the SQLite database at GetDatabasePath.
func CreateEngine(cfg *Config) (storage.Engine, error) {
	if cfg.Application.Environment == Testing {
		return memory.New(), nil
	}

	opts := sqlite.Options{
		BusyTimeout:    cfg.Database.BusyTimeout,
		DirPermissions: os.FileMode(cfg.Database.DirPermissions),
	}
	return sqlite.NewWithOptions(cfg.GetDatabasePath(), opts)
}
