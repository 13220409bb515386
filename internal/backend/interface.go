package backend

import (
	"context"

	"rodger/internal/services"
)

// CleanupFunc releases what a factory created.
type CleanupFunc func() error

// Result holds the assembled service and its cleanup.
type Result struct {
	Service *services.LedgerService
	Cleanup CleanupFunc
}

// Factory builds a ready ledger service from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// BackendType selects where documents are stored.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	BoltBackend   BackendType = "bolt"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, BoltBackend:
		return true
	default:
		return false
	}
}

// GetBackendTypes lists every supported backend.
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend, BoltBackend}
}
