// Package storage defines the persistence port shared by the ledger and the
// item registry. A backend keeps one serialized document per key and
// replaces it wholesale on every save.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing was stored under a key.
var ErrNotFound = errors.New("document not found")

// Backend stores opaque documents by key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}
