// Package storage reads columnar snapshot files into tables. Each logical
// dataset is addressed by an opaque resource identifier, which is the
// snapshot's path inside the backing store.
package storage

import (
	"context"
	"errors"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/timeseries"
)

// ErrNotFound is returned when a resource identifier names no snapshot.
var ErrNotFound = errors.New("storage: resource not found")

// Reader is the storage collaborator contract: a synchronous, blocking read
// of one logical dataset. Failures are not recovered here; they propagate to
// the caller.
type Reader interface {
	Read(ctx context.Context, resourceID string) (*timeseries.Table, error)
}
