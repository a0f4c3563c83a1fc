package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/timeseries"
)

// DirReader reads parquet snapshots from a local directory, mirroring the
// bucket layout. Intended for development and integration tests.
type DirReader struct {
	dir string
}

// NewDirReader creates a reader rooted at dir.
func NewDirReader(dir string) *DirReader {
	return &DirReader{dir: dir}
}

// Read decodes the snapshot at dir/resourceID.
func (r *DirReader) Read(ctx context.Context, resourceID string) (*timeseries.Table, error) {
	path := filepath.Join(r.dir, filepath.FromSlash(resourceID))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, resourceID)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	t, err := decodeParquet(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", resourceID, err)
	}
	return t, nil
}
