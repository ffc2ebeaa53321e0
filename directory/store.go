package directory

import (
	"context"
	"errors"
)

// Store errors.
var (
	// ErrSnapshotNotFound indicates no snapshot has been saved yet.
	ErrSnapshotNotFound = errors.New("directory store: snapshot not found")
)

// Store persists whole-directory snapshots. Implementations must be safe
// for concurrent use.
type Store interface {
	// Save persists the snapshot, replacing any previous one.
	Save(ctx context.Context, snapshot []byte) error
	// Load returns the most recent snapshot, or ErrSnapshotNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Close releases store resources.
	Close() error
}

// Save exports the directory and writes the snapshot to the store.
func Save(ctx context.Context, d *Directory, store Store) error {
	data, err := d.ExportJSON()
	if err != nil {
		return err
	}
	return store.Save(ctx, data)
}

// Restore loads the latest snapshot from the store into the directory.
// A missing snapshot is a no-op.
func Restore(ctx context.Context, d *Directory, store Store) error {
	data, err := store.Load(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return d.ImportJSON(data)
}
