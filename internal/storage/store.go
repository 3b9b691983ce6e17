package storage

import (
	"context"
	"errors"

	"sharpsem/internal/ir"
)

// ErrChecksumMismatch is returned when a loaded snapshot does not hash to the
// checksum it was saved with.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// ErrNoSnapshot is returned when the store holds no snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store combines snapshot and source bookkeeping.
type Store interface {
	SnapshotStore
	SourceStore
	Close() error
}

// SnapshotStore persists resolved semantic graphs.
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot with snap.
	SaveSnapshot(ctx context.Context, snap ir.GraphSnapshot) error

	// LoadSnapshot returns the stored snapshot after verifying its checksum.
	LoadSnapshot(ctx context.Context) (ir.GraphSnapshot, error)

	// GetEntity retrieves an entity record by its id.
	GetEntity(ctx context.Context, id uint64) (ir.EntityRecord, error)

	// FindEntitiesByFile retrieves the entities declared in a source file.
	FindEntitiesByFile(ctx context.Context, filepath string) ([]ir.EntityRecord, error)
}

// SourceFile is the bookkeeping record of one analysed source file.
type SourceFile struct {
	Filepath     string
	Program      string
	Checksum     uint64
	SyntaxErrors int
}

// SourceStore remembers which file contents the stored snapshot was built from.
type SourceStore interface {
	// SaveSources replaces the recorded source files.
	SaveSources(ctx context.Context, files []SourceFile) error

	// LoadSources returns the recorded source files keyed by path.
	LoadSources(ctx context.Context) (map[string]SourceFile, error)
}
