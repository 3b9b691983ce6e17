package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntity(id, parent uint64, kind, name, file string) ir.EntityRecord {
	return ir.EntityRecord{
		ID:              id,
		Kind:            kind,
		Name:            name,
		DistinctiveName: name,
		QualifiedName:   name,
		ParentID:        parent,
		Program:         "main",
		Accessibility:   "public",
		Evidence:        ir.Evidence{Filepath: file, StartLine: int(id), EndLine: int(id) + 3, StartColumn: 1, EndColumn: 2},
	}
}

func snapshotOf(entities []ir.EntityRecord, refs []ir.ReferenceRecord) ir.GraphSnapshot {
	snap := ir.GraphSnapshot{Version: graph.SnapshotVersion, Entities: entities, References: refs}
	snap.Checksum = graph.Checksum(snap)
	return snap
}

func TestSQLiteStore_SaveSnapshot_SnapshotSync(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	// Initial snapshot: A, B and a reference A->B.
	a := testEntity(1, 0, "class", "A", "a.cs")
	b := testEntity(2, 0, "class", "B", "b.cs")
	s1 := snapshotOf([]ir.EntityRecord{a, b}, []ir.ReferenceRecord{
		{FromID: 1, ToID: 2, Role: "base_type", State: "resolved", Syntax: "B"},
	})
	require.NoError(t, store.SaveSnapshot(ctx, s1))

	// New snapshot: remove A, add C, replace the reference with an unresolved one.
	c := testEntity(3, 2, "field", "c", "b.cs")
	s2 := snapshotOf([]ir.EntityRecord{b, c}, []ir.ReferenceRecord{
		{FromID: 3, Role: "type", State: "not_found", Syntax: "Missing",
			Evidence: ir.Evidence{Filepath: "b.cs", StartLine: 4, EndLine: 4}},
	})
	require.NoError(t, store.SaveSnapshot(ctx, s2))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, s2, loaded)
}

func TestSQLiteStore_SaveSnapshot_EmptySnapshotClearsData(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, snapshotOf([]ir.EntityRecord{testEntity(1, 0, "class", "X", "x.cs")}, nil)))
	require.NoError(t, store.SaveSnapshot(ctx, snapshotOf(nil, nil)))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Entities)
	assert.Empty(t, loaded.References)
}

func TestSQLiteStore_LoadSnapshot(t *testing.T) {
	t.Run("Empty store", func(t *testing.T) {
		store := openStore(t)
		_, err := store.LoadSnapshot(context.Background())
		assert.ErrorIs(t, err, ErrNoSnapshot)
	})

	t.Run("Missing checksum is computed on save", func(t *testing.T) {
		store := openStore(t)
		ctx := context.Background()
		snap := ir.GraphSnapshot{Version: graph.SnapshotVersion, Entities: []ir.EntityRecord{testEntity(1, 0, "class", "A", "a.cs")}}
		require.NoError(t, store.SaveSnapshot(ctx, snap))

		loaded, err := store.LoadSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, graph.Checksum(snap), loaded.Checksum)
	})

	t.Run("Tampered rows fail verification", func(t *testing.T) {
		store := openStore(t)
		ctx := context.Background()
		require.NoError(t, store.SaveSnapshot(ctx, snapshotOf([]ir.EntityRecord{testEntity(1, 0, "class", "A", "a.cs")}, nil)))

		_, err := store.db.ExecContext(ctx, "UPDATE entities SET qualified_name = 'Z' WHERE id = 1")
		require.NoError(t, err)

		_, err = store.LoadSnapshot(ctx)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("Round trips a resolved graph", func(t *testing.T) {
		store := openStore(t)
		ctx := context.Background()

		g := graph.New()
		ns := g.Global().Namespace("App")
		widget := g.NewClass("Widget")
		require.NoError(t, ns.AddNestedType(widget))
		snap := graph.Snapshot(g)
		require.NoError(t, store.SaveSnapshot(ctx, snap))

		loaded, err := store.LoadSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, snap.Checksum, loaded.Checksum)
		assert.Len(t, loaded.Entities, len(snap.Entities))
	})
}

func TestSQLiteStore_Entities(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a := testEntity(1, 0, "class", "A", "a.cs")
	m := testEntity(2, 1, "method", "Run", "a.cs")
	b := testEntity(3, 0, "struct", "B", "b.cs")
	require.NoError(t, store.SaveSnapshot(ctx, snapshotOf([]ir.EntityRecord{a, m, b}, nil)))

	t.Run("GetEntity", func(t *testing.T) {
		got, err := store.GetEntity(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, m, got)

		_, err = store.GetEntity(ctx, 99)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("FindEntitiesByFile", func(t *testing.T) {
		got, err := store.FindEntitiesByFile(ctx, "a.cs")
		require.NoError(t, err)
		assert.Equal(t, []ir.EntityRecord{a, m}, got)

		got, err = store.FindEntitiesByFile(ctx, "none.cs")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStore_Sources(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	files := []SourceFile{
		{Filepath: "a.cs", Program: "main", Checksum: 0xfedcba9876543210, SyntaxErrors: 0},
		{Filepath: "lib/b.cs", Program: "lib", Checksum: 42, SyntaxErrors: 2},
	}
	require.NoError(t, store.SaveSources(ctx, files))
	require.NoError(t, store.SaveSources(ctx, files[1:]))

	got, err := store.LoadSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]SourceFile{"lib/b.cs": files[1]}, got)

	require.NoError(t, store.SaveSources(ctx, files))
	got, err = store.LoadSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, files[0], got["a.cs"])
}
