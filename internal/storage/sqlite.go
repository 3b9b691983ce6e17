package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS entities (
			id INTEGER PRIMARY KEY,
			kind TEXT,
			name TEXT,
			distinctive_name TEXT,
			qualified_name TEXT,
			parent_id INTEGER,
			template_id INTEGER,
			program TEXT,
			accessibility TEXT,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER,
			start_column INTEGER,
			end_column INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS refs (
			seq INTEGER PRIMARY KEY,
			from_id INTEGER,
			to_id INTEGER,
			role TEXT,
			state TEXT,
			syntax TEXT,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER,
			start_column INTEGER,
			end_column INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS sources (
			filepath TEXT PRIMARY KEY,
			program TEXT,
			checksum TEXT,
			syntax_errors INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(filepath);`,
		`CREATE INDEX IF NOT EXISTS idx_refs_from ON refs(from_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- SnapshotStore Implementation ---

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap ir.GraphSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// A snapshot replaces the previous one entirely.
	for _, q := range []string{"DELETE FROM entities", "DELETE FROM refs", "DELETE FROM meta"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	checksum := snap.Checksum
	if checksum == "" {
		checksum = graph.Checksum(snap)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('version', ?), ('checksum', ?)`, snap.Version, checksum); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id, kind, name, distinctive_name, qualified_name, parent_id, template_id, program, accessibility,
			filepath, start_line, end_line, start_column, end_column)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range snap.Entities {
		ev := e.Evidence
		if _, err := stmt.ExecContext(ctx, int64(e.ID), e.Kind, e.Name, e.DistinctiveName, e.QualifiedName,
			int64(e.ParentID), int64(e.TemplateID), e.Program, e.Accessibility,
			ev.Filepath, ev.StartLine, ev.EndLine, ev.StartColumn, ev.EndColumn); err != nil {
			return fmt.Errorf("failed to save entity %d: %w", e.ID, err)
		}
	}

	refStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO refs (seq, from_id, to_id, role, state, syntax, filepath, start_line, end_line, start_column, end_column)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer refStmt.Close()

	for i, r := range snap.References {
		ev := r.Evidence
		if _, err := refStmt.ExecContext(ctx, i, int64(r.FromID), int64(r.ToID), r.Role, r.State, r.Syntax,
			ev.Filepath, ev.StartLine, ev.EndLine, ev.StartColumn, ev.EndColumn); err != nil {
			return fmt.Errorf("failed to save reference from %d: %w", r.FromID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (ir.GraphSnapshot, error) {
	var snap ir.GraphSnapshot

	meta, err := s.meta(ctx)
	if err != nil {
		return snap, err
	}
	version, ok := meta["version"]
	if !ok {
		return snap, ErrNoSnapshot
	}
	snap.Version = version
	snap.Checksum = meta["checksum"]

	rows, err := s.db.QueryContext(ctx, entityColumns+" ORDER BY id")
	if err != nil {
		return snap, fmt.Errorf("failed to query entities: %w", err)
	}
	snap.Entities, err = scanEntities(rows)
	if err != nil {
		return snap, err
	}

	refRows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, role, state, syntax, filepath, start_line, end_line, start_column, end_column
		FROM refs ORDER BY seq`)
	if err != nil {
		return snap, fmt.Errorf("failed to query references: %w", err)
	}
	defer refRows.Close()

	for refRows.Next() {
		var r ir.ReferenceRecord
		var from, to int64
		ev := &r.Evidence
		if err := refRows.Scan(&from, &to, &r.Role, &r.State, &r.Syntax,
			&ev.Filepath, &ev.StartLine, &ev.EndLine, &ev.StartColumn, &ev.EndColumn); err != nil {
			return snap, fmt.Errorf("failed to scan reference: %w", err)
		}
		r.FromID, r.ToID = uint64(from), uint64(to)
		snap.References = append(snap.References, r)
	}
	if err := refRows.Err(); err != nil {
		return snap, err
	}

	if got := graph.Checksum(snap); got != snap.Checksum {
		return snap, fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch, snap.Checksum, got)
	}
	return snap, nil
}

func (s *SQLiteStore) meta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query meta: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

const entityColumns = `
	SELECT id, kind, name, distinctive_name, qualified_name, parent_id, template_id, program, accessibility,
		filepath, start_line, end_line, start_column, end_column
	FROM entities`

func scanEntities(rows *sql.Rows) ([]ir.EntityRecord, error) {
	defer rows.Close()
	var out []ir.EntityRecord
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (ir.EntityRecord, error) {
	var e ir.EntityRecord
	var id, parent, template int64
	ev := &e.Evidence
	if err := row.Scan(&id, &e.Kind, &e.Name, &e.DistinctiveName, &e.QualifiedName, &parent, &template,
		&e.Program, &e.Accessibility, &ev.Filepath, &ev.StartLine, &ev.EndLine, &ev.StartColumn, &ev.EndColumn); err != nil {
		return e, err
	}
	e.ID, e.ParentID, e.TemplateID = uint64(id), uint64(parent), uint64(template)
	return e, nil
}

func (s *SQLiteStore) GetEntity(ctx context.Context, id uint64) (ir.EntityRecord, error) {
	row := s.db.QueryRowContext(ctx, entityColumns+" WHERE id = ?", int64(id))
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("entity %d: %w", id, err)
	}
	return e, err
}

func (s *SQLiteStore) FindEntitiesByFile(ctx context.Context, filepath string) ([]ir.EntityRecord, error) {
	rows, err := s.db.QueryContext(ctx, entityColumns+" WHERE filepath = ? ORDER BY id", filepath)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}

// --- SourceStore Implementation ---

func (s *SQLiteStore) SaveSources(ctx context.Context, files []SourceFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sources"); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sources (filepath, program, checksum, syntax_errors) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range files {
		// Stored as text: the driver rejects uint64 values with the high bit set.
		if _, err := stmt.ExecContext(ctx, f.Filepath, f.Program, strconv.FormatUint(f.Checksum, 16), f.SyntaxErrors); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSources(ctx context.Context) (map[string]SourceFile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT filepath, program, checksum, syntax_errors FROM sources")
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	out := make(map[string]SourceFile)
	for rows.Next() {
		var f SourceFile
		var sum string
		if err := rows.Scan(&f.Filepath, &f.Program, &sum, &f.SyntaxErrors); err != nil {
			return nil, err
		}
		if f.Checksum, err = strconv.ParseUint(sum, 16, 64); err != nil {
			return nil, fmt.Errorf("bad checksum for %s: %w", f.Filepath, err)
		}
		out[f.Filepath] = f
	}
	return out, rows.Err()
}
