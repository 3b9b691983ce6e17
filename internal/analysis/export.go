package analysis

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON []byte

const snapshotSchemaURL = "sharpsem://snapshot.schema.json"

var (
	schemaOnce     sync.Once
	snapshotSchema *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(snapshotSchemaURL, bytes.NewReader(snapshotSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		snapshotSchema, schemaErr = compiler.Compile(snapshotSchemaURL)
	})
	return snapshotSchema, schemaErr
}

func validate(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile snapshot schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize snapshot for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("snapshot schema validation failed: %w", err)
	}
	return nil
}

// ExportJSON writes snap as indented JSON after validating it against the
// snapshot schema.
func ExportJSON(w io.Writer, snap ir.GraphSnapshot) error {
	if snap.Entities == nil {
		snap.Entities = []ir.EntityRecord{}
	}
	if snap.References == nil {
		snap.References = []ir.ReferenceRecord{}
	}
	if snap.Checksum == "" {
		snap.Checksum = graph.Checksum(snap)
	}

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := validate(raw); err != nil {
		return err
	}
	if _, err := w.Write(append(raw, '\n')); err != nil {
		return err
	}
	return nil
}

// ImportJSON reads a snapshot written by ExportJSON, validating its shape and checksum.
func ImportJSON(r io.Reader) (ir.GraphSnapshot, error) {
	var snap ir.GraphSnapshot
	raw, err := io.ReadAll(r)
	if err != nil {
		return snap, err
	}
	if err := validate(raw); err != nil {
		return snap, err
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if got := graph.Checksum(snap); got != snap.Checksum {
		return snap, fmt.Errorf("snapshot checksum mismatch: recorded %s, computed %s", snap.Checksum, got)
	}
	return snap, nil
}
