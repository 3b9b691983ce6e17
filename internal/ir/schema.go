package ir

// Evidence describes where a node/edge claim originated in source code.
type Evidence struct {
	Filepath    string `json:"filepath"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	StartColumn int    `json:"start_column,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`
}

// IsZero reports whether the evidence carries no location.
func (e Evidence) IsZero() bool {
	return e.Filepath == "" && e.StartLine == 0
}

// EntityRecord is the persisted view of one semantic entity.
type EntityRecord struct {
	ID              uint64   `json:"id"`
	Kind            string   `json:"kind"`
	Name            string   `json:"name"`
	DistinctiveName string   `json:"distinctive_name"`
	QualifiedName   string   `json:"qualified_name"`
	ParentID        uint64   `json:"parent_id,omitempty"`
	TemplateID      uint64   `json:"template_id,omitempty"`
	Program         string   `json:"program,omitempty"`
	Accessibility   string   `json:"accessibility,omitempty"`
	Evidence        Evidence `json:"evidence"`
}

// ReferenceRecord is the persisted view of one cross-link between entities.
type ReferenceRecord struct {
	FromID   uint64   `json:"from_id"`
	ToID     uint64   `json:"to_id,omitempty"`
	Role     string   `json:"role"`
	State    string   `json:"state"`
	Syntax   string   `json:"syntax,omitempty"`
	Evidence Evidence `json:"evidence"`
}

// GraphSnapshot is the persisted graph-oriented view of a resolved semantic graph.
type GraphSnapshot struct {
	Version    string            `json:"version"`
	Checksum   string            `json:"checksum"`
	Entities   []EntityRecord    `json:"entities"`
	References []ReferenceRecord `json:"references"`
}
