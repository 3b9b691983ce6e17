package resolver

import (
	"sort"

	"go.uber.org/multierr"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// Diagnostic is a recoverable resolution failure attached to the entity it was raised for.
type Diagnostic struct {
	Code     graph.ErrorCode
	Entity   graph.Entity
	Location ir.Evidence
	Err      error
}

func (d Diagnostic) Error() string { return d.Err.Error() }

// Diagnostics collects the diagnostics raised during one pass.
type Diagnostics struct {
	items []Diagnostic
	seen  map[*graph.SemanticError]bool
}

// Add records err against e. A *graph.SemanticError is recorded once even
// when several references share it.
func (d *Diagnostics) Add(e graph.Entity, err error) {
	if err == nil {
		return
	}
	if se, ok := err.(*graph.SemanticError); ok {
		if d.seen == nil {
			d.seen = make(map[*graph.SemanticError]bool)
		}
		if d.seen[se] {
			return
		}
		d.seen[se] = true
	}
	d.items = append(d.items, Diagnostic{
		Code:     graph.CodeOf(err),
		Entity:   e,
		Location: graph.Location(e),
		Err:      err,
	})
}

func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.items)
}

// Items returns the diagnostics in the order they were raised.
func (d *Diagnostics) Items() []Diagnostic {
	if d == nil {
		return nil
	}
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

// ByCode counts the diagnostics per error code.
func (d *Diagnostics) ByCode() map[graph.ErrorCode]int {
	out := make(map[graph.ErrorCode]int)
	for _, it := range d.Items() {
		out[it.Code]++
	}
	return out
}

// Codes lists the distinct error codes in sorted order.
func (d *Diagnostics) Codes() []graph.ErrorCode {
	var out []graph.ErrorCode
	for c := range d.ByCode() {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Merge appends the diagnostics of o.
func (d *Diagnostics) Merge(o *Diagnostics) {
	for _, it := range o.Items() {
		d.Add(it.Entity, it.Err)
	}
}

// Err combines every diagnostic into one error, or nil when there are none.
func (d *Diagnostics) Err() error {
	var err error
	for _, it := range d.Items() {
		err = multierr.Append(err, it)
	}
	return err
}
