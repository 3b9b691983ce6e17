package analysis

import (
	"fmt"
	"io"
	"sort"
	"time"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
	"sharpsem/internal/resolver"
)

// Report summarizes a resolved graph.
type Report struct {
	Entities    map[string]int `json:"entities"`
	References  map[string]int `json:"references"`
	Diagnostics map[string]int `json:"diagnostics"`
	Passes      []PassSummary  `json:"passes"`
	Findings    []Finding      `json:"findings,omitempty"`
}

type PassSummary struct {
	Name         string        `json:"name"`
	Attempted    int           `json:"attempted"`
	Resolved     int           `json:"resolved"`
	Deferred     int           `json:"deferred"`
	Unresolvable int           `json:"unresolvable"`
	Duration     time.Duration `json:"duration"`
}

// Finding is one diagnostic in reportable form.
type Finding struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Location ir.Evidence `json:"location"`
}

// NewReport tallies g and the outcome of the passes that ran over it.
func NewReport(g *graph.SemanticGraph, stages []resolver.StageResult) *Report {
	r := &Report{
		Entities:    make(map[string]int),
		References:  make(map[string]int),
		Diagnostics: make(map[string]int),
	}
	for kind, n := range g.KindCounts() {
		r.Entities[string(kind)] = n
	}
	for state, n := range g.ReferenceStateCounts() {
		r.References[state.String()] = n
	}

	for _, st := range stages {
		r.Passes = append(r.Passes, PassSummary{
			Name:         st.Pass,
			Attempted:    st.Stats.Attempted,
			Resolved:     st.Stats.Resolved,
			Deferred:     st.Stats.Deferred,
			Unresolvable: st.Stats.Unresolvable,
			Duration:     st.Duration,
		})
		if st.Diagnostics == nil {
			continue
		}
		for _, d := range st.Diagnostics.Items() {
			r.Diagnostics[string(d.Code)]++
			r.Findings = append(r.Findings, Finding{Code: string(d.Code), Message: d.Error(), Location: d.Location})
		}
	}

	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i].Location, r.Findings[j].Location
		if a.Filepath != b.Filepath {
			return a.Filepath < b.Filepath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.StartColumn < b.StartColumn
	})
	return r
}

// HasErrors reports whether any diagnostic was produced.
func (r *Report) HasErrors() bool {
	return len(r.Findings) > 0
}

// Write renders the report as plain text.
func (r *Report) Write(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Entities:\n")
	writeCounts(ew, r.Entities)
	ew.printf("References:\n")
	writeCounts(ew, r.References)
	ew.printf("Passes:\n")
	for _, p := range r.Passes {
		ew.printf("  %-8s attempted=%d resolved=%d deferred=%d unresolvable=%d (%v)\n",
			p.Name, p.Attempted, p.Resolved, p.Deferred, p.Unresolvable, p.Duration)
	}
	if len(r.Findings) == 0 {
		ew.printf("No diagnostics.\n")
		return ew.err
	}
	ew.printf("Diagnostics:\n")
	writeCounts(ew, r.Diagnostics)
	for _, f := range r.Findings {
		ew.printf("%s:%d:%d: %s\n", f.Location.Filepath, f.Location.StartLine, f.Location.StartColumn, f.Message)
	}
	return ew.err
}

func writeCounts(w *errWriter, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.printf("  %-24s %d\n", k, counts[k])
	}
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
