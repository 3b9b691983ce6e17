package analysis

import (
	"sort"

	"sharpsem/internal/git"
	"sharpsem/internal/ir"
)

// ImpactReport summarizes the declarations affected by changes.
type ImpactReport struct {
	DirectlyAffected   []ir.EntityRecord
	IndirectlyAffected []ir.EntityRecord
	// Hops is the distance of each indirectly affected declaration from the change.
	Hops map[uint64]int
}

// ImpactConfig controls how far dependents are followed.
type ImpactConfig struct {
	MaxHops int
	// Roles restricts the reference roles followed; nil follows all.
	Roles map[string]bool
}

func DefaultImpactConfig() ImpactConfig {
	return ImpactConfig{MaxHops: 1}
}

// declarationKinds are the entities an impact report is expressed in.
var declarationKinds = map[string]bool{
	"class": true, "struct": true, "interface": true, "enum": true, "delegate": true,
	"field": true, "constant": true, "method": true, "constructor": true,
	"property": true, "event": true, "enum_member": true,
}

// Analyzer performs impact analysis on a graph snapshot.
type Analyzer struct {
	cfg        ImpactConfig
	snap       ir.GraphSnapshot
	byID       map[uint64]*ir.EntityRecord
	dependents map[uint64][]uint64
}

// NewAnalyzer indexes snap for impact queries.
func NewAnalyzer(snap ir.GraphSnapshot, cfg ImpactConfig) *Analyzer {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}
	a := &Analyzer{
		cfg:        cfg,
		snap:       snap,
		byID:       make(map[uint64]*ir.EntityRecord, len(snap.Entities)),
		dependents: make(map[uint64][]uint64),
	}
	for i := range snap.Entities {
		a.byID[snap.Entities[i].ID] = &snap.Entities[i]
	}
	for _, r := range snap.References {
		if r.ToID == 0 || r.State != "resolved" || (cfg.Roles != nil && !cfg.Roles[r.Role]) {
			continue
		}
		to := a.template(r.ToID)
		a.dependents[to] = append(a.dependents[to], r.FromID)
	}
	return a
}

// template follows constructed instances back to their declaration.
func (a *Analyzer) template(id uint64) uint64 {
	for {
		e, ok := a.byID[id]
		if !ok || e.TemplateID == 0 {
			return id
		}
		id = e.TemplateID
	}
}

// declaration returns the innermost type or member enclosing id.
func (a *Analyzer) declaration(id uint64) (*ir.EntityRecord, bool) {
	for {
		e, ok := a.byID[id]
		if !ok {
			return nil, false
		}
		if declarationKinds[e.Kind] {
			return e, true
		}
		if e.ParentID == 0 {
			return nil, false
		}
		id = e.ParentID
	}
}

// AnalyzeImpact identifies the declarations touched by changes and the
// declarations whose resolved references reach them within MaxHops.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{Hops: make(map[uint64]int)}
	seenDirect := make(map[uint64]bool)
	seenIndirect := make(map[uint64]bool)

	// 1. Find Direct Impacts
	for _, change := range changes {
		for i := range a.snap.Entities {
			e := &a.snap.Entities[i]
			if !declarationKinds[e.Kind] || e.TemplateID != 0 || e.Evidence.Filepath != change.Path || seenDirect[e.ID] {
				continue
			}
			if change.WholeFile() || overlaps(e.Evidence, change.Lines) {
				seenDirect[e.ID] = true
				report.DirectlyAffected = append(report.DirectlyAffected, *e)
			}
		}
	}

	// 2. Find Indirect Impacts (dependents, breadth first)
	frontier := make([]uint64, 0, len(report.DirectlyAffected))
	for _, e := range report.DirectlyAffected {
		frontier = append(frontier, e.ID)
	}
	for hop := 1; hop <= a.cfg.MaxHops && len(frontier) > 0; hop++ {
		var next []uint64
		for _, id := range frontier {
			for _, from := range a.dependents[id] {
				dep, ok := a.declaration(from)
				if !ok || seenDirect[dep.ID] || seenIndirect[dep.ID] {
					continue
				}
				seenIndirect[dep.ID] = true
				report.Hops[dep.ID] = hop
				report.IndirectlyAffected = append(report.IndirectlyAffected, *dep)
				next = append(next, dep.ID)
			}
		}
		frontier = next
	}

	byID := func(es []ir.EntityRecord) func(i, j int) bool {
		return func(i, j int) bool { return es[i].ID < es[j].ID }
	}
	sort.Slice(report.DirectlyAffected, byID(report.DirectlyAffected))
	sort.Slice(report.IndirectlyAffected, byID(report.IndirectlyAffected))
	return report
}

func overlaps(ev ir.Evidence, lines []int) bool {
	for _, line := range lines {
		if line >= ev.StartLine && line <= ev.EndLine {
			return true
		}
	}
	return false
}
