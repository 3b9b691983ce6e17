package graph

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"sharpsem/internal/ir"
)

const SnapshotVersion = "v1"

// Snapshot converts the graph into its persisted record form.
// Entities are listed in arena order; references follow their owning entity.
func Snapshot(g *SemanticGraph) ir.GraphSnapshot {
	snap := ir.GraphSnapshot{Version: SnapshotVersion}
	if g == nil {
		return snap
	}
	for _, e := range g.entities {
		snap.Entities = append(snap.Entities, entityRecord(e))
		r, ok := e.(Referencing)
		if !ok {
			continue
		}
		for _, info := range r.References() {
			snap.References = append(snap.References, referenceRecord(e, info))
		}
	}
	snap.Checksum = Checksum(snap)
	return snap
}

func entityRecord(e Entity) ir.EntityRecord {
	rec := ir.EntityRecord{
		ID:              uint64(e.ID()),
		Kind:            string(e.Kind()),
		Name:            e.Name(),
		DistinctiveName: e.DistinctiveName(),
		QualifiedName:   QualifiedName(e),
		Evidence:        Location(e),
	}
	if p := e.Parent(); p != nil {
		rec.ParentID = uint64(p.ID())
	}
	if t := e.Template(); t != nil {
		rec.TemplateID = uint64(t.ID())
	}
	if p := e.Program(); p != nil {
		rec.Program = p.Name
	}
	if h, ok := e.(HasAccessibility); ok {
		if a, ok := EffectiveAccessibility(h); ok {
			rec.Accessibility = a.String()
		}
	}
	return rec
}

func referenceRecord(from Entity, info ReferenceInfo) ir.ReferenceRecord {
	rec := ir.ReferenceRecord{
		FromID: uint64(from.ID()),
		Role:   info.Role,
		State:  info.State.String(),
	}
	if info.Target != nil {
		rec.ToID = uint64(info.Target.ID())
	}
	if info.Syntax != nil {
		rec.Syntax = info.Syntax.String()
		rec.Evidence = info.Syntax.Location()
	}
	return rec
}

// Checksum fingerprints the records of a snapshot, ignoring its existing checksum.
func Checksum(snap ir.GraphSnapshot) string {
	d := xxhash.New()
	w := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.WriteString("\x00")
		}
	}
	w(snap.Version)
	for _, e := range snap.Entities {
		w(strconv.FormatUint(e.ID, 10), e.Kind, e.DistinctiveName, e.QualifiedName,
			strconv.FormatUint(e.ParentID, 10), strconv.FormatUint(e.TemplateID, 10), e.Program, e.Accessibility)
	}
	for _, r := range snap.References {
		w(strconv.FormatUint(r.FromID, 10), strconv.FormatUint(r.ToID, 10), r.Role, r.State, r.Syntax)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
