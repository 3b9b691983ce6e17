package graph

// ReferenceStateCounts tallies the outgoing references of every entity by state.
func (g *SemanticGraph) ReferenceStateCounts() map[ResolutionState]int {
	counts := make(map[ResolutionState]int)
	if g == nil {
		return counts
	}
	for _, e := range g.entities {
		r, ok := e.(Referencing)
		if !ok {
			continue
		}
		for _, info := range r.References() {
			counts[info.State]++
		}
	}
	return counts
}

// KindCounts tallies the registered entities by kind.
func (g *SemanticGraph) KindCounts() map[EntityKind]int {
	counts := make(map[EntityKind]int)
	if g == nil {
		return counts
	}
	for _, e := range g.entities {
		counts[e.Kind()]++
	}
	return counts
}

// UnresolvableReferences lists the references that permanently failed, with their owners.
func (g *SemanticGraph) UnresolvableReferences() []OwnedReference {
	var out []OwnedReference
	if g == nil {
		return out
	}
	for _, e := range g.entities {
		r, ok := e.(Referencing)
		if !ok {
			continue
		}
		for _, info := range r.References() {
			if info.State == Unresolvable {
				out = append(out, OwnedReference{Owner: e, ReferenceInfo: info})
			}
		}
	}
	return out
}

// OwnedReference is a reference together with the entity holding it.
type OwnedReference struct {
	Owner Entity
	ReferenceInfo
}
