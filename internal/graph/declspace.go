package graph

import "sort"

type LookupState int

const (
	Undefined LookupState = iota
	Definite
	Ambiguous
)

func (s LookupState) String() string {
	switch s {
	case Definite:
		return "definite"
	case Ambiguous:
		return "ambiguous"
	default:
		return "undefined"
	}
}

// NameTableEntry holds every entity defined under one distinctive name.
type NameTableEntry struct {
	Name     string
	Entities []Entity
}

func (e *NameTableEntry) State() LookupState {
	switch {
	case e == nil || len(e.Entities) == 0:
		return Undefined
	case len(e.Entities) == 1:
		return Definite
	default:
		return Ambiguous
	}
}

// LookupResult is the outcome of a declaration space lookup.
type LookupResult struct {
	State    LookupState
	Entities []Entity
}

// Entity returns the single entity of a Definite result, or nil.
func (r LookupResult) Entity() Entity {
	if r.State != Definite {
		return nil
	}
	return r.Entities[0]
}

// DeclarationSpace maps distinctive names to the entities declared in one scope.
// Collisions are recorded, not rejected; they surface as Ambiguous on lookup.
// Lookups and Undefine on a nil *DeclarationSpace behave as on an empty one;
// defining into a nil space panics.
type DeclarationSpace struct {
	entries map[string]*NameTableEntry
}

func NewDeclarationSpace() *DeclarationSpace {
	return &DeclarationSpace{entries: make(map[string]*NameTableEntry)}
}

// Define adds e under its distinctive name.
func (d *DeclarationSpace) Define(e Entity) {
	d.DefineAs(e.DistinctiveName(), e)
}

// DefineAs adds e under name, appending to an existing entry.
func (d *DeclarationSpace) DefineAs(name string, e Entity) {
	entry, ok := d.entries[name]
	if !ok {
		entry = &NameTableEntry{Name: name}
		d.entries[name] = entry
	}
	for _, x := range entry.Entities {
		if x == e {
			return
		}
	}
	entry.Entities = append(entry.Entities, e)
}

// Undefine removes e from whichever entry holds it.
func (d *DeclarationSpace) Undefine(e Entity) bool {
	if d == nil {
		return false
	}
	name := e.DistinctiveName()
	entry, ok := d.entries[name]
	if !ok {
		return false
	}
	for i, x := range entry.Entities {
		if x != e {
			continue
		}
		entry.Entities = append(entry.Entities[:i], entry.Entities[i+1:]...)
		if len(entry.Entities) == 0 {
			delete(d.entries, name)
		}
		return true
	}
	return false
}

func (d *DeclarationSpace) Lookup(name string) LookupResult {
	if d == nil {
		return LookupResult{State: Undefined}
	}
	entry := d.entries[name]
	if entry == nil {
		return LookupResult{State: Undefined}
	}
	out := make([]Entity, len(entry.Entities))
	copy(out, entry.Entities)
	return LookupResult{State: entry.State(), Entities: out}
}

// Entry returns the raw entry for name, or nil.
func (d *DeclarationSpace) Entry(name string) *NameTableEntry {
	if d == nil {
		return nil
	}
	return d.entries[name]
}

func (d *DeclarationSpace) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Names returns the defined distinctive names in sorted order.
func (d *DeclarationSpace) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.entries))
	for n := range d.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SingleEntity returns the only entity of variant T defined under name.
// It returns the zero T and a nil error when nothing of that variant is defined,
// and an AMBIGUOUS_DECLARATION error naming every match when more than one is.
func SingleEntity[T Entity](d *DeclarationSpace, name string) (T, error) {
	var zero T
	entry := d.Entry(name)
	if entry == nil {
		return zero, nil
	}
	var matches []Entity
	var found T
	for _, e := range entry.Entities {
		if t, ok := e.(T); ok {
			found = t
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return zero, nil
	case 1:
		return found, nil
	default:
		return zero, ErrAmbiguousDeclaration(name, matches)
	}
}
