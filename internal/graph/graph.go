package graph

import "strings"

// Pass identifies how far resolution has progressed.
type Pass int

const (
	PassNone Pass = iota
	// PassTypes resolves imports, aliases, base types and constraints.
	PassTypes
	// PassMembers resolves member types, explicit interfaces and expressions.
	PassMembers
)

func (p Pass) String() string {
	switch p {
	case PassTypes:
		return "pass 1 (types)"
	case PassMembers:
		return "pass 2 (members)"
	default:
		return "no pass"
	}
}

// Program groups the entities compiled together (one assembly).
type Program struct {
	Name string
	// Imported marks programs loaded from metadata rather than source.
	Imported bool
}

// Option configures a SemanticGraph.
type Option func(*SemanticGraph)

// WithMetadata sets the provider of host types.
func WithMetadata(p MetadataProvider) Option {
	return func(g *SemanticGraph) { g.metadata = p }
}

// SemanticGraph is the arena owning every entity of one compilation.
// It is not safe for concurrent use.
type SemanticGraph struct {
	entities []Entity
	global   *NamespaceEntity
	programs []*Program
	builtIns map[BuiltInType]*BuiltInTypeEntity
	metadata MetadataProvider
	pass     Pass
}

// New creates an empty graph with its global namespace.
func New(opts ...Option) *SemanticGraph {
	g := &SemanticGraph{builtIns: make(map[BuiltInType]*BuiltInTypeEntity)}
	g.global = &NamespaceEntity{}
	g.register(g.global, "")
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// register assigns e its identity in the arena.
func (g *SemanticGraph) register(e Entity, name string) {
	b := e.base()
	b.graph = g
	b.self = e
	b.name = name
	g.entities = append(g.entities, e)
	b.id = EntityID(len(g.entities))
}

// Entity returns the entity with the given id, or nil.
func (g *SemanticGraph) Entity(id EntityID) Entity {
	if id == 0 || int(id) > len(g.entities) {
		return nil
	}
	return g.entities[id-1]
}

// Entities returns every registered entity in creation order.
func (g *SemanticGraph) Entities() []Entity {
	out := make([]Entity, len(g.entities))
	copy(out, g.entities)
	return out
}

func (g *SemanticGraph) Len() int { return len(g.entities) }

func (g *SemanticGraph) Global() *NamespaceEntity { return g.global }

// Program returns the program called name, creating it when absent.
func (g *SemanticGraph) Program(name string) *Program {
	for _, p := range g.programs {
		if p.Name == name {
			return p
		}
	}
	p := &Program{Name: name}
	g.programs = append(g.programs, p)
	return p
}

// LookupProgram returns the program called name without creating it.
func (g *SemanticGraph) LookupProgram(name string) (*Program, bool) {
	for _, p := range g.programs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (g *SemanticGraph) Programs() []*Program {
	out := make([]*Program, len(g.programs))
	copy(out, g.programs)
	return out
}

func (g *SemanticGraph) Metadata() MetadataProvider { return g.metadata }

func (g *SemanticGraph) SetMetadata(p MetadataProvider) { g.metadata = p }

// BuiltIn returns the unique entity for a keyword type.
func (g *SemanticGraph) BuiltIn(b BuiltInType) *BuiltInTypeEntity {
	if e, ok := g.builtIns[b]; ok {
		return e
	}
	e := &BuiltInTypeEntity{builtIn: b}
	g.register(e, b.Keyword())
	g.builtIns[b] = e
	return e
}

// builtInAliasOf returns the keyword entity aliasing t, if any.
func (g *SemanticGraph) builtInAliasOf(t TypeEntity) *BuiltInTypeEntity {
	if g.metadata == nil {
		return nil
	}
	for _, b := range BuiltInTypes() {
		if m := g.metadata.BuiltInType(b); !isNilEntity(m) && m == t {
			return g.BuiltIn(b)
		}
	}
	return nil
}

// MarkPassCompleted records that p ran to completion.
func (g *SemanticGraph) MarkPassCompleted(p Pass) {
	if p > g.pass {
		g.pass = p
	}
}

func (g *SemanticGraph) PassCompleted() Pass { return g.pass }

// RequirePass fails with PASS_ORDER when p has not completed.
func (g *SemanticGraph) RequirePass(p Pass) error {
	if g.pass < p {
		return ErrPassOrder(p, g.pass)
	}
	return nil
}

// LookupQualified finds the namespaces and types reachable from the global
// namespace by a dotted name of plain (non-generic) or distinctive names.
func (g *SemanticGraph) LookupQualified(dotted string) []Entity {
	scopes := []Entity{g.global}
	for _, seg := range strings.Split(dotted, ".") {
		var next []Entity
		for _, s := range scopes {
			d, ok := s.(DeclarationSpaceDefiner)
			if !ok {
				continue
			}
			next = append(next, d.DeclarationSpace().Lookup(seg).Entities...)
		}
		if len(next) == 0 {
			return nil
		}
		scopes = next
	}
	return scopes
}
