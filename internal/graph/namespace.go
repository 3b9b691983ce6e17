package graph

import "strings"

// NamespaceEntity is a namespace. Declarations of one namespace across files
// and programs share a single entity.
type NamespaceEntity struct {
	entityBase
	space      *DeclarationSpace
	namespaces []*NamespaceEntity
	types      []TypeEntity
	externs    []*ExternAliasEntity
	usings     []*UsingNamespaceEntity
	aliases    []*UsingAliasEntity
}

func (n *NamespaceEntity) Kind() EntityKind { return KindNamespace }

// IsGlobal reports whether n is the root namespace of its graph.
func (n *NamespaceEntity) IsGlobal() bool {
	return n.graph != nil && n.graph.global == n
}

func (n *NamespaceEntity) DeclarationSpace() *DeclarationSpace {
	if n.space == nil {
		n.space = NewDeclarationSpace()
	}
	return n.space
}

// Namespace returns the child namespace called name, creating it when absent.
// A dotted name walks (and creates) every segment.
func (n *NamespaceEntity) Namespace(name string) *NamespaceEntity {
	cur := n
	for _, seg := range strings.Split(name, ".") {
		if seg == "" {
			continue
		}
		cur = cur.childNamespace(seg)
	}
	return cur
}

func (n *NamespaceEntity) childNamespace(name string) *NamespaceEntity {
	for _, c := range n.namespaces {
		if c.name == name {
			return c
		}
	}
	c := &NamespaceEntity{}
	n.graph.register(c, name)
	c.parent = n
	n.namespaces = append(n.namespaces, c)
	n.DeclarationSpace().Define(c)
	return c
}

func (n *NamespaceEntity) Namespaces() []*NamespaceEntity {
	out := make([]*NamespaceEntity, len(n.namespaces))
	copy(out, n.namespaces)
	return out
}

func (n *NamespaceEntity) NestedTypes() []TypeEntity {
	out := make([]TypeEntity, len(n.types))
	copy(out, n.types)
	return out
}

func (n *NamespaceEntity) AddNestedType(t TypeEntity) error {
	if t.Parent() != nil {
		return ErrInvariant(t, "type "+t.Name()+" already has a parent")
	}
	t.setParent(n)
	n.types = append(n.types, t)
	n.DeclarationSpace().Define(t)
	return nil
}

func (n *NamespaceEntity) RemoveNestedType(t TypeEntity) bool {
	for i, x := range n.types {
		if x != t {
			continue
		}
		n.types = append(n.types[:i], n.types[i+1:]...)
		n.DeclarationSpace().Undefine(t)
		t.setParent(nil)
		return true
	}
	return false
}

// Using directives are not defined in the declaration space; they are consulted
// by type resolution for references in the same file only.

func (n *NamespaceEntity) AddUsingNamespace(u *UsingNamespaceEntity) {
	u.setParent(n)
	n.usings = append(n.usings, u)
}

func (n *NamespaceEntity) AddUsingAlias(a *UsingAliasEntity) {
	a.setParent(n)
	n.aliases = append(n.aliases, a)
}

func (n *NamespaceEntity) AddExternAlias(a *ExternAliasEntity) {
	a.setParent(n)
	n.externs = append(n.externs, a)
}

// UsingNamespaces returns the using-namespace directives written in file.
func (n *NamespaceEntity) UsingNamespaces(file string) []*UsingNamespaceEntity {
	var out []*UsingNamespaceEntity
	for _, u := range n.usings {
		if u.file == file {
			out = append(out, u)
		}
	}
	return out
}

// UsingAliases returns the alias directives written in file.
func (n *NamespaceEntity) UsingAliases(file string) []*UsingAliasEntity {
	var out []*UsingAliasEntity
	for _, a := range n.aliases {
		if a.file == file {
			out = append(out, a)
		}
	}
	return out
}

// ExternAliases returns the extern alias directives written in file.
func (n *NamespaceEntity) ExternAliases(file string) []*ExternAliasEntity {
	var out []*ExternAliasEntity
	for _, a := range n.externs {
		if a.file == file {
			out = append(out, a)
		}
	}
	return out
}

// Children are extern aliases, usings, aliases, namespaces, then types.
func (n *NamespaceEntity) Children() []Entity {
	out := make([]Entity, 0, len(n.externs)+len(n.usings)+len(n.aliases)+len(n.namespaces)+len(n.types))
	for _, a := range n.externs {
		out = append(out, a)
	}
	for _, u := range n.usings {
		out = append(out, u)
	}
	for _, a := range n.aliases {
		out = append(out, a)
	}
	for _, c := range n.namespaces {
		out = append(out, c)
	}
	for _, t := range n.types {
		out = append(out, t)
	}
	return out
}

// directive is shared by the using and extern alias directives.
type directive struct {
	entityBase
	file string
}

// File is the source file the directive was written in.
func (d *directive) File() string { return d.file }

// UsingNamespaceEntity is `using N;`.
type UsingNamespaceEntity struct {
	directive
	target *Reference[*NamespaceEntity]
}

func (g *SemanticGraph) NewUsingNamespace(file, text string) *UsingNamespaceEntity {
	u := &UsingNamespaceEntity{directive: directive{file: file}}
	g.register(u, text)
	return u
}

func (u *UsingNamespaceEntity) Kind() EntityKind                          { return KindUsingNamespace }
func (u *UsingNamespaceEntity) Target() *Reference[*NamespaceEntity]      { return u.target }
func (u *UsingNamespaceEntity) SetTarget(r *Reference[*NamespaceEntity]) { u.target = r }

func (u *UsingNamespaceEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "imported_namespace", u.target)
	return c
}

// UsingAliasEntity is `using X = A.B;`. The target is a namespace or a type.
type UsingAliasEntity struct {
	directive
	target *Reference[NamespaceOrTypeEntity]
}

func (g *SemanticGraph) NewUsingAlias(file, alias string) *UsingAliasEntity {
	a := &UsingAliasEntity{directive: directive{file: file}}
	g.register(a, alias)
	return a
}

func (a *UsingAliasEntity) Kind() EntityKind                                { return KindUsingAlias }
func (a *UsingAliasEntity) Target() *Reference[NamespaceOrTypeEntity]      { return a.target }
func (a *UsingAliasEntity) SetTarget(r *Reference[NamespaceOrTypeEntity]) { a.target = r }

func (a *UsingAliasEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "alias_target", a.target)
	return c
}

// ExternAliasEntity is `extern alias X;`. It resolves to the root namespace of the
// referenced program.
type ExternAliasEntity struct {
	directive
	target *Reference[*NamespaceEntity]
}

func (g *SemanticGraph) NewExternAlias(file, alias string) *ExternAliasEntity {
	a := &ExternAliasEntity{directive: directive{file: file}}
	g.register(a, alias)
	return a
}

func (a *ExternAliasEntity) Kind() EntityKind                          { return KindExternAlias }
func (a *ExternAliasEntity) Target() *Reference[*NamespaceEntity]      { return a.target }
func (a *ExternAliasEntity) SetTarget(r *Reference[*NamespaceEntity]) { a.target = r }

func (a *ExternAliasEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "extern_alias", a.target)
	return c
}
