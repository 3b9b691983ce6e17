package resolver

import (
	"strconv"
	"strings"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// TypeResolver resolves type and namespace syntax in the scope of the entity that wrote it.
//
// Unqualified names are looked up from the scope outward: type parameters,
// nested types (own, then inherited), then for each enclosing namespace its
// members, the using aliases and finally the imported namespaces of the
// reference's source file.
type TypeResolver struct {
	g *graph.SemanticGraph

	// While a base type of t resolves, lookups in t see no inherited names.
	baseless map[graph.TypeEntity]int
}

func NewTypeResolver(g *graph.SemanticGraph) *TypeResolver {
	return &TypeResolver{g: g, baseless: make(map[graph.TypeEntity]int)}
}

// Resolve implements graph.Resolver for type references.
func (r *TypeResolver) Resolve(ref *graph.Reference[graph.TypeEntity]) (graph.TypeEntity, error) {
	syn, ok := ref.Syntax().(*ir.TypeSyntax)
	if !ok || syn == nil {
		return nil, graph.ErrInvariant(ref.Owner(), "type reference without type syntax")
	}
	return r.ResolveType(ref.Owner(), syn)
}

// baseTypeResolver resolves a base type reference of owner.
type baseTypeResolver struct {
	*TypeResolver
	owner graph.TypeEntity
}

func (r baseTypeResolver) Resolve(ref *graph.Reference[graph.TypeEntity]) (graph.TypeEntity, error) {
	r.baseless[r.owner]++
	defer func() {
		r.baseless[r.owner]--
		if r.baseless[r.owner] == 0 {
			delete(r.baseless, r.owner)
		}
	}()
	return r.TypeResolver.Resolve(ref)
}

// BaseTypeResolver returns the resolver for base type references of t.
func (r *TypeResolver) BaseTypeResolver(t graph.TypeEntity) graph.Resolver[graph.TypeEntity] {
	return baseTypeResolver{TypeResolver: r, owner: t}
}

// ResolveType resolves syn to a type, applying nullable, then pointer, then array
// constructors. Array ranks are applied right to left, so `int[][,]` is an array
// of `int[,]`.
func (r *TypeResolver) ResolveType(scope graph.Entity, syn *ir.TypeSyntax) (graph.TypeEntity, error) {
	var t graph.TypeEntity
	if syn.BuiltIn != "" {
		b, ok := graph.ParseBuiltInType(syn.BuiltIn)
		if !ok {
			return nil, graph.ErrNameNotFound(syn.BuiltIn, scope)
		}
		t = r.g.BuiltIn(b)
	} else {
		nt, err := r.ResolveNamespaceOrType(scope, syn)
		if err != nil {
			return nil, err
		}
		tt, ok := nt.(graph.TypeEntity)
		if !ok {
			return nil, graph.ErrNameNotFound(syn.String(), scope)
		}
		t = tt
	}
	return wrapType(t, syn), nil
}

func wrapType(t graph.TypeEntity, syn *ir.TypeSyntax) graph.TypeEntity {
	if syn.Nullable {
		t = graph.GetConstructedNullableType(t)
	}
	// void* is the untyped pointer: one layer per star, as for any other type.
	for i := 0; i < syn.PointerDepth; i++ {
		t = graph.GetConstructedPointerType(t)
	}
	for i := len(syn.ArrayRanks) - 1; i >= 0; i-- {
		t = graph.GetConstructedArrayType(t, syn.ArrayRanks[i])
	}
	return t
}

// ResolveNamespace resolves the name of a using-namespace directive.
func (r *TypeResolver) ResolveNamespace(scope graph.Entity, syn *ir.TypeSyntax) (*graph.NamespaceEntity, error) {
	nt, err := r.ResolveNamespaceOrType(scope, syn)
	if err != nil {
		return nil, err
	}
	ns, ok := nt.(*graph.NamespaceEntity)
	if !ok {
		return nil, graph.ErrNameNotFound("namespace "+syn.String(), scope)
	}
	return ns, nil
}

// ResolveNamespaceOrType resolves the dotted name of syn, ignoring its
// nullable, pointer and array suffixes.
func (r *TypeResolver) ResolveNamespaceOrType(scope graph.Entity, syn *ir.TypeSyntax) (graph.NamespaceOrTypeEntity, error) {
	if syn == nil || len(syn.Parts) == 0 {
		return nil, graph.ErrInvariant(scope, "empty namespace or type name")
	}
	file := fileOf(scope, syn)

	var (
		cur      graph.NamespaceOrTypeEntity
		restrict *graph.Program
		err      error
	)
	if syn.Alias != "" {
		cur, restrict, err = r.aliasRoot(scope, syn.Alias, file)
		if err != nil {
			return nil, err
		}
		cur, err = r.memberOf(scope, cur, syn.Parts[0], restrict)
	} else {
		cur, err = r.lookupUnqualified(scope, syn.Parts[0], file)
	}
	if err != nil {
		return nil, err
	}
	for _, part := range syn.Parts[1:] {
		if cur, err = r.memberOf(scope, cur, part, restrict); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

type fileScoped interface {
	File() string
}

func fileOf(scope graph.Entity, syn *ir.TypeSyntax) string {
	if syn.Evidence.Filepath != "" {
		return syn.Evidence.Filepath
	}
	if d, ok := scope.(fileScoped); ok {
		return d.File()
	}
	return ""
}

func (r *TypeResolver) lookupUnqualified(scope graph.Entity, part ir.NamePart, file string) (graph.NamespaceOrTypeEntity, error) {
	name, arity := part.Name, len(part.TypeArgs)

	// A directive does not see the other directives of its own namespace.
	var skip graph.Entity
	if _, ok := scope.(fileScoped); ok {
		skip = scope.Parent()
	}

	for x := scope; x != nil; x = x.Parent() {
		switch e := x.(type) {
		case *graph.NamespaceEntity:
			found, err := lookupInNamespace(e, name, arity, nil)
			if err != nil {
				return nil, err
			}
			if found == nil && graph.Entity(e) != skip {
				if found, err = r.lookupDirectives(e, name, arity, file); err != nil {
					return nil, err
				}
			}
			if found != nil {
				return r.construct(scope, found, part)
			}
		case *graph.TypeParameterEntity:
			// Constraints are resolved from the parameter; its scope is its declaration.
		default:
			if arity == 0 {
				if tp := typeParameterNamed(x, name); tp != nil {
					return tp, nil
				}
			}
			if t, ok := x.(graph.TypeEntity); ok {
				found, err := r.nestedType(t, name, arity)
				if err != nil {
					return nil, err
				}
				if found != nil {
					return r.construct(scope, found, part)
				}
			}
		}
	}
	return nil, graph.ErrNameNotFound(part.Name, scope)
}

func (r *TypeResolver) lookupDirectives(ns *graph.NamespaceEntity, name string, arity int, file string) (graph.NamespaceOrTypeEntity, error) {
	if arity == 0 {
		for _, a := range ns.UsingAliases(file) {
			if a.Name() != name {
				continue
			}
			return a.Target().Resolve()
		}
	}

	var matches []graph.Entity
	seen := make(map[graph.Entity]bool)
	for _, u := range ns.UsingNamespaces(file) {
		target, err := u.Target().Resolve()
		if err != nil || target == nil {
			continue
		}
		for _, e := range target.DeclarationSpace().Lookup(distinctiveName(name, arity)).Entities {
			// Using directives import types, not nested namespaces.
			if _, ok := e.(graph.TypeEntity); ok && !seen[e] {
				seen[e] = true
				matches = append(matches, e)
			}
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0].(graph.NamespaceOrTypeEntity), nil
	}
	return nil, graph.ErrAmbiguousImport(name, matches)
}

// aliasRoot resolves the left side of `alias::Name`: global, an extern alias
// (restricted to its program when one of that name exists), or a using alias
// to a namespace.
func (r *TypeResolver) aliasRoot(scope graph.Entity, alias, file string) (graph.NamespaceOrTypeEntity, *graph.Program, error) {
	if alias == "global" {
		return r.g.Global(), nil, nil
	}
	for x := scope; x != nil; x = x.Parent() {
		ns, ok := x.(*graph.NamespaceEntity)
		if !ok {
			continue
		}
		for _, ea := range ns.ExternAliases(file) {
			if ea.Name() != alias {
				continue
			}
			root, err := ea.Target().Resolve()
			if err != nil {
				return nil, nil, err
			}
			prog, _ := r.g.LookupProgram(alias)
			return root, prog, nil
		}
		for _, ua := range ns.UsingAliases(file) {
			if ua.Name() != alias {
				continue
			}
			target, err := ua.Target().Resolve()
			if err != nil {
				return nil, nil, err
			}
			if tns, ok := target.(*graph.NamespaceEntity); ok {
				return tns, nil, nil
			}
		}
	}
	return nil, nil, graph.ErrNameNotFound(alias+"::", scope)
}

// memberOf resolves part as a member namespace or type of cur.
func (r *TypeResolver) memberOf(scope graph.Entity, cur graph.NamespaceOrTypeEntity, part ir.NamePart, restrict *graph.Program) (graph.NamespaceOrTypeEntity, error) {
	name, arity := part.Name, len(part.TypeArgs)
	var (
		found graph.NamespaceOrTypeEntity
		err   error
	)
	switch c := cur.(type) {
	case *graph.NamespaceEntity:
		found, err = lookupInNamespace(c, name, arity, restrict)
		if err == nil && found == nil {
			err = arityMismatch(c, name, arity)
		}
	case graph.TypeEntity:
		found, err = r.nestedType(c, name, arity)
	}
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, graph.ErrNameNotFound(graph.QualifiedName(cur)+"."+name, scope)
	}
	return r.construct(scope, found, part)
}

func lookupInNamespace(ns *graph.NamespaceEntity, name string, arity int, restrict *graph.Program) (graph.NamespaceOrTypeEntity, error) {
	key := distinctiveName(name, arity)
	var matches []graph.Entity
	for _, e := range ns.DeclarationSpace().Lookup(key).Entities {
		if _, ok := e.(graph.NamespaceOrTypeEntity); !ok {
			continue
		}
		if _, isType := e.(graph.TypeEntity); isType && restrict != nil && e.Program() != restrict {
			continue
		}
		matches = append(matches, e)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0].(graph.NamespaceOrTypeEntity), nil
	}
	return nil, graph.ErrAmbiguousDeclaration(key, matches)
}

// arityMismatch reports a generic declared under name with a different number
// of type parameters than used, or nil when there is none.
func arityMismatch(ns *graph.NamespaceEntity, name string, arity int) error {
	for _, n := range ns.DeclarationSpace().Names() {
		if n != name && !strings.HasPrefix(n, name+"`") {
			continue
		}
		for _, e := range ns.DeclarationSpace().Lookup(n).Entities {
			if want := arityOf(e); want != arity {
				return graph.ErrArityMismatch(e, want, arity)
			}
		}
	}
	return nil
}

// nestedType finds the nested type name of t, searching base types when t
// declares none. Base references are resolved on demand.
func (r *TypeResolver) nestedType(t graph.TypeEntity, name string, arity int) (graph.NamespaceOrTypeEntity, error) {
	var matches []graph.Entity
	seen := make(map[graph.Entity]bool)
	var walk func(x graph.TypeEntity)
	walk = func(x graph.TypeEntity) {
		if x == nil || seen[x] {
			return
		}
		seen[x] = true
		found := false
		for _, n := range x.NestedTypes() {
			if n.Name() == name && arityOf(n) == arity {
				matches = append(matches, n)
				found = true
			}
		}
		if found || r.baseless[x] > 0 {
			return
		}
		for _, ref := range x.BaseTypes() {
			bt, err := ref.Resolve()
			if err != nil || bt == nil {
				continue
			}
			walk(bt)
		}
	}
	walk(t)

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0].(graph.NamespaceOrTypeEntity), nil
	}
	return nil, graph.ErrAmbiguousDeclaration(distinctiveName(name, arity), matches)
}

// construct applies the type arguments written on part to found.
func (r *TypeResolver) construct(scope graph.Entity, found graph.NamespaceOrTypeEntity, part ir.NamePart) (graph.NamespaceOrTypeEntity, error) {
	if len(part.TypeArgs) == 0 {
		return found, nil
	}
	params := ownTypeParameters(found)
	if len(params) != len(part.TypeArgs) {
		return nil, graph.ErrArityMismatch(found, len(params), len(part.TypeArgs))
	}
	args := make([]graph.TypeEntity, 0, len(part.TypeArgs))
	for _, a := range part.TypeArgs {
		t, err := r.ResolveType(scope, a)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	c, ok := graph.GetConstructedEntity(found, graph.TypeParameterMapOf(params, args)).(graph.NamespaceOrTypeEntity)
	if !ok {
		return nil, graph.ErrInvariant(found, "instantiation is not a type")
	}
	return c, nil
}

func ownTypeParameters(e graph.Entity) []*graph.TypeParameterEntity {
	g, ok := graph.OriginalDefinition(e).(graph.CanHaveTypeParameters)
	if !ok {
		return nil
	}
	params, err := g.TypeParameters()
	if err != nil {
		return nil
	}
	return params
}

func arityOf(e graph.Entity) int { return len(ownTypeParameters(e)) }

// typeParameterNamed returns the type parameter name declared by e itself.
func typeParameterNamed(e graph.Entity, name string) *graph.TypeParameterEntity {
	if graph.IsConstructed(e) {
		return nil
	}
	for _, tp := range ownTypeParameters(e) {
		if tp.Name() == name {
			return tp
		}
	}
	return nil
}

func distinctiveName(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "`" + strconv.Itoa(arity)
}
