package resolver

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// TypesPass is pass 1: it merges partial types, resolves using directives and
// aliases, then base types and type parameter constraints.
type TypesPass struct {
	Logger *zap.Logger
}

func NewTypesPass() *TypesPass {
	return &TypesPass{Logger: zap.NewNop()}
}

func (p *TypesPass) Name() string { return "types" }

func (p *TypesPass) WithLogger(log *zap.Logger) { p.Logger = log }

func (p *TypesPass) Run(ctx context.Context, g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error) {
	var stats PassStats
	if g == nil {
		return stats, nil
	}
	tr := NewTypeResolver(g)

	merged, err := mergePartials(g)
	if err != nil {
		return stats, err
	}
	if merged > 0 {
		p.Logger.Debug("Merged partial types", zap.Int("count", merged))
	}

	var (
		directives []graph.Entity
		types      []graph.TypeEntity
		params     []*graph.TypeParameterEntity
	)
	graph.Inspect(g.Global(), func(e graph.Entity) bool {
		switch x := e.(type) {
		case *graph.ExternAliasEntity, *graph.UsingNamespaceEntity, *graph.UsingAliasEntity:
			directives = append(directives, x)
		case *graph.TypeParameterEntity:
			params = append(params, x)
		case graph.TypeEntity:
			if !graph.IsConstructed(x) {
				types = append(types, x)
			}
		case graph.ExpressionEntity, graph.StatementEntity:
			return false
		}
		return true
	})

	// Directives first: type lookups below go through them.
	var pending []settler
	for _, d := range directives {
		pending = append(pending, bindDirective(g, tr, d))
	}
	for _, s := range pending {
		err := s.settle()
		if err != nil && graph.IsFatal(err) {
			return stats, err
		}
		stats.record(err)
		if err != nil && !isDeferred(err) {
			diags.Add(s.owner, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	for _, t := range types {
		for _, ref := range t.BaseTypes() {
			ref.Bind(tr.BaseTypeResolver(t))
		}
	}
	for _, tp := range params {
		for _, ref := range tp.Constraints() {
			ref.Bind(tr)
		}
	}
	for _, t := range types {
		for _, ref := range t.BaseTypes() {
			if err := settleChecked(ref, t, &stats, diags); err != nil {
				return stats, err
			}
		}
	}
	for _, tp := range params {
		for _, ref := range tp.Constraints() {
			if err := settleChecked(ref, tp, &stats, diags); err != nil {
				return stats, err
			}
		}
	}

	for _, t := range types {
		if inheritsFrom(t, t) {
			diags.Add(t, graph.ErrCyclic(t, graph.QualifiedName(t)))
		}
	}

	g.MarkPassCompleted(graph.PassTypes)
	return stats, nil
}

// mergePartials folds every partial type into the first declaration of the
// same kind and name in its container.
func mergePartials(g *graph.SemanticGraph) (int, error) {
	type partial interface{ IsPartial() bool }

	merged := 0
	var fatal error
	graph.Inspect(g.Global(), func(e graph.Entity) bool {
		if fatal != nil {
			return false
		}
		container, ok := e.(graph.HasChildTypes)
		if !ok || graph.IsConstructed(e) {
			return !isBody(e)
		}
		first := make(map[string]graph.TypeEntity)
		for _, t := range container.NestedTypes() {
			p, ok := t.(partial)
			if !ok || !p.IsPartial() {
				continue
			}
			key := string(t.Kind()) + " " + t.DistinctiveName()
			primary, seen := first[key]
			if !seen {
				first[key] = t
				continue
			}
			if err := graph.MergePartial(primary, t); err != nil {
				fatal = err
				return false
			}
			merged++
		}
		return true
	})
	return merged, fatal
}

func isBody(e graph.Entity) bool {
	switch e.(type) {
	case graph.ExpressionEntity, graph.StatementEntity:
		return true
	}
	return false
}

type settler struct {
	owner  graph.Entity
	settle func() error
}

// bindDirective attaches the resolver of a directive's target.
func bindDirective(g *graph.SemanticGraph, tr *TypeResolver, d graph.Entity) settler {
	switch x := d.(type) {
	case *graph.ExternAliasEntity:
		if x.Target() == nil {
			// Extern aliases root at the global namespace; member lookups through
			// them are restricted to the program of the same name.
			x.SetTarget(graph.NewReference[*graph.NamespaceEntity](x, nil, nil))
		}
		x.Target().Bind(graph.ResolverFunc[*graph.NamespaceEntity](func(*graph.Reference[*graph.NamespaceEntity]) (*graph.NamespaceEntity, error) {
			return g.Global(), nil
		}))
		return settler{x, x.Target().Settle}
	case *graph.UsingNamespaceEntity:
		x.Target().Bind(graph.ResolverFunc[*graph.NamespaceEntity](func(ref *graph.Reference[*graph.NamespaceEntity]) (*graph.NamespaceEntity, error) {
			syn, ok := ref.Syntax().(*ir.TypeSyntax)
			if !ok {
				return nil, graph.ErrInvariant(x, "using directive without a name")
			}
			return tr.ResolveNamespace(x, syn)
		}))
		return settler{x, x.Target().Settle}
	case *graph.UsingAliasEntity:
		x.Target().Bind(graph.ResolverFunc[graph.NamespaceOrTypeEntity](func(ref *graph.Reference[graph.NamespaceOrTypeEntity]) (graph.NamespaceOrTypeEntity, error) {
			syn, ok := ref.Syntax().(*ir.TypeSyntax)
			if !ok {
				return nil, graph.ErrInvariant(x, "using alias without a target")
			}
			if syn.BuiltIn != "" || syn.Nullable || syn.PointerDepth > 0 || len(syn.ArrayRanks) > 0 {
				return tr.ResolveType(x, syn)
			}
			return tr.ResolveNamespaceOrType(x, syn)
		}))
		return settler{x, x.Target().Settle}
	}
	return settler{d, func() error { return nil }}
}

// settleChecked resolves ref and checks that its target is accessible from owner.
func settleChecked(ref *graph.Reference[graph.TypeEntity], owner graph.Entity, stats *PassStats, diags *Diagnostics) error {
	if ref == nil || ref.State() != graph.NotYetResolved {
		return nil
	}
	t, err := ref.Resolve()
	if err != nil && graph.IsFatal(err) {
		return err
	}
	stats.record(err)
	if err != nil {
		if !isDeferred(err) {
			diags.Add(owner, err)
		}
		return nil
	}
	return checkAccess(t, owner, diags)
}

// checkAccess reports an INACCESSIBLE diagnostic when target cannot be used from accessor.
func checkAccess(target, accessor graph.Entity, diags *Diagnostics) error {
	ok, err := graph.IsAccessibleBy(target, accessor)
	if err != nil {
		if graph.IsFatal(err) {
			return err
		}
		diags.Add(accessor, err)
		return nil
	}
	if !ok {
		diags.Add(accessor, graph.ErrInaccessible(target, accessor))
	}
	return nil
}

// inheritsFrom reports whether base is reachable from the resolved bases of t.
func inheritsFrom(t, base graph.TypeEntity) bool {
	want := graph.OriginalDefinition(base)
	seen := make(map[graph.Entity]bool)
	var walk func(x graph.TypeEntity) bool
	walk = func(x graph.TypeEntity) bool {
		for _, ref := range x.BaseTypes() {
			bt, ok := ref.Target()
			if !ok {
				continue
			}
			orig := graph.OriginalDefinition(bt)
			if orig == want {
				return true
			}
			if seen[orig] {
				continue
			}
			seen[orig] = true
			if walk(bt) {
				return true
			}
		}
		return false
	}
	return walk(t)
}

func isDeferred(err error) bool {
	return errors.Is(err, graph.ErrDeferred)
}
