package resolver

import (
	"context"

	"go.uber.org/zap"

	"sharpsem/internal/graph"
)

// MembersPass is pass 2: member signatures, explicit interfaces, local
// declarations and expressions. It requires pass 1 to have completed.
type MembersPass struct {
	Logger *zap.Logger
}

func NewMembersPass() *MembersPass {
	return &MembersPass{Logger: zap.NewNop()}
}

func (p *MembersPass) Name() string { return "members" }

func (p *MembersPass) WithLogger(log *zap.Logger) { p.Logger = log }

type explicitInterface interface {
	ExplicitInterface() *graph.Reference[graph.TypeEntity]
}

type returning interface {
	ReturnType() *graph.Reference[graph.TypeEntity]
}

func (p *MembersPass) Run(ctx context.Context, g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error) {
	var stats PassStats
	if g == nil {
		return stats, nil
	}
	if err := g.RequirePass(graph.PassTypes); err != nil {
		return stats, err
	}
	tr := NewTypeResolver(g)
	ev := NewEvaluator(tr)

	graph.Inspect(g.Global(), func(e graph.Entity) bool {
		switch x := e.(type) {
		case *graph.LocalVariableEntity:
			bindLocal(x)
		case graph.ExpressionEntity:
			ev.Bind(x)
		case *graph.AccessorEntity:
			// Shares the type reference of its property or event.
		case returning:
			x.ReturnType().Bind(tr)
		case graph.HasType:
			x.Type().Bind(tr)
		}
		if x, ok := e.(explicitInterface); ok {
			x.ExplicitInterface().Bind(tr)
		}
		return true
	})

	settledBefore := settledReferences(g)

	// Settle in creation order. Instantiations made along the way are appended
	// to the arena and picked up by the same loop.
	for id := graph.EntityID(1); int(id) <= g.Len(); id++ {
		if id%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
		e := g.Entity(id)
		if settled, err := settleReferences(e, &stats, diags); err != nil {
			return stats, err
		} else if settled > 0 && graph.IsConstructed(e) {
			p.Logger.Debug("Settled instantiation", zap.String("entity", graph.QualifiedName(e)), zap.Int("references", settled))
		}
	}

	// Evaluating a result binds the referents beneath it, so access is checked
	// once everything has settled rather than per reference.
	for id := graph.EntityID(1); int(id) <= g.Len(); id++ {
		if err := checkReferences(g.Entity(id), settledBefore, diags); err != nil {
			return stats, err
		}
	}

	g.MarkPassCompleted(graph.PassMembers)
	return stats, nil
}

// bindLocal gives an implicitly typed local the type of its initializer.
// Explicitly typed locals take the type written on their declaration.
func bindLocal(v *graph.LocalVariableEntity) {
	if v.Type() != nil {
		return
	}
	v.SetType(graph.NewReference[graph.TypeEntity](v, nil, graph.ResolverFunc[graph.TypeEntity](func(*graph.Reference[graph.TypeEntity]) (graph.TypeEntity, error) {
		if decl, ok := v.Parent().(*graph.LocalDeclarationStatement); ok && decl.Type() != nil {
			return decl.Type().Resolve()
		}
		init := v.Initializer()
		if init == nil {
			return nil, graph.ErrNameNotFound("type of "+v.Name(), v)
		}
		return init.Result().Resolve()
	})))
}

// settleReferences resolves the pending references of e. It returns how many
// references it settled.
func settleReferences(e graph.Entity, stats *PassStats, diags *Diagnostics) (int, error) {
	r, ok := e.(graph.Referencing)
	if !ok {
		return 0, nil
	}
	settled := 0
	for _, info := range r.References() {
		if info.Ref == nil || info.Ref.State() != graph.NotYetResolved {
			continue
		}
		err := info.Ref.Settle()
		if err != nil && graph.IsFatal(err) {
			return settled, err
		}
		stats.record(err)
		if err != nil {
			if !isDeferred(err) {
				diags.Add(e, err)
			}
			continue
		}
		settled++
	}
	return settled, nil
}

// settledReferences collects the references of g that are already settled.
func settledReferences(g *graph.SemanticGraph) map[graph.Settler]bool {
	settled := make(map[graph.Settler]bool)
	for id := graph.EntityID(1); int(id) <= g.Len(); id++ {
		r, ok := g.Entity(id).(graph.Referencing)
		if !ok {
			continue
		}
		for _, info := range r.References() {
			if info.Ref != nil && info.State != graph.NotYetResolved {
				settled[info.Ref] = true
			}
		}
	}
	return settled
}

// checkReferences checks that what the declarations and names of e bound to
// during this pass is accessible from e. Results and instantiations are not
// checked.
func checkReferences(e graph.Entity, skip map[graph.Settler]bool, diags *Diagnostics) error {
	r, ok := e.(graph.Referencing)
	if !ok || graph.IsConstructed(e) {
		return nil
	}
	for _, info := range r.References() {
		if info.Role == "result" || info.Target == nil || skip[info.Ref] {
			continue
		}
		if err := checkAccess(info.Target, e, diags); err != nil {
			return err
		}
	}
	return nil
}
