package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
	"sharpsem/internal/metadata"
)

// fixture is a graph with the default catalog imported and one source program.
type fixture struct {
	g   *graph.SemanticGraph
	app *graph.Program
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	g := graph.New()
	cat, err := metadata.DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, metadata.New(g, cat).Import())
	return fixture{g: g, app: g.Program("app")}
}

func (f fixture) ns(name string) *graph.NamespaceEntity {
	if name == "" {
		return f.g.Global()
	}
	return f.g.Global().Namespace(name)
}

func (f fixture) class(t *testing.T, parent graph.HasChildTypes, name string, params ...string) *graph.ClassEntity {
	t.Helper()
	c := f.g.NewClass(name)
	c.SetProgram(f.app)
	for _, p := range params {
		require.NoError(t, c.AddTypeParameter(f.g.NewTypeParameter(p)))
	}
	require.NoError(t, parent.AddNestedType(c))
	return c
}

func (f fixture) partial(t *testing.T, parent graph.HasChildTypes, name string) *graph.ClassEntity {
	t.Helper()
	c := f.class(t, parent, name)
	c.SetModifiers(graph.ModPartial)
	return c
}

// base adds an unresolved base type reference written as s.
func base(t *testing.T, c *graph.ClassEntity, s string) *graph.Reference[graph.TypeEntity] {
	t.Helper()
	ref := graph.NewReference[graph.TypeEntity](c, ir.MustParseType(s), nil)
	require.NoError(t, c.AddBaseType(ref))
	return ref
}

// field adds a field whose type is written as s.
func field(t *testing.T, c graph.HasMembers, name, s string) *graph.FieldEntity {
	t.Helper()
	fe := c.Graph().NewField(name)
	fe.SetType(graph.NewReference[graph.TypeEntity](fe, ir.MustParseType(s), nil))
	require.NoError(t, c.AddMember(fe))
	return fe
}

// method adds a method returning ret, with one parameter per entry of params
// given as "type name", and an empty body.
func method(t *testing.T, c graph.HasMembers, name, ret string, params ...[2]string) *graph.MethodEntity {
	t.Helper()
	g := c.Graph()
	m := g.NewMethod(name)
	m.SetReturnType(graph.NewReference[graph.TypeEntity](m, ir.MustParseType(ret), nil))
	for _, p := range params {
		pe := g.NewParameter(p[1], graph.ParameterValue)
		pe.SetType(graph.NewReference[graph.TypeEntity](pe, ir.MustParseType(p[0]), nil))
		require.NoError(t, m.AddParameter(pe))
	}
	require.NoError(t, m.SetBody(g.NewBlock()))
	require.NoError(t, c.AddMember(m))
	return m
}

func using(ns *graph.NamespaceEntity, target string) *graph.UsingNamespaceEntity {
	u := ns.Graph().NewUsingNamespace("", target)
	u.SetTarget(graph.NewReference[*graph.NamespaceEntity](u, ir.MustParseType(target), nil))
	ns.AddUsingNamespace(u)
	return u
}

func alias(ns *graph.NamespaceEntity, name, target string) *graph.UsingAliasEntity {
	a := ns.Graph().NewUsingAlias("", name)
	a.SetTarget(graph.NewReference[graph.NamespaceOrTypeEntity](a, ir.MustParseType(target), nil))
	ns.AddUsingAlias(a)
	return a
}

// resolveIn resolves s from scope without running any pass.
func resolveIn(t *testing.T, g *graph.SemanticGraph, scope graph.Entity, s string) (graph.TypeEntity, error) {
	t.Helper()
	return NewTypeResolver(g).ResolveType(scope, ir.MustParseType(s))
}

func runChain(t *testing.T, g *graph.SemanticGraph) ([]StageResult, error) {
	t.Helper()
	chain := NewDefaultChain()
	chain.WithLogger(zaptest.NewLogger(t))
	return chain.Run(context.Background(), g)
}

func diagnosticCodes(results []StageResult) []graph.ErrorCode {
	all := &Diagnostics{}
	for _, r := range results {
		all.Merge(r.Diagnostics)
	}
	return all.Codes()
}

func catalogType(t *testing.T, g *graph.SemanticGraph, name string) graph.TypeEntity {
	t.Helper()
	found := g.LookupQualified(name)
	require.Len(t, found, 1, name)
	te, ok := found[0].(graph.TypeEntity)
	require.True(t, ok)
	return te
}
