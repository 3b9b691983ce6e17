package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

func TestTypeResolver_ResolveType(t *testing.T) {
	f := newFixture(t)
	c := f.class(t, f.ns("App"), "C")
	i32 := f.g.BuiltIn(graph.BuiltInInt)

	t.Run("Nullable applies before arrays", func(t *testing.T) {
		got, err := resolveIn(t, f.g, c, "int?[]")
		require.NoError(t, err)
		arr, ok := got.(*graph.ArrayTypeEntity)
		require.True(t, ok)
		assert.Equal(t, 1, arr.Rank())
		n, ok := arr.ElementType().(*graph.NullableTypeEntity)
		require.True(t, ok)
		assert.Same(t, i32, n.UnderlyingType())
	})

	t.Run("Array ranks apply right to left", func(t *testing.T) {
		got, err := resolveIn(t, f.g, c, "int[][,]")
		require.NoError(t, err)
		outer, ok := got.(*graph.ArrayTypeEntity)
		require.True(t, ok)
		assert.Equal(t, 1, outer.Rank())
		inner, ok := outer.ElementType().(*graph.ArrayTypeEntity)
		require.True(t, ok)
		assert.Equal(t, 2, inner.Rank())
		assert.Same(t, i32, inner.ElementType())
	})

	t.Run("Each star adds one pointer", func(t *testing.T) {
		got, err := resolveIn(t, f.g, c, "void**")
		require.NoError(t, err)
		p1, ok := got.(*graph.PointerTypeEntity)
		require.True(t, ok)
		p2, ok := p1.UnderlyingType().(*graph.PointerTypeEntity)
		require.True(t, ok)
		assert.Same(t, f.g.BuiltIn(graph.BuiltInVoid), p2.UnderlyingType())
	})

	t.Run("void pointer is a single shared layer", func(t *testing.T) {
		first, err := resolveIn(t, f.g, c, "void*")
		require.NoError(t, err)
		second, err := resolveIn(t, f.g, c, "void*")
		require.NoError(t, err)
		p, ok := first.(*graph.PointerTypeEntity)
		require.True(t, ok)
		assert.Same(t, f.g.BuiltIn(graph.BuiltInVoid), p.UnderlyingType())
		assert.Same(t, first, second)
	})

	t.Run("Instantiations are shared", func(t *testing.T) {
		a, err := resolveIn(t, f.g, c, "System.Collections.Generic.List<int>")
		require.NoError(t, err)
		b, err := resolveIn(t, f.g, c, "System.Collections.Generic.List<int>")
		require.NoError(t, err)
		assert.Same(t, a, b)
		assert.True(t, graph.IsConstructed(a))
		assert.Same(t, catalogType(t, f.g, "System.Collections.Generic.List`1"), a.Template())
	})

	t.Run("Wrong number of type arguments", func(t *testing.T) {
		_, err := resolveIn(t, f.g, c, "System.Collections.Generic.List<int, int>")
		assert.True(t, graph.IsCode(err, graph.CodeArityMismatch), "%v", err)
	})

	t.Run("Unknown name", func(t *testing.T) {
		_, err := resolveIn(t, f.g, c, "Missing")
		assert.True(t, graph.IsCode(err, graph.CodeNameNotFound), "%v", err)
	})

	t.Run("Global qualifier", func(t *testing.T) {
		got, err := resolveIn(t, f.g, c, "global::System.String")
		require.NoError(t, err)
		assert.Same(t, catalogType(t, f.g, "System.String"), got)
	})

	t.Run("Missing syntax violates an invariant", func(t *testing.T) {
		ref := graph.NewReference[graph.TypeEntity](c, nil, NewTypeResolver(f.g))
		_, err := ref.Resolve()
		assert.True(t, graph.IsFatal(err))
		assert.Equal(t, graph.NotYetResolved, ref.State())
	})
}

func TestTypeResolver_Scopes(t *testing.T) {
	t.Run("Type parameters shadow namespace members", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		f.class(t, app, "T")
		gen := f.class(t, app, "G", "T")
		fe := field(t, gen, "value", "T")

		got, err := resolveIn(t, f.g, fe, "T")
		require.NoError(t, err)
		assert.Equal(t, graph.KindTypeParameter, got.Kind())
		assert.Same(t, gen, got.Parent())
	})

	t.Run("Method type parameters", func(t *testing.T) {
		f := newFixture(t)
		c := f.class(t, f.ns("App"), "C")
		m := f.g.NewMethod("Convert")
		u := f.g.NewTypeParameter("U")
		require.NoError(t, m.AddTypeParameter(u))
		p := f.g.NewParameter("value", graph.ParameterValue)
		require.NoError(t, m.AddParameter(p))
		require.NoError(t, c.AddMember(m))

		got, err := resolveIn(t, f.g, p, "U[]")
		require.NoError(t, err)
		assert.Same(t, u, got.(*graph.ArrayTypeEntity).ElementType())
	})

	t.Run("Nested types are inherited", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		b := f.class(t, app, "Base")
		inner := f.class(t, b, "Inner")
		d := f.class(t, app, "Derived")
		tr := NewTypeResolver(f.g)
		base(t, d, "Base").Bind(tr.BaseTypeResolver(d))
		fe := field(t, d, "x", "Inner")

		got, err := tr.ResolveType(fe, ir.MustParseType("Inner"))
		require.NoError(t, err)
		assert.Same(t, inner, got)
	})

	t.Run("Base list does not see inherited nested types", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		b := f.class(t, app, "Base")
		f.class(t, b, "Inner")
		d := f.class(t, app, "Derived")
		tr := NewTypeResolver(f.g)
		first := base(t, d, "Base")
		second := base(t, d, "Inner")
		first.Bind(tr.BaseTypeResolver(d))
		second.Bind(tr.BaseTypeResolver(d))

		require.NoError(t, first.Settle())
		err := second.Settle()
		assert.True(t, graph.IsCode(err, graph.CodeNameNotFound), "%v", err)
	})

	t.Run("Nested declarations hide outer ones", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		f.class(t, app, "Item")
		outer := f.class(t, app, "Outer")
		inner := f.class(t, outer, "Item")
		fe := field(t, outer, "x", "Item")

		got, err := resolveIn(t, f.g, fe, "Item")
		require.NoError(t, err)
		assert.Same(t, inner, got)
	})
}

func TestTypeResolver_Directives(t *testing.T) {
	ctx := context.Background()

	t.Run("Name imported twice is ambiguous", func(t *testing.T) {
		f := newFixture(t)
		f.class(t, f.ns("A"), "Widget")
		f.class(t, f.ns("B"), "Widget")
		app := f.ns("App")
		using(app, "A")
		using(app, "B")
		c := f.class(t, app, "C")
		_, err := NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)

		_, err = resolveIn(t, f.g, c, "Widget")
		require.True(t, graph.IsCode(err, graph.CodeAmbiguousImport), "%v", err)
		var se *graph.SemanticError
		require.ErrorAs(t, err, &se)
		assert.ElementsMatch(t, []string{"A.Widget", "B.Widget"}, se.Candidates)
	})

	t.Run("Declarations win over imports", func(t *testing.T) {
		f := newFixture(t)
		f.class(t, f.ns("A"), "Widget")
		app := f.ns("App")
		using(app, "A")
		own := f.class(t, app, "Widget")
		c := f.class(t, app, "C")
		_, err := NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)

		got, err := resolveIn(t, f.g, c, "Widget")
		require.NoError(t, err)
		assert.Same(t, own, got)
	})

	t.Run("Imports skip nested namespaces", func(t *testing.T) {
		f := newFixture(t)
		f.ns("A.Inner")
		app := f.ns("App")
		using(app, "A")
		c := f.class(t, app, "C")
		_, err := NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)

		_, err = resolveIn(t, f.g, c, "Inner")
		assert.True(t, graph.IsCode(err, graph.CodeNameNotFound), "%v", err)
	})

	t.Run("Aliases name instantiations", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		alias(app, "Ints", "System.Collections.Generic.List<int>")
		c := f.class(t, app, "C")
		_, err := NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)

		got, err := resolveIn(t, f.g, c, "Ints")
		require.NoError(t, err)
		assert.Equal(t, "System.Collections.Generic.List<int>", graph.QualifiedName(got))
	})

	t.Run("Directives apply to their own file only", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		u := f.g.NewUsingNamespace("a.cs", "System")
		u.SetTarget(graph.NewReference[*graph.NamespaceEntity](u, ir.MustParseType("System"), nil))
		app.AddUsingNamespace(u)
		c := f.class(t, app, "C")
		_, err := NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)

		inA := ir.MustParseType("String")
		inA.Evidence.Filepath = "a.cs"
		_, err = NewTypeResolver(f.g).ResolveType(c, inA)
		assert.NoError(t, err)

		inB := ir.MustParseType("String")
		inB.Evidence.Filepath = "b.cs"
		_, err = NewTypeResolver(f.g).ResolveType(c, inB)
		assert.True(t, graph.IsCode(err, graph.CodeNameNotFound), "%v", err)
	})

	t.Run("Extern alias restricts lookup to its program", func(t *testing.T) {
		f := newFixture(t)
		lib := f.g.Program("lib")
		shared := f.ns("Shared")
		theirs := f.g.NewClass("Thing")
		theirs.SetProgram(lib)
		theirs.SetDeclaredAccessibility(graph.Public)
		require.NoError(t, shared.AddNestedType(theirs))
		f.class(t, shared, "Thing")

		app := f.ns("App")
		app.AddExternAlias(f.g.NewExternAlias("", "lib"))
		c := f.class(t, app, "C")
		_, err := NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)

		got, err := resolveIn(t, f.g, c, "lib::Shared.Thing")
		require.NoError(t, err)
		assert.Same(t, theirs, got)

		_, err = resolveIn(t, f.g, c, "Shared.Thing")
		assert.True(t, graph.IsCode(err, graph.CodeAmbiguousDeclaration), "%v", err)
	})
}
