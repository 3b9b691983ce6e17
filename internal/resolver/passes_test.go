package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

func TestTypesPass_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Merges partial declarations", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		first := f.partial(t, app, "P")
		field(t, first, "a", "int")
		second := f.partial(t, app, "P")
		field(t, second, "b", "string")
		base(t, second, "System.IDisposable")

		diags := &Diagnostics{}
		_, err := NewTypesPass().Run(ctx, f.g, diags)
		require.NoError(t, err)
		assert.Zero(t, diags.Len())

		require.Len(t, app.NestedTypes(), 1)
		assert.Same(t, first, app.NestedTypes()[0])
		assert.Len(t, graph.MembersNamed(first, "b"), 1)
		require.Len(t, first.BaseTypes(), 1)
		target, ok := first.BaseTypes()[0].Target()
		require.True(t, ok)
		assert.Same(t, catalogType(t, f.g, "System.IDisposable"), target)
		assert.Nil(t, second.Parent())
	})

	t.Run("Reports inheritance cycles", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		a := f.class(t, app, "A")
		b := f.class(t, app, "B")
		base(t, a, "B")
		base(t, b, "A")

		diags := &Diagnostics{}
		_, err := NewTypesPass().Run(ctx, f.g, diags)
		require.NoError(t, err)
		assert.Equal(t, 2, diags.ByCode()[graph.CodeCyclicDependency])
	})

	t.Run("Reports inaccessible bases", func(t *testing.T) {
		f := newFixture(t)
		hidden := f.g.NewClass("Hidden")
		hidden.SetProgram(f.g.Program("lib"))
		require.NoError(t, f.ns("Lib").AddNestedType(hidden))
		d := f.class(t, f.ns("App"), "D")
		ref := base(t, d, "Lib.Hidden")

		diags := &Diagnostics{}
		_, err := NewTypesPass().Run(ctx, f.g, diags)
		require.NoError(t, err)
		assert.Equal(t, graph.Resolved, ref.State())
		assert.Equal(t, []graph.ErrorCode{graph.CodeInaccessible}, diags.Codes())
	})

	t.Run("Unresolvable directives become diagnostics", func(t *testing.T) {
		f := newFixture(t)
		app := f.ns("App")
		u := using(app, "Missing")

		diags := &Diagnostics{}
		stats, err := NewTypesPass().Run(ctx, f.g, diags)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Unresolvable)
		require.Equal(t, 1, diags.Len())
		assert.Same(t, u, diags.Items()[0].Entity)
		assert.Equal(t, graph.Unresolvable, u.Target().State())
		assert.Equal(t, graph.PassTypes, f.g.PassCompleted())
	})

	t.Run("Constraints resolve from the declaring type", func(t *testing.T) {
		f := newFixture(t)
		gen := f.class(t, f.ns("App"), "G", "T")
		params, err := gen.TypeParameters()
		require.NoError(t, err)
		tp := params[0]
		ref := graph.NewReference[graph.TypeEntity](tp, ir.MustParseType("System.IDisposable"), nil)
		tp.AddConstraint(ref)

		_, err = NewTypesPass().Run(ctx, f.g, &Diagnostics{})
		require.NoError(t, err)
		target, ok := ref.Target()
		require.True(t, ok)
		assert.Same(t, catalogType(t, f.g, "System.IDisposable"), target)
	})
}

// body helpers build statements the way the index does: a statement joins its
// block before its variables are declared.
func local(t *testing.T, b *graph.BlockStatement, name string, init graph.ExpressionEntity) *graph.LocalVariableEntity {
	t.Helper()
	g := b.Graph()
	decl := g.NewLocalDeclaration()
	require.NoError(t, b.AddStatement(decl))
	v := g.NewLocalVariable(name)
	if init != nil {
		v.SetInitializer(init)
	}
	require.NoError(t, decl.AddVariable(v))
	return v
}

func expr(t *testing.T, b *graph.BlockStatement, e graph.ExpressionEntity) graph.ExpressionEntity {
	t.Helper()
	require.NoError(t, b.AddStatement(b.Graph().NewExpressionStatement(e)))
	return e
}

func TestMembersPass_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Requires pass 1", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewMembersPass().Run(ctx, f.g, &Diagnostics{})
		require.Error(t, err)
		assert.True(t, graph.IsCode(err, graph.CodePassOrder))
		assert.True(t, graph.IsFatal(err))
	})

	t.Run("Resolves bodies", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		bag := f.class(t, f.ns("App"), "Bag")
		field(t, bag, "items", "System.Collections.Generic.List<int>")

		size := method(t, bag, "Size", "int")
		n := local(t, size.Body(), "n", g.NewMemberAccess(g.NewSimpleName("items"), "Count"))
		ret := g.NewReturn(g.NewSimpleName("n"))
		require.NoError(t, size.Body().AddStatement(ret))

		fill := method(t, bag, "Fill", "void")
		call := g.NewInvocation(g.NewMemberAccess(g.NewSimpleName("items"), "Add"), g.NewLiteral(string(ir.LiteralInteger), "1"))
		expr(t, fill.Body(), call)

		results, err := runChain(t, g)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Empty(t, diagnosticCodes(results))

		i32 := g.BuiltIn(graph.BuiltInInt)
		typ, ok := n.Type().Target()
		require.True(t, ok)
		assert.Same(t, i32, typ)
		typ, ok = ret.Expression().Result().Target()
		require.True(t, ok)
		assert.Same(t, i32, typ)

		add, ok := call.Method().Target()
		require.True(t, ok)
		assert.Equal(t, "Add", add.Name())
		assert.True(t, graph.IsConstructed(add))
		assert.Equal(t, "System.Collections.Generic.List<int>", graph.QualifiedName(add.Parent()))
		typ, ok = call.Result().Target()
		require.True(t, ok)
		assert.Same(t, g.BuiltIn(graph.BuiltInVoid), typ)
		assert.Equal(t, graph.PassMembers, g.PassCompleted())
	})

	t.Run("Overloads are selected by argument count", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		c := f.class(t, f.ns("App"), "Logger")
		one := method(t, c, "Log", "void", [2]string{"string", "msg"})
		two := method(t, c, "Log", "void", [2]string{"string", "msg"}, [2]string{"int", "level"})
		method(t, c, "Put", "void", [2]string{"int", "v"})
		method(t, c, "Put", "void", [2]string{"string", "v"})

		run := method(t, c, "Run", "void")
		str := func() graph.ExpressionEntity { return g.NewLiteral(string(ir.LiteralString), `"x"`) }
		short := expr(t, run.Body(), g.NewInvocation(g.NewSimpleName("Log"), str())).(*graph.InvocationExpression)
		long := expr(t, run.Body(), g.NewInvocation(g.NewSimpleName("Log"), str(), g.NewLiteral(string(ir.LiteralInteger), "2"))).(*graph.InvocationExpression)
		put := expr(t, run.Body(), g.NewInvocation(g.NewSimpleName("Put"), str())).(*graph.InvocationExpression)

		results, err := runChain(t, g)
		require.NoError(t, err)

		got, ok := short.Method().Target()
		require.True(t, ok)
		assert.Same(t, one, got)
		got, ok = long.Method().Target()
		require.True(t, ok)
		assert.Same(t, two, got)
		assert.Equal(t, graph.NotYetResolved, put.Method().State())
		assert.Positive(t, results[1].Stats.Deferred)
	})

	t.Run("Reports inaccessible members", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		app := f.ns("App")
		secret := f.class(t, app, "Secret")
		hidden := field(t, secret, "hidden", "int")
		hidden.SetDeclaredAccessibility(graph.Private)

		user := f.class(t, app, "User")
		peek := method(t, user, "Peek", "int", [2]string{"Secret", "s"})
		access := g.NewMemberAccess(g.NewSimpleName("s"), "hidden")
		require.NoError(t, peek.Body().AddStatement(g.NewReturn(access)))

		results, err := runChain(t, g)
		require.NoError(t, err)
		assert.Equal(t, []graph.ErrorCode{graph.CodeInaccessible}, diagnosticCodes(results))
		target, ok := access.Referent().Target()
		require.True(t, ok)
		assert.Same(t, hidden, target)
	})

	t.Run("Private members of a base class", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		n := f.ns("N")
		a := f.class(t, n, "A")
		a.SetDeclaredAccessibility(graph.Public)
		x := field(t, a, "x", "int")
		x.SetDeclaredAccessibility(graph.Private)
		self := method(t, a, "M", "A")
		self.SetDeclaredAccessibility(graph.Public)

		b := f.class(t, n, "B")
		base(t, b, "A")
		peek := method(t, b, "Peek", "int")
		read := g.NewMemberAccess(g.NewThis(), "x")
		require.NoError(t, peek.Body().AddStatement(g.NewReturn(read)))
		again := method(t, b, "Again", "A")
		call := g.NewInvocation(g.NewMemberAccess(g.NewThis(), "M"))
		require.NoError(t, again.Body().AddStatement(g.NewReturn(call)))

		results, err := runChain(t, g)
		require.NoError(t, err)
		assert.Equal(t, []graph.ErrorCode{graph.CodeInaccessible}, diagnosticCodes(results))
		target, ok := read.Referent().Target()
		require.True(t, ok)
		assert.Same(t, x, target)
		typ, ok := call.Result().Target()
		require.True(t, ok)
		assert.Same(t, a, typ)
	})

	t.Run("Unknown members", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		c := f.class(t, f.ns("App"), "C")
		field(t, c, "items", "System.Collections.Generic.List<int>")
		m := method(t, c, "M", "void")
		missing := g.NewMemberAccess(g.NewSimpleName("items"), "Missing")
		expr(t, m.Body(), missing)

		results, err := runChain(t, g)
		require.NoError(t, err)
		assert.Equal(t, []graph.ErrorCode{graph.CodeNameNotFound}, diagnosticCodes(results))
		assert.Equal(t, graph.Unresolvable, missing.Referent().State())
	})

	t.Run("Literals and operators", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		c := f.class(t, f.ns("App"), "C")
		m := method(t, c, "M", "void")
		long := local(t, m.Body(), "a", g.NewLiteral(string(ir.LiteralInteger), "10L"))
		cmp := local(t, m.Body(), "b", g.NewBinary("<", g.NewSimpleName("a"), g.NewLiteral(string(ir.LiteralInteger), "3")))
		concat := local(t, m.Body(), "c", g.NewBinary("+", g.NewLiteral(string(ir.LiteralString), `"n="`), g.NewSimpleName("a")))
		null := local(t, m.Body(), "d", g.NewLiteral(string(ir.LiteralNull), "null"))

		_, err := runChain(t, g)
		require.NoError(t, err)

		for v, want := range map[*graph.LocalVariableEntity]graph.BuiltInType{
			long:   graph.BuiltInLong,
			cmp:    graph.BuiltInBool,
			concat: graph.BuiltInString,
		} {
			typ, ok := v.Type().Target()
			require.True(t, ok, v.Name())
			assert.Same(t, g.BuiltIn(want), typ, v.Name())
		}
		assert.Equal(t, graph.NotYetResolved, null.Type().State())
	})
}
