package extractor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/ir"
)

func membersByName(t *ir.TypeDecl) map[string]*ir.MemberDecl {
	out := make(map[string]*ir.MemberDecl)
	for _, m := range t.Members {
		out[m.Name] = m
	}
	return out
}

func TestExtractor_ExtractFromFile(t *testing.T) {
	testFile := filepath.Join("testdata", "sample.cs")

	ext, err := NewExtractor("csharp")
	require.NoError(t, err)

	unit, err := ext.ExtractFromFile(context.Background(), testFile)
	require.NoError(t, err)
	assert.Empty(t, unit.SyntaxErrors)
	assert.Equal(t, testFile, unit.Filepath)
	assert.NotZero(t, unit.Checksum)

	t.Run("Directives", func(t *testing.T) {
		require.Len(t, unit.ExternAliases, 1)
		assert.Equal(t, "Legacy", unit.ExternAliases[0].Name)

		require.Len(t, unit.Usings, 3)
		assert.Equal(t, "System", unit.Usings[0].Target.String())
		assert.Empty(t, unit.Usings[0].Alias)
		assert.Equal(t, "System.Collections.Generic", unit.Usings[1].Target.String())
		assert.Equal(t, "Ints", unit.Usings[2].Alias)
		assert.Equal(t, "System.Collections.Generic.List<int>", unit.Usings[2].Target.String())
		assert.Equal(t, 4, unit.Usings[2].Evidence.StartLine)
	})

	require.Len(t, unit.Namespaces, 1)
	ns := unit.Namespaces[0]
	assert.Equal(t, "Acme.Inventory", ns.Name)
	require.Len(t, ns.Types, 4)
	types := make(map[string]*ir.TypeDecl)
	for _, td := range ns.Types {
		types[td.Name] = td
	}

	t.Run("Type declarations", func(t *testing.T) {
		store := types["IStore"]
		require.NotNil(t, store)
		assert.Equal(t, ir.TypeKindInterface, store.Kind)
		require.Len(t, store.TypeParameters, 1)
		assert.True(t, store.TypeParameters[0].Class)
		assert.Len(t, store.Members, 2)

		status := types["Status"]
		require.NotNil(t, status)
		assert.Equal(t, ir.TypeKindEnum, status.Kind)
		require.Len(t, status.EnumMembers, 2)
		assert.Equal(t, "Retired", status.EnumMembers[1].Name)
		assert.Equal(t, "4", status.EnumMembers[1].Value)

		filter := types["Filter"]
		require.NotNil(t, filter)
		assert.Equal(t, ir.TypeKindDelegate, filter.Kind)
		assert.Equal(t, "bool", filter.ReturnType.String())
		require.Len(t, filter.TypeParameters, 1)
		assert.Equal(t, "in", filter.TypeParameters[0].Variance)
		require.Len(t, filter.Parameters, 1)
		assert.Equal(t, "T", filter.Parameters[0].Type.String())
	})

	shelf := types["Shelf"]
	require.NotNil(t, shelf)
	members := membersByName(shelf)

	t.Run("Class header", func(t *testing.T) {
		assert.Equal(t, ir.TypeKindClass, shelf.Kind)
		assert.ElementsMatch(t, []string{"internal", "sealed", "partial"}, shelf.Modifiers)
		require.Len(t, shelf.BaseTypes, 2)
		assert.Equal(t, "IStore<T>", shelf.BaseTypes[0].String())
		assert.Equal(t, "IDisposable", shelf.BaseTypes[1].String())
		require.Len(t, shelf.TypeParameters, 1)
		tp := shelf.TypeParameters[0]
		assert.True(t, tp.Class)
		assert.True(t, tp.New)
		require.Len(t, shelf.NestedTypes, 1)
		assert.Equal(t, "Slot", shelf.NestedTypes[0].Name)
		assert.True(t, shelf.NestedTypes[0].HasModifier("protected"))
	})

	t.Run("Fields", func(t *testing.T) {
		capacity := members["Capacity"]
		require.NotNil(t, capacity)
		assert.Equal(t, ir.MemberKindConstant, capacity.Kind)
		require.NotNil(t, capacity.Initializer)
		assert.Equal(t, ir.LiteralInteger, capacity.Initializer.Literal)

		grid := members["grid"]
		require.NotNil(t, grid)
		assert.Equal(t, ir.MemberKindField, grid.Kind)
		assert.Equal(t, "int?[][,]", grid.Type.String())
		assert.Equal(t, []int{1, 2}, grid.Type.ArrayRanks)
	})

	t.Run("Properties", func(t *testing.T) {
		count := members["Count"]
		require.NotNil(t, count)
		assert.Equal(t, ir.MemberKindProperty, count.Kind)
		require.Len(t, count.Accessors, 1)
		assert.Equal(t, "get", count.Accessors[0].Kind)
		ret := count.Accessors[0].Body.Statements[0]
		assert.Equal(t, ir.StatementReturn, ret.Kind)
		assert.Equal(t, "items.Count", ret.Expression.String())

		label := members["Label"]
		require.NotNil(t, label)
		require.Len(t, label.Accessors, 2)
		assert.Equal(t, "set", label.Accessors[1].Kind)
		assert.Equal(t, []string{"private"}, label.Accessors[1].Modifiers)
	})

	t.Run("Method bodies", func(t *testing.T) {
		put := members["Put"]
		require.NotNil(t, put)
		require.NotNil(t, put.Body)
		stmts := put.Body.Statements
		require.Len(t, stmts, 4)

		assert.Equal(t, ir.StatementLocalDeclaration, stmts[0].Kind)
		assert.Nil(t, stmts[0].Type, "var has no declared type")
		require.Len(t, stmts[0].Declarators, 1)
		assert.Equal(t, "before", stmts[0].Declarators[0].Name)

		call := stmts[1].Expression
		require.NotNil(t, call)
		assert.Equal(t, ir.ExpressionInvocation, call.Kind)
		assert.Equal(t, "Add", call.Target.Text)
		require.Len(t, call.Arguments, 1)
		assert.Equal(t, "item", call.Arguments[0].Text)

		assert.Equal(t, "int", stmts[2].Type.String())
		sum := stmts[2].Declarators[0].Initializer
		require.NotNil(t, sum)
		assert.Equal(t, ir.ExpressionBinary, sum.Kind)
		assert.Equal(t, "+", sum.Text)

		assert.Equal(t, ir.StatementReturn, stmts[3].Kind)
		assert.Nil(t, stmts[3].Expression)
	})

	t.Run("Generic methods and parameters", func(t *testing.T) {
		convert := members["Convert"]
		require.NotNil(t, convert)
		assert.Equal(t, "U", convert.Type.String())
		require.Len(t, convert.TypeParameters, 1)
		assert.True(t, convert.TypeParameters[0].Struct)
		require.Len(t, convert.Parameters, 1)
		assert.Equal(t, "params", convert.Parameters[0].Modifier)
		assert.Equal(t, "T[]", convert.Parameters[0].Type.String())
		ret := convert.Body.Statements[0].Expression
		assert.Equal(t, ir.ExpressionDefault, ret.Kind)
		assert.Equal(t, "U", ret.Type.String())
	})

	t.Run("Constructors and explicit implementations", func(t *testing.T) {
		ctor := members["Shelf"]
		require.NotNil(t, ctor)
		assert.Equal(t, ir.MemberKindConstructor, ctor.Kind)
		require.Len(t, ctor.Parameters, 1)
		assign := ctor.Body.Statements[0].Expression
		assert.Equal(t, ir.ExpressionAssignment, assign.Kind)
		assert.Equal(t, "int?[][,]", assign.Right.Type.String())

		dispose := members["Dispose"]
		require.NotNil(t, dispose)
		assert.Equal(t, "IDisposable", dispose.ExplicitInterface.String())
		require.Len(t, dispose.Body.Statements, 1)
		assert.Equal(t, ir.StatementExpression, dispose.Body.Statements[0].Kind)
	})
}

func TestExtractor_ExtractFromSource(t *testing.T) {
	ext, err := NewExtractor("csharp")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("File scoped namespace owns following declarations", func(t *testing.T) {
		src := []byte("namespace A.B;\nusing System;\nclass C { }\n")
		unit, err := ext.ExtractFromSource(ctx, "fs.cs", src)
		require.NoError(t, err)
		require.Len(t, unit.Namespaces, 1)
		assert.Equal(t, "A.B", unit.Namespaces[0].Name)
		assert.Len(t, unit.Namespaces[0].Types, 1)
		assert.Empty(t, unit.Types)
		assert.Equal(t, xxhash.Sum64(src), unit.Checksum)
	})

	t.Run("Static usings are skipped", func(t *testing.T) {
		unit, err := ext.ExtractFromSource(ctx, "s.cs", []byte("using static System.Math;\nclass C { }\n"))
		require.NoError(t, err)
		assert.Empty(t, unit.Usings)
		assert.Len(t, unit.Types, 1)
	})

	t.Run("Params parameters follow positional ones", func(t *testing.T) {
		src := []byte("class Log {\n  public void Write(string format, params object[] args) { }\n  public void Write(string format) { }\n}\n")
		unit, err := ext.ExtractFromSource(ctx, "log.cs", src)
		require.NoError(t, err)
		assert.Empty(t, unit.SyntaxErrors)
		require.Len(t, unit.Types, 1)
		require.Len(t, unit.Types[0].Members, 2)

		params := unit.Types[0].Members[0].Parameters
		require.Len(t, params, 2)
		assert.Equal(t, "format", params[0].Name)
		assert.Empty(t, params[0].Modifier)
		assert.Equal(t, "args", params[1].Name)
		assert.Equal(t, "params", params[1].Modifier)
		assert.Equal(t, "object[]", params[1].Type.String())
		assert.Len(t, unit.Types[0].Members[1].Parameters, 1)
	})

	t.Run("Syntax errors are recorded", func(t *testing.T) {
		unit, err := ext.ExtractFromSource(ctx, "bad.cs", []byte("class C { int x = ; }\nclass D { }\n"))
		require.NoError(t, err)
		assert.NotEmpty(t, unit.SyntaxErrors)
		assert.Equal(t, "bad.cs", unit.SyntaxErrors[0].Filepath)
	})
}

func TestNewExtractor(t *testing.T) {
	_, err := NewExtractor("cobol")
	assert.Error(t, err)

	ext, err := NewExtractor("cs")
	require.NoError(t, err)
	assert.Equal(t, "cs", ext.Language())
}
