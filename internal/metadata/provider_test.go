package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/graph"
)

func newImported(t *testing.T) (*graph.SemanticGraph, *Provider) {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	g := graph.New()
	p := New(g, cat)
	require.NoError(t, p.Import())
	return g, p
}

func TestProvider_Import(t *testing.T) {
	t.Run("Queries return nil before import", func(t *testing.T) {
		cat, err := DefaultCatalog()
		require.NoError(t, err)
		g := graph.New()
		p := New(g, cat)

		assert.False(t, p.Imported())
		assert.Nil(t, p.BuiltInType(graph.BuiltInInt))
		assert.Nil(t, p.ArrayBaseType())
		assert.Nil(t, g.BuiltIn(graph.BuiltInInt).Aliased())
	})

	t.Run("Import is idempotent", func(t *testing.T) {
		g, p := newImported(t)
		n := g.Len()
		require.NoError(t, p.Import())
		assert.Equal(t, n, g.Len())
	})

	t.Run("Built-in keywords alias catalog types", func(t *testing.T) {
		g, p := newImported(t)
		i32 := g.LookupQualified("System.Int32")
		require.Len(t, i32, 1)
		assert.Same(t, i32[0], g.BuiltIn(graph.BuiltInInt).Aliased())
		assert.Same(t, i32[0], p.BuiltInType(graph.BuiltInInt))

		prog, ok := g.LookupProgram("mscorlib")
		require.True(t, ok)
		assert.True(t, prog.Imported)
		assert.Same(t, prog, i32[0].Program())
	})

	t.Run("Host types are public and derive from object", func(t *testing.T) {
		g, p := newImported(t)
		array := p.ArrayBaseType()
		require.NotNil(t, array)
		acc, ok := graph.EffectiveAccessibility(array.(graph.HasAccessibility))
		require.True(t, ok)
		assert.Equal(t, graph.Public, acc)

		object := g.BuiltIn(graph.BuiltInObject).Aliased()
		assert.True(t, graph.IsSameOrDerivedFrom(array, object))
		assert.True(t, graph.IsSameOrDerivedFrom(p.BuiltInType(graph.BuiltInInt), p.Lookup("System.ValueType", 0)))
	})

	t.Run("Generic members map through instantiation", func(t *testing.T) {
		g, p := newImported(t)
		nullable := p.NullableDefinition()
		require.NotNil(t, nullable)

		intQ := graph.GetConstructedNullableType(g.BuiltIn(graph.BuiltInInt)).(*graph.NullableTypeEntity)
		aliased := intQ.Aliased()
		require.NotNil(t, aliased)
		assert.Same(t, nullable, aliased.Template())

		values := graph.MembersNamed(aliased, "Value")
		require.Len(t, values, 1)
		typ, ok := values[0].(*graph.PropertyEntity).Type().Target()
		require.True(t, ok)
		assert.Same(t, g.BuiltIn(graph.BuiltInInt), typ)
	})

	t.Run("Constructed bases", func(t *testing.T) {
		_, p := newImported(t)
		list := p.Lookup("System.Collections.Generic.List", 1)
		require.NotNil(t, list)
		bases := list.BaseTypes()
		require.Len(t, bases, 2)
		enumerable, ok := bases[1].Target()
		require.True(t, ok)
		assert.True(t, graph.IsConstructed(enumerable))
		assert.Equal(t, "System.Collections.Generic.IEnumerable<T>", graph.QualifiedName(enumerable))
	})

	t.Run("Method overloads use parameter types", func(t *testing.T) {
		_, p := newImported(t)
		object := p.BuiltInType(graph.BuiltInObject)
		assert.Equal(t, graph.Definite, object.DeclarationSpace().Lookup("Equals(object)").State)
	})
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"Unknown kind", "types:\n  - {name: A.B, kind: record}\n", "unknown kind"},
		{"Duplicate type", "types:\n  - {name: A.B, kind: class}\n  - {name: A.B, kind: class}\n", "declared twice"},
		{"Member without type", "types:\n  - name: A.B\n    kind: class\n    members: [{kind: field, name: x}]\n", "has no type"},
		{"Bad name", "types:\n  - {name: A., kind: class}\n", "invalid name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("Generic arity distinguishes types", func(t *testing.T) {
		cat, err := ParseCatalog([]byte("types:\n  - {name: A.B, kind: class}\n  - {name: A.B, kind: class, type_parameters: [T]}\n"))
		require.NoError(t, err)
		assert.Equal(t, "mscorlib", cat.Program)
		assert.Len(t, cat.Types, 2)
	})
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte("program: host\ntypes:\n  - {name: Host.Thing, kind: struct}\n"), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "host", cat.Program)

	g := graph.New()
	p := New(g, cat)
	require.NoError(t, p.Import())
	assert.NotNil(t, p.Lookup("Host.Thing", 0))
	assert.Nil(t, p.BuiltInType(graph.BuiltInInt))

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
