package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sharpsem/internal/ir"
)

// fakeMetadata serves host types declared directly in the test graph.
type fakeMetadata struct {
	builtIns map[BuiltInType]TypeEntity
	array    TypeEntity
	nullable TypeEntity
}

func (f *fakeMetadata) BuiltInType(b BuiltInType) TypeEntity {
	if t, ok := f.builtIns[b]; ok {
		return t
	}
	return nil
}

func (f *fakeMetadata) ArrayBaseType() TypeEntity      { return f.array }
func (f *fakeMetadata) NullableDefinition() TypeEntity { return f.nullable }

// newSystem declares System.Object, System.Int32, System.Array and
// System.Nullable<T> in an imported program and installs them as metadata.
func newSystem(t *testing.T, g *SemanticGraph) *fakeMetadata {
	t.Helper()
	sys := g.Global().Namespace("System")
	lib := g.Program("mscorlib")
	lib.Imported = true

	declare := func(c *ClassEntity) *ClassEntity {
		c.SetProgram(lib)
		c.SetDeclaredAccessibility(Public)
		require.NoError(t, sys.AddNestedType(c))
		return c
	}
	object := declare(g.NewClass("Object"))
	i32 := g.NewStruct("Int32")
	i32.SetProgram(lib)
	i32.SetDeclaredAccessibility(Public)
	require.NoError(t, sys.AddNestedType(i32))
	array := declare(g.NewClass("Array"))

	nullable := g.NewStruct("Nullable")
	nullable.SetProgram(lib)
	nullable.SetDeclaredAccessibility(Public)
	require.NoError(t, nullable.AddTypeParameter(g.NewTypeParameter("T")))
	require.NoError(t, sys.AddNestedType(nullable))

	md := &fakeMetadata{
		builtIns: map[BuiltInType]TypeEntity{BuiltInObject: object, BuiltInInt: i32},
		array:    array,
		nullable: nullable,
	}
	g.SetMetadata(md)
	return md
}

func typeRef(owner Entity, target TypeEntity) *Reference[TypeEntity] {
	return ResolvedReference[TypeEntity](owner, target)
}

func addClass(t *testing.T, g *SemanticGraph, parent HasChildTypes, name string, acc Accessibility, params ...string) *ClassEntity {
	t.Helper()
	c := g.NewClass(name)
	if acc != AccessibilityNotSet {
		c.SetDeclaredAccessibility(acc)
	}
	for _, p := range params {
		require.NoError(t, c.AddTypeParameter(g.NewTypeParameter(p)))
	}
	require.NoError(t, parent.AddNestedType(c))
	return c
}

func addField(t *testing.T, c HasMembers, name string, acc Accessibility, typ TypeEntity) *FieldEntity {
	t.Helper()
	f := c.Graph().NewField(name)
	if acc != AccessibilityNotSet {
		f.SetDeclaredAccessibility(acc)
	}
	if typ != nil {
		f.SetType(typeRef(f, typ))
	}
	require.NoError(t, c.AddMember(f))
	return f
}

func firstTypeParam(t *testing.T, c CanHaveTypeParameters) *TypeParameterEntity {
	t.Helper()
	params, err := c.TypeParameters()
	require.NoError(t, err)
	require.NotEmpty(t, params)
	return params[0]
}

func namedType(name string) *ir.TypeSyntax { return ir.NamedType(name) }
