package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingVisitor struct {
	visit  func(Entity) VisitResult
	events []string
}

func (r *recordingVisitor) Visit(e Entity) VisitResult {
	r.events = append(r.events, "visit "+e.Name())
	if r.visit != nil {
		return r.visit(e)
	}
	return Continue
}

func (r *recordingVisitor) Leave(e Entity) {
	r.events = append(r.events, "leave "+e.Name())
}

func newVisitFixture(t *testing.T) (*SemanticGraph, *NamespaceEntity) {
	t.Helper()
	g := New()
	ns := g.Global().Namespace("N")
	a := addClass(t, g, ns, "A", Public)
	addField(t, a, "x", Private, nil)
	addClass(t, g, ns, "B", Public)
	return g, ns
}

func TestWalk(t *testing.T) {
	t.Run("Pre-order with leave after children", func(t *testing.T) {
		_, ns := newVisitFixture(t)
		v := &recordingVisitor{}
		Walk(v, ns)
		assert.Equal(t, []string{
			"visit N", "visit A", "visit x", "leave x", "leave A", "visit B", "leave B", "leave N",
		}, v.events)
	})

	t.Run("SkipChildren still leaves", func(t *testing.T) {
		_, ns := newVisitFixture(t)
		v := &recordingVisitor{visit: func(e Entity) VisitResult {
			if e.Name() == "A" {
				return SkipChildren
			}
			return Continue
		}}
		Walk(v, ns)
		assert.Equal(t, []string{"visit N", "visit A", "leave A", "visit B", "leave B", "leave N"}, v.events)
	})

	t.Run("Detached siblings are not visited", func(t *testing.T) {
		_, ns := newVisitFixture(t)
		b, err := SingleEntity[*ClassEntity](ns.DeclarationSpace(), "B")
		require.NoError(t, err)
		require.NotNil(t, b)

		var seen []string
		Walk(VisitorFunc(func(e Entity) VisitResult {
			seen = append(seen, e.Name())
			if e.Name() == "A" {
				require.True(t, ns.RemoveNestedType(b))
			}
			return Continue
		}), ns)
		assert.Equal(t, []string{"N", "A", "x"}, seen)
	})

	t.Run("Nil entity is a no-op", func(t *testing.T) {
		v := &recordingVisitor{}
		Walk(v, nil)
		var nilClass *ClassEntity
		Walk(v, nilClass)
		assert.Empty(t, v.events)
	})
}

func TestInspect(t *testing.T) {
	_, ns := newVisitFixture(t)
	var kinds []EntityKind
	Inspect(ns, func(e Entity) bool {
		kinds = append(kinds, e.Kind())
		return e.Kind() != KindClass
	})
	assert.Equal(t, []EntityKind{KindNamespace, KindClass, KindClass}, kinds)
}
