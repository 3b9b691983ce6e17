package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDump(t *testing.T) {
	g, _ := resolvedGraph(t, map[string]string{"App.cs": appSource})

	t.Run("Declarations only by default", func(t *testing.T) {
		out := Dump(g.Global(), DumpOptions{})
		assert.Contains(t, out, "namespace <global>")
		assert.Contains(t, out, "class Store [public]")
		assert.Contains(t, out, "class Client [internal]")
		assert.Contains(t, out, "field store [private]")
		assert.NotContains(t, out, "return_statement")
		assert.NotContains(t, out, "Object")
	})

	t.Run("Bodies and references on request", func(t *testing.T) {
		out := Dump(findEntity(t, g, "App.Client"), DumpOptions{Bodies: true, References: true})
		assert.Contains(t, out, "return_statement")
		assert.Contains(t, out, "member_access")
		assert.Contains(t, out, "type: Store -> App.Store")
		assert.NotContains(t, out, "class Store")
	})

	t.Run("Unresolved references show their state", func(t *testing.T) {
		out := Dump(findEntity(t, g, "App.Store"), DumpOptions{References: true})
		assert.Contains(t, out, "type: Missing (unresolvable)")
	})

	t.Run("Imported types on request", func(t *testing.T) {
		out := Dump(g.Global(), DumpOptions{Imported: true})
		assert.Contains(t, out, "Object")
	})
}
