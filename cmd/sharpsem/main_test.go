package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	root := t.TempDir()
	src := "namespace Shop\n{\n    public class Cart\n    {\n        private Item item;\n    }\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cart.cs"), []byte(src), 0o644))
	db := filepath.Join(t.TempDir(), "sharpsem.db")
	cfg := filepath.Join(root, "absent.yaml")
	jsonOut := filepath.Join(t.TempDir(), "snapshot.json")

	t.Run("analyze", func(t *testing.T) {
		out, err := execute(t, "analyze", root, "--config", cfg, "--db", db, "--log-level", "error", "--json", jsonOut)
		require.NoError(t, err)
		assert.Contains(t, out, "NAME_NOT_FOUND")
		assert.FileExists(t, jsonOut)

		_, err = execute(t, "analyze", root, "--config", cfg, "--db", db, "--log-level", "error", "--strict")
		assert.ErrorIs(t, err, errDiagnostics)
		strict = false
	})

	t.Run("entities", func(t *testing.T) {
		out, err := execute(t, "entities", "Cart.cs", "--config", cfg, "--db", db, "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, out, "Shop.Cart")
		assert.Contains(t, out, "Shop.Cart.item")
	})

	t.Run("dump", func(t *testing.T) {
		out, err := execute(t, "dump", root, "--config", cfg, "--log-level", "error", "--from", "Shop.Cart", "--refs")
		require.NoError(t, err)
		assert.Contains(t, out, "class Cart [public]")
		assert.Contains(t, out, "type: Item (unresolvable)")

		_, err = execute(t, "dump", root, "--config", cfg, "--log-level", "error", "--from", "Shop.Nope")
		assert.Error(t, err)
		dumpFrom = ""
		dumpRefs = false

		out, err = execute(t, "dump", root, "--config", cfg, "--log-level", "error", "--format", "mermaid")
		require.NoError(t, err)
		assert.Contains(t, out, `class Shop_Cart["Cart"]`)
		dumpFormat = "tree"
	})
}
