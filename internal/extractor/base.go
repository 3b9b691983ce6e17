package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sharpsem/internal/ir"
)

// LanguageExtractor defines the interface that each language front end must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	// GetQuery returns the query whose captures are reported as syntax errors.
	GetQuery() string
	ExtractUnit(root *sitter.Node, sourceCode []byte, filepath string) *ir.CompilationUnit
}
