package extractor

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"sharpsem/internal/ir"
)

// Extractor orchestrates parsing using a language-specific extractor.
// It is safe for concurrent use; parsers are recycled through a pool.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
	parsers       sync.Pool
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "csharp", "c#", "cs":
		langExt = &CSharpExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	e := &Extractor{langExtractor: langExt, langName: lang}
	e.parsers.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(langExt.GetLanguage())
		return p
	}
	return e, nil
}

// Language returns the language name the extractor was created for.
func (e *Extractor) Language() string { return e.langName }

// ExtractFromFile parses a single source file into its compilation unit.
func (e *Extractor) ExtractFromFile(ctx context.Context, filepath string) (*ir.CompilationUnit, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractFromSource(ctx, filepath, sourceCode)
}

// ExtractFromSource parses source already held in memory. Syntax errors do not
// fail extraction; their locations are recorded on the unit.
func (e *Extractor) ExtractFromSource(ctx context.Context, filepath string, sourceCode []byte) (*ir.CompilationUnit, error) {
	parser := e.parsers.Get().(*sitter.Parser)
	defer func() {
		parser.Reset()
		e.parsers.Put(parser)
	}()
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	unit := e.langExtractor.ExtractUnit(root, sourceCode, filepath)
	unit.Checksum = xxhash.Sum64(sourceCode)

	if root.HasError() {
		errs, err := e.syntaxErrors(root, filepath)
		if err != nil {
			return nil, err
		}
		unit.SyntaxErrors = errs
	}
	return unit, nil
}

func (e *Extractor) syntaxErrors(root *sitter.Node, filepath string) ([]ir.Evidence, error) {
	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var out []ir.Evidence
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			out = append(out, evidenceOf(c.Node, filepath))
		}
	}
	return out, nil
}

func evidenceOf(n *sitter.Node, filepath string) ir.Evidence {
	start, end := n.StartPoint(), n.EndPoint()
	return ir.Evidence{
		Filepath:    filepath,
		StartLine:   int(start.Row) + 1,
		EndLine:     int(end.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndColumn:   int(end.Column) + 1,
	}
}
