package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sharpsem/internal/ir"
)

// typeSyntax converts a type node. It returns nil for `var` and for a nil node.
// Type forms the graph does not model (tuples, function pointers) become a
// single name part that later fails to resolve.
func (f *csharpFile) typeSyntax(n *sitter.Node) *ir.TypeSyntax {
	if n == nil {
		return nil
	}
	ts := &ir.TypeSyntax{Evidence: f.evidence(n)}
	switch n.Type() {
	case "implicit_type":
		return nil
	case "predefined_type":
		ts.BuiltIn = f.text(n)
	case "identifier":
		if f.text(n) == "var" {
			return nil
		}
		ts.Parts = []ir.NamePart{f.namePart(n)}
	case "generic_name":
		ts.Parts = []ir.NamePart{f.namePart(n)}
	case "qualified_name":
		left := f.typeSyntax(fieldOrFirst(n, "qualifier"))
		if left == nil {
			return nil
		}
		left.Evidence = ts.Evidence
		left.Parts = append(left.Parts, f.namePart(fieldOrLast(n, "name")))
		return left
	case "alias_qualified_name":
		alias := n.ChildByFieldName("alias")
		if alias == nil {
			alias = n.Child(0)
		}
		ts.Alias = f.ident(alias)
		ts.Parts = []ir.NamePart{f.namePart(fieldOrLast(n, "name"))}
	case "nullable_type":
		inner := f.typeSyntax(fieldOrFirst(n, "type"))
		if inner == nil {
			return nil
		}
		// `T[]?` annotates a reference type and does not wrap it.
		if len(inner.ArrayRanks) == 0 && inner.PointerDepth == 0 {
			inner.Nullable = true
		}
		inner.Evidence = ts.Evidence
		return inner
	case "pointer_type":
		inner := f.typeSyntax(fieldOrFirst(n, "type"))
		if inner == nil {
			return nil
		}
		inner.PointerDepth++
		inner.Evidence = ts.Evidence
		return inner
	case "array_type":
		inner := f.typeSyntax(fieldOrFirst(n, "type"))
		if inner == nil {
			return nil
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if spec := n.NamedChild(i); spec.Type() == "array_rank_specifier" {
				inner.ArrayRanks = append(inner.ArrayRanks, rankOf(spec))
			}
		}
		inner.Evidence = ts.Evidence
		return inner
	default:
		ts.Parts = []ir.NamePart{{Name: f.compact(n)}}
	}
	return ts
}

func rankOf(spec *sitter.Node) int {
	rank := 1
	for i := 0; i < int(spec.ChildCount()); i++ {
		if spec.Child(i).Type() == "," {
			rank++
		}
	}
	return rank
}

func (f *csharpFile) namePart(n *sitter.Node) ir.NamePart {
	if n == nil {
		return ir.NamePart{}
	}
	if n.Type() != "generic_name" {
		return ir.NamePart{Name: f.ident(n)}
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		name = childOfType(n, "identifier")
	}
	part := ir.NamePart{Name: f.ident(name)}
	if args := childOfType(n, "type_argument_list"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			if ts := f.typeSyntax(args.NamedChild(i)); ts != nil {
				part.TypeArgs = append(part.TypeArgs, ts)
			}
		}
	}
	return part
}

// variables reads a variable_declaration shared by fields, events and locals.
func (f *csharpFile) variables(decl *sitter.Node) (*ir.TypeSyntax, []*ir.VariableDecl) {
	typ := f.typeSyntax(decl.ChildByFieldName("type"))
	var vars []*ir.VariableDecl
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		if name == nil {
			name = childOfType(d, "identifier")
		}
		vars = append(vars, &ir.VariableDecl{
			Evidence:    f.evidence(d),
			Name:        f.ident(name),
			Initializer: f.expression(initializerOf(d)),
		})
	}
	return typ, vars
}

func initializerOf(d *sitter.Node) *sitter.Node {
	if eq := childOfType(d, "equals_value_clause"); eq != nil {
		return eq.NamedChild(0)
	}
	seen := false
	for i := 0; i < int(d.ChildCount()); i++ {
		c := d.Child(i)
		if !c.IsNamed() && c.Type() == "=" {
			seen = true
			continue
		}
		if seen && c.IsNamed() {
			return c
		}
	}
	return nil
}

func (f *csharpFile) block(n *sitter.Node) *ir.Statement {
	b := &ir.Statement{Evidence: f.evidence(n), Kind: ir.StatementBlock}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if s := f.statement(n.NamedChild(i)); s != nil {
			b.Statements = append(b.Statements, s)
		}
	}
	return b
}

// statement converts the statement forms the graph models; others are skipped.
func (f *csharpFile) statement(n *sitter.Node) *ir.Statement {
	switch n.Type() {
	case "block":
		return f.block(n)
	case "local_declaration_statement":
		decl := childOfType(n, "variable_declaration")
		if decl == nil {
			return nil
		}
		typ, vars := f.variables(decl)
		return &ir.Statement{Evidence: f.evidence(n), Kind: ir.StatementLocalDeclaration, Type: typ, Declarators: vars}
	case "expression_statement":
		e := f.expression(n.NamedChild(0))
		if e == nil {
			return nil
		}
		return &ir.Statement{Evidence: f.evidence(n), Kind: ir.StatementExpression, Expression: e}
	case "return_statement":
		s := &ir.Statement{Evidence: f.evidence(n), Kind: ir.StatementReturn}
		if n.NamedChildCount() > 0 {
			s.Expression = f.expression(n.NamedChild(0))
		}
		return s
	}
	return nil
}

var literalKinds = map[string]ir.LiteralKind{
	"integer_literal":                ir.LiteralInteger,
	"real_literal":                   ir.LiteralReal,
	"string_literal":                 ir.LiteralString,
	"verbatim_string_literal":        ir.LiteralString,
	"raw_string_literal":             ir.LiteralString,
	"interpolated_string_expression": ir.LiteralString,
	"character_literal":              ir.LiteralChar,
	"boolean_literal":                ir.LiteralBoolean,
	"null_literal":                   ir.LiteralNull,
}

// expression converts an expression node, returning nil for forms the graph
// does not model. An invocation with an unmodelled argument is dropped whole
// so that argument counts stay exact.
func (f *csharpFile) expression(n *sitter.Node) *ir.Expression {
	if n == nil {
		return nil
	}
	e := &ir.Expression{Evidence: f.evidence(n)}
	if lit, ok := literalKinds[n.Type()]; ok {
		e.Kind = ir.ExpressionLiteral
		e.Literal = lit
		e.Text = f.text(n)
		return e
	}
	switch n.Type() {
	case "parenthesized_expression":
		return f.expression(n.NamedChild(0))
	case "identifier", "generic_name":
		part := f.namePart(n)
		e.Kind = ir.ExpressionName
		e.Text = part.Name
		e.TypeArgs = part.TypeArgs
	case "predefined_type":
		e.Kind = ir.ExpressionName
		e.Text = f.text(n)
	case "this_expression", "this":
		e.Kind = ir.ExpressionThis
	case "member_access_expression":
		target := f.expression(fieldOrFirst(n, "expression"))
		if target == nil {
			return nil
		}
		part := f.namePart(fieldOrLast(n, "name"))
		e.Kind = ir.ExpressionMemberAccess
		e.Target = target
		e.Text = part.Name
		e.TypeArgs = part.TypeArgs
	case "invocation_expression":
		target := f.expression(fieldOrFirst(n, "function"))
		if target == nil {
			return nil
		}
		e.Kind = ir.ExpressionInvocation
		e.Target = target
		if args := fieldOrChild(n, "arguments", "argument_list"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				if arg.Type() != "argument" {
					continue
				}
				a := f.expression(arg.NamedChild(int(arg.NamedChildCount()) - 1))
				if a == nil {
					return nil
				}
				e.Arguments = append(e.Arguments, a)
			}
		}
	case "default_expression":
		typ := f.typeSyntax(fieldOrFirst(n, "type"))
		if typ == nil {
			return nil
		}
		e.Kind = ir.ExpressionDefault
		e.Type = typ
	case "binary_expression", "assignment_expression":
		left := f.expression(n.ChildByFieldName("left"))
		right := f.expression(n.ChildByFieldName("right"))
		if left == nil || right == nil {
			return nil
		}
		e.Kind = ir.ExpressionBinary
		if n.Type() == "assignment_expression" {
			e.Kind = ir.ExpressionAssignment
		}
		e.Left, e.Right = left, right
		e.Text = f.operator(n)
	default:
		return nil
	}
	return e
}

func (f *csharpFile) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return f.text(op)
	}
	if op := childOfType(n, "assignment_operator"); op != nil {
		return f.text(op)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() {
			return c.Type()
		}
	}
	return ""
}

func fieldOrFirst(n *sitter.Node, field string) *sitter.Node {
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	return n.NamedChild(0)
}

func fieldOrLast(n *sitter.Node, field string) *sitter.Node {
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	return n.NamedChild(int(n.NamedChildCount()) - 1)
}
