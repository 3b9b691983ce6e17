package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"sharpsem/internal/ir"
)

// CSharpExtractor implements LanguageExtractor for C#.
type CSharpExtractor struct{}

func (c *CSharpExtractor) GetLanguage() *sitter.Language {
	return csharp.GetLanguage()
}

func (c *CSharpExtractor) GetQuery() string {
	return `(ERROR) @error`
}

func (c *CSharpExtractor) ExtractUnit(root *sitter.Node, sourceCode []byte, filepath string) *ir.CompilationUnit {
	f := &csharpFile{src: sourceCode, path: filepath}
	unit := &ir.CompilationUnit{Filepath: filepath}
	f.declarations(container{
		externs:    &unit.ExternAliases,
		usings:     &unit.Usings,
		namespaces: &unit.Namespaces,
		types:      &unit.Types,
	}, root)
	return unit
}

var typeKinds = map[string]ir.TypeKind{
	"class_declaration":         ir.TypeKindClass,
	"struct_declaration":        ir.TypeKindStruct,
	"interface_declaration":     ir.TypeKindInterface,
	"enum_declaration":          ir.TypeKindEnum,
	"delegate_declaration":      ir.TypeKindDelegate,
	"record_declaration":        ir.TypeKindClass,
	"record_struct_declaration": ir.TypeKindStruct,
}

// csharpFile carries the source of the file being walked.
type csharpFile struct {
	src  []byte
	path string
}

// container is where namespace-level declarations of a compilation unit or
// namespace body are appended.
type container struct {
	externs    *[]*ir.ExternAlias
	usings     *[]*ir.UsingDirective
	namespaces *[]*ir.NamespaceDecl
	types      *[]*ir.TypeDecl
}

func namespaceContainer(ns *ir.NamespaceDecl) container {
	return container{
		externs:    &ns.ExternAliases,
		usings:     &ns.Usings,
		namespaces: &ns.Namespaces,
		types:      &ns.Types,
	}
}

func (f *csharpFile) declarations(into container, n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "extern_alias_directive":
			if name := lastNamedOfType(child, "identifier"); name != nil {
				*into.externs = append(*into.externs, &ir.ExternAlias{
					Evidence: f.evidence(child),
					Name:     f.ident(name),
				})
			}
		case "using_directive":
			if u := f.using(child); u != nil {
				*into.usings = append(*into.usings, u)
			}
		case "namespace_declaration":
			*into.namespaces = append(*into.namespaces, f.namespace(child))
		case "file_scoped_namespace_declaration":
			ns := f.namespace(child)
			*into.namespaces = append(*into.namespaces, ns)
			// Declarations after `namespace X;` belong to X.
			into = namespaceContainer(ns)
		default:
			if t := f.typeDecl(child); t != nil {
				*into.types = append(*into.types, t)
			}
		}
	}
}

// using returns nil for `using static` directives, which are not modelled.
func (f *csharpFile) using(n *sitter.Node) *ir.UsingDirective {
	if hasToken(n, "static") {
		return nil
	}
	u := &ir.UsingDirective{Evidence: f.evidence(n)}
	var names []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		switch c := n.NamedChild(i); c.Type() {
		case "comment":
		case "name_equals":
			u.Alias = f.ident(c.NamedChild(0))
		default:
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return nil
	}
	// `using X = T;` without a name_equals node: the alias is the first name.
	if u.Alias == "" && hasToken(n, "=") && len(names) > 1 {
		u.Alias = f.ident(names[0])
	}
	u.Target = f.typeSyntax(names[len(names)-1])
	return u
}

func (f *csharpFile) namespace(n *sitter.Node) *ir.NamespaceDecl {
	ns := &ir.NamespaceDecl{
		Evidence: f.evidence(n),
		Name:     f.compact(n.ChildByFieldName("name")),
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list")
	}
	if body == nil {
		body = n
	}
	f.declarations(namespaceContainer(ns), body)
	return ns
}

func (f *csharpFile) typeDecl(n *sitter.Node) *ir.TypeDecl {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		return nil
	}
	if n.Type() == "record_declaration" && hasToken(n, "struct") {
		kind = ir.TypeKindStruct
	}
	t := &ir.TypeDecl{
		Evidence:  f.evidence(n),
		Kind:      kind,
		Name:      f.ident(n.ChildByFieldName("name")),
		Modifiers: f.modifiers(n),
	}
	t.TypeParameters = f.typeParameters(n)

	if bases := fieldOrChild(n, "bases", "base_list"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			b := bases.NamedChild(i)
			switch b.Type() {
			case "argument_list":
				continue
			case "primary_constructor_base_type":
				b = b.NamedChild(0)
			}
			if ts := f.typeSyntax(b); ts != nil {
				t.BaseTypes = append(t.BaseTypes, ts)
			}
		}
	}

	if kind == ir.TypeKindDelegate {
		t.ReturnType = f.typeSyntax(returnTypeNode(n))
		t.Parameters = f.parameters(fieldOrChild(n, "parameters", "parameter_list"))
		return t
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list", "enum_member_declaration_list")
	}
	if body != nil {
		f.members(t, body)
	}
	return t
}

func (f *csharpFile) members(t *ir.TypeDecl, body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		if nested := f.typeDecl(n); nested != nil {
			t.NestedTypes = append(t.NestedTypes, nested)
			continue
		}
		switch n.Type() {
		case "enum_member_declaration":
			t.EnumMembers = append(t.EnumMembers, f.enumMember(n))
		case "field_declaration":
			kind := ir.MemberKindField
			if hasModifier(f.modifiers(n), "const") {
				kind = ir.MemberKindConstant
			}
			t.Members = append(t.Members, f.fields(n, kind)...)
		case "event_field_declaration":
			t.Members = append(t.Members, f.fields(n, ir.MemberKindEvent)...)
		case "method_declaration":
			t.Members = append(t.Members, f.method(n))
		case "constructor_declaration":
			t.Members = append(t.Members, f.constructor(n))
		case "property_declaration":
			t.Members = append(t.Members, f.property(n))
		case "event_declaration":
			m := f.property(n)
			m.Kind = ir.MemberKindEvent
			t.Members = append(t.Members, m)
		}
	}
}

func (f *csharpFile) enumMember(n *sitter.Node) *ir.EnumMemberDecl {
	e := &ir.EnumMemberDecl{Evidence: f.evidence(n)}
	name := n.ChildByFieldName("name")
	if name == nil {
		name = childOfType(n, "identifier")
	}
	e.Name = f.ident(name)
	if v := n.ChildByFieldName("value"); v != nil {
		e.Value = f.compact(v)
	} else if eq := childOfType(n, "equals_value_clause"); eq != nil {
		e.Value = f.compact(eq.NamedChild(0))
	}
	return e
}

// fields expands `int a, b = 1;` into one member per declarator.
func (f *csharpFile) fields(n *sitter.Node, kind ir.MemberKind) []*ir.MemberDecl {
	decl := childOfType(n, "variable_declaration")
	if decl == nil {
		return nil
	}
	mods := f.modifiers(n)
	typ, vars := f.variables(decl)
	out := make([]*ir.MemberDecl, 0, len(vars))
	for _, v := range vars {
		out = append(out, &ir.MemberDecl{
			Evidence:    v.Evidence,
			Kind:        kind,
			Name:        v.Name,
			Modifiers:   mods,
			Type:        typ,
			Initializer: v.Initializer,
		})
	}
	return out
}

func (f *csharpFile) method(n *sitter.Node) *ir.MemberDecl {
	m := &ir.MemberDecl{
		Evidence:          f.evidence(n),
		Kind:              ir.MemberKindMethod,
		Name:              f.ident(n.ChildByFieldName("name")),
		Modifiers:         f.modifiers(n),
		Type:              f.typeSyntax(returnTypeNode(n)),
		TypeParameters:    f.typeParameters(n),
		Parameters:        f.parameters(fieldOrChild(n, "parameters", "parameter_list")),
		ExplicitInterface: f.explicitInterface(n),
	}
	m.Body = f.body(n, m.Type != nil && m.Type.BuiltIn == "void")
	return m
}

func (f *csharpFile) constructor(n *sitter.Node) *ir.MemberDecl {
	return &ir.MemberDecl{
		Evidence:   f.evidence(n),
		Kind:       ir.MemberKindConstructor,
		Name:       f.ident(n.ChildByFieldName("name")),
		Modifiers:  f.modifiers(n),
		Parameters: f.parameters(fieldOrChild(n, "parameters", "parameter_list")),
		Body:       f.body(n, true),
	}
}

// property handles properties and events with accessor lists.
func (f *csharpFile) property(n *sitter.Node) *ir.MemberDecl {
	m := &ir.MemberDecl{
		Evidence:          f.evidence(n),
		Kind:              ir.MemberKindProperty,
		Name:              f.ident(n.ChildByFieldName("name")),
		Modifiers:         f.modifiers(n),
		Type:              f.typeSyntax(n.ChildByFieldName("type")),
		ExplicitInterface: f.explicitInterface(n),
	}
	if list := fieldOrChild(n, "accessors", "accessor_list"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			if a := list.NamedChild(i); a.Type() == "accessor_declaration" {
				m.Accessors = append(m.Accessors, f.accessor(a))
			}
		}
	}
	value := n.ChildByFieldName("value")
	if value == nil {
		value = childOfType(n, "arrow_expression_clause")
	}
	switch {
	case value == nil:
	case value.Type() == "arrow_expression_clause":
		m.Accessors = append(m.Accessors, &ir.AccessorDecl{
			Evidence: f.evidence(value),
			Kind:     "get",
			Body:     f.arrowBody(value, false),
		})
	default:
		m.Initializer = f.expression(value)
	}
	return m
}

var accessorKinds = map[string]bool{"get": true, "set": true, "init": true, "add": true, "remove": true}

func (f *csharpFile) accessor(n *sitter.Node) *ir.AccessorDecl {
	a := &ir.AccessorDecl{Evidence: f.evidence(n), Modifiers: f.modifiers(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		a.Kind = f.text(name)
	} else {
		for i := 0; i < int(n.ChildCount()); i++ {
			if k := n.Child(i).Type(); accessorKinds[k] {
				a.Kind = k
				break
			}
		}
	}
	a.Body = f.body(n, a.Kind != "get")
	return a
}

// body returns the block or expression body of a function member, or nil when
// it has none. Expression bodies become a single return, or an expression
// statement when nothing is returned.
func (f *csharpFile) body(n *sitter.Node, void bool) *ir.Statement {
	b := n.ChildByFieldName("body")
	if b == nil {
		b = childOfType(n, "block", "arrow_expression_clause")
	}
	if b == nil {
		return nil
	}
	if b.Type() == "arrow_expression_clause" {
		return f.arrowBody(b, void)
	}
	return f.block(b)
}

func (f *csharpFile) arrowBody(n *sitter.Node, void bool) *ir.Statement {
	block := &ir.Statement{Evidence: f.evidence(n), Kind: ir.StatementBlock}
	e := f.expression(n.NamedChild(0))
	if e == nil {
		return block
	}
	kind := ir.StatementReturn
	if void {
		kind = ir.StatementExpression
	}
	block.Statements = append(block.Statements, &ir.Statement{Evidence: e.Evidence, Kind: kind, Expression: e})
	return block
}

func (f *csharpFile) explicitInterface(n *sitter.Node) *ir.TypeSyntax {
	spec := childOfType(n, "explicit_interface_specifier")
	if spec == nil || spec.NamedChildCount() == 0 {
		return nil
	}
	return f.typeSyntax(spec.NamedChild(0))
}

func (f *csharpFile) typeParameters(n *sitter.Node) []*ir.TypeParameterDecl {
	list := fieldOrChild(n, "type_parameters", "type_parameter_list")
	if list == nil {
		return nil
	}
	var out []*ir.TypeParameterDecl
	byName := map[string]*ir.TypeParameterDecl{}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		if p.Type() != "type_parameter" {
			continue
		}
		name := p.ChildByFieldName("name")
		if name == nil {
			name = childOfType(p, "identifier")
		}
		tp := &ir.TypeParameterDecl{Evidence: f.evidence(p), Name: f.ident(name)}
		switch {
		case hasToken(p, "in"):
			tp.Variance = "in"
		case hasToken(p, "out"):
			tp.Variance = "out"
		}
		out = append(out, tp)
		byName[tp.Name] = tp
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "type_parameter_constraints_clause" {
			continue
		}
		target := clause.ChildByFieldName("target")
		if target == nil {
			target = childOfType(clause, "identifier")
		}
		tp := byName[f.ident(target)]
		if tp == nil {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			if c := clause.NamedChild(j); c != target {
				f.constraint(tp, c)
			}
		}
	}
	return out
}

func (f *csharpFile) constraint(tp *ir.TypeParameterDecl, c *sitter.Node) {
	if c.Type() != "type_parameter_constraint" {
		if ts := f.typeSyntax(c); ts != nil {
			tp.Constraints = append(tp.Constraints, ts)
		}
		return
	}
	if ty := c.ChildByFieldName("type"); ty != nil {
		tp.Constraints = append(tp.Constraints, f.typeSyntax(ty))
		return
	}
	switch text := f.compact(c); {
	case text == "class" || text == "class?":
		tp.Class = true
	case text == "struct":
		tp.Struct = true
	case text == "new()" || childOfType(c, "constructor_constraint") != nil:
		tp.New = true
	case c.NamedChildCount() > 0:
		if ts := f.typeSyntax(c.NamedChild(0)); ts != nil {
			tp.Constraints = append(tp.Constraints, ts)
		}
	}
}

var parameterModifiers = map[string]bool{"ref": true, "out": true, "in": true, "this": true, "params": true}

func (f *csharpFile) parameters(list *sitter.Node) []*ir.ParameterDecl {
	if list == nil {
		return nil
	}
	var out []*ir.ParameterDecl
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "parameter":
			out = append(out, f.parameter(p, ""))
		case "parameter_array":
			if inner := childOfType(p, "parameter"); inner != nil {
				out = append(out, f.parameter(inner, "params"))
				continue
			}
			out = append(out, &ir.ParameterDecl{
				Evidence: f.evidence(p),
				Name:     f.ident(lastNamedOfType(p, "identifier")),
				Modifier: "params",
				Type:     f.typeSyntax(childOfType(p, "array_type")),
			})
		}
	}
	// The grammar attaches a trailing `params T[] name` to the list itself.
	if typ := list.ChildByFieldName("type"); typ != nil {
		out = append(out, &ir.ParameterDecl{
			Evidence: f.evidence(typ),
			Name:     f.ident(list.ChildByFieldName("name")),
			Modifier: "params",
			Type:     f.typeSyntax(typ),
		})
	}
	return out
}

func (f *csharpFile) parameter(p *sitter.Node, modifier string) *ir.ParameterDecl {
	param := &ir.ParameterDecl{
		Evidence: f.evidence(p),
		Name:     f.ident(p.ChildByFieldName("name")),
		Modifier: modifier,
		Type:     f.typeSyntax(p.ChildByFieldName("type")),
	}
	if param.Modifier != "" {
		return param
	}
	if m := childOfType(p, "parameter_modifier", "modifier"); m != nil {
		param.Modifier = f.text(m)
		return param
	}
	for i := 0; i < int(p.ChildCount()); i++ {
		if c := p.Child(i); !c.IsNamed() && parameterModifiers[c.Type()] {
			param.Modifier = c.Type()
			break
		}
	}
	return param
}

func (f *csharpFile) modifiers(n *sitter.Node) []string {
	var mods []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "modifier" {
			mods = append(mods, f.text(c))
		}
	}
	return mods
}

func (f *csharpFile) evidence(n *sitter.Node) ir.Evidence {
	return evidenceOf(n, f.path)
}

func (f *csharpFile) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.src)
}

// ident returns an identifier without its verbatim `@` prefix.
func (f *csharpFile) ident(n *sitter.Node) string {
	return strings.TrimPrefix(f.text(n), "@")
}

// compact returns the node text with all whitespace removed.
func (f *csharpFile) compact(n *sitter.Node) string {
	return strings.Join(strings.Fields(f.text(n)), "")
}

func returnTypeNode(n *sitter.Node) *sitter.Node {
	if r := n.ChildByFieldName("returns"); r != nil {
		return r
	}
	return n.ChildByFieldName("type")
}

func fieldOrChild(n *sitter.Node, field string, types ...string) *sitter.Node {
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	return childOfType(n, types...)
}

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func lastNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	var last *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			last = c
		}
	}
	return last
}

func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && c.Type() == token {
			return true
		}
	}
	return false
}

func hasModifier(mods []string, m string) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}
