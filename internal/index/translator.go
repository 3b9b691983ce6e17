package index

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// DefaultProgram names the program of files no prefix rule matches.
const DefaultProgram = "main"

// ProgramMap assigns source files to programs by path prefix. The longest
// matching prefix wins.
type ProgramMap struct {
	Default  string
	Prefixes map[string]string // path prefix -> program name
}

// ProgramFor returns the program name for a slash-separated file path.
func (p ProgramMap) ProgramFor(file string) string {
	file = path.Clean(strings.ReplaceAll(file, "\\", "/"))
	best, name := -1, ""
	for prefix, prog := range p.Prefixes {
		prefix = strings.TrimSuffix(path.Clean(prefix), "/")
		if prefix == "." || (file != prefix && !strings.HasPrefix(file, prefix+"/")) {
			continue
		}
		if len(prefix) > best {
			best, name = len(prefix), prog
		}
	}
	if name != "" {
		return name
	}
	if p.Default != "" {
		return p.Default
	}
	return DefaultProgram
}

// Translator declares the contents of compilation units in a semantic graph.
// Every reference it creates is NotYetResolved with its written syntax and no
// resolver; the resolution passes bind them.
type Translator struct {
	Logger   *zap.Logger
	g        *graph.SemanticGraph
	programs ProgramMap
}

// NewTranslator returns a translator declaring into g.
func NewTranslator(g *graph.SemanticGraph, programs ProgramMap) *Translator {
	return &Translator{Logger: zap.NewNop(), g: g, programs: programs}
}

// WithLogger sets the logger.
func (t *Translator) WithLogger(log *zap.Logger) {
	t.Logger = log.With(zap.String("component", "index"))
}

// Graph returns the graph being populated.
func (t *Translator) Graph() *graph.SemanticGraph { return t.g }

// Translate declares every namespace, directive, type and member of unit.
func (t *Translator) Translate(unit *ir.CompilationUnit) error {
	if unit == nil {
		return nil
	}
	name := unit.Program
	if name == "" {
		name = t.programs.ProgramFor(unit.Filepath)
	}
	u := &unitTranslator{g: t.g, program: t.g.Program(name), file: unit.Filepath}

	global := t.g.Global()
	u.directives(global, unit.ExternAliases, unit.Usings)
	for _, ns := range unit.Namespaces {
		if err := u.namespace(global, ns); err != nil {
			return fmt.Errorf("failed to translate %s: %w", unit.Filepath, err)
		}
	}
	for _, td := range unit.Types {
		if err := u.typeDecl(global, td); err != nil {
			return fmt.Errorf("failed to translate %s: %w", unit.Filepath, err)
		}
	}
	t.Logger.Debug("Translated compilation unit",
		zap.String("file", unit.Filepath),
		zap.String("program", name),
		zap.Int("syntax_errors", len(unit.SyntaxErrors)))
	return nil
}

// TranslateAll translates units in path order so entity ids are stable across runs.
func (t *Translator) TranslateAll(units []*ir.CompilationUnit) error {
	sorted := make([]*ir.CompilationUnit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Filepath < sorted[j].Filepath })
	for _, unit := range sorted {
		if err := t.Translate(unit); err != nil {
			return err
		}
	}
	return nil
}

type unitTranslator struct {
	g       *graph.SemanticGraph
	program *graph.Program
	file    string
}

func typeRef(owner graph.Entity, ts *ir.TypeSyntax) *graph.Reference[graph.TypeEntity] {
	if ts == nil {
		return nil
	}
	return graph.NewReference[graph.TypeEntity](owner, ts, nil)
}

func (u *unitTranslator) directives(ns *graph.NamespaceEntity, externs []*ir.ExternAlias, usings []*ir.UsingDirective) {
	for _, x := range externs {
		a := u.g.NewExternAlias(u.file, x.Name)
		a.AddSyntaxNode(x)
		ns.AddExternAlias(a)
	}
	for _, d := range usings {
		if d.Target == nil {
			continue
		}
		if d.Alias != "" {
			a := u.g.NewUsingAlias(u.file, d.Alias)
			a.AddSyntaxNode(d)
			a.SetTarget(graph.NewReference[graph.NamespaceOrTypeEntity](a, d.Target, nil))
			ns.AddUsingAlias(a)
			continue
		}
		un := u.g.NewUsingNamespace(u.file, d.Target.String())
		un.AddSyntaxNode(d)
		un.SetTarget(graph.NewReference[*graph.NamespaceEntity](un, d.Target, nil))
		ns.AddUsingNamespace(un)
	}
}

func (u *unitTranslator) namespace(parent *graph.NamespaceEntity, decl *ir.NamespaceDecl) error {
	ns := parent.Namespace(decl.Name)
	ns.AddSyntaxNode(decl)
	u.directives(ns, decl.ExternAliases, decl.Usings)
	for _, child := range decl.Namespaces {
		if err := u.namespace(ns, child); err != nil {
			return err
		}
	}
	for _, td := range decl.Types {
		if err := u.typeDecl(ns, td); err != nil {
			return err
		}
	}
	return nil
}

// declared is what every source type declaration supports.
type declared interface {
	graph.HasMembers
	graph.HasChildTypes
	AddTypeParameter(tp *graph.TypeParameterEntity) error
	AddBaseType(ref *graph.Reference[graph.TypeEntity]) error
	SetModifiers(m graph.Modifiers)
	SetDeclaredAccessibility(a graph.Accessibility)
}

func (u *unitTranslator) newType(td *ir.TypeDecl) (declared, error) {
	switch td.Kind {
	case ir.TypeKindClass:
		return u.g.NewClass(td.Name), nil
	case ir.TypeKindStruct:
		return u.g.NewStruct(td.Name), nil
	case ir.TypeKindInterface:
		return u.g.NewInterface(td.Name), nil
	case ir.TypeKindEnum:
		return u.g.NewEnum(td.Name), nil
	case ir.TypeKindDelegate:
		return u.g.NewDelegate(td.Name), nil
	}
	return nil, fmt.Errorf("unknown type kind %q for %s", td.Kind, td.Name)
}

func (u *unitTranslator) typeDecl(parent graph.HasChildTypes, td *ir.TypeDecl) error {
	t, err := u.newType(td)
	if err != nil {
		return err
	}
	t.AddSyntaxNode(td)
	t.SetModifiers(graph.ModifiersOf(td.Modifiers))
	if acc, ok := graph.AccessibilityFromModifiers(td.Modifiers); ok {
		t.SetDeclaredAccessibility(acc)
	}
	if _, top := parent.(*graph.NamespaceEntity); top {
		t.SetProgram(u.program)
	}

	for _, tp := range td.TypeParameters {
		if err := t.AddTypeParameter(u.typeParameter(tp)); err != nil {
			return err
		}
	}
	for _, b := range td.BaseTypes {
		if err := t.AddBaseType(typeRef(t, b)); err != nil {
			return err
		}
	}
	if d, ok := t.(*graph.DelegateEntity); ok {
		d.SetReturnType(typeRef(d, td.ReturnType))
		for _, p := range td.Parameters {
			if err := d.AddParameter(u.parameter(p)); err != nil {
				return err
			}
		}
	}
	if err := parent.AddNestedType(t); err != nil {
		return err
	}

	for _, em := range td.EnumMembers {
		e := u.g.NewEnumMember(em.Name, em.Value)
		e.AddSyntaxNode(em)
		if err := t.AddMember(e); err != nil {
			return err
		}
	}
	for _, m := range td.Members {
		if err := u.member(t, m); err != nil {
			return err
		}
	}
	for _, nested := range td.NestedTypes {
		if err := u.typeDecl(t, nested); err != nil {
			return err
		}
	}
	return nil
}

func (u *unitTranslator) typeParameter(decl *ir.TypeParameterDecl) *graph.TypeParameterEntity {
	tp := u.g.NewTypeParameter(decl.Name)
	tp.AddSyntaxNode(decl)
	tp.SetVariance(decl.Variance)
	for _, c := range decl.Constraints {
		if c != nil {
			tp.AddConstraint(typeRef(tp, c))
		}
	}
	return tp
}

func (u *unitTranslator) parameter(decl *ir.ParameterDecl) *graph.ParameterEntity {
	p := u.g.NewParameter(decl.Name, graph.ParameterKindOf(decl.Modifier))
	p.AddSyntaxNode(decl)
	p.SetType(typeRef(p, decl.Type))
	return p
}

func (u *unitTranslator) member(t declared, m *ir.MemberDecl) error {
	var e graph.MemberEntity
	switch m.Kind {
	case ir.MemberKindField:
		f := u.g.NewField(m.Name)
		f.SetType(typeRef(f, m.Type))
		e = f
	case ir.MemberKindConstant:
		c := u.g.NewConstant(m.Name, m.Initializer.String())
		c.SetType(typeRef(c, m.Type))
		e = c
	case ir.MemberKindMethod, ir.MemberKindConstructor:
		fn, err := u.method(m)
		if err != nil {
			return err
		}
		e = fn
	case ir.MemberKindProperty:
		p := u.g.NewProperty(m.Name)
		p.SetType(typeRef(p, m.Type))
		p.SetExplicitInterface(typeRef(p, m.ExplicitInterface))
		if err := u.accessors(m, p.AddAccessor); err != nil {
			return err
		}
		e = p
	case ir.MemberKindEvent:
		ev := u.g.NewEvent(m.Name)
		ev.SetType(typeRef(ev, m.Type))
		ev.SetExplicitInterface(typeRef(ev, m.ExplicitInterface))
		if err := u.accessors(m, ev.AddAccessor); err != nil {
			return err
		}
		e = ev
	default:
		return fmt.Errorf("unknown member kind %q for %s", m.Kind, m.Name)
	}
	e.AddSyntaxNode(m)
	e.SetModifiers(graph.ModifiersOf(m.Modifiers))
	if acc, ok := graph.AccessibilityFromModifiers(m.Modifiers); ok {
		e.SetDeclaredAccessibility(acc)
	}
	return t.AddMember(e)
}

// method builds a method or constructor with its signature complete, since
// the signature is part of its distinctive name.
func (u *unitTranslator) method(m *ir.MemberDecl) (*graph.MethodEntity, error) {
	var fn *graph.MethodEntity
	if m.Kind == ir.MemberKindConstructor {
		fn = u.g.NewConstructor(m.Name)
	} else {
		fn = u.g.NewMethod(m.Name)
		fn.SetReturnType(typeRef(fn, m.Type))
		fn.SetExplicitInterface(typeRef(fn, m.ExplicitInterface))
	}
	for _, tp := range m.TypeParameters {
		if err := fn.AddTypeParameter(u.typeParameter(tp)); err != nil {
			return nil, err
		}
	}
	for _, p := range m.Parameters {
		if err := fn.AddParameter(u.parameter(p)); err != nil {
			return nil, err
		}
	}
	if m.Body != nil {
		body, err := u.block(m.Body)
		if err != nil {
			return nil, err
		}
		if err := fn.SetBody(body); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

func (u *unitTranslator) accessors(m *ir.MemberDecl, add func(*graph.AccessorEntity) error) error {
	for _, decl := range m.Accessors {
		a := u.g.NewAccessor(decl.Kind)
		a.AddSyntaxNode(decl)
		if acc, ok := graph.AccessibilityFromModifiers(decl.Modifiers); ok {
			a.SetDeclaredAccessibility(acc)
		}
		if decl.Body != nil {
			body, err := u.block(decl.Body)
			if err != nil {
				return err
			}
			if err := a.SetBody(body); err != nil {
				return err
			}
		}
		if err := add(a); err != nil {
			return err
		}
	}
	return nil
}

func (u *unitTranslator) block(s *ir.Statement) (*graph.BlockStatement, error) {
	b := u.g.NewBlock()
	b.AddSyntaxNode(s)
	for _, st := range s.Statements {
		if err := u.statement(b, st); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// statement appends st to b. A local declaration joins b before its variables
// are declared, since variables are defined in the enclosing block.
func (u *unitTranslator) statement(b *graph.BlockStatement, st *ir.Statement) error {
	switch st.Kind {
	case ir.StatementBlock:
		nested, err := u.block(st)
		if err != nil {
			return err
		}
		return b.AddStatement(nested)
	case ir.StatementLocalDeclaration:
		decl := u.g.NewLocalDeclaration()
		decl.AddSyntaxNode(st)
		decl.SetType(typeRef(decl, st.Type))
		if err := b.AddStatement(decl); err != nil {
			return err
		}
		for _, d := range st.Declarators {
			v := u.g.NewLocalVariable(d.Name)
			v.AddSyntaxNode(d)
			if d.Initializer != nil {
				v.SetInitializer(u.expression(d.Initializer))
			}
			if err := decl.AddVariable(v); err != nil {
				return err
			}
		}
		return nil
	case ir.StatementExpression:
		if st.Expression == nil {
			return nil
		}
		s := u.g.NewExpressionStatement(u.expression(st.Expression))
		s.AddSyntaxNode(st)
		return b.AddStatement(s)
	case ir.StatementReturn:
		var e graph.ExpressionEntity
		if st.Expression != nil {
			e = u.expression(st.Expression)
		}
		s := u.g.NewReturn(e)
		s.AddSyntaxNode(st)
		return b.AddStatement(s)
	}
	return fmt.Errorf("unknown statement kind %q", st.Kind)
}

func (u *unitTranslator) expression(x *ir.Expression) graph.ExpressionEntity {
	var e graph.ExpressionEntity
	switch x.Kind {
	case ir.ExpressionLiteral:
		e = u.g.NewLiteral(string(x.Literal), x.Text)
	case ir.ExpressionName:
		n := u.g.NewSimpleName(x.Text)
		for _, ta := range x.TypeArgs {
			n.AddTypeArgument(typeRef(n, ta))
		}
		e = n
	case ir.ExpressionMemberAccess:
		m := u.g.NewMemberAccess(u.expression(x.Target), x.Text)
		for _, ta := range x.TypeArgs {
			m.AddTypeArgument(typeRef(m, ta))
		}
		e = m
	case ir.ExpressionInvocation:
		args := make([]graph.ExpressionEntity, 0, len(x.Arguments))
		for _, a := range x.Arguments {
			args = append(args, u.expression(a))
		}
		e = u.g.NewInvocation(u.expression(x.Target), args...)
	case ir.ExpressionThis:
		e = u.g.NewThis()
	case ir.ExpressionDefault:
		d := u.g.NewDefaultValue()
		d.SetType(typeRef(d, x.Type))
		e = d
	case ir.ExpressionBinary:
		e = u.g.NewBinary(x.Text, u.expression(x.Left), u.expression(x.Right))
	case ir.ExpressionAssignment:
		e = u.g.NewAssignment(x.Text, u.expression(x.Left), u.expression(x.Right))
	default:
		panic(fmt.Sprintf("index: unknown expression kind %q", x.Kind))
	}
	e.AddSyntaxNode(x)
	return e
}
