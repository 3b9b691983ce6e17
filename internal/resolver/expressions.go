package resolver

import (
	"strconv"
	"strings"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// Evaluator binds the references of expressions: the result type of every
// expression, the referent of names and member accesses, and the method of
// invocations. Lookups it cannot complete yet return graph.ErrDeferred.
type Evaluator struct {
	types *TypeResolver
}

func NewEvaluator(types *TypeResolver) *Evaluator {
	return &Evaluator{types: types}
}

// Bind attaches the evaluator to the references of x. Children are bound by the caller.
func (ev *Evaluator) Bind(x graph.ExpressionEntity) {
	x.Result().Bind(graph.ResolverFunc[graph.TypeEntity](func(*graph.Reference[graph.TypeEntity]) (graph.TypeEntity, error) {
		return ev.result(x)
	}))
	switch e := x.(type) {
	case *graph.SimpleNameExpression:
		for _, ref := range e.TypeArguments() {
			ref.Bind(ev.types)
		}
		e.Referent().Bind(graph.ResolverFunc[graph.Entity](func(*graph.Reference[graph.Entity]) (graph.Entity, error) {
			cands, err := ev.nameCandidates(e)
			if err != nil {
				return nil, err
			}
			return ev.choose(e, cands, e.TypeArguments())
		}))
	case *graph.MemberAccessExpression:
		for _, ref := range e.TypeArguments() {
			ref.Bind(ev.types)
		}
		e.Referent().Bind(graph.ResolverFunc[graph.Entity](func(*graph.Reference[graph.Entity]) (graph.Entity, error) {
			cands, err := ev.memberCandidates(e)
			if err != nil {
				return nil, err
			}
			return ev.choose(e, cands, e.TypeArguments())
		}))
	case *graph.InvocationExpression:
		e.Method().Bind(graph.ResolverFunc[*graph.MethodEntity](func(*graph.Reference[*graph.MethodEntity]) (*graph.MethodEntity, error) {
			return ev.invoked(e)
		}))
	case *graph.DefaultValueExpression:
		e.Type().Bind(ev.types)
	}
}

func (ev *Evaluator) result(x graph.ExpressionEntity) (graph.TypeEntity, error) {
	g := x.Graph()
	switch e := x.(type) {
	case *graph.LiteralExpression:
		b, ok := literalType(e)
		if !ok {
			// null has no type of its own; it takes the type of its context.
			return nil, graph.ErrDeferred
		}
		return g.BuiltIn(b), nil
	case *graph.ThisExpression:
		t := graph.EnclosingType(e)
		if t == nil {
			return nil, graph.ErrNameNotFound("this", e.Parent())
		}
		return t, nil
	case *graph.DefaultValueExpression:
		return e.Type().Resolve()
	case *graph.SimpleNameExpression:
		referent, err := e.Referent().Resolve()
		if err != nil {
			return nil, err
		}
		return valueType(referent)
	case *graph.MemberAccessExpression:
		referent, err := e.Referent().Resolve()
		if err != nil {
			return nil, err
		}
		return valueType(referent)
	case *graph.InvocationExpression:
		m, err := e.Method().Resolve()
		if err == nil {
			return m.ReturnType().Resolve()
		}
		if !isDeferred(err) {
			return nil, err
		}
		// A value of delegate type is invoked through its signature.
		t, terr := e.Target().Result().Resolve()
		if terr != nil {
			return nil, err
		}
		if d, ok := t.(*graph.DelegateEntity); ok {
			return d.ReturnType().Resolve()
		}
		return nil, err
	case *graph.AssignmentExpression:
		return e.Left().Result().Resolve()
	case *graph.BinaryExpression:
		return ev.binary(e)
	}
	return nil, graph.ErrDeferred
}

func literalType(l *graph.LiteralExpression) (graph.BuiltInType, bool) {
	text := strings.ToLower(l.Text())
	switch ir.LiteralKind(l.LiteralKind()) {
	case ir.LiteralInteger:
		switch {
		case strings.HasSuffix(text, "ul") || strings.HasSuffix(text, "lu"):
			return graph.BuiltInULong, true
		case strings.HasSuffix(text, "l"):
			return graph.BuiltInLong, true
		case strings.HasSuffix(text, "u"):
			return graph.BuiltInUInt, true
		}
		return graph.BuiltInInt, true
	case ir.LiteralReal:
		switch {
		case strings.HasSuffix(text, "f"):
			return graph.BuiltInFloat, true
		case strings.HasSuffix(text, "m"):
			return graph.BuiltInDecimal, true
		}
		return graph.BuiltInDouble, true
	case ir.LiteralString:
		return graph.BuiltInString, true
	case ir.LiteralChar:
		return graph.BuiltInChar, true
	case ir.LiteralBoolean:
		return graph.BuiltInBool, true
	}
	return 0, false
}

func (ev *Evaluator) binary(b *graph.BinaryExpression) (graph.TypeEntity, error) {
	g := b.Graph()
	switch b.Operator() {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||", "is":
		return g.BuiltIn(graph.BuiltInBool), nil
	}
	left, err := b.Left().Result().Resolve()
	if err != nil {
		return nil, err
	}
	right, err := b.Right().Result().Resolve()
	if err != nil {
		return nil, err
	}
	str := g.BuiltIn(graph.BuiltInString)
	if b.Operator() == "+" && (left == str || right == str) {
		return str, nil
	}
	if left == right {
		return left, nil
	}
	// Numeric promotion is not modelled.
	return nil, graph.ErrDeferred
}

// valueType is the type of the value a name denotes. Names of types,
// namespaces and method groups have no value type.
func valueType(e graph.Entity) (graph.TypeEntity, error) {
	switch x := e.(type) {
	case *graph.MethodEntity, graph.TypeEntity, *graph.NamespaceEntity:
		return nil, graph.ErrDeferred
	case *graph.EnumMemberEntity:
		return graph.EnclosingType(x), nil
	case graph.HasType:
		return x.Type().Resolve()
	}
	return nil, graph.ErrDeferred
}

// nameCandidates collects what a simple name can denote, from the innermost
// scope that declares it: locals, parameters, members of enclosing types,
// then types and namespaces.
func (ev *Evaluator) nameCandidates(s *graph.SimpleNameExpression) ([]graph.Entity, error) {
	name := s.Name()
	if len(s.TypeArguments()) == 0 {
		for x := s.Parent(); x != nil; x = x.Parent() {
			switch scope := x.(type) {
			case *graph.BlockStatement:
				if found := localsNamed(scope, name); len(found) > 0 {
					return found, nil
				}
			case *graph.MethodEntity:
				for _, p := range scope.Parameters() {
					if p.Name() == name {
						return []graph.Entity{p}, nil
					}
				}
			case graph.TypeEntity:
				if found := graph.MembersNamed(scope, name); len(found) > 0 {
					return found, nil
				}
			}
		}
	}

	if b, ok := graph.ParseBuiltInType(name); ok && len(s.TypeArguments()) == 0 {
		return []graph.Entity{s.Graph().BuiltIn(b)}, nil
	}
	part, err := namePart(name, s.TypeArguments())
	if err != nil {
		return nil, err
	}
	found, err := ev.types.lookupUnqualified(s, part, graph.Location(s).Filepath)
	if err != nil {
		return nil, err
	}
	return []graph.Entity{found}, nil
}

func localsNamed(b *graph.BlockStatement, name string) []graph.Entity {
	var out []graph.Entity
	for _, e := range b.DeclarationSpace().Lookup(name).Entities {
		if _, ok := e.(*graph.LocalVariableEntity); ok {
			out = append(out, e)
		}
	}
	return out
}

// memberCandidates collects the members called name of the target of m:
// static members when the target names a type or namespace, otherwise members
// of the target's result type.
func (ev *Evaluator) memberCandidates(m *graph.MemberAccessExpression) ([]graph.Entity, error) {
	name := m.Name()
	target := m.Target()

	var referent graph.Entity
	switch t := target.(type) {
	case *graph.SimpleNameExpression:
		referent, _ = t.Referent().Resolve()
	case *graph.MemberAccessExpression:
		referent, _ = t.Referent().Resolve()
	}

	switch r := referent.(type) {
	case *graph.NamespaceEntity:
		part, err := namePart(name, m.TypeArguments())
		if err != nil {
			return nil, err
		}
		found, err := ev.types.memberOf(m, r, part, nil)
		if err != nil {
			return nil, err
		}
		return []graph.Entity{found}, nil
	case graph.TypeEntity:
		if found := graph.MembersNamed(r, name); len(found) > 0 {
			return found, nil
		}
		return nil, graph.ErrNameNotFound(graph.QualifiedName(r)+"."+name, m)
	}

	t, err := target.Result().Resolve()
	if err != nil {
		return nil, err
	}
	found := graph.MembersNamed(t, name)
	if len(found) == 0 {
		if t.Graph().Metadata() == nil {
			return nil, graph.ErrDeferred
		}
		return nil, graph.ErrNameNotFound(graph.QualifiedName(t)+"."+name, m)
	}
	return found, nil
}

func namePart(name string, typeArgs []*graph.Reference[graph.TypeEntity]) (ir.NamePart, error) {
	part := ir.NamePart{Name: name}
	for _, ref := range typeArgs {
		syn, ok := ref.Syntax().(*ir.TypeSyntax)
		if !ok {
			return part, graph.ErrInvariant(ref.Owner(), "type argument without syntax")
		}
		part.TypeArgs = append(part.TypeArgs, syn)
	}
	return part, nil
}

// choose picks the referent among candidates. The first candidate comes from
// the most derived scope; an overloaded method group stays deferred until the
// invocation selects one.
func (ev *Evaluator) choose(scope graph.Entity, cands []graph.Entity, typeArgs []*graph.Reference[graph.TypeEntity]) (graph.Entity, error) {
	if len(cands) == 0 {
		return nil, graph.ErrNameNotFound(scope.Name(), scope.Parent())
	}
	if _, ok := cands[0].(*graph.MethodEntity); !ok {
		return cands[0], nil
	}
	methods := methodsOf(cands)
	if len(methods) != 1 {
		return nil, graph.ErrDeferred
	}
	return ev.constructMethod(methods[0], typeArgs)
}

func methodsOf(cands []graph.Entity) []*graph.MethodEntity {
	var out []*graph.MethodEntity
	for _, c := range cands {
		if m, ok := c.(*graph.MethodEntity); ok && !m.IsConstructor() {
			out = append(out, m)
		}
	}
	return out
}

// invoked selects the method an invocation calls by argument count and
// generic arity.
func (ev *Evaluator) invoked(i *graph.InvocationExpression) (*graph.MethodEntity, error) {
	var (
		cands    []graph.Entity
		typeArgs []*graph.Reference[graph.TypeEntity]
		err      error
		name     string
	)
	switch t := i.Target().(type) {
	case *graph.SimpleNameExpression:
		cands, err = ev.nameCandidates(t)
		typeArgs, name = t.TypeArguments(), t.Name()
	case *graph.MemberAccessExpression:
		cands, err = ev.memberCandidates(t)
		typeArgs, name = t.TypeArguments(), t.Name()
	default:
		return nil, graph.ErrDeferred
	}
	if err != nil {
		return nil, err
	}

	methods := methodsOf(cands)
	if len(methods) == 0 {
		// Invoking a field, local or property of delegate type.
		return nil, graph.ErrDeferred
	}
	argc := len(i.Arguments())
	var applicable []*graph.MethodEntity
	for _, m := range methods {
		if len(typeArgs) > 0 && len(ownTypeParameters(m)) != len(typeArgs) {
			continue
		}
		if acceptsArguments(m, argc) {
			applicable = append(applicable, m)
		}
	}
	switch len(applicable) {
	case 0:
		return nil, graph.ErrNameNotFound(name+"/"+strconv.Itoa(argc), i)
	case 1:
		return ev.constructMethod(applicable[0], typeArgs)
	}
	// Overloads with the same parameter count need argument types.
	return nil, graph.ErrDeferred
}

func acceptsArguments(m *graph.MethodEntity, argc int) bool {
	params := m.Parameters()
	n := len(params)
	if n > 0 && params[n-1].ParameterKind() == graph.ParameterParams {
		return argc >= n-1
	}
	return argc == n
}

func (ev *Evaluator) constructMethod(m *graph.MethodEntity, typeArgs []*graph.Reference[graph.TypeEntity]) (*graph.MethodEntity, error) {
	if len(typeArgs) == 0 {
		return m, nil
	}
	params := ownTypeParameters(m)
	if len(params) != len(typeArgs) {
		return nil, graph.ErrArityMismatch(m, len(params), len(typeArgs))
	}
	args := make([]graph.TypeEntity, 0, len(typeArgs))
	for _, ref := range typeArgs {
		t, err := ref.Resolve()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	return graph.Construct(m, graph.TypeParameterMapOf(params, args)), nil
}
