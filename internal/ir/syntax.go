package ir

import "strings"

// Node is any syntax construct that can be traced back to source.
type Node interface {
	Location() Evidence
	String() string
}

// NamePart is one dotted segment of a namespace-or-type name, with optional type arguments.
type NamePart struct {
	Name     string        `json:"name"`
	TypeArgs []*TypeSyntax `json:"type_args,omitempty"`
}

// TypeSyntax is a type reference as written in source: `global::A.B<int>?*[][,]`.
type TypeSyntax struct {
	Evidence     Evidence   `json:"evidence"`
	Alias        string     `json:"alias,omitempty"`    // extern alias or "global" qualifier
	BuiltIn      string     `json:"built_in,omitempty"` // keyword type such as "int" or "void"
	Parts        []NamePart `json:"parts,omitempty"`
	Nullable     bool       `json:"nullable,omitempty"`
	PointerDepth int        `json:"pointer_depth,omitempty"`
	ArrayRanks   []int      `json:"array_ranks,omitempty"` // in written order
}

func (t *TypeSyntax) Location() Evidence { return t.Evidence }

func (t *TypeSyntax) String() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	if t.Alias != "" {
		b.WriteString(t.Alias)
		b.WriteString("::")
	}
	if t.BuiltIn != "" {
		b.WriteString(t.BuiltIn)
	}
	for i, p := range t.Parts {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p.Name)
		if len(p.TypeArgs) > 0 {
			b.WriteByte('<')
			for j, a := range p.TypeArgs {
				if j > 0 {
					b.WriteByte(',')
				}
				b.WriteString(a.String())
			}
			b.WriteByte('>')
		}
	}
	if t.Nullable {
		b.WriteByte('?')
	}
	b.WriteString(strings.Repeat("*", t.PointerDepth))
	for _, r := range t.ArrayRanks {
		b.WriteByte('[')
		b.WriteString(strings.Repeat(",", r-1))
		b.WriteByte(']')
	}
	return b.String()
}

// IsSimple reports whether the syntax is a bare name with no qualifier, arguments or suffixes.
func (t *TypeSyntax) IsSimple() bool {
	return t != nil && t.Alias == "" && t.BuiltIn == "" && len(t.Parts) == 1 &&
		len(t.Parts[0].TypeArgs) == 0 && !t.Nullable && t.PointerDepth == 0 && len(t.ArrayRanks) == 0
}

// NamedType builds a TypeSyntax from a dotted name without type arguments.
func NamedType(dotted string) *TypeSyntax {
	t := &TypeSyntax{}
	for _, seg := range strings.Split(dotted, ".") {
		t.Parts = append(t.Parts, NamePart{Name: seg})
	}
	return t
}

// CompilationUnit is the syntax of one source file.
type CompilationUnit struct {
	Filepath      string            `json:"filepath"`
	Program       string            `json:"program,omitempty"`
	Checksum      uint64            `json:"checksum"`
	SyntaxErrors  []Evidence        `json:"syntax_errors,omitempty"`
	ExternAliases []*ExternAlias    `json:"extern_aliases,omitempty"`
	Usings        []*UsingDirective `json:"usings,omitempty"`
	Namespaces    []*NamespaceDecl  `json:"namespaces,omitempty"`
	Types         []*TypeDecl       `json:"types,omitempty"`
}

// ExternAlias is `extern alias Name;`.
type ExternAlias struct {
	Evidence Evidence `json:"evidence"`
	Name     string   `json:"name"`
}

func (e *ExternAlias) Location() Evidence { return e.Evidence }
func (e *ExternAlias) String() string     { return "extern alias " + e.Name }

// UsingDirective is `using A.B;` or `using X = A.B<int>;`. Static usings are not modelled.
type UsingDirective struct {
	Evidence Evidence    `json:"evidence"`
	Alias    string      `json:"alias,omitempty"`
	Target   *TypeSyntax `json:"target"`
}

func (u *UsingDirective) Location() Evidence { return u.Evidence }

func (u *UsingDirective) String() string {
	if u.Alias != "" {
		return "using " + u.Alias + " = " + u.Target.String()
	}
	return "using " + u.Target.String()
}

// NamespaceDecl is a (possibly dotted) namespace declaration body.
type NamespaceDecl struct {
	Evidence      Evidence          `json:"evidence"`
	Name          string            `json:"name"`
	ExternAliases []*ExternAlias    `json:"extern_aliases,omitempty"`
	Usings        []*UsingDirective `json:"usings,omitempty"`
	Namespaces    []*NamespaceDecl  `json:"namespaces,omitempty"`
	Types         []*TypeDecl       `json:"types,omitempty"`
}

func (n *NamespaceDecl) Location() Evidence { return n.Evidence }
func (n *NamespaceDecl) String() string     { return "namespace " + n.Name }

type TypeKind string

const (
	TypeKindClass     TypeKind = "class"
	TypeKindStruct    TypeKind = "struct"
	TypeKindInterface TypeKind = "interface"
	TypeKindEnum      TypeKind = "enum"
	TypeKindDelegate  TypeKind = "delegate"
)

// TypeDecl is a class, struct, interface, enum or delegate declaration.
type TypeDecl struct {
	Evidence       Evidence             `json:"evidence"`
	Kind           TypeKind             `json:"kind"`
	Name           string               `json:"name"`
	Modifiers      []string             `json:"modifiers,omitempty"`
	TypeParameters []*TypeParameterDecl `json:"type_parameters,omitempty"`
	BaseTypes      []*TypeSyntax        `json:"base_types,omitempty"`
	Members        []*MemberDecl        `json:"members,omitempty"`
	NestedTypes    []*TypeDecl          `json:"nested_types,omitempty"`
	EnumMembers    []*EnumMemberDecl    `json:"enum_members,omitempty"`

	// Delegate signature.
	ReturnType *TypeSyntax      `json:"return_type,omitempty"`
	Parameters []*ParameterDecl `json:"parameters,omitempty"`
}

func (t *TypeDecl) Location() Evidence { return t.Evidence }
func (t *TypeDecl) String() string     { return string(t.Kind) + " " + t.Name }

// HasModifier reports whether the declaration carries the given modifier keyword.
func (t *TypeDecl) HasModifier(m string) bool { return hasModifier(t.Modifiers, m) }

// TypeParameterDecl is a type parameter with the constraints of its `where` clause.
type TypeParameterDecl struct {
	Evidence    Evidence      `json:"evidence"`
	Name        string        `json:"name"`
	Variance    string        `json:"variance,omitempty"`
	Constraints []*TypeSyntax `json:"constraints,omitempty"`
	Class       bool          `json:"class,omitempty"`
	Struct      bool          `json:"struct,omitempty"`
	New         bool          `json:"new,omitempty"`
}

func (t *TypeParameterDecl) Location() Evidence { return t.Evidence }
func (t *TypeParameterDecl) String() string     { return t.Name }

// EnumMemberDecl is one enumerator.
type EnumMemberDecl struct {
	Evidence Evidence `json:"evidence"`
	Name     string   `json:"name"`
	Value    string   `json:"value,omitempty"`
}

func (e *EnumMemberDecl) Location() Evidence { return e.Evidence }
func (e *EnumMemberDecl) String() string     { return e.Name }

type MemberKind string

const (
	MemberKindField       MemberKind = "field"
	MemberKindConstant    MemberKind = "constant"
	MemberKindMethod      MemberKind = "method"
	MemberKindConstructor MemberKind = "constructor"
	MemberKindProperty    MemberKind = "property"
	MemberKindEvent       MemberKind = "event"
)

// MemberDecl is a member of a class, struct or interface.
type MemberDecl struct {
	Evidence          Evidence             `json:"evidence"`
	Kind              MemberKind           `json:"kind"`
	Name              string               `json:"name"`
	Modifiers         []string             `json:"modifiers,omitempty"`
	Type              *TypeSyntax          `json:"type,omitempty"` // field/property/event type or return type
	TypeParameters    []*TypeParameterDecl `json:"type_parameters,omitempty"`
	Parameters        []*ParameterDecl     `json:"parameters,omitempty"`
	ExplicitInterface *TypeSyntax          `json:"explicit_interface,omitempty"`
	Accessors         []*AccessorDecl      `json:"accessors,omitempty"`
	Body              *Statement           `json:"body,omitempty"`
	Initializer       *Expression          `json:"initializer,omitempty"`
}

func (m *MemberDecl) Location() Evidence { return m.Evidence }
func (m *MemberDecl) String() string     { return string(m.Kind) + " " + m.Name }

// HasModifier reports whether the declaration carries the given modifier keyword.
func (m *MemberDecl) HasModifier(mod string) bool { return hasModifier(m.Modifiers, mod) }

// AccessorDecl is a get/set/add/remove accessor.
type AccessorDecl struct {
	Evidence  Evidence   `json:"evidence"`
	Kind      string     `json:"kind"`
	Modifiers []string   `json:"modifiers,omitempty"`
	Body      *Statement `json:"body,omitempty"`
}

func (a *AccessorDecl) Location() Evidence { return a.Evidence }
func (a *AccessorDecl) String() string     { return a.Kind }

// ParameterDecl is a formal parameter. Modifier is one of "", "ref", "out", "in", "params", "this".
type ParameterDecl struct {
	Evidence Evidence    `json:"evidence"`
	Name     string      `json:"name"`
	Modifier string      `json:"modifier,omitempty"`
	Type     *TypeSyntax `json:"type"`
}

func (p *ParameterDecl) Location() Evidence { return p.Evidence }
func (p *ParameterDecl) String() string     { return p.Name }

type StatementKind string

const (
	StatementBlock            StatementKind = "block"
	StatementLocalDeclaration StatementKind = "local_declaration"
	StatementExpression       StatementKind = "expression"
	StatementReturn           StatementKind = "return"
)

// Statement is a flat statement node; which fields are set depends on Kind.
type Statement struct {
	Evidence    Evidence        `json:"evidence"`
	Kind        StatementKind   `json:"kind"`
	Statements  []*Statement    `json:"statements,omitempty"`  // block
	Type        *TypeSyntax     `json:"type,omitempty"`        // local declaration; nil for `var`
	Declarators []*VariableDecl `json:"declarators,omitempty"` // local declaration
	Expression  *Expression     `json:"expression,omitempty"`  // expression / return
}

func (s *Statement) Location() Evidence { return s.Evidence }
func (s *Statement) String() string     { return string(s.Kind) }

// VariableDecl is one declarator of a local declaration.
type VariableDecl struct {
	Evidence    Evidence    `json:"evidence"`
	Name        string      `json:"name"`
	Initializer *Expression `json:"initializer,omitempty"`
}

func (v *VariableDecl) Location() Evidence { return v.Evidence }
func (v *VariableDecl) String() string     { return v.Name }

type ExpressionKind string

const (
	ExpressionLiteral      ExpressionKind = "literal"
	ExpressionName         ExpressionKind = "name"
	ExpressionMemberAccess ExpressionKind = "member_access"
	ExpressionInvocation   ExpressionKind = "invocation"
	ExpressionThis         ExpressionKind = "this"
	ExpressionDefault      ExpressionKind = "default"
	ExpressionBinary       ExpressionKind = "binary"
	ExpressionAssignment   ExpressionKind = "assignment"
)

type LiteralKind string

const (
	LiteralInteger LiteralKind = "integer"
	LiteralReal    LiteralKind = "real"
	LiteralString  LiteralKind = "string"
	LiteralChar    LiteralKind = "char"
	LiteralBoolean LiteralKind = "boolean"
	LiteralNull    LiteralKind = "null"
)

// Expression is a flat expression node; which fields are set depends on Kind.
type Expression struct {
	Evidence  Evidence       `json:"evidence"`
	Kind      ExpressionKind `json:"kind"`
	Literal   LiteralKind    `json:"literal,omitempty"`
	Text      string         `json:"text,omitempty"` // literal text, identifier or operator
	TypeArgs  []*TypeSyntax  `json:"type_args,omitempty"`
	Type      *TypeSyntax    `json:"type,omitempty"` // default(T)
	Target    *Expression    `json:"target,omitempty"`
	Arguments []*Expression  `json:"arguments,omitempty"`
	Left      *Expression    `json:"left,omitempty"`
	Right     *Expression    `json:"right,omitempty"`
}

func (e *Expression) Location() Evidence { return e.Evidence }

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExpressionLiteral, ExpressionName:
		return e.Text
	case ExpressionMemberAccess:
		return e.Target.String() + "." + e.Text
	case ExpressionInvocation:
		return e.Target.String() + "(...)"
	case ExpressionThis:
		return "this"
	case ExpressionDefault:
		return "default(" + e.Type.String() + ")"
	case ExpressionBinary:
		return e.Left.String() + " " + e.Text + " " + e.Right.String()
	case ExpressionAssignment:
		return e.Left.String() + " = " + e.Right.String()
	}
	return string(e.Kind)
}

func hasModifier(mods []string, m string) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}
