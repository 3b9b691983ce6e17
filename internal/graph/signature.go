package graph

import (
	"strconv"
	"strings"
)

type ParameterKind int

const (
	ParameterValue ParameterKind = iota
	ParameterRef
	ParameterOut
	ParameterIn
	ParameterParams
	ParameterThis
)

func (k ParameterKind) String() string {
	switch k {
	case ParameterRef:
		return "ref"
	case ParameterOut:
		return "out"
	case ParameterIn:
		return "in"
	case ParameterParams:
		return "params"
	case ParameterThis:
		return "this"
	default:
		return ""
	}
}

// ParameterKindOf maps a parameter modifier keyword to its kind.
func ParameterKindOf(modifier string) ParameterKind {
	switch modifier {
	case "ref":
		return ParameterRef
	case "out":
		return ParameterOut
	case "in":
		return ParameterIn
	case "params":
		return ParameterParams
	case "this":
		return ParameterThis
	default:
		return ParameterValue
	}
}

// ParameterSignature is the part of a parameter that distinguishes overloads.
type ParameterSignature struct {
	Kind ParameterKind
	Type string
}

// Signature identifies one overload: name, generic arity and the parameter list.
// Parameter types are kept as written since overloads are declared before any type resolves.
type Signature struct {
	Name               string
	TypeParameterCount int
	Parameters         []ParameterSignature
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.TypeParameterCount > 0 {
		b.WriteByte('`')
		b.WriteString(strconv.Itoa(s.TypeParameterCount))
	}
	b.WriteByte('(')
	for i, p := range s.Parameters {
		if i > 0 {
			b.WriteByte(',')
		}
		if p.Kind != ParameterValue {
			b.WriteString(p.Kind.String())
			b.WriteByte(' ')
		}
		b.WriteString(p.Type)
	}
	b.WriteByte(')')
	return b.String()
}

// Overloadable is implemented by members whose distinctive name is a signature.
type Overloadable interface {
	Entity
	Signature() Signature
}
