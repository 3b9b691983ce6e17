package ir

import (
	"fmt"
	"strings"
	"unicode"
)

var typeKeywords = map[string]bool{
	"object": true, "string": true, "bool": true, "char": true,
	"sbyte": true, "byte": true, "short": true, "ushort": true,
	"int": true, "uint": true, "long": true, "ulong": true,
	"float": true, "double": true, "decimal": true, "void": true,
}

// IsTypeKeyword reports whether s is a keyword type such as "int".
func IsTypeKeyword(s string) bool { return typeKeywords[s] }

// ParseType reads a type written in source form, such as
// `global::System.Collections.Generic.List<int?>[]`.
func ParseType(s string) (*TypeSyntax, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d in type %q", p.src[p.pos:], p.pos, s)
	}
	return t, nil
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(s string) *TypeSyntax {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r != '_' && r != '@' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return strings.TrimPrefix(p.src[start:p.pos], "@")
}

func (p *typeParser) parse() (*TypeSyntax, error) {
	t := &TypeSyntax{}
	first := p.ident()
	if first == "" {
		return nil, fmt.Errorf("expected a type name at offset %d in %q", p.pos, p.src)
	}
	if strings.HasPrefix(p.src[p.pos:], "::") {
		p.pos += 2
		t.Alias = first
		first = p.ident()
		if first == "" {
			return nil, fmt.Errorf("expected a name after %s:: in %q", t.Alias, p.src)
		}
	}

	if t.Alias == "" && IsTypeKeyword(first) {
		t.BuiltIn = first
	} else {
		part, err := p.part(first)
		if err != nil {
			return nil, err
		}
		t.Parts = append(t.Parts, part)
		for p.peek() == '.' {
			p.pos++
			name := p.ident()
			if name == "" {
				return nil, fmt.Errorf("expected a name after '.' in %q", p.src)
			}
			part, err := p.part(name)
			if err != nil {
				return nil, err
			}
			t.Parts = append(t.Parts, part)
		}
	}

	if p.peek() == '?' {
		p.pos++
		t.Nullable = true
	}
	for p.peek() == '*' {
		p.pos++
		t.PointerDepth++
	}
	for p.peek() == '[' {
		p.pos++
		rank := 1
		for p.peek() == ',' {
			p.pos++
			rank++
		}
		if p.peek() != ']' {
			return nil, fmt.Errorf("unterminated array rank in %q", p.src)
		}
		p.pos++
		t.ArrayRanks = append(t.ArrayRanks, rank)
	}
	return t, nil
}

func (p *typeParser) part(name string) (NamePart, error) {
	part := NamePart{Name: name}
	if p.peek() != '<' {
		return part, nil
	}
	p.pos++
	for {
		arg, err := p.parse()
		if err != nil {
			return part, err
		}
		part.TypeArgs = append(part.TypeArgs, arg)
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return part, nil
		default:
			return part, fmt.Errorf("unterminated type argument list in %q", p.src)
		}
	}
}
