package graph

type VisitResult int

const (
	// Continue descends into the entity's children.
	Continue VisitResult = iota
	// SkipChildren moves on to the next sibling.
	SkipChildren
)

// Visitor is called for each entity in pre-order. Implementations dispatch on the
// concrete entity type.
type Visitor interface {
	Visit(e Entity) VisitResult
}

// Leaver is an optional Visitor extension called after an entity's children
// were walked (or skipped).
type Leaver interface {
	Leave(e Entity)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(e Entity) VisitResult

func (f VisitorFunc) Visit(e Entity) VisitResult { return f(e) }

// Walk traverses e depth-first, parent before children.
//
// The children of each entity are snapshotted after the entity is visited, and
// a child is skipped when it is no longer attached to e by the time the walk
// reaches it. A visitor may therefore detach siblings that are still pending.
func Walk(v Visitor, e Entity) {
	if isNilEntity(e) {
		return
	}
	if v.Visit(e) == Continue {
		for _, c := range e.Children() {
			if isNilEntity(c) || c.Parent() != e {
				continue
			}
			Walk(v, c)
		}
	}
	if l, ok := v.(Leaver); ok {
		l.Leave(e)
	}
}

// Inspect walks e calling f for each entity; returning false skips the children.
func Inspect(e Entity, f func(Entity) bool) {
	Walk(VisitorFunc(func(x Entity) VisitResult {
		if f(x) {
			return Continue
		}
		return SkipChildren
	}), e)
}
