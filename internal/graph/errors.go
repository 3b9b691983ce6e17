package graph

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeAmbiguousDeclaration   ErrorCode = "AMBIGUOUS_DECLARATION"
	CodeAmbiguousImport        ErrorCode = "AMBIGUOUS_REFERENCE_IN_IMPORTED_NAMESPACES"
	CodeUndefinedAccessibility ErrorCode = "UNDEFINED_ACCESSIBILITY"
	CodeInvalidOperation       ErrorCode = "INVALID_OPERATION"
	CodeInvariantViolation     ErrorCode = "INVARIANT_VIOLATION"
	CodeNameNotFound           ErrorCode = "NAME_NOT_FOUND"
	CodeInaccessible           ErrorCode = "INACCESSIBLE"
	CodeCyclicDependency       ErrorCode = "CYCLIC_DEPENDENCY"
	CodeArityMismatch          ErrorCode = "ARITY_MISMATCH"
	CodePassOrder              ErrorCode = "PASS_ORDER"
)

// ErrDeferred is returned by a resolver whose inputs are not available yet
// (for example, metadata that has not been imported). The reference stays
// NotYetResolved and may be retried.
var ErrDeferred = errors.New("resolution deferred")

// SemanticError is the error type raised by the semantic core.
type SemanticError struct {
	Code       ErrorCode
	Message    string
	Entities   []Entity
	Candidates []string
	Err        error
}

func (e *SemanticError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Candidates) > 0 {
		msg += " (" + strings.Join(e.Candidates, ", ") + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SemanticError) Unwrap() error {
	return e.Err
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var se *SemanticError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsFatal reports whether err signals a broken graph rather than a problem in the analysed program.
func IsFatal(err error) bool {
	var se *SemanticError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case CodeUndefinedAccessibility, CodeInvalidOperation, CodeInvariantViolation, CodePassOrder:
		return true
	}
	return false
}

// CodeOf returns the error code of err, or "" when err is not a SemanticError.
func CodeOf(err error) ErrorCode {
	var se *SemanticError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ErrAmbiguousDeclaration reports a name bound to several entities where one was required.
func ErrAmbiguousDeclaration(name string, matches []Entity) *SemanticError {
	return &SemanticError{
		Code:       CodeAmbiguousDeclaration,
		Message:    fmt.Sprintf("%q is declared %d times", name, len(matches)),
		Entities:   matches,
		Candidates: qualifiedNames(matches),
	}
}

// ErrAmbiguousImport reports a simple name found in more than one imported namespace.
func ErrAmbiguousImport(name string, matches []Entity) *SemanticError {
	return &SemanticError{
		Code:       CodeAmbiguousImport,
		Message:    fmt.Sprintf("%q is ambiguous between imported namespaces", name),
		Entities:   matches,
		Candidates: qualifiedNames(matches),
	}
}

func errUndefinedAccessibility(e Entity) *SemanticError {
	return &SemanticError{
		Code:     CodeUndefinedAccessibility,
		Message:  fmt.Sprintf("accessibility of %s %q cannot be determined", e.Kind(), QualifiedName(e)),
		Entities: []Entity{e},
	}
}

func errInvalidOperation(e Entity, op string) *SemanticError {
	return &SemanticError{
		Code:     CodeInvalidOperation,
		Message:  fmt.Sprintf("cannot %s on constructed %s %q", op, e.Kind(), QualifiedName(e)),
		Entities: []Entity{e},
	}
}

// ErrInvariant reports a structural defect in the graph handed to the core.
func ErrInvariant(e Entity, msg string) *SemanticError {
	se := &SemanticError{Code: CodeInvariantViolation, Message: msg}
	if e != nil {
		se.Entities = []Entity{e}
	}
	return se
}

// ErrNameNotFound reports a name with no visible declaration.
func ErrNameNotFound(name string, scope Entity) *SemanticError {
	msg := fmt.Sprintf("%q not found", name)
	if scope != nil {
		msg = fmt.Sprintf("%q not found in %s", name, QualifiedName(scope))
	}
	return &SemanticError{Code: CodeNameNotFound, Message: msg}
}

// ErrInaccessible reports a resolved entity that the referencing entity may not use.
func ErrInaccessible(target, accessor Entity) *SemanticError {
	return &SemanticError{
		Code:     CodeInaccessible,
		Message:  fmt.Sprintf("%q is inaccessible from %q", QualifiedName(target), QualifiedName(accessor)),
		Entities: []Entity{target},
	}
}

// ErrArityMismatch reports a generic used with the wrong number of type arguments.
func ErrArityMismatch(e Entity, want, got int) *SemanticError {
	return &SemanticError{
		Code:     CodeArityMismatch,
		Message:  fmt.Sprintf("%q takes %d type arguments, got %d", QualifiedName(e), want, got),
		Entities: []Entity{e},
	}
}

// ErrPassOrder reports a resolution pass started before its prerequisite completed.
func ErrPassOrder(required, have Pass) *SemanticError {
	return &SemanticError{
		Code:    CodePassOrder,
		Message: fmt.Sprintf("requires %s to have completed, graph is at %s", required, have),
	}
}

// ErrCyclic reports a dependency that loops back on itself.
func ErrCyclic(owner Entity, syntax string) *SemanticError {
	se := &SemanticError{
		Code:    CodeCyclicDependency,
		Message: fmt.Sprintf("cyclic dependency while resolving %q", syntax),
	}
	if owner != nil {
		se.Entities = []Entity{owner}
	}
	return se
}

func qualifiedNames(es []Entity) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, QualifiedName(e))
	}
	return out
}
