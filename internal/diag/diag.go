// Package diag implements the compiler's error surface: a Diagnostic
// carries a severity, a source span, a message, and an optional chain of
// continuations; a Sink aggregates them across a whole compilation. Core
// code never prints a diagnostic directly — it always goes through a
// Sink, which a renderer (see cmd/quillc) turns into terminal output.
package diag

import (
	"fmt"

	"github.com/quill-lang/quillc/internal/token"
)

// Severity distinguishes errors (which abort downstream consumption of the
// affected subtree) from warnings (purely informational).
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind is the closed taxonomy of diagnostic kinds this compiler reports.
// The kind is normative; the message text is not.
type Kind string

const (
	// Lexical
	UnknownChar       Kind = "UnknownChar"
	BadEscape         Kind = "BadEscape"
	UnterminatedString Kind = "UnterminatedString"
	NumericOverflow   Kind = "NumericOverflow"

	// Syntactic
	SyntaxError      Kind = "SyntaxError"
	MissingEndKeyword Kind = "MissingEndKeyword"

	// Semantic
	NameNotFound         Kind = "NameNotFound"
	DuplicateName        Kind = "DuplicateName"
	CaseClash            Kind = "CaseClash"
	RecursiveAlias       Kind = "RecursiveAlias"
	RecursiveTrait       Kind = "RecursiveTrait"
	MissingBody          Kind = "MissingBody"
	AmbiguousDelegate    Kind = "AmbiguousDelegate"
	AmbiguousDefault     Kind = "AmbiguousDefault"
	MethodSignatureClash Kind = "MethodSignatureClash"
	DelegateNotProvided  Kind = "DelegateNotProvided"
	FieldNotInit         Kind = "FieldNotInit"

	// Type
	NotASubtype        Kind = "NotASubtype"
	NoSubtypeRelation  Kind = "NoSubtypeRelation"
	CapMismatch        Kind = "CapMismatch"
	NotAnLValue        Kind = "NotAnLValue"
	ConsumedUse        Kind = "ConsumedUse"
	UndefinedUse       Kind = "UndefinedUse"
	UnreachableBranch  Kind = "UnreachableBranch"
	NotPartialButErrors Kind = "NotPartialButErrors"
	PartialButNeverErrors Kind = "PartialButNeverErrors"
	NoType             Kind = "NoType"
	AmbiguousType      Kind = "AmbiguousType"
	FloatAsInt         Kind = "FloatAsInt"
	BadTypeArg         Kind = "BadTypeArg"
	ConstraintViolation Kind = "ConstraintViolation"

	// Structural
	BadMainCreate  Kind = "BadMainCreate"
	BadFinal       Kind = "BadFinal"
	BadInit        Kind = "BadInit"
	BadFFI         Kind = "BadFFI"
	TreeInvariant  Kind = "TreeInvariant"
)

// Fatal reports whether a diagnostic of this kind is classed as fatal
// rather than recoverable. Sink and the compiler driver do not consult
// it: reporting a fatal kind does not abort the pass chain.
func (k Kind) Fatal() bool {
	return k == BadFFI || k == TreeInvariant
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity      Severity
	Kind          Kind
	Span          token.Pos
	Message       string
	Continuations []Diagnostic
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Span, d.Severity, d.Message, d.Kind)
}

// Sink aggregates diagnostics for one compilation. It is
// owned by the Compiler value that drives a compilation, never a package
// singleton.
type Sink struct {
	diags []Diagnostic
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Report appends a diagnostic.
func (s *Sink) Report(d Diagnostic) { s.diags = append(s.diags, d) }

// Errorf appends an Error-severity diagnostic of the given kind.
func (s *Sink) Errorf(kind Kind, pos token.Pos, format string, args ...any) {
	s.Report(Diagnostic{Severity: Error, Kind: kind, Span: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a Warning-severity diagnostic of the given kind.
func (s *Sink) Warnf(kind Kind, pos token.Pos, format string, args ...any) {
	s.Report(Diagnostic{Severity: Warning, Kind: kind, Span: pos, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any Error-severity diagnostic was reported.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []Diagnostic { return s.diags }

// Count returns the number of Error-severity diagnostics.
func (s *Sink) Count() int {
	n := 0
	for _, d := range s.diags {
		if d.Severity == Error {
			n++
		}
	}
	return n
}
