package schema

import (
	"fmt"
	"sort"
)

// DiagKind classifies a diagnostic.
type DiagKind int

// Diagnostic kinds, grouped by the stage that reports them.
const (
	DiagNone DiagKind = iota

	// Lexical
	DiagUnrecognizedCharacter
	DiagUnterminatedString
	DiagUnterminatedBlockComment

	// Parse
	DiagUnexpectedToken
	DiagMissingSemicolon
	DiagMalformedAttribute
	DiagMalformedLiteral

	// Semantic
	DiagDuplicateDefinition
	DiagUnknownType
	DiagDuplicateFieldIndex
	DiagFieldIndexOutOfRange
	DiagFieldIndexNotIncreasing
	DiagReservedFieldIndexZero
	DiagDuplicateOpcode
	DiagInvalidUnionBranch
	DiagInfiniteStruct
	DiagConstTypeMismatch
	DiagConstOutOfRange
	DiagInvalidGuid
	DiagEnumValueOutOfRange

	// Generator consistency checks
	DiagUnsupportedFeature
)

func (k DiagKind) String() string {
	switch k {
	case DiagUnrecognizedCharacter:
		return "unrecognized character"
	case DiagUnterminatedString:
		return "unterminated string"
	case DiagUnterminatedBlockComment:
		return "unterminated block comment"
	case DiagUnexpectedToken:
		return "unexpected token"
	case DiagMissingSemicolon:
		return "missing semicolon"
	case DiagMalformedAttribute:
		return "malformed attribute"
	case DiagMalformedLiteral:
		return "malformed literal"
	case DiagDuplicateDefinition:
		return "duplicate definition"
	case DiagUnknownType:
		return "unknown type"
	case DiagDuplicateFieldIndex:
		return "duplicate field index"
	case DiagFieldIndexOutOfRange:
		return "field index out of range"
	case DiagFieldIndexNotIncreasing:
		return "field index not increasing"
	case DiagReservedFieldIndexZero:
		return "reserved field index zero"
	case DiagDuplicateOpcode:
		return "duplicate opcode"
	case DiagInvalidUnionBranch:
		return "invalid union branch"
	case DiagInfiniteStruct:
		return "infinite struct"
	case DiagConstTypeMismatch:
		return "const type mismatch"
	case DiagConstOutOfRange:
		return "const out of range"
	case DiagInvalidGuid:
		return "invalid guid"
	case DiagEnumValueOutOfRange:
		return "enum value out of range"
	case DiagUnsupportedFeature:
		return "unsupported feature"
	default:
		return "unknown"
	}
}

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	// SeverityError is a fatal issue that prevents code generation.
	SeverityError Severity = iota
	// SeverityWarning is a non-fatal issue.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single problem report. It carries one or more spans; the
// first span anchors the report and any further spans cite related sites
// (for example, the previous occurrence of a duplicated name).
type Diagnostic struct {
	Kind     DiagKind
	Severity Severity
	Spans    []Span
	Message  string
}

// Format renders the diagnostic in file:line:col: kind: message form.
func (d Diagnostic) Format(m *SourceMap) string {
	pos := Position{Filename: "<unknown>", Line: 1, Column: 1}
	if len(d.Spans) > 0 && m != nil {
		pos = m.SpanPosition(d.Spans[0])
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", pos.Filename, pos.Line, pos.Column, d.Kind, d.Message)
}

// Diagnostics collects diagnostics across compilation stages.
type Diagnostics struct {
	list []Diagnostic
}

// Add appends a diagnostic.
func (ds *Diagnostics) Add(d Diagnostic) {
	ds.list = append(ds.list, d)
}

// Errorf records an error-severity diagnostic anchored at the given spans.
func (ds *Diagnostics) Errorf(kind DiagKind, spans []Span, format string, args ...any) {
	ds.list = append(ds.list, Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Spans:    spans,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf records a warning-severity diagnostic.
func (ds *Diagnostics) Warnf(kind DiagKind, spans []Span, format string, args ...any) {
	ds.list = append(ds.list, Diagnostic{
		Kind:     kind,
		Severity: SeverityWarning,
		Spans:    spans,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors returns true if any error-severity diagnostic was recorded.
func (ds *Diagnostics) HasErrors() bool {
	for _, d := range ds.list {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// All returns the diagnostics sorted in source order within a file and in
// input order across files. The sort is stable so diagnostics at the same
// position keep their report order.
func (ds *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, len(ds.list))
	copy(out, ds.list)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := anchor(out[i]), anchor(out[j])
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Start < b.Start
	})
	return out
}

// Len returns the number of recorded diagnostics.
func (ds *Diagnostics) Len() int {
	return len(ds.list)
}

// RenderDiagnostics formats diagnostics against the sources they were
// compiled from. Callers that no longer hold the compilation's SourceMap
// can pass the same sources in the same order; file ids are assigned by
// input position.
func RenderDiagnostics(sources []Source, diags []Diagnostic) []string {
	sm := NewSourceMap()
	for _, src := range sources {
		sm.AddFile(src.Name, src.Text)
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Format(sm)
	}
	return out
}

func anchor(d Diagnostic) Span {
	if len(d.Spans) > 0 {
		return d.Spans[0]
	}
	return Span{File: NoFile}
}
