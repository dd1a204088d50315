// Package codegen defines the interface between the compiler core and the
// per-language code generator back ends, together with the identifier
// normalization every back end needs when mapping schema names onto its
// target language.
package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bebopkit/bebopc/pkg/compiler"
	"github.com/bebopkit/bebopc/pkg/schema"
)

// Generator is a visitor invoked on a validated schema. The core never
// depends on any particular generator; back ends register themselves and
// must honor the wire format exactly.
type Generator interface {
	// Name returns the generator's registry name (for example "go").
	Name() string

	// Emit produces the generated source for the schema as a single
	// string. Targets that need multiple files bundle them.
	Emit(s *compiler.Schema) (string, error)

	// WriteAuxiliaryFiles copies any fixed-content runtime helpers the
	// generated code depends on into the output directory.
	WriteAuxiliaryFiles(outDir string) error
}

// registry holds registered generators by name.
var registry = make(map[string]Generator)

// Register registers a generator under its name.
func Register(gen Generator) {
	registry[gen.Name()] = gen
}

// Get returns the generator with the given name.
func Get(name string) (Generator, bool) {
	gen, ok := registry[name]
	return gen, ok
}

// Names returns the registered generator names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Identifier normalization. Schema authors write names in whatever
// convention they like (snake_case, camelCase, acronym runs); generators
// emit them in the target language's convention. TypeIdent and MemberIdent
// are the two forms the dump generator and back ends share.

// titleCaser capitalizes normalized words.
var titleCaser = cases.Title(language.English)

// TypeIdent renders a schema name as a PascalCase type identifier.
func TypeIdent(name string) string {
	var sb strings.Builder
	for _, w := range identWords(name) {
		sb.WriteString(titleCaser.String(w))
	}
	return sb.String()
}

// MemberIdent renders a schema name as a camelCase member identifier.
func MemberIdent(name string) string {
	words := identWords(name)
	if len(words) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(words[0])
	for _, w := range words[1:] {
		sb.WriteString(titleCaser.String(w))
	}
	return sb.String()
}

// identWords splits a name into lowercase words at separators and case
// boundaries. An uppercase run is one word up to its last letter, so
// "HTTPServer" splits into "http" and "server".
func identWords(s string) []string {
	runes := []rune(s)
	var words []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, strings.ToLower(string(runes[start:end])))
		}
		start = -1
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush(i)
		case start < 0:
			start = i
		case unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]):
			flush(i)
			start = i
		case unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

// GeneratorError represents a code generation failure, typically an
// UnsupportedFeature for the target language.
type GeneratorError struct {
	Message string
	Span    schema.Span
}

func (e *GeneratorError) Error() string {
	return e.Message
}

// Unsupportedf builds a GeneratorError for a construct the target cannot
// express.
func Unsupportedf(span schema.Span, format string, args ...any) *GeneratorError {
	return &GeneratorError{
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}
