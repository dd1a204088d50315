package compiler

import (
	"github.com/bebopkit/bebopc/pkg/schema"
)

// Compile runs the full pipeline over already-read sources: lex, parse,
// analyze. It is a pure function of its inputs; on failure the schema is
// nil and the diagnostics explain why. On success the diagnostics may
// still contain warnings.
//
// Diagnostics come back in source order within a file and in input order
// across files.
func Compile(sources []schema.Source) (*Schema, []schema.Diagnostic) {
	sm := schema.NewSourceMap()
	var diags schema.Diagnostics

	files := make([]*schema.File, 0, len(sources))
	for _, src := range sources {
		id := sm.AddFile(src.Name, src.Text)
		files = append(files, schema.Parse(sm, id, &diags))
	}
	if diags.HasErrors() {
		return nil, diags.All()
	}

	out := Analyze(sm, files, &diags)
	if diags.HasErrors() {
		return nil, diags.All()
	}
	return out, diags.All()
}

// CompileOne compiles a single source, a convenience for tests and small
// hosts.
func CompileOne(name, text string) (*Schema, []schema.Diagnostic) {
	return Compile([]schema.Source{{Name: name, Text: text}})
}
