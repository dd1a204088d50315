package compiler

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/bebopkit/bebopc/pkg/schema"
)

// TestCompileFixtures runs every txtar archive under testdata. Each archive
// holds one or more schema sources plus an "expect" file listing the
// rendered diagnostics; an empty expect file means the compile must
// succeed.
func TestCompileFixtures(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) == 0 {
		t.Fatal("no fixtures found under testdata")
	}

	for _, path := range archives {
		t.Run(filepath.Base(path), func(t *testing.T) {
			archive, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var sources []schema.Source
			var expected string
			for _, file := range archive.Files {
				if file.Name == "expect" {
					expected = strings.TrimSpace(string(file.Data))
					continue
				}
				sources = append(sources, schema.Source{
					Name: file.Name,
					Text: string(file.Data),
				})
			}

			compiled, diags := Compile(sources)
			got := strings.TrimSpace(strings.Join(schema.RenderDiagnostics(sources, diags), "\n"))

			if got != expected {
				t.Errorf("diagnostics mismatch:\nwant:\n%s\ngot:\n%s", expected, got)
			}
			if expected == "" && compiled == nil {
				t.Error("expected a successful compile")
			}
			if expected != "" && compiled != nil {
				t.Error("expected compilation to fail")
			}
		})
	}
}

// Later stages never run when an earlier stage reports fatal errors: a
// parse error must suppress semantic diagnostics entirely.
func TestCompileStopsAfterParseErrors(t *testing.T) {
	compiled, diags := CompileOne("test.bop", "struct S { Missing m }")
	if compiled != nil {
		t.Fatal("expected failure")
	}
	for _, d := range diags {
		switch d.Kind {
		case schema.DiagUnknownType, schema.DiagInfiniteStruct, schema.DiagDuplicateDefinition:
			t.Errorf("semantic diagnostic %v reported despite parse errors", d.Kind)
		}
	}
}

func TestCompileEmptySource(t *testing.T) {
	compiled, diags := CompileOne("empty.bop", "")
	if compiled == nil {
		t.Fatalf("empty schema should compile: %v", diags)
	}
	if len(compiled.Definitions()) != 0 {
		t.Errorf("expected no definitions, got %d", len(compiled.Definitions()))
	}
}

func TestCompileIsPure(t *testing.T) {
	sources := []schema.Source{{Name: "a.bop", Text: "struct S { int32 x; }"}}
	first, _ := Compile(sources)
	second, _ := Compile(sources)
	if first == nil || second == nil {
		t.Fatal("expected success")
	}
	if len(first.Definitions()) != len(second.Definitions()) {
		t.Error("repeated compiles disagree")
	}
	// Compiling must not have mutated the inputs.
	if sources[0].Text != "struct S { int32 x; }" {
		t.Error("source text mutated")
	}
}
