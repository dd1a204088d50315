package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// parseOne parses a source that must produce no diagnostics.
func parseOne(t *testing.T, input string) *File {
	t.Helper()
	var diags Diagnostics
	file := NewParser(0, input, &diags).ParseFile()
	if diags.Len() != 0 {
		sm := NewSourceMap()
		sm.AddFile("test.bop", input)
		for _, d := range diags.All() {
			t.Errorf("unexpected diagnostic: %s", d.Format(sm))
		}
		t.FailNow()
	}
	return file
}

func TestParseEnum(t *testing.T) {
	file := parseOne(t, `
/* The color of a widget. */
[flags]
enum Color : uint8 {
  Red = 1;
  [deprecated("use Red")]
  Crimson = 2;
  Green = 0x4;
}`)

	if len(file.Definitions) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(file.Definitions))
	}
	enum, ok := file.Definitions[0].(*EnumDef)
	if !ok {
		t.Fatalf("expected EnumDef, got %T", file.Definitions[0])
	}
	if enum.Name() != "Color" {
		t.Errorf("expected name Color, got %q", enum.Name())
	}
	if enum.Doc() != "The color of a widget." {
		t.Errorf("unexpected doc %q", enum.Doc())
	}
	if !enum.HasBase || enum.Base != BaseByte {
		t.Errorf("expected explicit byte base, got %v (explicit %t)", enum.Base, enum.HasBase)
	}
	if len(enum.Attrs()) != 1 || enum.Attrs()[0].Name != "flags" {
		t.Errorf("expected flags attribute, got %v", enum.Attrs())
	}
	if len(enum.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(enum.Members))
	}
	if enum.Members[1].MemberName != "Crimson" || len(enum.Members[1].Attributes) != 1 {
		t.Errorf("expected deprecated Crimson, got %+v", enum.Members[1])
	}
	if !enum.Members[2].Value.Hex || enum.Members[2].Value.Digits != "4" {
		t.Errorf("expected hex member value, got %+v", enum.Members[2].Value)
	}
}

func TestParseEnumDefaultBase(t *testing.T) {
	file := parseOne(t, "enum E { A = 1; }")
	enum := file.Definitions[0].(*EnumDef)
	if enum.HasBase || enum.Base != BaseUInt32 {
		t.Errorf("expected implicit uint32 base, got %v (explicit %t)", enum.Base, enum.HasBase)
	}
}

func TestParseStruct(t *testing.T) {
	file := parseOne(t, `
[opcode(0x12345678)]
readonly struct Point {
  int32 x;
  int32 y;
}`)

	st, ok := file.Definitions[0].(*StructDef)
	if !ok {
		t.Fatalf("expected StructDef, got %T", file.Definitions[0])
	}
	if !st.Readonly {
		t.Error("expected readonly struct")
	}
	if len(st.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(st.Fields))
	}
	if st.Fields[0].FieldName != "x" || st.Fields[0].Index != nil {
		t.Errorf("unexpected first field %+v", st.Fields[0])
	}
	scalar, ok := st.Fields[0].Type.(*ScalarTypeRef)
	if !ok || scalar.Base != BaseInt32 {
		t.Errorf("expected int32 field type, got %v", st.Fields[0].Type)
	}
	if len(st.Attrs()) != 1 || st.Attrs()[0].Name != "opcode" {
		t.Errorf("expected opcode attribute, got %v", st.Attrs())
	}
}

func TestParseMessage(t *testing.T) {
	file := parseOne(t, `
message Song {
  1 -> string title;
  2 -> uint16 year;
  [deprecated("split into artists")]
  3 -> string artist;
}`)

	msg, ok := file.Definitions[0].(*MessageDef)
	if !ok {
		t.Fatalf("expected MessageDef, got %T", file.Definitions[0])
	}
	if len(msg.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(msg.Fields))
	}
	if msg.Fields[0].Index == nil || msg.Fields[0].Index.Digits != "1" {
		t.Errorf("unexpected index on first field: %+v", msg.Fields[0].Index)
	}
	if len(msg.Fields[2].Attributes) != 1 || msg.Fields[2].Attributes[0].Name != "deprecated" {
		t.Errorf("expected deprecated on artist, got %v", msg.Fields[2].Attributes)
	}
}

func TestParseUnion(t *testing.T) {
	file := parseOne(t, `
union Shape {
  1 -> struct Circle { float64 radius; };
  2 -> message Polygon { 1 -> int32 sides; };
}`)

	u, ok := file.Definitions[0].(*UnionDef)
	if !ok {
		t.Fatalf("expected UnionDef, got %T", file.Definitions[0])
	}
	if len(u.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(u.Branches))
	}
	if _, ok := u.Branches[0].Def.(*StructDef); !ok {
		t.Errorf("expected struct branch, got %T", u.Branches[0].Def)
	}
	if _, ok := u.Branches[1].Def.(*MessageDef); !ok {
		t.Errorf("expected message branch, got %T", u.Branches[1].Def)
	}
	if u.Branches[1].Discriminator.Digits != "2" {
		t.Errorf("unexpected discriminator %+v", u.Branches[1].Discriminator)
	}
}

func TestParseConst(t *testing.T) {
	file := parseOne(t, `
const int32 maxRetries = 5;
const uint32 mask = 0xFF00;
const float64 pi = 3.14159;
const float64 never = -inf;
const float64 missing = nan;
const bool enabled = true;
const string greeting = "hello";
const guid sessionId = "8c9e42a4-d053-4a78-91c9-7e56ee1fb0f4";
`)

	if len(file.Definitions) != 8 {
		t.Fatalf("expected 8 constants, got %d", len(file.Definitions))
	}

	c := file.Definitions[0].(*ConstDef)
	if c.Type != BaseInt32 || c.Name() != "maxRetries" {
		t.Errorf("unexpected const %+v", c)
	}
	if lit := c.Value.(*IntegerLiteral); lit.Digits != "5" || lit.Negative || lit.Hex {
		t.Errorf("unexpected literal %+v", lit)
	}

	if lit := file.Definitions[1].(*ConstDef).Value.(*IntegerLiteral); !lit.Hex || lit.Digits != "FF00" {
		t.Errorf("unexpected hex literal %+v", lit)
	}
	if lit := file.Definitions[3].(*ConstDef).Value.(*FloatLiteral); lit.Text != "-inf" {
		t.Errorf("unexpected float literal %+v", lit)
	}
	if lit := file.Definitions[4].(*ConstDef).Value.(*FloatLiteral); lit.Text != "nan" {
		t.Errorf("unexpected float literal %+v", lit)
	}
	if lit := file.Definitions[6].(*ConstDef).Value.(*StringLiteral); lit.Value != "hello" {
		t.Errorf("unexpected string literal %+v", lit)
	}
}

func TestParseTypeSuffixes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"int32 a;", "int32"},
		{"int32? a;", "int32?"},
		{"int32?? a;", "int32??"},
		{"int32[] a;", "int32[]"},
		{"int32[]? a;", "int32[]?"},
		{"int32?[] a;", "int32?[]"},
		{"byte[] a;", "byte[]"},
		{"map[string, int32] a;", "map[string, int32]"},
		{"map[string, int32[]] a;", "map[string, int32[]]"},
		{"map[guid, map[string, Widget]] a;", "map[guid, map[string, Widget]]"},
		{"Widget[][] a;", "Widget[][]"},
	}

	for _, tt := range tests {
		file := parseOne(t, "struct S { "+tt.input+" }")
		st := file.Definitions[0].(*StructDef)
		if len(st.Fields) != 1 {
			t.Fatalf("input %q: expected 1 field", tt.input)
		}
		if got := st.Fields[0].Type.String(); got != tt.expected {
			t.Errorf("input %q: expected type %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestParseMapAsFieldName(t *testing.T) {
	// "map" is only a type constructor when '[' follows.
	file := parseOne(t, "struct S { int32 map; }")
	st := file.Definitions[0].(*StructDef)
	if st.Fields[0].FieldName != "map" {
		t.Errorf("expected field named map, got %q", st.Fields[0].FieldName)
	}
}

func TestParseImports(t *testing.T) {
	file := parseOne(t, `
import "common.bop";
import "nested/types.bop";

struct S { int32 x; }
`)
	if len(file.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(file.Imports))
	}
	if file.Imports[1].Path != "nested/types.bop" {
		t.Errorf("unexpected import path %q", file.Imports[1].Path)
	}
}

func TestParseDocAttachment(t *testing.T) {
	file := parseOne(t, `
/* Binds to A. */
struct A { int32 x; }

// Line comments are trivia, never documentation.
struct B {
  /* Binds to the field. */
  int32 y;
  int32 z; /* inside the body, binds to nothing */
}

/* first */
/* second */
struct C { }
`)

	a := file.Definitions[0].(*StructDef)
	if a.Doc() != "Binds to A." {
		t.Errorf("A doc: %q", a.Doc())
	}

	b := file.Definitions[1].(*StructDef)
	if b.Doc() != "" {
		t.Errorf("B should have no doc, got %q", b.Doc())
	}
	if b.Fields[0].Documentation != "Binds to the field." {
		t.Errorf("field doc: %q", b.Fields[0].Documentation)
	}
	if b.Fields[1].Documentation != "" {
		t.Errorf("z should have no doc, got %q", b.Fields[1].Documentation)
	}

	c := file.Definitions[2].(*StructDef)
	if c.Doc() != "first\nsecond" {
		t.Errorf("C doc: %q", c.Doc())
	}
}

func TestParseRecoveryMissingSemicolon(t *testing.T) {
	var diags Diagnostics
	file := NewParser(0, "struct A { int32 x }\nstruct B { int32 y; }", &diags).ParseFile()

	if !diags.HasErrors() {
		t.Fatal("expected diagnostics")
	}
	found := false
	for _, d := range diags.All() {
		if d.Kind == DiagMissingSemicolon {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing-semicolon diagnostic, got %v", diags.All())
	}
	// Recovery must still deliver both definitions.
	if len(file.Definitions) != 2 {
		t.Fatalf("expected 2 definitions after recovery, got %d", len(file.Definitions))
	}
	if file.Definitions[1].Name() != "B" {
		t.Errorf("expected B after recovery, got %q", file.Definitions[1].Name())
	}
}

func TestParseRecoveryBadMember(t *testing.T) {
	var diags Diagnostics
	file := NewParser(0, "struct A { ??? bad; int32 x; }\nenum E { A = 1; }", &diags).ParseFile()

	if !diags.HasErrors() {
		t.Fatal("expected diagnostics")
	}
	if len(file.Definitions) != 2 {
		t.Fatalf("expected 2 definitions after recovery, got %d", len(file.Definitions))
	}
	st := file.Definitions[0].(*StructDef)
	if len(st.Fields) != 1 || st.Fields[0].FieldName != "x" {
		t.Errorf("expected recovery to keep field x, got %+v", st.Fields)
	}
}

func TestParseDiagnosticsAreStable(t *testing.T) {
	input := "struct A { int32 }\nstruct A { ??? }\n"

	var first []string
	for run := 0; run < 3; run++ {
		var diags Diagnostics
		NewParser(0, input, &diags).ParseFile()
		sm := NewSourceMap()
		sm.AddFile("test.bop", input)
		var rendered []string
		for _, d := range diags.All() {
			rendered = append(rendered, d.Format(sm))
		}
		if run == 0 {
			first = rendered
			if len(first) == 0 {
				t.Fatal("expected diagnostics")
			}
			continue
		}
		if diff := cmp.Diff(first, rendered); diff != "" {
			t.Errorf("diagnostics changed between runs (-first +now):\n%s", diff)
		}
	}
}

func TestParseIdempotentThroughFormatter(t *testing.T) {
	input := `
/* Docs survive the round trip. */
[opcode("ABCD")]
struct Point {
  int32 x;
  int32 y;
}

enum Color : uint16 {
  Red = 1;
  Green = 2;
}

message M {
  1 -> Point location;
  2 -> string? note;
}

union Shape {
  1 -> struct Circle { float64 radius; };
}

const guid id = "8c9e42a4-d053-4a78-91c9-7e56ee1fb0f4";
`
	first := parseOne(t, input)
	formatted := Format(first)
	second := parseOne(t, formatted)

	ignoreSpans := cmpopts.IgnoreTypes(Span{})
	if diff := cmp.Diff(first, second, ignoreSpans, cmpopts.IgnoreFields(File{}, "ID")); diff != "" {
		t.Errorf("reparsed formatted output differs (-first +second):\n%s", diff)
	}
}
