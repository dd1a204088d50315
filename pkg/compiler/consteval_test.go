package compiler

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/bebopkit/bebopc/pkg/schema"
)

// constValue compiles a single const definition and returns its value.
func constValue(t *testing.T, decl string) ConstValue {
	t.Helper()
	s := compileMust(t, decl)
	for _, def := range s.Definitions() {
		if c, ok := def.(*Const); ok {
			return c.Value
		}
	}
	t.Fatal("no constant in schema")
	return ConstValue{}
}

func TestConstEvalIntegers(t *testing.T) {
	tests := []struct {
		decl string
		kind ConstKind
		int_ int64
		uint uint64
	}{
		{"const byte b = 255;", ConstUint, 0, 255},
		{"const int16 i = -32768;", ConstInt, -32768, 0},
		{"const uint16 u = 0xFFFF;", ConstUint, 0, 65535},
		{"const int32 i = -1;", ConstInt, -1, 0},
		{"const uint32 u = 4294967295;", ConstUint, 0, 4294967295},
		{"const int64 i = -9223372036854775808;", ConstInt, math.MinInt64, 0},
		{"const uint64 u = 0xFFFFFFFFFFFFFFFF;", ConstUint, 0, math.MaxUint64},
	}

	for _, tt := range tests {
		v := constValue(t, tt.decl)
		if v.Kind != tt.kind {
			t.Errorf("%s: expected kind %v, got %v", tt.decl, tt.kind, v.Kind)
			continue
		}
		if tt.kind == ConstInt && v.Int != tt.int_ {
			t.Errorf("%s: expected %d, got %d", tt.decl, tt.int_, v.Int)
		}
		if tt.kind == ConstUint && v.Uint != tt.uint {
			t.Errorf("%s: expected %d, got %d", tt.decl, tt.uint, v.Uint)
		}
	}
}

func TestConstEvalOutOfRange(t *testing.T) {
	tests := []string{
		"const byte b = 256;",
		"const byte b = -1;",
		"const int16 i = 32768;",
		"const int16 i = -32769;",
		"const uint32 u = 4294967296;",
		"const uint64 u = -5;",
	}

	for _, decl := range tests {
		kinds := compileBad(t, decl)
		if !hasKind(kinds, schema.DiagConstOutOfRange) {
			t.Errorf("%s: expected ConstOutOfRange, got %v", decl, kinds)
		}
	}
}

func TestConstEvalFloats(t *testing.T) {
	if v := constValue(t, "const float64 pi = 3.25;"); v.Float != 3.25 {
		t.Errorf("expected 3.25, got %v", v.Float)
	}
	if v := constValue(t, "const float64 neg = -2.5;"); v.Float != -2.5 {
		t.Errorf("expected -2.5, got %v", v.Float)
	}
	if v := constValue(t, "const float32 f = 1.5;"); v.Float != 1.5 {
		t.Errorf("expected 1.5, got %v", v.Float)
	}
	if v := constValue(t, "const float64 promoted = 7;"); v.Float != 7 {
		t.Errorf("expected integer promotion to 7, got %v", v.Float)
	}
	if v := constValue(t, "const float64 p = inf;"); !math.IsInf(v.Float, 1) {
		t.Errorf("expected +inf, got %v", v.Float)
	}
	if v := constValue(t, "const float64 n = -inf;"); !math.IsInf(v.Float, -1) {
		t.Errorf("expected -inf, got %v", v.Float)
	}
	if v := constValue(t, "const float64 x = nan;"); !math.IsNaN(v.Float) {
		t.Errorf("expected nan, got %v", v.Float)
	}
}

func TestConstEvalStringsAndBools(t *testing.T) {
	if v := constValue(t, `const string s = "hello";`); v.Kind != ConstString || v.String != "hello" {
		t.Errorf("unexpected string value %+v", v)
	}
	if v := constValue(t, "const bool b = true;"); v.Kind != ConstBool || !v.Bool {
		t.Errorf("unexpected bool value %+v", v)
	}
}

func TestConstEvalGuid(t *testing.T) {
	v := constValue(t, `const guid id = "8c9e42a4-d053-4a78-91c9-7e56ee1fb0f4";`)
	if v.Kind != ConstGuid {
		t.Fatalf("expected guid, got %v", v.Kind)
	}
	want := uuid.MustParse("8c9e42a4-d053-4a78-91c9-7e56ee1fb0f4")
	if v.Guid != want {
		t.Errorf("expected %s, got %s", want, v.Guid)
	}

	for _, decl := range []string{
		`const guid id = "not-a-guid";`,
		`const guid id = "8c9e42a4d0534a7891c97e56ee1fb0f4";`, // missing hyphens
		`const guid id = "8c9e42a4-d053-4a78-91c9-7e56ee1fb0fZ";`,
	} {
		kinds := compileBad(t, decl)
		if !hasKind(kinds, schema.DiagInvalidGuid) {
			t.Errorf("%s: expected InvalidGuid, got %v", decl, kinds)
		}
	}
}

func TestConstEvalTypeMismatch(t *testing.T) {
	tests := []string{
		"const bool b = 1;",
		`const int32 i = "five";`,
		"const string s = true;",
		"const guid id = 5;",
		"const int32 i = 1.5;",
		`const date d = "2024-01-01";`,
	}

	for _, decl := range tests {
		kinds := compileBad(t, decl)
		if !hasKind(kinds, schema.DiagConstTypeMismatch) {
			t.Errorf("%s: expected ConstTypeMismatch, got %v", decl, kinds)
		}
	}
}

func TestConstValueString(t *testing.T) {
	tests := []struct {
		decl string
		want string
	}{
		{"const int32 i = -7;", "-7"},
		{"const uint32 u = 0x10;", "16"},
		{"const bool b = false;", "false"},
		{`const string s = "hi";`, `"hi"`},
	}
	for _, tt := range tests {
		if got := constValue(t, tt.decl).String(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.decl, tt.want, got)
		}
	}
}
