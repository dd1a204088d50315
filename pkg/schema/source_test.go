package schema

import "testing"

func TestSourceMapPositions(t *testing.T) {
	sm := NewSourceMap()
	id := sm.AddFile("test.bop", "ab\ncd\r\nef\rgh")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},  // a
		{1, 1, 2},  // b
		{2, 1, 3},  // \n
		{3, 2, 1},  // c
		{4, 2, 2},  // d
		{7, 3, 1},  // e (after \r\n)
		{8, 3, 2},  // f
		{10, 4, 1}, // g (after lone \r)
		{11, 4, 2}, // h
	}

	for _, tt := range tests {
		pos := sm.Position(id, tt.offset)
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("offset %d: expected %d:%d, got %d:%d",
				tt.offset, tt.line, tt.column, pos.Line, pos.Column)
		}
		if pos.Filename != "test.bop" {
			t.Errorf("offset %d: wrong filename %q", tt.offset, pos.Filename)
		}
	}
}

func TestSourceMapMultipleFiles(t *testing.T) {
	sm := NewSourceMap()
	a := sm.AddFile("a.bop", "one\ntwo")
	b := sm.AddFile("b.bop", "three")

	if sm.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", sm.Len())
	}
	if pos := sm.Position(a, 4); pos.Line != 2 || pos.Filename != "a.bop" {
		t.Errorf("unexpected position %+v", pos)
	}
	if pos := sm.Position(b, 0); pos.Line != 1 || pos.Filename != "b.bop" {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestSpanPosition(t *testing.T) {
	sm := NewSourceMap()
	id := sm.AddFile("test.bop", "struct Foo {\n  int32 x;\n}")

	pos := sm.SpanPosition(Span{File: id, Start: 15, End: 20})
	if pos.Line != 2 || pos.Column != 3 {
		t.Errorf("expected 2:3, got %d:%d", pos.Line, pos.Column)
	}
	if pos.String() != "test.bop:2:3" {
		t.Errorf("unexpected String(): %q", pos.String())
	}
}

func TestSourceMapUnknownFile(t *testing.T) {
	sm := NewSourceMap()
	pos := sm.Position(NoFile, 10)
	if pos.Filename != "<unknown>" {
		t.Errorf("expected <unknown>, got %q", pos.Filename)
	}
}
