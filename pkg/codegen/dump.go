package codegen

import (
	"fmt"
	"strings"

	"github.com/bebopkit/bebopc/pkg/compiler"
)

// DumpGenerator emits a stable textual listing of a compiled schema:
// definitions in source order with their resolved types, attributes, and
// minimal encoded sizes. Names are rendered in the identifier forms back
// ends emit (PascalCase definitions and enum members, camelCase fields), so
// the listing shows a schema the way generated code will spell it. It is
// the reference consumer of the generator interface and a debugging aid
// for schema authors.
type DumpGenerator struct{}

func init() {
	Register(&DumpGenerator{})
}

// Name returns the registry name.
func (g *DumpGenerator) Name() string {
	return "dump"
}

// WriteAuxiliaryFiles is a no-op; the dump has no runtime.
func (g *DumpGenerator) WriteAuxiliaryFiles(outDir string) error {
	return nil
}

// Emit renders the schema listing.
func (g *DumpGenerator) Emit(s *compiler.Schema) (string, error) {
	var sb strings.Builder
	for i, def := range s.Definitions() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		g.emitDefinition(&sb, s, def, 0)
	}
	return sb.String(), nil
}

func (g *DumpGenerator) emitDefinition(sb *strings.Builder, s *compiler.Schema, def compiler.Definition, depth int) {
	ind := strings.Repeat("  ", depth)
	header := def.Header()
	name := TypeIdent(header.Name)

	switch d := def.(type) {
	case *compiler.Enum:
		fmt.Fprintf(sb, "%senum %s : %s", ind, name, d.Base)
		if d.IsFlags {
			sb.WriteString(" [flags]")
		}
		fmt.Fprintf(sb, " (min size %d)\n", s.MinimalSize(header.ID))
		for _, m := range d.Members {
			fmt.Fprintf(sb, "%s  %s = %d\n", ind, TypeIdent(m.Name), m.Value)
		}

	case *compiler.Struct:
		kw := "struct"
		if d.Readonly {
			kw = "readonly struct"
		}
		fmt.Fprintf(sb, "%s%s %s%s (min size %d)\n",
			ind, kw, name, opcodeSuffix(d.Opcode), s.MinimalSize(header.ID))
		for _, f := range d.Fields {
			fmt.Fprintf(sb, "%s  %s %s%s\n",
				ind, g.typeName(f.Type), MemberIdent(f.Name), fixedSuffix(s, f.Type))
		}

	case *compiler.Message:
		fmt.Fprintf(sb, "%smessage %s%s (min size %d)\n",
			ind, name, opcodeSuffix(d.Opcode), s.MinimalSize(header.ID))
		for _, f := range d.Fields {
			fmt.Fprintf(sb, "%s  %d -> %s %s\n",
				ind, f.Index, g.typeName(f.Type), MemberIdent(f.Name))
		}

	case *compiler.Union:
		fmt.Fprintf(sb, "%sunion %s%s (min size %d)\n",
			ind, name, opcodeSuffix(d.Opcode), s.MinimalSize(header.ID))
		for _, b := range d.Branches {
			fmt.Fprintf(sb, "%s  %d -> ", ind, b.Discriminator)
			branch := s.Def(b.Def)
			var nested strings.Builder
			g.emitDefinition(&nested, s, branch, depth+1)
			sb.WriteString(strings.TrimLeft(nested.String(), " "))
		}

	case *compiler.Const:
		fmt.Fprintf(sb, "%sconst %s %s = %s\n", ind, d.Type, TypeIdent(header.Name), d.Value)
	}
}

// typeName renders a resolved type with definition references in the same
// identifier form the declarations use.
func (g *DumpGenerator) typeName(t compiler.Type) string {
	switch t := t.(type) {
	case compiler.ArrayType:
		return g.typeName(t.Element) + "[]"
	case compiler.MapType:
		return "map[" + g.typeName(t.Key) + ", " + g.typeName(t.Value) + "]"
	case compiler.OptionType:
		return g.typeName(t.Element) + "?"
	case compiler.DefType:
		return TypeIdent(t.Name)
	default:
		return t.String()
	}
}

func opcodeSuffix(op compiler.Opcode) string {
	if !op.IsSet {
		return ""
	}
	return fmt.Sprintf(" [opcode 0x%08X]", op.Value)
}

func fixedSuffix(s *compiler.Schema, t compiler.Type) string {
	if s.IsFixedSize(t) {
		return ""
	}
	return " (variable)"
}
