package schema

import (
	"fmt"
	"io"
	"strings"
)

// Writer pretty-prints parsed schema files.
type Writer struct {
	indent string
}

// NewWriter creates a schema writer with the default two-space indent.
func NewWriter() *Writer {
	return &Writer{indent: "  "}
}

// SetIndent sets the indentation string.
func (w *Writer) SetIndent(indent string) {
	w.indent = indent
}

// WriteFile writes a formatted schema file.
func (w *Writer) WriteFile(out io.Writer, file *File) error {
	for _, imp := range file.Imports {
		fmt.Fprintf(out, "import %s;\n", formatString(imp.Path))
	}
	if len(file.Imports) > 0 {
		fmt.Fprintln(out)
	}

	for i, def := range file.Definitions {
		w.writeDefinition(out, def, 0)
		if i < len(file.Definitions)-1 {
			fmt.Fprintln(out)
		}
	}
	return nil
}

// writeDefinition writes one definition at the given indent depth.
func (w *Writer) writeDefinition(out io.Writer, def Definition, depth int) {
	ind := strings.Repeat(w.indent, depth)
	w.writeDoc(out, def.Doc(), ind)
	for _, attr := range def.Attrs() {
		fmt.Fprintf(out, "%s%s\n", ind, formatAttribute(attr))
	}

	switch d := def.(type) {
	case *EnumDef:
		if d.HasBase {
			fmt.Fprintf(out, "%senum %s : %s {\n", ind, d.DefName, d.Base)
		} else {
			fmt.Fprintf(out, "%senum %s {\n", ind, d.DefName)
		}
		for _, m := range d.Members {
			w.writeDoc(out, m.Documentation, ind+w.indent)
			for _, attr := range m.Attributes {
				fmt.Fprintf(out, "%s%s%s\n", ind, w.indent, formatAttribute(attr))
			}
			fmt.Fprintf(out, "%s%s%s = %s;\n", ind, w.indent, m.MemberName, formatLiteral(m.Value))
		}
		fmt.Fprintf(out, "%s}\n", ind)

	case *StructDef:
		kw := "struct"
		if d.Readonly {
			kw = "readonly struct"
		}
		fmt.Fprintf(out, "%s%s %s {\n", ind, kw, d.DefName)
		for _, f := range d.Fields {
			w.writeDoc(out, f.Documentation, ind+w.indent)
			for _, attr := range f.Attributes {
				fmt.Fprintf(out, "%s%s%s\n", ind, w.indent, formatAttribute(attr))
			}
			fmt.Fprintf(out, "%s%s%s %s;\n", ind, w.indent, f.Type, f.FieldName)
		}
		fmt.Fprintf(out, "%s}\n", ind)

	case *MessageDef:
		fmt.Fprintf(out, "%smessage %s {\n", ind, d.DefName)
		for _, f := range d.Fields {
			w.writeDoc(out, f.Documentation, ind+w.indent)
			for _, attr := range f.Attributes {
				fmt.Fprintf(out, "%s%s%s\n", ind, w.indent, formatAttribute(attr))
			}
			fmt.Fprintf(out, "%s%s%s -> %s %s;\n", ind, w.indent, formatLiteral(f.Index), f.Type, f.FieldName)
		}
		fmt.Fprintf(out, "%s}\n", ind)

	case *UnionDef:
		fmt.Fprintf(out, "%sunion %s {\n", ind, d.DefName)
		for _, b := range d.Branches {
			w.writeDoc(out, b.Documentation, ind+w.indent)
			fmt.Fprintf(out, "%s%s%s -> ", ind, w.indent, formatLiteral(b.Discriminator))
			w.writeInlineDefinition(out, b.Def, depth+1)
			fmt.Fprint(out, ";\n")
		}
		fmt.Fprintf(out, "%s}\n", ind)

	case *ConstDef:
		fmt.Fprintf(out, "%sconst %s %s = %s;\n", ind, d.Type, d.DefName, formatLiteral(d.Value))
	}
}

// writeInlineDefinition writes a union branch definition without leading
// indentation on the first line, since it follows "N -> " on that line.
func (w *Writer) writeInlineDefinition(out io.Writer, def Definition, depth int) {
	var sb strings.Builder
	w.writeDefinition(&sb, def, depth)
	text := strings.TrimSuffix(sb.String(), "\n")
	fmt.Fprint(out, strings.TrimLeft(text, " "))
}

// writeDoc writes documentation as a block comment.
func (w *Writer) writeDoc(out io.Writer, doc, ind string) {
	if doc == "" {
		return
	}
	lines := strings.Split(doc, "\n")
	if len(lines) == 1 {
		fmt.Fprintf(out, "%s/* %s */\n", ind, lines[0])
		return
	}
	fmt.Fprintf(out, "%s/*\n", ind)
	for _, line := range lines {
		fmt.Fprintf(out, "%s * %s\n", ind, line)
	}
	fmt.Fprintf(out, "%s */\n", ind)
}

// formatAttribute renders an attribute back to source form.
func formatAttribute(a *Attribute) string {
	if a.Value == nil {
		return "[" + a.Name + "]"
	}
	return "[" + a.Name + "(" + formatLiteral(a.Value) + ")]"
}

// formatLiteral renders a literal back to source form.
func formatLiteral(l Literal) string {
	switch v := l.(type) {
	case *BoolLiteral:
		if v.Value {
			return "true"
		}
		return "false"
	case *IntegerLiteral:
		var sb strings.Builder
		if v.Negative {
			sb.WriteByte('-')
		}
		if v.Hex {
			sb.WriteString("0x")
		}
		sb.WriteString(v.Digits)
		return sb.String()
	case *FloatLiteral:
		return v.Text
	case *StringLiteral:
		return formatString(v.Value)
	default:
		return fmt.Sprintf("%v", l)
	}
}

// formatString quotes a string literal, doubling embedded quotes.
func formatString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Format returns the formatted source for a parsed file.
func Format(file *File) string {
	var sb strings.Builder
	_ = NewWriter().WriteFile(&sb, file)
	return sb.String()
}
