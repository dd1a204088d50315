package compiler

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/bebopkit/bebopc/pkg/schema"
)

// evalConst evaluates a constant's literal in its declared type, range
// checking integers and validating GUID form.
func (a *analyzer) evalConst(def *Const, ast *schema.ConstDef) {
	span := ast.Value.Span()

	switch {
	case def.Type == schema.BaseBool:
		b, ok := ast.Value.(*schema.BoolLiteral)
		if !ok {
			a.mismatch(def, ast)
			return
		}
		def.Value = ConstValue{Kind: ConstBool, Bool: b.Value}

	case def.Type.IsInteger():
		lit, ok := ast.Value.(*schema.IntegerLiteral)
		if !ok {
			a.mismatch(def, ast)
			return
		}
		bits, ok := a.evalInteger(lit, def.Type, schema.DiagConstOutOfRange, "constant")
		if !ok {
			return
		}
		if def.Type.IsSigned() {
			def.Value = ConstValue{Kind: ConstInt, Int: signExtend(bits, intWidth(def.Type))}
		} else {
			def.Value = ConstValue{Kind: ConstUint, Uint: bits}
		}

	case def.Type.IsFloat():
		switch ast.Value.(type) {
		case *schema.FloatLiteral, *schema.IntegerLiteral:
		default:
			a.mismatch(def, ast)
			return
		}
		value, ok := a.evalFloat(ast.Value, span)
		if !ok {
			return
		}
		if def.Type == schema.BaseFloat32 {
			value = float64(float32(value))
		}
		def.Value = ConstValue{Kind: ConstFloat, Float: value}

	case def.Type == schema.BaseString:
		s, ok := ast.Value.(*schema.StringLiteral)
		if !ok {
			a.mismatch(def, ast)
			return
		}
		def.Value = ConstValue{Kind: ConstString, String: s.Value}

	case def.Type == schema.BaseGuid:
		s, ok := ast.Value.(*schema.StringLiteral)
		if !ok {
			a.mismatch(def, ast)
			return
		}
		if len(s.Value) != 36 {
			a.diags.Errorf(schema.DiagInvalidGuid, []schema.Span{span},
				"guid must be in canonical 36-character form, got %d characters", len(s.Value))
			return
		}
		g, err := uuid.Parse(s.Value)
		if err != nil {
			a.diags.Errorf(schema.DiagInvalidGuid, []schema.Span{span},
				"malformed guid %q", s.Value)
			return
		}
		def.Value = ConstValue{Kind: ConstGuid, Guid: g}

	default:
		// date has no literal form
		a.diags.Errorf(schema.DiagConstTypeMismatch, []schema.Span{ast.Span()},
			"constants of type %s are not supported", def.Type)
	}
}

func (a *analyzer) mismatch(def *Const, ast *schema.ConstDef) {
	a.diags.Errorf(schema.DiagConstTypeMismatch, []schema.Span{ast.Value.Span()},
		"literal is not assignable to %s constant %q", def.Type, def.Name)
}

// evalFloat evaluates a literal in a float context. Integer literals are
// promoted; "inf", "-inf", and "nan" map to their IEEE 754 values.
func (a *analyzer) evalFloat(lit schema.Literal, span schema.Span) (float64, bool) {
	switch v := lit.(type) {
	case *schema.FloatLiteral:
		switch v.Text {
		case "inf":
			return math.Inf(1), true
		case "-inf":
			return math.Inf(-1), true
		case "nan":
			return math.NaN(), true
		}
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			a.diags.Errorf(schema.DiagMalformedLiteral, []schema.Span{span},
				"malformed float literal %q", v.Text)
			return 0, false
		}
		return f, true
	case *schema.IntegerLiteral:
		radix := 10
		if v.Hex {
			radix = 16
		}
		u, err := strconv.ParseUint(v.Digits, radix, 64)
		if err != nil {
			a.diags.Errorf(schema.DiagMalformedLiteral, []schema.Span{span},
				"malformed integer literal")
			return 0, false
		}
		f := float64(u)
		if v.Negative {
			f = -f
		}
		return f, true
	default:
		return 0, false
	}
}

// evalInteger parses an integer literal and range checks it against the
// target type, returning the value's bit pattern in the target width.
func (a *analyzer) evalInteger(lit *schema.IntegerLiteral, base schema.BaseType, kind schema.DiagKind, what string) (uint64, bool) {
	radix := 10
	if lit.Hex {
		radix = 16
	}
	magnitude, err := strconv.ParseUint(lit.Digits, radix, 64)
	if err != nil {
		a.diags.Errorf(kind, []schema.Span{lit.Span()},
			"%s does not fit in 64 bits", what)
		return 0, false
	}

	width := intWidth(base)
	if lit.Negative {
		if !base.IsSigned() {
			a.diags.Errorf(kind, []schema.Span{lit.Span()},
				"%s of unsigned type %s cannot be negative", what, base)
			return 0, false
		}
		// |min| for a signed width-bit integer is 1<<(width-1).
		if magnitude > uint64(1)<<(width-1) {
			a.diags.Errorf(kind, []schema.Span{lit.Span()},
				"%s -%s does not fit in %s", what, lit.Digits, base)
			return 0, false
		}
		var value int64
		if magnitude == uint64(1)<<63 {
			value = math.MinInt64
		} else {
			value = -int64(magnitude)
		}
		return uint64(value) & widthMask(width), true
	}

	var max uint64
	if base.IsSigned() {
		max = uint64(1)<<(width-1) - 1
	} else {
		max = widthMask(width)
	}
	if magnitude > max {
		a.diags.Errorf(kind, []schema.Span{lit.Span()},
			"%s %s does not fit in %s", what, lit.Digits, base)
		return 0, false
	}
	return magnitude, true
}

// intWidth returns the bit width of an integer base type.
func intWidth(base schema.BaseType) uint {
	switch base {
	case schema.BaseByte:
		return 8
	case schema.BaseInt16, schema.BaseUInt16:
		return 16
	case schema.BaseInt32, schema.BaseUInt32:
		return 32
	default:
		return 64
	}
}

// widthMask returns the all-ones mask for the given width.
func widthMask(width uint) uint64 {
	if width == 64 {
		return math.MaxUint64
	}
	return uint64(1)<<width - 1
}

// signExtend interprets bits as a two's-complement value of the given
// width.
func signExtend(bits uint64, width uint) int64 {
	shift := 64 - width
	return int64(bits<<shift) >> shift
}
