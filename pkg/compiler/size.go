package compiler

import (
	"github.com/bebopkit/bebopc/pkg/schema"
	"github.com/bebopkit/bebopc/pkg/wire"
)

// FixedBaseSize returns the encoded size of a fixed-width base type, and
// the length-prefix-only minimum for string.
func FixedBaseSize(base schema.BaseType) int {
	switch base {
	case schema.BaseBool, schema.BaseByte:
		return wire.SizeByte
	case schema.BaseInt16, schema.BaseUInt16:
		return wire.SizeInt16
	case schema.BaseInt32, schema.BaseUInt32:
		return wire.SizeInt32
	case schema.BaseFloat32:
		return wire.SizeFloat32
	case schema.BaseInt64, schema.BaseUInt64:
		return wire.SizeInt64
	case schema.BaseFloat64:
		return wire.SizeFloat64
	case schema.BaseGuid:
		return wire.SizeGuid
	case schema.BaseDate:
		return wire.SizeDate
	case schema.BaseString:
		return wire.SizeLengthPrefix
	default:
		return 0
	}
}

// MinimalSize returns the smallest number of bytes any value of the
// definition can encode to. Generators use it to pre-size buffers and
// readers use it to reject obviously truncated data.
func (s *Schema) MinimalSize(id DefID) int {
	return s.minimalDefSize(id, make(map[DefID]bool))
}

// MinimalTypeSize returns the minimal encoded size of a resolved type.
func (s *Schema) MinimalTypeSize(t Type) int {
	return s.minimalTypeSize(t, make(map[DefID]bool))
}

func (s *Schema) minimalDefSize(id DefID, visiting map[DefID]bool) int {
	if id == NoDef || visiting[id] {
		// Unresolved or cyclic references contribute nothing; the cycle
		// itself is reported by the recursion check.
		return 0
	}
	visiting[id] = true
	defer delete(visiting, id)

	switch def := s.Def(id).(type) {
	case *Enum:
		return FixedBaseSize(def.Base)
	case *Struct:
		total := 0
		for _, f := range def.Fields {
			total += s.minimalTypeSize(f.Type, visiting)
		}
		return total
	case *Message:
		return wire.SizeMessageOverhead
	case *Union:
		min := 0
		for i, b := range def.Branches {
			size := s.minimalDefSize(b.Def, visiting)
			if i == 0 || size < min {
				min = size
			}
		}
		return wire.SizeUnionOverhead + min
	default:
		return 0
	}
}

func (s *Schema) minimalTypeSize(t Type, visiting map[DefID]bool) int {
	switch t := t.(type) {
	case ScalarType:
		return FixedBaseSize(t.Base)
	case ArrayType, MapType:
		return wire.SizeLengthPrefix
	case OptionType:
		return wire.SizeOptionTag
	case DefType:
		return s.minimalDefSize(t.ID, visiting)
	default:
		return 0
	}
}

// IsFixedSize reports whether every value of the type encodes to the same
// number of bytes: scalars except string, enums, and structs whose fields
// are all fixed-size.
func (s *Schema) IsFixedSize(t Type) bool {
	return s.isFixedSize(t, make(map[DefID]bool))
}

func (s *Schema) isFixedSize(t Type, visiting map[DefID]bool) bool {
	switch t := t.(type) {
	case ScalarType:
		return t.Base != schema.BaseString
	case ArrayType, MapType, OptionType:
		return false
	case DefType:
		if t.ID == NoDef || visiting[t.ID] {
			return false
		}
		visiting[t.ID] = true
		defer delete(visiting, t.ID)
		switch def := s.Def(t.ID).(type) {
		case *Enum:
			return true
		case *Struct:
			for _, f := range def.Fields {
				if !s.isFixedSize(f.Type, visiting) {
					return false
				}
			}
			return true
		default:
			return false
		}
	default:
		return false
	}
}
