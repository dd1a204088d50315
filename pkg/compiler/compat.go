package compiler

import (
	"fmt"
)

// BreakingChangeType indicates the kind of wire-breaking change detected
// between two compiled schemas.
type BreakingChangeType int

const (
	// DefinitionRemoved indicates a definition was removed.
	DefinitionRemoved BreakingChangeType = iota
	// DefinitionKindChanged indicates a definition changed kind (for
	// example a struct became a message).
	DefinitionKindChanged
	// StructLayoutChanged indicates a struct's field list changed. Structs
	// have no header, so any layout change breaks old readers.
	StructLayoutChanged
	// FieldTypeChanged indicates a message field's type changed for an
	// existing index.
	FieldTypeChanged
	// FieldIndexReused indicates a removed message field's index was
	// reused for a different field.
	FieldIndexReused
	// UnionBranchRemoved indicates a union branch was removed.
	UnionBranchRemoved
	// UnionBranchTypeChanged indicates a discriminator now selects a
	// different branch shape.
	UnionBranchTypeChanged
	// EnumBaseChanged indicates an enum's backing scalar type changed.
	EnumBaseChanged
	// OpcodeChanged indicates a definition's opcode changed.
	OpcodeChanged
)

// String returns a human-readable description of the breaking change type.
func (t BreakingChangeType) String() string {
	switch t {
	case DefinitionRemoved:
		return "definition removed"
	case DefinitionKindChanged:
		return "definition kind changed"
	case StructLayoutChanged:
		return "struct layout changed"
	case FieldTypeChanged:
		return "field type changed"
	case FieldIndexReused:
		return "field index reused"
	case UnionBranchRemoved:
		return "union branch removed"
	case UnionBranchTypeChanged:
		return "union branch type changed"
	case EnumBaseChanged:
		return "enum base changed"
	case OpcodeChanged:
		return "opcode changed"
	default:
		return "unknown breaking change"
	}
}

// BreakingChange represents an incompatible schema change.
type BreakingChange struct {
	// Type is the kind of breaking change.
	Type BreakingChangeType
	// Message describes the specific change.
	Message string
	// Location identifies the definition (and field) involved.
	Location string
}

// Error returns the breaking change as an error string.
func (b BreakingChange) Error() string {
	if b.Location != "" {
		return fmt.Sprintf("%s: %s at %s", b.Type, b.Message, b.Location)
	}
	return fmt.Sprintf("%s: %s", b.Type, b.Message)
}

// CompatibilityReport contains the results of a schema compatibility check.
type CompatibilityReport struct {
	// Breaking contains all breaking changes detected.
	Breaking []BreakingChange
	// Warnings contains non-breaking but notable changes.
	Warnings []string
}

// IsCompatible returns true if no breaking changes were detected.
func (r *CompatibilityReport) IsCompatible() bool {
	return len(r.Breaking) == 0
}

func (r *CompatibilityReport) breakingf(t BreakingChangeType, location, format string, args ...any) {
	r.Breaking = append(r.Breaking, BreakingChange{
		Type:     t,
		Message:  fmt.Sprintf(format, args...),
		Location: location,
	})
}

func (r *CompatibilityReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// CheckCompatibility compares two compiled schemas under the wire rules:
// structs are frozen, messages and unions may only grow, enums keep their
// backing scalar. The old schema is the deployed version; new is the
// proposed one.
func CheckCompatibility(oldSchema, newSchema *Schema) *CompatibilityReport {
	report := &CompatibilityReport{}

	for _, oldDef := range oldSchema.Definitions() {
		name := oldDef.Header().Name
		newDef, exists := newSchema.Lookup(name)
		if !exists {
			report.breakingf(DefinitionRemoved, name, "%s %q was removed", oldDef.Kind(), name)
			continue
		}
		if newDef.Kind() != oldDef.Kind() {
			report.breakingf(DefinitionKindChanged, name, "%q changed from %s to %s",
				name, oldDef.Kind(), newDef.Kind())
			continue
		}

		checkOpcodeCompat(oldDef, newDef, report)

		switch od := oldDef.(type) {
		case *Struct:
			checkStructCompat(oldSchema, newSchema, od, newDef.(*Struct), report)
		case *Message:
			checkMessageCompat(oldSchema, newSchema, od, newDef.(*Message), report)
		case *Union:
			checkUnionCompat(oldSchema, newSchema, od, newDef.(*Union), report)
		case *Enum:
			checkEnumCompat(od, newDef.(*Enum), report)
		}
	}

	return report
}

func checkOpcodeCompat(oldDef, newDef Definition, report *CompatibilityReport) {
	oldOp, ok := opcodeOf(oldDef)
	if !ok {
		return
	}
	newOp, _ := opcodeOf(newDef)
	name := oldDef.Header().Name
	switch {
	case oldOp.IsSet && !newOp.IsSet:
		report.breakingf(OpcodeChanged, name, "opcode 0x%08X was removed", oldOp.Value)
	case oldOp.IsSet && newOp.IsSet && oldOp.Value != newOp.Value:
		report.breakingf(OpcodeChanged, name, "opcode changed from 0x%08X to 0x%08X",
			oldOp.Value, newOp.Value)
	}
}

// checkStructCompat: structs have no framing, so the field list must match
// exactly in order, name being advisory but type being load bearing.
func checkStructCompat(oldS, newS *Schema, oldSt, newSt *Struct, report *CompatibilityReport) {
	name := oldSt.Name
	if len(oldSt.Fields) != len(newSt.Fields) {
		report.breakingf(StructLayoutChanged, name,
			"field count changed from %d to %d", len(oldSt.Fields), len(newSt.Fields))
		return
	}
	for i := range oldSt.Fields {
		of, nf := oldSt.Fields[i], newSt.Fields[i]
		if !typesCompatible(oldS, newS, of.Type, nf.Type) {
			report.breakingf(StructLayoutChanged, name+"."+of.Name,
				"field type changed from %s to %s", of.Type, nf.Type)
		}
		if of.Name != nf.Name {
			report.warnf("struct %s: field %d renamed from %q to %q", name, i, of.Name, nf.Name)
		}
	}
}

// checkMessageCompat: messages are append-only. Existing indices must keep
// their types; removing an index is safe (readers skip it) but reusing it
// with a different type is not detectable on the wire and therefore breaks.
func checkMessageCompat(oldS, newS *Schema, oldMsg, newMsg *Message, report *CompatibilityReport) {
	name := oldMsg.Name
	newByIndex := make(map[uint8]Field, len(newMsg.Fields))
	for _, f := range newMsg.Fields {
		newByIndex[f.Index] = f
	}
	for _, of := range oldMsg.Fields {
		nf, exists := newByIndex[of.Index]
		if !exists {
			report.warnf("message %s: field %q (index %d) was removed; the index must stay reserved",
				name, of.Name, of.Index)
			continue
		}
		if !typesCompatible(oldS, newS, of.Type, nf.Type) {
			if of.Name != nf.Name {
				report.breakingf(FieldIndexReused, fmt.Sprintf("%s.%s", name, nf.Name),
					"index %d was reused: %q %s became %q %s",
					of.Index, of.Name, of.Type, nf.Name, nf.Type)
			} else {
				report.breakingf(FieldTypeChanged, fmt.Sprintf("%s.%s", name, of.Name),
					"field type changed from %s to %s", of.Type, nf.Type)
			}
		}
	}
}

// checkUnionCompat: unions are append-only; a removed discriminator makes
// old data undecodable by new readers.
func checkUnionCompat(oldS, newS *Schema, oldUnion, newUnion *Union, report *CompatibilityReport) {
	name := oldUnion.Name
	newByDisc := make(map[uint8]UnionBranch, len(newUnion.Branches))
	for _, b := range newUnion.Branches {
		newByDisc[b.Discriminator] = b
	}
	for _, ob := range oldUnion.Branches {
		nb, exists := newByDisc[ob.Discriminator]
		if !exists {
			report.breakingf(UnionBranchRemoved, name,
				"branch %d (%s) was removed", ob.Discriminator, defName(oldS, ob.Def))
			continue
		}
		if !defsCompatible(oldS, newS, ob.Def, nb.Def) {
			report.breakingf(UnionBranchTypeChanged, name,
				"branch %d changed from %s to %s",
				ob.Discriminator, defName(oldS, ob.Def), defName(newS, nb.Def))
		}
	}
}

// checkEnumCompat: unknown values round-trip, so members may come and go,
// but the backing scalar fixes the encoded width.
func checkEnumCompat(oldEnum, newEnum *Enum, report *CompatibilityReport) {
	if oldEnum.Base != newEnum.Base {
		report.breakingf(EnumBaseChanged, oldEnum.Name,
			"base changed from %s to %s", oldEnum.Base, newEnum.Base)
	}
	oldByValue := make(map[uint64]string, len(oldEnum.Members))
	for _, m := range oldEnum.Members {
		oldByValue[m.Value] = m.Name
	}
	for _, m := range newEnum.Members {
		if prev, exists := oldByValue[m.Value]; exists && prev != m.Name {
			report.warnf("enum %s: value %d renamed from %q to %q", oldEnum.Name, m.Value, prev, m.Name)
		}
	}
}

// typesCompatible compares resolved types across two schemas by structure,
// with definition references compared by name and kind.
func typesCompatible(oldS, newS *Schema, a, b Type) bool {
	switch at := a.(type) {
	case ScalarType:
		bt, ok := b.(ScalarType)
		return ok && at.Base == bt.Base
	case ArrayType:
		bt, ok := b.(ArrayType)
		return ok && typesCompatible(oldS, newS, at.Element, bt.Element)
	case MapType:
		bt, ok := b.(MapType)
		return ok && typesCompatible(oldS, newS, at.Key, bt.Key) &&
			typesCompatible(oldS, newS, at.Value, bt.Value)
	case OptionType:
		bt, ok := b.(OptionType)
		return ok && typesCompatible(oldS, newS, at.Element, bt.Element)
	case DefType:
		bt, ok := b.(DefType)
		return ok && at.Name == bt.Name && defsCompatible(oldS, newS, at.ID, bt.ID)
	default:
		return false
	}
}

// defsCompatible checks that two referenced definitions have the same kind.
// Deeper shape changes are reported on the definitions themselves.
func defsCompatible(oldS, newS *Schema, a, b DefID) bool {
	if a == NoDef || b == NoDef {
		return false
	}
	return oldS.Def(a).Kind() == newS.Def(b).Kind()
}

func defName(s *Schema, id DefID) string {
	if def := s.Def(id); def != nil {
		return def.Header().Name
	}
	return "<unknown>"
}
