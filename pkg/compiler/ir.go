// Package compiler resolves and validates parsed schema files into an
// immutable intermediate representation, and computes the derived data
// (minimal encoded sizes, fixed-size classification) that code generators
// consume.
package compiler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bebopkit/bebopc/pkg/schema"
)

// DefID addresses a definition within a Schema's arena. IDs are stable for
// the lifetime of the Schema.
type DefID int

// NoDef is the absent DefID, used for parent links of top-level definitions
// and for poisoned type references.
const NoDef DefID = -1

// DefKind identifies the variant of a Definition.
type DefKind int

const (
	KindEnum DefKind = iota
	KindStruct
	KindMessage
	KindUnion
	KindConst
)

func (k DefKind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindMessage:
		return "message"
	case KindUnion:
		return "union"
	case KindConst:
		return "const"
	default:
		return "unknown"
	}
}

// DefHeader carries the fields shared by every definition variant.
type DefHeader struct {
	ID            DefID
	Name          string
	Span          schema.Span
	Documentation string

	// Parent is the enclosing union for definitions nested inside a union
	// branch, NoDef otherwise. Lookups go through the arena.
	Parent DefID

	Deprecated        bool
	DeprecationReason string

	// Poisoned marks definitions whose analysis hit an unresolved name.
	// Later passes run on them best-effort; a schema containing poisoned
	// definitions is never surfaced as success.
	Poisoned bool
}

// Definition is the validated form of a schema definition.
type Definition interface {
	Header() *DefHeader
	Kind() DefKind
}

// Opcode is an optional 32-bit packet identifier on a struct, message, or
// union definition.
type Opcode struct {
	Value uint32
	IsSet bool
	Span  schema.Span
}

// Enum is a validated enum definition.
type Enum struct {
	DefHeader
	Base    schema.BaseType
	IsFlags bool
	Members []EnumMember
}

func (e *Enum) Header() *DefHeader { return &e.DefHeader }
func (e *Enum) Kind() DefKind      { return KindEnum }

// EnumMember is a named enum constant. Value holds the member's bit
// pattern in the enum's base type width.
type EnumMember struct {
	Name              string
	Value             uint64
	Documentation     string
	Deprecated        bool
	DeprecationReason string
	Span              schema.Span
}

// Struct is a validated fixed-layout record.
type Struct struct {
	DefHeader
	Readonly bool
	Opcode   Opcode
	Fields   []Field
}

func (s *Struct) Header() *DefHeader { return &s.DefHeader }
func (s *Struct) Kind() DefKind      { return KindStruct }

// Message is a validated extensible record.
type Message struct {
	DefHeader
	Opcode Opcode
	Fields []Field
}

func (m *Message) Header() *DefHeader { return &m.DefHeader }
func (m *Message) Kind() DefKind      { return KindMessage }

// Field is a resolved struct or message field. Index is zero for struct
// fields and in 1..255 for message fields.
type Field struct {
	Name              string
	Type              Type
	Index             uint8
	Documentation     string
	Deprecated        bool
	DeprecationReason string
	Span              schema.Span
}

// Union is a validated tagged union.
type Union struct {
	DefHeader
	Opcode   Opcode
	Branches []UnionBranch
}

func (u *Union) Header() *DefHeader { return &u.DefHeader }
func (u *Union) Kind() DefKind      { return KindUnion }

// UnionBranch pairs a discriminator with the arena id of its struct or
// message definition.
type UnionBranch struct {
	Discriminator uint8
	Def           DefID
	Documentation string
	Span          schema.Span
}

// Const is a validated constant definition.
type Const struct {
	DefHeader
	Type  schema.BaseType
	Value ConstValue
}

func (c *Const) Header() *DefHeader { return &c.DefHeader }
func (c *Const) Kind() DefKind      { return KindConst }

// ConstKind identifies the variant of a ConstValue.
type ConstKind int

const (
	ConstBool ConstKind = iota
	ConstInt
	ConstUint
	ConstFloat
	ConstString
	ConstGuid
)

// ConstValue is the evaluated, range-checked value of a constant.
type ConstValue struct {
	Kind   ConstKind
	Bool   bool
	Int    int64
	Uint   uint64
	Float  float64
	String string
	Guid   uuid.UUID
}

// String returns the canonical representation of the value.
func (v ConstValue) String() string {
	switch v.Kind {
	case ConstBool:
		return fmt.Sprintf("%t", v.Bool)
	case ConstInt:
		return fmt.Sprintf("%d", v.Int)
	case ConstUint:
		return fmt.Sprintf("%d", v.Uint)
	case ConstFloat:
		return fmt.Sprintf("%g", v.Float)
	case ConstString:
		return fmt.Sprintf("%q", v.String)
	case ConstGuid:
		return v.Guid.String()
	default:
		return "<invalid>"
	}
}

// Type is a resolved type reference.
type Type interface {
	typeNode()
	String() string
}

// ScalarType is a built-in scalar.
type ScalarType struct {
	Base schema.BaseType
}

func (t ScalarType) typeNode()      {}
func (t ScalarType) String() string { return t.Base.String() }

// ArrayType is a variable-length array.
type ArrayType struct {
	Element Type
}

func (t ArrayType) typeNode()      {}
func (t ArrayType) String() string { return t.Element.String() + "[]" }

// MapType is a key/value map.
type MapType struct {
	Key   Type
	Value Type
}

func (t MapType) typeNode() {}
func (t MapType) String() string {
	return "map[" + t.Key.String() + ", " + t.Value.String() + "]"
}

// OptionType is an optional value.
type OptionType struct {
	Element Type
}

func (t OptionType) typeNode()      {}
func (t OptionType) String() string { return t.Element.String() + "?" }

// DefType is a resolved reference to a definition. ID is NoDef when the
// reference failed to resolve; the containing definition is poisoned.
type DefType struct {
	ID   DefID
	Name string
}

func (t DefType) typeNode()      {}
func (t DefType) String() string { return t.Name }

// Schema is the validated, immutable IR of one compilation. Definitions
// preserve source order; their iteration order is part of the public
// contract so generated output is stable.
type Schema struct {
	// Namespace is the optional dotted namespace generators may emit
	// packages under. Reserved; the grammar does not currently bind it.
	Namespace string

	defs     []Definition
	topLevel []DefID
	byName   map[string]DefID
	sources  *schema.SourceMap
}

func newSchema(sources *schema.SourceMap) *Schema {
	return &Schema{
		byName:  make(map[string]DefID),
		sources: sources,
	}
}

// add interns a definition into the arena and returns its id.
func (s *Schema) add(def Definition) DefID {
	id := DefID(len(s.defs))
	def.Header().ID = id
	s.defs = append(s.defs, def)
	return id
}

// Def returns the definition with the given arena id.
func (s *Schema) Def(id DefID) Definition {
	if id < 0 || int(id) >= len(s.defs) {
		return nil
	}
	return s.defs[id]
}

// Definitions returns the top-level definitions in source order.
func (s *Schema) Definitions() []Definition {
	out := make([]Definition, len(s.topLevel))
	for i, id := range s.topLevel {
		out[i] = s.defs[id]
	}
	return out
}

// All returns every definition in the arena, including those nested inside
// union branches, in intern order.
func (s *Schema) All() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Lookup finds a top-level definition by name.
func (s *Schema) Lookup(name string) (Definition, bool) {
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.defs[id], true
}

// SourceMap returns the source map the schema was compiled from, for
// rendering diagnostics and documentation spans.
func (s *Schema) SourceMap() *schema.SourceMap {
	return s.sources
}
