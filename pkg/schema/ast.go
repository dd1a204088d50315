// Package schema provides lexing and parsing for Bebop schema files.
//
// Schema files (.bop) define the enums, structs, messages, and unions of a
// compact binary wire format. Parsing produces an unresolved AST; the
// compiler package resolves and validates it into an immutable IR.
package schema

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
}

// File represents one parsed schema source file.
type File struct {
	FileSpan    Span
	ID          FileID
	Imports     []*Import
	Definitions []Definition
}

func (f *File) Span() Span { return f.FileSpan }

// Import references another schema source by logical name. The host
// resolves the name to text and feeds it into the same compilation.
type Import struct {
	ImportSpan Span
	Path       string
}

func (i *Import) Span() Span { return i.ImportSpan }

// BaseType is a built-in scalar type.
type BaseType int

const (
	BaseBool BaseType = iota
	BaseByte
	BaseInt16
	BaseUInt16
	BaseInt32
	BaseUInt32
	BaseInt64
	BaseUInt64
	BaseFloat32
	BaseFloat64
	BaseString
	BaseGuid
	BaseDate
)

// baseTypeNames maps source spellings to base types.
var baseTypeNames = map[string]BaseType{
	"bool":    BaseBool,
	"byte":    BaseByte,
	"uint8":   BaseByte,
	"int16":   BaseInt16,
	"uint16":  BaseUInt16,
	"int32":   BaseInt32,
	"uint32":  BaseUInt32,
	"int64":   BaseInt64,
	"uint64":  BaseUInt64,
	"float32": BaseFloat32,
	"float64": BaseFloat64,
	"string":  BaseString,
	"guid":    BaseGuid,
	"date":    BaseDate,
}

func (b BaseType) String() string {
	switch b {
	case BaseBool:
		return "bool"
	case BaseByte:
		return "byte"
	case BaseInt16:
		return "int16"
	case BaseUInt16:
		return "uint16"
	case BaseInt32:
		return "int32"
	case BaseUInt32:
		return "uint32"
	case BaseInt64:
		return "int64"
	case BaseUInt64:
		return "uint64"
	case BaseFloat32:
		return "float32"
	case BaseFloat64:
		return "float64"
	case BaseString:
		return "string"
	case BaseGuid:
		return "guid"
	case BaseDate:
		return "date"
	default:
		return "unknown"
	}
}

// IsInteger returns true for the integer base types.
func (b BaseType) IsInteger() bool {
	switch b {
	case BaseByte, BaseInt16, BaseUInt16, BaseInt32, BaseUInt32, BaseInt64, BaseUInt64:
		return true
	}
	return false
}

// IsSigned returns true for the signed integer base types.
func (b BaseType) IsSigned() bool {
	switch b {
	case BaseInt16, BaseInt32, BaseInt64:
		return true
	}
	return false
}

// IsFloat returns true for the floating point base types.
func (b BaseType) IsFloat() bool {
	return b == BaseFloat32 || b == BaseFloat64
}

// BaseTypeByName looks up a base type by its source spelling.
func BaseTypeByName(name string) (BaseType, bool) {
	b, ok := baseTypeNames[name]
	return b, ok
}

// Literal represents a literal value in the source.
type Literal interface {
	Node
	literalNode()
}

// BoolLiteral is a true/false literal.
type BoolLiteral struct {
	LitSpan Span
	Value   bool
}

func (l *BoolLiteral) Span() Span   { return l.LitSpan }
func (l *BoolLiteral) literalNode() {}

// IntegerLiteral is an integer literal with its digits preserved so range
// checking happens against the eventual target type.
type IntegerLiteral struct {
	LitSpan  Span
	Digits   string // without sign or 0x prefix
	Negative bool
	Hex      bool
}

func (l *IntegerLiteral) Span() Span   { return l.LitSpan }
func (l *IntegerLiteral) literalNode() {}

// FloatLiteral is a float literal. Text is the exact source spelling,
// including "inf", "-inf", and "nan".
type FloatLiteral struct {
	LitSpan Span
	Text    string
}

func (l *FloatLiteral) Span() Span   { return l.LitSpan }
func (l *FloatLiteral) literalNode() {}

// StringLiteral is a quoted string literal. GUID constants are written as
// string literals and validated against their target type.
type StringLiteral struct {
	LitSpan Span
	Value   string
}

func (l *StringLiteral) Span() Span   { return l.LitSpan }
func (l *StringLiteral) literalNode() {}

// Attribute is a bracketed decorator such as [opcode(0x12345678)],
// [deprecated("reason")], or [flags].
type Attribute struct {
	AttrSpan Span
	Name     string
	Value    Literal // nil when the attribute has no argument
}

func (a *Attribute) Span() Span { return a.AttrSpan }

// TypeRef is an unresolved type reference.
type TypeRef interface {
	Node
	typeRefNode()
	String() string
}

// ScalarTypeRef references a built-in scalar type.
type ScalarTypeRef struct {
	TypeSpan Span
	Base     BaseType
}

func (t *ScalarTypeRef) Span() Span     { return t.TypeSpan }
func (t *ScalarTypeRef) typeRefNode()   {}
func (t *ScalarTypeRef) String() string { return t.Base.String() }

// NamedTypeRef references a user definition by name.
type NamedTypeRef struct {
	TypeSpan Span
	Name     string
}

func (t *NamedTypeRef) Span() Span     { return t.TypeSpan }
func (t *NamedTypeRef) typeRefNode()   {}
func (t *NamedTypeRef) String() string { return t.Name }

// ArrayTypeRef is a T[] type.
type ArrayTypeRef struct {
	TypeSpan Span
	Element  TypeRef
}

func (t *ArrayTypeRef) Span() Span     { return t.TypeSpan }
func (t *ArrayTypeRef) typeRefNode()   {}
func (t *ArrayTypeRef) String() string { return t.Element.String() + "[]" }

// MapTypeRef is a map[K, V] type.
type MapTypeRef struct {
	TypeSpan Span
	Key      TypeRef
	Value    TypeRef
}

func (t *MapTypeRef) Span() Span   { return t.TypeSpan }
func (t *MapTypeRef) typeRefNode() {}
func (t *MapTypeRef) String() string {
	return "map[" + t.Key.String() + ", " + t.Value.String() + "]"
}

// OptionTypeRef is a T? type.
type OptionTypeRef struct {
	TypeSpan Span
	Element  TypeRef
}

func (t *OptionTypeRef) Span() Span     { return t.TypeSpan }
func (t *OptionTypeRef) typeRefNode()   {}
func (t *OptionTypeRef) String() string { return t.Element.String() + "?" }

// Definition is the interface implemented by all top-level definitions
// (and by the struct/message definitions nested inside union branches).
type Definition interface {
	Node
	Name() string
	Doc() string
	Attrs() []*Attribute
}

// DefHeader carries the fields shared by every definition.
type DefHeader struct {
	DefSpan       Span
	DefName       string
	NameSpan      Span
	Documentation string
	Attributes    []*Attribute
}

func (h *DefHeader) Span() Span          { return h.DefSpan }
func (h *DefHeader) Name() string        { return h.DefName }
func (h *DefHeader) Doc() string         { return h.Documentation }
func (h *DefHeader) Attrs() []*Attribute { return h.Attributes }

// EnumDef is an enum definition with an integer base type.
type EnumDef struct {
	DefHeader
	Base    BaseType // default BaseUInt32
	HasBase bool     // true when the base type was spelled out
	Members []*EnumMember
}

// EnumMember is a single named enum constant.
type EnumMember struct {
	MemberSpan    Span
	MemberName    string
	Documentation string
	Attributes    []*Attribute
	Value         *IntegerLiteral
}

func (m *EnumMember) Span() Span { return m.MemberSpan }

// StructDef is a fixed-layout record definition.
type StructDef struct {
	DefHeader
	Readonly bool
	Fields   []*Field
}

// MessageDef is an extensible record definition with per-field indices.
type MessageDef struct {
	DefHeader
	Fields []*Field
}

// Field is a struct or message field. Index is nil for struct fields.
type Field struct {
	FieldSpan     Span
	FieldName     string
	Documentation string
	Attributes    []*Attribute
	Type          TypeRef
	Index         *IntegerLiteral // message fields only
}

func (f *Field) Span() Span { return f.FieldSpan }

// UnionDef is a tagged union over inline struct/message definitions.
type UnionDef struct {
	DefHeader
	Branches []*UnionBranch
}

// UnionBranch pairs a discriminator with an inline definition.
type UnionBranch struct {
	BranchSpan    Span
	Documentation string
	Discriminator *IntegerLiteral
	Def           Definition
}

func (b *UnionBranch) Span() Span { return b.BranchSpan }

// ConstDef is a typed constant definition.
type ConstDef struct {
	DefHeader
	Type  BaseType
	Value Literal
}
