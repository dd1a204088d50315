package schema

import (
	"strings"
)

// Parser parses schema source code into an unresolved AST. Errors are
// recorded as diagnostics and the parser recovers at the next definition
// boundary, so a partial AST is always returned.
type Parser struct {
	lexer    *Lexer
	current  Token
	previous Token
	diags    *Diagnostics

	// doc holds the block-comment text immediately preceding the current
	// token. It is cleared on every advance, so documentation binds to the
	// next definition or member and nothing else.
	doc string
}

// NewParser creates a parser for one source file. Diagnostics are recorded
// into diags.
func NewParser(file FileID, input string, diags *Diagnostics) *Parser {
	p := &Parser{
		lexer: NewLexer(file, input),
		diags: diags,
	}
	p.advance() // load first token
	return p
}

// Parse parses a source file that was already added to the source map.
func Parse(sm *SourceMap, id FileID, diags *Diagnostics) *File {
	return NewParser(id, sm.File(id).Text, diags).ParseFile()
}

// ParseFile parses the entire schema file.
func (p *Parser) ParseFile() *File {
	file := &File{
		FileSpan: p.current.Span,
		ID:       p.current.Span.File,
	}

	for !p.check(TokenEOF) {
		switch p.current.Kind {
		case TokenImport:
			if imp := p.parseImport(); imp != nil {
				file.Imports = append(file.Imports, imp)
			}
		case TokenEnum, TokenStruct, TokenMessage, TokenUnion, TokenConst, TokenReadonly, TokenLBracket:
			if def := p.parseDefinition(); def != nil {
				file.Definitions = append(file.Definitions, def)
			}
		default:
			p.errorf(DiagUnexpectedToken, p.current.Span,
				"expected a definition, found %s", p.current)
			p.advance()
			p.synchronize()
		}
	}

	file.FileSpan.End = p.current.Span.End
	return file
}

// parseImport parses: 'import' string ';'
func (p *Parser) parseImport() *Import {
	start := p.current.Span
	p.advance() // consume 'import'

	if !p.check(TokenString) {
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected import path string, found %s", p.current)
		p.synchronize()
		return nil
	}
	path := p.current.Value
	p.advance()

	end := p.previous.Span
	p.expectSemicolon("import")

	return &Import{
		ImportSpan: Span{File: start.File, Start: start.Start, End: end.End},
		Path:       path,
	}
}

// parseDefinition parses: doc? attr* (enumDef | structDef | messageDef | unionDef | constDef)
func (p *Parser) parseDefinition() Definition {
	doc := p.takeDoc()
	attrs := p.parseAttributes()

	switch p.current.Kind {
	case TokenEnum:
		return p.parseEnum(doc, attrs)
	case TokenReadonly, TokenStruct:
		return p.parseStruct(doc, attrs)
	case TokenMessage:
		return p.parseMessage(doc, attrs)
	case TokenUnion:
		return p.parseUnion(doc, attrs)
	case TokenConst:
		return p.parseConst(doc, attrs)
	default:
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected enum, struct, message, union, or const, found %s", p.current)
		p.synchronize()
		return nil
	}
}

// parseEnum parses: 'enum' IDENT [':' baseType] '{' enumMember* '}'
func (p *Parser) parseEnum(doc string, attrs []*Attribute) Definition {
	start := p.current.Span
	p.advance() // consume 'enum'

	name, nameSpan, ok := p.expectIdent("enum name")
	if !ok {
		p.synchronize()
		return nil
	}

	base := BaseUInt32
	hasBase := false
	if p.check(TokenColon) {
		p.advance()
		b, span, ok := p.parseBaseTypeName()
		if !ok {
			p.synchronize()
			return nil
		}
		if !b.IsInteger() {
			p.errorf(DiagUnexpectedToken, span,
				"enum base type must be an integer type, found %s", b)
		} else {
			base = b
			hasBase = true
		}
	}

	if !p.expect(TokenLBrace, "'{' after enum name") {
		p.synchronize()
		return nil
	}

	var members []*EnumMember
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if m := p.parseEnumMember(); m != nil {
			members = append(members, m)
		}
	}
	end := p.current.Span
	p.expect(TokenRBrace, "'}'")

	return &EnumDef{
		DefHeader: p.header(start, end, name, nameSpan, doc, attrs),
		Base:      base,
		HasBase:   hasBase,
		Members:   members,
	}
}

// parseEnumMember parses: doc? attr* IDENT '=' intLiteral ';'
func (p *Parser) parseEnumMember() *EnumMember {
	doc := p.takeDoc()
	attrs := p.parseAttributes()
	start := p.current.Span

	name, _, ok := p.expectIdent("enum member name")
	if !ok {
		p.recoverMember()
		return nil
	}

	if !p.expect(TokenEquals, "'=' after enum member name") {
		p.recoverMember()
		return nil
	}

	value := p.parseIntegerLiteral("enum member value")
	if value == nil {
		p.recoverMember()
		return nil
	}

	end := p.previous.Span
	p.expectSemicolon("enum member")

	return &EnumMember{
		MemberSpan:    Span{File: start.File, Start: start.Start, End: end.End},
		MemberName:    name,
		Documentation: doc,
		Attributes:    attrs,
		Value:         value,
	}
}

// parseStruct parses: ['readonly'] 'struct' IDENT '{' field* '}'
func (p *Parser) parseStruct(doc string, attrs []*Attribute) Definition {
	start := p.current.Span
	readonly := false
	if p.check(TokenReadonly) {
		readonly = true
		p.advance()
		if !p.check(TokenStruct) {
			p.errorf(DiagUnexpectedToken, p.current.Span,
				"expected 'struct' after 'readonly', found %s", p.current)
			p.synchronize()
			return nil
		}
	}
	p.advance() // consume 'struct'

	name, nameSpan, ok := p.expectIdent("struct name")
	if !ok {
		p.synchronize()
		return nil
	}

	if !p.expect(TokenLBrace, "'{' after struct name") {
		p.synchronize()
		return nil
	}

	var fields []*Field
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if f := p.parseStructField(); f != nil {
			fields = append(fields, f)
		}
	}
	end := p.current.Span
	p.expect(TokenRBrace, "'}'")

	return &StructDef{
		DefHeader: p.header(start, end, name, nameSpan, doc, attrs),
		Readonly:  readonly,
		Fields:    fields,
	}
}

// parseStructField parses: doc? attr* type IDENT ';'
func (p *Parser) parseStructField() *Field {
	doc := p.takeDoc()
	attrs := p.parseAttributes()
	start := p.current.Span

	typ := p.parseType()
	if typ == nil {
		p.recoverMember()
		return nil
	}

	name, _, ok := p.expectIdent("field name")
	if !ok {
		p.recoverMember()
		return nil
	}

	end := p.previous.Span
	p.expectSemicolon("field")

	return &Field{
		FieldSpan:     Span{File: start.File, Start: start.Start, End: end.End},
		FieldName:     name,
		Documentation: doc,
		Attributes:    attrs,
		Type:          typ,
	}
}

// parseMessage parses: 'message' IDENT '{' messageField* '}'
func (p *Parser) parseMessage(doc string, attrs []*Attribute) Definition {
	start := p.current.Span
	p.advance() // consume 'message'

	name, nameSpan, ok := p.expectIdent("message name")
	if !ok {
		p.synchronize()
		return nil
	}

	if !p.expect(TokenLBrace, "'{' after message name") {
		p.synchronize()
		return nil
	}

	var fields []*Field
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if f := p.parseMessageField(); f != nil {
			fields = append(fields, f)
		}
	}
	end := p.current.Span
	p.expect(TokenRBrace, "'}'")

	return &MessageDef{
		DefHeader: p.header(start, end, name, nameSpan, doc, attrs),
		Fields:    fields,
	}
}

// parseMessageField parses: doc? attr* intLiteral '->' type IDENT ';'
func (p *Parser) parseMessageField() *Field {
	doc := p.takeDoc()
	attrs := p.parseAttributes()
	start := p.current.Span

	index := p.parseIntegerLiteral("message field index")
	if index == nil {
		p.recoverMember()
		return nil
	}

	if !p.expect(TokenArrow, "'->' after field index") {
		p.recoverMember()
		return nil
	}

	typ := p.parseType()
	if typ == nil {
		p.recoverMember()
		return nil
	}

	name, _, ok := p.expectIdent("field name")
	if !ok {
		p.recoverMember()
		return nil
	}

	end := p.previous.Span
	p.expectSemicolon("field")

	return &Field{
		FieldSpan:     Span{File: start.File, Start: start.Start, End: end.End},
		FieldName:     name,
		Documentation: doc,
		Attributes:    attrs,
		Type:          typ,
		Index:         index,
	}
}

// parseUnion parses: 'union' IDENT '{' unionBranch* '}'
func (p *Parser) parseUnion(doc string, attrs []*Attribute) Definition {
	start := p.current.Span
	p.advance() // consume 'union'

	name, nameSpan, ok := p.expectIdent("union name")
	if !ok {
		p.synchronize()
		return nil
	}

	if !p.expect(TokenLBrace, "'{' after union name") {
		p.synchronize()
		return nil
	}

	var branches []*UnionBranch
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if b := p.parseUnionBranch(); b != nil {
			branches = append(branches, b)
		}
	}
	end := p.current.Span
	p.expect(TokenRBrace, "'}'")

	return &UnionDef{
		DefHeader: p.header(start, end, name, nameSpan, doc, attrs),
		Branches:  branches,
	}
}

// parseUnionBranch parses: doc? intLiteral '->' definition ';'
// The nested definition is validated to be a struct or message later.
func (p *Parser) parseUnionBranch() *UnionBranch {
	doc := p.takeDoc()
	start := p.current.Span

	disc := p.parseIntegerLiteral("union discriminator")
	if disc == nil {
		p.recoverMember()
		return nil
	}

	if !p.expect(TokenArrow, "'->' after discriminator") {
		p.recoverMember()
		return nil
	}

	def := p.parseDefinition()
	if def == nil {
		return nil
	}

	end := p.previous.Span
	p.expectSemicolon("union branch")

	return &UnionBranch{
		BranchSpan:    Span{File: start.File, Start: start.Start, End: end.End},
		Documentation: doc,
		Discriminator: disc,
		Def:           def,
	}
}

// parseConst parses: 'const' baseType IDENT '=' literal ';'
func (p *Parser) parseConst(doc string, attrs []*Attribute) Definition {
	start := p.current.Span
	p.advance() // consume 'const'

	base, _, ok := p.parseBaseTypeName()
	if !ok {
		p.synchronize()
		return nil
	}

	name, nameSpan, ok := p.expectIdent("constant name")
	if !ok {
		p.synchronize()
		return nil
	}

	if !p.expect(TokenEquals, "'=' after constant name") {
		p.synchronize()
		return nil
	}

	value := p.parseLiteral()
	if value == nil {
		p.synchronize()
		return nil
	}

	end := p.previous.Span
	p.expectSemicolon("constant")

	return &ConstDef{
		DefHeader: p.header(start, end, name, nameSpan, doc, attrs),
		Type:      base,
		Value:     value,
	}
}

// parseAttributes parses: ('[' IDENT ['(' literal ')'] ']')*
func (p *Parser) parseAttributes() []*Attribute {
	var attrs []*Attribute
	for p.check(TokenLBracket) {
		start := p.current.Span
		p.advance() // consume '['

		if !p.check(TokenIdent) {
			p.errorf(DiagMalformedAttribute, p.current.Span,
				"expected attribute name, found %s", p.current)
			p.skipPast(TokenRBracket)
			continue
		}
		name := p.current.Value
		p.advance()

		var value Literal
		if p.check(TokenLParen) {
			p.advance()
			value = p.parseLiteral()
			if value == nil {
				p.skipPast(TokenRBracket)
				continue
			}
			if !p.check(TokenRParen) {
				p.errorf(DiagMalformedAttribute, p.current.Span,
					"expected ')' after attribute value, found %s", p.current)
				p.skipPast(TokenRBracket)
				continue
			}
			p.advance()
		}

		if !p.check(TokenRBracket) {
			p.errorf(DiagMalformedAttribute, p.current.Span,
				"expected ']' after attribute, found %s", p.current)
			p.skipPast(TokenRBracket)
			continue
		}
		end := p.current.Span
		p.advance()

		attrs = append(attrs, &Attribute{
			AttrSpan: Span{File: start.File, Start: start.Start, End: end.End},
			Name:     name,
			Value:    value,
		})
	}
	return attrs
}

// parseType parses a type reference. The postfix suffixes '?' and '[]' are
// applied left to right, so int32?[] is an array of options and int32[]? is
// an optional array.
func (p *Parser) parseType() TypeRef {
	if !p.check(TokenIdent) {
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected a type, found %s", p.current)
		return nil
	}

	start := p.current.Span
	name := p.current.Value
	p.advance()

	var typ TypeRef
	// "map" is contextual: it begins a map type only when '[' follows.
	if name == "map" && p.check(TokenLBracket) {
		p.advance() // consume '['
		key := p.parseType()
		if key == nil {
			return nil
		}
		if !p.expect(TokenComma, "',' between map key and value types") {
			return nil
		}
		value := p.parseType()
		if value == nil {
			return nil
		}
		if !p.expect(TokenRBracket, "']' after map value type") {
			return nil
		}
		typ = &MapTypeRef{
			TypeSpan: Span{File: start.File, Start: start.Start, End: p.previous.Span.End},
			Key:      key,
			Value:    value,
		}
	} else if base, ok := BaseTypeByName(name); ok {
		typ = &ScalarTypeRef{TypeSpan: start, Base: base}
	} else {
		typ = &NamedTypeRef{TypeSpan: start, Name: name}
	}

	for {
		switch p.current.Kind {
		case TokenQuestion:
			typ = &OptionTypeRef{
				TypeSpan: Span{File: start.File, Start: start.Start, End: p.current.Span.End},
				Element:  typ,
			}
			p.advance()
		case TokenLBracket:
			p.advance()
			if !p.check(TokenRBracket) {
				p.errorf(DiagUnexpectedToken, p.current.Span,
					"expected ']' to close array type, found %s", p.current)
				return nil
			}
			typ = &ArrayTypeRef{
				TypeSpan: Span{File: start.File, Start: start.Start, End: p.current.Span.End},
				Element:  typ,
			}
			p.advance()
		default:
			return typ
		}
	}
}

// parseBaseTypeName parses an identifier that must name a scalar base type.
func (p *Parser) parseBaseTypeName() (BaseType, Span, bool) {
	if !p.check(TokenIdent) {
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected a base type, found %s", p.current)
		return 0, p.current.Span, false
	}
	base, ok := BaseTypeByName(p.current.Value)
	if !ok {
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected a base type, found %q", p.current.Value)
		return 0, p.current.Span, false
	}
	span := p.current.Span
	p.advance()
	return base, span, true
}

// parseLiteral parses a literal value.
func (p *Parser) parseLiteral() Literal {
	span := p.current.Span
	switch p.current.Kind {
	case TokenTrue:
		p.advance()
		return &BoolLiteral{LitSpan: span, Value: true}
	case TokenFalse:
		p.advance()
		return &BoolLiteral{LitSpan: span, Value: false}
	case TokenInt:
		return p.parseIntegerLiteral("literal")
	case TokenFloat:
		text := p.current.Value
		p.advance()
		return &FloatLiteral{LitSpan: span, Text: text}
	case TokenInf:
		p.advance()
		return &FloatLiteral{LitSpan: span, Text: "inf"}
	case TokenNan:
		p.advance()
		return &FloatLiteral{LitSpan: span, Text: "nan"}
	case TokenString:
		value := p.current.Value
		p.advance()
		return &StringLiteral{LitSpan: span, Value: value}
	default:
		p.errorf(DiagMalformedLiteral, span,
			"expected a literal value, found %s", p.current)
		return nil
	}
}

// parseIntegerLiteral parses an integer token into its parts.
func (p *Parser) parseIntegerLiteral(what string) *IntegerLiteral {
	if !p.check(TokenInt) {
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected %s, found %s", what, p.current)
		return nil
	}
	span := p.current.Span
	lexeme := p.current.Value
	p.advance()

	negative := strings.HasPrefix(lexeme, "-")
	digits := strings.TrimPrefix(lexeme, "-")
	hex := false
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		hex = true
		digits = digits[2:]
	}

	return &IntegerLiteral{
		LitSpan:  span,
		Digits:   digits,
		Negative: negative,
		Hex:      hex,
	}
}

// Helper methods

func (p *Parser) header(start, end Span, name string, nameSpan Span, doc string, attrs []*Attribute) DefHeader {
	return DefHeader{
		DefSpan:       Span{File: start.File, Start: start.Start, End: end.End},
		DefName:       name,
		NameSpan:      nameSpan,
		Documentation: doc,
		Attributes:    attrs,
	}
}

// advance pulls the next token, accumulating block comments as pending
// documentation and surfacing lexer errors as diagnostics.
func (p *Parser) advance() {
	p.previous = p.current
	p.doc = ""
	for {
		tok := p.lexer.Next()
		switch tok.Kind {
		case TokenBlockComment:
			if p.doc == "" {
				p.doc = tok.Value
			} else {
				p.doc += "\n" + tok.Value
			}
		case TokenError:
			p.diags.Errorf(tok.ErrKind, []Span{tok.Span}, "%s", tok.Value)
		default:
			p.current = tok
			return
		}
	}
}

// takeDoc returns the documentation bound to the current token and clears it.
func (p *Parser) takeDoc() string {
	doc := p.doc
	p.doc = ""
	return doc
}

func (p *Parser) check(kind TokenKind) bool {
	return p.current.Kind == kind
}

// expect consumes a token of the given kind or records a diagnostic.
func (p *Parser) expect(kind TokenKind, what string) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	p.errorf(DiagUnexpectedToken, p.current.Span,
		"expected %s, found %s", what, p.current)
	return false
}

// expectSemicolon consumes a ';' or records a missing-semicolon diagnostic
// without consuming, so the next member parse can proceed.
func (p *Parser) expectSemicolon(after string) {
	if p.check(TokenSemicolon) {
		p.advance()
		return
	}
	p.errorf(DiagMissingSemicolon, p.previous.Span,
		"expected ';' after %s", after)
}

func (p *Parser) expectIdent(what string) (string, Span, bool) {
	if !p.check(TokenIdent) {
		p.errorf(DiagUnexpectedToken, p.current.Span,
			"expected %s, found %s", what, p.current)
		return "", p.current.Span, false
	}
	name := p.current.Value
	span := p.current.Span
	p.advance()
	return name, span, true
}

func (p *Parser) errorf(kind DiagKind, span Span, format string, args ...any) {
	p.diags.Errorf(kind, []Span{span}, format, args...)
}

// synchronize skips tokens until the next definition-start keyword or a
// closing brace, so one error does not cascade through the rest of a file.
func (p *Parser) synchronize() {
	for !p.check(TokenEOF) {
		if p.previous.Kind == TokenSemicolon || p.previous.Kind == TokenRBrace {
			return
		}
		switch p.current.Kind {
		case TokenImport, TokenEnum, TokenStruct, TokenMessage, TokenUnion, TokenConst, TokenReadonly:
			return
		case TokenRBrace:
			p.advance()
			return
		}
		p.advance()
	}
}

// recoverMember skips to the end of a malformed member: past the next ';',
// or up to (not past) the enclosing '}'.
func (p *Parser) recoverMember() {
	for !p.check(TokenEOF) {
		switch p.current.Kind {
		case TokenSemicolon:
			p.advance()
			return
		case TokenRBrace:
			return
		}
		p.advance()
	}
}

// skipPast advances past the next token of the given kind, stopping early
// at EOF or a closing brace.
func (p *Parser) skipPast(kind TokenKind) {
	for !p.check(TokenEOF) && !p.check(TokenRBrace) {
		if p.check(kind) {
			p.advance()
			return
		}
		p.advance()
	}
}
