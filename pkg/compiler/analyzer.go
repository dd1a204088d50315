package compiler

import (
	"github.com/bebopkit/bebopc/pkg/schema"
)

// scope is one level of name resolution. Lookups start at the innermost
// scope and walk outward.
type scope struct {
	parent *scope
	names  map[string]DefID
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]DefID)}
}

func (s *scope) lookup(name string) (DefID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.names[name]; ok {
			return id, true
		}
	}
	return NoDef, false
}

// analyzer runs the semantic passes over parsed files.
type analyzer struct {
	out   *Schema
	diags *schema.Diagnostics

	top     *scope
	astOf   map[DefID]schema.Definition
	scopeOf map[DefID]*scope // scope the definition's members resolve in
	idOf    map[schema.Definition]DefID
}

// Analyze resolves and validates parsed files into a Schema. It collects as
// many diagnostics as it sensibly can; when diags contains errors afterward
// the returned schema must not be surfaced as success.
func Analyze(sm *schema.SourceMap, files []*schema.File, diags *schema.Diagnostics) *Schema {
	a := &analyzer{
		out:     newSchema(sm),
		diags:   diags,
		top:     newScope(nil),
		astOf:   make(map[DefID]schema.Definition),
		scopeOf: make(map[DefID]*scope),
		idOf:    make(map[schema.Definition]DefID),
	}

	// Pass 1: scope construction.
	for _, file := range files {
		for _, def := range file.Definitions {
			a.collect(def, a.top, NoDef, true)
		}
	}

	// Passes 2 and 3: reference resolution and structural invariants,
	// definition by definition in intern order.
	for id := DefID(0); int(id) < len(a.out.defs); id++ {
		switch def := a.out.defs[id].(type) {
		case *Enum:
			a.analyzeEnum(def, a.astOf[id].(*schema.EnumDef))
		case *Struct:
			a.analyzeFields(&def.DefHeader, &def.Fields, a.astOf[id].(*schema.StructDef).Fields, false)
		case *Message:
			a.analyzeFields(&def.DefHeader, &def.Fields, a.astOf[id].(*schema.MessageDef).Fields, true)
		case *Union:
			a.analyzeUnion(def, a.astOf[id].(*schema.UnionDef))
		}
	}

	// Pass 4: recursion check over the must-store-inline graph.
	a.checkRecursion()

	// Pass 5: constant evaluation.
	for id := DefID(0); int(id) < len(a.out.defs); id++ {
		if def, ok := a.out.defs[id].(*Const); ok {
			a.evalConst(def, a.astOf[id].(*schema.ConstDef))
		}
	}

	// Pass 6: opcode uniqueness.
	a.checkOpcodes()

	return a.out
}

// collect interns a definition shell, registers its name in the enclosing
// scope, and recurses into union branches with a child scope.
func (a *analyzer) collect(def schema.Definition, sc *scope, parent DefID, topLevel bool) DefID {
	header := DefHeader{
		Name:          def.Name(),
		Span:          def.Span(),
		Documentation: def.Doc(),
		Parent:        parent,
	}

	var ir Definition
	switch d := def.(type) {
	case *schema.EnumDef:
		ir = &Enum{DefHeader: header, Base: d.Base}
	case *schema.StructDef:
		ir = &Struct{DefHeader: header, Readonly: d.Readonly}
	case *schema.MessageDef:
		ir = &Message{DefHeader: header}
	case *schema.UnionDef:
		ir = &Union{DefHeader: header}
	case *schema.ConstDef:
		ir = &Const{DefHeader: header, Type: d.Type}
	default:
		return NoDef
	}

	id := a.out.add(ir)
	a.astOf[id] = def
	a.idOf[def] = id
	a.applyAttributes(ir, def.Attrs())

	if prev, exists := sc.names[def.Name()]; exists {
		a.diags.Errorf(schema.DiagDuplicateDefinition,
			[]schema.Span{def.Span(), a.out.defs[prev].Header().Span},
			"%q is defined more than once in the same scope", def.Name())
	} else {
		sc.names[def.Name()] = id
	}
	if topLevel {
		a.out.topLevel = append(a.out.topLevel, id)
		if _, exists := a.out.byName[def.Name()]; !exists {
			a.out.byName[def.Name()] = id
		}
	}

	memberScope := sc
	if u, ok := def.(*schema.UnionDef); ok {
		memberScope = newScope(sc)
		for _, branch := range u.Branches {
			a.collect(branch.Def, memberScope, id, false)
		}
	}
	a.scopeOf[id] = memberScope

	return id
}

// applyAttributes resolves the recognized attributes onto a definition.
func (a *analyzer) applyAttributes(def Definition, attrs []*schema.Attribute) {
	header := def.Header()
	for _, attr := range attrs {
		switch attr.Name {
		case "opcode":
			opcode, ok := a.parseOpcode(attr)
			if !ok {
				continue
			}
			switch d := def.(type) {
			case *Struct:
				d.Opcode = opcode
			case *Message:
				d.Opcode = opcode
			case *Union:
				d.Opcode = opcode
			default:
				a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{attr.Span()},
					"opcode is not allowed on %s %q", def.Kind(), header.Name)
			}
		case "deprecated":
			header.Deprecated = true
			if s, ok := attr.Value.(*schema.StringLiteral); ok {
				header.DeprecationReason = s.Value
			} else if attr.Value != nil {
				a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{attr.Span()},
					"deprecated takes a string reason")
			}
		case "flags":
			if e, ok := def.(*Enum); ok {
				e.IsFlags = true
			} else {
				a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{attr.Span()},
					"flags is only allowed on enums")
			}
		default:
			a.diags.Warnf(schema.DiagUnsupportedFeature, []schema.Span{attr.Span()},
				"unknown attribute %q ignored", attr.Name)
		}
	}
}

// parseOpcode evaluates an opcode attribute: a u32 literal or a four
// character ASCII tag packed little-endian.
func (a *analyzer) parseOpcode(attr *schema.Attribute) (Opcode, bool) {
	span := attr.Span()
	switch v := attr.Value.(type) {
	case *schema.IntegerLiteral:
		bits, ok := a.evalInteger(v, schema.BaseUInt32, schema.DiagMalformedAttribute, "opcode")
		if !ok {
			return Opcode{}, false
		}
		return Opcode{Value: uint32(bits), IsSet: true, Span: span}, true
	case *schema.StringLiteral:
		if len(v.Value) != 4 {
			a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{span},
				"opcode tag must be exactly four characters, got %d", len(v.Value))
			return Opcode{}, false
		}
		var value uint32
		for i := 0; i < 4; i++ {
			c := v.Value[i]
			if c > 0x7F {
				a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{span},
					"opcode tag must be ASCII")
				return Opcode{}, false
			}
			value |= uint32(c) << (8 * i)
		}
		return Opcode{Value: value, IsSet: true, Span: span}, true
	default:
		a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{span},
			"opcode requires an integer or four-character string argument")
		return Opcode{}, false
	}
}

// fieldAttributes resolves the attributes allowed on fields and members.
func (a *analyzer) fieldAttributes(attrs []*schema.Attribute, deprecated *bool, reason *string) {
	for _, attr := range attrs {
		switch attr.Name {
		case "deprecated":
			*deprecated = true
			if s, ok := attr.Value.(*schema.StringLiteral); ok {
				*reason = s.Value
			}
		case "opcode", "flags":
			a.diags.Errorf(schema.DiagMalformedAttribute, []schema.Span{attr.Span()},
				"%s is not allowed on a field", attr.Name)
		default:
			a.diags.Warnf(schema.DiagUnsupportedFeature, []schema.Span{attr.Span()},
				"unknown attribute %q ignored", attr.Name)
		}
	}
}

// analyzeEnum validates member values against the base type and checks
// uniqueness (unless the enum is a flags enum).
func (a *analyzer) analyzeEnum(def *Enum, ast *schema.EnumDef) {
	seenValues := make(map[uint64]string)
	seenNames := make(map[string]schema.Span)

	for _, m := range ast.Members {
		member := EnumMember{
			Name:          m.MemberName,
			Documentation: m.Documentation,
			Span:          m.Span(),
		}
		a.fieldAttributes(m.Attributes, &member.Deprecated, &member.DeprecationReason)

		if prev, dup := seenNames[m.MemberName]; dup {
			a.diags.Errorf(schema.DiagDuplicateDefinition,
				[]schema.Span{m.Span(), prev},
				"enum member %q is defined more than once", m.MemberName)
		} else {
			seenNames[m.MemberName] = m.Span()
		}

		bits, ok := a.evalInteger(m.Value, def.Base, schema.DiagEnumValueOutOfRange, "enum member value")
		if !ok {
			continue
		}
		member.Value = bits

		if prev, dup := seenValues[bits]; dup && !def.IsFlags {
			a.diags.Errorf(schema.DiagDuplicateDefinition, []schema.Span{m.Value.Span()},
				"enum value %s duplicates member %q", m.Value.Digits, prev)
		} else if !dup {
			seenValues[bits] = m.MemberName
		}

		def.Members = append(def.Members, member)
	}
}

// analyzeFields resolves field types for a struct or message and, for
// messages, enforces the index rules: indices in 1..255, strictly
// increasing, with 0 reserved as the end-of-message sentinel.
func (a *analyzer) analyzeFields(header *DefHeader, out *[]Field, fields []*schema.Field, message bool) {
	sc := a.scopeOf[header.ID]
	seenNames := make(map[string]schema.Span)
	lastIndex := int64(0)

	for _, f := range fields {
		field := Field{
			Name:          f.FieldName,
			Documentation: f.Documentation,
			Span:          f.Span(),
		}
		a.fieldAttributes(f.Attributes, &field.Deprecated, &field.DeprecationReason)

		if prev, dup := seenNames[f.FieldName]; dup {
			a.diags.Errorf(schema.DiagDuplicateDefinition,
				[]schema.Span{f.Span(), prev},
				"field %q is defined more than once", f.FieldName)
		} else {
			seenNames[f.FieldName] = f.Span()
		}

		field.Type = a.resolveType(f.Type, sc, header)

		if message {
			index, ok := a.evalFieldIndex(f.Index, "field index")
			if ok {
				switch {
				case index == lastIndex:
					a.diags.Errorf(schema.DiagDuplicateFieldIndex, []schema.Span{f.Index.Span()},
						"field index %d is already used", index)
				case index < lastIndex:
					a.diags.Errorf(schema.DiagFieldIndexNotIncreasing, []schema.Span{f.Index.Span()},
						"field index %d is not greater than the preceding index %d", index, lastIndex)
				default:
					field.Index = uint8(index)
					lastIndex = index
				}
			}
		}

		*out = append(*out, field)
	}
}

// analyzeUnion checks discriminators and branch kinds.
func (a *analyzer) analyzeUnion(def *Union, ast *schema.UnionDef) {
	if len(ast.Branches) == 0 {
		a.diags.Errorf(schema.DiagInvalidUnionBranch, []schema.Span{def.Span},
			"union %q has no branches; a union must have at least one", def.Name)
		return
	}

	lastDisc := int64(0)
	for _, b := range ast.Branches {
		branchID, ok := a.idOf[b.Def]
		if !ok {
			continue
		}
		branch := UnionBranch{
			Def:           branchID,
			Documentation: b.Documentation,
			Span:          b.Span(),
		}

		switch a.out.defs[branchID].Kind() {
		case KindStruct, KindMessage:
		default:
			a.diags.Errorf(schema.DiagInvalidUnionBranch, []schema.Span{b.Span()},
				"union branch %q must be a struct or message, not %s",
				a.out.defs[branchID].Header().Name, a.out.defs[branchID].Kind())
		}

		disc, ok := a.evalFieldIndex(b.Discriminator, "union discriminator")
		if ok {
			switch {
			case disc == lastDisc:
				a.diags.Errorf(schema.DiagDuplicateFieldIndex, []schema.Span{b.Discriminator.Span()},
					"discriminator %d is already used", disc)
			case disc < lastDisc:
				a.diags.Errorf(schema.DiagFieldIndexNotIncreasing, []schema.Span{b.Discriminator.Span()},
					"discriminator %d is not greater than the preceding discriminator %d", disc, lastDisc)
			default:
				branch.Discriminator = uint8(disc)
				lastDisc = disc
			}
		}

		def.Branches = append(def.Branches, branch)
	}
}

// evalFieldIndex evaluates a message field index or union discriminator
// literal and checks the 1..255 range. Index 0 is reserved.
func (a *analyzer) evalFieldIndex(lit *schema.IntegerLiteral, what string) (int64, bool) {
	if lit == nil {
		return 0, false
	}
	bits, ok := a.evalInteger(lit, schema.BaseUInt64, schema.DiagFieldIndexOutOfRange, what)
	if !ok {
		return 0, false
	}
	value := int64(bits)
	if value == 0 {
		if what == "field index" {
			a.diags.Errorf(schema.DiagReservedFieldIndexZero, []schema.Span{lit.Span()},
				"field index 0 is reserved as the end-of-message sentinel")
		} else {
			a.diags.Errorf(schema.DiagFieldIndexOutOfRange, []schema.Span{lit.Span()},
				"%s must be in 1..255, got 0", what)
		}
		return 0, false
	}
	if value < 0 || value > 255 {
		a.diags.Errorf(schema.DiagFieldIndexOutOfRange, []schema.Span{lit.Span()},
			"%s must be in 1..255, got %s", what, lit.Digits)
		return 0, false
	}
	return value, true
}

// resolveType rewrites an unresolved type reference into a resolved Type.
// Unresolved names poison the containing definition.
func (a *analyzer) resolveType(ref schema.TypeRef, sc *scope, owner *DefHeader) Type {
	switch t := ref.(type) {
	case *schema.ScalarTypeRef:
		return ScalarType{Base: t.Base}
	case *schema.ArrayTypeRef:
		return ArrayType{Element: a.resolveType(t.Element, sc, owner)}
	case *schema.MapTypeRef:
		return MapType{
			Key:   a.resolveType(t.Key, sc, owner),
			Value: a.resolveType(t.Value, sc, owner),
		}
	case *schema.OptionTypeRef:
		return OptionType{Element: a.resolveType(t.Element, sc, owner)}
	case *schema.NamedTypeRef:
		id, ok := sc.lookup(t.Name)
		if !ok {
			a.diags.Errorf(schema.DiagUnknownType, []schema.Span{t.Span()},
				"unknown type %q", t.Name)
			owner.Poisoned = true
			return DefType{ID: NoDef, Name: t.Name}
		}
		if a.out.defs[id].Kind() == KindConst {
			a.diags.Errorf(schema.DiagUnknownType, []schema.Span{t.Span()},
				"%q names a constant, not a type", t.Name)
			owner.Poisoned = true
			return DefType{ID: NoDef, Name: t.Name}
		}
		return DefType{ID: id, Name: t.Name}
	default:
		owner.Poisoned = true
		return DefType{ID: NoDef}
	}
}

// checkRecursion finds cycles in the must-store-inline graph: an edge runs
// from a struct to every struct its fields reference directly, not behind
// an array, map, option, message, or union.
func (a *analyzer) checkRecursion() {
	const (
		white = iota
		grey
		black
	)
	state := make(map[DefID]int)
	reported := make(map[DefID]bool)

	var visit func(id DefID)
	visit = func(id DefID) {
		st, ok := a.out.defs[id].(*Struct)
		if !ok {
			return
		}
		state[id] = grey
		for _, field := range st.Fields {
			target, ok := a.inlineStructTarget(field.Type)
			if !ok {
				continue
			}
			switch state[target] {
			case white:
				visit(target)
			case grey:
				if !reported[target] {
					reported[target] = true
					a.diags.Errorf(schema.DiagInfiniteStruct, []schema.Span{field.Span},
						"field %q makes struct %q contain itself by value; use an indirection such as %s? to break the cycle",
						field.Name, a.out.defs[target].Header().Name, field.Type)
				}
			}
		}
		state[id] = black
	}

	for id := DefID(0); int(id) < len(a.out.defs); id++ {
		if state[id] == white {
			visit(id)
		}
	}
}

// inlineStructTarget returns the struct a type stores inline, if any.
func (a *analyzer) inlineStructTarget(t Type) (DefID, bool) {
	dt, ok := t.(DefType)
	if !ok || dt.ID == NoDef {
		return NoDef, false
	}
	if _, isStruct := a.out.defs[dt.ID].(*Struct); !isStruct {
		return NoDef, false
	}
	return dt.ID, true
}

// checkOpcodes enforces global opcode uniqueness.
func (a *analyzer) checkOpcodes() {
	seen := make(map[uint32]DefID)
	for id := DefID(0); int(id) < len(a.out.defs); id++ {
		opcode, ok := opcodeOf(a.out.defs[id])
		if !ok || !opcode.IsSet {
			continue
		}
		if prev, dup := seen[opcode.Value]; dup {
			prevOpcode, _ := opcodeOf(a.out.defs[prev])
			a.diags.Errorf(schema.DiagDuplicateOpcode,
				[]schema.Span{opcode.Span, prevOpcode.Span},
				"opcode 0x%08X is already used by %q",
				opcode.Value, a.out.defs[prev].Header().Name)
			continue
		}
		seen[opcode.Value] = id
	}
}

// opcodeOf extracts the opcode from the definitions that may carry one.
func opcodeOf(def Definition) (Opcode, bool) {
	switch d := def.(type) {
	case *Struct:
		return d.Opcode, true
	case *Message:
		return d.Opcode, true
	case *Union:
		return d.Opcode, true
	default:
		return Opcode{}, false
	}
}
