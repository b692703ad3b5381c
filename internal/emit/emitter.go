// Package emit implements the combined C4/C5 stage: inferring a Go type
// expression for every schema node reachable from the root document, and
// accumulating the ordered sequence of named declarations those
// expressions reference. The two are one stateful walk, not two passes,
// the same way the teacher's own type mapper folds inference and
// interning together; see DESIGN.md.
package emit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/jsonschema-go/schemagen/internal/ident"
	"github.com/jsonschema-go/schemagen/internal/schema"
)

// IdentifierCollisionError is returned when normalizing two distinct
// names would produce the same Go identifier in the same namespace
// (§7 IdentifierCollision). Unlike the teacher's generator, which
// disambiguates collisions with a numeric suffix, this compiler treats
// a collision as fatal: spec.md requires str_to_ident's output to
// identify its source unambiguously, and silently renumbering breaks
// that for any caller matching declarations by name across runs.
type IdentifierCollisionError struct {
	Name string
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("identifier collision: %q is already declared", e.Name)
}

// Options configures one Expand run (§6 External Interfaces).
type Options struct {
	// RootName, when non-empty, causes the root document itself to be
	// declared as a named type in addition to every definitions entry.
	RootName string
	// DenyUnknownFields marks every emitted struct for strict decoding
	// (§6 deny_unknown_fields).
	DenyUnknownFields bool
}

// Emitter walks a resolved schema document and produces the ordered
// declaration sequence C5 accumulates (§3 "Emission Context"). It is the
// one stateful component in this compiler: usedNames is the
// identifier-collision ledger, and decls is the accumulating output.
type Emitter struct {
	resolver *schema.Resolver
	root     *schema.Schema
	opts     Options

	rootTypeName string
	usedNames    map[string]bool
	decls        []*Decl
	warnings     []Warning
}

// NewEmitter builds an Emitter over root. root must already have passed
// C1 decoding; NewEmitter performs no I/O.
func NewEmitter(root *schema.Schema, opts Options) *Emitter {
	rootTypeName := ""
	if opts.RootName != "" {
		rootTypeName = ident.ToTypeName(opts.RootName).Name
	}
	return &Emitter{
		resolver:     schema.NewResolver(root),
		root:         root,
		opts:         opts,
		rootTypeName: rootTypeName,
		usedNames:    make(map[string]bool),
	}
}

// Expand runs C5's expand_schema dispatch (§4.5) over every definitions
// entry, sorted, followed by the root document itself when RootName is
// configured, and returns the accumulated declaration sequence alongside
// every non-fatal diagnostic recorded along the way (§7
// UnsupportedConstruct's non-fatal severity).
func (e *Emitter) Expand() ([]*Decl, []Warning, error) {
	for _, name := range e.root.SortedDefinitionNames() {
		def := e.root.Definitions[name]
		if err := e.declareNamed(name, def, "/definitions/"+name); err != nil {
			return nil, nil, fmt.Errorf("definitions/%s: %w", name, err)
		}
	}
	if e.opts.RootName != "" {
		if err := e.declareNamed(e.opts.RootName, e.root, ""); err != nil {
			return nil, nil, fmt.Errorf("root: %w", err)
		}
	}
	return e.decls, e.warnings, nil
}

func (e *Emitter) addDecl(d *Decl) {
	e.decls = append(e.decls, d)
}

// warnf records a non-fatal diagnostic at pointer.
func (e *Emitter) warnf(pointer, format string, args ...any) {
	e.warnings = append(e.warnings, Warning{Pointer: pointer, Message: fmt.Sprintf(format, args...)})
}

// declareNamed dispatches one top-level name (a definitions key, or the
// configured root name) to a Struct, Enum, or Alias declaration (§4.5).
func (e *Emitter) declareNamed(rawName string, s *schema.Schema, pointer string) error {
	resolved, err := e.resolver.Resolve(s, pointer)
	if err != nil {
		return err
	}

	if resolved.HasProperties() {
		_, err := e.internStruct(rawName, resolved, pointer)
		return err
	}

	if len(resolved.Enum) > 0 {
		values, allString := classifyEnum(resolved)
		if allString {
			_, err := e.internEnum(rawName, resolved, values, pointer)
			return err
		}
		if len(resolved.EnumNames) > 0 {
			return &schema.UnsupportedConstructError{Pointer: pointer, Reason: "non-string enum paired with enumNames"}
		}
		_, err := e.declareAlias(rawName, Any(), resolved.Description, pointer)
		return err
	}

	// Type alias, otherwise (§4.5). Re-infers from the unresolved s (not
	// resolved) so a plain "$ref" definitions entry aliases its target by
	// name instead of being re-expanded as a duplicate declaration.
	aliasType, _, err := e.inferType(rawName, s, pointer)
	if err != nil {
		return err
	}
	_, err = e.declareAlias(rawName, aliasType, resolved.Description, pointer)
	return err
}

// inferField computes one struct field's Field value: C4's per-usage
// FieldType, plus §4.4's post-rules (self-reference boxing, Optional
// wrapping), plus the bookkeeping (JSON name, rename annotation) C5
// needs to emit it.
func (e *Emitter) inferField(parentType, jsonName string, s *schema.Schema, required bool, pointer string) (Field, error) {
	fieldIdent := ident.ToFieldName(jsonName)
	nameHint := parentType + fieldIdent.Name

	typ, meta, err := e.inferType(nameHint, s, pointer)
	if err != nil {
		return Field{}, err
	}

	// Self-reference boxing: a field whose inferred type is the struct
	// currently being built can't be inlined (infinite size), so it is
	// always pointer-indirected regardless of required/default.
	if typ.Kind == KindNamed && typ.Named == parentType {
		typ = Pointer(typ)
	}

	if !required {
		switch {
		case typ.Kind == KindSlice, typ.Kind == KindMap, typ.IsAny():
			// nil is already a legitimate zero value for these; Go doesn't
			// pointer-wrap a slice, map, or interface to mean "absent".
			meta.Default = true
		case !meta.Default:
			typ = Pointer(typ)
		}
	}

	var description string
	if s != nil {
		description = s.Description
	}

	return Field{
		GoName:   fieldIdent.Name,
		JSONName: jsonName,
		Doc:      cleanDoc(description),
		Type:     typ,
		Required: required,
		Default:  meta.Default,
		Codec:    meta.Codec,
		Rename:   renameFor(fieldIdent, jsonName),
	}, nil
}

// fieldMeta carries the parts of C4's FieldType that aren't themselves a
// type expression: the default-constructibility bit and any codec
// annotation a field's value needs (§4.4).
type fieldMeta struct {
	Default bool
	Codec   Codec
}

// inferType is C4's primary rule selection (§4.4), run once per schema
// usage site: a struct field's value, an array's item type, or a map's
// value type. Rule precedence, in order: $ref (purely syntactic); the
// two-branch anyOf OneOrMany mirror; a oneOf (untyped value plus a
// warning); a multi-value "type"; the
// single-value type switch; an untyped schema with properties (implicit
// object); otherwise the untyped-value fallback.
func (e *Emitter) inferType(nameHint string, s *schema.Schema, pointer string) (Expr, fieldMeta, error) {
	if s == nil {
		return Any(), fieldMeta{}, nil
	}

	// Rule 1: $ref names its target without resolving or re-walking it.
	if s.Ref != "" {
		return e.refType(s.Ref), fieldMeta{}, nil
	}

	resolved, err := e.resolver.Resolve(s, pointer)
	if err != nil {
		return Expr{}, fieldMeta{}, err
	}

	// Rule 2: anyOf of exactly [T, array-of-T] collapses to a Sequence<T>.
	if len(resolved.AnyOf) == 2 {
		typ, meta, ok, err := e.tryOneOrMany(nameHint, resolved, pointer)
		if err != nil {
			return Expr{}, fieldMeta{}, err
		}
		if ok {
			return typ, meta, nil
		}
	}

	// oneOf: this compiler does not synthesize a tagged union (see
	// DESIGN.md's Open Question resolution). The constraint is not
	// silently dropped — it lowers to the untyped value with a recorded
	// warning naming the JSON pointer of the dropped composition (§9).
	if len(resolved.OneOf) > 0 {
		e.warnf(pointer, "oneOf constraint dropped; emitting untyped value")
		return Any(), fieldMeta{}, nil
	}

	types := resolved.Type.Values()
	if len(types) > 1 {
		return e.inferMultiType(nameHint, resolved, types, pointer)
	}

	return e.dispatchSimple(resolved.Type.Single(), nameHint, resolved, pointer)
}

// dispatchSimple is rule 3: the single-"type"-value switch, plus the
// untyped-with-properties and untyped-value fallbacks. Shared between
// inferType's direct dispatch and inferMultiType's narrowed retry.
func (e *Emitter) dispatchSimple(typ, nameHint string, resolved *schema.Schema, pointer string) (Expr, fieldMeta, error) {
	switch typ {
	case "string":
		return e.inferString(nameHint, resolved, pointer)
	case "integer":
		return Builtin("int64"), fieldMeta{}, nil
	case "number":
		return Builtin("float64"), fieldMeta{}, nil
	case "boolean":
		return Builtin("bool"), fieldMeta{}, nil
	case "object":
		return e.inferObject(nameHint, resolved, pointer)
	case "array":
		return e.inferArray(nameHint, resolved, pointer)
	case "null":
		return Any(), fieldMeta{}, nil
	}

	// No explicit "type": an object shape is still recognizable by its
	// properties (rule 3's implicit-object case).
	if resolved.HasProperties() {
		return e.inferObject(nameHint, resolved, pointer)
	}

	// Rule 4: nothing usable survived resolution; untyped value.
	return Any(), fieldMeta{}, nil
}

// inferMultiType handles a "type" sequence of more than one name. The
// only shape this compiler gives a precise type to is exactly one
// non-null type alongside "null", which narrows to that type wrapped in
// Optional<·>; anything broader falls back to the untyped value.
func (e *Emitter) inferMultiType(nameHint string, resolved *schema.Schema, types []string, pointer string) (Expr, fieldMeta, error) {
	var nonNull []string
	for _, t := range types {
		if t != "null" {
			nonNull = append(nonNull, t)
		}
	}
	if len(nonNull) != 1 {
		return Any(), fieldMeta{}, nil
	}

	typ, meta, err := e.dispatchSimple(nonNull[0], nameHint, resolved, pointer)
	if err != nil {
		return Expr{}, fieldMeta{}, err
	}
	if len(nonNull) < len(types) {
		typ = Pointer(typ)
	}
	return typ, meta, nil
}

// refType is rule 1 (§4.4): "#" names the configured root declaration;
// "#/definitions/<name>" names PascalCase(<name>). Neither form resolves
// or walks the referenced schema — that is precisely what keeps
// recursive definitions representable without infinite expansion.
func (e *Emitter) refType(ref string) Expr {
	if ref == "#" {
		if e.rootTypeName == "" {
			return Any()
		}
		return Named(e.rootTypeName)
	}
	segs := strings.Split(ref, "/")
	last := segs[len(segs)-1]
	return Named(ident.ToTypeName(last).Name)
}

// tryOneOrMany is rule 2: an anyOf of exactly two branches collapses to
// a Sequence<T> when the second branch is an array whose item schema is
// structurally identical to the first branch (the "OneOrMany" idiom;
// §4.1, grounded on pkgspec/stringorstrings.go's hand-written
// equivalent in the teacher's own dependency closure).
func (e *Emitter) tryOneOrMany(nameHint string, resolved *schema.Schema, pointer string) (Expr, fieldMeta, bool, error) {
	first, second := resolved.AnyOf[0], resolved.AnyOf[1]

	secondResolved, err := e.resolver.Resolve(second, pointer+"/anyOf/1")
	if err != nil {
		return Expr{}, fieldMeta{}, false, err
	}
	if secondResolved.Type.Single() != "array" || secondResolved.Items == nil {
		return Expr{}, fieldMeta{}, false, nil
	}
	elemSchema := secondResolved.Items.First()
	if elemSchema == nil {
		return Expr{}, fieldMeta{}, false, nil
	}

	firstResolved, err := e.resolver.Resolve(first, pointer+"/anyOf/0")
	if err != nil {
		return Expr{}, fieldMeta{}, false, err
	}
	elemResolved, err := e.resolver.Resolve(elemSchema, pointer+"/anyOf/1/items")
	if err != nil {
		return Expr{}, fieldMeta{}, false, err
	}
	if !reflect.DeepEqual(firstResolved, elemResolved) {
		return Expr{}, fieldMeta{}, false, nil
	}

	elemType, _, err := e.inferType(nameHint, first, pointer+"/anyOf/0")
	if err != nil {
		return Expr{}, fieldMeta{}, false, err
	}
	return Slice(elemType), fieldMeta{Default: true, Codec: CodecOneOrMany}, true, nil
}

// inferString is rule 3's string case, supplemented to intern a named
// enum type when a usable name and a non-empty string-valued enum are
// both present (the teacher's processSchema takes exactly this branch
// for "type":"string" plus "enum"; see DESIGN.md for why this compiler
// generalizes spec.md's top-level-only enum dispatch to apply at any
// named usage site, not only definitions entries).
func (e *Emitter) inferString(nameHint string, resolved *schema.Schema, pointer string) (Expr, fieldMeta, error) {
	if len(resolved.Enum) > 0 && nameHint != "" {
		values, allString := classifyEnum(resolved)
		if allString {
			typ, err := e.internEnum(nameHint, resolved, values, pointer)
			return typ, fieldMeta{}, err
		}
		if len(resolved.EnumNames) > 0 {
			return Expr{}, fieldMeta{}, &schema.UnsupportedConstructError{Pointer: pointer, Reason: "non-string enum paired with enumNames"}
		}
		// Non-string enum with no enumNames: no constraint worth naming,
		// fall through to the plain string type.
	}
	return Builtin("string"), fieldMeta{}, nil
}

// inferObject is rule 3's object case. A non-empty "properties" always
// wins over "additionalProperties" (the teacher's own precedence in
// typemap.go; see DESIGN.md) — only a property-less object with a
// schema-valued (or true) additionalProperties becomes a map, and a property-less
// object with additionalProperties: false or absent becomes the
// untyped-value fallback rather than an empty struct.
func (e *Emitter) inferObject(nameHint string, resolved *schema.Schema, pointer string) (Expr, fieldMeta, error) {
	if resolved.HasProperties() {
		typ, err := e.internStruct(nameHint, resolved, pointer)
		return typ, fieldMeta{}, err
	}

	if resolved.AdditionalProperties != nil && resolved.AdditionalProperties.Schema != nil {
		valueType, _, err := e.inferType(nameHint+"Value", resolved.AdditionalProperties.Schema, pointer+"/additionalProperties")
		if err != nil {
			return Expr{}, fieldMeta{}, err
		}
		return Map(Builtin("string"), valueType), fieldMeta{Default: isEmptyObjectDefault(resolved.Default)}, nil
	}

	if resolved.AdditionalProperties == nil || resolved.AdditionalProperties.IsFalse() {
		return Any(), fieldMeta{}, nil
	}

	return Map(Builtin("string"), Any()), fieldMeta{Default: isEmptyObjectDefault(resolved.Default)}, nil
}

// inferArray is rule 3's array case: a single Expr.Slice over the item
// schema. Tuple-typed items (a JSON array of schemas rather than one
// schema) take only the first entry, the same simplification the
// teacher's typemap.go makes for heterogeneous tuples it doesn't model
// precisely.
func (e *Emitter) inferArray(nameHint string, resolved *schema.Schema, pointer string) (Expr, fieldMeta, error) {
	elemSchema := resolved.Items.First()
	if elemSchema == nil {
		return Slice(Any()), fieldMeta{}, nil
	}
	elemType, _, err := e.inferType(singularize(nameHint), elemSchema, pointer+"/items")
	if err != nil {
		return Expr{}, fieldMeta{}, err
	}
	return Slice(elemType), fieldMeta{}, nil
}

// internStruct synthesizes (or, for a top-level call, finalizes) a
// struct declaration from a schema already known to have non-empty
// properties, appends it to the declaration sequence, and returns a
// reference to it. Anonymous nested objects intern exactly this way the
// moment they're encountered, depth-first — which is why a nested
// struct's Decl always lands earlier in the sequence than its parent's
// (the parent's own append can't happen until its full Fields slice,
// built by this same recursion, is complete).
func (e *Emitter) internStruct(rawName string, resolved *schema.Schema, pointer string) (Expr, error) {
	name, renamed, err := e.uniqueTypeName(rawName)
	if err != nil {
		return Expr{}, err
	}

	decl := &Decl{
		Name:              name,
		Doc:               cleanDoc(resolved.Description),
		Kind:              DeclStruct,
		DenyUnknownFields: e.opts.DenyUnknownFields,
		SourcePointer:     pointer,
	}
	if renamed {
		decl.Rename = &Rename{Original: rawName}
	}

	for _, propName := range resolved.SortedPropertyNames() {
		propSchema := resolved.Properties[propName]
		field, err := e.inferField(name, propName, propSchema, resolved.IsRequired(propName), pointer+"/properties/"+propName)
		if err != nil {
			return Expr{}, fmt.Errorf("field %q: %w", propName, err)
		}
		decl.Fields = append(decl.Fields, field)
	}
	decl.DefaultConstructible = defaultConstructible(decl.Fields)

	e.addDecl(decl)
	return Named(name), nil
}

// internEnum synthesizes an enum declaration from a non-empty,
// string-valued "enum", appends it, and returns a reference to it.
// Constant names share the package-level identifier namespace with
// every struct and alias name this emitter produces, so a collision
// here is exactly as fatal as a type-name collision (§8 property 3).
func (e *Emitter) internEnum(rawName string, resolved *schema.Schema, values []string, pointer string) (Expr, error) {
	name, renamed, err := e.uniqueTypeName(rawName)
	if err != nil {
		return Expr{}, err
	}

	decl := &Decl{
		Name:          name,
		Doc:           cleanDoc(resolved.Description),
		Kind:          DeclEnum,
		SourcePointer: pointer,
	}
	if renamed {
		decl.Rename = &Rename{Original: rawName}
	}

	for i, v := range values {
		variant := ident.ToEnumVariant(v)
		constName := name + variant.Name
		if e.usedNames[constName] {
			return Expr{}, &IdentifierCollisionError{Name: constName}
		}
		e.usedNames[constName] = true

		var doc string
		if i < len(resolved.EnumNames) {
			doc = resolved.EnumNames[i]
		}
		ev := EnumValue{GoName: constName, Value: v, Doc: doc}
		if variant.Rename {
			ev.Rename = &Rename{Original: v}
		}
		decl.EnumValues = append(decl.EnumValues, ev)
	}

	e.addDecl(decl)
	return Named(name), nil
}

// declareAlias appends a type-alias declaration — §4.5's "otherwise"
// case for a named schema with neither properties nor a usable enum.
func (e *Emitter) declareAlias(rawName string, aliasOf Expr, doc, pointer string) (Expr, error) {
	name, renamed, err := e.uniqueTypeName(rawName)
	if err != nil {
		return Expr{}, err
	}
	decl := &Decl{
		Name:          name,
		Doc:           cleanDoc(doc),
		Kind:          DeclAlias,
		Alias:         aliasOf,
		SourcePointer: pointer,
	}
	if renamed {
		decl.Rename = &Rename{Original: rawName}
	}
	e.addDecl(decl)
	return Named(name), nil
}

// uniqueTypeName normalizes raw to a PascalCase Go identifier and
// registers it in the shared package-level namespace, or fails with
// IdentifierCollisionError if another declaration already claimed it.
func (e *Emitter) uniqueTypeName(raw string) (string, bool, error) {
	id := ident.ToTypeName(raw)
	if e.usedNames[id.Name] {
		return "", false, &IdentifierCollisionError{Name: id.Name}
	}
	e.usedNames[id.Name] = true
	return id.Name, id.Rename, nil
}

// classifyEnum reports whether every element of s.Enum decodes as a
// JSON string, and if so, their decoded values in order.
func classifyEnum(s *schema.Schema) ([]string, bool) {
	values := make([]string, 0, len(s.Enum))
	for _, raw := range s.Enum {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil, false
		}
		values = append(values, str)
	}
	return values, true
}

// isEmptyObjectDefault reports whether raw is the JSON literal "{}",
// the one "default" value this compiler recognizes for a map-typed
// field (an explicit empty-object default makes a nil map an equally
// valid zero value, so the field can skip Optional<·> wrapping).
func isEmptyObjectDefault(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}

// renameFor builds the field-level rename annotation carried alongside
// the mandatory `json:"..."` struct tag (§3 "rename annotation"; see
// ident.ToFieldName's doc comment for why Go needs this even when the
// identifier itself isn't the rename signal).
func renameFor(id ident.Ident, raw string) *Rename {
	if !id.Rename {
		return nil
	}
	return &Rename{Original: raw}
}

// cleanDoc trims a schema "description" into a doc-comment-ready string.
func cleanDoc(s string) string {
	return strings.TrimSpace(s)
}

// singularize turns a trailing "ies" into "y", drops the "es" of a
// trailing "ses", and otherwise drops a single trailing "s" (but not
// "ss"), so an array field's synthesized item-type name doesn't read as
// a plural ("Tags" -> "Tag").
func singularize(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "ses") && len(name) > 3:
		return name[:len(name)-2]
	case strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss") && len(name) > 1:
		return name[:len(name)-1]
	default:
		return name
	}
}
