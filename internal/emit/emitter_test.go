package emit

import (
	"testing"

	"github.com/jsonschema-go/schemagen/internal/schema"
)

func expand(t *testing.T, doc string, rootName string) []*Decl {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := NewEmitter(s, Options{RootName: rootName})
	decls, _, err := e.Expand()
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return decls
}

func declByName(t *testing.T, decls []*Decl, name string) *Decl {
	t.Helper()
	for _, d := range decls {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("no declaration named %q among %d decls", name, len(decls))
	return nil
}

func fieldByJSON(t *testing.T, d *Decl, jsonName string) Field {
	t.Helper()
	for _, f := range d.Fields {
		if f.JSONName == jsonName {
			return f
		}
	}
	t.Fatalf("struct %q has no field with JSON name %q", d.Name, jsonName)
	return Field{}
}

// E1: a basic object with a required and an optional property produces
// a Person struct whose required field is unwrapped and whose optional
// field is pointer-wrapped.
func TestPersonStruct(t *testing.T) {
	decls := expand(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name"]
	}`, "Person")

	d := declByName(t, decls, "Person")
	if d.Kind != DeclStruct {
		t.Fatalf("Person kind = %v, want DeclStruct", d.Kind)
	}

	name := fieldByJSON(t, d, "name")
	if name.Type.String() != "string" || !name.Required {
		t.Fatalf("name field = %+v", name)
	}

	age := fieldByJSON(t, d, "age")
	if age.Type.String() != "*int64" {
		t.Fatalf("age field type = %q, want *int64", age.Type.String())
	}
	if age.Required {
		t.Fatal("age should not be required")
	}
}

// E2: a property literally named "$ref" normalizes to a Go field name
// that carries a rename annotation back to the original JSON name.
func TestDollarRefPropertyRenamed(t *testing.T) {
	decls := expand(t, `{
		"type": "object",
		"properties": {
			"$ref": {"type": "string"}
		}
	}`, "Wrapper")

	d := declByName(t, decls, "Wrapper")
	f := fieldByJSON(t, d, "$ref")
	if f.GoName != "Ref_" {
		t.Fatalf("GoName = %q, want Ref_", f.GoName)
	}
	if f.Rename == nil || f.Rename.Original != "$ref" {
		t.Fatalf("Rename = %+v, want Original=$ref", f.Rename)
	}
}

// E3: anyOf of [string, array-of-string] collapses to a plain []string
// field carrying the OneOrMany codec annotation.
func TestOneOrManyCollapse(t *testing.T) {
	decls := expand(t, `{
		"type": "object",
		"properties": {
			"tags": {
				"anyOf": [
					{"type": "string"},
					{"type": "array", "items": {"type": "string"}}
				]
			}
		}
	}`, "Doc")

	d := declByName(t, decls, "Doc")
	f := fieldByJSON(t, d, "tags")
	if f.Type.String() != "[]string" {
		t.Fatalf("tags type = %q, want []string", f.Type.String())
	}
	if f.Codec != CodecOneOrMany {
		t.Fatalf("tags codec = %v, want CodecOneOrMany", f.Codec)
	}
	if !f.Default {
		t.Fatal("a collapsed OneOrMany field should be default-constructible (nil slice)")
	}
}

// E4: a self-referential object gets its recursive field boxed in a
// pointer, and the struct is otherwise default-constructible.
func TestSelfReferenceBoxed(t *testing.T) {
	decls := expand(t, `{
		"type": "object",
		"properties": {
			"next": {"$ref": "#"}
		}
	}`, "Node")

	d := declByName(t, decls, "Node")
	f := fieldByJSON(t, d, "next")
	if f.Type.String() != "*Node" {
		t.Fatalf("next type = %q, want *Node", f.Type.String())
	}
	if !d.DefaultConstructible {
		t.Fatal("Node should be default-constructible: its only field is a pointer")
	}
}

// E5: a string enum interns a named enum type whose variants carry
// rename annotations when PascalCasing alters the literal value.
func TestStringEnumRename(t *testing.T) {
	decls := expand(t, `{
		"definitions": {
			"Kind": {
				"type": "string",
				"enum": ["a", "b", "c-d"]
			}
		},
		"type": "object",
		"properties": {
			"kind": {"$ref": "#/definitions/Kind"}
		}
	}`, "Holder")

	d := declByName(t, decls, "Kind")
	if d.Kind != DeclEnum {
		t.Fatalf("Kind kind = %v, want DeclEnum", d.Kind)
	}
	var cd *EnumValue
	for i := range d.EnumValues {
		if d.EnumValues[i].Value == "c-d" {
			cd = &d.EnumValues[i]
		}
	}
	if cd == nil {
		t.Fatal("missing c-d enum value")
	}
	if cd.GoName != "KindCD" {
		t.Fatalf("GoName = %q, want KindCD", cd.GoName)
	}
	if cd.Rename == nil || cd.Rename.Original != "c-d" {
		t.Fatalf("Rename = %+v, want Original=c-d", cd.Rename)
	}
}

// E6: a nested anonymous object interns before its parent, producing
// the declaration order OuterInner, Outer.
func TestNestedAnonymousObjectInterningOrder(t *testing.T) {
	decls := expand(t, `{
		"type": "object",
		"properties": {
			"inner": {
				"type": "object",
				"properties": {
					"value": {"type": "string"}
				}
			}
		},
		"required": ["inner"]
	}`, "Outer")

	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d: %v", len(decls), declNames(decls))
	}
	if decls[0].Name != "OuterInner" {
		t.Fatalf("decls[0] = %q, want OuterInner", decls[0].Name)
	}
	if decls[1].Name != "Outer" {
		t.Fatalf("decls[1] = %q, want Outer", decls[1].Name)
	}
	outer := declByName(t, decls, "Outer")
	inner := fieldByJSON(t, outer, "inner")
	if inner.Type.String() != "OuterInner" {
		t.Fatalf("inner field type = %q, want OuterInner", inner.Type.String())
	}
}

func declNames(decls []*Decl) []string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	return names
}

// A property-less object with a schema-valued additionalProperties
// becomes a map; one with additionalProperties: false becomes the
// untyped-value fallback rather than an empty struct.
func TestObjectWithoutPropertiesBecomesMapOrAny(t *testing.T) {
	decls := expand(t, `{
		"type": "object",
		"properties": {
			"labels": {"type": "object", "additionalProperties": {"type": "string"}},
			"extra": {"type": "object", "additionalProperties": false}
		}
	}`, "Config")

	d := declByName(t, decls, "Config")
	labels := fieldByJSON(t, d, "labels")
	if labels.Type.String() != "map[string]string" {
		t.Fatalf("labels type = %q, want map[string]string", labels.Type.String())
	}
	extra := fieldByJSON(t, d, "extra")
	if extra.Type.String() != "any" {
		t.Fatalf("extra type = %q, want any", extra.Type.String())
	}
}

// A oneOf that isn't the two-branch OneOrMany idiom lowers to the
// untyped value and records a warning naming the dropped constraint's
// pointer, rather than being silently dropped.
func TestOneOfDroppedWithWarning(t *testing.T) {
	s, err := schema.Parse([]byte(`{
		"type": "object",
		"properties": {
			"choice": {
				"oneOf": [
					{"type": "string"},
					{"type": "integer"}
				]
			}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := NewEmitter(s, Options{RootName: "Holder"})
	decls, warnings, err := e.Expand()
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	d := declByName(t, decls, "Holder")
	f := fieldByJSON(t, d, "choice")
	if f.Type.String() != "any" {
		t.Fatalf("choice type = %q, want any", f.Type.String())
	}

	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if warnings[0].Pointer != "/properties/choice" {
		t.Fatalf("warning pointer = %q, want /properties/choice", warnings[0].Pointer)
	}
}

// Two definitions that normalize to the same Go type name is a fatal
// identifier collision, not an auto-disambiguated suffix.
func TestIdentifierCollisionIsFatal(t *testing.T) {
	s, err := schema.Parse([]byte(`{
		"definitions": {
			"foo-bar": {"type": "object", "properties": {"a": {"type": "string"}}},
			"foo_bar": {"type": "object", "properties": {"b": {"type": "string"}}}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := NewEmitter(s, Options{})
	_, _, err = e.Expand()
	if err == nil {
		t.Fatal("expected an IdentifierCollisionError")
	}
}
