package schema

import "testing"

func TestParseTypeAsStringOrSlice(t *testing.T) {
	s, err := Parse([]byte(`{"type":"string"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Type.Single(); got != "string" {
		t.Fatalf("Single() = %q, want string", got)
	}

	s, err = Parse([]byte(`{"type":["string","null"]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Type.Values(); len(got) != 2 || got[0] != "string" || got[1] != "null" {
		t.Fatalf("Values() = %v", got)
	}
}

func TestParseItemsSingleOrSequence(t *testing.T) {
	s, err := Parse([]byte(`{"type":"array","items":{"type":"string"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Items.First(); got == nil || got.Type.Single() != "string" {
		t.Fatalf("First() = %v", got)
	}

	s, err = Parse([]byte(`{"type":"array","items":[{"type":"string"},{"type":"integer"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Items.List(); len(got) != 2 {
		t.Fatalf("List() len = %d, want 2", len(got))
	}
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var pe *ParseError
	if !asParseError(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func TestRootPointerResolvesToRoot(t *testing.T) {
	root, err := Parse([]byte(`{"type":"object","properties":{"next":{"$ref":"#"}}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := NewResolver(root)
	resolved, err := r.Resolve(&Schema{Ref: "#"}, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != root {
		t.Fatalf("Resolve(#) did not return the root schema")
	}
}

func TestResolveDefinitionRef(t *testing.T) {
	root, err := Parse([]byte(`{
		"definitions": {"Name": {"type": "string"}},
		"type": "object",
		"properties": {"name": {"$ref": "#/definitions/Name"}}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := NewResolver(root)
	resolved, err := r.Resolve(root.Properties["name"], "/properties/name")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Type.Single() != "string" {
		t.Fatalf("resolved type = %q, want string", resolved.Type.Single())
	}
}

func TestResolveUnknownReference(t *testing.T) {
	root, _ := Parse([]byte(`{"definitions": {}}`))
	r := NewResolver(root)
	_, err := r.Resolve(&Schema{Ref: "#/definitions/Missing"}, "/x")
	if err == nil {
		t.Fatal("expected UnknownReferenceError")
	}
	if _, ok := err.(*UnknownReferenceError); !ok {
		t.Fatalf("got %T, want *UnknownReferenceError", err)
	}
}

func TestMergeAllOfAssociativeUpToPropertySet(t *testing.T) {
	a := &Schema{Properties: map[string]*Schema{"a": {Type: Types{values: []string{"string"}}}}}
	b := &Schema{Properties: map[string]*Schema{"b": {Type: Types{values: []string{"integer"}}}}}
	c := &Schema{Properties: map[string]*Schema{"c": {Type: Types{values: []string{"boolean"}}}}}

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	if len(left.Properties) != 3 || len(right.Properties) != 3 {
		t.Fatalf("expected 3 properties each side, got %d and %d", len(left.Properties), len(right.Properties))
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := left.Properties[name]; !ok {
			t.Fatalf("left missing property %q", name)
		}
		if _, ok := right.Properties[name]; !ok {
			t.Fatalf("right missing property %q", name)
		}
	}
}

func TestMergeRequiredUnionPreservesFirstOccurrenceOrder(t *testing.T) {
	left := &Schema{Required: []string{"b", "a"}}
	right := &Schema{Required: []string{"a", "c"}}
	merged := Merge(left, right)
	want := []string{"b", "a", "c"}
	if len(merged.Required) != len(want) {
		t.Fatalf("Required = %v, want %v", merged.Required, want)
	}
	for i, w := range want {
		if merged.Required[i] != w {
			t.Fatalf("Required[%d] = %q, want %q", i, merged.Required[i], w)
		}
	}
}

func TestMergeTypeIntersection(t *testing.T) {
	left := &Schema{Type: Types{values: []string{"string", "integer"}}}
	right := &Schema{Type: Types{values: []string{"integer", "boolean"}}}
	merged := Merge(left, right)
	got := merged.Type.Values()
	if len(got) != 1 || got[0] != "integer" {
		t.Fatalf("Type intersection = %v, want [integer]", got)
	}
}
