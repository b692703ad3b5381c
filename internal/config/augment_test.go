package config

import (
	"testing"

	"github.com/jsonschema-go/schemagen/internal/emit"
)

func TestApplyRenamesTypeAndPropagatesReferences(t *testing.T) {
	inner := &emit.Decl{Name: "OuterInner", Kind: emit.DeclStruct}
	outer := &emit.Decl{
		Name: "Outer",
		Kind: emit.DeclStruct,
		Fields: []emit.Field{
			{JSONName: "inner", GoName: "Inner", Type: emit.Named("OuterInner")},
		},
	}
	decls := []*emit.Decl{inner, outer}

	cfg := &Augment{Types: map[string]AugmentType{
		"OuterInner": {Name: "Detail"},
	}}
	Apply(decls, cfg)

	if inner.Name != "Detail" {
		t.Fatalf("inner.Name = %q, want Detail", inner.Name)
	}
	if got := outer.Fields[0].Type.String(); got != "Detail" {
		t.Fatalf("outer field type = %q, want Detail", got)
	}
}

func TestApplyOverridesFieldNameDocAndType(t *testing.T) {
	d := &emit.Decl{
		Name: "Widget",
		Kind: emit.DeclStruct,
		Fields: []emit.Field{
			{JSONName: "count", GoName: "Count", Type: emit.Builtin("int64")},
		},
	}
	cfg := &Augment{Types: map[string]AugmentType{
		"Widget": {
			Doc: "Widget describes a purchasable unit.",
			Fields: map[string]AugmentField{
				"count": {Name: "Quantity", Doc: "Quantity is always non-negative.", Type: "any"},
			},
		},
	}}
	Apply([]*emit.Decl{d}, cfg)

	if d.Doc != "Widget describes a purchasable unit." {
		t.Fatalf("Doc = %q", d.Doc)
	}
	f := d.Fields[0]
	if f.GoName != "Quantity" || f.Doc != "Quantity is always non-negative." || f.Type.String() != "any" {
		t.Fatalf("field = %+v", f)
	}
}

func TestApplyNilConfigIsNoOp(t *testing.T) {
	d := &emit.Decl{Name: "Widget", Kind: emit.DeclStruct}
	Apply([]*emit.Decl{d}, nil)
	if d.Name != "Widget" {
		t.Fatal("nil config must not mutate decls")
	}
}

func TestParseExprBuiltinsPointersAndContainers(t *testing.T) {
	cases := map[string]string{
		"any":            "any",
		"*bool":          "*bool",
		"[]string":       "[]string",
		"map[string]any": "map[string]any",
		"Widget":         "Widget",
	}
	for in, want := range cases {
		if got := parseExpr(in).String(); got != want {
			t.Errorf("parseExpr(%q) = %q, want %q", in, got, want)
		}
	}
}
