// Package config loads the optional YAML augmentation file this
// compiler accepts as a post-pass over the emitted declaration
// sequence: renaming a type or field, overriding a doc comment, or
// replacing an inferred type outright. It is grounded directly on the
// teacher's own augment.yml support (internal/generator/augment.go),
// adapted from that package's GoType/GoTypeRef model to this one's
// emit.Decl/emit.Expr model.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jsonschema-go/schemagen/internal/emit"
)

// Augment holds type and field overrides loaded from an augment file.
type Augment struct {
	Types map[string]AugmentType `yaml:"types"`
}

// AugmentType holds overrides for a single declaration.
type AugmentType struct {
	Name   string                  `yaml:"name,omitempty"`
	Doc    string                  `yaml:"doc,omitempty"`
	Fields map[string]AugmentField `yaml:"fields,omitempty"`
}

// AugmentField holds overrides for a single struct field, keyed by its
// JSON name.
type AugmentField struct {
	Name string `yaml:"name,omitempty"`
	Doc  string `yaml:"doc,omitempty"`
	Type string `yaml:"type,omitempty"` // "any", "*bool", "[]string", "map[string]any"
}

// Load reads and parses an augmentation file.
func Load(path string) (*Augment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading augment file: %w", err)
	}
	var a Augment
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing augment file: %w", err)
	}
	return &a, nil
}

// Apply applies every override in cfg to decls in place. A nil cfg is a
// no-op, so callers can unconditionally call Apply after Expand.
func Apply(decls []*emit.Decl, cfg *Augment) {
	if cfg == nil {
		return
	}

	byName := make(map[string]*emit.Decl, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	for typeName, aug := range cfg.Types {
		d, ok := byName[typeName]
		if !ok {
			continue
		}

		if aug.Name != "" && aug.Name != typeName {
			oldName := d.Name
			d.Name = aug.Name
			delete(byName, typeName)
			byName[aug.Name] = d
			for _, other := range decls {
				for i := range other.Fields {
					renameRef(&other.Fields[i].Type, oldName, aug.Name)
				}
				if other.Kind == emit.DeclAlias {
					renameRef(&other.Alias, oldName, aug.Name)
				}
			}
		}

		if aug.Doc != "" {
			d.Doc = aug.Doc
		}

		for jsonName, fieldAug := range aug.Fields {
			for i := range d.Fields {
				if d.Fields[i].JSONName != jsonName {
					continue
				}
				if fieldAug.Name != "" {
					d.Fields[i].GoName = fieldAug.Name
				}
				if fieldAug.Doc != "" {
					d.Fields[i].Doc = fieldAug.Doc
				}
				if fieldAug.Type != "" {
					d.Fields[i].Type = parseExpr(fieldAug.Type)
				}
				break
			}
		}
	}
}

// renameRef rewrites every occurrence of oldName inside e (including
// nested slice/map/pointer element types) to newName.
func renameRef(e *emit.Expr, oldName, newName string) {
	if e == nil {
		return
	}
	if e.Kind == emit.KindNamed && e.Named == oldName {
		e.Named = newName
	}
	renameRef(e.Elem, oldName, newName)
	renameRef(e.Key, oldName, newName)
	renameRef(e.Value, oldName, newName)
}

// parseExpr parses a type string like "any", "*bool", "[]string", or
// "map[string]any" into an emit.Expr.
func parseExpr(s string) emit.Expr {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "*") {
		return emit.Pointer(parseExpr(s[1:]))
	}
	if strings.HasPrefix(s, "[]") {
		return emit.Slice(parseExpr(s[2:]))
	}
	if strings.HasPrefix(s, "map[") {
		depth := 0
		closeBracket := -1
		for i := 3; i < len(s); i++ {
			switch s[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					closeBracket = i
				}
			}
			if closeBracket >= 0 {
				break
			}
		}
		if closeBracket < 0 {
			return emit.Any()
		}
		key := parseExpr(s[4:closeBracket])
		val := parseExpr(s[closeBracket+1:])
		return emit.Map(key, val)
	}

	switch s {
	case "any", "string", "int", "int64", "bool", "float64":
		return emit.Builtin(s)
	}
	if s == "" {
		return emit.Any()
	}
	return emit.Named(s)
}
