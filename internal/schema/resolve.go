package schema

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownReferenceError is returned when a $ref points at a definition
// that does not exist (§7 UnknownReference).
type UnknownReferenceError struct {
	Ref     string
	Pointer string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown reference %q at %s", e.Ref, e.Pointer)
}

// UnsupportedConstructError is returned for schema shapes the generator
// cannot lower (§7 UnsupportedConstruct).
type UnsupportedConstructError struct {
	Pointer string
	Reason  string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported construct at %s: %s", e.Pointer, e.Reason)
}

// Resolver resolves $ref pointers and allOf compositions against a fixed
// root document (C2). It holds no mutable state beyond the root it was
// built from; Resolve is a pure function of its argument.
type Resolver struct {
	root *Schema
}

// NewResolver builds a Resolver rooted at root. Every $ref the resolver
// follows is resolved against this same document (§4.2: "#" or
// "#/definitions/<name>").
func NewResolver(root *Schema) *Resolver {
	return &Resolver{root: root}
}

// Resolve returns a flattened view of s: $ref is followed to its target
// (recursively), a non-empty allOf is folded into a single schema via
// Merge, and any schema-valued "dependencies" entry is folded in the
// same way — a static union of fields, not the runtime conditional the
// keyword technically describes (§4.2 supplement; property-dependency
// arrays, the other "dependencies" shape, carry no fields to fold and
// are left alone). Pointer is the JSON pointer of s, used only for
// error messages.
func (r *Resolver) Resolve(s *Schema, pointer string) (*Schema, error) {
	resolved, err := r.resolveCore(s, pointer)
	if err != nil {
		return nil, err
	}
	return r.foldDependencies(resolved, pointer)
}

func (r *Resolver) resolveCore(s *Schema, pointer string) (*Schema, error) {
	if s == nil {
		return nil, nil
	}
	if s.Ref != "" {
		target, err := r.followRef(s.Ref, pointer)
		if err != nil {
			return nil, err
		}
		return r.Resolve(target, pointer)
	}
	if len(s.AllOf) > 0 {
		acc, err := r.Resolve(s.AllOf[0], pointer+"/allOf/0")
		if err != nil {
			return nil, err
		}
		for i, sub := range s.AllOf[1:] {
			resolved, err := r.Resolve(sub, fmt.Sprintf("%s/allOf/%d", pointer, i+1))
			if err != nil {
				return nil, err
			}
			acc = Merge(acc, resolved)
		}
		return acc, nil
	}
	return s, nil
}

// foldDependencies merges every schema-valued dependency of s into s,
// in sorted key order, and clears Dependencies on the result so a
// second Resolve of the same node is a no-op.
func (r *Resolver) foldDependencies(s *Schema, pointer string) (*Schema, error) {
	if s == nil || len(s.Dependencies) == 0 {
		return s, nil
	}

	names := make([]string, 0, len(s.Dependencies))
	for name := range s.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	out := s
	for _, name := range names {
		dep := s.Dependencies[name]
		if dep == nil || dep.Schema == nil {
			continue
		}
		depResolved, err := r.Resolve(dep.Schema, pointer+"/dependencies/"+name)
		if err != nil {
			return nil, err
		}
		out = Merge(out, depResolved)
	}

	cleared := *out
	cleared.Dependencies = nil
	return &cleared, nil
}

// followRef resolves a single $ref string to the schema it names, without
// recursively resolving the target (the caller does that via Resolve).
//
// Pointer grammar (§4.2): split on "/"; "#" denotes the root; the token
// "definitions" is a no-op navigator; any other token is a key under the
// current node's Definitions map. Anything else is a fatal
// UnknownReference.
func (r *Resolver) followRef(ref, pointer string) (*Schema, error) {
	if ref == "#" {
		return r.root, nil
	}
	if !strings.HasPrefix(ref, "#/") {
		return nil, &UnknownReferenceError{Ref: ref, Pointer: pointer}
	}
	tokens := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	current := r.root
	for i := 0; i < len(tokens); i++ {
		tok := unescape(tokens[i])
		if tok == "definitions" {
			continue
		}
		next, ok := current.Definitions[tok]
		if !ok {
			return nil, &UnknownReferenceError{Ref: ref, Pointer: pointer}
		}
		current = next
	}
	return current, nil
}

func unescape(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

// Merge folds an incoming schema into an accumulator per the allOf merge
// rule (§4.2):
//
//   - Properties: left-biased union, recursive merge on key collisions.
//   - required: set union, deduplicated, order preserved by first occurrence.
//   - type: intersection of the two sequences.
//   - $ref and description: right overrides left when present.
//   - every other field: right overrides left when present.
//
// Merge never mutates left or right; it returns a fresh *Schema.
func Merge(left, right *Schema) *Schema {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}

	out := *left

	// Properties: left-biased union, recursive merge on collision.
	if len(right.Properties) > 0 {
		merged := make(map[string]*Schema, len(left.Properties)+len(right.Properties))
		for k, v := range left.Properties {
			merged[k] = v
		}
		for k, v := range right.Properties {
			if existing, ok := merged[k]; ok {
				merged[k] = Merge(existing, v)
			} else {
				merged[k] = v
			}
		}
		out.Properties = merged
	}

	// required: union, dedup, first-occurrence order.
	out.Required = unionPreserveOrder(left.Required, right.Required)

	// type: intersection.
	out.Type = Types{values: intersect(left.Type.Values(), right.Type.Values())}

	// $ref, description: right overrides left when present.
	if right.Ref != "" {
		out.Ref = right.Ref
	}
	if right.Description != "" {
		out.Description = right.Description
	}

	// Every other field: right overrides left when present (non-zero).
	if right.ID != "" {
		out.ID = right.ID
	}
	if right.SchemaURI != "" {
		out.SchemaURI = right.SchemaURI
	}
	if right.Title != "" {
		out.Title = right.Title
	}
	if right.Default != nil {
		out.Default = right.Default
	}
	if right.MultipleOf != nil {
		out.MultipleOf = right.MultipleOf
	}
	if right.Maximum != nil {
		out.Maximum = right.Maximum
	}
	if right.Minimum != nil {
		out.Minimum = right.Minimum
	}
	if right.ExclusiveMaximum != nil {
		out.ExclusiveMaximum = right.ExclusiveMaximum
	}
	if right.ExclusiveMinimum != nil {
		out.ExclusiveMinimum = right.ExclusiveMinimum
	}
	if right.MaxLength != nil {
		out.MaxLength = right.MaxLength
	}
	if right.MinLength != nil {
		out.MinLength = right.MinLength
	}
	if right.Pattern != "" {
		out.Pattern = right.Pattern
	}
	if right.Items != nil {
		out.Items = right.Items
	}
	if right.AdditionalItems != nil {
		out.AdditionalItems = right.AdditionalItems
	}
	if right.MaxItems != nil {
		out.MaxItems = right.MaxItems
	}
	if right.MinItems != nil {
		out.MinItems = right.MinItems
	}
	if right.UniqueItems {
		out.UniqueItems = right.UniqueItems
	}
	if right.MaxProperties != nil {
		out.MaxProperties = right.MaxProperties
	}
	if right.MinProperties != nil {
		out.MinProperties = right.MinProperties
	}
	if len(right.PatternProperties) > 0 {
		out.PatternProperties = right.PatternProperties
	}
	if right.AdditionalProperties != nil {
		out.AdditionalProperties = right.AdditionalProperties
	}
	if len(right.Dependencies) > 0 {
		out.Dependencies = right.Dependencies
	}
	if len(right.AnyOf) > 0 {
		out.AnyOf = right.AnyOf
	}
	if len(right.OneOf) > 0 {
		out.OneOf = right.OneOf
	}
	if right.Not != nil {
		out.Not = right.Not
	}
	if len(right.Enum) > 0 {
		out.Enum = right.Enum
	}
	if len(right.EnumNames) > 0 {
		out.EnumNames = right.EnumNames
	}
	// allOf itself is consumed by the fold in Resolve, not carried forward.
	out.AllOf = nil

	return &out
}

func unionPreserveOrder(left, right []string) []string {
	seen := make(map[string]bool, len(left)+len(right))
	var out []string
	for _, s := range left {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range right {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func intersect(left, right []string) []string {
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	rset := make(map[string]bool, len(right))
	for _, s := range right {
		rset[s] = true
	}
	var out []string
	for _, s := range left {
		if rset[s] {
			out = append(out, s)
		}
	}
	return out
}
