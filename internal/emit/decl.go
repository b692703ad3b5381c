package emit

import "fmt"

// Warning is a non-fatal diagnostic recorded when a schema construct
// cannot be lowered precisely and falls back to the untyped value,
// rather than being dropped without a trace (§7 UnsupportedConstruct,
// non-fatal severity; see DESIGN.md's "top-level/nested oneOf" Open
// Question resolution).
type Warning struct {
	Pointer string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("warning: %s at %s", w.Message, w.Pointer)
}

// Codec names a custom (de)serialization adapter a field's annotation
// must request. The only one this compiler knows about is the
// OneOrMany collapse (§4.4 rule 2, §6 runtime helper contract).
type Codec int

const (
	CodecNone Codec = iota
	CodecOneOrMany
)

// Kind of a top-level declaration (§4.5 expand_schema).
type DeclKind int

const (
	DeclStruct DeclKind = iota
	DeclEnum
	DeclAlias
)

// Rename pairs an emitted Go identifier with the original JSON name it
// was normalized from (§3 "rename annotation").
type Rename struct {
	Original string
}

// Field is one struct field (§4.5).
type Field struct {
	GoName   string
	JSONName string
	Doc      string
	Type     Expr
	Required bool
	Default  bool
	Codec    Codec
	Rename   *Rename
}

// EnumValue is one constant of an enum declaration (§4.4 "Enum
// emission").
type EnumValue struct {
	GoName string
	Value  string
	Doc    string
	Rename *Rename
}

// Decl is one named declaration the emitter appends to its output
// sequence (§3 "Emission Context": "the accumulating ordered sequence of
// (name, declaration) pairs").
type Decl struct {
	Name   string
	Doc    string
	Kind   DeclKind
	Rename *Rename

	// DeclStruct
	Fields              []Field
	DenyUnknownFields   bool
	DefaultConstructible bool

	// DeclEnum
	EnumValues []EnumValue

	// DeclAlias
	Alias Expr

	// SourcePointer is the JSON pointer (within the root document) that
	// produced this declaration; used only for diagnostics.
	SourcePointer string
}

// defaultConstructible implements §4.5's struct rule: "marked
// default-constructible iff every field's inferred type wraps in
// Optional<·> or carries default = true." A pointer Expr is this
// backend's realization of Optional<·> (see expr.go).
func defaultConstructible(fields []Field) bool {
	for _, f := range fields {
		if f.Type.Kind == KindPointer || f.Default {
			continue
		}
		return false
	}
	return true
}
