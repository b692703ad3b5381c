package emit

import "fmt"

// Kind classifies a type expression synthesized by the inference engine
// (C4's FieldType.expr, §4.4).
type Kind int

const (
	// KindBuiltin is one of the scalar Go primitives, or "any" for the
	// untyped-value sentinel (§4.4 rule 4 and the object/map fallback).
	KindBuiltin Kind = iota
	// KindNamed references another declaration by its emitted Go name.
	KindNamed
	KindSlice
	KindMap
	// KindPointer realizes both spec.md's "Optional<·>" wrapper and its
	// self-reference "boxing" indirection (§4.4 post-rules): Go has no
	// distinct Option/Box types, so both collapse onto the one pointer
	// indirection Go already uses for "maybe absent, maybe heap
	// allocated". See DESIGN.md.
	KindPointer
)

// Expr is a type expression: a builtin name, a reference to another
// declaration, or a composite (slice/map/pointer) built from a nested
// Expr.
type Expr struct {
	Kind    Kind
	Builtin string
	Named   string
	Elem    *Expr
	Key     *Expr
	Value   *Expr
}

func Any() Expr                 { return Expr{Kind: KindBuiltin, Builtin: "any"} }
func Builtin(name string) Expr   { return Expr{Kind: KindBuiltin, Builtin: name} }
func Named(name string) Expr    { return Expr{Kind: KindNamed, Named: name} }
func Slice(elem Expr) Expr      { return Expr{Kind: KindSlice, Elem: &elem} }
func Map(key, value Expr) Expr  { return Expr{Kind: KindMap, Key: &key, Value: &value} }

// Pointer wraps e in a pointer indirection, unless e is already a
// pointer (Go never needs a **T to express "optional, boxed").
func Pointer(e Expr) Expr {
	if e.Kind == KindPointer {
		return e
	}
	return Expr{Kind: KindPointer, Elem: &e}
}

// IsAny reports whether e is the untyped-value sentinel.
func (e Expr) IsAny() bool { return e.Kind == KindBuiltin && e.Builtin == "any" }

// String renders e the way a Go type declaration would.
func (e Expr) String() string {
	switch e.Kind {
	case KindBuiltin:
		return e.Builtin
	case KindNamed:
		return e.Named
	case KindSlice:
		return "[]" + e.Elem.String()
	case KindMap:
		return fmt.Sprintf("map[%s]%s", e.Key.String(), e.Value.String())
	case KindPointer:
		return "*" + e.Elem.String()
	default:
		return "any"
	}
}
