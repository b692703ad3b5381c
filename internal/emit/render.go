package emit

import (
	"github.com/dave/jennifer/jen"
)

// RenderOptions configures how a declaration sequence becomes Go source
// (§4.5's rendering step, and §6's helper_module_path/package_name).
type RenderOptions struct {
	PackageName string
	// HelperModulePath is the import path of the package providing the
	// OneOrMany runtime codec (Decode/Encode), consulted by every struct
	// that has at least one field carrying CodecOneOrMany.
	HelperModulePath string
}

// Render turns an ordered declaration sequence into a *jen.File, in the
// same order C5 accumulated them: every anonymous object or enum a
// struct field referenced appears before the struct itself.
func Render(decls []*Decl, opts RenderOptions) *jen.File {
	f := jen.NewFile(opts.PackageName)
	f.HeaderComment("Code generated by the schema compiler. DO NOT EDIT.")

	for _, d := range decls {
		renderDecl(f, d, opts)
	}
	return f
}

func renderDecl(f *jen.File, d *Decl, opts RenderOptions) {
	switch d.Kind {
	case DeclStruct:
		renderStruct(f, d, opts)
	case DeclEnum:
		renderEnum(f, d)
	case DeclAlias:
		renderAlias(f, d)
	}
}

func declDoc(d *Decl) string {
	doc := d.Doc
	if d.Rename != nil {
		note := "JSON schema name: " + d.Rename.Original
		if doc != "" {
			doc += "\n\n" + note
		} else {
			doc = note
		}
	}
	return doc
}

func renderStruct(f *jen.File, d *Decl, opts RenderOptions) {
	var fields []jen.Code
	for _, field := range d.Fields {
		fields = append(fields, renderField(field))
	}

	stmt := jen.Type().Id(d.Name).Struct(fields...)
	if doc := declDoc(d); doc != "" {
		f.Comment(doc)
	}
	f.Add(stmt)
	f.Line()

	oneOrMany := oneOrManyFields(d)
	if d.DenyUnknownFields || len(oneOrMany) > 0 {
		renderUnmarshalJSON(f, d, oneOrMany, opts)
	}
	if len(oneOrMany) > 0 {
		renderMarshalJSON(f, d, oneOrMany, opts)
	}
}

func renderField(field Field) jen.Code {
	stmt := jen.Id(field.GoName)
	stmt.Add(renderExpr(field.Type))

	jsonTag := field.JSONName
	if !field.Required && field.Type.Kind != KindPointer {
		jsonTag += ",omitempty"
	}
	tags := map[string]string{"json": jsonTag}
	stmt.Tag(tags)

	if doc := fieldDoc(field); doc != "" {
		return jen.Comment(doc).Line().Add(stmt)
	}
	return stmt
}

func fieldDoc(field Field) string {
	doc := field.Doc
	if field.Rename != nil {
		note := "JSON name: " + field.Rename.Original
		if doc != "" {
			doc += "\n\n" + note
		} else {
			doc = note
		}
	}
	return doc
}

func renderEnum(f *jen.File, d *Decl) {
	if doc := declDoc(d); doc != "" {
		f.Comment(doc)
	}
	f.Type().Id(d.Name).String()
	f.Line()

	var defs []jen.Code
	for _, v := range d.EnumValues {
		stmt := jen.Id(v.GoName).Id(d.Name).Op("=").Lit(v.Value)
		if doc := enumValueDoc(v); doc != "" {
			stmt = jen.Comment(doc).Line().Add(stmt)
		}
		defs = append(defs, stmt)
	}
	f.Const().Defs(defs...)
	f.Line()
}

func enumValueDoc(v EnumValue) string {
	doc := v.Doc
	if v.Rename != nil {
		note := "JSON value: " + v.Rename.Original
		if doc != "" {
			doc += "\n\n" + note
		} else {
			doc = note
		}
	}
	return doc
}

func renderAlias(f *jen.File, d *Decl) {
	if doc := declDoc(d); doc != "" {
		f.Comment(doc)
	}
	f.Type().Id(d.Name).Op("=").Add(renderExpr(d.Alias))
	f.Line()
}

// renderExpr renders a type expression as jennifer statement code.
func renderExpr(e Expr) *jen.Statement {
	switch e.Kind {
	case KindBuiltin:
		switch e.Builtin {
		case "any":
			return jen.Id("any")
		default:
			return jen.Id(e.Builtin)
		}
	case KindNamed:
		return jen.Id(e.Named)
	case KindSlice:
		return jen.Index().Add(renderExpr(*e.Elem))
	case KindMap:
		return jen.Map(renderExpr(*e.Key)).Add(renderExpr(*e.Value))
	case KindPointer:
		return jen.Op("*").Add(renderExpr(*e.Elem))
	default:
		return jen.Id("any")
	}
}

func oneOrManyFields(d *Decl) []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Codec == CodecOneOrMany {
			out = append(out, f)
		}
	}
	return out
}

// renderUnmarshalJSON generates a custom UnmarshalJSON for a struct that
// either denies unknown fields, collapses one or more OneOrMany fields,
// or both: a shadow type carries every ordinary field, the OneOrMany
// fields are decoded through json.RawMessage and post-processed via the
// helper package, and a field explicitly declared at the shadow's own
// level shadows the embedded alias's promoted field of the same JSON
// name (Go's usual "shallower struct field wins" resolution), so the
// standard decoder never sees the mismatched element type directly.
func renderUnmarshalJSON(f *jen.File, d *Decl, oneOrMany []Field, opts RenderOptions) {
	aliasName := "shadow" + d.Name

	f.Type().Id(aliasName).Id(d.Name)

	var auxFields []jen.Code
	for _, field := range oneOrMany {
		auxFields = append(auxFields, jen.Id(field.GoName).Qual("encoding/json", "RawMessage").Tag(map[string]string{"json": field.JSONName}))
	}
	auxFields = append(auxFields, jen.Op("*").Id(aliasName))

	body := []jen.Code{
		jen.Id("aux").Op(":=").Op("&").Struct(auxFields...).Values(jen.Dict{
			jen.Id(aliasName): jen.Parens(jen.Op("*").Id(aliasName)).Call(jen.Id("s")),
		}),
	}

	body = append(body, jen.Id("dec").Op(":=").Qual("encoding/json", "NewDecoder").Call(jen.Qual("bytes", "NewReader").Call(jen.Id("data"))))
	if d.DenyUnknownFields {
		body = append(body, jen.Id("dec").Dot("DisallowUnknownFields").Call())
	}
	body = append(body,
		jen.If(jen.Id("err").Op(":=").Id("dec").Dot("Decode").Call(jen.Id("aux")), jen.Id("err").Op("!=").Nil()).Block(
			jen.Return(jen.Id("err")),
		),
	)

	for _, field := range oneOrMany {
		elemExpr := Any()
		if field.Type.Kind == KindSlice {
			elemExpr = *field.Type.Elem
		}
		decodedVar := "decoded" + field.GoName
		body = append(body,
			jen.List(jen.Id(decodedVar), jen.Id("err")).Op(":=").Qual(opts.HelperModulePath, "Decode").Index(renderExpr(elemExpr)).Call(jen.Id("aux").Dot(field.GoName)),
			jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Id("err"))),
			jen.Id("s").Dot(field.GoName).Op("=").Id(decodedVar),
		)
	}
	body = append(body, jen.Op("*").Id("s").Op("=").Parens(jen.Id(d.Name)).Call(jen.Op("*").Id("aux").Dot(aliasName)))
	body = append(body, jen.Return(jen.Nil()))

	f.Func().Params(jen.Id("s").Op("*").Id(d.Name)).Id("UnmarshalJSON").
		Params(jen.Id("data").Index().Byte()).
		Error().
		Block(body...)
	f.Line()
}

// renderMarshalJSON generates a custom MarshalJSON for a struct with at
// least one OneOrMany field, so each such field is re-encoded through
// onemany.Encode (always a JSON array) rather than the slice's default
// encoding.
func renderMarshalJSON(f *jen.File, d *Decl, oneOrMany []Field, opts RenderOptions) {
	aliasName := "shadow" + d.Name

	var auxFields []jen.Code
	for _, field := range oneOrMany {
		auxFields = append(auxFields, jen.Id(field.GoName).Qual("encoding/json", "RawMessage").Tag(map[string]string{"json": field.JSONName}))
	}
	auxFields = append(auxFields, jen.Op("*").Id(aliasName))

	dictEntries := jen.Dict{
		jen.Id(aliasName): jen.Parens(jen.Op("*").Id(aliasName)).Call(jen.Id("s")),
	}

	var body []jen.Code
	for _, field := range oneOrMany {
		rawVar := "raw" + field.GoName
		body = append(body,
			jen.List(jen.Id(rawVar), jen.Id("err")).Op(":=").Qual(opts.HelperModulePath, "Encode").Call(jen.Id("s").Dot(field.GoName)),
			jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Id("err"))),
		)
		dictEntries[jen.Id(field.GoName)] = jen.Id(rawVar)
	}
	body = append(body, jen.Id("aux").Op(":=").Struct(auxFields...).Values(dictEntries))
	body = append(body, jen.Return(jen.Qual("encoding/json", "Marshal").Call(jen.Id("aux"))))

	f.Func().Params(jen.Id("s").Op("*").Id(d.Name)).Id("MarshalJSON").
		Params().
		Params(jen.Index().Byte(), jen.Error()).
		Block(body...)
	f.Line()
}
