// Package compile wires C1 through C6 into the single entry point the
// CLI driver calls: parse, resolve/infer/emit, augment, render, format.
// Config gathers every option spec.md's §6 table (and SPEC_FULL.md's
// supplement to it) names.
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jsonschema-go/schemagen/internal/config"
	"github.com/jsonschema-go/schemagen/internal/emit"
	"github.com/jsonschema-go/schemagen/internal/format"
	"github.com/jsonschema-go/schemagen/internal/schema"
)

// DefaultHelperModulePath is the import path of this module's own
// OneOrMany runtime codec, used when a Config leaves HelperModulePath
// empty.
const DefaultHelperModulePath = "github.com/jsonschema-go/schemagen/runtime/onemany"

// DefaultPackageName is used when a Config leaves PackageName empty.
const DefaultPackageName = "generated"

// Config is one compile run's configuration (§6 External Interfaces).
type Config struct {
	// InputPath is the JSON Schema document to compile.
	InputPath string
	// RootName, when non-empty, additionally declares the root document
	// itself as a named type.
	RootName string
	// HelperModulePath is the import path of the OneOrMany runtime
	// codec; defaults to this module's own runtime/onemany.
	HelperModulePath string
	// DenyUnknownFields marks every emitted struct for strict decoding.
	DenyUnknownFields bool
	// FormatterArgv is the external formatter command; defaults to
	// ["gofmt", "-s"].
	FormatterArgv []string
	// PackageName is the Go package clause for the emitted file;
	// defaults to "generated".
	PackageName string
	// AugmentFile, when non-empty, is a YAML rename/doc/type override
	// file applied after inference and before rendering.
	AugmentFile string
}

// Result is a successful compile's output.
type Result struct {
	// Source is the emitted Go source. It is unformatted only when
	// Warning reports a formatter failure; an inference-level warning
	// (e.g. a dropped oneOf constraint) never affects Source.
	Source []byte
	// Warning joins every non-fatal diagnostic raised during the
	// compile (one per line): a dropped construct the type inference
	// engine could not lower precisely (§7 UnsupportedConstruct,
	// non-fatal), and/or an external formatter failure. Empty when the
	// compile raised no diagnostics.
	Warning string
}

// Error taxonomy (§7): re-exported here so callers never need to import
// internal/schema, internal/emit, or internal/format directly to type-
// switch on a compile failure.
type (
	SchemaParseError          = schema.ParseError
	UnknownReferenceError     = schema.UnknownReferenceError
	UnsupportedConstructError = schema.UnsupportedConstructError
	IdentifierCollisionError  = emit.IdentifierCollisionError
	FormatterFailureError     = format.FormatterFailure
)

// Run executes one end-to-end compile: C1 decode, C2/C3/C4 resolve and
// infer, C5 accumulate declarations and render, an augmentation post-
// pass, then C6 format. Every error it returns except a *FormatterFailureError
// already occurred (surfaced instead as Result.Warning) is fatal — no
// partial output is produced (§7).
func Run(ctx context.Context, cfg Config) (*Result, error) {
	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.InputPath, err)
	}

	root, err := schema.Parse(data)
	if err != nil {
		return nil, err
	}

	var aug *config.Augment
	if cfg.AugmentFile != "" {
		aug, err = config.Load(cfg.AugmentFile)
		if err != nil {
			return nil, err
		}
	}

	emitter := emit.NewEmitter(root, emit.Options{
		RootName:          cfg.RootName,
		DenyUnknownFields: cfg.DenyUnknownFields,
	})
	decls, warnings, err := emitter.Expand()
	if err != nil {
		return nil, err
	}

	var warningLines []string
	for _, w := range warnings {
		warningLines = append(warningLines, format.Warn(w.String()))
	}

	config.Apply(decls, aug)

	pkgName := cfg.PackageName
	if pkgName == "" {
		pkgName = DefaultPackageName
	}
	helperPath := cfg.HelperModulePath
	if helperPath == "" {
		helperPath = DefaultHelperModulePath
	}

	file := emit.Render(decls, emit.RenderOptions{
		PackageName:      pkgName,
		HelperModulePath: helperPath,
	})

	var buf bytes.Buffer
	if err := file.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering generated source: %w", err)
	}

	formatter := format.Formatter{Argv: cfg.FormatterArgv}
	formatted, ferr := formatter.Run(ctx, buf.Bytes())
	if ferr != nil {
		var ff *format.FormatterFailure
		if !errors.As(ferr, &ff) {
			return nil, ferr
		}
		warningLines = append(warningLines, format.Warn(ff.Error()))
	}

	return &Result{Source: formatted, Warning: strings.Join(warningLines, "\n")}, nil
}
