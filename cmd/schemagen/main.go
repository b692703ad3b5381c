// Command schemagen reads a JSON Schema document and writes the Go
// source it compiles to.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jsonschema-go/schemagen/internal/compile"
)

func main() {
	var (
		rootName          string
		helperModulePath  string
		denyUnknownFields bool
		formatterArgv     string
		packageName       string
		augmentFile       string
		outputPath        string
	)

	flag.StringVar(&rootName, "root-name", "", "Go type name for the root schema, if it should be named (default: unnamed)")
	flag.StringVar(&helperModulePath, "helper-module", "", "import path of the OneOrMany runtime codec (default: this module's own)")
	flag.BoolVar(&denyUnknownFields, "deny-unknown-fields", false, "generate strict UnmarshalJSON methods that reject unrecognized properties")
	flag.StringVar(&formatterArgv, "formatter", "", "external formatter command, space-separated (default: \"gofmt -s\")")
	flag.StringVar(&packageName, "package", "", "Go package name for the generated file (default: \"generated\")")
	flag.StringVar(&augmentFile, "augment", "", "path to an augment.yml overriding names, docs, or types (optional)")
	flag.StringVar(&outputPath, "output", "", "output file path (default: stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: schemagen [flags] <schema.json>")
		os.Exit(2)
	}

	cfg := compile.Config{
		InputPath:         flag.Arg(0),
		RootName:          rootName,
		HelperModulePath:  helperModulePath,
		DenyUnknownFields: denyUnknownFields,
		PackageName:       packageName,
		AugmentFile:       augmentFile,
	}
	if formatterArgv != "" {
		cfg.FormatterArgv = strings.Fields(formatterArgv)
	}

	result, err := compile.Run(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if result.Warning != "" {
		fmt.Fprintln(os.Stderr, result.Warning)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(result.Source); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", humanize.Bytes(uint64(len(result.Source))))
}
