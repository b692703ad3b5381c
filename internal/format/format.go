// Package format runs an external formatter as a spawned-process
// collaborator over generated source (C6, §4.6): the formatter is
// never linked in as a library, only invoked by argv, mirroring how the
// teacher's own reader package shells out to git rather than linking a
// git library (reader/git.go). A formatter failure is recoverable: the
// caller gets FormatterFailure back alongside the unformatted source,
// not a fatal error (§7).
package format

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// DefaultTimeout bounds how long the formatter process may run before
// it is killed and treated as a failure.
const DefaultTimeout = 5 * time.Second

// DefaultArgv is the formatter this compiler runs when none is
// configured (§6 formatter_argv).
var DefaultArgv = []string{"gofmt", "-s"}

// Formatter spawns an external formatting process over a byte slice.
type Formatter struct {
	// Argv is the formatter command and its arguments. If one argument
	// is the literal token "{}", the source is written to a scratch
	// file and that token is substituted with its path (for formatters
	// that only accept a file argument, not stdin); otherwise the
	// source is piped to the process's stdin and its stdout is taken as
	// the result.
	Argv []string
	// Timeout bounds the formatter process; zero means DefaultTimeout.
	Timeout time.Duration
}

// Default returns the formatter used when no formatter_argv is configured.
func Default() Formatter {
	return Formatter{Argv: DefaultArgv, Timeout: DefaultTimeout}
}

// FormatterFailure reports that the external formatter process failed
// or timed out. It is never fatal to the compile: the caller may emit
// the unformatted source and surface this as a warning.
type FormatterFailure struct {
	Argv   []string
	Stderr string
	Err    error
}

func (e *FormatterFailure) Error() string {
	return fmt.Sprintf("formatter %v failed: %v: %s", e.Argv, e.Err, e.Stderr)
}

func (e *FormatterFailure) Unwrap() error { return e.Err }

// Run formats src, returning the formatted bytes, or src unchanged
// alongside a *FormatterFailure if the formatter could not be run.
func (f Formatter) Run(ctx context.Context, src []byte) ([]byte, error) {
	argv := f.Argv
	if len(argv) == 0 {
		argv = DefaultArgv
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, a := range argv {
		if a == "{}" {
			out, err := runViaScratchFile(ctx, argv, src)
			if err != nil {
				return src, err
			}
			return out, nil
		}
	}

	out, err := runViaStdin(ctx, argv, src)
	if err != nil {
		return src, err
	}
	return out, nil
}

func runViaStdin(ctx context.Context, argv []string, src []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &FormatterFailure{Argv: argv, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

func runViaScratchFile(ctx context.Context, argv []string, src []byte) ([]byte, error) {
	name := filepath.Join(os.TempDir(), uuid.NewString()+".go")
	if err := os.WriteFile(name, src, 0o600); err != nil {
		return nil, &FormatterFailure{Argv: argv, Err: fmt.Errorf("writing scratch file: %w", err)}
	}
	defer os.Remove(name)

	substituted := make([]string, len(argv))
	copy(substituted, argv)
	for i, a := range substituted {
		if a == "{}" {
			substituted[i] = name
		}
	}

	cmd := exec.CommandContext(ctx, substituted[0], substituted[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &FormatterFailure{Argv: argv, Stderr: stderr.String(), Err: err}
	}

	out, err := os.ReadFile(name)
	if err != nil {
		return nil, &FormatterFailure{Argv: argv, Err: fmt.Errorf("reading formatted scratch file: %w", err)}
	}
	return out, nil
}

// Warn renders msg in yellow when stderr is a terminal, and plain
// otherwise, for non-fatal diagnostics like a FormatterFailure.
func Warn(msg string) string {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return "\x1b[33m" + msg + "\x1b[0m"
	}
	return msg
}
