// Package helper runs the external processes behind the local models and media probing.
package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExitError reports a helper that ran but exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("helper exited with code %d: %s", e.Code, LastLines(e.Stderr, 5))
}

// WriteScript materialises an embedded script in the temp directory. The
// returned cleanup removes it.
func WriteScript(pattern string, script []byte) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create helper script: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(script); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write helper script: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write helper script: %w", err)
	}
	return path, cleanup, nil
}

// Run executes the interpreter with args and returns stdout. Cancelling ctx
// kills the process.
func Run(ctx context.Context, interpreter string, args []string, env ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, interpreter, args...)
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("helper aborted: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("failed to run helper: %w", err)
	}
	return out, nil
}

// LastLines joins the final n non-empty lines of s.
func LastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
