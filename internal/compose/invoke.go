package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Stdio carries the streams the child inherits.
type Stdio struct {
	In       io.Reader
	Out, Err io.Writer
}

// Invoke runs argv as a child process attached to the given streams and
// blocks until it exits. The child's exit code is returned so the caller
// can propagate it; a non-zero exit is not an error here. An error is
// only returned when the process could not be started at all.
func Invoke(ctx context.Context, argv []string, stdio Stdio) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return 0, nil
}
