// Package rewrite turns path-bearing command-line tokens into their
// container-side form, registering one bind mount per distinct host path.
package rewrite

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"cradle/internal/mount"
)

// flagPattern matches key=value style flags: one or more leading dashes,
// a flag name, and a value after the first '='.
var flagPattern = regexp.MustCompile(`^(-+[^=\s]+)=(.*)$`)

// IsPathLike reports whether a token looks like a filesystem path.
// The heuristic is slash presence. It can misclassify tokens such as
// URLs or regex patterns; callers needing precision declare the
// path-valued flags explicitly via Rewriter.PathFlags.
func IsPathLike(token string) bool {
	return strings.ContainsAny(token, `/\`)
}

// Resolve turns a possibly relative, possibly not-yet-existing path into
// an absolute host path. It only fails when the path syntax itself is
// invalid; missing files are fine.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("path %q contains a null byte", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

// Rewriter rewrites an argument vector against a mount registry.
type Rewriter struct {
	Registry *mount.Registry

	// LogDir and ContainerLogDir describe the fixed log mount that is
	// registered on every invocation before any argument is looked at.
	LogDir          string
	ContainerLogDir string

	// PathFlags optionally lists flag names (e.g. "--data") whose values
	// are always treated as paths, slash or not. When non-empty it also
	// exempts every other flag from the slash heuristic, trading recall
	// for precision.
	PathFlags []string
}

// Rewrite processes args in order and returns the rewritten vector.
// Tokens without a path separator pass through byte-for-byte. Flag
// tokens of the form -name=v1,v2 get each sub-path translated and the
// values rejoined in order; bare paths are replaced wholesale. Every
// distinct host path produces exactly one mount in the registry.
func (rw *Rewriter) Rewrite(args []string) ([]string, error) {
	if rw.LogDir != "" {
		rw.Registry.AddPair(rw.LogDir, rw.ContainerLogDir)
	}

	out := make([]string, 0, len(args))
	for _, arg := range args {
		token, err := rw.rewriteToken(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg, err)
		}
		out = append(out, token)
	}
	return out, nil
}

func (rw *Rewriter) rewriteToken(arg string) (string, error) {
	if m := flagPattern.FindStringSubmatch(arg); m != nil {
		name, value := m[1], m[2]
		if !rw.flagTakesPaths(name, value) {
			return arg, nil
		}
		rewritten, err := rw.rewriteList(value)
		if err != nil {
			return "", err
		}
		return name + "=" + rewritten, nil
	}

	// In schema mode bare tokens are never rewritten; in heuristic mode
	// only slash-bearing tokens are.
	if len(rw.PathFlags) > 0 || !IsPathLike(arg) {
		return arg, nil
	}
	return rw.translate(arg)
}

// flagTakesPaths decides whether a flag's value should be translated.
func (rw *Rewriter) flagTakesPaths(name, value string) bool {
	if len(rw.PathFlags) > 0 {
		for _, f := range rw.PathFlags {
			if f == name || strings.TrimLeft(f, "-") == strings.TrimLeft(name, "-") {
				return true
			}
		}
		return false
	}
	return IsPathLike(value)
}

// rewriteList translates a comma-separated list of sub-paths, keeping order.
func (rw *Rewriter) rewriteList(value string) (string, error) {
	parts := strings.Split(value, ",")
	targets := make([]string, 0, len(parts))
	for _, part := range parts {
		target, err := rw.translate(part)
		if err != nil {
			return "", err
		}
		targets = append(targets, target)
	}
	return strings.Join(targets, ","), nil
}

func (rw *Rewriter) translate(path string) (string, error) {
	abs, err := Resolve(path)
	if err != nil {
		return "", err
	}
	return rw.Registry.Add(abs), nil
}
