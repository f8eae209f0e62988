package rewrite

import (
	"strings"
	"testing"

	"cradle/internal/mount"
)

func newTestRewriter() *Rewriter {
	return &Rewriter{
		Registry:        mount.NewRegistry("/docker_mounts"),
		LogDir:          "/home/user/.cradle/logs",
		ContainerLogDir: "/cradle/logs",
	}
}

func TestIsPathLike(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"/home/user/file", true},
		{"relative/path", true},
		{`C:\Users\me`, true},
		{"--verbose", false},
		{"plainword", false},
		{"-n=5", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPathLike(tt.token); got != tt.want {
			t.Errorf("IsPathLike(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestRewritePassThrough(t *testing.T) {
	rw := newTestRewriter()

	args := []string{"--verbose", "-n=5", "solve", "42"}
	got, err := rw.Rewrite(args)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	for i, arg := range args {
		if got[i] != arg {
			t.Errorf("token %d rewritten: %q -> %q", i, arg, got[i])
		}
	}
}

func TestRewriteBarePath(t *testing.T) {
	rw := newTestRewriter()

	got, err := rw.Rewrite([]string{"/home/user/input.txt"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	want := "/docker_mounts/home/user/input.txt"
	if got[0] != want {
		t.Errorf("rewritten token = %q, want %q", got[0], want)
	}

	mounts := rw.Registry.Mounts()
	// Log mount plus the translated path.
	if len(mounts) != 2 {
		t.Fatalf("got %d mounts, want 2", len(mounts))
	}
	if mounts[1].Source != "/home/user/input.txt" || mounts[1].Target != want {
		t.Errorf("mount = %+v, want source=/home/user/input.txt target=%s", mounts[1], want)
	}
}

func TestRewriteFlagWithPathList(t *testing.T) {
	rw := newTestRewriter()

	got, err := rw.Rewrite([]string{"--data=/a/b,/a/c"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	want := "--data=/docker_mounts/a/b,/docker_mounts/a/c"
	if got[0] != want {
		t.Errorf("rewritten flag = %q, want %q", got[0], want)
	}

	// Exactly two path mounts, in input order, after the log mount.
	mounts := rw.Registry.Mounts()
	if len(mounts) != 3 {
		t.Fatalf("got %d mounts, want 3", len(mounts))
	}
	if mounts[1].Source != "/a/b" || mounts[2].Source != "/a/c" {
		t.Errorf("mount order wrong: %+v", mounts[1:])
	}
}

func TestRewriteSingleValueFlag(t *testing.T) {
	rw := newTestRewriter()

	got, err := rw.Rewrite([]string{"-output=/var/out"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got[0] != "-output=/docker_mounts/var/out" {
		t.Errorf("rewritten flag = %q", got[0])
	}
}

func TestRewriteFlagWithoutPathValue(t *testing.T) {
	rw := newTestRewriter()

	got, err := rw.Rewrite([]string{"--mode=fast"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got[0] != "--mode=fast" {
		t.Errorf("non-path flag rewritten: %q", got[0])
	}
}

func TestRewriteDeduplicatesAcrossSpellings(t *testing.T) {
	rw := newTestRewriter()

	got, err := rw.Rewrite([]string{
		"/home/user/input.txt",
		"/home/user/../user/input.txt",
	})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	if got[0] != got[1] {
		t.Errorf("same host path mapped to different targets: %q vs %q", got[0], got[1])
	}
	// Log mount plus one deduplicated path mount.
	if rw.Registry.Len() != 2 {
		t.Errorf("registry has %d mounts, want 2", rw.Registry.Len())
	}
}

func TestRewriteAlwaysMountsLogDir(t *testing.T) {
	rw := newTestRewriter()

	if _, err := rw.Rewrite(nil); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	mounts := rw.Registry.Mounts()
	if len(mounts) != 1 {
		t.Fatalf("got %d mounts, want 1 (log mount)", len(mounts))
	}
	if mounts[0].Source != "/home/user/.cradle/logs" || mounts[0].Target != "/cradle/logs" {
		t.Errorf("log mount = %+v", mounts[0])
	}
}

func TestRewriteEmptySubPathFails(t *testing.T) {
	rw := newTestRewriter()

	_, err := rw.Rewrite([]string{"--data=/a/b,,/a/c"})
	if err == nil {
		t.Fatal("expected error for empty sub-path")
	}
	if !strings.Contains(err.Error(), "empty path") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRewriteNullByteFails(t *testing.T) {
	_, err := Resolve("/a/b\x00c")
	if err == nil {
		t.Fatal("expected error for null byte in path")
	}
}

func TestRewriteSchemaMode(t *testing.T) {
	rw := newTestRewriter()
	rw.PathFlags = []string{"--data"}

	got, err := rw.Rewrite([]string{
		"--data=input",
		"--pattern=a/b.*",
		"https://example.com/x",
	})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	// Declared flag is translated even without a slash in its value.
	if !strings.HasPrefix(got[0], "--data=/docker_mounts/") {
		t.Errorf("declared path flag not translated: %q", got[0])
	}
	// Undeclared flags and bare tokens are left alone in schema mode.
	if got[1] != "--pattern=a/b.*" {
		t.Errorf("undeclared flag rewritten: %q", got[1])
	}
	if got[2] != "https://example.com/x" {
		t.Errorf("bare token rewritten in schema mode: %q", got[2])
	}
}

func TestResolveRelativePath(t *testing.T) {
	abs, err := Resolve("some/relative/file")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(abs, "/") {
		t.Errorf("Resolve returned non-absolute path %q", abs)
	}
	if !strings.HasSuffix(abs, "/some/relative/file") {
		t.Errorf("Resolve mangled path: %q", abs)
	}
}
