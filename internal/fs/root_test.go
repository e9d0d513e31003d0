package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setupAuditTree creates base/audit (the root) with notes.txt and reports/q1.csv,
// plus files next to the root that must never be reachable from it.
func setupAuditTree(t *testing.T) (base string, root *Root) {
	t.Helper()

	base = t.TempDir()
	audit := filepath.Join(base, "audit")
	write := func(path, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(filepath.Join(audit, "notes.txt"), "hello")
	write(filepath.Join(audit, "reports", "q1.csv"), "quarter,total\nq1,42\n")
	write(filepath.Join(base, "secret.txt"), "top secret")
	write(filepath.Join(base, "audit-backup", "x"), "backup")

	root, err := NewRoot(audit)
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return base, root
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}

func TestNewRoot_Validation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewRoot(""); err == nil {
		t.Error("expected error for empty root")
	}
	if _, err := NewRoot(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing root")
	}
	if _, err := NewRoot(file); err == nil {
		t.Error("expected error for file root")
	}
}

func TestNewRoot_Canonicalises(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewRoot(filepath.Join(dir, ".", "sub", ".."))
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	if root.Path() != real {
		t.Errorf("expected %s, got %s", real, root.Path())
	}
}

func TestResolve_RootEquality(t *testing.T) {
	_, root := setupAuditTree(t)

	for _, rel := range []string{"", ".", "./", "reports/.."} {
		got, err := root.Resolve(rel)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", rel, err)
			continue
		}
		if got != root.Path() {
			t.Errorf("Resolve(%q) = %s, want %s", rel, got, root.Path())
		}
	}
}

func TestResolve_Inside(t *testing.T) {
	_, root := setupAuditTree(t)

	got, err := root.Resolve("reports/q1.csv")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := filepath.Join(root.Path(), "reports", "q1.csv")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	got, err = root.Resolve("reports/../notes.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(root.Path(), "notes.txt") {
		t.Errorf("unexpected resolution %s", got)
	}
}

func TestResolve_Confinement(t *testing.T) {
	base, root := setupAuditTree(t)

	tests := []string{
		"..",
		"../secret.txt",
		"../../etc/passwd",
		"reports/../../secret.txt",
		"./../audit-backup/x",
		"../audit-backup/x",
		"/etc/passwd",
		filepath.Join(base, "secret.txt"),
		filepath.Join(root.Path(), "notes.txt"),
		"notes.txt\x00.png",
		"../missing/nothing.txt",
	}

	for _, rel := range tests {
		_, err := root.Resolve(rel)
		if err == nil {
			t.Errorf("Resolve(%q) succeeded, expected confinement error", rel)
			continue
		}
		if !IsKind(err, KindInvalidPath) {
			t.Errorf("Resolve(%q) kind = %s, want %s", rel, KindOf(err), KindInvalidPath)
		}
		if !errors.Is(err, ErrConfinement) {
			t.Errorf("Resolve(%q) should wrap ErrConfinement", rel)
		}
		if got := err.Error(); got != "invalid path" {
			t.Errorf("Resolve(%q) leaked detail: %q", rel, got)
		}
	}
}

func TestResolve_SymlinkEscape(t *testing.T) {
	base, root := setupAuditTree(t)

	symlinkOrSkip(t, filepath.Join(base, "secret.txt"), filepath.Join(root.Path(), "leak.txt"))
	symlinkOrSkip(t, base, filepath.Join(root.Path(), "up"))
	symlinkOrSkip(t, "../audit-backup", filepath.Join(root.Path(), "sibling"))
	symlinkOrSkip(t, filepath.Join(base, "nowhere"), filepath.Join(root.Path(), "dangling"))

	for _, rel := range []string{"leak.txt", "up", "up/secret.txt", "sibling/x", "up/missing.txt", "dangling"} {
		_, err := root.Resolve(rel)
		if !IsKind(err, KindInvalidPath) {
			t.Errorf("Resolve(%q) = %v, want invalid path", rel, err)
		}
	}
}

func TestResolve_DanglingChain(t *testing.T) {
	base, root := setupAuditTree(t)

	// a -> b -> outside, never created
	symlinkOrSkip(t, filepath.Join(base, "missing"), filepath.Join(root.Path(), "b"))
	symlinkOrSkip(t, "b", filepath.Join(root.Path(), "a"))
	// c -> d -> reports/gone -> ../../secret-missing
	symlinkOrSkip(t, "../../secret-missing", filepath.Join(root.Path(), "reports", "gone"))
	symlinkOrSkip(t, "reports/gone", filepath.Join(root.Path(), "d"))
	symlinkOrSkip(t, "d", filepath.Join(root.Path(), "c"))

	for _, rel := range []string{"b", "a", "a/child", "c", "d"} {
		_, err := root.Resolve(rel)
		if !IsKind(err, KindInvalidPath) {
			t.Errorf("Resolve(%q) = %v, want invalid path", rel, err)
		}
	}

	// e -> f -> reports/later.csv, all inside
	symlinkOrSkip(t, "reports/later.csv", filepath.Join(root.Path(), "f"))
	symlinkOrSkip(t, "f", filepath.Join(root.Path(), "e"))
	for _, rel := range []string{"e", "f", "e/child"} {
		_, err := root.Resolve(rel)
		if !IsKind(err, KindNotFound) {
			t.Errorf("Resolve(%q) = %v, want not found", rel, err)
		}
	}
}

func TestResolve_SymlinkInside(t *testing.T) {
	_, root := setupAuditTree(t)

	symlinkOrSkip(t, "reports", filepath.Join(root.Path(), "latest"))

	got, err := root.Resolve("latest/q1.csv")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(root.Path(), "reports", "q1.csv") {
		t.Errorf("expected symlink to resolve to its real target, got %s", got)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, root := setupAuditTree(t)

	for _, rel := range []string{"missing.txt", "reports/q2.csv", "notes.txt/child", "a/b/c"} {
		_, err := root.Resolve(rel)
		if !IsKind(err, KindNotFound) {
			t.Errorf("Resolve(%q) = %v, want not found", rel, err)
		}
	}
}

func TestHasPathPrefix(t *testing.T) {
	base := filepath.FromSlash("/data/audit")
	tests := []struct {
		path string
		want bool
	}{
		{"/data/audit", true},
		{"/data/audit/x", true},
		{"/data/audit/..x", true},
		{"/data/audit-backup/x", false},
		{"/data/auditx", false},
		{"/data", false},
		{"/data/audit/../secret", false},
	}
	for _, tt := range tests {
		got := HasPathPrefix(filepath.FromSlash(tt.path), base)
		if got != tt.want {
			t.Errorf("HasPathPrefix(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
