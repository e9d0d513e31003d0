package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Root is a canonical, symlink-free directory fixed at construction time.
// It is immutable and safe for concurrent use.
type Root struct {
	path string
}

// NewRoot canonicalises dir and verifies that it is an existing directory.
func NewRoot(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("root path is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid root %s: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", dir, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", dir)
	}
	return &Root{path: resolved}, nil
}

// Path returns the canonical absolute root path.
func (r *Root) Path() string {
	return r.path
}

// Name returns the last element of the root path.
func (r *Root) Name() string {
	return filepath.Base(r.path)
}

// Resolve joins rel onto the root, canonicalises the result (dot segments and
// symlinks) and returns it only if it is the root itself or lies beneath it.
// Paths that do not exist are reported as not found, but only after the
// deepest existing ancestor has been shown to stay inside the root.
func (r *Root) Resolve(rel string) (string, error) {
	if strings.IndexByte(rel, 0) != -1 {
		return "", confinementError(rel)
	}
	native := filepath.FromSlash(rel)
	if filepath.IsAbs(native) || filepath.VolumeName(native) != "" || strings.HasPrefix(rel, "/") {
		return "", confinementError(rel)
	}

	joined := filepath.Join(r.path, native)
	if !HasPathPrefix(joined, r.path) {
		return "", confinementError(rel)
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err == nil {
		if !HasPathPrefix(resolved, r.path) {
			return "", confinementError(rel)
		}
		return resolved, nil
	}

	switch {
	case errors.Is(err, iofs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		if r.ancestorEscapes(joined) {
			return "", confinementError(rel)
		}
		return "", notFoundError(rel, iofs.ErrNotExist)
	case errors.Is(err, syscall.ELOOP):
		return "", confinementError(rel)
	default:
		return "", ioError(rel, err)
	}
}

// maxLinkHops bounds how far a chain of dangling links is followed.
const maxLinkHops = 8

// ancestorEscapes walks up from a missing path to the deepest component that
// exists and reports whether that component, or the chain of dangling links
// starting there, leads outside the root.
func (r *Root) ancestorEscapes(joined string) bool {
	for p := joined; HasPathPrefix(p, r.path); p = filepath.Dir(p) {
		info, err := os.Lstat(p)
		if err != nil {
			if p == r.path {
				return false
			}
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 && r.linkChainEscapes(p) {
			return true
		}
		real, err := filepath.EvalSymlinks(p)
		if err != nil {
			// a dangling chain whose every hop stays inside the root
			return false
		}
		return !HasPathPrefix(real, r.path)
	}
	return true
}

// linkChainEscapes follows the links starting at link one hop at a time and
// reports whether any hop points outside the root. A chain longer than
// maxLinkHops counts as an escape.
func (r *Root) linkChainEscapes(link string) bool {
	p := link
	for i := 0; i < maxLinkHops; i++ {
		target, err := os.Readlink(p)
		if err != nil {
			return true
		}
		if !filepath.IsAbs(target) {
			parent, err := filepath.EvalSymlinks(filepath.Dir(p))
			if err != nil {
				return true
			}
			target = filepath.Join(parent, target)
		}
		target = filepath.Clean(target)
		if !HasPathPrefix(target, r.path) {
			return true
		}

		info, err := os.Lstat(target)
		if err != nil {
			return r.missingEscapes(target)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return false
		}
		p = target
	}
	return true
}

// missingEscapes reports whether the deepest existing ancestor of the missing
// path p resolves outside the root.
func (r *Root) missingEscapes(p string) bool {
	for q := filepath.Dir(p); HasPathPrefix(q, r.path); q = filepath.Dir(q) {
		if _, err := os.Lstat(q); err != nil {
			continue
		}
		real, err := filepath.EvalSymlinks(q)
		return err != nil || !HasPathPrefix(real, r.path)
	}
	return true
}

// Rel returns resolved relative to the root in slash form, "." for the root.
func (r *Root) Rel(resolved string) (string, error) {
	rel, err := filepath.Rel(r.path, resolved)
	if err != nil {
		return "", err
	}
	if !HasPathPrefix(resolved, r.path) {
		return "", ErrConfinement
	}
	return filepath.ToSlash(rel), nil
}

// HasPathPrefix returns true when path equals base or lies beneath it at a
// path-segment boundary, so "/data/audit-backup" is not inside "/data/audit".
func HasPathPrefix(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}
