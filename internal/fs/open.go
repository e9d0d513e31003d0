package fs

import (
	"os"
	"path/filepath"
	"syscall"
)

// openVerified opens root/rel by path and then checks that the opened file is
// still the one the path resolves to, and that it still lies inside root. A
// rename racing between the checks can still slip through; callers on Linux
// avoid this path entirely via openat2. Like openBeneath, the open does not
// wait for a FIFO writer.
func openVerified(root, rel string) (*os.File, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	f, err := os.OpenFile(full, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	opened, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	real, err := filepath.EvalSymlinks(full)
	if err != nil || !HasPathPrefix(real, root) {
		_ = f.Close()
		return nil, ErrConfinement
	}
	current, err := os.Stat(real)
	if err != nil || !os.SameFile(opened, current) {
		_ = f.Close()
		return nil, ErrConfinement
	}
	return f, nil
}
