//go:build linux

package fs

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// openBeneath opens rel (already canonical and symlink-free) relative to a
// descriptor on root. The kernel refuses any component that is a symlink or
// that climbs out of root, so a link swapped in after Resolve cannot be
// followed. The open never blocks: a FIFO or device is returned as is and
// rejected by the caller's file type check.
func openBeneath(root, rel string) (*os.File, error) {
	dir, err := os.Open(root)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	fd, err := unix.Openat2(int(dir.Fd()), filepath.FromSlash(rel), &unix.OpenHow{
		Flags:   unix.O_RDONLY | unix.O_CLOEXEC | unix.O_NONBLOCK,
		Resolve: unix.RESOLVE_BENEATH | unix.RESOLVE_NO_SYMLINKS | unix.RESOLVE_NO_MAGICLINKS,
	})
	if err != nil {
		switch {
		case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EPERM):
			// kernel < 5.6 or openat2 filtered by seccomp
			return openVerified(root, rel)
		case errors.Is(err, unix.EXDEV), errors.Is(err, unix.ELOOP):
			return nil, ErrConfinement
		}
		return nil, &os.PathError{Op: "openat2", Path: rel, Err: err}
	}
	if err := unix.SetNonblock(fd, false); err != nil {
		_ = unix.Close(fd)
		return nil, &os.PathError{Op: "fcntl", Path: rel, Err: err}
	}
	return os.NewFile(uintptr(fd), filepath.Join(root, filepath.FromSlash(rel))), nil
}
