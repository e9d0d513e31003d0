package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize caps how much of a single file Read will load.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Options configures a LocalFS.
type Options struct {
	MaxFileSize int64
	Exclude     []string
}

// LocalFS implements FileSystem on the local disk beneath a Root.
type LocalFS struct {
	root        *Root
	maxFileSize int64
	exclude     []string
}

// NewLocalFS creates a LocalFS confined to root.
func NewLocalFS(root *Root, opts Options) *LocalFS {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &LocalFS{
		root:        root,
		maxFileSize: opts.MaxFileSize,
		exclude:     append([]string(nil), opts.Exclude...),
	}
}

// Root returns the root this filesystem is confined to.
func (l *LocalFS) Root() *Root {
	return l.root
}

// MaxFileSize returns the configured read cap in bytes.
func (l *LocalFS) MaxFileSize() int64 {
	return l.maxFileSize
}

// resolve validates path and returns it relative to the root in slash form.
func (l *LocalFS) resolve(p string) (string, error) {
	resolved, err := l.root.Resolve(p)
	if err != nil {
		return "", err
	}
	rel, err := l.root.Rel(resolved)
	if err != nil {
		return "", confinementError(p)
	}
	if l.IsExcluded(rel) {
		return "", notFoundError(p, iofs.ErrNotExist)
	}
	return rel, nil
}

func (l *LocalFS) open(p, rel string) (*os.File, error) {
	f, err := openBeneath(l.root.Path(), rel)
	if err == nil {
		return f, nil
	}
	switch {
	case errors.Is(err, ErrConfinement):
		return nil, confinementError(p)
	case errors.Is(err, iofs.ErrNotExist):
		return nil, notFoundError(p, err)
	}
	return nil, ioError(p, err)
}

// List returns the immediate children of the directory at path, sorted by
// name. An empty path lists the root.
func (l *LocalFS) List(ctx context.Context, p string) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := l.open(p, rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ioError(p, err)
	}
	if !info.IsDir() {
		return nil, notFoundError(p, errors.New("not a directory"))
	}

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, ioError(p, err)
	}

	result := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		childRel := e.Name()
		if rel != "." {
			childRel = rel + "/" + e.Name()
		}
		if l.IsExcluded(childRel) {
			continue
		}
		entry := DirEntry{Name: e.Name(), IsDir: e.IsDir()}
		if !entry.IsDir {
			if fi, err := e.Info(); err == nil {
				entry.Size = fi.Size()
			}
		}
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Read loads the file at path and classifies it as text or binary. Directories
// and other non-regular files are reported as not found.
func (l *LocalFS) Read(ctx context.Context, p string) (*FileContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := l.open(p, rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ioError(p, err)
	}
	if !info.Mode().IsRegular() {
		return nil, notFoundError(p, errors.New("not a regular file"))
	}
	if info.Size() > l.maxFileSize {
		return nil, &Error{Kind: KindTooLarge, Path: p, Limit: l.maxFileSize}
	}

	data, err := io.ReadAll(io.LimitReader(&ctxReader{ctx: ctx, r: f}, l.maxFileSize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ioError(p, err)
	}
	if int64(len(data)) > l.maxFileSize {
		return nil, &Error{Kind: KindTooLarge, Path: p, Limit: l.maxFileSize}
	}

	return Classify(p, data), nil
}

// IsExcluded checks whether rel, or any directory above it, matches one of the
// exclude patterns. Patterns are matched against each name and against the
// slash-separated path from the root.
func (l *LocalFS) IsExcluded(rel string) bool {
	if len(l.exclude) == 0 || rel == "." || rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		for _, pattern := range l.exclude {
			pattern = filepath.ToSlash(pattern)
			if matched, _ := path.Match(pattern, parts[i]); matched {
				return true
			}
			if matched, _ := path.Match(pattern, prefix); matched {
				return true
			}
		}
	}
	return false
}

// ctxReader abandons a read once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ FileSystem = (*LocalFS)(nil)
