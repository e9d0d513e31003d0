// Package fs provides read-only access to a directory tree that is confined to a
// single root: every caller-supplied path is canonicalised and checked against
// the root before anything is opened or listed.
package fs

import "context"

// Entry kinds reported for directory children.
const (
	KindFile = "file"
	KindDir  = "dir"
)

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Kind returns "dir" for directories and "file" for everything else.
func (e DirEntry) Kind() string {
	if e.IsDir {
		return KindDir
	}
	return KindFile
}

// FileContent is the result of reading a file. When IsBinary is set, Text holds
// a human-readable placeholder instead of the file bytes.
type FileContent struct {
	Text     string
	IsBinary bool
	Size     int64
	MIMEType string
}

// FileSystem abstracts the two confined operations so handlers and tests can
// swap the backing implementation.
type FileSystem interface {
	List(ctx context.Context, path string) ([]DirEntry, error)
	Read(ctx context.Context, path string) (*FileContent, error)
}
