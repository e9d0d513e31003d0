//go:build unix

package fs

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestLocalFS_FIFONotFound(t *testing.T) {
	_, root := setupAuditTree(t)
	if err := syscall.Mkfifo(filepath.Join(root.Path(), "pipe"), 0o644); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}
	lfs := NewLocalFS(root, Options{})

	ops := map[string]func(context.Context) error{
		"Read": func(ctx context.Context) error {
			_, err := lfs.Read(ctx, "pipe")
			return err
		},
		"List": func(ctx context.Context) error {
			_, err := lfs.List(ctx, "pipe")
			return err
		},
	}
	for name, op := range ops {
		done := make(chan error, 1)
		go func() { done <- op(context.Background()) }()

		select {
		case err := <-done:
			if !IsKind(err, KindNotFound) {
				t.Errorf("%s(pipe) = %v, want not found", name, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s(pipe) blocked waiting for a writer", name)
		}
	}
}

func TestOpenVerified_FIFODoesNotBlock(t *testing.T) {
	_, root := setupAuditTree(t)
	if err := syscall.Mkfifo(filepath.Join(root.Path(), "pipe"), 0o644); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		f, err := openVerified(root.Path(), "pipe")
		if err == nil {
			f.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("openVerified(pipe) failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("openVerified(pipe) blocked waiting for a writer")
	}
}
