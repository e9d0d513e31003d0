// Package handler exposes the confined filesystem over HTTP: the list_files and
// read_file operations, change notifications and the supporting middleware.
package handler

import (
	"context"
	"errors"
	"net/http"

	mfs "github.com/CageChen/folderchat/internal/fs"
	"github.com/CageChen/folderchat/internal/metrics"
	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/rs/zerolog"
)

// requestError is a caller mistake detected before the filesystem is touched.
type requestError struct {
	kind    string
	message string
}

func (e *requestError) Error() string {
	return e.message
}

var errPathRequired = &requestError{kind: protocol.KindBadRequest, message: "path is required"}

// Dispatcher maps the named operations onto a FileSystem and converts results
// to protocol payloads. It holds no per-request state.
type Dispatcher struct {
	fs       mfs.FileSystem
	rootName string
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher over fs. rootName is the display name of
// the served directory; the absolute root path is never sent to clients.
func NewDispatcher(fs mfs.FileSystem, rootName string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		fs:       fs,
		rootName: rootName,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// RootName returns the display name of the served directory.
func (d *Dispatcher) RootName() string {
	return d.rootName
}

// ListFiles lists the directory at path; an empty path lists the root.
func (d *Dispatcher) ListFiles(ctx context.Context, path string) (*protocol.ListFilesResponse, error) {
	entries, err := d.fs.List(ctx, path)
	if err != nil {
		d.observe(ctx, protocol.OpListFiles, path, err)
		return nil, err
	}
	d.observe(ctx, protocol.OpListFiles, path, nil)

	resp := &protocol.ListFilesResponse{
		Path:    path,
		Entries: make([]protocol.Entry, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = protocol.Entry{Name: e.Name, Kind: e.Kind(), Size: e.Size}
	}
	return resp, nil
}

// ReadFile reads the file at path.
func (d *Dispatcher) ReadFile(ctx context.Context, path string) (*protocol.ReadFileResponse, error) {
	if path == "" {
		d.observe(ctx, protocol.OpReadFile, path, errPathRequired)
		return nil, errPathRequired
	}
	content, err := d.fs.Read(ctx, path)
	if err != nil {
		d.observe(ctx, protocol.OpReadFile, path, err)
		return nil, err
	}
	d.observe(ctx, protocol.OpReadFile, path, nil)
	metrics.AddBytesRead(content.Size)

	return &protocol.ReadFileResponse{
		Path:     path,
		Content:  content.Text,
		IsBinary: content.IsBinary,
		Size:     content.Size,
		MIMEType: content.MIMEType,
	}, nil
}

// Call dispatches a named operation.
func (d *Dispatcher) Call(ctx context.Context, req protocol.CallRequest) (interface{}, error) {
	switch req.Operation {
	case protocol.OpListFiles:
		return d.ListFiles(ctx, req.Params.Path)
	case protocol.OpReadFile:
		return d.ReadFile(ctx, req.Params.Path)
	default:
		return nil, &requestError{kind: protocol.KindUnknownOperation, message: "unknown operation: " + req.Operation}
	}
}

// observe logs and counts one operation outcome. IO detail is only ever logged here.
func (d *Dispatcher) observe(ctx context.Context, op, path string, err error) {
	if err == nil {
		metrics.RecordOperation(op, "ok")
		d.logger.Debug().Str("op", op).Str("path", path).Msg("operation completed")
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordOperation(op, "cancelled")
		d.logger.Debug().Str("op", op).Str("path", path).Msg("operation abandoned")
		return
	}

	kind, _, _ := classify(err)
	metrics.RecordOperation(op, kind)

	event := d.logger.Info()
	switch kind {
	case string(mfs.KindInvalidPath):
		event = d.logger.Warn()
	case string(mfs.KindIO):
		event = d.logger.Error().Err(err)
	}
	event.Str("op", op).Str("path", path).Str("kind", kind).
		Str("request_id", requestIDFrom(ctx)).Msg("operation failed")
}

// classify maps an error to its wire kind, HTTP status and caller-safe message.
func classify(err error) (kind string, status int, message string) {
	var re *requestError
	if errors.As(err, &re) {
		status = http.StatusBadRequest
		if re.kind == protocol.KindUnknownOperation {
			status = http.StatusNotFound
		}
		return re.kind, status, re.message
	}

	var fe *mfs.Error
	if !errors.As(err, &fe) {
		return string(mfs.KindIO), http.StatusInternalServerError, "failed to access path"
	}
	switch fe.Kind {
	case mfs.KindInvalidPath:
		status = http.StatusForbidden
	case mfs.KindNotFound:
		status = http.StatusNotFound
	case mfs.KindTooLarge:
		status = http.StatusRequestEntityTooLarge
	default:
		status = http.StatusInternalServerError
	}
	return string(fe.Kind), status, fe.SafeMessage()
}
