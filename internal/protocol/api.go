// Package protocol defines the API request/response types shared by the file
// server and its clients.
package protocol

// Operation names accepted by POST /api/call.
const (
	OpListFiles = "list_files"
	OpReadFile  = "read_file"
)

// Error kinds that are not produced by the filesystem layer.
const (
	KindBadRequest       = "bad_request"
	KindUnknownOperation = "unknown_operation"
)

// Entry is one child of a listed directory.
type Entry struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "file" or "dir"
	Size int64  `json:"size,omitempty"`
}

// ListFilesResponse is returned by GET /api/list_files
type ListFilesResponse struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

// ReadFileResponse is returned by GET /api/read_file. When IsBinary is set,
// Content carries a placeholder message instead of the file bytes.
type ReadFileResponse struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	IsBinary bool   `json:"is_binary"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type,omitempty"`
}

// CallParams are the named parameters of an operation.
type CallParams struct {
	Path string `json:"path"`
}

// CallRequest is the body for POST /api/call.
type CallRequest struct {
	Operation string     `json:"operation" binding:"required"`
	Params    CallParams `json:"params"`
}

// ErrorDetail describes a failed operation without exposing filesystem detail.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ChangeEvent is pushed over GET /api/ws when something under the root changes.
type ChangeEvent struct {
	Type    string        `json:"type"`
	Payload ChangePayload `json:"payload"`
}

// ChangePayload carries the event name and the root-relative slash path.
type ChangePayload struct {
	Event string `json:"event"` // create, update, remove, rename
	Path  string `json:"path"`
}
