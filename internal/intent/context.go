package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CageChen/folderchat/internal/fileclient"
	"github.com/CageChen/folderchat/internal/protocol"
)

// Files is the subset of the file server API the chat layer needs.
type Files interface {
	ListFiles(ctx context.Context, path string) (*protocol.ListFilesResponse, error)
	ReadFile(ctx context.Context, path string) (*protocol.ReadFileResponse, error)
}

// Result is what the chat layer gets back for one message.
type Result struct {
	Intent Intent
	// Context is the system message to prepend to the conversation, if any.
	Context string
	// Notice is shown to the user as a plain chat line when the file server
	// rejected an explicit request.
	Notice string
}

// ContextFor classifies message and, when it asks for files, fetches them.
// Errors other than the server's typed path errors are returned so the caller
// can log them; the conversation then continues without file context.
func ContextFor(ctx context.Context, files Files, message string) (Result, error) {
	in := Classify(message)
	res := Result{Intent: in}

	switch in.Op {
	case ListFiles:
		list, err := files.ListFiles(ctx, "")
		if err != nil {
			return res, userFacing(&res, in, err)
		}
		res.Context = "Context from file system (list of files and subdirectories):\n" + FormatListing(list.Entries)
	case ReadFile:
		file, err := files.ReadFile(ctx, in.Path)
		if err != nil {
			return res, userFacing(&res, in, err)
		}
		res.Context = "Context from file system (content of " + in.Path + "):\n" + file.Content
	}
	return res, nil
}

// userFacing turns path and not-found failures into a notice. Guessed paths
// fail silently.
func userFacing(res *Result, in Intent, err error) error {
	var apiErr *fileclient.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind {
	case "invalid_path", "not_found", "too_large":
		if in.Explicit {
			res.Notice = fmt.Sprintf("Could not %s: %s", describe(in), apiErr.Message)
		}
		return nil
	}
	return err
}

func describe(in Intent) string {
	if in.Op == ListFiles {
		return "list files"
	}
	return "read " + in.Path
}

// FormatListing renders entries one per line as "  kind: name".
func FormatListing(entries []protocol.Entry) string {
	if len(entries) == 0 {
		return "(empty)\n"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s: %s\n", e.Kind, e.Name)
	}
	return b.String()
}
