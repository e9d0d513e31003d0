package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is reported when the caller went away mid-operation.
const statusClientClosedRequest = 499

// FileHandler serves the file operations over HTTP
type FileHandler struct {
	d *Dispatcher
}

// NewFileHandler creates a new file handler
func NewFileHandler(d *Dispatcher) *FileHandler {
	return &FileHandler{d: d}
}

// ListFiles handles GET /api/list_files?path=
func (h *FileHandler) ListFiles(c *gin.Context) {
	resp, err := h.d.ListFiles(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReadFile handles GET /api/read_file?path=
func (h *FileHandler) ReadFile(c *gin.Context) {
	resp, err := h.d.ReadFile(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Call handles POST /api/call with a {"operation", "params"} body.
func (h *FileHandler) Call(c *gin.Context) {
	var req protocol.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &requestError{kind: protocol.KindBadRequest, message: "invalid request body"})
		return
	}

	resp, err := h.d.Call(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListFilesText handles GET /list_files and renders the root listing as plain text.
func (h *FileHandler) ListFilesText(c *gin.Context) {
	resp, err := h.d.ListFiles(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeTextError(c, err)
		return
	}

	c.String(http.StatusOK, renderListing(h.d.RootName(), resp.Entries))
}

// renderListing formats entries one per line under the root's display name.
func renderListing(rootName string, entries []protocol.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\n\n", rootName)
	if len(entries) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s: %s\n", e.Kind, e.Name)
	}
	return b.String()
}

// ReadFileText handles GET /read_file?path= and returns the content as plain text.
func (h *FileHandler) ReadFileText(c *gin.Context) {
	resp, err := h.d.ReadFile(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeTextError(c, err)
		return
	}
	c.String(http.StatusOK, resp.Content)
}

func writeError(c *gin.Context, err error) {
	if abandoned(c, err) {
		return
	}
	kind, status, message := classify(err)
	c.JSON(status, protocol.ErrorResponse{
		Error: protocol.ErrorDetail{Kind: kind, Message: message},
	})
}

func writeTextError(c *gin.Context, err error) {
	if abandoned(c, err) {
		return
	}
	_, status, message := classify(err)
	c.String(status, "Error: %s\n", message)
}

func abandoned(c *gin.Context, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.AbortWithStatus(statusClientClosedRequest)
		return true
	}
	return false
}
