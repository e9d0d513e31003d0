package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MCP server identity and the protocol revisions it speaks, newest first.
const (
	mcpServerName = "folderchat"
	mcpVersion    = "1.0.0"
)

var mcpProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// JSON-RPC 2.0 error codes
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// MCPContent is one block of tool output.
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MCPToolResult is the result of tools/call. Operation failures are reported
// here with IsError set, not as JSON-RPC errors.
type MCPToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError"`
}

// MCPTool describes a tool and runs it.
type MCPTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`

	Handler func(ctx context.Context, args json.RawMessage) (*MCPToolResult, error) `json:"-"`
}

// MCPHandler serves the file operations as MCP tools over streamable HTTP in
// JSON response mode: every POST carries one JSON-RPC message and gets at most
// one JSON reply.
type MCPHandler struct {
	d     *Dispatcher
	tools []MCPTool
}

// NewMCPHandler registers the list_files and read_file_content tools.
func NewMCPHandler(d *Dispatcher) *MCPHandler {
	h := &MCPHandler{d: d}
	h.tools = []MCPTool{
		{
			Name:        "list_files",
			Description: "Returns a list of all files and subdirectories in the target audit directory (one level).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Directory relative to the target; empty for the target itself",
					},
				},
			},
			Handler: h.listFiles,
		},
		{
			Name: "read_file_content",
			Description: "Read and return the text content of a file in the target audit directory. " +
				"filename must be relative to the target path (e.g. 'foo.txt' or 'subdir/bar.txt').",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filename": map[string]interface{}{"type": "string"},
				},
				"required": []string{"filename"},
			},
			Handler: h.readFileContent,
		},
	}
	return h
}

// Handle handles POST on the MCP endpoint.
func (h *MCPHandler) Handle(c *gin.Context) {
	var req rpcRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, rpcFailure(nil, rpcParseError, "parse error"))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		c.JSON(http.StatusBadRequest, rpcFailure(req.ID, rpcInvalidRequest, "invalid request"))
		return
	}
	// notifications and client responses expect no reply
	if len(req.ID) == 0 || string(req.ID) == "null" {
		c.Status(http.StatusAccepted)
		return
	}

	result, rerr := h.dispatch(c.Request.Context(), req)
	if rerr != nil {
		c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rerr})
		return
	}
	if abandoned(c, c.Request.Context().Err()) {
		return
	}
	c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// MethodNotAllowed answers GET on the MCP endpoint; no server-initiated stream
// is offered.
func (h *MCPHandler) MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	c.Status(http.StatusMethodNotAllowed)
}

func (h *MCPHandler) dispatch(ctx context.Context, req rpcRequest) (interface{}, *rpcError) {
	switch req.Method {
	case "initialize":
		var params struct {
			ProtocolVersion string `json:"protocolVersion"`
		}
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return nil, &rpcError{Code: rpcInvalidParams, Message: "invalid initialize params"}
			}
		}
		return map[string]interface{}{
			"protocolVersion": negotiateVersion(params.ProtocolVersion),
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{"listChanged": false},
			},
			"serverInfo": map[string]interface{}{
				"name":    mcpServerName,
				"version": mcpVersion,
			},
		}, nil

	case "ping":
		return struct{}{}, nil

	case "tools/list":
		return map[string]interface{}{"tools": h.tools}, nil

	case "tools/call":
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return nil, &rpcError{Code: rpcInvalidParams, Message: "tools/call requires a tool name"}
		}
		tool := h.lookup(params.Name)
		if tool == nil {
			return nil, &rpcError{Code: rpcInvalidParams, Message: "unknown tool: " + params.Name}
		}
		args := params.Arguments
		if len(args) == 0 || string(args) == "null" {
			args = json.RawMessage("{}")
		}
		result, err := tool.Handler(ctx, args)
		if err != nil {
			return nil, &rpcError{Code: rpcInvalidParams, Message: err.Error()}
		}
		return result, nil

	default:
		return nil, &rpcError{Code: rpcMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func (h *MCPHandler) lookup(name string) *MCPTool {
	for i := range h.tools {
		if h.tools[i].Name == name {
			return &h.tools[i]
		}
	}
	return nil
}

func (h *MCPHandler) listFiles(ctx context.Context, args json.RawMessage) (*MCPToolResult, error) {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	resp, err := h.d.ListFiles(ctx, params.Path)
	if err != nil {
		return toolError(err), nil
	}
	return toolText(renderListing(h.d.RootName(), resp.Entries)), nil
}

func (h *MCPHandler) readFileContent(ctx context.Context, args json.RawMessage) (*MCPToolResult, error) {
	var params struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	resp, err := h.d.ReadFile(ctx, strings.TrimSpace(params.Filename))
	if err != nil {
		return toolError(err), nil
	}
	return toolText(resp.Content), nil
}

func toolText(text string) *MCPToolResult {
	return &MCPToolResult{Content: []MCPContent{{Type: "text", Text: text}}}
}

// toolError reports a failed operation with the same kind and caller-safe
// message the HTTP API uses.
func toolError(err error) *MCPToolResult {
	kind, _, message := classify(err)
	return &MCPToolResult{
		Content: []MCPContent{{Type: "text", Text: fmt.Sprintf("Error (%s): %s", kind, message)}},
		IsError: true,
	}
}

func rpcFailure(id json.RawMessage, code int, message string) rpcResponse {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}

func negotiateVersion(requested string) string {
	for _, v := range mcpProtocolVersions {
		if v == requested {
			return v
		}
	}
	return mcpProtocolVersions[0]
}
