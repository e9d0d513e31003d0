package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	mfs "github.com/CageChen/folderchat/internal/fs"
)

type mcpReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func mcpCall(t *testing.T, r http.Handler, target, method string, params interface{}) mcpReply {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatal(err)
	}
	w := do(t, r, http.MethodPost, target, body)
	if w.Code != http.StatusOK {
		t.Fatalf("%s: status = %d, body %s", method, w.Code, w.Body.String())
	}
	var reply mcpReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("%s: invalid reply %q: %v", method, w.Body.String(), err)
	}
	if reply.JSONRPC != "2.0" || string(reply.ID) != "1" {
		t.Errorf("%s: unexpected envelope %+v", method, reply)
	}
	return reply
}

func callTool(t *testing.T, r http.Handler, name string, args map[string]string) MCPToolResult {
	t.Helper()
	reply := mcpCall(t, r, "/mcp", "tools/call", map[string]interface{}{"name": name, "arguments": args})
	if reply.Error != nil {
		t.Fatalf("tools/call %s failed: %+v", name, reply.Error)
	}
	var result MCPToolResult
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("tools/call %s: unexpected content %+v", name, result.Content)
	}
	return result
}

func TestMCP_Initialize(t *testing.T) {
	r, _, _ := setupServer(t, mfs.Options{})

	for _, target := range []string{"/", "/mcp"} {
		reply := mcpCall(t, r, target, "initialize", map[string]interface{}{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]interface{}{},
			"clientInfo":      map[string]string{"name": "test", "version": "0"},
		})
		if reply.Error != nil {
			t.Fatalf("initialize failed: %+v", reply.Error)
		}
		var result struct {
			ProtocolVersion string `json:"protocolVersion"`
			Capabilities    struct {
				Tools *struct{} `json:"tools"`
			} `json:"capabilities"`
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		}
		if err := json.Unmarshal(reply.Result, &result); err != nil {
			t.Fatal(err)
		}
		if result.ProtocolVersion != "2025-03-26" {
			t.Errorf("protocolVersion = %q, want the client's", result.ProtocolVersion)
		}
		if result.Capabilities.Tools == nil {
			t.Error("expected tools capability")
		}
		if result.ServerInfo.Name != mcpServerName {
			t.Errorf("serverInfo.name = %q", result.ServerInfo.Name)
		}
	}

	reply := mcpCall(t, r, "/mcp", "initialize", map[string]interface{}{"protocolVersion": "1999-01-01"})
	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.ProtocolVersion != mcpProtocolVersions[0] {
		t.Errorf("unsupported version should fall back to %s, got %s", mcpProtocolVersions[0], result.ProtocolVersion)
	}
}

func TestMCP_Notification(t *testing.T) {
	r, _, _ := setupServer(t, mfs.Options{})

	w := do(t, r, http.MethodPost, "/mcp", []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("notification got a body: %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/mcp", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
}

func TestMCP_ToolsList(t *testing.T) {
	r, _, _ := setupServer(t, mfs.Options{})

	reply := mcpCall(t, r, "/mcp", "tools/list", map[string]interface{}{})
	var result struct {
		Tools []struct {
			Name        string                 `json:"name"`
			InputSchema map[string]interface{} `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %+v", result.Tools)
	}
	if result.Tools[0].Name != "list_files" || result.Tools[1].Name != "read_file_content" {
		t.Errorf("unexpected tools %+v", result.Tools)
	}
	if result.Tools[1].InputSchema["type"] != "object" {
		t.Errorf("unexpected schema %+v", result.Tools[1].InputSchema)
	}
}

func TestMCP_ListFiles(t *testing.T) {
	r, _, _ := setupServer(t, mfs.Options{})

	result := callTool(t, r, "list_files", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content[0].Text)
	}
	want := "Target: audit\n\n  file: logo.png\n  file: notes.txt\n  dir: reports\n"
	if result.Content[0].Text != want {
		t.Errorf("listing = %q, want %q", result.Content[0].Text, want)
	}

	result = callTool(t, r, "list_files", map[string]string{"path": "../audit-backup"})
	if !result.IsError || !strings.Contains(result.Content[0].Text, "invalid_path") {
		t.Errorf("expected invalid_path error, got %+v", result)
	}
}

func TestMCP_ReadFileContent(t *testing.T) {
	r, _, base := setupServer(t, mfs.Options{})

	result := callTool(t, r, "read_file_content", map[string]string{"filename": "reports/q1.csv"})
	if result.IsError || result.Content[0].Text != "quarter,total\nq1,42\n" {
		t.Errorf("unexpected result %+v", result)
	}

	result = callTool(t, r, "read_file_content", map[string]string{"filename": "logo.png"})
	if result.IsError || !strings.Contains(result.Content[0].Text, "This file is binary (logo.png") {
		t.Errorf("expected binary placeholder, got %+v", result)
	}

	tests := []struct {
		filename string
		kind     string
	}{
		{"../secret.txt", "invalid_path"},
		{"missing.txt", "not_found"},
		{"", "bad_request"},
	}
	for _, tt := range tests {
		result := callTool(t, r, "read_file_content", map[string]string{"filename": tt.filename})
		if !result.IsError {
			t.Errorf("read_file_content(%q) should fail", tt.filename)
			continue
		}
		text := result.Content[0].Text
		if !strings.HasPrefix(text, "Error ("+tt.kind+")") {
			t.Errorf("read_file_content(%q) = %q, want kind %s", tt.filename, text, tt.kind)
		}
		if strings.Contains(text, "top secret") || strings.Contains(text, base) {
			t.Errorf("read_file_content(%q) leaked detail: %q", tt.filename, text)
		}
	}
}

func TestMCP_ProtocolErrors(t *testing.T) {
	r, _, _ := setupServer(t, mfs.Options{})

	reply := mcpCall(t, r, "/mcp", "resources/list", nil)
	if reply.Error == nil || reply.Error.Code != rpcMethodNotFound {
		t.Errorf("expected method not found, got %+v", reply)
	}

	reply = mcpCall(t, r, "/mcp", "tools/call", map[string]interface{}{"name": "delete_file"})
	if reply.Error == nil || reply.Error.Code != rpcInvalidParams {
		t.Errorf("expected invalid params for unknown tool, got %+v", reply)
	}

	w := do(t, r, http.MethodPost, "/mcp", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	var parsed mcpReply
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Error == nil || parsed.Error.Code != rpcParseError {
		t.Errorf("expected parse error, got %s", w.Body.String())
	}
}
