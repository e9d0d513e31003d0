package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the global config dir at an empty temp home.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("expected loopback host, got %s", cfg.Host)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("expected 10MiB cap, got %d", cfg.MaxFileSize)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
}

func TestLoadServer_Flags(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := LoadServer([]string{"--path", dir, "--port", "9001", "--max-file-size", "1MiB", "--watch=false"})
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Path != dir {
		t.Errorf("expected path %s, got %s", dir, cfg.Path)
	}
	if cfg.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.Port)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("expected 1MiB, got %d", cfg.MaxFileSize)
	}
	if cfg.Watch {
		t.Error("expected watch to be disabled")
	}
	if cfg.Addr() != "127.0.0.1:9001" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
}

func TestLoadServer_RequiresPath(t *testing.T) {
	isolate(t)
	if _, err := LoadServer(nil); err == nil {
		t.Error("expected error without --path")
	}
}

func TestLoadServer_FileThenFlags(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeConfig(t, "path: "+dir+"\nport: 7000\nmax_file_size: 2MiB\nexclude:\n  - .git\n  - \"*.tmp\"\n")

	cfg, err := LoadServer([]string{"--config", path, "--port", "7100"})
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Path != dir {
		t.Errorf("expected path from file, got %s", cfg.Path)
	}
	if cfg.Port != 7100 {
		t.Errorf("expected flag to override port, got %d", cfg.Port)
	}
	if cfg.MaxFileSize != 2<<20 {
		t.Errorf("expected 2MiB from file, got %d", cfg.MaxFileSize)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[1] != "*.tmp" {
		t.Errorf("unexpected excludes %v", cfg.Exclude)
	}
	if !cfg.Watch {
		t.Error("watch default should survive when neither file nor flag sets it")
	}
	if cfg.GetConfigFilePath() != path {
		t.Errorf("expected config path %s, got %s", path, cfg.GetConfigFilePath())
	}
}

func TestLoadServer_MissingExplicitConfig(t *testing.T) {
	isolate(t)
	_, err := LoadServer([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "--path", t.TempDir()})
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestServerValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Path = "/tmp"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected port error")
	}

	cfg.Port = 8000
	cfg.Exclude = []string{"[bad"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected pattern error")
	}
}

func TestByteSizeYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeConfig(t, "path: "+dir+"\nmax_file_size: 4096\n")

	cfg, err := LoadServer([]string{"--config", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxFileSize != 4096 {
		t.Errorf("expected 4096, got %d", cfg.MaxFileSize)
	}
}

func TestLoadChat_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := LoadChat(nil)
	if err != nil {
		t.Fatalf("LoadChat failed: %v", err)
	}
	if cfg.APIURL != LMStudioURL {
		t.Errorf("expected LM Studio URL, got %s", cfg.APIURL)
	}
	if cfg.Model != "local" {
		t.Errorf("expected model local, got %s", cfg.Model)
	}
	if cfg.MaxTokens != 512 {
		t.Errorf("expected 512 max tokens, got %d", cfg.MaxTokens)
	}
	if cfg.FileServer != DefaultFileServer {
		t.Errorf("expected default file server, got %s", cfg.FileServer)
	}
}

func TestLoadChat_OllamaPreset(t *testing.T) {
	isolate(t)
	cfg, err := LoadChat([]string{"--server", "ollama", "--file-server", "http://127.0.0.1:9000/"})
	if err != nil {
		t.Fatalf("LoadChat failed: %v", err)
	}
	if cfg.APIURL != OllamaURL {
		t.Errorf("expected Ollama URL, got %s", cfg.APIURL)
	}
	if cfg.Model != "qwen3:8b" {
		t.Errorf("expected qwen3:8b, got %s", cfg.Model)
	}
	if cfg.FileServer != "http://127.0.0.1:9000" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.FileServer)
	}
}

func TestLoadChat_ExplicitModelWins(t *testing.T) {
	isolate(t)
	cfg, err := LoadChat([]string{"--server", "ollama", "--model", "llama3", "--api-url", "http://gpu:11434/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "llama3" {
		t.Errorf("expected llama3, got %s", cfg.Model)
	}
	if cfg.APIURL != "http://gpu:11434/v1" {
		t.Errorf("unexpected API URL %s", cfg.APIURL)
	}
}

func TestLoadChat_Ranges(t *testing.T) {
	isolate(t)
	if _, err := LoadChat([]string{"--temperature", "2.5"}); err == nil {
		t.Error("expected temperature error")
	}
	if _, err := LoadChat([]string{"--max-tokens", "9000"}); err == nil {
		t.Error("expected max tokens error")
	}
	if _, err := LoadChat([]string{"--server", "vllm"}); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := expandHome("~/audit"); got != filepath.Join(home, "audit") {
		t.Errorf("expected home expansion, got %s", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expected unchanged path, got %s", got)
	}
}
