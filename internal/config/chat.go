package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
)

// Inference server presets.
const (
	ServerLMStudio = "lmstudio"
	ServerOllama   = "ollama"

	LMStudioURL       = "http://localhost:1234/v1"
	OllamaURL         = "http://localhost:11434/v1"
	DefaultFileServer = "http://localhost:8000"
)

// ChatConfig holds the chat client options.
type ChatConfig struct {
	// Preset that picks the default API URL and model
	Server string `yaml:"server"`

	APIURL      string  `yaml:"api_url,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// Base URL of the folder file server; empty disables file context
	FileServer string `yaml:"file_server"`

	HistoryFile string `yaml:"history_file,omitempty"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file,omitempty"`

	configPath string
}

// DefaultChatConfig returns a chat configuration with default values.
// APIURL and Model stay empty until the preset is applied.
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		Server:      ServerLMStudio,
		APIKey:      "not-needed",
		Temperature: 0.7,
		MaxTokens:   512,
		FileServer:  DefaultFileServer,
		HistoryFile: filepath.Join(GetConfigDir(), "chat_history"),
		LogLevel:    "warn",
	}
}

// LoadChat loads the chat configuration from file and command line arguments.
func LoadChat(args []string) (*ChatConfig, error) {
	cfg := DefaultChatConfig()

	fs := flag.NewFlagSet("folderchat", flag.ContinueOnError)
	server := fs.String("server", "", "Inference server preset (lmstudio, ollama)")
	apiURL := fs.String("api-url", "", "OpenAI-compatible API base URL")
	model := fs.String("model", "", "Model name")
	temperature := fs.Float64("temperature", 0, "Sampling temperature (0-2)")
	maxTokens := fs.Int("max-tokens", 0, "Maximum tokens per reply (1-8192)")
	fileServer := fs.String("file-server", "", "Folder file server URL (empty to disable)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Write logs to this file")
	configFile := fs.String("config", "", "Configuration file path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := setFlags(fs)

	cfgPath := findConfigFile(*configFile, "chat.yaml", "folderchat-chat.yaml")
	if cfgPath != "" {
		if err := loadFromFile(cfgPath, cfg); err != nil && *configFile != "" {
			return nil, err
		}
		cfg.configPath = cfgPath
	}

	if set["server"] {
		cfg.Server = *server
	}
	if set["api-url"] {
		cfg.APIURL = *apiURL
	}
	if set["model"] {
		cfg.Model = *model
	}
	if set["temperature"] {
		cfg.Temperature = float32(*temperature)
	}
	if set["max-tokens"] {
		cfg.MaxTokens = *maxTokens
	}
	if set["file-server"] {
		cfg.FileServer = *fileServer
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["log-file"] {
		cfg.LogFile = *logFile
	}

	cfg.applyPreset()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPreset fills APIURL and Model from the server preset when unset and
// normalises URLs.
func (c *ChatConfig) applyPreset() {
	c.Server = strings.ToLower(strings.TrimSpace(c.Server))
	if c.Server == "" {
		c.Server = ServerLMStudio
	}
	if c.APIURL == "" {
		c.APIURL = LMStudioURL
		if c.Server == ServerOllama {
			c.APIURL = OllamaURL
		}
	}
	if c.Model == "" {
		c.Model = "local"
		if c.Server == ServerOllama {
			c.Model = "qwen3:8b"
		}
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	c.FileServer = strings.TrimRight(c.FileServer, "/")
}

// Validate checks the ranges the chat UI allows.
func (c *ChatConfig) Validate() error {
	if c.Server != ServerLMStudio && c.Server != ServerOllama {
		return fmt.Errorf("unknown server preset %q", c.Server)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 8192 {
		return fmt.Errorf("max_tokens must be between 1 and 8192, got %d", c.MaxTokens)
	}
	return nil
}

// GetConfigFilePath returns the path to the config file, if one was read
func (c *ChatConfig) GetConfigFilePath() string {
	return c.configPath
}
