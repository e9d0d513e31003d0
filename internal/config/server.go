package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
)

// ServerConfig holds all configuration options for the file server
type ServerConfig struct {
	// Directory that every operation is confined to
	Path string `yaml:"path"`

	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	MaxFileSize ByteSize `yaml:"max_file_size"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Watch       bool     `yaml:"watch"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`

	// Internal: path of the file the config was read from
	configPath string
}

// DefaultServerConfig returns a configuration with default values
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:        "127.0.0.1",
		Port:        8000,
		MaxFileSize: 10 * 1024 * 1024,
		Watch:       true,
		LogLevel:    "info",
	}
}

// LoadServer loads configuration from file and command line arguments.
// Flags override the file only when given explicitly.
func LoadServer(args []string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	fs := flag.NewFlagSet("folderchat-server", flag.ContinueOnError)
	path := fs.String("path", "", "Directory to serve (required)")
	fs.StringVar(path, "p", "", "Directory to serve (shorthand)")
	host := fs.String("host", "", "Host to bind")
	port := fs.Int("port", 0, "Port to listen on")
	var maxSize ByteSize
	fs.Var(&maxSize, "max-file-size", "Largest file read_file will return (e.g. 10MiB)")
	watch := fs.Bool("watch", true, "Push change notifications for the served directory")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Write logs to this file instead of stderr")
	configFile := fs.String("config", "", "Configuration file path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := setFlags(fs)

	cfgPath := findConfigFile(*configFile, "server.yaml", "folderchat.yaml")
	if cfgPath != "" {
		if err := loadFromFile(cfgPath, cfg); err != nil && *configFile != "" {
			// Only fail if the user named the file explicitly
			return nil, err
		}
		cfg.configPath = cfgPath
	}

	if set["path"] || set["p"] {
		cfg.Path = *path
	}
	if set["host"] {
		cfg.Host = *host
	}
	if set["port"] {
		cfg.Port = *port
	}
	if set["max-file-size"] {
		cfg.MaxFileSize = maxSize
	}
	if set["watch"] {
		cfg.Watch = *watch
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["log-file"] {
		cfg.LogFile = *logFile
	}

	if cfg.Path != "" {
		if abs, err := filepath.Abs(expandHome(cfg.Path)); err == nil {
			cfg.Path = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be served.
func (c *ServerConfig) Validate() error {
	if c.Path == "" {
		return errors.New("path is required (--path DIR)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GetConfigFilePath returns the path to the config file, if one was read
func (c *ServerConfig) GetConfigFilePath() string {
	return c.configPath
}
