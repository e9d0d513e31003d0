// Package config manages YAML-based configuration and CLI flags for the file
// server and the chat client.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes that can be written as a number or as a
// human-readable string ("10MiB", "512 KB") in YAML and on the command line.
type ByteSize int64

// UnmarshalYAML accepts both integer and string forms.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*b = ByteSize(n)
		return nil
	}
	n, err := humanize.ParseBytes(node.Value)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", node.Value, err)
	}
	*b = ByteSize(n)
	return nil
}

// String implements flag.Value.
func (b *ByteSize) String() string {
	if b == nil {
		return "0"
	}
	return humanize.IBytes(uint64(*b))
}

// Set implements flag.Value.
func (b *ByteSize) Set(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	*b = ByteSize(n)
	return nil
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/folderchat"
	}
	return filepath.Join(home, ".config", "folderchat")
}

// findConfigFile returns explicit when set, otherwise the first existing
// candidate from the global config dir and the working directory.
func findConfigFile(explicit, globalName, localName string) string {
	if explicit != "" {
		return explicit
	}
	global := filepath.Join(GetConfigDir(), globalName)
	if _, err := os.Stat(global); err == nil {
		return global
	}
	if _, err := os.Stat(localName); err == nil {
		return localName
	}
	return ""
}

func loadFromFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// setFlags returns the names of flags given explicitly on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || (path[1] != '/' && path[1] != filepath.Separator) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
