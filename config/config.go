// Package config handles liveprog.toml daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "liveprog.toml"

// Config represents a liveprog.toml file.
type Config struct {
	Server  Server  `toml:"server"`
	LSP     LSP     `toml:"lsp"`
	Log     Log     `toml:"log"`
	Presets Presets `toml:"presets"`
	Bridge  Bridge  `toml:"bridge"`
	Script  Script  `toml:"script"`

	// Dir is the directory containing the liveprog.toml file (set at load time).
	Dir string `toml:"-"`
}

// Server configures the RPC listener.
type Server struct {
	Addr string `toml:"addr"`
}

// LSP configures the editor language server on stdio.
type LSP struct {
	Enabled bool `toml:"enabled"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Presets configures the preset database.
type Presets struct {
	Path string `toml:"path"`
}

// Bridge configures variable access.
type Bridge struct {
	// ConsistentSnapshots freezes execution while a snapshot is taken.
	ConsistentSnapshots bool `toml:"consistent-snapshots"`
}

// Script names the script whose variables seed the engine at startup.
type Script struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no liveprog.toml exists.
func Default() *Config {
	c := newConfig()
	c.applyDefaults()
	if wd, err := os.Getwd(); err == nil {
		c.Dir = wd
	}
	return c
}

// newConfig returns a Config holding the defaults that an explicit zero in
// the file must be able to override.
func newConfig() *Config {
	return &Config{Log: Log{Verbosity: 1}}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "localhost:8491"
	}
	if c.Presets.Path == "" {
		c.Presets.Path = filepath.Join(".liveprog", "presets.db")
	}
}

// Load parses a liveprog.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := newConfig()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	return c, nil
}

// FindAndLoad walks up from startDir to find a liveprog.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// PresetPath returns the absolute path of the preset database.
func (c *Config) PresetPath() string {
	return c.resolve(c.Presets.Path)
}

// ScriptPath returns the absolute path of the startup script, or "" if
// none is configured.
func (c *Config) ScriptPath() string {
	if c.Script.Path == "" {
		return ""
	}
	return c.resolve(c.Script.Path)
}

// LogFile returns the log file path, or nil to log to stderr.
func (c *Config) LogFile() *string {
	if c.Log.File == "" {
		return nil
	}
	p := c.resolve(c.Log.File)
	return &p
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
