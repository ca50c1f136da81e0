package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[server]
addr = "0.0.0.0:9000"

[lsp]
enabled = true

[log]
verbosity = 2
file = "liveprog.log"

[presets]
path = "/var/lib/liveprog/presets.db"

[bridge]
consistent-snapshots = true

[script]
path = "scripts/bass.eel"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("server addr = %q", c.Server.Addr)
	}
	if !c.LSP.Enabled {
		t.Error("lsp enabled = false, want true")
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", c.Log.Verbosity)
	}
	if got := c.LogFile(); got == nil || *got != filepath.Join(c.Dir, "liveprog.log") {
		t.Errorf("log file = %v", got)
	}
	if c.PresetPath() != "/var/lib/liveprog/presets.db" {
		t.Errorf("preset path = %q", c.PresetPath())
	}
	if !c.Bridge.ConsistentSnapshots {
		t.Error("bridge consistent-snapshots = false, want true")
	}
	if c.ScriptPath() != filepath.Join(c.Dir, "scripts", "bass.eel") {
		t.Errorf("script path = %q", c.ScriptPath())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[lsp]\nenabled = false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Server.Addr != "localhost:8491" {
		t.Errorf("default addr = %q", c.Server.Addr)
	}
	if c.Log.Verbosity != 1 {
		t.Errorf("default verbosity = %d", c.Log.Verbosity)
	}
	if c.LogFile() != nil {
		t.Errorf("default log file = %v, want stderr", *c.LogFile())
	}
	if c.PresetPath() != filepath.Join(c.Dir, ".liveprog", "presets.db") {
		t.Errorf("default preset path = %q", c.PresetPath())
	}
	if c.ScriptPath() != "" {
		t.Errorf("default script path = %q", c.ScriptPath())
	}
}

func TestLoadConfigZeroVerbosity(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[log]\nverbosity = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Log.Verbosity != 0 {
		t.Errorf("verbosity = %d, want 0 as written", c.Log.Verbosity)
	}
}

func TestLoadConfigParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[server\naddr = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted malformed TOML")
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load succeeded without a file")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[server]\naddr = \"x:1\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if c.Server.Addr != "x:1" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	abs, _ := filepath.Abs(root)
	if c.Dir != abs {
		t.Errorf("dir = %q, want %q", c.Dir, abs)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil config, got %+v", c)
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Server.Addr == "" || c.Presets.Path == "" {
		t.Errorf("Default() = %+v", c)
	}
}
