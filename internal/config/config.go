// Package config loads opsnap configuration from YAML with built-in
// defaults. All paths that components touch (backup root, log file,
// protected files) come from here; nothing reads global state at import.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds a single command execution.
const DefaultTimeout = 300 * time.Second

// Duration wraps time.Duration so YAML can carry values like "30s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Provider selects and parameterizes an LLM backend.
type Provider struct {
	Type    string `yaml:"type"`     // "openai", "ollama", "static"
	Model   string `yaml:"model"`    // backend-specific model name
	APIKey  string `yaml:"api_key"`  // remote providers; falls back to OPENAI_API_KEY
	BaseURL string `yaml:"base_url"` // local providers; falls back to OLLAMA_BASE_URL
}

// Config holds all opsnap settings.
type Config struct {
	BackupDir      string            `yaml:"backup_dir"`
	LogFile        string            `yaml:"log_file"`
	AuditLog       string            `yaml:"audit_log"`
	CommandTimeout Duration          `yaml:"command_timeout"`
	ProtectedFiles []string          `yaml:"protected_files"`
	RestoreMap     map[string]string `yaml:"restore_map"`
	Provider       Provider          `yaml:"provider"`
}

// Default returns the built-in configuration. The protected-file set and
// restore map mirror each other: every protected file's basename must have
// a restore entry, or rollback cannot map it back (unknown basenames are
// skipped at restore time).
func Default() *Config {
	home := homeDir()
	return &Config{
		BackupDir:      filepath.Join(home, ".opsnap", "backups"),
		LogFile:        filepath.Join(home, ".opsnap", "opsnap.log"),
		AuditLog:       filepath.Join(home, ".opsnap", "audit.jsonl"),
		CommandTimeout: Duration(DefaultTimeout),
		ProtectedFiles: []string{
			filepath.Join(home, ".bashrc"),
			filepath.Join(home, ".ssh", "config"),
			"/etc/hosts",
		},
		RestoreMap: map[string]string{
			".bashrc": filepath.Join(home, ".bashrc"),
			"config":  filepath.Join(home, ".ssh", "config"),
			"hosts":   "/etc/hosts",
		},
		Provider: Provider{
			Type: "static",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".opsnap", "config.yaml")
}

// Load reads configuration from path, merging over defaults. A missing file
// is not an error, defaults apply. Malformed YAML is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = Duration(DefaultTimeout)
	}
	cfg.expandPaths()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills provider credentials from the environment when the file
// left them empty.
func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

// expandPaths resolves a leading "~/" in user-supplied paths.
func (c *Config) expandPaths() {
	c.BackupDir = expandHome(c.BackupDir)
	c.LogFile = expandHome(c.LogFile)
	c.AuditLog = expandHome(c.AuditLog)
	for i, p := range c.ProtectedFiles {
		c.ProtectedFiles[i] = expandHome(p)
	}
	for name, p := range c.RestoreMap {
		c.RestoreMap[name] = expandHome(p)
	}
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}
