package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
)

// ConfigFileName is the project configuration file looked up from the
// workspace root upwards.
const ConfigFileName = "robot-lsp.toml"

// SettingsSection is the key of the server's settings in
// workspace/didChangeConfiguration payloads.
const SettingsSection = "robot"

// Config holds server configuration options.
type Config struct {
	// MaxProblems limits the number of diagnostics reported per document.
	MaxProblems int `toml:"max_problems"`

	// Trace controls logging verbosity: off, messages or verbose.
	Trace string `toml:"trace"`

	// LibspecDirs are searched for libdoc JSON files.
	LibspecDirs []string `toml:"libspec_dirs"`

	// ParserCommand is run to obtain syntax trees.
	ParserCommand string `toml:"parser_command"`

	// CacheDir keeps the libspec index between runs. Empty disables it.
	CacheDir string `toml:"cache_dir"`

	// DiagnosticsDelayMs debounces diagnostics after edits.
	DiagnosticsDelayMs int `toml:"diagnostics_delay_ms"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxProblems:        analysis.DefaultMaxProblems,
		Trace:              "off",
		DiagnosticsDelayMs: 300,
	}
}

// DiagnosticsDelay is DiagnosticsDelayMs as a duration.
func (c *Config) DiagnosticsDelay() time.Duration {
	return time.Duration(max(c.DiagnosticsDelayMs, 0)) * time.Millisecond
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	clone.LibspecDirs = slices.Clone(c.LibspecDirs)
	return &clone
}

// FindConfigFile walks up from startDir to locate robot-lsp.toml.
func FindConfigFile(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfigFile overlays the keys present in the TOML file at path onto c.
// Relative libspec and cache directories are resolved against the file's
// directory.
func (c *Config) LoadConfigFile(path string) error {
	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	base := filepath.Dir(path)
	if meta.IsDefined("max_problems") {
		c.MaxProblems = file.MaxProblems
	}
	if meta.IsDefined("trace") {
		c.Trace = file.Trace
	}
	if meta.IsDefined("libspec_dirs") {
		c.LibspecDirs = make([]string, len(file.LibspecDirs))
		for i, dir := range file.LibspecDirs {
			c.LibspecDirs[i] = resolveDir(base, dir)
		}
	}
	if meta.IsDefined("parser_command") {
		c.ParserCommand = strings.TrimSpace(file.ParserCommand)
	}
	if meta.IsDefined("cache_dir") {
		c.CacheDir = resolveDir(base, file.CacheDir)
	}
	if meta.IsDefined("diagnostics_delay_ms") {
		c.DiagnosticsDelayMs = file.DiagnosticsDelayMs
	}
	return c.Validate()
}

// ApplySettings overlays client settings, the value of the "robot" key of a
// didChangeConfiguration payload. It reports whether anything changed.
func (c *Config) ApplySettings(settings map[string]any) bool {
	changed := false
	if v, ok := settings["maxProblems"].(float64); ok && int(v) != c.MaxProblems {
		c.MaxProblems = int(v)
		changed = true
	}
	if v, ok := settings["trace"].(string); ok && v != c.Trace {
		c.Trace = v
		changed = true
	}
	if v, ok := settings["libspecDirs"].([]any); ok {
		var dirs []string
		for _, d := range v {
			if s, ok := d.(string); ok && s != "" {
				dirs = append(dirs, s)
			}
		}
		if !slices.Equal(dirs, c.LibspecDirs) {
			c.LibspecDirs = dirs
			changed = true
		}
	}
	if v, ok := settings["parserCommand"].(string); ok && strings.TrimSpace(v) != c.ParserCommand {
		c.ParserCommand = strings.TrimSpace(v)
		changed = true
	}
	if v, ok := settings["diagnosticsDelayMs"].(float64); ok && int(v) != c.DiagnosticsDelayMs {
		c.DiagnosticsDelayMs = int(v)
		changed = true
	}
	return changed
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	if c.MaxProblems < 0 {
		return fmt.Errorf("max_problems must not be negative, got %d", c.MaxProblems)
	}
	if c.MaxProblems > analysis.DefaultMaxProblems {
		return fmt.Errorf("max_problems must not exceed %d, got %d", analysis.DefaultMaxProblems, c.MaxProblems)
	}
	if c.DiagnosticsDelayMs < 0 {
		return fmt.Errorf("diagnostics_delay_ms must not be negative, got %d", c.DiagnosticsDelayMs)
	}
	switch c.Trace {
	case "off", "messages", "verbose":
	default:
		return fmt.Errorf("trace must be off, messages or verbose, got %q", c.Trace)
	}
	return nil
}

func resolveDir(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
