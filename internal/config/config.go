package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the input, output, and bookkeeping locations for a run.
type Paths struct {
	SearchRoot  string `toml:"search_root"`
	OutputRoot  string `toml:"output_root"`
	MappingPath string `toml:"mapping_path"`
	LogDir      string `toml:"log_dir"`
}

// Discovery controls how session recordings are located and bound to subjects.
type Discovery struct {
	// NamePattern must match the whole directory name of a session recording.
	NamePattern string `toml:"name_pattern"`
	// SubjectMatch is "structural" (each session binds to its parent
	// directory) or "substring" (subject name searched inside session names).
	SubjectMatch string `toml:"subject_match"`
}

// Conversion contains the settings handed to the format bridge.
type Conversion struct {
	Task             string `toml:"task"`
	Format           string `toml:"format"`
	ConverterCommand string `toml:"converter_command"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	Overwrite        bool   `toml:"overwrite"`
}

// Anatomy describes where per-subject auxiliary files live and how missing
// files are treated.
type Anatomy struct {
	DirName         string `toml:"dir_name"`
	ImageExt        string `toml:"image_ext"`
	TransformSuffix string `toml:"transform_suffix"`
	MissingPolicy   string `toml:"missing_policy"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	FailureLog string `toml:"failure_log"`
}

// Config encapsulates all configuration values for megbids.
//
// Configuration sections by subsystem:
//   - Paths: search root, BIDS output root, mapping CSV, log directory
//   - Discovery: session name pattern and subject binding mode
//   - Conversion: task label, output format, bridge executable
//   - Anatomy: anatomical image / transform naming and missing-file policy
//   - Logging: log format, level, and the failure log file name
type Config struct {
	Paths      Paths      `toml:"paths"`
	Discovery  Discovery  `toml:"discovery"`
	Conversion Conversion `toml:"conversion"`
	Anatomy    Anatomy    `toml:"anatomy"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/megbids/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/megbids/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("megbids.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ApplyOverrides replaces path and discovery settings with non-empty values
// (typically from CLI flags), then re-normalizes and re-validates.
func (c *Config) ApplyOverrides(o Overrides) error {
	if v := strings.TrimSpace(o.SearchRoot); v != "" {
		c.Paths.SearchRoot = v
	}
	if v := strings.TrimSpace(o.OutputRoot); v != "" {
		c.Paths.OutputRoot = v
	}
	if v := strings.TrimSpace(o.MappingPath); v != "" {
		c.Paths.MappingPath = v
	}
	if v := strings.TrimSpace(o.NamePattern); v != "" {
		c.Discovery.NamePattern = v
	}
	if v := strings.TrimSpace(o.SubjectMatch); v != "" {
		c.Discovery.SubjectMatch = v
	}
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// Overrides carries command-line replacements for configured values.
type Overrides struct {
	SearchRoot   string
	OutputRoot   string
	MappingPath  string
	NamePattern  string
	SubjectMatch string
}

// EnsureDirectories creates the log directory. The output root is created
// lazily by the converter so a dry scan never touches it.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// NamePattern compiles the discovery pattern anchored to the whole name.
func (c *Config) NamePattern() (*regexp.Regexp, error) {
	return CompileNamePattern(c.Discovery.NamePattern)
}

// CompileNamePattern anchors expr so it has to match an entire directory name.
func CompileNamePattern(expr string) (*regexp.Regexp, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty name pattern")
	}
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile name pattern %q: %w", expr, err)
	}
	return re, nil
}

// FailureLogPath returns the append-only log that records failed subjects.
func (c *Config) FailureLogPath() string {
	return filepath.Join(c.Paths.LogDir, c.Logging.FailureLog)
}

// LedgerPath returns the SQLite run history location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.LogDir, "megbids.db")
}

// LockPath returns the file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "megbids.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
