package testsupport

import (
	"path/filepath"
	"testing"

	"megbids/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The search root is <base>/meg, the output root <base>/out/BIDS.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SearchRoot = filepath.Join(base, "meg")
	cfgVal.Paths.OutputRoot = filepath.Join(base, "out", "BIDS")
	cfgVal.Paths.MappingPath = filepath.Join(base, "out", "subjects.csv")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Conversion.TimeoutSeconds = 30

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSubjectMatch selects the subject binding mode.
func WithSubjectMatch(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.SubjectMatch = mode
	}
}

// WithMissingPolicy sets how absent anatomical files are handled.
func WithMissingPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Anatomy.MissingPolicy = policy
	}
}

// WithNamePattern overrides the session directory pattern.
func WithNamePattern(expr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.NamePattern = expr
	}
}

// WithConverterCommand points the bridge at a specific executable.
func WithConverterCommand(cmd string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.ConverterCommand = cmd
	}
}

// BaseDir returns the temp directory backing the config's paths.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SearchRoot)
}
