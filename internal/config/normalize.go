package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeConversion()
	c.normalizeAnatomy()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	envFallback(&c.Paths.SearchRoot, "MEGBIDS_SEARCH_ROOT")
	envFallback(&c.Paths.OutputRoot, "MEGBIDS_OUTPUT_ROOT")
	envFallback(&c.Paths.MappingPath, "MEGBIDS_MAPPING_PATH")

	var err error
	if c.Paths.SearchRoot, err = expandPath(strings.TrimSpace(c.Paths.SearchRoot)); err != nil {
		return fmt.Errorf("paths.search_root: %w", err)
	}
	if c.Paths.OutputRoot, err = expandPath(strings.TrimSpace(c.Paths.OutputRoot)); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.MappingPath) == "" && c.Paths.OutputRoot != "" {
		c.Paths.MappingPath = filepath.Join(filepath.Dir(c.Paths.OutputRoot), "subjects.csv")
	}
	if c.Paths.MappingPath, err = expandPath(strings.TrimSpace(c.Paths.MappingPath)); err != nil {
		return fmt.Errorf("paths.mapping_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// envFallback fills an unset value from the environment. Values set in the
// config file win over the environment, matching the other key fallbacks.
func envFallback(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		if strings.TrimSpace(*target) == "" || *target == defaultFor(key) {
			*target = strings.TrimSpace(value)
		}
	}
}

func defaultFor(key string) string {
	switch key {
	case "MEGBIDS_SEARCH_ROOT":
		return defaultSearchRoot
	case "MEGBIDS_OUTPUT_ROOT":
		return defaultOutputRoot
	case "MEGBIDS_MAPPING_PATH":
		return defaultMappingPath
	case "MEGBIDS_CONVERTER":
		return defaultConverterCommand
	default:
		return ""
	}
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.NamePattern = strings.TrimSpace(c.Discovery.NamePattern)
	if c.Discovery.NamePattern == "" {
		c.Discovery.NamePattern = defaultNamePattern
	}
	c.Discovery.SubjectMatch = strings.ToLower(strings.TrimSpace(c.Discovery.SubjectMatch))
	if c.Discovery.SubjectMatch == "" {
		c.Discovery.SubjectMatch = SubjectMatchStructural
	}
}

func (c *Config) normalizeConversion() {
	c.Conversion.Task = strings.TrimSpace(c.Conversion.Task)
	if c.Conversion.Task == "" {
		c.Conversion.Task = defaultTask
	}
	c.Conversion.Format = strings.ToUpper(strings.TrimSpace(c.Conversion.Format))
	if c.Conversion.Format == "" {
		c.Conversion.Format = defaultFormat
	}
	envFallback(&c.Conversion.ConverterCommand, "MEGBIDS_CONVERTER")
	c.Conversion.ConverterCommand = strings.TrimSpace(c.Conversion.ConverterCommand)
	if c.Conversion.ConverterCommand == "" {
		c.Conversion.ConverterCommand = defaultConverterCommand
	}
	if c.Conversion.TimeoutSeconds == 0 {
		c.Conversion.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeAnatomy() {
	c.Anatomy.DirName = strings.TrimSpace(c.Anatomy.DirName)
	if c.Anatomy.DirName == "" {
		c.Anatomy.DirName = defaultAnatDirName
	}
	c.Anatomy.ImageExt = strings.TrimSpace(c.Anatomy.ImageExt)
	if c.Anatomy.ImageExt == "" {
		c.Anatomy.ImageExt = defaultImageExt
	}
	if !strings.HasPrefix(c.Anatomy.ImageExt, ".") {
		c.Anatomy.ImageExt = "." + c.Anatomy.ImageExt
	}
	c.Anatomy.TransformSuffix = strings.TrimSpace(c.Anatomy.TransformSuffix)
	if c.Anatomy.TransformSuffix == "" {
		c.Anatomy.TransformSuffix = defaultTransformSuffix
	}
	c.Anatomy.MissingPolicy = strings.ToLower(strings.TrimSpace(c.Anatomy.MissingPolicy))
	if c.Anatomy.MissingPolicy == "" {
		c.Anatomy.MissingPolicy = MissingPolicySkip
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.FailureLog = strings.TrimSpace(c.Logging.FailureLog)
	if c.Logging.FailureLog == "" {
		c.Logging.FailureLog = defaultFailureLog
	}
}
