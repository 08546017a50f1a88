package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateAnatomy(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SearchRoot) == "" {
		return errors.New("paths.search_root must be set (or export MEGBIDS_SEARCH_ROOT)")
	}
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		return errors.New("paths.output_root must be set (or export MEGBIDS_OUTPUT_ROOT)")
	}
	if strings.TrimSpace(c.Paths.MappingPath) == "" {
		return errors.New("paths.mapping_path must be set")
	}
	if c.Paths.SearchRoot == c.Paths.OutputRoot {
		return errors.New("paths.output_root must differ from paths.search_root")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if _, err := c.NamePattern(); err != nil {
		return fmt.Errorf("discovery.name_pattern: %w", err)
	}
	switch c.Discovery.SubjectMatch {
	case SubjectMatchStructural, SubjectMatchSubstring:
	default:
		return fmt.Errorf("discovery.subject_match must be %q or %q, got %q",
			SubjectMatchStructural, SubjectMatchSubstring, c.Discovery.SubjectMatch)
	}
	return nil
}

func (c *Config) validateConversion() error {
	if strings.TrimSpace(c.Conversion.Task) == "" {
		return errors.New("conversion.task must be set")
	}
	if strings.ContainsAny(c.Conversion.Task, "_-/ ") {
		return fmt.Errorf("conversion.task %q must be a plain BIDS label", c.Conversion.Task)
	}
	if strings.TrimSpace(c.Conversion.ConverterCommand) == "" {
		return errors.New("conversion.converter_command must be set")
	}
	if c.Conversion.TimeoutSeconds <= 0 {
		return errors.New("conversion.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAnatomy() error {
	switch c.Anatomy.MissingPolicy {
	case MissingPolicySkip, MissingPolicyFatal:
	default:
		return fmt.Errorf("anatomy.missing_policy must be %q or %q, got %q",
			MissingPolicySkip, MissingPolicyFatal, c.Anatomy.MissingPolicy)
	}
	if strings.ContainsAny(c.Anatomy.DirName, `/\`) {
		return fmt.Errorf("anatomy.dir_name %q must be a single directory name", c.Anatomy.DirName)
	}
	return nil
}
