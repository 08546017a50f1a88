package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"megbids/internal/config"
	"megbids/internal/testsupport"
)

const missingBridge = "megbids-test-bridge-not-installed"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithConverterCommand(missingBridge))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	if err := os.MkdirAll(cfg.Paths.SearchRoot, 0o755); err != nil {
		t.Fatalf("mkdir search root: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nsearch_root = %q\noutput_root = %q\nmapping_path = %q\nlog_dir = %q\n\n[conversion]\nconverter_command = %q\n",
		cfg.Paths.SearchRoot,
		cfg.Paths.OutputRoot,
		cfg.Paths.MappingPath,
		cfg.Paths.LogDir,
		cfg.Conversion.ConverterCommand,
	)
	testsupport.WriteText(t, path, content)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
