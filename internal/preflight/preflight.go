package preflight

import (
	"errors"
	"fmt"
	"strings"

	"megbids/internal/config"
	"megbids/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which checks RunAll performs.
type Options struct {
	// SkipConverter omits the bridge executable check, for runs that use
	// an in-process converter.
	SkipConverter bool
}

// RunAll executes the checks a conversion run needs.
func RunAll(cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckReadableDirectory("Search root", cfg.Paths.SearchRoot),
		CheckWritableTarget("Output root", cfg.Paths.OutputRoot),
		CheckWritableTarget("Mapping file", cfg.Paths.MappingPath),
		CheckWritableTarget("Log directory", cfg.Paths.LogDir),
	}
	if !opts.SkipConverter {
		results = append(results, CheckConverter(cfg))
	}
	return results
}

// Err joins the failed results into one error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.New("preflight failed: " + strings.Join(failed, "; "))
}

// CheckConverter verifies that the configured bridge executable is on PATH.
func CheckConverter(cfg *config.Config) Result {
	const name = "Converter"
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        name,
		Command:     cfg.Conversion.ConverterCommand,
		Description: "Reads, anonymizes and writes MEG recordings",
	}})
	status := statuses[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Resolved}
}
