package recording

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"megbids/internal/bids"
	"megbids/internal/services"
)

// Executor runs an external command and returns its stdout.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	return cmd.Output()
}

// ToolOptions configures a ToolConverter.
type ToolOptions struct {
	Command   string
	Format    string
	Overwrite bool
	// Timeout bounds each bridge invocation. Zero means no limit.
	Timeout time.Duration
}

// ToolConverter implements Converter on top of the bridge executable.
type ToolConverter struct {
	opts ToolOptions
	exec Executor
}

// NewToolConverter constructs a converter that runs opts.Command.
func NewToolConverter(opts ToolOptions) *ToolConverter {
	return NewToolConverterWithExecutor(opts, nil)
}

// NewToolConverterWithExecutor allows injecting a custom executor for testing.
func NewToolConverterWithExecutor(opts ToolOptions, executor Executor) *ToolConverter {
	if executor == nil {
		executor = commandExecutor{}
	}
	opts.Command = strings.TrimSpace(opts.Command)
	opts.Format = strings.ToUpper(strings.TrimSpace(opts.Format))
	if opts.Format == "" {
		opts.Format = "FIF"
	}
	return &ToolConverter{opts: opts, exec: executor}
}

// Extension returns the file extension written for the configured format.
func (c *ToolConverter) Extension() string {
	return "." + strings.ToLower(c.opts.Format)
}

// Load reads the session header through `<cmd> info --json <path>`.
func (c *ToolConverter) Load(ctx context.Context, path string) (*Recording, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "recording", "load", "empty path", nil)
	}
	output, err := c.run(ctx, "load", []string{"info", "--json", "--", path}, nil)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, services.Wrap(services.ErrConversion, "recording", "load", "decode header json", err)
	}
	return &Recording{Source: path, Info: info}, nil
}

// Anonymize rewrites the identifying header fields of rec.
func (c *ToolConverter) Anonymize(rec *Recording) error {
	if rec == nil {
		return services.Wrap(services.ErrValidation, "recording", "anonymize", "nil recording", nil)
	}
	if err := AnonymizeInfo(&rec.Info); err != nil {
		return services.Wrap(services.ErrConversion, "recording", "anonymize", "", err)
	}
	rec.Anonymized = true
	return nil
}

// Write hands the anonymized header to `<cmd> write` on stdin, which writes the
// recording into the BIDS tree at dest.
func (c *ToolConverter) Write(ctx context.Context, rec *Recording, dest bids.Path) error {
	if rec == nil {
		return services.Wrap(services.ErrValidation, "recording", "write", "nil recording", nil)
	}
	if !rec.Anonymized {
		return services.Wrap(services.ErrValidation, "recording", "write", "refusing to write a recording that was not anonymized", nil)
	}
	if err := dest.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "recording", "write", "", err)
	}
	header, err := json.Marshal(rec.Info)
	if err != nil {
		return services.Wrap(services.ErrConversion, "recording", "write", "encode header json", err)
	}
	datatype := dest.Datatype
	if datatype == "" {
		datatype = bids.DatatypeMEG
	}
	args := []string{
		"write",
		"--input", rec.Source,
		"--root", dest.Root,
		"--subject", dest.Subject,
		"--task", dest.Task,
		"--datatype", datatype,
		"--format", c.opts.Format,
	}
	if c.opts.Overwrite {
		args = append(args, "--overwrite")
	}
	_, err = c.run(ctx, "write", args, header)
	return err
}

func (c *ToolConverter) run(ctx context.Context, operation string, args []string, stdin []byte) ([]byte, error) {
	if c.opts.Command == "" {
		return nil, services.Wrap(services.ErrConfiguration, "recording", operation, "converter command not configured", nil)
	}
	runCtx := ctx
	cancel := func() {}
	if c.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
	}
	defer cancel()

	output, err := c.exec.Run(runCtx, c.opts.Command, args, stdin)
	if err == nil {
		return output, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("recording %s: %w", operation, ctxErr)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: recording: %s: %w after %s", services.ErrConversion, operation, services.ErrTimeout, c.opts.Timeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, services.Wrap(services.ErrExternalTool, "recording", operation, fmt.Sprintf("bridge %q not found", c.opts.Command), err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(string(exitErr.Stderr))
		if detail == "" {
			detail = exitErr.String()
		}
		return nil, services.Wrap(services.ErrConversion, "recording", operation, detail, nil)
	}
	return nil, services.Wrap(services.ErrExternalTool, "recording", operation, "run bridge", err)
}
