package recording_test

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"slices"
	"testing"
	"time"

	"megbids/internal/bids"
	"megbids/internal/recording"
	"megbids/internal/services"
)

type stubExec struct {
	output []byte
	err    error

	binary string
	args   [][]string
	stdin  [][]byte
}

func (s *stubExec) Run(_ context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	s.binary = binary
	s.args = append(s.args, append([]string(nil), args...))
	s.stdin = append(s.stdin, stdin)
	return s.output, s.err
}

type blockingExec struct{}

func (blockingExec) Run(ctx context.Context, _ string, _ []string, _ []byte) ([]byte, error) {
	<-ctx.Done()
	return nil, errors.New("signal: killed")
}

func TestToolConverterLoadDecodesHeader(t *testing.T) {
	stub := &stubExec{output: []byte(`{"meas_date":"2023-03-14T09:30:00Z","experimenter":"Dr. X","nchan":275,"sfreq":1200,"subject_info":{"id":5,"first_name":"Pat","sex":1}}`)}
	conv := recording.NewToolConverterWithExecutor(recording.ToolOptions{Command: "bridge"}, stub)

	rec, err := conv.Load(context.Background(), "/data/s01/s01.ds")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Source != "/data/s01/s01.ds" {
		t.Fatalf("unexpected source %q", rec.Source)
	}
	if rec.Info.Channels != 275 || rec.Info.Subject == nil || rec.Info.Subject.FirstName != "Pat" {
		t.Fatalf("header not decoded: %+v", rec.Info)
	}
	if want := []string{"info", "--json", "--", "/data/s01/s01.ds"}; !slices.Equal(stub.args[0], want) {
		t.Fatalf("args = %v, want %v", stub.args[0], want)
	}
	if rec.Anonymized {
		t.Fatal("freshly loaded recording must not be marked anonymized")
	}
}

func TestToolConverterWriteSendsAnonymizedHeader(t *testing.T) {
	stub := &stubExec{}
	conv := recording.NewToolConverterWithExecutor(recording.ToolOptions{Command: "bridge", Format: "fif", Overwrite: true}, stub)
	meas := time.Date(2023, 3, 14, 9, 30, 0, 0, time.UTC)
	rec := &recording.Recording{
		Source: "/data/s01/s01.ds",
		Info:   recording.Info{MeasDate: &meas, Experimenter: "Dr. X"},
	}

	dest := bids.NewPath("/out/BIDS", 1, "rest")
	if err := conv.Write(context.Background(), rec, dest); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error before anonymization, got %v", err)
	}
	if len(stub.args) != 0 {
		t.Fatal("bridge must not run for a recording that was not anonymized")
	}

	if err := conv.Anonymize(rec); err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	if err := conv.Write(context.Background(), rec, dest); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []string{
		"write", "--input", "/data/s01/s01.ds", "--root", "/out/BIDS",
		"--subject", "1", "--task", "rest", "--datatype", "meg",
		"--format", "FIF", "--overwrite",
	}
	if !slices.Equal(stub.args[0], want) {
		t.Fatalf("args = %v, want %v", stub.args[0], want)
	}
	var sent recording.Info
	if err := json.Unmarshal(stub.stdin[0], &sent); err != nil {
		t.Fatalf("decode stdin: %v", err)
	}
	if sent.Experimenter != recording.AnonymizedText || !sent.MeasDate.Equal(recording.AnonymizedMeasDate) {
		t.Fatalf("stdin header not anonymized: %+v", sent)
	}
	if conv.Extension() != ".fif" {
		t.Fatalf("unexpected extension %q", conv.Extension())
	}
}

func TestToolConverterErrorClassification(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		output      []byte
		recoverable bool
		marker      error
	}{
		{"non-zero exit", &exec.ExitError{Stderr: []byte("cannot read res4")}, nil, true, services.ErrConversion},
		{"missing binary", &exec.Error{Name: "bridge", Err: exec.ErrNotFound}, nil, false, services.ErrExternalTool},
		{"bad json", nil, []byte("not json"), true, services.ErrConversion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv := recording.NewToolConverterWithExecutor(recording.ToolOptions{Command: "bridge"}, &stubExec{err: tc.err, output: tc.output})
			_, err := conv.Load(context.Background(), "/x.ds")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if got := services.Recoverable(err, false); got != tc.recoverable {
				t.Fatalf("Recoverable = %v, want %v (err=%v)", got, tc.recoverable, err)
			}
		})
	}
}

func TestToolConverterTimeoutIsRecoverable(t *testing.T) {
	conv := recording.NewToolConverterWithExecutor(recording.ToolOptions{Command: "bridge", Timeout: 10 * time.Millisecond}, blockingExec{})
	_, err := conv.Load(context.Background(), "/x.ds")
	if !errors.Is(err, services.ErrTimeout) || !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected timeout conversion error, got %v", err)
	}
	if !services.Recoverable(err, false) {
		t.Fatalf("timeout should be recoverable: %v", err)
	}
}

func TestToolConverterParentCancellationIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conv := recording.NewToolConverterWithExecutor(recording.ToolOptions{Command: "bridge", Timeout: time.Minute}, blockingExec{})
	_, err := conv.Load(ctx, "/x.ds")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if services.Recoverable(err, true) {
		t.Fatal("cancellation must not be recoverable")
	}
}

func TestToolConverterMissingExecutable(t *testing.T) {
	conv := recording.NewToolConverter(recording.ToolOptions{Command: "megbids-bridge-that-does-not-exist"})
	_, err := conv.Load(context.Background(), "/x.ds")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestToolConverterRequiresCommand(t *testing.T) {
	conv := recording.NewToolConverterWithExecutor(recording.ToolOptions{}, &stubExec{})
	if _, err := conv.Load(context.Background(), "/x.ds"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
