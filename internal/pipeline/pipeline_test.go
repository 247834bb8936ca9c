package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/danmuck/tallbag"
	"github.com/danmuck/tallbag/internal/config"
	"github.com/danmuck/tallbag/internal/testutil/testlog"
	"github.com/danmuck/tallbag/metatrace"
)

func pipelineConfig(mode string) config.PipelineConfig {
	p := config.Default().Pipeline
	p.Mode = mode
	p.Values = []string{"a", "b", "c"}
	p.Timeout = 2 * time.Second
	return p
}

func TestRunModes(t *testing.T) {
	testlog.Start(t)

	for _, mode := range []string{config.ModePush, config.ModePull, config.ModeChan} {
		t.Run(mode, func(t *testing.T) {
			report, err := Run(context.Background(), pipelineConfig(mode), tallbag.WithoutMetrics())
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !slices.Equal(report.Values, []string{"a", "b", "c"}) {
				t.Fatalf("unexpected values %v", report.Values)
			}
			if !slices.Equal(report.Signals, []string{"data:a", "data:b", "data:c"}) {
				t.Fatalf("unexpected signals %v", report.Signals)
			}
			if report.Outcome != string(tallbag.OutcomeComplete) {
				t.Fatalf("unexpected outcome %q", report.Outcome)
			}
			if first, last := report.Events[0], report.Events[len(report.Events)-1]; first.Kind != "start" || last.Kind != "end" {
				t.Fatalf("unexpected events %+v", report.Events)
			}
		})
	}
}

func TestRunUpperAndTake(t *testing.T) {
	testlog.Start(t)

	p := pipelineConfig(config.ModePull)
	p.Upper = true
	p.Take = 2
	report, err := Run(context.Background(), p, tallbag.WithoutMetrics())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !slices.Equal(report.Values, []string{"A", "B"}) {
		t.Fatalf("unexpected values %v", report.Values)
	}
	if report.Outcome != string(tallbag.OutcomeCancelled) {
		t.Fatalf("unexpected outcome %q", report.Outcome)
	}
}

func TestRunFailure(t *testing.T) {
	testlog.Start(t)

	p := pipelineConfig(config.ModePush)
	p.Fail = "boom"
	report, err := Run(context.Background(), p, tallbag.WithoutMetrics())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Failed() || report.Err != "boom" {
		t.Fatalf("unexpected report %+v", report)
	}
	if last := report.Events[len(report.Events)-1]; last.Kind != "end" || last.Err != "boom" {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestRunRejectsInvalidPipeline(t *testing.T) {
	testlog.Start(t)

	p := pipelineConfig("batch")
	if _, err := Run(context.Background(), p); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestRunWritesTrace(t *testing.T) {
	testlog.Start(t)

	p := pipelineConfig(config.ModePush)
	p.TraceFile = filepath.Join(t.TempDir(), "meta.cbor")
	report, err := Run(context.Background(), p, tallbag.WithoutMetrics())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Traced != 3 {
		t.Fatalf("unexpected traced count %d", report.Traced)
	}

	f, err := os.Open(p.TraceFile)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()
	records, err := metatrace.ReadAll[string](f)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if len(records) != 3 || records[2].Value != "data:c" {
		t.Fatalf("unexpected trace %+v", records)
	}
}
