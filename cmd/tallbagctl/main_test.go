package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tallbag/internal/pipeline"
	"github.com/danmuck/tallbag/internal/testutil/testlog"
)

func TestInitValidateRun(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "tallbag.toml")
	var out bytes.Buffer
	if err := dispatch(context.Background(), []string{"init", "-output", path}, &out); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := dispatch(context.Background(), []string{"init", "-output", path}, &out); err == nil {
		t.Fatalf("init without -force should refuse to overwrite")
	}
	if err := dispatch(context.Background(), []string{"validate", "-config", path}, &out); err != nil {
		t.Fatalf("validate: %v", err)
	}

	out.Reset()
	if err := dispatch(context.Background(), []string{"run", "-config", path, "-mode", "pull", "-take", "1"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var report pipeline.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v out=%s", err, out.String())
	}
	if report.Mode != "pull" || len(report.Values) != 1 || report.Outcome != "cancelled" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunReportsSourceFailure(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "tallbag.toml")
	body := "[pipeline]\nmode = \"push\"\nvalues = [\"a\"]\nfail = \"disk gone\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out bytes.Buffer
	err := dispatch(context.Background(), []string{"run", "-config", path}, &out)
	if !errors.Is(err, errRunFailed) || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expected run failure, got %v", err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := dispatch(context.Background(), []string{"explode"}, &out); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}
