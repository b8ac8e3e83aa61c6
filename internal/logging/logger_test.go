package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixy/internal/config"
	"pixy/internal/logging"
	"pixy/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("job started")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "job started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleCallerOnlyAtDebug(t *testing.T) {
	var info bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &info})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("no caller")
	if strings.Contains(info.String(), ".go:") {
		t.Fatalf("expected no caller at info level, got %q", info.String())
	}

	var debug bytes.Buffer
	logger, err = logging.New(logging.Options{Format: "console", Level: "debug", Writer: &debug})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("with caller")
	if !strings.Contains(debug.String(), ".go:") {
		t.Fatalf("expected caller at debug level, got %q", debug.String())
	}
}

func TestConsolePrefixesJobAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	logger = logging.WithContext(services.WithJobID(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e"), logger)
	logger.Info("frames extracted", logging.Int("count", 240))

	line := buf.String()
	if !strings.Contains(line, " INFO [0f8fad5b] pipeline: frames extracted count=240") {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestJSONLoggerShape(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("fallback frame rate", logging.String("framerate", "24"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "fallback frame rate" || record["framerate"] != "24" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := logging.New(logging.Options{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithStage(ctx, "upscale")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	want := map[string]string{
		logging.FieldJobID:         "job-1",
		logging.FieldStage:         "upscale",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
		logging.Error(errors.New("disk full")),
		logging.String(logging.FieldImpact, "job will not be recorded"),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEventType] != "history_open_failed" || record[logging.FieldImpact] != "job will not be recorded" {
		t.Fatalf("unexpected record %v", record)
	}
	if record[logging.FieldErrorHint] == nil || record["error"] != "disk full" {
		t.Fatalf("expected default hint and error, got %v", record)
	}
}

func TestGroupNestsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("upscale job started", logging.Group("job",
		logging.Int("gpu", 1),
		logging.Bool("keep_work_dir", true),
	))

	var record struct {
		Job struct {
			GPU  int  `json:"gpu"`
			Keep bool `json:"keep_work_dir"`
		} `json:"job"`
	}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.Job.GPU != 1 || !record.Job.Keep {
		t.Fatalf("unexpected job group in %s", buf.String())
	}

	buf.Reset()
	console, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	console.Info("upscale job started", logging.Group("job", logging.Int("gpu", 2)))
	if !strings.Contains(buf.String(), "job.gpu=2") {
		t.Fatalf("expected flattened group key, got %q", buf.String())
	}
}
