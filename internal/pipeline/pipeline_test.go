package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pixy/internal/catalog"
	"pixy/internal/deps"
	"pixy/internal/encoder"
	"pixy/internal/logging"
	"pixy/internal/procexec"
	"pixy/internal/services"
	"pixy/internal/testsupport"
	"pixy/internal/workspace"
)

func intPtr(v int) *int { return &v }

func testModel(t *testing.T) catalog.Model {
	t.Helper()
	model, ok := catalog.NewCurated().Lookup("realesr-animevideov3-x2")
	if !ok {
		t.Fatal("curated model missing")
	}
	return model
}

func testJob(t *testing.T) Job {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mkv")
	testsupport.WriteFile(t, input, 64)
	return Job{
		Input:     input,
		Output:    filepath.Join(dir, "out", "result.mkv"),
		Model:     testModel(t),
		Encoder:   encoder.Options{Encoder: encoder.Libx264},
		FrameRate: "24000/1001",
	}
}

type harness struct {
	orch   *Orchestrator
	runner *testsupport.FakeRunner
	root   string
	stages []Progress
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{runner: &testsupport.FakeRunner{}, root: filepath.Join(t.TempDir(), "work")}
	h.orch = &Orchestrator{
		Runner: h.runner,
		Resolver: &deps.Resolver{Overrides: map[string]string{
			deps.FFmpeg:              os.Args[0],
			"realesrgan-ncnn-vulkan": os.Args[0],
		}},
		Workspace: workspace.NewManager(h.root),
		Logger:    logging.NewNop(),
		Progress:  func(p Progress) { h.stages = append(h.stages, p) },
	}
	return h
}

func failAt(stage string) func(context.Context, int, procexec.Command) (procexec.Output, error) {
	return func(ctx context.Context, _ int, cmd procexec.Command) (procexec.Output, error) {
		if got, _ := services.StageFromContext(ctx); got == stage {
			code := 1
			return procexec.Output{}, &services.ProcessError{Cmd: cmd.String(), Code: &code, Stderr: "boom"}
		}
		return procexec.Output{}, nil
	}
}

func TestResizeFilter(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want string
	}{
		{"both", Job{TargetWidth: intPtr(1920), TargetHeight: intPtr(1080)}, "zscale=w=1920:h=1080:filter=spline36"},
		{"width only", Job{TargetWidth: intPtr(3840)}, "zscale=w=3840:h=-1:filter=spline36"},
		{"height only", Job{TargetHeight: intPtr(2160)}, "zscale=w=-1:h=2160:filter=spline36"},
		{"none", Job{}, ""},
		{"scale alone", Job{Scale: intPtr(2)}, ""},
	}
	for _, tt := range tests {
		if got := ResizeFilter(tt.job); got != tt.want {
			t.Errorf("%s: ResizeFilter = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEncodeArgs(t *testing.T) {
	quality := uint8(18)
	job := Job{
		Input:        "/media/in.mkv",
		Output:       "/media/out",
		Container:    "mkv",
		TargetHeight: intPtr(2160),
		Encoder:      encoder.Options{Encoder: encoder.HEVCNVENC, Preset: "p7", Quality: &quality},
	}
	got := EncodeArgs(job, "/w/upscaled/%08d.png", "30000/1001")
	want := []string{
		"-y", "-framerate", "30000/1001",
		"-i", "/w/upscaled/%08d.png",
		"-i", "/media/in.mkv",
		"-map", "0:v:0", "-map", "1:a?", "-map", "1:s?", "-map", "1:t?",
		"-c:a", "copy", "-c:s", "copy", "-c:t", "copy",
		"-vf", "zscale=w=-1:h=2160:filter=spline36",
		"-c:v", "hevc_nvenc", "-preset", "p7", "-crf", "18",
		"/media/out.mkv",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("EncodeArgs:\n got %v\nwant %v", got, want)
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath(Job{Output: "/a/b.mp4", Container: "mkv"}); got != "/a/b.mp4" {
		t.Fatalf("explicit extension should win, got %q", got)
	}
	if got := OutputPath(Job{Output: "/a/b", Encoder: encoder.Options{Container: ".mp4"}}); got != "/a/b.mp4" {
		t.Fatalf("encoder container fallback, got %q", got)
	}
	if got := OutputPath(Job{Output: "/a/b"}); got != "/a/b" {
		t.Fatalf("no container, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	base := testJob(t)
	tests := []struct {
		name   string
		mutate func(*Job)
	}{
		{"missing input", func(j *Job) { j.Input = "" }},
		{"missing output", func(j *Job) { j.Output = " " }},
		{"same path", func(j *Job) { j.Output = j.Input }},
		{"bad model", func(j *Job) { j.Model.Scale = 0 }},
		{"family mismatch", func(j *Job) { j.Upscaler.Path = "/bin/x"; j.Upscaler.Family = catalog.Waifu2x }},
		{"negative gpu", func(j *Job) { j.GPU = -1 }},
		{"zero tile", func(j *Job) { j.TileSize = intPtr(0) }},
		{"negative width", func(j *Job) { j.TargetWidth = intPtr(-5) }},
		{"bad format", func(j *Job) { j.Extract.Format = "jpg" }},
	}
	for _, tt := range tests {
		job := base
		tt.mutate(&job)
		if err := job.Validate(); !errors.Is(err, services.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", tt.name, err)
		}
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid job rejected: %v", err)
	}
}

func TestRunExecutesStagesInOrder(t *testing.T) {
	h := newHarness(t)
	job := testJob(t)

	result, err := h.orch.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if names := h.runner.Names(); !slices.Equal(names, []string{"ffmpeg", "realesrgan-ncnn-vulkan", "ffmpeg"}) {
		t.Fatalf("unexpected command order %v", names)
	}
	calls := h.runner.Calls()
	encode := calls[2].Args
	if !slices.Contains(encode, "24000/1001") || encode[len(encode)-1] != job.Output {
		t.Fatalf("encode args missing frame rate or output: %v", encode)
	}
	if !strings.Contains(strings.Join(calls[1].Args, " "), filepath.Join(result.WorkDir, "upscaled")) {
		t.Fatalf("upscaler not pointed at work dir: %v", calls[1].Args)
	}
	if len(result.Commands) != 3 || result.Commands[0].Stage != StageExtract || result.Commands[2].Stage != StageEncode {
		t.Fatalf("unexpected command log %+v", result.Commands)
	}
	if result.Kept {
		t.Fatal("successful run should not keep the work dir")
	}
	if _, err := os.Stat(result.WorkDir); !os.IsNotExist(err) {
		t.Fatalf("work dir should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Dir(job.Output)); err != nil {
		t.Fatalf("output dir should exist: %v", err)
	}
	last := h.stages[len(h.stages)-1]
	if last.Stage != StageEncode || last.Fraction != 1 {
		t.Fatalf("unexpected final progress %+v", last)
	}
}

func TestRunLogsEveryStageBoundary(t *testing.T) {
	h := newHarness(t)
	var buf bytes.Buffer
	h.orch.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	if _, err := h.orch.Run(context.Background(), testJob(t)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var fractions []float64
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record struct {
			Msg      string  `json:"msg"`
			Fraction float64 `json:"fraction"`
		}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		if record.Msg == "progress" {
			fractions = append(fractions, record.Fraction)
		}
	}
	if len(fractions) != 4 || fractions[1] != 1.0/3 || fractions[3] != 1 {
		t.Fatalf("expected four progress records, got %v", fractions)
	}
}

func TestRunAbortsAtFailingStage(t *testing.T) {
	tests := []struct {
		stage string
		calls int
	}{
		{StageExtract, 1},
		{StageUpscale, 2},
		{StageEncode, 3},
	}
	for _, tt := range tests {
		h := newHarness(t)
		h.runner.Hook = failAt(tt.stage)

		result, err := h.orch.Run(context.Background(), testJob(t))
		if !errors.Is(err, services.ErrProcessFailed) {
			t.Fatalf("%s: expected ErrProcessFailed, got %v", tt.stage, err)
		}
		calls := h.runner.Calls()
		if len(calls) != tt.calls {
			t.Fatalf("%s: expected %d calls, got %d", tt.stage, tt.calls, len(calls))
		}
		var procErr *services.ProcessError
		if !errors.As(err, &procErr) {
			t.Fatalf("%s: expected a ProcessError, got %v", tt.stage, err)
		}
		if want := calls[tt.calls-1].String(); procErr.Cmd != want {
			t.Fatalf("%s: error carries %q, want the failing command %q", tt.stage, procErr.Cmd, want)
		}
		if !result.Kept {
			t.Fatalf("%s: failed run should keep work dir", tt.stage)
		}
		if _, err := os.Stat(filepath.Join(result.WorkDir, "job.log")); err != nil {
			t.Fatalf("%s: job log missing: %v", tt.stage, err)
		}
		entries := result.Commands
		if last := entries[len(entries)-1]; !last.Failed || last.Command != procErr.Cmd {
			t.Fatalf("%s: last entry should be the failed command: %+v", tt.stage, entries)
		}
	}
}

func TestRunKeepWorkDir(t *testing.T) {
	h := newHarness(t)
	job := testJob(t)
	job.KeepWorkDir = true
	job.ID = "keep-me"

	result, err := h.orch.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Kept || result.JobID != "keep-me" {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(h.root, "keep-me", "frames")); err != nil {
		t.Fatalf("kept work dir missing: %v", err)
	}
}

func TestRunFallsBackToDefaultFrameRate(t *testing.T) {
	h := newHarness(t)
	job := testJob(t)
	job.FrameRate = ""

	if _, err := h.orch.Run(context.Background(), job); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	encode := h.runner.Calls()[2].Args
	if encode[1] != "-framerate" || encode[2] != FallbackFrameRate {
		t.Fatalf("expected fallback frame rate, got %v", encode[:3])
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.runner.Hook = func(context.Context, int, procexec.Command) (procexec.Output, error) {
		cancel()
		return procexec.Output{}, nil
	}

	_, err := h.orch.Run(ctx, testJob(t))
	if !IsCancelled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if got := len(h.runner.Calls()); got != 1 {
		t.Fatalf("expected a single call before cancellation, got %d", got)
	}
}

func TestRunUsesDistinctWorkDirs(t *testing.T) {
	h := newHarness(t)
	job := testJob(t)
	job.KeepWorkDir = true

	first, err := h.orch.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := h.orch.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.WorkDir == second.WorkDir {
		t.Fatalf("runs shared work dir %s", first.WorkDir)
	}
}

func TestRunMissingUpscaler(t *testing.T) {
	h := newHarness(t)
	h.orch.Resolver = &deps.Resolver{
		Overrides:  map[string]string{deps.FFmpeg: os.Args[0]},
		LookPath:   func(string) (string, error) { return "", errors.New("not found") },
		Getenv:     func(string) string { return "" },
		Getwd:      func() (string, error) { return t.TempDir(), nil },
		Executable: func() (string, error) { return "", errors.New("unknown") },
	}
	_, err := h.orch.Run(context.Background(), testJob(t))
	if !errors.Is(err, services.ErrCommandNotFound) {
		t.Fatalf("expected ErrCommandNotFound, got %v", err)
	}
	if len(h.runner.Calls()) != 0 {
		t.Fatal("no command should run without an upscaler")
	}
}
