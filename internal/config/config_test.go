package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixy/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PIXY_UPPY_BIN_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, ".local", "share", "pixy"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if want := filepath.Join(os.TempDir(), "pixy-uppy"); cfg.Paths.WorkDir != want {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, want)
	}
	if cfg.Defaults.Encoder != "hevc-nvenc" || cfg.Defaults.PixFmt != "yuv420p" || cfg.Defaults.Container != "mkv" {
		t.Fatalf("unexpected job defaults: %+v", cfg.Defaults)
	}
	if cfg.Defaults.FrameFormat != "png" || cfg.Defaults.Prefilter != "none" {
		t.Fatalf("unexpected extraction defaults: %+v", cfg.Defaults)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.DataDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if len(cfg.ToolOverrides()) != 0 {
		t.Fatalf("expected no tool overrides, got %v", cfg.ToolOverrides())
	}

	cfg.Paths.WorkDir = filepath.Join(tempHome, "work")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "pixy.toml")
	content := `
[paths]
work_dir = "` + filepath.ToSlash(filepath.Join(tempDir, "work")) + `"

[tools]
ffmpeg = "` + filepath.ToSlash(filepath.Join(tempDir, "bin", "ffmpeg")) + `"

[defaults]
encoder = "LIBX265"
crf = 18
frame_format = "webp"
prefilter = "yadif"
container = ".mp4"

[logging]
format = "JSON"

[[models]]
name = "custom-x2"
family = "RealCUGAN"
scale = 2
denoise_level = 3
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q %v", resolved, exists)
	}
	if cfg.Defaults.Encoder != "libx265" {
		t.Fatalf("expected normalized encoder, got %q", cfg.Defaults.Encoder)
	}
	if cfg.Defaults.CRF == nil || *cfg.Defaults.CRF != 18 {
		t.Fatalf("expected crf 18, got %v", cfg.Defaults.CRF)
	}
	if cfg.Defaults.Container != "mp4" {
		t.Fatalf("expected container without dot, got %q", cfg.Defaults.Container)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if got := cfg.ToolOverrides()["ffmpeg"]; got != filepath.Join(tempDir, "bin", "ffmpeg") {
		t.Fatalf("unexpected ffmpeg override %q", got)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Family != "realcugan" || *cfg.Models[0].DenoiseLevel != 3 {
		t.Fatalf("unexpected models %+v", cfg.Models)
	}
}

func TestBinDirFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	binDir := t.TempDir()
	t.Setenv("PIXY_UPPY_BIN_DIR", binDir)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.BinDir != binDir {
		t.Fatalf("expected bin dir from env %q, got %q", binDir, cfg.Paths.BinDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"encoder", func(c *config.Config) { c.Defaults.Encoder = "av1-magic" }, "defaults.encoder"},
		{"frame format", func(c *config.Config) { c.Defaults.FrameFormat = "jpg" }, "defaults.frame_format"},
		{"prefilter", func(c *config.Config) { c.Defaults.Prefilter = "sharpen" }, "defaults.prefilter"},
		{"gpu", func(c *config.Config) { c.Defaults.GPU = -1 }, "defaults.gpu"},
		{"crf", func(c *config.Config) { v := 300; c.Defaults.CRF = &v }, "defaults.crf"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"model scale", func(c *config.Config) {
			c.Models = []config.Model{{Name: "m", Family: "waifu2x", Scale: 0}}
		}, "scale must be >= 1"},
		{"model family", func(c *config.Config) {
			c.Models = []config.Model{{Name: "m", Family: "esrgan", Scale: 2}}
		}, "family"},
		{"model denoise", func(c *config.Config) {
			level := 1
			c.Models = []config.Model{{Name: "m", Family: "realesrgan", Scale: 4, DenoiseLevel: &level}}
		}, "denoise_level"},
		{"duplicate model", func(c *config.Config) {
			c.Models = []config.Model{{Name: "m", Family: "waifu2x", Scale: 2}, {Name: "m", Family: "waifu2x", Scale: 2}}
		}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Defaults.Encoder != "hevc-nvenc" {
		t.Fatalf("unexpected sample encoder %q", cfg.Defaults.Encoder)
	}
}
