package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	BinDir  string `toml:"bin_dir"`
}

// Tools pins explicit executable paths. Empty values fall back to resolution
// through PATH and the bundled third_party directories.
type Tools struct {
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
	RealESRGAN string `toml:"realesrgan"`
	RealCUGAN  string `toml:"realcugan"`
	Waifu2x    string `toml:"waifu2x"`
}

// Defaults holds the job settings used when a CLI flag is not given.
type Defaults struct {
	GPU         int    `toml:"gpu"`
	Encoder     string `toml:"encoder"`
	Preset      string `toml:"preset"`
	Tune        string `toml:"tune"`
	CRF         *int   `toml:"crf"`
	PixFmt      string `toml:"pix_fmt"`
	FrameFormat string `toml:"frame_format"`
	Prefilter   string `toml:"prefilter"`
	Container   string `toml:"container"`
	AutoCrop    bool   `toml:"auto_crop"`
	KeepWorkDir bool   `toml:"keep_work_dir"`
}

// Preflight contains thresholds for the pre-run checks.
type Preflight struct {
	MinFreeGiB int `toml:"min_free_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Model declares a user-supplied upscaler model added to the curated catalog.
type Model struct {
	Name         string `toml:"name"`
	Family       string `toml:"family"`
	Scale        int    `toml:"scale"`
	DenoiseLevel *int   `toml:"denoise_level"`
	Path         string `toml:"path"`
	Description  string `toml:"description"`
}

// Config encapsulates all configuration values for pixy.
//
// Configuration sections:
//   - Paths: job work roots, history database, logs, bundled tool directory
//   - Tools: explicit executable overrides
//   - Defaults: upscale job settings used when flags are omitted
//   - Preflight: free-space threshold
//   - Logging: log format and level
//   - Models: additional upscaler models
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Defaults  Defaults  `toml:"defaults"`
	Preflight Preflight `toml:"preflight"`
	Logging   Logging   `toml:"logging"`
	Models    []Model   `toml:"models"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pixy.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, data, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite job history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// ToolOverrides maps logical tool names to the explicit paths set under [tools].
func (c *Config) ToolOverrides() map[string]string {
	overrides := make(map[string]string)
	for name, path := range map[string]string{
		"ffmpeg":                 c.Tools.FFmpeg,
		"ffprobe":                c.Tools.FFprobe,
		"realesrgan-ncnn-vulkan": c.Tools.RealESRGAN,
		"realcugan-ncnn-vulkan":  c.Tools.RealCUGAN,
		"waifu2x-ncnn-vulkan":    c.Tools.Waifu2x,
	} {
		if path = strings.TrimSpace(path); path != "" {
			overrides[name] = path
		}
	}
	return overrides
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
