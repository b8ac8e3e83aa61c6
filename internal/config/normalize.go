package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envBinDir mirrors deps.EnvBinDir; config does not import deps.
const envBinDir = "PIXY_UPPY_BIN_DIR"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeDefaults()
	c.normalizeLogging()
	c.normalizeModels()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = filepath.Join(os.TempDir(), defaultWorkDirName)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BinDir) == "" {
		if value, ok := os.LookupEnv(envBinDir); ok {
			c.Paths.BinDir = value
		}
	}
	if c.Paths.BinDir, err = expandPath(strings.TrimSpace(c.Paths.BinDir)); err != nil {
		return fmt.Errorf("paths.bin_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"tools.ffmpeg", &c.Tools.FFmpeg},
		{"tools.ffprobe", &c.Tools.FFprobe},
		{"tools.realesrgan", &c.Tools.RealESRGAN},
		{"tools.realcugan", &c.Tools.RealCUGAN},
		{"tools.waifu2x", &c.Tools.Waifu2x},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			*field.value = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeDefaults() {
	d := &c.Defaults
	d.Encoder = strings.ToLower(strings.TrimSpace(d.Encoder))
	if d.Encoder == "" {
		d.Encoder = defaultEncoder
	}
	d.Preset = strings.TrimSpace(d.Preset)
	d.Tune = strings.TrimSpace(d.Tune)
	d.PixFmt = strings.TrimSpace(d.PixFmt)
	d.FrameFormat = strings.ToLower(strings.TrimSpace(d.FrameFormat))
	if d.FrameFormat == "" {
		d.FrameFormat = defaultFrameFormat
	}
	d.Prefilter = strings.ToLower(strings.TrimSpace(d.Prefilter))
	if d.Prefilter == "" {
		d.Prefilter = defaultPrefilter
	}
	d.Container = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d.Container), "."))
	if d.Container == "" {
		d.Container = defaultContainer
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeModels() {
	for i := range c.Models {
		m := &c.Models[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Family = strings.ToLower(strings.TrimSpace(m.Family))
		m.Description = strings.TrimSpace(m.Description)
		if path := strings.TrimSpace(m.Path); path != "" {
			if expanded, err := expandPath(path); err == nil {
				path = expanded
			}
			m.Path = path
		}
	}
}
