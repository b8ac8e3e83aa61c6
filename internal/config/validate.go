package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"pixy/internal/encoder"
)

var (
	validFrameFormats = []string{"png", "webp", "bmp"}
	validPrefilters   = []string{"none", "yadif", "hqdn3d", "deband"}
	validFamilies     = []string{"realesrgan", "realcugan", "waifu2x"}
	validLogFormats   = []string{"console", "json"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validatePreflight(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateModels()
}

func (c *Config) validateDefaults() error {
	d := c.Defaults
	if d.GPU < 0 {
		return errors.New("defaults.gpu must be >= 0")
	}
	if _, err := encoder.ParseKind(d.Encoder); err != nil {
		return fmt.Errorf("defaults.encoder: %w", err)
	}
	if d.CRF != nil && (*d.CRF < 0 || *d.CRF > 255) {
		return errors.New("defaults.crf must be between 0 and 255")
	}
	if !slices.Contains(validFrameFormats, d.FrameFormat) {
		return fmt.Errorf("defaults.frame_format must be one of %s", strings.Join(validFrameFormats, ", "))
	}
	if !slices.Contains(validPrefilters, d.Prefilter) {
		return fmt.Errorf("defaults.prefilter must be one of %s", strings.Join(validPrefilters, ", "))
	}
	return nil
}

func (c *Config) validatePreflight() error {
	if c.Preflight.MinFreeGiB < 0 {
		return errors.New("preflight.min_free_gib must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateModels() error {
	seen := make(map[string]struct{}, len(c.Models))
	for i, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d].name must be set", i)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("models[%d]: duplicate model name %q", i, m.Name)
		}
		seen[m.Name] = struct{}{}
		if !slices.Contains(validFamilies, m.Family) {
			return fmt.Errorf("models[%d].family must be one of %s", i, strings.Join(validFamilies, ", "))
		}
		if m.Scale < 1 {
			return fmt.Errorf("models[%d].scale must be >= 1", i)
		}
		if m.DenoiseLevel != nil && m.Family == "realesrgan" {
			return fmt.Errorf("models[%d].denoise_level is not supported by realesrgan", i)
		}
	}
	return nil
}
