package config

const (
	defaultConfigPath  = "~/.config/pixy/config.toml"
	defaultWorkDirName = "pixy-uppy"
	defaultDataDir     = "~/.local/share/pixy"
	defaultLogDir      = "~/.local/share/pixy/logs"
	defaultEncoder     = "hevc-nvenc"
	defaultPixFmt      = "yuv420p"
	defaultFrameFormat = "png"
	defaultPrefilter   = "none"
	defaultContainer   = "mkv"
	defaultMinFreeGiB  = 20
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults. The work
// directory stays empty here and is placed under the system temp dir by
// normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Defaults: Defaults{
			GPU:         0,
			Encoder:     defaultEncoder,
			PixFmt:      defaultPixFmt,
			FrameFormat: defaultFrameFormat,
			Prefilter:   defaultPrefilter,
			Container:   defaultContainer,
		},
		Preflight: Preflight{
			MinFreeGiB: defaultMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
