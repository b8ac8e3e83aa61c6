package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pixy/internal/deps"
	"pixy/internal/procexec"
	"pixy/internal/services"
)

// Prefilter is an optional filter applied while decoding frames.
type Prefilter int

const (
	PrefilterNone Prefilter = iota
	PrefilterYadif
	PrefilterHqdn3d
	PrefilterDeband
)

func (p Prefilter) String() string {
	switch p {
	case PrefilterYadif:
		return "yadif"
	case PrefilterHqdn3d:
		return "hqdn3d"
	case PrefilterDeband:
		return "deband"
	default:
		return "none"
	}
}

// Expression returns the ffmpeg filter expression, empty for PrefilterNone.
func (p Prefilter) Expression() string {
	switch p {
	case PrefilterYadif:
		return "yadif=0:-1:1"
	case PrefilterHqdn3d:
		return "hqdn3d"
	case PrefilterDeband:
		return "deband"
	default:
		return ""
	}
}

// ParsePrefilter maps a CLI token to a Prefilter.
func ParsePrefilter(value string) (Prefilter, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return PrefilterNone, nil
	case "yadif":
		return PrefilterYadif, nil
	case "hqdn3d":
		return PrefilterHqdn3d, nil
	case "deband":
		return PrefilterDeband, nil
	default:
		return PrefilterNone, services.Wrap(services.ErrInvalidArgument, "extract", "prefilter", fmt.Sprintf("unknown prefilter %q", value), nil)
	}
}

var supportedFormats = map[string]struct{}{"png": {}, "webp": {}, "bmp": {}}

// Options controls frame extraction.
type Options struct {
	Prefilter Prefilter
	Format    string
	// Crop is an optional crop filter ("crop=w:h:x:y") placed ahead of the prefilter.
	Crop string
}

// Validate rejects image formats the upscalers cannot read.
func (o Options) Validate() error {
	if _, ok := supportedFormats[strings.ToLower(o.Format)]; !ok {
		return services.Wrap(services.ErrInvalidArgument, "extract", "frame format",
			fmt.Sprintf("unsupported frame format %q (want png, webp or bmp)", o.Format), nil)
	}
	return nil
}

// Filter returns the -vf chain, empty when no filter applies.
func (o Options) Filter() string {
	parts := make([]string, 0, 2)
	if crop := strings.TrimSpace(o.Crop); crop != "" {
		if !strings.HasPrefix(crop, "crop=") {
			crop = "crop=" + crop
		}
		parts = append(parts, crop)
	}
	if expr := o.Prefilter.Expression(); expr != "" {
		parts = append(parts, expr)
	}
	return strings.Join(parts, ",")
}

// Pattern returns the zero-padded sequence pattern inside dir.
func Pattern(dir, format string) string {
	return filepath.Join(dir, "%08d."+strings.ToLower(format))
}

// Args builds the ffmpeg extraction arguments.
func Args(input, outDir string, opts Options) []string {
	args := []string{"-y", "-i", input, "-vsync", "0", "-frame_pts", "1"}
	if filter := opts.Filter(); filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args, Pattern(outDir, opts.Format))
}

// Extractor decodes a video into a numbered image sequence with ffmpeg.
type Extractor struct {
	Resolver *deps.Resolver
	Runner   procexec.Runner
}

// Extract writes one image per source frame into outDir and returns the
// sequence pattern. outDir is created when missing.
func (e Extractor) Extract(ctx context.Context, input, outDir string, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "extract", "create frames dir", outDir, err)
	}
	binary, err := e.Resolver.Resolve(deps.FFmpeg)
	if err != nil {
		return "", err
	}
	runner := e.Runner
	if runner == nil {
		runner = procexec.ExecRunner{}
	}
	cmd := procexec.Command{Name: deps.FFmpeg, Path: binary, Args: Args(input, outDir, opts)}
	if _, err := runner.Run(ctx, cmd); err != nil {
		return "", err
	}
	return Pattern(outDir, opts.Format), nil
}
