package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"pixy/internal/catalog"
	"pixy/internal/encoder"
	"pixy/internal/frames"
	"pixy/internal/services"
	"pixy/internal/upscaler"
)

// FallbackFrameRate is used for the final encode when the job carries no
// source frame rate.
const FallbackFrameRate = "24"

// Job describes one upscale request. The orchestrator never modifies it.
type Job struct {
	// ID names the work directory; empty means a random id.
	ID     string
	Input  string
	Output string

	Model    catalog.Model
	Upscaler upscaler.Binary
	GPU      int
	TileSize *int
	Threads  *int

	TargetWidth  *int
	TargetHeight *int
	// Scale is informational; the model's native factor is what gets applied.
	Scale *int

	Extract frames.Options
	Encoder encoder.Options
	// Container is appended as the extension when Output has none.
	Container string
	// FrameRate is the source rate as ffprobe reports it ("24000/1001").
	FrameRate string
	// Crop is a crop filter applied during extraction.
	Crop        string
	KeepWorkDir bool
}

// Validate rejects structurally invalid jobs before any work starts.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Input) == "" {
		return invalid("input path is required")
	}
	if strings.TrimSpace(j.Output) == "" {
		return invalid("output path is required")
	}
	if filepath.Clean(j.Input) == filepath.Clean(OutputPath(j)) {
		return invalid("output must differ from input")
	}
	if err := j.Model.Validate(); err != nil {
		return err
	}
	if j.Upscaler.Path != "" && j.Upscaler.Family != j.Model.Family {
		return invalid(fmt.Sprintf("model %s needs a %s binary, got %s", j.Model.Name, j.Model.Family, j.Upscaler.Family))
	}
	if j.GPU < 0 {
		return invalid("gpu index must be >= 0")
	}
	positive := []struct {
		name  string
		value *int
	}{
		{"tile size", j.TileSize},
		{"threads", j.Threads},
		{"width", j.TargetWidth},
		{"height", j.TargetHeight},
		{"scale", j.Scale},
	}
	for _, p := range positive {
		if p.value != nil && *p.value <= 0 {
			return invalid(p.name + " must be positive")
		}
	}
	return j.extractOptions().Validate()
}

func (j Job) extractOptions() frames.Options {
	opts := j.Extract
	if opts.Crop == "" {
		opts.Crop = j.Crop
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	return opts
}

// OutputPath is the file the final encode writes: Output, plus the container
// extension when Output has none.
func OutputPath(j Job) string {
	if filepath.Ext(j.Output) != "" {
		return j.Output
	}
	container := j.Container
	if container == "" {
		container = j.Encoder.Container
	}
	container = strings.TrimPrefix(strings.TrimSpace(container), ".")
	if container == "" {
		return j.Output
	}
	return j.Output + "." + container
}

// ResizeFilter returns the zscale filter for the job's target dimensions.
// Both dimensions scale exactly, one keeps the aspect ratio, and neither
// yields "" regardless of Scale.
func ResizeFilter(j Job) string {
	const format = "zscale=w=%s:h=%s:filter=spline36"
	switch {
	case j.TargetWidth != nil && j.TargetHeight != nil:
		return fmt.Sprintf(format, strconv.Itoa(*j.TargetWidth), strconv.Itoa(*j.TargetHeight))
	case j.TargetWidth != nil:
		return fmt.Sprintf(format, strconv.Itoa(*j.TargetWidth), "-1")
	case j.TargetHeight != nil:
		return fmt.Sprintf(format, "-1", strconv.Itoa(*j.TargetHeight))
	default:
		return ""
	}
}

// EncodeArgs builds the final ffmpeg arguments that mux the upscaled sequence
// with the original's audio, subtitle, and attachment streams.
func EncodeArgs(j Job, upscaledPattern, frameRate string) []string {
	args := []string{
		"-y",
		"-framerate", frameRate,
		"-i", upscaledPattern,
		"-i", j.Input,
		"-map", "0:v:0",
		"-map", "1:a?",
		"-map", "1:s?",
		"-map", "1:t?",
		"-c:a", "copy",
		"-c:s", "copy",
		"-c:t", "copy",
	}
	if filter := ResizeFilter(j); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, j.Encoder.Args()...)
	return append(args, OutputPath(j))
}

func invalid(msg string) error {
	return services.Wrap(services.ErrInvalidArgument, "validate", "", msg, nil)
}
