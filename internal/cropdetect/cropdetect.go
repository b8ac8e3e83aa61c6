package cropdetect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	draptolib "github.com/five82/drapto"

	"pixy/internal/services"
)

// Candidate is one crop rectangle seen while sampling.
type Candidate struct {
	Crop    string  `json:"crop"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Result summarizes black-bar detection for one file.
type Result struct {
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	HDR            bool        `json:"hdr"`
	Required       bool        `json:"required"`
	Crop           string      `json:"crop,omitempty"`
	MultipleRatios bool        `json:"multiple_ratios"`
	Samples        int         `json:"samples"`
	Message        string      `json:"message,omitempty"`
	Candidates     []Candidate `json:"candidates,omitempty"`
}

// Filter returns the ffmpeg crop filter, or "" when no crop is needed.
func (r Result) Filter() string {
	if !r.Required || r.Crop == "" {
		return ""
	}
	return "crop=" + r.Crop
}

// OutputSize is the frame size after cropping.
func (r Result) OutputSize() (int, int, bool) {
	if !r.Required {
		return r.Width, r.Height, r.Width > 0 && r.Height > 0
	}
	return dimensions(r.Crop)
}

// Suggestion explains how much the detected aspect ratio varies when more
// than one ratio was seen.
func (r Result) Suggestion() string {
	if !r.MultipleRatios || len(r.Candidates) == 0 {
		return ""
	}
	top := r.Candidates[0].Percent
	switch {
	case top >= 70:
		return "borderline: the video may have minor aspect ratio variations"
	case top >= 50:
		return "significant aspect ratio variation, possibly intentional (e.g. IMAX sequences)"
	default:
		return "high variation in detected crops; crop manually if needed"
	}
}

// DetectFunc is the underlying crop detector.
type DetectFunc func(ctx context.Context, path string) (*draptolib.CropDetectionResult, error)

// Detector samples a video for letterboxing.
type Detector struct {
	// Detect defaults to drapto's detector.
	Detect DetectFunc
}

// Detect runs the default detector on path.
func Detect(ctx context.Context, path string) (Result, error) {
	return Detector{}.Run(ctx, path)
}

// Run samples path and converts drapto's report.
func (d Detector) Run(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, services.Wrap(services.ErrInvalidArgument, "crop", "detect", "input path is required", nil)
	}
	detect := d.Detect
	if detect == nil {
		detect = draptolib.DetectCrop
	}
	raw, err := detect(ctx, path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrIO, "crop", "detect", path, err)
	}
	return fromDrapto(raw), nil
}

func fromDrapto(raw *draptolib.CropDetectionResult) Result {
	if raw == nil {
		return Result{}
	}
	res := Result{
		Width:          int(raw.VideoWidth),
		Height:         int(raw.VideoHeight),
		HDR:            raw.IsHDR,
		Required:       raw.Required,
		Crop:           strings.TrimPrefix(strings.TrimSpace(raw.CropFilter), "crop="),
		MultipleRatios: raw.MultipleRatios,
		Samples:        int(raw.TotalSamples),
		Message:        raw.Message,
	}
	for _, c := range raw.Candidates {
		res.Candidates = append(res.Candidates, Candidate{Crop: c.Crop, Count: c.Count, Percent: c.Percent})
	}
	return res
}

func dimensions(crop string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(crop), ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h == 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Describe renders a one-line summary such as "1920x800 (2.40:1), removing 280px".
func (r Result) Describe() string {
	w, h, ok := r.OutputSize()
	if !ok {
		return "dimensions unknown"
	}
	line := fmt.Sprintf("%dx%d (%s)", w, h, RatioName(w, h))
	if r.Required && r.Height > h {
		line += fmt.Sprintf(", removing %dpx", r.Height-h)
	}
	return line
}
