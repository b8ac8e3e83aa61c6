package cropdetect

import (
	"context"
	"errors"
	"testing"

	draptolib "github.com/five82/drapto"

	"pixy/internal/services"
)

func letterboxed() *draptolib.CropDetectionResult {
	return &draptolib.CropDetectionResult{
		VideoWidth:     1920,
		VideoHeight:    1080,
		Required:       true,
		CropFilter:     "crop=1920:800:0:140",
		MultipleRatios: true,
		TotalSamples:   120,
		Message:        "Multiple aspect ratios detected",
		Candidates: []draptolib.CropCandidate{
			{Crop: "1920:800:0:140", Count: 78, Percent: 65},
			{Crop: "1920:1080:0:0", Count: 42, Percent: 35},
		},
	}
}

func TestRunConvertsDraptoResult(t *testing.T) {
	var gotPath string
	d := Detector{Detect: func(_ context.Context, path string) (*draptolib.CropDetectionResult, error) {
		gotPath = path
		return letterboxed(), nil
	}}
	res, err := d.Run(context.Background(), "/in/film.mkv")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if gotPath != "/in/film.mkv" {
		t.Fatalf("detector called with %q", gotPath)
	}
	if res.Crop != "1920:800:0:140" || res.Filter() != "crop=1920:800:0:140" {
		t.Fatalf("unexpected crop %+v", res)
	}
	if len(res.Candidates) != 2 || res.Samples != 120 {
		t.Fatalf("unexpected candidates %+v", res)
	}
	if got := res.Describe(); got != "1920x800 (2.40:1), removing 280px" {
		t.Fatalf("Describe() = %q", got)
	}
	if res.Suggestion() == "" {
		t.Fatal("expected variation suggestion for multiple ratios")
	}
}

func TestFilterEmptyWhenNotRequired(t *testing.T) {
	res := fromDrapto(&draptolib.CropDetectionResult{VideoWidth: 1920, VideoHeight: 1080, CropFilter: "1920:1080:0:0"})
	if res.Filter() != "" {
		t.Fatalf("expected no filter, got %q", res.Filter())
	}
	if w, h, ok := res.OutputSize(); !ok || w != 1920 || h != 1080 {
		t.Fatalf("unexpected output size %dx%d %v", w, h, ok)
	}
	if res.Suggestion() != "" {
		t.Fatal("expected no suggestion without multiple ratios")
	}
}

func TestRunWrapsErrors(t *testing.T) {
	d := Detector{Detect: func(context.Context, string) (*draptolib.CropDetectionResult, error) {
		return nil, errors.New("ffprobe failed")
	}}
	if _, err := d.Run(context.Background(), "in.mkv"); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if _, err := d.Run(context.Background(), " "); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRatioName(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1920, 1080, "16:9"},
		{1440, 1080, "4:3"},
		{1920, 1038, "1.85:1"},
		{1920, 804, "2.39:1"},
		{1920, 1200, "1.60:1"},
		{0, 1080, "unknown"},
	}
	for _, tt := range tests {
		if got := RatioName(tt.w, tt.h); got != tt.want {
			t.Errorf("RatioName(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
		}
	}
}
