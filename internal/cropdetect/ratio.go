package cropdetect

import (
	"fmt"
	"math"
)

var standardRatios = []struct {
	name  string
	value float64
}{
	{"4:3", 4.0 / 3.0},
	{"16:9", 16.0 / 9.0},
	{"1.85:1", 1.85},
	{"2.00:1", 2.00},
	{"2.20:1", 2.20},
	{"2.35:1", 2.35},
	{"2.39:1", 2.39},
	{"2.40:1", 2.40},
}

// RatioName labels width:height with the nearest theatrical or broadcast
// ratio when within 2%, otherwise as "N.NN:1".
func RatioName(width, height int) string {
	if width <= 0 || height <= 0 {
		return "unknown"
	}
	ratio := float64(width) / float64(height)
	best, bestDist := "", math.MaxFloat64
	for _, s := range standardRatios {
		if d := math.Abs(ratio - s.value); d < bestDist {
			best, bestDist = s.name, d
		}
	}
	if bestDist/ratio <= 0.02 {
		return best
	}
	return fmt.Sprintf("%.2f:1", ratio)
}
