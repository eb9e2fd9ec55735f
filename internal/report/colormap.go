package report

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"

	"github.com/user/eem_analyzer_go/internal/config"
)

const (
	jetHueLow  = 4.0 / 6.0 // Blue
	jetHueHigh = 0.0       // Red

	defaultContinuousColors = 256
	defaultContourLines     = 10
)

// JetColorMap runs blue → cyan → green → yellow → red over [Min, Max], the
// usual scale for fluorescence contour maps. With Steps > 0 the range is cut
// into that many flat bands instead of a smooth ramp.
type JetColorMap struct {
	min, max float64
	alpha    float64
	Steps    int
}

// NewJetColorMap returns a colormap spanning [min, max]. A degenerate range
// is widened by one so the map is always usable.
func NewJetColorMap(min, max float64, steps int) *JetColorMap {
	if !(max > min) {
		max = min + 1
	}
	return &JetColorMap{min: min, max: max, alpha: 1, Steps: steps}
}

// At implements palette.ColorMap.
func (cm *JetColorMap) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < cm.min:
		return nil, palette.ErrUnderflow
	case v > cm.max:
		return nil, palette.ErrOverflow
	}
	t := (v - cm.min) / (cm.max - cm.min)
	if cm.Steps > 1 {
		band := math.Floor(t * float64(cm.Steps))
		if band > float64(cm.Steps-1) {
			band = float64(cm.Steps - 1)
		}
		t = band / float64(cm.Steps-1)
	}
	hue := jetHueLow + (jetHueHigh-jetHueLow)*t
	return palette.HSVA{H: hue, S: 1, V: 1, A: cm.alpha}, nil
}

func (cm *JetColorMap) Max() float64 { return cm.max }
func (cm *JetColorMap) SetMax(v float64) { cm.max = v }
func (cm *JetColorMap) Min() float64 { return cm.min }
func (cm *JetColorMap) SetMin(v float64) { cm.min = v }
func (cm *JetColorMap) Alpha() float64 { return cm.alpha }
func (cm *JetColorMap) SetAlpha(a float64) { cm.alpha = a }

// Palette samples n evenly spaced colors across the range.
func (cm *JetColorMap) Palette(n int) palette.Palette {
	if cm.Steps > 1 {
		n = cm.Steps
	}
	if n < 2 {
		n = 2
	}
	colors := make(colorList, n)
	for i := range colors {
		v := cm.min + (cm.max-cm.min)*float64(i)/float64(n-1)
		c, err := cm.At(v)
		if err != nil {
			c = color.Black
		}
		colors[i] = c
	}
	return colors
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

// ColorScale is a resolved colour scale for one rendering.
type ColorScale struct {
	Min          float64
	Max          float64
	Steps        int // 0 = continuous
	ContourLines int
}

// ResolveColorScale applies the configured mode to a grid's automatic
// maximum. Auto uses autoMaxF; the manual modes use the configured MaxF, and
// manual_max_steps also fixes the number of colour bands.
func ResolveColorScale(cfg config.ColorScaleConfig, autoMaxF float64) ColorScale {
	scale := ColorScale{Min: 0, Max: autoMaxF, ContourLines: defaultContourLines}
	switch cfg.Mode {
	case config.ColorScaleManualMax:
		if cfg.MaxF > 0 {
			scale.Max = cfg.MaxF
		}
	case config.ColorScaleManualMaxSteps:
		if cfg.MaxF > 0 {
			scale.Max = cfg.MaxF
		}
		scale.Steps = cfg.Steps
		scale.ContourLines = cfg.Steps - 1
	}
	if !(scale.Max > scale.Min) {
		scale.Max = scale.Min + 1
	}
	if scale.ContourLines < 2 {
		scale.ContourLines = 2
	}
	return scale
}

// contourLevels returns n evenly spaced levels strictly inside the scale.
func (s ColorScale) contourLevels() []float64 {
	levels := make([]float64, s.ContourLines)
	step := (s.Max - s.Min) / float64(s.ContourLines+1)
	for i := range levels {
		levels[i] = s.Min + step*float64(i+1)
	}
	return levels
}
