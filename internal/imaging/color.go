package imaging

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-359 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// PixelSample describes one pixel of an analyzer's source raster together
// with its gray value.
type PixelSample struct {
	X     int      `json:"x"`
	Y     int      `json:"y"`
	Hex   string   `json:"hex"`   // "#RRGGBB", alpha excluded
	RGB   RGBColor `json:"rgb"`   // source components
	Alpha uint8    `json:"alpha"` // 0 = transparent, 255 = opaque
	HSL   HSLColor `json:"hsl"`
	Gray  uint8    `json:"gray"` // value of the same pixel in the grayscale raster
}

// SamplePixel reads the pixel at (x, y) of the source raster and the
// matching pixel of the grayscale raster, computing the latter if needed.
//
// Coordinates are 0-based with origin at top-left. Coordinates outside the
// raster return an error.
func (a *Analyzer) SamplePixel(x, y int) (*PixelSample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	src := a.sourceLocked()
	b := src.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	gray := a.grayscaleLocked(DefaultHints())

	i := src.PixOffset(x, y)
	p := src.Pix[i : i+4 : i+4]
	r, g, bl := p[0], p[1], p[2]

	return &PixelSample{
		X:     x,
		Y:     y,
		Hex:   fmt.Sprintf("#%02X%02X%02X", r, g, bl),
		RGB:   RGBColor{R: r, G: g, B: bl},
		Alpha: p[3],
		HSL:   rgbToHSL(r, g, bl),
		Gray:  gray.Pix[gray.PixOffset(x, y)],
	}, nil
}

// rgbToHSL converts 8-bit RGB values to whole-number HSL.
func rgbToHSL(r, g, b uint8) HSLColor {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return HSLColor{
		H: int(h) % 360,
		S: int(s * 100),
		L: int(l * 100),
	}
}
