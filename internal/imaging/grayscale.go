package imaging

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// Levels is the number of distinct 8-bit intensity values.
	Levels = 256

	// MaxIntensity is the largest 8-bit intensity value.
	MaxIntensity = Levels - 1
)

// LumaModel selects the formula used to derive a single gray value from RGB.
// An Analyzer uses one model for its whole lifetime.
type LumaModel int

const (
	// LuminanceCIE computes CIE 1931 relative luminance Y in linear light and
	// re-encodes it with the sRGB transfer curve. This is the device-independent
	// gray space and the default.
	LuminanceCIE LumaModel = iota

	// LumaRec601 weights gamma-encoded RGB with ITU-R BT.601 coefficients
	// (0.299*R + 0.587*G + 0.114*B).
	LumaRec601
)

func (m LumaModel) String() string {
	switch m {
	case LumaRec601:
		return "rec601"
	case LuminanceCIE:
		return "cie"
	default:
		return fmt.Sprintf("LumaModel(%d)", int(m))
	}
}

// ParseLumaModel parses "cie" or "rec601". An empty string yields LuminanceCIE.
func ParseLumaModel(s string) (LumaModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cie", "linear", "luminance":
		return LuminanceCIE, nil
	case "rec601", "bt601", "luma":
		return LumaRec601, nil
	default:
		return 0, fmt.Errorf("unknown luma model: %q", s)
	}
}

// Quality trades conversion accuracy for speed. It only changes how
// intermediate values are rounded, never which formula is applied.
type Quality int

const (
	QualityDefault Quality = iota
	QualitySpeed
	QualityPrecise
)

func (q Quality) String() string {
	switch q {
	case QualityDefault:
		return "default"
	case QualitySpeed:
		return "speed"
	case QualityPrecise:
		return "precise"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality parses "default", "speed" or "precise". An empty string yields
// QualityDefault.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return QualityDefault, nil
	case "speed", "fast":
		return QualitySpeed, nil
	case "precise", "quality":
		return QualityPrecise, nil
	default:
		return 0, fmt.Errorf("unknown quality: %q", s)
	}
}

// Hints controls how a grayscale conversion is carried out. Hints never
// change the formula, only how intermediate values are rounded.
type Hints struct {
	Quality Quality
}

// DefaultHints returns the hints used when a caller supplies none.
func DefaultHints() Hints {
	return Hints{Quality: QualityDefault}
}

// ToGrayscale converts img to a new grayscale raster using model.
//
// The result has the same dimensions as img, rebased at (0,0). Every pixel
// holds one gray value replicated across R, G and B; alpha is copied from the
// source. img is never modified. A nil or zero-area img yields a 0x0 raster.
//
// Under QualityDefault and QualityPrecise a pixel that is already gray
// (R=G=B) keeps its value, and so it does under QualitySpeed. QualitySpeed
// uses fixed point for LumaRec601 and lookup tables for LuminanceCIE; either
// stays within one level of the other qualities.
func ToGrayscale(img image.Image, model LumaModel, hints Hints) *image.NRGBA {
	if img == nil || img.Bounds().Empty() {
		return emptyRaster()
	}

	switch model {
	case LumaRec601:
		if hints.Quality == QualitySpeed {
			return fixedPointGrayscale(toNRGBA(img))
		}
		return imaging.Grayscale(img)
	default:
		return cieGrayscale(toNRGBA(img), hints.Quality == QualitySpeed)
	}
}

// fixedPointGrayscale applies BT.601 weights in 16.16 fixed point, the same
// coefficients image/color.GrayModel uses. The weights sum to exactly 1<<16.
func fixedPointGrayscale(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[si : si+4 : si+4]
			r, g, bl := uint32(p[0]), uint32(p[1]), uint32(p[2])
			gray := uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
			d := dst.Pix[di : di+4 : di+4]
			d[0], d[1], d[2], d[3] = gray, gray, gray, p[3]
			si += 4
			di += 4
		}
	}
	return dst
}

// srgbToLinear maps every 8-bit sRGB level to linear light. It is sorted
// ascending, so nearestLevel can search it.
var srgbToLinear = func() (lut [Levels]float64) {
	for i := range lut {
		lut[i], _, _ = colorful.Color{R: float64(i) / 255.0}.LinearRgb()
	}
	return lut
}()

// nearestLevel returns the sRGB level whose linear value is closest to lum.
func nearestLevel(lum float64) uint8 {
	i := sort.SearchFloat64s(srgbToLinear[:], lum)
	if i >= Levels {
		return MaxIntensity
	}
	if i > 0 && lum-srgbToLinear[i-1] < srgbToLinear[i]-lum {
		i--
	}
	return uint8(i)
}

// cieGrayscale derives linear-light luminance Y per pixel and re-encodes it
// as an sRGB gray level. The fast path reads linear values from srgbToLinear
// and inverts by table search instead of evaluating the transfer curves; it
// stays within one level of the exact result.
func cieGrayscale(src *image.NRGBA, fast bool) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[si : si+4 : si+4]

			var gray uint8
			if fast {
				_, lum, _ := colorful.LinearRgbToXyz(srgbToLinear[p[0]], srgbToLinear[p[1]], srgbToLinear[p[2]])
				gray = nearestLevel(lum)
			} else {
				c := colorful.Color{
					R: float64(p[0]) / 255.0,
					G: float64(p[1]) / 255.0,
					B: float64(p[2]) / 255.0,
				}
				_, lum, _ := c.Xyz()
				gray, _, _ = colorful.LinearRgb(lum, lum, lum).Clamped().RGB255()
			}

			d := dst.Pix[di : di+4 : di+4]
			d[0], d[1], d[2], d[3] = gray, gray, gray, p[3]
			si += 4
			di += 4
		}
	}
	return dst
}

// toNRGBA returns an owned *image.NRGBA copy of img with bounds at (0,0).
func toNRGBA(img image.Image) *image.NRGBA {
	if img == nil || img.Bounds().Empty() {
		return emptyRaster()
	}
	return imaging.Clone(img)
}

func emptyRaster() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, 0, 0))
}

func copyNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := &image.NRGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
