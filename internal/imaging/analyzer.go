package imaging

import (
	"image"
	"io"
	"sync"

	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
	"github.com/sirupsen/logrus"
)

// cached holds one derived artifact. present is false until the artifact is
// computed and again after reset.
type cached[T any] struct {
	value   T
	present bool
}

func (c *cached[T]) get() (T, bool) { return c.value, c.present }

func (c *cached[T]) set(v T) {
	c.value = v
	c.present = true
}

func (c *cached[T]) reset() {
	var zero T
	c.value = zero
	c.present = false
}

// Analyzer holds one source raster and lazily computes, caches and hands out
// its grayscale raster, luminance histogram and per-channel histogram.
//
// Each derived artifact is computed at most once per bound raster. Binding a
// new raster discards every cached artifact, so nothing derived from an
// earlier raster is ever returned.
//
// All accessors return copies; mutating a returned raster or histogram does
// not affect the analyzer. Analyzer is safe for concurrent use: the
// cache check and the computation run under one lock.
//
// The zero value is an analyzer bound to an empty 0x0 raster using
// LuminanceCIE.
type Analyzer struct {
	mu         sync.Mutex
	source     *image.NRGBA
	generation uint64
	model      LumaModel

	gray      cached[*image.NRGBA]
	grayHints Hints
	luminance cached[*LuminanceHistogram]
	channels  cached[*ChannelHistogram]

	// computation counters, per generation
	grayRuns      int
	luminanceRuns int
	channelRuns   int
}

// AnalyzerOption configures an Analyzer at construction.
type AnalyzerOption func(*Analyzer)

// WithLumaModel sets the gray formula. It cannot be changed afterwards.
func WithLumaModel(m LumaModel) AnalyzerOption {
	return func(a *Analyzer) {
		a.model = m
	}
}

// NewAnalyzer creates an analyzer bound to img. A nil img binds an empty
// 0x0 raster.
func NewAnalyzer(img image.Image, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	a.Bind(img)
	return a
}

// NewAnalyzerFromFile decodes the image at path and binds it. Decode failures
// return a *DecodeError and no analyzer.
func NewAnalyzerFromFile(path string, opts ...AnalyzerOption) (*Analyzer, error) {
	img, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(img, opts...), nil
}

// Bind replaces the source raster and discards all cached artifacts.
//
// img is copied; later changes to it are not seen by the analyzer. Any
// dimensions are accepted, including zero area.
func (a *Analyzer) Bind(img image.Image) {
	src := toNRGBA(img)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.bindLocked(src)
}

// BindFile decodes the image at path and binds it. If decoding fails the
// error is a *DecodeError and the current source and caches are kept.
func (a *Analyzer) BindFile(path string) error {
	img, err := Open(path)
	if err != nil {
		return err
	}
	a.Bind(img)
	return nil
}

// BindReader decodes an image from r and binds it. If decoding fails the
// error is a *DecodeError and the current source and caches are kept.
func (a *Analyzer) BindReader(r io.Reader) error {
	img, err := Decode(r)
	if err != nil {
		return err
	}
	a.Bind(img)
	return nil
}

func (a *Analyzer) bindLocked(src *image.NRGBA) {
	a.source = src
	a.generation++
	a.invalidateAll()

	b := src.Bounds()
	logger.WithFields(logrus.Fields{
		"width":      b.Dx(),
		"height":     b.Dy(),
		"generation": a.generation,
	}).Debug("Bound source raster")
}

// sourceLocked returns the bound raster, binding an empty one on first use of
// a zero Analyzer.
func (a *Analyzer) sourceLocked() *image.NRGBA {
	if a.source == nil {
		a.source = emptyRaster()
	}
	return a.source
}

func (a *Analyzer) invalidateAll() {
	a.gray.reset()
	a.luminance.reset()
	a.channels.reset()
	a.grayRuns = 0
	a.luminanceRuns = 0
	a.channelRuns = 0
}

// Source returns a copy of the bound raster.
func (a *Analyzer) Source() *image.NRGBA {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyNRGBA(a.sourceLocked())
}

// Bounds returns the bounds of the bound raster. They always start at (0,0).
func (a *Analyzer) Bounds() image.Rectangle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sourceLocked().Bounds()
}

// Opaque reports whether every pixel of the bound raster is fully opaque.
func (a *Analyzer) Opaque() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sourceLocked().Opaque()
}

// Model returns the gray formula the analyzer converts with.
func (a *Analyzer) Model() LumaModel {
	return a.model
}

// Generation counts the rasters bound so far, including the one bound at
// construction.
func (a *Analyzer) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Grayscale returns the grayscale form of the bound raster.
//
// The first call after a bind computes the raster with the analyzer's model
// and the given hints (only the first is used; DefaultHints when none are
// given) and caches it. Later calls return the cached raster whatever hints
// they pass. Hints only affect rounding.
func (a *Analyzer) Grayscale(hints ...Hints) *image.NRGBA {
	h := DefaultHints()
	if len(hints) > 0 {
		h = hints[0]
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return copyNRGBA(a.grayscaleLocked(h))
}

// GrayscaleHints returns the hints the cached grayscale raster was computed
// with, and false when no grayscale raster is cached.
func (a *Analyzer) GrayscaleHints() (Hints, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.gray.get(); !ok {
		return Hints{}, false
	}
	return a.grayHints, true
}

func (a *Analyzer) grayscaleLocked(h Hints) *image.NRGBA {
	if gray, ok := a.gray.get(); ok {
		return gray
	}

	gray := ToGrayscale(a.sourceLocked(), a.model, h)
	a.gray.set(gray)
	a.grayHints = h
	a.grayRuns++

	logger.WithFields(logrus.Fields{
		"model":      a.model.String(),
		"quality":    h.Quality.String(),
		"generation": a.generation,
	}).Debug("Computed grayscale raster")
	return gray
}

// LuminanceHistogram returns the 256-bin histogram of the grayscale raster,
// computing the grayscale raster first if needed.
func (a *Analyzer) LuminanceHistogram() *LuminanceHistogram {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h, ok := a.luminance.get(); ok {
		out := *h
		return &out
	}

	gray := a.grayscaleLocked(DefaultHints())
	h := NewLuminanceHistogram(gray)
	a.luminance.set(h)
	a.luminanceRuns++
	logger.WithField("generation", a.generation).Debug("Computed luminance histogram")

	out := *h
	return &out
}

// ChannelHistogram returns the per-channel histogram of the bound raster.
//
// The counts come from the source raster's red, green and blue values, not
// from the grayscale raster. The grayscale raster is still computed first if
// absent, so that every derived artifact follows the same initialization
// order.
func (a *Analyzer) ChannelHistogram() *ChannelHistogram {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h, ok := a.channels.get(); ok {
		out := *h
		return &out
	}

	a.grayscaleLocked(DefaultHints())
	h := NewChannelHistogram(a.sourceLocked())
	a.channels.set(h)
	a.channelRuns++
	logger.WithField("generation", a.generation).Debug("Computed channel histogram")

	out := *h
	return &out
}

// Threshold returns a new black and white raster: pixels whose gray value is
// at least threshold are white, the rest black. The result is not cached.
//
// threshold outside [0,255] returns a *RangeError matching ErrThresholdRange.
func (a *Analyzer) Threshold(threshold int) (*image.NRGBA, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}

	a.mu.Lock()
	gray := a.grayscaleLocked(DefaultHints())
	a.mu.Unlock()

	// cached rasters are never written, so reading gray unlocked is safe
	return thresholdRaster(gray, uint8(threshold)), nil
}
