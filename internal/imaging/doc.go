// Package imaging derives analytical products from a raster image: a
// grayscale raster, a luminance histogram, a per-channel histogram and a
// black and white threshold raster.
//
// The central type is Analyzer. It is bound to one source raster and computes
// each derived artifact lazily, at most once per bound raster, caching the
// result. Binding a new raster discards every cached artifact.
//
// # Rasters
//
// Any image.Image can be bound. The analyzer copies it into an 8-bit,
// non-premultiplied *image.NRGBA with bounds starting at (0,0). Every raster
// the package returns is a fresh copy the caller owns.
//
// # Gray Models
//
// An analyzer converts with one LumaModel, fixed at construction:
// LuminanceCIE (the default) or LumaRec601. Hints passed to Grayscale only
// select the Quality, which changes rounding by at most one level.
//
// # Numeric Conventions
//
//   - Channel values and gray levels are 8-bit, in [0, 255].
//   - A grayscale pixel holds its gray value in R, G and B; the gray value is
//     read from the red channel.
//   - Histograms hold raw pixel counts. The luminance histogram sums to
//     width*height, as does each column of the channel histogram.
//   - Threshold classification is inclusive: gray >= threshold is white.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Thread Safety
//
// Analyzer and ImageCache are safe for concurrent use. The stateless
// functions (ToGrayscale, NewLuminanceHistogram, NewChannelHistogram,
// ThresholdImage) can be called concurrently on different images.
//
// # Error Handling
//
// Decoding failures are reported as *DecodeError (errors.Is(err, ErrDecode))
// and never leave an analyzer without a usable raster. A threshold outside
// [0, 255] is reported as *RangeError (errors.Is(err, ErrThresholdRange)).
package imaging
