package imaging

import (
	"image"
)

// ThresholdImage classifies every pixel of a grayscale raster as black or white.
//
// A pixel whose gray value (its red channel) is greater than or equal to
// threshold becomes opaque white; every other pixel becomes opaque black. The
// result is a new raster with bounds at (0,0).
//
// threshold must be in [0,255]; other values return a *RangeError matching
// ErrThresholdRange.
func ThresholdImage(gray image.Image, threshold int) (*image.NRGBA, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	return thresholdRaster(toNRGBA(gray), uint8(threshold)), nil
}

func thresholdRaster(gray *image.NRGBA, threshold uint8) *image.NRGBA {
	b := gray.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := gray.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < b.Dx(); x++ {
			v := uint8(0)
			if gray.Pix[si] >= threshold {
				v = 255
			}
			d := dst.Pix[di : di+4 : di+4]
			d[0], d[1], d[2], d[3] = v, v, v, 255
			si += 4
			di += 4
		}
	}
	return dst
}

// CountBinary returns the number of black and white pixels in a raster
// produced by ThresholdImage. A pixel counts as white when its red channel
// is 255.
func CountBinary(img *image.NRGBA) (black, white int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[i] == 255 {
				white++
			} else {
				black++
			}
			i += 4
		}
	}
	return black, white
}
