package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"gonum.org/v1/gonum/stat"
)

// Channel indexes a column of a ChannelHistogram.
type Channel int

const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue

	// NumChannels is the number of color channels counted per pixel.
	NumChannels = 3
)

func (c Channel) String() string {
	switch c {
	case ChannelRed:
		return "red"
	case ChannelGreen:
		return "green"
	case ChannelBlue:
		return "blue"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// LuminanceHistogram counts pixels per gray level. Bins[g] is the number of
// pixels whose gray value is g. Counts are raw, not normalized.
type LuminanceHistogram struct {
	Bins [Levels]int `json:"bins"`
}

// NewLuminanceHistogram accumulates the gray values of a grayscale raster.
//
// The gray value of a pixel is read from its red channel, since grayscale
// pixels carry the same value in R, G and B. Every pixel is visited once.
func NewLuminanceHistogram(gray image.Image) *LuminanceHistogram {
	h := &LuminanceHistogram{}
	if gray == nil {
		return h
	}

	src, ok := gray.(*image.NRGBA)
	if !ok {
		src = toNRGBA(gray)
	}

	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := src.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			h.Bins[src.Pix[i]]++
			i += 4
		}
	}
	return h
}

// Total returns the number of pixels counted.
func (h *LuminanceHistogram) Total() int {
	total := 0
	for _, n := range h.Bins {
		total += n
	}
	return total
}

// Max returns the largest bin count, or 0 for an empty histogram.
func (h *LuminanceHistogram) Max() int {
	peak := 0
	for _, n := range h.Bins {
		if n > peak {
			peak = n
		}
	}
	return peak
}

// HistogramStats summarizes the distribution of gray values.
//
// All fields are zero for an empty histogram. StdDev is the unbiased sample
// standard deviation and is zero when fewer than two pixels were counted.
type HistogramStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median int     `json:"median"`
}

// Stats computes summary statistics of the gray values counted in h.
func (h *LuminanceHistogram) Stats() HistogramStats {
	total := h.Total()
	if total == 0 {
		return HistogramStats{}
	}

	values := make([]float64, Levels)
	weights := make([]float64, Levels)
	for i, n := range h.Bins {
		values[i] = float64(i)
		weights[i] = float64(n)
	}

	s := HistogramStats{
		Count:  total,
		Mean:   stat.Mean(values, weights),
		Median: int(stat.Quantile(0.5, stat.Empirical, values, weights)),
	}
	if total > 1 {
		_, s.StdDev = stat.MeanStdDev(values, weights)
	}

	for i, n := range h.Bins {
		if n > 0 {
			s.Min = i
			break
		}
	}
	for i := MaxIntensity; i >= 0; i-- {
		if h.Bins[i] > 0 {
			s.Max = i
			break
		}
	}
	return s
}

// Image renders the histogram as a 256x256 grayscale preview, one column per
// gray level scaled to the peak count.
func (h *LuminanceHistogram) Image() *image.Gray {
	if h.Max() == 0 {
		return image.NewGray(image.Rect(0, 0, Levels, Levels))
	}
	bins := make([]int, Levels)
	copy(bins, h.Bins[:])
	preview := histogram.Histogram{Bins: bins}
	return preview.Image()
}

// ChannelHistogram counts pixels per intensity for each color channel.
// Bins[v][c] is the number of pixels whose channel c has intensity v.
type ChannelHistogram struct {
	Bins [Levels][NumChannels]int `json:"bins"`
}

// NewChannelHistogram accumulates the red, green and blue values of img
// independently. Alpha is ignored.
func NewChannelHistogram(img image.Image) *ChannelHistogram {
	h := &ChannelHistogram{}
	if img == nil {
		return h
	}

	if src, ok := img.(*image.NRGBA); ok {
		b := src.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				p := src.Pix[i : i+3 : i+3]
				h.Bins[p[0]][ChannelRed]++
				h.Bins[p[1]][ChannelGreen]++
				h.Bins[p[2]][ChannelBlue]++
				i += 4
			}
		}
		return h
	}

	return NewChannelHistogram(toNRGBA(img))
}

// Channel returns the 256 counts of a single channel.
func (h *ChannelHistogram) Channel(c Channel) [Levels]int {
	var out [Levels]int
	for v := range h.Bins {
		out[v] = h.Bins[v][c]
	}
	return out
}

// Total returns the number of pixels counted for channel c.
func (h *ChannelHistogram) Total(c Channel) int {
	total := 0
	for v := range h.Bins {
		total += h.Bins[v][c]
	}
	return total
}

// Max returns the largest count across all channels and intensities.
func (h *ChannelHistogram) Max() int {
	peak := 0
	for v := range h.Bins {
		for _, n := range h.Bins[v] {
			if n > peak {
				peak = n
			}
		}
	}
	return peak
}
