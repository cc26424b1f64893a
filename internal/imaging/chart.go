package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultChartWidth  = 1024
	defaultChartHeight = 512
	chartTickEvery     = Levels / 8
)

var (
	grayStroke      = drawing.Color{R: 96, G: 96, B: 96, A: 255}
	grayFill        = drawing.Color{R: 192, G: 192, B: 192, A: 160}
	redStroke       = drawing.Color{R: 220, G: 0, B: 0, A: 255}
	greenStroke     = drawing.Color{R: 0, G: 160, B: 0, A: 255}
	blueStroke      = drawing.Color{R: 0, G: 0, B: 220, A: 255}
	thresholdStroke = drawing.Color{R: 255, G: 140, B: 0, A: 255}
)

// ChartOptions controls RenderHistogramChart.
type ChartOptions struct {
	Title  string
	Width  int // pixels, default 1024
	Height int // pixels, default 512

	// Threshold, when set, draws a vertical marker line at that gray level.
	Threshold *int

	// LogScale plots log2(1+count) instead of count.
	LogScale bool
}

// RenderHistogramChart draws lum as a filled gray series and, when channels
// is non-nil, the red, green and blue counts as lines on a secondary Y axis.
// The chart is written to w as PNG.
func RenderHistogramChart(w io.Writer, lum *LuminanceHistogram, channels *ChannelHistogram, opts ChartOptions) error {
	if lum == nil {
		return errors.New("luminance histogram is required")
	}
	if opts.Threshold != nil {
		if err := checkThreshold(*opts.Threshold); err != nil {
			return err
		}
	}
	if opts.Width <= 0 {
		opts.Width = defaultChartWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultChartHeight
	}

	scale := func(n int) float64 {
		if opts.LogScale {
			return math.Log2(1 + float64(n))
		}
		return float64(n)
	}

	xvalues := make([]float64, Levels)
	for i := range xvalues {
		xvalues[i] = float64(i)
	}

	grayValues := make([]float64, Levels)
	for i, n := range lum.Bins {
		grayValues[i] = scale(n)
	}
	grayPeak := math.Max(scale(lum.Max()), 1)

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: "Gray",
			Style: chart.Style{
				StrokeColor: grayStroke,
				FillColor:   grayFill,
			},
			XValues: xvalues,
			YValues: grayValues,
		},
	}

	if opts.Threshold != nil {
		t := float64(*opts.Threshold)
		series = append(series, chart.ContinuousSeries{
			Name: "Threshold",
			Style: chart.Style{
				StrokeColor: thresholdStroke,
				StrokeWidth: 2,
			},
			XValues: []float64{t, t},
			YValues: []float64{0, grayPeak},
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name:  "Intensity",
			Range: &chart.ContinuousRange{Min: 0, Max: MaxIntensity},
			Ticks: intensityTicks(),
		},
		YAxis: chart.YAxis{
			Name:  countAxisName("Gray histogram", opts.LogScale),
			Range: &chart.ContinuousRange{Min: 0, Max: grayPeak},
		},
	}

	if channels != nil {
		strokes := [NumChannels]drawing.Color{redStroke, greenStroke, blueStroke}
		for c := ChannelRed; c <= ChannelBlue; c++ {
			counts := channels.Channel(c)
			yvalues := make([]float64, Levels)
			for i, n := range counts {
				yvalues[i] = scale(n)
			}
			series = append(series, chart.ContinuousSeries{
				Name:    c.String(),
				YAxis:   chart.YAxisSecondary,
				Style:   chart.Style{StrokeColor: strokes[c]},
				XValues: xvalues,
				YValues: yvalues,
			})
		}
		graph.YAxisSecondary = chart.YAxis{
			Name:  countAxisName("RGB histogram", opts.LogScale),
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(scale(channels.Max()), 1)},
		}
	}

	graph.Series = series
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render histogram chart: %w", err)
	}
	return nil
}

// EncodeHistogramChart renders the chart like RenderHistogramChart and wraps
// the PNG in base64.
func EncodeHistogramChart(lum *LuminanceHistogram, channels *ChannelHistogram, opts ChartOptions) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := RenderHistogramChart(&buf, lum, channels, opts); err != nil {
		return nil, err
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultChartWidth
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	return &EncodedImage{
		Width:       width,
		Height:      height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func intensityTicks() []chart.Tick {
	var ticks []chart.Tick
	for v := 0; v < Levels; v += chartTickEvery {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: fmt.Sprintf("%d", v)})
	}
	return append(ticks, chart.Tick{Value: MaxIntensity, Label: fmt.Sprintf("%d", MaxIntensity)})
}

func countAxisName(name string, logScale bool) string {
	if logScale {
		return name + " (log2)"
	}
	return name
}
