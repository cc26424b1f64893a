package httpapi

import (
	"bytes"
	"fmt"
	"image"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ironsheep/image-analyzer-mcp/internal/imaging"
)

const maxChartSize = 4096

// HistogramResponse is the body of POST /v1/histogram.
type HistogramResponse struct {
	Width  int                    `json:"width"`
	Height int                    `json:"height"`
	Bins   [imaging.Levels]int    `json:"bins"`
	Peak   int                    `json:"peak"`
	Stats  imaging.HistogramStats `json:"stats"`
}

// ChannelHistogramResponse is the body of POST /v1/histogram/channels.
type ChannelHistogramResponse struct {
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	Red    [imaging.Levels]int `json:"red"`
	Green  [imaging.Levels]int `json:"green"`
	Blue   [imaging.Levels]int `json:"blue"`
	Peak   int                 `json:"peak"`
}

func grayscale(c *gin.Context, a *imaging.Analyzer) (*result, error) {
	gray := a.Grayscale()
	hints, _ := a.GrayscaleHints()
	model := a.Model()

	// model or quality in the query asks for a specific conversion; unset
	// fields keep the configured value
	if raw := c.Query("model"); raw != "" {
		m, err := imaging.ParseLumaModel(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		model = m
	}
	if raw := c.Query("quality"); raw != "" {
		q, err := imaging.ParseQuality(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		hints.Quality = q
	}
	if used, _ := a.GrayscaleHints(); used != hints || model != a.Model() {
		gray = imaging.ToGrayscale(a.Source(), model, hints)
	}
	return encodePNG(gray)
}

func histogram(c *gin.Context, a *imaging.Analyzer) (*result, error) {
	h := a.LuminanceHistogram()
	b := a.Bounds()
	return &result{json: &HistogramResponse{
		Width:  b.Dx(),
		Height: b.Dy(),
		Bins:   h.Bins,
		Peak:   h.Max(),
		Stats:  h.Stats(),
	}}, nil
}

func channelHistogram(c *gin.Context, a *imaging.Analyzer) (*result, error) {
	h := a.ChannelHistogram()
	b := a.Bounds()
	return &result{json: &ChannelHistogramResponse{
		Width:  b.Dx(),
		Height: b.Dy(),
		Red:    h.Channel(imaging.ChannelRed),
		Green:  h.Channel(imaging.ChannelGreen),
		Blue:   h.Channel(imaging.ChannelBlue),
		Peak:   h.Max(),
	}}, nil
}

func threshold(c *gin.Context, a *imaging.Analyzer) (*result, error) {
	raw, ok := c.GetQuery("value")
	if !ok {
		return nil, fmt.Errorf("%w: missing value query parameter", errBadRequest)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: value must be an integer: %v", errBadRequest, err)
	}

	out, err := a.Threshold(value)
	if err != nil {
		return nil, err
	}
	return encodePNG(out)
}

func histogramChart(c *gin.Context, a *imaging.Analyzer) (*result, error) {
	opts := imaging.ChartOptions{Title: "Histogram"}

	var err error
	if opts.LogScale, err = queryBool(c, "log"); err != nil {
		return nil, err
	}
	rgb, err := queryBool(c, "rgb")
	if err != nil {
		return nil, err
	}
	if opts.Width, err = queryInt(c, "width", 0, maxChartSize); err != nil {
		return nil, err
	}
	if opts.Height, err = queryInt(c, "height", 0, maxChartSize); err != nil {
		return nil, err
	}
	if raw, ok := c.GetQuery("threshold"); ok {
		t, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: threshold must be an integer: %v", errBadRequest, err)
		}
		opts.Threshold = &t
	}

	var channels *imaging.ChannelHistogram
	if rgb {
		channels = a.ChannelHistogram()
	}

	var buf bytes.Buffer
	if err := imaging.RenderHistogramChart(&buf, a.LuminanceHistogram(), channels, opts); err != nil {
		return nil, err
	}
	return &result{png: buf.Bytes()}, nil
}

func encodePNG(img image.Image) (*result, error) {
	var buf bytes.Buffer
	if err := imaging.WritePNG(&buf, img); err != nil {
		return nil, err
	}
	return &result{png: buf.Bytes()}, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", errBadRequest, key)
	}
	return v, nil
}

func queryInt(c *gin.Context, key string, lo, hi int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s must be an integer in [%d,%d]", errBadRequest, key, lo, hi)
	}
	return v, nil
}
