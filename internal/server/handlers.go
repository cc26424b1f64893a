package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/image-analyzer-mcp/internal/imaging"
	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
	"github.com/sirupsen/logrus"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_histogram").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"tool":       params.Name,
			"error_kind": errorKind(err),
		}).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the analyzer for the path from the cache
//  4. Asks the analyzer for the requested artifact
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_evict":
		return s.handleImageEvict(args)

	// Grayscale and Threshold
	case "image_grayscale":
		return s.handleImageGrayscale(args)
	case "image_threshold":
		return s.handleImageThreshold(args)

	// Histograms
	case "image_histogram":
		return s.handleImageHistogram(args)
	case "image_channel_histogram":
		return s.handleImageChannelHistogram(args)
	case "image_histogram_chart":
		return s.handleImageHistogramChart(args)

	// Pixel Inspection
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, imaging.ErrDecode):
		return "decode"
	case errors.Is(err, imaging.ErrThresholdRange):
		return "range"
	default:
		return "other"
	}
}

// === Basic Image Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// EvictResult reports the cache state after an image_evict call.
type EvictResult struct {
	Path   string `json:"path"`
	Cached int    `json:"cached"`
}

func (s *Server) handleImageEvict(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Path)
	return &EvictResult{Path: a.Path, Cached: s.cache.Len()}, nil
}

// === Grayscale and Threshold Handlers ===

type imageGrayscaleArgs struct {
	Path    string `json:"path"`
	Model   string `json:"model"`
	Quality string `json:"quality"`
}

// GrayscaleResult is a grayscale raster together with the hints it was
// produced with.
type GrayscaleResult struct {
	*imaging.EncodedImage
	Model   string `json:"model"`
	Quality string `json:"quality"`
}

func (s *Server) handleImageGrayscale(args json.RawMessage) (interface{}, error) {
	var a imageGrayscaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	hints := s.hints
	if a.Quality != "" {
		quality, err := imaging.ParseQuality(a.Quality)
		if err != nil {
			return nil, err
		}
		hints.Quality = quality
	}

	analyzer, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	model := analyzer.Model()
	if a.Model != "" {
		if model, err = imaging.ParseLumaModel(a.Model); err != nil {
			return nil, err
		}
	}

	// The cached raster is always computed with the server's hints, so the
	// histograms and thresholds of a path never depend on this call. Other
	// settings get a one-off conversion.
	gray := analyzer.Grayscale(s.hints)
	if used, _ := analyzer.GrayscaleHints(); used != hints || model != analyzer.Model() {
		gray = imaging.ToGrayscale(analyzer.Source(), model, hints)
	}

	enc, err := imaging.EncodePNG(gray)
	if err != nil {
		return nil, err
	}
	return &GrayscaleResult{
		EncodedImage: enc,
		Model:        model.String(),
		Quality:      hints.Quality.String(),
	}, nil
}

type imageThresholdArgs struct {
	Path      string `json:"path"`
	Threshold *int   `json:"threshold"`
}

// ThresholdResult is a black and white raster with its pixel counts.
type ThresholdResult struct {
	Threshold int                   `json:"threshold"`
	Black     int                   `json:"black_pixels"`
	White     int                   `json:"white_pixels"`
	Image     *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleImageThreshold(args json.RawMessage) (interface{}, error) {
	var a imageThresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == nil {
		return nil, fmt.Errorf("threshold is required")
	}

	analyzer, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := analyzer.Threshold(*a.Threshold)
	if err != nil {
		return nil, err
	}

	enc, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	black, white := imaging.CountBinary(out)
	return &ThresholdResult{
		Threshold: *a.Threshold,
		Black:     black,
		White:     white,
		Image:     enc,
	}, nil
}

// === Histogram Handlers ===

type imageHistogramArgs struct {
	Path         string `json:"path"`
	IncludeImage bool   `json:"include_image"`
}

// HistogramResult is the luminance histogram of an image's grayscale raster.
type HistogramResult struct {
	Bins    [imaging.Levels]int    `json:"bins"`
	Peak    int                    `json:"peak"`
	Stats   imaging.HistogramStats `json:"stats"`
	Preview *imaging.EncodedImage  `json:"preview,omitempty"`
}

func (s *Server) handleImageHistogram(args json.RawMessage) (interface{}, error) {
	var a imageHistogramArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	analyzer, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	analyzer.Grayscale(s.hints)

	h := analyzer.LuminanceHistogram()
	result := &HistogramResult{
		Bins:  h.Bins,
		Peak:  h.Max(),
		Stats: h.Stats(),
	}
	if a.IncludeImage {
		if result.Preview, err = imaging.EncodePNG(h.Image()); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ChannelHistogramResult holds per-channel counts, index = intensity.
type ChannelHistogramResult struct {
	Red   [imaging.Levels]int `json:"red"`
	Green [imaging.Levels]int `json:"green"`
	Blue  [imaging.Levels]int `json:"blue"`
	Peak  int                 `json:"peak"`
}

func (s *Server) handleImageChannelHistogram(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	analyzer, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	analyzer.Grayscale(s.hints)

	h := analyzer.ChannelHistogram()
	return &ChannelHistogramResult{
		Red:   h.Channel(imaging.ChannelRed),
		Green: h.Channel(imaging.ChannelGreen),
		Blue:  h.Channel(imaging.ChannelBlue),
		Peak:  h.Max(),
	}, nil
}

type imageHistogramChartArgs struct {
	Path       string `json:"path"`
	IncludeRGB bool   `json:"include_rgb"`
	Threshold  *int   `json:"threshold"`
	LogScale   bool   `json:"log_scale"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func (s *Server) handleImageHistogramChart(args json.RawMessage) (interface{}, error) {
	var a imageHistogramChartArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	analyzer, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	analyzer.Grayscale(s.hints)

	var channels *imaging.ChannelHistogram
	if a.IncludeRGB {
		channels = analyzer.ChannelHistogram()
	}

	opts := imaging.ChartOptions{
		Title:     "Histogram",
		Width:     a.Width,
		Height:    a.Height,
		Threshold: a.Threshold,
		LogScale:  a.LogScale,
	}
	return imaging.EncodeHistogramChart(analyzer.LuminanceHistogram(), channels, opts)
}

// === Pixel Inspection Handlers ===

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	analyzer, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	analyzer.Grayscale(s.hints)
	return analyzer.SamplePixel(a.X, a.Y)
}
