// Package server implements the MCP (Model Context Protocol) server for the
// image analyzer.
//
// This package provides a JSON-RPC 2.0 server that exposes grayscale
// conversion, histograms and thresholding through the MCP protocol, so an MCP
// client can inspect the tonal distribution of an image and binarize it.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_evict: Drop a cached image
//
// Grayscale and Threshold:
//   - image_grayscale: Grayscale raster as PNG
//   - image_threshold: Black and white raster as PNG, with pixel counts
//
// Histograms:
//   - image_histogram: 256-bin luminance histogram with statistics
//   - image_channel_histogram: Red, green and blue histograms
//   - image_histogram_chart: Histogram chart as PNG
//
// Pixel Inspection:
//   - image_sample_color: Color and gray value at a pixel
//
// # Image Caching
//
// Each path maps to one imaging.Analyzer held by an imaging.ImageCache. The
// analyzer computes the grayscale raster and both histograms at most once, so
// a sequence of tool calls on one image pays for each artifact only once.
// The cached grayscale raster always uses the server's configured model and
// quality, so results never depend on the order of tool calls. An
// image_grayscale call asking for other settings gets a one-off conversion.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	cfg, _ := config.LoadFromEnv()
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
