package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema of the "path" argument every tool takes.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and alpha presence. The decoded image is cached for subsequent operations on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_evict",
			Description: "Drop a cached image and every artifact derived from it. The next operation on the path reads the file again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Grayscale and Threshold
		{
			Name:        "image_grayscale",
			Description: "Convert an image to grayscale and return it as base64-encoded PNG. Each pixel's gray value is replicated across R, G and B.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"model": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"cie", "rec601"},
						"description": "cie: CIE relative luminance in linear light. rec601: BT.601 luma of gamma-encoded RGB. Defaults to the server setting. Other histogram and threshold tools always use the server setting.",
					},
					"quality": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"default", "speed", "precise"},
						"description": "Rounding trade-off. Never changes the formula.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_threshold",
			Description: "Binarize an image: pixels whose gray value is at least the threshold become white, the rest black. Returns base64 PNG plus black and white pixel counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"threshold": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"maximum":     255,
						"description": "Gray level cut-off (0-255)",
					},
				},
				"required": []string{"path", "threshold"},
			},
		},

		// Histograms
		{
			Name:        "image_histogram",
			Description: "Compute the 256-bin luminance histogram of an image's grayscale form, with peak count and summary statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return a 256x256 bar preview as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_channel_histogram",
			Description: "Compute 256-bin histograms of the red, green and blue channels of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_histogram_chart",
			Description: "Render the luminance histogram as a chart (base64 PNG), optionally overlaying the RGB channel histograms and a threshold marker.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_rgb": map[string]interface{}{
						"type":        "boolean",
						"description": "Overlay red, green and blue histograms on a secondary axis",
						"default":     false,
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"maximum":     255,
						"description": "Draw a vertical marker at this gray level",
					},
					"log_scale": map[string]interface{}{
						"type":        "boolean",
						"description": "Plot log2(1+count) instead of count",
						"default":     false,
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Chart width in pixels (default 1024)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Chart height in pixels (default 512)",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pixel Inspection
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value and gray value at a specific pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
