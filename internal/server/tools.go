package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and whether it is square.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "avatar_is_automatic",
			Description: "Decide whether an avatar is a generated placeholder (identicon-style image with 4-fold rotational symmetry). Returns the disagreement ratio and the verdict.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "avatar_hsv",
			Description: "Return the color of one pixel as hex, RGBA and HSV, and whether it counts as gray.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x":    integerProperty("X coordinate (0-based)"),
					"y":    integerProperty("Y coordinate (0-based)"),
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "avatar_compare_colors",
			Description: "Convert two hex colors to HSV and report whether the symmetry detector treats them as the same color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"a": map[string]interface{}{
						"type":        "string",
						"description": "First color as #RGB, #RRGGBB or #RRGGBBAA",
					},
					"b": map[string]interface{}{
						"type":        "string",
						"description": "Second color as #RGB, #RRGGBB or #RRGGBBAA",
					},
				},
				"required": []string{"a", "b"},
			},
		},
		{
			Name:        "avatar_compose",
			Description: "Composite local images row by row into a grid of rounded cells. Returns the result as base64 PNG, or saves it when output is given. Omitted layout fields use the configured grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Image files in placement order",
					},
					"columns":         integerProperty("Number of columns"),
					"rows":            integerProperty("Number of rows"),
					"cell_width":      integerProperty("Cell width in pixels"),
					"cell_height":     integerProperty("Cell height in pixels"),
					"gap":             integerProperty("Spacing between cells in pixels"),
					"corner_radius_x": integerProperty("Horizontal corner radius in pixels"),
					"corner_radius_y": integerProperty("Vertical corner radius in pixels"),
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Hex color, \"auto\" for the dominant color of the images, or empty for transparent",
					},
					"skip_automatic": map[string]interface{}{
						"type":        "boolean",
						"description": "Leave out generated placeholder avatars. Default false",
						"default":     false,
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Shuffle the images with this seed. 0 keeps the given order",
						"default":     0,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the PNG instead of returning it",
					},
				},
				"required": []string{"paths"},
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
