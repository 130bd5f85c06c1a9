package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/avatar-mosaic/internal/colormodel"
	"github.com/ironsheep/avatar-mosaic/internal/grid"
	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/ironsheep/avatar-mosaic/internal/shuffle"
	"github.com/ironsheep/avatar-mosaic/internal/symmetry"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "avatar_compose").
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
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "avatar_is_automatic":
		return s.handleAvatarIsAutomatic(args)
	case "avatar_hsv":
		return s.handleAvatarHSV(args)
	case "avatar_compare_colors":
		return s.handleAvatarCompareColors(args)
	case "avatar_compose":
		return s.handleAvatarCompose(args)
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type automaticResult struct {
	Path string `json:"path"`
	symmetry.Report
}

func (s *Server) handleAvatarIsAutomatic(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &automaticResult{Path: a.Path, Report: symmetry.Analyze(img)}, nil
}

type avatarHSVArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleAvatarHSV(args json.RawMessage) (interface{}, error) {
	var a avatarHSVArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type compareColorsArgs struct {
	A string `json:"a"`
	B string `json:"b"`
}

type compareColorsResult struct {
	A     *imaging.ColorResult `json:"a"`
	B     *imaging.ColorResult `json:"b"`
	Close bool                 `json:"close"`
}

func (s *Server) handleAvatarCompareColors(args json.RawMessage) (interface{}, error) {
	var a compareColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ca, err := imaging.ParseHexColor(a.A)
	if err != nil {
		return nil, fmt.Errorf("a: %w", err)
	}
	cb, err := imaging.ParseHexColor(a.B)
	if err != nil {
		return nil, fmt.Errorf("b: %w", err)
	}
	// Hex digits are straight color values.
	ra, rb := imaging.NewColorResult(color.NRGBA(ca)), imaging.NewColorResult(color.NRGBA(cb))
	return &compareColorsResult{
		A:     ra,
		B:     rb,
		Close: colormodel.AreClose(ra.HSV, rb.HSV),
	}, nil
}

// avatarComposeArgs leaves a layout field at the configured default when it
// is zero, or nil for fields where zero is meaningful.
type avatarComposeArgs struct {
	Paths         []string `json:"paths"`
	Columns       int      `json:"columns"`
	Rows          int      `json:"rows"`
	CellWidth     int      `json:"cell_width"`
	CellHeight    int      `json:"cell_height"`
	Gap           *int     `json:"gap"`
	CornerRadiusX *int     `json:"corner_radius_x"`
	CornerRadiusY *int     `json:"corner_radius_y"`
	Background    *string  `json:"background"`
	SkipAutomatic bool     `json:"skip_automatic"`
	Seed          uint64   `json:"seed"`
	Output        string   `json:"output"`
}

type composeResult struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Placed      int           `json:"placed"`
	Skipped     int           `json:"skipped"`
	Settings    grid.Settings `json:"settings"`
	Background  string        `json:"background,omitempty"`
	OutputPath  string        `json:"output_path,omitempty"`
	ImageBase64 string        `json:"image_base64,omitempty"`
}

func (s *Server) handleAvatarCompose(args json.RawMessage) (interface{}, error) {
	var a avatarComposeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must not be empty")
	}

	g := s.defaults
	if a.Columns != 0 {
		g.Columns = a.Columns
	}
	if a.Rows != 0 {
		g.Rows = a.Rows
	}
	if a.CellWidth != 0 {
		g.CellWidth = a.CellWidth
	}
	if a.CellHeight != 0 {
		g.CellHeight = a.CellHeight
	}
	if a.Gap != nil {
		g.Gap = *a.Gap
	}
	if a.CornerRadiusX != nil {
		g.CornerRadiusX = *a.CornerRadiusX
	}
	if a.CornerRadiusY != nil {
		g.CornerRadiusY = *a.CornerRadiusY
	}
	if a.Background != nil {
		g.Background = *a.Background
	}

	settings, auto, err := g.Resolve()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	images := make([]image.Image, 0, len(a.Paths))
	skipped := 0
	for _, p := range a.Paths {
		img, err := s.cache.Load(p)
		if err != nil {
			return nil, err
		}
		if a.SkipAutomatic && symmetry.IsAutomaticImage(img) {
			skipped++
			continue
		}
		images = append(images, img)
	}
	if a.Seed != 0 {
		images = shuffle.Slice(images, shuffle.New(a.Seed))
	}
	images = shuffle.Take(images, settings.Capacity())

	if auto {
		bg := imaging.DominantColorOf(images)
		settings.Background = &bg
	}
	canvas := grid.Combine(images, settings)

	result := &composeResult{
		Width:    canvas.Bounds().Dx(),
		Height:   canvas.Bounds().Dy(),
		Placed:   len(images),
		Skipped:  skipped,
		Settings: settings,
	}
	if settings.Background != nil {
		result.Background = imaging.FormatHex(*settings.Background)
	}

	if a.Output != "" {
		if err := imaging.SavePNG(a.Output, canvas); err != nil {
			return nil, err
		}
		result.OutputPath = a.Output
		return result, nil
	}
	result.ImageBase64, err = imaging.Base64PNG(canvas)
	if err != nil {
		return nil, err
	}
	return result, nil
}
