package grid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrInvalidSettings is wrapped by every settings validation error.
var ErrInvalidSettings = errors.New("invalid grid settings")

// Settings describes the layout of a composite image.
//
// The output size is fully determined by the settings:
//
//	width  = (CellWidth+Gap)*Columns - Gap
//	height = (CellHeight+Gap)*Rows - Gap
type Settings struct {
	Columns    int `json:"columns" yaml:"columns"`
	Rows       int `json:"rows" yaml:"rows"`
	CellWidth  int `json:"cell_width" yaml:"cell_width"`
	CellHeight int `json:"cell_height" yaml:"cell_height"`

	// Gap is the spacing in pixels between neighbouring cells.
	Gap int `json:"gap" yaml:"gap"`

	// CornerRadiusX and CornerRadiusY are the radii of each cell's rounded
	// corners. Unequal values give elliptical corners; 0 gives square ones.
	CornerRadiusX int `json:"corner_radius_x" yaml:"corner_radius_x"`
	CornerRadiusY int `json:"corner_radius_y" yaml:"corner_radius_y"`

	// Background fills the whole canvas before cells are drawn.
	// Nil leaves the canvas fully transparent.
	Background *color.RGBA `json:"-" yaml:"-"`
}

// Option configures optional Settings fields.
type Option func(*Settings)

// WithCornerRadius sets the corner radii of every cell.
func WithCornerRadius(rx, ry int) Option {
	return func(s *Settings) {
		s.CornerRadiusX = rx
		s.CornerRadiusY = ry
	}
}

// WithBackground sets the canvas fill color.
func WithBackground(c color.RGBA) Option {
	return func(s *Settings) {
		s.Background = &c
	}
}

// NewSettings builds validated settings.
func NewSettings(columns, rows, cellWidth, cellHeight, gap int, opts ...Option) (Settings, error) {
	s := Settings{
		Columns:    columns,
		Rows:       rows,
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
		Gap:        gap,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that every dimension is in range.
func (s Settings) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"columns", s.Columns},
		{"rows", s.Rows},
		{"cell width", s.CellWidth},
		{"cell height", s.CellHeight},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSettings, p.name, p.value)
		}
	}

	nonNegative := []struct {
		name  string
		value int
	}{
		{"gap", s.Gap},
		{"corner radius x", s.CornerRadiusX},
		{"corner radius y", s.CornerRadiusY},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidSettings, p.name, p.value)
		}
	}
	return nil
}

// TotalWidth returns the width of the composite image.
func (s Settings) TotalWidth() int {
	return (s.CellWidth+s.Gap)*s.Columns - s.Gap
}

// TotalHeight returns the height of the composite image.
func (s Settings) TotalHeight() int {
	return (s.CellHeight+s.Gap)*s.Rows - s.Gap
}

// Capacity returns the number of cells in the grid.
func (s Settings) Capacity() int {
	return s.Columns * s.Rows
}

// Cell returns the destination rectangle of the i-th image. Cells are filled
// row by row, left to right.
func (s Settings) Cell(i int) image.Rectangle {
	x, y := i%s.Columns, i/s.Columns
	left := x * (s.CellWidth + s.Gap)
	top := y * (s.CellHeight + s.Gap)
	return image.Rect(left, top, left+s.CellWidth, top+s.CellHeight)
}
