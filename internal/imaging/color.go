package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/ironsheep/avatar-mosaic/internal/colormodel"
	"github.com/ironsheep/avatar-mosaic/internal/grid"
	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// ColorResult contains one pixel's color in the representations the
// symmetry detector reasons about.
type ColorResult struct {
	Hex  string         `json:"hex"` // "#RRGGBB", or "#RRGGBBAA" when translucent
	RGBA RGBAColor      `json:"rgba"`
	HSV  colormodel.HSV `json:"hsv"`
	Gray bool           `json:"gray"` // saturation below the gray threshold
}

// NewColorResult converts the straight (non-premultiplied) color c to every
// representation in ColorResult.
func NewColorResult(c color.NRGBA) *ColorResult {
	hsv := colormodel.FromRGB(c.R, c.G, c.B)
	return &ColorResult{
		Hex:  FormatHex(color.RGBA(c)),
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSV:  hsv,
		Gray: hsv.Gray(),
	}
}

// SampleColor returns the color at pixel (x, y).
//
// Coordinates are absolute, so for a sub-image they must lie inside its
// bounds rather than start at zero. Colors are read straight, without
// premultiplying by alpha, the same way the symmetry detector reads them.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return NewColorResult(c), nil
}

// FormatHex renders c as "#RRGGBB", or "#RRGGBBAA" when it is not opaque.
func FormatHex(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ParseHexColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA". The leading '#' is
// optional. Colors without an alpha part are opaque.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
	}

	var alpha uint8 = 0xff
	switch len(hex) {
	case 3, 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", s, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length %q", s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// DominantColor returns the most prominent color of img as an opaque color.
func DominantColor(img image.Image) color.RGBA {
	c := dominantcolor.Find(img)
	c.A = 0xff
	return c
}

const thumbnailSize = 32

// DominantColorOf returns the dominant color across images, sampled from a
// one-row contact sheet of small thumbnails. With no images it returns
// opaque black.
func DominantColorOf(images []image.Image) color.RGBA {
	if len(images) == 0 {
		return color.RGBA{A: 0xff}
	}
	sheet := grid.Settings{Columns: len(images), Rows: 1, CellWidth: thumbnailSize, CellHeight: thumbnailSize}
	return DominantColor(grid.Combine(images, sheet))
}
