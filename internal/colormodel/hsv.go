// Package colormodel converts 8-bit RGBA pixels to the HSV color space and
// decides whether two HSV colors are perceptually close.
//
// Closeness is judged on hue for chromatic colors and on value for grays.
// Hue is numerically unstable for near-gray pixels, so a gray and a chromatic
// color are never considered close.
package colormodel

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Tolerances used by AreClose.
const (
	// GrayThreshold is the saturation below which a color counts as gray.
	GrayThreshold = 0.1

	// ValueTolerance is the maximum value difference between two grays.
	ValueTolerance = 0.1

	// HueTolerance is the maximum hue difference, in degrees, between two
	// chromatic colors.
	HueTolerance = 5.0
)

// HSV is a color in the Hue/Saturation/Value space.
//
//   - Hue: 0-360 degrees, 0 for achromatic colors
//   - Saturation: 0-1 (0 = gray)
//   - Value: 0-1 (0 = black)
type HSV struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Value      float64 `json:"value"`
}

// FromRGB converts 8-bit color channels to HSV.
//
// Value is max(R,G,B)/255 and Saturation is 1 - min/max (0 for black).
func FromRGB(r, g, b uint8) HSV {
	h, s, v := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Hsv()
	return HSV{Hue: h, Saturation: s, Value: v}
}

// FromRGBA converts an 8-bit pixel to HSV. Alpha is ignored.
func FromRGBA(c color.RGBA) HSV {
	return FromRGB(c.R, c.G, c.B)
}

// FromColor converts any color to HSV from its straight (non-premultiplied)
// 8-bit channels, so alpha never changes the result.
func FromColor(c color.Color) HSV {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return FromRGB(n.R, n.G, n.B)
}

// Gray reports whether the color is saturated too little for its hue to be
// meaningful.
func (c HSV) Gray() bool {
	return c.Saturation < GrayThreshold
}

func (c HSV) String() string {
	return fmt.Sprintf("H: %.1f, S: %.3f, V: %.3f", c.Hue, c.Saturation, c.Value)
}

// AreClose reports whether two colors are perceptually close.
//
// Two grays are close when their values differ by at most ValueTolerance.
// A gray and a chromatic color are never close. Two chromatic colors are
// close when their hues differ by at most HueTolerance; the difference is
// taken linearly, so hues on either side of 0/360 compare as far apart.
func AreClose(a, b HSV) bool {
	grayA, grayB := a.Gray(), b.Gray()
	switch {
	case grayA && grayB:
		return math.Abs(a.Value-b.Value) <= ValueTolerance
	case grayA != grayB:
		return false
	default:
		return math.Abs(a.Hue-b.Hue) <= HueTolerance
	}
}
