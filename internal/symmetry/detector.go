// Package symmetry detects placeholder avatars by testing an image for
// four-fold rotational symmetry in HSV space.
//
// Auto-generated avatars (identicons and similar) are built by rotating one
// quadrant about the image centre. A user-chosen picture almost never is.
//
// # Algorithm
//
// For every pixel (x, y) of the top-left quadrant the detector samples its
// 0°, 90°, 180° and 270° rotations about the centre:
//
//	(x, y), (y, w-1-x), (w-1-x, h-1-y), (h-1-y, x)
//
// The quadruple agrees when the first sample is close (colormodel.AreClose)
// to each of the other three. Only the star comparisons against the first
// sample are checked.
//
// The number of disagreeing quadruples is divided by the full image area
// (w*h), not by the quadrant's sample count, and the image is automatic when
// that ratio is below Threshold. Odd sizes leave the central row and column
// unsampled.
//
// Pixels are read as straight color and alpha is ignored, so a transparent
// pixel compares by the RGB it carries.
//
// Only square images are tested. Anything else is never automatic.
package symmetry

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/avatar-mosaic/internal/colormodel"
)

// Threshold is the disagreement ratio below which an image is automatic.
const Threshold = 0.025

// Report describes one symmetry test.
type Report struct {
	// Width and Height of the tested image in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Sampled is the number of quadrant points compared.
	Sampled int `json:"sampled"`

	// Disagreeing is the number of points whose rotations were not close.
	Disagreeing int `json:"disagreeing"`

	// Ratio is Disagreeing / (Width*Height).
	Ratio float64 `json:"ratio"`

	// Automatic is the verdict: Ratio < Threshold on a square image.
	Automatic bool `json:"automatic"`
}

// IsAutomaticImage reports whether img looks like an auto-generated
// placeholder avatar.
func IsAutomaticImage(img image.Image) bool {
	return Analyze(img).Automatic
}

// Analyze runs the symmetry test and returns the full report.
//
// Non-square and empty images return a report with zero counts and
// Automatic == false.
func Analyze(img image.Image) Report {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	report := Report{Width: width, Height: height}

	if width != height || width == 0 {
		return report
	}

	// Clone un-premultiplies and moves the origin to (0, 0).
	pixels := imaging.Clone(img)
	at := func(x, y int) colormodel.HSV {
		p := pixels.NRGBAAt(x, y)
		return colormodel.FromRGB(p.R, p.G, p.B)
	}

	for y := 0; y < height/2; y++ {
		for x := 0; x < width/2; x++ {
			hsv1 := at(x, y)
			hsv2 := at(y, width-1-x)
			hsv3 := at(width-1-x, height-1-y)
			hsv4 := at(height-1-y, x)

			report.Sampled++
			if !colormodel.AreClose(hsv1, hsv2) ||
				!colormodel.AreClose(hsv1, hsv3) ||
				!colormodel.AreClose(hsv1, hsv4) {
				report.Disagreeing++
			}
		}
	}

	report.Ratio = float64(report.Disagreeing) / float64(width) / float64(height)
	report.Automatic = report.Ratio < Threshold
	return report
}
