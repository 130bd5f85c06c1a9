package grid

import (
	"image"
	"image/color"
)

// ClipRegion is a set of pixels inside a bounding box.
//
// The compositor only needs membership tests, so any shape that can answer
// Contains for integer pixel coordinates can clip a cell.
type ClipRegion interface {
	// Contains reports whether pixel (x, y) is inside the region.
	Contains(x, y int) bool

	// Bounds returns the smallest rectangle enclosing the region.
	Bounds() image.Rectangle
}

// RoundedRect is a rectangle whose corners are cut by quarter ellipses with
// radii RX and RY. A zero radius gives square corners. Radii larger than half
// the rectangle are clamped.
type RoundedRect struct {
	Rect   image.Rectangle
	RX, RY int
}

// Bounds implements ClipRegion.
func (r RoundedRect) Bounds() image.Rectangle {
	return r.Rect
}

// Contains implements ClipRegion. A pixel is inside when its centre is.
func (r RoundedRect) Contains(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(r.Rect) {
		return false
	}
	rx, ry := r.radii()
	return r.inside(float64(x)+0.5, float64(y)+0.5, rx, ry)
}

// coverageSamples is the per-axis subpixel grid used by Coverage.
const coverageSamples = 4

// Coverage returns how much of pixel (x, y) lies inside the rectangle, from
// 0 to 255, estimated on a coverageSamples×coverageSamples grid.
func (r RoundedRect) Coverage(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(r.Rect) {
		return 0
	}
	rx, ry := r.radii()
	if rx == 0 || ry == 0 {
		return 255
	}

	const n = coverageSamples
	hits := 0
	for j := 0; j < n; j++ {
		py := float64(y) + (float64(j)+0.5)/n
		for i := 0; i < n; i++ {
			if r.inside(float64(x)+(float64(i)+0.5)/n, py, rx, ry) {
				hits++
			}
		}
	}
	return uint8(hits * 255 / (n * n))
}

// inside tests a point in continuous coordinates against the corner arcs.
func (r RoundedRect) inside(px, py, rx, ry float64) bool {
	if rx == 0 || ry == 0 {
		return true
	}
	minX, minY := float64(r.Rect.Min.X), float64(r.Rect.Min.Y)
	maxX, maxY := float64(r.Rect.Max.X), float64(r.Rect.Max.Y)

	var cx, cy float64
	switch {
	case px < minX+rx:
		cx = minX + rx
	case px > maxX-rx:
		cx = maxX - rx
	default:
		return true
	}
	switch {
	case py < minY+ry:
		cy = minY + ry
	case py > maxY-ry:
		cy = maxY - ry
	default:
		return true
	}

	dx := (px - cx) / rx
	dy := (py - cy) / ry
	return dx*dx+dy*dy <= 1
}

func (r RoundedRect) radii() (float64, float64) {
	rx := min(float64(r.RX), float64(r.Rect.Dx())/2)
	ry := min(float64(r.RY), float64(r.Rect.Dy())/2)
	return max(rx, 0), max(ry, 0)
}

// coverer is a ClipRegion that can report partial pixel coverage.
type coverer interface {
	Coverage(x, y int) uint8
}

// Mask rasterises a clip region into an alpha mask covering its bounds.
// Regions that report Coverage get anti-aliased edges; others get 255 inside
// and 0 outside.
func Mask(region ClipRegion) *image.Alpha {
	bounds := region.Bounds()
	mask := image.NewAlpha(bounds)
	cov, smooth := region.(coverer)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			switch {
			case smooth:
				mask.SetAlpha(x, y, color.Alpha{A: cov.Coverage(x, y)})
			case region.Contains(x, y):
				mask.SetAlpha(x, y, color.Alpha{A: 255})
			}
		}
	}
	return mask
}
