// Package grid composites equally sized images into a single tiled image.
//
// Images are placed row by row into a Columns×Rows grid of fixed-size cells
// separated by a gap. Each source image is stretched to fill its cell exactly
// and clipped to a rounded rectangle. Cells without an image keep the
// background.
package grid

import (
	"image"
	"image/draw"
	"iter"
	"slices"

	"github.com/disintegration/imaging"
)

// Combine composites images into a new canvas laid out by s.
//
// Images beyond s.Capacity() are ignored; missing images leave their cells
// as background. A nil image leaves its cell empty but still occupies it.
// Invalid settings produce an empty image; validate them with
// Settings.Validate or NewSettings first.
//
// The returned image is freshly allocated and owned by the caller.
func Combine(images []image.Image, s Settings) *image.RGBA {
	return CombineSeq(slices.Values(images), s)
}

// CombineSeq is Combine over a lazy sequence. It stops pulling from images
// once the grid is full.
func CombineSeq(images iter.Seq[image.Image], s Settings) *image.RGBA {
	if s.Validate() != nil {
		return image.NewRGBA(image.Rectangle{})
	}

	canvas := image.NewRGBA(image.Rect(0, 0, s.TotalWidth(), s.TotalHeight()))
	if s.Background != nil {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(*s.Background), image.Point{}, draw.Src)
	}

	capacity := s.Capacity()
	i := 0
	for img := range images {
		if i >= capacity {
			break
		}
		cell := s.Cell(i)
		i++
		if img == nil || img.Bounds().Empty() {
			continue
		}
		drawCell(canvas, img, cell, s.CornerRadiusX, s.CornerRadiusY)
	}

	return canvas
}

// drawCell stretches src over cell and composites it through the cell's
// rounded-rectangle mask.
func drawCell(dst draw.Image, src image.Image, cell image.Rectangle, rx, ry int) {
	fitted := src
	if src.Bounds().Size() != cell.Size() {
		fitted = imaging.Resize(src, cell.Dx(), cell.Dy(), imaging.Lanczos)
	}

	if rx == 0 || ry == 0 {
		draw.Draw(dst, cell, fitted, fitted.Bounds().Min, draw.Over)
		return
	}

	mask := Mask(RoundedRect{Rect: cell, RX: rx, RY: ry})
	draw.DrawMask(dst, cell, fitted, fitted.Bounds().Min, mask, cell.Min, draw.Over)
}
