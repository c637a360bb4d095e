package viewer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"

	"rtcompare/internal/session"
)

const (
	// SliceMatchTolerance is the maximum z-distance in mm between the
	// displayed slice and a stored contour for the contour to apply.
	SliceMatchTolerance = 2.5

	// zEpsilon widens the minimum-distance comparison so contours tied
	// for closest (disjoint regions of one ROI) are all drawn.
	zEpsilon = 1e-3

	// overlayAlpha is the stroke opacity of contour outlines.
	overlayAlpha = 0.7
)

// palette is cycled by an ROI's position in the active selection, not by
// its name: reselecting ROIs in a different order recolors them. That
// matches the shipped behavior and is kept deliberately.
var palette = []color.NRGBA{
	{R: 0x00, G: 0xff, B: 0xff, A: 0xff}, // cyan
	{R: 0xff, G: 0xff, B: 0x00, A: 0xff}, // yellow
	{R: 0xff, G: 0x00, B: 0xff, A: 0xff}, // magenta
	{R: 0x00, G: 0xff, B: 0x00, A: 0xff}, // green
	{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}, // orange
	{R: 0xff, G: 0x45, B: 0x45, A: 0xff}, // red
	{R: 0x40, G: 0x80, B: 0xff, A: 0xff}, // blue
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, // white
}

// SelectionColor returns the overlay color for the ROI at the given
// position in the active selection.
func SelectionColor(selectionIndex int) color.NRGBA {
	return palette[selectionIndex%len(palette)]
}

// ClosestContours resolves which of an ROI's contours lie on the slice
// at z: the subset minimizing |contourZ - z| within the match tolerance,
// including every contour tied for the minimum. Empty when nothing is
// within tolerance.
func ClosestContours(contours []session.Contour, z, tolerance float64) []session.Contour {
	minDiff := math.Inf(1)
	for i := range contours {
		cz, ok := contours[i].Z()
		if !ok {
			continue
		}
		if diff := math.Abs(cz - z); diff <= tolerance && diff < minDiff {
			minDiff = diff
		}
	}
	if math.IsInf(minDiff, 1) {
		return nil
	}

	var matched []session.Contour
	for i := range contours {
		cz, ok := contours[i].Z()
		if !ok {
			continue
		}
		if diff := math.Abs(cz - z); diff <= tolerance && diff <= minDiff+zEpsilon {
			matched = append(matched, contours[i])
		}
	}
	return matched
}

// Project maps one patient-space point onto the canvas for a slice and
// transform, using the same centering offset as the image renderer.
func Project(p session.Point, s *session.Slice, base r2.Vec, zoom float64) r2.Vec {
	return r2.Vec{
		X: base.X + (p.X-s.ImagePosition[0])/s.PixelSpacing[0]*zoom,
		Y: base.Y + (p.Y-s.ImagePosition[1])/s.PixelSpacing[1]*zoom,
	}
}

// Overlay draws contour outlines and ROI labels over a rendered slice.
// A zero Tolerance falls back to SliceMatchTolerance.
type Overlay struct {
	Tolerance float64
}

func (o Overlay) tolerance() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return SliceMatchTolerance
}

// Draw strokes every selected ROI's applicable contours onto dst. ROIs
// absent from the set are skipped silently; the two annotation sets are
// expected to differ. Degenerate geometry (under 3 projected points,
// missing spacing or position) is skipped without failing the pass.
func (o Overlay) Draw(dst *image.RGBA, set session.ContourSet, s *session.Slice, selected []string, t Transform) {
	if s == nil || len(s.PixelSpacing) < 2 || len(s.ImagePosition) < 2 {
		return
	}
	if s.PixelSpacing[0] == 0 || s.PixelSpacing[1] == 0 {
		return
	}

	base := CenterOffset(dst.Bounds(), s.Width, s.Height, t)
	sliceZ := s.Z()

	for i, name := range selected {
		group, ok := set[name]
		if !ok {
			continue
		}

		c := SelectionColor(i)
		for _, contour := range ClosestContours(group.Contours, sliceZ, o.tolerance()) {
			if len(contour.Points) < 3 {
				continue
			}

			pts := make([]r2.Vec, len(contour.Points))
			for j, p := range contour.Points {
				pts[j] = Project(p, s, base, t.Zoom)
			}

			strokePolygon(dst, pts, c)
			drawLabel(dst, name, pts[0], c)
		}
	}
}

// strokePolygon draws a closed outline; the polygon is never filled.
func strokePolygon(dst *image.RGBA, pts []r2.Vec, c color.NRGBA) {
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		strokeLine(dst, pts[i], next, c)
	}
}

func strokeLine(dst *image.RGBA, a, b r2.Vec, c color.NRGBA) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		blendPixel(dst, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// blendPixel composites the stroke color at the overlay opacity.
func blendPixel(dst *image.RGBA, x, y int, c color.NRGBA) {
	if !image.Pt(x, y).In(dst.Bounds()) {
		return
	}
	o := dst.PixOffset(x, y)
	dst.Pix[o] = mix(c.R, dst.Pix[o])
	dst.Pix[o+1] = mix(c.G, dst.Pix[o+1])
	dst.Pix[o+2] = mix(c.B, dst.Pix[o+2])
	dst.Pix[o+3] = 0xff
}

func mix(src, dst uint8) uint8 {
	return uint8(float64(src)*overlayAlpha + float64(dst)*(1-overlayAlpha))
}

// drawLabel writes the ROI name near the contour's first projected
// point, clamped so the text stays vertically inside the canvas.
func drawLabel(dst *image.RGBA, name string, at r2.Vec, c color.NRGBA) {
	face := basicfont.Face7x13
	metrics := face.Metrics()

	y := int(math.Round(at.Y)) - 2
	minY := metrics.Ascent.Ceil()
	maxY := dst.Bounds().Dy() - metrics.Descent.Ceil()
	if y < minY {
		y = minY
	}
	if y > maxY {
		y = maxY
	}

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(int(math.Round(at.X))+3, y),
	}
	drawer.DrawString(name)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
