// Package viewer implements the slice rendering, contour projection and
// interaction state of the review screen. Rendering is synchronous and
// single-threaded: every state mutation is followed by one full render
// pass per viewport.
package viewer

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"

	"rtcompare/internal/session"
)

// Transform is one viewport's view of the slice: a zoom factor and a pan
// offset in canvas pixels. The two viewports hold independent transforms.
type Transform struct {
	Zoom float64
	Pan  r2.Vec
}

// CenterOffset is the canvas position of the slice's pixel (0,0): the
// zoomed image is centered in the canvas and shifted by the pan offset.
// The overlay projector uses the same offset so contours stay aligned
// with the image under any pan/zoom.
func CenterOffset(canvas image.Rectangle, sliceW, sliceH int, t Transform) r2.Vec {
	return r2.Vec{
		X: (float64(canvas.Dx())-float64(sliceW)*t.Zoom)/2 + t.Pan.X,
		Y: (float64(canvas.Dy())-float64(sliceH)*t.Zoom)/2 + t.Pan.Y,
	}
}

// WindowValue applies the linear window/level transform to one raw
// sample, clamped to the displayable [0, 255] range. A non-positive
// window width is degenerate and maps everything to black, matching the
// blank frame the renderer produces for it.
func WindowValue(sample int32, width, center float64) uint8 {
	if width <= 0 {
		return 0
	}
	v := (float64(sample) - (center - width/2)) / width * 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Renderer draws windowed slices into a canvas-sized RGBA buffer. The
// native-resolution intermediate is kept between calls so steady-state
// rendering does not allocate.
type Renderer struct {
	native *image.RGBA
}

// Render fills dst with black and draws the windowed slice scaled by the
// transform. Missing or malformed pixel data and a non-positive window
// width all yield a blank frame; no error ever reaches the caller.
func (r *Renderer) Render(dst *image.RGBA, s *session.Slice, width, center float64, t Transform) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	if s == nil || s.Width <= 0 || s.Height <= 0 || len(s.Pixels) != s.Width*s.Height {
		return
	}
	if width <= 0 {
		return
	}

	if r.native == nil || r.native.Bounds().Dx() != s.Width || r.native.Bounds().Dy() != s.Height {
		r.native = image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	}
	for i, sample := range s.Pixels {
		v := WindowValue(sample, width, center)
		o := i * 4
		r.native.Pix[o] = v
		r.native.Pix[o+1] = v
		r.native.Pix[o+2] = v
		r.native.Pix[o+3] = 0xff
	}

	base := CenterOffset(dst.Bounds(), s.Width, s.Height, t)
	target := image.Rect(
		int(base.X),
		int(base.Y),
		int(base.X+float64(s.Width)*t.Zoom),
		int(base.Y+float64(s.Height)*t.Zoom),
	)

	xdraw.NearestNeighbor.Scale(dst, target, r.native, r.native.Bounds(), xdraw.Src, nil)
}
