package viewer

import (
	"image"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"rtcompare/internal/session"
)

func TestWindowValue_Saturation(t *testing.T) {
	windows := []struct{ width, center float64 }{
		{400, 40},
		{1500, -600},
		{1, 0},
		{80, 40},
	}

	for _, w := range windows {
		lo := int32(w.center - w.width) // well below the window
		hi := int32(w.center + w.width) // well above the window
		if got := WindowValue(lo, w.width, w.center); got != 0 {
			t.Errorf("window %v/%v: sample %d got %d, want 0", w.width, w.center, lo, got)
		}
		if got := WindowValue(hi, w.width, w.center); got != 255 {
			t.Errorf("window %v/%v: sample %d got %d, want 255", w.width, w.center, hi, got)
		}
	}
}

func TestWindowValue_Monotonic(t *testing.T) {
	prev := WindowValue(-4000, 400, 40)
	for s := int32(-3999); s <= 4000; s++ {
		cur := WindowValue(s, 400, 40)
		if cur < prev {
			t.Fatalf("transform not monotonic at sample %d: %d < %d", s, cur, prev)
		}
		prev = cur
	}
}

func TestWindowValue_Endpoints(t *testing.T) {
	// Window 400/40 spans [-160, 240].
	if got := WindowValue(-160, 400, 40); got != 0 {
		t.Errorf("lower bound: got %d, want 0", got)
	}
	if got := WindowValue(240, 400, 40); got != 255 {
		t.Errorf("upper bound: got %d, want 255", got)
	}
	if got := WindowValue(-1000, 400, 40); got != 0 {
		t.Errorf("below window: got %d, want 0", got)
	}
	if got := WindowValue(3000, 400, 40); got != 255 {
		t.Errorf("above window: got %d, want 255", got)
	}
	if got := WindowValue(40, 400, 40); got != 127 {
		t.Errorf("center: got %d, want 127", got)
	}
}

func TestWindowValue_ZeroWidthIsBlack(t *testing.T) {
	for _, s := range []int32{-1000, 0, 1000} {
		if got := WindowValue(s, 0, 40); got != 0 {
			t.Errorf("zero width sample %d: got %d, want 0", s, got)
		}
	}
}

func testSlice() *session.Slice {
	return &session.Slice{
		Width:  2,
		Height: 2,
		// Window 400/40 spans [-160, 240]: one black, one white, two mid.
		Pixels:        []int32{-1000, 1000, 40, 40},
		PixelSpacing:  []float64{1, 1},
		ImagePosition: []float64{0, 0, 0},
	}
}

func TestRender_CentersImage(t *testing.T) {
	var r Renderer
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))

	r.Render(dst, testSlice(), 400, 40, Transform{Zoom: 1})

	// 2x2 slice at zoom 1 in a 10x10 canvas lands at (4,4)-(6,6).
	if got := dst.RGBAAt(4, 4).R; got != 0 {
		t.Errorf("pixel (4,4): got %d, want 0", got)
	}
	if got := dst.RGBAAt(5, 4).R; got != 255 {
		t.Errorf("pixel (5,4): got %d, want 255", got)
	}
	if got := dst.RGBAAt(4, 5).R; got != 127 {
		t.Errorf("pixel (4,5): got %d, want 127", got)
	}
	// Outside the target stays black.
	if got := dst.RGBAAt(0, 0).R; got != 0 {
		t.Errorf("border pixel: got %d, want 0", got)
	}
}

func TestRender_PanShiftsImage(t *testing.T) {
	var r Renderer
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))

	r.Render(dst, testSlice(), 400, 40, Transform{Zoom: 1, Pan: r2.Vec{X: 2, Y: 0}})

	if got := dst.RGBAAt(7, 4).R; got != 255 {
		t.Errorf("panned pixel (7,4): got %d, want 255", got)
	}
	if got := dst.RGBAAt(5, 4).R; got != 0 {
		t.Errorf("old position should be black, got %d", got)
	}
}

func TestRender_BlankFrames(t *testing.T) {
	var r Renderer
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))

	// Seed a non-black pixel so the black fill is observable.
	dst.Pix[0] = 200

	cases := []struct {
		name  string
		slice *session.Slice
		width float64
	}{
		{"nil slice", nil, 400},
		{"empty pixels", &session.Slice{Width: 2, Height: 2}, 400},
		{"zero window width", testSlice(), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r.Render(dst, tc.slice, tc.width, 40, Transform{Zoom: 1})
			for i := 0; i < len(dst.Pix); i += 4 {
				if dst.Pix[i] != 0 || dst.Pix[i+1] != 0 || dst.Pix[i+2] != 0 {
					t.Fatalf("pixel %d not black", i/4)
				}
			}
		})
	}
}

func TestCenterOffset_MatchesFormula(t *testing.T) {
	canvas := image.Rect(0, 0, 640, 480)
	tr := Transform{Zoom: 1.4, Pan: r2.Vec{X: 12, Y: -7}}

	got := CenterOffset(canvas, 512, 512, tr)
	wantX := (640.0-512.0*1.4)/2 + 12
	wantY := (480.0-512.0*1.4)/2 - 7

	if got.X != wantX || got.Y != wantY {
		t.Errorf("got (%v, %v), want (%v, %v)", got.X, got.Y, wantX, wantY)
	}
}
