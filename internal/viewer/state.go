package viewer

import (
	"gonum.org/v1/gonum/spatial/r2"

	"rtcompare/internal/logger"
)

// ViewportID names the two comparison viewports: set A on the left,
// set B on the right.
type ViewportID int

const (
	ViewportA ViewportID = iota
	ViewportB
)

// Limits holds the zoom bounds and step shared by both viewports.
type Limits struct {
	DefaultZoom float64
	ZoomStep    float64
	MinZoom     float64
	MaxZoom     float64
}

// SelectionSurface is one UI widget reflecting the ROI selection. Every
// surface must implement SetSelection idempotently: a programmatic
// update may fire the widget's own change handler, which re-enters the
// state and is suppressed by the sync guard.
type SelectionSurface interface {
	SetSelection(names []string)
}

// Event is a typed user input. All input sources funnel through
// State.Dispatch, which applies exactly one transition and then triggers
// one synchronous render pass.
type Event interface{ isEvent() }

// SliceStep moves the current slice by a signed delta (wheel, arrow
// keys, prev/next buttons). Clamped, no wraparound.
type SliceStep struct{ Delta int }

// SliceJump selects a slice directly (slider).
type SliceJump struct{ Index int }

// ZoomStep zooms one viewport in or out by the configured step.
type ZoomStep struct {
	Viewport ViewportID
	In       bool
}

// ZoomStepBoth applies the same zoom step to both viewports at once. It
// is a convenience only; the transforms stay independent afterward.
type ZoomStepBoth struct{ In bool }

// ViewReset restores both viewports to the default zoom and zero pan.
type ViewReset struct{}

// PanDelta pans from a drag. Pan is always applied to both viewports
// identically even though zoom is not; that asymmetry is intended.
type PanDelta struct{ X, Y float64 }

// WindowChange updates the window/level used by both viewports.
type WindowChange struct{ Width, Center float64 }

// SelectionChange replaces the ROI selection. Emitted by any of the
// selection surfaces.
type SelectionChange struct{ Names []string }

func (SliceStep) isEvent()       {}
func (SliceJump) isEvent()       {}
func (ZoomStep) isEvent()        {}
func (ZoomStepBoth) isEvent()    {}
func (ViewReset) isEvent()       {}
func (PanDelta) isEvent()        {}
func (WindowChange) isEvent()    {}
func (SelectionChange) isEvent() {}

// State owns the mutable interaction state of the review screen: slice
// index, the two viewport transforms, window/level and the ROI
// selection. Single-threaded by construction; mutation happens only
// through Dispatch on the UI thread.
type State struct {
	log    logger.Logger
	limits Limits

	sliceCount int
	sliceIndex int

	transforms [2]Transform

	windowWidth  float64
	windowCenter float64

	selection []string
	surfaces  []SelectionSurface
	syncing   bool

	onRender func()
}

func NewState(sliceCount int, limits Limits, windowWidth, windowCenter float64, log logger.Logger) *State {
	s := &State{
		log:          log,
		limits:       limits,
		sliceCount:   sliceCount,
		windowWidth:  windowWidth,
		windowCenter: windowCenter,
	}
	s.transforms[ViewportA] = Transform{Zoom: limits.DefaultZoom}
	s.transforms[ViewportB] = Transform{Zoom: limits.DefaultZoom}
	return s
}

// OnRender registers the render pass invoked synchronously after every
// dispatched event.
func (s *State) OnRender(fn func()) {
	s.onRender = fn
}

// RegisterSurface adds a selection surface to be kept in sync.
func (s *State) RegisterSurface(surface SelectionSurface) {
	s.surfaces = append(s.surfaces, surface)
}

// Dispatch applies one event's transition and triggers a render pass.
func (s *State) Dispatch(ev Event) {
	switch e := ev.(type) {
	case SliceStep:
		s.setSlice(s.sliceIndex + e.Delta)
	case SliceJump:
		s.setSlice(e.Index)
	case ZoomStep:
		s.stepZoom(e.Viewport, e.In)
	case ZoomStepBoth:
		s.stepZoom(ViewportA, e.In)
		s.stepZoom(ViewportB, e.In)
	case ViewReset:
		s.transforms[ViewportA] = Transform{Zoom: s.limits.DefaultZoom}
		s.transforms[ViewportB] = Transform{Zoom: s.limits.DefaultZoom}
	case PanDelta:
		delta := r2.Vec{X: e.X, Y: e.Y}
		s.transforms[ViewportA].Pan = r2.Add(s.transforms[ViewportA].Pan, delta)
		s.transforms[ViewportB].Pan = r2.Add(s.transforms[ViewportB].Pan, delta)
	case WindowChange:
		s.windowWidth = e.Width
		s.windowCenter = e.Center
	case SelectionChange:
		if !s.syncSelection(e.Names) {
			return
		}
	}
	s.render()
}

func (s *State) render() {
	if s.onRender != nil {
		s.onRender()
	}
}

func (s *State) setSlice(index int) {
	if index < 0 {
		index = 0
	}
	if index > s.sliceCount-1 {
		index = s.sliceCount - 1
	}
	s.sliceIndex = index
}

func (s *State) stepZoom(vp ViewportID, in bool) {
	zoom := s.transforms[vp].Zoom
	if in {
		zoom *= s.limits.ZoomStep
	} else {
		zoom /= s.limits.ZoomStep
	}
	if zoom < s.limits.MinZoom {
		zoom = s.limits.MinZoom
	}
	if zoom > s.limits.MaxZoom {
		zoom = s.limits.MaxZoom
	}
	s.transforms[vp].Zoom = zoom
}

// syncSelection normalizes the incoming names and pushes the canonical
// selection to every surface. The in-progress guard suppresses the
// re-entrant SelectionChange events those pushes can fire; it is
// released before the render pass. Reports whether the event was
// applied.
func (s *State) syncSelection(names []string) bool {
	if s.syncing {
		return false
	}
	s.syncing = true

	seen := make(map[string]struct{}, len(names))
	canonical := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		canonical = append(canonical, name)
	}
	s.selection = canonical

	for _, surface := range s.surfaces {
		surface.SetSelection(s.Selection())
	}

	s.syncing = false
	return true
}

// SliceIndex returns the current slice position.
func (s *State) SliceIndex() int { return s.sliceIndex }

// SliceCount returns the number of slices in the session.
func (s *State) SliceCount() int { return s.sliceCount }

// Transform returns one viewport's current transform.
func (s *State) Transform(vp ViewportID) Transform { return s.transforms[vp] }

// Window returns the current window width and center.
func (s *State) Window() (width, center float64) { return s.windowWidth, s.windowCenter }

// Selection returns a copy of the selected ROI names in selection order.
// Order matters: the overlay palette is indexed by selection position.
func (s *State) Selection() []string {
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}
