package app

import (
	"image"

	"rtcompare/internal/feedback"
	"rtcompare/internal/gui"
	"rtcompare/internal/gui/components"
	"rtcompare/internal/logger"
	"rtcompare/internal/rating"
	"rtcompare/internal/session"
	"rtcompare/internal/viewer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Handlers connects user input to the viewer state, the rating store
// and the feedback client, and runs the render pass after every state
// transition. All handler entry points run on the UI thread; only the
// network submission leaves it.
type Handlers struct {
	guiManager *gui.Manager
	state      *viewer.State
	store      *rating.Store
	client     *feedback.Client
	sess       *session.Session
	logger     logger.Logger

	rendererA viewer.Renderer
	rendererB viewer.Renderer
	overlay   viewer.Overlay
	frameA    *image.RGBA
	frameB    *image.RGBA
}

func NewHandlers(a *Application) *Handlers {
	return &Handlers{
		guiManager: a.guiManager,
		state:      a.state,
		store:      a.store,
		client:     a.client,
		sess:       a.sess,
		logger:     a.logger,
		overlay:    viewer.Overlay{Tolerance: a.cfg.Matching.SliceTolerance},
		frameA:     image.NewRGBA(image.Rect(0, 0, components.ViewportWidth, components.ViewportHeight)),
		frameB:     image.NewRGBA(image.Rect(0, 0, components.ViewportWidth, components.ViewportHeight)),
	}
}

// Bind wires every widget callback and input source into the state
// machine and the rating store.
func (h *Handlers) Bind() {
	h.state.OnRender(h.RenderPass)

	vpA := h.guiManager.ViewportA()
	vpB := h.guiManager.ViewportB()
	for _, vp := range []*components.Viewport{vpA, vpB} {
		vp.OnDrag = func(dx, dy float64) {
			h.state.Dispatch(viewer.PanDelta{X: dx, Y: dy})
		}
		vp.OnScroll = func(up bool) {
			delta := 1
			if up {
				delta = -1
			}
			h.state.Dispatch(viewer.SliceStep{Delta: delta})
		}
	}

	onSelection := func(names []string) {
		h.state.Dispatch(viewer.SelectionChange{Names: names})
	}
	list := h.guiManager.StructureList()
	list.OnSelectionChanged = onSelection
	h.state.RegisterSurface(list)
	checks := h.guiManager.StructureChecks()
	checks.OnSelectionChanged = onSelection
	h.state.RegisterSurface(checks)

	nav := h.guiManager.Navigation()
	nav.OnSliceJump = func(index int) {
		h.state.Dispatch(viewer.SliceJump{Index: index})
	}
	nav.OnSliceStep = func(forward bool) {
		delta := 1
		if !forward {
			delta = -1
		}
		h.state.Dispatch(viewer.SliceStep{Delta: delta})
	}
	nav.OnZoom = func(target int, in bool) {
		switch target {
		case components.ZoomTargetA:
			h.state.Dispatch(viewer.ZoomStep{Viewport: viewer.ViewportA, In: in})
		case components.ZoomTargetB:
			h.state.Dispatch(viewer.ZoomStep{Viewport: viewer.ViewportB, In: in})
		default:
			h.state.Dispatch(viewer.ZoomStepBoth{In: in})
		}
	}
	nav.OnWindowChange = func(width, center float64) {
		h.state.Dispatch(viewer.WindowChange{Width: width, Center: center})
	}
	nav.OnResetViews = func() {
		h.state.Dispatch(viewer.ViewReset{})
	}

	h.guiManager.GetWindow().Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		switch e.Name {
		case fyne.KeyUp:
			h.state.Dispatch(viewer.SliceStep{Delta: 1})
		case fyne.KeyDown:
			h.state.Dispatch(viewer.SliceStep{Delta: -1})
		}
	})

	panel := h.guiManager.RatingPanel()
	panel.OnRate = h.handleRate
	panel.OnClearRating = h.handleClearRating
	panel.OnIncludeChanged = h.handleInclude
	panel.OnCommentRequested = h.handleComment
	panel.OnSubmit = h.HandleSubmit
	panel.OnReset = h.handleReset
}

// RenderPass redraws both viewports for the current state. Runs
// synchronously on the UI thread after every dispatched event.
func (h *Handlers) RenderPass() {
	idx := h.state.SliceIndex()
	if idx < 0 || idx >= len(h.sess.Slices) {
		return
	}
	slice := &h.sess.Slices[idx]
	width, center := h.state.Window()
	selected := h.state.Selection()

	tA := h.state.Transform(viewer.ViewportA)
	h.rendererA.Render(h.frameA, slice, width, center, tA)
	h.overlay.Draw(h.frameA, h.sess.RT1Contours, slice, selected, tA)

	tB := h.state.Transform(viewer.ViewportB)
	h.rendererB.Render(h.frameB, slice, width, center, tB)
	h.overlay.Draw(h.frameB, h.sess.RT2Contours, slice, selected, tB)

	h.guiManager.SetViewportImages(h.frameA, h.frameB, true)
	h.guiManager.Navigation().SetSlice(idx, h.state.SliceCount())
}

func (h *Handlers) handleRate(roi string, setB bool, value int) {
	set := rating.SetA
	if setB {
		set = rating.SetB
	}
	if err := h.store.SetRating(roi, set, value); err != nil {
		h.logger.Error("Handlers", err, map[string]interface{}{"roi": roi})
		return
	}
	h.refreshRow(roi)
}

func (h *Handlers) handleClearRating(roi string, setB bool) {
	set := rating.SetA
	if setB {
		set = rating.SetB
	}
	h.store.ClearRating(roi, set)
	h.refreshRow(roi)
}

func (h *Handlers) handleInclude(roi string, include bool) {
	h.store.SetInclude(roi, include)
}

func (h *Handlers) handleComment(roi string) {
	rec, ok := h.store.Record(roi)
	if !ok {
		return
	}

	entry := widget.NewMultiLineEntry()
	entry.SetText(rec.Comment)
	entry.SetMinRowsVisible(4)

	dialog.ShowCustomConfirm("Comment: "+roi, "Save", "Cancel", entry,
		func(save bool) {
			if !save {
				return
			}
			if err := h.store.SetComment(roi, entry.Text); err != nil {
				h.logger.Error("Handlers", err, map[string]interface{}{"roi": roi})
				return
			}
			h.refreshRow(roi)
		}, h.guiManager.GetWindow())
}

func (h *Handlers) handleReset() {
	h.store.Reset()
	h.RefreshAllRows()
	h.guiManager.UpdateStatus("Ratings reset")
}

// HandleSubmit sends the current batch. An empty batch never produces
// a request. The submit button stays disabled only while the request
// is in flight; every outcome path re-enables it.
func (h *Handlers) HandleSubmit() {
	batch := h.store.Batch()
	if len(batch) == 0 {
		h.guiManager.UpdateStatus("No ratings to submit")
		return
	}

	sub := feedback.Submission{
		PatientID: h.sess.PatientID,
		StudyUID:  h.sess.StudyUID,
		RT1Label:  h.sess.RT1Label,
		RT2Label:  h.sess.RT2Label,
		RT1SOPUID: h.sess.RT1SOPUID,
		RT2SOPUID: h.sess.RT2SOPUID,
		Ratings:   batch,
	}

	h.guiManager.SetSubmitEnabled(false)
	h.guiManager.UpdateStatus("Submitting ratings...")

	go func() {
		result, err := h.client.Submit(sub)
		fyne.Do(func() {
			h.guiManager.RatingPanel().SetSubmitEnabled(true)
			h.guiManager.UpdateStatus(feedback.StatusMessage(result, err))
		})
	}()
}

func (h *Handlers) refreshRow(roi string) {
	rec, ok := h.store.Record(roi)
	if !ok {
		return
	}
	h.guiManager.RatingPanel().SetRecord(roi, rec.RatingA, rec.RatingB, rec.Include)
}

// RefreshAllRows pushes the whole store into the rating panel.
func (h *Handlers) RefreshAllRows() {
	for _, roi := range h.sess.CommonStructures {
		h.refreshRow(roi)
	}
}
