package components

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Zoom targets passed to OnZoom.
const (
	ZoomTargetA    = 0
	ZoomTargetB    = 1
	ZoomTargetBoth = 2
)

// Navigation groups slice traversal, window/level entry and zoom
// controls. The slider guards against echo loops: SetSlice records the
// programmatic value so the OnChanged callback it triggers is dropped.
type Navigation struct {
	container *fyne.Container

	slider      *widget.Slider
	sliceLabel  *widget.Label
	widthEntry  *widget.Entry
	centerEntry *widget.Entry

	applying bool

	OnSliceJump    func(index int)
	OnSliceStep    func(forward bool)
	OnZoom         func(target int, in bool)
	OnWindowChange func(width, center float64)
	OnResetViews   func()
}

func NewNavigation(sliceCount int, windowWidth, windowCenter float64) *Navigation {
	nav := &Navigation{
		slider:      widget.NewSlider(0, float64(maxSliceIndex(sliceCount))),
		sliceLabel:  widget.NewLabel(""),
		widthEntry:  widget.NewEntry(),
		centerEntry: widget.NewEntry(),
	}
	nav.slider.Step = 1
	nav.slider.OnChanged = func(value float64) {
		if nav.applying {
			return
		}
		if nav.OnSliceJump != nil {
			nav.OnSliceJump(int(value))
		}
	}

	prev := widget.NewButton("◀", func() { nav.step(false) })
	next := widget.NewButton("▶", func() { nav.step(true) })

	nav.widthEntry.SetText(strconv.FormatFloat(windowWidth, 'f', -1, 64))
	nav.centerEntry.SetText(strconv.FormatFloat(windowCenter, 'f', -1, 64))
	apply := widget.NewButton("Apply", nav.applyWindow)
	nav.widthEntry.OnSubmitted = func(string) { nav.applyWindow() }
	nav.centerEntry.OnSubmitted = func(string) { nav.applyWindow() }

	zoomRow := container.NewHBox(
		widget.NewLabel("Zoom:"),
		nav.zoomButtons("A", ZoomTargetA),
		nav.zoomButtons("B", ZoomTargetB),
		nav.zoomButtons("Both", ZoomTargetBoth),
		widget.NewButton("Reset Views", func() {
			if nav.OnResetViews != nil {
				nav.OnResetViews()
			}
		}),
	)

	windowRow := container.NewHBox(
		widget.NewLabel("Width:"),
		nav.widthEntry,
		widget.NewLabel("Center:"),
		nav.centerEntry,
		apply,
	)

	sliceRow := container.NewBorder(nil, nil,
		container.NewHBox(prev, next), nav.sliceLabel, nav.slider)

	nav.container = container.NewVBox(sliceRow, container.NewHBox(windowRow, zoomRow))
	nav.SetSlice(0, sliceCount)
	return nav
}

func (nav *Navigation) zoomButtons(label string, target int) *fyne.Container {
	in := widget.NewButton(label+"+", func() {
		if nav.OnZoom != nil {
			nav.OnZoom(target, true)
		}
	})
	out := widget.NewButton(label+"−", func() {
		if nav.OnZoom != nil {
			nav.OnZoom(target, false)
		}
	})
	return container.NewHBox(in, out)
}

func (nav *Navigation) step(forward bool) {
	if nav.OnSliceStep != nil {
		nav.OnSliceStep(forward)
	}
}

func (nav *Navigation) applyWindow() {
	width, err := strconv.ParseFloat(nav.widthEntry.Text, 64)
	if err != nil {
		return
	}
	center, err := strconv.ParseFloat(nav.centerEntry.Text, 64)
	if err != nil {
		return
	}
	if nav.OnWindowChange != nil {
		nav.OnWindowChange(width, center)
	}
}

func (nav *Navigation) GetContainer() *fyne.Container {
	return nav.container
}

// SetSlice reflects the current slice position without re-emitting a
// jump event.
func (nav *Navigation) SetSlice(index, count int) {
	nav.applying = true
	nav.slider.Max = float64(maxSliceIndex(count))
	nav.slider.SetValue(float64(index))
	nav.applying = false
	nav.sliceLabel.SetText(fmt.Sprintf("Slice %d/%d", index+1, count))
}

// SetWindow reflects externally applied window values in the entries.
func (nav *Navigation) SetWindow(width, center float64) {
	nav.widthEntry.SetText(strconv.FormatFloat(width, 'f', -1, 64))
	nav.centerEntry.SetText(strconv.FormatFloat(center, 'f', -1, 64))
}

func maxSliceIndex(count int) int {
	if count < 1 {
		return 0
	}
	return count - 1
}
