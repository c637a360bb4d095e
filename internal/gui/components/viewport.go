package components

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ViewportWidth  = 512
	ViewportHeight = 512
)

// Viewport is one of the two slice displays. It owns no state beyond
// the last rendered frame; drags and wheel scrolls are forwarded to the
// controller as raw input.
type Viewport struct {
	widget.BaseWidget

	title string
	image *canvas.Image

	OnDrag   func(dx, dy float64)
	OnScroll func(up bool)
}

var (
	_ fyne.Draggable  = (*Viewport)(nil)
	_ fyne.Scrollable = (*Viewport)(nil)
)

func NewViewport(title string) *Viewport {
	v := &Viewport{title: title}

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.image.ScaleMode = canvas.ImageScaleSmooth
	v.image.SetMinSize(fyne.NewSize(ViewportWidth, ViewportHeight))

	v.ExtendBaseWidget(v)
	return v
}

func (v *Viewport) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewBorder(
		widget.NewRichTextFromMarkdown("**"+v.title+"**"),
		nil, nil, nil,
		v.image,
	)
	return widget.NewSimpleRenderer(content)
}

// SetImage swaps in a freshly rendered frame.
func (v *Viewport) SetImage(img image.Image) {
	v.image.Image = img
	v.image.Refresh()
}

func (v *Viewport) Dragged(e *fyne.DragEvent) {
	if v.OnDrag != nil {
		v.OnDrag(float64(e.Dragged.DX), float64(e.Dragged.DY))
	}
}

func (v *Viewport) DragEnd() {}

func (v *Viewport) Scrolled(e *fyne.ScrollEvent) {
	if v.OnScroll != nil {
		v.OnScroll(e.Scrolled.DY > 0)
	}
}
