package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StructureList is the multi-select surface of the ROI selection: a
// tap-to-toggle list of the common structures. It reports every change
// through OnSelectionChanged and accepts programmatic updates through
// SetSelection; the controller's sync guard absorbs the re-entrant
// change events a programmatic update can fire.
type StructureList struct {
	container  *fyne.Container
	list       *widget.List
	structures []string

	selected map[string]bool
	order    []string

	OnSelectionChanged func([]string)
}

func NewStructureList(structures []string) *StructureList {
	sl := &StructureList{
		structures: structures,
		selected:   make(map[string]bool, len(structures)),
	}

	sl.list = widget.NewList(
		func() int { return len(sl.structures) },
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			name := sl.structures[id]
			if sl.selected[name] {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText("● " + name)
			} else {
				label.TextStyle = fyne.TextStyle{}
				label.SetText("○ " + name)
			}
		},
	)
	sl.list.OnSelected = func(id widget.ListItemID) {
		sl.toggle(sl.structures[id])
		sl.list.UnselectAll()
	}

	sl.container = container.NewBorder(
		widget.NewLabelWithStyle("Structures", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil,
		sl.list,
	)

	return sl
}

func (sl *StructureList) GetContainer() *fyne.Container {
	return sl.container
}

func (sl *StructureList) toggle(name string) {
	if sl.selected[name] {
		delete(sl.selected, name)
		for i, n := range sl.order {
			if n == name {
				sl.order = append(sl.order[:i], sl.order[i+1:]...)
				break
			}
		}
	} else {
		sl.selected[name] = true
		sl.order = append(sl.order, name)
	}

	sl.list.Refresh()
	if sl.OnSelectionChanged != nil {
		sl.OnSelectionChanged(append([]string(nil), sl.order...))
	}
}

// SetSelection replaces the displayed selection without emitting a
// change event. Idempotent by construction.
func (sl *StructureList) SetSelection(names []string) {
	sl.selected = make(map[string]bool, len(names))
	sl.order = append(sl.order[:0], names...)
	for _, name := range names {
		sl.selected[name] = true
	}
	sl.list.Refresh()
}

// StructureChecks is the checkbox surface of the ROI selection, with
// the select-all / clear-all conveniences.
type StructureChecks struct {
	container  *fyne.Container
	checks     *widget.CheckGroup
	structures []string

	OnSelectionChanged func([]string)
}

func NewStructureChecks(structures []string) *StructureChecks {
	sc := &StructureChecks{structures: structures}

	sc.checks = widget.NewCheckGroup(structures, func(selected []string) {
		if sc.OnSelectionChanged != nil {
			sc.OnSelectionChanged(selected)
		}
	})

	selectAll := widget.NewButton("Select All", func() {
		if sc.OnSelectionChanged != nil {
			sc.OnSelectionChanged(append([]string(nil), sc.structures...))
		}
	})
	clearAll := widget.NewButton("Clear All", func() {
		if sc.OnSelectionChanged != nil {
			sc.OnSelectionChanged(nil)
		}
	})

	sc.container = container.NewBorder(
		nil,
		container.NewHBox(selectAll, clearAll),
		nil, nil,
		container.NewVScroll(sc.checks),
	)

	return sc
}

func (sc *StructureChecks) GetContainer() *fyne.Container {
	return sc.container
}

// SetSelection pushes the canonical selection into the checkbox group.
// CheckGroup fires its change callback on programmatic updates; the
// controller's sync guard suppresses the echo.
func (sc *StructureChecks) SetSelection(names []string) {
	sc.checks.SetSelected(append([]string(nil), names...))
}
