package components

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// RatingPanel holds one row per common ROI: a 1-10 score for each
// structure set, a comment button and the include-in-submission flag.
// The panel is a dumb view; every edit is forwarded to the controller
// and the displayed state is pushed back with SetRecord.
type RatingPanel struct {
	container *fyne.Container
	rows      map[string]*ratingRow
	submit    *widget.Button
	applying  bool

	OnRate             func(roi string, setB bool, value int)
	OnClearRating      func(roi string, setB bool)
	OnCommentRequested func(roi string)
	OnIncludeChanged   func(roi string, include bool)
	OnSubmit           func()
	OnReset            func()
}

type ratingRow struct {
	selectA *widget.Select
	selectB *widget.Select
	comment *widget.Button
	include *widget.Check
}

const unratedOption = "—"

func ratingOptions() []string {
	options := []string{unratedOption}
	for v := 1; v <= 10; v++ {
		options = append(options, strconv.Itoa(v))
	}
	return options
}

func NewRatingPanel(rois []string, setALabel, setBLabel string) *RatingPanel {
	rp := &RatingPanel{rows: make(map[string]*ratingRow, len(rois))}

	header := container.NewGridWithColumns(5,
		widget.NewLabelWithStyle("ROI", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(setALabel, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(setBLabel, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel(""),
		widget.NewLabelWithStyle("Incl.", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
	)

	rowsBox := container.NewVBox()
	for _, roi := range rois {
		roi := roi
		row := &ratingRow{}

		row.selectA = widget.NewSelect(ratingOptions(), func(value string) {
			rp.rated(roi, false, value)
		})
		row.selectB = widget.NewSelect(ratingOptions(), func(value string) {
			rp.rated(roi, true, value)
		})
		row.selectA.PlaceHolder = unratedOption
		row.selectB.PlaceHolder = unratedOption

		row.comment = widget.NewButton("Comment", func() {
			if rp.OnCommentRequested != nil {
				rp.OnCommentRequested(roi)
			}
		})
		row.include = widget.NewCheck("", func(checked bool) {
			if rp.applying {
				return
			}
			if rp.OnIncludeChanged != nil {
				rp.OnIncludeChanged(roi, checked)
			}
		})

		rp.rows[roi] = row
		rowsBox.Add(container.NewGridWithColumns(5,
			widget.NewLabel(roi),
			row.selectA,
			row.selectB,
			row.comment,
			row.include,
		))
	}

	submit := widget.NewButton("Submit Ratings", func() {
		if rp.OnSubmit != nil {
			rp.OnSubmit()
		}
	})
	submit.Importance = widget.HighImportance
	reset := widget.NewButton("Reset", func() {
		if rp.OnReset != nil {
			rp.OnReset()
		}
	})
	rp.submit = submit

	rp.container = container.NewBorder(
		header,
		container.NewHBox(submit, reset),
		nil, nil,
		container.NewVScroll(rowsBox),
	)

	return rp
}

func (rp *RatingPanel) rated(roi string, setB bool, value string) {
	if rp.applying {
		return
	}
	if value == unratedOption || value == "" {
		if rp.OnClearRating != nil {
			rp.OnClearRating(roi, setB)
		}
		return
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	if rp.OnRate != nil {
		rp.OnRate(roi, setB, v)
	}
}

func (rp *RatingPanel) GetContainer() *fyne.Container {
	return rp.container
}

// SetRecord pushes one ROI's stored state into its row. Select and
// check widgets fire their change handlers on programmatic updates;
// the applying flag drops those echoes before they reach the store.
func (rp *RatingPanel) SetRecord(roi string, ratingA, ratingB int, include bool) {
	row, ok := rp.rows[roi]
	if !ok {
		return
	}

	rp.applying = true
	row.selectA.SetSelected(ratingLabel(ratingA))
	row.selectB.SetSelected(ratingLabel(ratingB))
	row.include.SetChecked(include)
	rp.applying = false
}

// SetSubmitEnabled toggles the submit control while a submission is in
// flight. It must never stay disabled after a failure.
func (rp *RatingPanel) SetSubmitEnabled(enabled bool) {
	if enabled {
		rp.submit.Enable()
	} else {
		rp.submit.Disable()
	}
}

func ratingLabel(value int) string {
	if value == 0 {
		return unratedOption
	}
	return strconv.Itoa(value)
}
