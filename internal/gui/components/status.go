package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar shows transient messages on the left and the loaded
// patient/study context on the right.
type StatusBar struct {
	container *fyne.Container
	status    *widget.Label
	context   *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		status:  widget.NewLabel("Ready"),
		context: widget.NewLabel(""),
	}
	sb.container = container.NewBorder(nil, nil, sb.status, sb.context)
	return sb
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) SetStatus(message string) {
	sb.status.SetText(message)
}

func (sb *StatusBar) SetContext(patientID, studyUID string) {
	if patientID == "" && studyUID == "" {
		sb.context.SetText("")
		return
	}
	sb.context.SetText("Patient " + patientID + " · Study " + studyUID)
}
