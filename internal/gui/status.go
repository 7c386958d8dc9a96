package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
)

// StatusBar shows the session message and an activity indicator while a
// background task runs.
type StatusBar struct {
	container *fyne.Container
	message   *widget.Label
	activity  *widget.ProgressBarInfinite
	busy      bool
}

// NewStatusBar binds the message label to display.
func NewStatusBar(display binding.String) *StatusBar {
	activity := widget.NewProgressBarInfinite()
	activity.Stop()
	activity.Hide()

	sb := &StatusBar{
		message:  widget.NewLabelWithData(display),
		activity: activity,
	}
	sb.container = container.NewBorder(nil, nil, nil, container.NewGridWrap(fyne.NewSize(160, activity.MinSize().Height), activity), sb.message)
	return sb
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) SetCursorBusy() {
	sb.busy = true
	sb.activity.Show()
	sb.activity.Start()
}

func (sb *StatusBar) SetCursorDefault() {
	sb.busy = false
	sb.activity.Stop()
	sb.activity.Hide()
}

func (sb *StatusBar) Busy() bool {
	return sb.busy
}
