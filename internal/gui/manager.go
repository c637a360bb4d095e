package gui

import (
	"image"

	"rtcompare/internal/gui/components"
	"rtcompare/internal/logger"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

type Manager struct {
	window     fyne.Window
	logger     logger.Logger
	isShutdown bool

	viewportA       *components.Viewport
	viewportB       *components.Viewport
	structureList   *components.StructureList
	structureChecks *components.StructureChecks
	ratingPanel     *components.RatingPanel
	navigation      *components.Navigation
	statusBar       *components.StatusBar
}

// Layout describes the static pieces the manager needs up front: the
// common ROI names and labels for the two structure sets.
type Layout struct {
	ROIs         []string
	SetALabel    string
	SetBLabel    string
	SliceCount   int
	WindowWidth  float64
	WindowCenter float64
}

func NewManager(window fyne.Window, layout Layout, log logger.Logger) *Manager {
	m := &Manager{
		window:          window,
		logger:          log,
		viewportA:       components.NewViewport(layout.SetALabel),
		viewportB:       components.NewViewport(layout.SetBLabel),
		structureList:   components.NewStructureList(layout.ROIs),
		structureChecks: components.NewStructureChecks(layout.ROIs),
		ratingPanel:     components.NewRatingPanel(layout.ROIs, layout.SetALabel, layout.SetBLabel),
		navigation:      components.NewNavigation(layout.SliceCount, layout.WindowWidth, layout.WindowCenter),
		statusBar:       components.NewStatusBar(),
	}

	log.Info("GUIManager", "initialized", map[string]interface{}{
		"roi_count":   len(layout.ROIs),
		"slice_count": layout.SliceCount,
	})

	return m
}

func (m *Manager) GetMainContainer() *fyne.Container {
	viewports := container.NewGridWithColumns(2, m.viewportA, m.viewportB)

	// The list and the checkbox group are independent views of the same
	// selection; the controller keeps them consistent.
	left := container.NewGridWithRows(2,
		m.structureList.GetContainer(),
		m.structureChecks.GetContainer(),
	)

	bottom := container.NewVBox(
		m.navigation.GetContainer(),
		m.statusBar.GetContainer(),
	)

	return container.NewBorder(
		nil,
		bottom,
		left,
		m.ratingPanel.GetContainer(),
		viewports,
	)
}

func (m *Manager) GetWindow() fyne.Window {
	return m.window
}

func (m *Manager) ViewportA() *components.Viewport { return m.viewportA }
func (m *Manager) ViewportB() *components.Viewport { return m.viewportB }

func (m *Manager) StructureList() *components.StructureList {
	return m.structureList
}

func (m *Manager) StructureChecks() *components.StructureChecks {
	return m.structureChecks
}

func (m *Manager) RatingPanel() *components.RatingPanel { return m.ratingPanel }
func (m *Manager) Navigation() *components.Navigation   { return m.navigation }

// SetViewportImages replaces both viewport canvases. Callers on the UI
// thread pass direct=true; background goroutines leave it false and
// the update is marshalled through fyne.Do.
func (m *Manager) SetViewportImages(imgA, imgB image.Image, direct bool) {
	if direct {
		m.viewportA.SetImage(imgA)
		m.viewportB.SetImage(imgB)
		return
	}
	fyne.Do(func() {
		m.viewportA.SetImage(imgA)
		m.viewportB.SetImage(imgB)
	})
}

func (m *Manager) UpdateStatus(status string) {
	fyne.Do(func() {
		m.statusBar.SetStatus(status)
	})
}

func (m *Manager) SetContext(patientID, studyUID string) {
	m.statusBar.SetContext(patientID, studyUID)
}

func (m *Manager) SetSubmitEnabled(enabled bool) {
	fyne.Do(func() {
		m.ratingPanel.SetSubmitEnabled(enabled)
	})
}

func (m *Manager) Shutdown() {
	if m.isShutdown {
		return
	}
	m.isShutdown = true
	m.logger.Info("GUIManager", "shutdown complete", nil)
}
