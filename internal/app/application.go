package app

import (
	"fmt"

	"rtcompare/internal/config"
	"rtcompare/internal/feedback"
	"rtcompare/internal/gui"
	"rtcompare/internal/logger"
	"rtcompare/internal/rating"
	"rtcompare/internal/session"
	"rtcompare/internal/shutdown"
	"rtcompare/internal/viewer"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

const (
	AppName    = "RT Structure Compare"
	AppID      = "com.rtcompare.viewer"
	AppVersion = "1.0.0"

	LeftPanelWidth  = 220
	RightPanelWidth = 420
	BottomHeight    = 120
)

type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	cfg        *config.Config
	sess       *session.Session
	logger     logger.Logger
	guiManager *gui.Manager
	state      *viewer.State
	store      *rating.Store
	client     *feedback.Client
	shutdowns  *shutdown.Manager
	handlers   *Handlers
}

func NewApplication(cfg *config.Config, sess *session.Session, log logger.Logger) (*Application, error) {
	if len(sess.Slices) == 0 {
		return nil, fmt.Errorf("session has no slices")
	}

	fyneApp := fyneapp.NewWithID(AppID)
	window := fyneApp.NewWindow(AppName + " - " + sess.PatientID)

	windowWidth := float32(viewportAreaWidth() + LeftPanelWidth + RightPanelWidth)
	windowHeight := float32(viewportAreaHeight() + BottomHeight)
	window.Resize(fyne.NewSize(windowWidth, windowHeight))
	window.CenterOnScreen()
	window.SetMaster()

	log.Info("Application", "starting application", map[string]interface{}{
		"version":     AppVersion,
		"patient_id":  sess.PatientID,
		"slice_count": len(sess.Slices),
		"roi_count":   len(sess.CommonStructures),
	})

	state := viewer.NewState(len(sess.Slices), viewer.Limits{
		DefaultZoom: cfg.Display.DefaultZoom,
		ZoomStep:    cfg.Display.ZoomStep,
		MinZoom:     cfg.Display.MinZoom,
		MaxZoom:     cfg.Display.MaxZoom,
	}, cfg.Display.WindowWidth, cfg.Display.WindowCenter, log)

	store := rating.NewStore(sess.CommonStructures, sess.ROIData, sess.InitialFeedback)
	client := feedback.NewClient(cfg.Review.ServerURL, cfg.Review.SubmitTimeout, log)

	guiManager := gui.NewManager(window, gui.Layout{
		ROIs:         sess.CommonStructures,
		SetALabel:    sess.RT1Label,
		SetBLabel:    sess.RT2Label,
		SliceCount:   len(sess.Slices),
		WindowWidth:  cfg.Display.WindowWidth,
		WindowCenter: cfg.Display.WindowCenter,
	}, log)
	guiManager.SetContext(sess.PatientID, sess.StudyUID)

	shutdowns := shutdown.NewManager(log)
	shutdowns.Register(guiManager)
	shutdowns.Register(shutdown.Func(client.CancelInFlight))

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		cfg:        cfg,
		sess:       sess,
		logger:     log,
		guiManager: guiManager,
		state:      state,
		store:      store,
		client:     client,
		shutdowns:  shutdowns,
	}

	application.handlers = NewHandlers(application)
	application.handlers.Bind()

	log.Info("Application", "initialization complete", nil)
	return application, nil
}

func viewportAreaWidth() int  { return 2 * 512 }
func viewportAreaHeight() int { return 512 + 60 }

func (a *Application) Run() error {
	a.shutdowns.Listen()

	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested", nil)
		a.shutdowns.Shutdown()
		a.window.Close()
	})

	a.window.SetContent(a.guiManager.GetMainContainer())

	// Common structures start selected; the dispatch also runs the
	// first render pass.
	a.state.Dispatch(viewer.SelectionChange{Names: a.sess.CommonStructures})
	a.handlers.RefreshAllRows()
	a.window.Show()

	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()

	return nil
}
