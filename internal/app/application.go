package app

import (
	"context"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"trainview/internal/gui"
	"trainview/internal/logger"
	"trainview/internal/preview"
	"trainview/internal/shutdown"
	"trainview/internal/task"
)

const (
	AppName    = "Trainview"
	AppID      = "io.trainview.preview"
	AppVersion = "1.0.0"

	DefaultPollInterval = time.Second
	ShutdownTimeout     = 5 * time.Second
	MinWindowWidth      = 800
	MinWindowHeight     = 600
)

type Options struct {
	CacheDir     string
	ConfigDir    string
	OutputDir    string
	BatchMode    bool
	Training     bool
	PollInterval time.Duration
	DPI          float64
}

type Application struct {
	opts       Options
	fyneApp    fyne.App
	window     fyne.Window
	context    *Context
	guiManager *gui.Manager
	monitor    *preview.Monitor
	lifecycle  *Lifecycle
	shutdown   *shutdown.Manager
	logger     logger.Logger

	// uiRunning is set while the Fyne event loop can take work.
	uiRunning atomic.Bool
}

func NewApplication(opts Options, log logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.Nop()
	}
	fyneApp := app.NewWithID(AppID)
	return newApplication(fyneApp, opts, log)
}

func newApplication(fyneApp fyne.App, opts Options, log logger.Logger) (*Application, error) {
	window := fyneApp.NewWindow(AppName)

	a := &Application{
		opts:     opts,
		fyneApp:  fyneApp,
		window:   window,
		shutdown: shutdown.NewManager(log),
		logger:   log,
	}
	a.shutdown.SetTimeout(ShutdownTimeout)

	ctx, err := NewContext(ContextOptions{
		CacheDir:  opts.CacheDir,
		ConfigDir: opts.ConfigDir,
		DPI:       opts.DPI,
		Notify:    a.notify,
	}, log)
	if err != nil {
		return nil, err
	}
	a.context = ctx
	a.guiManager = gui.NewManager(window, ctx.Config, ctx.Images, ctx.Trigger, log)

	settings := ctx.Config.Settings()
	ctx.Config.SetRootTitle("")
	ctx.Config.SetGeometry(settings.Window.Width, settings.Window.Height, settings.Fullscreen)
	window.SetPadded(false)
	window.CenterOnScreen()
	window.SetMaster()

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	watchDir := opts.OutputDir
	if opts.Training {
		watchDir = ctx.Config.PreviewDir()
	}
	a.monitor = preview.NewMonitor(watchDir, interval, a.guiManager.RefreshPreview, log)
	a.lifecycle = NewLifecycle(ctx, a.guiManager, log)

	_ = ctx.Config.Vars().IsTraining.Set(opts.Training)
	_ = ctx.Config.Vars().RunningTask.Set(false)

	log.Info("Application", "initialization complete", map[string]interface{}{
		"version":    AppVersion,
		"cache_dir":  opts.CacheDir,
		"output_dir": opts.OutputDir,
		"batch_mode": opts.BatchMode,
		"training":   opts.Training,
	})
	return a, nil
}

func (a *Application) notify(message string) {
	if a.guiManager != nil {
		a.guiManager.Notify(message)
	}
}

func (a *Application) Context() *Context { return a.context }

// onUI runs fn on the UI goroutine while the event loop is up. Once the
// loop has stopped nothing else touches the UI, so fn runs directly.
func (a *Application) onUI(fn func()) {
	if a.uiRunning.Load() {
		fyne.DoAndWait(fn)
		return
	}
	fn()
}

// startPreviews clears whatever a previous session left behind and then
// applies the output folder from the command line. run is called on the UI
// goroutine afterwards unless ctx is already cancelled.
func (a *Application) startPreviews(ctx context.Context, run func()) *task.LongRunningTask {
	return a.lifecycle.StartTask("clear previews", func() (interface{}, error) {
		a.onUI(a.context.ResetPreviews)
		return nil, nil
	}, func(interface{}) {
		if a.opts.OutputDir != "" {
			a.context.Images.SetOutputPath(a.opts.OutputDir, a.opts.BatchMode)
		}
		if ctx.Err() != nil {
			return
		}
		run()
	})
}

// saveSettings keeps the window geometry for the next session.
func (a *Application) saveSettings() {
	var (
		size       fyne.Size
		fullscreen bool
	)
	a.onUI(func() {
		size = a.window.Canvas().Size()
		fullscreen = a.window.FullScreen()
	})
	if err := a.context.Config.SaveGeometry(size, fullscreen); err != nil {
		a.logger.Error("Application", err, nil)
	}
}

func (a *Application) Run() error {
	// Preview caches belong to the UI goroutine, including at exit.
	a.shutdown.Register(shutdown.Func(func() { a.onUI(a.context.Images.Shutdown) }))
	a.shutdown.Register(a.context.Trigger)
	a.shutdown.Register(shutdown.Func(a.saveSettings))
	a.shutdown.Register(a.guiManager)
	a.shutdown.Listen()
	a.uiRunning.Store(true)

	monitorCtx, cancel := context.WithCancel(a.shutdown.Context())
	monitorDone := make(chan struct{})
	var monitorStarted atomic.Bool
	a.shutdown.Register(shutdown.Func(func() {
		cancel()
		if monitorStarted.Load() {
			<-monitorDone
		}
	}))

	// Stale files would show as previews, so polling waits for the reset.
	a.startPreviews(monitorCtx, func() {
		monitorStarted.Store(true)
		go func() {
			defer close(monitorDone)
			if err := a.monitor.Run(monitorCtx); err != nil {
				a.logger.Error("Application", err, nil)
			}
		}()
	})

	// Components hop onto the UI goroutine while stopping, so shutdown must
	// not block it.
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested", nil)
		go a.shutdown.Shutdown()
	})
	go func() {
		<-a.shutdown.Stopped()
		fyne.Do(a.fyneApp.Quit)
	}()

	a.window.SetContent(a.guiManager.GetMainContainer())
	a.window.Show()

	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()
	a.uiRunning.Store(false)

	a.shutdown.Shutdown()
	return nil
}
