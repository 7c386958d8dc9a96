package gui

import (
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"

	"trainview/internal/config"
	"trainview/internal/filedialog"
	"trainview/internal/images"
	"trainview/internal/logger"
)

// ThumbnailSize is the side of one extract/convert preview thumbnail.
const ThumbnailSize = 128

var (
	Commands = []string{"Extract", "Train", "Convert"}
	Tools    = []string{"Effmpeg", "Manual", "Mask", "Preview", "Sort"}
)

type Manager struct {
	window     fyne.Window
	config     *config.Config
	logger     logger.Logger
	isShutdown atomic.Bool

	statusBar *StatusBar
	notebook  *CommandNotebook
	preview   *PreviewPanel
}

// NewManager builds the main window content and hands the window, status bar
// and notebook to cfg so the rest of the program can drive them.
func NewManager(window fyne.Window, cfg *config.Config, imgs *images.Images, signal Signaller, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		window:    window,
		config:    cfg,
		logger:    log,
		statusBar: NewStatusBar(cfg.Vars().Display),
		notebook:  NewCommandNotebook(Commands, Tools),
		preview:   NewPreviewPanel(imgs, signal, cfg.Vars().IsTraining, ThumbnailSize,
			filedialog.NewHandler(window, log), log),
	}

	cfg.SetWindow(window)
	cfg.SetBusySurface(m.statusBar)
	cfg.SetCommandNotebook(m.notebook)

	m.logger.Info("GUIManager", "initialized", map[string]interface{}{
		"commands": len(Commands),
		"tools":    len(Tools),
	})
	return m
}

func (m *Manager) GetMainContainer() *fyne.Container {
	split := container.NewHSplit(m.notebook.AppTabs(), m.preview.GetContainer())
	split.SetOffset(0.4)
	return container.NewBorder(nil, m.statusBar.GetContainer(), nil, nil, split)
}

func (m *Manager) GetWindow() fyne.Window {
	return m.window
}

func (m *Manager) StatusBar() *StatusBar       { return m.statusBar }
func (m *Manager) Notebook() *CommandNotebook  { return m.notebook }
func (m *Manager) PreviewPanel() *PreviewPanel { return m.preview }

// RefreshPreview reloads the preview on the UI goroutine. Safe to call from
// any goroutine.
func (m *Manager) RefreshPreview() {
	fyne.Do(func() {
		if !m.isShutdown.Load() {
			m.preview.Refresh()
		}
	})
}

// Notify shows a message to the user. Safe to call from any goroutine.
func (m *Manager) Notify(message string) {
	m.logger.Info("GUIManager", "user notification", map[string]interface{}{"message": message})
	fyne.Do(func() {
		_ = m.config.Vars().Display.Set(message)
		dialog.ShowInformation("Trainview", message, m.window)
	})
}

func (m *Manager) ShowError(title string, err error) {
	m.logger.Error("GUIManager", err, map[string]interface{}{
		"title": title,
	})

	fyne.Do(func() {
		dialog.ShowError(err, m.window)
	})
}

// Shutdown stops preview refreshes that are still queued.
func (m *Manager) Shutdown() {
	if !m.isShutdown.CompareAndSwap(false, true) {
		return
	}
	m.logger.Info("GUIManager", "shutdown initiated", nil)
}
