package filedialog

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"trainview/internal/logger"
)

// Request describes a dialog to show.
type Request struct {
	Handle        HandleType
	FileType      FileType
	Title         string
	InitialFolder string
	InitialFile   string

	// Command, Action and Variable resolve a Context request.
	Command  string
	Action   string
	Variable string
}

// Result is what the user picked. Which field is set depends on the handle
// type; an empty Result with a nil error means the dialog was cancelled.
type Result struct {
	Handle HandleType
	Path   string
	Paths  []string
	Reader fyne.URIReadCloser
	Writer fyne.URIWriteCloser
}

func (r Result) Cancelled() bool {
	return r.Path == "" && len(r.Paths) == 0 && r.Reader == nil && r.Writer == nil
}

type Handler struct {
	window fyne.Window
	log    logger.Logger
}

func NewHandler(window fyne.Window, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{window: window, log: log}
}

// Show opens the dialog for req. The callback runs on the UI goroutine once
// the user confirms or cancels. Nothing is shown for the Nothing handle type
// and the callback runs straight away with an empty Result.
func (h *Handler) Show(req Request, callback func(Result, error)) error {
	handle, err := h.resolve(req)
	if err != nil {
		return err
	}
	req.Handle = handle

	var exts []string
	defaultExt := ""
	if handle.usesFilter() {
		if exts, err = Extensions(req.FileType); err != nil {
			return err
		}
		if defaultExt, err = DefaultExtension(req.FileType); err != nil {
			return err
		}
	}

	h.log.Debug("FileHandler", "showing file dialog", map[string]interface{}{
		"handle_type":    string(handle),
		"file_type":      string(req.FileType),
		"title":          req.Title,
		"initial_folder": req.InitialFolder,
		"initial_file":   req.InitialFile,
	})

	switch handle {
	case Nothing:
		callback(Result{Handle: Nothing}, nil)
		return nil

	case Open, Filename, FilenameMulti:
		d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				callback(Result{Handle: handle}, err)
				return
			}
			callback(openResult(handle, rc), nil)
		}, h.window)
		h.configure(d, req, exts)
		d.Show()

	case Save, SaveFilename:
		d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				callback(Result{Handle: handle}, err)
				return
			}
			callback(saveResult(handle, wc, defaultExt), nil)
		}, h.window)
		h.configure(d, req, exts)
		if req.InitialFile != "" {
			d.SetFileName(req.InitialFile)
		}
		d.Show()

	case Dir, SaveDir:
		d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				callback(Result{Handle: handle}, err)
				return
			}
			callback(Result{Handle: handle, Path: uri.Path()}, nil)
		}, h.window)
		h.configure(d, req, nil)
		d.Show()
	}
	return nil
}

func (h *Handler) resolve(req Request) (HandleType, error) {
	if !req.Handle.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownHandleType, req.Handle)
	}
	if req.Handle != Context {
		return req.Handle, nil
	}
	handle, err := ResolveContext(req.Command, req.Action, req.Variable)
	if err != nil {
		return "", err
	}
	h.log.Debug("FileHandler", "context resolved", map[string]interface{}{
		"command":     req.Command,
		"action":      req.Action,
		"variable":    req.Variable,
		"handle_type": string(handle),
	})
	return handle, nil
}

func (h *Handler) configure(d *dialog.FileDialog, req Request, exts []string) {
	if len(exts) > 0 {
		d.SetFilter(storage.NewExtensionFileFilter(exts))
	}
	if req.InitialFolder == "" {
		return
	}
	lister, err := storage.ListerForURI(storage.NewFileURI(req.InitialFolder))
	if err != nil {
		h.log.Debug("FileHandler", "initial folder not listable", map[string]interface{}{
			"folder": req.InitialFolder,
			"error":  err.Error(),
		})
		return
	}
	d.SetLocation(lister)
}

func openResult(handle HandleType, rc fyne.URIReadCloser) Result {
	switch handle {
	case Filename:
		path := rc.URI().Path()
		_ = rc.Close()
		return Result{Handle: handle, Path: path}
	case FilenameMulti:
		path := rc.URI().Path()
		_ = rc.Close()
		return Result{Handle: handle, Paths: []string{path}}
	default:
		return Result{Handle: handle, Reader: rc}
	}
}

func saveResult(handle HandleType, wc fyne.URIWriteCloser, defaultExt string) Result {
	if handle == Save {
		return Result{Handle: handle, Writer: wc}
	}
	path := wc.URI().Path()
	_ = wc.Close()
	return Result{Handle: handle, Path: WithDefaultExtension(path, defaultExt)}
}

// WithDefaultExtension appends ext to path when path has no extension.
func WithDefaultExtension(path, ext string) string {
	if ext == "" || filepath.Ext(path) != "" {
		return path
	}
	return path + ext
}
