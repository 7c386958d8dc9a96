package gui

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"trainview/internal/filedialog"
	"trainview/internal/images"
	"trainview/internal/logger"
	"trainview/internal/preview"
	"trainview/internal/trigger"
)

const (
	PreviewAreaWidth  = 640
	PreviewAreaHeight = 480
)

// Signaller places a trigger for the worker.
type Signaller interface {
	Set(kind trigger.Kind) error
}

// PreviewPanel shows either the extract/convert thumbnail grid or the
// training previews, depending on whether a training session is running.
type PreviewPanel struct {
	images        *images.Images
	signal        Signaller
	training      binding.Bool
	thumbnailSize int
	dialogs       *filedialog.Handler
	log           logger.Logger

	output      *canvas.Image
	trainTabs   *container.AppTabs
	trainImages map[string]*canvas.Image
	stack       *fyne.Container
	content     *fyne.Container

	refreshButton *widget.Button
	maskButton    *widget.Button
	folderButton  *widget.Button
}

func NewPreviewPanel(imgs *images.Images, signal Signaller, training binding.Bool, thumbnailSize int, dialogs *filedialog.Handler, log logger.Logger) *PreviewPanel {
	if log == nil {
		log = logger.Nop()
	}
	p := &PreviewPanel{
		images:        imgs,
		signal:        signal,
		training:      training,
		thumbnailSize: thumbnailSize,
		dialogs:       dialogs,
		log:           log,
		trainImages:   make(map[string]*canvas.Image),
	}

	p.output = canvas.NewImageFromImage(nil)
	p.output.FillMode = canvas.ImageFillOriginal
	p.output.ScaleMode = canvas.ImageScaleSmooth
	p.output.SetMinSize(fyne.NewSize(PreviewAreaWidth, PreviewAreaHeight))

	p.trainTabs = container.NewAppTabs()
	p.trainTabs.Hide()

	p.refreshButton = widget.NewButtonWithIcon("Refresh", p.icon("reload", theme.ViewRefreshIcon()),
		func() { p.sendSignal(trigger.Update) })
	p.maskButton = widget.NewButtonWithIcon("Toggle Mask", p.icon("mask", theme.VisibilityIcon()),
		func() { p.sendSignal(trigger.MaskToggle) })
	p.folderButton = widget.NewButtonWithIcon("Output folder", p.icon("folder", theme.FolderOpenIcon()),
		p.chooseOutputFolder)

	buttons := container.NewHBox(p.refreshButton, p.maskButton, p.folderButton)
	p.stack = container.NewStack(p.output, p.trainTabs)
	p.content = container.NewBorder(nil, buttons, nil, nil, p.stack)
	return p
}

// icon returns the user's icon for name, or fallback when the icon folder
// has none.
func (p *PreviewPanel) icon(name string, fallback fyne.Resource) fyne.Resource {
	img, ok := p.images.Icon(name)
	if !ok {
		return fallback
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		p.log.Warning("PreviewPanel", "icon not usable", map[string]interface{}{
			"icon":  name,
			"error": err.Error(),
		})
		return fallback
	}
	return fyne.NewStaticResource(name+".png", buf.Bytes())
}

// chooseOutputFolder asks for the folder an extract or convert task writes
// into.
func (p *PreviewPanel) chooseOutputFolder() {
	if p.dialogs == nil {
		return
	}
	current, _ := p.images.Output().OutputPath()
	err := p.dialogs.Show(filedialog.Request{
		Handle:        filedialog.Dir,
		Title:         "Select output folder",
		InitialFolder: current,
	}, p.setOutputFolder)
	if err != nil {
		p.log.Error("PreviewPanel", err, nil)
	}
}

func (p *PreviewPanel) setOutputFolder(res filedialog.Result, err error) {
	if err != nil {
		p.log.Error("PreviewPanel", err, nil)
		return
	}
	if res.Cancelled() {
		return
	}
	_, batch := p.images.Output().OutputPath()
	p.log.Info("PreviewPanel", "output folder selected", map[string]interface{}{
		"folder":     res.Path,
		"batch_mode": batch,
	})
	p.images.SetOutputPath(res.Path, batch)
	p.Refresh()
}

func (p *PreviewPanel) GetContainer() *fyne.Container {
	return p.content
}

func (p *PreviewPanel) sendSignal(kind trigger.Kind) {
	if err := p.signal.Set(kind); err != nil {
		p.log.Error("PreviewPanel", err, map[string]interface{}{"trigger": string(kind)})
	}
}

// region is the pixel area available to the preview.
func (p *PreviewPanel) region() preview.Region {
	size := p.stack.Size()
	if size.Width < 1 || size.Height < 1 {
		size = p.output.MinSize()
	}
	return preview.Region{Width: int(size.Width), Height: int(size.Height)}
}

// Refresh reloads whichever preview source is active. It must run on the
// UI goroutine.
func (p *PreviewPanel) Refresh() {
	training, _ := p.training.Get()
	if training {
		p.refreshTraining()
		return
	}
	p.refreshOutput()
}

func (p *PreviewPanel) refreshOutput() {
	p.trainTabs.Hide()
	p.output.Show()

	err := p.images.LoadLatestPreview(p.thumbnailSize, p.region())
	if err != nil {
		if errors.Is(err, preview.ErrNoOutputPath) {
			p.log.Debug("PreviewPanel", "no output folder set", nil)
			return
		}
		p.log.Error("PreviewPanel", err, nil)
		return
	}
	var img image.Image
	if frame := p.images.PreviewOutput(); frame != nil {
		img = frame.Display
	}
	if p.output.Image == img {
		return
	}
	p.output.Image = img
	p.output.Refresh()
}

func (p *PreviewPanel) refreshTraining() {
	p.output.Hide()
	p.trainTabs.Show()

	if err := p.images.LoadTrainingPreview(); err != nil {
		p.log.Error("PreviewPanel", err, nil)
		return
	}
	tp := p.images.Training()
	region := p.region()
	region.Height -= int(p.trainTabs.MinSize().Height)
	if region.Height < 1 {
		region.Height = 1
	}

	current := tp.Images()
	for _, label := range tp.Labels() {
		if err := tp.Resize(label, &region); err != nil {
			p.log.Error("PreviewPanel", err, map[string]interface{}{"label": label})
			continue
		}
		img, ok := p.trainImages[label]
		if !ok {
			img = canvas.NewImageFromImage(nil)
			img.FillMode = canvas.ImageFillContain
			p.trainImages[label] = img
			p.trainTabs.Append(container.NewTabItem(label, img))
		}
		img.Image = current[label].Display
		img.Refresh()
	}

	for label := range p.trainImages {
		if _, ok := current[label]; ok {
			continue
		}
		for _, item := range p.trainTabs.Items {
			if item.Text == label {
				p.trainTabs.Remove(item)
				break
			}
		}
		delete(p.trainImages, label)
	}
}

// Clear empties both displays.
func (p *PreviewPanel) Clear() {
	p.output.Image = nil
	p.output.Refresh()
	for _, item := range append([]*container.TabItem{}, p.trainTabs.Items...) {
		p.trainTabs.Remove(item)
	}
	p.trainImages = make(map[string]*canvas.Image)
}

// TrainingLabels lists the training tabs currently shown.
func (p *PreviewPanel) TrainingLabels() []string {
	labels := make([]string, 0, len(p.trainTabs.Items))
	for _, item := range p.trainTabs.Items {
		labels = append(labels, item.Text)
	}
	return labels
}

// OutputImage is the grid currently on screen, or nil.
func (p *PreviewPanel) OutputImage() image.Image {
	return p.output.Image
}
