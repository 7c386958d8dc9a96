package app

import (
	"fyne.io/fyne/v2"

	"trainview/internal/gui"
	"trainview/internal/logger"
	"trainview/internal/task"
)

// Lifecycle starts background tasks and tidies up after them.
type Lifecycle struct {
	context    *Context
	guiManager *gui.Manager
	logger     logger.Logger
}

func NewLifecycle(ctx *Context, gm *gui.Manager, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		context:    ctx,
		guiManager: gm,
		logger:     log,
	}
}

// StartTask runs fn in the background with the busy indicator shown. When
// it finishes, onDone receives the result on the UI goroutine; errors are
// reported to the user instead.
func (l *Lifecycle) StartTask(name string, fn func() (interface{}, error), onDone func(interface{})) *task.LongRunningTask {
	vars := l.context.Config.Vars()
	_ = vars.RunningTask.Set(true)

	t := task.Start(fn,
		task.WithName(name),
		task.WithBusy(l.context.Config),
		task.WithLogger(l.logger),
	)

	go func() {
		<-t.Done()
		fyne.Do(func() {
			_ = vars.RunningTask.Set(false)
			result, err := t.Result()
			if err != nil {
				l.guiManager.ShowError(name, err)
				return
			}
			if onDone != nil {
				onDone(result)
			}
		})
	}()
	return t
}

// TaskTerminated resets every preview once the worker process exits.
func (l *Lifecycle) TaskTerminated() {
	l.logger.Info("Lifecycle", "task terminated", nil)
	l.context.ResetPreviews()
	_ = l.context.Config.Vars().IsTraining.Set(false)
	l.guiManager.PreviewPanel().Clear()
}
