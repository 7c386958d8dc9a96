// Package task runs long-running work off the UI goroutine and hands the
// result back once the work has finished.
package task

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"trainview/internal/logger"
)

// ErrNotReady is returned by Result while the task is still running.
var ErrNotReady = errors.New("task: result requested before completion")

// PanicError carries a panic recovered from a task function.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Busy is the surface that shows the user work is in progress.
type Busy interface {
	SetCursorBusy()
	SetCursorDefault()
}

type noBusy struct{}

func (noBusy) SetCursorBusy()    {}
func (noBusy) SetCursorDefault() {}

type Option func(*LongRunningTask)

// WithName labels the task in logs.
func WithName(name string) Option {
	return func(t *LongRunningTask) { t.name = name }
}

func WithBusy(b Busy) Option {
	return func(t *LongRunningTask) {
		if b != nil {
			t.busy = b
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(t *LongRunningTask) {
		if log != nil {
			t.log = log
		}
	}
}

// LongRunningTask is a function running on its own goroutine.
type LongRunningTask struct {
	id   string
	name string
	busy Busy
	log  logger.Logger

	done   chan struct{}
	once   sync.Once
	result interface{}
	err    error
}

// Start marks the busy surface and runs fn in the background.
func Start(fn func() (interface{}, error), opts ...Option) *LongRunningTask {
	t := &LongRunningTask{
		id:   uuid.NewString(),
		busy: noBusy{},
		log:  logger.Nop(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.name == "" {
		t.name = "task-" + t.id[:8]
	}

	t.log.Debug("LongRunningTask", "starting task", map[string]interface{}{
		"task_id": t.id,
		"name":    t.name,
	})
	t.busy.SetCursorBusy()
	go t.run(fn)
	return t
}

func (t *LongRunningTask) run(fn func() (interface{}, error)) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			t.err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		if t.err != nil {
			t.log.Debug("LongRunningTask", "error in task", map[string]interface{}{
				"task_id": t.id,
				"name":    t.name,
				"error":   t.err.Error(),
			})
		}
	}()
	t.result, t.err = fn()
}

func (t *LongRunningTask) ID() string   { return t.id }
func (t *LongRunningTask) Name() string { return t.name }

// Done is closed once the function has returned.
func (t *LongRunningTask) Done() <-chan struct{} {
	return t.done
}

// Complete reports whether the function has returned, without blocking.
func (t *LongRunningTask) Complete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Result returns the function's value or error once the task is complete,
// and restores the default cursor. Before completion it returns ErrNotReady.
func (t *LongRunningTask) Result() (interface{}, error) {
	if !t.Complete() {
		t.log.Warning("LongRunningTask", "aborting attempt to retrieve result from a task that is still running", map[string]interface{}{
			"task_id": t.id,
			"name":    t.name,
		})
		return nil, ErrNotReady
	}

	t.once.Do(t.busy.SetCursorDefault)
	if t.err != nil {
		t.log.Debug("LongRunningTask", "error caught in task", map[string]interface{}{"task_id": t.id})
		return nil, t.err
	}
	return t.result, nil
}

// Wait blocks until the task is complete and returns its result.
func (t *LongRunningTask) Wait() (interface{}, error) {
	<-t.done
	return t.Result()
}
