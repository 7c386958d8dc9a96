package preview

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"trainview/internal/logger"
)

const debounceDelay = 100 * time.Millisecond

// Monitor calls a refresh function on a fixed interval and, when the folder
// can be watched, shortly after files in it are created or written.
//
// refresh runs on the Monitor's goroutine. Callers that own UI state should
// hand the work to the UI goroutine from inside refresh.
type Monitor struct {
	dir      string
	interval time.Duration
	refresh  func()
	log      logger.Logger
}

func NewMonitor(dir string, interval time.Duration, refresh func(), log logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		dir:      dir,
		interval: interval,
		refresh:  refresh,
		log:      log,
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := m.watch()
	if err != nil {
		m.log.Debug("PreviewMonitor", "watch unavailable, polling only", map[string]interface{}{
			"dir":   m.dir,
			"error": err.Error(),
		})
	} else {
		defer watcher.Close()
		events = watcher.Events
		errs = watcher.Errors
	}

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			m.refresh()

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isPreviewImage(event.Name) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				debounce.Reset(debounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			m.refresh()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.log.Warning("PreviewMonitor", "watch error", map[string]interface{}{
				"dir":   m.dir,
				"error": err.Error(),
			})
		}
	}
}

func (m *Monitor) watch() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(m.dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}
