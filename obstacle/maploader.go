package obstacle

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"go.viam.com/utils"
)

// Loader is a detached worker that watches a map file path for changes and
// re-parses it on modification, posting the result into a non-blocking slot
// the Executive's planning worker can try-acquire. Load errors are never
// fatal: the slot is left unchanged and a warning is logged.
type Loader struct {
	logger golog.Logger

	mu      sync.Mutex
	pending *Map // non-nil once a newly-loaded map is waiting to be claimed

	watcher *fsnotify.Watcher
	done    chan struct{}

	lat, lon, cellSize float64
}

// NewLoader constructs a Loader. Call Watch to begin watching path;
// lat/lon/cellSize are forwarded to LoadMap on every (re)load.
func NewLoader(logger golog.Logger, lat, lon, cellSize float64) *Loader {
	return &Loader{logger: logger, lat: lat, lon: lon, cellSize: cellSize}
}

// Watch loads path once immediately, then spawns a detached goroutine that
// re-loads it whenever fsnotify reports a write. Closing the returned
// stop function terminates the watch.
func (l *Loader) Watch(path string) (stop func(), err error) {
	if m, loadErr := LoadMap(path, l.lat, l.lon, l.cellSize); loadErr == nil {
		l.post(m)
	} else {
		l.logger.Warnw("initial map load failed", "path", path, "error", loadErr)
	}

	if path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}
	l.watcher = watcher
	l.done = make(chan struct{})

	utils.PanicCapturingGo(func() {
		for {
			select {
			case <-l.done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				m, loadErr := LoadMap(path, l.lat, l.lon, l.cellSize)
				if loadErr != nil {
					l.logger.Warnw("map reload failed, keeping previous map", "path", path, "error", loadErr)
					continue
				}
				l.post(m)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warnw("map watcher error", "error", werr)
			}
		}
	})

	return func() {
		close(l.done)
		watcher.Close()
	}, nil
}

func (l *Loader) post(m *Map) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = m
}

// TryAcquire is the non-blocking try-acquire the planning worker uses each
// cycle: if a new map has been posted since the last claim, it is returned
// and cleared; otherwise ok is false.
func (l *Loader) TryAcquire() (m *Map, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return nil, false
	}
	m, l.pending = l.pending, nil
	return m, true
}
