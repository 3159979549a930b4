package recovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// ErrWatcherStarted is returned by Start on a Watcher that is already running.
var ErrWatcherStarted = errors.New("watcher already started")

const defaultDebounce = 500 * time.Millisecond

// WatchEvent reports the scan of one file seen by a Watcher.
type WatchEvent struct {
	Path      string
	Candidate extraction.Candidate
	Found     bool
	ScanID    string
	Timestamp time.Time
}

// WatchConfig configures a Watcher.
type WatchConfig struct {
	// Dir is the directory to watch. Subdirectories are not followed.
	Dir string

	// Pattern filters base names with filepath.Match. Empty matches all.
	Pattern string

	// Debounce is how long a file must be quiet before it is scanned.
	Debounce time.Duration
}

// Watcher scans files as they are created or written in a directory.
// Scans run one at a time on the watcher goroutine.
type Watcher struct {
	svc     *Service
	cfg     WatchConfig
	watcher *fsnotify.Watcher
	events  chan WatchEvent
	stop    chan struct{}
	once    sync.Once
	started atomic.Bool
	done    chan struct{}
	pending map[string]time.Time
}

// NewWatcher creates a Watcher. Call Start to begin watching.
func NewWatcher(svc *Service, cfg WatchConfig) (*Watcher, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*"
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", cfg.Pattern, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", cfg.Dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		svc:     svc,
		cfg:     cfg,
		watcher: fw,
		events:  make(chan WatchEvent, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		pending: make(map[string]time.Time),
	}, nil
}

// Start begins watching in a background goroutine. Events are delivered on
// Events until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrWatcherStarted
	}
	if err := w.watcher.Add(w.cfg.Dir); err != nil {
		w.started.Store(false)
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for an in-flight scan to finish. It is
// safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
}

// Events returns the channel of scan results. It is closed after Stop.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	tick := time.NewTicker(w.cfg.Debounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.matches(ev.Name) {
				w.pending[ev.Name] = time.Now()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.svc.logger.Warn(ctx, "watch error", zap.Error(err))
		case now := <-tick.C:
			if !w.flush(ctx, now) {
				return
			}
		}
	}
}

// flush scans every pending path that has been quiet for the debounce
// period. It returns false if the watcher is stopping.
func (w *Watcher) flush(ctx context.Context, now time.Time) bool {
	for path, seen := range w.pending {
		if now.Sub(seen) < w.cfg.Debounce {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		report := w.svc.ScanFile(ctx, path)
		ev := WatchEvent{
			Path:      path,
			Candidate: report.Candidate(),
			Found:     report.Found(),
			ScanID:    report.ScanID,
			Timestamp: now,
		}
		select {
		case w.events <- ev:
		case <-w.stop:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (w *Watcher) matches(path string) bool {
	ok, _ := filepath.Match(w.cfg.Pattern, filepath.Base(path))
	return ok
}
