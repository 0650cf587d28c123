// Package watcher implements drop-folder mode: workbooks appearing in a
// watched directory are converted headlessly as they arrive.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cycleplot/internal/batch"
	"cycleplot/internal/template"
	"cycleplot/pkg/log"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a file must stay quiet before it is processed,
// so partially written workbooks are not picked up mid-copy.
const DefaultSettle = 500 * time.Millisecond

// Watcher monitors one directory for new .xlsx workbooks.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	dir     string
	runner  *batch.Runner
	tpl     *template.Template
	settle  time.Duration
	pending map[string]*time.Timer
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(dir string, runner *batch.Runner, tpl *template.Template) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:     fsw,
		dir:     dir,
		runner:  runner,
		tpl:     tpl,
		settle:  DefaultSettle,
		pending: make(map[string]*time.Timer),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; events are handled in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}

	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to exit. In-flight file
// processing finishes first.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()

	close(w.stopCh)
	w.fsw.Close()
	<-w.doneCh
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isWorkbook(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watch error", zap.Error(err))
		}
	}
}

// schedule (re)arms the settle timer for a path, so rapid write events
// collapse into one conversion.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
}

func (w *Watcher) process(ctx context.Context, path string) {
	report, err := w.runner.ProcessFile(ctx, path, w.tpl, nil)
	if err != nil {
		// A bad drop must not stop the watch.
		log.Error("failed to convert workbook", zap.String("path", path), zap.Error(err))
		return
	}
	log.Info("converted workbook",
		zap.String("input", report.Input),
		zap.String("project", report.Project),
		zap.Int("cycles", report.CycleCount))
}

func isWorkbook(path string) bool {
	base := filepath.Base(path)
	// Excel lock files start with ~$.
	if strings.HasPrefix(base, "~$") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".xlsx")
}
