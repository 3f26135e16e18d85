package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the drop directory and submits new audio files to the
// pipeline. Dropping a file into the directory is the non-HTTP way to add
// songs to the catalog.
type Watcher struct {
	pipeline *Pipeline
	watcher  *fsnotify.Watcher
}

// NewWatcher starts watching the pipeline's drop directory, creating it if
// needed.
func NewWatcher(p *Pipeline) (*Watcher, error) {
	if err := os.MkdirAll(p.cfg.DropDir, 0755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{pipeline: p, watcher: fsw}
	go w.watch()

	if err := fsw.Add(p.cfg.DropDir); err != nil {
		fsw.Close()
		return nil, err
	}

	p.logger.WithField("drop_dir", p.cfg.DropDir).Info("Drop directory watcher started")
	return w, nil
}

// watch selects on watcher channels and dispatches events.
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.pipeline.logger.WithError(err).Error("Drop directory watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}
	if !event.Has(fsnotify.Create) {
		return
	}
	if !w.pipeline.extractor.IsAudioFile(event.Name) {
		return
	}

	go func(name string) {
		time.Sleep(500 * time.Millisecond) // Ensure file is fully written
		if _, err := w.pipeline.Submit(name, Overrides{}, true); err != nil {
			w.pipeline.logger.WithError(err).WithField("file_path", name).Error("Failed to ingest dropped file")
		}
	}(event.Name)
}

// Close stops the watcher (idempotent).
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}
