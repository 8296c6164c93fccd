// Package watch monitors a gesture debug log for growth and re-triggers
// analysis once enough new gesture lines have accumulated. Each trigger is a
// whole-file batch analysis, not incremental streaming.
package watch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
	"github.com/zengchanghuan/gesture-analyzer-go/pkg/logger"
)

// Watcher keeps a byte-offset bookmark into the log file and counts new
// candidate lines as the file grows. When the count reaches the threshold it
// invokes the batch callback. Callbacks run serialized on the watch loop
// goroutine, so a slow analysis delays the next trigger instead of piling up
// concurrent runs.
type Watcher struct {
	path      string
	threshold int
	onBatch   func(context.Context) error
	log       *logger.Logger

	offset  int64
	pending int
}

// New creates a watcher for the given log file. threshold is the number of
// new candidate lines that triggers onBatch.
func New(path string, threshold int, log *logger.Logger, onBatch func(context.Context) error) (*Watcher, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("watch threshold must be positive, got %d", threshold)
	}
	if onBatch == nil {
		return nil, fmt.Errorf("watch callback is required")
	}
	return &Watcher{
		path:      path,
		threshold: threshold,
		onBatch:   onBatch,
		log:       log,
	}, nil
}

// Run watches the log file until the context is cancelled. The bookmark
// starts at the current end of file: content that existed before Run is the
// caller's initial analysis, not new growth.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// Watch the directory rather than the file so that remove/recreate
	// cycles (log rotation) keep being observed.
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if info, err := os.Stat(w.path); err == nil {
		w.offset = info.Size()
		w.log.WithFields(map[string]interface{}{
			"file": w.path,
			"size": humanize.Bytes(uint64(info.Size())),
		}).Info().Msg("Watching log file")
	} else {
		w.log.WithField("file", w.path).Info().Msg("Watching for log file to appear")
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Watch mode stopped")
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				if event.Op&fsnotify.Create != 0 {
					// Recreated file starts over.
					w.offset, w.pending = 0, 0
				}
				if err := w.absorb(ctx); err != nil {
					w.log.WithError(err).Error().Msg("Failed to process log growth")
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.log.WithField("file", w.path).Warn().Msg("Log file removed, resetting bookmark")
				w.offset, w.pending = 0, 0
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Error().Msg("File watcher error")
		}
	}
}

// absorb counts new candidate lines and fires the callback when the
// accumulated count reaches the threshold.
func (w *Watcher) absorb(ctx context.Context) error {
	n, err := w.scanNewLines()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	w.pending += n
	w.log.WithFields(map[string]interface{}{
		"new_lines": n,
		"pending":   w.pending,
		"threshold": w.threshold,
	}).Debug().Msg("Log file grew")

	if w.pending < w.threshold {
		return nil
	}
	w.pending = 0

	w.log.Info().Msg("Threshold reached, re-running analysis")
	if err := w.onBatch(ctx); err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}
	return nil
}

// scanNewLines reads complete lines past the bookmark and counts the
// candidates among them. A trailing line without a newline stays unread
// until the writer finishes it. A file shorter than the bookmark was
// truncated; scanning restarts from the beginning.
func (w *Watcher) scanNewLines() (int, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < w.offset {
		w.log.WithField("file", w.path).Warn().Msg("Log file truncated, resetting bookmark")
		w.offset, w.pending = 0, 0
	}

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to bookmark: %w", err)
	}

	r := bufio.NewReader(f)
	count := 0
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("failed to read log file: %w", err)
		}
		w.offset += int64(len(line))
		if strings.Contains(line, gesture.Marker) {
			count++
		}
	}
}
