package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/park285/webchess/internal/view"
	"go.uber.org/zap"
)

// Writer keeps a PNG file in sync with the latest view frame.
// Bursts of updates are coalesced: only the newest frame is rendered.
type Writer struct {
	path     string
	renderer *Renderer
	logger   *zap.Logger
	latest   chan view.Frame
}

func NewWriter(path string, r *Renderer, logger *zap.Logger) *Writer {
	if r == nil {
		r = NewRenderer(64)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{path: path, renderer: r, logger: logger, latest: make(chan view.Frame, 1)}
}

// Notify queues f, replacing any frame not yet rendered. Never blocks.
func (w *Writer) Notify(f view.Frame) {
	for {
		select {
		case w.latest <- f:
			return
		default:
		}
		select {
		case <-w.latest:
		default:
		}
	}
}

// Run renders queued frames until ctx is done.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-w.latest:
			if err := w.Write(ctx, f); err != nil {
				w.logger.Warn("snapshot_write_failed", zap.String("path", w.path), zap.Error(err))
			}
		}
	}
}

// Write renders f and replaces the file atomically.
func (w *Writer) Write(ctx context.Context, f view.Frame) error {
	data, err := w.renderer.RenderPNG(ctx, f)
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.png")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	w.logger.Debug("snapshot_written", zap.String("path", w.path), zap.Uint64("version", f.Version))
	return nil
}
