// Package watch converts DBF files as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/convert"
)

const DefaultSettle = 2 * time.Second

type Options struct {
	Dir            string
	DestinationDir string
	Convert        convert.Options
	// Settle is how long a file must go without events before it is
	// converted. Writers usually produce a burst of events per file.
	Settle time.Duration
	// Existing also converts DBF files already present when Run starts.
	Existing bool
	Logger   logrus.FieldLogger
	OnEvent  func(batch.Event)
}

type Watcher struct {
	opts    Options
	fsw     *fsnotify.Watcher
	pending map[string]time.Time
	summary batch.Summary
}

// New validates both directories and starts watching Dir. Events that
// arrive before Run is called are kept.
func New(opts Options) (*Watcher, error) {
	if err := convert.CheckDestination(opts.Dir); err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if err := convert.CheckDestination(opts.DestinationDir); err != nil {
		return nil, err
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(opts.Dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", opts.Dir, err)
	}
	return &Watcher{opts: opts, fsw: fsw, pending: map[string]time.Time{}}, nil
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run converts settled files until ctx is cancelled. Conversions run one at
// a time on the calling goroutine's schedule; a job in flight when ctx is
// cancelled is finished first. It returns the totals across all batches.
func (w *Watcher) Run(ctx context.Context) (batch.Summary, error) {
	defer w.Close()

	if w.opts.Existing {
		if err := w.seedExisting(); err != nil {
			return w.summary, err
		}
	}

	tick := time.NewTicker(w.pollInterval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.summary, nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return w.summary, nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return w.summary, nil
			}
			w.opts.Logger.WithError(err).Warn("watcher error")
		case now := <-tick.C:
			if ready := w.settled(now); len(ready) > 0 {
				w.convert(ctx, ready)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !batch.IsDBF(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.pending[ev.Name] = time.Now()
		w.opts.Logger.WithField("source", ev.Name).Debug("dbf file changed")
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
	}
}

func (w *Watcher) seedExisting() error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.opts.Dir, err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() && batch.IsDBF(e.Name()) {
			w.pending[filepath.Join(w.opts.Dir, e.Name())] = time.Time{}
		}
	}
	return nil
}

// settled removes and returns the files that have been quiet for Settle,
// oldest activity first.
func (w *Watcher) settled(now time.Time) []string {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Settle {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := w.pending[ready[i]], w.pending[ready[j]]
		if a.Equal(b) {
			return ready[i] < ready[j]
		}
		return a.Before(b)
	})
	for _, p := range ready {
		delete(w.pending, p)
	}
	return ready
}

func (w *Watcher) convert(ctx context.Context, paths []string) {
	existing := paths[:0]
	for _, p := range paths {
		if err := convert.CheckSource(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return
	}

	q, err := batch.NewQueue(existing, w.opts.DestinationDir)
	if err != nil {
		if errors.Is(err, convert.ErrInvalidInput) {
			w.opts.Logger.WithError(err).Warn("skipping batch")
			return
		}
		w.opts.Logger.WithError(err).Error("could not queue batch")
		return
	}
	s := batch.RunAll(ctx, q, w.opts.Convert, w.opts.Logger, w.opts.OnEvent)
	w.summary.Total += s.Total
	w.summary.Completed += s.Completed
	w.summary.Failed += s.Failed
	w.summary.Pending += s.Pending
	w.summary.Records += s.Records
}

func (w *Watcher) pollInterval() time.Duration {
	d := w.opts.Settle / 4
	if d < 20*time.Millisecond {
		d = 20 * time.Millisecond
	}
	return d
}
