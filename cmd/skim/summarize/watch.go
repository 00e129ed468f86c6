package summarizecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/papercomputeco/skim/pkg/cliui"
	"github.com/papercomputeco/skim/pkg/client"
	"github.com/papercomputeco/skim/pkg/stream"
)

// watchDebounce coalesces the burst of events a single save produces.
const watchDebounce = 250 * time.Millisecond

func (c *summarizeCommander) runWatch(ctx context.Context, cl *client.Client) error {
	path, err := filepath.Abs(c.file)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", c.file, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file on save, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	tracker := &client.Tracker{}
	defer tracker.Stop()

	live := cliui.NewLivePrinter(c.liveWriter())
	clock := &startClock{}
	handler := c.watchHandler(live, clock)

	summarize := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(c.errOut, "  %s reading %s: %v\n", cliui.FailMark, c.file, err)
			return
		}

		_ = live.Finish()
		fmt.Fprintf(c.errOut, "\n  %s %s\n", cliui.KeyStyle.Render("Summarizing"), cliui.NameStyle.Render(c.file))
		clock.reset()

		// Open failures reach the handler too.
		if _, err := tracker.Start(ctx, cl, string(data), handler); err != nil {
			c.logger.Debug("watch session did not open", "file", c.file, "error", err)
		}
	}

	summarize()
	fmt.Fprintf(c.errOut, "  %s\n", cliui.DimStyle.Render("Watching for changes. Ctrl+C to stop."))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			_ = live.Finish()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(watchDebounce)
		case <-pending:
			pending = nil
			summarize()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}

// startClock times the current watch session.
type startClock struct {
	mu    sync.Mutex
	start time.Time
}

func (s *startClock) reset() {
	s.mu.Lock()
	s.start = time.Now()
	s.mu.Unlock()
}

func (s *startClock) elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.start)
}

// watchHandler prints events of the current session. The tracker drops
// events from superseded sessions before they get here.
func (c *summarizeCommander) watchHandler(live *cliui.LivePrinter, clock *startClock) client.Handler {
	return client.HandlerFuncs{
		Progress: func(_ uuid.UUID, text string) {
			_ = live.Update(text)
		},
		Error: func(_ uuid.UUID, err error) {
			_ = live.Finish()
			if errors.Is(err, stream.ErrCanceled) || errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintf(c.errOut, "  %s %s\n", cliui.FailMark, failureDetail(err))
		},
		Complete: func(_ uuid.UUID, text string) {
			_ = live.Finish()
			if c.render() {
				rendered, _ := cliui.RenderMarkdown(text)
				fmt.Fprint(c.out, rendered)
			}
			fmt.Fprintf(c.errOut, "  %s %s\n",
				cliui.SuccessMark,
				cliui.StepStyle.Render(fmt.Sprintf("summary complete (%s)", cliui.FormatDuration(clock.elapsed()))),
			)
		},
	}
}
