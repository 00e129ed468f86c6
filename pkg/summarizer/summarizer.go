// Package summarizer produces summary streams: it validates submitted text,
// asks a Model for a Markdown summary, and emits the result over SSE using
// the sentinel protocol of pkg/stream.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/skim/pkg/logger"
	"github.com/papercomputeco/skim/pkg/sse"
	"github.com/papercomputeco/skim/pkg/stream"
)

// DefaultChunkSize is the number of characters carried by each content frame.
const DefaultChunkSize = 10

// Recorder is notified of every produced stream.
type Recorder interface {
	SummaryStreamed(outcome string, chunks int, elapsed time.Duration)
}

// Config configures a Summarizer.
type Config struct {
	Model     Model
	ChunkSize int
	Logger    *slog.Logger
	Recorder  Recorder
}

// Summarizer turns text into a summary stream.
type Summarizer struct {
	model     Model
	chunkSize int
	logger    *slog.Logger
	recorder  Recorder
}

// New creates a Summarizer.
func New(cfg Config) (*Summarizer, error) {
	if cfg.Model == nil {
		return nil, errors.New("summarizer model is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Summarizer{
		model:     cfg.Model,
		chunkSize: cfg.ChunkSize,
		logger:    cfg.Logger,
		recorder:  cfg.Recorder,
	}, nil
}

// Stream summarizes text and writes the summary to w as escaped content
// frames followed by the done sentinel. The whole completion is buffered and
// formatted before the first frame is written. A model failure is written as
// an error sentinel and also returned. Errors writing to w are returned as is.
func (s *Summarizer) Stream(ctx context.Context, text string, w *sse.Writer) error {
	start := time.Now()

	summary, err := s.generate(ctx, text)
	if err != nil {
		s.record("error", 0, start)
		s.logger.Error("summary generation failed", "error", err)

		// The sentinel message must stay on one data line.
		msg := "Error generating summary: " + strings.Join(strings.Fields(err.Error()), " ")
		if writeErr := w.WriteData(stream.ErrorPayload(msg)); writeErr != nil {
			return errors.Join(err, writeErr)
		}
		return err
	}

	chunks := 0
	for chunk := range Chunks(summary, s.chunkSize) {
		if err := w.WriteData(stream.Escape(chunk)); err != nil {
			s.record("disconnected", chunks, start)
			return fmt.Errorf("writing summary chunk: %w", err)
		}
		chunks++
	}

	if err := w.WriteData(stream.DoneSentinel); err != nil {
		s.record("disconnected", chunks, start)
		return fmt.Errorf("writing done sentinel: %w", err)
	}

	s.record("done", chunks, start)
	s.logger.Info("summary streamed",
		"chunks", chunks,
		"chars", len(summary),
		"duration", time.Since(start),
	)
	return nil
}

func (s *Summarizer) generate(ctx context.Context, text string) (string, error) {
	contentCh, errCh := s.model.Stream(ctx, SystemPrompt(), UserPrompt(text))

	var b strings.Builder
	for delta := range contentCh {
		b.WriteString(delta)
	}
	if err := <-errCh; err != nil {
		return "", err
	}

	raw := b.String()
	formatted := FormatMarkdown(raw)
	s.logger.Debug("formatted summary",
		"headers_before", strings.Count(raw, "## "),
		"headers_after", strings.Count(formatted, "## "),
		"bullets_before", strings.Count(raw, "- **"),
		"bullets_after", strings.Count(formatted, "- **"),
	)
	return formatted, nil
}

func (s *Summarizer) record(outcome string, chunks int, start time.Time) {
	if s.recorder != nil {
		s.recorder.SummaryStreamed(outcome, chunks, time.Since(start))
	}
}

// Chunks splits text into pieces of at most size characters. Multi-byte
// characters are never split.
func Chunks(text string, size int) iter.Seq[string] {
	return func(yield func(string) bool) {
		n, start := 0, 0
		for i := range text {
			if n == size {
				if !yield(text[start:i]) {
					return
				}
				n, start = 0, i
			}
			n++
		}
		if start < len(text) {
			yield(text[start:])
		}
	}
}
