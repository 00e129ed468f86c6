// Package client submits text to a summary service and consumes the
// streamed response with a stream.Session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/skim/pkg/logger"
	"github.com/papercomputeco/skim/pkg/sse"
	"github.com/papercomputeco/skim/pkg/stream"
)

// SummarizePath is the endpoint a summary service streams from.
const SummarizePath = "/api/summarize"

// maxErrorBody bounds how much of a non-2xx response is read for its detail.
const maxErrorBody = 64 * 1024

// Config configures a Client.
type Config struct {
	// Target is the base URL of the summary service, e.g. "http://localhost:8000".
	Target string

	// HTTPClient is used for requests. It must not set a Timeout shorter than
	// the longest expected summary; deadlines belong on the context.
	HTTPClient *http.Client

	// Logger receives request and session diagnostics.
	Logger *slog.Logger

	// Recorder is attached to every session the client starts.
	Recorder stream.Recorder
}

// Client starts summary streams against one service.
type Client struct {
	target     string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   stream.Recorder
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	target := strings.TrimRight(cfg.Target, "/")
	if target == "" {
		return nil, errors.New("summary service target is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		target:     target,
		httpClient: httpClient,
		logger:     log,
		recorder:   cfg.Recorder,
	}, nil
}

type summarizeRequest struct {
	Text string `json:"text"`
}

// Start submits text and begins consuming the response in the background.
// It returns once response headers arrive; from then on h is notified of
// progress and exactly one of OnComplete or OnError. A failure before the
// stream opens is passed to h.OnError and also returned, with a nil session.
func (c *Client) Start(ctx context.Context, text string, h Handler, opts ...stream.Option) (*stream.Session, error) {
	session, body, err := c.begin(ctx, text, h, opts)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("summary stream opened", "session_id", session.ID().String(), "target", c.target)
	go c.consume(ctx, session, body, h)

	return session, nil
}

// Summarize submits text and blocks until the stream ends. h may be nil.
// The session is returned whenever the stream opened, so a failed session
// still exposes its partial text. Like Start, every failure reaches
// h.OnError once.
func (c *Client) Summarize(ctx context.Context, text string, h Handler, opts ...stream.Option) (*stream.Session, error) {
	session, body, err := c.begin(ctx, text, h, opts)
	if err != nil {
		return nil, err
	}
	return session, c.consume(ctx, session, body, h)
}

// begin allocates the session identity and opens the stream, reporting an
// open failure under that identity.
func (c *Client) begin(ctx context.Context, text string, h Handler, opts []stream.Option) (*stream.Session, io.ReadCloser, error) {
	session := stream.NewSession(c.sessionOptions(opts)...)

	body, err := c.open(ctx, text)
	if err != nil {
		if h != nil {
			h.OnError(session.ID(), err)
		}
		return nil, nil, err
	}
	return session, body, nil
}

func (c *Client) consume(ctx context.Context, session *stream.Session, body io.ReadCloser, h Handler) error {
	if h == nil {
		h = HandlerFuncs{}
	}
	id := session.ID()

	err := session.Ingest(ctx, body, stream.ObserverFuncs{
		Progress: func(text string) { h.OnProgress(id, text) },
		Error:    func(err error) { h.OnError(id, err) },
	})
	if err == nil {
		h.OnComplete(id, session.Text())
	}
	return err
}

func (c *Client) sessionOptions(opts []stream.Option) []stream.Option {
	base := []stream.Option{stream.WithLogger(c.logger)}
	if c.recorder != nil {
		base = append(base, stream.WithRecorder(c.recorder))
	}
	return append(base, opts...)
}

func (c *Client) open(ctx context.Context, text string) (io.ReadCloser, error) {
	payload, err := json.Marshal(summarizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encoding summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target+SummarizePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", sse.ContentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting summary: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := newStatusError(resp.StatusCode, data)
		c.logger.Warn("summary request rejected",
			"status", resp.StatusCode,
			"detail", statusErr.Detail,
		)
		return nil, statusErr
	}

	c.logger.Debug("summary response headers received",
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp.Body, nil
}

// Handler receives the events of sessions started by a Client. Each call
// carries the session ID so a caller juggling several sessions can discard
// stale ones.
type Handler interface {
	OnProgress(id uuid.UUID, text string)
	OnError(id uuid.UUID, err error)
	OnComplete(id uuid.UUID, text string)
}

// HandlerFuncs adapts plain functions to a Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Progress func(id uuid.UUID, text string)
	Error    func(id uuid.UUID, err error)
	Complete func(id uuid.UUID, text string)
}

func (f HandlerFuncs) OnProgress(id uuid.UUID, text string) {
	if f.Progress != nil {
		f.Progress(id, text)
	}
}

func (f HandlerFuncs) OnError(id uuid.UUID, err error) {
	if f.Error != nil {
		f.Error(id, err)
	}
}

func (f HandlerFuncs) OnComplete(id uuid.UUID, text string) {
	if f.Complete != nil {
		f.Complete(id, text)
	}
}
