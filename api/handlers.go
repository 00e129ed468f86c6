package api

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/skim/pkg/sse"
	"github.com/papercomputeco/skim/pkg/summarizer"
	"github.com/papercomputeco/skim/pkg/utils"
)

// SummarizeRequest is the body of POST /api/summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is returned for requests rejected before streaming begins.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusResponse is returned by GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	LLMConfigured bool   `json:"llm_configured"`
	Service       string `json:"service"`
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: utils.Version,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:        "healthy",
		LLMConfigured: s.config.LLMConfigured,
		Service:       ServiceName,
	})
}

// handleSummarize validates the submitted text and streams its summary as
// SSE. Validation failures are answered with 422 before any stream opens;
// generation failures arrive in-band as an error sentinel.
func (s *Server) handleSummarize(c *fiber.Ctx) error {
	var req SummarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Detail: "invalid request body"})
	}

	text, err := summarizer.ValidateText(req.Text)
	if err != nil {
		var validationErr *summarizer.ValidationError
		if !errors.As(err, &validationErr) {
			return err
		}
		if s.metrics != nil {
			s.metrics.ValidationRejected()
		}
		s.logger.Debug("summarize request rejected", "reason", validationErr.Message)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Detail: validationErr.Message})
	}

	c.Set(fiber.HeaderContentType, sse.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// Each frame written to pw blocks until fasthttp has taken it, and
	// fasthttp flushes every chunk of a body stream to the socket.
	pr, pw := io.Pipe()
	go s.streamSummary(text, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamSummary(text string, pw *io.PipeWriter) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Always a clean close. Failures travel in-band as an error sentinel.
	defer pw.Close()

	w := sse.NewWriter(pw)
	defer w.Close()

	if err := s.summarizer.Stream(ctx, text, w); err != nil {
		s.logger.Warn("summary stream ended with error",
			"error", err,
			"input_chars", len(text),
		)
	}
}
