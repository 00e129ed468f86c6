package summarizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/skim/pkg/logger"
)

// Model streams a completion for a system and user prompt. The content
// channel yields deltas and is closed when generation ends; the error
// channel then carries at most one error.
type Model interface {
	Stream(ctx context.Context, system, user string) (<-chan string, <-chan error)
}

// Defaults for OpenAIConfig.
const (
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.3
	DefaultTimeout     = 2 * time.Minute
)

// providerBaseURLs are the OpenAI-compatible endpoints used when no base URL
// is configured. The "openai" provider keeps the SDK default.
var providerBaseURLs = map[string]string{
	"ollama":     "http://localhost:11434/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"deepseek":   "https://api.deepseek.com",
}

// RequiresAPIKey reports whether provider needs an API key to serve requests.
func RequiresAPIKey(provider string) bool {
	return provider != "ollama"
}

// OpenAIConfig configures an OpenAIModel.
type OpenAIConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// OpenAIModel is a Model backed by any OpenAI-compatible chat completion API.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

var _ Model = (*OpenAIModel)(nil)

// NewOpenAIModel creates an OpenAIModel, filling unset fields with defaults.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.APIKey == "" && RequiresAPIKey(cfg.Provider) {
		return nil, fmt.Errorf("provider %q requires an API key", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientConfig.BaseURL = cfg.BaseURL
	case providerBaseURLs[cfg.Provider] != "":
		clientConfig.BaseURL = providerBaseURLs[cfg.Provider]
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}, nil
}

// Stream implements Model.
func (m *OpenAIModel) Stream(ctx context.Context, system, user string) (<-chan string, <-chan error) {
	contentCh := make(chan string, 10)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(contentCh)

		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		req := openai.ChatCompletionRequest{
			Model:       m.model,
			MaxTokens:   m.maxTokens,
			Temperature: m.temperature,
			Stream:      true,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		}

		start := time.Now()
		stream, err := m.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			errCh <- fmt.Errorf("creating completion stream: %w", err)
			return
		}
		defer stream.Close()

		deltas := 0
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				m.logger.Debug("completion stream finished",
					"model", m.model,
					"deltas", deltas,
					"duration", time.Since(start),
				)
				return
			}
			if err != nil {
				errCh <- fmt.Errorf("receiving completion: %w", err)
				return
			}

			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}

			deltas++
			select {
			case contentCh <- resp.Choices[0].Delta.Content:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return contentCh, errCh
}
