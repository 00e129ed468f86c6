// Package servecmder provides the serve command, which runs the summary API.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/papercomputeco/skim/api"
	"github.com/papercomputeco/skim/pkg/config"
	"github.com/papercomputeco/skim/pkg/logger"
	"github.com/papercomputeco/skim/pkg/metrics"
	"github.com/papercomputeco/skim/pkg/summarizer"
)

type serveCommander struct {
	flags config.FlagSet

	listen    string
	provider  string
	model     string
	baseURL   string
	maxTokens uint
	chunkSize uint
	logFile   string
	logFormat string
	debug     bool

	viper  *viper.Viper
	logger *slog.Logger
}

var serveFlags = config.FlagSet{
	config.FlagListen:    {Name: "listen", Shorthand: "l", ViperKey: "server.listen", Description: "Address for the API server to listen on"},
	config.FlagProvider:  {Name: "provider", Shorthand: "p", ViperKey: "llm.provider", Description: "LLM provider (openai, ollama, openrouter, deepseek)"},
	config.FlagModel:     {Name: "model", Shorthand: "m", ViperKey: "llm.model", Description: "Model used to summarize"},
	config.FlagBaseURL:   {Name: "base-url", ViperKey: "llm.base_url", Description: "OpenAI-compatible API base URL (default: provider endpoint)"},
	config.FlagMaxTokens: {Name: "max-tokens", ViperKey: "llm.max_tokens", Description: "Maximum tokens per summary"},
	config.FlagChunkSize: {Name: "chunk-size", ViperKey: "llm.chunk_size", Description: "Characters carried by each streamed frame"},
}

const serveLongDesc string = `Run the skim summary API server.

The server accepts POST /api/summarize with {"text": "..."} and streams the
summary back as server-sent events. GET /health reports whether the model
is configured and GET /metrics exposes Prometheus metrics.

The API key is read from OPENAI_API_KEY (a .env file works too). The ollama
provider needs no key. Extra CORS origins can be listed, comma separated,
in ALLOWED_ORIGINS.

Examples:
  skim serve
  skim serve --listen :9000 --model gpt-4o
  skim serve --provider ollama --model llama3.2
  skim serve --log-file ./skim.log
  skim serve --log-format json`

const serveShortDesc string = "Run the summary API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{flags: serveFlags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, []string{
				config.FlagListen,
				config.FlagProvider,
				config.FlagModel,
				config.FlagBaseURL,
				config.FlagMaxTokens,
				config.FlagChunkSize,
			})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, cmder.flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddUintFlag(cmd, cmder.flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddUintFlag(cmd, cmder.flags, config.FlagChunkSize, &cmder.chunkSize)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().StringVar(&cmder.logFormat, "log-format", logger.FormatAuto, "Console log format: auto, pretty, json or text")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	v := c.viper
	provider := v.GetString("llm.provider")
	apiKey := config.APIKey()
	if apiKey == "" && summarizer.RequiresAPIKey(provider) {
		return fmt.Errorf("%s is not set: provider %q requires an API key", config.EnvOpenAIAPIKey, provider)
	}

	metricsConfig := metrics.DefaultConfig()
	metricsConfig.ProcessCollectors = true
	exporter := metrics.New(metricsConfig)

	model, err := summarizer.NewOpenAIModel(summarizer.OpenAIConfig{
		Provider:    provider,
		APIKey:      apiKey,
		BaseURL:     v.GetString("llm.base_url"),
		Model:       v.GetString("llm.model"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		Temperature: float32(v.GetFloat64("llm.temperature")),
		Timeout:     time.Duration(v.GetUint("llm.timeout_seconds")) * time.Second,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating model: %w", err)
	}

	sum, err := summarizer.New(summarizer.Config{
		Model:     model,
		ChunkSize: v.GetInt("llm.chunk_size"),
		Logger:    c.logger,
		Recorder:  exporter,
	})
	if err != nil {
		return fmt.Errorf("creating summarizer: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:     v.GetString("server.listen"),
		AllowedOrigins: config.AllowedOrigins(v),
		LLMConfigured:  apiKey != "" || !summarizer.RequiresAPIKey(provider),
	}, sum, exporter, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("summary model configured",
		"provider", provider,
		"model", v.GetString("llm.model"),
		"chunk_size", v.GetInt("llm.chunk_size"),
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			c.logger.Info("received signal, shutting down")
		}
		return server.Shutdown()
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// setupLogger writes console logs in --log-format, where auto means pretty
// on a terminal and JSON otherwise. --log-file adds a JSON copy.
func (c *serveCommander) setupLogger() (func(), error) {
	format, explicit, err := logger.ParseFormat(c.logFormat)
	if err != nil {
		return nil, err
	}
	if !explicit {
		format = logger.FormatJSON
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = logger.FormatPretty
		}
	}

	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(format),
		logger.WithComponent("serve"),
	)

	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.logFile), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Tee(console, logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatJSON),
		logger.WithComponent("serve"),
		logger.WithOutput(f),
	))
	return func() { _ = f.Close() }, nil
}
