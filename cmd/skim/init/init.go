// Package initcmder provides the init command for initializing a local .skim
// directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/skim/pkg/cliui"
	"github.com/papercomputeco/skim/pkg/config"
)

const (
	dirName = ".skim"

	// maxRemoteConfig bounds a config.toml fetched with --preset <url>.
	maxRemoteConfig = 1 << 20

	remoteConfigTimeout = 30 * time.Second
)

const initLongDesc string = `Initialize a new .skim/ directory in the current working directory.

Creates a local .skim/ directory that takes precedence over the default
~/.skim/ directory for configuration.

With --preset, also writes config.toml, replacing any existing one. The
preset is either a provider name or an http(s) URL to a config.toml.

Available presets: openai, ollama, openrouter

Examples:
  skim init
  skim init --preset ollama
  skim init --preset https://example.com/team/skim.toml`

const initShortDesc string = "Initialize a local .skim/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Provider preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(ctx context.Context, out io.Writer, preset string) error {
	// Resolve the preset first so a bad one leaves nothing behind.
	var cfg *config.Config
	if preset != "" {
		var err error
		cfg, err = resolvePreset(ctx, out, preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .skim directory: %w", err)
		}
		fmt.Fprintf(out, "Initialized .skim directory: %s\n", dir)
	}

	if cfg == nil {
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Wrote %s to %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(preset),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}

func resolvePreset(ctx context.Context, out io.Writer, preset string) (*config.Config, error) {
	if !strings.HasPrefix(preset, "http://") && !strings.HasPrefix(preset, "https://") {
		return config.PresetConfig(preset)
	}

	var cfg *config.Config
	err := cliui.Step(out, "Fetching "+preset, func() error {
		var err error
		cfg, err = fetchRemoteConfig(ctx, preset)
		return err
	})
	return cfg, err
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteConfigTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteConfig))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
