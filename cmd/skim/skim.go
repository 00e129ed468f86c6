// Package skimcmder is the root skim command.
package skimcmder

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/skim/cmd/skim/config"
	initcmder "github.com/papercomputeco/skim/cmd/skim/init"
	servecmder "github.com/papercomputeco/skim/cmd/skim/serve"
	summarizecmder "github.com/papercomputeco/skim/cmd/skim/summarize"
	versioncmder "github.com/papercomputeco/skim/cmd/version"
)

const skimLongDesc string = `Skim streams summaries of long text.

Run the summary service and talk to it using:
  skim serve              Run the summary API server
  skim summarize [text]   Stream a summary from a running server
  skim init               Create a local .skim/ directory
  skim config             Manage persistent configuration

A .env file in the working directory is loaded before anything else,
so OPENAI_API_KEY and ALLOWED_ORIGINS can live there.`

const skimShortDesc string = "Skim - streaming text summaries"

func NewSkimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "skim",
		Short:         skimShortDesc,
		Long:          skimLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env is the common case.
			_ = godotenv.Load()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .skim/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(summarizecmder.NewSummarizeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
