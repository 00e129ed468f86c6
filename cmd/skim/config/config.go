// Package configcmder provides the config command for managing persistent
// skim configuration stored in the .skim/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent skim configuration.

Configuration is stored as config.toml in the .skim/ directory and provides
default values for command flags. CLI flags and SKIM_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen, server.allowed_origins,
  llm.provider, llm.model, llm.base_url, llm.max_tokens,
  llm.temperature, llm.timeout_seconds, llm.chunk_size,
  client.target

The model API key is never stored here; set OPENAI_API_KEY instead.

Use subcommands to get, set, or list configuration values:
  skim config set <key> <value>    Set a configuration value
  skim config get <key>            Get a configuration value
  skim config list                 List all configuration values

Examples:
  skim config set llm.model gpt-4o
  skim config set server.allowed_origins https://app.example.com
  skim config get client.target
  skim config list`

const configShortDesc string = "Manage persistent skim configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
