package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/skim/pkg/dotdir"
)

// Environment variables read outside the SKIM_ prefix, for compatibility
// with the usual names of the underlying services.
const (
	// EnvOpenAIAPIKey holds the model API key. It is never written to config.toml.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// EnvAllowedOrigins is a comma separated list appended to server.allowed_origins.
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SKIM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SKIM_SERVER_LISTEN, SKIM_LLM_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SKIM_SERVER_LISTEN, SKIM_LLM_BASE_URL, etc.
	v.SetEnvPrefix("SKIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	// LLM
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("llm.chunk_size", d.LLM.ChunkSize)

	// Client
	v.SetDefault("client.target", d.Client.Target)
}

// AllowedOrigins returns server.allowed_origins extended with the origins in
// ALLOWED_ORIGINS.
func AllowedOrigins(v *viper.Viper) []string {
	var origins []string
	for _, o := range v.GetStringSlice("server.allowed_origins") {
		origins = append(origins, SplitList(o)...)
	}
	return append(origins, SplitList(os.Getenv(EnvAllowedOrigins))...)
}

// APIKey returns the model API key from the environment.
func APIKey() string {
	return strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey))
}
