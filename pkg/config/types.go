package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent skim configuration stored as config.toml
// in the .skim/ directory. The TOML layout uses sections for logical grouping.
//
// API keys are never part of the file; they come from the environment.
type Config struct {
	Version int          `toml:"version"`
	Server  ServerConfig `toml:"server"`
	LLM     LLMConfig    `toml:"llm"`
	Client  ClientConfig `toml:"client"`
}

// ServerConfig holds settings for "skim serve".
type ServerConfig struct {
	Listen         string   `toml:"listen,omitempty"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// LLMConfig holds the model settings used by the summary producer.
type LLMConfig struct {
	Provider       string  `toml:"provider,omitempty"`
	Model          string  `toml:"model,omitempty"`
	BaseURL        string  `toml:"base_url,omitempty"`
	MaxTokens      uint    `toml:"max_tokens,omitempty"`
	Temperature    float64 `toml:"temperature,omitempty"`
	TimeoutSeconds uint    `toml:"timeout_seconds,omitempty"`
	ChunkSize      uint    `toml:"chunk_size,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// summary service (e.g. skim summarize). Target is a full URL.
type ClientConfig struct {
	Target string `toml:"target,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.allowed_origins": {
		get: func(c *Config) string { return strings.Join(c.Server.AllowedOrigins, ",") },
		set: func(c *Config, v string) error { c.Server.AllowedOrigins = SplitList(v); return nil },
	},
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.base_url": {
		get: func(c *Config) string { return c.LLM.BaseURL },
		set: func(c *Config, v string) error { c.LLM.BaseURL = v; return nil },
	},
	"llm.max_tokens":      uintKey("llm.max_tokens", func(c *Config) *uint { return &c.LLM.MaxTokens }),
	"llm.timeout_seconds": uintKey("llm.timeout_seconds", func(c *Config) *uint { return &c.LLM.TimeoutSeconds }),
	"llm.chunk_size":      uintKey("llm.chunk_size", func(c *Config) *uint { return &c.LLM.ChunkSize }),
	"llm.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.LLM.Temperature, 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for llm.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for llm.temperature: %v is outside [0, 2]", f)
			}
			c.LLM.Temperature = f
			return nil
		},
	},
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
}

// SplitList splits a comma separated value, trimming blanks.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
