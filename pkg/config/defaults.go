package config

const (
	defaultServerListen = ":8000"

	defaultLLMProvider       = "openai"
	defaultLLMModel          = "gpt-4o-mini"
	defaultLLMMaxTokens      = 500
	defaultLLMTemperature    = 0.3
	defaultLLMTimeoutSeconds = 120
	defaultLLMChunkSize      = 10

	defaultClientTarget = "http://localhost:8000"
)

// defaultAllowedOrigins are the local frontend origins.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:         defaultServerListen,
			AllowedOrigins: append([]string(nil), defaultAllowedOrigins...),
		},
		LLM: LLMConfig{
			Provider:       defaultLLMProvider,
			Model:          defaultLLMModel,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			ChunkSize:      defaultLLMChunkSize,
		},
		Client: ClientConfig{
			Target: defaultClientTarget,
		},
	}
}
