// Package api provides the HTTP server that streams summaries to clients.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// AllowedOrigins are the exact origins allowed by CORS. Preview
	// deployments under https://*.vercel.app are always allowed.
	AllowedOrigins []string

	// LLMConfigured reports whether the model has credentials, for /health.
	LLMConfigured bool
}
