package api

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2/middleware/cors"
)

// DefaultAllowedOrigins are the local development origins.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

func corsConfig(origins []string) cors.Config {
	origins = normalizeOrigins(origins)
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowOriginsFunc: isPreviewOrigin,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowCredentials: true,
	}
}

// isPreviewOrigin allows any https preview deployment on vercel.app.
func isPreviewOrigin(origin string) bool {
	return strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, ".vercel.app")
}

// normalizeOrigins trims entries and drops anything that is not a bare
// scheme://host[:port] origin, which the cors middleware would reject.
func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	seen := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" {
			continue
		}
		seen[o] = true
		out = append(out, strings.ToLower(o))
	}
	return out
}
