package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type headerSet [][2]string

var (
	baseHeaders = headerSet{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
		{"Referrer-Policy", "no-referrer"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	}

	// API responses carry balances and must never be cached.
	apiHeaders = headerSet{
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Cache-Control", "no-store"},
		{"Pragma", "no-cache"},
	}

	// Stored avatars are static images that browsers may cache and embed.
	assetHeaders = headerSet{
		{"Content-Security-Policy", "default-src 'none'; img-src 'self'; sandbox"},
		{"Cache-Control", "public, max-age=86400"},
		{"Cross-Origin-Resource-Policy", "cross-origin"},
	}
)

func (hs headerSet) apply(c echo.Context) {
	h := c.Response().Header()
	for _, kv := range hs {
		h.Set(kv[0], kv[1])
	}
}

// SecurityHeaders sets response hardening headers. Requests under publicPath
// get the static asset policy, everything else the API policy.
func SecurityHeaders(publicPath string) echo.MiddlewareFunc {
	prefix := ""
	if trimmed := strings.TrimRight(publicPath, "/"); trimmed != "" {
		prefix = trimmed + "/"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			baseHeaders.apply(c)
			if prefix != "" && strings.HasPrefix(c.Request().URL.Path, prefix) {
				assetHeaders.apply(c)
			} else {
				apiHeaders.apply(c)
			}
			return next(c)
		}
	}
}
