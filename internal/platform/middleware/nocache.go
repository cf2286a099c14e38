package middleware

import (
	"github.com/labstack/echo/v4"
)

// NoCache returns middleware that forbids intermediary and browser caching.
// Responses carry patient data and vary with the authenticated principal, so
// shared caches must never serve them across users. Vary lists both credential
// carriers because a request may authenticate with either.
func NoCache() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			h.Add("Vary", "Cookie")
			h.Add("Vary", "Authorization")
			return next(c)
		}
	}
}
