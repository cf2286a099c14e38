package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PrincipalSource loads the identity a credential points at. The identity
// domain implements it; the indirection keeps this package free of a
// dependency on domain code.
type PrincipalSource interface {
	PrincipalByID(ctx context.Context, userID int64) (*Principal, error)
}

// Authenticator resolves request credentials into a Principal. Two carriers
// are accepted: the session cookie set at login, and an HS256 bearer token
// for programmatic clients. The cookie wins when both are present.
type Authenticator struct {
	Sessions  SessionStore
	Source    PrincipalSource
	JWTSecret string
	Logger    zerolog.Logger
}

// Middleware attaches the resolved principal to the request context. Requests
// without credentials, or with credentials that no longer resolve, proceed
// anonymously; route-level guards decide whether that is acceptable.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if p := a.resolve(c); p != nil {
				c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			}
			return next(c)
		}
	}
}

func (a *Authenticator) resolve(c echo.Context) *Principal {
	ctx := c.Request().Context()

	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		sess, err := a.Sessions.Get(ctx, cookie.Value)
		if err == nil {
			p, err := a.Source.PrincipalByID(ctx, sess.UserID)
			if err == nil {
				return p
			}
		} else if !errors.Is(err, ErrSessionNotFound) {
			a.Logger.Warn().Err(err).Msg("session lookup failed")
		}
	}

	if a.JWTSecret == "" {
		return nil
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}

	uid, err := ParseToken(a.JWTSecret, parts[1])
	if err != nil {
		return nil
	}
	p, err := a.Source.PrincipalByID(ctx, uid)
	if err != nil {
		return nil
	}
	return p
}
