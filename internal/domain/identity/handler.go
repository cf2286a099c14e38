package identity

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
	"github.com/godwitcare/godwitcare/internal/platform/auth"
)

type Handler struct {
	svc        *Service
	sessions   auth.SessionStore
	sessionTTL time.Duration
	jwtSecret  string
	secure     bool
}

func NewHandler(svc *Service, sessions auth.SessionStore, sessionTTL time.Duration, jwtSecret string, secure bool) *Handler {
	return &Handler{
		svc:        svc,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		jwtSecret:  jwtSecret,
		secure:     secure,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/registerDoctor", h.RegisterClinician)
	g.POST("/login", h.Login)
	g.POST("/token", h.Token)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, auth.RequireAuth())
}

type registerReq struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=4"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	u, err := h.svc.Register(c.Request().Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u.DTO())
}

func (h *Handler) RegisterClinician(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	u, err := h.svc.RegisterClinician(c.Request().Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u.DTO())
}

func (h *Handler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u, err := h.svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	sess, err := h.sessions.Create(ctx, u.ID, h.sessionTTL)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	auth.SetSessionCookie(c, sess, h.secure)

	return c.JSON(http.StatusOK, u.DTO())
}

// Token exchanges credentials for a bearer token so programmatic clients can
// call the API without cookie handling.
func (h *Handler) Token(c echo.Context) error {
	if h.jwtSecret == "" {
		return echo.NewHTTPError(http.StatusNotFound, "bearer tokens are not enabled")
	}

	var req loginReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	u, err := h.svc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	p, err := h.svc.PrincipalByID(c.Request().Context(), u.ID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	token, err := auth.IssueToken(h.jwtSecret, p, h.sessionTTL)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(c.Request().Context(), cookie.Value); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	auth.ClearSessionCookie(c, h.secure)
	return c.NoContent(http.StatusOK)
}

func (h *Handler) Me(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	u, err := h.svc.Get(c.Request().Context(), p.UserID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u.DTO())
}
