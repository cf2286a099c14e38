package consultation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/godwitcare/godwitcare/internal/domain/identity"
	"github.com/godwitcare/godwitcare/internal/platform/apperr"
	"github.com/godwitcare/godwitcare/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	users identity.Repository
}

func NewHandler(svc *Service, users identity.Repository) *Handler {
	return &Handler{svc: svc, users: users}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consultations", h.Submit, auth.RequireAuth())
	api.GET("/consultations/mine/latest", h.MyLatest, auth.RequireAuth())
	api.GET("/consultations/:id/mine", h.GetMine, auth.RequireAuth())
	api.PUT("/consultations/:id", h.UpdateMine, auth.RequireAuth())

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleClinician))
	doctor.GET("/consultations", h.List)
	doctor.GET("/consultations/:id", h.Details)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Submit(c echo.Context) error {
	var in SubmitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := auth.PrincipalFromContext(c.Request().Context())
	cons, err := h.svc.Submit(c.Request().Context(), p.UserID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":     cons.ID,
		"status": cons.Status,
	})
}

func (h *Handler) MyLatest(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	cons, err := h.svc.LatestMine(c.Request().Context(), p.UserID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if cons == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        cons.ID,
		"createdAt": cons.CreatedAt,
		"status":    cons.Status,
	})
}

func (h *Handler) GetMine(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	p := auth.PrincipalFromContext(c.Request().Context())
	cons, err := h.svc.GetOwn(c.Request().Context(), p.UserID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":                cons.ID,
		"createdAt":         cons.CreatedAt,
		"currentLocation":   cons.CurrentLocation,
		"contactName":       cons.ContactName,
		"contactPhone":      cons.ContactPhone,
		"contactAddress":    cons.ContactAddress,
		"patientId":         cons.PatientID,
		"dob":               cons.DOBString(),
		"answers":           cons.Answers,
		"detailsByQuestion": cons.DetailsByQuestion,
	})
}

func (h *Handler) UpdateMine(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var in EditInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := auth.PrincipalFromContext(c.Request().Context())
	cons, err := h.svc.EditOwn(c.Request().Context(), p.UserID, id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":      cons.ID,
		"updated": true,
	})
}

func (h *Handler) List(c echo.Context) error {
	rows, err := h.svc.ListForClinician(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if rows == nil {
		rows = []*Summary{}
	}
	return c.JSON(http.StatusOK, rows)
}

// detailPatient is the patient block of the clinician detail view. Email is
// null when the owning account no longer exists.
type detailPatient struct {
	Email     *string `json:"email"`
	FirstName string  `json:"firstName"`
	DOB       string  `json:"dob"`
}

type detailResponse struct {
	ID                int64             `json:"id"`
	PatientID         string            `json:"patientId"`
	CreatedAt         time.Time         `json:"createdAt"`
	Status            string            `json:"status"`
	Patient           detailPatient     `json:"patient"`
	CurrentLocation   string            `json:"currentLocation"`
	ContactName       string            `json:"contactName"`
	ContactPhone      string            `json:"contactPhone"`
	ContactAddress    string            `json:"contactAddress"`
	Answers           map[string]string `json:"answers"`
	DetailsByQuestion map[string]string `json:"detailsByQuestion"`
}

func (h *Handler) Details(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	cons, err := h.svc.Detail(ctx, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	// Opening the record moves it onto the clinician's active worklist.
	advanced, err := h.svc.MarkInProgress(ctx, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if advanced {
		cons.Status = StatusInProgress
	}

	var email *string
	if u, uerr := h.users.GetByID(ctx, cons.UserID); uerr == nil {
		email = &u.Email
	} else if !errors.Is(uerr, apperr.ErrNotFound) {
		return apperr.ToHTTP(uerr)
	}

	return c.JSON(http.StatusOK, detailResponse{
		ID:        cons.ID,
		PatientID: cons.PatientID,
		CreatedAt: cons.CreatedAt,
		Status:    cons.Status,
		Patient: detailPatient{
			Email:     email,
			FirstName: cons.ContactName,
			DOB:       cons.DOBString(),
		},
		CurrentLocation:   cons.CurrentLocation,
		ContactName:       cons.ContactName,
		ContactPhone:      cons.ContactPhone,
		ContactAddress:    cons.ContactAddress,
		Answers:           cons.Answers,
		DetailsByQuestion: cons.DetailsByQuestion,
	})
}
