package artifact

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
	"github.com/godwitcare/godwitcare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleClinician))
	doctor.POST("/consultations/:id/prescriptions", h.IssuePrescription)
	doctor.POST("/consultations/:id/referrals", h.IssueReferral)
	doctor.GET("/consultations/:id/prescriptions/latest", h.DoctorLatestPrescription)
	doctor.GET("/consultations/:id/referrals/latest", h.DoctorLatestReferral)
	doctor.GET("/prescriptions/:id/pdf", h.DoctorPrescriptionPDF)
	doctor.GET("/referrals/:id/pdf", h.DoctorReferralPDF)

	api.GET("/prescriptions/latest", h.MyLatestPrescription, auth.RequireAuth())
	api.GET("/referrals/latest", h.MyLatestReferral, auth.RequireAuth())
	api.GET("/prescriptions/:id/pdf", h.MyPrescriptionPDF, auth.RequireAuth())
	api.GET("/referrals/:id/pdf", h.MyReferralPDF, auth.RequireAuth())
	api.GET("/care-history/mine", h.MyCareHistory, auth.RequireAuth())
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) IssuePrescription(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var in PrescriptionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.IssuePrescription(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"id": a.ID})
}

type referralReq struct {
	Paragraph string `json:"paragraph"`
}

func (h *Handler) IssueReferral(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var in referralReq
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.IssueReferral(c.Request().Context(), id, in.Paragraph)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	pdfURL := fmt.Sprintf("/api/doctor/referrals/%d/pdf", a.ID)
	c.Response().Header().Set(echo.HeaderLocation, pdfURL)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":     a.ID,
		"pdfUrl": pdfURL,
	})
}

// latestMeta is the artifact summary returned by the latest endpoints.
type latestMeta struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	PDFURL    string    `json:"pdfUrl"`
}

func meta(a *Artifact, pdfURL string) latestMeta {
	return latestMeta{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		FileName:  a.FileName,
		Size:      a.SizeBytes,
		PDFURL:    pdfURL,
	}
}

func (h *Handler) DoctorLatestPrescription(c echo.Context) error {
	return h.doctorLatest(c, KindPrescription, "/api/doctor/prescriptions/%d/pdf")
}

func (h *Handler) DoctorLatestReferral(c echo.Context) error {
	return h.doctorLatest(c, KindReferral, "/api/doctor/referrals/%d/pdf")
}

func (h *Handler) doctorLatest(c echo.Context, kind, urlFormat string) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.LatestForConsultation(c.Request().Context(), kind, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if a == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, meta(a, fmt.Sprintf(urlFormat, a.ID)))
}

func (h *Handler) MyLatestPrescription(c echo.Context) error {
	return h.myLatest(c, KindPrescription, "/api/prescriptions/%d/pdf")
}

func (h *Handler) MyLatestReferral(c echo.Context) error {
	return h.myLatest(c, KindReferral, "/api/referrals/%d/pdf")
}

func (h *Handler) myLatest(c echo.Context, kind, urlFormat string) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	a, err := h.svc.LatestForUser(c.Request().Context(), kind, p.UserID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if a == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, meta(a, fmt.Sprintf(urlFormat, a.ID)))
}

func (h *Handler) DoctorPrescriptionPDF(c echo.Context) error {
	return h.streamDoctor(c, KindPrescription)
}

func (h *Handler) DoctorReferralPDF(c echo.Context) error {
	return h.streamDoctor(c, KindReferral)
}

func (h *Handler) streamDoctor(c echo.Context, kind string) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Download(c.Request().Context(), kind, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return stream(c, a)
}

func (h *Handler) MyPrescriptionPDF(c echo.Context) error {
	return h.streamOwned(c, KindPrescription)
}

func (h *Handler) MyReferralPDF(c echo.Context) error {
	return h.streamOwned(c, KindReferral)
}

func (h *Handler) streamOwned(c echo.Context, kind string) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	a, err := h.svc.DownloadOwned(c.Request().Context(), kind, id, p.UserID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return stream(c, a)
}

func stream(c echo.Context, a *Artifact) error {
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("inline; filename=%q", a.FileName))
	return c.Blob(http.StatusOK, a.ContentType, a.PDFBytes)
}

func (h *Handler) MyCareHistory(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	history, err := h.svc.CareHistoryFor(c.Request().Context(), p.UserID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if history == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, history)
}
