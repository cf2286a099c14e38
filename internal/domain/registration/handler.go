package registration

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes wires the intake endpoints. They are deliberately open:
// registration happens before the patient has an account to log in with.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/registrations", h.Create)
	api.PUT("/registrations/:id", h.Update)
	api.GET("/registrations/:id", h.Get)
	api.GET("/registrations", h.LatestByEmail)

	api.POST("/registrations/:id/document", h.Upload)
	api.GET("/registrations/:id/documents", h.ListDocuments)
	api.GET("/registrations/:id/documents/:docId", h.DownloadDocument)
	api.GET("/registrations/:id/documents/:docId/view", h.ViewDocument)
	api.GET("/registrations/:id/documents/:docId/download", h.DownloadDocument)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var reg Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&reg); err != nil {
		return err
	}

	saved, err := h.svc.Create(c.Request().Context(), &reg)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var reg Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&reg); err != nil {
		return err
	}

	saved, err := h.svc.Update(c.Request().Context(), id, &reg)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	reg, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) LatestByEmail(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email query parameter required")
	}
	reg, err := h.svc.LatestByEmail(c.Request().Context(), email)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if reg == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) Upload(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file form field required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	d, err := h.svc.Upload(c.Request().Context(), id, fh.Filename,
		fh.Header.Get(echo.HeaderContentType), data)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        d.ID,
		"fileName":  d.OriginalFileName,
		"sizeBytes": d.SizeBytes,
	})
}

func (h *Handler) ListDocuments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.svc.Documents(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if list == nil {
		list = []*DocumentMeta{}
	}
	return c.JSON(http.StatusOK, list)
}

// ViewDocument streams the payload without a disposition header so browsers
// can preview it in a frame.
func (h *Handler) ViewDocument(c echo.Context) error {
	d, err := h.document(c)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, d.ContentType, d.Data)
}

func (h *Handler) DownloadDocument(c echo.Context) error {
	d, err := h.document(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", d.OriginalFileName))
	return c.Blob(http.StatusOK, d.ContentType, d.Data)
}

func (h *Handler) document(c echo.Context) (*Document, error) {
	regID, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	docID, err := pathID(c, "docId")
	if err != nil {
		return nil, err
	}
	d, err := h.svc.Document(c.Request().Context(), regID, docID)
	if err != nil {
		return nil, apperr.ToHTTP(err)
	}
	return d, nil
}
