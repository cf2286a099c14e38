package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTP converts a service error into an echo HTTPError. Internal errors get
// a generic message so database details never leak to clients.
func ToHTTP(err error) *echo.HTTPError {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error())
}
