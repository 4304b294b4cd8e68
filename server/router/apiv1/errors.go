package apiv1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/JaCARYK/beartracks/internal/errs"
)

// errorResponse maps domain errors onto HTTP statuses: validation and
// illegal transitions are 400, missing resources 404, claim races 409,
// anything else 500. Conflict and transition errors carry the current
// state so clients can resync without another round trip.
func errorResponse(c echo.Context, err error) error {
	var validation *errs.ValidationError
	var conflict *errs.ConflictError
	var transition *errs.InvalidTransitionError
	var notFound *errs.NotFoundError

	switch {
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	case errors.As(err, &transition):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message":       transition.Error(),
			"current_state": transition.From,
		})
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, map[string]string{
			"message":        conflict.Error(),
			"current_status": conflict.CurrentStatus,
		})
	}

	slog.Error("request failed",
		slog.String("path", c.Request().URL.Path),
		slog.String("error", err.Error()))
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
