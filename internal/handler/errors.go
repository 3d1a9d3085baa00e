package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/observability"
)

// NewHTTPErrorHandler maps booking errors onto status codes.  Anything
// it does not recognise is a 500: logged, sent to Sentry and answered
// with a generic message.
func NewHTTPErrorHandler(log *zap.Logger, v *Validator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := classify(err, v)
		if code == http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Error(err),
			)
			observability.CaptureErr(err, c.Path())
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func classify(err error, v *Validator) (int, echo.Map) {
	var (
		herr *echo.HTTPError
		verr *booking.ValidationError
		vals validator.ValidationErrors
	)
	switch {
	case errors.As(err, &herr):
		if herr.Internal != nil {
			var inner *echo.HTTPError
			if errors.As(herr.Internal, &inner) {
				herr = inner
			}
		}
		msg, ok := herr.Message.(string)
		if !ok {
			msg = http.StatusText(herr.Code)
		}
		return herr.Code, echo.Map{"error": msg}
	case errors.As(err, &vals):
		fields := map[string]string{}
		if v != nil {
			fields = v.fieldErrors(vals)
		}
		return http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields}
	case errors.As(err, &verr):
		return http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields}
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, echo.Map{"error": "not found"}
	case errors.Is(err, booking.ErrUnauthenticated):
		return http.StatusUnauthorized, echo.Map{"error": "authentication required"}
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden, echo.Map{"error": "forbidden"}
	case errors.Is(err, booking.ErrCapacityExceeded):
		return http.StatusBadRequest, echo.Map{"error": "capacity_exceeded", "message": err.Error()}
	case errors.Is(err, booking.ErrConflict):
		return http.StatusBadRequest, echo.Map{"error": "conflict", "message": err.Error()}
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusBadRequest, echo.Map{"error": "invalid_transition", "message": err.Error()}
	case errors.Is(err, booking.ErrInvalidFile):
		return http.StatusBadRequest, echo.Map{"error": "invalid_file", "message": err.Error()}
	}
	return http.StatusInternalServerError, echo.Map{"error": http.StatusText(http.StatusInternalServerError)}
}
