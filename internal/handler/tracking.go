package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/service"
)

// TrackingHandler serves the public rental status page.  The token in
// the path is the only credential.
type TrackingHandler struct {
	Tracking *service.TrackingService
}

// NewTrackingHandler wires the tracking service into a handler.
func NewTrackingHandler(s *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{Tracking: s}
}

func (h *TrackingHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	view, err := h.Tracking.Resolve(ctx, c.Param("token"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, view)
}
