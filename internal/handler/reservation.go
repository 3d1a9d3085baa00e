package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

// ReservationHandler serves session enrollments.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler wires the reservation service into a handler.
func NewReservationHandler(s *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: s}
}

// ----- DTOs -----

type createReservationReq struct {
	SessionID uint64 `json:"session_id" validate:"required"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type statusReq struct {
	Status     string  `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	AdminNotes *string `json:"admin_notes"`
}

// Create enrolls the caller in a session.  A full session answers 400
// with error "capacity_exceeded".
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.Reserve(ctx, middleware.CallerFrom(c), service.ReserveInput{
		SessionID: req.SessionID,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newReservationView(*res))
}

func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.Get(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReservationView(*res))
}

func (h *ReservationHandler) ListMine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Reservations.ListMine(ctx, middleware.CallerFrom(c))
	if err != nil {
		return err
	}
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationView(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel is open to the owner and admins.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.Cancel(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReservationView(*res))
}

// UpdateStatus applies an admin transition.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.Transition(ctx, middleware.CallerFrom(c), id, model.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReservationView(*res))
}
