package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/service"
)

// VehicleHandler answers fleet availability queries.
type VehicleHandler struct {
	Vehicles *service.VehicleService
}

// NewVehicleHandler wires the vehicle service into a handler.
func NewVehicleHandler(s *service.VehicleService) *VehicleHandler { return &VehicleHandler{Vehicles: s} }

// ----- DTOs -----

type createVehicleReq struct {
	Model          string `json:"model" validate:"notblank,max=120"`
	Plate          string `json:"plate" validate:"notblank,max=20"`
	Year           int    `json:"year" validate:"gte=1990,lte=2100"`
	DailyRateCents int64  `json:"daily_rate_cents" validate:"gt=0"`
	Category       string `json:"category" validate:"notblank,max=40"`
}

type vehicleAvailabilityResp struct {
	VehicleID uint64 `json:"vehicle_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
}

// Available lists vehicles bookable for ?startDate&endDate, ordered by
// category then model.
func (h *VehicleHandler) Available(c echo.Context) error {
	r, err := booking.ParseDateRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Vehicles.FindAvailable(ctx, r)
	if err != nil {
		return err
	}
	out := make([]vehicleView, 0, len(list))
	for _, v := range list {
		out = append(out, newVehicleView(v))
	}
	return c.JSON(http.StatusOK, out)
}

// Availability checks one vehicle for ?startDate&endDate.
func (h *VehicleHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	r, err := booking.ParseDateRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Vehicles.IsAvailable(ctx, id, r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vehicleAvailabilityResp{
		VehicleID: id,
		StartDate: r.Start.Format(booking.DateLayout),
		EndDate:   r.End.Format(booking.DateLayout),
		Available: ok,
	})
}

// Create registers a vehicle.  Admin only.
func (h *VehicleHandler) Create(c echo.Context) error {
	var req createVehicleReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Vehicles.Create(ctx, middleware.CallerFrom(c), service.VehicleInput{
		Model:          req.Model,
		Plate:          req.Plate,
		Year:           req.Year,
		DailyRateCents: req.DailyRateCents,
		Category:       req.Category,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newVehicleView(*v))
}
