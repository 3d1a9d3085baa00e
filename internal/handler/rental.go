package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/export"
	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RentalHandler serves vehicle rentals.
type RentalHandler struct {
	Rentals *service.RentalService
}

// NewRentalHandler wires the rental service into a handler.
func NewRentalHandler(s *service.RentalService) *RentalHandler { return &RentalHandler{Rentals: s} }

// ----- DTOs -----

type createRentalReq struct {
	Email          string  `json:"email" validate:"omitempty,max=190,email"`
	FirstName      string  `json:"first_name" validate:"max=100"`
	LastName       string  `json:"last_name" validate:"max=100"`
	Phone          string  `json:"phone" validate:"max=40"`
	VehicleID      *uint64 `json:"vehicle_id"`
	StartDate      string  `json:"start_date" validate:"required"`
	EndDate        string  `json:"end_date" validate:"required"`
	PickupLocation string  `json:"pickup_location" validate:"max=200"`
	ReturnLocation string  `json:"return_location" validate:"max=200"`
	ExamCenter     string  `json:"exam_center" validate:"max=200"`
	Formula        string  `json:"formula" validate:"max=60"`
	FinancingMode  string  `json:"financing_mode" validate:"max=60"`
	Notes          string  `json:"notes" validate:"max=2000"`
}

type createRentalResp struct {
	Rental      rentalView `json:"rental"`
	TrackingURL string     `json:"tracking_url"`
}

// Create books a rental.  Anonymous visitors identify themselves by
// email; an account is created for unknown addresses.
func (h *RentalHandler) Create(c echo.Context) error {
	var req createRentalReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	caller := middleware.CallerFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Rentals.Create(ctx, caller, service.RentalInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		VehicleID:      req.VehicleID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		PickupLocation: req.PickupLocation,
		ReturnLocation: req.ReturnLocation,
		ExamCenter:     req.ExamCenter,
		Formula:        req.Formula,
		FinancingMode:  req.FinancingMode,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createRentalResp{
		Rental:      newRentalView(*r, caller),
		TrackingURL: "/api/vehicle-rental-tracking/" + r.TrackingToken,
	})
}

func (h *RentalHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller := middleware.CallerFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Rentals.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRentalView(*r, caller))
}

func (h *RentalHandler) ListMine(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Rentals.ListMine(ctx, caller)
	if err != nil {
		return err
	}
	out := make([]rentalView, 0, len(list))
	for _, r := range list {
		out = append(out, newRentalView(r, caller))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateStatus applies an admin transition.  Confirming fails with
// error "conflict" when the vehicle is already booked.
func (h *RentalHandler) UpdateStatus(c echo.Context) error {
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
	caller := middleware.CallerFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Rentals.UpdateStatus(ctx, caller, id, service.StatusChange{
		Status:     model.Status(req.Status),
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRentalView(*r, caller))
}

// Cancel lets the renter withdraw a rental.
func (h *RentalHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller := middleware.CallerFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Rentals.Cancel(ctx, caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRentalView(*r, caller))
}

// Export streams an .xlsx of rentals starting within ?from&to
// (YYYY-MM-DD).  Both bounds default to the current month.
func (h *RentalHandler) Export(c echo.Context) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	if s := c.QueryParam("from"); s != "" || c.QueryParam("to") != "" {
		r, err := booking.ParseDateRange(s, c.QueryParam("to"))
		if err != nil {
			return err
		}
		from, to = r.Start, r.End
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	records, err := h.Rentals.ListForExport(ctx, middleware.CallerFrom(c), from, to)
	if err != nil {
		return err
	}
	f, err := export.RentalsWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	name := fmt.Sprintf("vehicle-rentals_%s_%s.xlsx", from.Format(booking.DateLayout), to.Format(booking.DateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}
