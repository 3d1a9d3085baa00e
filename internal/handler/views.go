package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, booking.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// ----- response shapes -----

type userView struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func newUserView(u *model.User) userView {
	return userView{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone, Role: u.Role}
}

type formationView struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	DurationHours int                 `json:"duration_hours"`
	PriceCents    int64               `json:"price_cents"`
	Type          model.FormationType `json:"type"`
	IsActive      bool                `json:"is_active"`
}

func newFormationView(f model.Formation) formationView {
	return formationView{
		ID: f.ID, Title: f.Title, Description: f.Description, DurationHours: f.DurationHours,
		PriceCents: f.PriceCents, Type: f.Type, IsActive: f.IsActive,
	}
}

type sessionView struct {
	ID              uint64                       `json:"id"`
	FormationID     uint64                       `json:"formation_id"`
	StartDate       time.Time                    `json:"start_date"`
	EndDate         time.Time                    `json:"end_date"`
	MaxParticipants int                          `json:"max_participants"`
	Status          model.SessionStatus          `json:"status"`
	Location        string                       `json:"location"`
	Availability    *booking.SessionAvailability `json:"availability,omitempty"`
}

func newSessionView(s model.Session, a *booking.SessionAvailability) sessionView {
	return sessionView{
		ID: s.ID, FormationID: s.FormationID, StartDate: s.StartDate, EndDate: s.EndDate,
		MaxParticipants: s.MaxParticipants, Status: s.Status, Location: s.Location, Availability: a,
	}
}

func sessionViews(in []service.SessionView) []sessionView {
	out := make([]sessionView, 0, len(in))
	for _, sv := range in {
		a := sv.Availability
		out = append(out, newSessionView(sv.Session, &a))
	}
	return out
}

type reservationView struct {
	ID        uint64       `json:"id"`
	UserID    uint64       `json:"user_id"`
	SessionID uint64       `json:"session_id"`
	Status    model.Status `json:"status"`
	Notes     string       `json:"notes,omitempty"`
	InvoiceID *uint64      `json:"invoice_id,omitempty"`
	PaymentID *uint64      `json:"payment_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func newReservationView(r model.Reservation) reservationView {
	return reservationView{
		ID: r.ID, UserID: r.UserID, SessionID: r.SessionID, Status: r.Status, Notes: r.Notes,
		InvoiceID: r.InvoiceID, PaymentID: r.PaymentID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type vehicleView struct {
	ID             uint64              `json:"id"`
	Model          string              `json:"model"`
	Plate          string              `json:"plate"`
	Year           int                 `json:"year"`
	DailyRateCents int64               `json:"daily_rate_cents"`
	Category       string              `json:"category"`
	Status         model.VehicleStatus `json:"status"`
}

func newVehicleView(v model.Vehicle) vehicleView {
	return vehicleView{
		ID: v.ID, Model: v.Model, Plate: v.Plate, Year: v.Year,
		DailyRateCents: v.DailyRateCents, Category: v.Category, Status: v.Status,
	}
}

// rentalView is what the renter and admins see.  The tracking token is
// included so the renter can share the public status page; admin notes
// are only filled for admins.
type rentalView struct {
	ID              uint64       `json:"id"`
	UserID          uint64       `json:"user_id"`
	VehicleID       *uint64      `json:"vehicle_id"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	Status          model.Status `json:"status"`
	PickupLocation  string       `json:"pickup_location"`
	ReturnLocation  string       `json:"return_location"`
	ExamCenter      string       `json:"exam_center"`
	Formula         string       `json:"formula"`
	FinancingMode   string       `json:"financing_mode"`
	TotalPriceCents int64        `json:"total_price_cents"`
	TrackingToken   string       `json:"tracking_token"`
	Notes           string       `json:"notes,omitempty"`
	AdminNotes      string       `json:"admin_notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func newRentalView(r model.VehicleRental, caller booking.Caller) rentalView {
	v := rentalView{
		ID: r.ID, UserID: r.UserID, VehicleID: r.VehicleID,
		StartDate: r.StartDate.Format(booking.DateLayout), EndDate: r.EndDate.Format(booking.DateLayout),
		Status: r.Status, PickupLocation: r.PickupLocation, ReturnLocation: r.ReturnLocation,
		ExamCenter: r.ExamCenter, Formula: r.Formula, FinancingMode: r.FinancingMode,
		TotalPriceCents: r.TotalPriceCents, TrackingToken: r.TrackingToken, Notes: r.Notes,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if caller.IsAdmin {
		v.AdminNotes = r.AdminNotes
	}
	return v
}

type tempDocumentView struct {
	TempID       string `json:"temp_id"`
	Title        string `json:"title"`
	OriginalName string `json:"original_name"`
	SizeBytes    int64  `json:"size_bytes"`
	Category     string `json:"category"`
}

type documentView struct {
	ID           uint64          `json:"id"`
	Title        string          `json:"title"`
	OriginalName string          `json:"original_name"`
	SizeBytes    int64           `json:"size_bytes"`
	Category     string          `json:"category"`
	OwnerType    model.OwnerType `json:"owner_type"`
	OwnerID      uint64          `json:"owner_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newDocumentView(d model.Document) documentView {
	return documentView{
		ID: d.ID, Title: d.Title, OriginalName: d.OriginalName, SizeBytes: d.SizeBytes,
		Category: d.Category, OwnerType: d.Owner.Type, OwnerID: d.Owner.ID, CreatedAt: d.CreatedAt,
	}
}
