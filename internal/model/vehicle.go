package model

import "time"

// Vehicle is a rentable dual-control car used for exams and practice.
//
// Fields:
//  ID             – primary key identifier.
//  Model          – make and model, e.g. "Peugeot 308".
//  Plate          – registration plate (unique).
//  Year           – model year.
//  DailyRateCents – rental price per day in cents.
//  Category       – commercial category used to group the fleet.
//  Status         – available, rented or maintenance.
//  IsActive       – whether the vehicle is part of the fleet.
type Vehicle struct {
	ID             uint64        // vehicles.id
	Model          string        // vehicles.model
	Plate          string        // vehicles.plate
	Year           int           // vehicles.year
	DailyRateCents int64         // vehicles.daily_rate_cents
	Category       string        // vehicles.category
	Status         VehicleStatus // vehicles.status
	IsActive       bool          // vehicles.is_active
	CreatedAt      time.Time     // vehicles.created_at
	UpdatedAt      time.Time     // vehicles.updated_at
}

// VehicleRental is a booking of a vehicle for an inclusive date range,
// usually around a licence exam.  StartDate and EndDate carry a date at
// UTC midnight.  TrackingToken is generated once at creation and never
// changes; it is the only credential for the public status lookup.
type VehicleRental struct {
	ID              uint64    // vehicle_rentals.id
	UserID          uint64    // vehicle_rentals.user_id
	VehicleID       *uint64   // vehicle_rentals.vehicle_id (nullable)
	StartDate       time.Time // vehicle_rentals.start_date
	EndDate         time.Time // vehicle_rentals.end_date
	Status          Status    // vehicle_rentals.status
	PickupLocation  string    // vehicle_rentals.pickup_location
	ReturnLocation  string    // vehicle_rentals.return_location
	ExamCenter      string    // vehicle_rentals.exam_center
	Formula         string    // vehicle_rentals.formula
	FinancingMode   string    // vehicle_rentals.financing_mode
	TotalPriceCents int64     // vehicle_rentals.total_price_cents
	TrackingToken   string    // vehicle_rentals.tracking_token (unique)
	Notes           string    // vehicle_rentals.notes
	AdminNotes      string    // vehicle_rentals.admin_notes
	InvoiceID       *uint64   // vehicle_rentals.invoice_id (nullable)
	CreatedAt       time.Time // vehicle_rentals.created_at
	UpdatedAt       time.Time // vehicle_rentals.updated_at
}

// OwnerID implements the ownership check used by transition guards.
func (r VehicleRental) OwnerID() uint64 { return r.UserID }
