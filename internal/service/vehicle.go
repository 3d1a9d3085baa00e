package service

import (
	"context"
	"strings"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
)

// VehicleService answers availability questions about the fleet.
type VehicleService struct {
	vehicles VehicleStore
}

// NewVehicleService creates a VehicleService over the fleet store.
func NewVehicleService(vehicles VehicleStore) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

// FindAvailable lists active vehicles outside maintenance with no
// confirmed rental overlapping r, ordered by category then model.
func (s *VehicleService) FindAvailable(ctx context.Context, r booking.DateRange) ([]model.Vehicle, error) {
	vehicles, err := s.vehicles.ListVehicles(ctx, true)
	if err != nil {
		return nil, err
	}
	rentals, err := s.vehicles.ListBlockingRentals(ctx, r, 0)
	if err != nil {
		return nil, err
	}
	return booking.AvailableVehicles(vehicles, rentals, r), nil
}

// IsAvailable reports whether one vehicle is bookable for r.
func (s *VehicleService) IsAvailable(ctx context.Context, vehicleID uint64, r booking.DateRange) (bool, error) {
	v, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return false, err
	}
	rentals, err := s.vehicles.ListBlockingRentals(ctx, r, vehicleID)
	if err != nil {
		return false, err
	}
	return booking.IsAvailable(*v, rentals, r), nil
}

// VehicleInput is the admin payload for a new vehicle.
type VehicleInput struct {
	Model          string
	Plate          string
	Year           int
	DailyRateCents int64
	Category       string
}

// Create validates and stores a new vehicle.  Admin only; a duplicate
// plate is a conflict.
func (s *VehicleService) Create(ctx context.Context, caller booking.Caller, in VehicleInput) (*model.Vehicle, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	verr := &booking.ValidationError{}
	if strings.TrimSpace(in.Model) == "" {
		verr.Add("model", "is required")
	}
	if strings.TrimSpace(in.Plate) == "" {
		verr.Add("plate", "is required")
	}
	if in.DailyRateCents <= 0 {
		verr.Add("daily_rate_cents", "must be positive")
	}
	if strings.TrimSpace(in.Category) == "" {
		verr.Add("category", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	v := &model.Vehicle{
		Model:          strings.TrimSpace(in.Model),
		Plate:          strings.ToUpper(strings.TrimSpace(in.Plate)),
		Year:           in.Year,
		DailyRateCents: in.DailyRateCents,
		Category:       strings.TrimSpace(in.Category),
		Status:         model.VehicleAvailable,
		IsActive:       true,
	}
	if err := s.vehicles.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
