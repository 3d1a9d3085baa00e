package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/metrics"
	"github.com/iliyamo/taxischool/internal/model"
)

var tokenFormat = regexp.MustCompile(`^[0-9a-f]{64}$`)

// TrackingService resolves public tracking tokens.
type TrackingService struct {
	rentals  RentalStore
	vehicles VehicleStore
}

// NewTrackingService creates a TrackingService reading rentals and
// vehicles.
func NewTrackingService(rentals RentalStore, vehicles VehicleStore) *TrackingService {
	return &TrackingService{rentals: rentals, vehicles: vehicles}
}

// Resolve looks a rental up by exact token and returns its public view.
// Malformed tokens are rejected as not found without a lookup.  The call
// has no side effects, so repeating it yields the same view.
func (s *TrackingService) Resolve(ctx context.Context, token string) (booking.TrackingView, error) {
	if !tokenFormat.MatchString(token) {
		metrics.TrackingLookups.WithLabelValues("miss").Inc()
		return booking.TrackingView{}, booking.ErrNotFound
	}
	r, err := s.rentals.GetRentalByToken(ctx, token)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			metrics.TrackingLookups.WithLabelValues("miss").Inc()
		}
		return booking.TrackingView{}, err
	}
	metrics.TrackingLookups.WithLabelValues("hit").Inc()

	var vehicle *model.Vehicle
	if r.VehicleID != nil {
		v, err := s.vehicles.GetVehicle(ctx, *r.VehicleID)
		switch {
		case err == nil:
			vehicle = v
		case !errors.Is(err, booking.ErrNotFound):
			return booking.TrackingView{}, err
		}
	}
	return booking.NewTrackingView(*r, vehicle), nil
}
