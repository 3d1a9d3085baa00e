package booking

import (
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/taxischool/internal/model"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// SessionAvailability is the seat situation of a session.
type SessionAvailability struct {
	Remaining   int     `json:"remaining"`
	PercentFree float64 `json:"percent_free"`
}

// ComputeAvailability derives remaining seats from the session capacity
// and its count of non-cancelled reservations.  Remaining never goes
// below zero.  A session without capacity reports zero percent free.
func ComputeAvailability(s model.Session) SessionAvailability {
	remaining := s.MaxParticipants - s.ActiveReservations
	if remaining < 0 {
		remaining = 0
	}
	if s.MaxParticipants <= 0 {
		return SessionAvailability{Remaining: remaining}
	}
	return SessionAvailability{
		Remaining:   remaining,
		PercentFree: float64(remaining) / float64(s.MaxParticipants) * 100,
	}
}

// CheckCapacity returns ErrCapacityExceeded when one more reservation
// would exceed the session capacity.  Callers must hold a lock on the
// session row so the count cannot change before the insert.
func CheckCapacity(s model.Session) error {
	if s.ActiveReservations >= s.MaxParticipants {
		return ErrCapacityExceeded
	}
	return nil
}

// DateRange is an inclusive range of calendar days.  Two ranges that
// share an endpoint overlap: a vehicle returned on the 5th cannot be
// picked up by someone else on the 5th.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to UTC days and rejects ranges that
// end before they start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: day(start), End: day(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, NewValidationError("endDate", "must not be before startDate")
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	verr := &ValidationError{}
	s, err := ParseDate(start)
	if err != nil {
		verr.Add("startDate", err.Error())
	}
	e, err := ParseDate(end)
	if err != nil {
		verr.Add("endDate", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("is required")
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}

// Overlaps reports whether r and o share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !(o.End.Before(r.Start) || o.Start.After(r.End))
}

// Days is the number of calendar days covered, both ends included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// RentalRange returns the booked range of a rental.
func RentalRange(r model.VehicleRental) DateRange {
	return DateRange{Start: day(r.StartDate), End: day(r.EndDate)}
}

// RentalPrice is the inclusive day count times the vehicle daily rate.
func RentalPrice(v model.Vehicle, r DateRange) int64 {
	return int64(r.Days()) * v.DailyRateCents
}

// Offered reports whether a vehicle can be rented at all, regardless of
// its bookings.
func Offered(v model.Vehicle) bool {
	return v.IsActive && v.Status != model.VehicleMaintenance
}

// HasConflict reports whether any confirmed rental of vehicleID other
// than excludeID overlaps r.  Rentals for other vehicles are ignored so
// callers may pass a mixed slice.
func HasConflict(rentals []model.VehicleRental, vehicleID uint64, r DateRange, excludeID uint64) bool {
	for _, rental := range rentals {
		if rental.ID == excludeID || rental.VehicleID == nil || *rental.VehicleID != vehicleID {
			continue
		}
		if rental.Status.Blocking() && RentalRange(rental).Overlaps(r) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether v is bookable for r given its rentals.
func IsAvailable(v model.Vehicle, rentals []model.VehicleRental, r DateRange) bool {
	return Offered(v) && !HasConflict(rentals, v.ID, r, 0)
}

// AvailableVehicles filters vehicles bookable for r and orders them by
// category, then model, then id so pages stay stable.
func AvailableVehicles(vehicles []model.Vehicle, rentals []model.VehicleRental, r DateRange) []model.Vehicle {
	out := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if IsAvailable(v, rentals, r) {
			out = append(out, v)
		}
	}
	SortVehicles(out)
	return out
}

// SortVehicles orders vehicles by category, model and id.
func SortVehicles(vs []model.Vehicle) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Category != vs[j].Category {
			return vs[i].Category < vs[j].Category
		}
		if vs[i].Model != vs[j].Model {
			return vs[i].Model < vs[j].Model
		}
		return vs[i].ID < vs[j].ID
	})
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
