package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/metrics"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
	"github.com/iliyamo/taxischool/internal/utils"
)

// RentalService books vehicles and moves rentals through the state
// machine.
type RentalService struct {
	rentals    RentalStore
	vehicles   VehicleStore
	users      UserStore
	notify     dispatcher
	log        *zap.Logger
	bcryptCost int // for passwords of accounts created on rental
}

// NewRentalService creates a RentalService.  bcryptCost is used for the
// random password of accounts created on the fly; n receives status
// notifications after commit.
func NewRentalService(rentals RentalStore, vehicles VehicleStore, users UserStore, n Notifier, log *zap.Logger, bcryptCost int) *RentalService {
	return &RentalService{
		rentals:    rentals,
		vehicles:   vehicles,
		users:      users,
		notify:     dispatcher{n: n, log: log},
		log:        log,
		bcryptCost: bcryptCost,
	}
}

// RentalInput is a rental request.  Contact fields identify the renter
// when the caller is anonymous, or when an admin books for someone.
type RentalInput struct {
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	VehicleID      *uint64
	StartDate      string
	EndDate        string
	PickupLocation string
	ReturnLocation string
	ExamCenter     string
	Formula        string
	FinancingMode  string
	Notes          string
}

// Create validates the request, resolves the renter (creating an account
// for an unknown email), and inserts a pending rental with a fresh
// tracking token.  When a vehicle is requested, its availability is
// checked with the vehicle row locked.
func (s *RentalService) Create(ctx context.Context, caller booking.Caller, in RentalInput) (*model.VehicleRental, error) {
	rng, err := booking.ParseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		metrics.Rentals.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}
	userID, err := s.resolveRenter(ctx, caller, in)
	if err != nil {
		metrics.Rentals.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}
	token, err := utils.NewTrackingToken()
	if err != nil {
		return nil, fmt.Errorf("tracking token: %w", err)
	}

	r := &model.VehicleRental{
		UserID:         userID,
		VehicleID:      in.VehicleID,
		StartDate:      rng.Start,
		EndDate:        rng.End,
		Status:         model.StatusPending,
		PickupLocation: in.PickupLocation,
		ReturnLocation: in.ReturnLocation,
		ExamCenter:     in.ExamCenter,
		Formula:        in.Formula,
		FinancingMode:  in.FinancingMode,
		TrackingToken:  token,
		Notes:          in.Notes,
	}
	err = s.rentals.CreateRental(ctx, r, func(v *model.Vehicle, blocking []model.VehicleRental) error {
		if r.VehicleID == nil {
			return nil
		}
		if v == nil {
			return booking.ErrNotFound
		}
		if !booking.Offered(*v) {
			return fmt.Errorf("%w: vehicle is not offered for rental", booking.ErrConflict)
		}
		if booking.HasConflict(blocking, v.ID, rng, 0) {
			return fmt.Errorf("%w: vehicle is already booked from %s", booking.ErrConflict, rng)
		}
		r.TotalPriceCents = booking.RentalPrice(*v, rng)
		return nil
	})
	metrics.Rentals.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// maxEmailLen is the width of users.email.
const maxEmailLen = 190

// resolveRenter picks the account a rental belongs to.  Signed-in users
// book for themselves; anonymous visitors and admins name the renter by
// email.
func (s *RentalService) resolveRenter(ctx context.Context, caller booking.Caller, in RentalInput) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if caller.Authenticated() && (!caller.IsAdmin || email == "") {
		return caller.ID, nil
	}
	verr := &booking.ValidationError{}
	if email == "" {
		verr.Add("email", "is required")
	} else if len(email) > maxEmailLen {
		verr.Add("email", fmt.Sprintf("must be at most %d characters", maxEmailLen))
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if strings.TrimSpace(in.LastName) == "" {
		verr.Add("last_name", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		u := &model.User{
			Email:     existing.Email,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Phone:     strings.TrimSpace(in.Phone),
		}
		if err := s.users.UpsertUser(ctx, u); err != nil {
			return 0, err
		}
		return u.ID, nil
	case !errors.Is(err, booking.ErrNotFound):
		return 0, err
	}

	hash, err := utils.RandomPasswordHash(s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.users.UpsertUser(ctx, u); err != nil {
		return 0, err
	}
	s.log.Info("account created from rental request", zap.Uint64("user_id", u.ID))
	return u.ID, nil
}

// Get returns a rental visible to its owner and to admins.
func (s *RentalService) Get(ctx context.Context, caller booking.Caller, id uint64) (*model.VehicleRental, error) {
	r, err := s.rentals.GetRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.Authorize(r.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListMine returns the caller's rentals, newest first.
func (s *RentalService) ListMine(ctx context.Context, caller booking.Caller) ([]model.VehicleRental, error) {
	if !caller.Authenticated() {
		return nil, booking.ErrUnauthenticated
	}
	return s.rentals.ListRentalsByUser(ctx, caller.ID)
}

// StatusChange is a requested transition, optionally with admin notes.
type StatusChange struct {
	Status     model.Status
	AdminNotes *string
}

// UpdateStatus applies a guarded transition.  Confirming re-checks the
// vehicle for overlapping confirmed rentals under the vehicle lock, so
// two pending requests for the same dates cannot both be confirmed.
func (s *RentalService) UpdateStatus(ctx context.Context, caller booking.Caller, id uint64, ch StatusChange) (*model.VehicleRental, error) {
	updated, err := s.rentals.UpdateRental(ctx, id, func(r *model.VehicleRental, blocking []model.VehicleRental) error {
		if err := booking.Transition(caller, r.UserID, r.Status, ch.Status); err != nil {
			return err
		}
		if ch.Status == model.StatusConfirmed && r.VehicleID != nil &&
			booking.HasConflict(blocking, *r.VehicleID, booking.RentalRange(*r), r.ID) {
			return fmt.Errorf("%w: vehicle is already booked for these dates", booking.ErrConflict)
		}
		r.Status = ch.Status
		if ch.AdminNotes != nil && caller.IsAdmin {
			r.AdminNotes = *ch.AdminNotes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.Transitions.WithLabelValues("vehicle_rental", string(ch.Status)).Inc()
	if booking.Notifies(ch.Status) {
		s.notifyChange(ctx, updated)
	}
	return updated, nil
}

// Cancel lets the renter or an admin cancel a rental.
func (s *RentalService) Cancel(ctx context.Context, caller booking.Caller, id uint64) (*model.VehicleRental, error) {
	return s.UpdateStatus(ctx, caller, id, StatusChange{Status: model.StatusCancelled})
}

// RentalRecord is a rental joined with its renter and vehicle.
type RentalRecord struct {
	Rental  model.VehicleRental
	User    *model.User
	Vehicle *model.Vehicle
}

// ListForExport returns admin records of rentals starting in [from, to].
func (s *RentalService) ListForExport(ctx context.Context, caller booking.Caller, from, to time.Time) ([]RentalRecord, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	rentals, err := s.rentals.ListRentals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	users := map[uint64]*model.User{}
	vehicles := map[uint64]*model.Vehicle{}
	out := make([]RentalRecord, 0, len(rentals))
	for _, r := range rentals {
		rec := RentalRecord{Rental: r}
		if u, ok := users[r.UserID]; ok {
			rec.User = u
		} else if u, err := s.users.GetUser(ctx, r.UserID); err == nil {
			users[r.UserID], rec.User = u, u
		}
		if r.VehicleID != nil {
			if v, ok := vehicles[*r.VehicleID]; ok {
				rec.Vehicle = v
			} else if v, err := s.vehicles.GetVehicle(ctx, *r.VehicleID); err == nil {
				vehicles[*r.VehicleID], rec.Vehicle = v, v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RentalService) notifyChange(ctx context.Context, r *model.VehicleRental) {
	ev := queue.Event{
		Type:          queue.EventRentalConfirmed,
		RentalID:      r.ID,
		TrackingToken: r.TrackingToken,
		StartDate:     r.StartDate.Format(booking.DateLayout),
		EndDate:       r.EndDate.Format(booking.DateLayout),
		Status:        string(r.Status),
	}
	if r.Status == model.StatusCancelled {
		ev.Type = queue.EventRentalCancelled
	}
	user, err := s.users.GetUser(ctx, r.UserID)
	if err != nil {
		s.log.Warn("notification skipped: user lookup failed", zap.Uint64("rental_id", r.ID), zap.Error(err))
		return
	}
	ev.RecipientEmail, ev.RecipientName = user.Email, user.FullName()
	s.notify.send(ctx, ev)
}
