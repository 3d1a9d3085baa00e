package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/metrics"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
)

// ReservationService enrolls users in sessions and moves reservations
// through the state machine.
type ReservationService struct {
	reservations ReservationStore
	catalog      CatalogStore
	users        UserStore
	notify       dispatcher // sends after commit
	log          *zap.Logger
}

// NewReservationService creates a ReservationService.  n receives
// confirmation and cancellation events after commit.
func NewReservationService(res ReservationStore, catalog CatalogStore, users UserStore, n Notifier, log *zap.Logger) *ReservationService {
	return &ReservationService{
		reservations: res,
		catalog:      catalog,
		users:        users,
		notify:       dispatcher{n: n, log: log},
		log:          log,
	}
}

// ReserveInput is a reservation request for one session.
type ReserveInput struct {
	SessionID uint64
	Notes     string
}

// Reserve creates a pending reservation.  The capacity check runs while
// the session row is locked, so concurrent requests for the last seat
// cannot both succeed.
func (s *ReservationService) Reserve(ctx context.Context, caller booking.Caller, in ReserveInput) (*model.Reservation, error) {
	if !caller.Authenticated() {
		return nil, booking.ErrUnauthenticated
	}
	if in.SessionID == 0 {
		return nil, booking.NewValidationError("session_id", "is required")
	}
	res := &model.Reservation{
		UserID:    caller.ID,
		SessionID: in.SessionID,
		Status:    model.StatusPending,
		Notes:     in.Notes,
	}
	err := s.reservations.CreateReservation(ctx, res, func(snap SessionSnapshot) error {
		switch {
		case !snap.Formation.IsActive:
			return fmt.Errorf("%w: formation is no longer offered", booking.ErrConflict)
		case snap.Session.Status != model.SessionScheduled:
			return fmt.Errorf("%w: session is %s", booking.ErrConflict, snap.Session.Status)
		case snap.UserHasBooking:
			return fmt.Errorf("%w: already enrolled in this session", booking.ErrConflict)
		}
		return booking.CheckCapacity(snap.Session)
	})
	metrics.Reservations.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns a reservation visible to its owner and to admins.
func (s *ReservationService) Get(ctx context.Context, caller booking.Caller, id uint64) (*model.Reservation, error) {
	res, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.Authorize(res.UserID); err != nil {
		return nil, err
	}
	return res, nil
}

// ListMine returns the caller's reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, caller booking.Caller) ([]model.Reservation, error) {
	if !caller.Authenticated() {
		return nil, booking.ErrUnauthenticated
	}
	return s.reservations.ListReservationsByUser(ctx, caller.ID)
}

// Cancel moves a reservation to cancelled on behalf of its owner or an
// admin.
func (s *ReservationService) Cancel(ctx context.Context, caller booking.Caller, id uint64) (*model.Reservation, error) {
	return s.Transition(ctx, caller, id, model.StatusCancelled)
}

// Transition applies a guarded status change and notifies the user when
// the reservation becomes confirmed or cancelled.  A failed notification
// does not undo the change.
func (s *ReservationService) Transition(ctx context.Context, caller booking.Caller, id uint64, to model.Status) (*model.Reservation, error) {
	updated, err := s.reservations.UpdateReservation(ctx, id, func(r *model.Reservation) error {
		if err := booking.Transition(caller, r.UserID, r.Status, to); err != nil {
			return err
		}
		r.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.Transitions.WithLabelValues("reservation", string(to)).Inc()
	if booking.Notifies(to) {
		s.notifyChange(ctx, updated)
	}
	return updated, nil
}

func (s *ReservationService) notifyChange(ctx context.Context, r *model.Reservation) {
	ev := queue.Event{
		Type:          queue.EventReservationConfirmed,
		ReservationID: r.ID,
		SessionID:     r.SessionID,
		Status:        string(r.Status),
	}
	if r.Status == model.StatusCancelled {
		ev.Type = queue.EventReservationCancelled
	}
	user, err := s.users.GetUser(ctx, r.UserID)
	if err != nil {
		s.log.Warn("notification skipped: user lookup failed", zap.Uint64("reservation_id", r.ID), zap.Error(err))
		return
	}
	ev.RecipientEmail, ev.RecipientName = user.Email, user.FullName()
	if sess, err := s.catalog.GetSession(ctx, r.SessionID); err == nil {
		ev.StartDate = sess.StartDate.Format(booking.DateLayout)
		if f, err := s.catalog.GetFormation(ctx, sess.FormationID); err == nil {
			ev.FormationTitle = f.Title
		}
	}
	s.notify.send(ctx, ev)
}
