// Package service implements the booking use cases on top of storage
// interfaces.  Each mutating operation takes an explicit booking.Caller;
// rules that must hold under concurrency run inside store callbacks that
// execute while the relevant row is locked.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
)

// UserStore persists accounts.
type UserStore interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertUser inserts u when its email is unknown.  For a known email
	// it only fills blank name and phone fields and returns the stored
	// account in u.
	UpsertUser(ctx context.Context, u *model.User) error
}

// CatalogStore persists formations and sessions.  Sessions are returned
// with ActiveReservations filled.
type CatalogStore interface {
	ListFormations(ctx context.Context, activeOnly bool) ([]model.Formation, error)
	GetFormation(ctx context.Context, id uint64) (*model.Formation, error)
	CreateFormation(ctx context.Context, f *model.Formation) error
	SetFormationActive(ctx context.Context, id uint64, active bool) error
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id uint64) (*model.Session, error)
	ListSessions(ctx context.Context, formationID uint64) ([]model.Session, error)
}

// SessionSnapshot is the locked view of a session handed to the
// reservation guard.
type SessionSnapshot struct {
	Session        model.Session
	Formation      model.Formation
	UserHasBooking bool // the user already holds a non-cancelled reservation
}

// ReservationStore persists reservations.
type ReservationStore interface {
	// CreateReservation locks the session row, calls check with the
	// locked snapshot and inserts res only when check returns nil.
	// A missing session yields booking.ErrNotFound.
	CreateReservation(ctx context.Context, res *model.Reservation, check func(SessionSnapshot) error) error
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	// UpdateReservation locks the reservation, lets apply mutate it and
	// persists the status when apply returns nil.
	UpdateReservation(ctx context.Context, id uint64, apply func(*model.Reservation) error) (*model.Reservation, error)
}

// VehicleStore persists the fleet.
type VehicleStore interface {
	ListVehicles(ctx context.Context, activeOnly bool) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error)
	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	// ListBlockingRentals returns confirmed rentals overlapping r, for
	// one vehicle or for all when vehicleID is zero.
	ListBlockingRentals(ctx context.Context, r booking.DateRange, vehicleID uint64) ([]model.VehicleRental, error)
}

// RentalStore persists vehicle rentals.  Both mutating methods lock the
// vehicle row (when a vehicle is set) before the rental so concurrent
// bookings of the same vehicle serialize.
type RentalStore interface {
	// CreateRental calls check with the locked vehicle (nil when the
	// rental has none) and the confirmed rentals overlapping the
	// requested range, then inserts.
	CreateRental(ctx context.Context, r *model.VehicleRental, check func(v *model.Vehicle, blocking []model.VehicleRental) error) error
	GetRental(ctx context.Context, id uint64) (*model.VehicleRental, error)
	GetRentalByToken(ctx context.Context, token string) (*model.VehicleRental, error)
	ListRentalsByUser(ctx context.Context, userID uint64) ([]model.VehicleRental, error)
	// ListRentals returns rentals starting within [from, to].
	ListRentals(ctx context.Context, from, to time.Time) ([]model.VehicleRental, error)
	// UpdateRental locks the rental, calls apply with the confirmed
	// rentals of the same vehicle overlapping it (itself excluded) and
	// persists status and admin notes when apply returns nil.
	UpdateRental(ctx context.Context, id uint64, apply func(r *model.VehicleRental, blocking []model.VehicleRental) error) (*model.VehicleRental, error)
}

// DocumentStore persists temp and final document records.
type DocumentStore interface {
	CreateTempDocument(ctx context.Context, d *model.TempDocument) error
	GetTempDocument(ctx context.Context, tempID string) (*model.TempDocument, error)
	DeleteTempDocument(ctx context.Context, tempID string) error
	ListTempDocumentsBefore(ctx context.Context, before time.Time, offset, limit int) ([]model.TempDocument, error)
	CreateDocument(ctx context.Context, d *model.Document) error
	ListDocuments(ctx context.Context, owner model.DocumentOwner) ([]model.Document, error)
}

// Notifier hands an event to the notification transport.
type Notifier interface {
	Notify(ctx context.Context, ev queue.Event) error
}
