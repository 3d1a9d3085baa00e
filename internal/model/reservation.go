package model

import "time"

// Reservation records a user's enrollment in a Session.  Reservations
// are never hard-deleted; cancellation is a status change.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – enrolled user.
//  SessionID – session being attended.
//  Status    – pending, confirmed, completed or cancelled.
//  Notes     – free text supplied by the user.
//  InvoiceID – linked invoice, if any.
//  PaymentID – linked payment, if any.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	SessionID uint64    // reservations.session_id
	Status    Status    // reservations.status
	Notes     string    // reservations.notes
	InvoiceID *uint64   // reservations.invoice_id (nullable)
	PaymentID *uint64   // reservations.payment_id (nullable)
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}

// OwnerID implements the ownership check used by transition guards.
func (r Reservation) OwnerID() uint64 { return r.UserID }
