// Package queue carries booking notifications over RabbitMQ: the
// publisher used by the services and the consumer that turns events into
// mails.
package queue

import "time"

// Event types.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventRentalConfirmed      = "rental.confirmed"
	EventRentalCancelled      = "rental.cancelled"
	EventDocumentsAdded       = "documents.added"
)

// Event is the JSON payload published for every notification.  It holds
// enough for the consumer to render a mail without reading the database.
type Event struct {
	Type           string    `json:"type"`
	OccurredAt     time.Time `json:"occurred_at"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`
	ReservationID  uint64    `json:"reservation_id,omitempty"`
	SessionID      uint64    `json:"session_id,omitempty"`
	FormationTitle string    `json:"formation_title,omitempty"`
	RentalID       uint64    `json:"rental_id,omitempty"`
	TrackingToken  string    `json:"tracking_token,omitempty"`
	OwnerType      string    `json:"owner_type,omitempty"`
	OwnerID        uint64    `json:"owner_id,omitempty"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"`
	Status         string    `json:"status,omitempty"`
	DocumentCount  int       `json:"document_count,omitempty"`
}
