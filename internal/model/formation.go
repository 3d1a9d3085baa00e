package model

import "time"

// Formation is a course offering in the catalog.  Formations are never
// deleted; an admin deactivates them instead, which hides them from the
// public catalog and blocks new reservations on their sessions.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – display title.
//  Description   – long description.
//  DurationHours – total course length in hours.
//  PriceCents    – list price in cents.
//  Type          – initial or continuous.
//  IsActive      – whether the formation is offered.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Formation struct {
	ID            uint64        // formations.id
	Title         string        // formations.title
	Description   string        // formations.description
	DurationHours int           // formations.duration_hours
	PriceCents    int64         // formations.price_cents
	Type          FormationType // formations.type
	IsActive      bool          // formations.is_active
	CreatedAt     time.Time     // formations.created_at
	UpdatedAt     time.Time     // formations.updated_at
}

// Session is one scheduled, capacity-bounded instance of a Formation.
// ActiveReservations is not a column: repositories fill it with the
// number of non-cancelled reservations when the session is loaded.
type Session struct {
	ID                 uint64        // sessions.id
	FormationID        uint64        // sessions.formation_id
	StartDate          time.Time     // sessions.start_date
	EndDate            time.Time     // sessions.end_date
	MaxParticipants    int           // sessions.max_participants
	Status             SessionStatus // sessions.status
	Location           string        // sessions.location
	ActiveReservations int           // COUNT of non-cancelled reservations
	CreatedAt          time.Time     // sessions.created_at
	UpdatedAt          time.Time     // sessions.updated_at
}
