package model

// Status is the lifecycle state shared by reservations and vehicle
// rentals.  Both follow the same state machine: pending is the initial
// state, completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known booking states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Blocking reports whether a booking in state s occupies its resource.
// Only confirmed rentals block a vehicle; for session seats every
// non-cancelled reservation counts.
func (s Status) Blocking() bool { return s == StatusConfirmed }

// SessionStatus tracks where a scheduled session is in time.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionOngoing   SessionStatus = "ongoing"
	SessionCompleted SessionStatus = "completed"
)

// VehicleStatus is the operational state of a vehicle.  It is distinct
// from rental bookings: a vehicle in maintenance is never offered.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleRented      VehicleStatus = "rented"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// FormationType distinguishes initial licence training from continuing
// education courses.
type FormationType string

const (
	FormationInitial    FormationType = "initial"
	FormationContinuous FormationType = "continuous"
)
