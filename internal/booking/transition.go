package booking

import (
	"fmt"

	"github.com/iliyamo/taxischool/internal/model"
)

// transitions lists the allowed edges of the reservation/rental state
// machine.  completed and cancelled have no outgoing edges.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
}

// CanTransition reports whether the state machine has an edge from -> to.
func CanTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// adminOnly reports whether only an administrator may move a booking
// into status to.
func adminOnly(to model.Status) bool {
	return to == model.StatusConfirmed || to == model.StatusCompleted
}

// Transition checks whether caller may move a booking owned by ownerID
// from one status to another.  Authorization is checked before the
// state machine so a stranger learns nothing about the booking state.
func Transition(c Caller, ownerID uint64, from, to model.Status) error {
	if !to.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", to))
	}
	if err := c.Authorize(ownerID); err != nil {
		return err
	}
	if adminOnly(to) && !c.IsAdmin {
		return ErrForbidden
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Notifies reports whether reaching status to triggers a notification.
func Notifies(to model.Status) bool {
	return to == model.StatusConfirmed || to == model.StatusCancelled
}
