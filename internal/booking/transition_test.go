package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/taxischool/internal/model"
)

func TestTransition(t *testing.T) {
	const owner = 7
	admin := Caller{ID: 1, IsAdmin: true}
	self := Caller{ID: owner}
	other := Caller{ID: 8}

	tests := []struct {
		name     string
		caller   Caller
		from, to model.Status
		want     error
	}{
		{"admin confirms pending", admin, model.StatusPending, model.StatusConfirmed, nil},
		{"admin completes confirmed", admin, model.StatusConfirmed, model.StatusCompleted, nil},
		{"admin cancels confirmed", admin, model.StatusConfirmed, model.StatusCancelled, nil},
		{"owner cancels pending", self, model.StatusPending, model.StatusCancelled, nil},
		{"owner cancels confirmed", self, model.StatusConfirmed, model.StatusCancelled, nil},
		{"owner cannot confirm", self, model.StatusPending, model.StatusConfirmed, ErrForbidden},
		{"owner cannot complete", self, model.StatusConfirmed, model.StatusCompleted, ErrForbidden},
		{"stranger cannot cancel", other, model.StatusPending, model.StatusCancelled, ErrForbidden},
		{"anonymous cannot cancel", Caller{}, model.StatusPending, model.StatusCancelled, ErrForbidden},
		{"no skipping pending to completed", admin, model.StatusPending, model.StatusCompleted, ErrInvalidTransition},
		{"completed is terminal", admin, model.StatusCompleted, model.StatusConfirmed, ErrInvalidTransition},
		{"cancelled is terminal", admin, model.StatusCancelled, model.StatusPending, ErrInvalidTransition},
		{"cancel twice", self, model.StatusCancelled, model.StatusCancelled, ErrInvalidTransition},
		{"same state", admin, model.StatusConfirmed, model.StatusConfirmed, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transition(tt.caller, owner, tt.from, tt.to)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	err := Transition(Caller{ID: 1, IsAdmin: true}, 1, model.StatusPending, "archived")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "status")
}

func TestNotifies(t *testing.T) {
	assert.True(t, Notifies(model.StatusConfirmed))
	assert.True(t, Notifies(model.StatusCancelled))
	assert.False(t, Notifies(model.StatusCompleted))
	assert.False(t, Notifies(model.StatusPending))
}
