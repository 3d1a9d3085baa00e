package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/metrics"
	"github.com/iliyamo/taxischool/internal/queue"
)

const notifyTimeout = 5 * time.Second

// dispatcher sends notifications after a state change has been
// committed.  Failures are logged and counted, never returned.
type dispatcher struct {
	n   Notifier
	log *zap.Logger
}

func (d dispatcher) send(ctx context.Context, ev queue.Event) {
	if d.n == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := d.n.Notify(ctx, ev); err != nil {
		metrics.NotificationFailures.WithLabelValues(ev.Type).Inc()
		d.log.Warn("notification dispatch failed",
			zap.String("event", ev.Type),
			zap.Uint64("reservation_id", ev.ReservationID),
			zap.Uint64("rental_id", ev.RentalID),
			zap.Error(err),
		)
	}
}

// resultLabel turns an operation error into a metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, booking.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, booking.ErrConflict):
		return "conflict"
	case errors.Is(err, booking.ErrNotFound):
		return "not_found"
	case errors.Is(err, booking.ErrForbidden), errors.Is(err, booking.ErrUnauthenticated):
		return "forbidden"
	}
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		return "invalid"
	}
	return "error"
}
