package booking

import (
	"time"

	"github.com/iliyamo/taxischool/internal/model"
)

// Timeline entry kinds.
const (
	StepReceived  = "received"
	StepConfirmed = "confirmed"
	StepCompleted = "completed"
	StepCancelled = "cancelled"
)

var stepLabels = map[string]string{
	StepReceived:  "Request received",
	StepConfirmed: "Rental confirmed",
	StepCompleted: "Rental completed",
	StepCancelled: "Rental cancelled",
}

// TimelineEntry is one step of the public status history.
type TimelineEntry struct {
	Step  string    `json:"step"`
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

// TrackingView is what an anonymous holder of a tracking token sees.
// It deliberately leaves out the renter's identity and prices.
type TrackingView struct {
	Reference      uint64          `json:"reference"`
	Status         model.Status    `json:"status"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	ExamCenter     string          `json:"exam_center,omitempty"`
	PickupLocation string          `json:"pickup_location,omitempty"`
	VehicleModel   string          `json:"vehicle_model,omitempty"`
	History        []TimelineEntry `json:"history"`
}

// BuildTimeline derives the status history of a rental from its current
// status and timestamps.  There is no stored log: a rental that went
// from pending straight to cancelled shows no confirmation, and the
// confirmation time of a completed rental is its last update time.
func BuildTimeline(r model.VehicleRental) []TimelineEntry {
	out := []TimelineEntry{entry(StepReceived, r.CreatedAt)}
	switch r.Status {
	case model.StatusConfirmed:
		out = append(out, entry(StepConfirmed, r.UpdatedAt))
	case model.StatusCompleted:
		out = append(out, entry(StepConfirmed, r.UpdatedAt), entry(StepCompleted, r.EndDate))
	case model.StatusCancelled:
		out = append(out, entry(StepCancelled, r.UpdatedAt))
	}
	return out
}

// NewTrackingView assembles the public view of a rental.  vehicle may be
// nil when no vehicle is assigned yet.
func NewTrackingView(r model.VehicleRental, vehicle *model.Vehicle) TrackingView {
	v := TrackingView{
		Reference:      r.ID,
		Status:         r.Status,
		StartDate:      r.StartDate.UTC().Format(DateLayout),
		EndDate:        r.EndDate.UTC().Format(DateLayout),
		ExamCenter:     r.ExamCenter,
		PickupLocation: r.PickupLocation,
		History:        BuildTimeline(r),
	}
	if vehicle != nil {
		v.VehicleModel = vehicle.Model
	}
	return v
}

func entry(step string, at time.Time) TimelineEntry {
	return TimelineEntry{Step: step, Label: stepLabels[step], At: at.UTC()}
}
