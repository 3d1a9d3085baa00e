package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
)

// CatalogService exposes formations and their sessions.
type CatalogService struct {
	catalog CatalogStore
}

// NewCatalogService creates a CatalogService over the catalog store.
func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// SessionView pairs a session with its seat availability.
type SessionView struct {
	Session      model.Session
	Availability booking.SessionAvailability
}

func (s *CatalogService) ListFormations(ctx context.Context, activeOnly bool) ([]model.Formation, error) {
	return s.catalog.ListFormations(ctx, activeOnly)
}

// GetFormation hides inactive formations from non-admin callers.
func (s *CatalogService) GetFormation(ctx context.Context, caller booking.Caller, id uint64) (*model.Formation, error) {
	f, err := s.catalog.GetFormation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.IsActive && !caller.IsAdmin {
		return nil, booking.ErrNotFound
	}
	return f, nil
}

// ListSessions returns the sessions of an active formation with their
// availability.
func (s *CatalogService) ListSessions(ctx context.Context, caller booking.Caller, formationID uint64) ([]SessionView, error) {
	if _, err := s.GetFormation(ctx, caller, formationID); err != nil {
		return nil, err
	}
	sessions, err := s.catalog.ListSessions(ctx, formationID)
	if err != nil {
		return nil, err
	}
	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionView{Session: sess, Availability: booking.ComputeAvailability(sess)})
	}
	return out, nil
}

// SessionAvailability returns one session with its availability.
func (s *CatalogService) SessionAvailability(ctx context.Context, sessionID uint64) (SessionView, error) {
	sess, err := s.catalog.GetSession(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{Session: *sess, Availability: booking.ComputeAvailability(*sess)}, nil
}

// FormationInput is the admin payload for a new formation.
type FormationInput struct {
	Title         string
	Description   string
	DurationHours int
	PriceCents    int64
	Type          model.FormationType
}

func (s *CatalogService) CreateFormation(ctx context.Context, caller booking.Caller, in FormationInput) (*model.Formation, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	verr := &booking.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "is required")
	}
	if in.DurationHours <= 0 {
		verr.Add("duration_hours", "must be positive")
	}
	if in.PriceCents < 0 {
		verr.Add("price_cents", "must not be negative")
	}
	if in.Type != model.FormationInitial && in.Type != model.FormationContinuous {
		verr.Add("type", "must be initial or continuous")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	f := &model.Formation{
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		DurationHours: in.DurationHours,
		PriceCents:    in.PriceCents,
		Type:          in.Type,
		IsActive:      true,
	}
	if err := s.catalog.CreateFormation(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeactivateFormation hides a formation.  Formations are never deleted.
func (s *CatalogService) DeactivateFormation(ctx context.Context, caller booking.Caller, id uint64) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	return s.catalog.SetFormationActive(ctx, id, false)
}

// SessionInput is the admin payload for a new session.
type SessionInput struct {
	FormationID     uint64
	StartDate       time.Time
	EndDate         time.Time
	MaxParticipants int
	Location        string
}

// CreateSession validates capacity and dates.  Capacity is only checked
// here; the availability engine assumes it is positive.
func (s *CatalogService) CreateSession(ctx context.Context, caller booking.Caller, in SessionInput) (*model.Session, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	verr := &booking.ValidationError{}
	if in.MaxParticipants <= 0 {
		verr.Add("max_participants", "must be greater than zero")
	}
	if in.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if in.EndDate.Before(in.StartDate) {
		verr.Add("end_date", "must not be before start_date")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	f, err := s.catalog.GetFormation(ctx, in.FormationID)
	if err != nil {
		return nil, err
	}
	if !f.IsActive {
		return nil, booking.NewValidationError("formation_id", "formation is not active")
	}
	sess := &model.Session{
		FormationID:     in.FormationID,
		StartDate:       in.StartDate.UTC(),
		EndDate:         in.EndDate.UTC(),
		MaxParticipants: in.MaxParticipants,
		Status:          model.SessionScheduled,
		Location:        in.Location,
	}
	if err := s.catalog.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
