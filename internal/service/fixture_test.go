package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
	"github.com/iliyamo/taxischool/internal/repository/inmem"
	"github.com/iliyamo/taxischool/internal/service"
	"github.com/iliyamo/taxischool/internal/storage"
)

var (
	admin = booking.Caller{ID: 1, IsAdmin: true}
	anon  = booking.Caller{}
)

// recorder captures dispatched events and can be told to fail.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	fail   bool
}

func (r *recorder) Notify(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker down")
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store        *inmem.Store
	blobs        *storage.Memory
	notes        *recorder
	catalog      *service.CatalogService
	reservations *service.ReservationService
	rentals      *service.RentalService
	vehicles     *service.VehicleService
	tracking     *service.TrackingService
	documents    *service.DocumentService
	auth         *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := inmem.New()
	blobs := storage.NewMemory()
	notes := &recorder{}
	log := zap.NewNop()

	// id 1 is the admin account used by the admin caller
	require.NoError(t, st.UpsertUser(context.Background(), &model.User{
		Email: "admin@school.test", FirstName: "Ada", LastName: "Admin", Role: model.RoleAdmin, IsActive: true,
	}))

	return &fixture{
		store:        st,
		blobs:        blobs,
		notes:        notes,
		catalog:      service.NewCatalogService(st),
		reservations: service.NewReservationService(st, st, st, notes, log),
		rentals:      service.NewRentalService(st, st, st, notes, log, 4),
		vehicles:     service.NewVehicleService(st),
		tracking:     service.NewTrackingService(st, st),
		documents:    service.NewDocumentService(st, st, st, st, blobs, notes, log, 24*time.Hour),
		auth:         service.NewAuthService(st, "secret", 15),
	}
}

func (f *fixture) user(t *testing.T, email string) booking.Caller {
	t.Helper()
	u := &model.User{Email: email, FirstName: "Sam", LastName: "Driver", Role: model.RoleUser, IsActive: true}
	require.NoError(t, f.store.UpsertUser(context.Background(), u))
	return booking.Caller{ID: u.ID}
}

func (f *fixture) session(t *testing.T, capacity int) *model.Session {
	t.Helper()
	ctx := context.Background()
	form, err := f.catalog.CreateFormation(ctx, admin, service.FormationInput{
		Title: "Initial taxi licence", DurationHours: 140, PriceCents: 150000, Type: model.FormationInitial,
	})
	require.NoError(t, err)
	sess, err := f.catalog.CreateSession(ctx, admin, service.SessionInput{
		FormationID:     form.ID,
		StartDate:       time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 4, 12, 17, 0, 0, 0, time.UTC),
		MaxParticipants: capacity,
		Location:        "Lyon",
	})
	require.NoError(t, err)
	return sess
}

func (f *fixture) vehicle(t *testing.T, plate, category, modelName string) *model.Vehicle {
	t.Helper()
	v, err := f.vehicles.Create(context.Background(), admin, service.VehicleInput{
		Model: modelName, Plate: plate, Year: 2022, DailyRateCents: 4500, Category: category,
	})
	require.NoError(t, err)
	return v
}

func ptr(v uint64) *uint64 { return &v }
