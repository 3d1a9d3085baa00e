//go:build testutil
// +build testutil

package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/repository"
	"github.com/iliyamo/taxischool/internal/service"
	"github.com/iliyamo/taxischool/internal/testutil/testdb"
)

func TestMySQLStores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	require.NoError(t, err)
	defer h.Close()

	st := repository.NewStores(h.DB)
	admin := booking.Caller{ID: 1, IsAdmin: true}
	require.NoError(t, st.Users.UpsertUser(ctx, &model.User{Email: "admin@school.test", Role: model.RoleAdmin}))

	t.Run("upsert fills blanks only", func(t *testing.T) {
		u := &model.User{Email: "Renter@X.test", LastName: "Renter"}
		require.NoError(t, st.Users.UpsertUser(ctx, u))
		again := &model.User{Email: "renter@x.test", FirstName: "Rita", LastName: "Other"}
		require.NoError(t, st.Users.UpsertUser(ctx, again))
		assert.Equal(t, u.ID, again.ID)
		assert.Equal(t, "Rita", again.FirstName)
		assert.Equal(t, "Renter", again.LastName)
	})

	t.Run("capacity holds under concurrent reservations", func(t *testing.T) {
		catalog := service.NewCatalogService(st.Catalog)
		reservations := service.NewReservationService(st.Reservations, st.Catalog, st.Users, nil, zap.NewNop())

		f, err := catalog.CreateFormation(ctx, admin, service.FormationInput{
			Title: "Continuous training", DurationHours: 14, PriceCents: 25000, Type: model.FormationContinuous,
		})
		require.NoError(t, err)
		sess, err := catalog.CreateSession(ctx, admin, service.SessionInput{
			FormationID: f.ID, StartDate: time.Now().AddDate(0, 1, 0), EndDate: time.Now().AddDate(0, 1, 2), MaxParticipants: 5,
		})
		require.NoError(t, err)

		callers := make([]booking.Caller, 30)
		for i := range callers {
			u := &model.User{Email: fmt.Sprintf("student%d@x.test", i), LastName: "S"}
			require.NoError(t, st.Users.UpsertUser(ctx, u))
			callers[i] = booking.Caller{ID: u.ID}
		}
		var wg sync.WaitGroup
		for _, c := range callers {
			wg.Add(1)
			go func(c booking.Caller) {
				defer wg.Done()
				_, _ = reservations.Reserve(ctx, c, service.ReserveInput{SessionID: sess.ID})
			}(c)
		}
		wg.Wait()

		got, err := st.Catalog.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, got.ActiveReservations, 5)
		assert.Positive(t, got.ActiveReservations)
	})

	t.Run("confirmed rentals never overlap", func(t *testing.T) {
		vehicles := service.NewVehicleService(st.Vehicles)
		rentals := service.NewRentalService(st.Rentals, st.Vehicles, st.Users, nil, zap.NewNop(), 4)
		tracking := service.NewTrackingService(st.Rentals, st.Vehicles)

		v, err := vehicles.Create(ctx, admin, service.VehicleInput{
			Model: "Skoda Octavia", Plate: "ZZ-001-ZZ", Year: 2023, DailyRateCents: 5000, Category: "sedan",
		})
		require.NoError(t, err)

		ids := make([]uint64, 8)
		for i := range ids {
			r, err := rentals.Create(ctx, booking.Caller{}, service.RentalInput{
				Email: "renter@x.test", LastName: "Renter", VehicleID: &v.ID,
				StartDate: "2024-03-01", EndDate: "2024-03-05",
			})
			require.NoError(t, err)
			assert.Equal(t, int64(25000), r.TotalPriceCents)
			ids[i] = r.ID
		}
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id uint64) {
				defer wg.Done()
				_, _ = rentals.UpdateStatus(ctx, admin, id, service.StatusChange{Status: model.StatusConfirmed})
			}(id)
		}
		wg.Wait()

		rng, err := booking.ParseDateRange("2024-03-05", "2024-03-09")
		require.NoError(t, err)
		blocking, err := st.Vehicles.ListBlockingRentals(ctx, rng, v.ID)
		require.NoError(t, err)
		require.Len(t, blocking, 1, "touching end date counts as overlap")

		view, err := tracking.Resolve(ctx, blocking[0].TrackingToken)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, view.Status)
		assert.Len(t, view.History, 2)
	})

	t.Run("temp documents round trip", func(t *testing.T) {
		owner := model.DocumentOwner{Type: model.OwnerFormation, ID: 1}
		td := &model.TempDocument{
			TempID: "8a4c2f0e-5a7b-4c1e-9f0a-0d2b1c3e4f56", Title: "Programme", OriginalName: "prog.pdf",
			StorageKey: "temp/8a4c2f0e-5a7b-4c1e-9f0a-0d2b1c3e4f56.pdf", SizeBytes: 12, Category: "programme",
			Owner: owner, CreatedAt: time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second),
		}
		require.NoError(t, st.Documents.CreateTempDocument(ctx, td))
		old, err := st.Documents.ListTempDocumentsBefore(ctx, time.Now().UTC().Add(-24*time.Hour), 0, 10)
		require.NoError(t, err)
		require.Len(t, old, 1)
		assert.Equal(t, owner, old[0].Owner)

		require.NoError(t, st.Documents.DeleteTempDocument(ctx, td.TempID))
		assert.ErrorIs(t, st.Documents.DeleteTempDocument(ctx, td.TempID), booking.ErrNotFound)
	})
}
