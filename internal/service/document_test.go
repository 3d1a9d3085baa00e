package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
	"github.com/iliyamo/taxischool/internal/service"
	"github.com/iliyamo/taxischool/internal/storage"
)

func upload(name string, size int, ownerType model.OwnerType, ownerID uint64) service.UploadInput {
	return service.UploadInput{
		Title:     "Driving licence",
		Category:  "license",
		OwnerType: string(ownerType),
		OwnerID:   ownerID,
		FileName:  name,
		Size:      int64(size),
		Body:      bytes.NewReader(make([]byte, size)),
	}
}

func TestUploadAndFinalize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	td, err := f.documents.UploadTemp(ctx, anon, upload("licence.PDF", 5<<20, model.OwnerVehicleRental, r.ID))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(td.StorageKey, "temp/"))
	assert.Equal(t, []string{td.StorageKey}, f.blobs.Keys())

	res, err := f.documents.Finalize(ctx, anon, service.FinalizeInput{
		TempIDs: []string{td.TempID}, OwnerType: "vehicle_rental", OwnerID: r.ID,
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Empty(t, res.Skipped)

	doc := res.Documents[0]
	assert.Equal(t, model.DocumentOwner{Type: model.OwnerVehicleRental, ID: r.ID}, doc.Owner)
	assert.True(t, strings.HasPrefix(doc.StorageKey, "licenses/"))
	assert.True(t, strings.HasSuffix(doc.StorageKey, ".pdf"))
	assert.Equal(t, []string{doc.StorageKey}, f.blobs.Keys())

	_, err = f.store.GetTempDocument(ctx, td.TempID)
	assert.ErrorIs(t, err, booking.ErrNotFound)

	docs, err := f.documents.ListForRental(ctx, admin, r.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)

	assert.Equal(t, []string{queue.EventDocumentsAdded}, f.notes.types())
}

func TestUploadRejectsBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	_, err = f.documents.UploadTemp(ctx, anon, upload("setup.exe", 1024, model.OwnerVehicleRental, r.ID))
	assert.ErrorIs(t, err, booking.ErrInvalidFile)

	_, err = f.documents.UploadTemp(ctx, anon, upload("scan.pdf", 11<<20, model.OwnerVehicleRental, r.ID))
	assert.ErrorIs(t, err, booking.ErrInvalidFile)

	_, err = f.documents.UploadTemp(ctx, anon, upload("scan.pdf", 1024, model.OwnerVehicleRental, 9999))
	assert.ErrorIs(t, err, booking.ErrNotFound)

	_, err = f.documents.UploadTemp(ctx, anon, upload("scan.pdf", 1024, "invoice", r.ID))
	var verr *booking.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Empty(t, f.blobs.Keys())
	left, err := f.store.ListTempDocumentsBefore(ctx, time.Now().Add(time.Hour), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestUploadRejectsOversizedMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	in := upload(strings.Repeat("n", 300)+".pdf", 10, model.OwnerVehicleRental, r.ID)
	in.Title = strings.Repeat("t", 500)
	in.Category = strings.Repeat("c", 100)
	_, err = f.documents.UploadTemp(ctx, anon, in)
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "file")

	assert.Empty(t, f.blobs.Keys())
	left, err := f.store.ListTempDocumentsBefore(ctx, time.Now().Add(time.Hour), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestUploadDerivedTitleFitsColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	in := upload(strings.Repeat("n", 240)+".pdf", 10, model.OwnerVehicleRental, r.ID)
	in.Title = ""
	td, err := f.documents.UploadTemp(ctx, anon, in)
	require.NoError(t, err)
	assert.Len(t, td.Title, booking.MaxTitleLen)
}

func TestFormationUploadsNeedAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, 3)

	_, err := f.documents.UploadTemp(ctx, f.user(t, "m@x.test"), upload("program.pdf", 10, model.OwnerFormation, sess.FormationID))
	assert.ErrorIs(t, err, booking.ErrForbidden)

	_, err = f.documents.UploadTemp(ctx, admin, upload("program.pdf", 10, model.OwnerFormation, sess.FormationID))
	assert.NoError(t, err)
}

func TestFinalizeSkipsBadItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)
	r2, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-04-01", "2024-04-05"))
	require.NoError(t, err)

	good, err := f.documents.UploadTemp(ctx, anon, upload("a.pdf", 10, model.OwnerVehicleRental, r1.ID))
	require.NoError(t, err)
	lost, err := f.documents.UploadTemp(ctx, anon, upload("b.pdf", 10, model.OwnerVehicleRental, r1.ID))
	require.NoError(t, err)
	foreign, err := f.documents.UploadTemp(ctx, anon, upload("c.pdf", 10, model.OwnerVehicleRental, r2.ID))
	require.NoError(t, err)
	require.NoError(t, f.blobs.Delete(ctx, lost.StorageKey))

	res, err := f.documents.Finalize(ctx, anon, service.FinalizeInput{
		TempIDs:   []string{good.TempID, lost.TempID, foreign.TempID, "missing"},
		OwnerType: "vehicle_rental",
		OwnerID:   r1.ID,
	})
	require.NoError(t, err)
	assert.Len(t, res.Documents, 1)
	assert.ElementsMatch(t, []string{lost.TempID, foreign.TempID, "missing"}, res.Skipped)

	_, err = f.store.GetTempDocument(ctx, foreign.TempID)
	assert.NoError(t, err, "another rental's upload is left alone")
	_, err = f.store.GetTempDocument(ctx, lost.TempID)
	assert.ErrorIs(t, err, booking.ErrNotFound, "row without file is dropped")
}

func TestCleanupExpiredTempDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	fresh, err := f.documents.UploadTemp(ctx, anon, upload("a.pdf", 10, model.OwnerVehicleRental, r.ID))
	require.NoError(t, err)
	stale := &model.TempDocument{
		TempID:     "stale",
		StorageKey: "temp/stale.pdf",
		SizeBytes:  3,
		Owner:      model.DocumentOwner{Type: model.OwnerVehicleRental, ID: r.ID},
		CreatedAt:  time.Now().UTC().Add(-25 * time.Hour),
	}
	require.NoError(t, f.blobs.Put(ctx, stale.StorageKey, strings.NewReader("old"), 3))
	require.NoError(t, f.store.CreateTempDocument(ctx, stale))

	n, err := f.documents.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{fresh.StorageKey}, f.blobs.Keys())
	_, err = f.store.GetTempDocument(ctx, fresh.TempID)
	assert.NoError(t, err)
}

// stuckBlobs refuses to delete one key.
type stuckBlobs struct {
	*storage.Memory
	stuck string
}

func (b *stuckBlobs) Delete(ctx context.Context, key string) error {
	if key == b.stuck {
		return errors.New("permission denied")
	}
	return b.Memory.Delete(ctx, key)
}

func TestCleanupContinuesPastFailingBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	blobs := &stuckBlobs{Memory: storage.NewMemory(), stuck: "temp/old0.pdf"}
	docs := service.NewDocumentService(f.store, f.store, f.store, f.store, blobs, f.notes, zap.NewNop(), 24*time.Hour)

	base := time.Now().UTC().Add(-48 * time.Hour)
	for i := 0; i < 5; i++ {
		td := &model.TempDocument{
			TempID:     fmt.Sprintf("old%d", i),
			StorageKey: fmt.Sprintf("temp/old%d.pdf", i),
			SizeBytes:  3,
			Owner:      model.DocumentOwner{Type: model.OwnerVehicleRental, ID: r.ID},
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, blobs.Put(ctx, td.StorageKey, strings.NewReader("old"), 3))
		require.NoError(t, f.store.CreateTempDocument(ctx, td))
	}

	n, err := docs.CleanupExpired(ctx)
	assert.Equal(t, 4, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temp/old0.pdf")
	assert.Equal(t, []string{"temp/old0.pdf"}, blobs.Keys())

	left, err := f.store.ListTempDocumentsBefore(ctx, time.Now(), 0, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "old0", left[0].TempID)

	// the stuck item is retried on the next run without blocking it
	n, err = docs.CleanupExpired(ctx)
	assert.Equal(t, 0, n)
	assert.Error(t, err)
}

func TestListForRentalChecksOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.rentals.Create(ctx, anon, rentalInput(0, "2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	_, err = f.documents.ListForRental(ctx, f.user(t, "m@x.test"), r.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)
	_, err = f.documents.ListForRental(ctx, booking.Caller{ID: r.UserID}, r.ID)
	assert.NoError(t, err)
}
