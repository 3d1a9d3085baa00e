package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/metrics"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
	"github.com/iliyamo/taxischool/internal/storage"
)

const sweepBatch = 100

// DocumentService runs the two-phase upload: files land in the temp
// partition first and are moved to permanent storage on finalize.
type DocumentService struct {
	docs    DocumentStore
	rentals RentalStore
	catalog CatalogStore
	users   UserStore
	blobs   storage.BlobStore
	notify  dispatcher
	log     *zap.Logger
	ttl     time.Duration    // age after which temp uploads are swept
	now     func() time.Time // UTC clock
}

// NewDocumentService creates a DocumentService.  Temp uploads older than
// ttl are removed by CleanupExpired; events go through n after commit.
func NewDocumentService(docs DocumentStore, rentals RentalStore, catalog CatalogStore, users UserStore,
	blobs storage.BlobStore, n Notifier, log *zap.Logger, ttl time.Duration) *DocumentService {
	return &DocumentService{
		docs:    docs,
		rentals: rentals,
		catalog: catalog,
		users:   users,
		blobs:   blobs,
		notify:  dispatcher{n: n, log: log},
		log:     log,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// UploadInput describes one temp upload.
type UploadInput struct {
	Title     string
	Category  string
	OwnerType string
	OwnerID   uint64
	FileName  string
	Size      int64
	Body      io.Reader
}

// UploadTemp validates the file and its owner, then stores the blob and
// its temp record.  Nothing is written when validation fails.
func (s *DocumentService) UploadTemp(ctx context.Context, caller booking.Caller, in UploadInput) (*model.TempDocument, error) {
	ownerType, err := booking.ParseOwnerType(in.OwnerType)
	if err != nil {
		return nil, err
	}
	if in.OwnerID == 0 {
		return nil, booking.NewValidationError("owner_id", "is required")
	}
	fileName := path.Base(in.FileName)
	if err := booking.ValidateDocumentMeta(strings.TrimSpace(in.Title), strings.TrimSpace(in.Category), fileName); err != nil {
		return nil, err
	}
	ext, err := booking.ValidateUpload(fileName, in.Size)
	if err != nil {
		return nil, err
	}
	owner := model.DocumentOwner{Type: ownerType, ID: in.OwnerID}
	if err := s.checkOwner(ctx, caller, owner); err != nil {
		return nil, err
	}

	tempID := uuid.NewString()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = truncate(strings.TrimSuffix(fileName, path.Ext(fileName)), booking.MaxTitleLen)
	}
	td := &model.TempDocument{
		TempID:       tempID,
		Title:        title,
		OriginalName: fileName,
		StorageKey:   booking.TempKey(tempID, ext),
		SizeBytes:    in.Size,
		Category:     strings.ToLower(strings.TrimSpace(in.Category)),
		Owner:        owner,
		CreatedAt:    s.now(),
	}
	if caller.Authenticated() {
		id := caller.ID
		td.UploadedBy = &id
	}

	if err := s.blobs.Put(ctx, td.StorageKey, io.LimitReader(in.Body, booking.MaxUploadBytes), in.Size); err != nil {
		return nil, fmt.Errorf("store temp file: %w", err)
	}
	if err := s.docs.CreateTempDocument(ctx, td); err != nil {
		if derr := s.blobs.Delete(ctx, td.StorageKey); derr != nil {
			s.log.Warn("temp blob left behind", zap.String("temp_id", tempID), zap.Error(derr))
		}
		return nil, err
	}
	return td, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// checkOwner verifies the owner exists.  Formation documents are managed
// by admins only.
func (s *DocumentService) checkOwner(ctx context.Context, caller booking.Caller, owner model.DocumentOwner) error {
	switch owner.Type {
	case model.OwnerFormation:
		if err := caller.RequireAdmin(); err != nil {
			return err
		}
		_, err := s.catalog.GetFormation(ctx, owner.ID)
		return err
	case model.OwnerVehicleRental:
		_, err := s.rentals.GetRental(ctx, owner.ID)
		return err
	}
	return booking.NewValidationError("owner_type", "must be vehicle_rental or formation")
}

// FinalizeInput lists temp uploads to attach to one owner.
type FinalizeInput struct {
	TempIDs   []string
	OwnerType string
	OwnerID   uint64
}

// FinalizeResult reports what a finalize call did.  Skipped holds temp
// ids that were unknown, belonged to another owner or had lost their
// file.
type FinalizeResult struct {
	Documents []model.Document `json:"documents"`
	Skipped   []string         `json:"skipped"`
}

// Finalize moves each temp upload to permanent storage and records it as
// a document.  Items fail independently; a failed item is skipped and
// logged.
func (s *DocumentService) Finalize(ctx context.Context, caller booking.Caller, in FinalizeInput) (FinalizeResult, error) {
	res := FinalizeResult{Documents: []model.Document{}, Skipped: []string{}}
	ownerType, err := booking.ParseOwnerType(in.OwnerType)
	if err != nil {
		return res, err
	}
	if in.OwnerID == 0 {
		return res, booking.NewValidationError("owner_id", "is required")
	}
	if len(in.TempIDs) == 0 {
		return res, booking.NewValidationError("temp_ids", "must not be empty")
	}
	owner := model.DocumentOwner{Type: ownerType, ID: in.OwnerID}
	if err := s.checkOwner(ctx, caller, owner); err != nil {
		return res, err
	}

	for _, tempID := range in.TempIDs {
		doc, err := s.finalizeOne(ctx, tempID, owner)
		if err != nil {
			metrics.Documents.WithLabelValues("skipped").Inc()
			s.log.Warn("temp document skipped", zap.String("temp_id", tempID), zap.Error(err))
			res.Skipped = append(res.Skipped, tempID)
			continue
		}
		metrics.Documents.WithLabelValues("finalized").Inc()
		res.Documents = append(res.Documents, *doc)
	}

	if len(res.Documents) > 0 {
		s.notifyAdded(ctx, owner, len(res.Documents))
	}
	return res, nil
}

func (s *DocumentService) finalizeOne(ctx context.Context, tempID string, owner model.DocumentOwner) (*model.Document, error) {
	td, err := s.docs.GetTempDocument(ctx, tempID)
	if err != nil {
		return nil, err
	}
	if td.Owner != owner {
		return nil, fmt.Errorf("%w: temp document belongs to %s %d", booking.ErrConflict, td.Owner.Type, td.Owner.ID)
	}

	permKey := booking.PermanentKey(td.Category, uuid.NewString(), path.Ext(td.StorageKey))
	if err := s.blobs.MoveToPermanent(ctx, td.StorageKey, permKey); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			// the row is useless without its file
			if derr := s.docs.DeleteTempDocument(ctx, tempID); derr != nil {
				s.log.Warn("orphan temp row not removed", zap.String("temp_id", tempID), zap.Error(derr))
			}
		}
		return nil, fmt.Errorf("move blob: %w", err)
	}

	doc := &model.Document{
		Title:        td.Title,
		OriginalName: td.OriginalName,
		StorageKey:   permKey,
		SizeBytes:    td.SizeBytes,
		Category:     td.Category,
		Owner:        owner,
		UploadedBy:   td.UploadedBy,
		CreatedAt:    s.now(),
	}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		if derr := s.blobs.Delete(ctx, permKey); derr != nil {
			s.log.Warn("permanent blob left behind", zap.String("key", permKey), zap.Error(derr))
		}
		return nil, err
	}
	if err := s.docs.DeleteTempDocument(ctx, tempID); err != nil && !errors.Is(err, booking.ErrNotFound) {
		s.log.Warn("temp row not removed after finalize", zap.String("temp_id", tempID), zap.Error(err))
	}
	return doc, nil
}

// ListForRental returns the documents of a rental to its owner or an
// admin.
func (s *DocumentService) ListForRental(ctx context.Context, caller booking.Caller, rentalID uint64) ([]model.Document, error) {
	r, err := s.rentals.GetRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if err := caller.Authorize(r.UserID); err != nil {
		return nil, err
	}
	return s.docs.ListDocuments(ctx, model.DocumentOwner{Type: model.OwnerVehicleRental, ID: rentalID})
}

// CleanupExpired deletes temp uploads older than the TTL together with
// their files and returns how many rows were removed.  An item that
// cannot be deleted is logged and left for the next run; the sweep goes
// on with the rest and reports all failures joined.
func (s *DocumentService) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	var (
		removed int
		failed  int // rows kept this run; they stay ahead of the unvisited ones
		errs    []error
	)
	for {
		batch, err := s.docs.ListTempDocumentsBefore(ctx, cutoff, failed, sweepBatch)
		if err != nil {
			errs = append(errs, err)
			return removed, errors.Join(errs...)
		}
		for _, td := range batch {
			if err := s.sweepOne(ctx, td); err != nil {
				failed++
				errs = append(errs, err)
				metrics.Documents.WithLabelValues("sweep_failed").Inc()
				s.log.Warn("temp document sweep failed", zap.String("temp_id", td.TempID), zap.Error(err))
				continue
			}
			removed++
		}
		if len(batch) < sweepBatch {
			return removed, errors.Join(errs...)
		}
	}
}

func (s *DocumentService) sweepOne(ctx context.Context, td model.TempDocument) error {
	if err := s.blobs.Delete(ctx, td.StorageKey); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return fmt.Errorf("delete temp blob %s: %w", td.StorageKey, err)
	}
	if err := s.docs.DeleteTempDocument(ctx, td.TempID); err != nil && !errors.Is(err, booking.ErrNotFound) {
		return fmt.Errorf("delete temp row %s: %w", td.TempID, err)
	}
	return nil
}

func (s *DocumentService) notifyAdded(ctx context.Context, owner model.DocumentOwner, count int) {
	if owner.Type != model.OwnerVehicleRental {
		return
	}
	r, err := s.rentals.GetRental(ctx, owner.ID)
	if err != nil {
		return
	}
	u, err := s.users.GetUser(ctx, r.UserID)
	if err != nil {
		s.log.Warn("notification skipped: user lookup failed", zap.Uint64("rental_id", r.ID), zap.Error(err))
		return
	}
	s.notify.send(ctx, queue.Event{
		Type:           queue.EventDocumentsAdded,
		RecipientEmail: u.Email,
		RecipientName:  u.FullName(),
		RentalID:       r.ID,
		TrackingToken:  r.TrackingToken,
		OwnerType:      string(owner.Type),
		OwnerID:        owner.ID,
		DocumentCount:  count,
	})
}
