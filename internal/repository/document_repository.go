package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
)

// DocumentRepo stores temp uploads and finalized documents.
type DocumentRepo struct{ DB *sql.DB }

// NewDocumentRepo creates a DocumentRepo backed by db.
func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

const tempColumns = "temp_id,title,original_name,storage_key,size_bytes,category,owner_type,owner_id,uploaded_by,created_at"

func scanTemp(row rowScanner) (*model.TempDocument, error) {
	var (
		d  model.TempDocument
		by sql.NullInt64
	)
	err := row.Scan(&d.TempID, &d.Title, &d.OriginalName, &d.StorageKey, &d.SizeBytes, &d.Category,
		&d.Owner.Type, &d.Owner.ID, &by, &d.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	d.UploadedBy = uintPtr(by)
	return &d, nil
}

func (r *DocumentRepo) CreateTempDocument(ctx context.Context, d *model.TempDocument) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO temp_documents
        (temp_id, title, original_name, storage_key, size_bytes, category, owner_type, owner_id, uploaded_by, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)`
	_, err := r.DB.ExecContext(ctx, q, d.TempID, d.Title, d.OriginalName, d.StorageKey, d.SizeBytes,
		d.Category, d.Owner.Type, d.Owner.ID, nullUint(d.UploadedBy), d.CreatedAt)
	return translate(err)
}

func (r *DocumentRepo) GetTempDocument(ctx context.Context, tempID string) (*model.TempDocument, error) {
	return scanTemp(r.DB.QueryRowContext(ctx, "SELECT "+tempColumns+" FROM temp_documents WHERE temp_id=?", tempID))
}

func (r *DocumentRepo) DeleteTempDocument(ctx context.Context, tempID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM temp_documents WHERE temp_id=?", tempID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// ListTempDocumentsBefore returns temp uploads created before the
// cutoff, oldest first, skipping the first offset rows.
func (r *DocumentRepo) ListTempDocumentsBefore(ctx context.Context, before time.Time, offset, limit int) ([]model.TempDocument, error) {
	if limit <= 0 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tempColumns+" FROM temp_documents WHERE created_at < ? ORDER BY created_at, temp_id LIMIT ? OFFSET ?",
		before, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TempDocument{}
	for rows.Next() {
		d, err := scanTemp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

const documentColumns = "id,title,original_name,storage_key,size_bytes,category,owner_type,owner_id,uploaded_by,created_at"

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d  model.Document
		by sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.Title, &d.OriginalName, &d.StorageKey, &d.SizeBytes, &d.Category,
		&d.Owner.Type, &d.Owner.ID, &by, &d.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	d.UploadedBy = uintPtr(by)
	return &d, nil
}

func (r *DocumentRepo) CreateDocument(ctx context.Context, d *model.Document) error {
	const q = `INSERT INTO documents
        (title, original_name, storage_key, size_bytes, category, owner_type, owner_id, uploaded_by)
        VALUES (?,?,?,?,?,?,?,?)`
	res, err := r.DB.ExecContext(ctx, q, d.Title, d.OriginalName, d.StorageKey, d.SizeBytes,
		d.Category, d.Owner.Type, d.Owner.ID, nullUint(d.UploadedBy))
	if err != nil {
		return translate(err)
	}
	id, err := insertID(res)
	if err != nil {
		return err
	}
	stored, err := scanDocument(r.DB.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id=?", id))
	if err != nil {
		return err
	}
	*d = *stored
	return nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context, owner model.DocumentOwner) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE owner_type=? AND owner_id=? ORDER BY id", owner.Type, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
