package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/taxischool/internal/model"
)

// CatalogRepo stores formations and their sessions.
type CatalogRepo struct{ DB *sql.DB }

// NewCatalogRepo creates a CatalogRepo backed by db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

const formationColumns = "id,title,description,duration_hours,price_cents,type,is_active,created_at,updated_at"

func scanFormation(row rowScanner) (*model.Formation, error) {
	var f model.Formation
	err := row.Scan(&f.ID, &f.Title, &f.Description, &f.DurationHours, &f.PriceCents,
		&f.Type, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *CatalogRepo) ListFormations(ctx context.Context, activeOnly bool) ([]model.Formation, error) {
	q := "SELECT " + formationColumns + " FROM formations"
	if activeOnly {
		q += " WHERE is_active = 1"
	}
	q += " ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Formation{}
	for rows.Next() {
		f, err := scanFormation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetFormation(ctx context.Context, id uint64) (*model.Formation, error) {
	return scanFormation(r.DB.QueryRowContext(ctx,
		"SELECT "+formationColumns+" FROM formations WHERE id=?", id))
}

func (r *CatalogRepo) CreateFormation(ctx context.Context, f *model.Formation) error {
	const q = `INSERT INTO formations (title, description, duration_hours, price_cents, type, is_active)
               VALUES (?,?,?,?,?,?)`
	res, err := r.DB.ExecContext(ctx, q, f.Title, f.Description, f.DurationHours, f.PriceCents, f.Type, f.IsActive)
	if err != nil {
		return translate(err)
	}
	id, err := insertID(res)
	if err != nil {
		return err
	}
	stored, err := r.GetFormation(ctx, id)
	if err != nil {
		return err
	}
	*f = *stored
	return nil
}

func (r *CatalogRepo) SetFormationActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE formations SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// unchanged rows report zero too
		if _, err := r.GetFormation(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// sessionSelect joins each session with its count of non-cancelled
// reservations.
const sessionSelect = `SELECT s.id, s.formation_id, s.start_date, s.end_date, s.max_participants,
       s.status, s.location, s.created_at, s.updated_at,
       (SELECT COUNT(*) FROM reservations r WHERE r.session_id = s.id AND r.status <> 'cancelled')
  FROM sessions s`

func scanSession(row rowScanner) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.FormationID, &s.StartDate, &s.EndDate, &s.MaxParticipants,
		&s.Status, &s.Location, &s.CreatedAt, &s.UpdatedAt, &s.ActiveReservations)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *CatalogRepo) CreateSession(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (formation_id, start_date, end_date, max_participants, status, location)
               VALUES (?,?,?,?,?,?)`
	res, err := r.DB.ExecContext(ctx, q, s.FormationID, s.StartDate, s.EndDate, s.MaxParticipants, s.Status, s.Location)
	if err != nil {
		return translate(err)
	}
	id, err := insertID(res)
	if err != nil {
		return err
	}
	stored, err := r.GetSession(ctx, id)
	if err != nil {
		return err
	}
	*s = *stored
	return nil
}

func (r *CatalogRepo) GetSession(ctx context.Context, id uint64) (*model.Session, error) {
	return getSession(ctx, r.DB, id, false)
}

// getSession reads one session.  With lock set the session row is held
// FOR UPDATE until the surrounding transaction ends.
func getSession(ctx context.Context, q querier, id uint64, lock bool) (*model.Session, error) {
	query := sessionSelect + " WHERE s.id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	return scanSession(q.QueryRowContext(ctx, query, id))
}

func (r *CatalogRepo) ListSessions(ctx context.Context, formationID uint64) ([]model.Session, error) {
	rows, err := r.DB.QueryContext(ctx, sessionSelect+" WHERE s.formation_id = ? ORDER BY s.start_date, s.id", formationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
