package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

// ReservationRepo stores session reservations.  Reservations are never
// deleted; cancellation is a status change.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo creates a ReservationRepo backed by db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "id,user_id,session_id,status,notes,invoice_id,payment_id,created_at,updated_at"

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res              model.Reservation
		notes            sql.NullString
		invoice, payment sql.NullInt64
	)
	err := row.Scan(&res.ID, &res.UserID, &res.SessionID, &res.Status, &notes,
		&invoice, &payment, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	res.Notes = notes.String
	res.InvoiceID, res.PaymentID = uintPtr(invoice), uintPtr(payment)
	return &res, nil
}

// CreateReservation locks the session row, builds the snapshot the guard
// needs and inserts res in the same transaction.  A concurrent request
// for the same session waits on the lock and then sees this insert.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation, check func(service.SessionSnapshot) error) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		sess, err := getSession(ctx, tx, res.SessionID, true)
		if err != nil {
			return err
		}
		form, err := scanFormation(tx.QueryRowContext(ctx,
			"SELECT "+formationColumns+" FROM formations WHERE id=?", sess.FormationID))
		if err != nil {
			return err
		}
		snap := service.SessionSnapshot{Session: *sess, Formation: *form}
		const dup = `SELECT EXISTS(SELECT 1 FROM reservations
                      WHERE session_id = ? AND user_id = ? AND status <> 'cancelled')`
		if err := tx.QueryRowContext(ctx, dup, res.SessionID, res.UserID).Scan(&snap.UserHasBooking); err != nil {
			return err
		}
		if err := check(snap); err != nil {
			return err
		}

		const ins = `INSERT INTO reservations (user_id, session_id, status, notes) VALUES (?,?,?,?)`
		result, err := tx.ExecContext(ctx, ins, res.UserID, res.SessionID, res.Status, nullString(res.Notes))
		if err != nil {
			return translate(err)
		}
		id, err := insertID(result)
		if err != nil {
			return err
		}
		stored, err := scanReservation(tx.QueryRowContext(ctx,
			"SELECT "+reservationColumns+" FROM reservations WHERE id=?", id))
		if err != nil {
			return err
		}
		*res = *stored
		return nil
	})
}

func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=?", id))
}

func (r *ReservationRepo) ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// UpdateReservation locks the reservation row while apply decides the
// new status.
func (r *ReservationRepo) UpdateReservation(ctx context.Context, id uint64, apply func(*model.Reservation) error) (*model.Reservation, error) {
	var out *model.Reservation
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := scanReservation(tx.QueryRowContext(ctx,
			"SELECT "+reservationColumns+" FROM reservations WHERE id=? FOR UPDATE", id))
		if err != nil {
			return err
		}
		if err := apply(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE reservations SET status=? WHERE id=?", res.Status, id); err != nil {
			return err
		}
		out, err = scanReservation(tx.QueryRowContext(ctx,
			"SELECT "+reservationColumns+" FROM reservations WHERE id=?", id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
