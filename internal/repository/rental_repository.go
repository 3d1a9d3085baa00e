package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
)

// RentalRepo stores vehicle rentals.  Writes that depend on the
// availability of a vehicle lock the vehicle row first.
type RentalRepo struct {
	db *sql.DB
}

// NewRentalRepo creates a RentalRepo backed by db.
func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{db: db} }

const rentalColumns = `id,user_id,vehicle_id,start_date,end_date,status,pickup_location,return_location,
exam_center,formula,financing_mode,total_price_cents,tracking_token,notes,admin_notes,invoice_id,created_at,updated_at`

func scanRental(row rowScanner) (*model.VehicleRental, error) {
	var (
		r                 model.VehicleRental
		vehicle, invoice  sql.NullInt64
		notes, adminNotes sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &vehicle, &r.StartDate, &r.EndDate, &r.Status,
		&r.PickupLocation, &r.ReturnLocation, &r.ExamCenter, &r.Formula, &r.FinancingMode,
		&r.TotalPriceCents, &r.TrackingToken, &notes, &adminNotes, &invoice, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	r.VehicleID, r.InvoiceID = uintPtr(vehicle), uintPtr(invoice)
	r.Notes, r.AdminNotes = notes.String, adminNotes.String
	return &r, nil
}

func lockVehicle(ctx context.Context, tx *sql.Tx, id uint64) (*model.Vehicle, error) {
	return scanVehicle(tx.QueryRowContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE id=? FOR UPDATE", id))
}

// CreateRental locks the requested vehicle, hands it and the confirmed
// rentals overlapping the range to check, then inserts r.  An unknown
// vehicle is passed to check as nil.
func (s *RentalRepo) CreateRental(ctx context.Context, r *model.VehicleRental, check func(*model.Vehicle, []model.VehicleRental) error) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			vehicle  *model.Vehicle
			blocking []model.VehicleRental
		)
		if r.VehicleID != nil {
			v, err := lockVehicle(ctx, tx, *r.VehicleID)
			switch {
			case err == nil:
				vehicle = v
				if blocking, err = blockingRentals(ctx, tx, booking.RentalRange(*r), v.ID, 0); err != nil {
					return err
				}
			case !errors.Is(err, booking.ErrNotFound):
				return err
			}
		}
		if err := check(vehicle, blocking); err != nil {
			return err
		}

		const ins = `INSERT INTO vehicle_rentals
            (user_id, vehicle_id, start_date, end_date, status, pickup_location, return_location,
             exam_center, formula, financing_mode, total_price_cents, tracking_token, notes)
            VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
		res, err := tx.ExecContext(ctx, ins, r.UserID, nullUint(r.VehicleID), r.StartDate, r.EndDate, r.Status,
			r.PickupLocation, r.ReturnLocation, r.ExamCenter, r.Formula, r.FinancingMode,
			r.TotalPriceCents, r.TrackingToken, nullString(r.Notes))
		if err != nil {
			return translate(err)
		}
		id, err := insertID(res)
		if err != nil {
			return err
		}
		stored, err := scanRental(tx.QueryRowContext(ctx, "SELECT "+rentalColumns+" FROM vehicle_rentals WHERE id=?", id))
		if err != nil {
			return err
		}
		*r = *stored
		return nil
	})
}

func (s *RentalRepo) GetRental(ctx context.Context, id uint64) (*model.VehicleRental, error) {
	return scanRental(s.db.QueryRowContext(ctx, "SELECT "+rentalColumns+" FROM vehicle_rentals WHERE id=?", id))
}

// GetRentalByToken matches the token exactly; the column uses a binary
// collation.
func (s *RentalRepo) GetRentalByToken(ctx context.Context, token string) (*model.VehicleRental, error) {
	return scanRental(s.db.QueryRowContext(ctx,
		"SELECT "+rentalColumns+" FROM vehicle_rentals WHERE tracking_token=? LIMIT 1", token))
}

func (s *RentalRepo) ListRentalsByUser(ctx context.Context, userID uint64) ([]model.VehicleRental, error) {
	return s.list(ctx, "WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
}

func (s *RentalRepo) ListRentals(ctx context.Context, from, to time.Time) ([]model.VehicleRental, error) {
	return s.list(ctx, "WHERE start_date BETWEEN ? AND ? ORDER BY start_date, id", from, to)
}

func (s *RentalRepo) list(ctx context.Context, where string, args ...any) ([]model.VehicleRental, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+rentalColumns+" FROM vehicle_rentals "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.VehicleRental{}
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpdateRental locks the vehicle (when assigned) and then the rental, so
// two confirmations on the same vehicle run one after the other.
func (s *RentalRepo) UpdateRental(ctx context.Context, id uint64, apply func(*model.VehicleRental, []model.VehicleRental) error) (*model.VehicleRental, error) {
	var out *model.VehicleRental
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		var vehicleID sql.NullInt64
		if err := tx.QueryRowContext(ctx, "SELECT vehicle_id FROM vehicle_rentals WHERE id=?", id).Scan(&vehicleID); err != nil {
			return translate(err)
		}
		if vehicleID.Valid {
			if _, err := lockVehicle(ctx, tx, uint64(vehicleID.Int64)); err != nil {
				return err
			}
		}
		r, err := scanRental(tx.QueryRowContext(ctx,
			"SELECT "+rentalColumns+" FROM vehicle_rentals WHERE id=? FOR UPDATE", id))
		if err != nil {
			return err
		}
		var blocking []model.VehicleRental
		if r.VehicleID != nil {
			if blocking, err = blockingRentals(ctx, tx, booking.RentalRange(*r), *r.VehicleID, r.ID); err != nil {
				return err
			}
		}
		if err := apply(r, blocking); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE vehicle_rentals SET status=?, admin_notes=? WHERE id=?",
			r.Status, nullString(r.AdminNotes), id); err != nil {
			return err
		}
		out, err = scanRental(tx.QueryRowContext(ctx, "SELECT "+rentalColumns+" FROM vehicle_rentals WHERE id=?", id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
