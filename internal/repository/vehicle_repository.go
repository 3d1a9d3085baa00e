package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
)

// VehicleRepo stores the fleet.
type VehicleRepo struct{ DB *sql.DB }

// NewVehicleRepo creates a VehicleRepo backed by db.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{DB: db} }

const vehicleColumns = "id,model,plate,year,daily_rate_cents,category,status,is_active,created_at,updated_at"

func scanVehicle(row rowScanner) (*model.Vehicle, error) {
	var v model.Vehicle
	err := row.Scan(&v.ID, &v.Model, &v.Plate, &v.Year, &v.DailyRateCents, &v.Category,
		&v.Status, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// ListVehicles returns vehicles ordered by category then model.
func (r *VehicleRepo) ListVehicles(ctx context.Context, activeOnly bool) ([]model.Vehicle, error) {
	q := "SELECT " + vehicleColumns + " FROM vehicles"
	if activeOnly {
		q += " WHERE is_active = 1"
	}
	q += " ORDER BY category, model, id"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *VehicleRepo) GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return scanVehicle(r.DB.QueryRowContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE id=?", id))
}

func (r *VehicleRepo) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	const q = `INSERT INTO vehicles (model, plate, year, daily_rate_cents, category, status, is_active)
               VALUES (?,?,?,?,?,?,?)`
	res, err := r.DB.ExecContext(ctx, q, v.Model, v.Plate, v.Year, v.DailyRateCents, v.Category, v.Status, v.IsActive)
	if err != nil {
		return translate(err)
	}
	id, err := insertID(res)
	if err != nil {
		return err
	}
	stored, err := r.GetVehicle(ctx, id)
	if err != nil {
		return err
	}
	*v = *stored
	return nil
}

func (r *VehicleRepo) ListBlockingRentals(ctx context.Context, rng booking.DateRange, vehicleID uint64) ([]model.VehicleRental, error) {
	return blockingRentals(ctx, r.DB, rng, vehicleID, 0)
}

// blockingRentals selects confirmed rentals whose closed date range
// shares a day with rng.
func blockingRentals(ctx context.Context, q querier, rng booking.DateRange, vehicleID, excludeID uint64) ([]model.VehicleRental, error) {
	query := "SELECT " + rentalColumns + ` FROM vehicle_rentals
              WHERE status = 'confirmed' AND vehicle_id IS NOT NULL
                AND NOT (end_date < ? OR start_date > ?) AND id <> ?`
	args := []any{rng.Start, rng.End, excludeID}
	if vehicleID != 0 {
		query += " AND vehicle_id = ?"
		args = append(args, vehicleID)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.VehicleRental{}
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rental)
	}
	return out, rows.Err()
}
