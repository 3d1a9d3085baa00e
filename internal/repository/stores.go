package repository

import (
	"database/sql"

	"github.com/iliyamo/taxischool/internal/service"
)

var (
	_ service.UserStore        = (*UserRepo)(nil)
	_ service.CatalogStore     = (*CatalogRepo)(nil)
	_ service.ReservationStore = (*ReservationRepo)(nil)
	_ service.VehicleStore     = (*VehicleRepo)(nil)
	_ service.RentalStore      = (*RentalRepo)(nil)
	_ service.DocumentStore    = (*DocumentRepo)(nil)
)

// Stores bundles the MySQL repositories.
type Stores struct {
	Users        *UserRepo
	Catalog      *CatalogRepo
	Reservations *ReservationRepo
	Vehicles     *VehicleRepo
	Rentals      *RentalRepo
	Documents    *DocumentRepo
}

// NewStores builds every MySQL repository over one connection pool.
func NewStores(db *sql.DB) Stores {
	return Stores{
		Users:        NewUserRepo(db),
		Catalog:      NewCatalogRepo(db),
		Reservations: NewReservationRepo(db),
		Vehicles:     NewVehicleRepo(db),
		Rentals:      NewRentalRepo(db),
		Documents:    NewDocumentRepo(db),
	}
}
