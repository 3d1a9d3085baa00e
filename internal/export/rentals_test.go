package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

func TestColName(t *testing.T) {
	assert.Equal(t, "A", colName(1))
	assert.Equal(t, "Z", colName(26))
	assert.Equal(t, "AA", colName(27))
	assert.Equal(t, "AZ", colName(52))
}

func TestEuros(t *testing.T) {
	assert.Equal(t, "0.00", euros(0))
	assert.Equal(t, "135.00", euros(13500))
	assert.Equal(t, "12.05", euros(1205))
}

func TestRentalsWorkbook(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}
	vid := uint64(3)
	records := []service.RentalRecord{
		{
			Rental: model.VehicleRental{
				ID: 7, UserID: 2, VehicleID: &vid, Status: model.StatusConfirmed,
				StartDate: day("2025-03-10"), EndDate: day("2025-03-12"),
				ExamCenter: "Lyon Sud", TotalPriceCents: 13500, CreatedAt: day("2025-03-01"),
			},
			User:    &model.User{ID: 2, Email: "a@x.fr", FirstName: "Ana", LastName: "Roy"},
			Vehicle: &model.Vehicle{ID: 3, Model: "Peugeot 308", Plate: "AB-123-CD"},
		},
		{
			Rental: model.VehicleRental{
				ID: 8, UserID: 5, Status: model.StatusPending,
				StartDate: day("2025-03-15"), EndDate: day("2025-03-15"),
			},
		},
	}

	f, err := RentalsWorkbook(records)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rentalsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rentalsHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "7", first[0])
	assert.Equal(t, "confirmed", first[1])
	assert.Equal(t, "2025-03-10", first[2])
	assert.Equal(t, "3", first[4])
	assert.Equal(t, "AB-123-CD", first[6])
	assert.Equal(t, "a@x.fr", first[7])
	assert.Equal(t, "135.00", first[16])

	// no vehicle and no user still yields a row
	assert.Equal(t, "8", rows[2][0])
	assert.Equal(t, "1", rows[2][4])
}
