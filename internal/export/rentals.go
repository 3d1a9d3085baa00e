// Package export renders admin spreadsheets.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/service"
)

const rentalsSheet = "Rentals"

var rentalsHeader = []string{
	"ID", "Status", "Start", "End", "Days", "Vehicle", "Plate",
	"Email", "First name", "Last name", "Phone",
	"Pickup", "Return", "Exam center", "Formula", "Financing",
	"Total (EUR)", "Created",
}

// RentalsWorkbook builds a one-sheet workbook, one row per record.  The
// caller owns the returned file and must Close it.
func RentalsWorkbook(records []service.RentalRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rentalsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range rentalsHeader {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(rentalsSheet, cell, h); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	end := colName(len(rentalsHeader)) + "1"
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(rentalsSheet, "A1", end, bold)
	}
	_ = f.AutoFilter(rentalsSheet, "A1:"+end, nil)

	widths := make([]int, len(rentalsHeader))
	for i, h := range rentalsHeader {
		widths[i] = len(h)
	}
	for i, rec := range records {
		row := rentalRow(rec)
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(rentalsSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set row %s: %w", cell, err)
		}
		for c, v := range row {
			if l := len(fmt.Sprint(v)); l > widths[c] {
				widths[c] = l
			}
		}
	}
	for c, w := range widths {
		width := float64(w) * 1.1
		if width < 10 {
			width = 10
		}
		if width > 40 {
			width = 40
		}
		col := colName(c + 1)
		_ = f.SetColWidth(rentalsSheet, col, col, width)
	}
	return f, nil
}

func rentalRow(rec service.RentalRecord) []any {
	r := rec.Rental
	var vehicle, plate, email, first, last, phone string
	if rec.Vehicle != nil {
		vehicle, plate = rec.Vehicle.Model, rec.Vehicle.Plate
	}
	if rec.User != nil {
		email, first, last, phone = rec.User.Email, rec.User.FirstName, rec.User.LastName, rec.User.Phone
	}
	return []any{
		r.ID,
		string(r.Status),
		r.StartDate.Format(booking.DateLayout),
		r.EndDate.Format(booking.DateLayout),
		booking.RentalRange(r).Days(),
		vehicle,
		plate,
		email,
		first,
		last,
		phone,
		r.PickupLocation,
		r.ReturnLocation,
		r.ExamCenter,
		r.Formula,
		r.FinancingMode,
		euros(r.TotalPriceCents),
		r.CreatedAt.UTC().Format("2006-01-02 15:04"),
	}
}

func euros(cents int64) string {
	s := strconv.FormatInt(cents/100, 10)
	rem := cents % 100
	if rem < 0 {
		rem = -rem
	}
	return fmt.Sprintf("%s.%02d", s, rem)
}

// colName maps 1 to A and 27 to AA.
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}
