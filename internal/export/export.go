// Package export renders reservations into an Excel workbook for the front desk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cabanas/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	sheetBookings  = "Reservas"
	sheetOccupancy = "Ocupación"
	displayDate    = "02.01.2006"
)

var bookingHeaders = []string{
	"Referencia", "Cabaña", "Huésped", "Email", "Teléfono", "Llegada", "Salida",
	"Noches", "Huéspedes", "Subtotal", "Impuestos", "Total", "Estado", "Notas",
}

type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

// NewExporter returns an exporter that archives workbooks under dir. An empty dir
// disables archiving.
func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// WriteBookings builds a workbook with a bookings list and a cabin-by-night occupancy grid.
func (e *Exporter) WriteBookings(bookings []*models.Booking, from, to time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetBookings)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeBookingList(f, bookings, from, to); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetOccupancy); err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	writeOccupancy(f, bookings, from, to)

	// drop the default sheet
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Archive stores a copy of the workbook and returns its path.
func (e *Exporter) Archive(data []byte, from, to time.Time) (string, error) {
	if e.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	fileName := fmt.Sprintf("reservas_%s_to_%s.xlsx", from.Format(models.DateLayout), to.Format(models.DateLayout))
	path := filepath.Join(e.dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", path).Msg("Excel file created")
	return path, nil
}

// FileName is the download name for a workbook covering [from, to].
func FileName(from, to time.Time) string {
	return fmt.Sprintf("reservas_%s_%s.xlsx", from.Format(models.DateLayout), to.Format(models.DateLayout))
}

func writeBookingList(f *excelize.File, bookings []*models.Booking, from, to time.Time) error {
	_ = f.SetCellValue(sheetBookings, "A1", fmt.Sprintf("Periodo: %s - %s", from.Format(displayDate), to.Format(displayDate)))
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(sheetBookings, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetBookings, "A1", "A1", titleStyle)

	headers := make([]interface{}, len(bookingHeaders))
	for i, h := range bookingHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheetBookings, "A2", &headers); err != nil {
		return fmt.Errorf("error writing headers: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetBookings, "A2", lastCol+"2", headerStyle)

	for i, b := range bookings {
		row := []interface{}{
			b.ID, b.CabinName, b.Name, b.Email, b.Phone,
			b.CheckIn.Format(displayDate), b.CheckOut.Format(displayDate),
			b.Nights, b.Guests, b.Subtotal, b.Taxes, b.Total, b.Status, b.SpecialRequests,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(sheetBookings, cell, &row); err != nil {
			return fmt.Errorf("error writing booking %s: %w", b.ID, err)
		}
	}

	_ = f.SetColWidth(sheetBookings, "A", "A", 22)
	_ = f.SetColWidth(sheetBookings, "B", lastCol, 16)
	return nil
}

// writeOccupancy lays out one row per cabin and one column per night in [from, to].
func writeOccupancy(f *excelize.File, bookings []*models.Booking, from, to time.Time) {
	type cabinRow struct{ id, name string }
	var cabins []cabinRow
	seen := make(map[string]bool)
	for _, b := range bookings {
		if !seen[b.CabinID] {
			seen[b.CabinID] = true
			cabins = append(cabins, cabinRow{b.CabinID, b.CabinName})
		}
	}
	sort.Slice(cabins, func(i, j int) bool { return cabins[i].name < cabins[j].name })

	rows := make(map[string]int, len(cabins))
	for i, c := range cabins {
		rows[c.id] = i + 2
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetCellValue(sheetOccupancy, cell, c.name)
	}

	busyStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true},
	})

	cols := make(map[string]int)
	col := 2
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 1)
		_ = f.SetCellValue(sheetOccupancy, cell, d.Format("02.01"))
		cols[d.Format(models.DateLayout)] = col
		col++
	}

	for _, b := range bookings {
		if b.Status != models.StatusConfirmed && b.Status != models.StatusPending {
			continue
		}
		// nights only: the checkout day is free for the next guest
		for d := b.CheckIn; d.Before(b.CheckOut); d = d.AddDate(0, 0, 1) {
			c, ok := cols[d.Format(models.DateLayout)]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c, rows[b.CabinID])
			_ = f.SetCellValue(sheetOccupancy, cell, fmt.Sprintf("%s\n%s", b.Name, b.ID))
			_ = f.SetCellStyle(sheetOccupancy, cell, cell, busyStyle)
		}
	}

	_ = f.SetColWidth(sheetOccupancy, "A", "A", 25)
}
