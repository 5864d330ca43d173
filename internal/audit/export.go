// Package audit exports the booking request ledger for offline
// review.
package audit

import (
	"fmt"
	"io"

	"roomdesk/internal/models"
)

var requestColumns = []string{
	"ID", "Room", "Event", "Requester", "Start", "End", "Status", "Comment", "Created",
}

const timestampLayout = "2006-01-02 15:04"

// Exporter builds XLSX exports of booking requests.
type Exporter struct {
	newWriter func() ExcelWriter
}

// NewExporter constructs an exporter backed by excelize.
func NewExporter() *Exporter {
	return &Exporter{newWriter: NewExcelizeWriter}
}

// NewExporterWithWriter constructs an exporter with a custom writer
// factory, used in tests.
func NewExporterWithWriter(factory func() ExcelWriter) *Exporter {
	return &Exporter{newWriter: factory}
}

// ExportRequests writes the bookings to w as a single-sheet workbook.
// roomNames maps room ids to display names; unknown rooms fall back
// to the raw id.
func (e *Exporter) ExportRequests(w io.Writer, bookings []models.Booking, roomNames map[string]string) error {
	writer := e.newWriter()
	defer writer.Close()

	if err := writer.AddSheet("Requests"); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writer.WriteHeader(requestColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range bookings {
		if err := writer.WriteRow(requestRowValues(&bookings[i], roomNames)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := writer.Save(w); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func requestRowValues(b *models.Booking, roomNames map[string]string) []interface{} {
	room := b.RoomID
	if name, ok := roomNames[b.RoomID]; ok {
		room = name
	}
	return []interface{}{
		b.ID,
		room,
		b.EventName,
		b.RequesterID,
		b.Start.Format(timestampLayout),
		b.End.Format(timestampLayout),
		b.Status,
		b.Comment,
		b.CreatedAt.Format(timestampLayout),
	}
}
