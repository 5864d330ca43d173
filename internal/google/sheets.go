// Package google mirrors the approved booking calendar into a Google
// Sheets spreadsheet for people who live in spreadsheets.
package google

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"roomdesk/internal/events"
	"roomdesk/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// BookingSource loads bookings for mirroring.
type BookingSource interface {
	ListBookingsByStatus(ctx context.Context, status string) ([]models.Booking, error)
}

var sheetColumns = []interface{}{
	"ID", "Room", "Event", "Requester", "Start", "End", "Approved At",
}

// SheetsService keeps a spreadsheet sheet in sync with the APPROVED
// booking set. It resyncs on a timer and immediately after approval
// or rejection events.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	source        BookingSource
	logger        *zerolog.Logger

	dirty atomic.Bool
	mu    sync.Mutex
	// rowCache maps booking id to sheet row, kept so incremental
	// updates stay possible if full resyncs ever get too expensive.
	rowCache map[string]int
}

// NewSheetsService builds the mirror from a service-account
// credentials file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, source BookingSource, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if sheetName == "" {
		sheetName = "Bookings"
	}

	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		source:        source,
		logger:        logger,
		rowCache:      make(map[string]int),
	}, nil
}

// SubscribeTo registers the mirror on the event bus. Creation events
// are ignored: pending requests are not part of the calendar mirror.
func (s *SheetsService) SubscribeTo(bus *events.EventBus) {
	handler := func(events.Event) error {
		s.dirty.Store(true)
		return nil
	}
	bus.Subscribe(events.TypeBookingApproved, handler)
	bus.Subscribe(events.TypeBookingRejected, handler)
}

// Start runs the sync loop until the context is cancelled.
func (s *SheetsService) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Dirty checks run on a short poll so approvals appear within
	// seconds rather than after a full interval.
	poll := time.NewTicker(5 * time.Second)
	defer poll.Stop()

	if err := s.SyncAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial sheets sync failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dirty.Store(true)
		case <-poll.C:
			if !s.dirty.Swap(false) {
				continue
			}
			if err := s.SyncAll(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sheets sync failed")
				s.dirty.Store(true)
			}
		}
	}
}

// SyncAll rewrites the sheet from the current APPROVED booking set.
func (s *SheetsService) SyncAll(ctx context.Context) error {
	bookings, err := s.source.ListBookingsByStatus(ctx, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("load approved bookings: %w", err)
	}

	values := [][]interface{}{sheetColumns}
	s.mu.Lock()
	s.rowCache = make(map[string]int, len(bookings))
	for i := range bookings {
		values = append(values, bookingRowValues(&bookings[i]))
		s.rowCache[bookings[i].ID] = len(values)
	}
	s.mu.Unlock()

	clearRange := fmt.Sprintf("%s!A:G", s.sheetName)
	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("%s!A1", s.sheetName), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}

	s.logger.Info().Int("bookings", len(bookings)).Msg("sheets mirror synced")
	return nil
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.RoomID,
		b.EventName,
		b.RequesterID,
		b.Start.Format("2006-01-02 15:04"),
		b.End.Format("2006-01-02 15:04"),
		b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
