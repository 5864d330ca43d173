package service

import (
	"testing"
	"time"

	"roomdesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestProject_VisibilityMatrix(t *testing.T) {
	day := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	statuses := []string{models.StatusPending, models.StatusApproved, models.StatusRejected}

	viewers := []struct {
		name    string
		viewer  models.Principal
		canView bool
	}{
		{"admin", models.Principal{ID: "admin-1", IsAdmin: true}, true},
		{"requester", models.Principal{ID: "u-1"}, true},
		{"stranger", models.Principal{ID: "u-2"}, false},
	}

	for _, status := range statuses {
		booking := &models.Booking{
			ID:          "b-1",
			RequesterID: "u-1",
			RoomID:      "room-1",
			EventName:   "Board meeting",
			Description: "Q1 numbers",
			Start:       day.Add(9 * time.Hour),
			End:         day.Add(11 * time.Hour),
			Status:      status,
		}

		for _, v := range viewers {
			t.Run(status+"/"+v.name, func(t *testing.T) {
				p := Project(booking, v.viewer)

				// Range and status are always visible.
				assert.Equal(t, booking.Start, p.Start)
				assert.Equal(t, booking.End, p.End)
				assert.Equal(t, status, p.Status)

				if v.canView {
					assert.Equal(t, "Board meeting", p.EventName)
					assert.Equal(t, "Q1 numbers", p.Description)
				} else {
					assert.Equal(t, models.PlaceholderEventName, p.EventName)
					assert.Empty(t, p.Description)
				}
			})
		}
	}
}

func TestProject_DoesNotMutateBooking(t *testing.T) {
	b := &models.Booking{ID: "b-1", RequesterID: "u-1", EventName: "Standup", Description: "daily"}
	_ = Project(b, models.Principal{ID: "stranger"})

	assert.Equal(t, "Standup", b.EventName)
	assert.Equal(t, "daily", b.Description)
}

func TestProjectAll(t *testing.T) {
	bookings := []models.Booking{
		{ID: "b-1", RequesterID: "u-1", EventName: "Mine"},
		{ID: "b-2", RequesterID: "u-2", EventName: "Theirs"},
	}

	projected := ProjectAll(bookings, models.Principal{ID: "u-1"})
	assert.Len(t, projected, 2)
	assert.Equal(t, "Mine", projected[0].EventName)
	assert.Equal(t, models.PlaceholderEventName, projected[1].EventName)

	assert.Empty(t, ProjectAll(nil, models.Principal{ID: "u-1"}))
}
