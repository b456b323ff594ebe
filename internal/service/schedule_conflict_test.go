package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
)

func slot(day, start, end string) models.MeetingSlot {
	return models.MeetingSlot{DayOfWeek: day, StartTime: start, EndTime: end}
}

func TestSlotsConflictOverlap(t *testing.T) {
	a := []models.MeetingSlot{slot("MONDAY", "09:00", "10:30")}
	b := []models.MeetingSlot{slot("MONDAY", "10:00", "11:00")}
	assert.True(t, SlotsConflict(a, b))
	assert.True(t, SlotsConflict(b, a))
}

func TestSlotsConflictBackToBack(t *testing.T) {
	// Shared endpoint is not an overlap.
	a := []models.MeetingSlot{slot("MONDAY", "09:00", "10:00")}
	b := []models.MeetingSlot{slot("MONDAY", "10:00", "11:00")}
	assert.False(t, SlotsConflict(a, b))
	assert.False(t, SlotsConflict(b, a))
}

func TestSlotsConflictDifferentDays(t *testing.T) {
	a := []models.MeetingSlot{slot("MONDAY", "09:00", "10:00")}
	b := []models.MeetingSlot{slot("TUESDAY", "09:00", "10:00")}
	assert.False(t, SlotsConflict(a, b))
}

func TestSlotsConflictDayCaseInsensitive(t *testing.T) {
	a := []models.MeetingSlot{slot("Monday", "09:00", "10:00")}
	b := []models.MeetingSlot{slot("MONDAY", "09:30", "10:30")}
	assert.True(t, SlotsConflict(a, b))
}

func TestSlotsConflictContainment(t *testing.T) {
	a := []models.MeetingSlot{slot("FRIDAY", "09:00", "12:00")}
	b := []models.MeetingSlot{slot("FRIDAY", "10:00", "11:00")}
	assert.True(t, SlotsConflict(a, b))
}

func TestSlotsConflictAnyPairSuffices(t *testing.T) {
	a := []models.MeetingSlot{
		slot("MONDAY", "09:00", "10:00"),
		slot("WEDNESDAY", "14:00", "15:30"),
	}
	b := []models.MeetingSlot{
		slot("TUESDAY", "09:00", "10:00"),
		slot("WEDNESDAY", "15:00", "16:00"),
	}
	assert.True(t, SlotsConflict(a, b))
}

func TestSlotsConflictMalformedTimes(t *testing.T) {
	a := []models.MeetingSlot{slot("MONDAY", "not-a-time", "10:00")}
	b := []models.MeetingSlot{slot("MONDAY", "09:00", "10:00")}
	assert.False(t, SlotsConflict(a, b))
}

func TestSlotsConflictEmpty(t *testing.T) {
	assert.False(t, SlotsConflict(nil, nil))
	assert.False(t, SlotsConflict([]models.MeetingSlot{slot("MONDAY", "09:00", "10:00")}, nil))
}

func TestParseSlotWindow(t *testing.T) {
	start, end, err := parseSlotWindow("09:00", "10:30")
	require.NoError(t, err)
	assert.Equal(t, 540, start)
	assert.Equal(t, 630, end)

	_, _, err = parseSlotWindow("10:00", "10:00")
	assert.Error(t, err)

	_, _, err = parseSlotWindow("11:00", "10:00")
	assert.Error(t, err)

	_, _, err = parseSlotWindow("25:00", "26:00")
	assert.Error(t, err)
}
