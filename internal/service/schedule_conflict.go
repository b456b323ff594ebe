package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/campushq/sis-api/internal/models"
)

// SlotsConflict reports whether any slot in a overlaps any slot in b. Two
// slots conflict iff they share a day and their time windows overlap as
// half-open intervals: back-to-back slots sharing an endpoint do not
// conflict. Input order is irrelevant.
func SlotsConflict(a, b []models.MeetingSlot) bool {
	for _, sa := range a {
		for _, sb := range b {
			if slotOverlap(sa, sb) {
				return true
			}
		}
	}
	return false
}

func slotOverlap(a, b models.MeetingSlot) bool {
	if !strings.EqualFold(a.DayOfWeek, b.DayOfWeek) {
		return false
	}
	aStart, aEnd := slotMinutes(a)
	bStart, bEnd := slotMinutes(b)
	return aStart < bEnd && aEnd > bStart
}

// slotMinutes converts "15:04" times to minutes since midnight. Malformed
// times collapse to an empty interval, which can never overlap.
func slotMinutes(s models.MeetingSlot) (int, int) {
	start, okStart := parseMinutes(s.StartTime)
	end, okEnd := parseMinutes(s.EndTime)
	if !okStart || !okEnd {
		return 0, 0
	}
	return start, end
}

// parseSlotWindow validates a start/end pair and returns the window in
// minutes since midnight. The window must be non-empty.
func parseSlotWindow(start, end string) (int, int, error) {
	startMin, ok := parseMinutes(start)
	if !ok {
		return 0, 0, fmt.Errorf("invalid start time %q, expected HH:MM", start)
	}
	endMin, ok := parseMinutes(end)
	if !ok {
		return 0, 0, fmt.Errorf("invalid end time %q, expected HH:MM", end)
	}
	if startMin >= endMin {
		return 0, 0, fmt.Errorf("start time %s is not before end time %s", start, end)
	}
	return startMin, endMin, nil
}

func parseMinutes(raw string) (int, bool) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
