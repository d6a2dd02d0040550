package tools

import (
	"strconv"
	"strings"
	"time"

	"github.com/calbolt/calbolt/pkg/calcom"
	"github.com/calbolt/calbolt/pkg/timeutil"
)

// resolveBooking maps a free-form identifier to a booking from the freshly
// fetched list. Precedence: numeric id, exact UID, then first booking in list
// order matching a title substring, a time-of-day or date token, or a
// "today"/"tomorrow" reference. First match wins; there is no relevance
// ranking, so a title match on an earlier booking beats a time match on a
// later one.
func (c *CalendarTools) resolveBooking(identifier string, bookings []calcom.Booking) *calcom.Booking {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	if isAllDigits(identifier) {
		id, _ := strconv.Atoi(identifier)
		for i := range bookings {
			if bookings[i].ID == id {
				return &bookings[i]
			}
		}
	}

	for i := range bookings {
		if bookings[i].UID != "" && bookings[i].UID == identifier {
			return &bookings[i]
		}
	}

	lower := strings.ToLower(identifier)
	today := c.localToday()

	for i := range bookings {
		b := &bookings[i]

		if strings.Contains(strings.ToLower(b.Title), lower) {
			return b
		}

		local, err := c.tz.ToLocal(b.Start)
		if err != nil {
			continue
		}

		// e.g. "3pm" or "2025-08-26" appearing in the identifier
		if strings.Contains(lower, timeutil.FormatHourMeridiem(local)) ||
			strings.Contains(lower, timeutil.FormatDate(local)) {
			return b
		}

		if strings.Contains(lower, "today") && sameDate(local, today) {
			return b
		}
		if strings.Contains(lower, "tomorrow") && sameDate(local, today.AddDate(0, 0, 1)) {
			return b
		}
	}

	return nil
}

func (c *CalendarTools) localToday() time.Time {
	return c.now().In(c.tz.Location())
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
