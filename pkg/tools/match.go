package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/calbolt/calbolt/pkg/timeutil"
)

// maxAlternatives caps how many candidate times an unavailable result lists
const maxAlternatives = 5

// availability is the outcome of checking a requested local date/time against
// the slots returned for that date. The check is advisory: the scheduling API
// remains the source of truth and may still reject the subsequent call.
type availability struct {
	match        bool
	startUTC     string
	noSlots      bool
	alternatives []string // local "03:04 PM", API order, at most maxAlternatives
}

// checkAvailability converts the requested local date/time to UTC and matches
// it against the slots for that single date. A slot matches only when it
// equals the request at minute granularity.
func (c *CalendarTools) checkAvailability(ctx context.Context, date, clock string) (*availability, error) {
	startUTC, err := c.tz.ToUTC(date, clock)
	if err != nil {
		return nil, err
	}

	slots, err := c.client.ListAvailableSlots(ctx, c.eventTypeID, date, date)
	if err != nil {
		return nil, err
	}

	// ISO minute prefix, e.g. "2025-08-26T15:04"
	prefix := startUTC[:16]
	for _, slot := range slots {
		if strings.HasPrefix(slot.Time, prefix) {
			return &availability{match: true, startUTC: startUTC}, nil
		}
	}

	if len(slots) == 0 {
		return &availability{noSlots: true}, nil
	}

	alternatives := make([]string, 0, maxAlternatives)
	for _, slot := range slots {
		if len(alternatives) == maxAlternatives {
			break
		}
		local, err := c.tz.ToLocal(slot.Time)
		if err != nil {
			continue
		}
		alternatives = append(alternatives, timeutil.FormatClock12(local))
	}

	return &availability{alternatives: alternatives}, nil
}

// unavailableMessage renders the structured miss as user-facing text
func (a *availability) unavailableMessage(date, clock string) string {
	if a.noSlots {
		return fmt.Sprintf("No availability found on %s.", date)
	}
	return fmt.Sprintf("The requested time %s is not available on %s. Available times: %s",
		clock, date, strings.Join(a.alternatives, ", "))
}
