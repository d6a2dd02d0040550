package tools

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/calbolt/calbolt/pkg/calcom"
	"github.com/calbolt/calbolt/pkg/timeutil"
)

func formatBookingConfirmation(b *calcom.Booking, local time.Time, durationMin int, attendeeName, attendeeEmail string) string {
	var sb strings.Builder
	sb.WriteString("Meeting successfully booked!\n\n")
	sb.WriteString("**Meeting Details:**\n")
	fmt.Fprintf(&sb, "- **Title:** %s\n", b.Title)
	fmt.Fprintf(&sb, "- **Date & Time:** %s\n", timeutil.FormatLong(local))
	fmt.Fprintf(&sb, "- **Duration:** %d minutes\n", durationMin)
	fmt.Fprintf(&sb, "- **Attendee:** %s (%s)\n", attendeeName, attendeeEmail)
	fmt.Fprintf(&sb, "- **Booking ID:** %d\n", b.ID)
	if b.UID != "" {
		fmt.Fprintf(&sb, "- **Booking UID:** %s\n", b.UID)
	}
	sb.WriteString("\nThe meeting has been confirmed and calendar invites will be sent to all attendees.")
	return sb.String()
}

func formatBookingList(bookings []calcom.Booking, tz *timeutil.Converter) string {
	var sb strings.Builder
	sb.WriteString("**Your Scheduled Meetings:**\n\n")

	for _, b := range bookings {
		start, startErr := tz.ToLocal(b.Start)
		end, endErr := tz.ToLocal(b.End)
		if startErr != nil || endErr != nil {
			fmt.Fprintf(&sb, "**%s** (ID: %d) - Error parsing time details\n\n", b.Title, b.ID)
			continue
		}

		attendees := make([]string, 0, len(b.Attendees))
		for _, a := range b.Attendees {
			name := a.Name
			if name == "" {
				name = "Unknown"
			}
			email := a.Email
			if email == "" {
				email = "No email"
			}
			attendees = append(attendees, fmt.Sprintf("%s (%s)", name, email))
		}

		description := b.Description
		if description == "" {
			description = "No description"
		}

		fmt.Fprintf(&sb, "**%s** (ID: %d)\n", b.Title, b.ID)
		fmt.Fprintf(&sb, "- **Date & Time:** %s - %s\n", timeutil.FormatLong(start), timeutil.FormatClock12(end))
		fmt.Fprintf(&sb, "- **Status:** %s\n", titleCase(b.Status))
		fmt.Fprintf(&sb, "- **Attendees:** %s\n", strings.Join(attendees, ", "))
		fmt.Fprintf(&sb, "- **Description:** %s\n\n", description)
	}

	return strings.TrimSpace(sb.String())
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatNotFound(identifier string, bookings []calcom.Booking, tz *timeutil.Converter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Could not find a booking matching '%s'. Available bookings:\n", identifier)
	for _, b := range bookings {
		when := "unknown time"
		if local, err := tz.ToLocal(b.Start); err == nil {
			when = timeutil.FormatMonthDay(local)
		}
		uid := b.UID
		if uid == "" {
			uid = "none"
		}
		fmt.Fprintf(&sb, "- %s (ID: %d, UID: %s) - %s\n", b.Title, b.ID, uid, when)
	}
	return strings.TrimSpace(sb.String())
}

func formatCancelConfirmation(b *calcom.Booking, reason string, tz *timeutil.Converter) string {
	var sb strings.Builder
	sb.WriteString("**Meeting Canceled Successfully**\n\n")
	sb.WriteString("**Canceled Meeting:**\n")
	fmt.Fprintf(&sb, "- **Title:** %s\n", b.Title)
	if local, err := tz.ToLocal(b.Start); err == nil {
		fmt.Fprintf(&sb, "- **Date & Time:** %s\n", timeutil.FormatLong(local))
	}
	fmt.Fprintf(&sb, "- **Booking ID:** %d\n", b.ID)
	fmt.Fprintf(&sb, "- **Reason:** %s\n", reason)
	sb.WriteString("\nAll attendees will be notified of the cancellation.")
	return sb.String()
}

func formatRescheduleConfirmation(b *calcom.Booking, oldStart time.Time, oldStartErr error, newStart time.Time, durationMin int) string {
	var sb strings.Builder
	sb.WriteString("**Meeting Rescheduled Successfully**\n\n")
	if oldStartErr == nil {
		fmt.Fprintf(&sb, "**Original Time:** %s\n", timeutil.FormatLong(oldStart))
	}
	fmt.Fprintf(&sb, "**New Time:** %s\n\n", timeutil.FormatLong(newStart))
	sb.WriteString("**Meeting Details:**\n")
	fmt.Fprintf(&sb, "- **Title:** %s\n", b.Title)
	fmt.Fprintf(&sb, "- **Duration:** %d minutes\n", durationMin)
	fmt.Fprintf(&sb, "- **Booking ID:** %d\n", b.ID)
	sb.WriteString("\nAll attendees will be notified of the schedule change.")
	return sb.String()
}

// formatSlotGroups groups slots by local calendar date. A UTC slot near
// midnight may land on an adjacent local date, so grouping happens after
// conversion.
func formatSlotGroups(slots []calcom.AvailableSlot, tz *timeutil.Converter) string {
	groups := make(map[string][]time.Time)
	for _, slot := range slots {
		local, err := tz.ToLocal(slot.Time)
		if err != nil {
			continue
		}
		key := timeutil.FormatDate(local)
		groups[key] = append(groups[key], local)
	}

	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var sb strings.Builder
	sb.WriteString("**Available Slots:**\n\n")
	for _, date := range dates {
		times := groups[date]
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

		fmt.Fprintf(&sb, "**%s:**\n", times[0].Format("January 2, 2006"))
		for _, t := range times {
			fmt.Fprintf(&sb, "- %s\n", timeutil.FormatClock12(t))
		}
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}
