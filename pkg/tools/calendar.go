package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/calbolt/calbolt/pkg/calcom"
	"github.com/calbolt/calbolt/pkg/timeutil"
)

const (
	defaultDurationMinutes = 30
	attendeeLanguage       = "en"
	videoIntegration       = "cal-video"
	defaultCancelReason    = "User requested cancellation"
)

// SchedulingClient is the boundary to the external scheduling API consumed by
// the calendar tools
type SchedulingClient interface {
	ListAvailableSlots(ctx context.Context, eventTypeID int, startDate, endDate string) ([]calcom.AvailableSlot, error)
	CreateBooking(ctx context.Context, req calcom.BookingRequest) (*calcom.Booking, error)
	ListBookings(ctx context.Context) ([]calcom.Booking, error)
	CancelBooking(ctx context.Context, uid, reason string) (bool, error)
	RescheduleBooking(ctx context.Context, uid, newStartUTC string) (*calcom.Booking, error)
}

// CalendarTools holds the dependencies shared by the calendar tool handlers.
// The client is injected once at construction; there is no lazily initialized
// process-wide instance.
type CalendarTools struct {
	client      SchedulingClient
	tz          *timeutil.Converter
	eventTypeID int
	now         func() time.Time
}

// NewCalendarTools creates the calendar tool set against the given scheduling
// client, display timezone, and fixed event type
func NewCalendarTools(client SchedulingClient, tz *timeutil.Converter, eventTypeID int) *CalendarTools {
	return &CalendarTools{
		client:      client,
		tz:          tz,
		eventTypeID: eventTypeID,
		now:         time.Now,
	}
}

// RegisterAll registers the five calendar tools on the registry
func (c *CalendarTools) RegisterAll(reg *Registry) error {
	for _, def := range c.definitions() {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func (c *CalendarTools) definitions() []*Definition {
	book := NewParameterSchema()
	book.AddProperty("date", StringProperty("Date for the meeting in YYYY-MM-DD format"), true)
	book.AddProperty("time", StringProperty("Time for the meeting in HH:MM format (24-hour)"), true)
	book.AddProperty("title", StringProperty("Title/subject of the meeting"), true)
	book.AddProperty("attendee_name", StringProperty("Name of the attendee"), true)
	book.AddProperty("attendee_email", StringProperty("Email of the attendee"), true)
	book.AddProperty("description", StringPropertyDefault("Description or reason for the meeting", ""), false)

	list := NewParameterSchema()

	cancel := NewParameterSchema()
	cancel.AddProperty("booking_identifier", StringProperty("Booking ID or description to identify which booking to cancel"), true)
	cancel.AddProperty("reason", StringPropertyDefault("Reason for cancellation", defaultCancelReason), false)

	reschedule := NewParameterSchema()
	reschedule.AddProperty("booking_identifier", StringProperty("Booking ID or description to identify which booking to reschedule"), true)
	reschedule.AddProperty("new_date", StringProperty("New date for the meeting in YYYY-MM-DD format"), true)
	reschedule.AddProperty("new_time", StringProperty("New time for the meeting in HH:MM format (24-hour)"), true)

	slots := NewParameterSchema()
	slots.AddProperty("start_date", StringProperty("Start of the date range in YYYY-MM-DD format"), true)
	slots.AddProperty("end_date", StringProperty("End of the date range in YYYY-MM-DD format, defaults to the start date"), false)

	return []*Definition{
		{
			Name:        "book_meeting",
			Description: "Book a new meeting with the specified details. Use this when the user wants to schedule a new meeting or appointment. Requires date, time, title, and attendee information.",
			Parameters:  book,
			Handler:     c.handleBookMeeting,
		},
		{
			Name:        "list_bookings",
			Description: "List all scheduled meetings/bookings for the user. Use this when the user wants to see their upcoming appointments or scheduled events.",
			Parameters:  list,
			Handler:     c.handleListBookings,
		},
		{
			Name:        "cancel_booking",
			Description: "Cancel a scheduled meeting/booking. Use this when the user wants to cancel an existing appointment. Can identify the booking by ID or by description (title, time, etc.).",
			Parameters:  cancel,
			Handler:     c.handleCancelBooking,
		},
		{
			Name:        "reschedule_booking",
			Description: "Reschedule an existing meeting to a new date and time. Use this when the user wants to change the time of an existing appointment.",
			Parameters:  reschedule,
			Handler:     c.handleRescheduleBooking,
		},
		{
			Name:        "get_available_slots",
			Description: "Show open time slots on the calendar over a date range. Use this when the user asks what times are available.",
			Parameters:  slots,
			Handler:     c.handleGetAvailableSlots,
		},
	}
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (c *CalendarTools) handleBookMeeting(ctx context.Context, args map[string]interface{}) (*Result, error) {
	date := stringArg(args, "date")
	clock := stringArg(args, "time")
	title := stringArg(args, "title")
	attendeeName := stringArg(args, "attendee_name")
	attendeeEmail := stringArg(args, "attendee_email")
	description := stringArg(args, "description")

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"date", date},
		{"time", clock},
		{"title", title},
		{"attendee_name", attendeeName},
		{"attendee_email", attendeeEmail},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errorResult(fmt.Sprintf("Missing required fields for booking: %s.", strings.Join(missing, ", "))), nil
	}

	avail, err := c.checkAvailability(ctx, date, clock)
	if err != nil {
		return errorResult(fmt.Sprintf("Error booking meeting: %v", err)), nil
	}
	if !avail.match {
		return errorResult(avail.unavailableMessage(date, clock)), nil
	}

	booking, err := c.client.CreateBooking(ctx, calcom.BookingRequest{
		EventTypeID: c.eventTypeID,
		Start:       avail.startUTC,
		Attendee: calcom.Attendee{
			Name:     attendeeName,
			Email:    attendeeEmail,
			TimeZone: c.tz.Location().String(),
			Language: attendeeLanguage,
		},
		Location:        &calcom.Location{Type: "integration", Integration: videoIntegration},
		LengthInMinutes: defaultDurationMinutes,
		Title:           title,
		Description:     description,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Error booking meeting: %v", err)), nil
	}

	local, err := c.tz.ToLocal(avail.startUTC)
	if err != nil {
		// startUTC came from ToUTC so this should not happen
		return errorResult(fmt.Sprintf("Error booking meeting: %v", err)), nil
	}

	return textResult(formatBookingConfirmation(booking, local, defaultDurationMinutes, attendeeName, attendeeEmail)), nil
}

func (c *CalendarTools) handleListBookings(ctx context.Context, _ map[string]interface{}) (*Result, error) {
	bookings, err := c.client.ListBookings(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Error retrieving bookings: %v", err)), nil
	}

	if len(bookings) == 0 {
		return textResult("No scheduled meetings found."), nil
	}

	// Zero-padded fixed-width ISO strings sort chronologically
	sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].Start < bookings[j].Start })

	return textResult(formatBookingList(bookings, c.tz)), nil
}

func (c *CalendarTools) handleCancelBooking(ctx context.Context, args map[string]interface{}) (*Result, error) {
	identifier := stringArg(args, "booking_identifier")
	reason := stringArg(args, "reason")
	if reason == "" {
		reason = defaultCancelReason
	}

	bookings, err := c.client.ListBookings(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Error canceling booking: %v", err)), nil
	}
	if len(bookings) == 0 {
		return errorResult("No bookings found to cancel."), nil
	}

	booking := c.resolveBooking(identifier, bookings)
	if booking == nil {
		return errorResult(formatNotFound(identifier, bookings, c.tz)), nil
	}

	if booking.UID == "" {
		return errorResult(fmt.Sprintf("Cannot cancel %q (ID: %d): the booking has no UID, which the scheduling API requires for cancellation.", booking.Title, booking.ID)), nil
	}

	ok, err := c.client.CancelBooking(ctx, booking.UID, reason)
	if err != nil || !ok {
		return errorResult(fmt.Sprintf("Failed to cancel booking %d. Please try again or contact support.", booking.ID)), nil
	}

	return textResult(formatCancelConfirmation(booking, reason, c.tz)), nil
}

func (c *CalendarTools) handleRescheduleBooking(ctx context.Context, args map[string]interface{}) (*Result, error) {
	identifier := stringArg(args, "booking_identifier")
	newDate := stringArg(args, "new_date")
	newTime := stringArg(args, "new_time")

	bookings, err := c.client.ListBookings(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Error rescheduling booking: %v", err)), nil
	}
	if len(bookings) == 0 {
		return errorResult("No bookings found to reschedule."), nil
	}

	booking := c.resolveBooking(identifier, bookings)
	if booking == nil {
		return errorResult(formatNotFound(identifier, bookings, c.tz)), nil
	}
	if booking.UID == "" {
		return errorResult(fmt.Sprintf("Cannot reschedule %q (ID: %d): the booking has no UID, which the scheduling API requires for rescheduling.", booking.Title, booking.ID)), nil
	}

	avail, err := c.checkAvailability(ctx, newDate, newTime)
	if err != nil {
		return errorResult(fmt.Sprintf("Error rescheduling booking: %v", err)), nil
	}
	if !avail.match {
		return errorResult(avail.unavailableMessage(newDate, newTime)), nil
	}

	// Original duration, for display only: the scheduling API determines the
	// actual new end time.
	duration := defaultDurationMinutes
	oldStart, startErr := c.tz.ToLocal(booking.Start)
	if oldEnd, endErr := c.tz.ToLocal(booking.End); startErr == nil && endErr == nil {
		if d := int(oldEnd.Sub(oldStart).Minutes()); d > 0 {
			duration = d
		}
	}

	updated, err := c.client.RescheduleBooking(ctx, booking.UID, avail.startUTC)
	if err != nil || updated == nil {
		return errorResult(fmt.Sprintf("Failed to reschedule booking %d. Please try again or contact support.", booking.ID)), nil
	}

	newLocal, err := c.tz.ToLocal(avail.startUTC)
	if err != nil {
		return errorResult(fmt.Sprintf("Error rescheduling booking: %v", err)), nil
	}

	return textResult(formatRescheduleConfirmation(updated, oldStart, startErr, newLocal, duration)), nil
}

func (c *CalendarTools) handleGetAvailableSlots(ctx context.Context, args map[string]interface{}) (*Result, error) {
	startDate := stringArg(args, "start_date")
	endDate := stringArg(args, "end_date")
	if endDate == "" {
		endDate = startDate
	}

	slots, err := c.client.ListAvailableSlots(ctx, c.eventTypeID, startDate, endDate)
	if err != nil {
		return errorResult(fmt.Sprintf("Error retrieving available slots: %v", err)), nil
	}

	if len(slots) == 0 {
		if startDate == endDate {
			return textResult(fmt.Sprintf("No available slots on %s.", startDate)), nil
		}
		return textResult(fmt.Sprintf("No available slots between %s and %s.", startDate, endDate)), nil
	}

	return textResult(formatSlotGroups(slots, c.tz)), nil
}
