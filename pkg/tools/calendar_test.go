package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/calbolt/calbolt/pkg/calcom"
	"github.com/calbolt/calbolt/pkg/timeutil"
)

type fakeClient struct {
	slots    []calcom.AvailableSlot
	slotsErr error

	bookings    []calcom.Booking
	bookingsErr error

	created      *calcom.BookingRequest
	createResult *calcom.Booking
	createErr    error

	cancelCalls int
	cancelUID   string
	cancelOK    bool
	cancelErr   error

	rescheduleUID    string
	rescheduleStart  string
	rescheduleResult *calcom.Booking
	rescheduleErr    error
}

func (f *fakeClient) ListAvailableSlots(_ context.Context, _ int, _, _ string) ([]calcom.AvailableSlot, error) {
	return f.slots, f.slotsErr
}

func (f *fakeClient) CreateBooking(_ context.Context, req calcom.BookingRequest) (*calcom.Booking, error) {
	f.created = &req
	return f.createResult, f.createErr
}

func (f *fakeClient) ListBookings(_ context.Context) ([]calcom.Booking, error) {
	return f.bookings, f.bookingsErr
}

func (f *fakeClient) CancelBooking(_ context.Context, uid, _ string) (bool, error) {
	f.cancelCalls++
	f.cancelUID = uid
	return f.cancelOK, f.cancelErr
}

func (f *fakeClient) RescheduleBooking(_ context.Context, uid, newStart string) (*calcom.Booking, error) {
	f.rescheduleUID = uid
	f.rescheduleStart = newStart
	return f.rescheduleResult, f.rescheduleErr
}

func newTestTools(t *testing.T, client *fakeClient, zone string) *CalendarTools {
	t.Helper()
	tz, err := timeutil.NewConverter(zone)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	return NewCalendarTools(client, tz, 42)
}

func execute(t *testing.T, ct *CalendarTools, name string, args map[string]interface{}) *Result {
	t.Helper()
	reg := NewRegistry()
	if err := ct.RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	result, err := reg.Execute(context.Background(), name, args)
	if err != nil {
		t.Fatalf("Execute(%s): %v", name, err)
	}
	return result
}

func TestBookMeetingSuccess(t *testing.T) {
	client := &fakeClient{
		slots: []calcom.AvailableSlot{
			{Time: "2025-08-26T14:00:00Z"},
			{Time: "2025-08-26T14:30:00Z"},
		},
		createResult: &calcom.Booking{ID: 7, UID: "abc123", Title: "Planning"},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "book_meeting", map[string]interface{}{
		"date":           "2025-08-26",
		"time":           "14:00",
		"title":          "Planning",
		"attendee_name":  "Dana",
		"attendee_email": "dana@example.com",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if !strings.Contains(result.Output, "dana@example.com") {
		t.Errorf("confirmation missing attendee email: %q", result.Output)
	}
	if !strings.Contains(result.Output, "30 minutes") {
		t.Errorf("confirmation missing duration: %q", result.Output)
	}

	if client.created == nil {
		t.Fatal("CreateBooking was not called")
	}
	if client.created.EventTypeID != 42 {
		t.Errorf("EventTypeID = %d", client.created.EventTypeID)
	}
	if client.created.Start != "2025-08-26T14:00:00Z" {
		t.Errorf("Start = %q", client.created.Start)
	}
	if client.created.Location == nil || client.created.Location.Integration != "cal-video" {
		t.Errorf("Location = %+v", client.created.Location)
	}
	if client.created.Attendee.TimeZone != "UTC" || client.created.Attendee.Language != "en" {
		t.Errorf("Attendee = %+v", client.created.Attendee)
	}
}

func TestBookMeetingUnavailableListsAtMostFiveAlternatives(t *testing.T) {
	client := &fakeClient{
		slots: []calcom.AvailableSlot{
			{Time: "2025-08-26T09:00:00Z"},
			{Time: "2025-08-26T10:00:00Z"},
			{Time: "2025-08-26T11:00:00Z"},
			{Time: "2025-08-26T12:00:00Z"},
			{Time: "2025-08-26T13:00:00Z"},
			{Time: "2025-08-26T15:00:00Z"},
		},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "book_meeting", map[string]interface{}{
		"date":           "2025-08-26",
		"time":           "14:00",
		"title":          "Planning",
		"attendee_name":  "Dana",
		"attendee_email": "dana@example.com",
	})

	if result.Success {
		t.Fatal("expected unavailable result")
	}
	if client.created != nil {
		t.Error("CreateBooking must not be called when the slot is unavailable")
	}

	want := "Available times: 09:00 AM, 10:00 AM, 11:00 AM, 12:00 PM, 01:00 PM"
	if !strings.Contains(result.Error, want) {
		t.Errorf("alternatives wrong or not capped at five:\n%q", result.Error)
	}
	if strings.Contains(result.Error, "03:00 PM") {
		t.Errorf("sixth slot leaked into alternatives: %q", result.Error)
	}
}

func TestBookMeetingNoSlots(t *testing.T) {
	ct := newTestTools(t, &fakeClient{}, "UTC")

	result := execute(t, ct, "book_meeting", map[string]interface{}{
		"date":           "2025-08-26",
		"time":           "14:00",
		"title":          "Planning",
		"attendee_name":  "Dana",
		"attendee_email": "dana@example.com",
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "No availability found on 2025-08-26") {
		t.Errorf("unexpected message %q", result.Error)
	}
}

func TestBookMeetingMissingFields(t *testing.T) {
	client := &fakeClient{}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "book_meeting", map[string]interface{}{
		"date":           "2025-08-26",
		"time":           "14:00",
		"title":          "  ",
		"attendee_name":  "Dana",
		"attendee_email": "dana@example.com",
	})

	if result.Success {
		t.Fatal("expected failure for blank title")
	}
	if !strings.Contains(result.Error, "title") {
		t.Errorf("message should name the missing field: %q", result.Error)
	}
	if client.created != nil {
		t.Error("CreateBooking must not be called")
	}
}

func TestBookMeetingMalformedTime(t *testing.T) {
	ct := newTestTools(t, &fakeClient{}, "UTC")

	result := execute(t, ct, "book_meeting", map[string]interface{}{
		"date":           "2025-08-26",
		"time":           "2 in the afternoon",
		"title":          "Planning",
		"attendee_name":  "Dana",
		"attendee_email": "dana@example.com",
	})

	if result.Success {
		t.Fatal("expected failure for malformed time")
	}
	if !strings.Contains(result.Error, "could not interpret") {
		t.Errorf("unexpected message %q", result.Error)
	}
}

func TestCheckAvailabilityMinuteGranularity(t *testing.T) {
	client := &fakeClient{
		slots: []calcom.AvailableSlot{{Time: "2025-08-26T15:00:00Z"}},
	}
	ct := newTestTools(t, client, "UTC")

	avail, err := ct.checkAvailability(context.Background(), "2025-08-26", "15:00")
	if err != nil {
		t.Fatalf("checkAvailability: %v", err)
	}
	if !avail.match {
		t.Error("exact minute should match")
	}

	avail, err = ct.checkAvailability(context.Background(), "2025-08-26", "15:01")
	if err != nil {
		t.Fatalf("checkAvailability: %v", err)
	}
	if avail.match {
		t.Error("one minute off must not match")
	}
}

func TestListBookingsSortedWithParseFailurePlaceholder(t *testing.T) {
	client := &fakeClient{
		bookings: []calcom.Booking{
			{ID: 2, Title: "Late", Start: "2025-08-27T15:00:00Z", End: "2025-08-27T15:30:00Z", Status: "accepted"},
			{ID: 3, Title: "Broken", Start: "garbage", End: "garbage"},
			{ID: 1, Title: "Early", Start: "2025-08-26T15:00:00Z", End: "2025-08-26T15:30:00Z", Status: "accepted",
				Attendees: []calcom.Attendee{{Name: "Dana", Email: "dana@example.com"}}},
		},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "list_bookings", nil)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}

	early := strings.Index(result.Output, "Early")
	late := strings.Index(result.Output, "Late")
	if early == -1 || late == -1 || early > late {
		t.Errorf("bookings not sorted ascending:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "**Broken** (ID: 3) - Error parsing time details") {
		t.Errorf("parse failure placeholder missing:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "Dana (dana@example.com)") {
		t.Errorf("attendees not rendered inline:\n%s", result.Output)
	}
}

func TestListBookingsEmpty(t *testing.T) {
	ct := newTestTools(t, &fakeClient{}, "UTC")

	result := execute(t, ct, "list_bookings", nil)
	if !result.Success || result.Output != "No scheduled meetings found." {
		t.Errorf("got %+v", result)
	}
}

func TestCancelBookingWithoutUIDDoesNotCallAPI(t *testing.T) {
	client := &fakeClient{
		bookings: []calcom.Booking{
			{ID: 1, Title: "Standup", Start: "2025-08-26T15:00:00Z", End: "2025-08-26T15:30:00Z"},
		},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "cancel_booking", map[string]interface{}{
		"booking_identifier": "1",
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "no UID") {
		t.Errorf("unexpected message %q", result.Error)
	}
	if client.cancelCalls != 0 {
		t.Errorf("CancelBooking called %d times, want 0", client.cancelCalls)
	}
}

func TestCancelBookingSuccess(t *testing.T) {
	client := &fakeClient{
		bookings: []calcom.Booking{
			{ID: 1, UID: "uid-1", Title: "Standup", Start: "2025-08-26T15:00:00Z", End: "2025-08-26T15:30:00Z"},
		},
		cancelOK: true,
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "cancel_booking", map[string]interface{}{
		"booking_identifier": "standup",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if client.cancelUID != "uid-1" {
		t.Errorf("cancel UID = %q", client.cancelUID)
	}
	if !strings.Contains(result.Output, "User requested cancellation") {
		t.Errorf("default reason missing: %q", result.Output)
	}
}

func TestCancelBookingNotFoundEnumeratesBookings(t *testing.T) {
	client := &fakeClient{
		bookings: []calcom.Booking{
			{ID: 1, UID: "uid-1", Title: "Standup", Start: "2025-08-26T15:00:00Z"},
			{ID: 2, UID: "uid-2", Title: "Review", Start: "2025-08-27T15:00:00Z"},
		},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "cancel_booking", map[string]interface{}{
		"booking_identifier": "quarterly offsite",
	})

	if result.Success {
		t.Fatal("expected not-found result")
	}
	for _, want := range []string{"Standup", "Review", "uid-1", "uid-2", "ID: 1", "ID: 2"} {
		if !strings.Contains(result.Error, want) {
			t.Errorf("enumeration missing %q:\n%s", want, result.Error)
		}
	}
	if client.cancelCalls != 0 {
		t.Error("CancelBooking must not be called on a miss")
	}
}

func TestRescheduleBooking(t *testing.T) {
	client := &fakeClient{
		bookings: []calcom.Booking{
			// 45 minute meeting
			{ID: 1, UID: "uid-1", Title: "Design review", Start: "2025-08-26T15:00:00Z", End: "2025-08-26T15:45:00Z"},
		},
		slots: []calcom.AvailableSlot{
			{Time: "2025-08-27T16:00:00Z"},
		},
		rescheduleResult: &calcom.Booking{ID: 1, UID: "uid-1", Title: "Design review"},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "reschedule_booking", map[string]interface{}{
		"booking_identifier": "design",
		"new_date":           "2025-08-27",
		"new_time":           "16:00",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if client.rescheduleUID != "uid-1" || client.rescheduleStart != "2025-08-27T16:00:00Z" {
		t.Errorf("reschedule call = (%q, %q)", client.rescheduleUID, client.rescheduleStart)
	}
	if !strings.Contains(result.Output, "45 minutes") {
		t.Errorf("duration should come from the original booking: %q", result.Output)
	}
	if !strings.Contains(result.Output, "August 26, 2025 at 3:00 PM") {
		t.Errorf("original time missing: %q", result.Output)
	}
	if !strings.Contains(result.Output, "August 27, 2025 at 4:00 PM") {
		t.Errorf("new time missing: %q", result.Output)
	}
}

func TestRescheduleBookingUnavailable(t *testing.T) {
	client := &fakeClient{
		bookings: []calcom.Booking{
			{ID: 1, UID: "uid-1", Title: "Design review", Start: "2025-08-26T15:00:00Z", End: "2025-08-26T15:45:00Z"},
		},
		slots: []calcom.AvailableSlot{{Time: "2025-08-27T10:00:00Z"}},
	}
	ct := newTestTools(t, client, "UTC")

	result := execute(t, ct, "reschedule_booking", map[string]interface{}{
		"booking_identifier": "design",
		"new_date":           "2025-08-27",
		"new_time":           "16:00",
	})

	if result.Success {
		t.Fatal("expected unavailable result")
	}
	if client.rescheduleUID != "" {
		t.Error("RescheduleBooking must not be called when the new time is unavailable")
	}
	if !strings.Contains(result.Error, "not available") {
		t.Errorf("unexpected message %q", result.Error)
	}
}

func TestGetAvailableSlotsGroupsByLocalDate(t *testing.T) {
	// 2025-08-27T03:00:00Z is 2025-08-26 20:00 in Los Angeles: the group key
	// must follow the local date, not the UTC date.
	client := &fakeClient{
		slots: []calcom.AvailableSlot{
			{Time: "2025-08-27T03:00:00Z"},
			{Time: "2025-08-26T16:00:00Z"},
			{Time: "2025-08-26T15:00:00Z"},
		},
	}
	ct := newTestTools(t, client, "America/Los_Angeles")

	result := execute(t, ct, "get_available_slots", map[string]interface{}{
		"start_date": "2025-08-26",
		"end_date":   "2025-08-27",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if strings.Contains(result.Output, "August 27") {
		t.Errorf("all slots are August 26 local, got:\n%s", result.Output)
	}

	// times ascending within the group
	first := strings.Index(result.Output, "08:00 AM")
	second := strings.Index(result.Output, "09:00 AM")
	third := strings.Index(result.Output, "08:00 PM")
	if first == -1 || second == -1 || third == -1 || !(first < second && second < third) {
		t.Errorf("times not ascending:\n%s", result.Output)
	}
}

func TestGetAvailableSlotsDefaultsEndDate(t *testing.T) {
	ct := newTestTools(t, &fakeClient{}, "UTC")

	result := execute(t, ct, "get_available_slots", map[string]interface{}{
		"start_date": "2025-08-26",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.Output != "No available slots on 2025-08-26." {
		t.Errorf("got %q", result.Output)
	}
}

func TestToolsNeverReturnGoErrorsForAPIFailures(t *testing.T) {
	client := &fakeClient{
		slotsErr:    &calcom.APIError{StatusCode: 500, Message: "boom"},
		bookingsErr: &calcom.APIError{StatusCode: 500, Message: "boom"},
	}
	ct := newTestTools(t, client, "UTC")
	reg := NewRegistry()
	if err := ct.RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	calls := []struct {
		name string
		args map[string]interface{}
	}{
		{"book_meeting", map[string]interface{}{
			"date": "2025-08-26", "time": "14:00", "title": "x",
			"attendee_name": "Dana", "attendee_email": "dana@example.com",
		}},
		{"list_bookings", nil},
		{"cancel_booking", map[string]interface{}{"booking_identifier": "1"}},
		{"reschedule_booking", map[string]interface{}{
			"booking_identifier": "1", "new_date": "2025-08-26", "new_time": "14:00",
		}},
		{"get_available_slots", map[string]interface{}{"start_date": "2025-08-26"}},
	}

	for _, call := range calls {
		result, err := reg.Execute(context.Background(), call.name, call.args)
		if err != nil {
			t.Errorf("%s propagated an error: %v", call.name, err)
			continue
		}
		if result.Success {
			t.Errorf("%s reported success despite API failure", call.name)
		}
		if result.Error == "" {
			t.Errorf("%s returned no explanation", call.name)
		}
	}
}

func TestNowInjection(t *testing.T) {
	fixed := time.Date(2025, time.August, 26, 12, 0, 0, 0, time.UTC)
	ct := newTestTools(t, &fakeClient{}, "UTC")
	ct.now = func() time.Time { return fixed }

	if got := ct.localToday(); !got.Equal(fixed) {
		t.Errorf("localToday = %v", got)
	}
}
