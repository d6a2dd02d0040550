package calcom

import "fmt"

// Booking represents a scheduled meeting returned by the Cal.com API.
// Start and End are UTC ISO-8601 strings as returned on the wire.
type Booking struct {
	ID          int        `json:"id"`
	UID         string     `json:"uid,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	Status      string     `json:"status"`
	Attendees   []Attendee `json:"attendees"`
	EventTypeID int        `json:"eventTypeId,omitempty"`
}

// Attendee represents a meeting participant
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone,omitempty"`
	Language string `json:"language,omitempty"`
}

// AvailableSlot is a single bookable start instant
type AvailableSlot struct {
	Time      string `json:"time"` // UTC ISO-8601
	Attendees int    `json:"attendees"`
}

// Location describes where a booking takes place, e.g. a video integration
type Location struct {
	Type        string `json:"type"`
	Integration string `json:"integration,omitempty"`
}

// BookingRequest is the outbound payload for creating a booking
type BookingRequest struct {
	EventTypeID     int       `json:"eventTypeId"`
	Start           string    `json:"start"` // UTC ISO-8601
	Attendee        Attendee  `json:"attendee"`
	Location        *Location `json:"location,omitempty"`
	LengthInMinutes int       `json:"lengthInMinutes,omitempty"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
}

// APIError wraps a failed call to the Cal.com API
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("cal.com API error (%d): %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("cal.com API request failed: %v", e.Err)
	}
	return fmt.Sprintf("cal.com API request failed: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// wireBooking tolerates both field spellings the API has used for the
// start/end instants ("start"/"end" in v2, "startTime"/"endTime" earlier)
type wireBooking struct {
	ID          int        `json:"id"`
	UID         string     `json:"uid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	Status      string     `json:"status"`
	Attendees   []Attendee `json:"attendees"`
	EventType   struct {
		ID int `json:"id"`
	} `json:"eventType"`
}

func (w wireBooking) toBooking() Booking {
	start := w.Start
	if start == "" {
		start = w.StartTime
	}
	end := w.End
	if end == "" {
		end = w.EndTime
	}
	return Booking{
		ID:          w.ID,
		UID:         w.UID,
		Title:       w.Title,
		Description: w.Description,
		Start:       start,
		End:         end,
		Status:      w.Status,
		Attendees:   w.Attendees,
		EventTypeID: w.EventType.ID,
	}
}
