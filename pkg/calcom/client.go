// Package calcom is a thin client for the Cal.com v2 API. It issues
// synchronous requests with no retries or caching; callers decide how to
// surface failures.
package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the default Cal.com API base URL
	DefaultBaseURL = "https://api.cal.com/v2"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// Per-endpoint API versions required by Cal.com v2
	slotsAPIVersion    = "2024-09-04"
	bookingsAPIVersion = "2024-08-13"
)

// Client handles HTTP communication with the Cal.com API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Cal.com API client
func NewClient(apiKey string, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// doRequest performs an HTTP request to the Cal.com API
func (c *Client) doRequest(ctx context.Context, method, path, apiVersion string, body interface{}, result interface{}) error {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "failed to marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return &APIError{Message: "failed to create request", Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("cal-api-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: "request failed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
			Message string `json:"message"`
		}
		msg := string(respBody)
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			if errResp.Error.Message != "" {
				msg = errResp.Error.Message
			} else if errResp.Message != "" {
				msg = errResp.Message
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &APIError{Message: "failed to unmarshal response", Err: err}
		}
	}

	return nil
}

// ListAvailableSlots retrieves bookable start instants for an event type over
// a date range (inclusive, YYYY-MM-DD). The response groups slots by date;
// groups are flattened date-ascending with slot order preserved within each
// date.
func (c *Client) ListAvailableSlots(ctx context.Context, eventTypeID int, startDate, endDate string) ([]AvailableSlot, error) {
	params := url.Values{}
	params.Set("eventTypeId", strconv.Itoa(eventTypeID))
	params.Set("start", startDate)
	params.Set("end", endDate)

	var resp struct {
		Data map[string][]struct {
			Start string `json:"start"`
		} `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/slots?"+params.Encode(), slotsAPIVersion, nil, &resp); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(resp.Data))
	for date := range resp.Data {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var slots []AvailableSlot
	for _, date := range dates {
		for _, slot := range resp.Data[date] {
			slots = append(slots, AvailableSlot{Time: slot.Start, Attendees: 1})
		}
	}

	return slots, nil
}

// CreateBooking creates a new booking
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	var resp struct {
		Data wireBooking `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/bookings", bookingsAPIVersion, req, &resp); err != nil {
		return nil, err
	}

	booking := resp.Data.toBooking()
	return &booking, nil
}

// ListBookings retrieves up to 100 bookings
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	var resp struct {
		Data []wireBooking `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/bookings?take=100", bookingsAPIVersion, nil, &resp); err != nil {
		return nil, err
	}

	bookings := make([]Booking, 0, len(resp.Data))
	for _, wb := range resp.Data {
		bookings = append(bookings, wb.toBooking())
	}

	return bookings, nil
}

// GetBooking retrieves a specific booking by UID, or nil if the API returns
// no booking data
func (c *Client) GetBooking(ctx context.Context, bookingUID string) (*Booking, error) {
	var resp struct {
		Data *wireBooking `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/bookings/"+bookingUID, bookingsAPIVersion, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, nil
	}
	booking := resp.Data.toBooking()
	return &booking, nil
}

// CancelBooking cancels a booking by UID
func (c *Client) CancelBooking(ctx context.Context, bookingUID, reason string) (bool, error) {
	body := map[string]interface{}{}
	if reason != "" {
		body["cancellationReason"] = reason
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/bookings/"+bookingUID+"/cancel", bookingsAPIVersion, body, &resp); err != nil {
		return false, err
	}

	return resp.Status == "" || resp.Status == "success", nil
}

// RescheduleBooking moves a booking to a new UTC start instant. The API
// computes the new end time from the event type; a nil booking is returned
// when the response carries no booking data.
func (c *Client) RescheduleBooking(ctx context.Context, bookingUID, newStartUTC string) (*Booking, error) {
	body := map[string]string{"start": newStartUTC}

	var resp struct {
		Data *wireBooking `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/bookings/"+bookingUID+"/reschedule", bookingsAPIVersion, body, &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, nil
	}
	booking := resp.Data.toBooking()
	return &booking, nil
}
