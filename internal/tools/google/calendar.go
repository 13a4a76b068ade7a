package google

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const defaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

// Calendar lists and creates events through the Calendar REST API.
type Calendar struct {
	client     *Client
	baseURL    string
	calendarID string
	timezone   string
}

// NewCalendar builds the Calendar service. calendarID is usually "primary";
// timezone is the calendar-local zone attached to created events.
func NewCalendar(client *Client, calendarID, timezone string) *Calendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return &Calendar{
		client:     client,
		baseURL:    defaultCalendarBaseURL,
		calendarID: calendarID,
		timezone:   timezone,
	}
}

// WithBaseURL overrides the API host, for tests.
func (c *Calendar) WithBaseURL(base string) *Calendar {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// Event is the condensed view of one calendar entry.
type Event struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
	HTMLLink string `json:"htmlLink"`
}

type wireEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (t wireEventTime) value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

type wireEvent struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Start       wireEventTime `json:"start"`
	End         wireEventTime `json:"end"`
	HTMLLink    string        `json:"htmlLink,omitempty"`
}

// ListEvents returns single events inside [timeMin, timeMax], ordered by
// start time.
func (c *Calendar) ListEvents(ctx context.Context, timeMin, timeMax string, maxResults int) ([]Event, error) {
	params := url.Values{
		"timeMin":      {timeMin},
		"timeMax":      {timeMax},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {strconv.Itoa(maxResults)},
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))

	var listing struct {
		Items []wireEvent `json:"items"`
	}
	if err := c.client.getJSON(ctx, endpoint, params, &listing); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(listing.Items))
	for _, item := range listing.Items {
		summary := item.Summary
		if summary == "" {
			summary = "(no title)"
		}
		events = append(events, Event{
			ID:       item.ID,
			Summary:  summary,
			Start:    item.Start.value(),
			End:      item.End.value(),
			HTMLLink: item.HTMLLink,
		})
	}
	return events, nil
}

// AddEvent creates an event with both endpoints interpreted in the calendar's
// configured timezone.
func (c *Calendar) AddEvent(ctx context.Context, summary, startISO, endISO, description, location string) (*Event, error) {
	body := wireEvent{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start:       wireEventTime{DateTime: startISO, TimeZone: c.timezone},
		End:         wireEventTime{DateTime: endISO, TimeZone: c.timezone},
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))

	var created wireEvent
	if err := c.client.postJSON(ctx, endpoint, body, &created); err != nil {
		return nil, err
	}
	return &Event{
		ID:       created.ID,
		Summary:  created.Summary,
		Start:    created.Start.value(),
		End:      created.End.value(),
		HTMLLink: created.HTMLLink,
	}, nil
}
