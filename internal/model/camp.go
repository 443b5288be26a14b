package model

import (
	"strings"
	"time"
)

// dateLayouts are the calendar date formats camps are published with.
var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02/01/2006",
}

// Camp is a blood donation camp.
type Camp struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	Organizer        string      `json:"organizer"`
	Date             string      `json:"date"`
	Time             string      `json:"time"`
	Location         string      `json:"location"`
	City             string      `json:"city"`
	Phone            string      `json:"phone,omitempty"`
	Description      string      `json:"description,omitempty"`
	ImageURL         string      `json:"image_url,omitempty"`
	BloodTypesNeeded []BloodType `json:"blood_types_needed,omitempty"`
	SourceID         *int64      `json:"source_id,omitempty"` // nil for camps entered by admins
	GUID             string      `json:"-"`
}

// Day returns the camp date as midnight in loc. ok is false when the date
// cannot be parsed.
func (c Camp) Day(loc *time.Location) (day time.Time, ok bool) {
	return ParseDay(c.Date, loc)
}

// NeedsBloodType reports whether the camp collects bt. Camps without an
// explicit list collect every type.
func (c Camp) NeedsBloodType(bt BloodType) bool {
	if len(c.BloodTypesNeeded) == 0 {
		return true
	}
	for _, needed := range c.BloodTypesNeeded {
		if needed == bt {
			return true
		}
	}
	return false
}

// ParseDay parses a calendar date in one of the supported layouts, or an
// RFC 3339 timestamp, and returns midnight of that day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		ts = ts.In(loc)
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc), true
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// UrgentRequest is a hospital's urgent call for a blood type.
type UrgentRequest struct {
	ID            int64     `json:"id"`
	BloodType     BloodType `json:"blood_type"`
	Hospital      string    `json:"hospital"`
	Location      string    `json:"location"`
	City          string    `json:"city,omitempty"`
	ContactName   string    `json:"contact_name"`
	ContactNumber string    `json:"contact_number"`
	Urgency       Urgency   `json:"urgency"`
	PatientName   string    `json:"patient_name,omitempty"`
	Details       string    `json:"details,omitempty"`
	PostedAt      time.Time `json:"posted_at"`
}

// CityName returns City, or the first comma-separated part of Location
// ("Ludhiana, Punjab" -> "Ludhiana") when City is unset.
func (r UrgentRequest) CityName() string {
	if city := strings.TrimSpace(r.City); city != "" {
		return city
	}
	head, _, _ := strings.Cut(r.Location, ",")
	return strings.TrimSpace(head)
}
