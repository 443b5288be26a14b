// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned when a closed enumeration receives an unknown value.
var (
	ErrUnknownBloodType = errors.New("unknown blood type")
	ErrUnknownUrgency   = errors.New("unknown urgency")
)

// BloodType is one of the eight ABO/Rh categories.
type BloodType string

// Blood types.
const (
	APos  BloodType = "A+"
	ANeg  BloodType = "A-"
	BPos  BloodType = "B+"
	BNeg  BloodType = "B-"
	ABPos BloodType = "AB+"
	ABNeg BloodType = "AB-"
	OPos  BloodType = "O+"
	ONeg  BloodType = "O-"
)

// BloodTypes lists every blood type in display order.
var BloodTypes = []BloodType{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// ParseBloodType accepts a blood type in any letter case, surrounding spaces trimmed.
func ParseBloodType(s string) (BloodType, error) {
	candidate := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	for _, bt := range BloodTypes {
		if bt == candidate {
			return bt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBloodType, s)
}

// Urgency is the severity of an urgent blood request.
type Urgency string

// Urgency levels, most severe first.
const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ParseUrgency validates an urgency value.
func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUrgency, s)
}

// Rank orders urgencies: high sorts first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	default:
		return 2
	}
}

// Donor is a registered blood donor.
type Donor struct {
	ID                string     `json:"id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	BloodGroup        BloodType  `json:"blood_group"`
	City              string     `json:"city"`
	LastDonationDate  *time.Time `json:"last_donation_date,omitempty"`
	MedicalConditions string     `json:"medical_conditions,omitempty"`
	Address           string     `json:"address,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Appointment is a donation scheduled at a camp.
type Appointment struct {
	ID            string    `json:"id"`
	CampID        int64     `json:"camp_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	BloodGroup    BloodType `json:"blood_group"`
	PreferredTime time.Time `json:"preferred_time"`
	MedicalInfo   string    `json:"medical_info,omitempty"`
	Relayed       bool      `json:"relayed"`
	CreatedAt     time.Time `json:"created_at"`
}

// Source kinds.
const (
	SourceJSON = "json"
	SourceFeed = "feed"
)

// Source is an organizer feed that announces camps.
type Source struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Kind        string    `json:"kind"`
	LastFetched time.Time `json:"last_fetched,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Settings key constants.
const (
	SettingPollingInterval = "polling_interval_minutes"
)
