// Package events announces domain events (urgent needs, donor sign-ups,
// appointments) to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// Routing keys.
const (
	KeyUrgentPosted         = "urgent.posted"
	KeyDonorRegistered      = "donor.registered"
	KeyAppointmentScheduled = "appointment.scheduled"
)

// Publisher announces domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	UrgentPosted(ctx context.Context, req model.UrgentRequest) error
	DonorRegistered(ctx context.Context, donor model.Donor) error
	AppointmentScheduled(ctx context.Context, appt model.Appointment, camp model.Camp) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// DonorRegisteredData omits contact details; consumers only match donors
// to needs.
type DonorRegisteredData struct {
	DonorID    string          `json:"donor_id"`
	BloodGroup model.BloodType `json:"blood_group"`
	City       string          `json:"city"`
}

type AppointmentScheduledData struct {
	AppointmentID string          `json:"appointment_id"`
	CampID        int64           `json:"camp_id"`
	CampTitle     string          `json:"camp_title"`
	BloodGroup    model.BloodType `json:"blood_group"`
	PreferredTime time.Time       `json:"preferred_time"`
	Relayed       bool            `json:"relayed"`
}

func urgentEnvelope(req model.UrgentRequest) Envelope {
	return Envelope{Type: KeyUrgentPosted, OccurredAt: time.Now().UTC(), Data: req}
}

func donorEnvelope(d model.Donor) Envelope {
	return Envelope{
		Type:       KeyDonorRegistered,
		OccurredAt: time.Now().UTC(),
		Data:       DonorRegisteredData{DonorID: d.ID, BloodGroup: d.BloodGroup, City: d.City},
	}
}

func appointmentEnvelope(a model.Appointment, c model.Camp) Envelope {
	return Envelope{
		Type:       KeyAppointmentScheduled,
		OccurredAt: time.Now().UTC(),
		Data: AppointmentScheduledData{
			AppointmentID: a.ID,
			CampID:        c.ID,
			CampTitle:     c.Title,
			BloodGroup:    a.BloodGroup,
			PreferredTime: a.PreferredTime,
			Relayed:       a.Relayed,
		},
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) UrgentPosted(context.Context, model.UrgentRequest) error { return nil }
func (Noop) DonorRegistered(context.Context, model.Donor) error      { return nil }
func (Noop) AppointmentScheduled(context.Context, model.Appointment, model.Camp) error {
	return nil
}
func (Noop) Close() error { return nil }
