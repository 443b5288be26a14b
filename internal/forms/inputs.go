package forms

import (
	"strings"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// DonorRegistration is the donor sign-up form.
type DonorRegistration struct {
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required,min=10"`
	BloodGroup        string `json:"blood_group" validate:"required,bloodtype"`
	City              string `json:"city" validate:"required"`
	LastDonationDate  string `json:"last_donation_date" validate:"omitempty,datetime=2006-01-02"`
	MedicalConditions string `json:"medical_conditions"`
	Address           string `json:"address"`
	AgreeToTerms      bool   `json:"agree_to_terms" validate:"eq=true"`
}

// Donor converts a validated registration into a donor record.
func (f DonorRegistration) Donor(id string, now time.Time) model.Donor {
	bt, _ := model.ParseBloodType(f.BloodGroup)
	d := model.Donor{
		ID:                id,
		FirstName:         strings.TrimSpace(f.FirstName),
		LastName:          strings.TrimSpace(f.LastName),
		Email:             strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:             strings.TrimSpace(f.Phone),
		BloodGroup:        bt,
		City:              strings.TrimSpace(f.City),
		MedicalConditions: f.MedicalConditions,
		Address:           f.Address,
		CreatedAt:         now,
	}
	if t, err := time.Parse("2006-01-02", f.LastDonationDate); err == nil {
		d.LastDonationDate = &t
	}
	return d
}

// AppointmentRequest is the donation scheduling form for one camp.
type AppointmentRequest struct {
	FirstName     string    `json:"first_name" validate:"required"`
	LastName      string    `json:"last_name" validate:"required"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         string    `json:"phone" validate:"required,min=10"`
	BloodGroup    string    `json:"blood_group" validate:"required,bloodtype"`
	PreferredTime time.Time `json:"preferred_time" validate:"required,notpast"`
	MedicalInfo   string    `json:"medical_info"`
	AgreeToTerms  bool      `json:"agree_to_terms" validate:"eq=true"`
}

// Appointment converts a validated request into an appointment record.
func (f AppointmentRequest) Appointment(id string, campID int64, now time.Time) model.Appointment {
	bt, _ := model.ParseBloodType(f.BloodGroup)
	return model.Appointment{
		ID:            id,
		CampID:        campID,
		FirstName:     strings.TrimSpace(f.FirstName),
		LastName:      strings.TrimSpace(f.LastName),
		Email:         strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:         strings.TrimSpace(f.Phone),
		BloodGroup:    bt,
		PreferredTime: f.PreferredTime,
		MedicalInfo:   f.MedicalInfo,
		CreatedAt:     now,
	}
}

// CampInput is the admin form for creating or editing a camp.
type CampInput struct {
	Title            string   `json:"title" validate:"required"`
	Organizer        string   `json:"organizer" validate:"required"`
	Date             string   `json:"date" validate:"required,campdate"`
	Time             string   `json:"time"`
	Location         string   `json:"location" validate:"required"`
	City             string   `json:"city" validate:"required"`
	Phone            string   `json:"phone"`
	Description      string   `json:"description"`
	ImageURL         string   `json:"image_url" validate:"omitempty,url"`
	BloodTypesNeeded []string `json:"blood_types_needed" validate:"omitempty,dive,bloodtype"`
}

// Camp converts the input into a camp record with the given ID.
func (f CampInput) Camp(id int64) model.Camp {
	c := model.Camp{
		ID:          id,
		Title:       strings.TrimSpace(f.Title),
		Organizer:   strings.TrimSpace(f.Organizer),
		Date:        strings.TrimSpace(f.Date),
		Time:        strings.TrimSpace(f.Time),
		Location:    strings.TrimSpace(f.Location),
		City:        strings.TrimSpace(f.City),
		Phone:       strings.TrimSpace(f.Phone),
		Description: f.Description,
		ImageURL:    strings.TrimSpace(f.ImageURL),
	}
	for _, s := range f.BloodTypesNeeded {
		if bt, err := model.ParseBloodType(s); err == nil {
			c.BloodTypesNeeded = append(c.BloodTypesNeeded, bt)
		}
	}
	return c
}

// UrgentInput is the admin form for posting or editing an urgent request.
type UrgentInput struct {
	BloodType     string `json:"blood_type" validate:"required,bloodtype"`
	Hospital      string `json:"hospital" validate:"required"`
	Location      string `json:"location" validate:"required"`
	City          string `json:"city"`
	ContactName   string `json:"contact_name" validate:"required"`
	ContactNumber string `json:"contact_number" validate:"required"`
	Urgency       string `json:"urgency" validate:"required,urgency"`
	PatientName   string `json:"patient_name"`
	Details       string `json:"details"`
}

// Request converts the input into an urgent request with the given ID.
func (f UrgentInput) Request(id int64) model.UrgentRequest {
	bt, _ := model.ParseBloodType(f.BloodType)
	u, _ := model.ParseUrgency(f.Urgency)
	return model.UrgentRequest{
		ID:            id,
		BloodType:     bt,
		Hospital:      strings.TrimSpace(f.Hospital),
		Location:      strings.TrimSpace(f.Location),
		City:          strings.TrimSpace(f.City),
		ContactName:   strings.TrimSpace(f.ContactName),
		ContactNumber: strings.TrimSpace(f.ContactNumber),
		Urgency:       u,
		PatientName:   f.PatientName,
		Details:       f.Details,
	}
}

// SourceInput subscribes to an organizer source.
type SourceInput struct {
	Title string `json:"title"`
	URL   string `json:"url" validate:"required,url"`
	Kind  string `json:"kind" validate:"omitempty,oneof=json feed"`
}

// Normalized fills in the defaults: a feed kind and the URL as title.
func (f SourceInput) Normalized() SourceInput {
	f.Title = strings.TrimSpace(f.Title)
	f.URL = strings.TrimSpace(f.URL)
	if f.Kind == "" {
		f.Kind = model.SourceFeed
	}
	if f.Title == "" {
		f.Title = f.URL
	}
	return f
}
