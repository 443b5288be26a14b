package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/forms"
	"github.com/bryan-buckman/donorhub/internal/relay"
)

func (s *Server) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var reg forms.DonorRegistration
	if err := decodeJSON(w, r, &reg); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(reg); err != nil {
		writeError(w, r, err)
		return
	}

	donor := reg.Donor(uuid.NewString(), s.clock().UTC())
	if err := s.db.CreateDonor(&donor); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.events.DonorRegistered(r.Context(), donor); err != nil {
		log.Warn().Err(err).Str("donor_id", donor.ID).Msg("Failed to publish donor event")
	}
	writeJSON(w, http.StatusCreated, donor)
}

// handleScheduleDonation books a donation at a camp. When a form endpoint
// is configured the appointment is relayed once; a failed relay stores
// nothing and tells the donor to resubmit.
func (s *Server) handleScheduleDonation(w http.ResponseWriter, r *http.Request) {
	campID, err := idParam(r, "campID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	camp, err := s.db.GetCampByID(campID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if day, ok := camp.Day(s.loc); ok && day.Before(catalog.StartOfDay(s.now())) {
		writeError(w, r, fmt.Errorf("%w: %s on %s", errCampOver, camp.Title, camp.Date))
		return
	}

	var req forms.AppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	appt := req.Appointment(uuid.NewString(), camp.ID, s.clock().UTC())
	if s.relay.Enabled() {
		if err := s.relay.Submit(r.Context(), relay.NewSubmission(*camp, appt)); err != nil {
			log.Warn().Err(err).Int64("camp_id", camp.ID).Msg("Appointment relay failed")
			writeError(w, r, err)
			return
		}
		appt.Relayed = true
	}

	if err := s.db.CreateAppointment(&appt); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.events.AppointmentScheduled(r.Context(), appt, *camp); err != nil {
		log.Warn().Err(err).Str("appointment_id", appt.ID).Msg("Failed to publish appointment event")
	}
	writeJSON(w, http.StatusCreated, appt)
}
