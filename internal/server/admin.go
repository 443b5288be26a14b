package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/forms"
	"github.com/bryan-buckman/donorhub/internal/model"
)

// --- Camps ---

func (s *Server) handleCreateCamp(w http.ResponseWriter, r *http.Request) {
	var in forms.CampInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}
	camp := in.Camp(0)
	id, err := s.db.CreateCamp(&camp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	camp.ID = id
	log.Info().Int64("camp_id", id).Str("title", camp.Title).Msg("Camp created")
	writeJSON(w, http.StatusCreated, camp)
}

func (s *Server) handleUpdateCamp(w http.ResponseWriter, r *http.Request) {
	campID, err := idParam(r, "campID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in forms.CampInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}
	camp := in.Camp(campID)
	if err := s.db.UpdateCamp(&camp); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.db.GetCampByID(campID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCamp(w http.ResponseWriter, r *http.Request) {
	campID, err := idParam(r, "campID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.db.DeleteCamp(campID); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Int64("camp_id", campID).Msg("Camp deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCampAppointments(w http.ResponseWriter, r *http.Request) {
	campID, err := idParam(r, "campID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.db.GetCampByID(campID); err != nil {
		writeError(w, r, err)
		return
	}
	appts, err := s.db.GetAppointmentsByCamp(campID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// --- Urgent requests ---

func (s *Server) handleCreateUrgent(w http.ResponseWriter, r *http.Request) {
	var in forms.UrgentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}
	req := in.Request(0)
	req.PostedAt = s.clock().UTC()
	id, err := s.db.CreateUrgentRequest(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.ID = id
	if err := s.events.UrgentPosted(r.Context(), req); err != nil {
		log.Warn().Err(err).Int64("request_id", id).Msg("Failed to publish urgent event")
	}
	writeJSON(w, http.StatusCreated, req)
}

// handleImportUrgent posts a batch of urgent requests from a JSON catalog
// payload. A payload with any unusable record is rejected whole.
func (s *Server) handleImportUrgent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	reqs, err := catalog.DecodeRequests(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	posted := s.clock().UTC()
	created := make([]model.UrgentRequest, 0, len(reqs))
	for _, req := range reqs {
		req.ID = 0
		if req.PostedAt.IsZero() {
			req.PostedAt = posted
		}
		id, err := s.db.CreateUrgentRequest(&req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.ID = id
		if err := s.events.UrgentPosted(r.Context(), req); err != nil {
			log.Warn().Err(err).Int64("request_id", id).Msg("Failed to publish urgent event")
		}
		created = append(created, req)
	}
	log.Info().Int("count", len(created)).Msg("Urgent requests imported")
	writeJSON(w, http.StatusCreated, map[string]any{
		"imported": len(created),
		"requests": created,
	})
}

func (s *Server) handleUpdateUrgent(w http.ResponseWriter, r *http.Request) {
	requestID, err := idParam(r, "requestID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in forms.UrgentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}
	req := in.Request(requestID)
	if err := s.db.UpdateUrgentRequest(&req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteUrgent(w http.ResponseWriter, r *http.Request) {
	requestID, err := idParam(r, "requestID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.db.DeleteUrgentRequest(requestID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
