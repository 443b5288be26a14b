package server

import (
	"net/http"

	"github.com/bryan-buckman/donorhub/internal/auth"
	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/model"
)

// criteriaFromQuery reads ?city=&blood_type=&q=. Absent parameters leave
// the criterion unconstrained, so a bare request is a reset.
func criteriaFromQuery(r *http.Request) catalog.Criteria {
	q := r.URL.Query()
	search := q.Get("q")
	if search == "" {
		search = q.Get("search")
	}
	return catalog.Criteria{
		City:      q.Get("city"),
		BloodType: q.Get("blood_type"),
		Search:    search,
	}
}

func (s *Server) handleListCamps(w http.ResponseWriter, r *http.Request) {
	camps, err := s.db.GetCamps()
	if err != nil {
		writeError(w, r, err)
		return
	}
	screen := catalog.NewCampScreen(camps, s.now)
	screen.Apply(criteriaFromQuery(r))
	writeJSON(w, http.StatusOK, screen.Listing())
}

func (s *Server) handleGetCamp(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, camp)
}

func (s *Server) handleListUrgent(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.db.GetUrgentRequests()
	if err != nil {
		writeError(w, r, err)
		return
	}
	screen := catalog.NewRequestScreen(reqs)
	screen.Apply(criteriaFromQuery(r))
	writeJSON(w, http.StatusOK, screen.Listing())
}

func (s *Server) handleGetUrgent(w http.ResponseWriter, r *http.Request) {
	requestID, err := idParam(r, "requestID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := s.db.GetUrgentRequestByID(requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	camps, err := s.db.GetCamps()
	if err != nil {
		writeError(w, r, err)
		return
	}
	reqs, err := s.db.GetUrgentRequests()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"camps":  catalog.CampCities(camps),
		"urgent": catalog.RequestCities(reqs),
	})
}

func (s *Server) handleBloodTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.BloodTypes)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "not signed in"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":    claims.Email,
		"role":     claims.Role,
		"is_admin": claims.IsAdmin(),
	})
}
