package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/bryan-buckman/donorhub/internal/auth"
	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/model"
)

// donorProfile is the signed-in donor's record and bookings. Upcoming is
// soonest first; History is most recent first and honours the year filter.
type donorProfile struct {
	Email    string              `json:"email"`
	Donor    *model.Donor        `json:"donor"`
	Upcoming []model.Appointment `json:"upcoming"`
	History  []model.Appointment `json:"history"`
	Years    []int               `json:"years"`
	Year     int                 `json:"year,omitempty"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "not signed in"})
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			writeError(w, r, fmt.Errorf("%w: year %q", errBadRequest, raw))
			return
		}
		year = y
	}

	donor, err := s.db.GetDonorByEmail(claims.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	appts, err := s.db.GetAppointmentsByEmail(claims.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := donorProfile{
		Email:    claims.Email,
		Donor:    donor,
		Upcoming: []model.Appointment{},
		History:  []model.Appointment{},
		Years:    []int{},
		Year:     year,
	}
	today := catalog.StartOfDay(s.now())
	for _, a := range appts {
		if !a.PreferredTime.Before(today) {
			p.Upcoming = append(p.Upcoming, a)
			continue
		}
		y := a.PreferredTime.In(s.loc).Year()
		if !slices.Contains(p.Years, y) {
			p.Years = append(p.Years, y)
		}
		if year == 0 || y == year {
			p.History = append(p.History, a)
		}
	}
	slices.Reverse(p.History)
	slices.Sort(p.Years)
	slices.Reverse(p.Years)
	writeJSON(w, http.StatusOK, p)
}
