package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/forms"
	"github.com/bryan-buckman/donorhub/internal/model"
	"github.com/bryan-buckman/donorhub/internal/opml"
)

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetSources()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var in forms.SourceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validator.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}
	in = in.Normalized()
	id, created, err := s.db.GetOrCreateSource(in.Title, in.URL, in.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	src, err := s.db.GetSourceByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := idParam(r, "sourceID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.db.DeleteSource(sourceID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportOPML(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, _, err := r.FormFile("opml")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, fmt.Errorf("%w: OPML upload exceeds %d bytes", errTooLarge, tooLarge.Limit))
			return
		}
		writeError(w, r, fmt.Errorf("%w: no file provided", errBadRequest))
		return
	}
	defer file.Close()

	subs, err := opml.Parse(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	imported := 0
	for _, sub := range subs {
		_, isNew, err := s.db.GetOrCreateSource(sub.Title, sub.URL, sub.Kind)
		if err != nil {
			log.Error().Err(err).Str("url", sub.URL).Msg("Failed to import source")
			continue
		}
		if isNew {
			imported++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"imported": imported,
		"total":    len(subs),
	})
}

func (s *Server) handleExportOPML(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetSources()
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := opml.Export("donorhub sources", sources)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", "attachment; filename=donorhub-sources.opml")
	w.Write(data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "source ingestion is disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	results, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		writeError(w, r, fmt.Errorf("fetch sources: %w", err))
		return
	}
	total := 0
	for _, c := range results {
		total += c
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"new_camps": total,
		"sources":   len(results),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	interval, err := s.db.GetPollingInterval()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"polling_interval": interval})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PollingInterval int `json:"polling_interval"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PollingInterval < database.MinPollingInterval {
		req.PollingInterval = database.MinPollingInterval
	}
	if err := s.db.SetSetting(model.SettingPollingInterval, strconv.Itoa(req.PollingInterval)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "polling_interval": req.PollingInterval})
}
