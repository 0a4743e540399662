package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pershin-daniil/CalendarProxy/pkg/models"
	"github.com/pershin-daniil/CalendarProxy/pkg/service"
)

const (
	msgMissingWindow = "Missing start or end"
	msgMissingKey    = "Missing API key"
	msgMissingIDs    = "Missing calendar ids"
	msgLoadFailed    = "Failed to load events"
)

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeText(w, http.StatusOK, "ok")
}

func (s *Server) notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeText(w, http.StatusNotFound, "Not found")
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.timeouts.Request > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.Request)
		defer cancel()
	}
	q := r.URL.Query()
	window := models.TimeWindow{Start: q.Get("start"), End: q.Get("end")}

	events, err := s.app.Events(ctx, window)
	switch {
	case errors.Is(err, service.ErrMissingWindow):
		s.writeResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: msgMissingWindow})
		return
	case errors.Is(err, service.ErrMissingAPIKey):
		s.log.Warn("events requested without an api key configured")
		s.writeResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: msgMissingKey})
		return
	case errors.Is(err, service.ErrMissingCalendarIDs):
		s.log.Warn("events requested without calendar ids configured")
		s.writeResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: msgMissingIDs})
		return
	case err != nil:
		s.log.Warnf("err during loading events: %v", err)
		s.writeResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: msgLoadFailed})
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	s.writeResponse(w, http.StatusOK, models.EventsResponse{Events: events})
}

// writeResponse writes data as JSON with the shared cache policy.
func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.Warnf("err during encoding response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(models.ErrorResponse{Error: msgLoadFailed})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(status)
	if _, err = w.Write(body); err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(text)); err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}
