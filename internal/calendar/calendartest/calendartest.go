// Package calendartest provides a fake Google Calendar API for tests.
//
// It serves GET /calendar/v3/calendars/{calendarId}/events and answers with
// the events added for that calendar. Point a client at Endpoint():
//
//	fake := calendartest.NewServer()
//	defer fake.Close()
//	fake.AddEvents("team", &calendar.Event{Summary: "Standup", ...})
//	c, err := calendar.New(ctx, log, "key", calendar.WithEndpoint(fake.Endpoint()))
package calendartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/calendar/v3"
)

const basePath = "/calendar/v3/"

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	events   map[string][]*calendar.Event
	failures map[string]int
	delays   map[string]time.Duration
	queries  map[string][]url.Values
}

func NewServer() *Server {
	s := &Server{
		events:   make(map[string][]*calendar.Event),
		failures: make(map[string]int),
		delays:   make(map[string]time.Duration),
		queries:  make(map[string][]url.Values),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Endpoint is the base URL to hand to option.WithEndpoint.
func (s *Server) Endpoint() string {
	return s.URL + basePath
}

// AddEvents appends events to the listing of calendarID.
func (s *Server) AddEvents(calendarID string, events ...*calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[calendarID]; !ok {
		s.events[calendarID] = []*calendar.Event{}
	}
	s.events[calendarID] = append(s.events[calendarID], events...)
}

// Fail makes every listing of calendarID answer with status.
func (s *Server) Fail(calendarID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[calendarID] = status
}

// Delay holds every listing of calendarID for d, or until the client gives up.
func (s *Server) Delay(calendarID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[calendarID] = d
}

// Queries returns the query strings received for calendarID.
func (s *Server) Queries(calendarID string) []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries[calendarID]...)
}

// Hits is the number of listings received across all calendars.
func (s *Server) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.queries {
		n += len(q)
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, basePath+"calendars/")
	if r.Method != http.MethodGet || path == r.URL.Path || !strings.HasSuffix(path, "/events") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	calendarID := strings.TrimSuffix(path, "/events")

	s.mu.Lock()
	s.queries[calendarID] = append(s.queries[calendarID], r.URL.Query())
	items, known := s.events[calendarID]
	status := s.failures[calendarID]
	delay := s.delays[calendarID]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}
	if !known {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	_ = json.NewEncoder(w).Encode(&calendar.Events{
		Kind:  "calendar#events",
		Items: items,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, msg)
}
