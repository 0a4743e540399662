package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/pershin-daniil/CalendarProxy/pkg/models"
	"github.com/pershin-daniil/CalendarProxy/pkg/service"
)

type fakeApp struct {
	mu      sync.Mutex
	events  []models.Event
	err     error
	windows []models.TimeWindow
}

func (a *fakeApp) Events(_ context.Context, window models.TimeWindow) ([]models.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.windows = append(a.windows, window)
	if window.Empty() {
		return nil, service.ErrMissingWindow
	}
	return a.events, a.err
}

func (a *fakeApp) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.windows)
}

type ServerTestSuite struct {
	suite.Suite
	app *fakeApp
	srv *httptest.Server
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s.app = &fakeApp{}
	s.srv = httptest.NewServer(New(log, s.app, "", "test", Timeouts{}).Handler())
}

func (s *ServerTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ServerTestSuite) do(method, path string) (*http.Response, string) {
	s.T().Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, s.srv.URL+path, nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(resp.Body.Close())
	}()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(body)
}

func (s *ServerTestSuite) requireCORS(resp *http.Response) {
	s.T().Helper()
	s.Require().Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
	s.Require().Equal("GET,OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	s.Require().Equal("Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
}

func (s *ServerTestSuite) requireJSON(resp *http.Response) {
	s.T().Helper()
	s.Require().Equal("application/json", resp.Header.Get("Content-Type"))
	s.Require().Equal("public, max-age=300", resp.Header.Get("Cache-Control"))
}

func (s *ServerTestSuite) TestPreflight() {
	for _, path := range []string{"/events", "/", "/anything/else"} {
		resp, body := s.do(http.MethodOptions, path+"?start=a&end=b")
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Require().Empty(body)
		s.requireCORS(resp)
		s.Require().Empty(resp.Header.Get("Cache-Control"))
	}
	s.Require().Zero(s.app.calls())
}

func (s *ServerTestSuite) TestHealth() {
	for _, path := range []string{"/", "/health"} {
		resp, body := s.do(http.MethodGet, path)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Require().Equal("ok", body)
		s.requireCORS(resp)
	}
}

func (s *ServerTestSuite) TestNotFound() {
	for _, path := range []string{"/nope", "/events/", "/health/x"} {
		resp, body := s.do(http.MethodGet, path)
		s.Require().Equal(http.StatusNotFound, resp.StatusCode)
		s.Require().Equal("Not found", body)
		s.requireCORS(resp)
	}
}

func (s *ServerTestSuite) TestEvents() {
	s.app.events = []models.Event{
		{Title: "Standup", Start: "2024-01-01T08:00:00", End: "2024-01-01T08:15:00"},
		{Start: "2024-01-02T00:00:00", End: "2024-01-03T00:00:00", AllDay: true, Link: "https://calendar.google.com/event?eid=1"},
	}
	resp, body := s.do(http.MethodGet, "/events?start=2024-01-01T00:00:00Z&end=2024-02-01T00:00:00Z")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.requireCORS(resp)
	s.requireJSON(resp)
	s.Require().Equal(`{"events":[`+
		`{"title":"Standup","start":"2024-01-01T08:00:00","end":"2024-01-01T08:15:00","allDay":false,"location":"","link":""},`+
		`{"title":"","start":"2024-01-02T00:00:00","end":"2024-01-03T00:00:00","allDay":true,"location":"","link":"https://calendar.google.com/event?eid=1"}`+
		`]}`, body)
	s.Require().Equal([]models.TimeWindow{{Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z"}}, s.app.windows)
}

func (s *ServerTestSuite) TestEventsEmpty() {
	resp, body := s.do(http.MethodGet, "/events?start=a&end=b")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(`{"events":[]}`, body)
}

func (s *ServerTestSuite) TestEventsRepeatable() {
	s.app.events = []models.Event{
		{Title: "a", Start: "2024-01-01T08:00:00", End: "2024-01-01T09:00:00"},
		{Title: "b", Start: "2024-01-01T09:00:00", End: "2024-01-01T10:00:00"},
	}
	_, first := s.do(http.MethodGet, "/events?start=a&end=b")
	_, second := s.do(http.MethodGet, "/events?start=a&end=b")
	s.Require().Equal(first, second)
}

func (s *ServerTestSuite) TestEventsErrors() {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
		body   string
	}{
		{"no start", "/events?end=b", nil, http.StatusBadRequest, `{"error":"Missing start or end"}`},
		{"no end", "/events?start=a", nil, http.StatusBadRequest, `{"error":"Missing start or end"}`},
		{"empty start", "/events?start=&end=b", nil, http.StatusBadRequest, `{"error":"Missing start or end"}`},
		{"no key", "/events?start=a&end=b", service.ErrMissingAPIKey, http.StatusInternalServerError, `{"error":"Missing API key"}`},
		{"no ids", "/events?start=a&end=b", service.ErrMissingCalendarIDs, http.StatusInternalServerError, `{"error":"Missing calendar ids"}`},
		{"aggregation", "/events?start=a&end=b", &service.AggregationError{Err: errors.New("panic")}, http.StatusInternalServerError, `{"error":"Failed to load events"}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.app.err = tt.err
			resp, body := s.do(http.MethodGet, tt.path)
			s.Require().Equal(tt.status, resp.StatusCode)
			s.Require().Equal(tt.body, body)
			s.requireCORS(resp)
			s.requireJSON(resp)
		})
	}
}

func (s *ServerTestSuite) TestRequestID() {
	resp, _ := s.do(http.MethodGet, "/health")
	s.Require().Len(resp.Header.Get(requestIDHeader), 36)

	const id = "6f1c2b7e-3d4a-4c1b-9e8f-0a1b2c3d4e5f"
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.srv.URL+"/health", nil)
	s.Require().NoError(err)
	req.Header.Set(requestIDHeader, id)
	resp, err = http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Require().Equal(id, resp.Header.Get(requestIDHeader))
}
