package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pershin-daniil/CalendarProxy/pkg/models"
)

type App interface {
	Events(ctx context.Context, window models.TimeWindow) ([]models.Event, error)
}

type Timeouts struct {
	// Request bounds a whole /events aggregation. Zero means no bound.
	Request  time.Duration
	Shutdown time.Duration
}

type Server struct {
	log      *logrus.Entry
	app      App
	address  string
	version  string
	timeouts Timeouts
}

func New(log *logrus.Logger, app App, address, version string, timeouts Timeouts) *Server {
	s := Server{
		log:      log.WithField("component", "rest"),
		app:      app,
		address:  address,
		version:  version,
		timeouts: timeouts,
	}
	return &s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(s.instrument)
	r.Use(s.cors)
	r.Use(middleware.Recoverer)

	r.NotFound(s.notFoundHandler)
	r.MethodNotAllowed(s.notFoundHandler)
	r.HandleFunc("/", s.healthHandler)
	r.HandleFunc("/health", s.healthHandler)
	r.HandleFunc("/events", s.eventsHandler)
	return r
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("err during shutdown: %v", err)
		}
	}()
	s.log.Infof("calendar proxy %s listening on %s", s.version, s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.timeouts.Shutdown > 0 {
		return s.timeouts.Shutdown
	}
	return 5 * time.Second
}
