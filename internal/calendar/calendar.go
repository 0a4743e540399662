package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"

	"github.com/pershin-daniil/CalendarProxy/pkg/metrics"
	"github.com/pershin-daniil/CalendarProxy/pkg/models"
)

const maxResults = 2500

// SourceFetchError reports that one calendar could not be listed.
type SourceFetchError struct {
	SourceID string

	// Status is the upstream HTTP status, zero for transport errors.
	Status int
	Err    error
}

func (e *SourceFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed for %s: status %d: %v", e.SourceID, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed for %s: %v", e.SourceID, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

type Option func(*options)

type options struct {
	endpoint  string
	transport http.RoundTripper
}

// WithEndpoint points the client at another Calendar API base URL.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithTransport replaces the round tripper the API key is attached on top of.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

type Calendar struct {
	log *logrus.Entry
	srv *calendar.Service
}

func New(ctx context.Context, log *logrus.Logger, apiKey string, opts ...Option) (*Calendar, error) {
	o := options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	client := &http.Client{
		Transport: &transport.APIKey{Key: apiKey, Transport: o.transport},
	}
	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}
	srv, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("err creating calendar service: %w", err)
	}
	return &Calendar{
		log: log.WithField("component", "calendar"),
		srv: srv,
	}, nil
}

// FetchSource lists the events of one calendar inside window with recurring
// events expanded to instances. Only the first page is read.
func (c *Calendar) FetchSource(ctx context.Context, sourceID string, window models.TimeWindow, timeZone string) ([]*calendar.Event, error) {
	started := time.Now()
	events, err := c.srv.Events.List(sourceID).
		TimeMin(window.Start).
		TimeMax(window.End).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		TimeZone(timeZone).
		Context(ctx).
		Do()
	if err != nil {
		observe(metrics.ResultError, started)
		fetchErr := &SourceFetchError{SourceID: sourceID, Err: err}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			fetchErr.Status = apiErr.Code
		}
		return nil, fetchErr
	}
	observe(metrics.ResultOK, started)
	c.log.Debugf("fetched %d events from %s", len(events.Items), sourceID)
	if events.Items == nil {
		return []*calendar.Event{}, nil
	}
	return events.Items, nil
}

func observe(result string, started time.Time) {
	metrics.UpstreamFetches.WithLabelValues(result).Inc()
	metrics.UpstreamDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
}
