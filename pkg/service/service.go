package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"

	"github.com/pershin-daniil/CalendarProxy/pkg/metrics"
	"github.com/pershin-daniil/CalendarProxy/pkg/models"
)

var (
	ErrMissingWindow      = errors.New("missing start or end")
	ErrMissingAPIKey      = errors.New("missing api key")
	ErrMissingCalendarIDs = errors.New("missing calendar ids")
)

// AggregationError means the merged result could not be produced at all.
// Failures of single sources never cause it.
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed: %v", e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

type Fetcher interface {
	FetchSource(ctx context.Context, sourceID string, window models.TimeWindow, timeZone string) ([]*calendar.Event, error)
}

type Options struct {
	// APIKey is only checked for presence here, the fetcher carries it upstream.
	APIKey       string
	CalendarIDs  []string
	TimeZone     string
	FetchTimeout time.Duration
}

type CalendarService struct {
	log     *logrus.Entry
	fetcher Fetcher
	opts    Options
}

func NewCalendarService(log *logrus.Logger, fetcher Fetcher, opts Options) *CalendarService {
	s := CalendarService{
		log:     log.WithField("component", "service"),
		fetcher: fetcher,
		opts:    opts,
	}
	return &s
}

// Events fetches every configured calendar concurrently and returns their
// events merged and sorted by start. Sources that fail contribute nothing.
func (s *CalendarService) Events(ctx context.Context, window models.TimeWindow) ([]models.Event, error) {
	switch {
	case window.Empty():
		return nil, ErrMissingWindow
	case s.opts.APIKey == "":
		return nil, ErrMissingAPIKey
	case len(s.opts.CalendarIDs) == 0:
		return nil, ErrMissingCalendarIDs
	}

	// One slot per source so the goroutines never share a write.
	results := make([][]*calendar.Event, len(s.opts.CalendarIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range s.opts.CalendarIDs {
		i, id := i, id
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic fetching %s: %v", id, r)
				}
			}()
			results[i] = s.fetch(gctx, id, window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &AggregationError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &AggregationError{Err: err}
	}

	events := make([]models.Event, 0)
	for _, items := range results {
		for _, item := range items {
			event, ok := Normalize(item)
			if !ok {
				metrics.EventsDropped.Inc()
				continue
			}
			events = append(events, event)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})
	return events, nil
}

func (s *CalendarService) fetch(ctx context.Context, id string, window models.TimeWindow) []*calendar.Event {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}
	items, err := s.fetcher.FetchSource(ctx, id, window, s.opts.TimeZone)
	if err != nil {
		s.log.Warnf("err fetching calendar, skipping: %v", err)
		return nil
	}
	return items
}
