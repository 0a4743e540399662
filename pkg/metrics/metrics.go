package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calproxy",
		Subsystem: "http",
		Name:      "requests_total",
	}, []string{"route", "code"})
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calproxy",
		Subsystem: "http",
		Name:      "request_duration_seconds",
	}, []string{"route"})
	UpstreamFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calproxy",
		Subsystem: "upstream",
		Name:      "fetch_total",
	}, []string{"result"})
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calproxy",
		Subsystem: "upstream",
		Name:      "fetch_duration_seconds",
	}, []string{"result"})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "calproxy",
		Name:      "events_dropped_total",
		Help:      "Upstream events discarded for lacking a start or end.",
	})
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)
