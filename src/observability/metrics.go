// Package observability holds the Prometheus collectors shared by both servers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchCycles counts orchestrator fetch cycles by how they ended.
	FetchCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "series_explorer_fetch_cycles_total",
			Help: "Fetch cycles by outcome (success, failure, cancelled, stale, cleared)",
		},
		[]string{"outcome"},
	)

	FetchCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "series_explorer_fetch_cycle_duration_seconds",
			Help:    "Time from dispatch to settlement of a fetch cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	SeriesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "series_explorer_series_requests_total",
			Help: "Per-series data requests issued by the fetcher",
		},
		[]string{"result"},
	)

	CurrentEpoch = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "series_explorer_fetch_epoch",
			Help: "Epoch of the most recently dispatched fetch",
		},
	)

	SelectedSeries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "series_explorer_selected_series",
			Help: "Number of series in the current selection",
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "series_explorer_websocket_clients",
			Help: "Connected websocket clients",
		},
	)

	DataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "series_data_service_requests_total",
			Help: "Data service HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	IngestedSeries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "series_data_service_ingested_series_total",
			Help: "Series loaded into the store by source",
		},
		[]string{"source"},
	)
)
