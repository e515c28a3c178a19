package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rps_connections_active",
			Help: "Websocket connections registered with the gateway",
		},
	)
	roomsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rps_rooms",
			Help: "Rooms currently held in memory",
		},
	)
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_events_total",
			Help: "Inbound websocket events by type",
		},
		[]string{"event"},
	)
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_errors_total",
			Help: "Failures reported to clients or logged by the gateway",
		},
		[]string{"kind"},
	)
	roundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_rounds_total",
			Help: "Resolved rounds by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(connectionsActive)
	prometheus.MustRegister(roomsGauge)
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(errorsTotal)
	prometheus.MustRegister(roundsTotal)
}
