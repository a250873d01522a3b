// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BroadcastsTotal counts events fanned out by the hub, per event type.
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peerpractice_broadcasts_total",
		Help: "Events enqueued on live connection queues.",
	}, []string{"event"})

	// BroadcastDropsTotal counts deliveries dropped because a connection's
	// outbound queue was full.
	BroadcastDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerpractice_broadcast_drops_total",
		Help: "Deliveries dropped due to a full connection queue.",
	})

	// SnapshotSavesTotal counts snapshot writes, per namespace and outcome.
	SnapshotSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peerpractice_snapshot_saves_total",
		Help: "Snapshot save attempts.",
	}, []string{"namespace", "outcome"})

	// LoginRequestsTotal counts PIN emails requested.
	LoginRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerpractice_login_requests_total",
		Help: "Login PIN requests received.",
	})

	// WebsocketSessions tracks currently open websocket sessions.
	WebsocketSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peerpractice_websocket_sessions",
		Help: "Open websocket sessions.",
	})
)
