package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jubsok",
		Subsystem: "gateway",
		Name:      "active_connections",
		Help:      "Number of live websocket connections in the session registry.",
	})

	handshakeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jubsok",
		Subsystem: "gateway",
		Name:      "handshake_failures_total",
		Help:      "Rejected websocket handshakes by symbolic reason.",
	}, []string{"reason"})

	framesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jubsok",
		Subsystem: "gateway",
		Name:      "frames_dispatched_total",
		Help:      "Inbound frames handed to the message router by frame type.",
	}, []string{"type"})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jubsok",
		Subsystem: "gateway",
		Name:      "broadcast_sends_total",
		Help:      "Notification frames fanned out to live connections.",
	})
)
