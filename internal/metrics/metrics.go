// Package metrics exposes relay counters and gauges to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_connections_active",
		Help: "The current number of open signaling connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_connections_total",
		Help: "The total number of signaling connections accepted.",
	})
	AuthenticatedUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_users_authenticated",
		Help: "The current number of authenticated sessions.",
	})

	// Protocol metrics
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_messages_received_total",
		Help: "Inbound messages by command.",
	}, []string{"command"})
	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_messages_dropped_total",
		Help: "Inbound messages dropped before dispatch.",
	}, []string{"reason"})
	SignalsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_signals_forwarded_total",
		Help: "WebRTC signaling messages relayed between peers.",
	})
	ErrorsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_errors_sent_total",
		Help: "Structured error replies sent to clients.",
	}, []string{"type"})

	// Room metrics
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_rooms",
		Help: "The current number of rooms.",
	})

	// Auth metrics
	AuthSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_auth_success_total",
		Help: "The total number of successful authentications.",
	})
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_auth_failures_total",
		Help: "The total number of failed authentications.",
	}, []string{"reason"})

	// Liveness metrics
	HeartbeatEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_heartbeat_evictions_total",
		Help: "Connections closed for not answering ping.",
	})
	BackpressureEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_backpressure_total",
		Help: "Sends that hit a full outbound buffer, by policy action.",
	}, []string{"action"})
)
