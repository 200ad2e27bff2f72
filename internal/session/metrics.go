package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_active",
		Help: "Number of live coaching sessions.",
	})
	clientMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_client_messages_total",
		Help: "Inbound client messages by type.",
	}, []string{"type"})
	malformedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_malformed_messages_total",
		Help: "Inbound messages skipped because they failed to decode.",
	})
	coachResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_coach_responses_total",
		Help: "Coach responses delivered to clients.",
	})
	coachInterrupts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_coach_interrupts_total",
		Help: "Coach response tasks cancelled before completion.",
	})
	vadCommits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_vad_commits_total",
		Help: "Utterance commits issued by the silence detector.",
	})
	dedupedFinals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_deduped_finals_total",
		Help: "Final transcripts dropped as re-deliveries.",
	})
)
