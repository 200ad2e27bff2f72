package stt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPackets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_packets_total",
		Help: "Total packets enqueued toward the provider",
	})

	metricDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_drops_total",
		Help: "Total packets evicted from the send queue under backpressure",
	})

	metricCommits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_commits_total",
		Help: "Total commit packets enqueued",
	})

	metricConnectMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_connect_ms",
		Help:    "Time to establish provider connection (ms)",
		Buckets: prometheus.ExponentialBuckets(10, 1.8, 10),
	})

	metricTranscripts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_transcripts_total",
		Help: "Transcript events received by kind",
	}, []string{"kind"}) // partial, final

	metricServerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_server_errors_total",
		Help: "Classified error/warning events received from the provider",
	})

	gaugeQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stt_send_queue_depth",
		Help: "Current depth of provider send queue (last observed)",
	})
)
