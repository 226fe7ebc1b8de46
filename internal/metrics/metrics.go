// Package metrics exposes the protocol's stats bundle as a Prometheus
// collector, mirroring the Describe/Collect shape used by
// runZeroInc-sockstats/pkg/exporter for per-connection TCP info: a
// mutex-guarded snapshot struct read on every scrape rather than
// pushed eagerly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/srlab/srproto/internal/protocol"
)

// Collector adapts a live protocol.Sender's Stats into Prometheus
// metrics. Register it with a prometheus.Registry and scrape while the
// Sender's Send call is in flight (or after, for a final read).
type Collector struct {
	mu     sync.Mutex
	sender *protocol.Sender

	framesSent          *prometheus.Desc
	framesRetransmitted *prometheus.Desc
	acksReceived        *prometheus.Desc
}

// NewCollector builds a Collector reading from sender.
func NewCollector(sender *protocol.Sender) *Collector {
	return &Collector{
		sender: sender,
		framesSent: prometheus.NewDesc(
			"srproto_frames_sent_total", "DATA frames sent for the first time; retransmissions are counted separately.", nil, nil),
		framesRetransmitted: prometheus.NewDesc(
			"srproto_frames_retransmitted_total", "DATA frames retransmitted after a timeout.", nil, nil),
		acksReceived: prometheus.NewDesc(
			"srproto_acks_received_total", "ACK frames received by the sender.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.framesSent
	ch <- c.framesRetransmitted
	ch <- c.acksReceived
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(c.framesSent, prometheus.CounterValue, float64(c.sender.Stats.FramesSent.Load()))
	ch <- prometheus.MustNewConstMetric(c.framesRetransmitted, prometheus.CounterValue, float64(c.sender.Stats.FramesRetransmitted.Load()))
	ch <- prometheus.MustNewConstMetric(c.acksReceived, prometheus.CounterValue, float64(c.sender.Stats.AcksReceived.Load()))
}
