package base

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// transportMetrics are the process wide counters of one transport role ("server" or "client")
type transportMetrics struct {
	accepted  *metrics.Counter
	closed    *metrics.Counter
	live      *metrics.Counter
	framesIn  *metrics.Counter
	framesOut *metrics.Counter
	malformed *metrics.Counter
	bytesIn   *metrics.Counter
	bytesOut  *metrics.Counter
	overflow  *metrics.Counter
}

func newTransportMetrics(role string) *transportMetrics {
	counter := func(name string) *metrics.Counter {
		return metrics.GetOrCreateCounter(fmt.Sprintf(`hangman_transport_%s{role=%q}`, name, role))
	}
	return &transportMetrics{
		accepted:  counter("connections_opened_total"),
		closed:    counter("connections_closed_total"),
		live:      counter("connections_live"),
		framesIn:  counter("frames_received_total"),
		framesOut: counter("frames_sent_total"),
		malformed: counter("frames_malformed_total"),
		bytesIn:   counter("bytes_received_total"),
		bytesOut:  counter("bytes_sent_total"),
		overflow:  counter("queue_overflows_total"),
	}
}

func (m *transportMetrics) opened() {
	m.accepted.Inc()
	m.live.Inc()
}

func (m *transportMetrics) closedOne() {
	m.closed.Inc()
	m.live.Dec()
}
