// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Statistics accumulates per-channel packet/byte/timeout counters. Each
// scalar is updated independently with its own atomic operation;
// linearizability across fields is not required, only per-field
// correctness, so a snapshot can catch fields mid-update relative to
// each other without that being a bug.
type Statistics struct {
	requestsSent         atomic.Uint64
	responsesSent        atomic.Uint64
	errorsSent           atomic.Uint64
	requestsReceived     atomic.Uint64
	responsesReceived    atomic.Uint64
	errorsReceived       atomic.Uint64
	timeouts             atomic.Uint64
	discardedResponses   atomic.Uint64
	lastDiscardedRespID  atomic.Uint64
	bytesSent            atomic.Uint64
	bytesReceived        atomic.Uint64
	packetsSent          atomic.Uint64
	packetsReceived      atomic.Uint64
	maxWriteWaitTicks    atomic.Int64
	minPacketSize        atomic.Int64
	maxPacketSize        atomic.Int64
}

func newStatistics() *Statistics {
	s := &Statistics{}
	s.minPacketSize.Store(-1) // sentinel: "no packet observed yet"
	return s
}

func (s *Statistics) recordMessageSent(kind MessageType) {
	switch kind {
	case MsgRequest:
		s.requestsSent.Add(1)
	case MsgResponse:
		s.responsesSent.Add(1)
	case MsgError:
		s.errorsSent.Add(1)
	}
}

func (s *Statistics) recordMessageReceived(kind MessageType) {
	switch kind {
	case MsgRequest:
		s.requestsReceived.Add(1)
	case MsgResponse:
		s.responsesReceived.Add(1)
	case MsgError:
		s.errorsReceived.Add(1)
	}
}

func (s *Statistics) recordTimeout() { s.timeouts.Add(1) }

func (s *Statistics) recordDiscardedResponse(responseID uint64) {
	s.discardedResponses.Add(1)
	s.lastDiscardedRespID.Store(responseID)
}

func (s *Statistics) recordPacketWritten(size int, waitTicks int64) {
	s.packetsSent.Add(1)
	s.bytesSent.Add(uint64(size))
	s.observePacketSize(size)
	for {
		cur := s.maxWriteWaitTicks.Load()
		if waitTicks <= cur {
			return
		}
		if s.maxWriteWaitTicks.CompareAndSwap(cur, waitTicks) {
			return
		}
	}
}

func (s *Statistics) recordPacketRead(size int) {
	s.packetsReceived.Add(1)
	s.bytesReceived.Add(uint64(size))
}

func (s *Statistics) observePacketSize(size int) {
	sz := int64(size)
	for {
		cur := s.minPacketSize.Load()
		if cur >= 0 && sz >= cur {
			break
		}
		if s.minPacketSize.CompareAndSwap(cur, sz) {
			break
		}
	}
	for {
		cur := s.maxPacketSize.Load()
		if sz <= cur {
			break
		}
		if s.maxPacketSize.CompareAndSwap(cur, sz) {
			break
		}
	}
}

// StatisticsSnapshot is a point-in-time, read-only copy of a Statistics'
// live counters.
type StatisticsSnapshot struct {
	RequestsSent             uint64
	ResponsesSent            uint64
	ErrorsSent               uint64
	RequestsReceived         uint64
	ResponsesReceived        uint64
	ErrorsReceived           uint64
	Timeouts                 uint64
	DiscardedResponses       uint64
	LastDiscardedResponseID  uint64
	BytesSent                uint64
	BytesReceived            uint64
	PacketsSent              uint64
	PacketsReceived          uint64
	MaxWriteWaitTicks        int64
	MinPacketSize            int64
	MaxPacketSize            int64
}

// Snapshot copies out every counter.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	minSize := s.minPacketSize.Load()
	if minSize < 0 {
		minSize = 0
	}
	return StatisticsSnapshot{
		RequestsSent:            s.requestsSent.Load(),
		ResponsesSent:           s.responsesSent.Load(),
		ErrorsSent:              s.errorsSent.Load(),
		RequestsReceived:        s.requestsReceived.Load(),
		ResponsesReceived:       s.responsesReceived.Load(),
		ErrorsReceived:          s.errorsReceived.Load(),
		Timeouts:                s.timeouts.Load(),
		DiscardedResponses:      s.discardedResponses.Load(),
		LastDiscardedResponseID: s.lastDiscardedRespID.Load(),
		BytesSent:               s.bytesSent.Load(),
		BytesReceived:           s.bytesReceived.Load(),
		PacketsSent:             s.packetsSent.Load(),
		PacketsReceived:         s.packetsReceived.Load(),
		MaxWriteWaitTicks:       s.maxWriteWaitTicks.Load(),
		MinPacketSize:           minSize,
		MaxPacketSize:           s.maxPacketSize.Load(),
	}
}

// Prometheus metric descriptors, shared across every Statistics instance
// and distinguished by the "channel" and "role" labels at Collect time.
var (
	descRequestsSent = prometheus.NewDesc(
		"ringrpc_requests_sent_total", "Total REQUEST messages sent.",
		[]string{"channel", "role"}, nil)
	descResponsesSent = prometheus.NewDesc(
		"ringrpc_responses_sent_total", "Total RESPONSE messages sent.",
		[]string{"channel", "role"}, nil)
	descErrorsSent = prometheus.NewDesc(
		"ringrpc_errors_sent_total", "Total ERROR messages sent.",
		[]string{"channel", "role"}, nil)
	descRequestsReceived = prometheus.NewDesc(
		"ringrpc_requests_received_total", "Total REQUEST messages received.",
		[]string{"channel", "role"}, nil)
	descResponsesReceived = prometheus.NewDesc(
		"ringrpc_responses_received_total", "Total RESPONSE messages received.",
		[]string{"channel", "role"}, nil)
	descErrorsReceived = prometheus.NewDesc(
		"ringrpc_errors_received_total", "Total ERROR messages received.",
		[]string{"channel", "role"}, nil)
	descTimeouts = prometheus.NewDesc(
		"ringrpc_timeouts_total", "Total requests that timed out waiting for a response.",
		[]string{"channel", "role"}, nil)
	descDiscardedResponses = prometheus.NewDesc(
		"ringrpc_discarded_responses_total", "Total RESPONSE/ERROR packets discarded (unknown response_id).",
		[]string{"channel", "role"}, nil)
	descBytesSent = prometheus.NewDesc(
		"ringrpc_bytes_sent_total", "Total packet bytes written to the outbound ring.",
		[]string{"channel", "role"}, nil)
	descBytesReceived = prometheus.NewDesc(
		"ringrpc_bytes_received_total", "Total packet bytes read from the inbound ring.",
		[]string{"channel", "role"}, nil)
	descMaxWriteWaitTicks = prometheus.NewDesc(
		"ringrpc_max_write_wait_ticks", "Maximum nanoseconds spent waiting for a free outbound ring slot.",
		[]string{"channel", "role"}, nil)
)

// collector adapts a Statistics snapshot to prometheus.Collector.
type collector struct {
	stats   *Statistics
	channel string
	role    string
}

// PrometheusCollector returns a prometheus.Collector that reports this
// Statistics' counters under the given channel name and role
// ("master"/"slave") labels, grounded on marmos91-dittofs's per-subsystem
// metrics types (gss.GSSMetrics and friends).
func (s *Statistics) PrometheusCollector(channel, role string) prometheus.Collector {
	return &collector{stats: s, channel: channel, role: role}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRequestsSent
	ch <- descResponsesSent
	ch <- descErrorsSent
	ch <- descRequestsReceived
	ch <- descResponsesReceived
	ch <- descErrorsReceived
	ch <- descTimeouts
	ch <- descDiscardedResponses
	ch <- descBytesSent
	ch <- descBytesReceived
	ch <- descMaxWriteWaitTicks
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	emit := func(desc *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, c.channel, c.role)
	}
	emit(descRequestsSent, float64(snap.RequestsSent))
	emit(descResponsesSent, float64(snap.ResponsesSent))
	emit(descErrorsSent, float64(snap.ErrorsSent))
	emit(descRequestsReceived, float64(snap.RequestsReceived))
	emit(descResponsesReceived, float64(snap.ResponsesReceived))
	emit(descErrorsReceived, float64(snap.ErrorsReceived))
	emit(descTimeouts, float64(snap.Timeouts))
	emit(descDiscardedResponses, float64(snap.DiscardedResponses))
	emit(descBytesSent, float64(snap.BytesSent))
	emit(descBytesReceived, float64(snap.BytesReceived))
	ch <- prometheus.MustNewConstMetric(descMaxWriteWaitTicks, prometheus.GaugeValue, float64(snap.MaxWriteWaitTicks), c.channel, c.role)
}
