// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes a single TinyFrame instance's observability
// counters as a prometheus.Collector. The Describe/Collect shape and the
// NewCollector(counters, constLabels) constructor are grounded on
// runZeroInc-sockstats/pkg/exporter.TCPInfoCollector, generalized from "one
// row per polled TCP connection" to "one row per TinyFrame instance".
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters are the raw, lock-free observability counters a *tinyframe.TF
// updates directly from its single owning goroutine. Collector reads them
// from Collect, which Prometheus may call concurrently from a scrape
// goroutine, hence the atomics.
type Counters struct {
	WireErrors        atomic.Uint64 // checksum mismatches + oversize drops + parser timeouts
	FramesDispatched  atomic.Uint64
	ListenerEvictions atomic.Uint64 // TTL expirations (not normal Close)
	MultipartSends    atomic.Uint64
}

// Collector adapts a Counters to prometheus.Collector.
type Collector struct {
	counters *Counters

	wireErrors        *prometheus.Desc
	framesDispatched  *prometheus.Desc
	listenerEvictions *prometheus.Desc
	multipartSends    *prometheus.Desc
}

// NewCollector returns a Collector reporting c's values, with metric names
// under "tinyframe_" and the given constant labels attached to every series
// (e.g. an instance or link name, mirroring NewTCPInfoCollector's
// constLabels parameter).
func NewCollector(c *Counters, constLabels prometheus.Labels) *Collector {
	return &Collector{
		counters: c,
		wireErrors: prometheus.NewDesc(
			"tinyframe_wire_errors_total",
			"Frames dropped due to checksum mismatch, oversize payload, or parser timeout.",
			nil, constLabels,
		),
		framesDispatched: prometheus.NewDesc(
			"tinyframe_frames_dispatched_total",
			"Frames successfully parsed and handed to a listener.",
			nil, constLabels,
		),
		listenerEvictions: prometheus.NewDesc(
			"tinyframe_listener_evictions_total",
			"Id/type listeners removed by TTL expiration rather than CLOSE.",
			nil, constLabels,
		),
		multipartSends: prometheus.NewDesc(
			"tinyframe_multipart_sends_total",
			"Multipart sends completed via MultipartClose, or by SendMultipart for a zero-length payload.",
			nil, constLabels,
		),
	}
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.wireErrors
	descs <- c.framesDispatched
	descs <- c.listenerEvictions
	descs <- c.multipartSends
}

func (c *Collector) Collect(out chan<- prometheus.Metric) {
	out <- prometheus.MustNewConstMetric(c.wireErrors, prometheus.CounterValue, float64(c.counters.WireErrors.Load()))
	out <- prometheus.MustNewConstMetric(c.framesDispatched, prometheus.CounterValue, float64(c.counters.FramesDispatched.Load()))
	out <- prometheus.MustNewConstMetric(c.listenerEvictions, prometheus.CounterValue, float64(c.counters.ListenerEvictions.Load()))
	out <- prometheus.MustNewConstMetric(c.multipartSends, prometheus.CounterValue, float64(c.counters.MultipartSends.Load()))
}
