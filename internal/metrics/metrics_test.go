// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"code.hybscloud.com/tinyframe/internal/metrics"
)

func TestCollector_ReportsCounterValues(t *testing.T) {
	c := &metrics.Counters{}
	c.WireErrors.Add(2)
	c.FramesDispatched.Add(10)
	c.ListenerEvictions.Add(1)
	c.MultipartSends.Add(3)

	collector := metrics.NewCollector(c, prometheus.Labels{"link": "test"})
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		t.Fatalf("Register: %v", err)
	}

	const want = `
# HELP tinyframe_wire_errors_total Frames dropped due to checksum mismatch, oversize payload, or parser timeout.
# TYPE tinyframe_wire_errors_total counter
tinyframe_wire_errors_total{link="test"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "tinyframe_wire_errors_total"); err != nil {
		t.Fatalf("GatherAndCompare: %v", err)
	}
}

func TestCollector_DescribeEmitsAllFourMetrics(t *testing.T) {
	collector := metrics.NewCollector(&metrics.Counters{}, nil)
	descs := make(chan *prometheus.Desc, 8)
	collector.Describe(descs)
	close(descs)
	n := 0
	for range descs {
		n++
	}
	if n != 4 {
		t.Fatalf("Describe emitted %d descriptors, want 4", n)
	}
}
