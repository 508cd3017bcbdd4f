// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tinyframe implements TinyFrame, a compact framing and
// multiplexing protocol for byte-oriented transports (serial links, radio
// packets, pipes, sockets). It layers a reliable per-frame structure —
// configurable header, independent header/payload checksums, a listener
// registry with id/type/generic dispatch and TTL eviction, and a sender
// supporting single, query/response, and streamed multipart sends — on top
// of an unreliable or stream-like carrier.
//
// A *TF instance is single-threaded and cooperative: Accept, Send*, Tick,
// and the listener-registry methods on one instance must be serialized by
// the caller, exactly like this module's teacher keeps a *framer
// single-goroutine per direction. Distinct instances share no state.
package tinyframe

import (
	"io"

	"code.hybscloud.com/tinyframe/internal/metrics"
	"code.hybscloud.com/tinyframe/tflog"
)

// Frame is a complete logical unit exchanged over the wire: an id binding it
// to a conversation, a type classifying its payload, and the payload itself.
type Frame struct {
	ID   uint32
	Type uint32
	Data []byte
}

// ListenerResult is returned by a Handler to control dispatch and the
// listener's lifecycle (spec §3/§4.4).
type ListenerResult uint8

const (
	// Close removes the listener. No timeout handler fires: this is a
	// normal, caller-requested close, not a TTL eviction.
	Close ListenerResult = iota
	// Stay keeps the listener, remaining_ticks unchanged.
	Stay
	// Renew keeps the listener and resets remaining_ticks to timeout_ticks.
	Renew
	// Next declines this match: dispatch continues to the next matching
	// entry in the same table, then to the next table.
	Next
)

// Handler is a pure function of instance and frame. It receives the owning
// instance explicitly rather than capturing it, per spec §9's note on
// strict ownership; closures over caller state use the userdata parameter.
type Handler func(tf *TF, f *Frame, userdata any) ListenerResult

// TimeoutHandler fires when an id or type listener is evicted by TTL
// expiration (not by a handler returning Close).
type TimeoutHandler func(tf *TF, idOrType uint32, userdata any)

// WriteSink is the required external collaborator: a synchronous,
// byte-oriented write call made under the TX lock (when one is configured).
// Partial writes are reported as ErrSinkShort; the contract does not define
// retry behavior for the sink itself.
type WriteSink interface {
	Write(tf *TF, p []byte) (int, error)
}

// TxLocker is the optional external collaborator guarding the transmitter
// across a send or a multipart sequence. When not configured, ClaimTx and
// ReleaseTx behave as an always-succeeding no-op pair (spec §5, §6).
type TxLocker interface {
	ClaimTx(tf *TF) bool
	ReleaseTx(tf *TF)
}

// WriterSink adapts a plain io.Writer to WriteSink, for callers who do not
// need the instance argument.
func WriterSink(w io.Writer) WriteSink { return writerSink{w} }

type writerSink struct{ w io.Writer }

func (s writerSink) Write(_ *TF, p []byte) (int, error) { return s.w.Write(p) }

// Stats is a point-in-time snapshot of an instance's observability counters.
type Stats struct {
	WireErrors        uint64
	FramesDispatched  uint64
	ListenerEvictions uint64
	MultipartSends    uint64
}

// TF is a TinyFrame instance: configuration, role, receive state machine,
// id allocator, and the three listener tables.
type TF struct {
	cfg  config
	sink WriteSink

	idMask, lenMask, typeMask uint64

	rx rxState

	nextID        uint64
	idListeners   []listenerEntry
	typeListeners []listenerEntry
	genListeners  []listenerEntry
	genSeq        uint64

	sendBuf []byte
	mp      multipartState

	counters metrics.Counters
}

func widthMask(bytes int) uint64 {
	if bytes >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(bytes)) - 1
}

func validWidth(n int) bool { return n == 1 || n == 2 || n == 4 }

// NewTF constructs a TinyFrame instance writing to sink, applying opts over
// defaultConfig. It returns ErrInvalidConfig for invalid widths or
// non-positive required capacities; this is the "configuration error,
// surfaced at init" class of spec §7.
func NewTF(sink WriteSink, opts ...Option) (*TF, error) {
	if sink == nil {
		return nil, ErrInvalidConfig
	}
	cfg := defaultConfig
	for _, fn := range opts {
		fn(&cfg)
	}
	if !validWidth(cfg.idBytes) || !validWidth(cfg.lenBytes) || !validWidth(cfg.typeBytes) {
		return nil, ErrInvalidConfig
	}
	if cfg.checksum == nil || cfg.checksum.Width() < 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.maxPayloadRX <= 0 || cfg.sendBufLen <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.maxIDListeners < 0 || cfg.maxTypeListeners < 0 || cfg.maxGenListeners < 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.parserTimeoutTicks < 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.locker == nil {
		cfg.locker = noopLocker{}
	}
	if cfg.logger == nil {
		cfg.logger = tflog.Discard
	}

	tf := &TF{
		cfg:           cfg,
		sink:          sink,
		idMask:        widthMask(cfg.idBytes),
		lenMask:       widthMask(cfg.lenBytes),
		typeMask:      widthMask(cfg.typeBytes),
		idListeners:   make([]listenerEntry, cfg.maxIDListeners),
		typeListeners: make([]listenerEntry, cfg.maxTypeListeners),
		genListeners:  make([]listenerEntry, cfg.maxGenListeners),
		sendBuf:       make([]byte, 0, cfg.sendBufLen),
	}
	tf.rx.init(tf)
	if cfg.role == Slave {
		tf.nextID = 1
	}
	if cfg.metricsReg != nil {
		_ = cfg.metricsReg.Register(metrics.NewCollector(&tf.counters, cfg.metricsLabels))
	}
	return tf, nil
}

// Collector returns a Prometheus collector exposing tf's observability
// counters, for callers who want to register it themselves rather than via
// WithMetrics.
func (tf *TF) Collector(constLabels map[string]string) *metrics.Collector {
	return metrics.NewCollector(&tf.counters, constLabels)
}

// Stats returns a snapshot of tf's observability counters.
func (tf *TF) Stats() Stats {
	return Stats{
		WireErrors:        tf.counters.WireErrors.Load(),
		FramesDispatched:  tf.counters.FramesDispatched.Load(),
		ListenerEvictions: tf.counters.ListenerEvictions.Load(),
		MultipartSends:    tf.counters.MultipartSends.Load(),
	}
}

// Tick advances the receive parser's inactivity timeout and decrements
// remaining_ticks on every active id/type listener with a nonzero timeout,
// firing TimeoutHandler and evicting any that reach zero (spec §4.3, §4.4).
func (tf *TF) Tick() {
	tf.rx.tick(tf)
	tickTable(tf, tf.idListeners)
	tickTable(tf, tf.typeListeners)
}

func tickTable(tf *TF, table []listenerEntry) {
	for i := range table {
		l := &table[i]
		if !l.active || l.timeoutTicks == 0 {
			continue
		}
		l.remainingTicks--
		if l.remainingTicks <= 0 {
			key := l.key
			onTimeout := l.onTimeout
			userdata := l.userdata
			l.active = false
			tf.counters.ListenerEvictions.Add(1)
			tf.cfg.logger(tflog.Info, "listener evicted by timeout", "key", key)
			if onTimeout != nil {
				onTimeout(tf, key, userdata)
			}
		}
	}
}
