// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"github.com/prometheus/client_golang/prometheus"

	"code.hybscloud.com/tinyframe/tflog"
)

// Role affects the parity of freshly allocated outbound ids, so that two
// peers allocating concurrently cannot hand out the same id. The choice of
// which role gets which parity is arbitrary but must match between peers
// (see spec §4.5 / §9): this module fixes Master to even ids, Slave to odd.
type Role uint8

const (
	Master Role = iota
	Slave
)

// config holds the resolved configuration for a TF instance. It is built up
// from defaultConfig by Option functions, exactly as the teacher's
// Options/Option pair builds up framer's defaultOptions.
type config struct {
	idBytes, lenBytes, typeBytes int
	checksum                     Checksum
	useSOF                       bool
	sofByte                      byte

	maxPayloadRX int
	sendBufLen   int

	maxIDListeners  int
	maxTypeListeners int
	maxGenListeners int

	parserTimeoutTicks int

	role   Role
	locker TxLocker

	logger tflog.Func

	metricsReg    prometheus.Registerer
	metricsLabels prometheus.Labels
}

// defaultConfig mirrors the widths and capacities of the worked example
// configuration used throughout spec.md §8 and the reference TF_Config.h:
// ID_BYTES=1, LEN_BYTES=2, TYPE_BYTES=1, XOR checksum, SOF enabled at 0x01.
var defaultConfig = config{
	idBytes:   1,
	lenBytes:  2,
	typeBytes: 1,
	checksum:  ChecksumXOR,
	useSOF:    true,
	sofByte:   0x01,

	maxPayloadRX: 512,
	sendBufLen:   128,

	maxIDListeners:   5,
	maxTypeListeners: 5,
	maxGenListeners:  2,

	parserTimeoutTicks: 10,

	role:   Master,
	locker: noopLocker{},

	logger: tflog.Discard,
}

// Option configures a TF instance at construction time.
type Option func(*config)

// WithIDBytes sets the wire width of the id field (1, 2, or 4).
func WithIDBytes(n int) Option { return func(c *config) { c.idBytes = n } }

// WithLenBytes sets the wire width of the length field (1, 2, or 4). This is
// also the hard upper bound on any payload, independent of MaxPayloadRX.
func WithLenBytes(n int) Option { return func(c *config) { c.lenBytes = n } }

// WithTypeBytes sets the wire width of the type field (1, 2, or 4).
func WithTypeBytes(n int) Option { return func(c *config) { c.typeBytes = n } }

// WithChecksum selects the checksum kind used for both header and payload.
func WithChecksum(cksum Checksum) Option { return func(c *config) { c.checksum = cksum } }

// WithSOF enables the start-of-frame sentinel byte and sets its value.
func WithSOF(sof byte) Option {
	return func(c *config) { c.useSOF = true; c.sofByte = sof }
}

// WithoutSOF disables the start-of-frame sentinel. See spec §4.3's note on
// the resynchronization weakness of SOF-less configurations.
func WithoutSOF() Option { return func(c *config) { c.useSOF = false } }

// WithMaxPayloadRX caps the payload size the receive state machine will
// store; larger frames are parsed past the header and dropped (§4.3 state 6).
func WithMaxPayloadRX(n int) Option { return func(c *config) { c.maxPayloadRX = n } }

// WithSendBufLen sets the size of the bounded transmit chunk buffer.
func WithSendBufLen(n int) Option { return func(c *config) { c.sendBufLen = n } }

// WithMaxIDListeners sets the id-listener table capacity.
func WithMaxIDListeners(n int) Option { return func(c *config) { c.maxIDListeners = n } }

// WithMaxTypeListeners sets the type-listener table capacity.
func WithMaxTypeListeners(n int) Option { return func(c *config) { c.maxTypeListeners = n } }

// WithMaxGenListeners sets the generic-listener table capacity.
func WithMaxGenListeners(n int) Option { return func(c *config) { c.maxGenListeners = n } }

// WithParserTimeoutTicks sets how many Tick() calls of inactivity mid-frame
// reset the receive state machine. Zero disables the timeout.
func WithParserTimeoutTicks(n int) Option { return func(c *config) { c.parserTimeoutTicks = n } }

// WithRole sets the id-allocation parity (see Role).
func WithRole(r Role) Option { return func(c *config) { c.role = r } }

// WithMutex installs a TxLocker guarding the transmitter across sends and
// multipart chunks. Without this option the lock degenerates to an
// always-succeed no-op pair, matching spec §5's USE_MUTEX=0 behavior.
func WithMutex(locker TxLocker) Option { return func(c *config) { c.locker = locker } }

// WithLogger installs the callback used to report wire errors, listener
// evictions, and parser resyncs. The default discards all events.
func WithLogger(fn tflog.Func) Option { return func(c *config) { c.logger = fn } }

// WithMetrics registers a Prometheus collector exposing this instance's
// observability counters (see internal/metrics) against reg, labeled with
// constLabels.
func WithMetrics(reg prometheus.Registerer, constLabels prometheus.Labels) Option {
	return func(c *config) { c.metricsReg = reg; c.metricsLabels = constLabels }
}

type noopLocker struct{}

func (noopLocker) ClaimTx(*TF) bool { return true }
func (noopLocker) ReleaseTx(*TF)    {}
