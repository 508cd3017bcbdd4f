// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import "code.hybscloud.com/tinyframe/tflog"

// Receive state machine states. Traversal order follows the wire layout of
// spec §4.2 ([SOF?][ID][LEN][TYPE][HEADER_CKSUM][PAYLOAD][PAYLOAD_CKSUM]),
// which is authoritative over spec §4.3's looser state enumeration — see
// DESIGN.md for the reconciliation, grounded on spec §8 scenario 1's worked
// byte dump.
const (
	stSOF = iota
	stID
	stLEN
	stTYPE
	stHeadCksum
	stPayload
	stDataCksum
)

// rxState is the byte-fed receive parser (component C). It holds exactly
// the resumable state needed to process one byte at a time with no
// allocation in the steady state, the same discipline as the teacher's
// framer.readStream offset/header-scratch fields generalized from one
// length prefix to a full id/len/type header plus running checksum.
type rxState struct {
	state int

	fieldBuf [4]byte // scratch for the field currently being accumulated
	fieldGot int

	id, length, typ uint32

	// cksumState is a single running checksum accumulator carried
	// continuously across the header and payload: HEADER_CKSUM is an
	// intermediate snapshot (checksum.End applied, not reset), and
	// PAYLOAD_CKSUM is the final snapshot after continuing to fold in the
	// payload bytes. This matches the original TinyFrame C checksum
	// behavior and is the only reading consistent with spec §8 scenario
	// 1's worked example (see TestChecksumXOR_WorkedExample).
	cksumState uint64

	payload    []byte
	payloadGot int

	oversize    bool
	drainRemain int

	ticksSinceActivity int
}

func initialState(tf *TF) int {
	if tf.cfg.useSOF {
		return stSOF
	}
	return stID
}

func (rx *rxState) init(tf *TF) {
	rx.payload = make([]byte, tf.cfg.maxPayloadRX)
	rx.reset(tf)
}

// reset returns the parser to its initial state and drops any partial
// frame, per spec §4.3's resync policy. It is also used to prime the
// checksum accumulator for the next frame's header.
func (rx *rxState) reset(tf *TF) {
	rx.state = initialState(tf)
	rx.fieldGot = 0
	rx.payloadGot = 0
	rx.oversize = false
	rx.drainRemain = 0
	rx.cksumState = tf.cfg.checksum.Start()
	rx.ticksSinceActivity = 0
}

// Accept feeds bytes into the receive state machine. It is purely
// data-driven and never blocks; frames are dispatched inline as they
// complete (spec §4.3/§4.4).
func (tf *TF) Accept(p []byte) {
	if len(p) == 0 {
		return
	}
	tf.rx.ticksSinceActivity = 0
	for _, b := range p {
		tf.rx.acceptByte(tf, b)
	}
}

func (rx *rxState) tick(tf *TF) {
	if tf.cfg.parserTimeoutTicks == 0 {
		return
	}
	rx.ticksSinceActivity++
	if rx.ticksSinceActivity < tf.cfg.parserTimeoutTicks {
		return
	}
	if rx.state != initialState(tf) {
		tf.counters.WireErrors.Add(1)
		tf.cfg.logger(tflog.Error, "parser timeout, dropping partial frame")
	}
	rx.reset(tf)
}

func (rx *rxState) acceptByte(tf *TF, b byte) {
	switch rx.state {
	case stSOF:
		if b == tf.cfg.sofByte {
			rx.state = stID
		}
		// Any other byte is discarded while hunting for the sentinel.

	case stID:
		rx.accumulateHeaderField(tf, b, tf.cfg.idBytes, func(v uint64) {
			rx.id = uint32(v)
			rx.state = stLEN
		})

	case stLEN:
		rx.accumulateHeaderField(tf, b, tf.cfg.lenBytes, func(v uint64) {
			rx.length = uint32(v)
			rx.state = stTYPE
		})

	case stTYPE:
		rx.accumulateHeaderField(tf, b, tf.cfg.typeBytes, func(v uint64) {
			rx.typ = uint32(v)
			if tf.cfg.checksum.Width() == 0 {
				rx.beginPayload(tf)
			} else {
				rx.state = stHeadCksum
			}
		})

	case stHeadCksum:
		width := tf.cfg.checksum.Width()
		rx.fieldBuf[rx.fieldGot] = b
		rx.fieldGot++
		if rx.fieldGot != width {
			return
		}
		want := getBE(rx.fieldBuf[:width], width)
		got := tf.cfg.checksum.End(rx.cksumState)
		rx.fieldGot = 0
		if got != want {
			tf.counters.WireErrors.Add(1)
			tf.cfg.logger(tflog.Error, "header checksum mismatch", "want", want, "got", got)
			rx.reset(tf)
			return
		}
		rx.beginPayload(tf)

	case stPayload:
		if rx.oversize {
			rx.drainRemain--
			if rx.drainRemain == 0 {
				tf.counters.WireErrors.Add(1)
				tf.cfg.logger(tflog.Error, "payload dropped: exceeds MaxPayloadRX", "len", rx.length)
				// Per spec I4/§4.3 state 6, draining returns directly to the
				// initial state without attempting DATA_CKSUM.
				rx.reset(tf)
			}
			return
		}
		rx.payload[rx.payloadGot] = b
		rx.payloadGot++
		rx.cksumState = tf.cfg.checksum.Add(rx.cksumState, b)
		if rx.payloadGot != int(rx.length) {
			return
		}
		if tf.cfg.checksum.Width() == 0 {
			tf.finishFrame()
		} else {
			rx.state = stDataCksum
		}

	case stDataCksum:
		width := tf.cfg.checksum.Width()
		rx.fieldBuf[rx.fieldGot] = b
		rx.fieldGot++
		if rx.fieldGot != width {
			return
		}
		want := getBE(rx.fieldBuf[:width], width)
		got := tf.cfg.checksum.End(rx.cksumState)
		rx.fieldGot = 0
		if got != want {
			tf.counters.WireErrors.Add(1)
			tf.cfg.logger(tflog.Error, "payload checksum mismatch", "want", want, "got", got)
			rx.reset(tf)
			return
		}
		tf.finishFrame()
	}
}

// accumulateHeaderField folds b into the running checksum (header fields,
// unlike checksum-value bytes themselves, are always part of the checksum)
// and, once width bytes have been collected, decodes the field and invokes
// onComplete with the decoded value.
func (rx *rxState) accumulateHeaderField(tf *TF, b byte, width int, onComplete func(uint64)) {
	rx.cksumState = tf.cfg.checksum.Add(rx.cksumState, b)
	rx.fieldBuf[rx.fieldGot] = b
	rx.fieldGot++
	if rx.fieldGot != width {
		return
	}
	v := getBE(rx.fieldBuf[:width], width)
	rx.fieldGot = 0
	onComplete(v)
}

func (rx *rxState) beginPayload(tf *TF) {
	rx.payloadGot = 0
	if int(rx.length) > tf.cfg.maxPayloadRX {
		rx.oversize = true
		rx.drainRemain = int(rx.length)
		rx.state = stPayload
		return
	}
	rx.oversize = false
	if rx.length == 0 {
		// Per spec §4.2/§9: no payload checksum bytes are emitted or
		// expected when len == 0.
		tf.finishFrame()
		return
	}
	rx.state = stPayload
}

// finishFrame hands a fully validated frame to dispatch and resyncs the
// parser for the next frame.
func (tf *TF) finishFrame() {
	data := make([]byte, tf.rx.payloadGot)
	copy(data, tf.rx.payload[:tf.rx.payloadGot])
	f := Frame{ID: tf.rx.id, Type: tf.rx.typ, Data: data}
	tf.rx.reset(tf)
	tf.dispatch(&f)
}
