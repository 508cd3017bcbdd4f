// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock is the teacher's own non-blocking control-flow sentinel,
// reused verbatim rather than reinvented: a WriteSink over a non-blocking
// transport (see tfnet.NonBlockingSink) returns it from Write when the
// transport accepted nothing and the caller should back off and retry the
// whole operation later. Send/Respond/SendMultipart/MultipartPayload/
// MultipartClose propagate it like any other sink error: the TX lock is
// released and any not-yet-flushed bytes are discarded, so a partially sent
// frame is recovered the same way a dropped connection would be — by the
// receiver's checksum/resync logic, not by a byte-exact application retry.
var ErrWouldBlock = iox.ErrWouldBlock

var (
	// ErrInvalidConfig reports an invalid width, capacity, or checksum configuration
	// supplied to NewTF.
	ErrInvalidConfig = errors.New("tinyframe: invalid configuration")

	// ErrChecksumMismatch names a header or payload checksum failure. Accept
	// returns no error: the receive state machine resynchronizes and counts the
	// failure in Stats().WireErrors, and no function returns this value.
	ErrChecksumMismatch = errors.New("tinyframe: checksum mismatch")

	// ErrTooLong reports a payload exceeding the configured length-field width
	// on send. A payload exceeding MaxPayloadRX on receive is only counted in
	// Stats().WireErrors.
	ErrTooLong = errors.New("tinyframe: frame too long")

	// ErrParserTimeout names a reset of the receive state machine after
	// ParserTimeoutTicks of inactivity mid-frame. Tick returns no error: the
	// reset is counted in Stats().WireErrors, and no function returns this value.
	ErrParserTimeout = errors.New("tinyframe: parser timeout")

	// ErrListenerTableFull reports that an Add*Listener call found no free slot,
	// or was given a nil handler.
	ErrListenerTableFull = errors.New("tinyframe: listener table full")

	// ErrMultipartOpen reports an attempt to open a second multipart send before
	// the first was closed, or a payload/close call with no multipart send open.
	ErrMultipartOpen = errors.New("tinyframe: multipart send already open")

	// ErrMultipartLength reports that the bytes supplied across MultipartPayload
	// calls did not sum to the length committed by SendMultipart.
	ErrMultipartLength = errors.New("tinyframe: multipart payload length mismatch")

	// ErrIDExhausted reports that no collision-free id could be allocated; every
	// candidate in the allocator's probe budget was held by a live id-listener.
	ErrIDExhausted = errors.New("tinyframe: id space exhausted")

	// ErrSinkShort reports that the WriteSink accepted fewer bytes than requested.
	ErrSinkShort = errors.New("tinyframe: short write to sink")

	// ErrTxLocked reports that ClaimTx refused to grant the transmitter lock.
	ErrTxLocked = errors.New("tinyframe: transmitter busy")
)
