// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

// multipartState tracks an in-progress SendMultipart/MultipartPayload/
// MultipartClose sequence. Only one may be open per instance at a time
// (spec §4.5, I5): the transmitter lock is held from SendMultipart through
// MultipartClose, inclusive.
type multipartState struct {
	open       bool
	id         uint32
	typ        uint32
	remain     int
	cksumState uint64
}

// writeByte appends one byte to the bounded transmit buffer, flushing to
// the sink once it fills. This is the chunked-output mechanism of spec
// §4.5, grounded on internal.go's writeStream chunked-write loop.
func (tf *TF) writeByte(b byte) error {
	tf.sendBuf = append(tf.sendBuf, b)
	if len(tf.sendBuf) >= cap(tf.sendBuf) {
		return tf.flushSendBuf()
	}
	return nil
}

func (tf *TF) flushSendBuf() error {
	if len(tf.sendBuf) == 0 {
		return nil
	}
	n, err := tf.sink.Write(tf, tf.sendBuf)
	buffered := len(tf.sendBuf)
	tf.sendBuf = tf.sendBuf[:0]
	if err != nil {
		return err
	}
	if n != buffered {
		return ErrSinkShort
	}
	return nil
}

// writeField encodes v into width big-endian bytes, folds each byte into
// cksumState (header fields are always part of the running checksum), and
// streams them out.
func (tf *TF) writeField(cksumState uint64, v uint32, width int) (uint64, error) {
	var buf [4]byte
	putBE(buf[:width], width, uint64(v))
	for i := 0; i < width; i++ {
		cksumState = tf.cfg.checksum.Add(cksumState, buf[i])
		if err := tf.writeByte(buf[i]); err != nil {
			return cksumState, err
		}
	}
	return cksumState, nil
}

func (tf *TF) writeRaw(v uint64, width int) error {
	var buf [4]byte
	putBE(buf[:width], width, v)
	for i := 0; i < width; i++ {
		if err := tf.writeByte(buf[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeHeader emits [SOF?][ID][LEN][TYPE][HEADER_CKSUM] and returns the
// running checksum state, ready to continue accumulating through the
// payload — the mirror image of rxState's header parse.
func (tf *TF) writeHeader(id, typ, length uint32) (uint64, error) {
	if tf.cfg.useSOF {
		if err := tf.writeByte(tf.cfg.sofByte); err != nil {
			return 0, err
		}
	}
	cksumState := tf.cfg.checksum.Start()
	var err error
	cksumState, err = tf.writeField(cksumState, id, tf.cfg.idBytes)
	if err != nil {
		return cksumState, err
	}
	cksumState, err = tf.writeField(cksumState, length, tf.cfg.lenBytes)
	if err != nil {
		return cksumState, err
	}
	cksumState, err = tf.writeField(cksumState, typ, tf.cfg.typeBytes)
	if err != nil {
		return cksumState, err
	}
	if width := tf.cfg.checksum.Width(); width > 0 {
		snap := tf.cfg.checksum.End(cksumState)
		if err := tf.writeRaw(snap, width); err != nil {
			return cksumState, err
		}
	}
	return cksumState, nil
}

func (tf *TF) writePayloadChunk(cksumState uint64, p []byte) (uint64, error) {
	for _, b := range p {
		cksumState = tf.cfg.checksum.Add(cksumState, b)
		if err := tf.writeByte(b); err != nil {
			return cksumState, err
		}
	}
	return cksumState, nil
}

// writePayloadChecksum finalizes and emits PAYLOAD_CKSUM. Per spec §4.2/§9,
// callers must not invoke this for a zero-length payload.
func (tf *TF) writePayloadChecksum(cksumState uint64) error {
	width := tf.cfg.checksum.Width()
	if width == 0 {
		return nil
	}
	return tf.writeRaw(tf.cfg.checksum.End(cksumState), width)
}

func (tf *TF) validateOutbound(typ uint32, data []byte) error {
	if typ > uint32(tf.typeMask) {
		return ErrInvalidConfig
	}
	if uint64(len(data)) > tf.lenMask {
		return ErrTooLong
	}
	return nil
}

// allocateID draws the next outbound id from the monotone per-instance
// counter, skipping any candidate bound to a live id-listener (I1/I2). The
// low bit encodes role parity (Master: even, Slave: odd); the counter wraps
// modulo 2^(8*IDBytes). allocateID gives up after probing more candidates
// than the id-listener table has capacity, since a collision-free id must
// exist among that many consecutive candidates by pigeonhole.
func (tf *TF) allocateID() (uint32, error) {
	maxAttempts := len(tf.idListeners) + 1
	for i := 0; i < maxAttempts; i++ {
		candidate := uint32(tf.nextID & tf.idMask)
		tf.nextID = (tf.nextID + 2) & tf.idMask
		if !tf.idListenerActive(candidate) {
			return candidate, nil
		}
	}
	return 0, ErrIDExhausted
}

// sendFrame performs one complete single-shot wire send under the TX lock,
// releasing it on every exit path.
func (tf *TF) sendFrame(id, typ uint32, data []byte) error {
	if !tf.cfg.locker.ClaimTx(tf) {
		return ErrTxLocked
	}
	cksumState, err := tf.writeHeader(id, typ, uint32(len(data)))
	if err != nil {
		return tf.abortSend(err)
	}
	if len(data) > 0 {
		cksumState, err = tf.writePayloadChunk(cksumState, data)
		if err != nil {
			return tf.abortSend(err)
		}
		if err = tf.writePayloadChecksum(cksumState); err != nil {
			return tf.abortSend(err)
		}
	}
	if err = tf.flushSendBuf(); err != nil {
		return tf.abortSend(err)
	}
	tf.cfg.locker.ReleaseTx(tf)
	return nil
}

func (tf *TF) abortSend(err error) error {
	tf.sendBuf = tf.sendBuf[:0]
	tf.cfg.locker.ReleaseTx(tf)
	return err
}

// Send allocates a fresh id, serializes typ/data as one frame, and writes
// it through the sink. No listener is registered for the reply.
func (tf *TF) Send(typ uint32, data []byte) (id uint32, err error) {
	if err = tf.validateOutbound(typ, data); err != nil {
		return 0, err
	}
	id, err = tf.allocateID()
	if err != nil {
		return 0, err
	}
	if err = tf.sendFrame(id, typ, data); err != nil {
		return 0, err
	}
	return id, nil
}

// Query is like Send but first registers an id-listener bound to the
// allocated id, before the first wire byte is written — so a reply arriving
// immediately after the write cannot miss its listener (spec §5 ordering
// guarantee ii). If the listener table is full, the frame is not sent.
func (tf *TF) Query(typ uint32, data []byte, timeoutTicks int, h Handler, onTimeout TimeoutHandler, userdata any) (id uint32, err error) {
	if err = tf.validateOutbound(typ, data); err != nil {
		return 0, err
	}
	id, err = tf.allocateID()
	if err != nil {
		return 0, err
	}
	if err = tf.AddIDListener(id, h, timeoutTicks, onTimeout, userdata); err != nil {
		return 0, err
	}
	if err = tf.sendFrame(id, typ, data); err != nil {
		tf.RemoveIDListener(id)
		return 0, err
	}
	return id, nil
}

// Respond sends using id as-is, with no allocation, so a responder can
// correlate its reply with the requester's id.
func (tf *TF) Respond(id, typ uint32, data []byte) error {
	if err := tf.validateOutbound(typ, data); err != nil {
		return err
	}
	if id > uint32(tf.idMask) {
		return ErrInvalidConfig
	}
	return tf.sendFrame(id, typ, data)
}

// SendMultipart opens a multipart send: length is committed to the wire
// immediately, and the payload is supplied by subsequent MultipartPayload
// calls. The TX lock is acquired here and held until MultipartClose. A
// zero-length send is complete on return: its header is flushed, the lock is
// released, no multipart stays open, and MultipartClose is not called.
func (tf *TF) SendMultipart(typ uint32, length int) (id uint32, err error) {
	if tf.mp.open {
		return 0, ErrMultipartOpen
	}
	if typ > uint32(tf.typeMask) {
		return 0, ErrInvalidConfig
	}
	if length < 0 || uint64(length) > tf.lenMask {
		return 0, ErrTooLong
	}
	id, err = tf.allocateID()
	if err != nil {
		return 0, err
	}
	if !tf.cfg.locker.ClaimTx(tf) {
		return 0, ErrTxLocked
	}
	cksumState, err := tf.writeHeader(id, typ, uint32(length))
	if err != nil {
		return 0, tf.abortSend(err)
	}
	if length == 0 {
		if err := tf.flushSendBuf(); err != nil {
			return 0, tf.abortSend(err)
		}
		tf.cfg.locker.ReleaseTx(tf)
		tf.counters.MultipartSends.Add(1)
		return id, nil
	}
	tf.mp = multipartState{open: true, id: id, typ: typ, remain: length, cksumState: cksumState}
	return id, nil
}

// MultipartPayload streams the next chunk of an open multipart send's
// payload. The sum of bytes supplied across all calls must equal the
// length committed by SendMultipart.
func (tf *TF) MultipartPayload(p []byte) error {
	if !tf.mp.open {
		return ErrMultipartOpen
	}
	if len(p) > tf.mp.remain {
		return tf.abortMultipart(ErrMultipartLength)
	}
	cksumState, err := tf.writePayloadChunk(tf.mp.cksumState, p)
	tf.mp.cksumState = cksumState
	if err != nil {
		return tf.abortMultipart(err)
	}
	tf.mp.remain -= len(p)
	return nil
}

// MultipartClose emits the payload checksum and releases the TX lock.
func (tf *TF) MultipartClose() error {
	if !tf.mp.open {
		return ErrMultipartOpen
	}
	if tf.mp.remain != 0 {
		return tf.abortMultipart(ErrMultipartLength)
	}
	if err := tf.writePayloadChecksum(tf.mp.cksumState); err != nil {
		return tf.abortMultipart(err)
	}
	if err := tf.flushSendBuf(); err != nil {
		return tf.abortMultipart(err)
	}
	tf.cfg.locker.ReleaseTx(tf)
	tf.mp = multipartState{}
	tf.counters.MultipartSends.Add(1)
	return nil
}

func (tf *TF) abortMultipart(err error) error {
	tf.sendBuf = tf.sendBuf[:0]
	tf.cfg.locker.ReleaseTx(tf)
	tf.mp = multipartState{}
	return err
}
