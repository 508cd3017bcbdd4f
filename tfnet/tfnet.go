// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tfnet adapts net.Conn and net.PacketConn transports to
// tinyframe.WriteSink and drives tinyframe.TF.Accept/Tick from them.
package tfnet

import (
	"context"
	"net"
	"time"

	"code.hybscloud.com/tinyframe"
)

// Kind identifies a transport class. TinyFrame's wire format does not vary
// by transport the way framer's BinaryStream/SeqPacket/Datagram protocols
// do, so unlike netopts.go's defaultsFor table (which picks a Protocol and
// byte order per transport), Kind only selects a read-buffer size and an
// idle-tick interval — grounded on the same "one lookup table per
// transport" shape.
type Kind uint8

const (
	TCP Kind = iota
	Unix
	Packet
)

func defaultsFor(kind Kind) (readBuf int, tick time.Duration) {
	switch kind {
	case TCP, Unix:
		return 4096, 100 * time.Millisecond
	case Packet:
		return 65507, 100 * time.Millisecond
	default:
		return 4096, 100 * time.Millisecond
	}
}

// Sink adapts a net.Conn to tinyframe.WriteSink.
type Sink struct{ conn net.Conn }

// NewSink wraps conn for use as a TF instance's WriteSink.
func NewSink(conn net.Conn) Sink { return Sink{conn: conn} }

func (s Sink) Write(_ *tinyframe.TF, p []byte) (int, error) { return s.conn.Write(p) }

// NonBlockingSink adapts a net.Conn to tinyframe.WriteSink with non-blocking
// semantics, the same contract the teacher's framer offers over a
// non-blocking reader/writer: Write attempts the send under a short
// deadline and translates a timeout into tinyframe.ErrWouldBlock instead of
// letting the caller block on a slow or stalled peer.
type NonBlockingSink struct {
	conn    net.Conn
	timeout time.Duration
}

// NewNonBlockingSink wraps conn so that Write gives up and returns
// tinyframe.ErrWouldBlock after timeout instead of blocking. A zero timeout
// means "don't wait at all" (net.Conn's own poll-and-return-immediately
// behavior under an already-past deadline).
func NewNonBlockingSink(conn net.Conn, timeout time.Duration) NonBlockingSink {
	return NonBlockingSink{conn: conn, timeout: timeout}
}

func (s NonBlockingSink) Write(_ *tinyframe.TF, p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, err
	}
	n, err := s.conn.Write(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, tinyframe.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

// PacketSink adapts a net.PacketConn bound to a fixed peer address.
type PacketSink struct {
	conn net.PacketConn
	addr net.Addr
}

// NewPacketSink wraps conn for use as a TF instance's WriteSink, sending
// every write to addr.
func NewPacketSink(conn net.PacketConn, addr net.Addr) PacketSink {
	return PacketSink{conn: conn, addr: addr}
}

func (s PacketSink) Write(_ *tinyframe.TF, p []byte) (int, error) {
	return s.conn.WriteTo(p, s.addr)
}

// Pump reads from conn and feeds tf.Accept until conn.Read returns a
// non-timeout error or ctx is canceled, calling tf.Tick once per tick
// interval so ParserTimeoutTicks and listener TTLs advance even on an idle
// connection. It returns nil if ctx was canceled, otherwise the terminal
// read error.
func Pump(ctx context.Context, tf *tinyframe.TF, conn net.Conn, kind Kind) error {
	readBuf, tick := defaultsFor(kind)
	buf := make([]byte, readBuf)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(tick))
		n, err := conn.Read(buf)
		if n > 0 {
			tf.Accept(buf[:n])
		}
		tf.Tick()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
	}
}

// PumpPacket is Pump's net.PacketConn counterpart, used for UDP and Unix
// datagram transports where each ReadFrom call yields one datagram.
func PumpPacket(ctx context.Context, tf *tinyframe.TF, conn net.PacketConn) error {
	_, tick := defaultsFor(Packet)
	buf := make([]byte, 65507)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(tick))
		n, _, err := conn.ReadFrom(buf)
		if n > 0 {
			tf.Accept(buf[:n])
		}
		tf.Tick()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
	}
}

// RunTCP pumps conn under TCP transport defaults. It is the common-case
// wrapper around Pump for a TCP connection already wired to a *tinyframe.TF
// via NewSink.
func RunTCP(ctx context.Context, tf *tinyframe.TF, conn net.Conn) error {
	return Pump(ctx, tf, conn, TCP)
}

// RunUnix pumps conn under Unix stream transport defaults.
func RunUnix(ctx context.Context, tf *tinyframe.TF, conn net.Conn) error {
	return Pump(ctx, tf, conn, Unix)
}
