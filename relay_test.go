// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe_test

import (
	"bytes"
	"testing"

	"code.hybscloud.com/tinyframe"
)

func TestRelay_ForwardsWithFreshID(t *testing.T) {
	var dstWire bytes.Buffer
	dst, err := tinyframe.NewTF(tinyframe.WriterSink(&dstWire))
	if err != nil {
		t.Fatalf("NewTF(dst): %v", err)
	}
	src, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF(src): %v", err)
	}

	relay := tinyframe.NewRelay(dst, false, func(err error, f *tinyframe.Frame) {
		t.Fatalf("relay error for frame %+v: %v", f, err)
	})
	if _, err := relay.Attach(src); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	src.Accept(frameBytes(t, 7, 3, []byte("relayed")))

	receiver, got := newCapture(t)
	receiver.Accept(dstWire.Bytes())
	if len(*got) != 1 || string((*got)[0].Data) != "relayed" {
		t.Fatalf("dispatched = %+v, want one frame with Data=relayed", *got)
	}
}

func TestRelay_PreservesIDWhenConfigured(t *testing.T) {
	var dstWire bytes.Buffer
	dst, err := tinyframe.NewTF(tinyframe.WriterSink(&dstWire))
	if err != nil {
		t.Fatalf("NewTF(dst): %v", err)
	}
	src, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF(src): %v", err)
	}

	relay := tinyframe.NewRelay(dst, true, nil)
	if _, err := relay.Attach(src); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	src.Accept(frameBytes(t, 42, 3, []byte("x")))

	receiver, got := newCapture(t)
	receiver.Accept(dstWire.Bytes())
	if len(*got) != 1 || (*got)[0].ID != 42 {
		t.Fatalf("dispatched = %+v, want one frame with ID=42", *got)
	}
}

func TestRelay_ReportsSendErrors(t *testing.T) {
	dst, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}), tinyframe.WithLenBytes(1))
	if err != nil {
		t.Fatalf("NewTF(dst): %v", err)
	}
	src, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF(src): %v", err)
	}

	var relayErr error
	relay := tinyframe.NewRelay(dst, false, func(err error, _ *tinyframe.Frame) { relayErr = err })
	if _, err := relay.Attach(src); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	// dst's 1-byte length field caps payloads at 255 bytes; src sends more.
	src.Accept(frameBytes(t, 1, 1, bytes.Repeat([]byte{'y'}, 300)))
	if relayErr != tinyframe.ErrTooLong {
		t.Fatalf("relay error = %v, want ErrTooLong", relayErr)
	}
}
