// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe_test

import (
	"bytes"
	"testing"

	"code.hybscloud.com/tinyframe"
)

func noopHandler(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
	return tinyframe.Stay
}

func TestAddIDListener_TableFull(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}), tinyframe.WithMaxIDListeners(2))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	if err := tf.AddIDListener(1, noopHandler, 0, nil, nil); err != nil {
		t.Fatalf("AddIDListener(1): %v", err)
	}
	if err := tf.AddIDListener(2, noopHandler, 0, nil, nil); err != nil {
		t.Fatalf("AddIDListener(2): %v", err)
	}
	if err := tf.AddIDListener(3, noopHandler, 0, nil, nil); err != tinyframe.ErrListenerTableFull {
		t.Fatalf("AddIDListener(3) error = %v, want ErrListenerTableFull", err)
	}
	// Freeing a slot must make room again.
	if !tf.RemoveIDListener(1) {
		t.Fatalf("RemoveIDListener(1) = false, want true")
	}
	if err := tf.AddIDListener(3, noopHandler, 0, nil, nil); err != nil {
		t.Fatalf("AddIDListener(3) after freeing a slot: %v", err)
	}
}

func TestRemoveTypeListener_UnknownKeyReturnsFalse(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	if tf.RemoveTypeListener(99) {
		t.Fatalf("RemoveTypeListener(99) = true, want false for a never-registered type")
	}
}

func TestGenericListener_HandleIsScopedToItsOwnRegistration(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	h1, err := tf.AddGenericListener(noopHandler)
	if err != nil {
		t.Fatalf("AddGenericListener: %v", err)
	}
	h2, err := tf.AddGenericListener(noopHandler)
	if err != nil {
		t.Fatalf("AddGenericListener: %v", err)
	}
	if !tf.RemoveGenericListener(h1) {
		t.Fatalf("RemoveGenericListener(h1) = false, want true")
	}
	if tf.RemoveGenericListener(h1) {
		t.Fatalf("RemoveGenericListener(h1) a second time = true, want false")
	}
	if !tf.RemoveGenericListener(h2) {
		t.Fatalf("RemoveGenericListener(h2) = false, want true")
	}
}

func TestAddIDListener_NilHandlerRejected(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	if err := tf.AddIDListener(1, nil, 0, nil, nil); err != tinyframe.ErrListenerTableFull {
		t.Fatalf("AddIDListener(nil) = %v, want ErrListenerTableFull", err)
	}
}
