// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe_test

import (
	"bytes"
	"testing"

	"code.hybscloud.com/tinyframe"
)

func frameBytes(t *testing.T, id, typ uint32, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&buf))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	if err := tf.Respond(id, typ, data); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	return buf.Bytes()
}

func TestDispatch_IDListenerTakesPriorityOverType(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	var sawID, sawType, sawGeneric bool
	if err := tf.AddIDListener(5, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		sawID = true
		return tinyframe.Stay
	}, 0, nil, nil); err != nil {
		t.Fatalf("AddIDListener: %v", err)
	}
	if err := tf.AddTypeListener(9, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		sawType = true
		return tinyframe.Stay
	}, 0, nil, nil); err != nil {
		t.Fatalf("AddTypeListener: %v", err)
	}
	if _, err := tf.AddGenericListener(func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		sawGeneric = true
		return tinyframe.Stay
	}); err != nil {
		t.Fatalf("AddGenericListener: %v", err)
	}

	tf.Accept(frameBytes(t, 5, 9, []byte("x")))
	if !sawID || sawType || sawGeneric {
		t.Fatalf("sawID=%v sawType=%v sawGeneric=%v, want only id listener to fire", sawID, sawType, sawGeneric)
	}
}

func TestDispatch_NextPropagatesAcrossTableBoundaries(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	var order []string
	if err := tf.AddIDListener(1, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		order = append(order, "id")
		return tinyframe.Next
	}, 0, nil, nil); err != nil {
		t.Fatalf("AddIDListener: %v", err)
	}
	if err := tf.AddTypeListener(2, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		order = append(order, "type")
		return tinyframe.Next
	}, 0, nil, nil); err != nil {
		t.Fatalf("AddTypeListener: %v", err)
	}
	if _, err := tf.AddGenericListener(func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		order = append(order, "generic")
		return tinyframe.Stay
	}); err != nil {
		t.Fatalf("AddGenericListener: %v", err)
	}

	tf.Accept(frameBytes(t, 1, 2, []byte("x")))
	want := []string{"id", "type", "generic"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDispatch_CloseRemovesListener(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	calls := 0
	if err := tf.AddIDListener(3, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		calls++
		return tinyframe.Close
	}, 0, nil, nil); err != nil {
		t.Fatalf("AddIDListener: %v", err)
	}

	tf.Accept(frameBytes(t, 3, 0, nil))
	tf.Accept(frameBytes(t, 3, 0, nil))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (listener should be gone after Close)", calls)
	}
}

func TestTick_EvictsExpiredIDListenerAndFiresTimeout(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	var timedOutKey uint32
	timedOut := false
	if err := tf.AddIDListener(4, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		return tinyframe.Stay
	}, 2, func(_ *tinyframe.TF, key uint32, _ any) {
		timedOut = true
		timedOutKey = key
	}, nil); err != nil {
		t.Fatalf("AddIDListener: %v", err)
	}

	tf.Tick()
	if timedOut {
		t.Fatalf("timed out after 1 tick, want 2")
	}
	tf.Tick()
	if !timedOut || timedOutKey != 4 {
		t.Fatalf("timedOut=%v key=%d, want true/4 after 2 ticks", timedOut, timedOutKey)
	}
	if st := tf.Stats(); st.ListenerEvictions != 1 {
		t.Fatalf("ListenerEvictions = %d, want 1", st.ListenerEvictions)
	}
}

func TestRenewIDListener_ResetsCountdown(t *testing.T) {
	tf, err := tinyframe.NewTF(tinyframe.WriterSink(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewTF: %v", err)
	}
	if err := tf.AddIDListener(6, func(*tinyframe.TF, *tinyframe.Frame, any) tinyframe.ListenerResult {
		return tinyframe.Stay
	}, 2, nil, nil); err != nil {
		t.Fatalf("AddIDListener: %v", err)
	}
	tf.Tick()
	if !tf.RenewIDListener(6) {
		t.Fatalf("RenewIDListener returned false for a live listener")
	}
	tf.Tick()
	// Countdown reset to 2: one tick after renew must not evict (without the
	// renew, this second tick overall would have evicted it).
	if st := tf.Stats(); st.ListenerEvictions != 0 {
		t.Fatalf("ListenerEvictions = %d, want 0 one tick after renew", st.ListenerEvictions)
	}
	tf.Tick()
	// The second tick after renew evicts it.
	if st := tf.Stats(); st.ListenerEvictions != 1 {
		t.Fatalf("ListenerEvictions = %d, want 1 after renew+2 ticks", st.ListenerEvictions)
	}
}
