// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import "code.hybscloud.com/tinyframe/tflog"

// listenerEntry is one slot of a fixed-capacity listener table. Tables are
// preallocated slices sized to their configured capacity and never grow
// (spec §9's "Listener tables as fixed arrays" note): Add takes the lowest
// inactive slot, Remove/eviction just clears `active`. Dispatch walks slots
// in index order, which is registration order only until a slot is freed
// and reused; entries are never compacted or reordered.
type listenerEntry struct {
	active bool

	key     uint32 // id, for an id-listener; type, for a type-listener; unused for generic
	handler Handler

	timeoutTicks   int
	remainingTicks int
	onTimeout      TimeoutHandler
	userdata       any

	genHandle uint64 // nonzero only for generic-listener slots, for RemoveGenericListener
}

// GenericListenerHandle identifies a generic listener for removal. Go funcs
// are not comparable, so unlike the C API's remove_generic_listener(handler)
// this module hands back an opaque token from AddGenericListener instead of
// requiring handler equality — see DESIGN.md.
type GenericListenerHandle struct{ handle uint64 }

func addListener(table []listenerEntry, key uint32, h Handler, timeoutTicks int, onTimeout TimeoutHandler, userdata any) (int, bool) {
	if h == nil {
		return -1, false
	}
	for i := range table {
		if !table[i].active {
			table[i] = listenerEntry{
				active:         true,
				key:            key,
				handler:        h,
				timeoutTicks:   timeoutTicks,
				remainingTicks: timeoutTicks,
				onTimeout:      onTimeout,
				userdata:       userdata,
			}
			return i, true
		}
	}
	return -1, false
}

// AddIDListener registers h to receive frames whose id matches id. timeoutTicks
// of zero disables eviction; otherwise the listener is evicted and onTimeout
// (if non-nil) fires after timeoutTicks Tick() calls without a RENEW or a
// matching frame (spec §4.4).
func (tf *TF) AddIDListener(id uint32, h Handler, timeoutTicks int, onTimeout TimeoutHandler, userdata any) error {
	if _, ok := addListener(tf.idListeners, id, h, timeoutTicks, onTimeout, userdata); !ok {
		return ErrListenerTableFull
	}
	tf.cfg.logger(tflog.Debug, "id listener added", "id", id)
	return nil
}

// AddTypeListener registers h to receive frames whose type matches typ.
func (tf *TF) AddTypeListener(typ uint32, h Handler, timeoutTicks int, onTimeout TimeoutHandler, userdata any) error {
	if _, ok := addListener(tf.typeListeners, typ, h, timeoutTicks, onTimeout, userdata); !ok {
		return ErrListenerTableFull
	}
	tf.cfg.logger(tflog.Debug, "type listener added", "type", typ)
	return nil
}

// AddGenericListener registers h as a catch-all, dispatched after all id and
// type listeners. Generic listeners have no TTL. The returned handle is used
// with RemoveGenericListener.
func (tf *TF) AddGenericListener(h Handler) (GenericListenerHandle, error) {
	tf.genSeq++
	handle := tf.genSeq
	idx, ok := addListener(tf.genListeners, 0, h, 0, nil, nil)
	if !ok {
		return GenericListenerHandle{}, ErrListenerTableFull
	}
	tf.genListeners[idx].genHandle = handle
	return GenericListenerHandle{handle: handle}, nil
}

// RemoveIDListener removes the id-listener registered for id, if any.
func (tf *TF) RemoveIDListener(id uint32) bool {
	for i := range tf.idListeners {
		if tf.idListeners[i].active && tf.idListeners[i].key == id {
			tf.idListeners[i].active = false
			return true
		}
	}
	return false
}

// RemoveTypeListener removes the type-listener registered for typ, if any.
func (tf *TF) RemoveTypeListener(typ uint32) bool {
	for i := range tf.typeListeners {
		if tf.typeListeners[i].active && tf.typeListeners[i].key == typ {
			tf.typeListeners[i].active = false
			return true
		}
	}
	return false
}

// RemoveGenericListener removes the generic listener identified by handle.
func (tf *TF) RemoveGenericListener(handle GenericListenerHandle) bool {
	for i := range tf.genListeners {
		if tf.genListeners[i].active && tf.genListeners[i].genHandle == handle.handle {
			tf.genListeners[i].active = false
			return true
		}
	}
	return false
}

// RenewIDListener resets the remaining-ticks countdown of the id-listener
// registered for id back to its configured timeout, as if it had just
// matched a frame.
func (tf *TF) RenewIDListener(id uint32) bool {
	for i := range tf.idListeners {
		if tf.idListeners[i].active && tf.idListeners[i].key == id {
			tf.idListeners[i].remainingTicks = tf.idListeners[i].timeoutTicks
			return true
		}
	}
	return false
}

// idListenerActive reports whether id is currently bound to a live
// id-listener, consulted by the id allocator to enforce I1/I2.
func (tf *TF) idListenerActive(id uint32) bool {
	for i := range tf.idListeners {
		if tf.idListeners[i].active && tf.idListeners[i].key == id {
			return true
		}
	}
	return false
}
