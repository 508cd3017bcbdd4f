// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

// dispatch routes a fully parsed, checksum-verified frame to its matching
// listeners, per spec §4.4: id listeners first, then type listeners, then
// generic listeners, each table walked in slot order. Slot order is
// registration order only until a listener is removed: Add reuses the
// lowest free slot, so a later registration can then precede an earlier
// one. Within and across tables, NEXT advances to the next matching entry;
// any other result stops dispatch immediately, so at most one listener
// handles the frame with a non-NEXT result. This resolves spec §9's open question in favor of NEXT
// propagating across table boundaries.
func (tf *TF) dispatch(f *Frame) {
	tf.counters.FramesDispatched.Add(1)

	if dispatchTable(tf, tf.idListeners, f, func(l *listenerEntry) bool { return l.key == f.ID }) {
		return
	}
	if dispatchTable(tf, tf.typeListeners, f, func(l *listenerEntry) bool { return l.key == f.Type }) {
		return
	}
	dispatchTable(tf, tf.genListeners, f, func(*listenerEntry) bool { return true })
}

// dispatchTable calls matching, active entries of table in slice order and
// returns true once a non-NEXT result stops dispatch entirely.
func dispatchTable(tf *TF, table []listenerEntry, f *Frame, matches func(*listenerEntry) bool) bool {
	for i := range table {
		l := &table[i]
		if !l.active || !matches(l) {
			continue
		}
		res := l.handler(tf, f, l.userdata)
		switch res {
		case Close:
			l.active = false
			return true
		case Renew:
			l.remainingTicks = l.timeoutTicks
			return true
		case Stay:
			return true
		case Next:
			continue
		default:
			return true
		}
	}
	return false
}
