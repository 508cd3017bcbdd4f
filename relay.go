// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

// Relay forwards every frame dispatched by one instance into a Send (or
// Respond) on another, the way forward.go's Forwarder relays a byte stream
// while preserving message boundaries — generalized from stream framing to
// TinyFrame's push-based, id/type-addressed dispatch: a frame arrives via
// the source's Accept/dispatch, not via an explicit pull, so relaying is a
// Handler rather than a ForwardOnce loop.
type Relay struct {
	dst        *TF
	preserveID bool
	onError    func(err error, f *Frame)
}

// NewRelay constructs a Relay that re-sends every frame it sees on dst. When
// preserveID is true, frames are re-sent with Respond using their original
// id (bridging a request's id across two instances); otherwise each is
// re-sent with Send, which allocates a fresh id on dst. onError, if non-nil,
// is called for any frame that dst failed to accept (e.g. ErrTooLong,
// ErrSinkShort); the relay itself never stops on a per-frame error.
func NewRelay(dst *TF, preserveID bool, onError func(err error, f *Frame)) *Relay {
	return &Relay{dst: dst, preserveID: preserveID, onError: onError}
}

// Attach registers the relay as a generic listener on src, so every frame
// src dispatches (after its own id/type listeners decline or are exhausted)
// is forwarded to dst. The returned handle may be passed to
// src.RemoveGenericListener to stop relaying.
func (r *Relay) Attach(src *TF) (GenericListenerHandle, error) {
	return src.AddGenericListener(r.relayOnce)
}

// relayOnce forwards a single dispatched frame and always yields Next, so a
// relay never prevents other generic listeners on the same source from also
// observing the frame.
func (r *Relay) relayOnce(_ *TF, f *Frame, _ any) ListenerResult {
	var err error
	if r.preserveID {
		err = r.dst.Respond(f.ID, f.Type, f.Data)
	} else {
		_, err = r.dst.Send(f.Type, f.Data)
	}
	if err != nil && r.onError != nil {
		r.onError(err, f)
	}
	return Next
}
