// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

// rxState is the per-byte RX framing state, spec.md §4.J.
type rxState byte

const (
	rxWaitSync0 rxState = iota
	rxWaitSync1
	rxWaitLen
	rxCollectPayload
)

// Receiver implements the byte-at-a-time RX state machine. PushByte is
// meant to be called from an RX interrupt handler; it never blocks and
// never allocates on the steady-state path, matching spec.md §5's
// ISR-to-main handoff design note (only a small lock-free cell is touched
// from interrupt context — here modeled as the Receiver's own fields,
// owned exclusively by whichever goroutine calls PushByte/TakeFrame).
type Receiver struct {
	state   rxState
	want    byte
	buf     [MaxPayload]byte
	n       byte
	ready   bool
	overrun bool
}

// PushByte advances the RX state machine by one byte.
func (r *Receiver) PushByte(b byte) {
	switch r.state {
	case rxWaitSync0:
		if b == Sync0 {
			r.state = rxWaitSync1
		}
	case rxWaitSync1:
		if b == Sync1 {
			r.state = rxWaitLen
		} else {
			r.state = rxWaitSync0
		}
	case rxWaitLen:
		if b > 0 && b <= MaxPayload {
			r.want = b
			r.n = 0
			r.state = rxCollectPayload
		} else {
			r.state = rxWaitSync0
		}
	case rxCollectPayload:
		if r.n >= MaxPayload {
			// Defensive: want is already bounded by MaxPayload at
			// rxWaitLen, so this is unreachable in practice.
			r.Reset()
			return
		}
		r.buf[r.n] = b
		r.n++
		if r.n == r.want {
			r.ready = true
			r.state = rxWaitSync0
		}
	}
}

// SetOverrun marks an overrun (hardware OVR or a would-be buffer overflow);
// the pending frame, if any, is dropped on the next TakeFrame/Reset.
func (r *Receiver) SetOverrun() { r.overrun = true }

// Reset drops any partial frame and returns to wait-SYNC0, used both after
// an overrun and after the inter-byte watchdog fires.
func (r *Receiver) Reset() {
	r.state = rxWaitSync0
	r.n = 0
	r.want = 0
	r.ready = false
	r.overrun = false
}

// TakeFrame returns the COBS-stuffed payload of a completed frame, if one
// is ready, clearing the ready flag. An overrun since the last call
// silently drops the frame instead of returning it, per spec.md §7.
func (r *Receiver) TakeFrame() ([]byte, bool) {
	if r.overrun {
		r.Reset()
		return nil, false
	}
	if !r.ready {
		return nil, false
	}
	frame := make([]byte, r.n)
	copy(frame, r.buf[:r.n])
	r.ready = false
	r.n = 0
	return frame, true
}

// EncodeFrame builds a complete wire frame from a decoded payload:
// sync0, sync1, encoded length, COBS(payload).
func EncodeFrame(payload []byte) []byte {
	enc := EncodeCOBS(payload)
	frame := make([]byte, 0, 3+len(enc))
	frame = append(frame, Sync0, Sync1, byte(len(enc)))
	frame = append(frame, enc...)
	return frame
}
