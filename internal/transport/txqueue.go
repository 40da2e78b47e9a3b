// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import "github.com/GermanBionicSystems/uislave/internal/protoerr"

// maxQueuedFrame bounds a queued response frame, spec.md §4.J ("a
// single-slot queue (<= 64 bytes)").
const maxQueuedFrame = 64

// TXQueue is the one-deep response queue, spec.md §4.J: if the DMA is
// free a response starts immediately; otherwise it is copied here and
// drained by the next deferred-ops pass. A second enqueue while the slot
// is occupied is a protocol error.
type TXQueue struct {
	frame  []byte
	filled bool
}

// Enqueue copies frame into the single slot. It fails with BadState if the
// slot is already occupied, or Internal if frame exceeds maxQueuedFrame
// (a dispatcher bug, since every response is far smaller than that).
func (q *TXQueue) Enqueue(frame []byte) protoerr.Code {
	if q.filled {
		return protoerr.BadState
	}
	if len(frame) > maxQueuedFrame {
		return protoerr.Internal
	}
	q.frame = append([]byte(nil), frame...)
	q.filled = true
	return protoerr.OK
}

// Take drains the queued frame, if any.
func (q *TXQueue) Take() ([]byte, bool) {
	if !q.filled {
		return nil, false
	}
	f := q.frame
	q.frame = nil
	q.filled = false
	return f, true
}

// Full reports whether the slot is occupied.
func (q *TXQueue) Full() bool { return q.filled }
