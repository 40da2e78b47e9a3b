// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package serialbus

import "sync"

// FakeBus is a synchronous, in-memory Bus for tests: TxBurst completes
// immediately (TxBusy always reports false) and Inject feeds bytes to the
// registered RX handler as if they had just arrived over the wire. It
// follows the same fake-hardware-stand-in shape the teacher pack uses
// elsewhere (a fake implementing the narrow interface real hardware
// would, so higher-level logic is exercised without real I/O).
type FakeBus struct {
	mu     sync.Mutex
	sent   [][]byte
	onByte func(b byte)
	closed bool
}

// NewFakeBus builds an idle FakeBus.
func NewFakeBus() *FakeBus { return &FakeBus{} }

// TxBurst records frame and returns immediately; FakeBus never reports
// busy, so callers can drive the protocol dispatcher deterministically.
func (f *FakeBus) TxBurst(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), frame...))
	return nil
}

// TxBusy always reports false.
func (f *FakeBus) TxBusy() bool { return false }

// SetRXHandler installs the per-byte callback.
func (f *FakeBus) SetRXHandler(onByte func(b byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onByte = onByte
}

// Close marks the bus closed; further Inject calls are no-ops.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Inject feeds bytes to the registered RX handler one at a time, as a
// real RX interrupt would.
func (f *FakeBus) Inject(bytes []byte) {
	f.mu.Lock()
	h, closed := f.onByte, f.closed
	f.mu.Unlock()
	if h == nil || closed {
		return
	}
	for _, b := range bytes {
		h(b)
	}
}

// Sent returns every frame recorded by TxBurst so far.
func (f *FakeBus) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

var _ Bus = (*FakeBus)(nil)
