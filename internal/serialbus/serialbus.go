// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package serialbus implements the out-of-scope physical serial byte
// transport spec.md §5/§6 assumes: bytes arrive one at a time from an RX
// interrupt and are pushed into transport.Receiver.PushByte, while
// responses leave as a single DMA burst whose completion is polled rather
// than awaited, exactly like internal/display.Panel's WriteDataBurst/
// TxBusy contract. IOBus adapts any io.ReadWriteCloser (the role
// firmata.Client.board plays in the teacher pack) into that shape; a
// host's real UART/CDC link is one such ReadWriteCloser.
package serialbus

import (
	"bufio"
	"errors"
	"io"
	"sync/atomic"
)

// ErrBusy is returned by TxBurst when a previous burst has not finished
// draining.
var ErrBusy = errors.New("serialbus: burst already in flight")

// Bus is the contract the protocol dispatcher depends on: asynchronous,
// single-burst TX with polled completion, and a push-style RX callback
// standing in for a byte-at-a-time hardware interrupt.
type Bus interface {
	// TxBurst starts writing frame asynchronously. It fails with ErrBusy
	// if a previous burst is still in flight.
	TxBurst(frame []byte) error
	// TxBusy reports whether a TxBurst is still draining.
	TxBusy() bool
	// SetRXHandler installs the callback invoked once per received byte.
	// It is intended to be called once at setup, before any bytes arrive.
	SetRXHandler(onByte func(b byte))
	// Close releases the underlying transport.
	Close() error
}

// IOBus adapts an io.ReadWriteCloser into a Bus. Every TxBurst spawns one
// goroutine that performs a blocking Write, matching the goroutine-plus-
// busy-flag model display.SSD1306Panel uses for its own DMA bursts, but
// without its ping-pong buffers: one write in flight, polled via TxBusy
// rather than awaited.
type IOBus struct {
	rw   io.ReadWriteCloser
	busy atomic.Bool

	onByte func(b byte)
	stopRX chan struct{}
}

// NewIOBus wraps rw and starts the background RX read loop immediately;
// call SetRXHandler before bytes are expected to avoid dropping them.
func NewIOBus(rw io.ReadWriteCloser) *IOBus {
	b := &IOBus{rw: rw, stopRX: make(chan struct{})}
	go b.rxLoop()
	return b
}

func (b *IOBus) rxLoop() {
	r := bufio.NewReaderSize(b.rw, 1)
	for {
		select {
		case <-b.stopRX:
			return
		default:
		}
		c, err := r.ReadByte()
		if err != nil {
			return
		}
		if h := b.onByte; h != nil {
			h(c)
		}
	}
}

// SetRXHandler installs the per-byte callback.
func (b *IOBus) SetRXHandler(onByte func(b byte)) { b.onByte = onByte }

// TxBurst starts an asynchronous write of frame.
func (b *IOBus) TxBurst(frame []byte) error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	buf := append([]byte(nil), frame...)
	go func() {
		defer b.busy.Store(false)
		_, _ = b.rw.Write(buf)
	}()
	return nil
}

// TxBusy reports whether the last TxBurst is still draining.
func (b *IOBus) TxBusy() bool { return b.busy.Load() }

// Close stops the RX loop and closes the underlying transport.
func (b *IOBus) Close() error {
	close(b.stopRX)
	return b.rw.Close()
}

var _ Bus = (*IOBus)(nil)
