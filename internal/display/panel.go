// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package display defines the panel contract the transfer engine drives
// (spec.md §1, "out of scope ... the core needs only write_cmd_burst,
// write_data_burst, tx_busy") and two implementations: an SSD1306 I2C
// driver adapted from periph.io's device package for non-blocking burst
// queuing, and a terminal-based virtual panel for running the slave
// without real hardware.
package display

import "periph.io/x/conn/v3"

// Panel is the minimal contract the transfer engine needs from a physical
// (or simulated) display controller.
type Panel interface {
	conn.Resource

	// WriteCmdBurst issues a command burst (at most a handful of bytes);
	// it may block briefly but is expected to return well within one tick.
	WriteCmdBurst(cmd []byte) error

	// WriteDataBurst starts a non-blocking DMA burst of at most
	// transfer.I2CBufferLimit payload bytes. The caller polls TxBusy
	// before issuing the next burst.
	WriteDataBurst(data []byte) error

	// TxBusy reports whether the previous WriteDataBurst is still
	// draining.
	TxBusy() bool

	// PageCount is the number of 8-pixel pages (height/8).
	PageCount() int
}
