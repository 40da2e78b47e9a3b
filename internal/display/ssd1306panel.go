// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package display

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Command bytes, SSD1306 datasheet ("Fundamental Command Table" / "Addressing
// Setting Command Table"), matched against the periph.io ssd1306 driver's
// init sequence.
const (
	cmdDisplayOff       = 0xAE
	cmdDisplayOn        = 0xAF
	cmdSetDisplayClock  = 0xD5
	cmdSetMultiplexRat  = 0xA8
	cmdSetDisplayOffset = 0xD3
	cmdSetStartLine     = 0x40
	cmdChargePump       = 0x8D
	cmdMemoryMode       = 0x20
	cmdSegRemap         = 0xA1
	cmdComScanDec       = 0xC8
	cmdSetComPins       = 0xDA
	cmdSetContrast      = 0x81
	cmdSetPrecharge     = 0xD9
	cmdSetVComDetect    = 0xDB
	cmdDisplayAllOnRes  = 0xA4
	cmdNormalDisplay    = 0xA6
)

// i2cCmdPrefix/i2cDataPrefix are the SSD1306 I2C control bytes distinguishing
// a command stream from a data stream, periph.io/x/devices/v3/ssd1306.
const (
	i2cCmdPrefix  = 0x00
	i2cDataPrefix = 0x40
)

// Opts configures an SSD1306Panel, carried over from the periph.io driver's
// Opts (W, H, Rotated) with the unused drawing-side fields (Sequential,
// MirrorVertical, MirrorHorizontal, SwapTopBottom) dropped: this driver never
// receives an image.Image to diff against, it only streams pages the render
// package already rasterized.
type Opts struct {
	W       int
	H       int
	Rotated bool
}

// DefaultOpts matches the common 128x64 wiring used throughout the periph.io
// ssd1306 examples.
var DefaultOpts = Opts{W: 128, H: 64}

// SSD1306Panel is a non-blocking adaptation of periph.io's synchronous
// ssd1306.Dev for the transfer engine's burst-polling contract: every
// WriteDataBurst spawns the bus Tx on its own goroutine against one of two
// ping-pong chunk buffers and returns immediately, while TxBusy reports
// whether that Tx has completed. The real hardware has a single DMA
// channel and one in-flight burst at a time; modeling that as a goroutine
// plus an atomic busy flag keeps the same one-burst-in-flight discipline
// without blocking the caller.
type SSD1306Panel struct {
	bus  i2c.Bus
	addr uint16
	w, h int

	busy    atomic.Bool
	errCh   chan error
	lastErr error

	chunks  [2][]byte
	chunkIx int
}

// NewSSD1306I2C builds a panel over an I2C bus, sending the SSD1306 init
// command sequence synchronously (startup is not on the per-tick hot path).
func NewSSD1306I2C(bus i2c.Bus, opts *Opts) (*SSD1306Panel, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := &SSD1306Panel{
		bus:    bus,
		addr:   0x3C,
		w:      opts.W,
		h:      opts.H,
		errCh:  make(chan error, 1),
		chunks: [2][]byte{make([]byte, 0, 28), make([]byte, 0, 28)},
	}
	if err := p.WriteCmdBurst(initCommandSequence(opts)); err != nil {
		return nil, fmt.Errorf("ssd1306: init: %w", err)
	}
	return p, nil
}

// initCommandSequence builds the SSD1306 power-on command sequence, adapted
// from periph.io/x/devices/v3/ssd1306's getInitCmd1306 for a 128x64/128x32
// panel addressed over I2C (horizontal addressing mode, since the transfer
// engine always streams whole pages left to right).
func initCommandSequence(opts *Opts) []byte {
	mux := byte(opts.H - 1)
	comPins := byte(0x12)
	if opts.H == 32 {
		comPins = 0x02
	}
	segRemap := byte(cmdSegRemap)
	comScan := byte(cmdComScanDec)
	if opts.Rotated {
		segRemap = 0xA0
		comScan = 0xC0
	}
	return []byte{
		cmdDisplayOff,
		cmdSetDisplayClock, 0x80,
		cmdSetMultiplexRat, mux,
		cmdSetDisplayOffset, 0x00,
		cmdSetStartLine | 0x00,
		cmdChargePump, 0x14,
		cmdMemoryMode, 0x00,
		segRemap,
		comScan,
		cmdSetComPins, comPins,
		cmdSetContrast, 0xCF,
		cmdSetPrecharge, 0xF1,
		cmdSetVComDetect, 0x40,
		cmdDisplayAllOnRes,
		cmdNormalDisplay,
		cmdDisplayOn,
	}
}

// WriteCmdBurst sends a command burst synchronously: command bursts are at
// most a handful of bytes (the column/page addressing window, spec.md
// §4.I) and are expected to return well within one tick.
func (p *SSD1306Panel) WriteCmdBurst(cmd []byte) error {
	buf := make([]byte, 1+len(cmd))
	buf[0] = i2cCmdPrefix
	copy(buf[1:], cmd)
	return p.bus.Tx(p.addr, buf, nil)
}

// WriteDataBurst starts a non-blocking burst of at most
// transfer.I2CBufferLimit payload bytes. It copies data into whichever of
// the two ping-pong chunk buffers isn't in flight, launches the Tx on its
// own goroutine, and returns immediately; the caller polls TxBusy before
// issuing the next burst.
func (p *SSD1306Panel) WriteDataBurst(data []byte) error {
	if p.busy.Load() {
		return errors.New("ssd1306: burst already in flight")
	}
	p.chunkIx = 1 - p.chunkIx
	buf := p.chunks[p.chunkIx][:0]
	buf = append(buf, i2cDataPrefix)
	buf = append(buf, data...)
	p.chunks[p.chunkIx] = buf

	p.busy.Store(true)
	go func(frame []byte) {
		err := p.bus.Tx(p.addr, frame, nil)
		select {
		case p.errCh <- err:
		default:
		}
		p.busy.Store(false)
	}(buf)
	return nil
}

// TxBusy reports whether the previous WriteDataBurst is still draining,
// draining any completion error into lastErr as a side effect.
func (p *SSD1306Panel) TxBusy() bool {
	select {
	case err := <-p.errCh:
		p.lastErr = err
	default:
	}
	return p.busy.Load()
}

// LastError returns the error (if any) from the most recently completed
// burst, for callers that want to surface bus failures outside the hot
// tick loop.
func (p *SSD1306Panel) LastError() error { return p.lastErr }

// PageCount is the number of 8-pixel column pages, height/8.
func (p *SSD1306Panel) PageCount() int { return p.h / 8 }

// String implements conn.Resource.
func (p *SSD1306Panel) String() string {
	return fmt.Sprintf("SSD1306{%s, %dx%d}", p.bus, p.w, p.h)
}

// Halt implements conn.Resource: it blanks the display and waits for any
// in-flight burst to finish rather than abandoning it mid-transfer.
func (p *SSD1306Panel) Halt() error {
	for p.busy.Load() {
		runtime.Gosched()
	}
	return p.WriteCmdBurst([]byte{cmdDisplayOff})
}

var _ conn.Resource = (*SSD1306Panel)(nil)
var _ Panel = (*SSD1306Panel)(nil)
