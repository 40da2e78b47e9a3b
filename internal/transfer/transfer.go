// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transfer implements the cooperative page-transfer state machine
// of spec.md §4.I: idle/addr/build/stream-start/streaming stages advanced
// one step per main-loop tick by advance(), chunking each 128-byte page
// through a display.Panel in I2CBufferLimit-byte DMA bursts with ping-pong
// chunk buffers, and coalescing at most one pending rerender.
package transfer

import "github.com/GermanBionicSystems/uislave/internal/display"

// PageBytes is the size of one column-page scratch buffer.
const PageBytes = 128

// I2CBufferLimit is the maximum payload bytes per DMA burst, spec.md §4.I.
const I2CBufferLimit = 28

// Stage is the transfer engine's state, spec.md §4.I.
type Stage byte

const (
	StageIdle Stage = iota
	StageAddr
	StageBuild
	StageStreamStart
	StageStreaming
)

// RenderFunc fills buf (len == PageBytes) with the pixel columns for page.
type RenderFunc func(page int, buf []byte)

// Engine drives one Panel through the page-transfer state machine.
type Engine struct {
	panel           display.Panel
	pageCount       int
	render          RenderFunc
	pendingCB       RenderFunc
	stage           Stage
	page            int
	buf             [PageBytes]byte
	chunkOff        int
	rerenderPending bool
}

// New builds an Engine bound to a panel with the given page count
// (height/8).
func New(panel display.Panel, pageCount int) *Engine {
	return &Engine{panel: panel, pageCount: pageCount, stage: StageIdle}
}

// Busy reports whether a frame is in progress.
func (e *Engine) Busy() bool { return e.stage != StageIdle }

// DMAXferActive reports whether the low-level panel is still draining a
// burst.
func (e *Engine) DMAXferActive() bool { return e.panel.TxBusy() }

// Begin starts a new frame if idle, failing if one is already active.
func (e *Engine) Begin(cb RenderFunc) bool {
	if e.Busy() {
		return false
	}
	e.render = cb
	e.page = 0
	e.stage = StageAddr
	return true
}

// RequestRerender sets the coalescing pending flag if a frame is active;
// it is a no-op (returns false) when idle, since the caller should call
// Begin directly in that case.
func (e *Engine) RequestRerender(cb RenderFunc) bool {
	if !e.Busy() {
		return false
	}
	e.rerenderPending = true
	e.pendingCB = cb
	return true
}

// StartOrRequest does the right one of Begin/RequestRerender depending on
// whether the engine is currently idle.
func (e *Engine) StartOrRequest(cb RenderFunc) {
	if !e.Begin(cb) {
		e.RequestRerender(cb)
	}
}

// Advance steps the state machine once. It returns immediately if the
// low-level DMA chunk is still in flight.
func (e *Engine) Advance() {
	if e.stage == StageIdle {
		return
	}
	if e.DMAXferActive() {
		return
	}
	switch e.stage {
	case StageAddr:
		e.panel.WriteCmdBurst(addrCommand(e.page))
		e.stage = StageBuild

	case StageBuild:
		for i := range e.buf {
			e.buf[i] = 0
		}
		e.render(e.page, e.buf[:])
		e.chunkOff = 0
		e.stage = StageStreamStart

	case StageStreamStart:
		e.sendNextChunk()
		e.stage = StageStreaming

	case StageStreaming:
		if e.chunkOff >= PageBytes {
			e.page++
			if e.page >= e.pageCount {
				e.finishFrame()
				return
			}
			e.stage = StageAddr
			return
		}
		e.sendNextChunk()
	}
}

func (e *Engine) sendNextChunk() {
	end := e.chunkOff + I2CBufferLimit
	if end > PageBytes {
		end = PageBytes
	}
	e.panel.WriteDataBurst(e.buf[e.chunkOff:end])
	e.chunkOff = end
}

func (e *Engine) finishFrame() {
	e.stage = StageIdle
	if e.rerenderPending {
		cb := e.pendingCB
		e.rerenderPending = false
		e.pendingCB = nil
		e.Begin(cb)
	}
}

// addrCommand builds the 6-byte column/page addressing command burst,
// spec.md §4.I: full column range 0..127, single page.
func addrCommand(page int) []byte {
	return []byte{0x21, 0x00, 0x7F, 0x22, byte(page), byte(page)}
}
