// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transfer

import "testing"

// fakePanel is a scripted display.Panel: TxBusy can be told to stay busy
// for a fixed number of calls, modeling a DMA burst still draining, the
// same style waveshare2in13v4's controller_test.go fake uses to exercise a
// multi-stage refresh loop without real hardware.
type fakePanel struct {
	pageCount  int
	busyUntil  int
	calls      int
	cmdBursts  [][]byte
	dataBursts [][]byte
}

func (f *fakePanel) WriteCmdBurst(cmd []byte) error {
	f.cmdBursts = append(f.cmdBursts, append([]byte(nil), cmd...))
	return nil
}

func (f *fakePanel) WriteDataBurst(data []byte) error {
	f.dataBursts = append(f.dataBursts, append([]byte(nil), data...))
	return nil
}

func (f *fakePanel) TxBusy() bool {
	f.calls++
	return f.calls <= f.busyUntil
}

func (f *fakePanel) PageCount() int { return f.pageCount }
func (f *fakePanel) Halt() error    { return nil }
func (f *fakePanel) String() string { return "fakePanel" }

func fillPage(page int, buf []byte) {
	for i := range buf {
		buf[i] = byte(page + 1)
	}
}

func TestBeginRequiresIdle(t *testing.T) {
	e := New(&fakePanel{pageCount: 1}, 1)
	if !e.Begin(fillPage) {
		t.Fatal("Begin() on idle engine = false, want true")
	}
	if e.Begin(fillPage) {
		t.Fatal("Begin() while busy = true, want false")
	}
}

func TestAdvanceRunsOnePageToCompletion(t *testing.T) {
	panel := &fakePanel{pageCount: 1}
	e := New(panel, 1)
	e.Begin(fillPage)

	for i := 0; i < 20 && e.Busy(); i++ {
		e.Advance()
	}
	if e.Busy() {
		t.Fatal("engine still busy after draining one page")
	}
	if len(panel.cmdBursts) != 1 {
		t.Fatalf("cmdBursts = %d, want 1", len(panel.cmdBursts))
	}
	total := 0
	for _, d := range panel.dataBursts {
		if len(d) > I2CBufferLimit {
			t.Fatalf("data burst of %d bytes exceeds I2CBufferLimit", len(d))
		}
		total += len(d)
	}
	if total != PageBytes {
		t.Fatalf("total streamed bytes = %d, want %d", total, PageBytes)
	}
}

func TestAdvanceWaitsForDMABusy(t *testing.T) {
	panel := &fakePanel{pageCount: 1, busyUntil: 3}
	e := New(panel, 1)
	e.Begin(fillPage)

	e.Advance() // DMAXferActive() consumes one busy call, no progress
	if e.stage != StageAddr {
		t.Fatalf("stage advanced while DMA busy: %v", e.stage)
	}
}

func TestRequestRerenderCoalescesDuringActiveFrame(t *testing.T) {
	panel := &fakePanel{pageCount: 2}
	e := New(panel, 2)
	e.Begin(fillPage)
	if e.RequestRerender(fillPage) != true {
		t.Fatal("RequestRerender while busy = false, want true")
	}
	if !e.rerenderPending {
		t.Fatal("rerenderPending not set")
	}
}

func TestRequestRerenderNoOpWhenIdle(t *testing.T) {
	e := New(&fakePanel{pageCount: 1}, 1)
	if e.RequestRerender(fillPage) {
		t.Fatal("RequestRerender on idle engine = true, want false")
	}
}

func TestStartOrRequestStartsWhenIdle(t *testing.T) {
	e := New(&fakePanel{pageCount: 1}, 1)
	e.StartOrRequest(fillPage)
	if !e.Busy() {
		t.Fatal("StartOrRequest on idle engine did not start a frame")
	}
}

func TestFinishFrameBeginsCoalescedRerender(t *testing.T) {
	panel := &fakePanel{pageCount: 1}
	e := New(panel, 1)
	e.Begin(fillPage)
	for i := 0; i < 20 && e.stage != StageStreaming; i++ {
		e.Advance()
	}
	e.RequestRerender(fillPage)
	for i := 0; i < 20 && e.Busy(); i++ {
		e.Advance()
	}
	// finishFrame should have restarted a frame for the coalesced
	// rerender, so draining to idle takes a second full pass.
	if len(panel.cmdBursts) < 2 {
		t.Fatalf("cmdBursts = %d, want >= 2 (original + coalesced rerender)", len(panel.cmdBursts))
	}
}
