// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"testing"

	"github.com/GermanBionicSystems/uislave/internal/protoerr"
)

func TestCOBSRoundTripAllLengths(t *testing.T) {
	for n := 0; n <= 111; n++ {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i * 37 % 256) // deterministic, includes zeros
		}
		enc := EncodeCOBS(src)
		for _, b := range enc {
			if b == 0 {
				t.Fatalf("len %d: encoded form contains a zero byte", n)
			}
		}
		dec := DecodeCOBS(enc)
		if !bytes.Equal(dec, src) {
			t.Fatalf("len %d: round trip mismatch: got %v want %v", n, dec, src)
		}
	}
}

func TestCOBSSpecificVectors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  []byte
		enc  []byte
	}{
		{name: "empty", src: []byte{}, enc: []byte{1}},
		{name: "single zero", src: []byte{0}, enc: []byte{1, 1}},
		{name: "single nonzero", src: []byte{0x41}, enc: []byte{2, 0x41}},
		{name: "ping payload", src: []byte{0x00}, enc: []byte{1, 1}},
	} {
		got := EncodeCOBS(tc.src)
		if !bytes.Equal(got, tc.enc) {
			t.Errorf("%s: EncodeCOBS(%v) = %v, want %v", tc.name, tc.src, got, tc.enc)
		}
		dec := DecodeCOBS(tc.enc)
		if !bytes.Equal(dec, tc.src) {
			t.Errorf("%s: DecodeCOBS(%v) = %v, want %v", tc.name, tc.enc, dec, tc.src)
		}
	}
}

func TestReceiverAssemblesFrame(t *testing.T) {
	var r Receiver
	payload := EncodeCOBS([]byte{0x00}) // ping command byte
	for _, b := range []byte{Sync0, Sync1, byte(len(payload))} {
		r.PushByte(b)
	}
	for _, b := range payload {
		r.PushByte(b)
	}
	frame, ok := r.TakeFrame()
	if !ok {
		t.Fatalf("frame not ready after full byte sequence")
	}
	decoded := DecodeCOBS(frame)
	if !bytes.Equal(decoded, []byte{0x00}) {
		t.Errorf("decoded payload = %v, want [0x00]", decoded)
	}
}

func TestReceiverRejectsBadSync(t *testing.T) {
	var r Receiver
	r.PushByte(0x00)
	r.PushByte(Sync0)
	r.PushByte(0x00) // not Sync1: should fall back to wait-SYNC0
	r.PushByte(Sync0)
	r.PushByte(Sync1)
	r.PushByte(1)
	r.PushByte(0x55)
	frame, ok := r.TakeFrame()
	if !ok || len(frame) != 1 || frame[0] != 0x55 {
		t.Errorf("frame = %v (ok=%v), want [0x55]", frame, ok)
	}
}

func TestReceiverLenOutOfRangeResets(t *testing.T) {
	var r Receiver
	r.PushByte(Sync0)
	r.PushByte(Sync1)
	r.PushByte(0) // LEN=0 is invalid, must reset to wait-SYNC0
	r.PushByte(Sync0)
	r.PushByte(Sync1)
	r.PushByte(1)
	r.PushByte(0x7A)
	frame, ok := r.TakeFrame()
	if !ok || len(frame) != 1 || frame[0] != 0x7A {
		t.Errorf("frame = %v (ok=%v), want [0x7A]", frame, ok)
	}
}

func TestReceiverOverrunDropsFrame(t *testing.T) {
	var r Receiver
	r.PushByte(Sync0)
	r.PushByte(Sync1)
	r.PushByte(1)
	r.PushByte(0x11)
	r.SetOverrun()
	if _, ok := r.TakeFrame(); ok {
		t.Errorf("frame should be dropped after overrun")
	}
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	payload := []byte{0x05, 0x00, 0x01, 0x02}
	frame := EncodeFrame(payload)
	if frame[0] != Sync0 || frame[1] != Sync1 {
		t.Fatalf("frame header = %v, want sync bytes", frame[:2])
	}
	encLen := frame[2]
	stuffed := frame[3 : 3+int(encLen)]
	decoded := DecodeCOBS(stuffed)
	if !bytes.Equal(decoded, payload) {
		t.Errorf("decoded = %v, want %v", decoded, payload)
	}
}

func TestTXQueueSingleSlot(t *testing.T) {
	var q TXQueue
	if q.Full() {
		t.Fatalf("fresh queue should not be full")
	}
	if code := q.Enqueue([]byte{1, 2, 3}); !code.Ok() {
		t.Fatalf("first enqueue: %v", code)
	}
	if code := q.Enqueue([]byte{4}); code != protoerr.BadState {
		t.Errorf("second enqueue = %v, want BadState", code)
	}
	frame, ok := q.Take()
	if !ok || len(frame) != 3 {
		t.Fatalf("Take() = (%v,%v), want 3-byte frame", frame, ok)
	}
	if q.Full() {
		t.Errorf("queue should be empty after Take")
	}
}
