// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package arena

import (
	"testing"

	"github.com/GermanBionicSystems/uislave/internal/protoerr"
)

func TestReserveElementStorage(t *testing.T) {
	for _, tc := range []struct {
		name string
		n    int
		want protoerr.Code
	}{
		{name: "zero", n: 0, want: protoerr.Range},
		{name: "ok", n: 4, want: protoerr.OK},
		{name: "too big for tiny arena", n: 255, want: protoerr.NoSpace},
	} {
		a := New(64)
		if got := a.ReserveElementStorage(tc.n); got != tc.want {
			t.Errorf("%s: ReserveElementStorage(%d) = %v, want %v", tc.name, tc.n, got, tc.want)
		}
	}
}

func TestReserveElementStorageTwiceFails(t *testing.T) {
	a := New(DefaultCapacity)
	if c := a.ReserveElementStorage(4); c != protoerr.OK {
		t.Fatalf("first reserve: %v", c)
	}
	if c := a.ReserveElementStorage(4); c != protoerr.BadState {
		t.Errorf("second reserve = %v, want BadState", c)
	}
}

func TestAddElementRespectsCapacity(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(2)
	if _, c := a.AddElement(Sentinel, 0, 1, 2); c != protoerr.OK {
		t.Fatalf("first add: %v", c)
	}
	if _, c := a.AddElement(Sentinel, 0, 3, 4); c != protoerr.OK {
		t.Fatalf("second add: %v", c)
	}
	if _, c := a.AddElement(Sentinel, 0, 5, 6); c != protoerr.NoSpace {
		t.Errorf("third add = %v, want NoSpace", c)
	}
	if a.ElementCount() != 2 {
		t.Errorf("ElementCount() = %d, want 2", a.ElementCount())
	}
}

func TestAddElementBeforeReserveFails(t *testing.T) {
	a := New(DefaultCapacity)
	if _, c := a.AddElement(Sentinel, 0, 0, 0); c != protoerr.BadState {
		t.Errorf("AddElement before reserve = %v, want BadState", c)
	}
}

func TestAddElementAfterCommitFails(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(4)
	a.Commit()
	if _, c := a.AddElement(Sentinel, 0, 0, 0); c != protoerr.BadState {
		t.Errorf("AddElement after commit = %v, want BadState", c)
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		cap  byte
		want string
	}{
		{name: "fits", text: "Hi", cap: 10, want: "Hi"},
		{name: "exact", text: "Hi", cap: 2, want: "Hi"},
		{name: "truncates", text: "Hello, world", cap: 5, want: "Hello"},
		{name: "empty", text: "", cap: 0, want: ""},
	} {
		a := New(DefaultCapacity)
		a.ReserveElementStorage(1)
		id, c := a.AddElement(Sentinel, 2, 0, 0)
		if c != protoerr.OK {
			t.Fatalf("%s: AddElement: %v", tc.name, c)
		}
		if c := a.StoreTextWithCap(id, tc.text, tc.cap); c != protoerr.OK {
			t.Fatalf("%s: StoreTextWithCap: %v", tc.name, c)
		}
		got, gotCap, found := a.Text(id)
		if !found {
			t.Fatalf("%s: Text() not found", tc.name)
		}
		if got != tc.want {
			t.Errorf("%s: Text() = %q, want %q", tc.name, got, tc.want)
		}
		if gotCap != tc.cap {
			t.Errorf("%s: Text() cap = %d, want %d", tc.name, gotCap, tc.cap)
		}
	}
}

func TestUpdateTextKeepsAllocation(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(1)
	id, _ := a.AddElement(Sentinel, 2, 0, 0)
	a.StoreTextWithCap(id, "Hi", 5)
	if c := a.UpdateText(id, "Goodbye"); c != protoerr.OK {
		t.Fatalf("UpdateText: %v", c)
	}
	got, cap, _ := a.Text(id)
	if got != "Goodb" {
		t.Errorf("Text() = %q, want %q (truncated to original cap)", got, "Goodb")
	}
	if cap != 5 {
		t.Errorf("cap changed to %d after update, want unchanged 5", cap)
	}
}

func TestUpdateTextUnknownID(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(2)
	if c := a.UpdateText(1, "x"); c != protoerr.UnknownID {
		t.Errorf("UpdateText on unset id = %v, want UnknownID", c)
	}
}

func TestScreenRoleDefaultsToNone(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(2)
	id, _ := a.AddElement(Sentinel, 0, 0, 0)
	if got := a.ScreenRole(id); got != RoleNone {
		t.Errorf("ScreenRole() = %d, want RoleNone", got)
	}
	a.StoreScreenRole(id, RoleOverlay)
	if got := a.ScreenRole(id); got != RoleOverlay {
		t.Errorf("ScreenRole() = %d, want RoleOverlay", got)
	}
}

func TestAppendAttrAfterCommitFails(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(2)
	id, _ := a.AddElement(Sentinel, 2, 0, 0)
	a.Commit()
	if c := a.StoreTextWithCap(id, "x", 4); c != protoerr.BadState {
		t.Errorf("StoreTextWithCap after commit = %v, want BadState", c)
	}
}

func TestCapacityInvariant(t *testing.T) {
	// head_used + used_tail must never exceed capacity, even when both
	// regions are exercised together.
	a := New(40)
	if c := a.ReserveElementStorage(4); c != protoerr.OK {
		t.Fatalf("reserve: %v", c)
	}
	// 4*2 + 4 + 4 = 16 bytes of tables consumed; 24 bytes left.
	if a.HeadUsed()+a.UsedTail() > a.Capacity() {
		t.Fatalf("invariant violated after reserve: head=%d tail=%d cap=%d", a.HeadUsed(), a.UsedTail(), a.Capacity())
	}
	id, _ := a.AddElement(Sentinel, 2, 0, 0)
	if c := a.StoreTextWithCap(id, "0123456789", 10); c != protoerr.OK {
		t.Fatalf("StoreTextWithCap: %v", c)
	}
	if a.HeadUsed()+a.UsedTail() > a.Capacity() {
		t.Fatalf("invariant violated after text: head=%d tail=%d cap=%d", a.HeadUsed(), a.UsedTail(), a.Capacity())
	}
	// Exhaust the tail; must fail with NoSpace, never silently overrun.
	if _, c := a.AllocTail(100); c != protoerr.NoSpace {
		t.Errorf("AllocTail(100) = %v, want NoSpace", c)
	}
	if a.HeadUsed()+a.UsedTail() > a.Capacity() {
		t.Fatalf("invariant violated after failed tail alloc: head=%d tail=%d cap=%d", a.HeadUsed(), a.UsedTail(), a.Capacity())
	}
}

func TestAllocTailNeverReturnsZeroOffset(t *testing.T) {
	a := New(DefaultCapacity)
	for i := 0; i < 50; i++ {
		off, c := a.AllocTail(4)
		if c != protoerr.OK {
			break
		}
		if off == 0 {
			t.Fatalf("AllocTail returned the reserved null offset 0")
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	a := New(DefaultCapacity)
	a.ReserveElementStorage(4)
	id, _ := a.AddElement(Sentinel, 2, 1, 1)
	a.StoreTextWithCap(id, "hi", 4)
	a.MarkDirty(id)
	a.Commit()

	a.Reset()

	if a.N() != 0 || a.ElementCount() != 0 || a.Committed() {
		t.Errorf("Reset() left state: n=%d elems=%d committed=%v", a.N(), a.ElementCount(), a.Committed())
	}
	if _, ok := a.TakeDirty(); ok {
		t.Errorf("Reset() left dirty flag set")
	}
	if c := a.ReserveElementStorage(4); c != protoerr.OK {
		t.Errorf("ReserveElementStorage after Reset = %v, want OK", c)
	}
}

func TestDirtyIsLastWriterWinsAndClearsOnRead(t *testing.T) {
	a := New(DefaultCapacity)
	a.MarkDirty(3)
	a.MarkDirty(7)
	id, dirty := a.TakeDirty()
	if !dirty || id != 7 {
		t.Errorf("TakeDirty() = (%d, %v), want (7, true)", id, dirty)
	}
	if id, dirty := a.TakeDirty(); dirty || id != Sentinel {
		t.Errorf("second TakeDirty() = (%#x, %v), want (Sentinel, false)", id, dirty)
	}
}
