// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/GermanBionicSystems/uislave/internal/arena"
)

func newTree(t *testing.T, n int) *Tree {
	t.Helper()
	a := arena.New(arena.DefaultCapacity)
	if c := a.ReserveElementStorage(n); !c.Ok() {
		t.Fatalf("ReserveElementStorage: %v", c)
	}
	return New(a)
}

func must(t *testing.T, tr *Tree, parent byte, typ Type, x, y byte) byte {
	t.Helper()
	id, c := tr.AddElement(parent, typ, x, y)
	if !c.Ok() {
		t.Fatalf("AddElement: %v", c)
	}
	return id
}

func TestScreenOrdinals(t *testing.T) {
	tr := newTree(t, 5)
	s0 := must(t, tr, Sentinel, TypeScreen, 0, 0)
	overlay := must(t, tr, Sentinel, TypeScreen, 0, 0)
	tr.A.StoreScreenRole(overlay, arena.RoleOverlay)
	s1 := must(t, tr, Sentinel, TypeScreen, 0, 0)
	tr.A.Commit()

	if got := tr.ScreenCount(); got != 2 {
		t.Fatalf("ScreenCount() = %d, want 2 (overlay excluded)", got)
	}
	if id, ok := tr.FindScreenIDByOrdinal(0); !ok || id != s0 {
		t.Errorf("ordinal 0 = (%d,%v), want (%d,true)", id, ok, s0)
	}
	if id, ok := tr.FindScreenIDByOrdinal(1); !ok || id != s1 {
		t.Errorf("ordinal 1 = (%d,%v), want (%d,true)", id, ok, s1)
	}
	if ord, ok := tr.FindScreenOrdinalByID(s1); !ok || ord != 1 {
		t.Errorf("FindScreenOrdinalByID(s1) = (%d,%v), want (1,true)", ord, ok)
	}
	if _, ok := tr.FindScreenOrdinalByID(overlay); ok {
		t.Errorf("overlay screen should not have an ordinal")
	}
}

func TestListRowsAndIndex(t *testing.T) {
	tr := newTree(t, 10)
	screen := must(t, tr, Sentinel, TypeScreen, 0, 0)
	list := must(t, tr, screen, TypeList, 0, 0)
	row0 := must(t, tr, list, TypeText, 0, 0)
	_ = must(t, tr, list, TypeText, 0, 8)
	row2 := must(t, tr, list, TypeText, 0, 16)

	if got := tr.ListRowCount(list); got != 3 {
		t.Fatalf("ListRowCount() = %d, want 3", got)
	}
	if id, ok := tr.ListChildByIndex(list, 0); !ok || id != row0 {
		t.Errorf("row 0 = (%d,%v), want (%d,true)", id, ok, row0)
	}
	if id, ok := tr.ListChildByIndex(list, 2); !ok || id != row2 {
		t.Errorf("row 2 = (%d,%v), want (%d,true)", id, ok, row2)
	}
	if _, ok := tr.ListChildByIndex(list, 3); ok {
		t.Errorf("row 3 should not exist")
	}
}

func TestTreeWalks(t *testing.T) {
	tr := newTree(t, 10)
	screen := must(t, tr, Sentinel, TypeScreen, 0, 0)
	list := must(t, tr, screen, TypeList, 0, 0)
	row := must(t, tr, list, TypeText, 0, 0)
	barrel := must(t, tr, row, TypeBarrel, 0, 0)
	opt := must(t, tr, barrel, TypeText, 0, 0)

	if got, ok := tr.ElementParentList(opt); !ok || got != list {
		t.Errorf("ElementParentList(opt) = (%d,%v), want (%d,true)", got, ok, list)
	}
	if got, ok := tr.ElementRootScreen(opt); !ok || got != screen {
		t.Errorf("ElementRootScreen(opt) = (%d,%v), want (%d,true)", got, ok, screen)
	}
	if !tr.IsDescendantOf(opt, screen) {
		t.Errorf("opt should be a descendant of screen")
	}
	if tr.IsDescendantOf(screen, opt) {
		t.Errorf("screen should not be a descendant of opt")
	}
	if got, ok := tr.TextInlineBarrel(row); !ok || got != barrel {
		t.Errorf("TextInlineBarrel(row) = (%d,%v), want (%d,true)", got, ok, barrel)
	}
}

func TestCyclicParentBoundedWalk(t *testing.T) {
	// Malformed data cannot actually be constructed through AddElement
	// (parent must precede child), but ElementRootScreen/IsDescendantOf
	// must still terminate given any input thanks to the Count() bound.
	tr := newTree(t, 3)
	must(t, tr, Sentinel, TypeList, 0, 0)
	must(t, tr, 0, TypeList, 0, 0)
	must(t, tr, 1, TypeList, 0, 0)
	if _, ok := tr.ElementRootScreen(2); ok {
		t.Errorf("no Screen exists; ElementRootScreen must report not found")
	}
}
