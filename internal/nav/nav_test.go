// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nav

import (
	"testing"

	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/descriptor"
)

// harness builds a provisioned model+runtime+engine from a sequence of
// descriptor JSON bodies, the same plumbing the protocol layer uses.
type harness struct {
	a   *arena.Arena
	p   *descriptor.Parser
	nav *State
	eng *Engine
}

func newHarness(t *testing.T, descriptors []string, displayHeight int) *harness {
	t.Helper()
	a := arena.New(arena.DefaultCapacity)
	p := descriptor.New(a)
	for _, d := range descriptors {
		if _, code := p.Apply([]byte(d)); !code.Ok() {
			t.Fatalf("descriptor %q: %v", d, code)
		}
	}
	tree := p.Tree()
	n := New(tree)
	eng := NewEngine(n, tree, a, p.Lists(), p.Barrels(), p.Triggers(), displayHeight)
	return &harness{a: a, p: p, nav: n, eng: eng}
}

func TestFocusNextCyclesVisibleFocusable(t *testing.T) {
	h := newHarness(t, []string{
		`{"t":"h","n":6}`,
		`{"t":"s"}`,
		`{"t":"l","p":0,"x":0,"y":0}`,
		`{"t":"t","p":1,"x":0,"tx":"Row0"}`,
		`{"t":"i","p":0,"x":0,"y":20}`,
	}, 32)
	h.nav.FocusNext()
	first := h.nav.Focus
	h.nav.FocusNext()
	second := h.nav.Focus
	h.nav.FocusPrev()
	if h.nav.Focus != first {
		t.Errorf("FocusPrev after two FocusNext = %d, want back to %d", h.nav.Focus, first)
	}
	if first == second {
		t.Errorf("FocusNext should have advanced to a different element")
	}
}

func TestScreenSlideS5(t *testing.T) {
	h := newHarness(t, []string{
		`{"t":"h","n":3}`,
		`{"t":"s"}`,
		`{"t":"s"}`,
		`{"t":"s"}`,
	}, 64)
	// Left at ordinal 0 is ignored (clamped).
	h.eng.HandleButton(ButtonLeft, eventRelease)
	if h.nav.ActiveOrdinal != 0 {
		t.Fatalf("Left at ordinal 0 changed active ordinal to %d", h.nav.ActiveOrdinal)
	}
	h.eng.HandleButton(ButtonRight, eventRelease)
	if !h.nav.Slide.Active || h.nav.Slide.From != 0 || h.nav.Slide.To != 1 {
		t.Fatalf("Slide = %+v, want active From=0 To=1", h.nav.Slide)
	}
	if h.nav.ActiveOrdinal != 1 {
		t.Fatalf("ActiveOrdinal should switch immediately to the target, got %d", h.nav.ActiveOrdinal)
	}
	ticks := 0
	for h.nav.Slide.Active && ticks < 100 {
		h.eng.AdvanceSlide()
		ticks++
	}
	if ticks != 16 {
		t.Errorf("slide completed after %d ticks, want 16", ticks)
	}
	if h.nav.Slide.Active {
		t.Errorf("slide should be inactive after completion")
	}
}

func TestBarrelEditCycleS3(t *testing.T) {
	h := newHarness(t, []string{
		`{"t":"h","n":6}`,
		`{"t":"s"}`,
		`{"t":"b","p":0,"x":0,"y":0,"v":0}`,
		`{"t":"t","p":1,"x":0,"tx":"A"}`,
		`{"t":"t","p":1,"x":0,"tx":"B"}`,
		`{"t":"t","p":1,"x":0,"tx":"C"}`,
	}, 64)
	h.nav.Focus = 1 // the barrel
	h.eng.HandleButton(ButtonOK, eventRelease) // enter edit
	if !h.eng.isBarrelEditing(1) {
		t.Fatalf("barrel should be editing after OK")
	}
	h.eng.HandleButton(ButtonDown, eventRelease)
	h.eng.HandleButton(ButtonDown, eventRelease)
	h.eng.HandleButton(ButtonDown, eventRelease) // wraps 0->1->2->0
	s, _ := h.eng.Barrels.Find(1)
	if s.Value != 0 {
		t.Fatalf("value after three downs (wrap) = %d, want 0", s.Value)
	}
	h.eng.HandleButton(ButtonBack, eventRelease) // cancel
	if h.eng.isBarrelEditing(1) {
		t.Errorf("barrel should no longer be editing after Back")
	}
	s, _ = h.eng.Barrels.Find(1)
	if s.Value != 0 {
		t.Errorf("value after cancel = %d, want 0 (snapshot restored)", s.Value)
	}
}

func TestListNavigationS4(t *testing.T) {
	descs := []string{
		`{"t":"h","n":7}`,
		`{"t":"s"}`,
		`{"t":"l","p":0,"x":0,"y":0,"r":3}`,
	}
	for i := 0; i < 5; i++ {
		descs = append(descs, `{"t":"t","p":1,"x":0,"tx":"Row"}`)
	}
	h := newHarness(t, descs, 64)
	h.nav.Focus = 1 // the list

	wantCursorTop := [][2]byte{{1, 0}, {2, 0}, {3, 1}, {4, 2}}
	for i, want := range wantCursorTop {
		h.eng.HandleButton(ButtonDown, eventRelease)
		for tries := 0; tries < 20; tries++ {
			s, _ := h.eng.Lists.Find(1)
			if !s.AnimActive {
				break
			}
			h.eng.AdvanceListScrolls()
		}
		s, _ := h.eng.Lists.Find(1)
		if s.Cursor != want[0] || s.TopIndex != want[1] {
			t.Errorf("after down #%d: (cursor,top) = (%d,%d), want (%d,%d)", i+1, s.Cursor, s.TopIndex, want[0], want[1])
		}
	}
}

func TestNestedListRequiresStackEntry(t *testing.T) {
	h := newHarness(t, []string{
		`{"t":"h","n":6}`,
		`{"t":"s"}`,
		`{"t":"l","p":0,"x":0,"y":0}`,
		`{"t":"t","p":1,"x":0,"tx":"Row0"}`,
		`{"t":"l","p":2,"x":0,"y":0}`,
		`{"t":"t","p":3,"x":0,"tx":"Inner"}`,
	}, 64)
	if h.nav.IsVisible(3) {
		t.Errorf("nested list should not be visible before it is entered")
	}
	h.eng.pushList(1, 3)
	if !h.nav.IsVisible(3) {
		t.Errorf("nested list should be visible once pushed")
	}
	if h.nav.Focus != 3 {
		t.Errorf("focus after pushList = %d, want 3", h.nav.Focus)
	}
}
