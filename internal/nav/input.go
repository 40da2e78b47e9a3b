// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nav

import (
	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/model"
	"github.com/GermanBionicSystems/uislave/internal/runtime"
)

// Button indices, spec.md §6.
const (
	ButtonUp byte = iota
	ButtonDown
	ButtonOK
	ButtonBack
	ButtonLeft
	ButtonRight
)

// Release is the only event kind the engine acts on, spec.md §4.G.
const eventRelease byte = 0

// SCREEN_ANIM_PIXELS_PER_FRAME advances a screen slide offset; at 8 px per
// ~16 ms tick a full 128 px slide takes 16 ticks, matching spec.md S5.
const screenAnimPixelsPerFrame = 8

// screenSlideTotalPixels is the full-screen travel distance.
const screenSlideTotalPixels = 128

// maxRows64, maxRows32 bound a list's effective window by panel height,
// spec.md §4.G.
const (
	maxRows64 = 8
	maxRows32 = 6
)

// listScrollStepPx is the per-tick increment of a row-scroll animation.
const listScrollStepPx = 1

// listScrollTotalPx is the distance a row-scroll animation travels.
const listScrollTotalPx = 8

// Engine is the input state machine (spec.md §4.G) bound to one nav.State
// plus the runtime node stores it mutates.
type Engine struct {
	Nav      *State
	Tree     *model.Tree
	Arena    *arena.Arena
	Lists    *runtime.Lists
	Barrels  *runtime.Barrels
	Triggers *runtime.Triggers

	DisplayHeight int // 32 or 64

	OverlayVisible   bool
	OverlayMaskInput bool
}

// NewEngine wires an input Engine over an already-built nav.State.
func NewEngine(n *State, t *model.Tree, a *arena.Arena, lists *runtime.Lists, barrels *runtime.Barrels, triggers *runtime.Triggers, displayHeight int) *Engine {
	return &Engine{Nav: n, Tree: t, Arena: a, Lists: lists, Barrels: barrels, Triggers: triggers, DisplayHeight: displayHeight}
}

// HandleButton processes one input_event. Only release events are acted
// on; everything else is a no-op (spec.md §4.G).
func (e *Engine) HandleButton(index, event byte) {
	if event != eventRelease {
		return
	}
	if e.Nav.Slide.Active {
		return
	}
	if e.OverlayVisible && e.OverlayMaskInput && index != ButtonOK {
		return
	}
	switch index {
	case ButtonUp:
		e.handleUp()
	case ButtonDown:
		e.handleDown()
	case ButtonLeft:
		e.handleLeftRight(-1)
	case ButtonRight:
		e.handleLeftRight(1)
	case ButtonOK:
		e.handleOK()
	case ButtonBack:
		e.handleBack()
	}
}

func (e *Engine) focusKind() model.Type {
	if e.Nav.Focus == model.Sentinel {
		return model.Type(0xFF)
	}
	return e.Tree.Type(e.Nav.Focus)
}

func (e *Engine) isBarrelEditing(id byte) bool {
	s, ok := e.Barrels.Find(id)
	return ok && s.Aux&0x80 != 0
}

// handleLeftRight implements the screen-slide trigger, nav depth 0 only.
func (e *Engine) handleLeftRight(dir int8) {
	if e.Nav.StackDepth() > 0 {
		return
	}
	count := e.Tree.ScreenCount()
	if count == 0 {
		return
	}
	to := e.Nav.ActiveOrdinal + int(dir)
	if to < 0 || to >= count {
		return
	}
	e.Nav.Slide = SlideState{
		Active: true,
		From:   e.Nav.ActiveOrdinal,
		To:     to,
		Dir:    dir,
	}
	e.Nav.ActiveOrdinal = to
}

// AdvanceSlide steps an in-progress screen-slide animation by one tick,
// spec.md §4.G. It returns true if the slide just completed this call.
func (e *Engine) AdvanceSlide() bool {
	if !e.Nav.Slide.Active {
		return false
	}
	e.Nav.Slide.OffsetPx += screenAnimPixelsPerFrame
	if e.Nav.Slide.OffsetPx >= screenSlideTotalPixels {
		e.Nav.Slide = SlideState{}
		e.Nav.FocusFirstOn()
		return true
	}
	return false
}

func (e *Engine) handleUp() {
	switch e.focusKind() {
	case model.TypeList:
		e.moveListCursor(-1)
	case model.TypeBarrel:
		if e.isBarrelEditing(e.Nav.Focus) {
			e.changeBarrelOption(-1)
		} else {
			e.Nav.FocusPrev()
		}
	case model.TypeTrigger:
		e.Nav.FocusPrev()
	default:
		e.Nav.FocusPrev()
	}
}

func (e *Engine) handleDown() {
	switch e.focusKind() {
	case model.TypeList:
		e.moveListCursor(1)
	case model.TypeBarrel:
		if e.isBarrelEditing(e.Nav.Focus) {
			e.changeBarrelOption(1)
		} else {
			e.Nav.FocusNext()
		}
	case model.TypeTrigger:
		e.Nav.FocusNext()
	default:
		e.Nav.FocusNext()
	}
}

// effectiveWindow computes spec.md §4.G's list window size.
func (e *Engine) effectiveWindow(listID byte, visibleRows byte) byte {
	maxRows := byte(maxRows32)
	if e.DisplayHeight >= 64 {
		maxRows = maxRows64
	}
	_, y := e.Tree.Pos(listID)
	rowsByHeight := byte(0)
	if int(y) < e.DisplayHeight {
		rowsByHeight = byte((e.DisplayHeight - int(y)) / 8)
	}
	w := visibleRows
	if maxRows < w {
		w = maxRows
	}
	if rowsByHeight < w {
		w = rowsByHeight
	}
	if w == 0 {
		w = 1
	}
	return w
}

func (e *Engine) moveListCursor(dir int8) {
	listID := e.Nav.Focus
	s, ok := e.Lists.Find(listID)
	if !ok {
		return
	}
	rowCount := byte(e.Tree.ListRowCount(listID))
	if rowCount == 0 {
		return
	}
	newCursor := int(s.Cursor) + int(dir)
	if newCursor < 0 || newCursor >= int(rowCount) {
		return
	}
	window := e.effectiveWindow(listID, s.VisibleRows)
	if byte(newCursor) >= s.TopIndex && byte(newCursor) < s.TopIndex+window {
		s.Cursor = byte(newCursor)
		e.Lists.Update(listID, s)
		return
	}
	// Cursor would leave the visible window: start the per-row scroll
	// animation; top_index/cursor swap in once it completes.
	newTop := s.TopIndex
	if dir > 0 {
		newTop = byte(newCursor) - window + 1
	} else {
		newTop = byte(newCursor)
	}
	s.AnimActive = true
	s.AnimDir = dir
	s.AnimPix = 0
	s.PendingTop = newTop
	s.PendingCursor = byte(newCursor)
	e.Lists.Update(listID, s)
}

// AdvanceListScrolls steps every in-progress list-scroll animation by one
// tick, swapping in the pending cursor/top once it reaches listScrollTotalPx.
func (e *Engine) AdvanceListScrolls() {
	n := e.Tree.Count()
	for id := byte(0); int(id) < n; id++ {
		if e.Tree.Type(id) != model.TypeList {
			continue
		}
		s, ok := e.Lists.Find(id)
		if !ok || !s.AnimActive {
			continue
		}
		s.AnimPix += listScrollStepPx
		if s.AnimPix >= listScrollTotalPx {
			s.TopIndex = s.PendingTop
			s.Cursor = s.PendingCursor
			s.AnimActive = false
			s.AnimDir = 0
			s.AnimPix = 0
		}
		e.Lists.Update(id, s)
	}
}

func (e *Engine) changeBarrelOption(dir int8) {
	id := e.Nav.Focus
	count := 0
	for i := 0; i < e.Tree.Count(); i++ {
		if e.Tree.Parent(byte(i)) == id && e.Tree.Type(byte(i)) == model.TypeText {
			count++
		}
	}
	if count == 0 {
		return
	}
	s, ok := e.Barrels.Find(id)
	if !ok {
		return
	}
	cur := int(s.Value)
	cur = ((cur+int(dir))%count + count) % count
	s.Value = int16(cur)
	e.Barrels.Update(id, s)
}

// handleOK implements spec.md §4.G's OK dispatch table.
func (e *Engine) handleOK() {
	switch e.focusKind() {
	case 0xFF: // none
		e.Nav.FocusNext()
	case model.TypeTrigger:
		e.Triggers.Bump(e.Nav.Focus)
		e.Arena.MarkDirty(e.Nav.Focus)
	case model.TypeBarrel:
		if e.isBarrelEditing(e.Nav.Focus) {
			e.commitBarrelEdit(e.Nav.Focus)
		} else {
			e.beginBarrelEdit(e.Nav.Focus)
		}
	case model.TypeList:
		e.handleOKOnList(e.Nav.Focus)
	}
}

func (e *Engine) beginBarrelEdit(id byte) {
	s, ok := e.Barrels.Find(id)
	if !ok {
		return
	}
	s.Aux = 0x80 | byte(s.Value)&0x7F
	e.Barrels.Update(id, s)
}

func (e *Engine) commitBarrelEdit(id byte) {
	s, ok := e.Barrels.Find(id)
	if !ok {
		return
	}
	s.Aux = byte(s.Value) & 0x7F
	e.Barrels.Update(id, s)
	e.Arena.MarkDirty(id)
	e.refocusParentListNoRestore(id)
}

func (e *Engine) handleOKOnList(listID byte) {
	s, ok := e.Lists.Find(listID)
	if !ok {
		return
	}
	row, ok := e.Tree.ListChildByIndex(listID, int(s.Cursor))
	if !ok {
		return
	}
	if barrel, ok := e.Tree.TextInlineBarrel(row); ok {
		if e.isBarrelEditing(barrel) {
			e.commitBarrelEdit(barrel)
			return
		}
		e.Nav.Focus = barrel
		e.beginBarrelEdit(barrel)
		return
	}
	if childList, ok := e.Tree.TextChildList(row); ok {
		e.pushList(listID, childList)
		return
	}
	if childScreen, ok := e.Tree.TextChildScreen(row); ok {
		e.pushLocalScreen(listID, childScreen)
		return
	}
}

// pushList implements nav_push_list, spec.md §4.F.
func (e *Engine) pushList(parentList, target byte) bool {
	parentState, _ := e.Lists.Find(parentList)
	f := Frame{
		Kind:          ContextNestedList,
		TargetElement: target,
		ReturnListID:  parentList,
		SavedCursor:   parentState.Cursor,
		SavedTop:      parentState.TopIndex,
		SavedFocus:    e.Nav.Focus,
		SavedActiveOrd: e.Nav.ActiveOrdinal,
	}
	if !e.Nav.Push(f) {
		return false
	}
	if s, ok := e.Lists.Find(target); ok {
		s.Cursor, s.TopIndex = 0, 0
		e.Lists.Update(target, s)
	}
	e.Nav.Focus = target
	return true
}

// pushLocalScreen implements nav_push_local_screen, spec.md §4.F.
func (e *Engine) pushLocalScreen(parentList, screenID byte) bool {
	f := Frame{
		Kind:           ContextLocalScreen,
		TargetElement:  screenID,
		ReturnListID:   parentList,
		SavedFocus:     e.Nav.Focus,
		SavedActiveOrd: e.Nav.ActiveOrdinal,
	}
	if !e.Nav.Push(f) {
		return false
	}
	if ord, ok := e.Tree.FindScreenOrdinalByID(screenID); ok {
		e.Nav.ActiveOrdinal = ord
	}
	e.Nav.FocusFirstOn()
	if e.Nav.Focus == model.Sentinel {
		e.Nav.Focus = parentList
	}
	return true
}

// refocusParentListNoRestore focuses id's parent list without touching its
// cursor/top_index, spec.md §4.G barrel-commit OK behavior.
func (e *Engine) refocusParentListNoRestore(id byte) {
	if listID, ok := e.Tree.ElementParentList(id); ok {
		e.Nav.Focus = listID
	}
}

// refocusParentListWithRestore recomputes cursor/top to keep id's row in
// view, spec.md §4.G barrel-cancel and BACK-on-barrel behavior.
func (e *Engine) refocusParentListWithRestore(id byte) {
	listID, ok := e.Tree.ElementParentList(id)
	if !ok {
		return
	}
	row, ok := e.rowAncestor(id, listID)
	if ok {
		if idx, ok := e.rowIndex(listID, row); ok {
			s, _ := e.Lists.Find(listID)
			s.Cursor = byte(idx)
			window := e.effectiveWindow(listID, s.VisibleRows)
			if s.Cursor < s.TopIndex {
				s.TopIndex = s.Cursor
			} else if s.Cursor >= s.TopIndex+window {
				s.TopIndex = s.Cursor - window + 1
			}
			e.Lists.Update(listID, s)
		}
	}
	e.Nav.Focus = listID
}

func (e *Engine) rowAncestor(id, listID byte) (byte, bool) {
	cur := id
	for steps := 0; steps <= e.Tree.Count(); steps++ {
		if cur == model.Sentinel {
			return 0, false
		}
		if e.Tree.Parent(cur) == listID {
			return cur, true
		}
		cur = e.Tree.Parent(cur)
	}
	return 0, false
}

func (e *Engine) rowIndex(listID, row byte) (int, bool) {
	for i := 0; i < e.Tree.ListRowCount(listID); i++ {
		if id, ok := e.Tree.ListChildByIndex(listID, i); ok && id == row {
			return i, true
		}
	}
	return 0, false
}

// handleBack implements spec.md §4.G's BACK dispatch table.
func (e *Engine) handleBack() {
	switch e.focusKind() {
	case model.TypeBarrel:
		if e.isBarrelEditing(e.Nav.Focus) {
			e.cancelBarrelEdit(e.Nav.Focus)
			e.refocusParentListWithRestore(e.Nav.Focus)
			return
		}
		e.refocusParentListWithRestore(e.Nav.Focus)
	case model.TypeList:
		if top, ok := e.Nav.Top(); ok && top.TargetElement == e.Nav.Focus {
			e.Nav.Pop()
			return
		}
		e.popOrFocusFirst()
	default:
		if listID, ok := e.Tree.ElementParentList(e.Nav.Focus); ok {
			e.Nav.Focus = listID
			return
		}
		e.popOrFocusFirst()
	}
}

func (e *Engine) popOrFocusFirst() {
	if e.Nav.StackDepth() > 0 {
		e.Nav.Pop()
		return
	}
	e.Nav.FocusFirstOn()
}

func (e *Engine) cancelBarrelEdit(id byte) {
	s, ok := e.Barrels.Find(id)
	if !ok {
		return
	}
	s.Value = int16(s.Aux & 0x7F)
	s.Aux = s.Aux &^ 0x80
	e.Barrels.Update(id, s)
}
