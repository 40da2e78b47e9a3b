// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package nav implements the focus/visibility engine and the bounded
// navigation stack (spec.md §4.F): which elements are focusable and
// visible given the current screen, slide animation, and nested-list/
// local-screen nav stack, plus focus_next/focus_prev traversal.
package nav

import (
	"github.com/GermanBionicSystems/uislave/internal/model"
)

// MaxStackDepth bounds the nav stack, spec.md invariant "navigation stack
// depth <= 4".
const MaxStackDepth = 4

// ContextKind distinguishes the two things a nav-stack frame can represent.
type ContextKind byte

const (
	ContextNestedList ContextKind = iota
	ContextLocalScreen
)

// Frame is one pushed nav-stack entry: the context it represents plus the
// snapshot restored on pop, spec.md §4.F.
type Frame struct {
	Kind           ContextKind
	TargetElement  byte
	ReturnListID   byte
	SavedCursor    byte
	SavedTop       byte
	SavedFocus     byte
	SavedActiveOrd int
}

// SlideState describes an in-progress screen-slide animation (spec.md
// §4.G). Dir is +1 moving to a higher ordinal, -1 to a lower one.
type SlideState struct {
	Active  bool
	From    int
	To      int
	Dir     int8
	OffsetPx int
}

// State holds everything the focus/navigation engine owns across ticks:
// the active base-screen ordinal, the focused element, the push/pop
// stack, and the current slide animation (if any).
type State struct {
	Tree *model.Tree

	ActiveOrdinal int
	Focus         byte // model.Sentinel when none

	stack []Frame
	Slide SlideState
}

// New builds nav state with no focus and no active slide, screen ordinal 0.
func New(t *model.Tree) *State {
	return &State{Tree: t, Focus: model.Sentinel}
}

// StackDepth reports the current nav stack depth.
func (s *State) StackDepth() int { return len(s.stack) }

// Reset returns the state to New's zero point, for a HEAD-flagged frame
// that wipes the underlying arena out from under it.
func (s *State) Reset() {
	s.ActiveOrdinal = 0
	s.Focus = model.Sentinel
	s.stack = s.stack[:0]
	s.Slide = SlideState{}
}

// Top returns the top-of-stack frame, if any.
func (s *State) Top() (Frame, bool) {
	if len(s.stack) == 0 {
		return Frame{}, false
	}
	return s.stack[len(s.stack)-1], true
}

// Push appends a frame, silently failing (spec.md §4.F "push fails
// silently when full") once MaxStackDepth is reached.
func (s *State) Push(f Frame) bool {
	if len(s.stack) >= MaxStackDepth {
		return false
	}
	s.stack = append(s.stack, f)
	return true
}

// activeScreenID resolves the element id of the current active ordinal's
// base screen.
func (s *State) activeScreenID() (byte, bool) {
	return s.Tree.FindScreenIDByOrdinal(s.ActiveOrdinal)
}

// IsVisible applies spec.md §4.F's visibility rule for one element.
func (s *State) IsVisible(id byte) bool {
	if !s.Tree.Valid(id) {
		return false
	}
	if top, ok := s.Top(); ok {
		if id != top.TargetElement && !s.Tree.IsDescendantOf(id, top.TargetElement) {
			return false
		}
	} else {
		active, ok := s.activeScreenID()
		if !ok {
			return false
		}
		inActive := id == active || s.Tree.IsDescendantOf(id, active)
		inOutgoing := false
		if s.Slide.Active {
			if fromID, ok := s.Tree.FindScreenIDByOrdinal(s.Slide.From); ok {
				inOutgoing = id == fromID || s.Tree.IsDescendantOf(id, fromID)
			}
		}
		if !inActive && !inOutgoing {
			return false
		}
	}

	if root, ok := s.Tree.ElementRootScreen(id); ok {
		if s.Tree.Parent(root) != model.Sentinel && !s.isLocalScreenOnStack(root) {
			// The root is a local screen (parent is a Text) and it is not
			// the currently entered nav target.
			return false
		}
	}

	for _, listAncestor := range s.nestedListsInPathOf(id) {
		if !s.isOnStack(listAncestor) {
			return false
		}
	}
	return true
}

// nestedListsInPathOf returns every List on id's path to the root
// (including id itself) whose parent is a Text row whose own parent is
// also a List — i.e. every "nested list" spec.md §4.F says must be
// entered via the nav stack before anything inside it is visible.
func (s *State) nestedListsInPathOf(id byte) []byte {
	var nested []byte
	cur := id
	for steps := 0; steps <= s.Tree.Count() && cur != model.Sentinel; steps++ {
		if s.Tree.Type(cur) == model.TypeList {
			if row := s.Tree.Parent(cur); row != model.Sentinel && s.Tree.Type(row) == model.TypeText {
				if grandparent := s.Tree.Parent(row); grandparent != model.Sentinel && s.Tree.Type(grandparent) == model.TypeList {
					nested = append(nested, cur)
				}
			}
		}
		cur = s.Tree.Parent(cur)
	}
	return nested
}

func (s *State) isOnStack(target byte) bool {
	for _, f := range s.stack {
		if f.TargetElement == target {
			return true
		}
	}
	return false
}

func (s *State) isLocalScreenOnStack(screenID byte) bool {
	for _, f := range s.stack {
		if f.Kind == ContextLocalScreen && f.TargetElement == screenID {
			return true
		}
	}
	return false
}

// IsFocusable reports whether id's element type can receive focus.
func (s *State) IsFocusable(id byte) bool {
	switch s.Tree.Type(id) {
	case model.TypeList, model.TypeBarrel, model.TypeTrigger:
		return true
	default:
		return false
	}
}

// FocusNext/FocusPrev implement the bounded, wraparound traversal of
// spec.md §4.F: start one past (or before) the current focus, take the
// first visible+focusable id, settle at Sentinel if none match.
func (s *State) FocusNext() {
	n := s.Tree.Count()
	if n == 0 {
		s.Focus = model.Sentinel
		return
	}
	start := 0
	if s.Focus != model.Sentinel {
		start = (int(s.Focus) + 1) % n
	}
	for i := 0; i < n; i++ {
		id := byte((start + i) % n)
		if s.IsFocusable(id) && s.IsVisible(id) {
			s.Focus = id
			return
		}
	}
	s.Focus = model.Sentinel
}

func (s *State) FocusPrev() {
	n := s.Tree.Count()
	if n == 0 {
		s.Focus = model.Sentinel
		return
	}
	start := n - 1
	if s.Focus != model.Sentinel {
		start = (int(s.Focus) - 1 + n) % n
	}
	for i := 0; i < n; i++ {
		id := byte(((start - i) % n + n) % n)
		if s.IsFocusable(id) && s.IsVisible(id) {
			s.Focus = id
			return
		}
	}
	s.Focus = model.Sentinel
}

// RefreshFocus clears focus if it became invisible, otherwise leaves it.
func (s *State) RefreshFocus() {
	if s.Focus != model.Sentinel && (!s.Tree.Valid(s.Focus) || !s.IsFocusable(s.Focus) || !s.IsVisible(s.Focus)) {
		s.Focus = model.Sentinel
	}
}

// FocusFirstOn sets focus to the first focusable+visible element, as if
// from Sentinel, used after a screen change.
func (s *State) FocusFirstOn() {
	s.Focus = model.Sentinel
	s.FocusNext()
}

// Pop restores the snapshot captured at push time, including the active
// screen ordinal when popping a local-screen context. Pop does not touch
// runtime node state: the frame's SavedCursor/SavedTop are returned, and
// the input state machine does not apply them, so the return list keeps
// whatever cursor/top_index it has at pop time.
func (s *State) Pop() (Frame, bool) {
	if len(s.stack) == 0 {
		return Frame{}, false
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if f.Kind == ContextLocalScreen {
		s.ActiveOrdinal = f.SavedActiveOrd
	}
	s.Focus = f.SavedFocus
	return f, true
}
