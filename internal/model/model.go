// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package model implements the element table (spec.md §4.B) and the tree
// helpers that walk it (spec.md §4.E). It is a thin typed layer over
// internal/arena: the arena only knows about raw parent/type bytes and
// tagged attribute entries, model gives them element-type semantics.
package model

import (
	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/protoerr"
)

// Type is an element's role, spec.md §3.
type Type byte

const (
	TypeScreen Type = iota
	TypeList
	TypeText
	TypeBarrel
	TypeTrigger
)

func (t Type) String() string {
	switch t {
	case TypeScreen:
		return "screen"
	case TypeList:
		return "list"
	case TypeText:
		return "text"
	case TypeBarrel:
		return "barrel"
	case TypeTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// Sentinel marks "no parent" / "no element" everywhere an element id is
// used, re-exported from internal/arena so callers only need one import.
const Sentinel = arena.Sentinel

// Tree is the element table plus the walks over it. It holds no state of
// its own; every query reads straight out of the Arena.
type Tree struct {
	A *arena.Arena
}

// New wraps an already-provisioned Arena.
func New(a *arena.Arena) *Tree { return &Tree{A: a} }

// Count is the number of elements created so far, the upper bound every
// bounded tree walk iterates over.
func (t *Tree) Count() int { return t.A.ElementCount() }

// Type, Parent, and Pos read an element's table entry.
func (t *Tree) Type(id byte) Type      { return Type(t.A.Type(int(id))) }
func (t *Tree) Parent(id byte) byte    { return t.A.Parent(int(id)) }
func (t *Tree) Pos(id byte) (x, y byte) { return t.A.PosX(int(id)), t.A.PosY(int(id)) }

// Valid reports whether id names a created element.
func (t *Tree) Valid(id byte) bool { return t.A.ValidElement(id) }

// AddElement appends a new element, spec.md §4.B.
func (t *Tree) AddElement(parent byte, typ Type, x, y byte) (byte, protoerr.Code) {
	return t.A.AddElement(parent, byte(typ), x, y)
}

// IsOverlay reports whether a Screen element carries the full-overlay
// role.
func (t *Tree) IsOverlay(screenID byte) bool {
	return t.A.ScreenRole(screenID) == arena.RoleOverlay
}

// IsBaseScreen reports whether id is a Screen with no parent and no
// overlay role — i.e. it participates in the ordinal sequence.
func (t *Tree) IsBaseScreen(id byte) bool {
	return t.Type(id) == TypeScreen && t.Parent(id) == Sentinel && !t.IsOverlay(id)
}

// ListRowCount counts the visible Text children of a list: spec.md §4.E.
func (t *Tree) ListRowCount(listID byte) int {
	n := 0
	for id := 0; id < t.Count(); id++ {
		if t.Parent(byte(id)) == listID && t.Type(byte(id)) == TypeText {
			n++
		}
	}
	return n
}

// ListChildByIndex returns the row-th Text child of listID in creation
// order.
func (t *Tree) ListChildByIndex(listID byte, row int) (byte, bool) {
	i := 0
	for id := 0; id < t.Count(); id++ {
		if t.Parent(byte(id)) == listID && t.Type(byte(id)) == TypeText {
			if i == row {
				return byte(id), true
			}
			i++
		}
	}
	return 0, false
}

// TextInlineBarrel returns the first Barrel child of a Text element, if
// any.
func (t *Tree) TextInlineBarrel(textID byte) (byte, bool) {
	for id := 0; id < t.Count(); id++ {
		if t.Parent(byte(id)) == textID && t.Type(byte(id)) == TypeBarrel {
			return byte(id), true
		}
	}
	return 0, false
}

// TextChildScreen returns the first local Screen child of a Text element,
// if any.
func (t *Tree) TextChildScreen(textID byte) (byte, bool) {
	for id := 0; id < t.Count(); id++ {
		if t.Parent(byte(id)) == textID && t.Type(byte(id)) == TypeScreen {
			return byte(id), true
		}
	}
	return 0, false
}

// TextChildList returns the first List child of a Text element, if any.
func (t *Tree) TextChildList(textID byte) (byte, bool) {
	for id := 0; id < t.Count(); id++ {
		if t.Parent(byte(id)) == textID && t.Type(byte(id)) == TypeList {
			return byte(id), true
		}
	}
	return 0, false
}

// FindScreenIDByOrdinal returns the id of the ord-th base screen in
// declaration order.
func (t *Tree) FindScreenIDByOrdinal(ord int) (byte, bool) {
	cur := 0
	for id := 0; id < t.Count(); id++ {
		if t.IsBaseScreen(byte(id)) {
			if cur == ord {
				return byte(id), true
			}
			cur++
		}
	}
	return 0, false
}

// FindScreenOrdinalByID is the inverse of FindScreenIDByOrdinal.
func (t *Tree) FindScreenOrdinalByID(screenID byte) (int, bool) {
	cur := 0
	for id := 0; id < t.Count(); id++ {
		if t.IsBaseScreen(byte(id)) {
			if byte(id) == screenID {
				return cur, true
			}
			cur++
		}
	}
	return 0, false
}

// ScreenCount returns the number of base screens.
func (t *Tree) ScreenCount() int {
	n := 0
	for id := 0; id < t.Count(); id++ {
		if t.IsBaseScreen(byte(id)) {
			n++
		}
	}
	return n
}

// ElementParentList climbs parents until a List is found, bounded by
// Count() to guarantee termination on malformed data (spec.md §4.E, §9).
func (t *Tree) ElementParentList(id byte) (byte, bool) {
	cur := t.Parent(id)
	for steps := 0; steps < t.Count() && cur != Sentinel; steps++ {
		if t.Type(cur) == TypeList {
			return cur, true
		}
		cur = t.Parent(cur)
	}
	return 0, false
}

// ElementRootScreen climbs parents (including id itself) until a Screen
// element is found.
func (t *Tree) ElementRootScreen(id byte) (byte, bool) {
	cur := id
	for steps := 0; steps <= t.Count(); steps++ {
		if cur == Sentinel {
			return 0, false
		}
		if t.Type(cur) == TypeScreen {
			return cur, true
		}
		cur = t.Parent(cur)
	}
	return 0, false
}

// IsDescendantOf reports whether id is ancestor itself or a descendant of
// it, bounded by Count().
func (t *Tree) IsDescendantOf(id, ancestor byte) bool {
	cur := id
	for steps := 0; steps <= t.Count(); steps++ {
		if cur == ancestor {
			return true
		}
		if cur == Sentinel {
			return false
		}
		cur = t.Parent(cur)
	}
	return false
}

