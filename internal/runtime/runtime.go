// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package runtime implements the three linked-node stores that live in the
// arena's tail region (spec.md §4.C): per-element scroll/cursor state for
// List elements, per-element value state for Barrel elements, and the
// fire-once version counter for Trigger elements. Every node is packed
// straight into arena bytes and linked by u16 offsets; there is no Go-side
// slice or map mirroring them, so the layout here is the only copy of this
// state that exists.
package runtime

import (
	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/protoerr"
)

// offNull is the link value meaning "end of chain": AllocTail never returns
// it, so it is always distinguishable from a real node offset.
const offNull uint16 = 0

// listNodeSize is next_off(2) + element_id(1) + cursor(1) + top_index(1) +
// visible_rows(1) + anim_active(1) + anim_dir(1) + anim_pix(1) +
// pending_top(1) + pending_cursor(1) + last_text_child(1) = 12 bytes.
const listNodeSize = 12

// barrelNodeSize is next_off(2) + element_id(1) + aux(1) + value(2) = 6
// bytes.
const barrelNodeSize = 6

// triggerNodeSize is next_off(2) + element_id(1) + version(1) = 4 bytes.
const triggerNodeSize = 4

// ListState is the runtime scroll/cursor state for one List element,
// spec.md §4.F. AnimDir follows the signed convention -1 (scrolling toward
// a lower index), 0 (idle), +1 (scrolling toward a higher index).
type ListState struct {
	Cursor        byte
	TopIndex      byte
	VisibleRows   byte
	AnimActive    bool
	AnimDir       int8
	AnimPix       byte
	PendingTop    byte
	PendingCursor byte
	LastTextChild byte
}

// BarrelState is the runtime value state for one Barrel element.
type BarrelState struct {
	Aux   byte
	Value int16
}

// TriggerState is the fire-once version counter for one Trigger element.
type TriggerState struct {
	Version byte
}

// Lists, Barrels, and Triggers are thin typed views over the same Arena,
// one per node kind, mirroring the three independent linked lists spec.md
// §3 describes.
type Lists struct{ a *arena.Arena }
type Barrels struct{ a *arena.Arena }
type Triggers struct{ a *arena.Arena }

func NewLists(a *arena.Arena) *Lists     { return &Lists{a: a} }
func NewBarrels(a *arena.Arena) *Barrels { return &Barrels{a: a} }
func NewTriggers(a *arena.Arena) *Triggers { return &Triggers{a: a} }

// find walks head following next_off until it finds a node whose
// element_id byte (at offset+2) equals id, or runs out of chain. The walk
// is inherently bounded: the chain can never be longer than the number of
// AllocTail calls that built it, and a corrupt/cyclic chain would only be
// possible through direct memory corruption the arena does not permit.
func find(a *arena.Arena, head uint16, nodeSize int, id byte) (off uint16, found bool) {
	cur := head
	for cur != offNull {
		node := a.Bytes(cur, nodeSize)
		if node[2] == id {
			return cur, true
		}
		cur = arena.GetU16(node[0:2])
	}
	return 0, false
}

// Find returns the existing list-node state for id, if any.
func (l *Lists) Find(id byte) (ListState, bool) {
	off, ok := find(l.a, l.a.ListHead(), listNodeSize, id)
	if !ok {
		return ListState{}, false
	}
	return decodeListNode(l.a.Bytes(off, listNodeSize)), true
}

// defaultVisibleRows is the initial visible_rows value for a freshly
// created list node, spec.md §4.C.
const defaultVisibleRows = 4

// GetOrAdd returns the list-node state for id, allocating and prepending a
// fresh node (visible_rows defaulted to 4, everything else zero) if none
// exists yet.
func (l *Lists) GetOrAdd(id byte) (ListState, protoerr.Code) {
	if off, ok := find(l.a, l.a.ListHead(), listNodeSize, id); ok {
		return decodeListNode(l.a.Bytes(off, listNodeSize)), protoerr.OK
	}
	off, code := l.a.AllocTail(listNodeSize)
	if !code.Ok() {
		return ListState{}, code
	}
	node := l.a.Bytes(off, listNodeSize)
	arena.PutU16(node[0:2], l.a.ListHead())
	node[2] = id
	l.a.SetListHead(off)
	s := ListState{VisibleRows: defaultVisibleRows}
	encodeListNode(node, id, s)
	return s, protoerr.OK
}

// Update overwrites the stored state for an existing list node.
func (l *Lists) Update(id byte, s ListState) protoerr.Code {
	off, ok := find(l.a, l.a.ListHead(), listNodeSize, id)
	if !ok {
		return protoerr.UnknownID
	}
	encodeListNode(l.a.Bytes(off, listNodeSize), id, s)
	return protoerr.OK
}

func decodeListNode(b []byte) ListState {
	return ListState{
		Cursor:        b[3],
		TopIndex:      b[4],
		VisibleRows:   b[5],
		AnimActive:    b[6] != 0,
		AnimDir:       int8(b[7]),
		AnimPix:       b[8],
		PendingTop:    b[9],
		PendingCursor: b[10],
		LastTextChild: b[11],
	}
}

func encodeListNode(b []byte, id byte, s ListState) {
	// b[0:2] (next_off) is left untouched; it is only ever set at
	// allocation time by GetOrAdd.
	b[2] = id
	b[3] = s.Cursor
	b[4] = s.TopIndex
	b[5] = s.VisibleRows
	if s.AnimActive {
		b[6] = 1
	} else {
		b[6] = 0
	}
	b[7] = byte(s.AnimDir)
	b[8] = s.AnimPix
	b[9] = s.PendingTop
	b[10] = s.PendingCursor
	b[11] = s.LastTextChild
}

// Find returns the existing barrel-node state for id, if any.
func (br *Barrels) Find(id byte) (BarrelState, bool) {
	off, ok := find(br.a, br.a.BarrelHead(), barrelNodeSize, id)
	if !ok {
		return BarrelState{}, false
	}
	return decodeBarrelNode(br.a.Bytes(off, barrelNodeSize)), true
}

// GetOrAdd returns the barrel-node state for id, allocating a fresh node
// (Value 0) if none exists yet.
func (br *Barrels) GetOrAdd(id byte) (BarrelState, protoerr.Code) {
	if off, ok := find(br.a, br.a.BarrelHead(), barrelNodeSize, id); ok {
		return decodeBarrelNode(br.a.Bytes(off, barrelNodeSize)), protoerr.OK
	}
	off, code := br.a.AllocTail(barrelNodeSize)
	if !code.Ok() {
		return BarrelState{}, code
	}
	node := br.a.Bytes(off, barrelNodeSize)
	arena.PutU16(node[0:2], br.a.BarrelHead())
	node[2] = id
	br.a.SetBarrelHead(off)
	return BarrelState{}, protoerr.OK
}

// Update overwrites the stored state for an existing barrel node.
func (br *Barrels) Update(id byte, s BarrelState) protoerr.Code {
	off, ok := find(br.a, br.a.BarrelHead(), barrelNodeSize, id)
	if !ok {
		return protoerr.UnknownID
	}
	encodeBarrelNode(br.a.Bytes(off, barrelNodeSize), id, s)
	return protoerr.OK
}

func decodeBarrelNode(b []byte) BarrelState {
	return BarrelState{
		Aux:   b[3],
		Value: int16(uint16(b[4]) | uint16(b[5])<<8),
	}
}

func encodeBarrelNode(b []byte, id byte, s BarrelState) {
	b[2] = id
	b[3] = s.Aux
	b[4] = byte(uint16(s.Value))
	b[5] = byte(uint16(s.Value) >> 8)
}

// Find returns the existing trigger-node state for id, if any.
func (tr *Triggers) Find(id byte) (TriggerState, bool) {
	off, ok := find(tr.a, tr.a.TriggerHead(), triggerNodeSize, id)
	if !ok {
		return TriggerState{}, false
	}
	return decodeTriggerNode(tr.a.Bytes(off, triggerNodeSize)), true
}

// GetOrAdd returns the trigger-node state for id, allocating a fresh node
// (Version 0) if none exists yet.
func (tr *Triggers) GetOrAdd(id byte) (TriggerState, protoerr.Code) {
	if off, ok := find(tr.a, tr.a.TriggerHead(), triggerNodeSize, id); ok {
		return decodeTriggerNode(tr.a.Bytes(off, triggerNodeSize)), protoerr.OK
	}
	off, code := tr.a.AllocTail(triggerNodeSize)
	if !code.Ok() {
		return TriggerState{}, code
	}
	node := tr.a.Bytes(off, triggerNodeSize)
	arena.PutU16(node[0:2], tr.a.TriggerHead())
	node[2] = id
	tr.a.SetTriggerHead(off)
	return TriggerState{}, protoerr.OK
}

// Bump increments the version counter for a trigger element, wrapping at
// 256 like any byte counter; the protocol layer only reports the version
// (get_element_state) and never orders versions, so wraparound is harmless.
func (tr *Triggers) Bump(id byte) (TriggerState, protoerr.Code) {
	off, ok := find(tr.a, tr.a.TriggerHead(), triggerNodeSize, id)
	if !ok {
		s, code := tr.GetOrAdd(id)
		if !code.Ok() {
			return s, code
		}
		off, _ = find(tr.a, tr.a.TriggerHead(), triggerNodeSize, id)
	}
	node := tr.a.Bytes(off, triggerNodeSize)
	node[3]++
	return decodeTriggerNode(node), protoerr.OK
}

func decodeTriggerNode(b []byte) TriggerState {
	return TriggerState{Version: b[3]}
}
