// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package arena implements the single static byte buffer that backs the
// whole UI model: an append-only head region for element tables and
// variable-length attributes, and a tail region that is bump-allocated
// backwards for the runtime linked-node stores (internal/runtime). There is
// no heap and no compaction; the only way to reclaim space is Reset, which
// wipes the whole arena.
//
// This mirrors the "typed bump region for the head, typed freelist for the
// tail" design note in spec.md §9: offsets (uint16) into the arena double as
// weak references and stay valid until the next Reset.
package arena

import (
	"encoding/binary"
	"fmt"

	"github.com/GermanBionicSystems/uislave/internal/protoerr"
)

// Sentinel marks "no parent" / "no element" everywhere an element id is
// stored.
const Sentinel byte = 0xFF

// DefaultCapacity is the arena size recommended by spec.md §3. It does not
// cover every N: the 2*N + N + N element tables alone need 1020 bytes at
// N=255. Tunable per spec.md §9 Open Questions; the caller must ensure it is
// >= the worst case of its own workload.
const DefaultCapacity = 768

// Attribute tags, spec.md §3.
const (
	tagText       byte = 1
	tagScreenRole byte = 2
)

// ScreenRole values for the tagScreenRole attribute.
const (
	RoleNone    byte = 0
	RoleOverlay byte = 1
)

// Arena is the single contiguous byte buffer described by spec.md §3. It is
// not safe for concurrent use; per spec.md §5 it is owned exclusively by the
// main loop.
type Arena struct {
	buf []byte

	reserved  bool
	committed bool

	n            int // declared capacity from the header descriptor
	elementCount int

	attrBase int
	headUsed int
	usedTail int

	listHead, barrelHead, triggerHead uint16

	dirtyID byte // Sentinel when clear
	dirty   bool
}

// New allocates an Arena with the given total byte capacity. New does not
// check capacity at all, leaving workload-specific sizing to the caller per
// spec.md §9.
func New(capacity int) *Arena {
	return &Arena{
		buf:     make([]byte, capacity),
		dirtyID: Sentinel,
	}
}

func (a *Arena) String() string {
	return fmt.Sprintf("arena{cap=%d n=%d elems=%d head=%d tail=%d}", len(a.buf), a.n, a.elementCount, a.headUsed, a.usedTail)
}

// Capacity returns the total arena size in bytes.
func (a *Arena) Capacity() int { return len(a.buf) }

// N returns the declared element capacity reserved by the header
// descriptor, or 0 if ReserveElementStorage has not been called since the
// last Reset.
func (a *Arena) N() int { return a.n }

// ElementCount returns the number of elements created so far.
func (a *Arena) ElementCount() int { return a.elementCount }

// Committed reports whether COMMIT has been applied since the last Reset.
func (a *Arena) Committed() bool { return a.committed }

// HeadUsed and UsedTail expose the current head/tail byte usage, mostly for
// tests asserting the invariant head_used + used_tail <= capacity.
func (a *Arena) HeadUsed() int { return a.headUsed }
func (a *Arena) UsedTail() int { return a.usedTail }

// Reset wipes the arena back to its pristine state. It is triggered by a
// HEAD-flagged descriptor frame (spec.md §4.D) and destroys every element,
// attribute, and runtime node.
func (a *Arena) Reset() {
	for i := range a.buf {
		a.buf[i] = 0
	}
	a.reserved = false
	a.committed = false
	a.n = 0
	a.elementCount = 0
	a.attrBase = 0
	a.headUsed = 0
	a.usedTail = 0
	a.listHead, a.barrelHead, a.triggerHead = 0, 0, 0
	a.dirtyID = Sentinel
	a.dirty = false
}

// ReserveElementStorage partitions the head of the arena into the element
// meta table (n*2 bytes of parent/type pairs) and the pos_x/pos_y tables (n
// bytes each), per spec.md §4.A. It may only be called once per Reset.
func (a *Arena) ReserveElementStorage(n int) protoerr.Code {
	if a.reserved {
		return protoerr.BadState
	}
	if n <= 0 || n > 255 {
		return protoerr.Range
	}
	need := n*2 + n + n
	if need > len(a.buf) {
		return protoerr.NoSpace
	}
	a.n = n
	a.attrBase = need
	a.headUsed = need
	for i := 0; i < n; i++ {
		a.setParentType(i, Sentinel, 0)
	}
	a.reserved = true
	return protoerr.OK
}

// Commit marks provisioning complete; no further attributes may be
// appended until the next Reset.
func (a *Arena) Commit() { a.committed = true }

func (a *Arena) elemTableOff(id int) int { return id * 2 }
func (a *Arena) posXOff(id int) int      { return a.n*2 + id }
func (a *Arena) posYOff(id int) int      { return a.n*2 + a.n + id }

func (a *Arena) setParentType(id int, parent, typ byte) {
	off := a.elemTableOff(id)
	a.buf[off] = parent
	a.buf[off+1] = typ
}

// Parent returns the parent id stored for element id.
func (a *Arena) Parent(id int) byte { return a.buf[a.elemTableOff(id)] }

// Type returns the raw type byte stored for element id.
func (a *Arena) Type(id int) byte { return a.buf[a.elemTableOff(id)+1] }

// PosX and PosY return the element's stored position.
func (a *Arena) PosX(id int) byte { return a.buf[a.posXOff(id)] }
func (a *Arena) PosY(id int) byte { return a.buf[a.posYOff(id)] }

// SetPos writes the position of element id. AddElement uses it when
// creating an element; update descriptors never move an element.
func (a *Arena) SetPos(id int, x, y byte) {
	a.buf[a.posXOff(id)] = x
	a.buf[a.posYOff(id)] = y
}

// AddElement appends one slot to the element table: parent/type/x/y are
// written atomically from the caller's perspective, spec.md §4.B. A
// non-Sentinel parent must name an already-created element, so a parent
// always has a lower id than its child; otherwise it fails with UnknownID.
func (a *Arena) AddElement(parent, typ, x, y byte) (id byte, code protoerr.Code) {
	if !a.reserved {
		return 0, protoerr.BadState
	}
	if a.committed {
		return 0, protoerr.BadState
	}
	if a.elementCount >= a.n {
		return 0, protoerr.NoSpace
	}
	if parent != Sentinel && int(parent) >= a.elementCount {
		return 0, protoerr.UnknownID
	}
	id = byte(a.elementCount)
	a.setParentType(int(id), parent, typ)
	a.SetPos(int(id), x, y)
	a.elementCount++
	return id, protoerr.OK
}

// ValidElement reports whether id currently names a created element.
func (a *Arena) ValidElement(id byte) bool {
	return id != Sentinel && int(id) < a.elementCount
}

// appendAttr appends a generic tagged attribute entry. It is unexported;
// the concrete text and screen-role helpers below are what the parser
// actually uses.
func (a *Arena) appendAttr(tag, elementID byte, payload []byte) protoerr.Code {
	if a.committed {
		return protoerr.BadState
	}
	if int(elementID) >= a.n {
		return protoerr.Range
	}
	need := 2 + len(payload)
	if a.headUsed+need+a.usedTail > len(a.buf) {
		return protoerr.NoSpace
	}
	off := a.headUsed
	a.buf[off] = tag
	a.buf[off+1] = elementID
	copy(a.buf[off+2:], payload)
	a.headUsed += need
	return protoerr.OK
}

// StoreTextWithCap appends a text attribute for id with an allocated
// capacity of cap+1 bytes (the +1 is the terminator). It writes
// min(len(text), cap) bytes followed by a terminator; the allocation never
// changes afterward (spec.md invariant 5).
func (a *Arena) StoreTextWithCap(id byte, text string, cap byte) protoerr.Code {
	alloc := cap + 1
	payload := make([]byte, 1+int(alloc))
	payload[0] = alloc
	n := copy(payload[1:1+int(cap)], text)
	payload[1+n] = 0
	return a.appendAttr(tagText, id, payload)
}

// UpdateText locates the text entry for id and rewrites its contents,
// truncating to the original allocation (spec.md invariant 4/5).
func (a *Arena) UpdateText(id byte, text string) protoerr.Code {
	off, allocLen, found := a.findTextEntry(id)
	if !found {
		return protoerr.UnknownID
	}
	cap := int(allocLen) - 1
	body := a.buf[off+3 : off+3+int(allocLen)]
	n := copy(body, text)
	if n > cap {
		n = cap
	}
	for i := n; i < len(body); i++ {
		body[i] = 0
	}
	return protoerr.OK
}

// Text returns the decoded text bytes (up to the terminator) and the
// allocated capacity (excluding the terminator) for id.
func (a *Arena) Text(id byte) (text string, cap byte, found bool) {
	off, allocLen, ok := a.findTextEntry(id)
	if !ok {
		return "", 0, false
	}
	body := a.buf[off+3 : off+3+int(allocLen)]
	end := 0
	for end < len(body) && body[end] != 0 {
		end++
	}
	return string(body[:end]), allocLen - 1, true
}

func (a *Arena) findTextEntry(id byte) (off int, allocLen byte, found bool) {
	p := a.attrBase
	for p < a.headUsed {
		tag := a.buf[p]
		eid := a.buf[p+1]
		switch tag {
		case tagText:
			al := a.buf[p+2]
			if eid == id {
				return p, al, true
			}
			p += 3 + int(al)
		case tagScreenRole:
			p += 3
		default:
			// Unknown tag: the arena never writes one, so this only
			// happens on corruption; stop scanning rather than loop
			// forever on a bad length.
			return 0, 0, false
		}
	}
	return 0, 0, false
}

// StoreScreenRole appends a screen-role attribute for id.
func (a *Arena) StoreScreenRole(id, role byte) protoerr.Code {
	return a.appendAttr(tagScreenRole, id, []byte{role})
}

// ScreenRole returns the role stored for id, defaulting to RoleNone if
// absent.
func (a *Arena) ScreenRole(id byte) byte {
	p := a.attrBase
	for p < a.headUsed {
		tag := a.buf[p]
		eid := a.buf[p+1]
		switch tag {
		case tagText:
			al := a.buf[p+2]
			p += 3 + int(al)
		case tagScreenRole:
			if eid == id {
				return a.buf[p+2]
			}
			p += 3
		default:
			return RoleNone
		}
	}
	return RoleNone
}

// AllocTail bump-allocates size bytes from the tail of the arena and
// returns their absolute offset. Offset 0 is never returned (it collides
// with the head of the element table and is reserved as the "null" link
// value for runtime node stores), so callers checking for "no node" can
// always compare against 0.
func (a *Arena) AllocTail(size int) (offset uint16, code protoerr.Code) {
	newUsedTail := a.usedTail + size
	if a.headUsed+newUsedTail > len(a.buf) {
		return 0, protoerr.NoSpace
	}
	off := len(a.buf) - newUsedTail
	if off == 0 {
		return 0, protoerr.NoSpace
	}
	a.usedTail = newUsedTail
	return uint16(off), protoerr.OK
}

// Bytes exposes the slice backing offset..offset+n for the runtime package's
// packed node accessors. It is a raw, unchecked view; callers must have
// obtained offset from AllocTail.
func (a *Arena) Bytes(offset uint16, n int) []byte {
	return a.buf[int(offset) : int(offset)+n]
}

// ListHead, BarrelHead, TriggerHead and their setters expose the three
// linked-list roots (spec.md §3) to the runtime package.
func (a *Arena) ListHead() uint16        { return a.listHead }
func (a *Arena) SetListHead(v uint16)    { a.listHead = v }
func (a *Arena) BarrelHead() uint16      { return a.barrelHead }
func (a *Arena) SetBarrelHead(v uint16)  { a.barrelHead = v }
func (a *Arena) TriggerHead() uint16     { return a.triggerHead }
func (a *Arena) SetTriggerHead(v uint16) { a.triggerHead = v }

// MarkDirty records id as the single remembered status-dirty element,
// last-writer-wins (spec.md invariant 6).
func (a *Arena) MarkDirty(id byte) {
	a.dirty = true
	a.dirtyID = id
}

// TakeDirty reports whether the dirty flag is set and the id it names,
// clearing the flag (spec.md §4.J get_status semantics).
func (a *Arena) TakeDirty() (id byte, wasDirty bool) {
	wasDirty = a.dirty
	id = a.dirtyID
	a.dirty = false
	a.dirtyID = Sentinel
	return id, wasDirty
}

// PutU16 and GetU16 are the little-endian helpers internal/runtime uses to
// pack the u16 next_off link field into the tail region.
func PutU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func GetU16(b []byte) uint16    { return binary.LittleEndian.Uint16(b) }
