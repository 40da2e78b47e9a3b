// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package descriptor implements the key-order-independent single-object
// parser (spec.md §4.D): extract_int/extract_string by scanning for
// "key":value spans in a self-delimited, JSON-resembling ASCII buffer, and
// dispatch each decoded descriptor into a create or an update against a
// model.Tree. A batch of descriptors (one COMMIT-flagged json frame) is
// applied best-effort: one malformed descriptor is reported but never
// poisons the rest, following go.uber.org/multierr's accumulate-and-
// continue pattern for independent per-item errors.
package descriptor

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/model"
	"github.com/GermanBionicSystems/uislave/internal/protoerr"
	"github.com/GermanBionicSystems/uislave/internal/runtime"
)

// maxDescriptorBytes bounds a single descriptor object, spec.md §6
// (inter-byte watchdog / frame size note): the parser never scans past
// this many bytes, guaranteeing termination independent of malformed
// input.
const maxDescriptorBytes = 112

// Type tokens, spec.md §4.D.
const (
	tokenHeader  = "h"
	tokenScreen  = "s"
	tokenList    = "l"
	tokenText    = "t"
	tokenBarrel  = "b"
	tokenTrigger = "i"
)

// Parser applies descriptor objects to a model.Tree plus its runtime node
// stores. It carries the "header descriptor must come first" state across
// calls within one HEAD..COMMIT batch.
type Parser struct {
	tree     *model.Tree
	lists    *runtime.Lists
	barrels  *runtime.Barrels
	triggers *runtime.Triggers

	headerSeen bool
}

// New builds a Parser bound to one in-progress arena. Call Reset whenever
// the arena itself is reset (a HEAD flag).
func New(a *arena.Arena) *Parser {
	return &Parser{
		tree:     model.New(a),
		lists:    runtime.NewLists(a),
		barrels:  runtime.NewBarrels(a),
		triggers: runtime.NewTriggers(a),
	}
}

// Reset clears the "header already seen" latch, to be called alongside
// arena.Reset on a HEAD-flagged frame.
func (p *Parser) Reset() { p.headerSeen = false }

// Tree, Lists, Barrels, and Triggers expose the underlying stores so other
// subsystems (navigation, rendering, the protocol dispatcher) can share the
// exact same view of the arena the parser just populated.
func (p *Parser) Tree() *model.Tree           { return p.tree }
func (p *Parser) Lists() *runtime.Lists       { return p.lists }
func (p *Parser) Barrels() *runtime.Barrels   { return p.barrels }
func (p *Parser) Triggers() *runtime.Triggers { return p.triggers }

// Apply parses and applies one descriptor object, returning the element id
// touched (if any, Sentinel otherwise) and a result code per spec.md §6.
func (p *Parser) Apply(buf []byte) (id byte, code protoerr.Code) {
	if len(buf) > maxDescriptorBytes {
		buf = buf[:maxDescriptorBytes]
	}
	if !hasBraces(buf) {
		return model.Sentinel, protoerr.ParseFail
	}
	t, hasType := extractString(buf, "t")
	eid, hasExisting := extractInt(buf, "e")

	if !p.headerSeen {
		if !hasType || t != tokenHeader {
			return model.Sentinel, protoerr.BadState
		}
	}

	if hasType && t == tokenHeader {
		if p.headerSeen {
			// A second header mid-batch is a protocol misuse, not a
			// malformed object; spec.md only grants HEAD the power to
			// reserve capacity once per reset.
			return model.Sentinel, protoerr.BadState
		}
		n, ok := extractInt(buf, "n")
		if !ok || n < 1 || n > 255 {
			return model.Sentinel, protoerr.ParseFail
		}
		code := p.tree.A.ReserveElementStorage(int(n))
		if code.Ok() {
			p.headerSeen = true
		}
		return model.Sentinel, code
	}

	if hasExisting {
		return p.applyUpdate(buf, byte(eid), t, hasType)
	}
	return p.applyCreate(buf, t, hasType)
}

func (p *Parser) applyCreate(buf []byte, t string, hasType bool) (byte, protoerr.Code) {
	if !hasType {
		return model.Sentinel, protoerr.ParseFail
	}
	parent := byte(model.Sentinel)
	if v, ok := extractInt(buf, "p"); ok {
		parent = byte(v)
	}
	x := extractIntOrZero(buf, "x")
	y := extractIntOrZero(buf, "y")

	switch t {
	case tokenScreen:
		id, code := p.tree.AddElement(parent, model.TypeScreen, x, y)
		if !code.Ok() {
			return id, code
		}
		if ov, ok := extractInt(buf, "ov"); ok && ov != 0 {
			p.tree.A.StoreScreenRole(id, arena.RoleOverlay)
		}
		return id, protoerr.OK

	case tokenList:
		id, code := p.tree.AddElement(parent, model.TypeList, x, y)
		if !code.Ok() {
			return id, code
		}
		rows := byte(4)
		if r, ok := extractInt(buf, "r"); ok && r >= 1 && r <= 6 {
			rows = byte(r)
		}
		if _, code := p.lists.GetOrAdd(id); !code.Ok() {
			return id, code
		}
		if code := p.lists.Update(id, runtime.ListState{VisibleRows: rows}); !code.Ok() {
			return id, code
		}
		return id, protoerr.OK

	case tokenText:
		return p.createText(parent, x, y, buf)

	case tokenBarrel:
		id, code := p.tree.AddElement(parent, model.TypeBarrel, x, y)
		if !code.Ok() {
			return id, code
		}
		v := int16(0)
		if iv, ok := extractInt(buf, "v"); ok {
			v = int16(iv)
		}
		if _, code := p.barrels.GetOrAdd(id); !code.Ok() {
			return id, code
		}
		if code := p.barrels.Update(id, runtime.BarrelState{Value: v}); !code.Ok() {
			return id, code
		}
		return id, protoerr.OK

	case tokenTrigger:
		id, code := p.tree.AddElement(parent, model.TypeTrigger, x, y)
		if !code.Ok() {
			return id, code
		}
		p.triggers.GetOrAdd(id)
		return id, protoerr.OK

	default:
		return model.Sentinel, protoerr.ParseFail
	}
}

// createText handles the list-row-parenting rule, spec.md §4.D: a Text
// parented to a List becomes that list's next row, its y derived from row
// index, and the list node's last_text_child is updated so a later
// s/b/l descriptor naming that list as parent attaches under this row.
func (p *Parser) createText(parent, x, y byte, buf []byte) (byte, protoerr.Code) {
	if parent != model.Sentinel && p.tree.Valid(parent) && p.tree.Type(parent) == model.TypeList {
		row := byte(p.tree.ListRowCount(parent))
		y = row * 8
	}
	id, code := p.tree.AddElement(parent, model.TypeText, x, y)
	if !code.Ok() {
		return id, code
	}
	text, _ := extractString(buf, "tx")
	cap := byte(len(text))
	if c, ok := extractInt(buf, "c"); ok && c >= 0 && c <= 20 {
		if c == 0 {
			cap = byte(len(text))
		} else {
			cap = byte(c)
		}
	}
	if code := p.tree.A.StoreTextWithCap(id, text, cap); !code.Ok() {
		return id, code
	}
	if parent != model.Sentinel && p.tree.Valid(parent) && p.tree.Type(parent) == model.TypeList {
		if s, code := p.lists.GetOrAdd(parent); code.Ok() {
			s.LastTextChild = id
			p.lists.Update(parent, s)
		}
	}
	return id, protoerr.OK
}

// applyUpdate dispatches an e-bearing descriptor to the per-type updater.
// A mismatched t is ignored (not an error), per spec.md §4.D.
func (p *Parser) applyUpdate(buf []byte, id byte, t string, hasType bool) (byte, protoerr.Code) {
	if !p.tree.Valid(id) {
		return model.Sentinel, protoerr.UnknownID
	}
	existing := p.tree.Type(id)
	if hasType && !typeMatches(existing, t) {
		return id, protoerr.OK
	}
	switch existing {
	case model.TypeText:
		if text, ok := extractString(buf, "tx"); ok {
			return id, p.tree.A.UpdateText(id, text)
		}
		return id, protoerr.OK
	case model.TypeBarrel:
		if v, ok := extractInt(buf, "v"); ok {
			s, _ := p.barrels.GetOrAdd(id)
			s.Value = int16(v)
			return id, p.barrels.Update(id, s)
		}
		return id, protoerr.OK
	case model.TypeTrigger:
		// Trigger updates are ignored per spec.md §4.D.
		return id, protoerr.OK
	default:
		return id, protoerr.OK
	}
}

func typeMatches(existing model.Type, t string) bool {
	switch t {
	case tokenScreen:
		return existing == model.TypeScreen
	case tokenList:
		return existing == model.TypeList
	case tokenText:
		return existing == model.TypeText
	case tokenBarrel:
		return existing == model.TypeBarrel
	case tokenTrigger:
		return existing == model.TypeTrigger
	default:
		return false
	}
}

func extractIntOrZero(buf []byte, key string) byte {
	if v, ok := extractInt(buf, key); ok {
		return byte(v)
	}
	return 0
}

// BatchResult is the outcome of applying every descriptor in a COMMIT
// batch: every per-descriptor failure is recorded without stopping the
// batch, spec.md §6 "best-effort" propagation policy.
type BatchResult struct {
	Applied int
	Errs    error
}

// ApplyBatch runs Apply over each descriptor in order, accumulating
// failures with multierr instead of aborting on the first one.
func (p *Parser) ApplyBatch(descriptors [][]byte) BatchResult {
	var res BatchResult
	for i, d := range descriptors {
		_, code := p.Apply(d)
		if code.Ok() {
			res.Applied++
			continue
		}
		res.Errs = multierr.Append(res.Errs, fmt.Errorf("descriptor %d: %w", i, code))
	}
	return res
}
