// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render implements the page-based layout and draw loop of
// spec.md §4.H. Engine.RenderPage has the transfer.RenderFunc shape so it
// plugs straight into internal/transfer's cooperative state machine: one
// call fills one 128-byte page of the shared scratch buffer.
package render

import (
	"github.com/GermanBionicSystems/uislave/internal/font"
	"github.com/GermanBionicSystems/uislave/internal/model"
	"github.com/GermanBionicSystems/uislave/internal/nav"
	"github.com/GermanBionicSystems/uislave/internal/runtime"
)

// PageWidth is the panel width in pixels; pages are PageWidth x 8.
const PageWidth = 128

// cullMargin bounds how far an element's global x may stray off-panel
// before it is skipped entirely, spec.md §4.H ("cull when |gx| > 143").
const cullMargin = 143

// editBlinkPeriodFrames is the full two-phase blink cycle length, spec.md
// §4.H EDIT_BLINK_PERIOD_FRAMES.
const editBlinkPeriodFrames = 30

// cursorMarkerWidth is how far left of a list row's gx the ">" cursor
// glyph is drawn.
const cursorMarkerWidth = 6

// minHighlightWidth is the minimum width of a focus/edit invert rectangle,
// spec.md §4.H ("width max(18, glyph_width)").
const minHighlightWidth = 18

// Engine renders whichever screen/overlay is currently active into page
// buffers. It holds no state of its own beyond the edit-blink phase and
// the active overlay id (set by its owner); everything else is read fresh
// from the tree/nav/runtime stores each call, since the arena is the only
// source of truth (spec.md §9).
type Engine struct {
	Tree     *model.Tree
	Nav      *nav.State
	Lists    *runtime.Lists
	Barrels  *runtime.Barrels
	Triggers *runtime.Triggers

	// OverlayScreen is the element id of the currently shown full-overlay
	// screen, or model.Sentinel when none is active.
	OverlayScreen byte

	blinkFrame int
}

// New builds a render Engine bound to the shared element/runtime stores.
func New(t *model.Tree, n *nav.State, lists *runtime.Lists, barrels *runtime.Barrels, triggers *runtime.Triggers) *Engine {
	return &Engine{Tree: t, Nav: n, Lists: lists, Barrels: barrels, Triggers: triggers, OverlayScreen: model.Sentinel}
}

// AdvanceBlink steps the edit-blink phase by one tick. Call it once per
// main-loop tick regardless of whether a frame is being rendered, so the
// blink stays in sync with wall-clock ticks rather than render calls.
func (e *Engine) AdvanceBlink() {
	if e.anyBarrelEditing() {
		e.blinkFrame = (e.blinkFrame + 1) % editBlinkPeriodFrames
	} else {
		e.blinkFrame = 0
	}
}

// blinkBright reports whether the edit highlight should currently be
// drawn ("bright" phase of the two-phase toggle).
func (e *Engine) blinkBright() bool {
	return e.blinkFrame < editBlinkPeriodFrames/2
}

func (e *Engine) anyBarrelEditing() bool {
	for id := byte(0); int(id) < e.Tree.Count(); id++ {
		if e.Tree.Type(id) != model.TypeBarrel {
			continue
		}
		if s, ok := e.Barrels.Find(id); ok && s.Aux&0x80 != 0 {
			return true
		}
	}
	return false
}

// page is a draw target: buf holds one byte per column (PageWidth bytes),
// and bit i of a column byte set means pixel row i of this page is lit.
type page struct {
	buf []byte // len PageWidth, one byte per column, bit = row within the page
}

func (p *page) setPixel(x, rowInPage int) {
	if x < 0 || x >= PageWidth || rowInPage < 0 || rowInPage > 7 {
		return
	}
	p.buf[x] |= 1 << uint(rowInPage)
}

func (p *page) invertRange(x0, w int) {
	for x := x0; x < x0+w; x++ {
		if x < 0 || x >= PageWidth {
			continue
		}
		p.buf[x] = ^p.buf[x]
	}
}

// RenderPage fills buf (len PageWidth) with page's pixel columns. It has
// the transfer.RenderFunc signature.
func (e *Engine) RenderPage(pg int, buf []byte) {
	p := &page{buf: buf}
	top, bottom := pg*8, pg*8+8

	if e.OverlayScreen != model.Sentinel {
		e.drawOverlay(p, top, bottom)
		return
	}
	n := e.Tree.Count()
	for id := byte(0); int(id) < n; id++ {
		if !e.Nav.IsVisible(id) {
			continue
		}
		if e.isListRowText(id) || e.isBarrelChild(id) {
			continue
		}
		if root, ok := e.Tree.ElementRootScreen(id); ok && e.Tree.IsOverlay(root) {
			continue
		}
		gx, gy, ok := e.layoutElement(id)
		if !ok {
			continue
		}
		if gx < -cullMargin || gx > cullMargin {
			continue
		}
		switch e.Tree.Type(id) {
		case model.TypeText:
			e.drawText(p, id, gx, gy, top, bottom)
		case model.TypeList:
			e.drawList(p, id, gx, gy, top, bottom)
		case model.TypeBarrel:
			e.drawBarrel(p, id, gx, gy, top, bottom)
		case model.TypeTrigger:
			e.drawTrigger(p, id, gx, gy, top, bottom)
		}
	}
}

func (e *Engine) drawOverlay(p *page, top, bottom int) {
	n := e.Tree.Count()
	for id := byte(0); int(id) < n; id++ {
		if e.Tree.Type(id) != model.TypeText {
			continue
		}
		if !e.Tree.IsDescendantOf(id, e.OverlayScreen) {
			continue
		}
		x, y := e.Tree.Pos(id)
		e.drawText(p, id, int(x), int(y), top, bottom)
	}
}

func (e *Engine) isListRowText(id byte) bool {
	if e.Tree.Type(id) != model.TypeText {
		return false
	}
	parent := e.Tree.Parent(id)
	return parent != model.Sentinel && e.Tree.Valid(parent) && e.Tree.Type(parent) == model.TypeList
}

func (e *Engine) isBarrelChild(id byte) bool {
	parent := e.Tree.Parent(id)
	return parent != model.Sentinel && e.Tree.Valid(parent) && e.Tree.Type(parent) == model.TypeBarrel
}

// layoutElement implements spec.md §4.H layout_element.
func (e *Engine) layoutElement(id byte) (gx, gy int, ok bool) {
	x, y := e.Tree.Pos(id)
	gx, gy = int(x), int(y)

	root, found := e.Tree.ElementRootScreen(id)
	if !found {
		return 0, 0, false
	}
	if e.Tree.IsOverlay(root) {
		return gx, gy, true
	}
	ord, found := e.Tree.FindScreenOrdinalByID(root)
	if !found {
		// A local screen's root isn't a base screen; it inherits the
		// position of its owning nav-stack context instead of sliding.
		return gx, gy, true
	}
	scrollX := e.Nav.ActiveOrdinal * PageWidth
	if e.Nav.Slide.Active {
		scrollX = e.Nav.Slide.From * PageWidth
	}
	gx += ord*PageWidth - scrollX
	if e.Nav.Slide.Active && (ord == e.Nav.Slide.From || ord == e.Nav.Slide.To) {
		gx -= int(e.Nav.Slide.Dir) * e.Nav.Slide.OffsetPx
	}
	return gx, gy, true
}

// drawGlyphString draws s starting at (x,y), clipping vertically against
// [top,bottom) and horizontally against [0,PageWidth). Returns the total
// pixel width drawn (including inter-glyph spacing), for callers that
// need it to size a highlight rectangle.
func (e *Engine) drawGlyphString(p *page, s string, x, y, top, bottom int) int {
	cursor := x
	for _, r := range []byte(s) {
		g := font.Lookup(r)
		for col := 0; col < font.Width; col++ {
			gx := cursor + col
			if gx < 0 || gx >= PageWidth {
				continue
			}
			bits := g[col]
			for row := 0; row < font.Height; row++ {
				absY := y + row
				if absY < top || absY >= bottom {
					continue
				}
				if bits&(1<<uint(row)) != 0 {
					p.setPixel(gx, absY-top)
				}
			}
		}
		cursor += font.Width + 1
	}
	return cursor - x
}

// drawText draws a label. Text itself is never focusable (nav.State.
// IsFocusable only admits List/Barrel/Trigger), so it never carries its
// own highlight; a Text row's highlight comes from the List that owns it
// (drawList's cursor marker) or, for an inline barrel, from drawBarrel.
func (e *Engine) drawText(p *page, id byte, gx, gy, top, bottom int) {
	text, _, ok := e.Tree.A.Text(id)
	if !ok {
		text = ""
	}
	e.drawGlyphString(p, text, gx, gy, top, bottom)
}

// drawTrigger draws only a focus-highlight box: a Trigger carries no
// label of its own (runtime.TriggerState is just a fire-once version
// counter), so it relies on a neighboring Text the descriptor author
// positioned alongside it for any visible caption.
func (e *Engine) drawTrigger(p *page, id byte, gx, gy, top, bottom int) {
	if e.Nav.Focus != id || e.Nav.Slide.Active {
		return
	}
	for row := 0; row < 8; row++ {
		absY := gy + row
		if absY >= top && absY < bottom {
			p.invertRange(gx, minHighlightWidth)
			break
		}
	}
}

func (e *Engine) drawList(p *page, listID byte, gx, gy, top, bottom int) {
	s, ok := e.Lists.Find(listID)
	if !ok {
		return
	}
	rowCount := e.Tree.ListRowCount(listID)
	window := int(s.VisibleRows)

	first, last := int(s.TopIndex), int(s.TopIndex)+window-1
	if s.AnimActive {
		if s.AnimDir < 0 {
			first = int(s.TopIndex) - 1
		} else if s.AnimDir > 0 {
			last = int(s.TopIndex) + window
		}
	}
	if first < 0 {
		first = 0
	}
	if last >= rowCount {
		last = rowCount - 1
	}

	viewTop, viewBottom := gy, gy+window*8

	for r := first; r <= last; r++ {
		rowID, ok := e.Tree.ListChildByIndex(listID, r)
		if !ok {
			continue
		}
		y := gy + (r-int(s.TopIndex))*8
		if s.AnimActive {
			switch {
			case s.AnimDir > 0:
				y -= int(s.AnimPix)
			case s.AnimDir < 0:
				if r == first {
					y = gy - 8 + int(s.AnimPix)
				} else {
					y += int(s.AnimPix)
				}
			}
		}
		if y+8 <= viewTop || y >= viewBottom {
			continue
		}
		rowTop, rowBottom := y, y+8
		if rowTop < viewTop {
			rowTop = viewTop
		}
		if rowBottom > viewBottom {
			rowBottom = viewBottom
		}
		if rowTop < top {
			rowTop = top
		}
		if rowBottom > bottom {
			rowBottom = bottom
		}
		if rowTop >= rowBottom {
			continue
		}
		text, _, _ := e.Tree.A.Text(rowID)
		e.drawGlyphString(p, text, gx, y, rowTop, rowBottom)

		isCursorRow := r == int(s.Cursor)
		if s.AnimActive && r == int(s.PendingCursor) {
			isCursorRow = true
		}
		if isCursorRow {
			e.drawGlyphString(p, ">", gx-cursorMarkerWidth, y, rowTop, rowBottom)
		}
	}
}

func (e *Engine) drawBarrel(p *page, barrelID byte, gx, gy, top, bottom int) {
	s, ok := e.Barrels.Find(barrelID)
	if !ok {
		return
	}
	label, ok := e.barrelOptionLabel(barrelID, int(s.Value))
	if !ok {
		label = barrelFallbackLabel(int(s.Value))
	}
	w := e.drawGlyphString(p, label, gx, gy, top, bottom)

	highlight := false
	if e.Nav.Focus == barrelID && !e.Nav.Slide.Active {
		if s.Aux&0x80 == 0 || e.blinkBright() {
			highlight = true
		}
	} else if parentText, isInline := e.barrelParentTextFocused(barrelID); isInline {
		_ = parentText
		highlight = true
	}
	if highlight {
		for row := 0; row < 8; row++ {
			absY := gy + row
			if absY >= top && absY < bottom {
				p.invertRange(gx, w)
				break
			}
		}
	}
}

// barrelOptionLabel resolves the Text child at index value, if any.
func (e *Engine) barrelOptionLabel(barrelID byte, value int) (string, bool) {
	i := 0
	n := e.Tree.Count()
	for id := byte(0); int(id) < n; id++ {
		if e.Tree.Parent(id) == barrelID && e.Tree.Type(id) == model.TypeText {
			if i == value {
				text, _, ok := e.Tree.A.Text(id)
				return text, ok
			}
			i++
		}
	}
	return "", false
}

func barrelFallbackLabel(value int) string {
	v := value % 100
	if v < 0 {
		v += 100
	}
	digits := "0123456789"
	return string([]byte{'[', digits[v/10], digits[v%10], ']'})
}

// barrelParentTextFocused reports whether barrelID is the inline barrel of
// a Text row that is the focused, non-animating cursor row of its owning
// list (spec.md §4.H's inline-barrel highlight rule).
func (e *Engine) barrelParentTextFocused(barrelID byte) (byte, bool) {
	parentText := e.Tree.Parent(barrelID)
	if parentText == model.Sentinel || !e.Tree.Valid(parentText) || e.Tree.Type(parentText) != model.TypeText {
		return 0, false
	}
	listID := e.Tree.Parent(parentText)
	if listID == model.Sentinel || !e.Tree.Valid(listID) || e.Tree.Type(listID) != model.TypeList {
		return 0, false
	}
	if e.Nav.Focus != listID || e.Nav.Slide.Active {
		return 0, false
	}
	s, ok := e.Lists.Find(listID)
	if !ok || s.AnimActive {
		return 0, false
	}
	row, ok := e.Tree.ListChildByIndex(listID, int(s.Cursor))
	return parentText, ok && row == parentText
}
