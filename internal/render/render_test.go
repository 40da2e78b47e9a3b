// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"testing"

	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/descriptor"
	"github.com/GermanBionicSystems/uislave/internal/nav"
)

func apply(t *testing.T, p *descriptor.Parser, obj string) byte {
	t.Helper()
	id, code := p.Apply([]byte(obj))
	if !code.Ok() {
		t.Fatalf("apply %s: %v", obj, code)
	}
	return id
}

func anyPixelSet(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return true
		}
	}
	return false
}

func TestRenderPageDrawsText(t *testing.T) {
	p := descriptor.New(arena.New(arena.DefaultCapacity))
	apply(t, p, `{"t":"h","n":10}`)
	screen := apply(t, p, `{"t":"s"}`)
	apply(t, p, `{"t":"t","p":`+itoa(screen)+`,"x":0,"y":0,"tx":"Hi"}`)

	n := nav.New(p.Tree())
	e := New(p.Tree(), n, p.Lists(), p.Barrels(), p.Triggers())

	buf := make([]byte, PageWidth)
	e.RenderPage(0, buf)
	if !anyPixelSet(buf) {
		t.Fatal("page 0 has no lit pixels, want text drawn")
	}

	buf2 := make([]byte, PageWidth)
	e.RenderPage(1, buf2)
	if anyPixelSet(buf2) {
		t.Fatal("page 1 has lit pixels, want empty (text is 7px tall, within page 0)")
	}
}

func TestRenderPageCullsOffscreenElement(t *testing.T) {
	p := descriptor.New(arena.New(arena.DefaultCapacity))
	apply(t, p, `{"t":"h","n":10}`)
	screen := apply(t, p, `{"t":"s"}`)
	// The text is visible on the active screen, but its x of 200 puts gx
	// past cullMargin, so layout culls it.
	apply(t, p, `{"t":"t","p":`+itoa(screen)+`,"x":200,"y":0,"tx":"Off"}`)

	n := nav.New(p.Tree())
	e := New(p.Tree(), n, p.Lists(), p.Barrels(), p.Triggers())

	buf := make([]byte, PageWidth)
	e.RenderPage(0, buf)
	if anyPixelSet(buf) {
		t.Fatal("expected the far-offscreen element to be culled")
	}
}

func TestDrawOverlayIgnoresScrollAndOnlyDrawsOwnDescendants(t *testing.T) {
	p := descriptor.New(arena.New(arena.DefaultCapacity))
	apply(t, p, `{"t":"h","n":10}`)
	base := apply(t, p, `{"t":"s"}`)
	apply(t, p, `{"t":"t","p":`+itoa(base)+`,"x":64,"y":0,"tx":"Base"}`)
	overlay := apply(t, p, `{"t":"s","ov":1}`)
	apply(t, p, `{"t":"t","p":`+itoa(overlay)+`,"x":0,"y":0,"tx":"Ov"}`)

	n := nav.New(p.Tree())
	n.ActiveOrdinal = 1 // a scrolled view; overlay text keeps its own x
	e := New(p.Tree(), n, p.Lists(), p.Barrels(), p.Triggers())
	e.OverlayScreen = overlay

	buf := make([]byte, PageWidth)
	e.RenderPage(0, buf)
	if !anyPixelSet(buf[:12]) {
		t.Fatal("overlay text did not draw at its own position")
	}
	if anyPixelSet(buf[64:]) {
		t.Fatal("base-screen text drew while the overlay is shown")
	}
}

func TestDrawTriggerHighlightsOnlyWhenFocused(t *testing.T) {
	p := descriptor.New(arena.New(arena.DefaultCapacity))
	apply(t, p, `{"t":"h","n":10}`)
	screen := apply(t, p, `{"t":"s"}`)
	trig := apply(t, p, `{"t":"i","p":`+itoa(screen)+`,"x":0,"y":0}`)

	n := nav.New(p.Tree())
	e := New(p.Tree(), n, p.Lists(), p.Barrels(), p.Triggers())

	buf := make([]byte, PageWidth)
	e.RenderPage(0, buf)
	if anyPixelSet(buf) {
		t.Fatal("unfocused trigger drew a highlight")
	}

	n.Focus = trig
	buf2 := make([]byte, PageWidth)
	e.RenderPage(0, buf2)
	if !anyPixelSet(buf2) {
		t.Fatal("focused trigger drew nothing, want a highlight box")
	}
}

func itoa(b byte) string {
	if b < 10 {
		return string([]byte{'0' + b})
	}
	return string([]byte{'0' + b/10, '0' + b%10})
}
