// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package font holds the baked 5x7 glyph table the renderer draws text
// with (spec.md §4.H: "draw each glyph column (LSB-first per column)").
// The table is checked in as data, not computed at boot, since the target
// has no filesystem and no time to rasterize a TTF. The shipped table is
// the classic glcd font; cmd/genfont can rasterize an alternative table
// from a real font in the same Glyph layout, which Lookup does not use.
package font

// Width and Height are the fixed glyph cell dimensions. A glyph is Width
// columns of Height bits each, LSB is the top row.
const (
	Width  = 5
	Height = 7
)

// Glyph is one baked character bitmap: Width bytes, one per column, bit 0
// at the top row.
type Glyph [Width]byte

// fallback is drawn for any byte without a table entry (spec.md leaves
// undefined characters unspecified; a hollow box is the conventional
// "tofu" glyph rather than leaving blank space a reader could mistake for
// an intentional gap).
var fallback = Glyph{0x7F, 0x41, 0x41, 0x41, 0x7F}

// table holds the printable ASCII range 0x20..0x7E, adapted from the
// classic fixed 5x7 "glcd" font shipped with most small-OLED libraries.
var table = map[byte]Glyph{
	0x20: {0x00, 0x00, 0x00, 0x00, 0x00}, // space
	0x21: {0x00, 0x00, 0x5F, 0x00, 0x00}, // !
	0x22: {0x00, 0x07, 0x00, 0x07, 0x00}, // "
	0x23: {0x14, 0x7F, 0x14, 0x7F, 0x14}, // #
	0x24: {0x24, 0x2A, 0x7F, 0x2A, 0x12}, // $
	0x25: {0x23, 0x13, 0x08, 0x64, 0x62}, // %
	0x26: {0x36, 0x49, 0x55, 0x22, 0x50}, // &
	0x27: {0x00, 0x05, 0x03, 0x00, 0x00}, // '
	0x28: {0x00, 0x1C, 0x22, 0x41, 0x00}, // (
	0x29: {0x00, 0x41, 0x22, 0x1C, 0x00}, // )
	0x2A: {0x14, 0x08, 0x3E, 0x08, 0x14}, // *
	0x2B: {0x08, 0x08, 0x3E, 0x08, 0x08}, // +
	0x2C: {0x00, 0x50, 0x30, 0x00, 0x00}, // ,
	0x2D: {0x08, 0x08, 0x08, 0x08, 0x08}, // -
	0x2E: {0x00, 0x60, 0x60, 0x00, 0x00}, // .
	0x2F: {0x20, 0x10, 0x08, 0x04, 0x02}, // /
	0x30: {0x3E, 0x51, 0x49, 0x45, 0x3E}, // 0
	0x31: {0x00, 0x42, 0x7F, 0x40, 0x00}, // 1
	0x32: {0x42, 0x61, 0x51, 0x49, 0x46}, // 2
	0x33: {0x21, 0x41, 0x45, 0x4B, 0x31}, // 3
	0x34: {0x18, 0x14, 0x12, 0x7F, 0x10}, // 4
	0x35: {0x27, 0x45, 0x45, 0x45, 0x39}, // 5
	0x36: {0x3C, 0x4A, 0x49, 0x49, 0x30}, // 6
	0x37: {0x01, 0x71, 0x09, 0x05, 0x03}, // 7
	0x38: {0x36, 0x49, 0x49, 0x49, 0x36}, // 8
	0x39: {0x06, 0x49, 0x49, 0x29, 0x1E}, // 9
	0x3A: {0x00, 0x36, 0x36, 0x00, 0x00}, // :
	0x3B: {0x00, 0x56, 0x36, 0x00, 0x00}, // ;
	0x3C: {0x08, 0x14, 0x22, 0x41, 0x00}, // <
	0x3D: {0x14, 0x14, 0x14, 0x14, 0x14}, // =
	0x3E: {0x00, 0x41, 0x22, 0x14, 0x08}, // >
	0x3F: {0x02, 0x01, 0x51, 0x09, 0x06}, // ?
	0x40: {0x32, 0x49, 0x79, 0x41, 0x3E}, // @
	0x41: {0x7E, 0x11, 0x11, 0x11, 0x7E}, // A
	0x42: {0x7F, 0x49, 0x49, 0x49, 0x36}, // B
	0x43: {0x3E, 0x41, 0x41, 0x41, 0x22}, // C
	0x44: {0x7F, 0x41, 0x41, 0x22, 0x1C}, // D
	0x45: {0x7F, 0x49, 0x49, 0x49, 0x41}, // E
	0x46: {0x7F, 0x09, 0x09, 0x09, 0x01}, // F
	0x47: {0x3E, 0x41, 0x49, 0x49, 0x7A}, // G
	0x48: {0x7F, 0x08, 0x08, 0x08, 0x7F}, // H
	0x49: {0x00, 0x41, 0x7F, 0x41, 0x00}, // I
	0x4A: {0x20, 0x40, 0x41, 0x3F, 0x01}, // J
	0x4B: {0x7F, 0x08, 0x14, 0x22, 0x41}, // K
	0x4C: {0x7F, 0x40, 0x40, 0x40, 0x40}, // L
	0x4D: {0x7F, 0x02, 0x0C, 0x02, 0x7F}, // M
	0x4E: {0x7F, 0x04, 0x08, 0x10, 0x7F}, // N
	0x4F: {0x3E, 0x41, 0x41, 0x41, 0x3E}, // O
	0x50: {0x7F, 0x09, 0x09, 0x09, 0x06}, // P
	0x51: {0x3E, 0x41, 0x51, 0x21, 0x5E}, // Q
	0x52: {0x7F, 0x09, 0x19, 0x29, 0x46}, // R
	0x53: {0x46, 0x49, 0x49, 0x49, 0x31}, // S
	0x54: {0x01, 0x01, 0x7F, 0x01, 0x01}, // T
	0x55: {0x3F, 0x40, 0x40, 0x40, 0x3F}, // U
	0x56: {0x1F, 0x20, 0x40, 0x20, 0x1F}, // V
	0x57: {0x3F, 0x40, 0x38, 0x40, 0x3F}, // W
	0x58: {0x63, 0x14, 0x08, 0x14, 0x63}, // X
	0x59: {0x07, 0x08, 0x70, 0x08, 0x07}, // Y
	0x5A: {0x61, 0x51, 0x49, 0x45, 0x43}, // Z
	0x5B: {0x00, 0x7F, 0x41, 0x41, 0x00}, // [
	0x5C: {0x02, 0x04, 0x08, 0x10, 0x20}, // backslash
	0x5D: {0x00, 0x41, 0x41, 0x7F, 0x00}, // ]
	0x5E: {0x04, 0x02, 0x01, 0x02, 0x04}, // ^
	0x5F: {0x40, 0x40, 0x40, 0x40, 0x40}, // _
	0x60: {0x00, 0x01, 0x02, 0x04, 0x00}, // `
	0x61: {0x20, 0x54, 0x54, 0x54, 0x78}, // a
	0x62: {0x7F, 0x48, 0x44, 0x44, 0x38}, // b
	0x63: {0x38, 0x44, 0x44, 0x44, 0x20}, // c
	0x64: {0x38, 0x44, 0x44, 0x48, 0x7F}, // d
	0x65: {0x38, 0x54, 0x54, 0x54, 0x18}, // e
	0x66: {0x08, 0x7E, 0x09, 0x01, 0x02}, // f
	0x67: {0x0C, 0x52, 0x52, 0x52, 0x3E}, // g
	0x68: {0x7F, 0x08, 0x04, 0x04, 0x78}, // h
	0x69: {0x00, 0x44, 0x7D, 0x40, 0x00}, // i
	0x6A: {0x20, 0x40, 0x44, 0x3D, 0x00}, // j
	0x6B: {0x7F, 0x10, 0x28, 0x44, 0x00}, // k
	0x6C: {0x00, 0x41, 0x7F, 0x40, 0x00}, // l
	0x6D: {0x7C, 0x04, 0x18, 0x04, 0x78}, // m
	0x6E: {0x7C, 0x08, 0x04, 0x04, 0x78}, // n
	0x6F: {0x38, 0x44, 0x44, 0x44, 0x38}, // o
	0x70: {0x7C, 0x14, 0x14, 0x14, 0x08}, // p
	0x71: {0x08, 0x14, 0x14, 0x18, 0x7C}, // q
	0x72: {0x7C, 0x08, 0x04, 0x04, 0x08}, // r
	0x73: {0x48, 0x54, 0x54, 0x54, 0x20}, // s
	0x74: {0x04, 0x3F, 0x44, 0x40, 0x20}, // t
	0x75: {0x3C, 0x40, 0x40, 0x20, 0x7C}, // u
	0x76: {0x1C, 0x20, 0x40, 0x20, 0x1C}, // v
	0x77: {0x3C, 0x40, 0x30, 0x40, 0x3C}, // w
	0x78: {0x44, 0x28, 0x10, 0x28, 0x44}, // x
	0x79: {0x0C, 0x50, 0x50, 0x50, 0x3C}, // y
	0x7A: {0x44, 0x64, 0x54, 0x4C, 0x44}, // z
	0x7B: {0x00, 0x08, 0x36, 0x41, 0x00}, // {
	0x7C: {0x00, 0x00, 0x7F, 0x00, 0x00}, // |
	0x7D: {0x00, 0x41, 0x36, 0x08, 0x00}, // }
	0x7E: {0x08, 0x04, 0x08, 0x10, 0x08}, // ~
}

// Lookup returns the baked glyph for b, or the fallback box if b has no
// entry (e.g. control characters, or bytes above 0x7E).
func Lookup(b byte) Glyph {
	if g, ok := table[b]; ok {
		return g
	}
	return fallback
}
