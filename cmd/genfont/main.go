// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command genfont rasterizes the printable ASCII range of a TTF into a 5x7
// bitmap table in internal/font.Glyph's layout, and prints the resulting Go
// source (a generatedTable map in package font) to stdout. The table that
// internal/font/table.go ships is not this output, and font.Lookup does not
// read generatedTable. It is host tooling: spec.md §1 puts the font
// table's *content* out of scope for the slave itself, and the generator is
// ordinary desktop Go that is never compiled for the target.
//
// Usage: go run ./cmd/genfont > internal/font/generated.go
package main

import (
	"fmt"
	"image"
	"log"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	glyphWidth  = 5
	glyphHeight = 7
	cellPx      = 64 // supersampled render cell before downsampling to the bitmap grid
)

func main() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("genfont: parse font: %v", err)
	}

	fmt.Println("// Code generated by cmd/genfont from golang.org/x/image/font/gofont/goregular. DO NOT EDIT.")
	fmt.Println()
	fmt.Println("package font")
	fmt.Println()
	fmt.Printf("var generatedTable = map[byte]Glyph{\n")
	for b := byte(0x20); b <= 0x7E; b++ {
		g, err := rasterize(f, rune(b))
		if err != nil {
			log.Fatalf("genfont: rasterize 0x%02X: %v", b, err)
		}
		fmt.Printf("\t0x%02X: {0x%02X, 0x%02X, 0x%02X, 0x%02X, 0x%02X}, // %c\n",
			b, g[0], g[1], g[2], g[3], g[4], rune(b))
	}
	fmt.Println("}")
}

// rasterize draws r into a supersampled canvas with gg, then samples it
// down to a glyphWidth x glyphHeight 1-bit grid packed LSB-first per
// column, matching the bitmap layout internal/font.Glyph expects.
func rasterize(f *truetype.Font, r rune) ([glyphWidth]byte, error) {
	dc := gg.NewContext(cellPx, cellPx)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)

	face := truetype.NewFace(f, &truetype.Options{Size: float64(cellPx) * 0.8})
	dc.SetFontFace(face)
	dc.DrawStringAnchored(string(r), cellPx/2, cellPx/2, 0.5, 0.35)

	img := dc.Image()
	var g [glyphWidth]byte
	for col := 0; col < glyphWidth; col++ {
		var bits byte
		for row := 0; row < glyphHeight; row++ {
			sx := col * cellPx / glyphWidth
			sy := row * cellPx / glyphHeight
			if pixelSet(img, sx, sy, cellPx/glyphWidth, cellPx/glyphHeight) {
				bits |= 1 << uint(row)
			}
		}
		g[col] = bits
	}
	return g, nil
}

// pixelSet reports whether the average brightness of the wxh block at
// (x0,y0) in img crosses the bilevel threshold.
func pixelSet(img image.Image, x0, y0, w, h int) bool {
	var sum uint32
	var n uint32
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += (r + g + b) / 3
			n++
		}
	}
	if n == 0 {
		return false
	}
	return sum/n > 0x7FFF
}
