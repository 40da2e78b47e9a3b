// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package display

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// VirtualPanel is a terminal-rendered stand-in for the real controller, for
// running the slave without hardware attached. It tracks the same
// column/page addressing the real SSD1306 init sequence uses (spec.md
// §4.I's addr command: 0x21 col-start col-end 0x22 page-start page-end)
// and repaints the terminal once a full frame (every page) has streamed in.
type VirtualPanel struct {
	w, h      int
	pageBytes [][]byte // one []byte of length w per page

	curPage int
	curCol  int

	out     io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// NewVirtualPanel builds a terminal panel sized wxh pixels (h must be a
// multiple of 8). Output defaults to a colorable stdout so ANSI codes
// render correctly on Windows consoles too, matching the teacher's
// screen1d approach.
func NewVirtualPanel(w, h int) *VirtualPanel {
	pages := make([][]byte, h/8)
	for i := range pages {
		pages[i] = make([]byte, w)
	}
	return &VirtualPanel{
		w: w, h: h,
		pageBytes: pages,
		out:       colorable.NewColorableStdout(),
		palette:   *ansi256.Default,
	}
}

// PageCount implements Panel.
func (v *VirtualPanel) PageCount() int { return v.h / 8 }

// WriteCmdBurst interprets the column/page addressing burst the transfer
// engine sends before each page (spec.md §4.I); any other command byte is
// accepted and ignored, since the virtual panel has no contrast/charge-pump
// state worth modeling.
func (v *VirtualPanel) WriteCmdBurst(cmd []byte) error {
	if len(cmd) >= 6 && cmd[0] == 0x21 && cmd[3] == 0x22 {
		v.curPage = int(cmd[4])
		v.curCol = 0
	}
	return nil
}

// WriteDataBurst writes into the addressed page at the current column
// cursor and repaints the terminal once the last page's last column lands.
// Unlike the hardware-backed panel this never actually goes async: a
// terminal repaint is cheap enough to do inline, so TxBusy always reports
// false.
func (v *VirtualPanel) WriteDataBurst(data []byte) error {
	if v.curPage < 0 || v.curPage >= len(v.pageBytes) {
		return fmt.Errorf("virtualpanel: page %d out of range", v.curPage)
	}
	page := v.pageBytes[v.curPage]
	for _, b := range data {
		if v.curCol >= len(page) {
			break
		}
		page[v.curCol] = b
		v.curCol++
	}
	if v.curPage == len(v.pageBytes)-1 && v.curCol >= v.w {
		v.repaint()
	}
	return nil
}

// TxBusy implements Panel; the virtual panel never defers work.
func (v *VirtualPanel) TxBusy() bool { return false }

// String implements conn.Resource.
func (v *VirtualPanel) String() string {
	return fmt.Sprintf("VirtualPanel{%dx%d}", v.w, v.h)
}

// Halt implements conn.Resource: it writes a newline and resets the
// terminal's SGR state; the last painted frame stays on screen.
func (v *VirtualPanel) Halt() error {
	_, err := v.out.Write([]byte("\n\033[0m"))
	return err
}

// repaint draws the whole framebuffer as eight ANSI-colored rows of block
// glyphs per page (one row per bit of each column byte, bit 0 on top),
// moving the cursor back up between frames instead of scrolling.
func (v *VirtualPanel) repaint() {
	v.buf.Reset()
	v.buf.WriteString("\033[0m")
	set := color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	clear := color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
	for _, page := range v.pageBytes {
		for bit := 0; bit < 8; bit++ {
			for _, col := range page {
				if col&(1<<uint(bit)) != 0 {
					v.buf.WriteString(v.palette.Block(set))
				} else {
					v.buf.WriteString(v.palette.Block(clear))
				}
			}
			v.buf.WriteString("\033[0m\r\n")
		}
	}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		v.buf.WriteString(fmt.Sprintf("\033[%dA", v.h))
	}
	v.buf.WriteTo(v.out)
}

var _ Panel = (*VirtualPanel)(nil)
