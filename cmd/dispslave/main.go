// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command dispslave is the display-slave firmware entrypoint: it opens the
// OLED panel (real SSD1306 over I²C, or a terminal-rendered stand-in), a
// serial byte transport, and runs the protocol main loop at a fixed tick
// rate until killed. Mirrors the host.Init()/i2creg.Open() bring-up every
// periph.io device Example() function uses.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/uislave/internal/display"
	"github.com/GermanBionicSystems/uislave/internal/protocol"
	"github.com/GermanBionicSystems/uislave/internal/serialbus"
)

func main() {
	virtual := flag.Bool("virtual", false, "render to the terminal instead of a real SSD1306 panel")
	serialPath := flag.String("serial", "", "path to the serial device the host talks to (e.g. /dev/ttyACM0); empty uses stdin/stdout")
	i2cAddr := flag.Uint("i2c-addr", 0x3C, "SSD1306 I2C address (ignored: the panel is always addressed at 0x3C)")
	width := flag.Int("w", display.DefaultOpts.W, "panel width in pixels")
	height := flag.Int("h", display.DefaultOpts.H, "panel height in pixels")
	tick := flag.Duration("tick", time.Millisecond, "main loop tick period")
	flag.Parse()

	panel, err := openPanel(*virtual, *i2cAddr, *width, *height)
	if err != nil {
		log.Fatalf("dispslave: open panel: %v", err)
	}
	defer panel.Halt()

	bus, err := openBus(*serialPath)
	if err != nil {
		log.Fatalf("dispslave: open serial: %v", err)
	}
	defer bus.Close()

	opts := protocol.DefaultOpts
	opts.DisplayHeight = *height
	state := protocol.New(opts, panel, bus)
	log.Printf("dispslave: %s", state)

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()
	for range ticker.C {
		state.Tick()
	}
}

func openPanel(virtual bool, addr uint, w, h int) (display.Panel, error) {
	if virtual {
		return display.NewVirtualPanel(w, h), nil
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open("")
	if err != nil {
		return nil, err
	}
	return display.NewSSD1306I2C(b, &display.Opts{W: w, H: h})
}

// openBus opens the serial link the host uses to drive this slave. With no
// -serial path given it falls back to stdin/stdout, which is enough to
// drive the protocol over a pipe during bring-up without dedicated serial
// hardware.
func openBus(path string) (serialbus.Bus, error) {
	if path == "" {
		return serialbus.NewIOBus(stdioReadWriteCloser{}), nil
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return serialbus.NewIOBus(f), nil
}

type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }
