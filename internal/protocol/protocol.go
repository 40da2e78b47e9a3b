// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package protocol ties the arena, descriptor parser, navigation/input,
// renderer, transfer engine, and wire framing together into the single
// cooperative main loop spec.md §5 describes: advance transfer engine,
// service deferred RX/TX, update animations, poll local buttons, handle
// standby, handle a pending render request. State is the systems-language
// "one ProtocolState value owned by the runtime" spec.md §9 calls for;
// nothing here is a package-level global.
package protocol

import (
	"errors"

	"github.com/GermanBionicSystems/uislave/internal/arena"
	"github.com/GermanBionicSystems/uislave/internal/descriptor"
	"github.com/GermanBionicSystems/uislave/internal/display"
	"github.com/GermanBionicSystems/uislave/internal/model"
	"github.com/GermanBionicSystems/uislave/internal/nav"
	"github.com/GermanBionicSystems/uislave/internal/protoerr"
	"github.com/GermanBionicSystems/uislave/internal/render"
	"github.com/GermanBionicSystems/uislave/internal/serialbus"
	"github.com/GermanBionicSystems/uislave/internal/transfer"
	"github.com/GermanBionicSystems/uislave/internal/transport"
)

// Wire command bytes, spec.md §4.J.
const (
	cmdPing            byte = 0x00
	cmdJSON            byte = 0x01
	cmdJSONAbort       byte = 0x03
	cmdSetActiveScreen byte = 0x10
	cmdGetStatus       byte = 0x20
	cmdScrollToScreen  byte = 0x21
	cmdGetElementState byte = 0x22
	cmdShowOverlay     byte = 0x30
	cmdInputEvent      byte = 0x41
	cmdGotoStandby     byte = 0x50
)

// protocolVersion and caps are reported verbatim by ping, spec.md S1.
const (
	protocolVersion byte = 1
	caps                 = 0
)

// defaultOverlayDurationMs is used when show_overlay omits an explicit
// duration, spec.md §4.J.
const defaultOverlayDurationMs = 1200

// headFlag/commitFlag are bit 0/1 of the json command's flags byte.
const (
	headFlag   byte = 1 << 0
	commitFlag byte = 1 << 1
)

// statusInitialized/statusDirty/statusOverlay are get_status flag bits.
const (
	statusInitialized byte = 1 << 0
	statusDirty       byte = 1 << 1
	statusOverlay     byte = 1 << 2
)

// maskInputFlag is the show_overlay flags-byte bit, spec.md §4.J
// ("mask_input bit sets the input-mask flag").
const maskInputFlag byte = 1 << 0

// ButtonEvent is one polled local-button transition, spec.md §6 button
// indices plus the release/press byte input_event also carries.
type ButtonEvent struct {
	Index byte
	Event byte
}

// Opts configures a State, following the ssd1306.Opts/DefaultOpts
// convention used throughout this repository's hardware-facing packages.
type Opts struct {
	ArenaCapacity int
	DisplayHeight int // 32 or 64
}

// DefaultOpts matches a 128x64 panel with the arena size spec.md §3
// recommends.
var DefaultOpts = Opts{ArenaCapacity: arena.DefaultCapacity, DisplayHeight: 64}

// State is the single owner of every in-scope subsystem. It is not safe
// for concurrent use, mirroring the arena's single-main-loop-owner policy
// (spec.md §5); the only other writers are the RX byte callback (wired to
// transport.Receiver, itself lock-free) and, in a real deployment, GPIO
// interrupt handlers that only ever set small flag fields.
type State struct {
	Arena    *arena.Arena
	Parser   *descriptor.Parser
	Tree     *model.Tree
	Nav      *nav.State
	Input    *nav.Engine
	Render   *render.Engine
	Transfer *transfer.Engine
	Panel    display.Panel
	Bus      serialbus.Bus

	rx  transport.Receiver
	txq transport.TXQueue

	// PollButtons, when set, is called once per Tick to collect local
	// button transitions (e.g. real GPIO debounce logic in cmd/dispslave).
	// It is optional: a host driving the slave purely over the wire never
	// needs it.
	PollButtons func() []ButtonEvent

	initialized bool

	overlayActive     bool
	overlayScreen     byte
	overlayRemainMs   int
	overlaySavedFocus byte

	renderRequested  bool
	standbyRequested bool
	standby          bool
}

// New builds a fully wired State over a fresh Arena, panel, and bus.
func New(opts Opts, panel display.Panel, bus serialbus.Bus) *State {
	a := arena.New(opts.ArenaCapacity)
	p := descriptor.New(a)
	n := nav.New(p.Tree())
	in := nav.NewEngine(n, p.Tree(), a, p.Lists(), p.Barrels(), p.Triggers(), opts.DisplayHeight)
	rd := render.New(p.Tree(), n, p.Lists(), p.Barrels(), p.Triggers())
	tr := transfer.New(panel, opts.DisplayHeight/8)

	s := &State{
		Arena:             a,
		Parser:            p,
		Tree:              p.Tree(),
		Nav:               n,
		Input:             in,
		Render:            rd,
		Transfer:          tr,
		Panel:             panel,
		Bus:               bus,
		overlayScreen:     model.Sentinel,
		overlaySavedFocus: model.Sentinel,
	}
	bus.SetRXHandler(s.rx.PushByte)
	return s
}

// String reports a compact summary, matching the teacher's Stringer
// convention on every stateful device type.
func (s *State) String() string {
	return s.Arena.String()
}

// Tick runs one iteration of the fixed-order main loop, spec.md §5.
func (s *State) Tick() {
	s.Transfer.Advance()
	s.serviceDeferredOps()
	s.advanceAnimations()
	s.pollButtons()
	s.serviceStandby()
	s.serviceRenderRequest()
}

func (s *State) advanceAnimations() {
	s.Input.AdvanceSlide()
	s.Input.AdvanceListScrolls()
	s.Render.AdvanceBlink()
	s.advanceOverlay()
}

func (s *State) advanceOverlay() {
	if !s.overlayActive {
		return
	}
	s.overlayRemainMs--
	if s.overlayRemainMs > 0 {
		return
	}
	s.clearOverlay()
}

func (s *State) clearOverlay() {
	s.overlayActive = false
	s.Input.OverlayVisible = false
	s.Input.OverlayMaskInput = false
	s.Render.OverlayScreen = model.Sentinel
	s.Nav.Focus = s.overlaySavedFocus
	s.requestRender()
}

func (s *State) pollButtons() {
	if s.PollButtons == nil || s.standby {
		return
	}
	for _, ev := range s.PollButtons() {
		s.Input.HandleButton(ev.Index, ev.Event)
		s.requestRender()
	}
}

func (s *State) serviceStandby() {
	if !s.standbyRequested || s.standby {
		return
	}
	if s.Bus.TxBusy() || s.txq.Full() {
		return // let TX drain before halting
	}
	s.standbyRequested = false
	s.standby = true
	_ = s.Panel.Halt()
}

// WakeFromStandby clears the low-power wait, called from a wake-line edge
// handler per spec.md §5.
func (s *State) WakeFromStandby() { s.standby = false }

// Standby reports whether the slave is currently halted.
func (s *State) Standby() bool { return s.standby }

func (s *State) requestRender() { s.renderRequested = true }

func (s *State) serviceRenderRequest() {
	if !s.renderRequested || s.standby {
		return
	}
	s.renderRequested = false
	s.Transfer.StartOrRequest(s.Render.RenderPage)
}

// serviceDeferredOps drains one completed RX frame (if any) and the TX
// queue, spec.md §5's "service deferred RX/TX" step.
func (s *State) serviceDeferredOps() {
	if frame, ok := s.rx.TakeFrame(); ok {
		s.handleFrame(frame)
	}
	if !s.Bus.TxBusy() {
		if frame, ok := s.txq.Take(); ok {
			s.Bus.TxBurst(frame)
		}
	}
}

func (s *State) handleFrame(encoded []byte) {
	payload := transport.DecodeCOBS(encoded)
	if len(payload) == 0 {
		return
	}
	cmd := payload[0]
	body := payload[1:]

	resp, noResponse := s.dispatch(cmd, body)
	if noResponse {
		return
	}
	s.sendResponse(resp)
}

func (s *State) sendResponse(payload []byte) {
	frame := transport.EncodeFrame(payload)
	if !s.Bus.TxBusy() {
		if err := s.Bus.TxBurst(frame); err == nil {
			return
		}
	}
	s.txq.Enqueue(frame)
}

// dispatch runs one decoded command, returning its response payload
// (already including the leading rc byte) and whether no response should
// be sent at all (goto_standby, or an unrecognized command, spec.md §7
// "a malformed frame produces no response").
func (s *State) dispatch(cmd byte, body []byte) (resp []byte, noResponse bool) {
	switch cmd {
	case cmdPing:
		return s.handlePing(body)
	case cmdJSON:
		return s.handleJSON(body)
	case cmdJSONAbort:
		return s.handleJSONAbort(body)
	case cmdSetActiveScreen:
		return s.handleSetActiveScreen(body)
	case cmdGetStatus:
		return s.handleGetStatus(body)
	case cmdScrollToScreen:
		return s.handleScrollToScreen(body)
	case cmdGetElementState:
		return s.handleGetElementState(body)
	case cmdShowOverlay:
		return s.handleShowOverlay(body)
	case cmdInputEvent:
		return s.handleInputEvent(body)
	case cmdGotoStandby:
		s.standbyRequested = true
		return nil, true
	default:
		return nil, true
	}
}

func rc(code protoerr.Code) []byte { return []byte{byte(code)} }

func (s *State) handlePing(body []byte) ([]byte, bool) {
	if len(body) != 0 {
		return rc(protoerr.BadLen), false
	}
	return []byte{byte(protoerr.OK), protocolVersion, caps & 0xFF, (caps >> 8) & 0xFF}, false
}

func (s *State) handleJSON(body []byte) ([]byte, bool) {
	if len(body) < 1 {
		return rc(protoerr.BadLen), false
	}
	flags, descriptorBytes := body[0], body[1:]

	if flags&headFlag != 0 {
		s.Arena.Reset()
		s.Parser.Reset()
		s.Nav.Reset()
		s.initialized = false
		s.overlayActive = false
		s.Render.OverlayScreen = model.Sentinel
		s.Input.OverlayVisible = false
	}

	objects := splitDescriptorObjects(descriptorBytes)
	code := protoerr.OK
	if len(objects) > 0 {
		res := s.Parser.ApplyBatch(objects)
		if res.Errs != nil {
			var c protoerr.Code
			if errors.As(res.Errs, &c) {
				code = c
			} else {
				code = protoerr.Internal
			}
		}
	}

	if flags&commitFlag != 0 {
		s.Arena.Commit()
		s.initialized = true
		s.requestRender()
	}
	return rc(code), false
}

// splitDescriptorObjects breaks a byte range into top-level brace-balanced
// `{...}` spans, so a single json command may carry one descriptor (the
// common case, spec.md S2) or several packed back to back.
func splitDescriptorObjects(buf []byte) [][]byte {
	var out [][]byte
	depth := 0
	start := -1
	for i, b := range buf {
		switch b {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					out = append(out, buf[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}

func (s *State) handleJSONAbort(body []byte) ([]byte, bool) {
	if len(body) != 0 {
		return rc(protoerr.BadLen), false
	}
	return rc(protoerr.OK), false
}

func (s *State) handleSetActiveScreen(body []byte) ([]byte, bool) {
	if len(body) != 1 {
		return rc(protoerr.BadLen), false
	}
	sord := body[0]
	if int(sord) >= s.Tree.ScreenCount() {
		return rc(protoerr.Range), false
	}
	s.Nav.ActiveOrdinal = int(sord)
	s.Nav.Slide = nav.SlideState{}
	s.Nav.FocusFirstOn()
	s.requestRender()
	return rc(protoerr.OK), false
}

func (s *State) handleGetStatus(body []byte) ([]byte, bool) {
	if len(body) != 0 {
		return rc(protoerr.BadLen), false
	}
	var flags byte
	if s.initialized {
		flags |= statusInitialized
	}
	dirtyID, wasDirty := s.Arena.TakeDirty()
	if wasDirty {
		flags |= statusDirty
	} else {
		dirtyID = arena.Sentinel
	}
	if s.overlayActive {
		flags |= statusOverlay
	}
	return []byte{
		byte(protoerr.OK),
		flags,
		byte(s.Tree.Count()),
		byte(s.Tree.ScreenCount()),
		byte(s.Nav.ActiveOrdinal),
		protocolVersion,
		dirtyID,
		0, 0, 0,
	}, false
}

func (s *State) handleScrollToScreen(body []byte) ([]byte, bool) {
	var sord byte
	offsetPx := 0
	switch len(body) {
	case 1:
		sord = body[0]
	case 3:
		offsetPx = int(body[0]) | int(body[1])<<8
		sord = body[2]
	default:
		return rc(protoerr.BadLen), false
	}
	if int(sord) >= s.Tree.ScreenCount() {
		return rc(protoerr.Range), false
	}
	if int(sord) == s.Nav.ActiveOrdinal {
		return rc(protoerr.OK), false
	}
	dir := int8(1)
	if int(sord) < s.Nav.ActiveOrdinal {
		dir = -1
	}
	s.Nav.Slide = nav.SlideState{
		Active:   true,
		From:     s.Nav.ActiveOrdinal,
		To:       int(sord),
		Dir:      dir,
		OffsetPx: offsetPx,
	}
	s.Nav.ActiveOrdinal = int(sord)
	s.requestRender()
	return rc(protoerr.OK), false
}

func (s *State) handleGetElementState(body []byte) ([]byte, bool) {
	if len(body) != 1 {
		return rc(protoerr.BadLen), false
	}
	id := body[0]
	if !s.Tree.Valid(id) {
		return rc(protoerr.UnknownID), false
	}
	typ := s.Tree.Type(id)
	switch typ {
	case model.TypeText:
		text, _, ok := s.Arena.Text(id)
		if !ok {
			return rc(protoerr.Internal), false
		}
		if len(text) > 20 {
			text = text[:20]
		}
		resp := []byte{byte(protoerr.OK), byte(typ), byte(len(text))}
		return append(resp, text...), false
	case model.TypeBarrel:
		bs, ok := s.Parser.Barrels().Find(id)
		if !ok {
			return rc(protoerr.Internal), false
		}
		v := uint16(bs.Value)
		return []byte{byte(protoerr.OK), byte(typ), byte(v & 0xFF), byte(v >> 8)}, false
	case model.TypeTrigger:
		ts, ok := s.Parser.Triggers().Find(id)
		if !ok {
			return rc(protoerr.Internal), false
		}
		return []byte{byte(protoerr.OK), byte(typ), ts.Version}, false
	default:
		return []byte{byte(protoerr.OK), byte(typ), 0xFF}, false
	}
}

func (s *State) handleShowOverlay(body []byte) ([]byte, bool) {
	var sid byte
	dur := defaultOverlayDurationMs
	maskInput := false
	switch len(body) {
	case 1:
		sid = body[0]
	case 4:
		sid = body[0]
		dur = int(body[1]) | int(body[2])<<8
		maskInput = body[3]&maskInputFlag != 0
	default:
		return rc(protoerr.BadLen), false
	}
	if !s.Tree.Valid(sid) {
		return rc(protoerr.UnknownID), false
	}
	if s.Tree.Type(sid) != model.TypeScreen || !s.Tree.IsOverlay(sid) {
		return rc(protoerr.Range), false
	}
	if !s.overlayActive {
		s.overlaySavedFocus = s.Nav.Focus
	}
	s.overlayActive = true
	s.overlayScreen = sid
	s.overlayRemainMs = dur
	s.Input.OverlayVisible = true
	s.Input.OverlayMaskInput = maskInput
	s.Render.OverlayScreen = sid
	s.requestRender()
	return rc(protoerr.OK), false
}

func (s *State) handleInputEvent(body []byte) ([]byte, bool) {
	if len(body) != 2 {
		return rc(protoerr.BadLen), false
	}
	index, event := body[0], body[1]
	if index > nav.ButtonRight {
		return rc(protoerr.Range), false
	}
	s.Input.HandleButton(index, event)
	s.requestRender()
	return rc(protoerr.OK), false
}
