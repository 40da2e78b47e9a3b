// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package protoerr defines the compact result-code taxonomy shared by every
// in-scope subsystem (arena, descriptor parser, navigation, transport). Every
// operation returns one of these codes instead of an ad hoc error value so
// that the transport layer can map it 1:1 onto a wire response byte without a
// translation table.
package protoerr

// Code is a result code. It implements error so callers can return it
// directly; the zero value is OK.
type Code byte

// Wire result codes, see spec §6.
const (
	OK        Code = 0x00
	BadLen    Code = 0x01
	BadState  Code = 0x02
	UnknownID Code = 0x03
	Range     Code = 0x04
	Internal  Code = 0x05
	ParseFail Code = 0x0B
	NoSpace   Code = 0x0C
	StreamErr Code = 0x0D
)

var names = map[Code]string{
	OK:        "ok",
	BadLen:    "bad length",
	BadState:  "bad state",
	UnknownID: "unknown id",
	Range:     "range",
	Internal:  "internal",
	ParseFail: "parse fail",
	NoSpace:   "no space",
	StreamErr: "stream error",
}

func (c Code) Error() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "unknown result code"
}

// Ok reports whether c is the success code.
func (c Code) Ok() bool {
	return c == OK
}

// FromError unwraps a protoerr.Code from err, defaulting to Internal for any
// other non-nil error and OK for nil.
func FromError(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if As(err, &c) {
		return c
	}
	return Internal
}

// As is a narrow stand-in for errors.As restricted to Code. It recognises
// only a bare Code and does not walk wrapped error chains such as the one
// descriptor.ApplyBatch builds; use errors.As for those.
func As(err error, target *Code) bool {
	if c, ok := err.(Code); ok {
		*target = c
		return true
	}
	return false
}
