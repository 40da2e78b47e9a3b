// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transport implements the wire framing of spec.md §4.J/§6:
// [0xA5][0x5A][LEN][COBS(payload)], the RX byte-by-byte state machine, and
// the one-deep TX queue. No third-party COBS implementation appears
// anywhere in the retrieved example pack (see DESIGN.md); this codec is
// the one piece of the wire protocol built directly against the
// Consistent-Overhead Byte-Stuffing algorithm rather than an imported
// library.
package transport

// Sync bytes and frame limits, spec.md §6.
const (
	Sync0      byte = 0xA5
	Sync1      byte = 0x5A
	MaxPayload      = 112
)

// EncodeCOBS replaces every 0x00 in src with a distance-to-next-zero code
// byte, so the encoded form contains no zero bytes. No terminating zero is
// appended; this system relies on the LEN-prefixed frame instead.
func EncodeCOBS(src []byte) []byte {
	dst := make([]byte, 0, len(src)+len(src)/254+1)
	codeIdx := 0
	dst = append(dst, 0) // placeholder for the first code byte
	code := byte(1)
	for _, b := range src {
		if b == 0 {
			dst[codeIdx] = code
			codeIdx = len(dst)
			dst = append(dst, 0)
			code = 1
			continue
		}
		dst = append(dst, b)
		code++
		if code == 0xFF {
			dst[codeIdx] = code
			codeIdx = len(dst)
			dst = append(dst, 0)
			code = 1
		}
	}
	dst[codeIdx] = code
	return dst
}

// DecodeCOBS reverses EncodeCOBS. It returns nil if enc is structurally
// invalid (a code byte points past the end of the buffer).
func DecodeCOBS(enc []byte) []byte {
	if len(enc) == 0 {
		return []byte{}
	}
	dst := make([]byte, 0, len(enc))
	i := 0
	for i < len(enc) {
		code := int(enc[i])
		if code == 0 || i+code > len(enc)+1 {
			return nil
		}
		i++
		end := i + code - 1
		if end > len(enc) {
			return nil
		}
		dst = append(dst, enc[i:end]...)
		i = end
		if code != 0xFF && i < len(enc) {
			dst = append(dst, 0)
		}
	}
	return dst
}
