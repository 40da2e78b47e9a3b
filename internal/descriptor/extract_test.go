// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptor

import "testing"

func TestExtractIntVariants(t *testing.T) {
	for _, tc := range []struct {
		name string
		buf  string
		key  string
		want int
		ok   bool
	}{
		{name: "plain", buf: `{"n":5}`, key: "n", want: 5, ok: true},
		{name: "negative", buf: `{"v":-7}`, key: "v", want: -7, ok: true},
		{name: "quoted", buf: `{"p":"3"}`, key: "p", want: 3, ok: true},
		{name: "whitespace", buf: `{ "n" : 12 }`, key: "n", want: 12, ok: true},
		{name: "key order independent", buf: `{"x":1,"n":9,"y":2}`, key: "n", want: 9, ok: true},
		{name: "missing", buf: `{"n":5}`, key: "m", want: 0, ok: false},
		{name: "not a number", buf: `{"n":"abc"}`, key: "n", want: 0, ok: false},
	} {
		got, ok := extractInt([]byte(tc.buf), tc.key)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: extractInt(%q,%q) = (%d,%v), want (%d,%v)", tc.name, tc.buf, tc.key, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractStringVariants(t *testing.T) {
	for _, tc := range []struct {
		name string
		buf  string
		key  string
		want string
		ok   bool
	}{
		{name: "plain", buf: `{"tx":"Hi"}`, key: "tx", want: "Hi", ok: true},
		{name: "empty", buf: `{"tx":""}`, key: "tx", want: "", ok: true},
		{name: "among others", buf: `{"p":0,"tx":"Menu","x":1}`, key: "tx", want: "Menu", ok: true},
		{name: "missing", buf: `{"p":0}`, key: "tx", want: "", ok: false},
	} {
		got, ok := extractString([]byte(tc.buf), tc.key)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: extractString(%q,%q) = (%q,%v), want (%q,%v)", tc.name, tc.buf, tc.key, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHasBraces(t *testing.T) {
	if !hasBraces([]byte(`  {"n":1}  `)) {
		t.Errorf("well-formed object rejected")
	}
	if hasBraces([]byte(`"n":1`)) {
		t.Errorf("missing braces accepted")
	}
}
