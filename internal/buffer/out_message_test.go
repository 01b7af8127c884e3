// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package buffer

import (
	"bytes"
	"testing"
	"unsafe"
)

func TestOutMessageResetStartsAtHeaderSize(t *testing.T) {
	var m OutMessage
	m.Reset()

	if m.Len() != OutMessageHeaderSize {
		t.Fatalf("Len() = %d, want %d", m.Len(), OutMessageHeaderSize)
	}
}

func TestOutMessageGrowZeroesTheSegment(t *testing.T) {
	var m OutMessage
	m.Reset()

	// Dirty the payload first, then rewind with Reset (which does not
	// clear the payload) so Grow hands back those same dirty bytes and its
	// zeroing is actually exercised.
	garbage := m.GrowNoZero(16)
	b := unsafe.Slice((*byte)(garbage), 16)
	for i := range b {
		b[i] = 0xff
	}
	m.Reset()

	p := m.Grow(16)
	if p == nil {
		t.Fatal("Grow returned nil")
	}

	got := unsafe.Slice((*byte)(p), 16)
	for i, x := range got {
		if x != 0 {
			t.Fatalf("byte %d not zeroed: %v", i, x)
		}
	}
}

func TestOutMessageAppendRoundTrips(t *testing.T) {
	var m OutMessage
	m.Reset()

	m.Append([]byte("hello"))
	m.AppendString(" world")

	want := OutMessageHeaderSize + len("hello world")
	if m.Len() != want {
		t.Fatalf("Len() = %d, want %d", m.Len(), want)
	}

	got := m.Bytes()[OutMessageHeaderSize:]
	if !bytes.Equal(got, []byte("hello world")) {
		t.Fatalf("payload = %q, want %q", got, "hello world")
	}
}

func TestOutMessageGrowPastCapacityFails(t *testing.T) {
	var m OutMessage
	m.Reset()

	if p := m.Grow(MaxReadSize + 1); p != nil {
		t.Fatal("expected nil from over-capacity Grow")
	}
}

func TestOutMessageShrinkTo(t *testing.T) {
	var m OutMessage
	m.Reset()
	m.Append([]byte("0123456789"))

	m.ShrinkTo(OutMessageHeaderSize + 4)
	if got := m.Bytes()[OutMessageHeaderSize:]; !bytes.Equal(got, []byte("0123")) {
		t.Fatalf("after ShrinkTo, payload = %q", got)
	}
}
