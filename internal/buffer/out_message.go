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
	"fmt"
	"unsafe"

	"github.com/go-easyfuse/easyfuse/internal/fusekernel"
)

// MaxReadSize bounds the payload an OutMessage can carry beyond its
// header: large enough for a full readdir/readdirplus buffer or file read.
const MaxReadSize = 128 * 1024

// OutMessageHeaderSize is the size of the leading header in every
// properly-constructed OutMessage. Reset brings the message back to this
// size.
const OutMessageHeaderSize = int(unsafe.Sizeof(fusekernel.OutHeader{}))

// OutMessage provides a mechanism for constructing a single contiguous
// fuse message from multiple segments, where the first segment is always
// a fusekernel.OutHeader message.
//
// Must be initialized with Reset.
type OutMessage struct {
	// The offset into payload to which we're currently writing.
	payloadOffset int

	header  [OutMessageHeaderSize]byte
	payload [MaxReadSize]byte
}

// Reset resets m so that it's ready to be used again. Afterward, the
// contents are solely a zeroed fusekernel.OutHeader struct.
func (m *OutMessage) Reset() {
	m.payloadOffset = 0
	for i := range m.header {
		m.header[i] = 0
	}
}

// OutHeader returns a pointer to the header at the start of the message.
func (m *OutMessage) OutHeader() *fusekernel.OutHeader {
	return (*fusekernel.OutHeader)(unsafe.Pointer(&m.header[0]))
}

// Grow grows m's buffer by the given number of bytes, returning a pointer
// to the start of the new segment, which is guaranteed to be zeroed. If
// there is insufficient space, it returns nil.
func (m *OutMessage) Grow(n int) unsafe.Pointer {
	p := m.GrowNoZero(n)
	if p == nil {
		return nil
	}
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
	return p
}

// GrowNoZero is equivalent to Grow, except the new segment is not zeroed.
// Use with caution!
func (m *OutMessage) GrowNoZero(n int) unsafe.Pointer {
	if m.payloadOffset+n > len(m.payload) {
		return nil
	}
	p := unsafe.Pointer(&m.payload[m.payloadOffset])
	m.payloadOffset += n
	return p
}

// ShrinkTo shrinks m to the given size. It panics if the size is greater
// than Len() or less than OutMessageHeaderSize.
func (m *OutMessage) ShrinkTo(n int) {
	if n < OutMessageHeaderSize || n > m.Len() {
		panic(fmt.Sprintf("ShrinkTo(%d) out of range for Len() == %d", n, m.Len()))
	}
	m.payloadOffset = n - OutMessageHeaderSize
}

// Append is equivalent to growing by len(src), then copying src over the
// new segment. It panics if there is not enough room available.
func (m *OutMessage) Append(src []byte) {
	p := m.GrowNoZero(len(src))
	if p == nil {
		panic(fmt.Sprintf("Can't grow %d bytes", len(src)))
	}
	copy(unsafe.Slice((*byte)(p), len(src)), src)
}

// AppendString is like Append, but accepts string input.
func (m *OutMessage) AppendString(src string) {
	m.Append([]byte(src))
}

// Len returns the current size of the message, including the leading
// header.
func (m *OutMessage) Len() int {
	return OutMessageHeaderSize + m.payloadOffset
}

// Bytes returns a reference to the current contents of the buffer,
// including the leading header.
func (m *OutMessage) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.header[0])), m.Len())
}
