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
	"io"
	"unsafe"

	"github.com/go-easyfuse/easyfuse/internal/fusekernel"
)

// InMessage is an incoming message from the kernel, including the leading
// fusekernel.InHeader struct. It provides storage for messages and
// convenient access to their contents.
type InMessage struct {
	data   [MaxReadSize]byte
	length int
	offset int
}

// Init reads exactly one message from r, storing its contents for
// subsequent Header/Consume/ConsumeBytes calls. The first call to Consume
// after Init consumes the bytes directly after the fusekernel.InHeader.
func (m *InMessage) Init(r io.Reader) error {
	n, err := r.Read(m.data[:])
	if err != nil {
		return err
	}

	headerSize := int(unsafe.Sizeof(fusekernel.InHeader{}))
	if n < headerSize {
		return fmt.Errorf("buffer: message of %d bytes too short for header", n)
	}

	m.length = n
	m.offset = headerSize
	return nil
}

// Header returns a reference to the header read in the most recent call to
// Init.
func (m *InMessage) Header() *fusekernel.InHeader {
	return (*fusekernel.InHeader)(unsafe.Pointer(&m.data[0]))
}

// Consume consumes the next n bytes from the message, returning a nil
// pointer if there are fewer than n bytes remaining.
func (m *InMessage) Consume(n uintptr) unsafe.Pointer {
	if m.offset+int(n) > m.length {
		return nil
	}
	p := unsafe.Pointer(&m.data[m.offset])
	m.offset += int(n)
	return p
}

// ConsumeBytes is equivalent to Consume, except it returns a slice of
// bytes. The result is nil if Consume would fail.
func (m *InMessage) ConsumeBytes(n uintptr) []byte {
	p := m.Consume(n)
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), int(n))
}

// Remaining reports how many bytes are left to consume.
func (m *InMessage) Remaining() int {
	return m.length - m.offset
}
