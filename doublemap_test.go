// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package vmcircbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDoubleMappedBufferAlias is the S1 scenario: every write through the
// first mapping must be visible through the second at the same offset.
func TestDoubleMappedBufferAlias(t *testing.T) {
	buf, err := NewDoubleMappedBuffer[byte](123)
	require.NoError(t, err)
	defer buf.Close()

	capacity := buf.Capacity()
	require.GreaterOrEqual(t, capacity, 123)

	lower := buf.Window(0)
	for i := 0; i < capacity; i++ {
		lower[i] = byte(i % 128)
	}

	upper := buf.Window(capacity)
	for i := 0; i < capacity; i++ {
		assert.Equal(t, byte(i%128), upper[i])
	}

	lower[0] = 123
	assert.Equal(t, byte(123), upper[0])
}

// TestDoubleMappedBufferCapacityInvariants covers invariant 1: capacity in
// bytes is a multiple of the page granularity, capacity >= min_items, and
// capacity is at least 1 even for min_items = 0.
func TestDoubleMappedBufferCapacityInvariants(t *testing.T) {
	for _, minItems := range []int{0, 1, 17, 4096} {
		buf, err := NewDoubleMappedBuffer[uint32](minItems)
		require.NoError(t, err)

		capacity := buf.Capacity()
		assert.GreaterOrEqual(t, capacity, minItems)
		assert.GreaterOrEqual(t, capacity, 1)

		sizeBytes := uintptr(capacity) * buf.itemSize
		assert.Equal(t, uintptr(0), sizeBytes%uintptr(PageSize()))

		buf.Close()
	}
}

// TestDoubleMappedBufferWindowOutOfRangePanics checks the documented bound
// on Window's offset argument.
func TestDoubleMappedBufferWindowOutOfRangePanics(t *testing.T) {
	buf, err := NewDoubleMappedBuffer[uint32](8)
	require.NoError(t, err)
	defer buf.Close()

	assert.Panics(t, func() {
		buf.Window(buf.Capacity() + 1)
	})
	assert.Panics(t, func() {
		buf.Window(-1)
	})
}

// vim: foldmethod=marker
