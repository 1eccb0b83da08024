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

package nonblocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonblockingRoundTrip(t *testing.T) {
	ring, err := New[uint32, struct{}](64)
	require.NoError(t, err)
	defer ring.Close()

	w := ring.NewWriter()
	rd := ring.NewReader()

	empty, _, ok := rd.TrySlice()
	require.True(t, ok)
	assert.Equal(t, 0, len(empty))

	window := w.TrySlice()
	require.Equal(t, ring.Capacity(), len(window))
	for i := range window[:10] {
		window[i] = uint32(i)
	}
	w.Produce(10)

	got, _, ok := rd.TrySlice()
	require.True(t, ok)
	require.Equal(t, 10, len(got))
	for i, v := range got {
		assert.Equal(t, uint32(i), v)
	}
	rd.Consume(len(got))

	w.Close()
	_, _, ok = rd.TrySlice()
	assert.False(t, ok)
}

// vim: foldmethod=marker
