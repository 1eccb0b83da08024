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

package awaitable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceRespectsContextCancellation(t *testing.T) {
	ring, err := New[byte, struct{}](64)
	require.NoError(t, err)
	defer ring.Close()

	rd := ring.NewReader()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, _, err = rd.Slice(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSliceWakesOnProduce(t *testing.T) {
	ring, err := New[byte, struct{}](64)
	require.NoError(t, err)
	defer ring.Close()

	w := ring.NewWriter()
	rd := ring.NewReader()

	done := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		window := w.TrySlice()
		for i := 0; i < 5; i++ {
			window[i] = byte(i)
		}
		w.Produce(5)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	window, _, ok, err := rd.Slice(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, len(window))

	<-done
}

// vim: foldmethod=marker
