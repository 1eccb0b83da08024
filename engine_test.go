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

// countingNotifier counts Arm/Notify calls without any blocking behavior,
// letting tests drive the engine directly without going through a facade.
type countingNotifier struct {
	arms     int
	notifies int
}

func (n *countingNotifier) Arm()    { n.arms++ }
func (n *countingNotifier) Notify() { n.notifies++ }

func newTestEngine(t *testing.T, minItems int) *Engine[uint32, struct{}] {
	t.Helper()
	e, err := NewEngine[uint32, struct{}](minItems)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func attachTestReader(e *Engine[uint32, struct{}]) (id int, readerN, writerN *countingNotifier) {
	readerN, writerN = &countingNotifier{}, &countingNotifier{}
	id = e.AttachReader(readerN, writerN, nil)
	return id, readerN, writerN
}

func TestEngineZeroReadersNeverBlocksWriter(t *testing.T) {
	e := newTestEngine(t, 64)
	window := e.WriterWindow(true)
	assert.Equal(t, e.Capacity(), len(window))
	e.Produce(len(window), nil)
}

func TestEngineLateReaderSeesZeroBacklog(t *testing.T) {
	e := newTestEngine(t, 200)
	require.GreaterOrEqual(t, e.Capacity(), 200)

	w := e.WriterWindow(false)
	for i := range w[:200] {
		w[i] = uint32(i)
	}
	e.Produce(100, nil)

	id, _, _ := attachTestReader(e)
	window, _, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	assert.Equal(t, 0, len(window))

	e.Produce(100, nil)

	window, _, ok = e.ReaderWindow(id, false)
	require.True(t, ok)
	require.Equal(t, 100, len(window))
	for i, v := range window {
		assert.Equal(t, uint32(100+i), v)
	}
}

// TestEngineMultiReaderGating mirrors original_source/tests/circular.rs's
// several_readers scenario (spec §8 S3): a slow reader's own window shrinks
// as it consumes, while a reader that hasn't consumed anything still sees
// the full buffer, and the writer stays gated to zero until the slowest
// reader makes room (spec §4.C "Multiple readers: writer throughput is
// gated by the slowest reader").
func TestEngineMultiReaderGating(t *testing.T) {
	e := newTestEngine(t, 64)
	capacity := e.Capacity()

	id1, _, _ := attachTestReader(e)
	id2, _, _ := attachTestReader(e)

	w := e.WriterWindow(false)
	require.Equal(t, capacity, len(w))
	for i := range w {
		w[i] = uint32(i)
	}
	e.Produce(capacity, nil)

	r1, _, ok := e.ReaderWindow(id1, false)
	require.True(t, ok)
	assert.Equal(t, capacity, len(r1))

	r2, _, ok := e.ReaderWindow(id2, false)
	require.True(t, ok)
	assert.Equal(t, capacity, len(r2))

	// R2 hasn't consumed anything, so the writer stays fully gated even
	// though R1 is about to free space.
	assert.Equal(t, 0, len(e.WriterWindow(false)))

	e.Consume(id1, 100, len(r1))

	r1again, _, ok := e.ReaderWindow(id1, false)
	require.True(t, ok)
	require.Equal(t, capacity-100, len(r1again))
	for i, v := range r1again {
		assert.Equal(t, uint32(100+i), v)
	}

	r2again, _, ok := e.ReaderWindow(id2, false)
	require.True(t, ok)
	assert.Equal(t, capacity, len(r2again))

	// Still gated -- R2 hasn't moved.
	assert.Equal(t, 0, len(e.WriterWindow(false)))

	e.Consume(id2, 100, len(r2again))
	assert.Equal(t, 100, len(e.WriterWindow(false)))
}

func TestEngineDropWriterEOS(t *testing.T) {
	e := newTestEngine(t, 64)
	id, _, _ := attachTestReader(e)

	w := e.WriterWindow(false)
	for i := 0; i < 17; i++ {
		w[i] = uint32(i)
	}
	e.Produce(17, nil)
	e.DropWriter()

	window, _, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	require.Equal(t, 17, len(window))
	e.Consume(id, 17, len(window))

	_, _, ok = e.ReaderWindow(id, false)
	assert.False(t, ok)
}

func TestEngineZeroItemProduceConsumeIsNoop(t *testing.T) {
	e := newTestEngine(t, 64)
	id, readerN, writerN := attachTestReader(e)

	e.WriterWindow(false)
	e.Produce(0, nil)
	assert.Equal(t, 0, readerN.notifies)

	window, _, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	e.Consume(id, 0, len(window))
	assert.Equal(t, 0, writerN.notifies)
}

func TestEngineProduceTooMuchPanics(t *testing.T) {
	e := newTestEngine(t, 64)
	w := e.WriterWindow(false)
	assert.Panics(t, func() {
		e.Produce(len(w)+1, nil)
	})
}

func TestEngineConsumeTooMuchPanics(t *testing.T) {
	e := newTestEngine(t, 64)
	id, _, _ := attachTestReader(e)
	e.WriterWindow(false)
	e.Produce(10, nil)
	window, _, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	assert.Panics(t, func() {
		e.Consume(id, len(window)+1, len(window))
	})
}

func TestEngineWrapAroundStaysContiguous(t *testing.T) {
	e := newTestEngine(t, 16)
	capacity := e.Capacity()

	e.WriterWindow(false)
	e.Produce(capacity-1, nil)

	id, _, _ := attachTestReader(e)
	window, _, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	e.Consume(id, len(window), len(window))

	w2 := e.WriterWindow(false)
	require.Equal(t, capacity, len(w2))
	for i := range w2 {
		w2[i] = uint32(1000 + i)
	}
	e.Produce(2, nil) // wraps past zero

	window2, _, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	require.Equal(t, 2, len(window2))
	assert.Equal(t, uint32(1000), window2[0])
	assert.Equal(t, uint32(1001), window2[1])
}

func TestEngineDropReaderWakesWriter(t *testing.T) {
	e := newTestEngine(t, 8)
	capacity := e.Capacity()
	id, _, writerN := attachTestReader(e)

	w := e.WriterWindow(false)
	require.Equal(t, capacity, len(w))
	e.Produce(capacity, nil)

	full := e.WriterWindow(true)
	assert.Equal(t, 0, len(full))

	e.DropReader(id)
	assert.GreaterOrEqual(t, writerN.notifies, 1)

	reopened := e.WriterWindow(false)
	assert.Equal(t, capacity, len(reopened))
}

// vim: foldmethod=marker
