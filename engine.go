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
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// readerState holds one attached reader's cursor, its pair of notifiers, and
// its optional metadata sidecar (spec §3's ReaderState).
type readerState[Tag any] struct {
	off      int
	ab       bool
	readerN  Notifier // armed by the reader, fired by produce()
	writerN  Notifier // armed by the writer, fired by consume()/DropReader()
	metadata Metadata[Tag]
}

// Engine is the single-writer / multi-reader coordination core (spec §4.C).
// It is generic over the item type T and the per-reader tag type Tag; the
// notifier capability (spec §4.D) is expressed as the Notifier interface
// rather than a third type parameter, since every facade's notifier is
// stored behind that interface anyway. A single Engine implementation
// serves the plain and metadata-carrying variants alike, per spec §9
// ("Metadata variant"): pass nil to AttachReader when tags aren't wanted,
// and it substitutes NoopMetadata[Tag].
type Engine[T any, Tag any] struct {
	mu  sync.Mutex
	buf *DoubleMappedBuffer[T]

	wOff        int
	wAB         bool
	writerDone  bool
	writerLastN int

	readers slab[readerState[Tag]]

	logger *zap.SugaredLogger
}

// NewEngine constructs the coordination engine over a freshly allocated
// DoubleMappedBuffer holding at least minItems items (spec §3 "Construct").
func NewEngine[T any, Tag any](minItems int, opts ...Option) (*Engine[T, Tag], error) {
	buf, err := NewDoubleMappedBuffer[T](minItems, opts...)
	if err != nil {
		return nil, err
	}
	o := defaultBufferOptions()
	for _, fn := range opts {
		fn(o)
	}
	return &Engine[T, Tag]{
		buf:    buf,
		logger: o.logger,
	}, nil
}

// Capacity returns the number of items the ring holds.
func (e *Engine[T, Tag]) Capacity() int {
	return e.buf.Capacity()
}

// readableSpanLocked implements the readable span formula of spec §3 for a
// single reader against the current writer cursor. Caller holds e.mu.
func readableSpanLocked(rOff int, rAB bool, wOff int, wAB bool, capacity int) int {
	switch {
	case rOff > wOff:
		return wOff + capacity - rOff
	case rOff < wOff:
		return wOff - rOff
	default:
		if rAB == wAB {
			return 0
		}
		return capacity
	}
}

// writableSpanLocked is readableSpanLocked's mirror image, viewed from the
// writer's perspective against one reader. Caller holds e.mu.
func writableSpanLocked(wOff int, wAB bool, rOff int, rAB bool, capacity int) int {
	switch {
	case wOff > rOff:
		return rOff + capacity - wOff
	case wOff < rOff:
		return rOff - wOff
	default:
		if rAB == wAB {
			return capacity
		}
		return 0
	}
}

// writableSpanAllLocked is the minimum writable span across all attached
// readers, or capacity if none are attached (spec §3). Caller holds e.mu.
func (e *Engine[T, Tag]) writableSpanAllLocked() int {
	capacity := e.buf.Capacity()
	if e.readers.len() == 0 {
		return capacity
	}
	min := -1
	e.readers.each(func(_ int, rs *readerState[Tag]) {
		k := writableSpanLocked(e.wOff, e.wAB, rs.off, rs.ab, capacity)
		if min == -1 || k < min {
			min = k
		}
	})
	return min
}

// firstStarvingReaderLocked returns the ID of the first reader whose space
// is zero -- spec §4.C: "arm the writer-notifier of the first reader whose
// per-reader space is 0 ... do not arm multiple notifiers". Caller holds
// e.mu.
func (e *Engine[T, Tag]) firstStarvingReaderLocked() (int, bool) {
	capacity := e.buf.Capacity()
	found := -1
	e.readers.each(func(id int, rs *readerState[Tag]) {
		if found != -1 {
			return
		}
		if writableSpanLocked(e.wOff, e.wAB, rs.off, rs.ab, capacity) == 0 {
			found = id
		}
	})
	if found == -1 {
		return 0, false
	}
	return found, true
}

// WriterWindow returns the writer's current window (spec §4.C
// writer_window). If the writable span is zero and armIfEmpty is set, the
// writer-notifier of the reader currently blocking progress is armed.
func (e *Engine[T, Tag]) WriterWindow(armIfEmpty bool) []T {
	e.mu.Lock()
	k := e.writableSpanAllLocked()
	if k == 0 && armIfEmpty {
		if id, ok := e.firstStarvingReaderLocked(); ok {
			if rs, ok := e.readers.get(id); ok {
				rs.writerN.Arm()
			}
		}
	}
	e.writerLastN = k
	wOff := e.wOff
	e.mu.Unlock()

	return e.buf.Window(wOff)[:k]
}

// Produce advances the writer cursor by n and fans out notification to every
// reader (spec §4.C produce(n)). tags, when non-nil, is attributed to each
// reader at that reader's current backlog offset before the cursor moves
// (spec §4.E).
func (e *Engine[T, Tag]) Produce(n int, tags []Tag) {
	if n == 0 {
		return
	}
	if n > e.writerLastN {
		panic(fmt.Sprintf("vmcircbuffer: produced too much: n=%d last_space=%d", n, e.writerLastN))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	capacity := e.buf.Capacity()
	e.readers.each(func(_ int, rs *readerState[Tag]) {
		backlog := readableSpanLocked(rs.off, rs.ab, e.wOff, e.wAB, capacity)
		rs.metadata.Add(backlog, tags)
	})

	if e.wOff+n >= capacity {
		e.wAB = !e.wAB
	}
	e.wOff = (e.wOff + n) % capacity

	e.readers.each(func(_ int, rs *readerState[Tag]) {
		rs.readerN.Notify()
	})
}

// DropWriter marks the stream as finished and wakes every reader so a
// blocked reader.slice() can observe end-of-stream (spec §4.C "drop
// writer").
func (e *Engine[T, Tag]) DropWriter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writerDone = true
	e.readers.each(func(_ int, rs *readerState[Tag]) {
		rs.readerN.Notify()
	})
}

// AttachReader inserts a fresh ReaderState whose cursor equals the current
// writer cursor (spec §3 "late-reader policy": a reader observes zero
// backlog at attach time) and returns its stable integer ID.
func (e *Engine[T, Tag]) AttachReader(readerNotifier, writerNotifier Notifier, metadata Metadata[Tag]) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if metadata == nil {
		metadata = NoopMetadata[Tag]{}
	}
	return e.readers.insert(readerState[Tag]{
		off:      e.wOff,
		ab:       e.wAB,
		readerN:  readerNotifier,
		writerN:  writerNotifier,
		metadata: metadata,
	})
}

// ReaderWindow returns the reader's current window, or ok=false once the
// writer has dropped and the backlog is exhausted (spec §4.C
// reader_window). If the readable span is zero and armIfEmpty is set, the
// reader's own reader-notifier is armed.
func (e *Engine[T, Tag]) ReaderWindow(id int, armIfEmpty bool) (window []T, tags []Tag, ok bool) {
	e.mu.Lock()

	rs, present := e.readers.get(id)
	if !present {
		e.mu.Unlock()
		panic(fmt.Sprintf("vmcircbuffer: unknown reader id %d", id))
	}

	capacity := e.buf.Capacity()
	k := readableSpanLocked(rs.off, rs.ab, e.wOff, e.wAB, capacity)

	if k == 0 && armIfEmpty {
		rs.readerN.Arm()
	}
	if k == 0 && e.writerDone {
		e.mu.Unlock()
		return nil, nil, false
	}

	tagSnapshot := rs.metadata.Get()

	rOff := rs.off
	e.mu.Unlock()

	return e.buf.Window(rOff)[:k], tagSnapshot, true
}

// ReadableSpan reports the current readable span for id without returning a
// window, consuming, or arming anything.
func (e *Engine[T, Tag]) ReadableSpan(id int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs, present := e.readers.get(id)
	if !present {
		panic(fmt.Sprintf("vmcircbuffer: unknown reader id %d", id))
	}
	return readableSpanLocked(rs.off, rs.ab, e.wOff, e.wAB, e.buf.Capacity())
}

// WriterDone reports whether the writer has dropped, for facades that want
// to distinguish "empty for now" from "empty forever" without blocking.
func (e *Engine[T, Tag]) WriterDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writerDone
}

// Consume advances reader id's cursor by n, notifies its writer-notifier,
// and advances its metadata sidecar (spec §4.C consume(n)).
func (e *Engine[T, Tag]) Consume(id int, n int, lastSpace int) {
	if n == 0 {
		return
	}
	if n > lastSpace {
		panic(fmt.Sprintf("vmcircbuffer: consumed too much: n=%d last_space=%d", n, lastSpace))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rs, present := e.readers.get(id)
	if !present {
		panic(fmt.Sprintf("vmcircbuffer: unknown reader id %d", id))
	}

	capacity := e.buf.Capacity()
	if rs.off+n >= capacity {
		rs.ab = !rs.ab
	}
	rs.off = (rs.off + n) % capacity
	rs.metadata.Consume(n)
	e.readers.set(id, rs)

	rs.writerN.Notify()
}

// DropReader removes reader id's entry and notifies its writer-notifier,
// since freeing a slow reader may have widened the writable span (spec
// §4.C "drop reader").
func (e *Engine[T, Tag]) DropReader(id int) {
	e.mu.Lock()
	rs, present := e.readers.remove(id)
	e.mu.Unlock()
	if present {
		rs.writerN.Notify()
	}
}

// Close releases the underlying double mapping. Callers must ensure no
// writer or reader handle is still in use.
func (e *Engine[T, Tag]) Close() {
	e.buf.Close()
}

// vim: foldmethod=marker
