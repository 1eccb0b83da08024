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

// Package awaitable wraps the core engine with a context-aware notifier:
// Slice/consume-blocking calls select on the wakeup channel alongside the
// caller's context, so waiting can be cancelled (spec §4.D "Async", §6's
// Async facade row -- Go has no native async/await, so cancellation is
// expressed the idiomatic way, via context.Context, per the teacher
// repo's convention of threading a context through blocking calls).
package awaitable

import (
	"context"

	vmcircbuffer "pault.ag/go/vmcircbuffer"
)

// chanNotifier mirrors the blocking package's channelNotifier; duplicated
// rather than shared because the two packages' wait() differ in shape (one
// takes a context, the other doesn't) and the type is small enough that
// sharing it would cost more than it saves.
type chanNotifier struct {
	armed chan struct{}
	woken chan struct{}
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{
		armed: make(chan struct{}, 1),
		woken: make(chan struct{}, 1),
	}
}

func (n *chanNotifier) Arm() {
	select {
	case n.armed <- struct{}{}:
	default:
	}
}

func (n *chanNotifier) Notify() {
	select {
	case <-n.armed:
		select {
		case n.woken <- struct{}{}:
		default:
		}
	default:
	}
}

func (n *chanNotifier) wait(ctx context.Context) error {
	select {
	case <-n.woken:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ring is an awaitable facade over the core engine (spec §6).
type Ring[T any, Tag any] struct {
	engine     *vmcircbuffer.Engine[T, Tag]
	writerNotf *chanNotifier
}

// New allocates a ring holding at least minItems items of type T.
func New[T any, Tag any](minItems int, opts ...vmcircbuffer.Option) (*Ring[T, Tag], error) {
	e, err := vmcircbuffer.NewEngine[T, Tag](minItems, opts...)
	if err != nil {
		return nil, err
	}
	return &Ring[T, Tag]{engine: e, writerNotf: newChanNotifier()}, nil
}

// Capacity returns the number of items the ring holds.
func (r *Ring[T, Tag]) Capacity() int {
	return r.engine.Capacity()
}

// Close releases the underlying double mapping.
func (r *Ring[T, Tag]) Close() {
	r.engine.Close()
}

// Writer is the single producer handle.
type Writer[T any, Tag any] struct {
	engine    *vmcircbuffer.Engine[T, Tag]
	notifier  *chanNotifier
	lastSpace int
}

// NewWriter returns the writer handle for r.
func (r *Ring[T, Tag]) NewWriter() *Writer[T, Tag] {
	return &Writer[T, Tag]{engine: r.engine, notifier: r.writerNotf}
}

// TrySlice returns the writer's current window without waiting.
func (w *Writer[T, Tag]) TrySlice() []T {
	s := w.engine.WriterWindow(false)
	w.lastSpace = len(s)
	return s
}

// Slice awaits space, respecting ctx cancellation (spec §6 Async row:
// "slice().await").
func (w *Writer[T, Tag]) Slice(ctx context.Context) ([]T, error) {
	for {
		s := w.engine.WriterWindow(true)
		if len(s) > 0 {
			w.lastSpace = len(s)
			return s, nil
		}
		if err := w.notifier.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Produce reports that n items were written into the most recently returned
// window.
func (w *Writer[T, Tag]) Produce(n int) {
	w.engine.Produce(n, nil)
}

// ProduceTagged is Produce, additionally attributing tags to every attached
// reader's metadata sidecar (spec §4.E).
func (w *Writer[T, Tag]) ProduceTagged(n int, tags []Tag) {
	w.engine.Produce(n, tags)
}

// Close marks the stream finished; awaiting readers observe end-of-stream.
func (w *Writer[T, Tag]) Close() {
	w.engine.DropWriter()
}

// Reader is one of potentially many independent consumer handles.
type Reader[T any, Tag any] struct {
	engine    *vmcircbuffer.Engine[T, Tag]
	id        int
	notifier  *chanNotifier
	lastSpace int
}

// NewReader attaches a fresh reader whose cursor starts at the ring's
// current writer position.
func (r *Ring[T, Tag]) NewReader() *Reader[T, Tag] {
	readerN := newChanNotifier()
	id := r.engine.AttachReader(readerN, r.writerNotf, nil)
	return &Reader[T, Tag]{engine: r.engine, id: id, notifier: readerN}
}

// NewReaderWithMetadata is NewReader, additionally attaching a metadata
// sidecar co-advanced with consumption (spec §4.E).
func (r *Ring[T, Tag]) NewReaderWithMetadata(metadata vmcircbuffer.Metadata[Tag]) *Reader[T, Tag] {
	readerN := newChanNotifier()
	id := r.engine.AttachReader(readerN, r.writerNotf, metadata)
	return &Reader[T, Tag]{engine: r.engine, id: id, notifier: readerN}
}

// TrySlice returns the reader's current window without waiting. ok is false
// only once the writer has dropped and the backlog is exhausted.
func (rd *Reader[T, Tag]) TrySlice() (window []T, tags []Tag, ok bool) {
	window, tags, ok = rd.engine.ReaderWindow(rd.id, false)
	if ok {
		rd.lastSpace = len(window)
	}
	return window, tags, ok
}

// Slice awaits data or end-of-stream, respecting ctx cancellation (spec §6
// Async row: "slice().await -> Option<...>").
func (rd *Reader[T, Tag]) Slice(ctx context.Context) (window []T, tags []Tag, ok bool, err error) {
	for {
		window, tags, ok = rd.engine.ReaderWindow(rd.id, true)
		if !ok {
			return nil, nil, false, nil
		}
		if len(window) > 0 {
			rd.lastSpace = len(window)
			return window, tags, true, nil
		}
		if waitErr := rd.notifier.wait(ctx); waitErr != nil {
			return nil, nil, false, waitErr
		}
	}
}

// Consume reports that n items were read from the most recently returned
// window.
func (rd *Reader[T, Tag]) Consume(n int) {
	rd.engine.Consume(rd.id, n, rd.lastSpace)
}

// Close detaches the reader, waking an awaiting writer that may have been
// blocked on its backlog.
func (rd *Reader[T, Tag]) Close() {
	rd.engine.DropReader(rd.id)
}

// vim: foldmethod=marker
