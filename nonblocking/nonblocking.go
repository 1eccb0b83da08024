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

// Package nonblocking wraps the core engine with a notifier whose Arm and
// Notify are both no-ops, for callers that poll try_slice-style methods
// instead of waiting (spec §4.D "Null", §6's Non-blocking facade row).
package nonblocking

import (
	vmcircbuffer "pault.ag/go/vmcircbuffer"
)

// nullNotifier satisfies vmcircbuffer.Notifier by doing nothing; the engine
// never suspends on it because this facade never waits.
type nullNotifier struct{}

func (nullNotifier) Arm()    {}
func (nullNotifier) Notify() {}

// Ring is a non-blocking facade over the core engine: both writer and
// reader handles only expose try_slice-shaped methods, returning an empty
// slice (or Some(empty) on the reader side) rather than waiting (spec §6).
type Ring[T any, Tag any] struct {
	engine *vmcircbuffer.Engine[T, Tag]
}

// New allocates a ring holding at least minItems items of type T.
func New[T any, Tag any](minItems int, opts ...vmcircbuffer.Option) (*Ring[T, Tag], error) {
	e, err := vmcircbuffer.NewEngine[T, Tag](minItems, opts...)
	if err != nil {
		return nil, err
	}
	return &Ring[T, Tag]{engine: e}, nil
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
	lastSpace int
}

// NewWriter returns the writer handle for r.
func (r *Ring[T, Tag]) NewWriter() *Writer[T, Tag] {
	return &Writer[T, Tag]{engine: r.engine}
}

// TrySlice returns the writer's current window, possibly empty, without
// ever blocking.
func (w *Writer[T, Tag]) TrySlice() []T {
	s := w.engine.WriterWindow(false)
	w.lastSpace = len(s)
	return s
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

// Close marks the stream finished.
func (w *Writer[T, Tag]) Close() {
	w.engine.DropWriter()
}

// Reader is one of potentially many independent consumer handles.
type Reader[T any, Tag any] struct {
	engine    *vmcircbuffer.Engine[T, Tag]
	id        int
	lastSpace int
}

// NewReader attaches a fresh reader whose cursor starts at the ring's
// current writer position.
func (r *Ring[T, Tag]) NewReader() *Reader[T, Tag] {
	id := r.engine.AttachReader(nullNotifier{}, nullNotifier{}, nil)
	return &Reader[T, Tag]{engine: r.engine, id: id}
}

// NewReaderWithMetadata is NewReader, additionally attaching a metadata
// sidecar co-advanced with consumption (spec §4.E).
func (r *Ring[T, Tag]) NewReaderWithMetadata(metadata vmcircbuffer.Metadata[Tag]) *Reader[T, Tag] {
	id := r.engine.AttachReader(nullNotifier{}, nullNotifier{}, metadata)
	return &Reader[T, Tag]{engine: r.engine, id: id}
}

// TrySlice returns the reader's current window, possibly empty, without
// ever blocking. ok is false only once the writer has dropped and the
// backlog is exhausted.
func (rd *Reader[T, Tag]) TrySlice() (window []T, tags []Tag, ok bool) {
	window, tags, ok = rd.engine.ReaderWindow(rd.id, false)
	if ok {
		rd.lastSpace = len(window)
	}
	return window, tags, ok
}

// Consume reports that n items were read from the most recently returned
// window.
func (rd *Reader[T, Tag]) Consume(n int) {
	rd.engine.Consume(rd.id, n, rd.lastSpace)
}

// Close detaches the reader.
func (rd *Reader[T, Tag]) Close() {
	rd.engine.DropReader(rd.id)
}

// vim: foldmethod=marker
