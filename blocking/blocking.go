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

// Package blocking wraps the core engine with a notifier backed by a
// one-slot channel, giving writer/reader handles whose slice() call blocks
// the calling goroutine until space is available (spec §4.D "Blocking",
// §6's Blocking facade row).
package blocking

import (
	vmcircbuffer "pault.ag/go/vmcircbuffer"
)

// channelNotifier implements vmcircbuffer.Notifier with a pair of
// capacity-one channels: Arm makes the notifier willing to receive exactly
// one wakeup, Notify fires that wakeup iff armed and is otherwise a no-op
// (spec §4.D), and wait blocks the owning goroutine for it.
//
// Per spec §9 ("each reader's writer-notifier is logically a weak
// back-reference toward the writer's wait channel"), a single writer has
// exactly one channelNotifier; every reader's writer-notifier slot is a
// reference to that same instance, not a distinct one.
type channelNotifier struct {
	armed chan struct{}
	woken chan struct{}
}

func newChannelNotifier() *channelNotifier {
	return &channelNotifier{
		armed: make(chan struct{}, 1),
		woken: make(chan struct{}, 1),
	}
}

// Arm marks the notifier ready to receive exactly one wakeup.
func (n *channelNotifier) Arm() {
	select {
	case n.armed <- struct{}{}:
	default:
	}
}

// Notify fires the wakeup iff the notifier is currently armed; otherwise
// it's a no-op, so a produce()/consume() that races ahead of any waiter
// never blocks on the engine's lock holder.
func (n *channelNotifier) Notify() {
	select {
	case <-n.armed:
		select {
		case n.woken <- struct{}{}:
		default:
		}
	default:
	}
}

// wait blocks until Notify fires after the most recent Arm.
func (n *channelNotifier) wait() {
	<-n.woken
}

// Ring is a blocking facade over the core engine, holding exactly one
// writer and any number of readers (spec §6).
type Ring[T any, Tag any] struct {
	engine     *vmcircbuffer.Engine[T, Tag]
	writerNotf *channelNotifier
}

// New allocates a ring holding at least minItems items of type T.
func New[T any, Tag any](minItems int, opts ...vmcircbuffer.Option) (*Ring[T, Tag], error) {
	e, err := vmcircbuffer.NewEngine[T, Tag](minItems, opts...)
	if err != nil {
		return nil, err
	}
	return &Ring[T, Tag]{engine: e, writerNotf: newChannelNotifier()}, nil
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
	notifier  *channelNotifier
	lastSpace int
}

// NewWriter returns the writer handle for r. A ring has at most one live
// writer; the caller is responsible for that discipline.
func (r *Ring[T, Tag]) NewWriter() *Writer[T, Tag] {
	return &Writer[T, Tag]{engine: r.engine, notifier: r.writerNotf}
}

// TrySlice returns the writer's current window without blocking; it is
// empty while any reader still has a full ring of unread items.
func (w *Writer[T, Tag]) TrySlice() []T {
	s := w.engine.WriterWindow(false)
	w.lastSpace = len(s)
	return s
}

// Slice blocks until at least one item of space is available, then returns
// the writer's window (spec §6 Blocking row: "slice() -> &mut[T] (blocks)").
func (w *Writer[T, Tag]) Slice() []T {
	for {
		s := w.engine.WriterWindow(true)
		if len(s) > 0 {
			w.lastSpace = len(s)
			return s
		}
		w.notifier.wait()
	}
}

// Produce reports that n items were written into the most recently returned
// window.
func (w *Writer[T, Tag]) Produce(n int) {
	w.engine.Produce(n, nil)
}

// ProduceTagged is Produce, additionally attributing tags to every attached
// reader's metadata sidecar at its current backlog offset (spec §4.E).
func (w *Writer[T, Tag]) ProduceTagged(n int, tags []Tag) {
	w.engine.Produce(n, tags)
}

// Close marks the stream finished; blocked readers observe end-of-stream.
func (w *Writer[T, Tag]) Close() {
	w.engine.DropWriter()
}

// Reader is one of potentially many independent consumer handles.
type Reader[T any, Tag any] struct {
	engine    *vmcircbuffer.Engine[T, Tag]
	id        int
	notifier  *channelNotifier
	lastSpace int
}

// NewReader attaches a fresh reader whose cursor starts at the ring's
// current writer position -- it observes only future data (spec §3
// late-reader policy).
func (r *Ring[T, Tag]) NewReader() *Reader[T, Tag] {
	readerN := newChannelNotifier()
	id := r.engine.AttachReader(readerN, r.writerNotf, nil)
	return &Reader[T, Tag]{engine: r.engine, id: id, notifier: readerN}
}

// NewReaderWithMetadata is NewReader, additionally attaching a metadata
// sidecar co-advanced with consumption (spec §4.E).
func (r *Ring[T, Tag]) NewReaderWithMetadata(metadata vmcircbuffer.Metadata[Tag]) *Reader[T, Tag] {
	readerN := newChannelNotifier()
	id := r.engine.AttachReader(readerN, r.writerNotf, metadata)
	return &Reader[T, Tag]{engine: r.engine, id: id, notifier: readerN}
}

// TrySlice returns the reader's current window without blocking. ok is
// false only once the writer has dropped and the backlog is exhausted.
func (rd *Reader[T, Tag]) TrySlice() (window []T, tags []Tag, ok bool) {
	window, tags, ok = rd.engine.ReaderWindow(rd.id, false)
	if ok {
		rd.lastSpace = len(window)
	}
	return window, tags, ok
}

// Slice blocks until data is available or the writer has dropped (spec §6
// Blocking row: "slice() -> Option<&[T]> (blocks)").
func (rd *Reader[T, Tag]) Slice() (window []T, tags []Tag, ok bool) {
	for {
		window, tags, ok = rd.engine.ReaderWindow(rd.id, true)
		if !ok {
			return nil, nil, false
		}
		if len(window) > 0 {
			rd.lastSpace = len(window)
			return window, tags, true
		}
		rd.notifier.wait()
	}
}

// Consume reports that n items were read from the most recently returned
// window.
func (rd *Reader[T, Tag]) Consume(n int) {
	rd.engine.Consume(rd.id, n, rd.lastSpace)
}

// Close detaches the reader, waking a writer that may have been blocked on
// its backlog.
func (rd *Reader[T, Tag]) Close() {
	rd.engine.DropReader(rd.id)
}

// vim: foldmethod=marker
