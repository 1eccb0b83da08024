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

// Metadata is a per-reader tag stream, co-advanced with item consumption,
// independent of the item bytes themselves (spec §4.E). Tag is whatever the
// caller wants to attach to a position in the stream -- a stream annotation,
// a timestamp, a span id.
//
// The engine calls Add with the reader's backlog (in items, measured before
// the writer's cursor moves) as offset, so tags always land at the right
// reader-local position even though every reader consumes at its own pace.
// Consume then shifts every remaining tag's offset down by n and drops any
// tag whose offset fell below zero.
type Metadata[Tag any] interface {
	// Add attaches tags at the reader's current offset plus offsetInReader.
	Add(offsetInReader int, tags []Tag)
	// Consume drops tags with item-offset < n and shifts the rest down by n.
	Consume(n int)
	// Get snapshots the tags that fall within the reader's current window.
	Get() []Tag
}

// NoopMetadata is the "no metadata" unit implementation (Design Notes):
// every method is a no-op, and Get always returns nil. Engine uses this when
// a reader is attached with a nil Metadata.
type NoopMetadata[Tag any] struct{}

func (NoopMetadata[Tag]) Add(int, []Tag) {}
func (NoopMetadata[Tag]) Consume(int)    {}
func (NoopMetadata[Tag]) Get() []Tag     { return nil }

// SliceMetadata is a straightforward Metadata implementation backed by a
// slice of (offset, tag) pairs, the same shape as the original crate's
// example tag store (original_source/examples/tags.rs): Add appends, Consume
// retains and shifts, Get snapshots.
type SliceMetadata[Tag any] struct {
	offsets []int
	tags    []Tag
}

// NewSliceMetadata returns an empty SliceMetadata, ready to attach to a
// reader via Ring.NewReaderWithMetadata.
func NewSliceMetadata[Tag any]() *SliceMetadata[Tag] {
	return &SliceMetadata[Tag]{}
}

func (m *SliceMetadata[Tag]) Add(offsetInReader int, tags []Tag) {
	for _, t := range tags {
		m.offsets = append(m.offsets, offsetInReader)
		m.tags = append(m.tags, t)
	}
}

func (m *SliceMetadata[Tag]) Consume(n int) {
	keepOffsets := m.offsets[:0]
	keepTags := m.tags[:0]
	for i, off := range m.offsets {
		if off >= n {
			keepOffsets = append(keepOffsets, off-n)
			keepTags = append(keepTags, m.tags[i])
		}
	}
	m.offsets = keepOffsets
	m.tags = keepTags
}

func (m *SliceMetadata[Tag]) Get() []Tag {
	out := make([]Tag, len(m.tags))
	copy(out, m.tags)
	return out
}

// vim: foldmethod=marker
