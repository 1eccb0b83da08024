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

func TestNoopMetadataIsAllNoop(t *testing.T) {
	var m NoopMetadata[string]
	m.Add(0, []string{"a", "b"})
	m.Consume(5)
	assert.Nil(t, m.Get())
}

// TestSliceMetadataTracksBacklogOffset mirrors the shape of
// original_source/examples/tags.rs: a tag added at the writer's current
// backlog offset stays attached to the right item as the reader consumes
// past earlier items, and falls off once consumed past.
func TestSliceMetadataTracksBacklogOffset(t *testing.T) {
	m := NewSliceMetadata[string]()

	m.Add(0, []string{"start"})
	assert.Equal(t, []string{"start"}, m.Get())

	m.Add(10, []string{"mid"})
	assert.Equal(t, []string{"start", "mid"}, m.Get())

	m.Consume(5)
	assert.Equal(t, []string{"mid"}, m.Get())

	m.Consume(5)
	assert.Equal(t, []string{"mid"}, m.Get())

	m.Consume(1)
	assert.Equal(t, []string{}, m.Get())
}

// TestEngineProduceAttributesMetadataAtBacklog exercises the engine's own
// wiring of Metadata.Add against each reader's pre-advance backlog (spec
// §4.E).
func TestEngineProduceAttributesMetadataAtBacklog(t *testing.T) {
	e, err := NewEngine[uint32, string](64)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	md := NewSliceMetadata[string]()
	readerN, writerN := &countingNotifier{}, &countingNotifier{}
	id := e.AttachReader(readerN, writerN, md)

	w := e.WriterWindow(false)
	for i := range w[:10] {
		w[i] = uint32(i)
	}
	e.Produce(10, []string{"batch-1"})

	w2 := e.WriterWindow(false)
	for i := range w2[:5] {
		w2[i] = uint32(100 + i)
	}
	e.Produce(5, []string{"batch-2"})

	window, tags, ok := e.ReaderWindow(id, false)
	require.True(t, ok)
	require.Equal(t, 15, len(window))
	assert.Equal(t, []string{"batch-1", "batch-2"}, tags)

	e.Consume(id, 10, 15)
	_, tags, ok = e.ReaderWindow(id, false)
	require.True(t, ok)
	assert.Equal(t, []string{"batch-2"}, tags)
}

// vim: foldmethod=marker
