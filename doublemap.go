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
	"os"
	"unsafe"

	"go.uber.org/zap"
)

// maxAllocAttempts bounds the POSIX/Windows allocation race (spec §4.B,
// §7): the strategy races with other allocators taking the address range
// between steps, so construction is attempted at most this many times
// before the last attempt's error is surfaced.
const maxAllocAttempts = 5

// Option configures a DoubleMappedBuffer at construction time.
type Option func(*bufferOptions)

type bufferOptions struct {
	tmpDir string
	logger *zap.SugaredLogger
}

func defaultBufferOptions() *bufferOptions {
	return &bufferOptions{
		tmpDir: os.TempDir(),
		logger: zap.NewNop().Sugar(),
	}
}

// WithTempDir overrides the directory used for the POSIX backing temp file.
// Defaults to os.TempDir(), which already honors $TMPDIR / %TEMP%; this
// exists for platforms with mount restrictions the environment can't
// express (spec §6's Android example).
func WithTempDir(dir string) Option {
	return func(o *bufferOptions) { o.tmpDir = dir }
}

// WithLogger attaches a logger used for allocation-retry and best-effort
// teardown diagnostics. Defaults to a no-op logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *bufferOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// platformMapping is the OS-specific result of installing a double mapping:
// two consecutive [base, base+size) and [base+size, base+2*size) ranges
// backed by the same physical memory. handle is unused on POSIX (zero).
type platformMapping struct {
	addr   uintptr
	size   uintptr // S, in bytes
	handle uintptr // Windows file-mapping handle
}

// DoubleMappedBuffer owns a shared backing region of capacity() items of
// type T, double-mapped so that window(o) for any o in [0, capacity()] is a
// contiguous slice -- including windows that straddle the wrap point (spec
// §3, §4.B).
//
// DoubleMappedBuffer is memory-unsafe in the abstract sense: nothing stops
// two callers from taking overlapping windows and racing on them. Engine is
// the intended, safety-enforcing caller.
type DoubleMappedBuffer[T any] struct {
	mapping  platformMapping
	itemSize uintptr
	capacity uintptr
	logger   *zap.SugaredLogger
}

// NewDoubleMappedBuffer allocates a double-mapped region that can hold at
// least minItems items of type T. minItems == 0 yields a capacity of one
// page granularity's worth of items.
func NewDoubleMappedBuffer[T any](minItems int, opts ...Option) (*DoubleMappedBuffer[T], error) {
	if minItems < 0 {
		minItems = 0
	}

	o := defaultBufferOptions()
	for _, fn := range opts {
		fn(o)
	}

	var zero T
	itemSize := unsafe.Sizeof(zero)
	itemAlign := unsafe.Alignof(zero)
	if itemSize == 0 {
		itemSize = 1
	}

	sizeBytes := requiredSizeBytes(minItems, itemSize)

	var (
		mapping platformMapping
		err     error
	)
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		mapping, err = newPlatformMappingAttempt(sizeBytes, itemAlign, o.tmpDir)
		if err == nil {
			break
		}
		o.logger.Debugw("vmcircbuffer: double-mapping attempt failed, retrying",
			"attempt", attempt, "error", err)
	}
	if err != nil {
		return nil, err
	}

	return &DoubleMappedBuffer[T]{
		mapping:  mapping,
		itemSize: itemSize,
		capacity: sizeBytes / itemSize,
		logger:   o.logger,
	}, nil
}

// requiredSizeBytes computes S: the smallest positive multiple of the page
// granularity that is both >= minItems*itemSize and a multiple of itemSize
// (spec §3).
func requiredSizeBytes(minItems int, itemSize uintptr) uintptr {
	page := uintptr(PageSize())
	want := uintptr(minItems) * itemSize
	size := page
	for size < want || size%itemSize != 0 {
		size += page
	}
	return size
}

// Capacity returns the number of items that fit in the logical ring.
func (b *DoubleMappedBuffer[T]) Capacity() int {
	return int(b.capacity)
}

// Window returns a slice of Capacity() items starting at virtual address
// base + offset*itemSize. Valid for any offset in [0, Capacity()]; at
// offset == Capacity() the slice is still backed by live memory because the
// second mapping aliases the first (spec §4.B).
func (b *DoubleMappedBuffer[T]) Window(offset int) []T {
	if offset < 0 || uintptr(offset) > b.capacity {
		panic(fmt.Sprintf("vmcircbuffer: window offset %d out of range [0, %d]", offset, b.capacity))
	}
	ptr := unsafe.Pointer(b.mapping.addr + uintptr(offset)*b.itemSize)
	return unsafe.Slice((*T)(ptr), b.capacity)
}

// Close releases the backing region. It is best-effort: per spec §7, a
// destruction error on this path is not reportable to the caller, so
// failures are aggregated and logged rather than returned.
func (b *DoubleMappedBuffer[T]) Close() {
	closeMapping(b.mapping, b.logger)
}

// vim: foldmethod=marker
