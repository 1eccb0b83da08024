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

import "sync"

var (
	pageSizeOnce  sync.Once
	pageSizeCache int
)

// PageSize returns the OS virtual-memory allocation granularity: the system
// page size on POSIX, and the (coarser) allocation granularity on Windows,
// since the Windows mapping APIs require alignment to that rather than the
// protection page size. The probe runs once per process and is memoized.
//
// PageSize panics if the underlying OS probe fails; there is no sensible
// fallback; the process cannot map memory at all if this doesn't work.
func PageSize() int {
	pageSizeOnce.Do(func() {
		pageSizeCache = platformPageSize()
	})
	return pageSizeCache
}

// vim: foldmethod=marker
