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

import "errors"

// Construction-time error taxonomy (spec §7). Each sentinel identifies which
// step of the double-mapping dance failed; Alignment is the one step that
// isn't a syscall failure but a rejected result (the OS chose a base address
// that doesn't satisfy the item's required alignment).
var (
	// ErrCreate means the backing temp file could not be created.
	ErrCreate = errors.New("vmcircbuffer: failed to create temp file")
	// ErrUnlink means the backing temp file's directory entry could not be removed.
	ErrUnlink = errors.New("vmcircbuffer: failed to unlink temp file")
	// ErrTruncate means ftruncate (to 2S, and back down to S) failed.
	ErrTruncate = errors.New("vmcircbuffer: failed to truncate temp file")
	// ErrClose means closing the backing file descriptor failed.
	ErrClose = errors.New("vmcircbuffer: failed to close temp file")
	// ErrPlaceholder means the initial 2S placeholder mapping could not be made.
	ErrPlaceholder = errors.New("vmcircbuffer: failed to map placeholder region")
	// ErrMapFirst means the first (lower) half mapping failed or landed at the wrong address.
	ErrMapFirst = errors.New("vmcircbuffer: failed to map first half")
	// ErrMapSecond means the second (upper) half mapping failed or landed at the wrong address.
	ErrMapSecond = errors.New("vmcircbuffer: failed to map second half")
	// ErrUnmapSecond means freeing the upper half of the placeholder mapping failed.
	ErrUnmapSecond = errors.New("vmcircbuffer: failed to unmap second half of placeholder")
	// ErrAlignment means the OS-chosen base address didn't satisfy the item's required alignment.
	ErrAlignment = errors.New("vmcircbuffer: base address does not satisfy item alignment")
)

// vim: foldmethod=marker
