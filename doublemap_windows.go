//go:build windows

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
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	multierror "github.com/hashicorp/go-multierror"
)

var segmentCounter atomic.Uint64

// newPlatformMappingAttempt implements the Windows double-mapping strategy
// (spec §4.B):
//
//  1. CreateFileMapping backed by the paging file, size S;
//  2. VirtualAlloc(NULL, 2S, MEM_RESERVE, PAGE_NOACCESS) to find a free,
//     2S-aligned hole;
//  3. VirtualFree the reservation -- inherently racy, another allocator may
//     grab the range before the next two calls, which surfaces as a failed
//     construction attempt for the outer retry to re-run;
//  4. MapViewOfFileEx for the lower half at that address;
//  5. verify alignment;
//  6. MapViewOfFileEx for the upper half.
func newPlatformMappingAttempt(size uintptr, itemAlign uintptr, tmpDir string) (platformMapping, error) {
	seg := segmentCounter.Add(1)
	name, err := windows.UTF16PtrFromString(fmt.Sprintf("vmcircbuffer-%d-%d", os.Getpid(), seg))
	if err != nil {
		return platformMapping{}, fmt.Errorf("%w: %v", ErrCreate, err)
	}

	handle, err := windows.CreateFileMapping(windows.InvalidHandle, nil,
		windows.PAGE_READWRITE, 0, uint32(size), name)
	if err != nil {
		return platformMapping{}, fmt.Errorf("%w: %v", ErrPlaceholder, err)
	}

	reserved, err := windows.VirtualAlloc(0, 2*size, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		windows.CloseHandle(handle)
		return platformMapping{}, fmt.Errorf("%w: %v", ErrMapFirst, err)
	}

	if err := windows.VirtualFree(reserved, 0, windows.MEM_RELEASE); err != nil {
		windows.CloseHandle(handle)
		return platformMapping{}, fmt.Errorf("%w: %v", ErrMapSecond, err)
	}

	first, err := mapViewOfFileEx(handle, fileMapWrite, 0, 0, size, reserved)
	if err != nil || first != reserved {
		windows.CloseHandle(handle)
		return platformMapping{}, fmt.Errorf("%w: got=%#x want=%#x err=%v", ErrMapFirst, first, reserved, err)
	}

	if first%itemAlign != 0 {
		windows.UnmapViewOfFile(first)
		windows.CloseHandle(handle)
		return platformMapping{}, fmt.Errorf("%w: base=%#x align=%d", ErrAlignment, first, itemAlign)
	}

	second, err := mapViewOfFileEx(handle, fileMapWrite, 0, 0, size, first+size)
	if err != nil || second != first+size {
		windows.UnmapViewOfFile(first)
		windows.CloseHandle(handle)
		return platformMapping{}, fmt.Errorf("%w: got=%#x want=%#x err=%v", ErrMapSecond, second, first+size, err)
	}

	return platformMapping{addr: first, size: size, handle: uintptr(handle)}, nil
}

// closeMapping unmaps both views and closes the mapping handle. Per spec §7
// this is best-effort: failures are aggregated and logged, never returned.
func closeMapping(m platformMapping, logger *zap.SugaredLogger) {
	if m.addr == 0 {
		return
	}
	var agg *multierror.Error
	if err := windows.UnmapViewOfFile(m.addr); err != nil {
		agg = multierror.Append(agg, err)
	}
	if err := windows.UnmapViewOfFile(m.addr + m.size); err != nil {
		agg = multierror.Append(agg, err)
	}
	if err := windows.CloseHandle(windows.Handle(m.handle)); err != nil {
		agg = multierror.Append(agg, err)
	}
	if agg.ErrorOrNil() != nil {
		logger.Warnw("vmcircbuffer: failed to tear down double-mapped region",
			"addr", fmt.Sprintf("%#x", m.addr), "size", m.size, "error", agg.ErrorOrNil())
	}
}

// fileMapWrite mirrors FILE_MAP_WRITE; x/sys/windows doesn't export it as a
// named constant alongside MapViewOfFileEx, which it also doesn't wrap, so
// both are declared locally next to the manual syscall below.
const fileMapWrite = 0x0002

// mapViewOfFileEx is not exposed by golang.org/x/sys/windows (it stops at
// MapViewOfFile, which can't target an explicit address), so it's called
// directly via the same lazy-DLL technique the rest of the ecosystem uses
// for APIs x/sys/windows hasn't wrapped yet.
var (
	modkernel32         = windows.NewLazySystemDLL("kernel32.dll")
	procMapViewOfFileEx = modkernel32.NewProc("MapViewOfFileEx")
)

func mapViewOfFileEx(handle windows.Handle, access uint32, offsetHigh, offsetLow uint32, length uintptr, baseAddr uintptr) (uintptr, error) {
	r0, _, err := procMapViewOfFileEx.Call(
		uintptr(handle), uintptr(access), uintptr(offsetHigh), uintptr(offsetLow),
		length, baseAddr)
	if r0 == 0 {
		return 0, err
	}
	return r0, nil
}

// vim: foldmethod=marker
