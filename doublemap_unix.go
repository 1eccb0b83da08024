//go:build !windows

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

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	multierror "github.com/hashicorp/go-multierror"
)

// newPlatformMappingAttempt implements the POSIX double-mapping strategy
// (spec §4.B):
//
//  1. create a unique temp file (template suffix XXXXXX equivalent via
//     os.CreateTemp);
//  2. unlink it immediately -- the inode lives as long as fd is open;
//  3. ftruncate it to 2*size;
//  4. mmap(NULL, 2*size, RW, SHARED, fd, 0) as a placeholder covering the
//     whole range;
//  5. verify the returned base satisfies itemAlign, else Alignment;
//  6. munmap the upper half to free it;
//  7. mmap the upper half back onto the same fd at the freed address, so it
//     aliases the lower half;
//  8. ftruncate back down to size (the logical file size; existing
//     mappings keep the physical pages live);
//  9. close fd.
//
// x/sys/unix's Mmap/Munmap wrappers don't take an explicit address (they
// only cover the common single-mapping case), so the mmap/munmap calls that
// need an explicit address go through unix.Syscall6/unix.Syscall directly -- the
// same raw-syscall technique go-diskring's syscall.go used, just sourced
// from golang.org/x/sys/unix instead of the stdlib syscall package.
func newPlatformMappingAttempt(size uintptr, itemAlign uintptr, tmpDir string) (platformMapping, error) {
	f, err := os.CreateTemp(tmpDir, "vmcircbuffer-*")
	if err != nil {
		return platformMapping{}, fmt.Errorf("%w: %v", ErrCreate, err)
	}
	fd := int(f.Fd())

	if err := unix.Unlink(f.Name()); err != nil {
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: %v", ErrUnlink, err)
	}

	if err := unix.Ftruncate(fd, int64(2*size)); err != nil {
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: %v", ErrTruncate, err)
	}

	base, err := rawMmap(0, 2*size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED, fd, 0)
	if err != nil {
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: %v", ErrPlaceholder, err)
	}

	if base%itemAlign != 0 {
		rawMunmap(base, 2*size)
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: base=%#x align=%d", ErrAlignment, base, itemAlign)
	}

	if err := rawMunmap(base+size, size); err != nil {
		rawMunmap(base, size)
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: %v", ErrUnmapSecond, err)
	}

	second, err := rawMmap(base+size, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|secondMapExtraFlag, fd, 0)
	if err != nil || second != base+size {
		rawMunmap(base, size)
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: got=%#x want=%#x err=%v", ErrMapSecond, second, base+size, err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		rawMunmap(base, 2*size)
		f.Close()
		return platformMapping{}, fmt.Errorf("%w: %v", ErrTruncate, err)
	}

	if err := f.Close(); err != nil {
		return platformMapping{}, fmt.Errorf("%w: %v", ErrClose, err)
	}

	return platformMapping{addr: base, size: size}, nil
}

// closeMapping unmaps the whole 2*size region. Per spec §7 this is
// best-effort: failures are aggregated and logged, never returned.
func closeMapping(m platformMapping, logger *zap.SugaredLogger) {
	if m.addr == 0 {
		return
	}
	if err := rawMunmap(m.addr, 2*m.size); err != nil {
		var agg *multierror.Error
		agg = multierror.Append(agg, err)
		logger.Warnw("vmcircbuffer: failed to unmap double-mapped region",
			"addr", fmt.Sprintf("%#x", m.addr), "size", 2*m.size, "error", agg.ErrorOrNil())
	}
}

// rawMmap and rawMunmap call mmap(2)/munmap(2) directly so that an explicit
// base address (for placing the second half at base+size) can be passed;
// this is the one piece of the module that cannot go through an ecosystem
// wrapper, see DESIGN.md.
func rawMmap(addr, length uintptr, prot, flags, fd int, offset int64) (uintptr, error) {
	r0, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, length,
		uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return 0, errno
	}
	return r0, nil
}

func rawMunmap(addr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// vim: foldmethod=marker
