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

// Package vmcircbuffer implements a circular buffer whose backing storage is
// mmap'd twice, contiguously, into the process's address space. Any window of
// the logical ring -- including one that straddles the wrap point -- can then
// be handed to a caller as a single contiguous slice, so producers and
// consumers never have to deal with a split read or write.
//
// The package is laid out bottom-up:
//
//   - PageSize probes the OS allocation granularity once per process.
//   - DoubleMappedBuffer owns the double mapping and exposes raw,
//     offset-addressable windows over it. It is unsafe in the same sense a
//     raw slice conversion is unsafe: callers must not let readers and
//     writers touch overlapping ranges concurrently.
//   - Engine is the single-writer/multi-reader coordination layer that makes
//     DoubleMappedBuffer safe to share: it tracks one writer cursor and any
//     number of independently paced reader cursors, and hands out windows
//     that are always disjoint.
//   - Notifier is the two-method arm/notify contract Engine uses to wake
//     blocked parties without losing a wakeup.
//
// Subpackages blocking, nonblocking, and awaitable wrap Engine with a
// concrete Notifier to present blocking, poll-only, and context-aware
// waiting APIs respectively. Engine itself never sleeps while holding its
// lock.
package vmcircbuffer

// vim: foldmethod=marker
