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

// Notifier is the minimum capability Engine needs to wake a blocked party
// without losing a wakeup under the "check -> arm -> re-check -> wait" rule
// (spec §4.D, §5):
//
//   - Arm transitions the notifier from disarmed to armed. It never blocks.
//   - Notify is a no-op when disarmed; otherwise it fires the underlying
//     signal exactly once and returns to disarmed.
//
// Engine calls Arm only while holding its lock, right before returning a
// zero-length window to a caller that asked to be armed; it calls Notify,
// also under the lock, whenever a cursor moves. A concrete Notifier is free
// to implement "fire the signal" however it likes -- a buffered channel send,
// a condition variable broadcast, or nothing at all (see the nonblocking
// package's nullNotifier) -- as long as Notify never blocks the caller
// holding Engine's lock.
type Notifier interface {
	Arm()
	Notify()
}

// vim: foldmethod=marker
