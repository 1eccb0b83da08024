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

// slab is a slot table: entries are inserted and removed by a small stable
// integer key, in O(1), without disturbing any other entry's key. It backs
// the engine's reader table (Design Notes: "An arena + integer key is the
// correct implementation, not a pointer-identified map").
//
// No suitable third-party slot-map/slab library appears anywhere in the
// retrieval pack, so this stays on a hand-rolled free-list rather than an
// import; see DESIGN.md.
type slab[T any] struct {
	entries []slabEntry[T]
	free    []int
}

type slabEntry[T any] struct {
	value    T
	occupied bool
}

// insert adds value under a fresh key and returns that key.
func (s *slab[T]) insert(value T) int {
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		s.entries[id] = slabEntry[T]{value: value, occupied: true}
		return id
	}
	id := len(s.entries)
	s.entries = append(s.entries, slabEntry[T]{value: value, occupied: true})
	return id
}

// get returns the value stored under id, and whether id is currently occupied.
func (s *slab[T]) get(id int) (T, bool) {
	if id < 0 || id >= len(s.entries) || !s.entries[id].occupied {
		var zero T
		return zero, false
	}
	return s.entries[id].value, true
}

// set overwrites the value stored under id. id must be occupied.
func (s *slab[T]) set(id int, value T) {
	s.entries[id].value = value
}

// remove frees id, returning the value that was stored there and whether it
// was occupied.
func (s *slab[T]) remove(id int) (T, bool) {
	if id < 0 || id >= len(s.entries) || !s.entries[id].occupied {
		var zero T
		return zero, false
	}
	v := s.entries[id].value
	var zero T
	s.entries[id] = slabEntry[T]{value: zero, occupied: false}
	s.free = append(s.free, id)
	return v, true
}

// each calls fn for every occupied entry, in key order, passing the id and a
// pointer to the stored value; fn may mutate the entry in place through it.
func (s *slab[T]) each(fn func(id int, value *T)) {
	for id := range s.entries {
		if s.entries[id].occupied {
			fn(id, &s.entries[id].value)
		}
	}
}

// len returns the number of occupied entries.
func (s *slab[T]) len() int {
	return len(s.entries) - len(s.free)
}

// vim: foldmethod=marker
