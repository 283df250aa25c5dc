package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bitmap is a growable set of non-negative keys.
	// The zero value is an empty set.
	Bitmap[K Key] struct {
		b []uint64
	}
)

func (s *Bitmap[K]) Set(k K) {
	i, j := s.ij(k)

	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[i] |= 1 << j
}

func (s *Bitmap[K]) Clear(k K) {
	i, j := s.ij(k)

	if i >= len(s.b) {
		return
	}

	s.b[i] &^= 1 << j
}

func (s *Bitmap[K]) IsSet(k K) bool {
	if int(k) < 0 {
		return false
	}

	i, j := s.ij(k)

	if i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

// AndNot removes every key of x from s.
func (s *Bitmap[K]) AndNot(x *Bitmap[K]) {
	for i, x := range x.b {
		if i == len(s.b) {
			break
		}

		s.b[i] &^= x
	}
}

func (s *Bitmap[K]) Size() (r int) {
	if s == nil {
		return 0
	}

	for _, c := range s.b {
		r += bits.OnesCount64(c)
	}

	return r
}

func (s *Bitmap[K]) Range(f func(k K) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(K(i*64 + j)) {
				return
			}
		}
	}
}

// First returns the smallest key, or -1 if s is empty.
func (s *Bitmap[K]) First() int {
	for i, x := range s.b {
		if x == 0 {
			continue
		}

		return i*64 + bits.TrailingZeros64(x)
	}

	return -1
}

func (s *Bitmap[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))

		return true
	})

	b = e.AppendBreak(b)

	return b
}

func (s *Bitmap[K]) ij(k K) (i, j int) {
	p := int(k)
	if p < 0 {
		panic(p)
	}

	return p / 64, p % 64
}
