package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~uint8 | ~uint16 | ~uint32
	}

	// Small is a value-typed set of keys below SmallCap.
	// Copies are independent and two sets compare with ==.
	Small[K Key] struct {
		b [smallWords]uint64
	}
)

const (
	smallWords = 4

	SmallCap = smallWords * 64
)

func MakeSmall[K Key](k ...K) (s Small[K]) {
	for _, k := range k {
		s.Set(k)
	}

	return s
}

func (s *Small[K]) Set(k K) {
	i, j := ij(k)

	s.b[i] |= 1 << j
}

func (s *Small[K]) Clear(k K) {
	i, j := ij(k)

	s.b[i] &^= 1 << j
}

func (s Small[K]) IsSet(k K) bool {
	if int(k) < 0 || int(k) >= SmallCap {
		return false
	}

	i, j := ij(k)

	return s.b[i]&(1<<j) != 0
}

func (s Small[K]) Union(x Small[K]) Small[K] {
	for i, x := range x.b {
		s.b[i] |= x
	}

	return s
}

func (s Small[K]) Intersect(x Small[K]) Small[K] {
	for i, x := range x.b {
		s.b[i] &= x
	}

	return s
}

func (s Small[K]) Substract(x Small[K]) Small[K] {
	for i, x := range x.b {
		s.b[i] &^= x
	}

	return s
}

func (s Small[K]) IsEmpty() bool {
	return s == Small[K]{}
}

func (s Small[K]) Size() (r int) {
	for _, c := range s.b {
		r += bits.OnesCount64(c)
	}

	return r
}

func (s Small[K]) Range(f func(k K) bool) {
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

func (s Small[K]) Slice() []K {
	r := make([]K, 0, s.Size())

	s.Range(func(k K) bool {
		r = append(r, k)
		return true
	})

	return r
}

func (s Small[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))

		return true
	})

	b = e.AppendBreak(b)

	return b
}

func ij[K Key](k K) (i, j int) {
	p := int(k)
	if p < 0 || p >= SmallCap {
		panic(p)
	}

	return p / 64, p % 64
}
