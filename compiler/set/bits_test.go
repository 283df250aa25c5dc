package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmall(t *testing.T) {
	s := MakeSmall[uint8](1, 5, 64, 200)

	assert.True(t, s.IsSet(5))
	assert.False(t, s.IsSet(6))
	assert.False(t, s.IsSet(255))
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, []uint8{1, 5, 64, 200}, s.Slice())

	s.Clear(64)
	assert.Equal(t, []uint8{1, 5, 200}, s.Slice())

	c := s
	c.Set(7)
	assert.False(t, s.IsSet(7))
}

func TestSmallOps(t *testing.T) {
	a := MakeSmall(1, 2, 3, 130)
	b := MakeSmall(3, 4, 130)

	assert.Equal(t, MakeSmall(1, 2, 3, 4, 130), a.Union(b))
	assert.Equal(t, MakeSmall(3, 130), a.Intersect(b))
	assert.Equal(t, MakeSmall(1, 2), a.Substract(b))

	assert.True(t, a.Substract(a).IsEmpty())
	assert.False(t, a.IsEmpty())
}

func TestSmallRangeStop(t *testing.T) {
	s := MakeSmall(10, 20, 30)

	var got []int

	s.Range(func(k int) bool {
		got = append(got, k)
		return len(got) < 2
	})

	assert.Equal(t, []int{10, 20}, got)
}

func TestSmallOutOfRange(t *testing.T) {
	var s Small[int]

	assert.Panics(t, func() { s.Set(SmallCap) })
	assert.Panics(t, func() { s.Set(-1) })
	assert.False(t, s.IsSet(-1))
}

func TestBitmap(t *testing.T) {
	var s Bitmap[uint32]

	assert.Equal(t, -1, s.First())
	assert.False(t, s.IsSet(1000))

	s.Set(1000)
	s.Set(3)
	s.Set(64)

	assert.Equal(t, 3, s.Size())
	assert.Equal(t, 3, s.First())
	assert.True(t, s.IsSet(1000))

	var x Bitmap[uint32]
	x.Set(3)
	x.Set(5)

	s.AndNot(&x)

	var got []uint32
	s.Range(func(k uint32) bool {
		got = append(got, k)
		return true
	})

	assert.Equal(t, []uint32{64, 1000}, got)

	s.Clear(64)
	s.Clear(5000)
	assert.Equal(t, 1000, s.First())

	assert.Panics(t, func() {
		var b Bitmap[int]
		b.Set(-1)
	})
}
