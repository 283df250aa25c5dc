package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	for _, tc := range []struct {
		t    Type
		size int
		name string
	}{
		{I8, 1, "i8"},
		{I128, 16, "i128"},
		{F32, 4, "f32"},
		{I8X16, 16, "i8x16"},
		{I32X16, 64, "i32x16"},
		{F64X2, 16, "f64x2"},
		{Invalid{}, 0, "invalid"},
	} {
		assert.Equal(t, tc.size, tc.t.Size(), "%v", tc.name)
		assert.Equal(t, tc.size*8, Bits(tc.t), "%v", tc.name)
		assert.Equal(t, tc.name, tc.t.String())
	}

	assert.True(t, IsInt(I64))
	assert.False(t, IsInt(F64))
	assert.True(t, IsFloat(F16))
	assert.True(t, IsVector(I16X8))
	assert.False(t, IsVector(I64))

	var x Type = I64X2
	assert.True(t, x == Vector{Lane: I64, Lanes: 2})
}
