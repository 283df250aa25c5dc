package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppend(t *testing.T) {
	var b []byte

	b = AppendOp(b, Xadd64)
	b = AppendReg(b, 3)
	b = AppendI16(b, -2)
	b = AppendI32(b, 0x01020304)
	b = AppendPCRel(b)

	assert.Equal(t, []byte{byte(Xadd64), 3, 0xfe, 0xff, 4, 3, 2, 1, 0, 0, 0, 0}, b)

	assert.Equal(t, []byte{byte(ExtendedOp), byte(ExtVmov), 0}, AppendExtOp(nil, ExtVmov))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, AppendI64(nil, -1))
}

func TestOpcodeNames(t *testing.T) {
	seen := map[string]bool{}

	for _, op := range Opcodes() {
		name := op.String()

		assert.NotEmpty(t, name, "%d", uint8(op))
		assert.False(t, seen[name], "duplicate %v", name)

		seen[name] = true
	}

	for _, op := range ExtendedOpcodes() {
		assert.NotEmpty(t, op.String(), "%d", uint16(op))
	}

	assert.Equal(t, ExtendedOp, Opcodes()[len(Opcodes())-1])
	assert.Equal(t, Call+4, Call4)
}
