package pulley

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slowlang/pulley/compiler/asm/pulley/bytecode"
)

func TestTrapOpcode(t *testing.T) {
	assert.Equal(t, bytecode.AppendTrap(nil), TrapOpcode[:])
	assert.Len(t, TrapOpcode, 3)
	assert.Equal(t, byte(bytecode.ExtendedOp), TrapOpcode[0])
}

func TestTrapRawEncoding(t *testing.T) {
	x := NewTrap(TrapUnreachable)

	op, ext, extended, imm := x.Encoding()

	assert.True(t, extended)
	assert.Equal(t, bytecode.ExtTrap, ext)
	assert.Equal(t, bytecode.Opcode(0), op)
	assert.Zero(t, imm)

	assert.Equal(t, "trap // code = unreachable", x.String())
	assert.True(t, IsTrap(&Raw{Raw: x}))
	assert.True(t, IsSafepoint(&Raw{Raw: x}))
}
