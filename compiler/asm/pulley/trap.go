package pulley

import "github.com/slowlang/pulley/compiler/asm/pulley/bytecode"

// TrapOpcode is the encoding of an unconditional trap.
// It must match bytecode.AppendTrap byte for byte.
var TrapOpcode = [...]byte{
	byte(bytecode.ExtendedOp),
	byte(uint16(bytecode.ExtTrap) >> 0),
	byte(uint16(bytecode.ExtTrap) >> 8),
}
