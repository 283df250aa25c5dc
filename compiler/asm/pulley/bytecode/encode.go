package bytecode

import "encoding/binary"

// PCRelSize is the size of a relative branch target window.
const PCRelSize = 4

func AppendOp(b []byte, op Opcode) []byte {
	return append(b, byte(op))
}

func AppendExtOp(b []byte, op ExtendedOpcode) []byte {
	b = append(b, byte(ExtendedOp))
	return binary.LittleEndian.AppendUint16(b, uint16(op))
}

// AppendTrap encodes the unconditional trap.
func AppendTrap(b []byte) []byte {
	return AppendExtOp(b, ExtTrap)
}

// AppendReg encodes a register by its hardware number.
func AppendReg(b []byte, hw uint8) []byte {
	return append(b, hw)
}

func AppendU8(b []byte, x uint8) []byte {
	return append(b, x)
}

func AppendI16(b []byte, x int16) []byte {
	return binary.LittleEndian.AppendUint16(b, uint16(x))
}

func AppendI32(b []byte, x int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(x))
}

func AppendU32(b []byte, x uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, x)
}

func AppendI64(b []byte, x int64) []byte {
	return binary.LittleEndian.AppendUint64(b, uint64(x))
}

// AppendPCRel reserves a zeroed relative target to be patched later.
func AppendPCRel(b []byte) []byte {
	return append(b, 0, 0, 0, 0)
}
