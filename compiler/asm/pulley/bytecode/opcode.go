package bytecode

import "fmt"

type (
	// Opcode is the first byte of every instruction.
	Opcode uint8

	// ExtendedOpcode follows an ExtendedOp byte as a little-endian u16.
	ExtendedOpcode uint16
)

const (
	Ret Opcode = iota
	Call
	Call1
	Call2
	Call3
	Call4
	CallIndirect
	Jump
	XJump
	BrIf32
	BrIfNot32
	BrIfXcmp
	BrIfXcmpI
	BrTable32
	Xmov
	Xconst8
	Xconst16
	Xconst32
	Xconst64
	XconstAddr
	Xadd32
	Xadd64
	Xsub32
	Xsub64
	Xmul32
	Xmul64
	Xband32
	Xband64
	Xbor32
	Xbor64
	Xeq32
	Xeq64
	Xslt32
	Xslt64
	Xult32
	Xult64
	XloadAddr
	Xload8U
	Xload8S
	Xload16U
	Xload16S
	Xload32U
	Xload32S
	Xload64
	Xstore8
	Xstore16
	Xstore32
	Xstore64
	Fload32
	Fload64
	Fstore32
	Fstore64
	Fadd32
	Fadd64

	// ExtendedOp prefixes every ExtendedOpcode.
	ExtendedOp
)

const (
	ExtTrap ExtendedOpcode = iota
	ExtNop
	ExtCallIndirectHost
	ExtXmovSpecial
	ExtFmov
	ExtVmov
	ExtVload128
	ExtVstore128
	ExtVaddi32x4
)

var opNames = [...]string{
	Ret:          "ret",
	Call:         "call",
	Call1:        "call1",
	Call2:        "call2",
	Call3:        "call3",
	Call4:        "call4",
	CallIndirect: "call_indirect",
	Jump:         "jump",
	XJump:        "xjump",
	BrIf32:       "br_if32",
	BrIfNot32:    "br_if_not32",
	BrIfXcmp:     "br_if_xcmp",
	BrIfXcmpI:    "br_if_xcmp_i32",
	BrTable32:    "br_table32",
	Xmov:         "xmov",
	Xconst8:      "xconst8",
	Xconst16:     "xconst16",
	Xconst32:     "xconst32",
	Xconst64:     "xconst64",
	XconstAddr:   "xconst_addr",
	Xadd32:       "xadd32",
	Xadd64:       "xadd64",
	Xsub32:       "xsub32",
	Xsub64:       "xsub64",
	Xmul32:       "xmul32",
	Xmul64:       "xmul64",
	Xband32:      "xband32",
	Xband64:      "xband64",
	Xbor32:       "xbor32",
	Xbor64:       "xbor64",
	Xeq32:        "xeq32",
	Xeq64:        "xeq64",
	Xslt32:       "xslt32",
	Xslt64:       "xslt64",
	Xult32:       "xult32",
	Xult64:       "xult64",
	XloadAddr:    "xload_addr",
	Xload8U:      "xload8_u",
	Xload8S:      "xload8_s",
	Xload16U:     "xload16_u",
	Xload16S:     "xload16_s",
	Xload32U:     "xload32_u",
	Xload32S:     "xload32_s",
	Xload64:      "xload64",
	Xstore8:      "xstore8",
	Xstore16:     "xstore16",
	Xstore32:     "xstore32",
	Xstore64:     "xstore64",
	Fload32:      "fload32",
	Fload64:      "fload64",
	Fstore32:     "fstore32",
	Fstore64:     "fstore64",
	Fadd32:       "fadd32",
	Fadd64:       "fadd64",
	ExtendedOp:   "extended_op",
}

var extNames = [...]string{
	ExtTrap:             "trap",
	ExtNop:              "nop",
	ExtCallIndirectHost: "call_indirect_host",
	ExtXmovSpecial:      "xmov_special",
	ExtFmov:             "fmov",
	ExtVmov:             "vmov",
	ExtVload128:         "vload128",
	ExtVstore128:        "vstore128",
	ExtVaddi32x4:        "vaddi32x4",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}

	return fmt.Sprintf("op(%d)", op)
}

func (op ExtendedOpcode) String() string {
	if int(op) < len(extNames) {
		return extNames[op]
	}

	return fmt.Sprintf("ext(%d)", op)
}

func Opcodes() []Opcode {
	r := make([]Opcode, 0, len(opNames))

	for op := range opNames {
		r = append(r, Opcode(op))
	}

	return r
}

func ExtendedOpcodes() []ExtendedOpcode {
	r := make([]ExtendedOpcode, 0, len(extNames))

	for op := range extNames {
		r = append(r, ExtendedOpcode(op))
	}

	return r
}
