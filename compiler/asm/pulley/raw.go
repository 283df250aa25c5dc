package pulley

import (
	"fmt"
	"strings"

	"github.com/slowlang/pulley/compiler/asm/pulley/bytecode"
)

type (
	RawOp uint8

	// RawInst is an instruction described entirely by its opcode table entry.
	RawInst struct {
		Op  RawOp
		Dst Writable[Reg]
		Src [2]Reg
		Imm int64
	}

	rawOpInfo struct {
		name string

		op       bytecode.Opcode
		ext      bytecode.ExtendedOpcode
		extended bool

		def  bool
		dst  RegClass
		uses []RegClass

		// immediate size in bytes
		imm int
	}
)

const (
	RawXmov RawOp = iota
	RawFmov
	RawVmov
	RawRet
	RawTrap
	RawXconst8
	RawXconst16
	RawXconst32
	RawXconst64
	RawXadd32
	RawXadd64
	RawXsub32
	RawXsub64
	RawXmul32
	RawXmul64
	RawXband32
	RawXband64
	RawXbor32
	RawXbor64
	RawXeq32
	RawXeq64
	RawXslt32
	RawXslt64
	RawXult32
	RawXult64
	RawFadd32
	RawFadd64
	RawVaddi32x4

	numRawOps
)

var (
	xx  = []RegClass{ClassInt, ClassInt}
	x1  = []RegClass{ClassInt}
	ff  = []RegClass{ClassFloat, ClassFloat}
	f1  = []RegClass{ClassFloat}
	vv  = []RegClass{ClassVector, ClassVector}
	vv1 = []RegClass{ClassVector}
)

var rawOps = [numRawOps]rawOpInfo{
	RawXmov:      {name: "xmov", op: bytecode.Xmov, def: true, dst: ClassInt, uses: x1},
	RawFmov:      {name: "fmov", ext: bytecode.ExtFmov, extended: true, def: true, dst: ClassFloat, uses: f1},
	RawVmov:      {name: "vmov", ext: bytecode.ExtVmov, extended: true, def: true, dst: ClassVector, uses: vv1},
	RawRet:       {name: "ret", op: bytecode.Ret},
	RawTrap:      {name: "trap", ext: bytecode.ExtTrap, extended: true},
	RawXconst8:   {name: "xconst8", op: bytecode.Xconst8, def: true, dst: ClassInt, imm: 1},
	RawXconst16:  {name: "xconst16", op: bytecode.Xconst16, def: true, dst: ClassInt, imm: 2},
	RawXconst32:  {name: "xconst32", op: bytecode.Xconst32, def: true, dst: ClassInt, imm: 4},
	RawXconst64:  {name: "xconst64", op: bytecode.Xconst64, def: true, dst: ClassInt, imm: 8},
	RawXadd32:    {name: "xadd32", op: bytecode.Xadd32, def: true, dst: ClassInt, uses: xx},
	RawXadd64:    {name: "xadd64", op: bytecode.Xadd64, def: true, dst: ClassInt, uses: xx},
	RawXsub32:    {name: "xsub32", op: bytecode.Xsub32, def: true, dst: ClassInt, uses: xx},
	RawXsub64:    {name: "xsub64", op: bytecode.Xsub64, def: true, dst: ClassInt, uses: xx},
	RawXmul32:    {name: "xmul32", op: bytecode.Xmul32, def: true, dst: ClassInt, uses: xx},
	RawXmul64:    {name: "xmul64", op: bytecode.Xmul64, def: true, dst: ClassInt, uses: xx},
	RawXband32:   {name: "xband32", op: bytecode.Xband32, def: true, dst: ClassInt, uses: xx},
	RawXband64:   {name: "xband64", op: bytecode.Xband64, def: true, dst: ClassInt, uses: xx},
	RawXbor32:    {name: "xbor32", op: bytecode.Xbor32, def: true, dst: ClassInt, uses: xx},
	RawXbor64:    {name: "xbor64", op: bytecode.Xbor64, def: true, dst: ClassInt, uses: xx},
	RawXeq32:     {name: "xeq32", op: bytecode.Xeq32, def: true, dst: ClassInt, uses: xx},
	RawXeq64:     {name: "xeq64", op: bytecode.Xeq64, def: true, dst: ClassInt, uses: xx},
	RawXslt32:    {name: "xslt32", op: bytecode.Xslt32, def: true, dst: ClassInt, uses: xx},
	RawXslt64:    {name: "xslt64", op: bytecode.Xslt64, def: true, dst: ClassInt, uses: xx},
	RawXult32:    {name: "xult32", op: bytecode.Xult32, def: true, dst: ClassInt, uses: xx},
	RawXult64:    {name: "xult64", op: bytecode.Xult64, def: true, dst: ClassInt, uses: xx},
	RawFadd32:    {name: "fadd32", op: bytecode.Fadd32, def: true, dst: ClassFloat, uses: ff},
	RawFadd64:    {name: "fadd64", op: bytecode.Fadd64, def: true, dst: ClassFloat, uses: ff},
	RawVaddi32x4: {name: "vaddi32x4", ext: bytecode.ExtVaddi32x4, extended: true, def: true, dst: ClassVector, uses: vv},
}

// NewRaw builds a raw instruction, checking operand classes against the table.
func NewRaw(op RawOp, dst Writable[Reg], imm int64, src ...Reg) RawInst {
	info := op.info()

	if len(src) != len(info.uses) {
		panic(fmt.Sprintf("%v: want %d operands, got %d", op, len(info.uses), len(src)))
	}

	x := RawInst{Op: op, Dst: dst, Imm: imm}

	if info.def {
		if dst.reg.Class() != info.dst {
			panic(fmt.Sprintf("%v: bad dst class: %v", op, dst.reg))
		}
	} else {
		x.Dst = WritableFrom(InvalidReg)
	}

	for i, r := range src {
		if r.Class() != info.uses[i] {
			panic(fmt.Sprintf("%v: bad src%d class: %v", op, i, r))
		}

		x.Src[i] = r
	}

	for i := len(src); i < len(x.Src); i++ {
		x.Src[i] = InvalidReg
	}

	return x
}

func NewXmov(dst Writable[XReg], src XReg) RawInst {
	return NewRaw(RawXmov, WritableFrom(Reg(dst.reg)), 0, Reg(src))
}

func NewFmov(dst Writable[FReg], src FReg) RawInst {
	return NewRaw(RawFmov, WritableFrom(Reg(dst.reg)), 0, Reg(src))
}

func NewVmov(dst Writable[VReg], src VReg) RawInst {
	return NewRaw(RawVmov, WritableFrom(Reg(dst.reg)), 0, Reg(src))
}

func NewXconst64(dst Writable[XReg], imm int64) RawInst {
	return NewRaw(RawXconst64, WritableFrom(Reg(dst.reg)), imm)
}

func NewRet() RawInst {
	return NewRaw(RawRet, WritableFrom(InvalidReg), 0)
}

func NewTrap(code TrapCode) RawInst {
	return NewRaw(RawTrap, WritableFrom(InvalidReg), int64(code))
}

func NewBinary(op RawOp, dst Writable[Reg], a, b Reg) RawInst {
	return NewRaw(op, dst, 0, a, b)
}

func (x *RawInst) GetOperands(v OperandVisitor) {
	info := x.Op.info()

	if info.def {
		def(v, x.Dst.reg.ptr())
	}

	for i := range info.uses {
		use(v, &x.Src[i])
	}
}

// Encoding returns the opcode bytes of x.
func (x *RawInst) Encoding() (op bytecode.Opcode, ext bytecode.ExtendedOpcode, extended bool, immSize int) {
	info := x.Op.info()

	return info.op, info.ext, info.extended, info.imm
}

func (x *RawInst) Uses() int { return len(x.Op.info().uses) }

func (x *RawInst) HasDef() bool { return x.Op.info().def }

func (x RawInst) String() string {
	info := x.Op.info()

	if x.Op == RawTrap {
		return fmt.Sprintf("trap // code = %v", TrapCode(x.Imm))
	}

	var b strings.Builder

	b.WriteString(info.name)

	sep := " "

	if info.def {
		b.WriteString(sep)
		b.WriteString(x.Dst.String())
		sep = ", "
	}

	for i := range info.uses {
		b.WriteString(sep)
		b.WriteString(x.Src[i].String())
		sep = ", "
	}

	if info.imm != 0 {
		fmt.Fprintf(&b, "%s%d", sep, x.Imm)
	}

	return b.String()
}

func (op RawOp) info() *rawOpInfo {
	if op >= numRawOps {
		panic(fmt.Sprintf("raw op %d", uint8(op)))
	}

	return &rawOps[op]
}

func (op RawOp) String() string {
	if op >= numRawOps {
		return fmt.Sprintf("raw(%d)", uint8(op))
	}

	return rawOps[op].name
}

func RawOps() []RawOp {
	r := make([]RawOp, numRawOps)

	for i := range r {
		r[i] = RawOp(i)
	}

	return r
}
