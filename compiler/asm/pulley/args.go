package pulley

import (
	"fmt"
	"strings"
)

type (
	// Label is a branch target resolved to a code offset once layout is done.
	Label uint32

	AmodeKind uint8

	// Amode is a memory addressing mode.
	Amode struct {
		Kind   AmodeKind
		Base   XReg
		Offset int32
		Stack  StackAMode
	}

	StackAModeKind uint8

	// StackAMode is a frame-relative address resolved once the frame layout is known.
	StackAMode struct {
		Kind   StackAModeKind
		Offset int64
		Size   uint32
	}

	CondKind uint8
	CmpOp    uint8

	// Cond is the condition of a conditional branch or trap.
	Cond struct {
		Kind CondKind
		Op   CmpOp
		Wide bool

		Src1 XReg
		Src2 XReg
		Imm  int32
	}

	MemFlags uint8

	TrapCode uint8

	ExtNameKind uint8

	// ExtName is a symbol defined outside of the function being compiled.
	ExtName struct {
		Kind      ExtNameKind
		Namespace uint32
		Index     uint32
		Name      string
	}

	// ExtKind is how a narrow integer load fills the rest of the register.
	ExtKind uint8
)

const (
	AmodeSpOffset AmodeKind = iota
	AmodeRegOffset
	AmodeStack
)

const (
	StackIncomingArg StackAModeKind = iota
	StackSlot
	StackOutgoingArg
)

const (
	CondIf32 CondKind = iota
	CondIfNot32
	CondXcmp
	CondXcmpImm
)

const (
	CmpEq CmpOp = iota
	CmpNeq
	CmpSlt
	CmpSlteq
	CmpSgt
	CmpSgteq
	CmpUlt
	CmpUlteq
	CmpUgt
	CmpUgteq
)

const (
	MemNotrap MemFlags = 1 << iota
	MemAligned
	MemReadonly
	MemLittleEndian
	MemBigEndian
	MemChecked

	MemTrusted = MemNotrap | MemAligned
)

const (
	TrapStackOverflow TrapCode = iota
	TrapHeapOutOfBounds
	TrapIntegerOverflow
	TrapIntegerDivisionByZero
	TrapBadConversionToInteger
	TrapTableOutOfBounds
	TrapIndirectCallToNull
	TrapBadSignature
	TrapUnreachable

	trapUserBase
)

const (
	ExtUser ExtNameKind = iota
	ExtLibCall
	ExtKnownSymbol
	ExtTestCase
)

const (
	ExtZero ExtKind = iota
	ExtSign
)

var cmpNames = [...]string{
	CmpEq:    "eq",
	CmpNeq:   "neq",
	CmpSlt:   "slt",
	CmpSlteq: "slteq",
	CmpSgt:   "sgt",
	CmpSgteq: "sgteq",
	CmpUlt:   "ult",
	CmpUlteq: "ulteq",
	CmpUgt:   "ugt",
	CmpUgteq: "ugteq",
}

var cmpInverse = [...]CmpOp{
	CmpEq:    CmpNeq,
	CmpNeq:   CmpEq,
	CmpSlt:   CmpSgteq,
	CmpSlteq: CmpSgt,
	CmpSgt:   CmpSlteq,
	CmpSgteq: CmpSlt,
	CmpUlt:   CmpUgteq,
	CmpUlteq: CmpUgt,
	CmpUgt:   CmpUlteq,
	CmpUgteq: CmpUlt,
}

var trapNames = [...]string{
	TrapStackOverflow:          "stk_ovf",
	TrapHeapOutOfBounds:        "heap_oob",
	TrapIntegerOverflow:        "int_ovf",
	TrapIntegerDivisionByZero:  "int_divz",
	TrapBadConversionToInteger: "bad_toint",
	TrapTableOutOfBounds:       "table_oob",
	TrapIndirectCallToNull:     "icall_null",
	TrapBadSignature:           "bad_sig",
	TrapUnreachable:            "unreachable",
}

func (l Label) String() string { return fmt.Sprintf("label%d", uint32(l)) }

func SpOffset(off int32) Amode {
	return Amode{Kind: AmodeSpOffset, Offset: off}
}

func RegOffset(base XReg, off int32) Amode {
	return Amode{Kind: AmodeRegOffset, Base: base, Offset: off}
}

func StackAddr(kind StackAModeKind, off int64, size uint32) Amode {
	return Amode{Kind: AmodeStack, Stack: StackAMode{Kind: kind, Offset: off, Size: size}}
}

func (m *Amode) GetOperands(v OperandVisitor) {
	if m.Kind == AmodeRegOffset {
		use(v, m.Base.ptr())
	}
}

func (m Amode) String() string {
	switch m.Kind {
	case AmodeSpOffset:
		return offsetString("sp", int64(m.Offset))
	case AmodeRegOffset:
		return offsetString(m.Base.String(), int64(m.Offset))
	case AmodeStack:
		return m.Stack.String()
	default:
		panic(m.Kind)
	}
}

func (m StackAMode) String() string {
	switch m.Kind {
	case StackIncomingArg:
		return fmt.Sprintf("IncomingArg(%d, %d)", m.Offset, m.Size)
	case StackSlot:
		return fmt.Sprintf("Slot(%d)", m.Offset)
	case StackOutgoingArg:
		return fmt.Sprintf("OutgoingArg(%d)", m.Offset)
	default:
		panic(m.Kind)
	}
}

func offsetString(base string, off int64) string {
	if off < 0 {
		return fmt.Sprintf("%s%d", base, off)
	}

	return fmt.Sprintf("%s+%d", base, off)
}

func If32(r XReg) Cond    { return Cond{Kind: CondIf32, Src1: r} }
func IfNot32(r XReg) Cond { return Cond{Kind: CondIfNot32, Src1: r} }

func IfXcmp(op CmpOp, wide bool, a, b XReg) Cond {
	return Cond{Kind: CondXcmp, Op: op, Wide: wide, Src1: a, Src2: b}
}

func IfXcmpImm(op CmpOp, wide bool, a XReg, imm int32) Cond {
	return Cond{Kind: CondXcmpImm, Op: op, Wide: wide, Src1: a, Imm: imm}
}

// Invert returns the condition that holds exactly when c does not.
func (c Cond) Invert() Cond {
	switch c.Kind {
	case CondIf32:
		c.Kind = CondIfNot32
	case CondIfNot32:
		c.Kind = CondIf32
	case CondXcmp, CondXcmpImm:
		c.Op = cmpInverse[c.Op]
	default:
		panic(c.Kind)
	}

	return c
}

func (c *Cond) GetOperands(v OperandVisitor) {
	switch c.Kind {
	case CondIf32, CondIfNot32, CondXcmpImm:
		use(v, c.Src1.ptr())
	case CondXcmp:
		use(v, c.Src1.ptr())
		use(v, c.Src2.ptr())
	default:
		panic(c.Kind)
	}
}

func (c Cond) String() string {
	switch c.Kind {
	case CondIf32:
		return fmt.Sprintf("if32 %v", c.Src1)
	case CondIfNot32:
		return fmt.Sprintf("if_not32 %v", c.Src1)
	case CondXcmp:
		return fmt.Sprintf("if_x%v%d %v, %v", c.Op, c.bits(), c.Src1, c.Src2)
	case CondXcmpImm:
		return fmt.Sprintf("if_x%v%d_i32 %v, %d", c.Op, c.bits(), c.Src1, c.Imm)
	default:
		panic(c.Kind)
	}
}

func (c Cond) bits() int {
	if c.Wide {
		return 64
	}

	return 32
}

func (op CmpOp) String() string {
	if int(op) < len(cmpNames) {
		return cmpNames[op]
	}

	return fmt.Sprintf("cmp(%d)", uint8(op))
}

func (f MemFlags) String() string {
	var b strings.Builder

	for _, x := range []struct {
		f    MemFlags
		name string
	}{
		{MemNotrap, "notrap"},
		{MemAligned, "aligned"},
		{MemReadonly, "readonly"},
		{MemLittleEndian, "little"},
		{MemBigEndian, "big"},
		{MemChecked, "checked"},
	} {
		if f&x.f != 0 {
			b.WriteByte(' ')
			b.WriteString(x.name)
		}
	}

	return b.String()
}

// UserTrap returns an embedder-defined trap code.
func UserTrap(n uint8) TrapCode {
	if int(n)+int(trapUserBase) > 0xff {
		panic(n)
	}

	return trapUserBase + TrapCode(n)
}

func (c TrapCode) String() string {
	if c >= trapUserBase {
		return fmt.Sprintf("user%d", c-trapUserBase)
	}

	return trapNames[c]
}

func UserName(ns, index uint32) ExtName {
	return ExtName{Kind: ExtUser, Namespace: ns, Index: index}
}

func LibCall(name string) ExtName {
	return ExtName{Kind: ExtLibCall, Name: name}
}

func (n ExtName) String() string {
	switch n.Kind {
	case ExtUser:
		return fmt.Sprintf("u%d:%d", n.Namespace, n.Index)
	case ExtLibCall, ExtKnownSymbol:
		return "%" + n.Name
	case ExtTestCase:
		return "%" + n.Name
	default:
		panic(n.Kind)
	}
}
