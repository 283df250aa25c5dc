package pulley

import "fmt"

type (
	// OperandVisitor receives every register an instruction touches.
	// Pointers stay valid for the life of the instruction,
	// the allocator rewrites virtual registers through them.
	OperandVisitor interface {
		RegUse(r *Reg)
		RegDef(r *Reg)
		RegFixedUse(r *Reg, p PReg)
		RegFixedDef(r *Reg, p PReg)
		AnyDef(r *Reg)
		RegClobbers(s PRegSet)
	}

	OperandKind uint8

	Operand struct {
		Kind  OperandKind
		Reg   Reg
		Fixed PReg
	}

	// OperandList records operands in the order they are reported.
	OperandList struct {
		Operands []Operand
		Clobbers PRegSet

		ptrs []*Reg
	}
)

const (
	OpUse OperandKind = iota
	OpDef
	OpFixedUse
	OpFixedDef
	OpAnyDef
)

// GetOperands reports all registers of x to v, each exactly once.
// Special registers are never reported.
func GetOperands(x Inst, v OperandVisitor) {
	switch x := x.(type) {
	case *Args:
		for i := range x.Args {
			a := &x.Args[i]
			v.RegFixedDef(a.VReg.reg.ptr(), a.PReg)
		}
	case *Rets:
		for i := range x.Rets {
			r := &x.Rets[i]
			v.RegFixedUse(&r.VReg, r.PReg)
		}
	case *DummyUse:
		use(v, &x.Reg)
	case *Nop, *EmitIsland, *Jump:
	case *TrapIf:
		x.Cond.GetOperands(v)
	case *GetSpecial:
		if !x.Reg.IsSpecial() {
			panic(fmt.Sprintf("get_special of allocatable register %v", x.Reg))
		}

		def(v, x.Dst.reg.ptr())
	case *LoadExtName:
		def(v, x.Dst.reg.ptr())
	case *Call:
		// The first few integer arguments may live in any register.
		for i := range x.Info.Dest.Args {
			use(v, x.Info.Dest.Args[i].ptr())
		}

		x.Info.collect(v)
	case *IndirectCall:
		use(v, x.Info.Dest.ptr())

		x.Info.collect(v)
	case *IndirectCallHost:
		x.Info.collect(v)
	case *ReturnCall:
		x.Info.collect(v)
	case *ReturnIndirectCall:
		// Callee-saved registers are restored right before the jump,
		// so the callee address is pinned to the one caller-saved register
		// that never carries an argument.
		v.RegFixedUse(x.Info.Dest.ptr(), ReturnCallReg())

		x.Info.collect(v)
	case *BrIf:
		x.Cond.GetOperands(v)
	case *BrTable:
		use(v, x.Idx.ptr())
	case *LoadAddr:
		def(v, x.Dst.reg.ptr())
		x.Mem.GetOperands(v)
	case *XLoad:
		def(v, x.Dst.reg.ptr())
		x.Mem.GetOperands(v)
	case *XStore:
		x.Mem.GetOperands(v)
		use(v, x.Src.ptr())
	case *FLoad:
		def(v, x.Dst.reg.ptr())
		x.Mem.GetOperands(v)
	case *FStore:
		x.Mem.GetOperands(v)
		use(v, x.Src.ptr())
	case *VLoad:
		def(v, x.Dst.reg.ptr())
		x.Mem.GetOperands(v)
	case *VStore:
		x.Mem.GetOperands(v)
		use(v, x.Src.ptr())
	case *Raw:
		x.Raw.GetOperands(v)
	default:
		panic(fmt.Sprintf("get operands: unexpected instruction %T", x))
	}
}

func use(v OperandVisitor, r *Reg) {
	if r.IsSpecial() {
		return
	}

	v.RegUse(r)
}

func def(v OperandVisitor, r *Reg) {
	if r.IsSpecial() {
		return
	}

	v.RegDef(r)
}

func (l *OperandList) Reset() {
	l.Operands = l.Operands[:0]
	l.Clobbers = PRegSet{}
	l.ptrs = l.ptrs[:0]
}

func (l *OperandList) add(k OperandKind, r *Reg, p PReg) {
	l.Operands = append(l.Operands, Operand{Kind: k, Reg: *r, Fixed: p})
	l.ptrs = append(l.ptrs, r)
}

func (l *OperandList) RegUse(r *Reg)              { l.add(OpUse, r, 0) }
func (l *OperandList) RegDef(r *Reg)              { l.add(OpDef, r, 0) }
func (l *OperandList) RegFixedUse(r *Reg, p PReg) { l.add(OpFixedUse, r, p) }
func (l *OperandList) RegFixedDef(r *Reg, p PReg) { l.add(OpFixedDef, r, p) }
func (l *OperandList) AnyDef(r *Reg)              { l.add(OpAnyDef, r, 0) }

func (l *OperandList) RegClobbers(s PRegSet) {
	l.Clobbers = l.Clobbers.Union(s)
}

// Assign writes r into the instruction slot of the i-th operand.
func (l *OperandList) Assign(i int, r Reg) {
	*l.ptrs[i] = r
	l.Operands[i].Reg = r
}

func (k OperandKind) String() string {
	switch k {
	case OpUse:
		return "use"
	case OpDef:
		return "def"
	case OpFixedUse:
		return "fixed_use"
	case OpFixedDef:
		return "fixed_def"
	case OpAnyDef:
		return "any_def"
	default:
		return fmt.Sprintf("operand(%d)", uint8(k))
	}
}

func (o Operand) String() string {
	switch o.Kind {
	case OpFixedUse, OpFixedDef:
		return fmt.Sprintf("%v %v=%v", o.Kind, o.Reg, o.Fixed)
	default:
		return fmt.Sprintf("%v %v", o.Kind, o.Reg)
	}
}
