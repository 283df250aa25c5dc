package pulley

import (
	"fmt"

	"github.com/slowlang/pulley/compiler/tp"
)

type (
	// Inst is a pulley machine instruction.
	// The set of implementations is closed; all of them are pointers
	// so the register allocator can rewrite registers in place.
	Inst interface {
		fmt.Stringer

		inst()
	}

	// Args defines the registers the function receives its arguments in.
	Args struct {
		Args []ArgPair
	}

	ArgPair struct {
		VReg Writable[Reg]
		PReg PReg
	}

	// Rets uses the registers the function returns its results in.
	Rets struct {
		Rets []RetPair
	}

	RetPair struct {
		VReg Reg
		PReg PReg
	}

	// DummyUse keeps Reg alive up to this point.
	DummyUse struct {
		Reg Reg
	}

	Nop struct{}

	// EmitIsland asks for an island of SpaceNeeded bytes to be emitted if pending fixups need one.
	EmitIsland struct {
		SpaceNeeded uint32
	}

	// GetSpecial copies a non-allocatable register into an allocatable one.
	GetSpecial struct {
		Dst Writable[XReg]
		Reg XReg
	}

	LoadExtName struct {
		Dst    Writable[XReg]
		Name   ExtName
		Offset int64
	}

	Jump struct {
		Label Label
	}

	BrIf struct {
		Cond     Cond
		Taken    Label
		NotTaken Label
	}

	// BrTable jumps to Targets[Idx], or to Default if Idx is out of range.
	BrTable struct {
		Idx     XReg
		Default Label
		Targets []Label
	}

	TrapIf struct {
		Cond Cond
		Code TrapCode
	}

	Call struct {
		Info *CallInfo[PulleyCall]
	}

	IndirectCall struct {
		Info *CallInfo[XReg]
	}

	// IndirectCallHost calls out of the interpreter into a host function.
	IndirectCallHost struct {
		Info *CallInfo[ExtName]
	}

	ReturnCall struct {
		Info *ReturnCallInfo[ExtName]
	}

	ReturnIndirectCall struct {
		Info *ReturnCallInfo[XReg]
	}

	XLoad struct {
		Dst   Writable[XReg]
		Mem   Amode
		Type  tp.Type
		Flags MemFlags
		Ext   ExtKind
	}

	XStore struct {
		Mem   Amode
		Src   XReg
		Type  tp.Type
		Flags MemFlags
	}

	FLoad struct {
		Dst   Writable[FReg]
		Mem   Amode
		Type  tp.Type
		Flags MemFlags
	}

	FStore struct {
		Mem   Amode
		Src   FReg
		Type  tp.Type
		Flags MemFlags
	}

	VLoad struct {
		Dst   Writable[VReg]
		Mem   Amode
		Type  tp.Type
		Flags MemFlags
	}

	VStore struct {
		Mem   Amode
		Src   VReg
		Type  tp.Type
		Flags MemFlags
	}

	// LoadAddr computes the address of Mem without accessing it.
	LoadAddr struct {
		Dst Writable[XReg]
		Mem Amode
	}

	// Raw is an instruction from the opcode table.
	Raw struct {
		Raw RawInst
	}

	// UnsupportedTypeError is returned for value types this target cannot hold in registers.
	UnsupportedTypeError struct {
		Type tp.Type
	}

	FunctionAlignment struct {
		Minimum   uint32
		Preferred uint32
	}
)

// WorstCaseSize is the longest encoding of any single instruction:
// a 3 byte opcode, three registers and a 16 byte immediate.
const WorstCaseSize = 22

func (*Args) inst()               {}
func (*Rets) inst()               {}
func (*DummyUse) inst()           {}
func (*Nop) inst()                {}
func (*EmitIsland) inst()         {}
func (*GetSpecial) inst()         {}
func (*LoadExtName) inst()        {}
func (*Jump) inst()               {}
func (*BrIf) inst()               {}
func (*BrTable) inst()            {}
func (*TrapIf) inst()             {}
func (*Call) inst()               {}
func (*IndirectCall) inst()       {}
func (*IndirectCallHost) inst()   {}
func (*ReturnCall) inst()         {}
func (*ReturnIndirectCall) inst() {}
func (*XLoad) inst()              {}
func (*XStore) inst()             {}
func (*FLoad) inst()              {}
func (*FStore) inst()             {}
func (*VLoad) inst()              {}
func (*VStore) inst()             {}
func (*LoadAddr) inst()           {}
func (*Raw) inst()                {}

// GenLoad picks the load for ty: integers zero-extend.
func GenLoad(dst Writable[Reg], mem Amode, ty tp.Type, flags MemFlags) Inst {
	switch {
	case tp.IsVector(ty):
		if ty.Size() != 16 {
			panic(fmt.Sprintf("vector load of %v: only 128-bit vectors are supported", ty))
		}

		return &VLoad{Dst: WritableFrom(MustVecReg(dst.reg)), Mem: mem, Type: ty, Flags: flags}
	case tp.IsInt(ty):
		if ty.Size() > 8 {
			panic(fmt.Sprintf("integer load of %v: wider than 64 bits", ty))
		}

		return &XLoad{Dst: WritableFrom(MustXReg(dst.reg)), Mem: mem, Type: ty, Flags: flags, Ext: ExtZero}
	default:
		return &FLoad{Dst: WritableFrom(MustFReg(dst.reg)), Mem: mem, Type: ty, Flags: flags}
	}
}

func GenStore(mem Amode, src Reg, ty tp.Type, flags MemFlags) Inst {
	switch {
	case tp.IsVector(ty):
		if ty.Size() != 16 {
			panic(fmt.Sprintf("vector store of %v: only 128-bit vectors are supported", ty))
		}

		return &VStore{Mem: mem, Src: MustVecReg(src), Type: ty, Flags: flags}
	case tp.IsInt(ty):
		if ty.Size() > 8 {
			panic(fmt.Sprintf("integer store of %v: wider than 64 bits", ty))
		}

		return &XStore{Mem: mem, Src: MustXReg(src), Type: ty, Flags: flags}
	default:
		return &FStore{Mem: mem, Src: MustFReg(src), Type: ty, Flags: flags}
	}
}

// GenMove copies a register holding a value of ty.
func GenMove(dst Writable[Reg], src Reg, ty tp.Type) Inst {
	switch ty {
	case tp.I8, tp.I16, tp.I32, tp.I64:
		return &Raw{Raw: NewXmov(WritableFrom(MustXReg(dst.reg)), MustXReg(src))}
	case tp.F32, tp.F64:
		return &Raw{Raw: NewFmov(WritableFrom(MustFReg(dst.reg)), MustFReg(src))}
	}

	if tp.IsVector(ty) {
		return &Raw{Raw: NewVmov(WritableFrom(MustVecReg(dst.reg)), MustVecReg(src))}
	}

	panic(fmt.Sprintf("don't know how to generate a move for type %v", ty))
}

func GenDummyUse(r Reg) Inst { return &DummyUse{Reg: r} }

func GenJump(l Label) Inst { return &Jump{Label: l} }

// GenNop returns the single nop instruction whatever the preferred size is.
// Callers padding further repeat it.
func GenNop(_ int) Inst { return &Nop{} }

var (
	rcInt    = []RegClass{ClassInt}
	rcFloat  = []RegClass{ClassFloat}
	rcVector = []RegClass{ClassVector}
	rcInt2   = []RegClass{ClassInt, ClassInt}

	tyI8   = []tp.Type{tp.I8}
	tyI16  = []tp.Type{tp.I16}
	tyI32  = []tp.Type{tp.I32}
	tyI64  = []tp.Type{tp.I64}
	tyF32  = []tp.Type{tp.F32}
	tyF64  = []tp.Type{tp.F64}
	tyI128 = []tp.Type{tp.I64, tp.I64}

	// Spill types for vectors by byte size 2, 4, ..., 64.
	// Lane counts stay within 31 so they fit a small immediate.
	simdTypes = [...][]tp.Type{
		{tp.I8X2},
		{tp.I8X4},
		{tp.I8X8},
		{tp.I8X16},
		{tp.I16X16},
		{tp.I32X16},
	}
)

// RCForType returns the register classes holding a value of ty
// and the type each of them is spilled as.
func RCForType(ty tp.Type) ([]RegClass, []tp.Type, error) {
	switch ty {
	case tp.I8:
		return rcInt, tyI8, nil
	case tp.I16:
		return rcInt, tyI16, nil
	case tp.I32:
		return rcInt, tyI32, nil
	case tp.I64:
		return rcInt, tyI64, nil
	case tp.F32:
		return rcFloat, tyF32, nil
	case tp.F64:
		return rcFloat, tyF64, nil
	case tp.I128:
		return rcInt2, tyI128, nil
	}

	if tp.IsVector(ty) {
		n := ty.Size()

		for i, l := 0, 2; i < len(simdTypes); i, l = i+1, l*2 {
			if n == l {
				return rcVector, simdTypes[i], nil
			}
		}
	}

	return nil, nil, &UnsupportedTypeError{Type: ty}
}

func CanonicalTypeForRC(rc RegClass) tp.Type {
	switch rc {
	case ClassInt:
		return tp.I64
	case ClassFloat:
		return tp.F64
	case ClassVector:
		return tp.I8X16
	default:
		panic(rc)
	}
}

func RefTypeRegClass() RegClass { return ClassInt }

func Alignment() FunctionAlignment {
	return FunctionAlignment{Minimum: 1, Preferred: 1}
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unexpected SSA-value type: %v", e.Type)
}
