package pulley

import "github.com/slowlang/pulley/compiler/tp"

type (
	PointerWidth uint8

	// TargetKind selects 32- or 64-bit pulley bytecode at compile time.
	// Implementations are empty structs.
	TargetKind interface {
		PointerWidth() PointerWidth
	}

	Pulley32 struct{}
	Pulley64 struct{}

	// MachInst is the view of an instruction the target-independent passes use.
	MachInst interface {
		IsSafepoint() bool
		GetOperands(v OperandVisitor)
		IsMove() (Writable[Reg], Reg, bool)
		IsIncludedInClobbers() bool
		IsTrap() bool
		IsArgs() bool
		IsTerm() Terminator
		IsMemAccess() bool
		String() string
	}

	// InstAndKind is an Inst tagged with the target width.
	// P carries no data.
	InstAndKind[P TargetKind] struct {
		Inst Inst
	}
)

const (
	PointerWidth32 PointerWidth = 32
	PointerWidth64 PointerWidth = 64
)

var (
	_ MachInst = InstAndKind[Pulley32]{}
	_ MachInst = InstAndKind[Pulley64]{}
)

func (Pulley32) PointerWidth() PointerWidth { return PointerWidth32 }
func (Pulley64) PointerWidth() PointerWidth { return PointerWidth64 }

func (w PointerWidth) Bytes() int { return int(w) / 8 }

// PointerType is the integer type of addresses on target P.
func PointerType[P TargetKind]() tp.Type {
	var p P

	if p.PointerWidth() == PointerWidth32 {
		return tp.I32
	}

	return tp.I64
}

func Wrap[P TargetKind](x Inst) InstAndKind[P] {
	return InstAndKind[P]{Inst: x}
}

func WrapAll[P TargetKind](xs []Inst) []InstAndKind[P] {
	r := make([]InstAndKind[P], len(xs))

	for i, x := range xs {
		r[i] = InstAndKind[P]{Inst: x}
	}

	return r
}

func (x InstAndKind[P]) IsSafepoint() bool { return IsSafepoint(x.Inst) }

func (x InstAndKind[P]) GetOperands(v OperandVisitor) { GetOperands(x.Inst, v) }

func (x InstAndKind[P]) IsMove() (Writable[Reg], Reg, bool) { return IsMove(x.Inst) }

func (x InstAndKind[P]) IsIncludedInClobbers() bool { return IsIncludedInClobbers(x.Inst) }

func (x InstAndKind[P]) IsTrap() bool { return IsTrap(x.Inst) }

func (x InstAndKind[P]) IsArgs() bool { return IsArgs(x.Inst) }

func (x InstAndKind[P]) IsTerm() Terminator { return IsTerm(x.Inst) }

func (x InstAndKind[P]) IsMemAccess() bool { return IsMemAccess(x.Inst) }

func (x InstAndKind[P]) String() string { return Print(x.Inst) }
