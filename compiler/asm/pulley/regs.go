package pulley

import (
	"fmt"
	"strings"

	"github.com/slowlang/pulley/compiler/set"
)

type (
	RegClass uint8

	// PReg is a physical register: class in the top two bits, hardware number below.
	PReg uint8

	// Reg is either a virtual or a physical register.
	// The first NumPRegs indexes are pinned to physical registers.
	Reg uint32

	// XReg, FReg and VReg are class-checked views of Reg.
	XReg Reg
	FReg Reg
	VReg Reg

	// Writable marks a register as being defined by an instruction.
	Writable[R ~uint32] struct {
		reg R
	}

	PRegSet struct {
		s set.Small[PReg]
	}
)

const (
	ClassInt RegClass = iota
	ClassFloat
	ClassVector

	numClasses = 3
)

const (
	RegsPerClass = 64
	NumPRegs     = numClasses * RegsPerClass

	InvalidReg = Reg(^uint32(0))
)

// Special registers. They never take part in register allocation.
const (
	hwTmp1 = 59 + iota
	hwTmp0
	hwFP
	hwLR
	hwSP
)

const (
	// NumArgRegs is how many integer arguments are passed in registers: x0..x14.
	NumArgRegs = 15

	// x15 is the only caller-saved register that never carries an argument.
	hwReturnCallReg = 15

	// x0..x15, f0..f15 and v0..v15 are caller-saved.
	numCallerSaved = 16
)

func NewPReg(hw uint8, class RegClass) PReg {
	if hw >= RegsPerClass || class >= numClasses {
		panic(fmt.Sprintf("bad preg: %v %d", class, hw))
	}

	return PReg(uint8(class)<<6 | hw)
}

func (p PReg) Class() RegClass { return RegClass(p >> 6) }

func (p PReg) HW() uint8 { return uint8(p) & (RegsPerClass - 1) }

func (p PReg) Reg() Reg { return Reg(uint32(p)<<2 | uint32(p.Class())) }

func (p PReg) IsSpecial() bool {
	return p.Class() == ClassInt && p.HW() >= hwTmp1
}

func (p PReg) String() string { return RegName(p.Reg()) }

func NewVReg(n int, class RegClass) Reg {
	if n < 0 || class >= numClasses {
		panic(fmt.Sprintf("bad vreg: %v %d", class, n))
	}

	return Reg(uint32(NumPRegs+n)<<2 | uint32(class))
}

func (r Reg) Class() RegClass { return RegClass(r & 3) }

func (r Reg) Valid() bool { return r != InvalidReg && r.Class() < numClasses }

func (r Reg) Real() (PReg, bool) {
	i := uint32(r) >> 2
	if !r.Valid() || i >= NumPRegs {
		return 0, false
	}

	return PReg(i), true
}

func (r Reg) IsVirtual() bool {
	_, ok := r.Real()
	return r.Valid() && !ok
}

// VirtualIndex returns the number r was created with by NewVReg.
func (r Reg) VirtualIndex() int {
	return int(uint32(r)>>2) - NumPRegs
}

func (r Reg) IsSpecial() bool {
	p, ok := r.Real()
	return ok && p.IsSpecial()
}

func (r Reg) String() string { return RegName(r) }

func (r *Reg) ptr() *Reg { return r }

func NewXReg(r Reg) (XReg, bool) { return XReg(r), r.Class() == ClassInt }
func NewFReg(r Reg) (FReg, bool) { return FReg(r), r.Class() == ClassFloat }
func NewVecReg(r Reg) (VReg, bool) {
	return VReg(r), r.Class() == ClassVector
}

func MustXReg(r Reg) XReg {
	x, ok := NewXReg(r)
	if !ok {
		panic(fmt.Sprintf("not an x register: %v", r))
	}

	return x
}

func MustFReg(r Reg) FReg {
	x, ok := NewFReg(r)
	if !ok {
		panic(fmt.Sprintf("not an f register: %v", r))
	}

	return x
}

func MustVecReg(r Reg) VReg {
	x, ok := NewVecReg(r)
	if !ok {
		panic(fmt.Sprintf("not a v register: %v", r))
	}

	return x
}

func (r XReg) Reg() Reg { return Reg(r) }
func (r FReg) Reg() Reg { return Reg(r) }
func (r VReg) Reg() Reg { return Reg(r) }

func (r XReg) IsSpecial() bool { return Reg(r).IsSpecial() }

func (r XReg) String() string { return RegName(Reg(r)) }
func (r FReg) String() string { return RegName(Reg(r)) }
func (r VReg) String() string { return RegName(Reg(r)) }

func (r *XReg) ptr() *Reg { return (*Reg)(r) }
func (r *FReg) ptr() *Reg { return (*Reg)(r) }
func (r *VReg) ptr() *Reg { return (*Reg)(r) }

func WritableFrom[R ~uint32](r R) Writable[R] {
	return Writable[R]{reg: r}
}

func (w Writable[R]) ToReg() R { return w.reg }

func (w Writable[R]) String() string { return RegName(Reg(w.reg)) }

func X(hw uint8) XReg { return XReg(NewPReg(hw, ClassInt).Reg()) }
func F(hw uint8) FReg { return FReg(NewPReg(hw, ClassFloat).Reg()) }
func V(hw uint8) VReg { return VReg(NewPReg(hw, ClassVector).Reg()) }

func SP() XReg   { return X(hwSP) }
func LR() XReg   { return X(hwLR) }
func FP() XReg   { return X(hwFP) }
func Tmp0() XReg { return X(hwTmp0) }
func Tmp1() XReg { return X(hwTmp1) }

// ReturnCallReg holds the callee of an indirect tail call.
func ReturnCallReg() PReg { return NewPReg(hwReturnCallReg, ClassInt) }

// ArgReg is the fixed register of the i-th integer argument.
func ArgReg(i int) PReg {
	if i < 0 || i >= NumArgRegs {
		panic(i)
	}

	return NewPReg(uint8(i), ClassInt)
}

func CallerSaved() (s PRegSet) {
	for c := RegClass(0); c < numClasses; c++ {
		for hw := uint8(0); hw < numCallerSaved; hw++ {
			s.Add(NewPReg(hw, c))
		}
	}

	return s
}

// RegName renders a register the way the pretty-printer shows it.
func RegName(r Reg) string {
	p, ok := r.Real()
	if !ok {
		if !r.Valid() {
			return "invalid"
		}

		return fmt.Sprintf("v%d%c", r.VirtualIndex(), "ifv"[r.Class()])
	}

	n := p.HW()

	switch {
	case p.Class() == ClassInt && n == hwSP:
		return "sp"
	case p.Class() == ClassInt && n == hwLR:
		return "lr"
	case p.Class() == ClassInt && n == hwFP:
		return "fp"
	case p.Class() == ClassInt && n == hwTmp0:
		return "tmp0"
	case p.Class() == ClassInt && n == hwTmp1:
		return "tmp1"
	case p.Class() == ClassInt:
		return fmt.Sprintf("x%d", n)
	case p.Class() == ClassFloat:
		return fmt.Sprintf("f%d", n)
	default:
		return fmt.Sprintf("v%d", n)
	}
}

func (c RegClass) String() string {
	switch c {
	case ClassInt:
		return "int"
	case ClassFloat:
		return "float"
	case ClassVector:
		return "vector"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

func NewPRegSet(p ...PReg) PRegSet {
	return PRegSet{s: set.MakeSmall(p...)}
}

func (s *PRegSet) Add(p PReg) { s.s.Set(p) }

func (s *PRegSet) Remove(p PReg) { s.s.Clear(p) }

func (s PRegSet) Contains(p PReg) bool { return s.s.IsSet(p) }

func (s PRegSet) Union(x PRegSet) PRegSet { return PRegSet{s: s.s.Union(x.s)} }

func (s PRegSet) Len() int { return s.s.Size() }

func (s PRegSet) Range(f func(p PReg) bool) { s.s.Range(f) }

func (s PRegSet) Slice() []PReg { return s.s.Slice() }

func (s PRegSet) String() string {
	var b strings.Builder

	b.WriteByte('{')

	s.s.Range(func(p PReg) bool {
		if b.Len() > 1 {
			b.WriteString(", ")
		}

		b.WriteString(p.String())

		return true
	})

	b.WriteByte('}')

	return b.String()
}

func (s PRegSet) TlogAppend(b []byte) []byte {
	return s.s.TlogAppend(b)
}
