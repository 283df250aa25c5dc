package pulley

import "fmt"

// Terminator is the control flow role of an instruction ending a block.
type Terminator uint8

const (
	TermNone Terminator = iota
	TermBranch
	TermRet
	TermRetCall
)

func IsTerm(x Inst) Terminator {
	switch x := x.(type) {
	case *Rets:
		return TermRet
	case *Raw:
		if x.Raw.Op == RawRet {
			return TermRet
		}

		return TermNone
	case *Jump, *BrIf, *BrTable:
		return TermBranch
	case *ReturnCall, *ReturnIndirectCall:
		return TermRetCall
	case *Call:
		return callTerm(x.Info.TryCall)
	case *IndirectCall:
		return callTerm(x.Info.TryCall)
	case *IndirectCallHost:
		return callTerm(x.Info.TryCall)
	case *Args, *DummyUse, *Nop, *EmitIsland, *GetSpecial, *LoadExtName, *TrapIf,
		*XLoad, *XStore, *FLoad, *FStore, *VLoad, *VStore, *LoadAddr:
		return TermNone
	default:
		panic(fmt.Sprintf("is term: unexpected instruction %T", x))
	}
}

func callTerm(t *TryCallInfo) Terminator {
	if t != nil {
		return TermBranch
	}

	return TermNone
}

// BranchTargets returns the labels control may continue at after x,
// other than falling through.
func BranchTargets(x Inst) []Label {
	switch x := x.(type) {
	case *Jump:
		return []Label{x.Label}
	case *BrIf:
		return []Label{x.Taken, x.NotTaken}
	case *BrTable:
		return append([]Label{x.Default}, x.Targets...)
	case *Call:
		return tryTargets(x.Info.TryCall)
	case *IndirectCall:
		return tryTargets(x.Info.TryCall)
	case *IndirectCallHost:
		return tryTargets(x.Info.TryCall)
	default:
		return nil
	}
}

func tryTargets(t *TryCallInfo) []Label {
	if t == nil {
		return nil
	}

	return t.Targets()
}

// IsSafepoint reports whether the collector may run at x.
func IsSafepoint(x Inst) bool {
	switch x := x.(type) {
	case *Raw:
		return x.Raw.Op == RawTrap
	case *Call, *IndirectCall, *IndirectCallHost:
		return true
	default:
		return false
	}
}

// IsMove returns the registers of a plain register copy the allocator may coalesce.
func IsMove(x Inst) (dst Writable[Reg], src Reg, ok bool) {
	r, ok := x.(*Raw)
	if !ok || r.Raw.Op != RawXmov {
		return dst, src, false
	}

	return r.Raw.Dst, r.Raw.Src[0], true
}

func IsArgs(x Inst) bool {
	_, ok := x.(*Args)
	return ok
}

func IsTrap(x Inst) bool {
	r, ok := x.(*Raw)
	return ok && r.Raw.Op == RawTrap
}

// IsIncludedInClobbers is false only for Args, which merely seeds the allocator.
func IsIncludedInClobbers(x Inst) bool {
	return !IsArgs(x)
}

func IsMemAccess(x Inst) bool {
	switch x.(type) {
	case *XLoad, *XStore, *FLoad, *FStore, *VLoad, *VStore:
		return true
	default:
		return false
	}
}

func (t Terminator) String() string {
	switch t {
	case TermNone:
		return "none"
	case TermBranch:
		return "branch"
	case TermRet:
		return "ret"
	case TermRetCall:
		return "ret_call"
	default:
		return fmt.Sprintf("term(%d)", uint8(t))
	}
}
