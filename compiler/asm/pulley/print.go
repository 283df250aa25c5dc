package pulley

import (
	"fmt"
	"strings"

	"github.com/slowlang/pulley/compiler/tp"
)

// Print renders x as one line of text, or panics on an unknown instruction.
// The format is meant for people and golden tests and may change.
func Print(x Inst) string {
	switch x.(type) {
	case *Args, *Rets, *DummyUse, *Nop, *EmitIsland, *GetSpecial, *LoadExtName,
		*Jump, *BrIf, *BrTable, *TrapIf,
		*Call, *IndirectCall, *IndirectCallHost, *ReturnCall, *ReturnIndirectCall,
		*XLoad, *XStore, *FLoad, *FStore, *VLoad, *VStore, *LoadAddr, *Raw:
		return x.String()
	default:
		panic(fmt.Sprintf("print: unexpected instruction %T", x))
	}
}

func (x *Args) String() string {
	var b strings.Builder

	b.WriteString("args")

	for _, a := range x.Args {
		fmt.Fprintf(&b, " %v=%v", a.VReg, a.PReg)
	}

	return b.String()
}

func (x *Rets) String() string {
	var b strings.Builder

	b.WriteString("rets")

	for _, r := range x.Rets {
		fmt.Fprintf(&b, " %v=%v", r.VReg, r.PReg)
	}

	return b.String()
}

func (x *DummyUse) String() string { return fmt.Sprintf("dummy_use %v", x.Reg) }

func (x *Nop) String() string { return "nop" }

func (x *EmitIsland) String() string { return fmt.Sprintf("emit_island %d", x.SpaceNeeded) }

func (x *GetSpecial) String() string { return fmt.Sprintf("xmov %v, %v", x.Dst, x.Reg) }

func (x *LoadExtName) String() string {
	return fmt.Sprintf("%v = load_ext_name %v, %d", x.Dst, x.Name, x.Offset)
}

func (x *Jump) String() string { return fmt.Sprintf("jump %v", x.Label) }

func (x *BrIf) String() string {
	return fmt.Sprintf("br_%v, %v; jump %v", x.Cond, x.Taken, x.NotTaken)
}

func (x *BrTable) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "br_table %v %v [", x.Idx, x.Default)

	for i, l := range x.Targets {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(l.String())
	}

	b.WriteString("]")

	return b.String()
}

func (x *TrapIf) String() string {
	return fmt.Sprintf("trap_%v // code = %v", x.Cond, x.Code)
}

func (x *Call) String() string {
	return fmt.Sprintf("call %v%v", x.Info, tryString(x.Info.TryCall))
}

func (x *IndirectCall) String() string {
	return fmt.Sprintf("indirect_call %v%v", x.Info, tryString(x.Info.TryCall))
}

func (x *IndirectCallHost) String() string {
	return fmt.Sprintf("indirect_call_host %v%v", x.Info, tryString(x.Info.TryCall))
}

func (x *ReturnCall) String() string {
	return fmt.Sprintf("return_call %v", x.Info)
}

func (x *ReturnIndirectCall) String() string {
	return fmt.Sprintf("return_indirect_call %v", x.Info)
}

func tryString(t *TryCallInfo) string {
	if t == nil {
		return ""
	}

	return t.String()
}

func (x *XLoad) String() string {
	sfx := ""
	if x.Ext == ExtSign && tp.Bits(x.Type) < 64 {
		sfx = "_s"
	}

	return fmt.Sprintf("%v = xload%d%s %v // flags =%v", x.Dst, tp.Bits(x.Type), sfx, x.Mem, x.Flags)
}

func (x *XStore) String() string {
	return fmt.Sprintf("xstore%d %v, %v // flags =%v", tp.Bits(x.Type), x.Mem, x.Src, x.Flags)
}

func (x *FLoad) String() string {
	return fmt.Sprintf("%v = fload%d %v // flags =%v", x.Dst, tp.Bits(x.Type), x.Mem, x.Flags)
}

func (x *FStore) String() string {
	return fmt.Sprintf("fstore%d %v, %v // flags =%v", tp.Bits(x.Type), x.Mem, x.Src, x.Flags)
}

func (x *VLoad) String() string {
	return fmt.Sprintf("%v = vload%d %v // flags =%v", x.Dst, tp.Bits(x.Type), x.Mem, x.Flags)
}

func (x *VStore) String() string {
	return fmt.Sprintf("vstore%d %v, %v // flags =%v", tp.Bits(x.Type), x.Mem, x.Src, x.Flags)
}

func (x *LoadAddr) String() string {
	return fmt.Sprintf("%v = load_addr %v", x.Dst, x.Mem)
}

func (x *Raw) String() string { return x.Raw.String() }
