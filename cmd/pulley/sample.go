package main

import (
	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/back"
	"github.com/slowlang/pulley/compiler/tp"
)

var (
	sumName    = pulley.UserName(0, 0)
	doubleName = pulley.UserName(0, 1)
)

// sampleFuncs builds two functions in virtual registers:
//
//	sum(n, step) { s := 0; for i := 0; i < n; i += step { s += i }; return double(s) }
//	double(x) { return x + x }
func sampleFuncs() []*back.Func {
	return []*back.Func{sampleSum(), sampleDouble()}
}

func sampleSum() *back.Func {
	vx := func(n int) pulley.XReg { return pulley.XReg(pulley.NewVReg(n, pulley.ClassInt)) }
	wx := func(n int) pulley.Writable[pulley.Reg] { return pulley.WritableFrom(pulley.NewVReg(n, pulley.ClassInt)) }

	n, step, s, i, r, base := vx(0), vx(1), vx(2), vx(3), vx(4), vx(5)

	call := &pulley.Call{Info: &pulley.CallInfo[pulley.PulleyCall]{
		Dest: pulley.NewPulleyCall(doubleName, s),
		Defs: []pulley.CallRetPair{
			{VReg: wx(4), Location: pulley.RetReg(pulley.ArgReg(0), tp.I64)},
		},
		Clobbers: pulley.CallerSaved(),
	}}

	return &back.Func{
		Name: sumName,
		Blocks: []back.Block{{
			Label: 0,
			Insts: []pulley.Inst{
				&pulley.Args{Args: []pulley.ArgPair{
					{VReg: wx(0), PReg: pulley.ArgReg(0)},
					{VReg: wx(1), PReg: pulley.ArgReg(1)},
				}},
				&pulley.Raw{Raw: pulley.NewXconst64(pulley.WritableFrom(s), 0)},
				&pulley.Raw{Raw: pulley.NewXconst64(pulley.WritableFrom(i), 0)},
				&pulley.LoadExtName{Dst: pulley.WritableFrom(base), Name: pulley.LibCall("scratch"), Offset: 8},
				&pulley.XStore{Mem: pulley.RegOffset(base, 0), Src: n, Type: tp.I64, Flags: pulley.MemTrusted},
				pulley.GenJump(1),
			},
		}, {
			Label: 1,
			Insts: []pulley.Inst{
				&pulley.BrIf{Cond: pulley.IfXcmp(pulley.CmpSlt, true, i, n), Taken: 2, NotTaken: 3},
			},
		}, {
			Label: 2,
			Insts: []pulley.Inst{
				&pulley.Raw{Raw: pulley.NewBinary(pulley.RawXadd64, wx(2), s.Reg(), i.Reg())},
				&pulley.Raw{Raw: pulley.NewBinary(pulley.RawXadd64, wx(3), i.Reg(), step.Reg())},
				pulley.GenJump(1),
			},
		}, {
			Label: 3,
			Insts: []pulley.Inst{
				call,
				&pulley.TrapIf{Cond: pulley.IfXcmpImm(pulley.CmpSlt, true, r, 0), Code: pulley.TrapIntegerOverflow},
				&pulley.Rets{Rets: []pulley.RetPair{{VReg: r.Reg(), PReg: pulley.ArgReg(0)}}},
				&pulley.Raw{Raw: pulley.NewRet()},
			},
		}},
	}
}

func sampleDouble() *back.Func {
	x := pulley.NewVReg(0, pulley.ClassInt)
	y := pulley.NewVReg(1, pulley.ClassInt)

	return &back.Func{
		Name: doubleName,
		Blocks: []back.Block{{
			Label: 0,
			Insts: []pulley.Inst{
				&pulley.Args{Args: []pulley.ArgPair{{VReg: pulley.WritableFrom(x), PReg: pulley.ArgReg(0)}}},
				&pulley.Raw{Raw: pulley.NewBinary(pulley.RawXadd64, pulley.WritableFrom(y), x, x)},
				&pulley.Rets{Rets: []pulley.RetPair{{VReg: y, PReg: pulley.ArgReg(0)}}},
				&pulley.Raw{Raw: pulley.NewRet()},
			},
		}},
	}
}
