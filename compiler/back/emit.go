package back

import (
	"context"
	"fmt"

	"tlog.app/go/tlog"

	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/asm/pulley/bytecode"
	"github.com/slowlang/pulley/compiler/tp"
)

type (
	// Func is one function after register allocation and block layout.
	Func struct {
		Name   pulley.ExtName
		Blocks []Block
		Frame  Frame
	}

	// Block starts at Label. Blocks are emitted in order.
	Block struct {
		Label pulley.Label
		Insts []pulley.Inst
	}

	// Frame resolves stack addressing modes into sp offsets.
	// From sp upwards: outgoing arguments, spill slots, the rest of the frame up to Size,
	// then the incoming arguments.
	Frame struct {
		OutgoingArgs int64
		Size         int64
	}

	Emitter[P pulley.TargetKind] struct {
		b *Buffer
		f *Func

		next pulley.Label
		last bool
	}
)

// EmitFunc encodes f into b.
// Every register must be physical by now.
func EmitFunc[P pulley.TargetKind](ctx context.Context, b *Buffer, f *Func) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: emit func", "name", f.Name, "blocks", len(f.Blocks))
	defer tr.Finish("err", &err)

	e := &Emitter[P]{b: b, f: f}

	for i, bl := range f.Blocks {
		e.last = i+1 == len(f.Blocks)
		if !e.last {
			e.next = f.Blocks[i+1].Label
		}

		b.BindLabel(bl.Label)

		for _, x := range bl.Insts {
			off := b.Offset()

			e.emit(x)

			if tr.If("dump_insts") {
				tr.Printw("inst", "block", bl.Label, "off", off, "size", b.Offset()-off, "inst", pulley.Print(x))
			}
		}
	}

	return nil
}

func (e *Emitter[P]) emit(x pulley.Inst) {
	b := e.b
	start := b.Offset()

	switch x := x.(type) {
	case *pulley.Args, *pulley.Rets, *pulley.DummyUse:
	case *pulley.Nop:
		b.Append(bytecode.AppendExtOp(nil, bytecode.ExtNop)...)
	case *pulley.EmitIsland:
		b.Island(x.SpaceNeeded)
	case *pulley.GetSpecial:
		p := bytecode.AppendExtOp(nil, bytecode.ExtXmovSpecial)
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg().Reg()))
		p = bytecode.AppendReg(p, hw(x.Reg.Reg()))
		b.Append(p...)
	case *pulley.LoadExtName:
		p := bytecode.AppendOp(nil, bytecode.XconstAddr)
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg().Reg()))

		kind := pulley.RelocAbs8
		if pulley.PointerType[P]() == tp.I32 {
			kind = pulley.RelocAbs4
			p = append(p, 0, 0, 0, 0)
		} else {
			p = append(p, 0, 0, 0, 0, 0, 0, 0, 0)
		}

		b.Append(p...)
		b.AddReloc(start+2, kind, x.Name, x.Offset)
	case *pulley.Jump:
		e.jump(x.Label)
	case *pulley.BrIf:
		if !e.last && x.Taken == e.next && x.NotTaken != e.next {
			e.branch(x.Cond.Invert(), x.NotTaken)
			break
		}

		e.branch(x.Cond, x.Taken)
		e.jump(x.NotTaken)
	case *pulley.BrTable:
		p := bytecode.AppendOp(nil, bytecode.BrTable32)
		p = bytecode.AppendReg(p, hw(x.Idx.Reg()))
		p = bytecode.AppendU32(p, uint32(len(x.Targets)+1))
		b.Append(p...)

		for _, l := range append(x.Targets[:len(x.Targets):len(x.Targets)], x.Default) {
			w := b.Offset()
			b.Append(bytecode.AppendPCRel(nil)...)
			b.UseLabelAt(w, l, pulley.JumpUse(w-start))
		}
	case *pulley.TrapIf:
		p := appendCond(nil, x.Cond.Invert())
		skip := len(p) + bytecode.PCRelSize + len(pulley.TrapOpcode)
		p = bytecode.AppendI32(p, int32(skip))
		b.Append(p...)

		b.AddTrap(b.Offset(), x.Code)
		b.Append(pulley.TrapOpcode[:]...)
	case *pulley.Call:
		p := bytecode.AppendOp(nil, bytecode.Call+bytecode.Opcode(len(x.Info.Dest.Args)))
		for _, a := range x.Info.Dest.Args {
			p = bytecode.AppendReg(p, hw(a.Reg()))
		}

		e.callRel(p, x.Info.Dest.Name)
		e.tryCall(x.Info.TryCall)
	case *pulley.IndirectCall:
		p := bytecode.AppendOp(nil, bytecode.CallIndirect)
		p = bytecode.AppendReg(p, hw(x.Info.Dest.Reg()))
		b.Append(p...)

		e.tryCall(x.Info.TryCall)
	case *pulley.IndirectCallHost:
		p := bytecode.AppendExtOp(nil, bytecode.ExtCallIndirectHost)
		w := start + uint32(len(p))
		p = bytecode.AppendU32(p, 0)
		b.Append(p...)
		b.AddReloc(w, pulley.RelocAbs4, x.Info.Dest, 0)

		e.tryCall(x.Info.TryCall)
	case *pulley.ReturnCall:
		e.callRel(bytecode.AppendOp(nil, bytecode.Jump), x.Info.Dest)
	case *pulley.ReturnIndirectCall:
		p := bytecode.AppendOp(nil, bytecode.XJump)
		p = bytecode.AppendReg(p, hw(x.Info.Dest.Reg()))
		b.Append(p...)
	case *pulley.XLoad:
		p := bytecode.AppendOp(nil, xloadOp(x.Type, x.Ext))
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg().Reg()))
		p = e.appendAmode(p, x.Mem)
		b.Append(p...)
	case *pulley.XStore:
		p := bytecode.AppendOp(nil, xstoreOp(x.Type))
		p = e.appendAmode(p, x.Mem)
		p = bytecode.AppendReg(p, hw(x.Src.Reg()))
		b.Append(p...)
	case *pulley.FLoad:
		op := bytecode.Fload64
		if x.Type == tp.F32 {
			op = bytecode.Fload32
		}

		p := bytecode.AppendOp(nil, op)
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg().Reg()))
		p = e.appendAmode(p, x.Mem)
		b.Append(p...)
	case *pulley.FStore:
		op := bytecode.Fstore64
		if x.Type == tp.F32 {
			op = bytecode.Fstore32
		}

		p := bytecode.AppendOp(nil, op)
		p = e.appendAmode(p, x.Mem)
		p = bytecode.AppendReg(p, hw(x.Src.Reg()))
		b.Append(p...)
	case *pulley.VLoad:
		p := bytecode.AppendExtOp(nil, bytecode.ExtVload128)
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg().Reg()))
		p = e.appendAmode(p, x.Mem)
		b.Append(p...)
	case *pulley.VStore:
		p := bytecode.AppendExtOp(nil, bytecode.ExtVstore128)
		p = e.appendAmode(p, x.Mem)
		p = bytecode.AppendReg(p, hw(x.Src.Reg()))
		b.Append(p...)
	case *pulley.LoadAddr:
		p := bytecode.AppendOp(nil, bytecode.XloadAddr)
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg().Reg()))
		p = e.appendAmode(p, x.Mem)
		b.Append(p...)
	case *pulley.Raw:
		e.raw(&x.Raw)
	default:
		panic(fmt.Sprintf("emit: unexpected instruction %T", x))
	}
}

// jump to l, unless l is the next block.
func (e *Emitter[P]) jump(l pulley.Label) {
	if !e.last && l == e.next {
		return
	}

	b := e.b
	start := b.Offset()

	b.Append(byte(bytecode.Jump))
	b.Append(bytecode.AppendPCRel(nil)...)
	b.UseLabelAt(start+1, l, pulley.JumpUse(1))
}

func (e *Emitter[P]) branch(c pulley.Cond, l pulley.Label) {
	b := e.b
	start := b.Offset()

	p := appendCond(nil, c)
	w := start + uint32(len(p))

	b.Append(bytecode.AppendPCRel(p)...)
	b.UseLabelAt(w, l, pulley.JumpUse(w-start))
}

// callRel emits p followed by a relative reference to name.
// The relocation addend points back at the instruction start.
func (e *Emitter[P]) callRel(p []byte, name pulley.ExtName) {
	b := e.b
	start := b.Offset()
	w := start + uint32(len(p))

	b.Append(bytecode.AppendPCRel(p)...)
	b.AddReloc(w, pulley.RelocX86CallPCRel4, name, -int64(w-start))
}

func (e *Emitter[P]) tryCall(t *pulley.TryCallInfo) {
	if t == nil {
		return
	}

	e.b.AddCallSite(e.b.Offset(), t.Exceptions)

	e.jump(t.Continuation)
}

func (e *Emitter[P]) raw(x *pulley.RawInst) {
	b := e.b

	op, ext, extended, imm := x.Encoding()

	var p []byte
	if extended {
		p = bytecode.AppendExtOp(p, ext)
	} else {
		p = bytecode.AppendOp(p, op)
	}

	if x.Op == pulley.RawTrap {
		b.AddTrap(b.Offset(), pulley.TrapCode(x.Imm))
	}

	if x.HasDef() {
		p = bytecode.AppendReg(p, hw(x.Dst.ToReg()))
	}

	for i := 0; i < x.Uses(); i++ {
		p = bytecode.AppendReg(p, hw(x.Src[i]))
	}

	switch imm {
	case 0:
	case 1:
		p = bytecode.AppendU8(p, uint8(x.Imm))
	case 2:
		p = bytecode.AppendI16(p, int16(x.Imm))
	case 4:
		p = bytecode.AppendI32(p, int32(x.Imm))
	case 8:
		p = bytecode.AppendI64(p, x.Imm)
	default:
		panic(imm)
	}

	b.Append(p...)
}

func (e *Emitter[P]) appendAmode(p []byte, m pulley.Amode) []byte {
	switch m.Kind {
	case pulley.AmodeSpOffset:
		p = bytecode.AppendReg(p, hw(pulley.SP().Reg()))
		return bytecode.AppendI32(p, m.Offset)
	case pulley.AmodeRegOffset:
		p = bytecode.AppendReg(p, hw(m.Base.Reg()))
		return bytecode.AppendI32(p, m.Offset)
	case pulley.AmodeStack:
		off := e.stackOffset(m.Stack)

		p = bytecode.AppendReg(p, hw(pulley.SP().Reg()))
		return bytecode.AppendI32(p, int32(off))
	default:
		panic(m.Kind)
	}
}

func (e *Emitter[P]) stackOffset(m pulley.StackAMode) int64 {
	fr := e.f.Frame

	switch m.Kind {
	case pulley.StackOutgoingArg:
		return m.Offset
	case pulley.StackSlot:
		return fr.OutgoingArgs + m.Offset
	case pulley.StackIncomingArg:
		return fr.Size + m.Offset
	default:
		panic(m.Kind)
	}
}

func appendCond(p []byte, c pulley.Cond) []byte {
	switch c.Kind {
	case pulley.CondIf32:
		p = bytecode.AppendOp(p, bytecode.BrIf32)
		return bytecode.AppendReg(p, hw(c.Src1.Reg()))
	case pulley.CondIfNot32:
		p = bytecode.AppendOp(p, bytecode.BrIfNot32)
		return bytecode.AppendReg(p, hw(c.Src1.Reg()))
	case pulley.CondXcmp:
		p = bytecode.AppendOp(p, bytecode.BrIfXcmp)
		p = bytecode.AppendU8(p, condByte(c))
		p = bytecode.AppendReg(p, hw(c.Src1.Reg()))
		return bytecode.AppendReg(p, hw(c.Src2.Reg()))
	case pulley.CondXcmpImm:
		p = bytecode.AppendOp(p, bytecode.BrIfXcmpI)
		p = bytecode.AppendU8(p, condByte(c))
		p = bytecode.AppendReg(p, hw(c.Src1.Reg()))
		return bytecode.AppendI32(p, c.Imm)
	default:
		panic(c.Kind)
	}
}

func condByte(c pulley.Cond) uint8 {
	x := uint8(c.Op)
	if c.Wide {
		x |= 0x80
	}

	return x
}

func xloadOp(t tp.Type, ext pulley.ExtKind) bytecode.Opcode {
	s := ext == pulley.ExtSign

	switch tp.Bits(t) {
	case 8:
		return pick(s, bytecode.Xload8S, bytecode.Xload8U)
	case 16:
		return pick(s, bytecode.Xload16S, bytecode.Xload16U)
	case 32:
		return pick(s, bytecode.Xload32S, bytecode.Xload32U)
	case 64:
		return bytecode.Xload64
	default:
		panic(t)
	}
}

func xstoreOp(t tp.Type) bytecode.Opcode {
	switch tp.Bits(t) {
	case 8:
		return bytecode.Xstore8
	case 16:
		return bytecode.Xstore16
	case 32:
		return bytecode.Xstore32
	case 64:
		return bytecode.Xstore64
	default:
		panic(t)
	}
}

func pick(c bool, a, b bytecode.Opcode) bytecode.Opcode {
	if c {
		return a
	}

	return b
}

func hw(r pulley.Reg) uint8 {
	p, ok := r.Real()
	if !ok {
		panic(fmt.Sprintf("virtual register %v after allocation", r))
	}

	return p.HW()
}
