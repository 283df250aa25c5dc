package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/pulley/compiler/asm/pulley"
)

type (
	move struct {
		dst, src pulley.Reg
	}
)

// firstFree is the first register no call clobbers or passes arguments in.
const firstFree = 16

// AssignRegs gives every virtual register of f its own physical register
// from x16, f16 and v16 up.
// It does no liveness analysis: a function may use
// as many values per class as there are callee-saved registers.
// Values defined in fixed registers are moved to their own register right after the definition.
// Values used in fixed registers are moved there right before the use, all at once.
func AssignRegs(ctx context.Context, f *Func) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: assign regs", "name", f.Name)
	defer tr.Finish("err", &err)

	var (
		l    pulley.OperandList
		m    = map[pulley.Reg]pulley.Reg{}
		next = [...]uint8{firstFree, firstFree, firstFree}

		pre, post []move
	)

	alloc := func(v pulley.Reg) (pulley.Reg, error) {
		if r, ok := m[v]; ok {
			return r, nil
		}

		c := v.Class()

		if next[c] >= allocLimit(c) {
			return 0, errors.New("out of %v registers at %v", c, v)
		}

		r := pulley.NewPReg(next[c], c).Reg()
		next[c]++

		m[v] = r

		tr.V("assign_reg").Printw("assign", "vreg", v, "preg", r)

		return r, nil
	}

	for bi := range f.Blocks {
		bl := &f.Blocks[bi]

		insts := bl.Insts[:0:0]

		for _, x := range bl.Insts {
			l.Reset()
			pulley.GetOperands(x, &l)

			pre, post = pre[:0], post[:0]

			for i, o := range l.Operands {
				if !o.Reg.IsVirtual() {
					continue
				}

				switch o.Kind {
				case pulley.OpUse:
					r, ok := m[o.Reg]
					if !ok {
						return errors.New("%v used before definition in %v", o.Reg, x)
					}

					l.Assign(i, r)
				case pulley.OpFixedUse:
					r, ok := m[o.Reg]
					if !ok {
						return errors.New("%v used before definition in %v", o.Reg, x)
					}

					for _, mv := range pre {
						if mv.dst == o.Fixed.Reg() && mv.src != r {
							return errors.New("%v is fixed to two values in %v", o.Fixed, x)
						}
					}

					pre = append(pre, move{dst: o.Fixed.Reg(), src: r})

					l.Assign(i, o.Fixed.Reg())
				}
			}

			for i, o := range l.Operands {
				if !o.Reg.IsVirtual() {
					continue
				}

				switch o.Kind {
				case pulley.OpDef, pulley.OpAnyDef:
					r, err := alloc(o.Reg)
					if err != nil {
						return errors.Wrap(err, "block %v", bl.Label)
					}

					l.Assign(i, r)
				case pulley.OpFixedDef:
					if pulley.IsTerm(x) != pulley.TermNone {
						return errors.New("fixed def of %v in terminator %v", o.Reg, x)
					}

					r, err := alloc(o.Reg)
					if err != nil {
						return errors.Wrap(err, "block %v", bl.Label)
					}

					post = append(post, move{dst: r, src: o.Fixed.Reg()})

					l.Assign(i, o.Fixed.Reg())
				}
			}

			insts = append(insts, parallelMove(pre)...)
			insts = append(insts, x)
			insts = append(insts, parallelMove(post)...)
		}

		bl.Insts = insts
	}

	return nil
}

// parallelMove orders moves so that every source is read before it is overwritten.
// Cycles go through a scratch register of their class.
// Destinations must be distinct.
func parallelMove(moves []move) (r []pulley.Inst) {
	pending := make([]move, 0, len(moves))

	for _, mv := range moves {
		if mv.dst != mv.src {
			pending = append(pending, mv)
		}
	}

	isSrc := func(reg pulley.Reg, skip int) bool {
		for j, mv := range pending {
			if j != skip && mv.src == reg {
				return true
			}
		}

		return false
	}

	gen := func(dst, src pulley.Reg) pulley.Inst {
		return pulley.GenMove(pulley.WritableFrom(dst), src, pulley.CanonicalTypeForRC(dst.Class()))
	}

	for len(pending) != 0 {
		progress := false

		for i := 0; i < len(pending); {
			mv := pending[i]

			if isSrc(mv.dst, i) {
				i++
				continue
			}

			r = append(r, gen(mv.dst, mv.src))
			pending = append(pending[:i], pending[i+1:]...)
			progress = true
		}

		if progress {
			continue
		}

		// every destination is still to be read: break the cycle at the first one
		d := pending[0].dst
		s := scratch(d.Class())

		r = append(r, gen(s, d))

		for j := range pending {
			if pending[j].src == d {
				pending[j].src = s
			}
		}
	}

	return r
}

func allocLimit(c pulley.RegClass) uint8 {
	if c == pulley.ClassInt {
		t, _ := pulley.Tmp1().Reg().Real()
		return t.HW()
	}

	return pulley.RegsPerClass - 1
}

// scratch is never handed out by AssignRegs.
func scratch(c pulley.RegClass) pulley.Reg {
	if c == pulley.ClassInt {
		return pulley.Tmp0().Reg()
	}

	return pulley.NewPReg(pulley.RegsPerClass-1, c).Reg()
}
