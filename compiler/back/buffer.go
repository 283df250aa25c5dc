package back

import (
	"context"
	"fmt"

	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/pulley/compiler/asm/pulley"
)

type (
	// Buffer accumulates code with unresolved label references.
	// It is owned by a single compilation task.
	Buffer struct {
		data []byte

		labels []uint32 // label -> offset

		fixups heap.Heap[fixup]

		relocs    []Reloc
		traps     []Trap
		callSites []pendingCallSite
	}

	fixup struct {
		offset uint32
		label  pulley.Label
		use    pulley.LabelUse

		from loc.PC
	}

	Reloc struct {
		Offset uint32
		Kind   pulley.Reloc
		Name   pulley.ExtName
		Addend int64
	}

	Trap struct {
		Offset uint32
		Code   pulley.TrapCode
	}

	// CallSite describes where unwinding from the call returning to Ret goes.
	CallSite struct {
		Ret      uint32
		Handlers []Handler
	}

	Handler struct {
		Kind   pulley.HandlerKind
		Tag    uint32
		Offset uint32
	}

	pendingCallSite struct {
		ret      uint32
		handlers []pulley.ExceptionHandler
	}

	// Code is a finished piece of bytecode.
	Code struct {
		Bytes     []byte
		Relocs    []Reloc
		Traps     []Trap
		CallSites []CallSite
	}
)

// MaxCodeSize bounds a buffer so that every label use is in range
// and veneers are never needed.
const MaxCodeSize = 0x7fff_ffff

const unbound = ^uint32(0)

func NewBuffer() *Buffer {
	return &Buffer{
		fixups: heap.Heap[fixup]{Less: fixupLess},
	}
}

func (b *Buffer) Offset() uint32 { return uint32(len(b.data)) }

func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Append(p ...byte) {
	if len(b.data)+len(p) > MaxCodeSize {
		panic("code buffer is too large")
	}

	b.data = append(b.data, p...)
}

func (b *Buffer) BindLabel(l pulley.Label) {
	if off, ok := b.LabelOffset(l); ok {
		panic(fmt.Sprintf("label %v bound twice: at %#x and %#x", l, off, b.Offset()))
	}

	b.labels = sliceSet(b.labels, l, b.Offset(), unbound)

	tlog.V("bind_label").Printw("bind label", "label", l, "off", b.Offset())
}

func (b *Buffer) LabelOffset(l pulley.Label) (uint32, bool) {
	if int(l) >= len(b.labels) || b.labels[l] == unbound {
		return 0, false
	}

	return b.labels[l], true
}

// UseLabelAt records that the window at off refers to l.
// The window must already be in the buffer.
func (b *Buffer) UseLabelAt(off uint32, l pulley.Label, u pulley.LabelUse) {
	if off+u.PatchSize() > b.Offset() {
		panic(fmt.Sprintf("label use at %#x past the end of code %#x", off, b.Offset()))
	}

	b.fixups.Push(fixup{
		offset: off,
		label:  l,
		use:    u,
		from:   loc.Caller(1),
	})
}

func (b *Buffer) AddReloc(off uint32, kind pulley.Reloc, name pulley.ExtName, addend int64) {
	b.relocs = append(b.relocs, Reloc{Offset: off, Kind: kind, Name: name, Addend: addend})
}

func (b *Buffer) AddTrap(off uint32, code pulley.TrapCode) {
	b.traps = append(b.traps, Trap{Offset: off, Code: code})
}

func (b *Buffer) AddCallSite(ret uint32, handlers []pulley.ExceptionHandler) {
	b.callSites = append(b.callSites, pendingCallSite{ret: ret, handlers: handlers})
}

// Island is where an island of up to space bytes could be placed.
// Pulley label uses reach the whole buffer, so no fixup ever needs one.
func (b *Buffer) Island(space uint32) {
	if b.fixups.Len() == 0 {
		return
	}

	f := b.fixups.Data[0]
	deadline := uint64(f.offset) + uint64(f.use.MaxPosRange())

	if uint64(b.Offset())+uint64(space)+uint64(pulley.WorstCaseVeneerSize()) <= deadline {
		return
	}

	if !f.use.SupportsVeneer() {
		panic(fmt.Sprintf("label use %v at %#x needs a veneer", f.use, f.offset))
	}

	f.use.GenerateVeneer(b.data, b.Offset())
}

// Finish patches every label use and returns the code.
func (b *Buffer) Finish(ctx context.Context) (_ *Code, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: finish buffer", "size", len(b.data), "fixups", b.fixups.Len())
	defer tr.Finish("err", &err)

	for b.fixups.Len() != 0 {
		f := b.fixups.Pop()

		off, ok := b.LabelOffset(f.label)
		if !ok {
			return nil, errors.New("label %v used at %#x is not bound (used from %v)", f.label, f.offset, f.from)
		}

		f.use.Patch(b.data[f.offset:f.offset+f.use.PatchSize()], f.offset, off)

		tr.V("fixup").Printw("fixup", "off", f.offset, "label", f.label, "label_off", off, "use", f.use)
	}

	c := &Code{
		Bytes:  b.data,
		Relocs: b.relocs,
		Traps:  b.traps,
	}

	for _, cs := range b.callSites {
		s := CallSite{Ret: cs.ret}

		for _, h := range cs.handlers {
			if h.Kind == pulley.HandlerContext {
				continue
			}

			off, ok := b.LabelOffset(h.Label)
			if !ok {
				return nil, errors.New("catch label %v of call site %#x is not bound", h.Label, cs.ret)
			}

			s.Handlers = append(s.Handlers, Handler{Kind: h.Kind, Tag: h.Tag, Offset: off})
		}

		c.CallSites = append(c.CallSites, s)
	}

	return c, nil
}

func fixupLess(d []fixup, i, j int) bool {
	return d[i].offset < d[j].offset
}
