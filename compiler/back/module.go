package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/pulley/compiler/asm/pulley"
)

type (
	// Module is linked code of several functions.
	// Calls between them are resolved, the rest is left in Relocs.
	Module struct {
		Code

		Symbols []Symbol
	}

	Symbol struct {
		Name   pulley.ExtName
		Offset uint32
		Size   uint32
	}
)

// EmitModule emits funcs one after another and links calls between them.
func EmitModule[P pulley.TargetKind](ctx context.Context, funcs []*Func) (m *Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: emit module", "funcs", len(funcs))
	defer tr.Finish("err", &err)

	names := make(map[pulley.ExtName]pulley.Label, len(funcs))

	for i, f := range funcs {
		if _, ok := names[f.Name]; ok {
			return nil, errors.New("duplicate function %v", f.Name)
		}

		names[f.Name] = pulley.Label(i)
	}

	mb := NewBuffer()
	m = &Module{}

	var sites []CallSite

	for i, f := range funcs {
		err = f.Verify()
		if err != nil {
			return nil, errors.Wrap(err, "verify %v", f.Name)
		}

		b := NewBuffer()

		err = EmitFunc[P](ctx, b, f)
		if err != nil {
			return nil, errors.Wrap(err, "emit %v", f.Name)
		}

		c, err := b.Finish(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "finish %v", f.Name)
		}

		base := mb.Offset()

		mb.BindLabel(pulley.Label(i))
		mb.Append(c.Bytes...)

		m.Symbols = append(m.Symbols, Symbol{Name: f.Name, Offset: base, Size: uint32(len(c.Bytes))})

		for _, r := range c.Relocs {
			if l, ok := names[r.Name]; ok {
				if u, ok := pulley.LabelUseFromReloc(r.Kind, r.Addend); ok {
					mb.UseLabelAt(base+r.Offset, l, u)

					tr.V("link").Printw("link call", "from", f.Name, "to", r.Name, "off", base+r.Offset)

					continue
				}
			}

			mb.AddReloc(base+r.Offset, r.Kind, r.Name, r.Addend)
		}

		for _, t := range c.Traps {
			mb.AddTrap(base+t.Offset, t.Code)
		}

		for _, cs := range c.CallSites {
			s := CallSite{Ret: base + cs.Ret}

			for _, h := range cs.Handlers {
				h.Offset += base
				s.Handlers = append(s.Handlers, h)
			}

			sites = append(sites, s)
		}
	}

	c, err := mb.Finish(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "link")
	}

	m.Code = *c
	m.CallSites = sites

	if tr.If("dump_module") {
		for _, s := range m.Symbols {
			tr.Printw("symbol", "name", s.Name, "off", s.Offset, "size", s.Size)
		}

		for _, r := range m.Relocs {
			tr.Printw("reloc", "off", r.Offset, "kind", r.Kind, "name", r.Name, "addend", r.Addend)
		}
	}

	return m, nil
}

// Symbol finds the function called name.
func (m *Module) Symbol(name pulley.ExtName) (Symbol, bool) {
	for _, s := range m.Symbols {
		if s.Name == name {
			return s, true
		}
	}

	return Symbol{}, false
}
