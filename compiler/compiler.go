package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/back"
)

var ErrUnknownTarget = errors.New("unknown target")

// Compile emits and links already allocated functions for target P.
func Compile[P pulley.TargetKind](ctx context.Context, funcs []*back.Func) (m *back.Module, err error) {
	var p P

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "target", p.PointerWidth(), "funcs", len(funcs))
	defer tr.Finish("err", &err)

	if tr.If("dump_funcs") {
		for _, f := range funcs {
			tr.Printw("func", "name", f.Name, "blocks", len(f.Blocks), "frame", f.Frame.Size)

			for _, b := range f.Blocks {
				for _, x := range b.Insts {
					tr.Printw("inst", "block", b.Label, "inst", pulley.Print(x))
				}
			}
		}
	}

	m, err = back.EmitModule[P](ctx, funcs)
	if err != nil {
		return nil, errors.Wrap(err, "emit module")
	}

	return m, nil
}

// CompileTarget is Compile with the target chosen by name: pulley32 or pulley64.
func CompileTarget(ctx context.Context, target string, funcs []*back.Func) (*back.Module, error) {
	switch target {
	case "pulley32":
		return Compile[pulley.Pulley32](ctx, funcs)
	case "pulley64":
		return Compile[pulley.Pulley64](ctx, funcs)
	default:
		return nil, errors.Wrap(ErrUnknownTarget, "%q", target)
	}
}
