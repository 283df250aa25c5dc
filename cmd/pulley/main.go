package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/pulley/compiler"
	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/asm/pulley/bytecode"
	"github.com/slowlang/pulley/compiler/back"
)

func main() {
	demoCmd := &cli.Command{
		Name:        "demo",
		Description: "lower, allocate and emit a sample module: demo [pulley32|pulley64]",
		Action:      demoAct,
		Args:        cli.Args{},
	}

	opcodesCmd := &cli.Command{
		Name:        "opcodes",
		Description: "list opcodes and raw instructions",
		Action:      opcodesAct,
	}

	trapCmd := &cli.Command{
		Name:        "trap",
		Description: "print the trap instruction encoding",
		Action:      trapAct,
	}

	app := &cli.Command{
		Name:        "pulley",
		Description: "pulley is a tool for inspecting pulley bytecode generation",
		Commands: []*cli.Command{
			demoCmd,
			opcodesCmd,
			trapCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func setup() context.Context {
	tlog.SetVerbosity(env.Str("PULLEY_V"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func demoAct(c *cli.Command) (err error) {
	ctx := setup()

	target := env.Str("PULLEY_TARGET", "pulley64")
	if len(c.Args) != 0 {
		target = c.Args[0]
	}

	funcs := sampleFuncs()

	var l pulley.OperandList

	for _, f := range funcs {
		fmt.Printf("func %v\n", f.Name)

		for _, b := range f.Blocks {
			fmt.Printf("%v:\n", b.Label)

			for _, x := range b.Insts {
				l.Reset()
				pulley.GetOperands(x, &l)

				fmt.Printf("\t%-50v  // %v %v\n", pulley.Print(x), pulley.IsTerm(x), l.Operands)
			}
		}

		err = back.AssignRegs(ctx, f)
		if err != nil {
			return errors.Wrap(err, "assign regs: %v", f.Name)
		}
	}

	fmt.Printf("\nallocated\n")

	for _, f := range funcs {
		fmt.Printf("func %v\n", f.Name)

		for _, b := range f.Blocks {
			fmt.Printf("%v:\n", b.Label)

			for _, x := range b.Insts {
				fmt.Printf("\t%v\n", pulley.Print(x))
			}
		}
	}

	m, err := compiler.CompileTarget(ctx, target, funcs)
	if err != nil {
		return errors.Wrap(err, "compile")
	}

	fmt.Printf("\n%v code\n%s", target, hex.Dump(m.Bytes))

	for _, s := range m.Symbols {
		fmt.Printf("symbol %-8v off %#06x size %d\n", s.Name, s.Offset, s.Size)
	}

	for _, r := range m.Relocs {
		fmt.Printf("reloc  %-8v off %#06x %v %+d\n", r.Kind, r.Offset, r.Name, r.Addend)
	}

	for _, t := range m.Traps {
		fmt.Printf("trap   %-8v off %#06x\n", t.Code, t.Offset)
	}

	return nil
}

func opcodesAct(c *cli.Command) error {
	for _, op := range bytecode.Opcodes() {
		fmt.Printf("%#04x  %v\n", uint8(op), op)
	}

	for _, op := range bytecode.ExtendedOpcodes() {
		fmt.Printf("%#04x %#06x  %v\n", uint8(bytecode.ExtendedOp), uint16(op), op)
	}

	for _, op := range pulley.RawOps() {
		fmt.Printf("raw  %v\n", op)
	}

	return nil
}

func trapAct(c *cli.Command) error {
	fmt.Printf("% x\n", pulley.TrapOpcode[:])

	return nil
}
