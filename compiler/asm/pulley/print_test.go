package pulley

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gotest.tools/v3/golden"

	"github.com/slowlang/pulley/compiler/tp"
)

func typeName(x Inst) string { return fmt.Sprintf("%T", x) }

func tpName(t tp.Type) string { return t.String() }

func TestPrint(t *testing.T) {
	var b strings.Builder

	for _, x := range allInsts() {
		b.WriteString(Print(x))
		b.WriteByte('\n')
	}

	golden.Assert(t, b.String(), "print.golden")
}

func TestPrintCall(t *testing.T) {
	x := &Call{Info: &CallInfo[PulleyCall]{
		Dest: NewPulleyCall(LibCall("memcpy")),
		Uses: []CallArgPair{{VReg: xv(1).Reg(), PReg: ArgReg(0)}},
		Defs: []CallRetPair{
			{VReg: WritableFrom(xv(2).Reg()), Location: RetReg(ArgReg(0), tp.I64)},
			{VReg: WritableFrom(fv(3).Reg()), Location: RetStack(8, tp.F64)},
		},
		Clobbers: NewPRegSet(ArgReg(0), ArgReg(1)),
		TryCall: &TryCallInfo{
			Continuation: 1,
			Exceptions:   []ExceptionHandler{TagHandler(3, 2), DefaultHandler(4), ContextHandler(xv(0).Reg())},
		},
	}}

	assert.Equal(t, "call %memcpy uses[v1i=x0] defs[v2i=x0, v3f=stack(8)] clobbers{x0, x1}"+
		"; jump label1; catch [tag3: label2, default: label4, context v0i]", Print(x))
}

func TestPrintMisc(t *testing.T) {
	assert.Equal(t, "if32 x0", If32(X(0)).String())
	assert.Equal(t, "if_not32 x0", If32(X(0)).Invert().String())
	assert.Equal(t, "if_xslteq64 x1, x2", IfXcmp(CmpSgt, true, X(1), X(2)).Invert().String())
	assert.Equal(t, "if_xult32_i32 x1, -5", IfXcmpImm(CmpUgteq, false, X(1), -5).Invert().String())

	assert.Equal(t, " notrap aligned", MemTrusted.String())
	assert.Equal(t, "user3", UserTrap(3).String())
	assert.Equal(t, "IncomingArg(16, 8)", StackAddr(StackIncomingArg, 16, 8).String())
	assert.Equal(t, "OutgoingArg(0)", StackAddr(StackOutgoingArg, 0, 8).String())

	assert.Equal(t, "xconst64 x3, -1", NewXconst64(WritableFrom(X(3)), -1).String())
	assert.Equal(t, "ret", NewRet().String())
}

func TestCondInvertTwice(t *testing.T) {
	for op := CmpEq; op <= CmpUgteq; op++ {
		c := IfXcmp(op, true, X(1), X(2))

		assert.Equal(t, c, c.Invert().Invert(), "%v", op)
		assert.NotEqual(t, c.Op, c.Invert().Op, "%v", op)
	}
}
