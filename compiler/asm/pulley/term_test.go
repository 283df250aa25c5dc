package pulley

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerm(t *testing.T) {
	want := map[string]Terminator{
		"*pulley.Rets":               TermRet,
		"*pulley.Jump":               TermBranch,
		"*pulley.BrIf":               TermBranch,
		"*pulley.BrTable":            TermBranch,
		"*pulley.ReturnCall":         TermRetCall,
		"*pulley.ReturnIndirectCall": TermRetCall,
	}

	for _, x := range allInsts() {
		name := typeName(x)

		assert.Equal(t, want[name], IsTerm(x), "%v", name)
	}

	assert.Equal(t, TermRet, IsTerm(&Raw{Raw: NewRet()}))
	assert.Equal(t, TermNone, IsTerm(&Raw{Raw: NewTrap(TrapUnreachable)}))
}

func TestIsTermTryCall(t *testing.T) {
	try := &TryCallInfo{Continuation: 1, Exceptions: []ExceptionHandler{DefaultHandler(2)}}

	for _, x := range []Inst{
		&Call{Info: &CallInfo[PulleyCall]{Dest: NewPulleyCall(UserName(0, 1)), TryCall: try}},
		&IndirectCall{Info: &CallInfo[XReg]{Dest: xv(0), TryCall: try}},
		&IndirectCallHost{Info: &CallInfo[ExtName]{Dest: LibCall("h"), TryCall: try}},
	} {
		assert.Equal(t, TermBranch, IsTerm(x), "%v", x)
		assert.Equal(t, []Label{1, 2}, BranchTargets(x), "%v", x)
		assert.True(t, IsSafepoint(x))
	}
}

func TestBranchTargets(t *testing.T) {
	assert.Equal(t, []Label{3}, BranchTargets(&Jump{Label: 3}))
	assert.Equal(t, []Label{1, 2}, BranchTargets(&BrIf{Cond: If32(xv(0)), Taken: 1, NotTaken: 2}))
	assert.Equal(t, []Label{3, 4, 5}, BranchTargets(&BrTable{Idx: xv(0), Default: 3, Targets: []Label{4, 5}}))
	assert.Nil(t, BranchTargets(&Nop{}))
	assert.Nil(t, BranchTargets(&Call{Info: &CallInfo[PulleyCall]{Dest: NewPulleyCall(UserName(0, 1))}}))

	try := &TryCallInfo{
		Continuation: 9,
		Exceptions: []ExceptionHandler{
			TagHandler(1, 10),
			ContextHandler(xv(3).Reg()),
			TagHandler(2, 11),
			DefaultHandler(12),
		},
	}

	assert.Equal(t, []Label{9, 10, 11, 12}, try.Targets())
}

func TestPredicates(t *testing.T) {
	for _, x := range allInsts() {
		name := typeName(x)

		switch name {
		case "*pulley.Call", "*pulley.IndirectCall", "*pulley.IndirectCallHost":
			assert.True(t, IsSafepoint(x), name)
		default:
			assert.False(t, IsSafepoint(x), name)
		}

		assert.Equal(t, name == "*pulley.Args", IsArgs(x), name)
		assert.Equal(t, name != "*pulley.Args", IsIncludedInClobbers(x), name)
		assert.False(t, IsTrap(x), name)

		_, _, ok := IsMove(x)
		assert.False(t, ok, name)
	}

	d, s, ok := IsMove(&Raw{Raw: NewXmov(WritableFrom(xv(1)), xv(2))})
	assert.True(t, ok)
	assert.Equal(t, xv(1).Reg(), d.ToReg())
	assert.Equal(t, xv(2).Reg(), s)

	_, _, ok = IsMove(&Raw{Raw: NewFmov(WritableFrom(fv(1)), fv(2))})
	assert.False(t, ok)
}

func TestInstAndKind(t *testing.T) {
	xs := WrapAll[Pulley32](allInsts())

	for _, x := range xs {
		assert.Equal(t, IsTerm(x.Inst), x.IsTerm())
		assert.Equal(t, Print(x.Inst), x.String())
		assert.Equal(t, IsArgs(x.Inst), x.IsArgs())
	}

	var l OperandList
	Wrap[Pulley64](&DummyUse{Reg: xv(4).Reg()}).GetOperands(&l)
	assert.Equal(t, []Operand{{Kind: OpUse, Reg: xv(4).Reg()}}, l.Operands)

	assert.Equal(t, PointerWidth32, Pulley32{}.PointerWidth())
	assert.Equal(t, 8, Pulley64{}.PointerWidth().Bytes())
	assert.Equal(t, tpName(PointerType[Pulley32]()), "i32")
	assert.Equal(t, tpName(PointerType[Pulley64]()), "i64")
}

func TestUnknownInst(t *testing.T) {
	var x Inst = unknownInst{}

	assert.Panics(t, func() { IsTerm(x) })
	assert.Panics(t, func() { GetOperands(x, &OperandList{}) })
	assert.Panics(t, func() { Print(x) })
}

type unknownInst struct{}

func (unknownInst) inst()          {}
func (unknownInst) String() string { return "unknown" }
