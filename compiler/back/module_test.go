package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/asm/pulley/bytecode"
)

func callTo(name pulley.ExtName) pulley.Inst {
	return &pulley.Call{Info: &pulley.CallInfo[pulley.PulleyCall]{Dest: pulley.NewPulleyCall(name)}}
}

func TestEmitModuleLinksCalls(t *testing.T) {
	f0 := pulley.UserName(0, 0)
	f1 := pulley.UserName(0, 1)
	ext := pulley.LibCall("memset")

	funcs := []*Func{
		{Name: f0, Blocks: []Block{block(0, callTo(f1), callTo(ext), &pulley.Raw{Raw: pulley.NewRet()})}},
		{Name: f1, Blocks: []Block{block(0,
			&pulley.ReturnCall{Info: &pulley.ReturnCallInfo[pulley.ExtName]{Dest: f0}},
		)}},
	}

	m, err := EmitModule[pulley.Pulley64](context.Background(), funcs)
	require.NoError(t, err)

	assert.Equal(t, []byte{
		byte(bytecode.Call), 11, 0, 0, 0,
		byte(bytecode.Call), 0, 0, 0, 0,
		byte(bytecode.Ret),
		byte(bytecode.Jump), 0xf5, 0xff, 0xff, 0xff,
	}, m.Bytes)

	assert.Equal(t, []Symbol{
		{Name: f0, Offset: 0, Size: 11},
		{Name: f1, Offset: 11, Size: 5},
	}, m.Symbols)

	assert.Equal(t, []Reloc{{Offset: 6, Kind: pulley.RelocX86CallPCRel4, Name: ext, Addend: -1}}, m.Relocs)

	s, ok := m.Symbol(f1)
	assert.True(t, ok)
	assert.Equal(t, uint32(11), s.Offset)

	_, ok = m.Symbol(ext)
	assert.False(t, ok)
}

func TestEmitModuleOffsets(t *testing.T) {
	funcs := []*Func{
		{Name: pulley.UserName(0, 0), Blocks: []Block{block(0, &pulley.Raw{Raw: pulley.NewRet()})}},
		{Name: pulley.UserName(0, 1), Blocks: []Block{block(0,
			&pulley.TrapIf{Cond: pulley.If32(pulley.X(0)), Code: pulley.TrapBadSignature},
			&pulley.IndirectCall{Info: &pulley.CallInfo[pulley.XReg]{
				Dest:    pulley.X(16),
				TryCall: &pulley.TryCallInfo{Continuation: 1, Exceptions: []pulley.ExceptionHandler{pulley.TagHandler(4, 1)}},
			}},
		), block(1, &pulley.Raw{Raw: pulley.NewRet()})}},
	}

	m, err := EmitModule[pulley.Pulley32](context.Background(), funcs)
	require.NoError(t, err)

	// f1 starts at 1; the trap follows a 6 byte branch
	assert.Equal(t, []Trap{{Offset: 7, Code: pulley.TrapBadSignature}}, m.Traps)
	assert.Equal(t, []CallSite{{Ret: 12, Handlers: []Handler{{Kind: pulley.HandlerTag, Tag: 4, Offset: 12}}}}, m.CallSites)
}

func TestEmitModuleErrors(t *testing.T) {
	ctx := context.Background()

	dup := []*Func{
		{Name: pulley.UserName(0, 0)},
		{Name: pulley.UserName(0, 0)},
	}

	_, err := EmitModule[pulley.Pulley64](ctx, dup)
	assert.Error(t, err)

	unbound := []*Func{
		{Name: pulley.UserName(0, 0), Blocks: []Block{block(0, pulley.GenJump(7))}},
	}

	_, err = EmitModule[pulley.Pulley64](ctx, unbound)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label7")
}

func TestFuncVerify(t *testing.T) {
	ret := &pulley.Raw{Raw: pulley.NewRet()}

	for _, tc := range []struct {
		f   *Func
		err string
	}{
		{&Func{Blocks: []Block{block(0, ret), block(0, ret)}}, "defined twice"},
		{&Func{Blocks: []Block{block(0)}}, "empty block"},
		{&Func{Blocks: []Block{block(0, &pulley.Nop{})}}, "ends in nop"},
		{&Func{Blocks: []Block{block(0, &pulley.BrIf{Cond: pulley.If32(pulley.X(0)), Taken: 0, NotTaken: 3})}}, "missing block label3"},
	} {
		err := tc.f.Verify()
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tc.err)
		}
	}

	ok := &Func{Blocks: []Block{
		block(0, pulley.GenJump(2)),
		block(2, &pulley.Raw{Raw: pulley.NewTrap(pulley.TrapUnreachable)}),
	}}

	assert.NoError(t, ok.Verify())
}
