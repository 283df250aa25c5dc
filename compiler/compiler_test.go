package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/back"
)

func TestCompileTarget(t *testing.T) {
	ctx := context.Background()

	funcs := func() []*back.Func {
		return []*back.Func{{
			Name: pulley.UserName(0, 0),
			Blocks: []back.Block{{
				Insts: []pulley.Inst{
					&pulley.LoadExtName{Dst: pulley.WritableFrom(pulley.X(0)), Name: pulley.LibCall("data")},
					&pulley.Raw{Raw: pulley.NewRet()},
				},
			}},
		}}
	}

	m32, err := CompileTarget(ctx, "pulley32", funcs())
	require.NoError(t, err)

	m64, err := CompileTarget(ctx, "pulley64", funcs())
	require.NoError(t, err)

	assert.Len(t, m32.Bytes, 7)
	assert.Len(t, m64.Bytes, 11)

	require.Len(t, m32.Relocs, 1)
	assert.Equal(t, pulley.RelocAbs4, m32.Relocs[0].Kind)
	assert.Equal(t, pulley.RelocAbs8, m64.Relocs[0].Kind)

	_, err = CompileTarget(ctx, "arm64", funcs())
	assert.ErrorIs(t, err, ErrUnknownTarget)
}
