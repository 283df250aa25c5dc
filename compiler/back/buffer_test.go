package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/pulley/compiler/asm/pulley"
)

func TestBufferPatch(t *testing.T) {
	ctx := context.Background()

	b := NewBuffer()

	b.BindLabel(0)
	b.Append(1, 2, 3)

	// forward
	b.Append(0x10, 0, 0, 0, 0)
	b.UseLabelAt(4, 1, pulley.JumpUse(1))

	// backward
	b.Append(0x20, 0x21, 0, 0, 0, 0)
	b.UseLabelAt(10, 0, pulley.JumpUse(2))

	b.BindLabel(1)
	b.Append(0xff)

	c, err := b.Finish(ctx)
	require.NoError(t, err)

	assert.Equal(t, []byte{
		1, 2, 3,
		0x10, 11, 0, 0, 0,
		0x20, 0x21, 0xf8, 0xff, 0xff, 0xff,
		0xff,
	}, c.Bytes)
}

func TestBufferUnboundLabel(t *testing.T) {
	b := NewBuffer()

	b.Append(0, 0, 0, 0)
	b.UseLabelAt(0, 5, pulley.JumpUse(0))

	_, err := b.Finish(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label5")
}

func TestBufferMisuse(t *testing.T) {
	b := NewBuffer()

	b.BindLabel(2)
	assert.Panics(t, func() { b.BindLabel(2) })

	b.Append(0, 0)
	assert.Panics(t, func() { b.UseLabelAt(0, 2, pulley.JumpUse(0)) })

	_, ok := b.LabelOffset(1)
	assert.False(t, ok)

	off, ok := b.LabelOffset(2)
	assert.True(t, ok)
	assert.Zero(t, off)
}

func TestBufferIsland(t *testing.T) {
	b := NewBuffer()

	b.Island(100)

	b.Append(0, 0, 0, 0)
	b.UseLabelAt(0, 0, pulley.JumpUse(0))

	assert.NotPanics(t, func() { b.Island(1 << 20) })
}

func TestBufferCallSites(t *testing.T) {
	b := NewBuffer()

	b.Append(0, 0, 0)
	b.AddCallSite(3, []pulley.ExceptionHandler{
		pulley.TagHandler(7, 1),
		pulley.ContextHandler(pulley.X(2).Reg()),
		pulley.DefaultHandler(2),
	})

	b.BindLabel(1)
	b.Append(0)
	b.BindLabel(2)
	b.Append(0)

	c, err := b.Finish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []CallSite{{
		Ret: 3,
		Handlers: []Handler{
			{Kind: pulley.HandlerTag, Tag: 7, Offset: 3},
			{Kind: pulley.HandlerDefault, Offset: 4},
		},
	}}, c.CallSites)
}

func TestBufferCallSiteUnbound(t *testing.T) {
	b := NewBuffer()

	b.AddCallSite(0, []pulley.ExceptionHandler{pulley.DefaultHandler(9)})

	_, err := b.Finish(context.Background())
	assert.Error(t, err)
}
