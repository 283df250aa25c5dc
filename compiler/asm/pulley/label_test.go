package pulley

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLabelUseConstants(t *testing.T) {
	u := JumpUse(0)

	assert.Equal(t, uint32(0x7fff_ffff), u.MaxPosRange())
	assert.Equal(t, uint32(0x8000_0000), u.MaxNegRange())
	assert.Equal(t, uint32(4), u.PatchSize())
	assert.False(t, u.SupportsVeneer())
	assert.Zero(t, u.VeneerSize())
	assert.Zero(t, WorstCaseVeneerSize())
	assert.Equal(t, 1, LabelUseAlign)

	assert.Equal(t, "Jump(3)", JumpUse(3).String())
}

func TestLabelPatch(t *testing.T) {
	for _, tc := range []struct {
		use, label, addend uint32
	}{
		{0, 0, 0},
		{10, 20, 0},
		{20, 10, 0},
		{1, 100, 1},
		{100, 1, 1},
		{3, 3, 3},
		{7, 0x1000, 5},
		{0x1000, 7, 5},
	} {
		buf := []byte{0xaa, 0xbb, 0xcc, 0xdd}

		JumpUse(tc.addend).Patch(buf, tc.use, tc.label)

		got := int32(binary.LittleEndian.Uint32(buf))
		want := int32(int64(tc.label) - int64(tc.use) + int64(tc.addend))

		assert.Equal(t, want, got, "%+v", tc)

		// Jumps count from the instruction start, addend bytes before the window.
		assert.Equal(t, int64(tc.label), int64(tc.use)-int64(tc.addend)+int64(got), "%+v", tc)
	}
}

func TestLabelPatchRange(t *testing.T) {
	buf := make([]byte, 4)

	assert.NotPanics(t, func() { JumpUse(0).Patch(buf, 0, 0x7fff_ffff) })
	assert.NotPanics(t, func() { JumpUse(0).Patch(buf, 0x8000_0000, 0) })

	assert.Panics(t, func() { JumpUse(0).Patch(buf, 0, 0x8000_0000) })
	assert.Panics(t, func() { JumpUse(0).Patch(buf, 0x8000_0001, 0) })

	assert.Panics(t, func() { JumpUse(0).Patch(buf[:3], 0, 4) })
}

func TestGenerateVeneer(t *testing.T) {
	assert.Panics(t, func() { JumpUse(0).GenerateVeneer(make([]byte, 16), 0) })
}

func TestLabelUseFromReloc(t *testing.T) {
	u, ok := LabelUseFromReloc(RelocX86CallPCRel4, -3)
	require.True(t, ok)
	assert.Equal(t, JumpUse(3), u)

	for _, tc := range []struct {
		r      Reloc
		addend int64
	}{
		{RelocX86CallPCRel4, 0},
		{RelocX86CallPCRel4, 4},
		{RelocX86PCRel4, -3},
		{RelocAbs4, -1},
		{RelocAbs8, -1},
		{RelocArm64Call, -1},
	} {
		_, ok := LabelUseFromReloc(tc.r, tc.addend)
		assert.False(t, ok, "%v %d", tc.r, tc.addend)
	}
}

// A call emitted with a relocation patches the same bytes
// as a direct jump to the same place.
func TestRelocRoundTrip(t *testing.T) {
	const start, window, target = 0x40, 0x41, 0x10

	u, ok := LabelUseFromReloc(RelocX86CallPCRel4, -int64(window-start))
	require.True(t, ok)

	a := make([]byte, 4)
	u.Patch(a, window, target)

	b := make([]byte, 4)
	JumpUse(window-start).Patch(b, window, target)

	assert.Equal(t, b, a)
	assert.Equal(t, int32(target-start), int32(binary.LittleEndian.Uint32(a)))
}

func TestLabelPatchProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		use := rapid.Uint32Range(0, 1<<30).Draw(t, "use")
		label := rapid.Uint32Range(0, 1<<30).Draw(t, "label")
		addend := rapid.Uint32Range(0, 16).Draw(t, "addend")

		buf := make([]byte, 4)
		JumpUse(addend).Patch(buf, use, label)

		got := int64(int32(binary.LittleEndian.Uint32(buf)))

		if start := int64(use) - int64(addend); start+got != int64(label) {
			t.Fatalf("instruction at %d jumps to %d, want %d", start, start+got, label)
		}
	})
}
