package pulley

import (
	"encoding/binary"
	"fmt"
	"math"

	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"
)

type (
	LabelUseKind uint8

	// LabelUse is how a reference to a label is encoded.
	//
	// LabelUseJump is a PC-relative i32 used by jumps, calls and branch tables.
	// Addend is the distance from the start of the instruction
	// to the patched window, since offsets are relative to the instruction start.
	LabelUse struct {
		Kind   LabelUseKind
		Addend uint32
	}

	// Reloc is a relocation kind as produced for external references.
	Reloc uint8
)

const (
	LabelUseJump LabelUseKind = iota
)

const (
	RelocAbs4 Reloc = iota
	RelocAbs8
	RelocX86PCRel4
	RelocX86CallPCRel4
	RelocX86CallPLTRel4
	RelocArm64Call
	RelocS390xPCRel32Dbl
)

// LabelUseAlign is the alignment of veneers; pulley has no alignment requirement.
const LabelUseAlign = 1

func JumpUse(addend uint32) LabelUse {
	return LabelUse{Kind: LabelUseJump, Addend: addend}
}

func (u LabelUse) MaxPosRange() uint32 {
	switch u.Kind {
	case LabelUseJump:
		return 0x7fff_ffff
	default:
		panic(u.Kind)
	}
}

func (u LabelUse) MaxNegRange() uint32 {
	switch u.Kind {
	case LabelUseJump:
		return 0x8000_0000
	default:
		panic(u.Kind)
	}
}

func (u LabelUse) PatchSize() uint32 {
	switch u.Kind {
	case LabelUseJump:
		return 4
	default:
		panic(u.Kind)
	}
}

// Patch writes the reference to labelOffset into buf, the window at useOffset.
func (u LabelUse) Patch(buf []byte, useOffset, labelOffset uint32) {
	rel := int64(labelOffset) - int64(useOffset)

	if rel > int64(u.MaxPosRange()) || rel < -int64(u.MaxNegRange()) {
		panic(fmt.Sprintf("label use at %#x out of range of label at %#x", useOffset, labelOffset))
	}

	if len(buf) != int(u.PatchSize()) {
		panic(fmt.Sprintf("patch window of %d bytes, want %d", len(buf), u.PatchSize()))
	}

	pcrel := uint32(int32(rel))

	switch u.Kind {
	case LabelUseJump:
		val := pcrel + u.Addend

		tlog.V("label_patch").Printw("patching label use", "use", useOffset, "label", labelOffset, "pcrel", int32(pcrel))

		binary.LittleEndian.PutUint32(buf, val)
	default:
		panic(u.Kind)
	}
}

func (u LabelUse) SupportsVeneer() bool {
	switch u.Kind {
	case LabelUseJump:
		return false
	default:
		panic(u.Kind)
	}
}

func (u LabelUse) VeneerSize() uint32 {
	switch u.Kind {
	case LabelUseJump:
		return 0
	default:
		panic(u.Kind)
	}
}

func WorstCaseVeneerSize() uint32 { return 0 }

// GenerateVeneer is never needed: the jump range covers the whole code buffer.
func (u LabelUse) GenerateVeneer(buf []byte, veneerOffset uint32) (uint32, LabelUse) {
	panic(fmt.Sprintf("veneer not supported for %v", u))
}

// LabelUseFromReloc turns a call relocation back into a label use.
// Only X86CallPCRel4 with a negative addend maps:
// the relocation points into the instruction, the jump counts from its start.
func LabelUseFromReloc(r Reloc, addend int64) (LabelUse, bool) {
	switch {
	case r == RelocX86CallPCRel4 && addend < 0:
		if -addend > math.MaxInt32 {
			panic(fmt.Sprintf("reloc addend out of range: %d", addend))
		}

		return JumpUse(uint32(-addend)), true
	default:
		return LabelUse{}, false
	}
}

func (u LabelUse) String() string {
	switch u.Kind {
	case LabelUseJump:
		return fmt.Sprintf("Jump(%d)", u.Addend)
	default:
		return fmt.Sprintf("LabelUse(%d, %d)", u.Kind, u.Addend)
	}
}

func (u LabelUse) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt64(b, "kind", int64(u.Kind))
	b = e.AppendKeyInt64(b, "addend", int64(u.Addend))

	return b
}

func (r Reloc) String() string {
	switch r {
	case RelocAbs4:
		return "Abs4"
	case RelocAbs8:
		return "Abs8"
	case RelocX86PCRel4:
		return "X86PCRel4"
	case RelocX86CallPCRel4:
		return "X86CallPCRel4"
	case RelocX86CallPLTRel4:
		return "X86CallPLTRel4"
	case RelocArm64Call:
		return "Arm64Call"
	case RelocS390xPCRel32Dbl:
		return "S390xPCRel32Dbl"
	default:
		return fmt.Sprintf("reloc(%d)", uint8(r))
	}
}
