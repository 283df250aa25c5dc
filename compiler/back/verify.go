package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/pulley/compiler/asm/pulley"
	"github.com/slowlang/pulley/compiler/set"
)

// Verify checks the block structure of f:
// labels are unique, every branch target is a block of f,
// and every block ends in a terminator or a trap.
func (f *Func) Verify() error {
	var defined, used set.Bitmap[pulley.Label]

	for _, b := range f.Blocks {
		if defined.IsSet(b.Label) {
			return errors.New("block %v defined twice", b.Label)
		}

		defined.Set(b.Label)

		if len(b.Insts) == 0 {
			return errors.New("empty block %v", b.Label)
		}

		for _, x := range b.Insts {
			for _, l := range pulley.BranchTargets(x) {
				used.Set(l)
			}
		}

		last := b.Insts[len(b.Insts)-1]

		if pulley.IsTerm(last) == pulley.TermNone && !pulley.IsTrap(last) {
			return errors.New("block %v ends in %v", b.Label, last)
		}
	}

	used.AndNot(&defined)

	if l := used.First(); l >= 0 {
		return errors.New("branch to missing block %v", pulley.Label(l))
	}

	return nil
}
