package pulley

import (
	"fmt"
	"strings"

	"github.com/slowlang/pulley/compiler/tp"
)

type (
	// CallArgPair binds an argument value to the register the ABI puts it in.
	CallArgPair struct {
		VReg Reg
		PReg PReg
	}

	// CallRetPair binds a returned value to where the ABI leaves it.
	CallRetPair struct {
		VReg     Writable[Reg]
		Location RetLocation
	}

	RetLocation struct {
		Stack  bool
		PReg   PReg
		Offset int64
		Type   tp.Type
	}

	// CallInfo is the out-of-line part of a call instruction.
	CallInfo[T any] struct {
		Dest T

		Uses     []CallArgPair
		Defs     []CallRetPair
		Clobbers PRegSet

		TryCall *TryCallInfo

		CalleePopSize uint32
	}

	// PulleyCall is a direct call to bytecode.
	// Args are the leading integer arguments the allocator may place freely.
	PulleyCall struct {
		Name ExtName
		Args []XReg
	}

	ReturnCallInfo[T any] struct {
		Dest T

		// NewStackArgSize is the argument area of the callee,
		// never larger than the caller's own.
		NewStackArgSize uint32

		Uses []CallArgPair
	}

	// TryCallInfo makes a call a block terminator:
	// normal return continues at Continuation, raised exceptions at a handler.
	TryCallInfo struct {
		Continuation Label
		Exceptions   []ExceptionHandler
	}

	HandlerKind uint8

	ExceptionHandler struct {
		Kind  HandlerKind
		Tag   uint32
		Label Label

		// Context is the dynamic context register for HandlerContext.
		Context Reg
	}
)

const (
	HandlerTag HandlerKind = iota
	HandlerDefault
	HandlerContext
)

// MaxFreeArgs is how many leading integer arguments a direct call can take in any register.
const MaxFreeArgs = 4

func NewPulleyCall(name ExtName, args ...XReg) PulleyCall {
	if len(args) > MaxFreeArgs {
		panic(fmt.Sprintf("too many free call args: %d", len(args)))
	}

	for _, a := range args {
		if Reg(a).Class() != ClassInt {
			panic(a)
		}
	}

	return PulleyCall{Name: name, Args: args}
}

func RetReg(p PReg, ty tp.Type) RetLocation {
	return RetLocation{PReg: p, Type: ty}
}

func RetStack(off int64, ty tp.Type) RetLocation {
	return RetLocation{Stack: true, Offset: off, Type: ty}
}

func TagHandler(tag uint32, l Label) ExceptionHandler {
	return ExceptionHandler{Kind: HandlerTag, Tag: tag, Label: l}
}

func DefaultHandler(l Label) ExceptionHandler {
	return ExceptionHandler{Kind: HandlerDefault, Label: l}
}

func ContextHandler(r Reg) ExceptionHandler {
	return ExceptionHandler{Kind: HandlerContext, Context: r}
}

func (ci *CallInfo[T]) collect(v OperandVisitor) {
	for i := range ci.Uses {
		u := &ci.Uses[i]
		v.RegFixedUse(&u.VReg, u.PReg)
	}

	for i := range ci.Defs {
		d := &ci.Defs[i]

		if d.Location.Stack {
			v.AnyDef(d.VReg.reg.ptr())
		} else {
			v.RegFixedDef(d.VReg.reg.ptr(), d.Location.PReg)
		}
	}

	v.RegClobbers(ci.Clobbers)

	if ci.TryCall != nil {
		ci.TryCall.CollectOperands(v)
	}
}

func (ci *CallInfo[T]) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%v", ci.Dest)

	writePairs(&b, "uses", ci.Uses)

	if len(ci.Defs) != 0 {
		b.WriteString(" defs[")

		for i, d := range ci.Defs {
			if i != 0 {
				b.WriteString(", ")
			}

			fmt.Fprintf(&b, "%v=%v", d.VReg, d.Location)
		}

		b.WriteString("]")
	}

	if ci.Clobbers.Len() != 0 {
		fmt.Fprintf(&b, " clobbers%v", ci.Clobbers)
	}

	if ci.CalleePopSize != 0 {
		fmt.Fprintf(&b, " pop %d", ci.CalleePopSize)
	}

	return b.String()
}

func (ci *ReturnCallInfo[T]) collect(v OperandVisitor) {
	for i := range ci.Uses {
		u := &ci.Uses[i]
		v.RegFixedUse(&u.VReg, u.PReg)
	}
}

func (ci *ReturnCallInfo[T]) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%v", ci.Dest)

	writePairs(&b, "uses", ci.Uses)

	fmt.Fprintf(&b, " stack_args %d", ci.NewStackArgSize)

	return b.String()
}

func writePairs(b *strings.Builder, name string, l []CallArgPair) {
	if len(l) == 0 {
		return
	}

	fmt.Fprintf(b, " %s[", name)

	for i, u := range l {
		if i != 0 {
			b.WriteString(", ")
		}

		fmt.Fprintf(b, "%v=%v", u.VReg, u.PReg)
	}

	b.WriteString("]")
}

func (c PulleyCall) String() string {
	if len(c.Args) == 0 {
		return c.Name.String()
	}

	var b strings.Builder

	b.WriteString(c.Name.String())
	b.WriteString(" args(")

	for i, a := range c.Args {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(a.String())
	}

	b.WriteString(")")

	return b.String()
}

func (l RetLocation) String() string {
	if l.Stack {
		return fmt.Sprintf("stack(%d)", l.Offset)
	}

	return l.PReg.String()
}

// CollectOperands reports the handlers' dynamic context registers.
func (t *TryCallInfo) CollectOperands(v OperandVisitor) {
	for i := range t.Exceptions {
		h := &t.Exceptions[i]

		if h.Kind == HandlerContext {
			use(v, &h.Context)
		}
	}
}

// Targets returns the normal continuation followed by every catch label.
func (t *TryCallInfo) Targets() []Label {
	r := []Label{t.Continuation}

	for _, h := range t.Exceptions {
		if h.Kind != HandlerContext {
			r = append(r, h.Label)
		}
	}

	return r
}

func (t *TryCallInfo) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "; jump %v; catch [", t.Continuation)

	for i, h := range t.Exceptions {
		if i != 0 {
			b.WriteString(", ")
		}

		switch h.Kind {
		case HandlerTag:
			fmt.Fprintf(&b, "tag%d: %v", h.Tag, h.Label)
		case HandlerDefault:
			fmt.Fprintf(&b, "default: %v", h.Label)
		case HandlerContext:
			fmt.Fprintf(&b, "context %v", h.Context)
		default:
			panic(h.Kind)
		}
	}

	b.WriteString("]")

	return b.String()
}
