package tp

import "fmt"

type (
	// Type is an SSA value type as seen by the machine layer.
	Type interface {
		Size() int
		String() string
	}

	Int struct {
		Bits int16
	}

	Float struct {
		Bits int16
	}

	Vector struct {
		Lane  Type
		Lanes int
	}

	// Invalid is the type of values that carry nothing, like the result of a store.
	Invalid struct{}
)

var (
	I8   = Int{Bits: 8}
	I16  = Int{Bits: 16}
	I32  = Int{Bits: 32}
	I64  = Int{Bits: 64}
	I128 = Int{Bits: 128}

	F16  = Float{Bits: 16}
	F32  = Float{Bits: 32}
	F64  = Float{Bits: 64}
	F128 = Float{Bits: 128}

	I8X2   = Vector{Lane: I8, Lanes: 2}
	I8X4   = Vector{Lane: I8, Lanes: 4}
	I8X8   = Vector{Lane: I8, Lanes: 8}
	I8X16  = Vector{Lane: I8, Lanes: 16}
	I16X8  = Vector{Lane: I16, Lanes: 8}
	I16X16 = Vector{Lane: I16, Lanes: 16}
	I32X4  = Vector{Lane: I32, Lanes: 4}
	I32X16 = Vector{Lane: I32, Lanes: 16}
	I64X2  = Vector{Lane: I64, Lanes: 2}
	F32X4  = Vector{Lane: F32, Lanes: 4}
	F64X2  = Vector{Lane: F64, Lanes: 2}
)

func (x Int) Size() int { return int(x.Bits) / 8 }

func (x Float) Size() int { return int(x.Bits) / 8 }

func (x Vector) Size() int { return x.Lane.Size() * x.Lanes }

func (Invalid) Size() int { return 0 }

func (x Int) String() string { return fmt.Sprintf("i%d", x.Bits) }

func (x Float) String() string { return fmt.Sprintf("f%d", x.Bits) }

func (x Vector) String() string { return fmt.Sprintf("%vx%d", x.Lane, x.Lanes) }

func (Invalid) String() string { return "invalid" }

func Bits(t Type) int {
	return t.Size() * 8
}

func IsInt(t Type) bool {
	_, ok := t.(Int)
	return ok
}

func IsFloat(t Type) bool {
	_, ok := t.(Float)
	return ok
}

func IsVector(t Type) bool {
	_, ok := t.(Vector)
	return ok
}
