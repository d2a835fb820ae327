package types

import (
	"fmt"
	"strings"
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindChar
	KindInt
	KindUint
	KindFloat
	KindStr
	KindMaybe
	KindResult
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindMaybe:
		return "Maybe"
	case KindResult:
		return "Result"
	case KindMap:
		return "Map"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsGeneric reports whether the kind takes type arguments.
func (k Kind) IsGeneric() bool {
	switch k {
	case KindMaybe, KindResult, KindMap:
		return true
	default:
		return false
	}
}

// Desc is a structural type descriptor. Scalars carry a bit width where it
// matters; generic kinds carry ordered type arguments.
type Desc struct {
	Kind  Kind
	Width int // bits, for int/uint/float
	Args  []Desc
}

// Scalar constructors.
func Bool() Desc          { return Desc{Kind: KindBool} }
func Char() Desc          { return Desc{Kind: KindChar} }
func Int(width int) Desc  { return Desc{Kind: KindInt, Width: width} }
func Uint(width int) Desc { return Desc{Kind: KindUint, Width: width} }
func Float(bits int) Desc { return Desc{Kind: KindFloat, Width: bits} }
func Str() Desc           { return Desc{Kind: KindStr} }

// Generic constructors.
func Maybe(elem Desc) Desc      { return Desc{Kind: KindMaybe, Args: []Desc{elem}} }
func Result(ok, err Desc) Desc  { return Desc{Kind: KindResult, Args: []Desc{ok, err}} }
func Map(key, value Desc) Desc  { return Desc{Kind: KindMap, Args: []Desc{key, value}} }

// IsValid reports whether the descriptor describes a complete type.
func (d Desc) IsValid() bool {
	switch d.Kind {
	case KindInvalid:
		return false
	case KindInt, KindUint:
		switch d.Width {
		case 8, 16, 32, 64:
			return true
		}
		return false
	case KindFloat:
		return d.Width == 32 || d.Width == 64
	case KindMaybe:
		return len(d.Args) == 1 && d.Args[0].IsValid()
	case KindResult, KindMap:
		return len(d.Args) == 2 && d.Args[0].IsValid() && d.Args[1].IsValid()
	default:
		return len(d.Args) == 0
	}
}

// Equal reports structural equality of two descriptors.
func (d Desc) Equal(other Desc) bool {
	if d.Kind != other.Kind || d.Width != other.Width || len(d.Args) != len(other.Args) {
		return false
	}
	for i := range d.Args {
		if !d.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the surface syntax of the type, e.g. "i64", "Maybe<i32>",
// "Map<i64, str>". Two descriptors render identically iff they are Equal;
// downstream registries key on this string.
func (d Desc) String() string {
	switch d.Kind {
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return fmt.Sprintf("i%d", d.Width)
	case KindUint:
		return fmt.Sprintf("u%d", d.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", d.Width)
	case KindStr:
		return "str"
	case KindMaybe, KindResult, KindMap:
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = a.String()
		}
		return d.Kind.String() + "<" + strings.Join(args, ", ") + ">"
	default:
		return "invalid"
	}
}

// Mangle renders the dotted lowercase form used in emitted IR symbol names,
// e.g. "i64", "maybe.i32", "map.i64.str". The mapping is injective over valid
// descriptors: each component is an argument-count-fixed head followed by the
// mangled arguments, so distinct trees never collide.
func (d Desc) Mangle() string {
	switch d.Kind {
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return fmt.Sprintf("i%d", d.Width)
	case KindUint:
		return fmt.Sprintf("u%d", d.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", d.Width)
	case KindStr:
		return "str"
	case KindMaybe:
		return "maybe." + d.Args[0].Mangle()
	case KindResult:
		return "result." + d.Args[0].Mangle() + "." + d.Args[1].Mangle()
	case KindMap:
		return "map." + d.Args[0].Mangle() + "." + d.Args[1].Mangle()
	default:
		return "invalid"
	}
}
