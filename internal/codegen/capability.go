package codegen

import (
	"tern/internal/diag"
	"tern/internal/types"
)

// keyCaps bundles the two capabilities a hash-map key type must supply:
// a hash producing i64 and an equality predicate. Both are resolved once at
// instantiation time from the closed per-kind table below; there is no
// run-time dispatch in the emitted code.
type keyCaps struct {
	// hash emits instructions hashing the typed value reg, returning the
	// i64 result register.
	hash func(fe *funcEmitter, reg string) string
	// eq emits instructions comparing two typed value regs, returning the
	// i1 result register.
	eq func(fe *funcEmitter, a, b string) string
}

// capabilitiesFor resolves hash/eq for a key type. Types outside the table
// (floats, generics) cannot key a map; that is a fatal emission error.
func (c *Context) capabilitiesFor(key types.Desc) (keyCaps, error) {
	switch key.Kind {
	case types.KindInt, types.KindUint, types.KindBool, types.KindChar:
		ty, err := c.valueType(key)
		if err != nil {
			return keyCaps{}, err
		}
		signed := key.Kind == types.KindInt
		wide := (key.Kind == types.KindInt || key.Kind == types.KindUint) && key.Width == 64
		return keyCaps{
			hash: func(fe *funcEmitter, reg string) string {
				word := reg
				if !wide {
					word = fe.nextTemp()
					op := "zext"
					if signed {
						op = "sext"
					}
					fe.linef("%s = %s %s %s to i64", word, op, ty, reg)
				}
				out := fe.nextTemp()
				fe.linef("%s = call i64 @tern.hash.i64(i64 %s)", out, word)
				return out
			},
			eq: func(fe *funcEmitter, a, b string) string {
				out := fe.nextTemp()
				fe.linef("%s = icmp eq %s %s, %s", out, ty, a, b)
				return out
			},
		}, nil
	case types.KindStr:
		return keyCaps{
			hash: func(fe *funcEmitter, reg string) string {
				out := fe.nextTemp()
				fe.linef("%s = call i64 @tern.hash.str(%%tern.str %s)", out, reg)
				return out
			},
			eq: func(fe *funcEmitter, a, b string) string {
				out := fe.nextTemp()
				fe.linef("%s = call i1 @tern.str.eq(%%tern.str %s, %%tern.str %s)", out, a, b)
				return out
			},
		}, nil
	default:
		return keyCaps{}, diag.Errorf(diag.GenMissingCapability,
			"type %s has no hash/eq capability and cannot key a map", key)
	}
}
