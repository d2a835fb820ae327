package codegen

import (
	"strings"
	"testing"

	"github.com/llir/llvm/asm"

	"tern/internal/layout"
	"tern/internal/types"
)

// Every emitted module must be structurally valid IR end to end: labels,
// dominance, one terminator per block. Parsing the whole module is the
// strongest check available without executing it.
func TestModule_ParsesAsValidIR(t *testing.T) {
	cases := []struct {
		name  string
		descs []types.Desc
	}{
		{"maybe_i32", []types.Desc{types.Maybe(types.Int(32))}},
		{"maybe_str", []types.Desc{types.Maybe(types.Str())}},
		{"result_str_i64", []types.Desc{types.Result(types.Str(), types.Int(64))}},
		{"map_i64_str", []types.Desc{types.Map(types.Int(64), types.Str())}},
		{"map_str_i64", []types.Desc{types.Map(types.Str(), types.Int(64))}},
		{"map_u8_bool", []types.Desc{types.Map(types.Uint(8), types.Bool())}},
		{"map_char_f64", []types.Desc{types.Map(types.Char(), types.Float(64))}},
		{"nested", []types.Desc{
			types.Map(types.Int(64), types.Maybe(types.Str())),
			types.Result(types.Map(types.Int(64), types.Str()), types.Str()),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := NewContext(tc.name, layout.X86_64LinuxGNU())
			for _, d := range tc.descs {
				if _, err := ctx.Ensure(d); err != nil {
					t.Fatalf("Ensure(%s): %v", d, err)
				}
			}
			module := ctx.Module()
			if _, err := asm.ParseString(tc.name+".ll", module); err != nil {
				t.Fatalf("emitted module does not parse: %v\n%s", err, module)
			}
		})
	}
}

func TestModule_PreludeEmittedOnce(t *testing.T) {
	ctx := NewContext("prelude", layout.X86_64LinuxGNU())
	if _, err := ctx.Ensure(types.Map(types.Int(64), types.Str())); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Ensure(types.Map(types.Str(), types.Int(64))); err != nil {
		t.Fatal(err)
	}
	module := ctx.Module()
	for _, sym := range []string{
		"define i8* @tern.alloc(",
		"define i64 @tern.hash.i64(",
		"define i64 @tern.hash.str(",
		"define i1 @tern.str.eq(",
		"%tern.str = type",
		"%tern.array = type",
	} {
		if n := strings.Count(module, sym); n != 1 {
			t.Errorf("%q appears %d times, want 1", sym, n)
		}
	}
}

func methodBody(t *testing.T, inst *Instance, name string) string {
	t.Helper()
	m, err := inst.Method(name)
	if err != nil {
		t.Fatalf("Method(%q): %v", name, err)
	}
	for _, def := range inst.Defs {
		firstLine, _, _ := strings.Cut(def, "\n")
		if strings.HasPrefix(firstLine, "define ") && strings.Contains(firstLine, "@"+m.Symbol+"(") {
			return def
		}
	}
	t.Fatalf("no definition found for %q", m.Symbol)
	return ""
}

// insert must check the load factor after placement (size*4 > cap*3) and
// grow by doubling through rehash.
func TestInsert_LoadFactorAndGrowth(t *testing.T) {
	ctx := NewContext("m", layout.X86_64LinuxGNU())
	inst, err := ctx.Ensure(types.Map(types.Int(64), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	body := methodBody(t, inst, "insert")
	for _, want := range []string{
		"mul i64 %t", // size*den and cap*num
		", 4",
		", 3",
		"icmp ugt i64",
		"call void @map.i64.i64.rehash(",
		", 2", // doubling
	} {
		if !strings.Contains(body, want) {
			t.Errorf("insert body missing %q:\n%s", want, body)
		}
	}
}

// remove must demote the slot to a tombstone (tag 2), never back to empty.
func TestRemove_LeavesTombstone(t *testing.T) {
	ctx := NewContext("m", layout.X86_64LinuxGNU())
	inst, err := ctx.Ensure(types.Map(types.Int(64), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	body := methodBody(t, inst, "remove")
	if !strings.Contains(body, "store i8 2, i8*") {
		t.Errorf("remove does not store the tombstone tag:\n%s", body)
	}
	if strings.Contains(body, "store i8 0, i8*") {
		t.Errorf("remove resets a slot to empty:\n%s", body)
	}
}

// Probe loops must be bounded by capacity so a pathological table cannot
// spin forever, and must wrap with the power-of-two mask.
func TestProbe_BoundedAndMasked(t *testing.T) {
	ctx := NewContext("m", layout.X86_64LinuxGNU())
	inst, err := ctx.Ensure(types.Map(types.Int(64), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	for _, op := range []string{"get", "contains", "insert", "remove"} {
		body := methodBody(t, inst, op)
		if !strings.Contains(body, "icmp uge i64") {
			t.Errorf("%s probe is unbounded:\n%s", op, body)
		}
		if !strings.Contains(body, "and i64") {
			t.Errorf("%s probe does not mask the index:\n%s", op, body)
		}
	}
}

// rehash must reset the tombstone counter and replay entries through insert.
func TestRehash_ResetsAndReplays(t *testing.T) {
	ctx := NewContext("m", layout.X86_64LinuxGNU())
	inst, err := ctx.Ensure(types.Map(types.Str(), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	body := methodBody(t, inst, "rehash")
	for _, want := range []string{
		"call void @map.str.i64.insert(",
		"call void @tern.free(",
		"call void @tern.memset(",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rehash body missing %q:\n%s", want, body)
		}
	}
}

// String keys must dispatch through the runtime helpers, integer keys through
// the SplitMix64 finalizer.
func TestKeyCapabilities(t *testing.T) {
	ctx := NewContext("m", layout.X86_64LinuxGNU())

	strMap, err := ctx.Ensure(types.Map(types.Str(), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	body := methodBody(t, strMap, "get")
	if !strings.Contains(body, "call i64 @tern.hash.str(") {
		t.Error("str-keyed get does not call tern.hash.str")
	}
	if !strings.Contains(body, "call i1 @tern.str.eq(") {
		t.Error("str-keyed get does not call tern.str.eq")
	}

	u8Map, err := ctx.Ensure(types.Map(types.Uint(8), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	body = methodBody(t, u8Map, "get")
	if !strings.Contains(body, "zext i8") {
		t.Error("u8 key is not zero-extended before hashing")
	}
	if !strings.Contains(body, "call i64 @tern.hash.i64(") {
		t.Error("u8-keyed get does not call tern.hash.i64")
	}

	i8Map, err := ctx.Ensure(types.Map(types.Int(8), types.Int(64)))
	if err != nil {
		t.Fatal(err)
	}
	body = methodBody(t, i8Map, "get")
	if !strings.Contains(body, "sext i8") {
		t.Error("i8 key is not sign-extended before hashing")
	}
}

// unwrap on an empty option must trap, not return garbage.
func TestMaybeUnwrap_Traps(t *testing.T) {
	ctx := NewContext("m", layout.X86_64LinuxGNU())
	inst, err := ctx.Ensure(types.Maybe(types.Int(32)))
	if err != nil {
		t.Fatal(err)
	}
	body := methodBody(t, inst, "unwrap")
	if !strings.Contains(body, "call void @tern.trap()") {
		t.Errorf("unwrap does not trap on none:\n%s", body)
	}
	if !strings.Contains(body, "unreachable") {
		t.Errorf("unwrap trap path is not terminated by unreachable:\n%s", body)
	}
}
