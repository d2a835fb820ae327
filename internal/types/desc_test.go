package types

import (
	"testing"
)

func TestDesc_String(t *testing.T) {
	cases := []struct {
		desc Desc
		want string
	}{
		{Bool(), "bool"},
		{Char(), "char"},
		{Int(8), "i8"},
		{Int(64), "i64"},
		{Uint(32), "u32"},
		{Float(64), "f64"},
		{Str(), "str"},
		{Maybe(Int(32)), "Maybe<i32>"},
		{Result(Str(), Int(64)), "Result<str, i64>"},
		{Map(Int(64), Str()), "Map<i64, str>"},
		{Map(Str(), Maybe(Int(8))), "Map<str, Maybe<i8>>"},
	}
	for _, tc := range cases {
		if got := tc.desc.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestDesc_Mangle(t *testing.T) {
	cases := []struct {
		desc Desc
		want string
	}{
		{Int(64), "i64"},
		{Maybe(Int(32)), "maybe.i32"},
		{Result(Str(), Int(64)), "result.str.i64"},
		{Map(Int(64), Str()), "map.i64.str"},
		{Map(Str(), Maybe(Int(8))), "map.str.maybe.i8"},
		{Maybe(Map(Int(64), Str())), "maybe.map.i64.str"},
	}
	for _, tc := range cases {
		if got := tc.desc.Mangle(); got != tc.want {
			t.Errorf("Mangle() = %q, want %q", got, tc.want)
		}
	}
}

// Mangled names must be injective: kinds with fixed argument counts form a
// prefix code, so structurally distinct trees never render the same.
func TestDesc_MangleInjective(t *testing.T) {
	descs := []Desc{
		Int(8), Int(16), Int(32), Int(64),
		Uint(8), Uint(64), Float(32), Float(64),
		Bool(), Char(), Str(),
		Maybe(Int(64)), Maybe(Str()), Maybe(Maybe(Int(64))),
		Result(Int(64), Str()), Result(Str(), Int(64)),
		Map(Int(64), Str()), Map(Str(), Int(64)),
		Map(Int(64), Maybe(Str())), Maybe(Map(Int(64), Str())),
		Result(Maybe(Int(8)), Map(Str(), Bool())),
	}
	seen := make(map[string]Desc, len(descs))
	for _, d := range descs {
		m := d.Mangle()
		if prev, dup := seen[m]; dup && !prev.Equal(d) {
			t.Errorf("mangle collision: %s and %s both render %q", prev, d, m)
		}
		seen[m] = d
	}
}

func TestDesc_IsValid(t *testing.T) {
	valid := []Desc{
		Bool(), Int(8), Int(64), Uint(16), Float(32), Float(64), Str(),
		Maybe(Int(32)), Result(Int(64), Str()), Map(Str(), Bool()),
	}
	for _, d := range valid {
		if !d.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", d)
		}
	}
	invalid := []Desc{
		{},
		Int(7),
		Int(128),
		Float(16),
		{Kind: KindMaybe},
		{Kind: KindMap, Args: []Desc{Int(64)}},
		Maybe(Desc{}),
	}
	for _, d := range invalid {
		if d.IsValid() {
			t.Errorf("IsValid(%#v) = true, want false", d)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	descs := []Desc{
		Bool(), Char(), Str(), Int(8), Int(64), Uint(32), Float(64),
		Maybe(Int(32)),
		Result(Str(), Int(64)),
		Map(Int(64), Str()),
		Map(Str(), Maybe(Int(8))),
		Result(Maybe(Int(64)), Map(Str(), Bool())),
	}
	for _, want := range descs {
		got, err := Parse(want.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", want.String(), err)
		}
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %s, want %s", want.String(), got, want)
		}
	}
}

func TestParse_Whitespace(t *testing.T) {
	got, err := Parse("Map< i64 ,\tstr >")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !got.Equal(Map(Int(64), Str())) {
		t.Errorf("Parse = %s, want Map<i64, str>", got)
	}
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		"",
		"i7",
		"f16",
		"Maybe",
		"Maybe<i32",
		"Maybe<i32>>",
		"Map<i64>",
		"Map<i64, str, bool>",
		"Vec<i64>",
		"i64 extra",
	}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}
