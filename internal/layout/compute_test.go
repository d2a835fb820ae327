package layout

import (
	"testing"

	"tern/internal/types"
)

func TestSizeOf_Scalars(t *testing.T) {
	e := New(X86_64LinuxGNU())
	cases := []struct {
		desc      types.Desc
		size, ali int
	}{
		{types.Bool(), 1, 1},
		{types.Char(), 4, 4},
		{types.Int(8), 1, 1},
		{types.Int(64), 8, 8},
		{types.Uint(16), 2, 2},
		{types.Float(32), 4, 4},
		{types.Float(64), 8, 8},
		{types.Str(), 16, 8},
		{types.Map(types.Int(64), types.Str()), 8, 8},
	}
	for _, tc := range cases {
		s, err := e.SizeOf(tc.desc)
		if err != nil {
			t.Fatalf("SizeOf(%s): %v", tc.desc, err)
		}
		if s != tc.size {
			t.Errorf("SizeOf(%s) = %d, want %d", tc.desc, s, tc.size)
		}
		a, err := e.AlignOf(tc.desc)
		if err != nil {
			t.Fatalf("AlignOf(%s): %v", tc.desc, err)
		}
		if a != tc.ali {
			t.Errorf("AlignOf(%s) = %d, want %d", tc.desc, a, tc.ali)
		}
	}
}

func TestStruct_CRules(t *testing.T) {
	// { i8, i64, i8 } pads to 8-alignment: offsets 0, 8, 16, size 24.
	rec := Struct(Field{1, 1}, Field{8, 8}, Field{1, 1})
	if rec.Size != 24 || rec.Align != 8 {
		t.Fatalf("Struct size/align = %d/%d, want 24/8", rec.Size, rec.Align)
	}
	wantOffsets := []int{0, 8, 16}
	for i, off := range rec.Offsets {
		if off != wantOffsets[i] {
			t.Errorf("offset[%d] = %d, want %d", i, off, wantOffsets[i])
		}
	}
}

func TestMaybeLayout(t *testing.T) {
	e := New(X86_64LinuxGNU())
	// { i8 tag, i64 payload } -> payload at 8, size 16.
	rec, err := e.MaybeLayout(types.Int(64))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Size != 16 || rec.Offsets[1] != 8 {
		t.Errorf("MaybeLayout(i64) = size %d payload@%d, want 16 @8", rec.Size, rec.Offsets[1])
	}
	// { i8 tag, i8 payload } packs into 2 bytes.
	rec, err = e.MaybeLayout(types.Int(8))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Size != 2 {
		t.Errorf("MaybeLayout(i8) size = %d, want 2", rec.Size)
	}
}

func TestEntryLayout(t *testing.T) {
	e := New(X86_64LinuxGNU())
	// { i64 key, str value, i8 tag } -> value at 8, tag at 24, size 32.
	rec, err := e.EntryLayout(types.Int(64), types.Str())
	if err != nil {
		t.Fatal(err)
	}
	if rec.Size != 32 {
		t.Errorf("entry size = %d, want 32", rec.Size)
	}
	if rec.Offsets[1] != 8 || rec.Offsets[2] != 24 {
		t.Errorf("entry offsets = %v, want [0 8 24]", rec.Offsets)
	}
}

func TestMapHeaderSize(t *testing.T) {
	e := New(X86_64LinuxGNU())
	if got := e.MapHeaderSize(); got != 48 {
		t.Errorf("MapHeaderSize() = %d, want 48", got)
	}
}

func TestLoadFactorConstants(t *testing.T) {
	if MapMinCapacity&(MapMinCapacity-1) != 0 {
		t.Errorf("MapMinCapacity %d is not a power of two", MapMinCapacity)
	}
	if MapGrowthFactor != 2 {
		t.Errorf("MapGrowthFactor = %d, want 2", MapGrowthFactor)
	}
	if float64(MapLoadNum)/float64(MapLoadDen) != 0.75 {
		t.Errorf("load factor = %d/%d, want 0.75", MapLoadNum, MapLoadDen)
	}
}
