package layout

import (
	"fmt"

	"tern/internal/types"
)

// Hash-map geometry shared by the emitter and its tests. Capacity stays a
// power of two so probe wraparound is a bitwise AND, and growth doubles.
const (
	MapMinCapacity  = 16
	MapGrowthFactor = 2
	// Rehash triggers when size/capacity > MapLoadNum/MapLoadDen after an
	// insert (0.75).
	MapLoadNum = 3
	MapLoadDen = 4
)

// Field is one member of a composite layout.
type Field struct {
	Size  int
	Align int
}

// Record is the resolved layout of a composite: total size, alignment and
// per-field byte offsets.
type Record struct {
	Size    int
	Align   int
	Offsets []int
}

// Engine computes byte layouts for descriptor types on a Target.
type Engine struct {
	Target Target
}

func New(target Target) *Engine {
	return &Engine{Target: target}
}

// FieldOf returns the size/alignment pair of a type.
func (e *Engine) FieldOf(d types.Desc) (Field, error) {
	s, err := e.SizeOf(d)
	if err != nil {
		return Field{}, err
	}
	a, err := e.AlignOf(d)
	if err != nil {
		return Field{}, err
	}
	return Field{Size: s, Align: a}, nil
}

// SizeOf returns the in-memory size of a type in bytes.
func (e *Engine) SizeOf(d types.Desc) (int, error) {
	switch d.Kind {
	case types.KindBool:
		return 1, nil
	case types.KindChar:
		return 4, nil
	case types.KindInt, types.KindUint, types.KindFloat:
		if d.Width%8 != 0 || d.Width <= 0 {
			return 0, fmt.Errorf("layout: bad scalar width %d", d.Width)
		}
		return d.Width / 8, nil
	case types.KindStr:
		// { i64 len, ptr data }
		return 8 + e.Target.PtrSize, nil
	case types.KindMaybe:
		rec, err := e.MaybeLayout(d.Args[0])
		if err != nil {
			return 0, err
		}
		return rec.Size, nil
	case types.KindResult:
		rec, err := e.ResultLayout(d.Args[0], d.Args[1])
		if err != nil {
			return 0, err
		}
		return rec.Size, nil
	case types.KindMap:
		// Map values are handles: a pointer to the header struct.
		return e.Target.PtrSize, nil
	default:
		return 0, fmt.Errorf("layout: unsized type %s", d.Kind)
	}
}

// AlignOf returns the alignment of a type in bytes.
func (e *Engine) AlignOf(d types.Desc) (int, error) {
	switch d.Kind {
	case types.KindBool:
		return 1, nil
	case types.KindChar:
		return 4, nil
	case types.KindInt, types.KindUint, types.KindFloat:
		if d.Width%8 != 0 || d.Width <= 0 {
			return 0, fmt.Errorf("layout: bad scalar width %d", d.Width)
		}
		return d.Width / 8, nil
	case types.KindStr, types.KindMap:
		return e.Target.PtrAlign, nil
	case types.KindMaybe:
		rec, err := e.MaybeLayout(d.Args[0])
		if err != nil {
			return 0, err
		}
		return rec.Align, nil
	case types.KindResult:
		rec, err := e.ResultLayout(d.Args[0], d.Args[1])
		if err != nil {
			return 0, err
		}
		return rec.Align, nil
	default:
		return 0, fmt.Errorf("layout: unsized type %s", d.Kind)
	}
}

// Struct lays out fields sequentially with C struct rules.
func Struct(fields ...Field) Record {
	rec := Record{Align: 1, Offsets: make([]int, 0, len(fields))}
	off := 0
	for _, f := range fields {
		a := f.Align
		if a < 1 {
			a = 1
		}
		off = alignUp(off, a)
		rec.Offsets = append(rec.Offsets, off)
		off += f.Size
		if a > rec.Align {
			rec.Align = a
		}
	}
	rec.Size = alignUp(off, rec.Align)
	return rec
}

// MaybeLayout is the layout of %maybe.T = { i8 tag, T payload }.
func (e *Engine) MaybeLayout(payload types.Desc) (Record, error) {
	pf, err := e.FieldOf(payload)
	if err != nil {
		return Record{}, err
	}
	return Struct(Field{Size: 1, Align: 1}, pf), nil
}

// ResultLayout is the layout of %result.T.E = { i8 tag, T ok, E err }.
func (e *Engine) ResultLayout(ok, errDesc types.Desc) (Record, error) {
	of, err := e.FieldOf(ok)
	if err != nil {
		return Record{}, err
	}
	ef, err := e.FieldOf(errDesc)
	if err != nil {
		return Record{}, err
	}
	return Struct(Field{Size: 1, Align: 1}, of, ef), nil
}

// EntryLayout is the layout of one bucket slot: { K key, V value, i8 tag }.
func (e *Engine) EntryLayout(key, value types.Desc) (Record, error) {
	kf, err := e.FieldOf(key)
	if err != nil {
		return Record{}, err
	}
	vf, err := e.FieldOf(value)
	if err != nil {
		return Record{}, err
	}
	return Struct(kf, vf, Field{Size: 1, Align: 1}), nil
}

// MapHeaderSize is the size of the map header struct:
// { {i64,i64,ptr} buckets, i64 size, i64 capacity, i64 tombstones }.
func (e *Engine) MapHeaderSize() int {
	return 16 + e.Target.PtrSize + 3*8
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + align - rem
}
