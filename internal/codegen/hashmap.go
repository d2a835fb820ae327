package codegen

import (
	"fmt"

	"tern/internal/layout"
	"tern/internal/types"
)

// Entry tags. A slot never returns from tombstone to empty; only rehash
// reclaims tombstones, by rebuilding the table.
const (
	tagEmpty     = 0
	tagOccupied  = 1
	tagTombstone = 2
)

// Header field indices of %map.K.V = { %tern.array buckets, i64 size,
// i64 capacity, i64 tombstones }.
const (
	fieldBuckets    = 0
	fieldSize       = 1
	fieldCapacity   = 2
	fieldTombstones = 3
)

// mapGen emits the full open-addressing method set for one (K, V) pair.
type mapGen struct {
	c          *Context
	inst       *Instance
	key, value types.Desc
	kTy, vTy   string // LLVM value types
	hdr        string // "%map.K.V"
	entry      string // "%map.K.V.entry"
	entrySize  int
	keySize    int
	valueSize  int
	caps       keyCaps
	maybeV     *Instance
}

// emitMap synthesizes the hash-map method set. get/remove return the option
// wrapper of the value type, so that instance is ensured first; a key type
// without hash/eq capabilities aborts the instantiation.
func (c *Context) emitMap(inst *Instance) error {
	g := &mapGen{
		c:     c,
		inst:  inst,
		key:   inst.Desc.Args[0],
		value: inst.Desc.Args[1],
		hdr:   "%" + inst.Mangled,
		entry: "%" + inst.Mangled + ".entry",
	}

	caps, err := c.capabilitiesFor(g.key)
	if err != nil {
		return err
	}
	g.caps = caps

	if g.kTy, err = c.valueType(g.key); err != nil {
		return err
	}
	if g.vTy, err = c.valueType(g.value); err != nil {
		return err
	}
	if g.maybeV, err = c.ensureLocked(types.Maybe(g.value)); err != nil {
		return err
	}

	rec, err := c.Layout.EntryLayout(g.key, g.value)
	if err != nil {
		return err
	}
	g.entrySize = rec.Size
	if g.keySize, err = c.Layout.SizeOf(g.key); err != nil {
		return err
	}
	if g.valueSize, err = c.Layout.SizeOf(g.value); err != nil {
		return err
	}

	inst.addTypeDef(fmt.Sprintf("%s = type { %s, %s, i8 }", g.entry, g.kTy, g.vTy))
	inst.addTypeDef(fmt.Sprintf("%s = type { %%tern.array, i64, i64, i64 }", g.hdr))

	g.emitNew()
	g.emitLen()
	g.emitIsEmpty()
	g.emitTombstones()
	g.emitGet()
	g.emitContains()
	g.emitInsert()
	g.emitRemove()
	g.emitRehash()
	g.emitKeys()
	g.emitValues()
	g.emitFree()
	return nil
}

func (g *mapGen) symbol(op string) string {
	return g.inst.Mangled + "." + op
}

// fieldPtr emits a GEP to a header field and returns the pointer register.
func (g *mapGen) fieldPtr(fe *funcEmitter, m string, field int) string {
	p := fe.nextTemp()
	fe.linef("%s = getelementptr %s, %s* %s, i32 0, i32 %d", p, g.hdr, g.hdr, m, field)
	return p
}

// bucketsPtr emits a GEP to a field of the embedded buckets triple
// (0 = len, 1 = cap, 2 = data).
func (g *mapGen) bucketsPtr(fe *funcEmitter, m string, field int) string {
	p := fe.nextTemp()
	fe.linef("%s = getelementptr %s, %s* %s, i32 0, i32 0, i32 %d", p, g.hdr, g.hdr, m, field)
	return p
}

func (g *mapGen) loadField(fe *funcEmitter, m string, field int) string {
	p := g.fieldPtr(fe, m, field)
	v := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", v, p)
	return v
}

// loadData loads the raw bucket storage pointer and its typed view.
func (g *mapGen) loadData(fe *funcEmitter, m string) (raw, data string) {
	p := g.bucketsPtr(fe, m, 2)
	raw = fe.nextTemp()
	fe.linef("%s = load i8*, i8** %s", raw, p)
	data = fe.nextTemp()
	fe.linef("%s = bitcast i8* %s to %s*", data, raw, g.entry)
	return raw, data
}

func (g *mapGen) slot(fe *funcEmitter, data, idx string) string {
	s := fe.nextTemp()
	fe.linef("%s = getelementptr %s, %s* %s, i64 %s", s, g.entry, g.entry, data, idx)
	return s
}

func (g *mapGen) entryField(fe *funcEmitter, slot string, field int) string {
	p := fe.nextTemp()
	fe.linef("%s = getelementptr %s, %s* %s, i32 0, i32 %d", p, g.entry, g.entry, slot, field)
	return p
}

func (g *mapGen) emitNew() {
	sym := g.symbol("new")
	fe := newFuncEmitter(g.hdr+"*", sym, "")
	bytes := layout.MapMinCapacity * g.entrySize

	raw := fe.nextTemp()
	fe.linef("%s = call i8* @tern.alloc(i64 %d)", raw, g.c.Layout.MapHeaderSize())
	m := fe.nextTemp()
	fe.linef("%s = bitcast i8* %s to %s*", m, raw, g.hdr)
	braw := fe.nextTemp()
	fe.linef("%s = call i8* @tern.alloc(i64 %d)", braw, bytes)
	fe.linef("call void @tern.memset(i8* %s, i8 0, i64 %d)", braw, bytes)

	lenp := g.bucketsPtr(fe, m, 0)
	fe.linef("store i64 %d, i64* %s", layout.MapMinCapacity, lenp)
	capp := g.bucketsPtr(fe, m, 1)
	fe.linef("store i64 %d, i64* %s", layout.MapMinCapacity, capp)
	datap := g.bucketsPtr(fe, m, 2)
	fe.linef("store i8* %s, i8** %s", braw, datap)
	sizep := g.fieldPtr(fe, m, fieldSize)
	fe.linef("store i64 0, i64* %s", sizep)
	capf := g.fieldPtr(fe, m, fieldCapacity)
	fe.linef("store i64 %d, i64* %s", layout.MapMinCapacity, capf)
	tombp := g.fieldPtr(fe, m, fieldTombstones)
	fe.linef("store i64 0, i64* %s", tombp)
	fe.linef("ret %s* %s", g.hdr, m)

	g.inst.addMethod(Method{Name: "new", Symbol: sym, Ret: g.hdr + "*"}, fe.finish())
}

func (g *mapGen) emitLen() {
	sym := g.symbol("len")
	fe := newFuncEmitter("i64", sym, g.hdr+"* %m")
	size := g.loadField(fe, "%m", fieldSize)
	fe.linef("ret i64 %s", size)
	g.inst.addMethod(Method{Name: "len", Symbol: sym, Ret: "i64", Params: []string{g.hdr + "*"}}, fe.finish())
}

func (g *mapGen) emitIsEmpty() {
	sym := g.symbol("is_empty")
	fe := newFuncEmitter("i1", sym, g.hdr+"* %m")
	size := g.loadField(fe, "%m", fieldSize)
	empty := fe.nextTemp()
	fe.linef("%s = icmp eq i64 %s, 0", empty, size)
	fe.linef("ret i1 %s", empty)
	g.inst.addMethod(Method{Name: "is_empty", Symbol: sym, Ret: "i1", Params: []string{g.hdr + "*"}}, fe.finish())
}

func (g *mapGen) emitTombstones() {
	sym := g.symbol("tombstones")
	fe := newFuncEmitter("i64", sym, g.hdr+"* %m")
	t := g.loadField(fe, "%m", fieldTombstones)
	fe.linef("ret i64 %s", t)
	g.inst.addMethod(Method{Name: "tombstones", Symbol: sym, Ret: "i64", Params: []string{g.hdr + "*"}}, fe.finish())
}

func (g *mapGen) emitFree() {
	sym := g.symbol("free")
	fe := newFuncEmitter("void", sym, g.hdr+"* %m")
	p := g.bucketsPtr(fe, "%m", 2)
	raw := fe.nextTemp()
	fe.linef("%s = load i8*, i8** %s", raw, p)
	fe.linef("call void @tern.free(i8* %s)", raw)
	mraw := fe.nextTemp()
	fe.linef("%s = bitcast %s* %%m to i8*", mraw, g.hdr)
	fe.linef("call void @tern.free(i8* %s)", mraw)
	fe.linef("ret void")
	g.inst.addMethod(Method{Name: "free", Symbol: sym, Ret: "void", Params: []string{g.hdr + "*"}}, fe.finish())
}
