package codegen

// emitCollect is the shared body of keys/values: walk buckets in index
// order, copy the requested entry field of every occupied slot into a dense
// array, and return it as a {len, cap, ptr} triple. The snapshot is only
// valid until the next mutation; the table itself is left untouched.
func (g *mapGen) emitCollect(op string, field int, elemTy string, elemSize int) {
	sym := g.symbol(op)
	fe := newFuncEmitter("%tern.array", sym, g.hdr+"* %m")

	size := g.loadField(fe, "%m", fieldSize)
	capacity := g.loadField(fe, "%m", fieldCapacity)
	_, data := g.loadData(fe, "%m")

	bytes := fe.nextTemp()
	fe.linef("%s = mul i64 %s, %d", bytes, size, elemSize)
	outraw := fe.nextTemp()
	fe.linef("%s = call i8* @tern.alloc(i64 %s)", outraw, bytes)
	out := fe.nextTemp()
	fe.linef("%s = bitcast i8* %s to %s*", out, outraw, elemTy)

	jv := fe.nextTemp()
	fe.linef("%s = alloca i64", jv)
	ov := fe.nextTemp()
	fe.linef("%s = alloca i64", ov)
	fe.linef("store i64 0, i64* %s", jv)
	fe.linef("store i64 0, i64* %s", ov)
	fe.linef("br label %%loop")

	fe.label("loop")
	j := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", j, jv)
	done := fe.nextTemp()
	fe.linef("%s = icmp uge i64 %s, %s", done, j, capacity)
	fe.linef("br i1 %s, label %%pack, label %%scan", done)

	fe.label("scan")
	slot := g.slot(fe, data, j)
	tagp := g.entryField(fe, slot, 2)
	tag := fe.nextTemp()
	fe.linef("%s = load i8, i8* %s", tag, tagp)
	isOcc := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", isOcc, tag, tagOccupied)
	fe.linef("br i1 %s, label %%copy, label %%next", isOcc)

	fe.label("copy")
	ep := g.entryField(fe, slot, field)
	elem := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", elem, elemTy, elemTy, ep)
	o := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", o, ov)
	dst := fe.nextTemp()
	fe.linef("%s = getelementptr %s, %s* %s, i64 %s", dst, elemTy, elemTy, out, o)
	fe.linef("store %s %s, %s* %s", elemTy, elem, elemTy, dst)
	on := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", on, o)
	fe.linef("store i64 %s, i64* %s", on, ov)
	fe.linef("br label %%next")

	fe.label("next")
	jn := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", jn, j)
	fe.linef("store i64 %s, i64* %s", jn, jv)
	fe.linef("br label %%loop")

	fe.label("pack")
	a0 := fe.nextTemp()
	fe.linef("%s = insertvalue %%tern.array undef, i64 %s, 0", a0, size)
	a1 := fe.nextTemp()
	fe.linef("%s = insertvalue %%tern.array %s, i64 %s, 1", a1, a0, size)
	a2 := fe.nextTemp()
	fe.linef("%s = insertvalue %%tern.array %s, i8* %s, 2", a2, a1, outraw)
	fe.linef("ret %%tern.array %s", a2)

	g.inst.addMethod(Method{Name: op, Symbol: sym, Ret: "%tern.array",
		Params: []string{g.hdr + "*"}}, fe.finish())
}

func (g *mapGen) emitKeys() {
	g.emitCollect("keys", 0, g.kTy, g.keySize)
}

func (g *mapGen) emitValues() {
	g.emitCollect("values", 1, g.vTy, g.valueSize)
}
