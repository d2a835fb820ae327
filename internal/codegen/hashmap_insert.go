package codegen

import (
	"tern/internal/layout"
)

// emitInsert synthesizes insert: overwrite in place on key match, otherwise
// place at the first tombstone seen (or the stopping empty slot), then grow
// when size/capacity exceeds the load factor. A full table with no reusable
// slot rehashes to double capacity and retries.
func (g *mapGen) emitInsert() {
	sym := g.symbol("insert")
	fe := newFuncEmitter("void", sym, g.hdr+"* %m, "+g.kTy+" %key, "+g.vTy+" %val")

	var tsv, targetv string
	f := g.beginProbe(fe, "nofit", func() {
		tsv = fe.nextTemp()
		fe.linef("%s = alloca i64", tsv)
		targetv = fe.nextTemp()
		fe.linef("%s = alloca i64", targetv)
		fe.linef("store i64 -1, i64* %s", tsv)
	})

	// Tag dispatch. Unlike lookups, tombstones are remembered: the first one
	// becomes the placement target even when probing continues past it.
	isEmpty := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", isEmpty, f.tag, tagEmpty)
	fe.linef("br i1 %s, label %%place_prep, label %%occq", isEmpty)

	fe.label("occq")
	isOcc := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", isOcc, f.tag, tagOccupied)
	fe.linef("br i1 %s, label %%keycmp, label %%tomb", isOcc)

	fe.label("keycmp")
	kp := g.entryField(fe, f.slot, 0)
	cur := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", cur, g.kTy, g.kTy, kp)
	same := g.caps.eq(fe, cur, "%key")
	fe.linef("br i1 %s, label %%overwrite, label %%advance", same)

	fe.label("tomb")
	ts := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", ts, tsv)
	unseen := fe.nextTemp()
	fe.linef("%s = icmp eq i64 %s, -1", unseen, ts)
	fe.linef("br i1 %s, label %%marktomb, label %%advance", unseen)

	fe.label("marktomb")
	fe.linef("store i64 %s, i64* %s", f.i, tsv)
	fe.linef("br label %%advance")

	g.endProbe(fe, f)

	fe.label("overwrite")
	vp := g.entryField(fe, f.slot, 1)
	fe.linef("store %s %%val, %s* %s", g.vTy, g.vTy, vp)
	fe.linef("ret void")

	// Empty slot ended the probe; a remembered tombstone still wins.
	fe.label("place_prep")
	ts2 := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", ts2, tsv)
	hasTs := fe.nextTemp()
	fe.linef("%s = icmp ne i64 %s, -1", hasTs, ts2)
	target := fe.nextTemp()
	fe.linef("%s = select i1 %s, i64 %s, i64 %s", target, hasTs, ts2, f.i)
	fe.linef("store i64 %s, i64* %s", target, targetv)
	fe.linef("br label %%place")

	// The probe visited every slot without finding empty. Reuse a tombstone
	// if one was seen; otherwise the table is saturated and must grow first.
	fe.label("nofit")
	ts3 := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", ts3, tsv)
	hasTs3 := fe.nextTemp()
	fe.linef("%s = icmp ne i64 %s, -1", hasTs3, ts3)
	fe.linef("br i1 %s, label %%place_tomb, label %%grow", hasTs3)

	fe.label("place_tomb")
	fe.linef("store i64 %s, i64* %s", ts3, targetv)
	fe.linef("br label %%place")

	fe.label("grow")
	gcap := fe.nextTemp()
	fe.linef("%s = mul i64 %s, %d", gcap, f.cap, layout.MapGrowthFactor)
	fe.linef("call void @%s(%s* %%m, i64 %s)", g.symbol("rehash"), g.hdr, gcap)
	fe.linef("call void @%s(%s* %%m, %s %%key, %s %%val)", sym, g.hdr, g.kTy, g.vTy)
	fe.linef("ret void")

	fe.label("place")
	t := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", t, targetv)
	pslot := g.slot(fe, f.data, t)
	pk := g.entryField(fe, pslot, 0)
	fe.linef("store %s %%key, %s* %s", g.kTy, g.kTy, pk)
	pv := g.entryField(fe, pslot, 1)
	fe.linef("store %s %%val, %s* %s", g.vTy, g.vTy, pv)
	ptag := g.entryField(fe, pslot, 2)
	old := fe.nextTemp()
	fe.linef("%s = load i8, i8* %s", old, ptag)
	fe.linef("store i8 %d, i8* %s", tagOccupied, ptag)

	sizep := g.fieldPtr(fe, "%m", fieldSize)
	size := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", size, sizep)
	size1 := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", size1, size)
	fe.linef("store i64 %s, i64* %s", size1, sizep)

	wasTomb := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", wasTomb, old, tagTombstone)
	dec := fe.nextTemp()
	fe.linef("%s = zext i1 %s to i64", dec, wasTomb)
	tombp := g.fieldPtr(fe, "%m", fieldTombstones)
	tomb := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", tomb, tombp)
	tomb1 := fe.nextTemp()
	fe.linef("%s = sub i64 %s, %s", tomb1, tomb, dec)
	fe.linef("store i64 %s, i64* %s", tomb1, tombp)

	// Grow when size/capacity > MapLoadNum/MapLoadDen, doubling capacity.
	lhs := fe.nextTemp()
	fe.linef("%s = mul i64 %s, %d", lhs, size1, layout.MapLoadDen)
	rhs := fe.nextTemp()
	fe.linef("%s = mul i64 %s, %d", rhs, f.cap, layout.MapLoadNum)
	over := fe.nextTemp()
	fe.linef("%s = icmp ugt i64 %s, %s", over, lhs, rhs)
	fe.linef("br i1 %s, label %%dorehash, label %%done", over)

	fe.label("dorehash")
	ncap := fe.nextTemp()
	fe.linef("%s = mul i64 %s, %d", ncap, f.cap, layout.MapGrowthFactor)
	fe.linef("call void @%s(%s* %%m, i64 %s)", g.symbol("rehash"), g.hdr, ncap)
	fe.linef("br label %%done")

	fe.label("done")
	fe.linef("ret void")

	g.inst.addMethod(Method{Name: "insert", Symbol: sym, Ret: "void",
		Params: []string{g.hdr + "*", g.kTy, g.vTy}}, fe.finish())
}

// emitRemove synthesizes remove: a matched slot becomes a tombstone, never
// empty again, so probe sequences passing through it stay correct. Returns
// the evicted value as an option.
func (g *mapGen) emitRemove() {
	sym := g.symbol("remove")
	maybeTy := "%" + g.maybeV.Mangled
	fe := newFuncEmitter(maybeTy, sym, g.hdr+"* %m, "+g.kTy+" %key")

	f := g.beginProbe(fe, "miss", nil)
	g.emitKeyMatchDispatch(fe, f, "hit", "miss")
	g.endProbe(fe, f)

	fe.label("hit")
	vp := g.entryField(fe, f.slot, 1)
	val := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", val, g.vTy, g.vTy, vp)
	tagp := g.entryField(fe, f.slot, 2)
	fe.linef("store i8 %d, i8* %s", tagTombstone, tagp)

	sizep := g.fieldPtr(fe, "%m", fieldSize)
	size := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", size, sizep)
	size1 := fe.nextTemp()
	fe.linef("%s = sub i64 %s, 1", size1, size)
	fe.linef("store i64 %s, i64* %s", size1, sizep)

	tombp := g.fieldPtr(fe, "%m", fieldTombstones)
	tomb := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", tomb, tombp)
	tomb1 := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", tomb1, tomb)
	fe.linef("store i64 %s, i64* %s", tomb1, tombp)

	some := fe.nextTemp()
	fe.linef("%s = call %s @%s.some(%s %s)", some, maybeTy, g.maybeV.Mangled, g.vTy, val)
	fe.linef("ret %s %s", maybeTy, some)

	fe.label("miss")
	none := fe.nextTemp()
	fe.linef("%s = call %s @%s.none()", none, maybeTy, g.maybeV.Mangled)
	fe.linef("ret %s %s", maybeTy, none)

	g.inst.addMethod(Method{Name: "remove", Symbol: sym, Ret: maybeTy,
		Params: []string{g.hdr + "*", g.kTy}}, fe.finish())
}

// emitRehash synthesizes rehash: swap in a fresh all-empty table of the new
// capacity, replay every occupied entry through insert, and free the old
// storage. Tombstones are dropped wholesale; this is the only way they are
// ever reclaimed.
func (g *mapGen) emitRehash() {
	sym := g.symbol("rehash")
	fe := newFuncEmitter("void", sym, g.hdr+"* %m, i64 %newcap")

	datap := g.bucketsPtr(fe, "%m", 2)
	oldraw := fe.nextTemp()
	fe.linef("%s = load i8*, i8** %s", oldraw, datap)
	olddata := fe.nextTemp()
	fe.linef("%s = bitcast i8* %s to %s*", olddata, oldraw, g.entry)
	oldcap := g.loadField(fe, "%m", fieldCapacity)

	bytes := fe.nextTemp()
	fe.linef("%s = mul i64 %%newcap, %d", bytes, g.entrySize)
	newraw := fe.nextTemp()
	fe.linef("%s = call i8* @tern.alloc(i64 %s)", newraw, bytes)
	fe.linef("call void @tern.memset(i8* %s, i8 0, i64 %s)", newraw, bytes)

	lenp := g.bucketsPtr(fe, "%m", 0)
	fe.linef("store i64 %%newcap, i64* %s", lenp)
	bcapp := g.bucketsPtr(fe, "%m", 1)
	fe.linef("store i64 %%newcap, i64* %s", bcapp)
	fe.linef("store i8* %s, i8** %s", newraw, datap)
	capp := g.fieldPtr(fe, "%m", fieldCapacity)
	fe.linef("store i64 %%newcap, i64* %s", capp)
	sizep := g.fieldPtr(fe, "%m", fieldSize)
	fe.linef("store i64 0, i64* %s", sizep)
	tombp := g.fieldPtr(fe, "%m", fieldTombstones)
	fe.linef("store i64 0, i64* %s", tombp)

	jv := fe.nextTemp()
	fe.linef("%s = alloca i64", jv)
	fe.linef("store i64 0, i64* %s", jv)
	fe.linef("br label %%loop")

	fe.label("loop")
	j := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", j, jv)
	done := fe.nextTemp()
	fe.linef("%s = icmp uge i64 %s, %s", done, j, oldcap)
	fe.linef("br i1 %s, label %%reclaim, label %%scan", done)

	fe.label("scan")
	slot := g.slot(fe, olddata, j)
	tagp := g.entryField(fe, slot, 2)
	tag := fe.nextTemp()
	fe.linef("%s = load i8, i8* %s", tag, tagp)
	isOcc := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", isOcc, tag, tagOccupied)
	fe.linef("br i1 %s, label %%reinsert, label %%next", isOcc)

	fe.label("reinsert")
	kp := g.entryField(fe, slot, 0)
	k := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", k, g.kTy, g.kTy, kp)
	vp := g.entryField(fe, slot, 1)
	v := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", v, g.vTy, g.vTy, vp)
	fe.linef("call void @%s(%s* %%m, %s %s, %s %s)", g.symbol("insert"), g.hdr, g.kTy, k, g.vTy, v)
	fe.linef("br label %%next")

	fe.label("next")
	jn := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", jn, j)
	fe.linef("store i64 %s, i64* %s", jn, jv)
	fe.linef("br label %%loop")

	fe.label("reclaim")
	fe.linef("call void @tern.free(i8* %s)", oldraw)
	fe.linef("ret void")

	g.inst.addMethod(Method{Name: "rehash", Symbol: sym, Ret: "void",
		Params: []string{g.hdr + "*", "i64"}}, fe.finish())
}
