package codegen

// probeFrame holds the registers of one emitted probe loop: capacity, the
// power-of-two wrap mask, the typed bucket view, and the alloca'd loop
// variables (slot index, probes taken).
type probeFrame struct {
	cap  string
	mask string
	data string
	iv   string // i64* current index
	nv   string // i64* probe counter

	i    string // loaded per iteration
	slot string
	tag  string
}

// beginProbe emits the probe prologue and loop head shared by every keyed
// operation: hash the key, start at hash & (cap-1), and bound the walk by
// cap probes so a degenerate full table cannot loop forever. Control falls
// into block "check" with the slot and tag in hand; exhaustion branches to
// exhaustedLabel.
func (g *mapGen) beginProbe(fe *funcEmitter, exhaustedLabel string, extraAllocas func()) *probeFrame {
	f := &probeFrame{}
	f.cap = g.loadField(fe, "%m", fieldCapacity)
	f.mask = fe.nextTemp()
	fe.linef("%s = sub i64 %s, 1", f.mask, f.cap)
	h := g.caps.hash(fe, "%key")
	start := fe.nextTemp()
	fe.linef("%s = and i64 %s, %s", start, h, f.mask)
	_, f.data = g.loadData(fe, "%m")

	f.iv = fe.nextTemp()
	fe.linef("%s = alloca i64", f.iv)
	f.nv = fe.nextTemp()
	fe.linef("%s = alloca i64", f.nv)
	if extraAllocas != nil {
		extraAllocas()
	}
	fe.linef("store i64 %s, i64* %s", start, f.iv)
	fe.linef("store i64 0, i64* %s", f.nv)
	fe.linef("br label %%probe")

	fe.label("probe")
	f.i = fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", f.i, f.iv)
	n := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", n, f.nv)
	exhausted := fe.nextTemp()
	fe.linef("%s = icmp uge i64 %s, %s", exhausted, n, f.cap)
	fe.linef("br i1 %s, label %%%s, label %%check", exhausted, exhaustedLabel)

	fe.label("check")
	f.slot = g.slot(fe, f.data, f.i)
	tagp := g.entryField(fe, f.slot, 2)
	f.tag = fe.nextTemp()
	fe.linef("%s = load i8, i8* %s", f.tag, tagp)
	return f
}

// endProbe emits the advance block: step +1 with wraparound via the mask.
func (g *mapGen) endProbe(fe *funcEmitter, f *probeFrame) {
	fe.label("advance")
	ip := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", ip, f.i)
	iw := fe.nextTemp()
	fe.linef("%s = and i64 %s, %s", iw, ip, f.mask)
	fe.linef("store i64 %s, i64* %s", iw, f.iv)
	n := fe.nextTemp()
	fe.linef("%s = load i64, i64* %s", n, f.nv)
	np := fe.nextTemp()
	fe.linef("%s = add i64 %s, 1", np, n)
	fe.linef("store i64 %s, i64* %s", np, f.nv)
	fe.linef("br label %%probe")
}

// emitKeyMatchDispatch emits the tag dispatch shared by get/contains/remove:
// empty stops the probe (missLabel), occupied compares keys (hitLabel on
// match), tombstones and non-matching keys keep probing.
func (g *mapGen) emitKeyMatchDispatch(fe *funcEmitter, f *probeFrame, hitLabel, missLabel string) {
	isEmpty := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", isEmpty, f.tag, tagEmpty)
	fe.linef("br i1 %s, label %%%s, label %%occq", isEmpty, missLabel)

	fe.label("occq")
	isOcc := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, %d", isOcc, f.tag, tagOccupied)
	fe.linef("br i1 %s, label %%keycmp, label %%advance", isOcc)

	fe.label("keycmp")
	kp := g.entryField(fe, f.slot, 0)
	cur := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", cur, g.kTy, g.kTy, kp)
	same := g.caps.eq(fe, cur, "%key")
	fe.linef("br i1 %s, label %%%s, label %%advance", same, hitLabel)
}

func (g *mapGen) emitGet() {
	sym := g.symbol("get")
	maybeTy := "%" + g.maybeV.Mangled
	fe := newFuncEmitter(maybeTy, sym, g.hdr+"* %m, "+g.kTy+" %key")

	f := g.beginProbe(fe, "miss", nil)
	g.emitKeyMatchDispatch(fe, f, "hit", "miss")
	g.endProbe(fe, f)

	fe.label("hit")
	vp := g.entryField(fe, f.slot, 1)
	val := fe.nextTemp()
	fe.linef("%s = load %s, %s* %s", val, g.vTy, g.vTy, vp)
	some := fe.nextTemp()
	fe.linef("%s = call %s @%s.some(%s %s)", some, maybeTy, g.maybeV.Mangled, g.vTy, val)
	fe.linef("ret %s %s", maybeTy, some)

	fe.label("miss")
	none := fe.nextTemp()
	fe.linef("%s = call %s @%s.none()", none, maybeTy, g.maybeV.Mangled)
	fe.linef("ret %s %s", maybeTy, none)

	g.inst.addMethod(Method{Name: "get", Symbol: sym, Ret: maybeTy, Params: []string{g.hdr + "*", g.kTy}}, fe.finish())
}

func (g *mapGen) emitContains() {
	sym := g.symbol("contains")
	fe := newFuncEmitter("i1", sym, g.hdr+"* %m, "+g.kTy+" %key")

	f := g.beginProbe(fe, "miss", nil)
	g.emitKeyMatchDispatch(fe, f, "hit", "miss")
	g.endProbe(fe, f)

	fe.label("hit")
	fe.linef("ret i1 true")
	fe.label("miss")
	fe.linef("ret i1 false")

	g.inst.addMethod(Method{Name: "contains", Symbol: sym, Ret: "i1", Params: []string{g.hdr + "*", g.kTy}}, fe.finish())
}
