package codegen

import (
	"fmt"
)

// emitMaybe synthesizes the tagged-union option wrapper for one payload
// type: %maybe.T = { i8 tag, T payload }, tag 0 = none, 1 = some.
func (c *Context) emitMaybe(inst *Instance) error {
	payload := inst.Desc.Args[0]
	ty, err := c.valueType(payload)
	if err != nil {
		return err
	}
	self := "%" + inst.Mangled

	inst.addTypeDef(fmt.Sprintf("%s = type { i8, %s }", self, ty))

	fe := newFuncEmitter(self, inst.Mangled+".none", "")
	fe.linef("ret %s zeroinitializer", self)
	inst.addMethod(Method{Name: "none", Symbol: inst.Mangled + ".none", Ret: self}, fe.finish())

	fe = newFuncEmitter(self, inst.Mangled+".some", ty+" %v")
	a := fe.nextTemp()
	fe.linef("%s = insertvalue %s zeroinitializer, i8 1, 0", a, self)
	b := fe.nextTemp()
	fe.linef("%s = insertvalue %s %s, %s %%v, 1", b, self, a, ty)
	fe.linef("ret %s %s", self, b)
	inst.addMethod(Method{Name: "some", Symbol: inst.Mangled + ".some", Ret: self, Params: []string{ty}}, fe.finish())

	fe = newFuncEmitter("i1", inst.Mangled+".is_some", self+" %m")
	tag := fe.nextTemp()
	fe.linef("%s = extractvalue %s %%m, 0", tag, self)
	ok := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, 1", ok, tag)
	fe.linef("ret i1 %s", ok)
	inst.addMethod(Method{Name: "is_some", Symbol: inst.Mangled + ".is_some", Ret: "i1", Params: []string{self}}, fe.finish())

	fe = newFuncEmitter(ty, inst.Mangled+".unwrap", self+" %m")
	tag = fe.nextTemp()
	fe.linef("%s = extractvalue %s %%m, 0", tag, self)
	ok = fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, 1", ok, tag)
	fe.linef("br i1 %s, label %%some, label %%none", ok)
	fe.label("some")
	v := fe.nextTemp()
	fe.linef("%s = extractvalue %s %%m, 1", v, self)
	fe.linef("ret %s %s", ty, v)
	fe.label("none")
	fe.linef("call void @tern.trap()")
	fe.linef("unreachable")
	inst.addMethod(Method{Name: "unwrap", Symbol: inst.Mangled + ".unwrap", Ret: ty, Params: []string{self}}, fe.finish())

	fe = newFuncEmitter(ty, inst.Mangled+".unwrap_or", self+" %m, "+ty+" %dflt")
	tag = fe.nextTemp()
	fe.linef("%s = extractvalue %s %%m, 0", tag, self)
	ok = fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, 1", ok, tag)
	v = fe.nextTemp()
	fe.linef("%s = extractvalue %s %%m, 1", v, self)
	r := fe.nextTemp()
	fe.linef("%s = select i1 %s, %s %s, %s %%dflt", r, ok, ty, v, ty)
	fe.linef("ret %s %s", ty, r)
	inst.addMethod(Method{Name: "unwrap_or", Symbol: inst.Mangled + ".unwrap_or", Ret: ty, Params: []string{self, ty}}, fe.finish())

	return nil
}
