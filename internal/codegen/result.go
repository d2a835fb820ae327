package codegen

import (
	"fmt"
)

// emitResult synthesizes the tagged-union result wrapper:
// %result.T.E = { i8 tag, T ok, E err }, tag 0 = ok, 1 = err.
func (c *Context) emitResult(inst *Instance) error {
	okTy, err := c.valueType(inst.Desc.Args[0])
	if err != nil {
		return err
	}
	errTy, err := c.valueType(inst.Desc.Args[1])
	if err != nil {
		return err
	}
	self := "%" + inst.Mangled

	inst.addTypeDef(fmt.Sprintf("%s = type { i8, %s, %s }", self, okTy, errTy))

	fe := newFuncEmitter(self, inst.Mangled+".ok", okTy+" %v")
	a := fe.nextTemp()
	fe.linef("%s = insertvalue %s zeroinitializer, %s %%v, 1", a, self, okTy)
	fe.linef("ret %s %s", self, a)
	inst.addMethod(Method{Name: "ok", Symbol: inst.Mangled + ".ok", Ret: self, Params: []string{okTy}}, fe.finish())

	fe = newFuncEmitter(self, inst.Mangled+".err", errTy+" %e")
	a = fe.nextTemp()
	fe.linef("%s = insertvalue %s zeroinitializer, i8 1, 0", a, self)
	b := fe.nextTemp()
	fe.linef("%s = insertvalue %s %s, %s %%e, 2", b, self, a, errTy)
	fe.linef("ret %s %s", self, b)
	inst.addMethod(Method{Name: "err", Symbol: inst.Mangled + ".err", Ret: self, Params: []string{errTy}}, fe.finish())

	fe = newFuncEmitter("i1", inst.Mangled+".is_ok", self+" %r")
	tag := fe.nextTemp()
	fe.linef("%s = extractvalue %s %%r, 0", tag, self)
	ok := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, 0", ok, tag)
	fe.linef("ret i1 %s", ok)
	inst.addMethod(Method{Name: "is_ok", Symbol: inst.Mangled + ".is_ok", Ret: "i1", Params: []string{self}}, fe.finish())

	fe = newFuncEmitter(okTy, inst.Mangled+".unwrap", self+" %r")
	tag = fe.nextTemp()
	fe.linef("%s = extractvalue %s %%r, 0", tag, self)
	ok = fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, 0", ok, tag)
	fe.linef("br i1 %s, label %%ok, label %%err", ok)
	fe.label("ok")
	v := fe.nextTemp()
	fe.linef("%s = extractvalue %s %%r, 1", v, self)
	fe.linef("ret %s %s", okTy, v)
	fe.label("err")
	fe.linef("call void @tern.trap()")
	fe.linef("unreachable")
	inst.addMethod(Method{Name: "unwrap", Symbol: inst.Mangled + ".unwrap", Ret: okTy, Params: []string{self}}, fe.finish())

	fe = newFuncEmitter(errTy, inst.Mangled+".unwrap_err", self+" %r")
	tag = fe.nextTemp()
	fe.linef("%s = extractvalue %s %%r, 0", tag, self)
	bad := fe.nextTemp()
	fe.linef("%s = icmp eq i8 %s, 1", bad, tag)
	fe.linef("br i1 %s, label %%err, label %%ok", bad)
	fe.label("err")
	e := fe.nextTemp()
	fe.linef("%s = extractvalue %s %%r, 2", e, self)
	fe.linef("ret %s %s", errTy, e)
	fe.label("ok")
	fe.linef("call void @tern.trap()")
	fe.linef("unreachable")
	inst.addMethod(Method{Name: "unwrap_err", Symbol: inst.Mangled + ".unwrap_err", Ret: errTy, Params: []string{self}}, fe.finish())

	return nil
}
