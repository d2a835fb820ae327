package codegen

import (
	"tern/internal/diag"
	"tern/internal/types"
)

// Method describes one emitted operation of an instance: its IR symbol and
// signature, used by call sites to validate argument lists.
type Method struct {
	Name   string   // surface name, e.g. "insert"
	Symbol string   // IR symbol, e.g. "map.i64.str.insert"
	Ret    string   // LLVM return type
	Params []string // LLVM parameter types
}

// Instance is one monomorphization: the emitted type definitions and method
// set for a concrete (base name, type arguments) tuple.
type Instance struct {
	Desc    types.Desc
	Name    string // canonical, e.g. "Map<i64, str>"
	Mangled string // IR name stem, e.g. "map.i64.str"

	TypeDefs []string // full "%name = type { ... }" lines
	Defs     []string // complete define blocks
	Methods  []Method
}

// Method returns the emitted method by surface name.
func (inst *Instance) Method(name string) (Method, error) {
	if inst == nil {
		return Method{}, diag.Errorf(diag.GenLookupFailed, "method %q on nil instance", name)
	}
	for _, m := range inst.Methods {
		if m.Name == name {
			return m, nil
		}
	}
	return Method{}, diag.Errorf(diag.GenLookupFailed, "type %s has no method %q", inst.Name, name)
}

// CallSpec validates a call against the emitted signature and returns the
// method descriptor. An argument count mismatch is a fatal internal error.
func (inst *Instance) CallSpec(name string, argTypes []string) (Method, error) {
	m, err := inst.Method(name)
	if err != nil {
		return Method{}, err
	}
	if len(argTypes) != len(m.Params) {
		return Method{}, diag.Errorf(diag.GenBadArgCount,
			"%s.%s expects %d arguments, got %d", inst.Name, name, len(m.Params), len(argTypes))
	}
	for i, ty := range argTypes {
		if ty != m.Params[i] {
			return Method{}, diag.Errorf(diag.GenBadArgCount,
				"%s.%s argument %d: expected %s, got %s", inst.Name, name, i, m.Params[i], ty)
		}
	}
	return m, nil
}

func (inst *Instance) addTypeDef(line string) {
	inst.TypeDefs = append(inst.TypeDefs, line)
}

func (inst *Instance) addMethod(m Method, body string) {
	inst.Methods = append(inst.Methods, m)
	inst.Defs = append(inst.Defs, body)
}
