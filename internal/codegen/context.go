package codegen

import (
	"fmt"
	"strings"
	"sync"

	"tern/internal/diag"
	"tern/internal/layout"
	"tern/internal/types"
)

// Context owns all mutable emission state for one compilation unit: the
// instantiation registry, the emitted text, and the target layout engine.
// It is created empty at the start of a unit and never reset mid-run.
// Ensure is safe for concurrent callers; check-then-emit is atomic per key.
type Context struct {
	ModuleName string
	Layout     *layout.Engine

	mu        sync.Mutex
	instances map[string]*Instance
	order     []string
}

// NewContext creates an emission context for one compilation unit.
func NewContext(moduleName string, target layout.Target) *Context {
	return &Context{
		ModuleName: moduleName,
		Layout:     layout.New(target),
		instances:  make(map[string]*Instance),
	}
}

// Ensure returns the instance for desc, emitting its full method set on
// first use. Requesting the same descriptor twice returns the same handle
// and never duplicates definitions.
func (c *Context) Ensure(desc types.Desc) (*Instance, error) {
	if c == nil {
		return nil, diag.Errorf(diag.GenInvalidDescriptor, "nil emission context")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLocked(desc)
}

func (c *Context) ensureLocked(desc types.Desc) (*Instance, error) {
	if !desc.IsValid() {
		return nil, diag.Errorf(diag.GenInvalidDescriptor, "invalid type descriptor %s", desc)
	}
	if !desc.Kind.IsGeneric() {
		return nil, diag.Errorf(diag.GenInvalidDescriptor, "type %s is not generic", desc)
	}
	name := desc.String()
	if inst, ok := c.instances[name]; ok {
		return inst, nil
	}

	inst := &Instance{
		Desc:    desc,
		Name:    name,
		Mangled: desc.Mangle(),
	}
	// Register before emitting method bodies: emission may recursively
	// ensure argument instances, never itself (descriptors are finite trees).
	c.instances[name] = inst
	c.order = append(c.order, name)

	var err error
	switch desc.Kind {
	case types.KindMaybe:
		err = c.emitMaybe(inst)
	case types.KindResult:
		err = c.emitResult(inst)
	case types.KindMap:
		err = c.emitMap(inst)
	default:
		err = diag.Errorf(diag.GenInvalidDescriptor, "type %s is not generic", desc)
	}
	if err != nil {
		delete(c.instances, name)
		c.order = c.order[:len(c.order)-1]
		return nil, err
	}
	return inst, nil
}

// LookupInstance returns a previously emitted instance by canonical name.
func (c *Context) LookupInstance(canonical string) (*Instance, error) {
	if c == nil {
		return nil, diag.Errorf(diag.GenLookupFailed, "nil emission context")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.instances[canonical]
	if !ok {
		return nil, diag.Errorf(diag.GenLookupFailed, "no emitted instance named %q", canonical)
	}
	return inst, nil
}

// Instances returns the emitted instances in emission order.
func (c *Context) Instances() []*Instance {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Instance, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.instances[name])
	}
	return out
}

// Module assembles the full textual IR module: header metadata, type
// definitions, runtime helper declarations and definitions, then every
// instantiated method set in emission order.
func (c *Context) Module() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "; ModuleID = '%s'\n", c.ModuleName)
	fmt.Fprintf(&b, "source_filename = \"%s\"\n", c.ModuleName)
	fmt.Fprintf(&b, "target datalayout = \"%s\"\n", c.Layout.Target.DataLayout)
	fmt.Fprintf(&b, "target triple = \"%s\"\n\n", c.Layout.Target.Triple)

	b.WriteString(preludeTypes)
	for _, name := range c.order {
		for _, td := range c.instances[name].TypeDefs {
			b.WriteString(td)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	b.WriteString(preludeDecls)
	b.WriteByte('\n')
	b.WriteString(preludeDefs)
	for _, name := range c.order {
		for _, def := range c.instances[name].Defs {
			b.WriteString(def)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// valueType renders the LLVM value type of desc, ensuring nested generic
// instances exist first so their named types are defined.
func (c *Context) valueType(desc types.Desc) (string, error) {
	switch desc.Kind {
	case types.KindBool:
		return "i1", nil
	case types.KindChar:
		return "i32", nil
	case types.KindInt, types.KindUint:
		return fmt.Sprintf("i%d", desc.Width), nil
	case types.KindFloat:
		if desc.Width == 32 {
			return "float", nil
		}
		return "double", nil
	case types.KindStr:
		return "%tern.str", nil
	case types.KindMaybe, types.KindResult:
		inst, err := c.ensureLocked(desc)
		if err != nil {
			return "", err
		}
		return "%" + inst.Mangled, nil
	case types.KindMap:
		// Maps are held by handle.
		inst, err := c.ensureLocked(desc)
		if err != nil {
			return "", err
		}
		return "%" + inst.Mangled + "*", nil
	default:
		return "", diag.Errorf(diag.GenInvalidDescriptor, "type %s has no value representation", desc)
	}
}
