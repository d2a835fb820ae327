package link

import (
	"github.com/llir/llvm/ir"

	"tern/internal/diag"
)

// MergeIncremental splices secondary into primary structurally, without a
// textual round trip. Primary definitions shadow secondary ones: a secondary
// function or global whose name is already defined in primary is demoted to a
// declaration, and duplicate declarations and type definitions are dropped.
// The primary module is modified in place and returned.
func MergeIncremental(primary, secondary *ir.Module) (*ir.Module, error) {
	if primary == nil || secondary == nil {
		return nil, diag.Errorf(diag.LinkMergeInvalid, "nil module passed to incremental merge")
	}

	definedFuncs := make(map[string]bool, len(primary.Funcs))
	declaredFuncs := make(map[string]bool, len(primary.Funcs))
	for _, f := range primary.Funcs {
		if len(f.Blocks) > 0 {
			definedFuncs[f.Name()] = true
		}
		declaredFuncs[f.Name()] = true
	}
	definedGlobals := make(map[string]bool, len(primary.Globals))
	for _, g := range primary.Globals {
		definedGlobals[g.Name()] = true
	}
	typeNames := make(map[string]bool, len(primary.TypeDefs))
	for _, td := range primary.TypeDefs {
		typeNames[td.Name()] = true
	}

	for _, td := range secondary.TypeDefs {
		if typeNames[td.Name()] {
			continue
		}
		typeNames[td.Name()] = true
		primary.TypeDefs = append(primary.TypeDefs, td)
	}

	for _, f := range secondary.Funcs {
		name := f.Name()
		switch {
		case definedFuncs[name]:
			// Primary wins. Keep nothing from the loser, not even a
			// declaration: primary already carries one.
			continue
		case declaredFuncs[name] && len(f.Blocks) == 0:
			continue
		case declaredFuncs[name]:
			// Secondary supplies the body for a primary declaration: replace
			// the declaration with the definition.
			for i, pf := range primary.Funcs {
				if pf.Name() == name {
					f.Parent = primary
					primary.Funcs[i] = f
					break
				}
			}
			definedFuncs[name] = true
		default:
			f.Parent = primary
			primary.Funcs = append(primary.Funcs, f)
			declaredFuncs[name] = true
			if len(f.Blocks) > 0 {
				definedFuncs[name] = true
			}
		}
	}

	for _, g := range secondary.Globals {
		if definedGlobals[g.Name()] {
			continue
		}
		definedGlobals[g.Name()] = true
		primary.Globals = append(primary.Globals, g)
	}

	return primary, nil
}
