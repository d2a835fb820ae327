package link

import (
	"fmt"
	"strings"
)

// Priority classifies a module's rank when several modules define the same
// symbol. Lower values win: the program beats its libraries, libraries beat
// the standard library, and runtime helpers lose to everything.
type Priority uint8

const (
	PriorityProgram Priority = iota
	PriorityLibrary
	PriorityStdlib
	PriorityRuntime
)

func (p Priority) String() string {
	switch p {
	case PriorityProgram:
		return "program"
	case PriorityLibrary:
		return "library"
	case PriorityStdlib:
		return "stdlib"
	case PriorityRuntime:
		return "runtime"
	default:
		return fmt.Sprintf("Priority(%d)", p)
	}
}

// ParsePriority reads the manifest spelling of a priority level.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "program", "main":
		return PriorityProgram, nil
	case "library", "lib":
		return PriorityLibrary, nil
	case "stdlib", "std":
		return PriorityStdlib, nil
	case "runtime", "rt":
		return PriorityRuntime, nil
	default:
		return 0, fmt.Errorf("unknown priority %q (want program|library|stdlib|runtime)", s)
	}
}

// SymbolKind separates functions from global variables.
type SymbolKind uint8

const (
	SymbolFunc SymbolKind = iota
	SymbolGlobal
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunc:
		return "func"
	case SymbolGlobal:
		return "global"
	default:
		return fmt.Sprintf("SymbolKind(%d)", k)
	}
}

// Symbol is one linkable name extracted from a module: its kind, whether the
// module defines or merely declares it, its linkage, and for definitions the
// literal IR text of the whole definition.
type Symbol struct {
	Name         string
	Kind         SymbolKind
	IsDefinition bool
	Linkage      string
	Module       string
	Priority     Priority
	Text         string
}

// Header is the per-module metadata stripped during extraction and
// re-emitted once at the top of the merged output.
type Header struct {
	ModuleID       string
	SourceFilename string
	Triple         string
	DataLayout     string
}

// SymbolTable is the extraction result for one module. Names preserves
// encounter order; Symbols is keyed by name (one entry per name, last write
// wins on malformed duplicate input).
type SymbolTable struct {
	Module   string
	Priority Priority
	Names    []string
	Symbols  map[string]*Symbol
	TypeDefs []string
	// Declarations of reserved intrinsics. They never enter resolution but
	// must reappear in merged output so calls to them stay well-formed.
	IntrinsicDecls []string
	Header         Header
}

func (t *SymbolTable) add(sym *Symbol) {
	if t.Symbols == nil {
		t.Symbols = make(map[string]*Symbol)
	}
	if _, seen := t.Symbols[sym.Name]; !seen {
		t.Names = append(t.Names, sym.Name)
	}
	t.Symbols[sym.Name] = sym
}

// Lookup returns the symbol by name, or nil.
func (t *SymbolTable) Lookup(name string) *Symbol {
	if t == nil {
		return nil
	}
	return t.Symbols[name]
}
