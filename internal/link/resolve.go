package link

import (
	"fmt"
	"sort"

	"tern/internal/diag"
)

// Conflict records one symbol name that had multiple candidate definitions
// and which one won. Conflicts are expected and never abort a link.
type Conflict struct {
	Name       string
	Winner     *Symbol
	Candidates []*Symbol
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %d candidates, won by %s (%s)",
		c.Name, len(c.Candidates), c.Winner.Module, c.Winner.Priority)
}

// Resolution maps every reachable symbol name to its single chosen record.
type Resolution struct {
	Chosen     map[string]*Symbol
	Order      []string // deterministic iteration order of Chosen
	Conflicts  []Conflict
	Unresolved []string // reachable, but neither defined nor declared anywhere
}

// Resolve picks exactly one record per reachable name. Multiple definitions
// are adjudicated by priority, ties by input encounter order. Names with no
// definition fall back to a declaration (external symbols); names with
// neither are reported as unresolved diagnostics and omitted, deferring to
// the final system link.
func Resolve(tables []*SymbolTable, reachable map[string]struct{}, reporter diag.Reporter) *Resolution {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	names := make([]string, 0, len(reachable))
	for name := range reachable {
		names = append(names, name)
	}
	sort.Strings(names)

	res := &Resolution{Chosen: make(map[string]*Symbol, len(names))}
	for _, name := range names {
		var defs, decls []*Symbol
		for _, t := range tables {
			sym := t.Symbols[name]
			if sym == nil {
				continue
			}
			if sym.IsDefinition {
				defs = append(defs, sym)
			} else {
				decls = append(decls, sym)
			}
		}

		switch {
		case len(defs) == 1:
			res.choose(name, defs[0])
		case len(defs) > 1:
			winner := defs[0]
			for _, cand := range defs[1:] {
				// Strictly lower priority value wins; ties keep the earlier
				// encounter, which makes resolution deterministic.
				if cand.Priority < winner.Priority {
					winner = cand
				}
			}
			res.Conflicts = append(res.Conflicts, Conflict{Name: name, Winner: winner, Candidates: defs})
			d := diag.Diagnostic{
				Severity: diag.SevInfo,
				Code:     diag.LinkConflict,
				Message:  fmt.Sprintf("symbol %q defined by %d modules; using %s (%s)", name, len(defs), winner.Module, winner.Priority),
				Symbol:   name,
				Module:   winner.Module,
			}
			for _, cand := range defs {
				d = d.WithNote(fmt.Sprintf("candidate in %s (%s)", cand.Module, cand.Priority))
			}
			reporter.Report(d)
			res.choose(name, winner)
		case len(decls) > 0:
			res.choose(name, decls[0])
		default:
			res.Unresolved = append(res.Unresolved, name)
			reporter.Report(diag.Diagnostic{
				Severity: diag.SevWarning,
				Code:     diag.LinkUnresolvedSymbol,
				Message:  fmt.Sprintf("symbol %q is reachable but has no definition or declaration in any input module", name),
				Symbol:   name,
			})
		}
	}
	return res
}

func (r *Resolution) choose(name string, sym *Symbol) {
	r.Chosen[name] = sym
	r.Order = append(r.Order, name)
}

// ConflictReport renders the human-readable conflict summary.
func (r *Resolution) ConflictReport() string {
	if len(r.Conflicts) == 0 {
		return ""
	}
	out := fmt.Sprintf("%d symbol conflict(s) resolved by priority:\n", len(r.Conflicts))
	for _, c := range r.Conflicts {
		out += "  " + c.String() + "\n"
	}
	return out
}
