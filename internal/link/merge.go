package link

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llir/llvm/asm"

	"tern/internal/diag"
)

// InvalidModuleError carries the assembled text of a merged module that
// failed to re-parse. The merger must always produce valid output for valid
// input, so this indicates a bug in extraction or stripping; the text is
// preserved for inspection.
type InvalidModuleError struct {
	Err  error
	Text string
}

func (e *InvalidModuleError) Error() string {
	return fmt.Sprintf("merged module failed to parse: %v", e.Err)
}

func (e *InvalidModuleError) Unwrap() error { return e.Err }

// Merge reassembles one structurally valid module from the resolved symbol
// set: header metadata once at the top, deduplicated type definitions,
// then all declarations, then all definitions. The result is re-parsed as a
// consistency check before being returned.
func Merge(res *Resolution, moduleName string, tables []*SymbolTable) (string, error) {
	if res == nil {
		return "", diag.Errorf(diag.LinkBadInput, "nil resolution")
	}

	// Modules that contributed at least one chosen symbol contribute their
	// type definitions; bodies are additionally scanned since type lines
	// repeat verbatim across independently compiled modules.
	contributing := make(map[string]bool)
	for _, sym := range res.Chosen {
		contributing[sym.Module] = true
	}

	typeLines := make([]string, 0, 16)
	typeByName := make(map[string]string)
	addType := func(line string) error {
		name := typeName(line)
		if name == "" {
			return nil
		}
		if prev, ok := typeByName[name]; ok {
			if prev != line {
				return diag.Errorf(diag.LinkTypeRedefinition,
					"type %%%s defined with conflicting bodies:\n  %s\n  %s", name, prev, line)
			}
			return nil
		}
		typeByName[name] = line
		typeLines = append(typeLines, line)
		return nil
	}

	intrinsicDecls := make([]string, 0, 4)
	seenIntrinsic := make(map[string]bool)
	for _, t := range tables {
		if !contributing[t.Module] {
			continue
		}
		for _, line := range t.TypeDefs {
			if err := addType(line); err != nil {
				return "", err
			}
		}
		for _, line := range t.IntrinsicDecls {
			if seenIntrinsic[line] {
				continue
			}
			seenIntrinsic[line] = true
			intrinsicDecls = append(intrinsicDecls, line)
		}
	}

	var decls, defs []string
	for _, name := range res.Order {
		sym := res.Chosen[name]
		body, embedded := stripModuleLines(sym.Text)
		for _, line := range embedded {
			if err := addType(line); err != nil {
				return "", err
			}
		}
		if sym.IsDefinition && sym.Kind == SymbolFunc {
			defs = append(defs, body)
		} else if sym.IsDefinition {
			// Global definitions are single lines; they precede function
			// bodies alongside declarations for forward-reference hygiene.
			decls = append(decls, body)
		} else {
			decls = append(decls, body)
		}
	}
	sort.Strings(typeLines)

	var b strings.Builder
	fmt.Fprintf(&b, "; ModuleID = '%s'\n", moduleName)
	fmt.Fprintf(&b, "source_filename = \"%s\"\n", moduleName)
	hdr := pickHeader(tables, contributing)
	if hdr.DataLayout != "" {
		fmt.Fprintf(&b, "target datalayout = \"%s\"\n", hdr.DataLayout)
	}
	if hdr.Triple != "" {
		fmt.Fprintf(&b, "target triple = \"%s\"\n", hdr.Triple)
	}
	b.WriteByte('\n')
	for _, line := range typeLines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(typeLines) > 0 {
		b.WriteByte('\n')
	}
	for _, line := range intrinsicDecls {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(intrinsicDecls) > 0 {
		b.WriteByte('\n')
	}
	for _, d := range decls {
		b.WriteString(d)
	}
	if len(decls) > 0 {
		b.WriteByte('\n')
	}
	for _, d := range defs {
		b.WriteString(d)
		b.WriteByte('\n')
	}

	text := b.String()
	if _, err := asm.ParseString(moduleName+".ll", text); err != nil {
		return "", &InvalidModuleError{Err: err, Text: text}
	}
	return text, nil
}

// pickHeader takes target metadata from the highest-priority contributing
// table that carries it.
func pickHeader(tables []*SymbolTable, contributing map[string]bool) Header {
	var best *SymbolTable
	for _, t := range tables {
		if !contributing[t.Module] {
			continue
		}
		if t.Header.Triple == "" && t.Header.DataLayout == "" {
			continue
		}
		if best == nil || t.Priority < best.Priority {
			best = t
		}
	}
	if best == nil {
		return Header{}
	}
	return best.Header
}

// stripModuleLines drops header metadata and type-definition lines from a
// symbol's text; those belong to the merged module head, not to symbols.
// Embedded type lines are returned for deduplication.
func stripModuleLines(text string) (body string, embeddedTypes []string) {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "; ModuleID = "),
			strings.HasPrefix(trimmed, "source_filename = "),
			strings.HasPrefix(trimmed, "target datalayout = "),
			strings.HasPrefix(trimmed, "target triple = "):
			continue
		case typeDefRe.MatchString(trimmed):
			embeddedTypes = append(embeddedTypes, trimmed)
			continue
		default:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), embeddedTypes
}

// typeName extracts the name from a "%name = type ..." line.
func typeName(line string) string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "%")
	if !ok {
		return ""
	}
	if q, ok := strings.CutPrefix(rest, `"`); ok {
		name, _, found := strings.Cut(q, `"`)
		if !found {
			return ""
		}
		return name
	}
	name, _, found := strings.Cut(rest, " ")
	if !found {
		return ""
	}
	return name
}
