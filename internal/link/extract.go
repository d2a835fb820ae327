package link

import (
	"bufio"
	"regexp"
	"strings"
)

// Reserved intrinsic families. These names are expanded specially by the
// code generator and never participate in symbol resolution.
const intrinsicPrefix = "llvm."

var (
	// @name or @"quoted name".
	symbolRe = regexp.MustCompile(`@(?:"([^"]+)"|([-a-zA-Z$._][-a-zA-Z$._0-9]*))`)
	// %name = type { ... } at the start of a line.
	typeDefRe = regexp.MustCompile(`^%(?:"[^"]+"|[-a-zA-Z$._][-a-zA-Z$._0-9]*) = type `)

	linkageWords = map[string]bool{
		"private": true, "internal": true, "external": true,
		"linkonce": true, "linkonce_odr": true, "weak": true, "weak_odr": true,
		"common": true, "appending": true, "available_externally": true,
		"extern_weak": true,
	}
)

// IsIntrinsic reports whether a symbol name belongs to a reserved intrinsic
// family and must not be treated as a linkable symbol.
func IsIntrinsic(name string) bool {
	return strings.HasPrefix(name, intrinsicPrefix)
}

// Extract walks one textual IR module and records every function and global:
// name, declaration-vs-definition status, linkage, and the literal text of
// definitions for later reference scanning. Module header lines and type
// definitions are captured separately; intrinsics are skipped.
func Extract(text, moduleName string, priority Priority) (*SymbolTable, error) {
	table := &SymbolTable{
		Module:   moduleName,
		Priority: priority,
		Symbols:  make(map[string]*Symbol),
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var block []string // current define body
	var blockSym *Symbol
	for sc.Scan() {
		line := sc.Text()
		if blockSym != nil {
			block = append(block, line)
			if line == "}" {
				blockSym.Text = strings.Join(block, "\n") + "\n"
				table.add(blockSym)
				blockSym, block = nil, nil
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "; ModuleID = "):
			table.Header.ModuleID = strings.Trim(strings.TrimPrefix(trimmed, "; ModuleID = "), "'")
		case strings.HasPrefix(trimmed, ";"):
			continue
		case strings.HasPrefix(trimmed, "source_filename = "):
			table.Header.SourceFilename = strings.Trim(strings.TrimPrefix(trimmed, "source_filename = "), `"`)
		case strings.HasPrefix(trimmed, "target datalayout = "):
			table.Header.DataLayout = strings.Trim(strings.TrimPrefix(trimmed, "target datalayout = "), `"`)
		case strings.HasPrefix(trimmed, "target triple = "):
			table.Header.Triple = strings.Trim(strings.TrimPrefix(trimmed, "target triple = "), `"`)
		case typeDefRe.MatchString(trimmed):
			table.TypeDefs = append(table.TypeDefs, trimmed)
		case strings.HasPrefix(trimmed, "declare "):
			name, ok := firstSymbol(trimmed)
			if !ok {
				continue
			}
			if IsIntrinsic(name) {
				table.IntrinsicDecls = append(table.IntrinsicDecls, trimmed)
				continue
			}
			table.add(&Symbol{
				Name:         name,
				Kind:         SymbolFunc,
				IsDefinition: false,
				Linkage:      linkageOf(trimmed, "declare "),
				Module:       moduleName,
				Priority:     priority,
				Text:         trimmed + "\n",
			})
		case strings.HasPrefix(trimmed, "define "):
			name, ok := firstSymbol(trimmed)
			if !ok || IsIntrinsic(name) {
				// Skip the whole body.
				blockSym = nil
				if !strings.HasSuffix(trimmed, "}") {
					for sc.Scan() {
						if sc.Text() == "}" {
							break
						}
					}
				}
				continue
			}
			blockSym = &Symbol{
				Name:         name,
				Kind:         SymbolFunc,
				IsDefinition: true,
				Linkage:      linkageOf(trimmed, "define "),
				Module:       moduleName,
				Priority:     priority,
			}
			block = []string{line}
			if line == "}" || strings.HasSuffix(trimmed, "{}") {
				blockSym.Text = line + "\n"
				table.add(blockSym)
				blockSym, block = nil, nil
			}
		case strings.HasPrefix(trimmed, "@"):
			name, ok := firstSymbol(trimmed)
			if !ok || IsIntrinsic(name) {
				continue
			}
			isDecl := strings.Contains(trimmed, " external global ") ||
				strings.Contains(trimmed, " external constant ")
			table.add(&Symbol{
				Name:         name,
				Kind:         SymbolGlobal,
				IsDefinition: !isDecl,
				Linkage:      globalLinkageOf(trimmed),
				Module:       moduleName,
				Priority:     priority,
				Text:         trimmed + "\n",
			})
		default:
			// attributes, metadata, and anything else outside our output
			// conventions is dropped.
			continue
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// firstSymbol returns the first @-prefixed symbol name on a line.
func firstSymbol(line string) (string, bool) {
	m := symbolRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// References returns every symbol name referenced by an IR fragment,
// excluding reserved intrinsics. Used on definition bodies only.
func References(text string) []string {
	matches := symbolRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if IsIntrinsic(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func linkageOf(line, head string) string {
	rest := strings.TrimPrefix(line, head)
	word := rest
	if idx := strings.IndexByte(rest, ' '); idx > 0 {
		word = rest[:idx]
	}
	if linkageWords[word] {
		return word
	}
	return "external"
}

func globalLinkageOf(line string) string {
	// @name = <linkage?> <global|constant> ...
	_, rest, ok := strings.Cut(line, "= ")
	if !ok {
		return "external"
	}
	word := rest
	if idx := strings.IndexByte(rest, ' '); idx > 0 {
		word = rest[:idx]
	}
	if linkageWords[word] {
		return word
	}
	return "external"
}
