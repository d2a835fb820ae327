package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tern/internal/link"
)

// ModuleEntry is one [[link.modules]] entry in tern.toml: a display name, a
// path to a textual IR file, and its resolution priority.
type ModuleEntry struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	Priority string `toml:"priority"`
}

// Manifest is the parsed tern.toml [link] section.
type Manifest struct {
	Dir     string // directory containing the manifest
	Output  string
	Roots   []string
	Modules []ModuleEntry
}

var (
	// ErrLinkSectionMissing indicates that [link] is missing in a manifest.
	ErrLinkSectionMissing = errors.New("missing [link]")
	// ErrNoModules indicates that [link] declares no input modules.
	ErrNoModules = errors.New("no [[link.modules]] entries")
)

type manifestFile struct {
	Link struct {
		Output  string        `toml:"output"`
		Roots   []string      `toml:"roots"`
		Modules []ModuleEntry `toml:"modules"`
	} `toml:"link"`
}

// LoadManifest parses a tern.toml link manifest.
func LoadManifest(path string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("link") {
		return nil, fmt.Errorf("%s: %w", path, ErrLinkSectionMissing)
	}
	if len(cfg.Link.Modules) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoModules)
	}
	m := &Manifest{
		Dir:     filepath.Dir(path),
		Output:  strings.TrimSpace(cfg.Link.Output),
		Roots:   cfg.Link.Roots,
		Modules: cfg.Link.Modules,
	}
	if m.Output == "" {
		m.Output = "out.ll"
	}
	for i, entry := range m.Modules {
		if strings.TrimSpace(entry.Path) == "" {
			return nil, fmt.Errorf("%s: [[link.modules]] entry %d: missing path", path, i+1)
		}
	}
	return m, nil
}

// Inputs converts manifest entries to linker inputs, resolving relative paths
// against the manifest directory and priority names to their levels.
func (m *Manifest) Inputs() ([]link.Input, error) {
	inputs := make([]link.Input, 0, len(m.Modules))
	for i, entry := range m.Modules {
		prio := link.PriorityLibrary
		if strings.TrimSpace(entry.Priority) != "" {
			p, err := link.ParsePriority(entry.Priority)
			if err != nil {
				return nil, fmt.Errorf("[[link.modules]] entry %d: %w", i+1, err)
			}
			prio = p
		}
		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.Dir, path)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(entry.Path), filepath.Ext(entry.Path))
		}
		inputs = append(inputs, link.Input{Name: name, Path: path, Priority: prio})
	}
	return inputs, nil
}

// FindTernToml walks up from startDir to locate tern.toml.
func FindTernToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "tern.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
