package diag

import (
	"sort"
)

// Bag collects diagnostics up to a fixed cap.
type Bag struct {
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max <= 0 {
		max = 100
	}
	return &Bag{
		items: make([]Diagnostic, 0, max),
		max:   max,
	}
}

// Add appends a diagnostic, honoring the cap. Returns false when dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b == nil || len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	if b == nil {
		return 0
	}
	return b.max
}

// HasErrors reports whether any collected diagnostic is an error.
func (b *Bag) HasErrors() bool {
	if b == nil {
		return false
	}
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any collected diagnostic is at least a warning.
func (b *Bag) HasWarnings() bool {
	if b == nil {
		return false
	}
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns a read-only view of the collected diagnostics.
// Do not modify the returned slice: it aliases the Bag's storage.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// HasCode reports whether any collected diagnostic carries the code.
func (b *Bag) HasCode(code Code) bool {
	if b == nil {
		return false
	}
	for i := range b.items {
		if b.items[i].Code == code {
			return true
		}
	}
	return false
}

// SortStable orders diagnostics by severity (errors first), then code, then
// symbol name, keeping insertion order among equals.
func (b *Bag) SortStable() {
	if b == nil {
		return
	}
	sort.SliceStable(b.items, func(i, j int) bool {
		if b.items[i].Severity != b.items[j].Severity {
			return b.items[i].Severity > b.items[j].Severity
		}
		if b.items[i].Code != b.items[j].Code {
			return b.items[i].Code < b.items[j].Code
		}
		return b.items[i].Symbol < b.items[j].Symbol
	})
}
