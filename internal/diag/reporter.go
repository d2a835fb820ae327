package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter is the minimal sink contract for diagnostics produced by the
// codegen and link phases. Implementations: BagReporter, NopReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter collects into a Bag.
type BagReporter struct {
	Bag *Bag
}

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// Writer renders diagnostics to a stream, optionally colorized.
type Writer struct {
	Out   io.Writer
	Color bool
}

func (w *Writer) Report(d Diagnostic) {
	if w == nil || w.Out == nil {
		return
	}
	label := d.Severity.String()
	if w.Color {
		switch d.Severity {
		case SevError:
			label = color.New(color.FgRed, color.Bold).Sprint(label)
		case SevWarning:
			label = color.New(color.FgYellow).Sprint(label)
		default:
			label = color.New(color.FgCyan).Sprint(label)
		}
	}
	fmt.Fprintf(w.Out, "%s[%s]: %s\n", label, d.Code, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(w.Out, "  note: %s\n", n.Msg)
	}
}
