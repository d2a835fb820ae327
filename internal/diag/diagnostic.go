package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Note attaches secondary context to a diagnostic, e.g. one candidate
// definition of a conflicted symbol.
type Note struct {
	Msg string
}

// Diagnostic is one reportable condition from codegen or linking. Symbol and
// Module carry the structured context the message was built from so callers
// can filter without string matching.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Symbol   string
	Module   string
	Notes    []Note
}

// WithNote returns a copy with one more note appended.
func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Msg: msg})
	return d
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s", d.Severity, d.Code, d.Message)
	for _, n := range d.Notes {
		b.WriteString("\n  note: ")
		b.WriteString(n.Msg)
	}
	return b.String()
}

// Error is the fatal-error form of a diagnostic: codegen and merge failures
// propagate as ordinary Go errors that still carry their code.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a coded fatal error.
func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from an error produced by Errorf, or UnknownCode.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return UnknownCode
}
