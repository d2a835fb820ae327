package codegen

import (
	"fmt"
	"strings"
)

// funcEmitter builds the body of one IR function definition.
type funcEmitter struct {
	buf   strings.Builder
	tmpID int
}

func newFuncEmitter(ret, symbol, params string) *funcEmitter {
	fe := &funcEmitter{}
	fmt.Fprintf(&fe.buf, "define %s @%s(%s) {\n", ret, symbol, params)
	fe.buf.WriteString("entry:\n")
	return fe
}

func (fe *funcEmitter) nextTemp() string {
	fe.tmpID++
	return fmt.Sprintf("%%t%d", fe.tmpID)
}

func (fe *funcEmitter) linef(format string, args ...any) {
	fe.buf.WriteString("  ")
	fmt.Fprintf(&fe.buf, format, args...)
	fe.buf.WriteByte('\n')
}

func (fe *funcEmitter) label(name string) {
	fmt.Fprintf(&fe.buf, "%s:\n", name)
}

func (fe *funcEmitter) finish() string {
	fe.buf.WriteString("}\n")
	return fe.buf.String()
}
