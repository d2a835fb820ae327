package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Generic codegen (emitter + hash-map engine).
	GenInfo              Code = 1000
	GenMissingCapability Code = 1001
	GenBadArgCount       Code = 1002
	GenLookupFailed      Code = 1003
	GenInvalidDescriptor Code = 1004
	GenInvalidModule     Code = 1005

	// Linking pipeline.
	LinkInfo             Code = 2000
	LinkUnresolvedSymbol Code = 2001
	LinkTypeRedefinition Code = 2002
	LinkMergeInvalid     Code = 2003
	LinkConflict         Code = 2004
	LinkBadInput         Code = 2005
	LinkNoRoots          Code = 2006
)

func (c Code) String() string {
	return fmt.Sprintf("TRN%04d", uint16(c))
}
