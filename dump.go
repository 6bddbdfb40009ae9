package tara

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump writes a labelled, deterministic dump of v to w.
func Dump(w io.Writer, label string, v ...any) {
	fmt.Fprintf(w, "== %s ==\n", label)
	dumpConfig.Fdump(w, v...)
}
