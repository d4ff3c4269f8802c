// Command glox is the thin CLI front-end for the compiler and virtual
// machine implemented by the lang/* packages.
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
