// Command vellum runs and inspects programs compiled against the
// language core: a JSON ESTree AST in, a bytecode VM to execute it.
package main

import (
	"fmt"
	"os"

	"github.com/vellum-lang/vellum/cmd/vellum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
