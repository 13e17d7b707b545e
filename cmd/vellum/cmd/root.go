package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "Vellum language core: JSON-AST-in, bytecode-VM-out",
	Long: `vellum runs and inspects programs against the language core: a
single-pass compiler that lowers a JSON-encoded ESTree AST into a custom
bytecode, and a stack-based VM that executes it with closures,
prototypes, classes, generators, exceptions, and a microtask-driven
async/await event loop.

A real parser is out of scope for this core: the "run" command's input
is already an ESTree AST, either from a file or -e inline JSON.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
