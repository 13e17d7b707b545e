package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellum-lang/vellum/internal/bytecode"
	"github.com/vellum-lang/vellum/internal/config"
	corerr "github.com/vellum-lang/vellum/internal/errors"
	"github.com/vellum-lang/vellum/internal/jsonast"
	"github.com/vellum-lang/vellum/internal/native"
)

var (
	evalJSON   string
	dumpAST    bool
	dumpBC     bool
	configPath string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Decode, compile, and run a JSON AST program",
	Long: `Execute a program given as a JSON-encoded ESTree AST.

Examples:
  # Run a program from a file
  vellum run program.ast.json

  # Evaluate an inline AST
  vellum run -e '{"type":"Program","body":[...]}'

  # Run with a sandboxed native surface
  vellum run --config vellum.yaml program.ast.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalJSON, "eval", "e", "", "evaluate inline JSON AST instead of reading from a file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "dump the decoded AST before running (for debugging)")
	runCmd.Flags().BoolVar(&dumpBC, "dump-bytecode", false, "dump the compiled bytecode before running (for debugging)")
	runCmd.Flags().StringVar(&configPath, "config", "", "vellum.yaml path overriding VM limits and the native allowlist")
}

func runProgram(_ *cobra.Command, args []string) error {
	var data []byte
	var filename string

	switch {
	case evalJSON != "":
		data = []byte(evalJSON)
		filename = "<eval>"
	case len(args) == 1:
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		data = content
	default:
		return fmt.Errorf("either provide a file path or use -e flag for inline JSON")
	}

	program, err := jsonast.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", filename, err)
	}

	if dumpAST {
		fmt.Printf("AST: %+v\n\n", program)
	}

	script, err := bytecode.Compile(program)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", filename, err)
	}

	if dumpBC {
		fmt.Print(bytecode.DisassembleToString(script.Chunk))
		fmt.Println()
	}

	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", configPath, err)
		}
	}

	vm := bytecode.NewVMWithLimits(cfg.StackCapacity, cfg.MaxCallFrames)
	native.BindSelected(vm, native.OS{}, cfg.HasNative)

	if verbose {
		fmt.Fprintf(os.Stderr, "Running %s (natives: %v)\n", filename, cfg.Natives)
	}

	result, value, err := vm.Interpret(script)
	if result != bytecode.ResultOK {
		if coreErr, ok := err.(*corerr.CoreError); ok {
			fmt.Fprint(os.Stderr, coreErr.Format(true))
			fmt.Fprintln(os.Stderr)
		} else if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return fmt.Errorf("execution failed")
	}

	if !value.IsNull() {
		fmt.Println(value.String())
	}
	return nil
}
