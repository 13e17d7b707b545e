package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellum-lang/vellum/internal/bytecode"
	"github.com/vellum-lang/vellum/internal/jsonast"
)

var disasmJSON bool

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile a JSON AST program and print its disassembled bytecode",
	Args:  cobra.ExactArgs(1),
	RunE:  disassemble,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().BoolVar(&disasmJSON, "json", false, "emit the disassembly as JSON instead of text")
}

func disassemble(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	program, err := jsonast.Decode(content)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", filename, err)
	}

	script, err := bytecode.Compile(program)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", filename, err)
	}

	if disasmJSON {
		doc, err := bytecode.DisassembleToJSON(script.Chunk)
		if err != nil {
			return fmt.Errorf("encoding disassembly as JSON: %w", err)
		}
		fmt.Println(doc)
		return nil
	}

	fmt.Print(bytecode.DisassembleToString(script.Chunk))
	return nil
}
