package native

import (
	"fmt"
	"io"
	"strings"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

// Console builds the `console` native object (spec.md §6): log/info
// write a space-joined, newline-terminated line to Stdout; error/warn do
// the same to Stderr.
func Console(p Platform) *bytecode.NativeObject {
	write := func(w io.Writer, args []bytecode.Value) (bytecode.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
		return bytecode.NullValue(), nil
	}
	return &bytecode.NativeObject{
		Name: "console",
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			switch name {
			case "log", "info":
				v, err := write(p.Stdout(), args)
				return v, true, err
			case "error", "warn":
				v, err := write(p.Stderr(), args)
				return v, true, err
			}
			return bytecode.Value{}, false, nil
		},
	}
}
