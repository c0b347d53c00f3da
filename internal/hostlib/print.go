// Package hostlib implements the one standard-library function this core
// provides: print.
package hostlib

import (
	"fmt"
	"io"

	"lua53vm.dev/core/internal/luaclosure"
)

// NewPrint builds the print host function, writing tab-separated,
// newline-terminated output to w (os.Stdout in the CLI, a buffer in
// tests). Each argument is rendered the way Lua's tostring would: strings
// literally, numbers in their usual notation, nil and booleans as "nil",
// "true" or "false", and tables and functions as "type: address".
func NewPrint(w io.Writer) luaclosure.HostFunc {
	return func(s luaclosure.Stack) int {
		top := s.Top()
		for i := 1; i <= top; i++ {
			if i > 1 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, s.Get(i).String())
		}
		fmt.Fprint(w, "\n")
		return 0
	}
}
