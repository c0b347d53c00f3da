package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lua53vm.dev/core/internal/hostlib"
	"lua53vm.dev/core/internal/luavm"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "lua53vm [chunk]",
		Short: "lua53vm — a register-based Lua 5.3 bytecode interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read chunk: %w", err)
			}

			opts := luavm.Options{}
			if verbose {
				opts.Trace = os.Stderr
			}
			s := luavm.NewState(opts)
			s.Register("print", hostlib.NewPrint(os.Stdout))

			if err := s.Load(data, "@"+path, "b"); err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			if err := s.Call(0, 0); err != nil {
				return fmt.Errorf("run %s: %w", path, err)
			}
			return nil
		},
	}
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace every executed instruction to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
