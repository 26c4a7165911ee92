package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wudi/soc/values"
	"github.com/wudi/soc/vm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "compile and execute a .soc file",
	ArgsUsage: "<file>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("run: missing <file> argument")
		}
		mod, reg, err := compileFile(path)
		if err != nil {
			return err
		}
		machine := vm.New(reg, os.Stdout)
		result, err := machine.Run(mod)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !isVoid(result) {
			fmt.Println(result.AsString())
		}
		return nil
	},
}

// isVoid reports whether a top-level result is uninteresting to print —
// a bare Null, which every statement-only script naturally returns.
func isVoid(v *values.Value) bool {
	return v == nil || v.IsNull()
}
