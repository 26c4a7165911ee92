package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wudi/soc/vm"
)

var disasmCommand = &cli.Command{
	Name:      "disasm",
	Usage:     "compile a .soc file and print its bytecode disassembly",
	ArgsUsage: "<file>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("disasm: missing <file> argument")
		}
		mod, _, err := compileFile(path)
		if err != nil {
			return err
		}
		fmt.Print(vm.Disassemble(mod))
		return nil
	},
}
