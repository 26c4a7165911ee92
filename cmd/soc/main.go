// Command soc is the command-line driver for the soc language: run a
// script, print its compiled disassembly, or drop into an interactive
// shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wudi/soc/version"
)

func main() {
	app := &cli.Command{
		Name:  "soc",
		Usage: "run and inspect soc programs",
		Commands: []*cli.Command{
			runCommand,
			disasmCommand,
			replCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "print the soc version and exit",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println(version.Version())
				return nil
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "soc: %v\n", err)
		os.Exit(1)
	}
}
