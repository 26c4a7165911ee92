package main

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/wudi/soc/parser"
	"github.com/wudi/soc/vm"
)

var replCommand = &cli.Command{
	Name:  "repl",
	Usage: "start an interactive soc shell",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runREPL()
	},
}

// topLevelBinding rewrites a leading `let name = ` / `mut name = ` into a
// bare assignment, so the value lands in a VM global (compiler/statements.go
// compileAssign: an assignment to an identifier with no local or upvalue
// binding compiles to OP_SET_GLOBAL) and survives into the next line's
// input, which is compiled as an entirely fresh Module with no locals of its own.
// Declarations with a type annotation or destructuring target are left
// alone — they work for that line only, a known REPL limitation.
var topLevelBinding = regexp.MustCompile(`^(let|mut)\s+([A-Za-z_][A-Za-z0-9_]*)\s*=`)

func runREPL() error {
	rl, err := readline.New("soc> ")
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	reg := newRegistry()
	machine := vm.New(reg, rl.Stdout())

	var buf strings.Builder
	continuing := false

	for {
		prompt := "soc> "
		if continuing {
			prompt = "...  "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continuing = false
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("repl: %w", err)
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		if needsMoreInput(buf.String()) {
			continuing = true
			continue
		}
		continuing = false

		src := topLevelBinding.ReplaceAllString(strings.TrimSpace(buf.String()), "$2 =")
		buf.Reset()
		if src == "" {
			continue
		}

		prog, err := parser.Parse(src)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "parse error: %v\n", err)
			continue
		}
		mod, err := compileProgram(prog, reg)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "compile error: %v\n", err)
			continue
		}
		result, err := machine.Run(mod)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "runtime error: %v\n", err)
			continue
		}
		if !isVoid(result) {
			fmt.Fprintln(rl.Stdout(), result.AsString())
		}
	}
}

// needsMoreInput tracks bracket and quote balance across the buffered
// lines to decide whether the REPL should keep reading before it tries
// to parse, so multi-line blocks and literals don't get cut short.
func needsMoreInput(code string) bool {
	depth := 0
	var quote rune
	escaped := false
	for _, ch := range code {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth > 0 || quote != 0
}
