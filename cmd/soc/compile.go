package main

import (
	"fmt"
	"os"

	"github.com/wudi/soc/ast"
	"github.com/wudi/soc/compiler"
	"github.com/wudi/soc/parser"
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/stdlib"
	"github.com/wudi/soc/values"
)

// newRegistry builds a fresh builtin table. Every run gets its own
// registry and VM instance; nothing here is process-global.
func newRegistry() *registry.Registry {
	reg := registry.New()
	stdlib.Register(reg)
	return reg
}

// compileFile reads, parses, and compiles path against a fresh registry,
// returning both the module and the registry it was compiled against so
// the caller can construct a VM that understands the same builtin ids.
func compileFile(path string) (*values.Module, *registry.Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return compileSource(string(src), path)
}

func compileSource(src, path string) (*values.Module, *registry.Registry, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	reg := newRegistry()
	mod, err := compiler.Compile(prog, reg, path)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling %s: %w", path, err)
	}
	return mod, reg, nil
}

// compileProgram compiles an already-parsed program against an existing
// registry, used by the REPL to reuse one builtin table (and therefore
// one set of builtin ids) across every line of a session.
func compileProgram(prog *ast.Program, reg *registry.Registry) (*values.Module, error) {
	return compiler.Compile(prog, reg, "<repl>")
}
