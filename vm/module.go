package vm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/soc/compiler"
	"github.com/wudi/soc/parser"
	"github.com/wudi/soc/values"
)

// moduleLoader resolves `import "path"` to an executed module's export
// record, caching by resolved path and tracking in-progress loads to
// reject cyclic imports.
type moduleLoader struct {
	vm      *VM
	cache   map[string]*values.Value
	loading map[string]bool
}

func newModuleLoader(vm *VM) *moduleLoader {
	return &moduleLoader{
		vm:      vm,
		cache:   make(map[string]*values.Value),
		loading: make(map[string]bool),
	}
}

// resolvePath applies the import resolution rule: a path beginning
// with "./" or "../" resolves relative to fromDir (the importing
// module's own directory); any other path resolves relative to the
// process's working directory. A path with no extension gets ".soc"
// appended before either resolution.
func resolvePath(path, fromDir string) string {
	if filepath.Ext(path) == "" {
		path += ".soc"
	}
	if fromDir != "" && (strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../")) {
		return filepath.Join(fromDir, path)
	}
	return path
}

func (l *moduleLoader) load(path, fromDir string) (*values.Value, error) {
	resolved, err := filepath.Abs(resolvePath(path, fromDir))
	if err != nil {
		return nil, throwf(KindImportError, "cannot resolve module path %q: %s", path, err)
	}
	if v, ok := l.cache[resolved]; ok {
		return v, nil
	}
	if l.loading[resolved] {
		return nil, throwf(KindImportError, "cyclic import of %q", path)
	}

	src, err := os.ReadFile(resolved)
	if err != nil {
		return nil, throwf(KindImportError, "cannot read module %q: %s", path, err)
	}
	prog, err := parser.Parse(string(src))
	if err != nil {
		return nil, throwf(KindImportError, "module %q failed to parse: %s", path, err)
	}
	mod, err := compiler.Compile(prog, l.vm.reg, resolved)
	if err != nil {
		return nil, throwf(KindImportError, "module %q failed to compile: %s", path, err)
	}

	l.loading[resolved] = true
	closure := &values.Closure{Proto: mod.Main}
	result, err := l.vm.execClosure(closure, nil)
	delete(l.loading, resolved)
	if err != nil {
		return nil, err
	}

	l.cache[resolved] = result
	return result, nil
}
