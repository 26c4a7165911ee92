// Package stdlib registers the built-in function groups (math,
// utilities, strings, vectors, async, encoding, env, io) plus
// the compiler-internal protocol builtins ($iter, $iter_next,
// $new_range, $str_concat) and the `import` builtin against a
// registry.Registry. Grouped
// file-by-file by concern, one registration function per file, each
// calling Register(name, arity, fn) for its builtins.
package stdlib

import "github.com/wudi/soc/registry"

// Register wires every built-in group into reg. Call once per process
// (or per VM, since registries are not process-global in this design:
// multiple VM instances share nothing).
func Register(reg *registry.Registry) {
	registerInternal(reg)
	registerMath(reg)
	registerUtilities(reg)
	registerStrings(reg)
	registerVectors(reg)
	registerAsync(reg)
	registerEncoding(reg)
	registerEnv(reg)
	registerIO(reg)
}
