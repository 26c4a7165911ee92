// Package registry implements the process-lifetime builtin function table
// consulted by both the compiler and the VM.
package registry

import (
	"fmt"
	"sync"

	"github.com/wudi/soc/values"
)

// CallContext exposes the minimal VM services a builtin implementation
// needs without creating an import cycle back to package vm.
type CallContext interface {
	// WriteOutput renders a value to the active output stream (print/println).
	WriteOutput(s string) error
	// Global fetches a global binding.
	Global(name string) (*values.Value, bool)
	// SetGlobal creates or updates a global binding.
	SetGlobal(name string, v *values.Value)
	// Depth reports the current call-stack depth, so a builtin that
	// pushes frames (e.g. a callback-taking one) can verify it restored
	// the invariant before returning.
	Depth() int
	// ImportModule resolves and executes a module by path, returning its
	// export record. Used by the `import` builtin.
	ImportModule(path string) (*values.Value, error)
	// CallValue invokes an arbitrary callable Value (Function or
	// BoundMethod) with args, used by callback-taking builtins (sort,
	// effect).
	CallValue(callee *values.Value, args []*values.Value) (*values.Value, error)
	// ResumeGenerator advances a Generator value one step, returning the
	// yielded value and true, or the return value and false once the
	// generator has finished. Used by the internal "$iter"/"$iter_next"
	// builtins when iterating a generate {...} value.
	ResumeGenerator(gen *values.Value) (*values.Value, bool, error)
}

// Func is a builtin function implementation.
type Func func(ctx CallContext, args []*values.Value) (*values.Value, error)

// Entry describes one registered builtin.
type Entry struct {
	ID    uint16
	Name  string
	Fn    Func
	Arity int // -1 for variadic
}

// Registry holds the two lookup paths callers need: name->id for
// the compiler, id->entry for the VM.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]uint16
	byID    []*Entry
}

func New() *Registry {
	return &Registry{
		byName: make(map[string]uint16),
	}
}

// Register adds a builtin. Inserting a duplicate name is a programmer
// error and panics.
func (r *Registry) Register(name string, arity int, fn Func) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("registry: duplicate builtin name %q", name))
	}
	id := uint16(len(r.byID))
	r.byID = append(r.byID, &Entry{ID: id, Name: name, Fn: fn, Arity: arity})
	r.byName[name] = id
	return id
}

// Lookup resolves a name to a builtin id. The compiler consults it for a
// call whose callee names no local or upvalue, before it falls back to a
// global read.
func (r *Registry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Entry returns the entry for a builtin id, consulted by the VM's
// CallBuiltin handler.
func (r *Registry) Entry(id uint16) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// Len reports the number of registered builtins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
