package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// fakeCallContext is a minimal registry.CallContext double for exercising
// builtins in isolation, without spinning up a real *vm.VM. callValue lets
// individual tests stub out callback-taking builtins (sort, effect)
// without needing a live VM to execute the callee.
type fakeCallContext struct {
	output    []string
	globals   map[string]*values.Value
	callValue func(callee *values.Value, args []*values.Value) (*values.Value, error)
}

func newFakeCallContext() *fakeCallContext {
	return &fakeCallContext{globals: map[string]*values.Value{}}
}

func (c *fakeCallContext) WriteOutput(s string) error {
	c.output = append(c.output, s)
	return nil
}
func (c *fakeCallContext) Global(name string) (*values.Value, bool) {
	v, ok := c.globals[name]
	return v, ok
}
func (c *fakeCallContext) SetGlobal(name string, v *values.Value) { c.globals[name] = v }
func (c *fakeCallContext) Depth() int                             { return 0 }
func (c *fakeCallContext) ImportModule(path string) (*values.Value, error) {
	return nil, assert.AnError
}
func (c *fakeCallContext) CallValue(callee *values.Value, args []*values.Value) (*values.Value, error) {
	if c.callValue != nil {
		return c.callValue(callee, args)
	}
	return nil, assert.AnError
}
func (c *fakeCallContext) ResumeGenerator(gen *values.Value) (*values.Value, bool, error) {
	return nil, false, assert.AnError
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	Register(reg)
	return reg
}

func call(t *testing.T, reg *registry.Registry, ctx registry.CallContext, name string, args ...*values.Value) (*values.Value, error) {
	t.Helper()
	id, ok := reg.Lookup(name)
	require.Truef(t, ok, "builtin %q not registered", name)
	entry, ok := reg.Entry(id)
	require.True(t, ok)
	return entry.Fn(ctx, args)
}

func vecOf(vals ...*values.Value) *values.Value {
	return values.NewVector(vals)
}
