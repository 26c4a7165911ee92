package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/parser"
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// testRegistry registers the internal lowering builtins plus a couple of
// ordinary ones, mirroring what package stdlib installs at process start.
func testRegistry() *registry.Registry {
	reg := registry.New()
	noop := func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewNull(), nil
	}
	reg.Register("$iter", 1, noop)
	reg.Register("$iter_next", 1, noop)
	reg.Register("$new_range", 4, noop)
	reg.Register("$str_concat", 1, noop)
	reg.Register("import", 1, noop)
	reg.Register("print", 1, noop)
	reg.Register("sleep", 1, noop)
	reg.Register("len", 1, noop)
	return reg
}

func compileSource(t *testing.T, src string) *values.Module {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err, "parse")
	mod, err := Compile(prog, testRegistry(), "test.soc")
	require.NoError(t, err, "compile")
	require.NotNil(t, mod.Main)
	return mod
}

func TestCompileLetAndBinary(t *testing.T) {
	mod := compileSource(t, `let x = 2 + 3 * 4; x`)
	assert.NotEmpty(t, mod.Main.Code)
	assert.Equal(t, "test.soc", mod.Path)
}

func TestCompileIfElseAsExpression(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"with else", `let f = (n) => if (n <= 1) { 1 } else { n * 2 }; f(5)`},
		{"without else", `let x = if (true) { 1 }; x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := compileSource(t, tt.src)
			assert.NotEmpty(t, mod.Main.Code)
		})
	}
}

func TestCompileWhileLoopAsExpression(t *testing.T) {
	mod := compileSource(t, `mut i = 0; let total = while (i < 5) { i = i + 1; if (i == 3) { break i } }; total`)
	assert.NotEmpty(t, mod.Main.Code)
}

func TestCompileForOverIterable(t *testing.T) {
	mod := compileSource(t, `let g = generate { yield 1; yield 2 }; for (v in g) { v }`)
	require.Len(t, mod.Main.Functions, 1)
	assert.True(t, mod.Main.Functions[0].IsGenerator)
}

func TestCompileTryCatch(t *testing.T) {
	mod := compileSource(t, `try { throw "boom" } catch (e) { e }`)
	assert.NotEmpty(t, mod.Main.Code)
}

func TestCompileRecordAndField(t *testing.T) {
	mod := compileSource(t, `let t = {name: "soc", port: 8080}; t.port`)
	assert.NotEmpty(t, mod.Main.Code)
}

func TestCompileAsyncAwait(t *testing.T) {
	mod := compileSource(t, `let f = async () => do { await sleep(1); 42 }; await f()`)
	require.Len(t, mod.Main.Functions, 1)
	assert.True(t, mod.Main.Functions[0].IsAsync)
}

func TestCompileRangeLiteral(t *testing.T) {
	mod := compileSource(t, `1..=10 by 2`)
	assert.NotEmpty(t, mod.Main.Code)
}

func TestCompileTypeCheckAndAssert(t *testing.T) {
	mod := compileSource(t, `let x: Number = 5; x is Number`)
	assert.NotEmpty(t, mod.Main.Code)
}

func TestCompileLambdaCapturesUpvalue(t *testing.T) {
	mod := compileSource(t, `let make = () => do { mut n = 0; () => do { n = n + 1; n } }; make()`)
	require.Len(t, mod.Main.Functions, 1)
	outer := mod.Main.Functions[0]
	require.Len(t, outer.Functions, 1)
	inner := outer.Functions[0]
	require.Len(t, inner.Upvalues, 1)
	assert.Equal(t, values.UpvalueFromLocal, inner.Upvalues[0].Source)
}

func TestCompileMatchExpression(t *testing.T) {
	mod := compileSource(t, `let classify = (n) => match (n) { 0 => "zero", _ => "other" }; classify(0)`)
	require.Len(t, mod.Main.Functions, 1)
	assert.NotEmpty(t, mod.Main.Functions[0].Code)
}

func TestCompileExportRecord(t *testing.T) {
	mod := compileSource(t, `export let answer = 42`)
	assert.NotEmpty(t, mod.Main.Code)
}

func TestCompileBuiltinCallArityMismatch(t *testing.T) {
	_, err := parser.Parse(`print(1, 2)`)
	require.NoError(t, err)
	prog, _ := parser.Parse(`print(1, 2)`)
	_, err = Compile(prog, testRegistry(), "test.soc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "print")
}

func TestCompileRecSelfReference(t *testing.T) {
	mod := compileSource(t, `let fact = (n) => if (n <= 1) { 1 } else { n * rec(n - 1) }; fact(5)`)
	require.Len(t, mod.Main.Functions, 1)
	assert.NotEmpty(t, mod.Main.Functions[0].Code)
}

func TestCompileBreakOutsideLoopIsError(t *testing.T) {
	prog, err := parser.Parse(`break 1`)
	require.NoError(t, err)
	_, err = Compile(prog, testRegistry(), "test.soc")
	require.Error(t, err)
}

func TestCompileAssignToImmutableIsError(t *testing.T) {
	prog, err := parser.Parse(`let x = 1; x = 2`)
	require.NoError(t, err)
	_, err = Compile(prog, testRegistry(), "test.soc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "immutable")
}
