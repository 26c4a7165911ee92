package vm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/compiler"
	"github.com/wudi/soc/parser"
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// testRegistry wires the handful of internal/stdlib builtins real
// end-to-end scripts compile against: the for-loop iterator protocol
// ($iter/$iter_next, including generator values), range construction,
// string interpolation, module import, the two observable builtins
// (print, len), and sleep/typeof for the async tests. Grounded on
// compiler_test.go's own testRegistry, extended with working
// implementations since these tests exercise the VM's execution of
// them rather than just the compiler's arity checks.
func testRegistry() *registry.Registry {
	reg := registry.New()

	reg.Register("$iter", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		switch args[0].Type {
		case values.TypeVector:
			return values.NewIteratorValue(&vecIterator{vec: args[0].Data.(*values.Vector)}), nil
		case values.TypeRange:
			r := args[0].Data.(*values.Range)
			return values.NewIteratorValue(&rangeIterator{cur: r.Start, end: r.End, step: r.Step, inclusive: r.Inclusive}), nil
		case values.TypeIterator, values.TypeGenerator:
			return args[0], nil
		default:
			return nil, throwf(KindTypeError, "value of type %s is not iterable", args[0].TypeName())
		}
	})
	reg.Register("$iter_next", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		if args[0].Type == values.TypeGenerator {
			v, more, err := ctx.ResumeGenerator(args[0])
			if err != nil {
				return nil, err
			}
			if !more {
				return values.NewNull(), nil
			}
			return v, nil
		}
		it, ok := args[0].Data.(values.Iterator)
		if !ok {
			return nil, throwf(KindTypeError, "value is not an iterator")
		}
		v, ok := it.Next()
		if !ok {
			return values.NewNull(), nil
		}
		return v, nil
	})
	reg.Register("$new_range", 4, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewRange(args[0].AsNumber(), args[1].AsNumber(), args[2].AsNumber(), args[3].Truthy()), nil
	})
	reg.Register("$str_concat", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec := args[0].Data.(*values.Vector)
		var b bytes.Buffer
		for _, part := range vec.Elements {
			b.WriteString(part.AsString())
		}
		return values.NewString(b.String()), nil
	})
	reg.Register("import", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return ctx.ImportModule(args[0].AsString())
	})
	reg.Register("sleep", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		fut := values.NewFuture("")
		fut.Data.(*values.Future).Resolve(values.NewNull())
		return fut, nil
	})
	reg.Register("typeof", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(args[0].TypeName()), nil
	})
	reg.Register("print", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		if err := ctx.WriteOutput(args[0].AsString() + "\n"); err != nil {
			return nil, err
		}
		return values.NewNull(), nil
	})
	reg.Register("len", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		switch args[0].Type {
		case values.TypeVector:
			return values.NewNumber(float64(len(args[0].Data.(*values.Vector).Elements))), nil
		case values.TypeString:
			return values.NewNumber(float64(len(args[0].Data.(string)))), nil
		default:
			return nil, throwf(KindTypeError, "value of type %s has no length", args[0].TypeName())
		}
	})
	return reg
}

type vecIterator struct {
	vec *values.Vector
	idx int
}

func (it *vecIterator) Next() (*values.Value, bool) {
	if it.idx >= len(it.vec.Elements) {
		return nil, false
	}
	v := it.vec.Elements[it.idx]
	it.idx++
	return v, true
}

type rangeIterator struct {
	cur, end, step float64
	inclusive      bool
	done           bool
}

func (it *rangeIterator) Next() (*values.Value, bool) {
	if it.done {
		return nil, false
	}
	if it.step >= 0 {
		if (it.inclusive && it.cur > it.end) || (!it.inclusive && it.cur >= it.end) {
			return nil, false
		}
	} else {
		if (it.inclusive && it.cur < it.end) || (!it.inclusive && it.cur <= it.end) {
			return nil, false
		}
	}
	v := values.NewNumber(it.cur)
	it.cur += it.step
	return v, true
}

func runSource(t *testing.T, src string) (*values.Value, string, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	mod, err := compiler.Compile(prog, testRegistry(), "<test>")
	require.NoError(t, err)
	var out bytes.Buffer
	machine := New(testRegistry(), &out)
	result, err := machine.Run(mod)
	return result, out.String(), err
}

func TestRunArithmeticAndLet(t *testing.T) {
	result, _, err := runSource(t, `
		let a = 3;
		let b = 4;
		a * a + b * b
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(25), result.AsNumber())
}

func TestRunIfElseBranches(t *testing.T) {
	cases := []struct {
		name string
		cond string
		want float64
	}{
		{"true branch", "true", 1},
		{"false branch", "false", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, _, err := runSource(t, `if (`+tc.cond+`) { 1 } else { 2 }`)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.AsNumber())
		})
	}
}

func TestRunWhileLoopAccumulates(t *testing.T) {
	result, _, err := runSource(t, `
		mut i = 0;
		mut sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		};
		sum
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(10), result.AsNumber())
}

func TestRunForOverVector(t *testing.T) {
	result, out, err := runSource(t, `
		let xs = [1, 2, 3];
		for (x in xs) {
			print(x);
		};
		len(xs)
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.AsNumber())
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestRunForBreakCarriesValue(t *testing.T) {
	result, _, err := runSource(t, `
		for (x in [10, 20, 30]) {
			if (x == 20) { break x; };
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(20), result.AsNumber())
}

func TestRunRangeLiteral(t *testing.T) {
	result, _, err := runSource(t, `
		mut sum = 0;
		for (i in 0..5) {
			sum = sum + i;
		};
		sum
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(10), result.AsNumber())
}

func TestRunClosureCapturesUpvalue(t *testing.T) {
	result, _, err := runSource(t, `
		mut counter = 0;
		let incr = () => { counter = counter + 1; counter };
		incr();
		incr();
		incr()
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.AsNumber())
}

func TestRunRecordFieldAccess(t *testing.T) {
	result, _, err := runSource(t, `
		let p = {x: 1, y: 2};
		p.x + p.y
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.AsNumber())
}

func TestRunTryCatchRecoversThrow(t *testing.T) {
	result, _, err := runSource(t, `
		mut result = 0;
		try {
			throw {message: "boom"};
			result = 1;
		} catch (e) {
			result = 2;
		};
		result
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(2), result.AsNumber())
}

func TestRunUncaughtThrowPropagatesAsError(t *testing.T) {
	_, _, err := runSource(t, `throw {message: "boom"};`)
	require.Error(t, err)
}

func TestRunGeneratorYieldsSequence(t *testing.T) {
	result, out, err := runSource(t, `
		let gen = generate {
			yield 1;
			yield 2;
			yield 3;
		};
		for (v in gen) {
			print(v);
		};
		1
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), result.AsNumber())
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestRunSpawnAwaitResolves(t *testing.T) {
	result, _, err := runSource(t, `
		let work = () => { 21 * 2 };
		let fut = spawn work();
		await fut
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(42), result.AsNumber())
}

func TestRunStringInterpolation(t *testing.T) {
	result, _, err := runSource(t, `
		let name = "world";
		"hello, ${name}!"
	`)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", result.AsString())
}

func TestRunTypeCheckMatchesNumber(t *testing.T) {
	result, _, err := runSource(t, `
		let v = 5;
		v is Number
	`)
	require.NoError(t, err)
	assert.True(t, result.Truthy())
}

func TestRunRecSelfReferenceComputesFactorial(t *testing.T) {
	result, _, err := runSource(t, `
		let fact = (n) => if (n <= 1) { 1 } else { n * rec(n - 1) };
		fact(5)
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(120), result.AsNumber())
}

func TestRunTailRecSelfReferenceDoesNotCrash(t *testing.T) {
	result, _, err := runSource(t, `
		let sum = (n, acc) => if (n <= 0) { acc } else { rec(n - 1, acc + n) };
		sum(100, 0)
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(5050), result.AsNumber())
}

func TestRunAsyncCallReturnsFutureSynchronously(t *testing.T) {
	result, _, err := runSource(t, `
		let f = async () => do { await sleep(1); 42 };
		let fut = f();
		typeof(fut)
	`)
	require.NoError(t, err)
	assert.Equal(t, "Future", result.AsString())
}

func TestRunAsyncCallAwaitedResolvesToBodyResult(t *testing.T) {
	result, _, err := runSource(t, `
		let f = async () => do { await sleep(1); 42 };
		await f()
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(42), result.AsNumber())
}

func TestRunArityErrorOnMissingRequiredArgs(t *testing.T) {
	_, _, err := runSource(t, `
		let add = (a, b) => a + b;
		add(1)
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument")
}

func TestRunImportResolvesRelativeToImportingModuleDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(sub, 0o755))

	helperPath := filepath.Join(sub, "helper.soc")
	require.NoError(t, os.WriteFile(helperPath, []byte(`export let value = 99;`), 0o644))

	mainPath := filepath.Join(sub, "main.soc")
	require.NoError(t, os.WriteFile(mainPath, []byte(`
		let h = import("./helper");
		h.value
	`), 0o644))

	// Run from a working directory that differs from the importing
	// module's own directory, so a CWD-relative resolution would miss.
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prevWD) })

	src, err := os.ReadFile(mainPath)
	require.NoError(t, err)
	prog, err := parser.Parse(string(src))
	require.NoError(t, err)
	reg := testRegistry()
	mod, err := compiler.Compile(prog, reg, mainPath)
	require.NoError(t, err)

	machine := New(reg, &bytes.Buffer{})
	result, err := machine.Run(mod)
	require.NoError(t, err)
	assert.Equal(t, float64(99), result.AsNumber())
}
