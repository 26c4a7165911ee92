package stdlib

import (
	"math"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerMath wires the math group: every entry is a
// single-argument numeric function except log, atan2, pow, min, and max,
// one registration per builtin with a fixed arity.
func registerMath(reg *registry.Registry) {
	unary := map[string]func(float64) float64{
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
		"exp": math.Exp, "ln": math.Log, "log10": math.Log10, "log2": math.Log2,
		"sqrt": math.Sqrt, "abs": math.Abs, "sign": sign,
		"floor": math.Floor, "ceil": math.Ceil, "round": math.Round, "trunc": math.Trunc,
	}
	for name, fn := range unary {
		fn := fn
		reg.Register(name, 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
			return values.NewNumber(fn(args[0].AsNumber())), nil
		})
	}

	reg.Register("log", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		x, base := args[0].AsNumber(), args[1].AsNumber()
		return values.NewNumber(math.Log(x) / math.Log(base)), nil
	})
	reg.Register("atan2", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewNumber(math.Atan2(args[0].AsNumber(), args[1].AsNumber())), nil
	})
	reg.Register("pow", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewNumber(math.Pow(args[0].AsNumber(), args[1].AsNumber())), nil
	})
	reg.Register("min", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewNumber(math.Min(args[0].AsNumber(), args[1].AsNumber())), nil
	})
	reg.Register("max", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewNumber(math.Max(args[0].AsNumber(), args[1].AsNumber())), nil
	})
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
