package stdlib

import (
	"math"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerUtilities wires the utilities group: output and
// basic value inspection, covering the print family and the is*
// numeric predicates.
func registerUtilities(reg *registry.Registry) {
	reg.Register("print", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		if err := ctx.WriteOutput(args[0].AsString()); err != nil {
			return nil, err
		}
		return values.NewNull(), nil
	})
	reg.Register("println", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		if err := ctx.WriteOutput(args[0].AsString() + "\n"); err != nil {
			return nil, err
		}
		return values.NewNull(), nil
	})
	reg.Register("typeof", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(args[0].TypeName()), nil
	})
	reg.Register("str", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(args[0].AsString()), nil
	})
	reg.Register("isnan", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewBool(args[0].IsNumber() && math.IsNaN(args[0].AsNumber())), nil
	})
	reg.Register("isinf", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewBool(args[0].IsNumber() && math.IsInf(args[0].AsNumber(), 0)), nil
	})
	reg.Register("isfinite", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		n := args[0].AsNumber()
		return values.NewBool(args[0].IsNumber() && !math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})
}
