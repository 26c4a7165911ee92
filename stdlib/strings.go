package stdlib

import (
	"strings"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerStrings wires the strings group. len is registered here
// (not in vectors.go) and dispatched by argument type to also cover
// Vector, matching the single ad hoc `len` behavior exercised by this
// package's tests.
func registerStrings(reg *registry.Registry) {
	reg.Register("upper", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(strings.ToUpper(args[0].AsString())), nil
	})
	reg.Register("lower", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(strings.ToLower(args[0].AsString())), nil
	})
	reg.Register("trim", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(strings.TrimSpace(args[0].AsString())), nil
	})
	reg.Register("trim_start", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(strings.TrimLeft(args[0].AsString(), " \t\n\r")), nil
	})
	reg.Register("trim_end", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(strings.TrimRight(args[0].AsString(), " \t\n\r")), nil
	})
	reg.Register("contains", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewBool(strings.Contains(args[0].AsString(), args[1].AsString())), nil
	})
	reg.Register("starts_with", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewBool(strings.HasPrefix(args[0].AsString(), args[1].AsString())), nil
	})
	reg.Register("ends_with", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewBool(strings.HasSuffix(args[0].AsString(), args[1].AsString())), nil
	})
	reg.Register("replace", 3, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewString(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil
	})
	reg.Register("split", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		parts := strings.Split(args[0].AsString(), args[1].AsString())
		elems := make([]*values.Value, len(parts))
		for i, p := range parts {
			elems[i] = values.NewString(p)
		}
		return values.NewVector(elems), nil
	})
	reg.Register("join", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, ok := args[0].Data.(*values.Vector)
		if !ok {
			return nil, values.ThrowKind("TypeError", "join expects a Vector, got "+args[0].TypeName())
		}
		parts := make([]string, len(vec.Elements))
		for i, e := range vec.Elements {
			parts[i] = e.AsString()
		}
		return values.NewString(strings.Join(parts, args[1].AsString())), nil
	})
	reg.Register("substring", 3, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		runes := []rune(args[0].AsString())
		start, end := clampRange(int(args[1].AsNumber()), int(args[2].AsNumber()), len(runes))
		if start >= end {
			return values.NewString(""), nil
		}
		return values.NewString(string(runes[start:end])), nil
	})
	reg.Register("char_at", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		runes := []rune(args[0].AsString())
		idx := int(args[1].AsNumber())
		if idx < 0 || idx >= len(runes) {
			return nil, values.ThrowKind("IndexError", "char_at: index out of range")
		}
		return values.NewString(string(runes[idx])), nil
	})
	reg.Register("len", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		switch args[0].Type {
		case values.TypeString:
			return values.NewNumber(float64(len([]rune(args[0].Data.(string))))), nil
		case values.TypeVector:
			return values.NewNumber(float64(len(args[0].Data.(*values.Vector).Elements))), nil
		default:
			return nil, values.ThrowKind("TypeError", "value of type "+args[0].TypeName()+" has no length")
		}
	})
}

// clampRange clamps [start, end) to a valid slice bound within [0, n].
func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	return start, end
}
