package stdlib

import (
	"sort"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerVectors wires the vectors group. push/pop/insert/remove
// mutate the shared Vector in place, the rest return fresh vectors.
func registerVectors(reg *registry.Registry) {
	reg.Register("push", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "push")
		if err != nil {
			return nil, err
		}
		vec.Push(args[1])
		return args[0], nil
	})
	reg.Register("pop", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "pop")
		if err != nil {
			return nil, err
		}
		v, ok := vec.Pop()
		if !ok {
			return values.NewNull(), nil
		}
		return v, nil
	})
	reg.Register("insert", 3, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "insert")
		if err != nil {
			return nil, err
		}
		i := int(args[1].AsNumber())
		if i < 0 || i > len(vec.Elements) {
			return nil, values.ThrowKind("IndexError", "insert: index out of range")
		}
		vec.Elements = append(vec.Elements, nil)
		copy(vec.Elements[i+1:], vec.Elements[i:])
		vec.Elements[i] = args[2]
		return args[0], nil
	})
	reg.Register("remove", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "remove")
		if err != nil {
			return nil, err
		}
		i := int(args[1].AsNumber())
		if i < 0 || i >= len(vec.Elements) {
			return nil, values.ThrowKind("IndexError", "remove: index out of range")
		}
		removed := vec.Elements[i]
		vec.Elements = append(vec.Elements[:i], vec.Elements[i+1:]...)
		return removed, nil
	})
	reg.Register("slice", 3, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "slice")
		if err != nil {
			return nil, err
		}
		start, end := clampRange(int(args[1].AsNumber()), int(args[2].AsNumber()), len(vec.Elements))
		out := append([]*values.Value{}, vec.Elements[start:end]...)
		return values.NewVector(out), nil
	})
	reg.Register("concat", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		a, err := asVector(args[0], "concat")
		if err != nil {
			return nil, err
		}
		b, err := asVector(args[1], "concat")
		if err != nil {
			return nil, err
		}
		out := append([]*values.Value{}, a.Elements...)
		out = append(out, b.Elements...)
		return values.NewVector(out), nil
	})
	reg.Register("reverse", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "reverse")
		if err != nil {
			return nil, err
		}
		n := len(vec.Elements)
		out := make([]*values.Value, n)
		for i, e := range vec.Elements {
			out[n-1-i] = e
		}
		return values.NewVector(out), nil
	})
	reg.Register("sort", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "sort")
		if err != nil {
			return nil, err
		}
		out := append([]*values.Value{}, vec.Elements...)
		cmp := args[1]
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			result, err := ctx.CallValue(cmp, []*values.Value{out[i], out[j]})
			if err != nil {
				sortErr = err
				return false
			}
			return result.AsNumber() < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
		return values.NewVector(out), nil
	})
	reg.Register("product", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		a, err := asVector(args[0], "product")
		if err != nil {
			return nil, err
		}
		b, err := asVector(args[1], "product")
		if err != nil {
			return nil, err
		}
		out := make([]*values.Value, 0, len(a.Elements)*len(b.Elements))
		for _, x := range a.Elements {
			for _, y := range b.Elements {
				out = append(out, values.NewVector([]*values.Value{x, y}))
			}
		}
		return values.NewVector(out), nil
	})
	reg.Register("zip", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		a, err := asVector(args[0], "zip")
		if err != nil {
			return nil, err
		}
		b, err := asVector(args[1], "zip")
		if err != nil {
			return nil, err
		}
		n := len(a.Elements)
		if len(b.Elements) < n {
			n = len(b.Elements)
		}
		out := make([]*values.Value, n)
		for i := 0; i < n; i++ {
			out[i] = values.NewVector([]*values.Value{a.Elements[i], b.Elements[i]})
		}
		return values.NewVector(out), nil
	})
	reg.Register("flatten", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "flatten")
		if err != nil {
			return nil, err
		}
		var out []*values.Value
		for _, e := range vec.Elements {
			if inner, ok := e.Data.(*values.Vector); ok && e.Type == values.TypeVector {
				out = append(out, inner.Elements...)
			} else {
				out = append(out, e)
			}
		}
		return values.NewVector(out), nil
	})
	reg.Register("take", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "take")
		if err != nil {
			return nil, err
		}
		n := int(args[1].AsNumber())
		if n < 0 {
			n = 0
		}
		if n > len(vec.Elements) {
			n = len(vec.Elements)
		}
		out := append([]*values.Value{}, vec.Elements[:n]...)
		return values.NewVector(out), nil
	})
	reg.Register("drop", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "drop")
		if err != nil {
			return nil, err
		}
		n := int(args[1].AsNumber())
		if n < 0 {
			n = 0
		}
		if n > len(vec.Elements) {
			n = len(vec.Elements)
		}
		out := append([]*values.Value{}, vec.Elements[n:]...)
		return values.NewVector(out), nil
	})
	reg.Register("unique", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "unique")
		if err != nil {
			return nil, err
		}
		var out []*values.Value
		for _, e := range vec.Elements {
			dup := false
			for _, seen := range out {
				if values.DeepEqual(e, seen) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, e)
			}
		}
		return values.NewVector(out), nil
	})
	reg.Register("chunk", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "chunk")
		if err != nil {
			return nil, err
		}
		size := int(args[1].AsNumber())
		if size <= 0 {
			return nil, values.ThrowKind("RuntimeError", "chunk: size must be positive")
		}
		var out []*values.Value
		for i := 0; i < len(vec.Elements); i += size {
			end := i + size
			if end > len(vec.Elements) {
				end = len(vec.Elements)
			}
			out = append(out, values.NewVector(append([]*values.Value{}, vec.Elements[i:end]...)))
		}
		return values.NewVector(out), nil
	})
	reg.Register("range", 3, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		start, end, step := args[0].AsNumber(), args[1].AsNumber(), args[2].AsNumber()
		if step == 0 {
			step = 1
		}
		var out []*values.Value
		if step > 0 {
			for x := start; x < end; x += step {
				out = append(out, values.NewNumber(x))
			}
		} else {
			for x := start; x > end; x += step {
				out = append(out, values.NewNumber(x))
			}
		}
		return values.NewVector(out), nil
	})
}

func asVector(v *values.Value, fn string) (*values.Vector, error) {
	vec, ok := v.Data.(*values.Vector)
	if !ok || v.Type != values.TypeVector {
		return nil, values.ThrowKind("TypeError", fn+" expects a Vector, got "+v.TypeName())
	}
	return vec, nil
}
