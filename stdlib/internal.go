package stdlib

import (
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerInternal wires the compiler-internal protocol builtins: the
// for-loop iterator protocol ($iter/$iter_next), range construction
// ($new_range), string-interpolation concatenation ($str_concat), and
// the `import` built-in the module loader is reached through. The
// $-prefixed names are never written by hand in .soc source — only the
// compiler emits calls to them; `import` is called directly by scripts.
// All five are registered unconditionally ahead of user-facing groups.
func registerInternal(reg *registry.Registry) {
	reg.Register("$iter", 1, builtinIter)
	reg.Register("$iter_next", 1, builtinIterNext)
	reg.Register("$new_range", 4, builtinNewRange)
	reg.Register("$str_concat", 1, builtinStrConcat)
	reg.Register("import", 1, builtinImport)
}

func builtinIter(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
	v := args[0]
	switch v.Type {
	case values.TypeVector:
		return values.NewIteratorValue(&vectorIterator{vec: v.Data.(*values.Vector)}), nil
	case values.TypeRange:
		r := v.Data.(*values.Range)
		return values.NewIteratorValue(&rangeIterator{cur: r.Start, end: r.End, step: effectiveStep(r.Step), inclusive: r.Inclusive}), nil
	case values.TypeString:
		return values.NewIteratorValue(&stringIterator{runes: []rune(v.Data.(string))}), nil
	case values.TypeRecord:
		return values.NewIteratorValue(newRecordIterator(v.Data.(*values.Record))), nil
	case values.TypeIterator, values.TypeGenerator:
		return v, nil
	default:
		return nil, values.ThrowKind("TypeError", "value of type "+v.TypeName()+" is not iterable")
	}
}

func builtinIterNext(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
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
		return nil, values.ThrowKind("TypeError", "value is not an iterator")
	}
	v, ok := it.Next()
	if !ok {
		return values.NewNull(), nil
	}
	return v, nil
}

func builtinNewRange(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
	return values.NewRange(args[0].AsNumber(), args[1].AsNumber(), args[2].AsNumber(), args[3].Truthy()), nil
}

func builtinStrConcat(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
	vec, ok := args[0].Data.(*values.Vector)
	if !ok {
		return nil, values.ThrowKind("TypeError", "$str_concat expects a Vector of parts")
	}
	total := 0
	rendered := make([]string, len(vec.Elements))
	for i, part := range vec.Elements {
		rendered[i] = part.AsString()
		total += len(rendered[i])
	}
	buf := make([]byte, 0, total)
	for _, s := range rendered {
		buf = append(buf, s...)
	}
	return values.NewString(string(buf)), nil
}

func builtinImport(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
	return ctx.ImportModule(args[0].AsString())
}

func effectiveStep(step float64) float64 {
	if step == 0 {
		return 1
	}
	return step
}

// vectorIterator walks a Vector's elements in order, backed directly by
// the underlying slice.
type vectorIterator struct {
	vec *values.Vector
	idx int
}

func (it *vectorIterator) Next() (*values.Value, bool) {
	if it.idx >= len(it.vec.Elements) {
		return nil, false
	}
	v := it.vec.Elements[it.idx]
	it.idx++
	return v, true
}

// rangeIterator advances by step, stopping per the inclusive flag.
type rangeIterator struct {
	cur, end, step float64
	inclusive      bool
}

func (it *rangeIterator) Next() (*values.Value, bool) {
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

// stringIterator yields one-character strings, by rune (not byte), so
// multi-byte UTF-8 sequences are not split.
type stringIterator struct {
	runes []rune
	idx   int
}

func (it *stringIterator) Next() (*values.Value, bool) {
	if it.idx >= len(it.runes) {
		return nil, false
	}
	v := values.NewString(string(it.runes[it.idx]))
	it.idx++
	return v, true
}

// recordIterator yields {key, value} records in a fixed (insertion)
// order, letting `for (entry in someRecord)` destructure via
// entry.key/entry.value.
type recordIterator struct {
	names []string
	rec   *values.Record
	idx   int
}

func newRecordIterator(rec *values.Record) *recordIterator {
	return &recordIterator{names: rec.OrderedNames(), rec: rec}
}

func (it *recordIterator) Next() (*values.Value, bool) {
	if it.idx >= len(it.names) {
		return nil, false
	}
	name := it.names[it.idx]
	it.idx++
	v, _ := it.rec.Get(name)
	entry := values.NewRecord()
	rec := entry.Data.(*values.Record)
	rec.Set("key", values.NewString(name))
	rec.Set("value", v)
	return entry, true
}
