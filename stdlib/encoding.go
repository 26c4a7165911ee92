package stdlib

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strings"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerEncoding wires the encoding group: JSON and CSV
// conversion between script values and text, bridging the tagged value
// union and Go's encoding/json via interface{}.
func registerEncoding(reg *registry.Registry) {
	reg.Register("json_parse", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		var decoded interface{}
		if err := json.Unmarshal([]byte(args[0].AsString()), &decoded); err != nil {
			return nil, values.ThrowKind("RuntimeError", "json_parse: "+err.Error())
		}
		return fromJSON(decoded), nil
	})
	reg.Register("json_stringify", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		encoded, err := toJSON(args[0])
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(encoded)
		if err != nil {
			return nil, values.ThrowKind("RuntimeError", "json_stringify: "+err.Error())
		}
		return values.NewString(string(out)), nil
	})
	reg.Register("csv_parse", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		r := csv.NewReader(strings.NewReader(args[0].AsString()))
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil {
			return nil, values.ThrowKind("RuntimeError", "csv_parse: "+err.Error())
		}
		rows := make([]*values.Value, len(records))
		for i, row := range records {
			cells := make([]*values.Value, len(row))
			for j, cell := range row {
				cells[j] = values.NewString(cell)
			}
			rows[i] = values.NewVector(cells)
		}
		return values.NewVector(rows), nil
	})
	reg.Register("csv_stringify", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		vec, err := asVector(args[0], "csv_stringify")
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		for _, rowVal := range vec.Elements {
			row, ok := rowVal.Data.(*values.Vector)
			if !ok || rowVal.Type != values.TypeVector {
				return nil, values.ThrowKind("TypeError", "csv_stringify: every row must be a Vector")
			}
			cells := make([]string, len(row.Elements))
			for i, c := range row.Elements {
				cells[i] = c.AsString()
			}
			if err := w.Write(cells); err != nil {
				return nil, values.ThrowKind("RuntimeError", "csv_stringify: "+err.Error())
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, values.ThrowKind("RuntimeError", "csv_stringify: "+err.Error())
		}
		return values.NewString(buf.String()), nil
	})
}

// fromJSON converts a decoded interface{} tree into the script's Value
// model: JSON objects become Records, arrays become Vectors.
func fromJSON(v interface{}) *values.Value {
	switch t := v.(type) {
	case nil:
		return values.NewNull()
	case bool:
		return values.NewBool(t)
	case float64:
		return values.NewNumber(t)
	case string:
		return values.NewString(t)
	case []interface{}:
		elems := make([]*values.Value, len(t))
		for i, e := range t {
			elems[i] = fromJSON(e)
		}
		return values.NewVector(elems)
	case map[string]interface{}:
		rec := values.NewRecord()
		r := rec.Data.(*values.Record)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.Set(k, fromJSON(t[k]))
		}
		return rec
	default:
		return values.NewNull()
	}
}

// toJSON converts a Value into a plain interface{} tree encoding/json can
// marshal. Functions, Generators, Futures and similar non-data kinds have
// no JSON representation and raise TypeError.
func toJSON(v *values.Value) (interface{}, error) {
	switch v.Type {
	case values.TypeNull:
		return nil, nil
	case values.TypeBoolean:
		return v.Data.(bool), nil
	case values.TypeNumber:
		return v.Data.(float64), nil
	case values.TypeString:
		return v.Data.(string), nil
	case values.TypeVector:
		vec := v.Data.(*values.Vector)
		out := make([]interface{}, len(vec.Elements))
		for i, e := range vec.Elements {
			converted, err := toJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case values.TypeRecord:
		rec := v.Data.(*values.Record)
		out := make(map[string]interface{}, len(rec.Fields))
		for _, name := range rec.OrderedNames() {
			fv, _ := rec.Get(name)
			converted, err := toJSON(fv)
			if err != nil {
				return nil, err
			}
			out[name] = converted
		}
		return out, nil
	default:
		return nil, values.ThrowKind("TypeError", "json_stringify: value of type "+v.TypeName()+" is not serializable")
	}
}
