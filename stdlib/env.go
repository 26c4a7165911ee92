package stdlib

import (
	"bufio"
	"os"
	"strings"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerEnv wires the env group, a thin wrapper over
// os.LookupEnv/os.Setenv/os.Environ, plus env_load for .env files.
func registerEnv(reg *registry.Registry) {
	reg.Register("env_get", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		v, ok := os.LookupEnv(args[0].AsString())
		if !ok {
			return values.NewNull(), nil
		}
		return values.NewString(v), nil
	})
	reg.Register("env_set", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		if err := os.Setenv(args[0].AsString(), args[1].AsString()); err != nil {
			return nil, values.ThrowKind("RuntimeError", "env_set: "+err.Error())
		}
		return values.NewNull(), nil
	})
	reg.Register("env_vars", 0, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		rec := values.NewRecord()
		r := rec.Data.(*values.Record)
		for _, kv := range os.Environ() {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				r.Set(parts[0], values.NewString(parts[1]))
			}
		}
		return rec, nil
	})
	reg.Register("env_load", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		f, err := os.Open(args[0].AsString())
		if err != nil {
			return nil, values.ThrowKind("ImportError", "env_load: "+err.Error())
		}
		defer f.Close()

		loaded := values.NewRecord()
		r := loaded.Data.(*values.Record)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			name := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
			os.Setenv(name, value)
			r.Set(name, values.NewString(value))
		}
		if err := scanner.Err(); err != nil {
			return nil, values.ThrowKind("RuntimeError", "env_load: "+err.Error())
		}
		return loaded, nil
	})
}
