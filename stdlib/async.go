package stdlib

import (
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerAsync wires the async group: sleep, channel
// (plus the send/receive pair it needs to be usable), AsyncMutex (plus
// lock/unlock), signal, and effect. spawn/await are dedicated expression
// forms compiled to OP_SPAWN/OP_AWAIT, not builtins, so they are not
// registered here.
//
// This scheduler never runs two tasks truly concurrently, so sleep
// has no wall-clock effect: it resolves its Future immediately. A
// cooperative scheduler models ordering, not timing.
func registerAsync(reg *registry.Registry) {
	reg.Register("sleep", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		fut := values.NewFuture("")
		fut.Data.(*values.Future).Resolve(values.NewNull())
		return fut, nil
	})
	reg.Register("channel", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewChannel(int(args[0].AsNumber())), nil
	})
	reg.Register("channel_send", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		ch, err := asChannel(args[0])
		if err != nil {
			return nil, err
		}
		ch.Send(args[1])
		return values.NewNull(), nil
	})
	reg.Register("channel_receive", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		ch, err := asChannel(args[0])
		if err != nil {
			return nil, err
		}
		v, ok := ch.Receive()
		if !ok {
			return values.NewNull(), nil
		}
		return v, nil
	})
	reg.Register("AsyncMutex", 0, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewAsyncMutex(), nil
	})
	reg.Register("asyncmutex_lock", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		m, err := asMutex(args[0])
		if err != nil {
			return nil, err
		}
		if m.Locked {
			return nil, values.ThrowKind("RuntimeError", "AsyncMutex is already locked")
		}
		m.Locked = true
		return values.NewNull(), nil
	})
	reg.Register("asyncmutex_unlock", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		m, err := asMutex(args[0])
		if err != nil {
			return nil, err
		}
		m.Locked = false
		return values.NewNull(), nil
	})
	reg.Register("signal", 0, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		return values.NewFuture(""), nil
	})
	reg.Register("signal_fire", 2, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		fut, ok := args[0].Data.(*values.Future)
		if !ok || args[0].Type != values.TypeFuture {
			return nil, values.ThrowKind("TypeError", "signal_fire expects a signal, got "+args[0].TypeName())
		}
		fut.Resolve(args[1])
		return values.NewNull(), nil
	})
	reg.Register("effect", 1, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		if _, err := ctx.CallValue(args[0], nil); err != nil {
			return nil, err
		}
		return values.NewNull(), nil
	})
}

func asChannel(v *values.Value) (*values.Channel, error) {
	ch, ok := v.Data.(*values.Channel)
	if !ok || v.Type != values.TypeChannel {
		return nil, values.ThrowKind("TypeError", "expected a Channel, got "+v.TypeName())
	}
	return ch, nil
}

func asMutex(v *values.Value) (*values.AsyncMutex, error) {
	m, ok := v.Data.(*values.AsyncMutex)
	if !ok || v.Type != values.TypeMutex {
		return nil, values.ThrowKind("TypeError", "expected an AsyncMutex, got "+v.TypeName())
	}
	return m, nil
}
