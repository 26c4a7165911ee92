package vm

import (
	"github.com/google/uuid"

	"github.com/wudi/soc/values"
)

// task is one deferred `spawn` call awaiting a turn on the single
// cooperative run queue. There are no OS threads or
// goroutines involved: a task only ever runs when some frame calls
// `await` (or the top-level driver drains the queue after Main
// returns), always on the same goroutine that is already executing the
// VM.
type task struct {
	closure *values.Closure
	args    []*values.Value
	future  *values.Future
}

// spawn enqueues a deferred call and immediately returns its pending
// Future. callee must be a Function; the compiler's Spawn emission only
// ever targets a Call-shaped window, so a BoundMethod or non-callable
// here is a script-level type error, not an internal one.
func (vm *VM) spawn(callee *values.Value, args []*values.Value) (*values.Value, error) {
	if callee == nil || callee.Type != values.TypeFunction {
		return nil, throwf(KindTypeError, "spawn target must be a function, got %s", safeTypeName(callee))
	}
	futVal := values.NewFuture(uuid.NewString())
	vm.tasks = append(vm.tasks, &task{
		closure: callee.Data.(*values.Closure),
		args:    args,
		future:  futVal.Data.(*values.Future),
	})
	return futVal, nil
}

// await blocks the calling frame (from the script's point of view)
// until futVal settles, by running queued tasks synchronously one at a
// time — never the awaited task alone; any task may itself spawn or
// await further, and the queue is shared. Errors when the
// queue empties with the future still pending: nothing left can ever
// settle it.
func (vm *VM) await(futVal *values.Value) (*values.Value, error) {
	fut, ok := futVal.Data.(*values.Future)
	if !ok {
		return nil, throwf(KindTypeError, "await target must be a Future, got %s", safeTypeName(futVal))
	}
	for fut.State == values.FuturePending {
		if len(vm.tasks) == 0 {
			return nil, throwf(KindRuntimeError, "await: no spawned task remains to settle this future")
		}
		t := vm.tasks[0]
		vm.tasks = vm.tasks[1:]
		result, err := vm.execClosure(t.closure, t.args)
		if err != nil {
			t.future.Reject(asThrown(err).Value)
			continue
		}
		t.future.Resolve(result)
	}
	if fut.State == values.FutureRejected {
		return nil, &thrownError{Value: fut.Err}
	}
	return fut.Value, nil
}

func safeTypeName(v *values.Value) string {
	if v == nil {
		return "Null"
	}
	return v.TypeName()
}
