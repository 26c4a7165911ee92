package vm

import "github.com/wudi/soc/values"

// ResumeGenerator drives a Generator one step: on first call it starts
// a fresh frame over the generator's closure; on later calls it
// restores the frame stashed by the previous suspension. No goroutine
// is ever spawned — suspension is just an early return from run()  with
// the frame's IP already advanced past the Yield instruction, so the
// next resume falls straight into the LoadNull the compiler always
// emits immediately after Yield.
func (vm *VM) ResumeGenerator(genVal *values.Value) (*values.Value, bool, error) {
	gen, ok := genVal.Data.(*values.Generator)
	if !ok {
		return nil, false, throwf(KindTypeError, "value of type %s is not a Generator", genVal.TypeName())
	}
	if gen.Done {
		return gen.ReturnValue, false, nil
	}

	var frame *CallFrame
	if !gen.Started {
		gen.Started = true
		frame = newFrame(gen.Closure, gen.Closure.Proto.NumRegisters)
		frame.Generator = gen
	} else {
		frame, ok = gen.Frame.(*CallFrame)
		if !ok {
			return nil, false, throwf(KindRuntimeError, "generator has no suspended frame to resume")
		}
	}

	if vm.stack.depth() >= vm.config.maxFrames {
		return nil, false, throwf(KindOverflowError, "call stack exceeded %d frames", vm.config.maxFrames)
	}
	vm.stack.push(frame)
	defer vm.stack.pop()

	result, yielded, suspended, err := vm.run(frame)
	if err != nil {
		gen.Done = true
		gen.ReturnValue = values.NewNull()
		return nil, false, err
	}
	if suspended {
		gen.Frame = frame
		return yielded, true, nil
	}
	gen.Done = true
	gen.ReturnValue = result
	return result, false, nil
}
