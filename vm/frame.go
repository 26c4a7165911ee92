package vm

import (
	"github.com/wudi/soc/opcodes"
	"github.com/wudi/soc/values"
)

// handlerEntry is one entry of a frame's exception-handler stack,
// pushed by PushHandler and popped by PopHandler or by a matching
// Throw.
type handlerEntry struct {
	targetIP int
	errReg   uint8
}

// CallFrame is one activation of a Prototype: its register window, the
// closure it was built from, the open upvalues any nested closure has
// captured from it, and (only for a generator's own top frame) the
// generator it suspends into.
type CallFrame struct {
	Closure   *values.Closure
	Registers []*values.Value
	IP        int

	// OpenUpvalues routes a register access through a shared Upvalue
	// cell once some closure has captured it, so every reader/writer —
	// this frame's own bytecode and any closure holding the
	// upvalue — observes the same mutation.
	OpenUpvalues map[uint8]*values.Upvalue

	Handlers []handlerEntry

	// Generator is non-nil only for the frame a generator suspends
	// into; Yield is only legal when this is set.
	Generator *values.Generator
}

// newFrame allocates a frame's register window. numRegisters is the
// compiler's high-water mark, but Move dst, SelfRegister (the `rec`
// self-reference) always addresses register opcodes.SelfRegister
// regardless of how few registers the function body otherwise uses, so
// the window must always be at least that wide, and that register is
// seeded with the frame's own closure.
func newFrame(closure *values.Closure, numRegisters int) *CallFrame {
	if numRegisters <= opcodes.SelfRegister {
		numRegisters = opcodes.SelfRegister + 1
	}
	regs := make([]*values.Value, numRegisters)
	for i := range regs {
		regs[i] = values.NewNull()
	}
	regs[opcodes.SelfRegister] = &values.Value{Type: values.TypeFunction, Data: closure}
	return &CallFrame{Closure: closure, Registers: regs}
}

func (f *CallFrame) getReg(i uint8) *values.Value {
	if uv, ok := f.OpenUpvalues[i]; ok {
		return uv.Get()
	}
	return f.Registers[i]
}

func (f *CallFrame) setReg(i uint8, v *values.Value) {
	if uv, ok := f.OpenUpvalues[i]; ok {
		uv.Set(v)
		return
	}
	f.Registers[i] = v
}

// captureLocal returns the (possibly freshly created) Upvalue sharing
// storage with register i, redirecting all further access to i through
// it.
func (f *CallFrame) captureLocal(i uint8) *values.Upvalue {
	if f.OpenUpvalues == nil {
		f.OpenUpvalues = make(map[uint8]*values.Upvalue)
	}
	if uv, ok := f.OpenUpvalues[i]; ok {
		return uv
	}
	uv := values.NewUpvalue(f.Registers[i])
	f.OpenUpvalues[i] = uv
	return uv
}

func (f *CallFrame) pushHandler(targetIP int, errReg uint8) {
	f.Handlers = append(f.Handlers, handlerEntry{targetIP: targetIP, errReg: errReg})
}

func (f *CallFrame) popHandler() {
	if len(f.Handlers) > 0 {
		f.Handlers = f.Handlers[:len(f.Handlers)-1]
	}
}

// raise pops the innermost handler (if any), binds the thrown value
// into its error register, and reports the IP to resume at. Reports
// caught=false when the frame has no handler left, in which case the
// exception must propagate to the caller frame.
func (f *CallFrame) raise(errVal *values.Value) (ip int, caught bool) {
	if len(f.Handlers) == 0 {
		return 0, false
	}
	h := f.Handlers[len(f.Handlers)-1]
	f.Handlers = f.Handlers[:len(f.Handlers)-1]
	f.setReg(h.errReg, errVal)
	return h.targetIP, true
}
