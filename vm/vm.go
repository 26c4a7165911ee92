// Package vm implements the register-machine execution engine: the
// call-frame model, the single fetch-decode-dispatch loop, generator
// suspension/resumption, the cooperative async scheduler, exception
// unwinding, the module loader, and the disassembler. Execution state
// (call stack, globals, output sink) lives on one VM value; dispatch is
// a single switch over opcodes.Opcode.
package vm

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/wudi/soc/opcodes"
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// VM is one execution engine instance: its own globals, module cache,
// and pending-task scheduler. Nothing is shared between VM instances.
type VM struct {
	reg    *registry.Registry
	out    io.Writer
	config *Config

	stack *callStackManager

	globalsMu sync.RWMutex
	globals   map[string]*values.Value

	modules *moduleLoader

	tasks []*task
}

// New constructs a VM. out receives WriteOutput calls from print-like
// builtins.
func New(reg *registry.Registry, out io.Writer, opts ...Option) *VM {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	vm := &VM{
		reg:     reg,
		out:     out,
		config:  cfg,
		stack:   newCallStackManager(),
		globals: make(map[string]*values.Value),
	}
	vm.modules = newModuleLoader(vm)
	return vm
}

// Run executes a compiled module's main prototype with no arguments and
// returns its result value.
func (vm *VM) Run(mod *values.Module) (*values.Value, error) {
	closure := &values.Closure{Proto: mod.Main}
	result, err := vm.execClosure(closure, nil)
	if err != nil {
		return nil, err
	}
	return result, vm.drainTasks()
}

// drainTasks runs any task spawned but never awaited to completion, so
// top-level `spawn` side effects (e.g. printing) are still observed
// even when the program never awaits their future.
func (vm *VM) drainTasks() error {
	for len(vm.tasks) > 0 {
		t := vm.tasks[0]
		vm.tasks = vm.tasks[1:]
		result, err := vm.execClosure(t.closure, t.args)
		if err != nil {
			t.future.Reject(asThrown(err).Value)
			continue
		}
		t.future.Resolve(result)
	}
	return nil
}

// execClosure runs a closure to completion (never suspends: only a
// generator's own top frame, entered via ResumeGenerator, can return
// with suspended=true).
func (vm *VM) execClosure(closure *values.Closure, args []*values.Value) (*values.Value, error) {
	if vm.stack.depth() >= vm.config.maxFrames {
		return nil, throwf(KindOverflowError, "call stack exceeded %d frames", vm.config.maxFrames)
	}
	proto := closure.Proto
	if err := checkArity(proto, len(args)); err != nil {
		return nil, err
	}
	frame := newFrame(closure, proto.NumRegisters)
	for i := 0; i < proto.Arity && i < len(args); i++ {
		frame.Registers[i] = args[i]
	}
	vm.stack.push(frame)
	defer vm.stack.pop()

	result, _, _, err := vm.run(frame)
	return result, err
}

// checkArity rejects a call whose argument count can't satisfy the
// callee's required parameters, or — for a non-variadic callee —
// overshoots its declared parameter list. Missing optional parameters
// are not an error: execClosure leaves their registers at the Null
// newFrame already seeded them with.
func checkArity(proto *values.Prototype, nargs int) error {
	required := proto.Arity - proto.NumOptional
	if nargs < required {
		return throwf(KindArityError, "%s: expected at least %d argument(s), got %d", calleeLabel(proto), required, nargs)
	}
	if !proto.IsVariadic && nargs > proto.Arity {
		return throwf(KindArityError, "%s: expected at most %d argument(s), got %d", calleeLabel(proto), proto.Arity, nargs)
	}
	return nil
}

func calleeLabel(proto *values.Prototype) string {
	if proto.Name == "" {
		return "function"
	}
	return proto.Name
}

// invoke dispatches a callable Value (Function or BoundMethod) with
// args, used both by the Call opcode and by registry.CallContext's
// CallValue (callback-taking builtins: sort, effect).
// A call targeting an async function never runs inline: it is deferred
// onto the same cooperative queue `spawn` uses, so the call returns a
// pending Future immediately instead of the body's eventual result.
func (vm *VM) invoke(callee *values.Value, args []*values.Value) (*values.Value, error) {
	if callee == nil {
		return nil, throwf(KindTypeError, "cannot call Null")
	}
	switch callee.Type {
	case values.TypeFunction:
		closure := callee.Data.(*values.Closure)
		if closure.Proto.IsAsync {
			return vm.spawn(callee, args)
		}
		return vm.execClosure(closure, args)
	case values.TypeBoundMethod:
		bm := callee.Data.(*values.BoundMethod)
		entry, ok := vm.reg.Entry(bm.BuiltinID)
		if !ok {
			return nil, throwf(KindRuntimeError, "bound method %q has no registered builtin", bm.Name)
		}
		fullArgs := append([]*values.Value{bm.Receiver}, args...)
		return entry.Fn(vm, fullArgs)
	default:
		return nil, throwf(KindTypeError, "value of type %s is not callable", callee.TypeName())
	}
}

// run is the single fetch-decode-dispatch loop. It returns
// either a normal completion (result, nil yielded, suspended=false) or,
// only when frame.Generator != nil and a Yield is hit, a suspension
// (nil result, yielded value, suspended=true) the caller must save the
// frame to resume later.
func (vm *VM) run(frame *CallFrame) (result *values.Value, yielded *values.Value, suspended bool, err error) {
	code := frame.Closure.Proto.Code
	consts := frame.Closure.Proto.Module.Constants
	funcs := frame.Closure.Proto.Functions

	for {
		if frame.IP >= len(code) {
			return values.NewNull(), nil, false, nil
		}
		idx := frame.IP
		instr := code[idx]
		frame.IP = idx + 1
		op := instr.Opcode()

		switch op {
		case opcodes.OP_LOAD_CONST:
			frame.setReg(instr.A(), consts[instr.Bx()])
		case opcodes.OP_LOAD_NULL:
			frame.setReg(instr.A(), values.NewNull())
		case opcodes.OP_LOAD_TRUE:
			frame.setReg(instr.A(), values.NewBool(true))
		case opcodes.OP_LOAD_FALSE:
			frame.setReg(instr.A(), values.NewBool(false))
		case opcodes.OP_LOAD_IMM_I8:
			frame.setReg(instr.A(), values.NewNumber(float64(instr.SBx())))
		case opcodes.OP_MOVE:
			frame.setReg(instr.A(), frame.getReg(instr.B()))

		case opcodes.OP_ADD, opcodes.OP_SUB, opcodes.OP_MUL, opcodes.OP_DIV, opcodes.OP_MOD, opcodes.OP_POW:
			l, r := frame.getReg(instr.B()), frame.getReg(instr.C())
			v, aerr := arith(op, l, r)
			if aerr != nil {
				if ip, caught := frame.raise(values.NewError(KindTypeError, aerr.Error())); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, throwf(KindTypeError, "%s", aerr.Error())
			}
			frame.setReg(instr.A(), v)
		case opcodes.OP_NEG:
			v := frame.getReg(instr.B())
			nv, nerr := negate(v)
			if nerr != nil {
				return nil, nil, false, throwf(KindTypeError, "%s", nerr.Error())
			}
			frame.setReg(instr.A(), nv)
		case opcodes.OP_NOT:
			frame.setReg(instr.A(), values.NewBool(!frame.getReg(instr.B()).Truthy()))

		case opcodes.OP_EQ:
			frame.setReg(instr.A(), values.NewBool(frame.getReg(instr.B()).Equals(frame.getReg(instr.C()))))
		case opcodes.OP_NE:
			frame.setReg(instr.A(), values.NewBool(!frame.getReg(instr.B()).Equals(frame.getReg(instr.C()))))
		case opcodes.OP_LT, opcodes.OP_LE, opcodes.OP_GT, opcodes.OP_GE:
			b, cmpErr := compare(op, frame.getReg(instr.B()), frame.getReg(instr.C()))
			if cmpErr != nil {
				return nil, nil, false, throwf(KindTypeError, "%s", cmpErr.Error())
			}
			frame.setReg(instr.A(), values.NewBool(b))

		case opcodes.OP_JUMP:
			frame.IP += int(instr.SBx())
		case opcodes.OP_JUMP_IF_TRUE:
			if frame.getReg(instr.A()).Truthy() {
				frame.IP += int(instr.SBx())
			}
		case opcodes.OP_JUMP_IF_FALSE:
			if !frame.getReg(instr.A()).Truthy() {
				frame.IP += int(instr.SBx())
			}
		case opcodes.OP_RETURN:
			return frame.getReg(instr.A()), nil, false, nil
		case opcodes.OP_RETURN_NULL:
			return values.NewNull(), nil, false, nil

		case opcodes.OP_GET_UPVALUE:
			frame.setReg(instr.A(), frame.Closure.Upvalues[instr.B()].Get())
		case opcodes.OP_SET_UPVALUE:
			frame.Closure.Upvalues[instr.A()].Set(frame.getReg(instr.B()))
		case opcodes.OP_GET_GLOBAL:
			name := consts[instr.Bx()].AsString()
			v, ok := vm.Global(name)
			if !ok {
				if ip, caught := frame.raise(values.NewError(KindNameError, "undefined global "+name)); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, throwf(KindNameError, "undefined global %q", name)
			}
			frame.setReg(instr.A(), v)
		case opcodes.OP_SET_GLOBAL:
			name := consts[instr.Bx()].AsString()
			vm.SetGlobal(name, frame.getReg(instr.A()))

		case opcodes.OP_NEW_VEC:
			frame.setReg(instr.A(), values.NewVector(nil))
		case opcodes.OP_VEC_PUSH:
			vec, ok := frame.getReg(instr.A()).Data.(*values.Vector)
			if !ok {
				return nil, nil, false, throwf(KindTypeError, "VecPush target is not a Vector")
			}
			vec.Push(frame.getReg(instr.B()))
		case opcodes.OP_VEC_GET:
			obj := frame.getReg(instr.B())
			vec, ok := obj.Data.(*values.Vector)
			if !ok {
				return nil, nil, false, throwf(KindTypeError, "cannot index a value of type %s", obj.TypeName())
			}
			i := int(frame.getReg(instr.C()).AsNumber())
			v, ok := vec.Get(i)
			if !ok {
				if ip, caught := frame.raise(values.NewError(KindIndexError, fmt.Sprintf("index %d out of range", i))); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, throwf(KindIndexError, "index %d out of range", i)
			}
			frame.setReg(instr.A(), v)
		case opcodes.OP_VEC_SET:
			obj := frame.getReg(instr.B())
			vec, ok := obj.Data.(*values.Vector)
			if !ok {
				return nil, nil, false, throwf(KindTypeError, "cannot index-assign a value of type %s", obj.TypeName())
			}
			i := int(frame.getReg(instr.C()).AsNumber())
			if !vec.Set(i, frame.getReg(instr.A())) {
				if ip, caught := frame.raise(values.NewError(KindIndexError, fmt.Sprintf("index %d out of range", i))); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, throwf(KindIndexError, "index %d out of range", i)
			}
		case opcodes.OP_NEW_RECORD:
			frame.setReg(instr.A(), values.NewRecord())
		case opcodes.OP_GET_FIELD, opcodes.OP_GET_FIELD_OPT:
			obj := frame.getReg(instr.B())
			name := consts[instr.C()].AsString()
			v, ferr := vm.getField(obj, name)
			if ferr != nil {
				if op == opcodes.OP_GET_FIELD_OPT {
					frame.setReg(instr.A(), values.NewNull())
					continue
				}
				if ip, caught := frame.raise(asThrown(ferr).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, ferr
			}
			frame.setReg(instr.A(), v)
		case opcodes.OP_SET_FIELD:
			obj := frame.getReg(instr.B())
			rec, ok := obj.Data.(*values.Record)
			if !ok {
				return nil, nil, false, throwf(KindTypeError, "cannot set a field on a value of type %s", obj.TypeName())
			}
			name := consts[instr.C()].AsString()
			rec.Set(name, frame.getReg(instr.A()))

		case opcodes.OP_CLOSURE:
			child := funcs[instr.Bx()]
			ups := vm.buildUpvalues(frame, child)
			frame.setReg(instr.A(), values.NewFunction(child, ups))
		case opcodes.OP_CREATE_GEN:
			child := funcs[instr.Bx()]
			ups := vm.buildUpvalues(frame, child)
			frame.setReg(instr.A(), values.NewGenerator(&values.Closure{Proto: child, Upvalues: ups}))

		case opcodes.OP_CALL:
			base, argc := instr.A(), instr.B()
			args := collectArgs(frame, base, argc)
			callee := frame.getReg(base)
			result, cerr := vm.invoke(callee, args)
			if cerr != nil {
				if ip, caught := frame.raise(asThrown(cerr).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, cerr
			}
			frame.setReg(base, result)
		case opcodes.OP_TAIL_CALL:
			base, argc := instr.A(), instr.B()
			args := collectArgs(frame, base, argc)
			callee := frame.getReg(base)
			if callee.Type != values.TypeFunction || callee.Data.(*values.Closure).Proto.IsAsync {
				result, cerr := vm.invoke(callee, args)
				if cerr != nil {
					if ip, caught := frame.raise(asThrown(cerr).Value); caught {
						frame.IP = ip
						continue
					}
					return nil, nil, false, cerr
				}
				return result, nil, false, nil
			}
			closure := callee.Data.(*values.Closure)
			proto := closure.Proto
			if err := checkArity(proto, len(args)); err != nil {
				if ip, caught := frame.raise(asThrown(err).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, err
			}
			numRegs := proto.NumRegisters
			if numRegs <= opcodes.SelfRegister {
				numRegs = opcodes.SelfRegister + 1
			}
			newRegs := make([]*values.Value, numRegs)
			for i := range newRegs {
				newRegs[i] = values.NewNull()
			}
			for i := 0; i < proto.Arity && i < len(args); i++ {
				newRegs[i] = args[i]
			}
			newRegs[opcodes.SelfRegister] = callee
			frame.Closure = closure
			frame.Registers = newRegs
			frame.OpenUpvalues = nil
			frame.Handlers = nil
			frame.IP = 0
			code = frame.Closure.Proto.Code
			consts = frame.Closure.Proto.Module.Constants
			funcs = frame.Closure.Proto.Functions
		case opcodes.OP_CALL_BUILTIN:
			base := instr.A()
			id := instr.Bx()
			entry, ok := vm.reg.Entry(id)
			if !ok {
				return nil, nil, false, throwf(KindRuntimeError, "unknown builtin id %d", id)
			}
			argc := entry.Arity
			if argc < 0 {
				return nil, nil, false, throwf(KindRuntimeError, "builtin %q is variadic and cannot be called via CallBuiltin", entry.Name)
			}
			args := collectArgs(frame, base, uint8(argc))
			result, berr := entry.Fn(vm, args)
			if berr != nil {
				if ip, caught := frame.raise(asThrown(berr).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, berr
			}
			frame.setReg(base, result)

		case opcodes.OP_YIELD:
			if frame.Generator == nil {
				return nil, nil, false, throwf(KindRuntimeError, "yield outside a generator")
			}
			return nil, frame.getReg(instr.A()), true, nil
		case opcodes.OP_RESUME_GEN:
			val, more, rerr := vm.ResumeGenerator(frame.getReg(instr.B()))
			if rerr != nil {
				if ip, caught := frame.raise(asThrown(rerr).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, rerr
			}
			if !more {
				frame.setReg(instr.A(), values.NewNull())
			} else {
				frame.setReg(instr.A(), val)
			}

		case opcodes.OP_AWAIT:
			result, aerr := vm.await(frame.getReg(instr.B()))
			if aerr != nil {
				if ip, caught := frame.raise(asThrown(aerr).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, aerr
			}
			frame.setReg(instr.A(), result)
		case opcodes.OP_SPAWN:
			base, argc := instr.B(), instr.C()
			args := collectArgs(frame, base, argc)
			callee := frame.getReg(base)
			futVal, serr := vm.spawn(callee, args)
			if serr != nil {
				if ip, caught := frame.raise(asThrown(serr).Value); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, serr
			}
			frame.setReg(instr.A(), futVal)

		case opcodes.OP_THROW:
			val := frame.getReg(instr.A())
			if ip, caught := frame.raise(val); caught {
				frame.IP = ip
				continue
			}
			return nil, nil, false, &thrownError{Value: val}
		case opcodes.OP_PUSH_HANDLER:
			target := idx + 1 + int(instr.SBx())
			frame.pushHandler(target, instr.A())
		case opcodes.OP_POP_HANDLER:
			frame.popHandler()

		case opcodes.OP_TYPE_CHECK:
			v := frame.getReg(instr.B())
			frame.setReg(instr.A(), values.NewBool(matchesType(v, instr.C())))
		case opcodes.OP_TYPE_ASSERT:
			v := frame.getReg(instr.A())
			if !matchesType(v, byte(instr.Bx())) {
				errVal := values.NewError(KindTypeError, fmt.Sprintf("expected type matching id %d, got %s", instr.Bx(), v.TypeName()))
				if ip, caught := frame.raise(errVal); caught {
					frame.IP = ip
					continue
				}
				return nil, nil, false, &thrownError{Value: errVal}
			}

		default:
			return nil, nil, false, throwf(KindRuntimeError, "unimplemented or reserved opcode %s", op)
		}
	}
}

func collectArgs(frame *CallFrame, base, argc uint8) []*values.Value {
	args := make([]*values.Value, argc)
	for i := uint8(0); i < argc; i++ {
		args[i] = frame.getReg(base + 1 + i)
	}
	return args
}

// buildUpvalues materializes a child prototype's upvalue descriptors
// against the currently-executing frame, chaining through this frame's
// own captured upvalues for UpvalueFromOuter descriptors.
func (vm *VM) buildUpvalues(frame *CallFrame, child *values.Prototype) []*values.Upvalue {
	ups := make([]*values.Upvalue, len(child.Upvalues))
	for i, desc := range child.Upvalues {
		if desc.Source == values.UpvalueFromLocal {
			ups[i] = frame.captureLocal(desc.Index)
		} else {
			ups[i] = frame.Closure.Upvalues[desc.Index]
		}
	}
	return ups
}

func matchesType(v *values.Value, typeID byte) bool {
	if typeID == 255 {
		return true
	}
	return byte(v.Type) == typeID
}

// getField resolves `record.name` (or a method-style access on any
// other heap value): a Record looks the name up as a literal field; any
// other receiver type consults the registry for a same-named builtin
// and, if found, wraps it as a BoundMethod.
func (vm *VM) getField(obj *values.Value, name string) (*values.Value, error) {
	if obj.Type == values.TypeRecord {
		rec := obj.Data.(*values.Record)
		v, ok := rec.Get(name)
		if !ok {
			return nil, throwf(KindIndexError, "record has no field %q", name)
		}
		return v, nil
	}
	id, ok := vm.reg.Lookup(name)
	if !ok {
		return nil, throwf(KindTypeError, "value of type %s has no field or method %q", obj.TypeName(), name)
	}
	return values.NewBoundMethod(obj, id, name), nil
}

// --- registry.CallContext ---

func (vm *VM) WriteOutput(s string) error {
	_, err := io.WriteString(vm.out, s)
	return err
}

func (vm *VM) Global(name string) (*values.Value, bool) {
	vm.globalsMu.RLock()
	defer vm.globalsMu.RUnlock()
	v, ok := vm.globals[name]
	return v, ok
}

func (vm *VM) SetGlobal(name string, v *values.Value) {
	vm.globalsMu.Lock()
	defer vm.globalsMu.Unlock()
	vm.globals[name] = v
}

func (vm *VM) Depth() int { return vm.stack.depth() }

// ImportModule resolves path against the currently-executing frame's
// own module directory (so a relative import inside a library behaves
// the same regardless of where the process was launched from) and
// loads it.
func (vm *VM) ImportModule(path string) (*values.Value, error) {
	fromDir := ""
	if top := vm.stack.top(); top != nil && top.Closure != nil && top.Closure.Proto != nil && top.Closure.Proto.Module != nil {
		fromDir = filepath.Dir(top.Closure.Proto.Module.Path)
	}
	return vm.modules.load(path, fromDir)
}

func (vm *VM) CallValue(callee *values.Value, args []*values.Value) (*values.Value, error) {
	return vm.invoke(callee, args)
}
