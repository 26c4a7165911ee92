package values

import "github.com/wudi/soc/opcodes"

// UpvalueSource identifies where a closure acquires one upvalue at
// construction time.
type UpvalueSource byte

const (
	UpvalueFromLocal UpvalueSource = iota
	UpvalueFromOuter
)

// UpvalueDesc is a {source, index} pair.
type UpvalueDesc struct {
	Source UpvalueSource
	Index  uint8
}

// Prototype is the immutable compiled form of a function.
// Prototypes are shared by value across all closures derived from them.
type Prototype struct {
	Name         string
	Arity        int
	NumOptional  int
	IsVariadic   bool
	NumRegisters int
	IsGenerator  bool
	IsAsync      bool
	Code         []opcodes.Instruction
	Lines        []int // source line per instruction, for disassembly/errors
	Functions    []*Prototype
	Upvalues     []UpvalueDesc
	Module       *Module // shared constant pool
}

// Module is the compiled output of one source file: a main prototype plus
// the transitive set of nested prototypes and the shared constant pool.
type Module struct {
	Path      string
	Main      *Prototype
	Constants []*Value
}

// Upvalue is a mutable shared cell holding one value. Reads
// and writes through it are observed by every closure sharing the cell.
type Upvalue struct {
	Cell *Value
}

func NewUpvalue(initial *Value) *Upvalue {
	if initial == nil {
		initial = NewNull()
	}
	return &Upvalue{Cell: initial}
}

func (u *Upvalue) Get() *Value    { return u.Cell }
func (u *Upvalue) Set(v *Value)   { u.Cell = v }

// Closure is a prototype paired with the upvalues captured at its
// construction site.
type Closure struct {
	Proto    *Prototype
	Upvalues []*Upvalue
}

func NewFunction(proto *Prototype, upvalues []*Upvalue) *Value {
	return &Value{Type: TypeFunction, Data: &Closure{Proto: proto, Upvalues: upvalues}}
}

// Generator is a shared handle to a frozen call frame plus a done flag
// and optional return value. Frame is stored as interface{}
// to avoid an import cycle with package vm, which owns the concrete
// *vm.CallFrame type and performs the type assertion.
type Generator struct {
	Closure      *Closure
	Frame        interface{} // *vm.CallFrame once started
	Started      bool
	Done         bool
	ReturnValue  *Value
}

func NewGenerator(closure *Closure) *Value {
	return &Value{Type: TypeGenerator, Data: &Generator{Closure: closure, ReturnValue: NewNull()}}
}

// FutureState is the resolution state of a Future.
type FutureState byte

const (
	FuturePending FutureState = iota
	FutureResolved
	FutureRejected
)

// FutureContinuation is invoked by the scheduler when a future settles;
// ok is the resolved value, errVal is set (ok is nil) on rejection.
type FutureContinuation func(ok *Value, errVal *Value)

// Future is an opaque handle to an asynchronous computation.
// Its concrete scheduling behavior lives in package vm; this struct only
// holds the state machine the scheduler drives.
type Future struct {
	ID            string
	State         FutureState
	Value         *Value
	Err           *Value
	Continuations []FutureContinuation
}

func NewFuture(id string) *Value {
	return &Value{Type: TypeFuture, Data: &Future{ID: id, State: FuturePending}}
}

func (f *Future) Resolve(v *Value) {
	if f.State != FuturePending {
		return
	}
	f.State = FutureResolved
	f.Value = v
	conts := f.Continuations
	f.Continuations = nil
	for _, c := range conts {
		c(v, nil)
	}
}

func (f *Future) Reject(errVal *Value) {
	if f.State != FuturePending {
		return
	}
	f.State = FutureRejected
	f.Err = errVal
	conts := f.Continuations
	f.Continuations = nil
	for _, c := range conts {
		c(nil, errVal)
	}
}

// OnSettle registers a continuation, invoking it immediately if the
// future has already settled.
func (f *Future) OnSettle(c FutureContinuation) {
	switch f.State {
	case FutureResolved:
		c(f.Value, nil)
	case FutureRejected:
		c(nil, f.Err)
	default:
		f.Continuations = append(f.Continuations, c)
	}
}

// Iterator is the protocol object exposing a next step producing
// Some(v) (ok=true) or None (ok=false).
type Iterator interface {
	Next() (*Value, bool)
}

func NewIteratorValue(it Iterator) *Value {
	return &Value{Type: TypeIterator, Data: it}
}
