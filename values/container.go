package values

// Vector is a shared, mutable ordered sequence of values.
type Vector struct {
	Elements []*Value
}

func NewVector(elems []*Value) *Value {
	if elems == nil {
		elems = []*Value{}
	}
	return &Value{Type: TypeVector, Data: &Vector{Elements: elems}}
}

func (vec *Vector) Push(v *Value) { vec.Elements = append(vec.Elements, v) }

func (vec *Vector) Pop() (*Value, bool) {
	if len(vec.Elements) == 0 {
		return nil, false
	}
	last := vec.Elements[len(vec.Elements)-1]
	vec.Elements = vec.Elements[:len(vec.Elements)-1]
	return last, true
}

func (vec *Vector) Get(i int) (*Value, bool) {
	if i < 0 || i >= len(vec.Elements) {
		return nil, false
	}
	return vec.Elements[i], true
}

func (vec *Vector) Set(i int, v *Value) bool {
	if i < 0 || i >= len(vec.Elements) {
		return false
	}
	vec.Elements[i] = v
	return true
}

// Tensor is a shared, mutable n-dimensional array of floats.
type Tensor struct {
	Shape []int
	Data  []float64
}

func NewTensor(shape []int, data []float64) *Value {
	return &Value{Type: TypeTensor, Data: &Tensor{Shape: shape, Data: data}}
}

// ComplexTensor is a shared, mutable n-dimensional array of complex floats.
type ComplexTensor struct {
	Shape []int
	Data  []Complex
}

func NewComplexTensor(shape []int, data []Complex) *Value {
	return &Value{Type: TypeComplexTensor, Data: &ComplexTensor{Shape: shape, Data: data}}
}

// Record is a shared, mutable mapping from field name to value. It
// additionally tracks insertion order, which OrderedNames exposes;
// `for` iteration over a record yields fields in that order.
type Record struct {
	Fields map[string]*Value
	order  []string
}

func NewRecord() *Value {
	return &Value{Type: TypeRecord, Data: &Record{Fields: make(map[string]*Value)}}
}

func (r *Record) Set(name string, v *Value) {
	if _, exists := r.Fields[name]; !exists {
		r.order = append(r.order, name)
	}
	r.Fields[name] = v
}

func (r *Record) Get(name string) (*Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

func (r *Record) Delete(name string) {
	if _, exists := r.Fields[name]; exists {
		delete(r.Fields, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
}

// OrderedNames returns field names in insertion order, used by record
// iteration and JSON encoding.
func (r *Record) OrderedNames() []string {
	return append([]string(nil), r.order...)
}

// Range is a numeric triple iterated lazily.
type Range struct {
	Start, End, Step float64
	Inclusive        bool
}

func NewRange(start, end, step float64, inclusive bool) *Value {
	return &Value{Type: TypeRange, Data: &Range{Start: start, End: end, Step: step, Inclusive: inclusive}}
}

// ErrorValue is the payload of a Value::Error.
type ErrorValue struct {
	Message string
	Kind    string
	Source  *Value
}

func NewError(kind, message string) *Value {
	return &Value{Type: TypeError, Data: &ErrorValue{Message: message, Kind: kind}}
}

func NewErrorWithSource(kind, message string, source *Value) *Value {
	return &Value{Type: TypeError, Data: &ErrorValue{Message: message, Kind: kind, Source: source}}
}

// Builder is a mutable string-building accumulator. No stdlib builtin
// creates one; the `str` builtin converts through AsString instead.
type Builder struct {
	Parts []string
}

func NewBuilder() *Value {
	return &Value{Type: TypeBuilder, Data: &Builder{}}
}

func (b *Builder) Append(s string) { b.Parts = append(b.Parts, s) }

func (b *Builder) String() string {
	total := 0
	for _, p := range b.Parts {
		total += len(p)
	}
	buf := make([]byte, 0, total)
	for _, p := range b.Parts {
		buf = append(buf, p...)
	}
	return string(buf)
}

// MutableRef is a mutable cell value with the same shape as the Upvalue
// cells the compiler uses for captured variables. No stdlib builtin
// creates or reads one.
type MutableRef struct {
	Cell *Value
}

func NewMutableRef(initial *Value) *Value {
	return &Value{Type: TypeMutableRef, Data: &MutableRef{Cell: initial}}
}

// Channel is a shared, mutable FIFO queue used by the async `channel`
// builtin. Capacity is advisory only: this single-threaded
// scheduler never blocks a send, so it is enforced nowhere except as a
// value callers may inspect.
type Channel struct {
	Buffer   []*Value
	Capacity int
}

func NewChannel(capacity int) *Value {
	return &Value{Type: TypeChannel, Data: &Channel{Capacity: capacity}}
}

func (c *Channel) Send(v *Value) { c.Buffer = append(c.Buffer, v) }

func (c *Channel) Receive() (*Value, bool) {
	if len(c.Buffer) == 0 {
		return nil, false
	}
	v := c.Buffer[0]
	c.Buffer = c.Buffer[1:]
	return v, true
}

// AsyncMutex provides mutual exclusion across async tasks that interleave
// between await points. Since this VM never runs two tasks
// concurrently, a held lock can only ever block a task that forgot to
// release it — the flag still exists so that `asyncmutex_lock` can throw
// on the script-level misuse (double lock) the spec calls out.
type AsyncMutex struct {
	Locked bool
}

func NewAsyncMutex() *Value {
	return &Value{Type: TypeMutex, Data: &AsyncMutex{}}
}

// BoundMethod pairs a receiver value with a builtin id, produced when a
// field/method access resolves to a builtin that takes the receiver as
// its implicit first argument.
type BoundMethod struct {
	Receiver  *Value
	BuiltinID uint16
	Name      string
}

func NewBoundMethod(receiver *Value, builtinID uint16, name string) *Value {
	return &Value{Type: TypeBoundMethod, Data: &BoundMethod{Receiver: receiver, BuiltinID: builtinID, Name: name}}
}
