// Package values implements the tagged-union runtime value model.
package values

import (
	"fmt"
	"math"
)

// ValueType identifies the dynamic type tag of a Value.
type ValueType byte

const (
	TypeNull ValueType = iota
	TypeNumber
	TypeBoolean
	TypeString
	TypeComplex
	TypeVector
	TypeTensor
	TypeComplexTensor
	TypeRecord
	TypeFunction
	TypeGenerator
	TypeFuture
	TypeIterator
	TypeRange
	TypeError
	TypeBuilder
	TypeMutableRef
	TypeBoundMethod
	TypeChannel
	TypeMutex
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Boolean"
	case TypeString:
		return "String"
	case TypeComplex:
		return "Complex"
	case TypeVector:
		return "Vector"
	case TypeTensor:
		return "Tensor"
	case TypeComplexTensor:
		return "ComplexTensor"
	case TypeRecord:
		return "Record"
	case TypeFunction:
		return "Function"
	case TypeGenerator:
		return "Generator"
	case TypeFuture:
		return "Future"
	case TypeIterator:
		return "Iterator"
	case TypeRange:
		return "Range"
	case TypeError:
		return "Error"
	case TypeBuilder:
		return "Builder"
	case TypeMutableRef:
		return "MutableRef"
	case TypeBoundMethod:
		return "BoundMethod"
	case TypeChannel:
		return "Channel"
	case TypeMutex:
		return "AsyncMutex"
	default:
		return "Unknown"
	}
}

// Value is a tagged runtime value. Heap-shared kinds (Vector, Tensor,
// ComplexTensor, Record, Function, Generator, Future, Builder,
// MutableRef) carry a pointer in Data so every holder observes the same
// mutable state; scalar kinds carry Data by value.
type Value struct {
	Type ValueType
	Data interface{}
}

// Complex is a real/imaginary float pair.
type Complex struct {
	Re, Im float64
}

func NewNull() *Value                 { return &Value{Type: TypeNull} }
func NewNumber(n float64) *Value      { return &Value{Type: TypeNumber, Data: n} }
func NewBool(b bool) *Value           { return &Value{Type: TypeBoolean, Data: b} }
func NewString(s string) *Value       { return &Value{Type: TypeString, Data: s} }
func NewComplex(re, im float64) *Value {
	return &Value{Type: TypeComplex, Data: Complex{Re: re, Im: im}}
}

func (v *Value) IsNull() bool    { return v == nil || v.Type == TypeNull }
func (v *Value) IsNumber() bool  { return v.Type == TypeNumber }
func (v *Value) IsBool() bool    { return v.Type == TypeBoolean }
func (v *Value) IsString() bool  { return v.Type == TypeString }
func (v *Value) IsComplex() bool { return v.Type == TypeComplex }

func (v *Value) AsNumber() float64 {
	if v == nil {
		return 0
	}
	switch v.Type {
	case TypeNumber:
		return v.Data.(float64)
	case TypeBoolean:
		if v.Data.(bool) {
			return 1
		}
		return 0
	case TypeString:
		// Non-numeric strings coerce to NaN. The arithmetic opcodes
		// reject String operands (apart from String + String
		// concatenation), so this path serves builtins reading numbers.
		var f float64
		if _, err := fmt.Sscanf(v.Data.(string), "%g", &f); err != nil {
			return math.NaN()
		}
		return f
	case TypeNull:
		return 0
	default:
		return math.NaN()
	}
}

func (v *Value) AsBool() bool { return v.Truthy() }

func (v *Value) AsString() string {
	if v == nil || v.Type == TypeNull {
		return "null"
	}
	switch v.Type {
	case TypeString:
		return v.Data.(string)
	case TypeNumber:
		return formatNumber(v.Data.(float64))
	case TypeBoolean:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case TypeComplex:
		c := v.Data.(Complex)
		return fmt.Sprintf("%s+%si", formatNumber(c.Re), formatNumber(c.Im))
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}

// Truthy implements the truthiness rule: false, Null, 0, NaN, and
// the empty string are falsy; every other value is truthy.
func (v *Value) Truthy() bool {
	if v == nil || v.Type == TypeNull {
		return false
	}
	switch v.Type {
	case TypeBoolean:
		return v.Data.(bool)
	case TypeNumber:
		n := v.Data.(float64)
		return n != 0 && !math.IsNaN(n)
	case TypeString:
		return v.Data.(string) != ""
	default:
		return true
	}
}

// Equals implements the identity-unless-proven-otherwise rule from spec
// §9: heap-shared containers compare by identity; scalars compare by
// value (IEEE 754 for numbers, so NaN != NaN).
func (v *Value) Equals(other *Value) bool {
	if v == nil || other == nil {
		return v.IsNull() && other.IsNull()
	}
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeNull:
		return true
	case TypeNumber:
		return v.Data.(float64) == other.Data.(float64)
	case TypeBoolean:
		return v.Data.(bool) == other.Data.(bool)
	case TypeString:
		return v.Data.(string) == other.Data.(string)
	case TypeComplex:
		a, b := v.Data.(Complex), other.Data.(Complex)
		return a.Re == b.Re && a.Im == b.Im
	default:
		// Heap-shared containers: identity comparison.
		return v.Data == other.Data
	}
}

// DeepEqual performs a structural comparison, used by the `unique`
// builtin where identity comparison isn't what the caller wants.
func DeepEqual(a, b *Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeVector:
		av, bv := a.Data.(*Vector), b.Data.(*Vector)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !DeepEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case TypeRecord:
		ar, br := a.Data.(*Record), b.Data.(*Record)
		if len(ar.Fields) != len(br.Fields) {
			return false
		}
		for k, av := range ar.Fields {
			bvv, ok := br.Fields[k]
			if !ok || !DeepEqual(av, bvv) {
				return false
			}
		}
		return true
	default:
		return a.Equals(b)
	}
}

// TypeName returns the structural type-assertion name used by TypeCheck
// and TypeAssert.
func (v *Value) TypeName() string {
	return v.Type.String()
}
