package vm

import (
	"fmt"
	"math"

	"github.com/wudi/soc/opcodes"
	"github.com/wudi/soc/values"
)

// arith implements the six binary arithmetic opcodes over Number and
// Complex operands, plus Add's string-concatenation overload (spec
// §4.2, §3.1's Complex arithmetic rules).
func arith(op opcodes.Opcode, l, r *values.Value) (*values.Value, error) {
	if op == opcodes.OP_ADD && l.IsString() && r.IsString() {
		return values.NewString(l.AsString() + r.AsString()), nil
	}
	if l.IsComplex() || r.IsComplex() {
		return complexArith(op, toComplex(l), toComplex(r))
	}
	if !l.IsNumber() && !l.IsBool() && !l.IsNull() {
		return nil, fmt.Errorf("unsupported operand type %s for arithmetic", l.TypeName())
	}
	if !r.IsNumber() && !r.IsBool() && !r.IsNull() {
		return nil, fmt.Errorf("unsupported operand type %s for arithmetic", r.TypeName())
	}
	a, b := l.AsNumber(), r.AsNumber()
	switch op {
	case opcodes.OP_ADD:
		return values.NewNumber(a + b), nil
	case opcodes.OP_SUB:
		return values.NewNumber(a - b), nil
	case opcodes.OP_MUL:
		return values.NewNumber(a * b), nil
	case opcodes.OP_DIV:
		return values.NewNumber(a / b), nil
	case opcodes.OP_MOD:
		return values.NewNumber(math.Mod(a, b)), nil
	case opcodes.OP_POW:
		return values.NewNumber(math.Pow(a, b)), nil
	default:
		return nil, fmt.Errorf("opcode %s is not arithmetic", op)
	}
}

func toComplex(v *values.Value) values.Complex {
	if v.IsComplex() {
		return v.Data.(values.Complex)
	}
	return values.Complex{Re: v.AsNumber()}
}

func complexArith(op opcodes.Opcode, a, b values.Complex) (*values.Value, error) {
	switch op {
	case opcodes.OP_ADD:
		return values.NewComplex(a.Re+b.Re, a.Im+b.Im), nil
	case opcodes.OP_SUB:
		return values.NewComplex(a.Re-b.Re, a.Im-b.Im), nil
	case opcodes.OP_MUL:
		return values.NewComplex(a.Re*b.Re-a.Im*b.Im, a.Re*b.Im+a.Im*b.Re), nil
	case opcodes.OP_DIV:
		denom := b.Re*b.Re + b.Im*b.Im
		if denom == 0 {
			return values.NewComplex(math.NaN(), math.NaN()), nil
		}
		return values.NewComplex(
			(a.Re*b.Re+a.Im*b.Im)/denom,
			(a.Im*b.Re-a.Re*b.Im)/denom,
		), nil
	default:
		return nil, fmt.Errorf("operator %s is not defined for Complex operands", op)
	}
}

// negate implements unary minus over Number and Complex.
func negate(v *values.Value) (*values.Value, error) {
	switch {
	case v.IsNumber():
		return values.NewNumber(-v.AsNumber()), nil
	case v.IsComplex():
		c := v.Data.(values.Complex)
		return values.NewComplex(-c.Re, -c.Im), nil
	default:
		return nil, fmt.Errorf("unsupported operand type %s for unary -", v.TypeName())
	}
}

// compare implements the four ordering opcodes over Number and String
// operands.
func compare(op opcodes.Opcode, l, r *values.Value) (bool, error) {
	if l.IsString() && r.IsString() {
		a, b := l.AsString(), r.AsString()
		switch op {
		case opcodes.OP_LT:
			return a < b, nil
		case opcodes.OP_LE:
			return a <= b, nil
		case opcodes.OP_GT:
			return a > b, nil
		case opcodes.OP_GE:
			return a >= b, nil
		}
	}
	if !l.IsNumber() && !l.IsBool() {
		return false, fmt.Errorf("unsupported operand type %s for comparison", l.TypeName())
	}
	if !r.IsNumber() && !r.IsBool() {
		return false, fmt.Errorf("unsupported operand type %s for comparison", r.TypeName())
	}
	a, b := l.AsNumber(), r.AsNumber()
	switch op {
	case opcodes.OP_LT:
		return a < b, nil
	case opcodes.OP_LE:
		return a <= b, nil
	case opcodes.OP_GT:
		return a > b, nil
	case opcodes.OP_GE:
		return a >= b, nil
	default:
		return false, fmt.Errorf("opcode %s is not a comparison", op)
	}
}
