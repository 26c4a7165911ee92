package opcodes

// Instruction is a packed 32-bit word. Three encodings share the 8-bit
// opcode in the low byte:
//
//	iABC:  [8-bit op][8-bit A][8-bit B][8-bit C]
//	iABx:  [8-bit op][8-bit A][16-bit Bx]
//	iAsBx: [8-bit op][8-bit A][16-bit sBx]  (signed relative branch offset)
type Instruction uint32

const (
	posOp = 0
	posA  = 8
	posB  = 16
	posC  = 24

	maskOp = 0xFF
	maskA  = 0xFF
	maskB  = 0xFF
	maskC  = 0xFF
	maskBx = 0xFFFF
)

// CreateABC packs a three-register instruction.
func CreateABC(op Opcode, a, b, c uint8) Instruction {
	return Instruction(op) | Instruction(a)<<posA | Instruction(b)<<posB | Instruction(c)<<posC
}

// CreateABx packs an instruction with a 16-bit unsigned operand (constant
// index, prototype index, builtin id, or absolute global-name index).
func CreateABx(op Opcode, a uint8, bx uint16) Instruction {
	return Instruction(op) | Instruction(a)<<posA | Instruction(bx)<<posB
}

// CreateAsBx packs an instruction with a signed 16-bit relative offset.
func CreateAsBx(op Opcode, a uint8, sbx int16) Instruction {
	return Instruction(op) | Instruction(a)<<posA | Instruction(uint16(sbx))<<posB
}

func (i Instruction) Opcode() Opcode { return Opcode(i & maskOp) }
func (i Instruction) A() uint8       { return uint8((i >> posA) & maskA) }
func (i Instruction) B() uint8       { return uint8((i >> posB) & maskB) }
func (i Instruction) C() uint8       { return uint8((i >> posC) & maskC) }
func (i Instruction) Bx() uint16     { return uint16((i >> posB) & maskBx) }
func (i Instruction) SBx() int16     { return int16(i.Bx()) }

// Disassemble renders one instruction as "op A B/Bx" using symbolic
// opcode names, used only by the debug disassembler.
func (i Instruction) Disassemble() string {
	op := i.Opcode()
	switch op {
	case OP_LOAD_CONST, OP_GET_GLOBAL, OP_SET_GLOBAL, OP_CLOSURE, OP_CALL_BUILTIN, OP_TYPE_ASSERT, OP_CREATE_GEN:
		return op.String() + " " + itoa(int(i.A())) + " " + itoa(int(i.Bx()))
	case OP_JUMP:
		return op.String() + " " + itoa(int(i.SBx()))
	case OP_LOAD_IMM_I8, OP_JUMP_IF_TRUE, OP_JUMP_IF_FALSE, OP_PUSH_HANDLER:
		return op.String() + " " + itoa(int(i.A())) + " " + itoa(int(i.SBx()))
	default:
		return op.String() + " " + itoa(int(i.A())) + " " + itoa(int(i.B())) + " " + itoa(int(i.C()))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
