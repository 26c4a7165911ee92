// Package opcodes defines the 32-bit fixed-width instruction encoding and
// opcode set of the register VM.
package opcodes

// Opcode identifies an instruction's operation.
type Opcode byte

// Constants & moves.
const (
	OP_LOAD_CONST Opcode = iota // LoadConst A,Bx    R[A] = K[Bx]
	OP_LOAD_NULL                // LoadNull A        R[A] = Null
	OP_LOAD_TRUE                // LoadTrue A        R[A] = true
	OP_LOAD_FALSE               // LoadFalse A       R[A] = false
	OP_LOAD_IMM_I8              // LoadImmI8 A,sBx   R[A] = Number(sBx)
	OP_MOVE                     // Move A,B          R[A] = R[B]
)

// Arithmetic / unary operations.
const (
	OP_ADD Opcode = iota + 6
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_POW
	OP_NEG
	OP_NOT
)

// Comparison operations.
const (
	OP_EQ Opcode = iota + 14
	OP_NE
	OP_LT
	OP_LE
	OP_GT
	OP_GE
)

// Control flow.
const (
	OP_JUMP Opcode = iota + 20
	OP_JUMP_IF_TRUE
	OP_JUMP_IF_FALSE
	OP_RETURN
	OP_RETURN_NULL
)

// Variables / globals / upvalues.
const (
	OP_GET_UPVALUE Opcode = iota + 25
	OP_SET_UPVALUE
	OP_GET_GLOBAL
	OP_SET_GLOBAL
)

// Aggregates, plus the optional-field-read opcode
// supplementing §4.3.
const (
	OP_NEW_VEC Opcode = iota + 29
	OP_VEC_PUSH
	OP_VEC_GET
	OP_VEC_SET
	OP_NEW_RECORD
	OP_GET_FIELD
	OP_SET_FIELD
	OP_GET_FIELD_OPT // GetFieldOpt A,B,C   R[A] = R[B].field(K[C]) or Null (no throw)
)

// Calls.
const (
	OP_CLOSURE Opcode = iota + 37
	OP_CALL
	OP_TAIL_CALL
	OP_CALL_BUILTIN
	OP_RET
)

// Generators.
const (
	OP_CREATE_GEN Opcode = iota + 42
	OP_YIELD
	OP_RESUME_GEN
)

// Async.
const (
	OP_AWAIT Opcode = iota + 45
	OP_SPAWN
)

// Exceptions.
const (
	OP_THROW Opcode = iota + 47
	OP_PUSH_HANDLER
	OP_POP_HANDLER
)

// Types.
const (
	OP_TYPE_CHECK Opcode = iota + 50
	OP_TYPE_ASSERT
)

var opcodeNames = [...]string{
	OP_LOAD_CONST:     "LoadConst",
	OP_LOAD_NULL:      "LoadNull",
	OP_LOAD_TRUE:      "LoadTrue",
	OP_LOAD_FALSE:     "LoadFalse",
	OP_LOAD_IMM_I8:    "LoadImmI8",
	OP_MOVE:           "Move",
	OP_ADD:            "Add",
	OP_SUB:            "Sub",
	OP_MUL:            "Mul",
	OP_DIV:            "Div",
	OP_MOD:            "Mod",
	OP_POW:            "Pow",
	OP_NEG:            "Neg",
	OP_NOT:            "Not",
	OP_EQ:             "Eq",
	OP_NE:             "Ne",
	OP_LT:             "Lt",
	OP_LE:             "Le",
	OP_GT:             "Gt",
	OP_GE:             "Ge",
	OP_JUMP:           "Jump",
	OP_JUMP_IF_TRUE:   "JumpIfTrue",
	OP_JUMP_IF_FALSE:  "JumpIfFalse",
	OP_RETURN:         "Return",
	OP_RETURN_NULL:    "ReturnNull",
	OP_GET_UPVALUE:    "GetUpvalue",
	OP_SET_UPVALUE:    "SetUpvalue",
	OP_GET_GLOBAL:     "GetGlobal",
	OP_SET_GLOBAL:     "SetGlobal",
	OP_NEW_VEC:        "NewVec",
	OP_VEC_PUSH:       "VecPush",
	OP_VEC_GET:        "VecGet",
	OP_VEC_SET:        "VecSet",
	OP_NEW_RECORD:     "NewRecord",
	OP_GET_FIELD:      "GetField",
	OP_SET_FIELD:      "SetField",
	OP_GET_FIELD_OPT:  "GetFieldOpt",
	OP_CLOSURE:        "Closure",
	OP_CALL:           "Call",
	OP_TAIL_CALL:      "TailCall",
	OP_CALL_BUILTIN:   "CallBuiltin",
	OP_RET:            "Ret",
	OP_CREATE_GEN:     "CreateGen",
	OP_YIELD:          "Yield",
	OP_RESUME_GEN:     "ResumeGen",
	OP_AWAIT:          "Await",
	OP_SPAWN:          "Spawn",
	OP_THROW:          "Throw",
	OP_PUSH_HANDLER:   "PushHandler",
	OP_POP_HANDLER:    "PopHandler",
	OP_TYPE_CHECK:     "TypeCheck",
	OP_TYPE_ASSERT:    "TypeAssert",
}

// String renders the opcode's symbolic name, used by the disassembler.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// Reserved register holding the enclosing closure itself, for `rec`
// self-reference.
const SelfRegister = 255

// MaxRegisters is the per-frame register-window size.
const MaxRegisters = 256
