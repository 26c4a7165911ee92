// Package compiler lowers an ast.Program into a *values.Module: a tree of
// *values.Prototype objects carrying packed bytecode, following the
// single-pass register-allocating design.
//
// A few opcodes carry ABI choices not spelled out operand-by-operand in
// the instruction table, settled here and held consistently across the
// whole package:
//
//   - GetField/SetField/GetFieldOpt (A,B,C): write forms take the value in
//     A, the receiver in B, and a field-name id in C; read forms take the
//     destination in A, the receiver in B, and the field-name id in C.
//     The id indexes the module-wide constant pool shared with every other
//     constant of the compilation (numbers, strings, names), so a field
//     name whose pool index is above 255 fails to compile — a known
//     ceiling of this 8-bit operand, not expected to bite typical scripts.
//   - VecGet/VecSet (A,B,C): like Field but the key is a register (dynamic
//     numeric index) rather than a compile-time name.
//   - CallBuiltin (A,Bx): A is the argument-window base *and* the
//     destination (overwritten by the return value, mirroring Call); Bx is
//     the builtin id. Argument count is not encoded — the VM recovers it
//     from the registry entry's declared arity, so every builtin directly
//     reachable from surface syntax must have a fixed (non-variadic)
//     arity. String interpolation's variadic concatenation is routed
//     through a single Vector argument instead (see compileStringLit).
//   - Spawn (A,B,C): A is the destination for the pending Future; B is
//     the base of a Call-shaped argument window (callee at B, args at
//     B+1..B+C); C is the argument count. Unlike Call, the window is
//     never executed by the spawning frame — it is captured and handed
//     to the scheduler as a deferred task (see compileSpawn).
package compiler

import (
	"fmt"
	"strconv"

	"github.com/wudi/soc/ast"
	"github.com/wudi/soc/opcodes"
	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// RegResult names the register an expression's value ended up in, and
// whether that register is a scratch temporary the caller may reclaim
// once consumed, or a named binding's home that must not be freed.
type RegResult struct {
	Reg  uint8
	Temp bool
}

type symbol struct {
	name    string
	reg     uint8
	mutable bool
}

type scope struct {
	symbols []symbol
	floor   uint8
}

// loopContext tracks back-patch state for one enclosing while/for loop,
// plus the register a `break <value>` stores its result into (every loop
// is itself an expression).
type loopContext struct {
	continueTarget int
	breakPatches   []int
	resultReg      uint8
}

type upvalRef struct {
	source values.UpvalueSource
	index  uint8
}

// unit is shared by every Compiler lowering one compilation (the main
// module body plus every nested lambda/generator it contains): the
// constant pool and the registry live here so nested prototypes dedup
// constants against the same pool and resolve builtins consistently.
type unit struct {
	registry   *registry.Registry
	module     *values.Module
	constIndex map[string]uint16
}

func (u *unit) addConstant(key string, v *values.Value) uint16 {
	if idx, ok := u.constIndex[key]; ok {
		return idx
	}
	idx := uint16(len(u.module.Constants))
	u.module.Constants = append(u.module.Constants, v)
	u.constIndex[key] = idx
	return idx
}

// Compiler lowers one function body (or the module's main body) into a
// *values.Prototype. Nested lambdas/generators get their own child
// Compiler linked via parent, so upvalue resolution can walk outward.
type Compiler struct {
	parent *Compiler
	u      *unit

	name        string
	isGenerator bool
	isAsync     bool
	arity       int
	numOptional int

	code  []opcodes.Instruction
	lines []int

	functions []*values.Prototype

	scopes  []*scope
	regTop  uint8
	maxUsed uint8

	upvalues     []upvalRef
	upvalueNames []string

	loops []*loopContext

	exportNames []string
}

// Compile lowers a full program into a Module whose Main prototype is the
// top-level statement sequence. path is recorded on the
// module for the loader's cyclic-import bookkeeping.
func Compile(prog *ast.Program, reg *registry.Registry, path string) (*values.Module, error) {
	mod := &values.Module{Path: path}
	u := &unit{registry: reg, module: mod, constIndex: make(map[string]uint16)}
	c := &Compiler{u: u, name: "main"}
	c.pushScope()

	stmts := prog.Statements
	for i, stmt := range stmts {
		isLast := i == len(stmts)-1
		if exp, ok := stmt.(*ast.Export); ok {
			if err := c.compileExportDecl(exp); err != nil {
				return nil, err
			}
			if isLast && len(c.exportNames) == 0 {
				c.emitBare(opcodes.OP_RETURN_NULL, exp.Line)
			}
			continue
		}
		if isLast && len(c.exportNames) == 0 {
			if ret, ok := stmt.(*ast.Return); ok {
				if ret.Value == nil {
					c.emitBare(opcodes.OP_RETURN_NULL, ret.Line)
				} else {
					r, err := c.compileExpr(ret.Value)
					if err != nil {
						return nil, err
					}
					c.emitA(opcodes.OP_RETURN, r.Reg, ret.Line)
				}
			} else if isValueKind(stmt) {
				r, err := c.compileExpr(stmt)
				if err != nil {
					return nil, err
				}
				c.emitA(opcodes.OP_RETURN, r.Reg, stmt.Pos().Line)
			} else {
				if err := c.compileStatement(stmt); err != nil {
					return nil, err
				}
				c.emitBare(opcodes.OP_RETURN_NULL, stmt.Pos().Line)
			}
			continue
		}
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	if len(stmts) == 0 {
		c.emitBare(opcodes.OP_RETURN_NULL, 0)
	}
	if len(c.exportNames) > 0 {
		if err := c.emitExportRecord(); err != nil {
			return nil, err
		}
	}
	c.popScope()
	mod.Main = c.finalize()
	return mod, nil
}

func (c *Compiler) compileExportDecl(exp *ast.Export) error {
	let, ok := exp.Decl.(*ast.Let)
	if !ok {
		return c.errf(exp.Line, "export only supports a let/mut binding")
	}
	if err := c.compileLet(let); err != nil {
		return err
	}
	c.exportNames = append(c.exportNames, let.Name)
	return nil
}

func (c *Compiler) emitExportRecord() error {
	rec, err := c.allocTemp()
	if err != nil {
		return err
	}
	c.emitA(opcodes.OP_NEW_RECORD, rec, 0)
	for _, name := range c.exportNames {
		reg, ok := c.resolveLocal(name)
		if !ok {
			return c.errf(0, "exported name %q is no longer in scope", name)
		}
		idx := c.addStringConstant(name)
		b, err := c.constIndex8(idx, 0)
		if err != nil {
			return err
		}
		c.emitABC(opcodes.OP_SET_FIELD, reg, rec, b, 0)
	}
	c.emitA(opcodes.OP_RETURN, rec, 0)
	return nil
}

// --- register allocation ---

func (c *Compiler) allocTemp() (uint8, error) {
	if c.regTop >= opcodes.SelfRegister {
		return 0, c.errf(0, "function %q needs more than %d registers", c.name, opcodes.SelfRegister)
	}
	r := c.regTop
	c.regTop++
	if c.regTop > c.maxUsed {
		c.maxUsed = c.regTop
	}
	return r, nil
}

func (c *Compiler) allocRange(n int) (uint8, error) {
	if int(c.regTop)+n > opcodes.SelfRegister {
		return 0, c.errf(0, "function %q needs more than %d registers", c.name, opcodes.SelfRegister)
	}
	base := c.regTop
	c.regTop += uint8(n)
	if c.regTop > c.maxUsed {
		c.maxUsed = c.regTop
	}
	return base, nil
}

// freeTo rewinds the allocator bookkeeping to mark. It never erases
// register contents: anything still readable below the new top stays
// valid until some later instruction overwrites it, which is always
// safe because callers immediately consume a value before anything else
// can be allocated over its slot.
func (c *Compiler) freeTo(mark uint8) {
	if mark < c.regTop {
		c.regTop = mark
	}
}

func (c *Compiler) freeIfTemp(r RegResult) {
	if r.Temp && r.Reg == c.regTop-1 {
		c.regTop--
	}
}

// binaryDest picks the destination for a two-operand op: reuse the left
// operand's register if it's a scratch temp (freeing the right operand),
// otherwise allocate a fresh one so a named binding is never clobbered.
func (c *Compiler) binaryDest(l, r RegResult) (uint8, error) {
	c.freeIfTemp(r)
	if l.Temp {
		return l.Reg, nil
	}
	return c.allocTemp()
}

func (c *Compiler) unaryDest(v RegResult) (uint8, error) {
	if v.Temp {
		return v.Reg, nil
	}
	return c.allocTemp()
}

// --- scopes & symbols ---

func (c *Compiler) pushScope() {
	c.scopes = append(c.scopes, &scope{floor: c.regTop})
}

func (c *Compiler) popScope() {
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.regTop = s.floor
}

func (c *Compiler) declareExisting(name string, reg uint8, mutable bool) {
	top := c.scopes[len(c.scopes)-1]
	top.symbols = append(top.symbols, symbol{name: name, reg: reg, mutable: mutable})
}

func (c *Compiler) declare(name string, mutable bool) (uint8, error) {
	reg, err := c.allocTemp()
	if err != nil {
		return 0, err
	}
	c.declareExisting(name, reg, mutable)
	return reg, nil
}

func (c *Compiler) findSymbol(name string) (symbol, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		syms := c.scopes[i].symbols
		for j := len(syms) - 1; j >= 0; j-- {
			if syms[j].name == name {
				return syms[j], true
			}
		}
	}
	return symbol{}, false
}

func (c *Compiler) resolveLocal(name string) (uint8, bool) {
	s, ok := c.findSymbol(name)
	return s.reg, ok
}

func (c *Compiler) isMutable(name string) bool {
	s, ok := c.findSymbol(name)
	return ok && s.mutable
}

// isBoundName reports whether name resolves to a local or upvalue
// without registering an upvalue descriptor as a side effect, used to
// decide builtin-vs-variable call resolution.
func (c *Compiler) isBoundName(name string) bool {
	if _, ok := c.resolveLocal(name); ok {
		return true
	}
	return c.upvalueChainHas(name)
}

func (c *Compiler) upvalueChainHas(name string) bool {
	if c.parent == nil {
		return false
	}
	if _, ok := c.parent.resolveLocal(name); ok {
		return true
	}
	return c.parent.upvalueChainHas(name)
}

// resolveUpvalue resolves name as an upvalue of c, recursing into parent
// compilers and threading a descriptor chain back down.
func (c *Compiler) resolveUpvalue(name string) (uint8, bool) {
	if c.parent == nil {
		return 0, false
	}
	if reg, ok := c.parent.resolveLocal(name); ok {
		return c.addUpvalue(upvalRef{source: values.UpvalueFromLocal, index: reg}, name), true
	}
	if idx, ok := c.parent.resolveUpvalue(name); ok {
		return c.addUpvalue(upvalRef{source: values.UpvalueFromOuter, index: idx}, name), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(ref upvalRef, name string) uint8 {
	for i, n := range c.upvalueNames {
		if n == name {
			return uint8(i)
		}
	}
	c.upvalues = append(c.upvalues, ref)
	c.upvalueNames = append(c.upvalueNames, name)
	return uint8(len(c.upvalues) - 1)
}

// --- constants ---

func (c *Compiler) addNumberConstant(f float64) uint16 {
	key := "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	return c.u.addConstant(key, values.NewNumber(f))
}

func (c *Compiler) addStringConstant(s string) uint16 {
	key := "s:" + s
	return c.u.addConstant(key, values.NewString(s))
}

func (c *Compiler) addComplexConstant(re, im float64) uint16 {
	key := "c:" + strconv.FormatFloat(re, 'g', -1, 64) + ":" + strconv.FormatFloat(im, 'g', -1, 64)
	return c.u.addConstant(key, values.NewComplex(re, im))
}

// constIndex8 narrows a 16-bit constant-pool index to the 8-bit operand
// GetField/SetField/GetFieldOpt provide (see package doc comment).
func (c *Compiler) constIndex8(idx uint16, line int) (uint8, error) {
	if idx > 255 {
		return 0, c.errf(line, "field name constant index %d exceeds the 8-bit operand limit of 255", idx)
	}
	return uint8(idx), nil
}

// predefinedConstants are injected as numeric literals by name, standing
// in for a predeclared global.
var predefinedConstants = map[string]float64{
	"pi":    3.14159265358979323846,
	"e":     2.71828182845904523536,
	"phi":   1.61803398874989484820,
	"sqrt2": 1.41421356237309504880,
	"sqrt3": 1.73205080756887729353,
	"ln2":   0.69314718055994530942,
	"ln10":  2.30258509299404568402,
}

// typeNameIDs maps a type-name string to the small fixed id TypeCheck and
// TypeAssert test against, matching values.ValueType's byte tags plus a
// 255 sentinel for "Any" (always true, not a real runtime tag).
var typeNameIDs = map[string]byte{
	"Number":     byte(values.TypeNumber),
	"String":     byte(values.TypeString),
	"Boolean":    byte(values.TypeBoolean),
	"Complex":    byte(values.TypeComplex),
	"Vector":     byte(values.TypeVector),
	"Tensor":     byte(values.TypeTensor),
	"Record":     byte(values.TypeRecord),
	"Function":   byte(values.TypeFunction),
	"Generator":  byte(values.TypeGenerator),
	"Future":     byte(values.TypeFuture),
	"Iterator":   byte(values.TypeIterator),
	"Null":       byte(values.TypeNull),
	"Range":      byte(values.TypeRange),
	"Builder":    byte(values.TypeBuilder),
	"MutableRef": byte(values.TypeMutableRef),
	"Error":      byte(values.TypeError),
	"Any":        255,
}

// isValueKind reports whether a statement, used as the last entry of a
// block, contributes the block's value.
func isValueKind(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindLet, ast.KindAssign, ast.KindWhile, ast.KindFor, ast.KindTry,
		ast.KindThrow, ast.KindTypeAlias, ast.KindExport,
		ast.KindBreak, ast.KindContinue, ast.KindReturn:
		return false
	default:
		return true
	}
}

// --- emit helpers ---

func (c *Compiler) emitABC(op opcodes.Opcode, a, b, cc uint8, line int) {
	c.code = append(c.code, opcodes.CreateABC(op, a, b, cc))
	c.lines = append(c.lines, line)
}

func (c *Compiler) emitABx(op opcodes.Opcode, a uint8, bx uint16, line int) {
	c.code = append(c.code, opcodes.CreateABx(op, a, bx))
	c.lines = append(c.lines, line)
}

func (c *Compiler) emitAsBx(op opcodes.Opcode, a uint8, sbx int16, line int) {
	c.code = append(c.code, opcodes.CreateAsBx(op, a, sbx))
	c.lines = append(c.lines, line)
}

func (c *Compiler) emitA(op opcodes.Opcode, a uint8, line int) {
	c.emitABC(op, a, 0, 0, line)
}

func (c *Compiler) emitBare(op opcodes.Opcode, line int) {
	c.emitABC(op, 0, 0, 0, line)
}

func (c *Compiler) emitJumpPlaceholder(op opcodes.Opcode, a uint8, line int) int {
	idx := len(c.code)
	c.emitAsBx(op, a, 0, line)
	return idx
}

func (c *Compiler) patchJump(idx int) {
	target := len(c.code)
	offset := target - (idx + 1)
	inst := c.code[idx]
	c.code[idx] = opcodes.CreateAsBx(inst.Opcode(), inst.A(), int16(offset))
}

func (c *Compiler) emitJumpTo(op opcodes.Opcode, target int, line int) {
	idx := len(c.code)
	offset := target - (idx + 1)
	c.emitAsBx(op, 0, int16(offset), line)
}

func (c *Compiler) errf(line int, format string, args ...interface{}) error {
	return &CompileError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// finalize packages this Compiler's accumulated state into a Prototype,
// converting upvalue references to the descriptor form the VM consumes
// when a Closure/CreateGen instruction materializes a closure.
func (c *Compiler) finalize() *values.Prototype {
	descs := make([]values.UpvalueDesc, len(c.upvalues))
	for i, u := range c.upvalues {
		descs[i] = values.UpvalueDesc{Source: u.source, Index: u.index}
	}
	return &values.Prototype{
		Name:         c.name,
		Arity:        c.arity,
		NumOptional:  c.numOptional,
		NumRegisters: int(c.maxUsed),
		IsGenerator:  c.isGenerator,
		IsAsync:      c.isAsync,
		Code:         c.code,
		Lines:        c.lines,
		Functions:    c.functions,
		Upvalues:     descs,
		Module:       c.u.module,
	}
}

// compileChildFunction lowers a lambda's parameter list and body into a
// freshly finalized Prototype, linking the child compiler to c so nested
// identifier resolution can walk outward for upvalues.
func (c *Compiler) compileChildFunction(params []ast.Param, body ast.Node, isAsync bool, name string) (*values.Prototype, error) {
	child := &Compiler{parent: c, u: c.u, name: name, isAsync: isAsync, arity: len(params)}
	child.pushScope()
	for _, p := range params {
		reg, err := child.declare(p.Name, true)
		if err != nil {
			return nil, err
		}
		if p.Optional {
			child.numOptional++
			if p.Default != nil {
				if err := child.compileOptionalDefault(reg, p.Default); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := child.compileTail(body); err != nil {
		return nil, err
	}
	return child.finalize(), nil
}

func (c *Compiler) compileOptionalDefault(reg uint8, def ast.Node) error {
	isNull, err := c.allocTemp()
	if err != nil {
		return err
	}
	line := def.Pos().Line
	c.emitABC(opcodes.OP_TYPE_CHECK, isNull, reg, typeNameIDs["Null"], line)
	jskip := c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, isNull, line)
	c.freeTo(isNull)
	if err := c.compileInto(def, reg); err != nil {
		return err
	}
	c.patchJump(jskip)
	return nil
}

// compileInto compiles node and ensures its value ends up in dst,
// emitting a Move only when the natural result register differs.
func (c *Compiler) compileInto(node ast.Node, dst uint8) error {
	r, err := c.compileExpr(node)
	if err != nil {
		return err
	}
	if r.Reg != dst {
		c.emitABC(opcodes.OP_MOVE, dst, r.Reg, 0, node.Pos().Line)
		c.freeIfTemp(r)
	}
	return nil
}
