package compiler

import (
	"github.com/wudi/soc/ast"
	"github.com/wudi/soc/opcodes"
)

var binOpcodes = map[ast.BinOp]opcodes.Opcode{
	ast.OpAdd: opcodes.OP_ADD,
	ast.OpSub: opcodes.OP_SUB,
	ast.OpMul: opcodes.OP_MUL,
	ast.OpDiv: opcodes.OP_DIV,
	ast.OpMod: opcodes.OP_MOD,
	ast.OpPow: opcodes.OP_POW,
	ast.OpEq:  opcodes.OP_EQ,
	ast.OpNe:  opcodes.OP_NE,
	ast.OpLt:  opcodes.OP_LT,
	ast.OpLe:  opcodes.OP_LE,
	ast.OpGt:  opcodes.OP_GT,
	ast.OpGe:  opcodes.OP_GE,
}

// compileExpr lowers any node used for its value, returning the register
// holding the result.
func (c *Compiler) compileExpr(node ast.Node) (RegResult, error) {
	switch n := node.(type) {
	case *ast.NumberLit:
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		idx := c.addNumberConstant(n.Value)
		c.emitABx(opcodes.OP_LOAD_CONST, dst, idx, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	case *ast.BooleanLit:
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		op := opcodes.OP_LOAD_FALSE
		if n.Value {
			op = opcodes.OP_LOAD_TRUE
		}
		c.emitA(op, dst, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	case *ast.NullLit:
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		c.emitA(opcodes.OP_LOAD_NULL, dst, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	case *ast.StringLit:
		return c.compileStringLit(n)
	case *ast.Identifier:
		return c.compileIdentifierExpr(n)
	case *ast.Rec:
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		c.emitABC(opcodes.OP_MOVE, dst, opcodes.SelfRegister, 0, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	case *ast.Wildcard:
		return RegResult{}, c.errf(n.Line, "_ is only valid as a match pattern")
	case *ast.BinaryOp:
		return c.compileBinary(n)
	case *ast.UnaryOp:
		return c.compileUnary(n)
	case *ast.If:
		return c.compileIfExpr(n)
	case *ast.Do:
		return c.compileDoValue(n)
	case *ast.While:
		r, err := c.compileLoopWhile(n)
		if err != nil {
			return RegResult{}, err
		}
		return RegResult{Reg: r, Temp: true}, nil
	case *ast.For:
		r, err := c.compileLoopFor(n)
		if err != nil {
			return RegResult{}, err
		}
		return RegResult{Reg: r, Temp: true}, nil
	case *ast.Call:
		return c.compileCall(n)
	case *ast.Index:
		return c.compileIndex(n)
	case *ast.Field:
		return c.compileField(n)
	case *ast.RecordLit:
		return c.compileRecordLit(n)
	case *ast.VectorLit:
		return c.compileVectorLit(n)
	case *ast.Match:
		return c.compileMatch(n)
	case *ast.Yield:
		return c.compileYield(n)
	case *ast.Await:
		return c.compileAwait(n)
	case *ast.Spawn:
		return c.compileSpawn(n)
	case *ast.Generate:
		return c.compileGenerateExpr(n)
	case *ast.Lambda:
		return c.compileLambdaExpr(n)
	case *ast.RangeLit:
		return c.compileRange(n)
	case *ast.TypeCheck:
		return c.compileTypeCheck(n)
	case *ast.Import:
		return c.compileImportExpr(n)
	default:
		return RegResult{}, c.errf(node.Pos().Line, "unsupported expression node %s", node.Kind())
	}
}

func (c *Compiler) compileBinary(n *ast.BinaryOp) (RegResult, error) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		return c.compileShortCircuit(n)
	}
	l, err := c.compileExpr(n.Left)
	if err != nil {
		return RegResult{}, err
	}
	r, err := c.compileExpr(n.Right)
	if err != nil {
		return RegResult{}, err
	}
	op, ok := binOpcodes[n.Op]
	if !ok {
		return RegResult{}, c.errf(n.Line, "unsupported binary operator")
	}
	dst, err := c.binaryDest(l, r)
	if err != nil {
		return RegResult{}, err
	}
	c.emitABC(op, dst, l.Reg, r.Reg, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

// compileShortCircuit lowers and/or to jumps, evaluating (and yielding)
// only the operand that decides the result.
func (c *Compiler) compileShortCircuit(n *ast.BinaryOp) (RegResult, error) {
	l, err := c.compileExpr(n.Left)
	if err != nil {
		return RegResult{}, err
	}
	dst := l.Reg
	if !l.Temp {
		nd, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		dst = nd
		c.emitABC(opcodes.OP_MOVE, dst, l.Reg, 0, n.Line)
	}
	var jend int
	if n.Op == ast.OpAnd {
		jend = c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, dst, n.Line)
	} else {
		jend = c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_TRUE, dst, n.Line)
	}
	if err := c.compileInto(n.Right, dst); err != nil {
		return RegResult{}, err
	}
	c.patchJump(jend)
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileUnary(n *ast.UnaryOp) (RegResult, error) {
	v, err := c.compileExpr(n.Operand)
	if err != nil {
		return RegResult{}, err
	}
	dst, err := c.unaryDest(v)
	if err != nil {
		return RegResult{}, err
	}
	op := opcodes.OP_NEG
	if n.Op == ast.OpNot {
		op = opcodes.OP_NOT
	}
	c.emitABC(op, dst, v.Reg, 0, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileIdentifierExpr(n *ast.Identifier) (RegResult, error) {
	if reg, ok := c.resolveLocal(n.Name); ok {
		return RegResult{Reg: reg, Temp: false}, nil
	}
	if idx, ok := c.resolveUpvalue(n.Name); ok {
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		c.emitABC(opcodes.OP_GET_UPVALUE, dst, idx, 0, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	}
	if n.Name == "i" {
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		idx := c.addComplexConstant(0, 1)
		c.emitABx(opcodes.OP_LOAD_CONST, dst, idx, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	}
	if k, ok := predefinedConstants[n.Name]; ok {
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		idx := c.addNumberConstant(k)
		c.emitABx(opcodes.OP_LOAD_CONST, dst, idx, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	}
	if n.Name == "Infinity" || n.Name == "NaN" {
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		f := infinityOrNaN(n.Name)
		idx := c.addNumberConstant(f)
		c.emitABx(opcodes.OP_LOAD_CONST, dst, idx, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	}
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	idx := c.addStringConstant(n.Name)
	c.emitABx(opcodes.OP_GET_GLOBAL, dst, idx, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

func infinityOrNaN(name string) float64 {
	if name == "Infinity" {
		return posInf
	}
	return nan
}

func (c *Compiler) compileStringLit(n *ast.StringLit) (RegResult, error) {
	if len(n.Parts) == 1 && n.Parts[0].Expr == nil {
		dst, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		idx := c.addStringConstant(n.Parts[0].Literal)
		c.emitABx(opcodes.OP_LOAD_CONST, dst, idx, n.Line)
		return RegResult{Reg: dst, Temp: true}, nil
	}
	concatID, ok := c.u.registry.Lookup("$str_concat")
	if !ok {
		return RegResult{}, c.errf(n.Line, "internal builtin \"$str_concat\" is not registered")
	}
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitA(opcodes.OP_NEW_VEC, dst, n.Line)
	for _, part := range n.Parts {
		var v RegResult
		if part.Expr != nil {
			v, err = c.compileExpr(part.Expr)
			if err != nil {
				return RegResult{}, err
			}
		} else {
			reg, aerr := c.allocTemp()
			if aerr != nil {
				return RegResult{}, aerr
			}
			idx := c.addStringConstant(part.Literal)
			c.emitABx(opcodes.OP_LOAD_CONST, reg, idx, n.Line)
			v = RegResult{Reg: reg, Temp: true}
		}
		c.emitABC(opcodes.OP_VEC_PUSH, dst, v.Reg, 0, n.Line)
		c.freeIfTemp(v)
	}
	c.emitABx(opcodes.OP_CALL_BUILTIN, dst, concatID, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

// --- calls ---

func (c *Compiler) compileCall(n *ast.Call) (RegResult, error) {
	if ident, ok := n.Callee.(*ast.Identifier); ok && !c.isBoundName(ident.Name) {
		if id, ok := c.u.registry.Lookup(ident.Name); ok {
			return c.compileCallBuiltin(n.Args, id, n.Line)
		}
	}
	base, err := c.allocRange(1 + len(n.Args))
	if err != nil {
		return RegResult{}, err
	}
	if err := c.compileInto(n.Callee, base); err != nil {
		return RegResult{}, err
	}
	for i, a := range n.Args {
		if err := c.compileInto(a, base+1+uint8(i)); err != nil {
			return RegResult{}, err
		}
	}
	c.emitABC(opcodes.OP_CALL, base, uint8(len(n.Args)), 0, n.Line)
	c.freeTo(base + 1)
	return RegResult{Reg: base, Temp: true}, nil
}

// compileCallBuiltin emits a CallBuiltin instruction whose argument count
// is not encoded (see package doc comment): the registered arity must
// match the call site's argument count exactly.
func (c *Compiler) compileCallBuiltin(args []ast.Node, id uint16, line int) (RegResult, error) {
	if entry, ok := c.u.registry.Entry(id); ok && entry.Arity >= 0 && entry.Arity != len(args) {
		return RegResult{}, c.errf(line, "%q expects %d argument(s), got %d", entry.Name, entry.Arity, len(args))
	}
	base, err := c.allocRange(len(args))
	if err != nil {
		return RegResult{}, err
	}
	for i, a := range args {
		if err := c.compileInto(a, base+uint8(i)); err != nil {
			return RegResult{}, err
		}
	}
	c.emitABx(opcodes.OP_CALL_BUILTIN, base, id, line)
	c.freeTo(base + 1)
	return RegResult{Reg: base, Temp: true}, nil
}

// callBuiltinWithRegs invokes a fixed-arity builtin over already-compiled
// argument registers, used by internal lowering (for-loops, ranges).
func (c *Compiler) callBuiltinWithRegs(id uint16, line int, argRegs ...uint8) (RegResult, error) {
	base, err := c.allocRange(len(argRegs))
	if err != nil {
		return RegResult{}, err
	}
	for i, r := range argRegs {
		if r != base+uint8(i) {
			c.emitABC(opcodes.OP_MOVE, base+uint8(i), r, 0, line)
		}
	}
	c.emitABx(opcodes.OP_CALL_BUILTIN, base, id, line)
	return RegResult{Reg: base, Temp: true}, nil
}

func (c *Compiler) compileTailCall(n *ast.Call) error {
	if ident, ok := n.Callee.(*ast.Identifier); ok && !c.isBoundName(ident.Name) {
		if id, ok := c.u.registry.Lookup(ident.Name); ok {
			r, err := c.compileCallBuiltin(n.Args, id, n.Line)
			if err != nil {
				return err
			}
			c.emitA(opcodes.OP_RETURN, r.Reg, n.Line)
			return nil
		}
	}
	base, err := c.allocRange(1 + len(n.Args))
	if err != nil {
		return err
	}
	if err := c.compileInto(n.Callee, base); err != nil {
		return err
	}
	for i, a := range n.Args {
		if err := c.compileInto(a, base+1+uint8(i)); err != nil {
			return err
		}
	}
	c.emitABC(opcodes.OP_TAIL_CALL, base, uint8(len(n.Args)), 0, n.Line)
	return nil
}

// --- tail-position compilation ---

func (c *Compiler) compileTail(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Call:
		return c.compileTailCall(n)
	case *ast.If:
		return c.compileTailIf(n)
	case *ast.Do:
		return c.compileTailDo(n)
	case *ast.Return:
		if n.Value == nil {
			c.emitBare(opcodes.OP_RETURN_NULL, n.Line)
			return nil
		}
		return c.compileTail(n.Value)
	default:
		r, err := c.compileExpr(node)
		if err != nil {
			return err
		}
		c.emitA(opcodes.OP_RETURN, r.Reg, node.Pos().Line)
		return nil
	}
}

func (c *Compiler) compileTailIf(n *ast.If) error {
	cond, err := c.compileExpr(n.Cond)
	if err != nil {
		return err
	}
	jf := c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, cond.Reg, n.Line)
	c.freeIfTemp(cond)
	if err := c.compileTail(n.Then); err != nil {
		return err
	}
	c.patchJump(jf)
	if n.Else != nil {
		return c.compileTail(n.Else)
	}
	c.emitBare(opcodes.OP_RETURN_NULL, n.Line)
	return nil
}

func (c *Compiler) compileTailDo(n *ast.Do) error {
	c.pushScope()
	if len(n.Statements) == 0 {
		c.popScope()
		c.emitBare(opcodes.OP_RETURN_NULL, n.Line)
		return nil
	}
	for i, stmt := range n.Statements {
		last := i == len(n.Statements)-1
		if !last {
			if err := c.compileStatement(stmt); err != nil {
				return err
			}
			continue
		}
		if ret, ok := stmt.(*ast.Return); ok {
			if ret.Value == nil {
				c.popScope()
				c.emitBare(opcodes.OP_RETURN_NULL, ret.Line)
				return nil
			}
			err := c.compileTail(ret.Value)
			c.popScope()
			return err
		}
		if isValueKind(stmt) {
			err := c.compileTail(stmt)
			c.popScope()
			return err
		}
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
		c.popScope()
		c.emitBare(opcodes.OP_RETURN_NULL, n.Line)
		return nil
	}
	return nil
}

// --- blocks as values ---

func (c *Compiler) compileDoValue(n *ast.Do) (RegResult, error) {
	c.pushScope()
	if len(n.Statements) == 0 {
		c.popScope()
		r, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		c.emitA(opcodes.OP_LOAD_NULL, r, n.Line)
		return RegResult{Reg: r, Temp: true}, nil
	}
	for i, stmt := range n.Statements {
		last := i == len(n.Statements)-1
		if !last {
			if err := c.compileStatement(stmt); err != nil {
				return RegResult{}, err
			}
			continue
		}
		if isValueKind(stmt) {
			r, err := c.compileExpr(stmt)
			if err != nil {
				return RegResult{}, err
			}
			c.popScope()
			return r, nil
		}
		if err := c.compileStatement(stmt); err != nil {
			return RegResult{}, err
		}
		c.popScope()
		r, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		c.emitA(opcodes.OP_LOAD_NULL, r, n.Line)
		return RegResult{Reg: r, Temp: true}, nil
	}
	panic("unreachable")
}

func (c *Compiler) compileIfExpr(n *ast.If) (RegResult, error) {
	cond, err := c.compileExpr(n.Cond)
	if err != nil {
		return RegResult{}, err
	}
	var dst uint8
	if cond.Temp {
		dst = cond.Reg
	} else {
		dst, err = c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
	}
	jf := c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, cond.Reg, n.Line)
	if err := c.compileInto(n.Then, dst); err != nil {
		return RegResult{}, err
	}
	jend := c.emitJumpPlaceholder(opcodes.OP_JUMP, 0, n.Line)
	c.patchJump(jf)
	if n.Else != nil {
		if err := c.compileInto(n.Else, dst); err != nil {
			return RegResult{}, err
		}
	} else {
		c.emitA(opcodes.OP_LOAD_NULL, dst, n.Line)
	}
	c.patchJump(jend)
	return RegResult{Reg: dst, Temp: true}, nil
}

// --- aggregates, index, field ---

func (c *Compiler) compileRecordLit(n *ast.RecordLit) (RegResult, error) {
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitA(opcodes.OP_NEW_RECORD, dst, n.Line)
	for _, f := range n.Fields {
		v, err := c.compileExpr(f.Value)
		if err != nil {
			return RegResult{}, err
		}
		idx := c.addStringConstant(f.Name)
		b, err := c.constIndex8(idx, n.Line)
		if err != nil {
			return RegResult{}, err
		}
		c.emitABC(opcodes.OP_SET_FIELD, v.Reg, dst, b, n.Line)
		c.freeIfTemp(v)
	}
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileVectorLit(n *ast.VectorLit) (RegResult, error) {
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitA(opcodes.OP_NEW_VEC, dst, n.Line)
	for _, el := range n.Elements {
		v, err := c.compileExpr(el)
		if err != nil {
			return RegResult{}, err
		}
		c.emitABC(opcodes.OP_VEC_PUSH, dst, v.Reg, 0, n.Line)
		c.freeIfTemp(v)
	}
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileIndex(n *ast.Index) (RegResult, error) {
	if len(n.Indices) != 1 {
		return RegResult{}, c.errf(n.Line, "multi-dimensional indexing is not supported")
	}
	obj, err := c.compileExpr(n.Object)
	if err != nil {
		return RegResult{}, err
	}
	idx, err := c.compileExpr(n.Indices[0])
	if err != nil {
		return RegResult{}, err
	}
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitABC(opcodes.OP_VEC_GET, dst, obj.Reg, idx.Reg, n.Line)
	c.freeIfTemp(idx)
	c.freeIfTemp(obj)
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileField(n *ast.Field) (RegResult, error) {
	obj, err := c.compileExpr(n.Record)
	if err != nil {
		return RegResult{}, err
	}
	dst, err := c.unaryDest(obj)
	if err != nil {
		return RegResult{}, err
	}
	idx := c.addStringConstant(n.Name)
	b, err := c.constIndex8(idx, n.Line)
	if err != nil {
		return RegResult{}, err
	}
	op := opcodes.OP_GET_FIELD
	if n.Optional {
		op = opcodes.OP_GET_FIELD_OPT
	}
	c.emitABC(op, dst, obj.Reg, b, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

// --- ranges, type checks, import ---

func (c *Compiler) compileRange(n *ast.RangeLit) (RegResult, error) {
	newRangeID, ok := c.u.registry.Lookup("$new_range")
	if !ok {
		return RegResult{}, c.errf(n.Line, "internal builtin \"$new_range\" is not registered")
	}
	base, err := c.allocRange(4)
	if err != nil {
		return RegResult{}, err
	}
	if err := c.compileInto(n.Start, base); err != nil {
		return RegResult{}, err
	}
	if err := c.compileInto(n.End, base+1); err != nil {
		return RegResult{}, err
	}
	if n.Step != nil {
		if err := c.compileInto(n.Step, base+2); err != nil {
			return RegResult{}, err
		}
	} else {
		idx := c.addNumberConstant(1)
		c.emitABx(opcodes.OP_LOAD_CONST, base+2, idx, n.Line)
	}
	op := opcodes.OP_LOAD_FALSE
	if n.Inclusive {
		op = opcodes.OP_LOAD_TRUE
	}
	c.emitA(op, base+3, n.Line)
	c.emitABx(opcodes.OP_CALL_BUILTIN, base, newRangeID, n.Line)
	c.freeTo(base + 1)
	return RegResult{Reg: base, Temp: true}, nil
}

func (c *Compiler) compileTypeCheck(n *ast.TypeCheck) (RegResult, error) {
	v, err := c.compileExpr(n.Value)
	if err != nil {
		return RegResult{}, err
	}
	tid, ok := typeNameIDs[n.TypeName]
	if !ok {
		return RegResult{}, c.errf(n.Line, "unknown type name %q", n.TypeName)
	}
	dst, err := c.unaryDest(v)
	if err != nil {
		return RegResult{}, err
	}
	c.emitABC(opcodes.OP_TYPE_CHECK, dst, v.Reg, tid, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileImportExpr(n *ast.Import) (RegResult, error) {
	importID, ok := c.u.registry.Lookup("import")
	if !ok {
		return RegResult{}, c.errf(n.Line, "builtin \"import\" is not registered")
	}
	base, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	idx := c.addStringConstant(n.Path)
	c.emitABx(opcodes.OP_LOAD_CONST, base, idx, n.Line)
	c.emitABx(opcodes.OP_CALL_BUILTIN, base, importID, n.Line)
	return RegResult{Reg: base, Temp: true}, nil
}

// --- generators, closures, async ---

func (c *Compiler) compileYield(n *ast.Yield) (RegResult, error) {
	var v RegResult
	if n.Value != nil {
		var err error
		v, err = c.compileExpr(n.Value)
		if err != nil {
			return RegResult{}, err
		}
	} else {
		reg, err := c.allocTemp()
		if err != nil {
			return RegResult{}, err
		}
		c.emitA(opcodes.OP_LOAD_NULL, reg, n.Line)
		v = RegResult{Reg: reg, Temp: true}
	}
	c.emitA(opcodes.OP_YIELD, v.Reg, n.Line)
	// The instruction right after Yield is where execution resumes; a
	// generator here never receives a sent-in value (ResumeGen has no
	// value operand), so the yield expression itself evaluates to Null.
	c.emitA(opcodes.OP_LOAD_NULL, v.Reg, n.Line)
	return RegResult{Reg: v.Reg, Temp: true}, nil
}

func (c *Compiler) compileAwait(n *ast.Await) (RegResult, error) {
	src, err := c.compileExpr(n.Value)
	if err != nil {
		return RegResult{}, err
	}
	dst, err := c.unaryDest(src)
	if err != nil {
		return RegResult{}, err
	}
	c.emitABC(opcodes.OP_AWAIT, dst, src.Reg, 0, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

// compileSpawn lowers `spawn f(args...)` to a deferred call: unlike every
// other call site, the callee and arguments are placed in a window but
// never run by this frame — Spawn enqueues them on the scheduler and
// returns a pending Future immediately.
func (c *Compiler) compileSpawn(n *ast.Spawn) (RegResult, error) {
	call, ok := n.Value.(*ast.Call)
	if !ok {
		return RegResult{}, c.errf(n.Line, "spawn requires a call expression")
	}
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	base, err := c.allocRange(1 + len(call.Args))
	if err != nil {
		return RegResult{}, err
	}
	if err := c.compileInto(call.Callee, base); err != nil {
		return RegResult{}, err
	}
	for i, a := range call.Args {
		if err := c.compileInto(a, base+1+uint8(i)); err != nil {
			return RegResult{}, err
		}
	}
	c.emitABC(opcodes.OP_SPAWN, dst, base, uint8(len(call.Args)), n.Line)
	c.freeTo(dst + 1)
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileGenerateExpr(n *ast.Generate) (RegResult, error) {
	child := &Compiler{parent: c, u: c.u, name: "generate", isGenerator: true}
	child.pushScope()
	for _, stmt := range n.Statements {
		if err := child.compileStatement(stmt); err != nil {
			return RegResult{}, err
		}
	}
	child.emitBare(opcodes.OP_RETURN_NULL, n.Line)
	proto := child.finalize()
	idx := uint16(len(c.functions))
	c.functions = append(c.functions, proto)
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitABx(opcodes.OP_CREATE_GEN, dst, idx, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

func (c *Compiler) compileLambdaExpr(n *ast.Lambda) (RegResult, error) {
	proto, err := c.compileChildFunction(n.Params, n.Body, n.IsAsync, "lambda")
	if err != nil {
		return RegResult{}, err
	}
	idx := uint16(len(c.functions))
	c.functions = append(c.functions, proto)
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitABx(opcodes.OP_CLOSURE, dst, idx, n.Line)
	return RegResult{Reg: dst, Temp: true}, nil
}

// --- match ---

func (c *Compiler) compileMatch(n *ast.Match) (RegResult, error) {
	scrutinee, err := c.compileExpr(n.Scrutinee)
	if err != nil {
		return RegResult{}, err
	}
	dst, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	var endPatches []int
	for _, arm := range n.Arms {
		c.pushScope()
		condFalseJump := -1
		switch pat := arm.Pattern.(type) {
		case *ast.Wildcard:
		case *ast.Identifier:
			reg, err := c.declare(pat.Name, false)
			if err != nil {
				return RegResult{}, err
			}
			c.emitABC(opcodes.OP_MOVE, reg, scrutinee.Reg, 0, pat.Line)
		default:
			patVal, err := c.compileExpr(arm.Pattern)
			if err != nil {
				return RegResult{}, err
			}
			eqReg, err := c.allocTemp()
			if err != nil {
				return RegResult{}, err
			}
			c.emitABC(opcodes.OP_EQ, eqReg, scrutinee.Reg, patVal.Reg, arm.Pattern.Pos().Line)
			c.freeIfTemp(patVal)
			condFalseJump = c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, eqReg, arm.Pattern.Pos().Line)
			c.freeTo(eqReg)
		}
		guardFalseJump := -1
		if arm.Guard != nil {
			g, err := c.compileExpr(arm.Guard)
			if err != nil {
				return RegResult{}, err
			}
			guardFalseJump = c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, g.Reg, arm.Guard.Pos().Line)
			c.freeIfTemp(g)
		}
		if err := c.compileInto(arm.Body, dst); err != nil {
			return RegResult{}, err
		}
		c.popScope()
		endPatches = append(endPatches, c.emitJumpPlaceholder(opcodes.OP_JUMP, 0, n.Line))
		if guardFalseJump >= 0 {
			c.patchJump(guardFalseJump)
		}
		if condFalseJump >= 0 {
			c.patchJump(condFalseJump)
		}
	}
	msgIdx := c.addStringConstant("no match arm satisfied the value")
	msgReg, err := c.allocTemp()
	if err != nil {
		return RegResult{}, err
	}
	c.emitABx(opcodes.OP_LOAD_CONST, msgReg, msgIdx, n.Line)
	c.emitA(opcodes.OP_THROW, msgReg, n.Line)
	for _, p := range endPatches {
		c.patchJump(p)
	}
	c.freeIfTemp(scrutinee)
	return RegResult{Reg: dst, Temp: true}, nil
}

// posInf/nan stand in for math.Inf(1)/math.NaN() without importing math
// solely for two float sentinels.
var (
	posInf = func() float64 { x := 1.0; y := 0.0; return x / y }()
	nan    = func() float64 { x := 0.0; y := 0.0; return x / y }()
)
