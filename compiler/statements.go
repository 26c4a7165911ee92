package compiler

import (
	"github.com/wudi/soc/ast"
	"github.com/wudi/soc/opcodes"
)

// compileStatement lowers a node used for its side effect; any value it
// produces (e.g. a bare call expression) is computed and discarded.
func (c *Compiler) compileStatement(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Let:
		return c.compileLet(n)
	case *ast.Assign:
		return c.compileAssign(n)
	case *ast.While:
		return c.compileWhileStatement(n)
	case *ast.For:
		return c.compileFor(n)
	case *ast.Return:
		return c.compileReturn(n)
	case *ast.Break:
		return c.compileBreak(n)
	case *ast.Continue:
		return c.compileContinue(n)
	case *ast.Try:
		return c.compileTry(n)
	case *ast.Throw:
		return c.compileThrow(n)
	case *ast.TypeAlias:
		// Gradual typing is structural only; no runtime representation.
		return nil
	case *ast.Export:
		return c.compileExportDecl(n)
	default:
		r, err := c.compileExpr(node)
		if err != nil {
			return err
		}
		c.freeIfTemp(r)
		return nil
	}
}

func (c *Compiler) compileLet(n *ast.Let) error {
	reg, err := c.allocTemp()
	if err != nil {
		return err
	}
	if err := c.compileInto(n.Value, reg); err != nil {
		return err
	}
	if n.Type != "" {
		tid, ok := typeNameIDs[n.Type]
		if !ok {
			return c.errf(n.Line, "unknown type annotation %q", n.Type)
		}
		c.emitABx(opcodes.OP_TYPE_ASSERT, reg, uint16(tid), n.Line)
	}
	c.declareExisting(n.Name, reg, n.Mutable)
	return nil
}

func (c *Compiler) compileAssign(n *ast.Assign) error {
	switch t := n.Target.(type) {
	case *ast.Identifier:
		if reg, ok := c.resolveLocal(t.Name); ok {
			if !c.isMutable(t.Name) {
				return c.errf(n.Line, "cannot assign to immutable binding %q", t.Name)
			}
			return c.compileInto(n.Value, reg)
		}
		if idx, ok := c.resolveUpvalue(t.Name); ok {
			v, err := c.compileExpr(n.Value)
			if err != nil {
				return err
			}
			c.emitABC(opcodes.OP_SET_UPVALUE, idx, v.Reg, 0, n.Line)
			c.freeIfTemp(v)
			return nil
		}
		v, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		gi := c.addStringConstant(t.Name)
		c.emitABx(opcodes.OP_SET_GLOBAL, v.Reg, gi, n.Line)
		c.freeIfTemp(v)
		return nil
	case *ast.Index:
		if len(t.Indices) != 1 {
			return c.errf(n.Line, "multi-dimensional index assignment is not supported")
		}
		obj, err := c.compileExpr(t.Object)
		if err != nil {
			return err
		}
		idx, err := c.compileExpr(t.Indices[0])
		if err != nil {
			return err
		}
		v, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		c.emitABC(opcodes.OP_VEC_SET, v.Reg, obj.Reg, idx.Reg, n.Line)
		c.freeIfTemp(v)
		c.freeIfTemp(idx)
		c.freeIfTemp(obj)
		return nil
	case *ast.Field:
		obj, err := c.compileExpr(t.Record)
		if err != nil {
			return err
		}
		v, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		fi := c.addStringConstant(t.Name)
		b, err := c.constIndex8(fi, n.Line)
		if err != nil {
			return err
		}
		c.emitABC(opcodes.OP_SET_FIELD, v.Reg, obj.Reg, b, n.Line)
		c.freeIfTemp(v)
		c.freeIfTemp(obj)
		return nil
	default:
		return c.errf(n.Line, "invalid assignment target")
	}
}

func (c *Compiler) compileReturn(n *ast.Return) error {
	if n.Value == nil {
		c.emitBare(opcodes.OP_RETURN_NULL, n.Line)
		return nil
	}
	r, err := c.compileExpr(n.Value)
	if err != nil {
		return err
	}
	c.emitA(opcodes.OP_RETURN, r.Reg, n.Line)
	return nil
}

func (c *Compiler) compileThrow(n *ast.Throw) error {
	v, err := c.compileExpr(n.Value)
	if err != nil {
		return err
	}
	c.emitA(opcodes.OP_THROW, v.Reg, n.Line)
	return nil
}

// compileTry lowers to PushHandler/body/PopHandler+Jump/handler, mirroring
// the per-frame handler-stack design.
func (c *Compiler) compileTry(n *ast.Try) error {
	errReg, err := c.allocTemp()
	if err != nil {
		return err
	}
	ph := c.emitJumpPlaceholder(opcodes.OP_PUSH_HANDLER, errReg, n.Line)
	if err := c.compileStatement(n.Body); err != nil {
		return err
	}
	c.emitBare(opcodes.OP_POP_HANDLER, n.Line)
	jend := c.emitJumpPlaceholder(opcodes.OP_JUMP, 0, n.Line)
	c.patchJump(ph)
	c.pushScope()
	c.declareExisting(n.ErrName, errReg, false)
	if err := c.compileStatement(n.Handler); err != nil {
		return err
	}
	c.popScope()
	c.patchJump(jend)
	c.freeTo(errReg)
	return nil
}

// --- loops ---

func (c *Compiler) compileLoopWhile(n *ast.While) (uint8, error) {
	resultReg, err := c.allocTemp()
	if err != nil {
		return 0, err
	}
	c.emitA(opcodes.OP_LOAD_NULL, resultReg, n.Line)
	start := len(c.code)
	cond, err := c.compileExpr(n.Cond)
	if err != nil {
		return 0, err
	}
	jend := c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_FALSE, cond.Reg, n.Line)
	c.freeIfTemp(cond)
	lc := &loopContext{continueTarget: start, resultReg: resultReg}
	c.loops = append(c.loops, lc)
	if err := c.compileStatement(n.Body); err != nil {
		return 0, err
	}
	c.loops = c.loops[:len(c.loops)-1]
	c.emitJumpTo(opcodes.OP_JUMP, start, n.Line)
	c.patchJump(jend)
	for _, p := range lc.breakPatches {
		c.patchJump(p)
	}
	return resultReg, nil
}

func (c *Compiler) compileWhileStatement(n *ast.While) error {
	r, err := c.compileLoopWhile(n)
	if err != nil {
		return err
	}
	c.freeTo(r)
	return nil
}

// compileFor lowers `for (x in iterable) body` to the iterator protocol:
// obtain an iterator via the internal "$iter" builtin, then repeatedly
// call "$iter_next" until it yields Null. Exhaustion is
// signaled by Null rather than a distinct sentinel — a sequence whose
// elements are themselves Null terminates a step early, accepted as a
// simplification (see DESIGN.md).
func (c *Compiler) compileFor(n *ast.For) error {
	r, err := c.compileLoopFor(n)
	if err != nil {
		return err
	}
	c.freeTo(r)
	return nil
}

// compileLoopFor is the shared lowering used both when a for-loop
// appears as a statement and when it appears in value position (its
// `break <value>` result register is left allocated for the caller).
func (c *Compiler) compileLoopFor(n *ast.For) (uint8, error) {
	resultReg, err := c.allocTemp()
	if err != nil {
		return 0, err
	}
	c.emitA(opcodes.OP_LOAD_NULL, resultReg, n.Line)

	iterable, err := c.compileExpr(n.Iterable)
	if err != nil {
		return 0, err
	}
	iterID, ok := c.u.registry.Lookup("$iter")
	if !ok {
		return 0, c.errf(n.Line, "internal iterator builtin \"$iter\" is not registered")
	}
	nextID, ok := c.u.registry.Lookup("$iter_next")
	if !ok {
		return 0, c.errf(n.Line, "internal iterator builtin \"$iter_next\" is not registered")
	}

	itVal, err := c.callBuiltinWithRegs(iterID, n.Line, iterable.Reg)
	if err != nil {
		return 0, err
	}
	c.freeIfTemp(iterable)
	iterReg := itVal.Reg

	start := len(c.code)
	val, err := c.callBuiltinWithRegs(nextID, n.Line, iterReg)
	if err != nil {
		return 0, err
	}
	isNull, err := c.allocTemp()
	if err != nil {
		return 0, err
	}
	c.emitABC(opcodes.OP_TYPE_CHECK, isNull, val.Reg, typeNameIDs["Null"], n.Line)
	jend := c.emitJumpPlaceholder(opcodes.OP_JUMP_IF_TRUE, isNull, n.Line)
	c.freeTo(isNull)

	c.pushScope()
	c.declareExisting(n.Binding, val.Reg, false)
	lc := &loopContext{continueTarget: start, resultReg: resultReg}
	c.loops = append(c.loops, lc)
	if err := c.compileStatement(n.Body); err != nil {
		return 0, err
	}
	c.loops = c.loops[:len(c.loops)-1]
	c.popScope()
	c.emitJumpTo(opcodes.OP_JUMP, start, n.Line)
	c.patchJump(jend)
	for _, p := range lc.breakPatches {
		c.patchJump(p)
	}
	return resultReg, nil
}

func (c *Compiler) compileBreak(n *ast.Break) error {
	if len(c.loops) == 0 {
		return c.errf(n.Line, "break outside loop")
	}
	lc := c.loops[len(c.loops)-1]
	if n.Value != nil {
		if err := c.compileInto(n.Value, lc.resultReg); err != nil {
			return err
		}
	}
	idx := c.emitJumpPlaceholder(opcodes.OP_JUMP, 0, n.Line)
	lc.breakPatches = append(lc.breakPatches, idx)
	return nil
}

func (c *Compiler) compileContinue(n *ast.Continue) error {
	if len(c.loops) == 0 {
		return c.errf(n.Line, "continue outside loop")
	}
	lc := c.loops[len(c.loops)-1]
	c.emitJumpTo(opcodes.OP_JUMP, lc.continueTarget, n.Line)
	return nil
}
