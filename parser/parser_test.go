package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/ast"
)

func TestParseLetAndBinary(t *testing.T) {
	prog, err := Parse(`let add = (x, y) => x + y; add(2, 3)`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)

	let, ok := prog.Statements[0].(*ast.Let)
	require.True(t, ok)
	assert.Equal(t, "add", let.Name)
	lambda, ok := let.Value.(*ast.Lambda)
	require.True(t, ok)
	assert.Len(t, lambda.Params, 2)

	call, ok := prog.Statements[1].(*ast.Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
}

func TestParseIfElseAsExpression(t *testing.T) {
	prog, err := Parse(`let f = (n) => if (n <= 1) { 1 } else { n * rec(n-1) }; f(5)`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)
	let := prog.Statements[0].(*ast.Let)
	lambda := let.Value.(*ast.Lambda)
	ifExpr, ok := lambda.Body.(*ast.If)
	require.True(t, ok)
	assert.NotNil(t, ifExpr.Else)
}

func TestParseWhileLoop(t *testing.T) {
	prog, err := Parse(`mut i=0; mut s=0; while (i<5) { s = s+i; i = i+1 }; s`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 4)
	wh, ok := prog.Statements[2].(*ast.While)
	require.True(t, ok)
	do := wh.Body.(*ast.Do)
	assert.Len(t, do.Statements, 2)
}

func TestParseGenerateAndFor(t *testing.T) {
	prog, err := Parse(`let g = generate { yield 1; yield 2 }; for (v in g) { v }`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)
	let := prog.Statements[0].(*ast.Let)
	gen, ok := let.Value.(*ast.Generate)
	require.True(t, ok)
	assert.Len(t, gen.Statements, 2)
	forNode := prog.Statements[1].(*ast.For)
	assert.Equal(t, "v", forNode.Binding)
}

func TestParseTryCatch(t *testing.T) {
	prog, err := Parse(`try { throw "boom" } catch (e) { e }`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	tr, ok := prog.Statements[0].(*ast.Try)
	require.True(t, ok)
	assert.Equal(t, "e", tr.ErrName)
}

func TestParseRecordAndField(t *testing.T) {
	prog, err := Parse(`let t={name:"s", port:8080}; t.port`)
	require.NoError(t, err)
	let := prog.Statements[0].(*ast.Let)
	rec, ok := let.Value.(*ast.RecordLit)
	require.True(t, ok)
	assert.Len(t, rec.Fields, 2)
	field, ok := prog.Statements[1].(*ast.Field)
	require.True(t, ok)
	assert.Equal(t, "port", field.Name)
}

func TestParseAsyncAwait(t *testing.T) {
	prog, err := Parse(`let f = async () => do { await sleep(1); 42 }; await f()`)
	require.NoError(t, err)
	let := prog.Statements[0].(*ast.Let)
	lambda := let.Value.(*ast.Lambda)
	assert.True(t, lambda.IsAsync)
	_, ok := prog.Statements[1].(*ast.Await)
	assert.True(t, ok)
}

func TestParseRange(t *testing.T) {
	prog, err := Parse(`1..=10 by 2`)
	require.NoError(t, err)
	r, ok := prog.Statements[0].(*ast.RangeLit)
	require.True(t, ok)
	assert.True(t, r.Inclusive)
	assert.NotNil(t, r.Step)
}

func TestParseTypeCheckAndAssert(t *testing.T) {
	prog, err := Parse(`let x: Number = 5; x is Number`)
	require.NoError(t, err)
	let := prog.Statements[0].(*ast.Let)
	assert.Equal(t, "Number", let.Type)
	tc, ok := prog.Statements[1].(*ast.TypeCheck)
	require.True(t, ok)
	assert.Equal(t, "Number", tc.TypeName)
}
