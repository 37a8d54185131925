package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/sheetcore/internal/axis"
)

// fakeCtx is a minimal EvalContext for exercising node Eval logic in
// isolation from internal/engine. Values are stored in a plain map keyed
// by identifier Address; set takes positions and maps them to identifiers
// through the fake's own AxisIndexes.
type fakeCtx struct {
	rows   *axis.Index
	cols   *axis.Index
	values map[Address]Scalar
	fns    *Functions
}

func newFakeCtx(nRows, nCols int) *fakeCtx {
	return &fakeCtx{
		rows:   axis.New(nRows),
		cols:   axis.New(nCols),
		values: make(map[Address]Scalar),
		fns:    NewFunctions(),
	}
}

func (c *fakeCtx) Rows() *axis.Index { return c.rows }
func (c *fakeCtx) Cols() *axis.Index { return c.cols }

func (c *fakeCtx) set(row, col int, v Scalar) {
	rid, _ := c.rows.PosToId(row)
	cid, _ := c.cols.PosToId(col)
	c.values[Address{Row: rid, Col: cid}] = v
}

func (c *fakeCtx) ValueAt(addr Address) Scalar { return c.values[addr] }

func (c *fakeCtx) IterateRect(rect ResolvedRect, fn func(Scalar)) {
	minRowPos, _ := c.rows.IdToPos(rect.MinRow)
	maxRowPos, _ := c.rows.IdToPos(rect.MaxRow)
	minColPos, _ := c.cols.IdToPos(rect.MinCol)
	maxColPos, _ := c.cols.IdToPos(rect.MaxCol)
	for r := minRowPos; r <= maxRowPos; r++ {
		for cc := minColPos; cc <= maxColPos; cc++ {
			rid, _ := c.rows.PosToId(r)
			cid, _ := c.cols.PosToId(cc)
			fn(c.values[Address{Row: rid, Col: cid}])
		}
	}
}

func (c *fakeCtx) Call(name string, args []Scalar) (Scalar, error) {
	return c.fns.Call(name, args)
}

func anchorAt(ctx *fakeCtx, baseRow, baseCol, targetRow, targetCol int) Anchor {
	brid, _ := ctx.rows.PosToId(baseRow)
	bcid, _ := ctx.cols.PosToId(baseCol)
	return Anchor{BaseRow: brid, BaseCol: bcid, DRow: targetRow - baseRow, DCol: targetCol - baseCol}
}

func TestLiteralNodeEval(t *testing.T) {
	ctx := newFakeCtx(3, 3)
	n := &LiteralNode{Value: 7.0}
	assert.Equal(t, 7.0, n.Eval(ctx))
}

func TestRefNodeEvalReadsThroughContext(t *testing.T) {
	ctx := newFakeCtx(5, 5)
	ctx.set(2, 2, 9.0)
	n := &RefNode{Ref: anchorAt(ctx, 1, 1, 2, 2)}
	assert.Equal(t, 9.0, n.Eval(ctx))
}

func TestRefNodeEvalErrRefWhenBaseDead(t *testing.T) {
	ctx := newFakeCtx(3, 3)
	dead := anchorAt(ctx, 1, 1, 2, 2)
	ctx.rows.Remove(1, 1)
	n := &RefNode{Ref: dead}
	assert.Equal(t, ErrRef, n.Eval(ctx))
}

func TestSumNodeEvalSkipsEmptyAndPropagatesErrors(t *testing.T) {
	ctx := newFakeCtx(5, 1)
	ctx.set(1, 1, 1.0)
	ctx.set(3, 1, 3.0)
	rr := RangeRef{Start: anchorAt(ctx, 1, 1, 1, 1), End: anchorAt(ctx, 1, 1, 5, 1)}
	sum := &SumNode{Range: RangeNode{Ref: rr}}
	assert.Equal(t, 4.0, sum.Eval(ctx))

	ctx.set(2, 1, ErrDiv0)
	assert.Equal(t, ErrDiv0, sum.Eval(ctx))
}

func TestBinaryOpNodeArithmeticAndErrorPropagation(t *testing.T) {
	ctx := newFakeCtx(1, 1)
	add := &BinaryOpNode{Op: OpAdd, Left: &LiteralNode{Value: 2.0}, Right: &LiteralNode{Value: 3.0}}
	assert.Equal(t, 5.0, add.Eval(ctx))

	div0 := &BinaryOpNode{Op: OpDiv, Left: &LiteralNode{Value: 1.0}, Right: &LiteralNode{Value: 0.0}}
	assert.Equal(t, ErrDiv0, div0.Eval(ctx))

	errProp := &BinaryOpNode{Op: OpAdd, Left: &LiteralNode{Value: ErrName}, Right: &LiteralNode{Value: 1.0}}
	assert.Equal(t, ErrName, errProp.Eval(ctx))
}

func TestBinaryOpNodeComparisonAndConcat(t *testing.T) {
	ctx := newFakeCtx(1, 1)
	eq := &BinaryOpNode{Op: OpEq, Left: &LiteralNode{Value: 1.0}, Right: &LiteralNode{Value: 1.0}}
	assert.Equal(t, true, eq.Eval(ctx))

	concat := &BinaryOpNode{Op: OpConcat, Left: &LiteralNode{Value: "a"}, Right: &LiteralNode{Value: "b"}}
	assert.Equal(t, "ab", concat.Eval(ctx))
}

func TestUnaryOpNodeNegAndPercent(t *testing.T) {
	ctx := newFakeCtx(1, 1)
	neg := &UnaryOpNode{Op: OpNeg, Operand: &LiteralNode{Value: 4.0}}
	assert.Equal(t, -4.0, neg.Eval(ctx))
	pct := &UnaryOpNode{Op: OpPct, Operand: &LiteralNode{Value: 50.0}}
	assert.Equal(t, 0.5, pct.Eval(ctx))
}

func TestFunctionCallNodeEvalWithRangeArg(t *testing.T) {
	ctx := newFakeCtx(3, 1)
	ctx.set(1, 1, 1.0)
	ctx.set(2, 1, 2.0)
	ctx.set(3, 1, 3.0)
	rr := RangeRef{Start: anchorAt(ctx, 1, 1, 1, 1), End: anchorAt(ctx, 1, 1, 3, 1)}
	call := &FunctionCallNode{Name: "AVERAGE", Args: []Node{&RangeNode{Ref: rr}}}
	assert.Equal(t, 2.0, call.Eval(ctx))
}

func TestFunctionCallNodeUnknownNameYieldsErrName(t *testing.T) {
	ctx := newFakeCtx(1, 1)
	call := &FunctionCallNode{Name: "BOGUS"}
	assert.Equal(t, ErrName, call.Eval(ctx))
}

func TestFunctionCallNodeWrongArityYieldsErrValue(t *testing.T) {
	ctx := newFakeCtx(1, 1)
	call := &FunctionCallNode{Name: "IF", Args: []Node{&LiteralNode{Value: true}}}
	assert.Equal(t, ErrValue, call.Eval(ctx))
}

func TestWalkVisitsEveryNode(t *testing.T) {
	tree := &BinaryOpNode{
		Op:    OpAdd,
		Left:  &LiteralNode{Value: 1.0},
		Right: &UnaryOpNode{Op: OpNeg, Operand: &LiteralNode{Value: 2.0}},
	}
	var count int
	tree.Walk(func(Node) { count++ })
	assert.Equal(t, 4, count) // binary + left literal + unary + its operand

	require.NotNil(t, tree)
}

func TestAnchorsCollectsFromRangeNode(t *testing.T) {
	ctx := newFakeCtx(3, 3)
	rr := RangeRef{Start: anchorAt(ctx, 1, 1, 1, 1), End: anchorAt(ctx, 1, 1, 2, 2)}
	rn := &RangeNode{Ref: rr}
	var got []*Anchor
	rn.Anchors(func(a *Anchor) { got = append(got, a) })
	assert.Len(t, got, 2)
}
