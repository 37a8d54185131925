package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vogtb/sheetcore/internal/axis"
)

// EvalContext is the host an AST node reads through to resolve references
// and call functions, mirroring the teacher's `Eval(s *Spreadsheet)`
// (parser.go) — the node itself carries no reference to its host, only to
// its own children, so the same AST can be re-evaluated against a mutated
// sheet without reconstruction.
type EvalContext interface {
	Rows() *axis.Index
	Cols() *axis.Index
	// ValueAt returns the current scalar at addr: the cached value of a
	// formula cell, the stored value of a value cell, or nil for an empty
	// cell.
	ValueAt(addr Address) Scalar
	// IterateRect calls fn once per cell inside rect, including empty
	// addresses (fn receives nil for those), row-major.
	IterateRect(rect ResolvedRect, fn func(Scalar))
	// Call invokes a built-in function by name.
	Call(name string, args []Scalar) (Scalar, error)
}

// Node is the AST element interface. Every node type upholds the same
// recalculation and splice-transformation contract, per spec.md §3's note
// that the minimal Ref|Sum grammar may be extended uniformly.
type Node interface {
	Eval(ctx EvalContext) Scalar
	// Anchors calls fn once per Anchor reachable directly in this node
	// (not recursing into children — callers that need every anchor in a
	// tree recurse themselves via Walk).
	Anchors(fn func(*Anchor))
	// Walk calls fn once for this node and once for every descendant,
	// pre-order.
	Walk(fn func(Node))
	// Format renders the node back to formula text. base is the current
	// position of the formula's own cell: anchors store deltas from base,
	// so printing an anchor's target column/row letters only needs
	// base+delta, never an axis lookup (spec.md §6's Format(ast, base)
	// contract).
	Format(base Position) string
}

// LiteralNode is a constant number, string, or bool. It carries no anchor,
// so splice transformation never touches it (spec.md's supplemental data
// model, SPEC_FULL.md §3).
type LiteralNode struct {
	Value Scalar
}

func (n *LiteralNode) Eval(ctx EvalContext) Scalar { return n.Value }
func (n *LiteralNode) Anchors(fn func(*Anchor))    {}
func (n *LiteralNode) Walk(fn func(Node))          { fn(n) }
func (n *LiteralNode) Format(base Position) string {
	switch v := n.Value.(type) {
	case string:
		return "\"" + strings.ReplaceAll(v, "\"", "\"\"") + "\""
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

// RefNode is a single-cell reference.
type RefNode struct {
	Ref Anchor
}

func (n *RefNode) Eval(ctx EvalContext) Scalar {
	addr, ok := n.Ref.Resolve(ctx.Rows(), ctx.Cols())
	if !ok {
		return ErrRef
	}
	if v := ctx.ValueAt(addr); v != nil {
		return v
	}
	return 0.0
}

func (n *RefNode) Anchors(fn func(*Anchor))        { fn(&n.Ref) }
func (n *RefNode) Walk(fn func(Node))              { fn(n) }
func (n *RefNode) Format(base Position) string     { return formatAnchor(n.Ref, base) }

// RangeNode is a rectangular range used as a bare expression (e.g. inside a
// function call argument list). Evaluating it directly (outside a
// range-aware function) yields #VALUE!, matching the teacher's convention
// that a Range is a distinct type from a Primitive (range.go's Range
// interface vs. Primitive).
type RangeNode struct {
	Ref RangeRef
}

func (n *RangeNode) Eval(ctx EvalContext) Scalar {
	return ErrValue
}

func (n *RangeNode) Anchors(fn func(*Anchor)) {
	fn(&n.Ref.Start)
	fn(&n.Ref.End)
}
func (n *RangeNode) Walk(fn func(Node)) { fn(n) }
func (n *RangeNode) Format(base Position) string {
	return formatAnchor(n.Ref.Start, base) + ":" + formatAnchor(n.Ref.End, base)
}

// values collects a range's cell values into a slice, the shared plumbing
// SumNode and the extended aggregate functions need.
func (n *RangeNode) values(ctx EvalContext) ([]Scalar, bool) {
	rect, ok := n.Ref.Resolve(ctx.Rows(), ctx.Cols())
	if !ok {
		return nil, false
	}
	var out []Scalar
	ctx.IterateRect(rect, func(v Scalar) { out = append(out, v) })
	return out, true
}

// SumNode is the spec's minimal Sum(range) form, kept as its own node
// rather than desugared to FunctionCallNode{"SUM", ...}. Its range anchors
// belong to the child RangeNode, which Walk visits; recalc re-resolves the
// ranges of every formula, not only of SumNodes.
type SumNode struct {
	Range RangeNode
}

func (n *SumNode) Eval(ctx EvalContext) Scalar {
	values, ok := n.Range.values(ctx)
	if !ok {
		return ErrRef
	}
	sum := 0.0
	for _, v := range values {
		if v == nil {
			continue
		}
		if code, isErr := IsError(v); isErr {
			return code
		}
		if num, ok := ToNumber(v); ok {
			sum += num
		}
	}
	return sum
}

func (n *SumNode) Anchors(fn func(*Anchor)) {}
func (n *SumNode) Walk(fn func(Node))       { fn(n); fn(&n.Range) }
func (n *SumNode) Format(base Position) string {
	return "SUM(" + n.Range.Format(base) + ")"
}

// BinaryOp enumerates arithmetic, comparison, and concatenation operators,
// grounded on the teacher's BinaryOp (lexer.go).
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var binaryOpText = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^", OpConcat: "&",
	OpEq: "=", OpNe: "<>", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
}

// BinaryOpNode is a binary arithmetic/comparison/concat expression.
type BinaryOpNode struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (n *BinaryOpNode) Eval(ctx EvalContext) Scalar {
	left := n.Left.Eval(ctx)
	if code, ok := IsError(left); ok {
		return code
	}
	right := n.Right.Eval(ctx)
	if code, ok := IsError(right); ok {
		return code
	}
	switch n.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpPow:
		l, lok := ToNumber(left)
		r, rok := ToNumber(right)
		if !lok || !rok {
			return ErrValue
		}
		switch n.Op {
		case OpAdd:
			return l + r
		case OpSub:
			return l - r
		case OpMul:
			return l * r
		case OpDiv:
			if r == 0 {
				return ErrDiv0
			}
			return l / r
		case OpPow:
			return math.Pow(l, r)
		}
	case OpConcat:
		return toDisplayString(left) + toDisplayString(right)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		cmp, comparable := compareScalars(left, right)
		if !comparable {
			return ErrValue
		}
		switch n.Op {
		case OpEq:
			return cmp == 0
		case OpNe:
			return cmp != 0
		case OpLt:
			return cmp < 0
		case OpLe:
			return cmp <= 0
		case OpGt:
			return cmp > 0
		case OpGe:
			return cmp >= 0
		}
	}
	return ErrValue
}

func (n *BinaryOpNode) Anchors(fn func(*Anchor)) {}
func (n *BinaryOpNode) Walk(fn func(Node)) {
	fn(n)
	n.Left.Walk(fn)
	n.Right.Walk(fn)
}
func (n *BinaryOpNode) Format(base Position) string {
	return "(" + n.Left.Format(base) + binaryOpText[n.Op] + n.Right.Format(base) + ")"
}

// UnaryOp enumerates the prefix/postfix unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpPos
	OpPct
)

// UnaryOpNode is a unary +/-/% expression.
type UnaryOpNode struct {
	Op      UnaryOp
	Operand Node
}

func (n *UnaryOpNode) Eval(ctx EvalContext) Scalar {
	v := n.Operand.Eval(ctx)
	if code, ok := IsError(v); ok {
		return code
	}
	num, ok := ToNumber(v)
	if !ok {
		return ErrValue
	}
	switch n.Op {
	case OpNeg:
		return -num
	case OpPos:
		return num
	case OpPct:
		return num / 100.0
	default:
		return ErrValue
	}
}

func (n *UnaryOpNode) Anchors(fn func(*Anchor)) {}
func (n *UnaryOpNode) Walk(fn func(Node)) {
	fn(n)
	n.Operand.Walk(fn)
}
func (n *UnaryOpNode) Format(base Position) string {
	if n.Op == OpPct {
		return "(" + n.Operand.Format(base) + "%)"
	}
	if n.Op == OpNeg {
		return "-" + n.Operand.Format(base)
	}
	return "+" + n.Operand.Format(base)
}

// FunctionCallNode is a named function invocation. Range arguments are
// passed through as evaluated slices so functions can distinguish "argument
// is a range" from "argument is a scalar", matching the teacher's dedicated
// Range type (range.go) rather than flattening at parse time.
type FunctionCallNode struct {
	Name string
	Args []Node
}

func (n *FunctionCallNode) Eval(ctx EvalContext) Scalar {
	args := make([]Scalar, len(n.Args))
	for i, a := range n.Args {
		if rn, ok := a.(*RangeNode); ok {
			values, ok := rn.values(ctx)
			if !ok {
				return ErrRef
			}
			args[i] = values
			continue
		}
		v := a.Eval(ctx)
		if code, isErr := IsError(v); isErr {
			return code
		}
		args[i] = v
	}
	result, err := ctx.Call(n.Name, args)
	if err != nil {
		if errors.Is(err, ErrUnknownFunction) {
			return ErrName
		}
		return ErrValue
	}
	return result
}

func (n *FunctionCallNode) Anchors(fn func(*Anchor)) {}
func (n *FunctionCallNode) Walk(fn func(Node)) {
	fn(n)
	for _, a := range n.Args {
		a.Walk(fn)
	}
}
func (n *FunctionCallNode) Format(base Position) string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Format(base)
	}
	return n.Name + "(" + strings.Join(parts, ",") + ")"
}
