package formula

import (
	"fmt"
	"strings"
)

// Format renders ast back to formula text (without the leading `=`), given
// the current position of the formula's own cell. Anchors resolve to
// target text purely from base+delta arithmetic, never touching an
// AxisIndex — an anchor whose base has been retired (dead formula) has no
// meaningful Format call in the first place, since a dead formula's cell
// holds Value(#REF!), not a Formula, per spec.md §4.5 step 1a. Mirrors the
// teacher's ToString() round-trip (parser.go), re-targeted from the
// teacher's debug REF(dRow,dCol) form to real A1 text with `$` markers.
func Format(ast Node, base Position) string {
	return ast.Format(base)
}

// formatAnchor renders a as A1 text: base shifted by the anchor's stored
// delta gives the target position directly, since the whole point of an
// anchor is that dRow/dCol are position deltas, not identifier deltas.
func formatAnchor(a Anchor, base Position) string {
	target := Position{Row: base.Row + a.DRow, Col: base.Col + a.DCol}
	return FormatResolved(target, a.RowMode, a.ColMode)
}

// FormatResolved renders a single resolved target position as A1 text.
func FormatResolved(target Position, rowMode, colMode Mode) string {
	var b strings.Builder
	if colMode == Abs {
		b.WriteByte('$')
	}
	b.WriteString(ColumnLetters(target.Col))
	if rowMode == Abs {
		b.WriteByte('$')
	}
	fmt.Fprintf(&b, "%d", target.Row)
	return b.String()
}

// ColumnLetters converts a 1-based column number to base-26 letters with no
// zero digit (A=1, Z=26, AA=27), per spec.md §6.
func ColumnLetters(col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

// ColumnNumber is the inverse of ColumnLetters.
func ColumnNumber(letters string) int {
	n := 0
	for i := 0; i < len(letters); i++ {
		n = n*26 + int(letters[i]-'A'+1)
	}
	return n
}

// ToDisplayString renders a scalar the way getSource/getValue callers
// display a value cell's contents: numbers without trailing zeros, bools
// as TRUE/FALSE, error codes as their sentinel text.
func ToDisplayString(v Scalar) string {
	return toDisplayString(v)
}

func toDisplayString(v Scalar) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case ErrorCode:
		return t.String()
	default:
		return ""
	}
}

// compareScalars orders two scalars the way the teacher's comparePrimitives
// does: numbers compare numerically, everything else falls back to string
// comparison so `=` and `<` never spuriously error out on e.g.
// number-vs-string. comparable is false only when either side is an
// ErrorCode (callers short-circuit on errors before reaching here in
// practice).
func compareScalars(a, b Scalar) (cmp int, comparable bool) {
	if _, ok := IsError(a); ok {
		return 0, false
	}
	if _, ok := IsError(b); ok {
		return 0, false
	}
	an, aok := ToNumber(a)
	bn, bok := ToNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	as, bs := toDisplayString(a), toDisplayString(b)
	return strings.Compare(as, bs), true
}
