// Package formula owns the position-independent formula representation:
// anchors, the AST, and the text parser/printer that translate between the
// two. Nothing in this package touches CellStore or DepGraph directly — it
// is handed an EvalContext by the caller (internal/engine) and reads
// through it, mirroring the way the teacher's ASTNode.Eval(s *Spreadsheet)
// takes its host as a parameter rather than closing over it.
package formula

import (
	"strconv"
	"strings"
)

// ErrorCode enumerates the in-band error sentinels a cell can hold,
// following the teacher's ErrorCode/ErrorMapper split (cell.go) but
// narrowed to the sentinels spec.md names.
type ErrorCode uint8

const (
	ErrRef ErrorCode = iota + 1
	ErrCycle
	ErrDiv0
	ErrName
	ErrValue
	ErrNum
)

var errorText = map[ErrorCode]string{
	ErrRef:   "#REF!",
	ErrCycle: "#CYCLE!",
	ErrDiv0:  "#DIV0!",
	ErrName:  "#NAME!",
	ErrValue: "#VALUE!",
	ErrNum:   "#NUM!",
}

func (c ErrorCode) String() string {
	if s, ok := errorText[c]; ok {
		return s
	}
	return "#ERROR!"
}

// Scalar is the tagged variant a cell or expression evaluates to: a
// float64, a string, a bool, or an ErrorCode. Kept as `any` rather than a
// struct-with-Kind (the teacher's Primitive is likewise a bare `any`,
// cell.go) since Go's type switch over a small closed set of concrete types
// is the idiom the whole pack reaches for instead of a hand-rolled tagged
// union.
type Scalar = any

// IsError reports whether v holds an ErrorCode.
func IsError(v Scalar) (ErrorCode, bool) {
	code, ok := v.(ErrorCode)
	return code, ok
}

// ToNumber coerces v to a float64 following the teacher's toNumber
// (builtin.go): numbers pass through, bools become 1/0, numeric strings
// parse, everything else fails.
func ToNumber(v Scalar) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsTruthy mirrors the teacher's isTruthy: numbers are truthy iff nonzero,
// strings iff non-empty and not "FALSE" (case-insensitive), bools as-is.
func IsTruthy(v Scalar) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && !strings.EqualFold(t, "FALSE")
	default:
		return false
	}
}
