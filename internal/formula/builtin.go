package formula

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownFunction is the sentinel wrapped by Call when name doesn't match
// any dispatch case, distinguishing it from an arity/type error raised by a
// known function — the two collapse to different error codes at the
// FunctionCallNode.Eval boundary (#NAME! vs #VALUE!).
var ErrUnknownFunction = errors.New("formula: unknown function")

// ArgumentError reports a known function called with the wrong arity or
// argument shape, as opposed to an unrecognized function name.
type ArgumentError struct {
	Func string
	Msg  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("formula: %s: %s", e.Func, e.Msg)
}

// Clock is the injection seam for anything time-dependent, mirroring the
// teacher's Clock/WallClock (builtin.go) so a caller can freeze time in
// tests. No built-in function in the extended set (spec.md §4.4) is
// actually volatile yet, but the seam is kept alive here rather than
// dropped, the same way the teacher wires it through BuiltInFunctions even
// for the majority of calls that never touch it.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// RandomGenerator is the equivalent injection seam for randomness.
type RandomGenerator interface {
	Float64() float64
}

type defaultRandomGenerator struct{}

func (defaultRandomGenerator) Float64() float64 { return 0 }

// Functions dispatches built-in function calls by name. It implements
// EvalContext.Call's callee side; internal/engine holds one and forwards
// to it. Grounded on the teacher's BuiltInFunctions.Call (builtin.go),
// narrowed to the extended set spec.md §4.4 names as optional beyond
// SUM: AVERAGE, COUNT, MAX, MIN, IF, AND, OR, NOT.
type Functions struct {
	clock Clock
	rng   RandomGenerator
}

// NewFunctions builds the default dispatch table with real wall-clock time
// and a zero-valued random source.
func NewFunctions() *Functions {
	return &Functions{clock: wallClock{}, rng: defaultRandomGenerator{}}
}

// NewFunctionsWithSeams builds a dispatch table with injected Clock/
// RandomGenerator, for deterministic tests.
func NewFunctionsWithSeams(clock Clock, rng RandomGenerator) *Functions {
	return &Functions{clock: clock, rng: rng}
}

func (f *Functions) Call(name string, args []Scalar) (Scalar, error) {
	switch strings.ToUpper(name) {
	case "SUM":
		return f.sum(args), nil
	case "AVERAGE":
		return f.average(args)
	case "COUNT":
		return f.count(args), nil
	case "MAX":
		return f.max(args)
	case "MIN":
		return f.min(args)
	case "IF":
		return f.if_(args)
	case "AND":
		return f.and(args)
	case "OR":
		return f.or(args)
	case "NOT":
		return f.not(args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
}

// flatten expands range-argument slices ([]Scalar) alongside bare scalars
// into one flat sequence, the way the teacher's Range type-switch does in
// SUM/AVERAGE (builtin.go) before aggregating.
func flatten(args []Scalar) []Scalar {
	var out []Scalar
	for _, a := range args {
		if vs, ok := a.([]Scalar); ok {
			out = append(out, vs...)
			continue
		}
		out = append(out, a)
	}
	return out
}

func firstError(vs []Scalar) (ErrorCode, bool) {
	for _, v := range vs {
		if code, ok := IsError(v); ok {
			return code, true
		}
	}
	return 0, false
}

func (f *Functions) sum(args []Scalar) Scalar {
	vs := flatten(args)
	if code, ok := firstError(vs); ok {
		return code
	}
	total := 0.0
	for _, v := range vs {
		if v == nil {
			continue
		}
		if n, ok := ToNumber(v); ok {
			total += n
		}
	}
	return total
}

func (f *Functions) average(args []Scalar) (Scalar, error) {
	vs := flatten(args)
	if code, ok := firstError(vs); ok {
		return code, nil
	}
	total, count := 0.0, 0
	for _, v := range vs {
		if v == nil {
			continue
		}
		if n, ok := ToNumber(v); ok {
			total += n
			count++
		}
	}
	if count == 0 {
		return ErrDiv0, nil
	}
	return total / float64(count), nil
}

func (f *Functions) count(args []Scalar) Scalar {
	vs := flatten(args)
	n := 0
	for _, v := range vs {
		if v == nil {
			continue
		}
		if _, ok := ToNumber(v); ok {
			n++
		}
	}
	return float64(n)
}

func (f *Functions) max(args []Scalar) (Scalar, error) {
	vs := flatten(args)
	if code, ok := firstError(vs); ok {
		return code, nil
	}
	best, any := 0.0, false
	for _, v := range vs {
		if v == nil {
			continue
		}
		n, ok := ToNumber(v)
		if !ok {
			continue
		}
		if !any || n > best {
			best, any = n, true
		}
	}
	if !any {
		return 0.0, nil
	}
	return best, nil
}

func (f *Functions) min(args []Scalar) (Scalar, error) {
	vs := flatten(args)
	if code, ok := firstError(vs); ok {
		return code, nil
	}
	best, any := 0.0, false
	for _, v := range vs {
		if v == nil {
			continue
		}
		n, ok := ToNumber(v)
		if !ok {
			continue
		}
		if !any || n < best {
			best, any = n, true
		}
	}
	if !any {
		return 0.0, nil
	}
	return best, nil
}

func (f *Functions) if_(args []Scalar) (Scalar, error) {
	if len(args) < 2 {
		return nil, &ArgumentError{Func: "IF", Msg: "requires at least 2 arguments"}
	}
	if code, ok := IsError(args[0]); ok {
		return code, nil
	}
	if IsTruthy(args[0]) {
		return args[1], nil
	}
	if len(args) >= 3 {
		return args[2], nil
	}
	return false, nil
}

func (f *Functions) and(args []Scalar) (Scalar, error) {
	vs := flatten(args)
	if code, ok := firstError(vs); ok {
		return code, nil
	}
	for _, v := range vs {
		if !IsTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func (f *Functions) or(args []Scalar) (Scalar, error) {
	vs := flatten(args)
	if code, ok := firstError(vs); ok {
		return code, nil
	}
	for _, v := range vs {
		if IsTruthy(v) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Functions) not(args []Scalar) (Scalar, error) {
	if len(args) != 1 {
		return nil, &ArgumentError{Func: "NOT", Msg: "requires exactly 1 argument"}
	}
	if code, ok := IsError(args[0]); ok {
		return code, nil
	}
	return !IsTruthy(args[0]), nil
}
