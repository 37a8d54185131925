package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "#REF!", ErrRef.String())
	assert.Equal(t, "#DIV0!", ErrDiv0.String())
	assert.Equal(t, "#ERROR!", ErrorCode(99).String())
}

func TestIsError(t *testing.T) {
	code, ok := IsError(ErrValue)
	assert.True(t, ok)
	assert.Equal(t, ErrValue, code)

	_, ok = IsError(5.0)
	assert.False(t, ok)
}

func TestToNumber(t *testing.T) {
	n, ok := ToNumber(5.0)
	assert.True(t, ok)
	assert.Equal(t, 5.0, n)

	n, ok = ToNumber(true)
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)

	n, ok = ToNumber("3.5")
	assert.True(t, ok)
	assert.Equal(t, 3.5, n)

	_, ok = ToNumber("not a number")
	assert.False(t, ok)

	_, ok = ToNumber(nil)
	assert.False(t, ok)
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, IsTruthy(true))
	assert.False(t, IsTruthy(false))
	assert.True(t, IsTruthy(1.0))
	assert.False(t, IsTruthy(0.0))
	assert.True(t, IsTruthy("x"))
	assert.False(t, IsTruthy(""))
	assert.False(t, IsTruthy("FALSE"))
	assert.False(t, IsTruthy(nil))
}
