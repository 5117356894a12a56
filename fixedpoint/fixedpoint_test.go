package fixedpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NiHighlism/gophreads/fixedpoint"
)

func TestFromIntRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, -1, 63, -63, 131071} {
		got := fixedpoint.FromInt(n).ToIntZero()
		assert.Equal(t, n, got)
	}
}

func TestToIntNearestRoundsHalfAwayFromZero(t *testing.T) {
	half := fixedpoint.FromInt(1).DivInt(2) // 0.5
	assert.Equal(t, 1, half.ToIntNearest())
	assert.Equal(t, -1, (-half).ToIntNearest())
	assert.Equal(t, 0, half.ToIntZero())
}

func TestAddSub(t *testing.T) {
	a := fixedpoint.FromInt(5)
	b := fixedpoint.FromInt(3)
	assert.Equal(t, fixedpoint.FromInt(8), a.Add(b))
	assert.Equal(t, fixedpoint.FromInt(2), a.Sub(b))
	assert.Equal(t, fixedpoint.FromInt(8), a.AddInt(3))
	assert.Equal(t, fixedpoint.FromInt(2), a.SubInt(3))
}

func TestMulDivWidening(t *testing.T) {
	// The raw product of the two fixed-point words overflows int32 before
	// the f scale-down, while the result (100000) still fits the 17-bit
	// integer part, so only a widened multiply gets it right.
	a := fixedpoint.FromInt(1000)
	b := fixedpoint.FromInt(100)
	got := a.Mul(b)
	assert.Equal(t, fixedpoint.FromInt(100000), got)

	assert.Equal(t, fixedpoint.FromInt(10), fixedpoint.FromInt(100).Div(fixedpoint.FromInt(10)))
}

func TestMulIntDivInt(t *testing.T) {
	a := fixedpoint.FromInt(7)
	assert.Equal(t, fixedpoint.FromInt(21), a.MulInt(3))
	assert.Equal(t, fixedpoint.FromInt(7), a.MulInt(3).DivInt(3))
}

func TestScaled100Round(t *testing.T) {
	// load_avg of exactly 2.0 -> 200
	assert.Equal(t, 200, fixedpoint.FromInt(2).Scaled100Round())
	// load_avg of zero -> 0
	assert.Equal(t, 0, fixedpoint.FromInt(0).Scaled100Round())
}
