// Package fixedpoint implements 17.14 signed fixed-point arithmetic, the
// format Pintos-style schedulers use to track load_avg and recent_cpu
// without a floating-point unit in interrupt context.
//
// The format packs a sign bit, 17 integer bits and 14 fractional bits into a
// single 32-bit word: f = 1<<14. Multiplication and division widen the
// intermediate to 64 bits so that f*f doesn't overflow int32.
package fixedpoint

// FP is a 17.14 signed fixed-point value.
type FP int32

// f is the scaling factor, 2^14.
const f = 1 << 14

// FromInt converts an integer to fixed-point.
func FromInt(n int) FP {
	return FP(n * f)
}

// ToIntZero converts to an integer, rounding toward zero.
func (x FP) ToIntZero() int {
	return int(x) / f
}

// ToIntNearest converts to an integer, rounding to the nearest integer,
// rounding half away from zero.
func (x FP) ToIntNearest() int {
	if x >= 0 {
		return int(x+f/2) / f
	}
	return int(x-f/2) / f
}

// Add returns x + y.
func (x FP) Add(y FP) FP {
	return x + y
}

// Sub returns x - y.
func (x FP) Sub(y FP) FP {
	return x - y
}

// AddInt returns x + n, with n converted to fixed-point first.
func (x FP) AddInt(n int) FP {
	return x + FromInt(n)
}

// SubInt returns x - n, with n converted to fixed-point first.
func (x FP) SubInt(n int) FP {
	return x - FromInt(n)
}

// FromRatio returns num/den as fixed-point, e.g. FromRatio(59, 60) for the
// load_avg decay coefficient.
func FromRatio(num, den int) FP {
	return FP(int64(num) * f / int64(den))
}

// Mul returns x * y, widening the intermediate product to avoid overflow.
func (x FP) Mul(y FP) FP {
	return FP((int64(x) * int64(y)) / f)
}

// Div returns x / y, widening the intermediate dividend to avoid overflow.
func (x FP) Div(y FP) FP {
	return FP((int64(x) * f) / int64(y))
}

// MulInt returns x * n without widening; n is a plain integer, not fixed-point.
func (x FP) MulInt(n int) FP {
	return x * FP(n)
}

// DivInt returns x / n without widening; n is a plain integer, not fixed-point.
func (x FP) DivInt(n int) FP {
	return x / FP(n)
}

// Scaled100Round returns x*100 rounded to the nearest integer, the exact
// transform get_load_avg and get_recent_cpu apply before returning to callers.
func (x FP) Scaled100Round() int {
	return x.MulInt(100).ToIntNearest()
}
