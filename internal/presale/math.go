package presale

import "math/bits"

// checkedAdd returns a+b or ArithmeticOverflow.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow.With("op", "add")
	}
	return sum, nil
}

// checkedMul returns a*b or ArithmeticOverflow.
func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow.With("op", "mul")
	}
	return lo, nil
}

// mulDivFloor returns floor(a*num/den) using a 128-bit intermediate.
// The caller guarantees num <= den, so the quotient always fits in 64 bits.
func mulDivFloor(a, num, den uint64) uint64 {
	hi, lo := bits.Mul64(a, num)
	q, _ := bits.Div64(hi, lo, den)
	return q
}
