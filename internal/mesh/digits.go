package mesh

// numDigits counts the decimal digits of v. Zero counts as one digit.
func numDigits(v uint64) uint {
	n := uint(0)
	for {
		n++
		v /= 10
		if v == 0 {
			return n
		}
	}
}

func pow10(n uint) uint64 {
	out := uint64(1)
	for ; n > 0; n-- {
		out *= 10
	}
	return out
}

// digitSlice extracts the decimal digits of code in the half-open range
// [start, stop), counted from the most significant digit. Positions past
// the end of the number yield 0. Both the encoder tests and the decoder
// rely on this one primitive so the two stay inverses of each other.
func digitSlice(code uint64, start, stop uint) uint64 {
	n := numDigits(code)
	if n < stop {
		return 0
	}
	return (code % pow10(n-start)) / pow10(n-stop)
}
