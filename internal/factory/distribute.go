package factory

import "fmt"

// Distribute splits total into n parts that differ by at most one. The first
// total%n parts receive the extra unit, so the result is stable for a given input
// order. n == 0 means there is nothing to distribute and yields a nil slice.
func Distribute(total, n int) ([]int, error) {
	if total < 0 || n < 0 {
		return nil, fmt.Errorf("%w: cannot distribute %d across %d parts", ErrInvalidInput, total, n)
	}
	if n == 0 {
		return nil, nil
	}

	base, extra := total/n, total%n
	parts := make([]int, n)
	for i := range parts {
		parts[i] = base
		if i < extra {
			parts[i]++
		}
	}
	return parts, nil
}
