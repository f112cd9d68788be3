// Package money provides integer-safe arithmetic for yen amounts.
// All amounts in the system are int64 values in the smallest currency
// unit; this package never touches floating point.
package money

import "errors"

// Common errors
var (
	ErrNonPositiveCount = errors.New("count must be positive")
)

// DivideEqually splits amount into count equal integer parts.
// It returns the base share (floor of amount/count) and the remainder,
// so that base*count + remainder == amount always holds.
func DivideEqually(amount int64, count int) (base int64, remainder int64, err error) {
	if count <= 0 {
		return 0, 0, ErrNonPositiveCount
	}
	n := int64(count)
	base = amount / n
	remainder = amount - base*n
	return base, remainder, nil
}

// Sum returns the total of the given amounts. Empty input sums to 0.
func Sum(amounts []int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}

// IsValidAmount reports whether amount lies in the inclusive range [min, max].
func IsValidAmount(amount, min, max int64) bool {
	return amount >= min && amount <= max
}
