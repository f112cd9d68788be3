package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivideEqually(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		count         int
		wantBase      int64
		wantRemainder int64
		wantErr       error
	}{
		{name: "evenly divisible", amount: 1000, count: 4, wantBase: 250, wantRemainder: 0},
		{name: "with remainder", amount: 1000, count: 3, wantBase: 333, wantRemainder: 1},
		{name: "amount smaller than count", amount: 1, count: 3, wantBase: 0, wantRemainder: 1},
		{name: "single participant", amount: 777, count: 1, wantBase: 777, wantRemainder: 0},
		{name: "zero amount", amount: 0, count: 5, wantBase: 0, wantRemainder: 0},
		{name: "zero count", amount: 100, count: 0, wantErr: ErrNonPositiveCount},
		{name: "negative count", amount: 100, count: -2, wantErr: ErrNonPositiveCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, remainder, err := DivideEqually(tt.amount, tt.count)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantRemainder, remainder)
		})
	}
}

func TestDivideEquallyReconstructsAmount(t *testing.T) {
	// base*count + remainder must reconstruct the original amount for
	// every combination, including amounts not evenly divisible.
	for amount := int64(0); amount <= 200; amount++ {
		for count := 1; count <= 13; count++ {
			base, remainder, err := DivideEqually(amount, count)
			assert.NoError(t, err)
			assert.Equal(t, amount, base*int64(count)+remainder,
				"amount=%d count=%d", amount, count)
			assert.GreaterOrEqual(t, remainder, int64(0))
			assert.Less(t, remainder, int64(count))
		}
	}
}

func TestSum(t *testing.T) {
	assert.Equal(t, int64(0), Sum(nil))
	assert.Equal(t, int64(0), Sum([]int64{}))
	assert.Equal(t, int64(600), Sum([]int64{100, 200, 300}))
	assert.Equal(t, int64(-50), Sum([]int64{100, -150}))

	// Order independence.
	assert.Equal(t, Sum([]int64{1, 2, 3}), Sum([]int64{3, 1, 2}))
}

func TestIsValidAmount(t *testing.T) {
	assert.True(t, IsValidAmount(1, 1, 10_000_000))
	assert.True(t, IsValidAmount(10_000_000, 1, 10_000_000))
	assert.False(t, IsValidAmount(0, 1, 10_000_000))
	assert.False(t, IsValidAmount(10_000_001, 1, 10_000_000))
	assert.False(t, IsValidAmount(-5, 1, 10_000_000))
}
