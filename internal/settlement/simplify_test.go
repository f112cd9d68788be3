package settlement

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyDebts(t *testing.T) {
	t.Run("two debtors one creditor", func(t *testing.T) {
		payments, err := SimplifyDebts(map[int64]int64{1: 700, 2: -300, 3: -400})
		require.NoError(t, err)

		// Largest debtor pairs with the largest creditor first.
		require.Len(t, payments, 2)
		assert.Equal(t, int64(3), payments[0].FromMemberID)
		assert.Equal(t, int64(1), payments[0].ToMemberID)
		assert.Equal(t, int64(400), payments[0].Amount)
		assert.Equal(t, int64(2), payments[1].FromMemberID)
		assert.Equal(t, int64(1), payments[1].ToMemberID)
		assert.Equal(t, int64(300), payments[1].Amount)
	})

	t.Run("all zero balances produce no payments", func(t *testing.T) {
		payments, err := SimplifyDebts(map[int64]int64{1: 0, 2: 0, 3: 0})
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("empty input produces no payments", func(t *testing.T) {
		payments, err := SimplifyDebts(nil)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("equal debts break ties by smaller member ID", func(t *testing.T) {
		payments, err := SimplifyDebts(map[int64]int64{5: -100, 2: -100, 1: 200})
		require.NoError(t, err)

		require.Len(t, payments, 2)
		assert.Equal(t, int64(2), payments[0].FromMemberID)
		assert.Equal(t, int64(5), payments[1].FromMemberID)
	})

	t.Run("equal credits break ties by smaller member ID", func(t *testing.T) {
		payments, err := SimplifyDebts(map[int64]int64{3: 150, 7: 150, 1: -300})
		require.NoError(t, err)

		require.Len(t, payments, 2)
		assert.Equal(t, int64(3), payments[0].ToMemberID)
		assert.Equal(t, int64(7), payments[1].ToMemberID)
	})

	t.Run("non zero sum input is rejected", func(t *testing.T) {
		_, err := SimplifyDebts(map[int64]int64{1: 100, 2: -99})
		assert.ErrorIs(t, err, ErrResidualBalance)
	})
}

// Replaying the payments against the input balances must clear every
// member to exactly zero, with at most n-1 payments for n nonzero
// balances and every amount positive.
func TestSimplifyDebtsClearsBalances(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 500; trial++ {
		n := 2 + rng.Intn(9)
		net := make(map[int64]int64, n)
		var total int64
		for id := int64(1); id < int64(n); id++ {
			v := rng.Int63n(20_001) - 10_000
			net[id] = v
			total += v
		}
		net[int64(n)] = -total

		nonzero := 0
		for _, v := range net {
			if v != 0 {
				nonzero++
			}
		}

		payments, err := SimplifyDebts(net)
		require.NoError(t, err)

		if nonzero > 0 {
			require.LessOrEqual(t, len(payments), nonzero-1)
		}

		replay := make(map[int64]int64, n)
		for id, v := range net {
			replay[id] = v
		}
		for _, p := range payments {
			require.Positive(t, p.Amount)
			replay[p.FromMemberID] += p.Amount
			replay[p.ToMemberID] -= p.Amount
		}
		for id, v := range replay {
			require.Zerof(t, v, "member %d not cleared", id)
		}
	}
}
