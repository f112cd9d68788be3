package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratioPtr(v int64) *int64  { return &v }
func amountPtr(v int64) *int64 { return &v }

func participants(ids ...int64) []Participant {
	ps := make([]Participant, len(ids))
	for i, id := range ids {
		ps[i] = Participant{MemberID: id}
	}
	return ps
}

func shareSum(shares []Share) int64 {
	var total int64
	for _, s := range shares {
		total += s.Amount
	}
	return total
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	for _, method := range []Method{MethodEqual, MethodRatio, MethodAmount, MethodFull} {
		strategy, err := f.Create(method)
		require.NoError(t, err)
		assert.Equal(t, method, strategy.Method())
	}

	_, err := f.CreateFromString("HALFSIES")
	assert.Error(t, err)
}

func TestEqualStrategy(t *testing.T) {
	s := &EqualStrategy{}

	t.Run("1000 yen across three people", func(t *testing.T) {
		shares, err := s.Calculate(1000, participants(1, 2, 3))
		require.NoError(t, err)
		// The single leftover yen goes to the first participant.
		assert.Equal(t, []Share{{1, 334}, {2, 333}, {3, 333}}, shares)
	})

	t.Run("remainder distributed in input order", func(t *testing.T) {
		shares, err := s.Calculate(1001, participants(7, 5, 3))
		require.NoError(t, err)
		assert.Equal(t, []Share{{7, 334}, {5, 334}, {3, 333}}, shares)

		// Reversed input order moves the extra yen with it.
		shares, err = s.Calculate(1001, participants(3, 5, 7))
		require.NoError(t, err)
		assert.Equal(t, []Share{{3, 334}, {5, 334}, {7, 333}}, shares)
	})

	t.Run("one yen among many", func(t *testing.T) {
		shares, err := s.Calculate(1, participants(1, 2, 3, 4, 5))
		require.NoError(t, err)
		assert.Equal(t, []Share{{1, 1}, {2, 0}, {3, 0}, {4, 0}, {5, 0}}, shares)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := s.Calculate(0, participants(1))
		assert.ErrorIs(t, err, ErrNonPositiveAmount)

		_, err = s.Calculate(-100, participants(1))
		assert.ErrorIs(t, err, ErrNonPositiveAmount)

		_, err = s.Calculate(100, nil)
		assert.ErrorIs(t, err, ErrNoParticipants)

		_, err = s.Calculate(100, participants(1, 2, 1))
		assert.ErrorIs(t, err, ErrDuplicateParticipant)
	})
}

func TestEqualStrategyExactness(t *testing.T) {
	s := &EqualStrategy{}

	for _, amount := range []int64{1, 2, 7, 99, 100, 999, 1000, 1001, 123457} {
		for n := 1; n <= 12; n++ {
			ids := make([]int64, n)
			for i := range ids {
				ids[i] = int64(i + 1)
			}
			shares, err := s.Calculate(amount, participants(ids...))
			require.NoError(t, err)
			require.Equal(t, amount, shareSum(shares), "amount=%d n=%d", amount, n)

			base := amount / int64(n)
			extras := 0
			for _, sh := range shares {
				if sh.Amount == base+1 {
					extras++
				} else {
					require.Equal(t, base, sh.Amount, "amount=%d n=%d", amount, n)
				}
			}
			require.Equal(t, int(amount%int64(n)), extras, "amount=%d n=%d", amount, n)
		}
	}
}

func TestRatioStrategy(t *testing.T) {
	s := &RatioStrategy{}

	t.Run("exact 60/40 split", func(t *testing.T) {
		shares, err := s.Calculate(1000, []Participant{
			{MemberID: 1, Ratio: ratioPtr(60)},
			{MemberID: 2, Ratio: ratioPtr(40)},
		})
		require.NoError(t, err)
		assert.Equal(t, []Share{{1, 600}, {2, 400}}, shares)
	})

	t.Run("33/33/34 of 100 needs no adjustment", func(t *testing.T) {
		shares, err := s.Calculate(100, []Participant{
			{MemberID: 1, Ratio: ratioPtr(33)},
			{MemberID: 2, Ratio: ratioPtr(33)},
			{MemberID: 3, Ratio: ratioPtr(34)},
		})
		require.NoError(t, err)
		// Raw floors already sum to 100, so nothing is redistributed.
		assert.Equal(t, []Share{{1, 33}, {2, 33}, {3, 34}}, shares)
	})

	t.Run("shortfall goes to largest remainders first", func(t *testing.T) {
		// 101 * 33 = 3333 -> 33 r33; 101 * 34 = 3434 -> 34 r34.
		// Shortfall is 1, so member 3 (remainder 34) gets the extra yen.
		shares, err := s.Calculate(101, []Participant{
			{MemberID: 1, Ratio: ratioPtr(33)},
			{MemberID: 2, Ratio: ratioPtr(33)},
			{MemberID: 3, Ratio: ratioPtr(34)},
		})
		require.NoError(t, err)
		assert.Equal(t, []Share{{1, 33}, {2, 33}, {3, 35}}, shares)
	})

	t.Run("remainder ties break by input order", func(t *testing.T) {
		// 50 * 50 = 2500 -> 25 r0 each for the even case; use 25 instead:
		// 25 * 50 = 1250 -> 12 r50 for both, shortfall 1 goes to the first.
		shares, err := s.Calculate(25, []Participant{
			{MemberID: 9, Ratio: ratioPtr(50)},
			{MemberID: 4, Ratio: ratioPtr(50)},
		})
		require.NoError(t, err)
		assert.Equal(t, []Share{{9, 13}, {4, 12}}, shares)
	})

	t.Run("invalid ratios", func(t *testing.T) {
		_, err := s.Calculate(100, []Participant{
			{MemberID: 1, Ratio: ratioPtr(60)},
			{MemberID: 2, Ratio: ratioPtr(30)},
		})
		assert.ErrorIs(t, err, ErrInvalidRatios)

		_, err = s.Calculate(100, []Participant{
			{MemberID: 1, Ratio: ratioPtr(110)},
			{MemberID: 2, Ratio: ratioPtr(-10)},
		})
		assert.ErrorIs(t, err, ErrRatioOutOfRange)

		_, err = s.Calculate(100, []Participant{
			{MemberID: 1, Ratio: ratioPtr(50)},
			{MemberID: 2},
		})
		assert.ErrorIs(t, err, ErrMissingRatio)
	})
}

func TestRatioStrategyExactness(t *testing.T) {
	s := &RatioStrategy{}

	weights := [][]int64{
		{100},
		{50, 50},
		{60, 40},
		{33, 33, 34},
		{1, 1, 98},
		{7, 13, 80},
		{25, 25, 25, 25},
		{11, 22, 33, 34},
	}

	for _, ws := range weights {
		for _, amount := range []int64{1, 3, 99, 100, 101, 999, 1000, 54321} {
			ps := make([]Participant, len(ws))
			for i, w := range ws {
				ps[i] = Participant{MemberID: int64(i + 1), Ratio: ratioPtr(w)}
			}
			shares, err := s.Calculate(amount, ps)
			require.NoError(t, err)
			require.Equal(t, amount, shareSum(shares), "amount=%d weights=%v", amount, ws)

			// No share may drift more than one yen from the ideal value.
			for i, sh := range shares {
				ideal := amount * ws[i] / 100
				diff := sh.Amount - ideal
				require.True(t, diff == 0 || diff == 1,
					"amount=%d weights=%v member=%d diff=%d", amount, ws, i+1, diff)
			}
		}
	}
}

func TestAmountStrategy(t *testing.T) {
	s := &AmountStrategy{}

	t.Run("explicit amounts pass through", func(t *testing.T) {
		shares, err := s.Calculate(1000, []Participant{
			{MemberID: 1, Amount: amountPtr(700)},
			{MemberID: 2, Amount: amountPtr(300)},
		})
		require.NoError(t, err)
		assert.Equal(t, []Share{{1, 700}, {2, 300}}, shares)
	})

	t.Run("zero share is allowed", func(t *testing.T) {
		shares, err := s.Calculate(500, []Participant{
			{MemberID: 1, Amount: amountPtr(500)},
			{MemberID: 2, Amount: amountPtr(0)},
		})
		require.NoError(t, err)
		assert.Equal(t, []Share{{1, 500}, {2, 0}}, shares)
	})

	t.Run("invalid amounts", func(t *testing.T) {
		_, err := s.Calculate(1000, []Participant{
			{MemberID: 1, Amount: amountPtr(700)},
			{MemberID: 2, Amount: amountPtr(200)},
		})
		assert.ErrorIs(t, err, ErrInvalidAmounts)

		_, err = s.Calculate(1000, []Participant{
			{MemberID: 1, Amount: amountPtr(1100)},
			{MemberID: 2, Amount: amountPtr(-100)},
		})
		assert.ErrorIs(t, err, ErrNegativeShare)

		_, err = s.Calculate(1000, []Participant{
			{MemberID: 1, Amount: amountPtr(1000)},
			{MemberID: 2},
		})
		assert.ErrorIs(t, err, ErrMissingAmount)
	})
}

func TestFullStrategy(t *testing.T) {
	s := &FullStrategy{}

	t.Run("bearer takes everything", func(t *testing.T) {
		shares, err := s.Calculate(4980, []Participant{
			{MemberID: 1},
			{MemberID: 2, Bearer: true},
			{MemberID: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, []Share{{1, 0}, {2, 4980}, {3, 0}}, shares)
		assert.Equal(t, int64(4980), shareSum(shares))
	})

	t.Run("bearer validation", func(t *testing.T) {
		_, err := s.Calculate(100, participants(1, 2))
		assert.ErrorIs(t, err, ErrNoBearer)

		_, err = s.Calculate(100, []Participant{
			{MemberID: 1, Bearer: true},
			{MemberID: 2, Bearer: true},
		})
		assert.ErrorIs(t, err, ErrMultipleBearers)
	})
}
