package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingSettlement() *Settlement {
	return &Settlement{
		ID:     1,
		Status: StatusPending,
		Payments: []*Payment{
			{ID: 10, FromMemberID: 2, ToMemberID: 1, Amount: 300},
			{ID: 11, FromMemberID: 3, ToMemberID: 1, Amount: 400},
		},
	}
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusSettled, InitialStatus(nil))
	assert.Equal(t, StatusPending, InitialStatus([]*Payment{{ID: 1}}))
}

func TestMarkPaid(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	t.Run("partial payment keeps settlement pending", func(t *testing.T) {
		s := pendingSettlement()

		require.NoError(t, s.MarkPaid(10, now))

		assert.True(t, s.Payments[0].Paid)
		require.NotNil(t, s.Payments[0].PaidAt)
		assert.Equal(t, now, *s.Payments[0].PaidAt)
		assert.Equal(t, StatusPending, s.Status)
		assert.Nil(t, s.SettledAt)
	})

	t.Run("last payment settles the settlement", func(t *testing.T) {
		s := pendingSettlement()

		require.NoError(t, s.MarkPaid(10, now))
		require.NoError(t, s.MarkPaid(11, now))

		assert.Equal(t, StatusSettled, s.Status)
		require.NotNil(t, s.SettledAt)
		assert.Equal(t, now, *s.SettledAt)
	})

	t.Run("already paid payment is rejected", func(t *testing.T) {
		s := pendingSettlement()

		require.NoError(t, s.MarkPaid(10, now))
		assert.ErrorIs(t, s.MarkPaid(10, now), ErrAlreadyPaid)
	})

	t.Run("unknown payment is rejected", func(t *testing.T) {
		s := pendingSettlement()
		assert.ErrorIs(t, s.MarkPaid(99, now), ErrPaymentNotFound)
	})

	t.Run("settled settlement rejects further payments", func(t *testing.T) {
		s := pendingSettlement()
		s.Status = StatusSettled

		assert.ErrorIs(t, s.MarkPaid(10, now), ErrInvalidState)
	})
}

func TestReopen(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	t.Run("reopen resets every payment", func(t *testing.T) {
		s := pendingSettlement()
		require.NoError(t, s.MarkPaid(10, now))
		require.NoError(t, s.MarkPaid(11, now))
		require.Equal(t, StatusSettled, s.Status)

		require.NoError(t, s.Reopen())

		assert.Equal(t, StatusPending, s.Status)
		assert.Nil(t, s.SettledAt)
		for _, p := range s.Payments {
			assert.False(t, p.Paid)
			assert.Nil(t, p.PaidAt)
		}
	})

	t.Run("pending settlement cannot be reopened", func(t *testing.T) {
		s := pendingSettlement()
		assert.ErrorIs(t, s.Reopen(), ErrInvalidState)
	})

	t.Run("payments can be re-marked after reopen", func(t *testing.T) {
		s := pendingSettlement()
		require.NoError(t, s.MarkPaid(10, now))
		require.NoError(t, s.MarkPaid(11, now))
		require.NoError(t, s.Reopen())

		later := now.Add(24 * time.Hour)
		require.NoError(t, s.MarkPaid(10, later))
		require.NoError(t, s.MarkPaid(11, later))

		assert.Equal(t, StatusSettled, s.Status)
		assert.Equal(t, later, *s.SettledAt)
	})
}
