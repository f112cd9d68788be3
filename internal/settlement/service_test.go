package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warikan-app/warikan/internal/cache"
	"github.com/warikan-app/warikan/internal/expense"
	"github.com/warikan-app/warikan/internal/group"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(
		db,
		NewRepository(db),
		expense.NewRepository(db),
		group.NewRepository(db),
		cache.NewBalanceCache(nil),
	).WithClock(func() time.Time {
		return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	})

	return svc, mock
}

func settlementColumns() []string {
	return []string{"id", "group_id", "period_start", "period_end", "status", "created_by", "created_at", "settled_at"}
}

func paymentColumns() []string {
	return []string{"id", "settlement_id", "from_member_id", "to_member_id", "amount", "paid", "paid_at", "username", "username"}
}

func expectMembers(mock sqlmock.Sqlmock, groupID int64, userIDs ...int64) {
	rows := sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at", "username"})
	for i, userID := range userIDs {
		role := group.MemberRoleMember
		if i == 0 {
			role = group.MemberRoleOwner
		}
		rows.AddRow(int64(i+1), groupID, userID, role, time.Now(), "user")
	}
	mock.ExpectQuery("SELECT gm.id, gm.group_id, gm.user_id").
		WithArgs(groupID).
		WillReturnRows(rows)
}

func TestCreateSettlement(t *testing.T) {
	ctx := context.Background()
	req := &CreateSettlementRequest{GroupID: 1, PeriodStart: "2025-06-01", PeriodEnd: "2025-06-30"}

	t.Run("creates settlement with simplified payments", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery("SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at\\s+FROM settlements\\s+WHERE group_id = \\$1 AND period_start <= \\$3 AND period_end >= \\$2").
			WithArgs(int64(1), "2025-06-01", "2025-06-30").
			WillReturnRows(sqlmock.NewRows(settlementColumns()))

		expectMembers(mock, 1, 1, 2, 3)

		// One 1000 yen expense paid by member 1, split 334/333/333.
		mock.ExpectQuery("SELECT id, group_id, payer_id").
			WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "group_id", "payer_id", "description", "amount", "date",
				"split_method", "settlement_id", "created_at",
			}).AddRow(int64(7), int64(1), int64(1), "groceries", int64(1000),
				time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), "EQUAL", nil, time.Now()))
		mock.ExpectQuery("SELECT s.id, s.expense_id, s.member_id").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "expense_id", "member_id", "amount", "username"}).
				AddRow(int64(1), int64(7), int64(1), int64(334), "alice").
				AddRow(int64(2), int64(7), int64(2), int64(333), "bob").
				AddRow(int64(3), int64(7), int64(3), int64(333), "carol"))

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO settlements").
			WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), StatusPending, int64(1), nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), time.Now()))
		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(int64(5), int64(2), int64(1), int64(333)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(int64(5), int64(3), int64(1), int64(333)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
		mock.ExpectExec("UPDATE expenses SET settlement_id = \\$1 WHERE id = ANY\\(\\$2\\)").
			WithArgs(int64(5), pq.Array([]int64{7})).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		settlement, err := svc.CreateSettlement(ctx, 1, req)
		require.NoError(t, err)

		assert.Equal(t, int64(5), settlement.ID)
		assert.Equal(t, StatusPending, settlement.Status)
		require.Len(t, settlement.Payments, 2)
		assert.Equal(t, int64(333), settlement.Payments[0].Amount)
		assert.Equal(t, int64(1), settlement.Payments[0].ToMemberID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no expenses creates a born-settled settlement", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery("SELECT id, group_id, period_start").
			WithArgs(int64(1), "2025-06-01", "2025-06-30").
			WillReturnRows(sqlmock.NewRows(settlementColumns()))

		expectMembers(mock, 1, 1, 2)

		mock.ExpectQuery("SELECT id, group_id, payer_id").
			WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "group_id", "payer_id", "description", "amount", "date",
				"split_method", "settlement_id", "created_at",
			}))

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO settlements").
			WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), StatusSettled, int64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(6), time.Now()))
		mock.ExpectCommit()

		settlement, err := svc.CreateSettlement(ctx, 1, req)
		require.NoError(t, err)

		assert.Equal(t, StatusSettled, settlement.Status)
		assert.NotNil(t, settlement.SettledAt)
		assert.Empty(t, settlement.Payments)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overlapping period is rejected", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery("SELECT id, group_id, period_start").
			WithArgs(int64(1), "2025-06-01", "2025-06-30").
			WillReturnRows(sqlmock.NewRows(settlementColumns()).AddRow(
				int64(3), int64(1),
				time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
				StatusPending, int64(1), time.Now(), nil,
			))

		_, err := svc.CreateSettlement(ctx, 1, req)
		assert.ErrorIs(t, err, ErrOverlappingPeriod)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reversed period is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreateSettlement(ctx, 1, &CreateSettlementRequest{
			GroupID: 1, PeriodStart: "2025-06-30", PeriodEnd: "2025-06-01",
		})
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestMarkPaymentPaid(t *testing.T) {
	ctx := context.Background()

	expectLockedSettlement := func(mock sqlmock.Sqlmock, status Status, paid bool) {
		mock.ExpectQuery("SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at\\s+FROM settlements\\s+WHERE id = \\$1\\s+FOR UPDATE").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(settlementColumns()).AddRow(
				int64(5), int64(1),
				time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
				status, int64(1), time.Now(), nil,
			))
		mock.ExpectQuery("SELECT p.id, p.settlement_id").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(paymentColumns()).
				AddRow(int64(10), int64(5), int64(2), int64(1), int64(300), paid, nil, "bob", "alice").
				AddRow(int64(11), int64(5), int64(3), int64(1), int64(400), true, time.Now(), "carol", "alice"))
	}

	t.Run("last payment settles inside one transaction", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		expectLockedSettlement(mock, StatusPending, false)
		mock.ExpectExec("UPDATE payments SET paid = \\$1, paid_at = \\$2 WHERE id = \\$3").
			WithArgs(true, sqlmock.AnyArg(), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE settlements SET status = \\$1, settled_at = \\$2 WHERE id = \\$3").
			WithArgs(StatusSettled, sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		settlement, err := svc.MarkPaymentPaid(ctx, 5, 10, 2)
		require.NoError(t, err)

		assert.Equal(t, StatusSettled, settlement.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the debtor can mark a payment", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		expectLockedSettlement(mock, StatusPending, false)
		mock.ExpectRollback()

		_, err := svc.MarkPaymentPaid(ctx, 5, 10, 3)
		assert.ErrorIs(t, err, ErrNotPayer)
	})

	t.Run("already paid payment is rejected", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		expectLockedSettlement(mock, StatusPending, true)
		mock.ExpectRollback()

		_, err := svc.MarkPaymentPaid(ctx, 5, 10, 2)
		assert.ErrorIs(t, err, ErrAlreadyPaid)
	})

	t.Run("missing settlement", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, group_id, period_start").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(settlementColumns()))
		mock.ExpectRollback()

		_, err := svc.MarkPaymentPaid(ctx, 5, 10, 2)
		assert.ErrorIs(t, err, ErrSettlementNotFound)
	})
}

func TestReopenSettlement(t *testing.T) {
	ctx := context.Background()

	expectLockedSettled := func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at\\s+FROM settlements\\s+WHERE id = \\$1\\s+FOR UPDATE").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(settlementColumns()).AddRow(
				int64(5), int64(1),
				time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
				StatusSettled, int64(1), time.Now(), time.Now(),
			))
		mock.ExpectQuery("SELECT p.id, p.settlement_id").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(paymentColumns()).
				AddRow(int64(10), int64(5), int64(2), int64(1), int64(300), true, time.Now(), "bob", "alice"))
	}

	t.Run("creator reopens and expenses unlock", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		expectLockedSettled(mock)
		mock.ExpectExec("UPDATE payments SET paid = false, paid_at = NULL WHERE settlement_id = \\$1").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE settlements SET status = \\$1, settled_at = \\$2 WHERE id = \\$3").
			WithArgs(StatusPending, nil, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE expenses SET settlement_id = NULL WHERE settlement_id = \\$1").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		settlement, err := svc.ReopenSettlement(ctx, 5, 1)
		require.NoError(t, err)

		assert.Equal(t, StatusPending, settlement.Status)
		assert.False(t, settlement.Payments[0].Paid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-owner member cannot reopen", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		expectLockedSettled(mock)
		mock.ExpectQuery("SELECT gm.id, gm.group_id, gm.user_id").
			WithArgs(int64(1), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at", "username"}).
				AddRow(int64(9), int64(1), int64(3), group.MemberRoleMember, time.Now(), "carol"))
		mock.ExpectRollback()

		_, err := svc.ReopenSettlement(ctx, 5, 3)
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("group owner who is not creator can reopen", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectBegin()
		expectLockedSettled(mock)
		mock.ExpectQuery("SELECT gm.id, gm.group_id, gm.user_id").
			WithArgs(int64(1), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at", "username"}).
				AddRow(int64(8), int64(1), int64(2), group.MemberRoleOwner, time.Now(), "bob"))
		mock.ExpectExec("UPDATE payments SET paid = false").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE settlements SET status").
			WithArgs(StatusPending, nil, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE expenses SET settlement_id = NULL").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := svc.ReopenSettlement(ctx, 5, 2)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
