package settlement

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles settlement and payment data persistence. The
// mutating methods take a *sql.Tx because every lifecycle transition
// must run as one atomic read-modify-write; the service owns the
// transaction boundary.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindOverlapping returns settlements of the group whose period
// intersects the given inclusive range. Used to enforce period
// disjointness: overlapping settlements would double-count expenses.
func (r *Repository) FindOverlapping(ctx context.Context, groupID int64, periodStart, periodEnd string) ([]*Settlement, error) {
	query := `
		SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at
		FROM settlements
		WHERE group_id = $1 AND period_start <= $3 AND period_end >= $2
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s := &Settlement{}
		if err := rows.Scan(
			&s.ID, &s.GroupID, &s.PeriodStart, &s.PeriodEnd,
			&s.Status, &s.CreatedBy, &s.CreatedAt, &s.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// CreateTx inserts a settlement and its payments inside the caller's
// transaction, populating the generated IDs and timestamps.
func (r *Repository) CreateTx(ctx context.Context, tx *sql.Tx, s *Settlement) error {
	query := `
		INSERT INTO settlements (group_id, period_start, period_end, status, created_by, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := tx.QueryRowContext(ctx, query,
		s.GroupID, s.PeriodStart, s.PeriodEnd, s.Status, s.CreatedBy, s.SettledAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	paymentQuery := `
		INSERT INTO payments (settlement_id, from_member_id, to_member_id, amount, paid)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id
	`
	for _, p := range s.Payments {
		p.SettlementID = s.ID
		if err := tx.QueryRowContext(ctx, paymentQuery,
			s.ID, p.FromMemberID, p.ToMemberID, p.Amount,
		).Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a settlement with its payments
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	s, err := r.scanSettlement(ctx, r.db.QueryRowContext(ctx, `
		SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at
		FROM settlements
		WHERE id = $1
	`, id))
	if err != nil || s == nil {
		return s, err
	}

	s.Payments, err = r.paymentsBySettlement(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByIDForUpdateTx retrieves a settlement and its payments under a row
// lock so a concurrent transition cannot read the same "before" state.
func (r *Repository) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (*Settlement, error) {
	s, err := r.scanSettlement(ctx, tx.QueryRowContext(ctx, `
		SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at
		FROM settlements
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil || s == nil {
		return s, err
	}

	s.Payments, err = r.paymentsBySettlement(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) scanSettlement(_ context.Context, row *sql.Row) (*Settlement, error) {
	s := &Settlement{}
	err := row.Scan(
		&s.ID, &s.GroupID, &s.PeriodStart, &s.PeriodEnd,
		&s.Status, &s.CreatedBy, &s.CreatedAt, &s.SettledAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *Repository) paymentsBySettlement(ctx context.Context, q querier, settlementID int64) ([]*Payment, error) {
	query := `
		SELECT p.id, p.settlement_id, p.from_member_id, p.to_member_id, p.amount, p.paid, p.paid_at,
		       fu.username, tu.username
		FROM payments p
		JOIN users fu ON p.from_member_id = fu.id
		JOIN users tu ON p.to_member_id = tu.id
		WHERE p.settlement_id = $1
		ORDER BY p.id
	`

	rows, err := q.QueryContext(ctx, query, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		if err := rows.Scan(
			&p.ID, &p.SettlementID, &p.FromMemberID, &p.ToMemberID,
			&p.Amount, &p.Paid, &p.PaidAt, &p.FromUsername, &p.ToUsername,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// ListByGroupID retrieves settlements for a group, newest period first
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Settlement, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM settlements WHERE group_id = $1", groupID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT id, group_id, period_start, period_end, status, created_by, created_at, settled_at
		FROM settlements
		WHERE group_id = $1
		ORDER BY period_start DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s := &Settlement{}
		if err := rows.Scan(
			&s.ID, &s.GroupID, &s.PeriodStart, &s.PeriodEnd,
			&s.Status, &s.CreatedBy, &s.CreatedAt, &s.SettledAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, total, nil
}

// SaveStatusTx writes a settlement's status and settled timestamp
// inside the caller's transaction.
func (r *Repository) SaveStatusTx(ctx context.Context, tx *sql.Tx, s *Settlement) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE settlements SET status = $1, settled_at = $2 WHERE id = $3",
		s.Status, s.SettledAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement status: %w", err)
	}
	return nil
}

// SavePaymentTx writes a payment's paid flag and timestamp inside the
// caller's transaction.
func (r *Repository) SavePaymentTx(ctx context.Context, tx *sql.Tx, p *Payment) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET paid = $1, paid_at = $2 WHERE id = $3",
		p.Paid, p.PaidAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

// ResetPaymentsTx clears every payment of a settlement back to unpaid
// inside the caller's transaction. Used by reopen.
func (r *Repository) ResetPaymentsTx(ctx context.Context, tx *sql.Tx, settlementID int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET paid = false, paid_at = NULL WHERE settlement_id = $1",
		settlementID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset payments: %w", err)
	}
	return nil
}
