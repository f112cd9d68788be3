package expense

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository handles expense and share data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateExpense inserts an expense together with its shares in one
// transaction, so a failure can never leave an expense without exact
// shares behind.
func (r *Repository) CreateExpense(ctx context.Context, e *Expense, shares []*Share) (*ExpenseWithShares, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (group_id, payer_id, description, amount, date, split_method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query,
		e.GroupID, e.PayerID, e.Description, e.Amount, e.Date, e.SplitMethod,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	created, err := insertShares(ctx, tx, e.ID, shares)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ExpenseWithShares{Expense: e, Shares: created}, nil
}

// UpdateExpense rewrites an expense and replaces its shares in one
// transaction. The service guarantees the expense is not locked.
func (r *Repository) UpdateExpense(ctx context.Context, e *Expense, shares []*Share) (*ExpenseWithShares, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE expenses
		SET description = $1, amount = $2, date = $3, split_method = $4
		WHERE id = $5
	`
	if _, err := tx.ExecContext(ctx, query,
		e.Description, e.Amount, e.Date, e.SplitMethod, e.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = $1", e.ID); err != nil {
		return nil, fmt.Errorf("failed to clear shares: %w", err)
	}

	created, err := insertShares(ctx, tx, e.ID, shares)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ExpenseWithShares{Expense: e, Shares: created}, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID int64, shares []*Share) ([]*Share, error) {
	query := `
		INSERT INTO expense_shares (expense_id, member_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	created := make([]*Share, len(shares))
	for i, sh := range shares {
		share := &Share{ExpenseID: expenseID, MemberID: sh.MemberID, Amount: sh.Amount}
		if err := tx.QueryRowContext(ctx, query, expenseID, sh.MemberID, sh.Amount).Scan(&share.ID); err != nil {
			return nil, fmt.Errorf("failed to create share: %w", err)
		}
		created[i] = share
	}
	return created, nil
}

// GetExpenseByID retrieves an expense by its ID
func (r *Repository) GetExpenseByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.payer_id, e.description, e.amount, e.date,
		       e.split_method, e.settlement_id, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.id = $1
	`

	e := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount, &e.Date,
		&e.SplitMethod, &e.SettlementID, &e.CreatedAt, &e.PayerUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return e, nil
}

// GetSharesByExpenseID retrieves all shares for an expense
func (r *Repository) GetSharesByExpenseID(ctx context.Context, expenseID int64) ([]*Share, error) {
	query := `
		SELECT s.id, s.expense_id, s.member_id, s.amount, u.username
		FROM expense_shares s
		JOIN users u ON s.member_id = u.id
		WHERE s.expense_id = $1
		ORDER BY s.id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	var shares []*Share
	for rows.Next() {
		sh := &Share{}
		if err := rows.Scan(&sh.ID, &sh.ExpenseID, &sh.MemberID, &sh.Amount, &sh.MemberUsername); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}

	return shares, nil
}

// ListByGroupAndDateRange retrieves a group's expenses within an
// inclusive date range, each with its stored shares. This is the input
// the settlement engine aggregates over.
func (r *Repository) ListByGroupAndDateRange(ctx context.Context, groupID int64, from, to time.Time) ([]*ExpenseWithShares, error) {
	query := `
		SELECT id, group_id, payer_id, description, amount, date,
		       split_method, settlement_id, created_at
		FROM expenses
		WHERE group_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e := &Expense{}
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount, &e.Date,
			&e.SplitMethod, &e.SettlementID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	result := make([]*ExpenseWithShares, 0, len(expenses))
	for _, e := range expenses {
		shares, err := r.GetSharesByExpenseID(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &ExpenseWithShares{Expense: e, Shares: shares})
	}

	return result, nil
}

// ListByGroupID retrieves expenses for a group with pagination
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE group_id = $1", groupID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT e.id, e.group_id, e.payer_id, e.description, e.amount, e.date,
		       e.split_method, e.settlement_id, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.group_id = $1
		ORDER BY e.date DESC, e.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e := &Expense{}
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount, &e.Date,
			&e.SplitMethod, &e.SettlementID, &e.CreatedAt, &e.PayerUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, total, nil
}

// DeleteExpense removes an expense and its shares (cascade)
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LockToSettlementTx stamps the given expenses with a settlement ID
// inside the caller's transaction, freezing them against edits.
func (r *Repository) LockToSettlementTx(ctx context.Context, tx *sql.Tx, expenseIDs []int64, settlementID int64) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE expenses SET settlement_id = $1 WHERE id = ANY($2)",
		settlementID, pq.Array(expenseIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to lock expenses: %w", err)
	}
	return nil
}

// UnlockFromSettlementTx clears the settlement lock from every expense
// frozen by the given settlement, inside the caller's transaction.
func (r *Repository) UnlockFromSettlementTx(ctx context.Context, tx *sql.Tx, settlementID int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE expenses SET settlement_id = NULL WHERE settlement_id = $1",
		settlementID,
	)
	if err != nil {
		return fmt.Errorf("failed to unlock expenses: %w", err)
	}
	return nil
}
