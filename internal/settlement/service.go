package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/warikan-app/warikan/internal/cache"
	"github.com/warikan-app/warikan/internal/expense"
	"github.com/warikan-app/warikan/internal/group"
)

// Common errors
var (
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrInvalidPeriod      = errors.New("period start must not be after period end")
	ErrOverlappingPeriod  = errors.New("period overlaps an existing settlement")
	ErrNotPayer           = errors.New("only the payment's debtor can mark it paid")
	ErrNotAllowed         = errors.New("only the settlement creator or group owner can reopen")
)

const dateLayout = "2006-01-02"

// Service orchestrates the settlement engine: it aggregates a period's
// balances, simplifies them into payments, and drives the settlement
// lifecycle. It owns the transaction boundary for every state
// transition so markPaid and reopen can never interleave.
type Service struct {
	db           *sql.DB
	repo         *Repository
	expenseRepo  *expense.Repository
	groupRepo    *group.Repository
	balanceCache *cache.BalanceCache
	now          func() time.Time
}

// NewService creates a new settlement service. The clock defaults to
// time.Now and is injectable for deterministic tests.
func NewService(db *sql.DB, repo *Repository, expenseRepo *expense.Repository, groupRepo *group.Repository, balanceCache *cache.BalanceCache) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		expenseRepo:  expenseRepo,
		groupRepo:    groupRepo,
		balanceCache: balanceCache,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateSettlement snapshots a period: it aggregates the period's
// expenses into net balances, simplifies them into a payment list, and
// persists the settlement while freezing the underlying expenses.
// A settlement with no payments (nobody owed anything) is born settled.
func (s *Service) CreateSettlement(ctx context.Context, creatorID int64, req *CreateSettlementRequest) (*Settlement, error) {
	periodStart, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	periodEnd, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	if periodStart.After(periodEnd) {
		return nil, ErrInvalidPeriod
	}

	// Periods must stay disjoint: an overlap would double-count the
	// shared expenses across two settlements.
	overlapping, err := s.repo.FindOverlapping(ctx, req.GroupID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, fmt.Errorf("%w: settlement %d", ErrOverlappingPeriod, overlapping[0].ID)
	}

	members, err := s.groupRepo.GetMembers(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, group.ErrGroupNotFound
	}
	memberIDs := make([]int64, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}

	expenses, err := s.expenseRepo.ListByGroupAndDateRange(ctx, req.GroupID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	balances, err := AggregateBalances(expenses, memberIDs)
	if err != nil {
		// Shares that do not sum to their expense mean corrupted data;
		// abort rather than emit a wrong payment list.
		slog.Error("Balance aggregation failed", "group_id", req.GroupID, "error", err)
		return nil, err
	}

	payments, err := SimplifyDebts(NetBalances(balances))
	if err != nil {
		slog.Error("Debt simplification failed", "group_id", req.GroupID, "error", err)
		return nil, err
	}

	settlement := &Settlement{
		GroupID:     req.GroupID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      InitialStatus(payments),
		CreatedBy:   creatorID,
		Payments:    payments,
	}
	if settlement.Status == StatusSettled {
		settledAt := s.now()
		settlement.SettledAt = &settledAt
	}

	expenseIDs := make([]int64, len(expenses))
	for i, e := range expenses {
		expenseIDs[i] = e.Expense.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(ctx, tx, settlement); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.LockToSettlementTx(ctx, tx, expenseIDs, settlement.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Settlement created",
		"settlement_id", settlement.ID,
		"group_id", req.GroupID,
		"payments", len(settlement.Payments),
		"status", settlement.Status,
	)

	return settlement, nil
}

// GetByID retrieves a settlement with its payments
func (s *Service) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	return settlement, nil
}

// ListByGroupID retrieves a group's settlements
func (s *Service) ListByGroupID(ctx context.Context, groupID int64, page, perPage int) ([]*Settlement, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByGroupID(ctx, groupID, perPage, offset)
}

// GetBalances computes the live net balances and payment preview for a
// period without creating a settlement. Net balances are served from
// the cache when possible; the payment preview is always derived fresh.
func (s *Service) GetBalances(ctx context.Context, groupID int64, from, to string) (map[int64]*MemberBalance, []*Payment, error) {
	periodStart, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, nil, ErrInvalidPeriod
	}
	periodEnd, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, nil, ErrInvalidPeriod
	}
	if periodStart.After(periodEnd) {
		return nil, nil, ErrInvalidPeriod
	}

	if cached, ok := s.balanceCache.Get(ctx, groupID, from, to); ok {
		balances := make(map[int64]*MemberBalance, len(cached))
		for id, b := range cached {
			balances[id] = &MemberBalance{MemberID: id, Paid: b.Paid, Owed: b.Owed, Net: b.Net}
		}
		payments, err := SimplifyDebts(NetBalances(balances))
		if err == nil {
			return balances, payments, nil
		}
		// A bad cache entry falls through to recomputation.
	}

	members, err := s.groupRepo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	memberIDs := make([]int64, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}

	expenses, err := s.expenseRepo.ListByGroupAndDateRange(ctx, groupID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, err
	}

	balances, err := AggregateBalances(expenses, memberIDs)
	if err != nil {
		return nil, nil, err
	}

	payments, err := SimplifyDebts(NetBalances(balances))
	if err != nil {
		return nil, nil, err
	}

	entry := make(map[int64]*cache.Balance, len(balances))
	for id, b := range balances {
		entry[id] = &cache.Balance{Paid: b.Paid, Owed: b.Owed, Net: b.Net}
	}
	if err := s.balanceCache.Set(ctx, groupID, from, to, entry); err != nil {
		slog.Warn("Failed to cache balances", "group_id", groupID, "error", err)
	}

	return balances, payments, nil
}

// MarkPaymentPaid records one payment as made, transitioning the
// settlement to SETTLED when it was the last outstanding one. The whole
// read-validate-write runs inside a single transaction under a row
// lock, so two concurrent calls cannot both see "not yet fully paid".
func (s *Service) MarkPaymentPaid(ctx context.Context, settlementID, paymentID, actorID int64) (*Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settlement, err := s.repo.GetByIDForUpdateTx(ctx, tx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	var target *Payment
	for _, p := range settlement.Payments {
		if p.ID == paymentID {
			target = p
			break
		}
	}
	if target == nil {
		return nil, ErrPaymentNotFound
	}
	if target.FromMemberID != actorID {
		return nil, ErrNotPayer
	}

	if err := settlement.MarkPaid(paymentID, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.SavePaymentTx(ctx, tx, target); err != nil {
		return nil, err
	}
	if err := s.repo.SaveStatusTx(ctx, tx, settlement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Payment marked paid",
		"settlement_id", settlementID,
		"payment_id", paymentID,
		"status", settlement.Status,
	)

	return settlement, nil
}

// ReopenSettlement rolls a settled settlement back to pending: all paid
// flags reset and the period's expenses become editable again. Only the
// settlement's creator or the group owner may reopen.
func (s *Service) ReopenSettlement(ctx context.Context, settlementID, actorID int64) (*Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settlement, err := s.repo.GetByIDForUpdateTx(ctx, tx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	if settlement.CreatedBy != actorID {
		member, err := s.groupRepo.GetMember(ctx, settlement.GroupID, actorID)
		if err != nil {
			return nil, err
		}
		if member == nil || member.Role != group.MemberRoleOwner {
			return nil, ErrNotAllowed
		}
	}

	if err := settlement.Reopen(); err != nil {
		return nil, err
	}

	if err := s.repo.ResetPaymentsTx(ctx, tx, settlementID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveStatusTx(ctx, tx, settlement); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.UnlockFromSettlementTx(ctx, tx, settlementID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Settlement reopened", "settlement_id", settlementID, "actor_id", actorID)

	return settlement, nil
}
