package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warikan-app/warikan/internal/cache"
	"github.com/warikan-app/warikan/internal/expense/split"
	"github.com/warikan-app/warikan/internal/money"
)

// Amounts accepted for a single expense, in yen.
const (
	MinAmount = 1
	MaxAmount = 10_000_000
)

// Common errors
var (
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrExpenseLocked    = errors.New("expense is locked to a settlement")
	ErrAmountOutOfRange = errors.New("amount is out of the accepted range")
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrShareSumBroken   = errors.New("calculated shares do not sum to amount")
	ErrNeedParticipants = errors.New("participants are required when changing amount or split method")
)

// Service handles expense business logic
type Service struct {
	repo         *Repository
	splitFactory *split.Factory
	balanceCache *cache.BalanceCache
}

// NewService creates a new expense service with dependencies injected
func NewService(repo *Repository, splitFactory *split.Factory, balanceCache *cache.BalanceCache) *Service {
	return &Service{
		repo:         repo,
		splitFactory: splitFactory,
		balanceCache: balanceCache,
	}
}

// CreateExpense creates an expense and its exact integer shares using
// the requested split method.
func (s *Service) CreateExpense(ctx context.Context, payerID int64, req *CreateExpenseRequest) (*ExpenseWithShares, error) {
	if !money.IsValidAmount(req.Amount, MinAmount, MaxAmount) {
		return nil, ErrAmountOutOfRange
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	shares, err := s.calculateShares(req.Amount, req.SplitMethod, req.Participants)
	if err != nil {
		return nil, err
	}

	e := &Expense{
		GroupID:     req.GroupID,
		PayerID:     payerID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		SplitMethod: req.SplitMethod,
	}

	result, err := s.repo.CreateExpense(ctx, e, shares)
	if err != nil {
		return nil, err
	}

	s.invalidateBalances(ctx, req.GroupID)
	return result, nil
}

// GetExpenseByID retrieves an expense with its shares
func (s *Service) GetExpenseByID(ctx context.Context, id int64) (*ExpenseWithShares, error) {
	e, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}

	shares, err := s.repo.GetSharesByExpenseID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithShares{Expense: e, Shares: shares}, nil
}

// ListExpensesByGroupID retrieves expenses for a group
func (s *Service) ListExpensesByGroupID(ctx context.Context, groupID int64, page, perPage int) ([]*Expense, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByGroupID(ctx, groupID, perPage, offset)
}

// ListByGroupAndDateRange retrieves a period's expenses with shares
func (s *Service) ListByGroupAndDateRange(ctx context.Context, groupID int64, from, to time.Time) ([]*ExpenseWithShares, error) {
	return s.repo.ListByGroupAndDateRange(ctx, groupID, from, to)
}

// UpdateExpense edits an expense and recomputes its shares. Expenses
// frozen by a settlement reject edits until the settlement is reopened.
func (s *Service) UpdateExpense(ctx context.Context, id int64, req *UpdateExpenseRequest) (*ExpenseWithShares, error) {
	existing, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrExpenseNotFound
	}
	if existing.SettlementID != nil {
		return nil, ErrExpenseLocked
	}

	originalAmount := existing.Amount

	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Amount != nil {
		existing.Amount = *req.Amount
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		existing.Date = date
	}
	if req.SplitMethod != nil {
		existing.SplitMethod = *req.SplitMethod
	}
	if !money.IsValidAmount(existing.Amount, MinAmount, MaxAmount) {
		return nil, ErrAmountOutOfRange
	}

	current, err := s.repo.GetSharesByExpenseID(ctx, id)
	if err != nil {
		return nil, err
	}

	needsRecalc := req.Amount != nil || req.SplitMethod != nil || req.Participants != nil
	shares := current
	if needsRecalc {
		participants := req.Participants
		if participants == nil {
			// Ratios are not stored, and explicit amounts cannot be
			// rescaled, so both must be resupplied. A method change always
			// needs fresh inputs.
			switch {
			case req.SplitMethod != nil,
				split.Method(existing.SplitMethod) == split.MethodRatio,
				split.Method(existing.SplitMethod) == split.MethodAmount:
				return nil, ErrNeedParticipants
			}
			participants = participantsFromShares(existing, originalAmount, current)
		}

		shares, err = s.calculateShares(existing.Amount, existing.SplitMethod, participants)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.repo.UpdateExpense(ctx, existing, shares)
	if err != nil {
		return nil, err
	}

	s.invalidateBalances(ctx, existing.GroupID)
	return result, nil
}

// DeleteExpense removes an expense unless it is frozen by a settlement
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	existing, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrExpenseNotFound
	}
	if existing.SettlementID != nil {
		return ErrExpenseLocked
	}

	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.invalidateBalances(ctx, existing.GroupID)
	return nil
}

// calculateShares runs the split strategy and defensively re-checks the
// exactness invariant before anything is stored.
func (s *Service) calculateShares(amount int64, method string, participants []*SplitParticipant) ([]*Share, error) {
	strategy, err := s.splitFactory.CreateFromString(method)
	if err != nil {
		return nil, err
	}

	inputs := make([]split.Participant, len(participants))
	for i, p := range participants {
		inputs[i] = p.ToSplitParticipant()
	}

	outputs, err := strategy.Calculate(amount, inputs)
	if err != nil {
		return nil, err
	}

	amounts := make([]int64, len(outputs))
	shares := make([]*Share, len(outputs))
	for i, out := range outputs {
		amounts[i] = out.Amount
		shares[i] = &Share{MemberID: out.MemberID, Amount: out.Amount}
	}
	if money.Sum(amounts) != amount {
		return nil, fmt.Errorf("%w: method=%s amount=%d", ErrShareSumBroken, method, amount)
	}

	return shares, nil
}

// participantsFromShares rebuilds split inputs from stored shares so an
// amount change can recompute shares under the same method without the
// caller resending the participant list. Only EQUAL and FULL reach
// here; their inputs are fully recoverable from the stored shares.
func participantsFromShares(e *Expense, originalAmount int64, shares []*Share) []*SplitParticipant {
	participants := make([]*SplitParticipant, len(shares))
	for i, sh := range shares {
		p := &SplitParticipant{MemberID: sh.MemberID}
		if split.Method(e.SplitMethod) == split.MethodFull {
			p.Bearer = sh.Amount == originalAmount
		}
		participants[i] = p
	}
	return participants
}

func (s *Service) invalidateBalances(ctx context.Context, groupID int64) {
	// Best effort: a failed invalidation only means a short-lived stale
	// preview, settlement creation always recomputes from the database.
	_ = s.balanceCache.InvalidateGroup(ctx, groupID)
}
