package settlement

import (
	"errors"
	"fmt"

	"github.com/warikan-app/warikan/internal/expense"
	"github.com/warikan-app/warikan/internal/money"
)

// Common errors
var (
	ErrShareSumMismatch = errors.New("expense shares do not sum to expense amount")
	ErrUnknownMember    = errors.New("expense references a member outside the roster")
)

// AggregateBalances computes each member's net position over a set of
// expenses: paid (amounts where the member is payer) minus owed (the
// member's shares across all expenses). The sum of all net balances is
// always exactly zero, because every yen paid is owed by someone.
//
// The shares stored on each expense were made exact by the split
// calculator, so no rounding happens here. An expense whose shares do
// not sum to its amount means corrupted data or an upstream bug and is
// reported as an error, never silently corrected.
func AggregateBalances(expenses []*expense.ExpenseWithShares, memberIDs []int64) (map[int64]*MemberBalance, error) {
	balances := make(map[int64]*MemberBalance, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = &MemberBalance{MemberID: id}
	}

	for _, e := range expenses {
		payer, ok := balances[e.Expense.PayerID]
		if !ok {
			return nil, fmt.Errorf("%w: payer %d on expense %d", ErrUnknownMember, e.Expense.PayerID, e.Expense.ID)
		}

		shareAmounts := make([]int64, len(e.Shares))
		for i, sh := range e.Shares {
			shareAmounts[i] = sh.Amount
		}
		if money.Sum(shareAmounts) != e.Expense.Amount {
			return nil, fmt.Errorf("%w: expense %d", ErrShareSumMismatch, e.Expense.ID)
		}

		payer.Paid += e.Expense.Amount
		for _, sh := range e.Shares {
			b, ok := balances[sh.MemberID]
			if !ok {
				return nil, fmt.Errorf("%w: member %d on expense %d", ErrUnknownMember, sh.MemberID, e.Expense.ID)
			}
			b.Owed += sh.Amount
		}
	}

	for _, b := range balances {
		b.Net = b.Paid - b.Owed
	}

	return balances, nil
}

// NetBalances reduces the detailed balances to the net map consumed by
// the debt simplifier.
func NetBalances(balances map[int64]*MemberBalance) map[int64]int64 {
	net := make(map[int64]int64, len(balances))
	for id, b := range balances {
		net[id] = b.Net
	}
	return net
}
