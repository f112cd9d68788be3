package settlement

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrResidualBalance = errors.New("balances did not settle to zero")
)

// SimplifyDebts reduces a zero-sum net balance map to a short list of
// directed payments that clears every balance using integer amounts only.
//
// The algorithm is the standard greedy pairing: repeatedly settle
// min(|debt|, credit) between the member owing the most and the member
// owed the most. Ties are broken by the smaller member ID so the output
// is reproducible for the same input. Greedy pairing emits at most n-1
// payments for n members with nonzero balance; it is not guaranteed to
// be the theoretical minimum (that variant is NP-hard), which is an
// accepted tradeoff.
//
// A nonzero balance left after processing means the input was not
// zero-sum, which is an upstream bug. It is reported as
// ErrResidualBalance rather than emitting a partially wrong payment list.
func SimplifyDebts(net map[int64]int64) ([]*Payment, error) {
	remaining := make(map[int64]int64, len(net))
	for id, balance := range net {
		if balance != 0 {
			remaining[id] = balance
		}
	}

	var payments []*Payment
	for len(remaining) > 0 {
		debtor, creditor, ok := pickExtremes(remaining)
		if !ok {
			break
		}

		amount := -remaining[debtor]
		if remaining[creditor] < amount {
			amount = remaining[creditor]
		}

		payments = append(payments, &Payment{
			FromMemberID: debtor,
			ToMemberID:   creditor,
			Amount:       amount,
		})

		remaining[debtor] += amount
		remaining[creditor] -= amount
		if remaining[debtor] == 0 {
			delete(remaining, debtor)
		}
		if remaining[creditor] == 0 {
			delete(remaining, creditor)
		}
	}

	for id, balance := range remaining {
		if balance != 0 {
			return nil, fmt.Errorf("%w: member %d has residual %d", ErrResidualBalance, id, balance)
		}
	}

	return payments, nil
}

// pickExtremes finds the largest debtor and the largest creditor still
// outstanding. Equal amounts resolve to the smaller member ID.
func pickExtremes(remaining map[int64]int64) (debtor, creditor int64, ok bool) {
	var haveDebtor, haveCreditor bool
	var maxDebt, maxCredit int64

	for id, balance := range remaining {
		switch {
		case balance < 0:
			debt := -balance
			if !haveDebtor || debt > maxDebt || (debt == maxDebt && id < debtor) {
				debtor, maxDebt, haveDebtor = id, debt, true
			}
		case balance > 0:
			if !haveCreditor || balance > maxCredit || (balance == maxCredit && id < creditor) {
				creditor, maxCredit, haveCreditor = id, balance, true
			}
		}
	}

	return debtor, creditor, haveDebtor && haveCreditor
}
