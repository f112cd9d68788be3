package settlement

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidState    = errors.New("invalid settlement state for this transition")
	ErrAlreadyPaid     = errors.New("payment is already marked paid")
	ErrPaymentNotFound = errors.New("payment not found in settlement")
)

// The lifecycle transitions below are pure functions of the in-memory
// snapshot: they validate, mutate the snapshot, and return. The service
// layer wraps each one in a database transaction that re-reads the
// current snapshot under a row lock and writes the result back, so two
// concurrent transitions can never both observe the same "before" state.

// InitialStatus returns the status a freshly created settlement starts
// in. An empty payment list means nobody owed anything for the period,
// so the settlement is born settled.
func InitialStatus(payments []*Payment) Status {
	if len(payments) == 0 {
		return StatusSettled
	}
	return StatusPending
}

// MarkPaid records that a single payment has been made. When the last
// outstanding payment is marked, the settlement transitions to SETTLED
// in the same step.
func (s *Settlement) MarkPaid(paymentID int64, now time.Time) error {
	if s.Status != StatusPending {
		return ErrInvalidState
	}

	var target *Payment
	for _, p := range s.Payments {
		if p.ID == paymentID {
			target = p
			break
		}
	}
	if target == nil {
		return ErrPaymentNotFound
	}
	if target.Paid {
		return ErrAlreadyPaid
	}

	paidAt := now
	target.Paid = true
	target.PaidAt = &paidAt

	if s.allPaid() {
		settledAt := now
		s.Status = StatusSettled
		s.SettledAt = &settledAt
	}

	return nil
}

// Reopen rolls a settled settlement back to pending: every payment's
// paid flag and timestamp are reset, and the period's expenses become
// editable again (the caller un-freezes them in the same transaction).
func (s *Settlement) Reopen() error {
	if s.Status != StatusSettled {
		return ErrInvalidState
	}

	for _, p := range s.Payments {
		p.Paid = false
		p.PaidAt = nil
	}
	s.Status = StatusPending
	s.SettledAt = nil

	return nil
}

func (s *Settlement) allPaid() bool {
	for _, p := range s.Payments {
		if !p.Paid {
			return false
		}
	}
	return true
}
