package expense

import (
	"time"

	"github.com/warikan-app/warikan/internal/expense/split"
)

// Expense represents a single spending event in a group.
// Amount is integer yen. Shares are computed once at creation, recomputed
// on edit, and become immutable while the expense is locked to a
// settlement (SettlementID set).
type Expense struct {
	ID           int64     `json:"id"`
	GroupID      int64     `json:"group_id"`
	PayerID      int64     `json:"payer_id"`
	Description  string    `json:"description"`
	Amount       int64     `json:"amount"`
	Date         time.Time `json:"date"`
	SplitMethod  string    `json:"split_method"` // EQUAL, RATIO, AMOUNT, FULL
	SettlementID *int64    `json:"settlement_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Populated via JOIN
	PayerUsername string `json:"payer_username,omitempty"`
}

// Share is one member's stored portion of an expense. The shares of an
// expense always sum exactly to its amount; the payer's own share is
// included like everyone else's.
type Share struct {
	ID        int64 `json:"id"`
	ExpenseID int64 `json:"expense_id"`
	MemberID  int64 `json:"member_id"`
	Amount    int64 `json:"amount"`

	// Populated via JOIN
	MemberUsername string `json:"member_username,omitempty"`
}

// ExpenseWithShares combines an expense with its stored shares
type ExpenseWithShares struct {
	Expense *Expense
	Shares  []*Share
}

// SplitParticipant is used when creating or editing an expense
type SplitParticipant struct {
	MemberID int64  `json:"member_id"`
	Ratio    *int64 `json:"ratio,omitempty"`  // For RATIO split
	Amount   *int64 `json:"amount,omitempty"` // For AMOUNT split
	Bearer   bool   `json:"bearer,omitempty"` // For FULL split
}

// ToSplitParticipant converts to the split package's input type
func (p *SplitParticipant) ToSplitParticipant() split.Participant {
	return split.Participant{
		MemberID: p.MemberID,
		Ratio:    p.Ratio,
		Amount:   p.Amount,
		Bearer:   p.Bearer,
	}
}
