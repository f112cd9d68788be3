package settlement

import "time"

// Status represents the lifecycle status of a settlement
type Status string

const (
	// StatusPending means at least one payment is still outstanding
	StatusPending Status = "PENDING"
	// StatusSettled means every payment has been confirmed paid
	StatusSettled Status = "SETTLED"
)

// Settlement is a period-scoped snapshot of a group's debts.
// Creating one freezes the period's expenses and fixes the payment list;
// the only allowed mutations afterwards are the lifecycle transitions in
// lifecycle.go (mark a payment paid, reopen).
type Settlement struct {
	ID          int64      `json:"id"`
	GroupID     int64      `json:"group_id"`
	PeriodStart time.Time  `json:"period_start"` // inclusive
	PeriodEnd   time.Time  `json:"period_end"`   // inclusive
	Status      Status     `json:"status"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`

	Payments []*Payment `json:"payments,omitempty"`
}

// Payment is one directed debtor-to-creditor line item in a settlement
type Payment struct {
	ID           int64      `json:"id"`
	SettlementID int64      `json:"settlement_id"`
	FromMemberID int64      `json:"from_member_id"` // who owes
	ToMemberID   int64      `json:"to_member_id"`   // who is owed
	Amount       int64      `json:"amount"`
	Paid         bool       `json:"paid"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`

	// Populated via JOIN
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}

// MemberBalance is a member's net position over a period.
// Positive means the member is owed money, negative means they owe.
type MemberBalance struct {
	MemberID int64 `json:"member_id"`
	Paid     int64 `json:"paid"`
	Owed     int64 `json:"owed"`
	Net      int64 `json:"net"`
}
