package settlement

import "time"

// CreateSettlementRequest represents a request to settle a period
type CreateSettlementRequest struct {
	GroupID     int64  `json:"group_id" example:"1"`
	PeriodStart string `json:"period_start" example:"2025-06-01"`
	PeriodEnd   string `json:"period_end" example:"2025-06-30"`
}

// SettlementResponse represents a settlement in API responses
type SettlementResponse struct {
	ID          int64              `json:"id" example:"1"`
	GroupID     int64              `json:"group_id" example:"1"`
	PeriodStart string             `json:"period_start" example:"2025-06-01"`
	PeriodEnd   string             `json:"period_end" example:"2025-06-30"`
	Status      Status             `json:"status" example:"PENDING"`
	CreatedBy   int64              `json:"created_by" example:"1"`
	CreatedAt   time.Time          `json:"created_at"`
	SettledAt   *time.Time         `json:"settled_at,omitempty"`
	Payments    []*PaymentResponse `json:"payments"`
}

// PaymentResponse represents a directed payment in API responses
type PaymentResponse struct {
	ID           int64      `json:"id" example:"1"`
	FromMemberID int64      `json:"from_member_id" example:"2"`
	ToMemberID   int64      `json:"to_member_id" example:"1"`
	Amount       int64      `json:"amount" example:"400"`
	Paid         bool       `json:"paid" example:"false"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	FromUsername string     `json:"from_username,omitempty" example:"bob"`
	ToUsername   string     `json:"to_username,omitempty" example:"alice"`
}

// BalanceResponse represents one member's balance in API responses
type BalanceResponse struct {
	MemberID int64 `json:"member_id" example:"1"`
	Paid     int64 `json:"paid" example:"1000"`
	Owed     int64 `json:"owed" example:"300"`
	Net      int64 `json:"net" example:"700"`
}

// BalancesResponse bundles a group's live balances with the payment
// list that would settle them.
type BalancesResponse struct {
	GroupID  int64              `json:"group_id" example:"1"`
	From     string             `json:"from" example:"2025-06-01"`
	To       string             `json:"to" example:"2025-06-30"`
	Balances []*BalanceResponse `json:"balances"`
	Payments []*PaymentResponse `json:"payments"`
}

// ToResponse converts a Settlement to a SettlementResponse
func (s *Settlement) ToResponse() *SettlementResponse {
	payments := make([]*PaymentResponse, len(s.Payments))
	for i, p := range s.Payments {
		payments[i] = p.ToResponse()
	}
	return &SettlementResponse{
		ID:          s.ID,
		GroupID:     s.GroupID,
		PeriodStart: s.PeriodStart.Format(dateLayout),
		PeriodEnd:   s.PeriodEnd.Format(dateLayout),
		Status:      s.Status,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		SettledAt:   s.SettledAt,
		Payments:    payments,
	}
}

// ToResponse converts a Payment to a PaymentResponse
func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:           p.ID,
		FromMemberID: p.FromMemberID,
		ToMemberID:   p.ToMemberID,
		Amount:       p.Amount,
		Paid:         p.Paid,
		PaidAt:       p.PaidAt,
		FromUsername: p.FromUsername,
		ToUsername:   p.ToUsername,
	}
}
