package expense

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	GroupID      int64               `json:"group_id"`
	Description  string              `json:"description"`
	Amount       int64               `json:"amount"`
	Date         string              `json:"date"` // YYYY-MM-DD
	SplitMethod  string              `json:"split_method"`
	Participants []*SplitParticipant `json:"participants"`
}

// UpdateExpenseRequest represents the request to update an expense.
// Changing the amount, method, or participants recomputes the shares.
type UpdateExpenseRequest struct {
	Description  *string             `json:"description,omitempty"`
	Amount       *int64              `json:"amount,omitempty"`
	Date         *string             `json:"date,omitempty"`
	SplitMethod  *string             `json:"split_method,omitempty"`
	Participants []*SplitParticipant `json:"participants,omitempty"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64            `json:"id"`
	GroupID       int64            `json:"group_id"`
	PayerID       int64            `json:"payer_id"`
	PayerUsername string           `json:"payer_username,omitempty"`
	Description   string           `json:"description"`
	Amount        int64            `json:"amount"`
	Date          string           `json:"date"`
	SplitMethod   string           `json:"split_method"`
	SettlementID  *int64           `json:"settlement_id,omitempty"`
	CreatedAt     string           `json:"created_at"`
	Shares        []*ShareResponse `json:"shares,omitempty"`
}

// ShareResponse represents the response for one member's share
type ShareResponse struct {
	MemberID       int64  `json:"member_id"`
	MemberUsername string `json:"member_username,omitempty"`
	Amount         int64  `json:"amount"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		PayerID:       e.PayerID,
		PayerUsername: e.PayerUsername,
		Description:   e.Description,
		Amount:        e.Amount,
		Date:          e.Date.Format("2006-01-02"),
		SplitMethod:   e.SplitMethod,
		SettlementID:  e.SettlementID,
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Share model to a ShareResponse DTO
func (s *Share) ToResponse() *ShareResponse {
	return &ShareResponse{
		MemberID:       s.MemberID,
		MemberUsername: s.MemberUsername,
		Amount:         s.Amount,
	}
}
