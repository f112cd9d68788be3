package user

import "time"

// User represents a member of the household ledger.
// CreatedAt doubles as the join timestamp for display purposes.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
