package group

import "time"

// MemberRole represents the role of a group member
type MemberRole string

const (
	// MemberRoleOwner can reopen settlements and manage the group
	MemberRoleOwner MemberRole = "OWNER"
	// MemberRoleMember is a regular participant
	MemberRoleMember MemberRole = "MEMBER"
)

// Group represents a household or group sharing expenses
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	ID       int64      `json:"id"`
	GroupID  int64      `json:"group_id"`
	UserID   int64      `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
}
