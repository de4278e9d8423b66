package auth

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// User represents an authenticated user account. CommunityID is nil only for
// platform-level super_admin accounts.
type User struct {
	ID           int64
	CommunityID  *int64
	Email        string
	DisplayName  string
	PasswordHash string
	Role         policy.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal builds the immutable request principal for this user.
func (u *User) Principal() policy.Principal {
	return policy.Principal{
		ID:          u.ID,
		Role:        u.Role,
		CommunityID: u.CommunityID,
		Name:        u.DisplayName,
	}
}
