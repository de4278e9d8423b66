// Package users manages community membership: accounts, role assignment and
// elder designation. Accounts are community-scoped data; only a community's
// own admins administer them.
package users

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type user accounts carry into policy
// decisions.
const ResourceType = "user"

// User represents a community member account.
type User struct {
	ID          int64
	CommunityID int64
	Email       string
	DisplayName string
	Role        policy.Role
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resource extracts the policy descriptor for an account. Accounts carry the
// restricted protocol level so viewers never enumerate membership.
func (u User) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, u.ID, u.CommunityID,
		policy.Protocol{PermissionLevel: policy.LevelRestricted})
}

// CreateInput is the new member payload. super_admin is not assignable: the
// capability table has no community row for it.
type CreateInput struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=200"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role" validate:"required,oneof=admin editor elder viewer"`
}

// UpdateInput changes profile fields. Role changes go through AssignRole.
type UpdateInput struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
}

// AssignRoleInput changes a member's role.
type AssignRoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin editor elder viewer"`
}
