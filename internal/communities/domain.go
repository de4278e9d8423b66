// Package communities manages the community registry. The registry itself is
// a platform-level resource administered by super_admin; the record of a
// single community is community-scoped data its own admins maintain.
package communities

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type communities carry into policy decisions.
const ResourceType = "community"

// Community represents one tenant of the platform.
type Community struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Country     string
	Locale      string
	Public      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RegistryResource is the platform-level descriptor for registry operations
// (creating and enumerating communities).
func RegistryResource() policy.Resource {
	return policy.SystemResource(ResourceType, 0)
}

// Resource is the community-scoped descriptor for operations on one
// community's own record. A publicly discoverable community reads as public.
func (c Community) Resource() policy.Resource {
	level := policy.LevelCommunity
	if c.Public {
		level = policy.LevelPublic
	}
	return policy.CommunityResource(ResourceType, c.ID, c.ID, policy.Protocol{PermissionLevel: level})
}

// CreateInput is the registry create payload.
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=10000"`
	Country     string `json:"country" validate:"max=100"`
	Locale      string `json:"locale" validate:"omitempty,bcp47_language_tag"`
	Public      bool   `json:"public"`
}

// UpdateInput is the community self-service update payload.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	Locale      *string `json:"locale" validate:"omitempty,bcp47_language_tag"`
	Public      *bool   `json:"public"`
}

func (c *Community) apply(in UpdateInput) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Country != nil {
		c.Country = *in.Country
	}
	if in.Locale != nil {
		c.Locale = *in.Locale
	}
	if in.Public != nil {
		c.Public = *in.Public
	}
}
