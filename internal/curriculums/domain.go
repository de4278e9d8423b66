// Package curriculums manages teaching collections: ordered sequences of
// stories a community curates for education, carrying their own cultural
// protocol independent of the stories they reference.
package curriculums

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type curriculums carry into policy decisions.
const ResourceType = "curriculum"

// Curriculum represents a teaching collection of stories.
type Curriculum struct {
	ID                    int64
	CommunityID           int64
	Title                 string
	Slug                  string
	Description           string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
	CreatedBy             int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
	StoryIDs              []int64
}

// Resource extracts the policy descriptor from a persisted curriculum.
func (c Curriculum) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, c.ID, c.CommunityID, policy.Protocol{
		PermissionLevel:       c.PermissionLevel,
		CeremonialContent:     c.CeremonialContent,
		ElderApprovalRequired: c.ElderApprovalRequired,
	})
}

// CreateInput is the proposed curriculum payload.
type CreateInput struct {
	Title                 string  `json:"title" validate:"required,max=200"`
	Description           string  `json:"description" validate:"max=10000"`
	PermissionLevel       string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     bool    `json:"ceremonial_content"`
	ElderApprovalRequired bool    `json:"elder_approval_required"`
	StoryIDs              []int64 `json:"story_ids" validate:"max=100"`
}

// UpdateInput is the curriculum update payload. Nil fields are left unchanged.
type UpdateInput struct {
	Title                 *string  `json:"title" validate:"omitempty,max=200"`
	Description           *string  `json:"description" validate:"omitempty,max=10000"`
	PermissionLevel       *string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool    `json:"ceremonial_content"`
	ElderApprovalRequired *bool    `json:"elder_approval_required"`
	StoryIDs              *[]int64 `json:"story_ids" validate:"omitempty,max=100"`
}

// ProposedResource builds the policy descriptor for a curriculum that does
// not exist yet.
func ProposedResource(communityID int64, in CreateInput) policy.Resource {
	return policy.CommunityResource(ResourceType, 0, communityID, policy.Protocol{
		PermissionLevel:       policy.PermissionLevel(in.PermissionLevel),
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	})
}

// apply merges an update into the curriculum and reports whether the
// cultural protocol changed.
func (c *Curriculum) apply(in UpdateInput) (protocolChanged bool) {
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.PermissionLevel != nil && policy.PermissionLevel(*in.PermissionLevel) != c.PermissionLevel {
		c.PermissionLevel = policy.PermissionLevel(*in.PermissionLevel)
		protocolChanged = true
	}
	if in.CeremonialContent != nil && *in.CeremonialContent != c.CeremonialContent {
		c.CeremonialContent = *in.CeremonialContent
		protocolChanged = true
	}
	if in.ElderApprovalRequired != nil && *in.ElderApprovalRequired != c.ElderApprovalRequired {
		c.ElderApprovalRequired = *in.ElderApprovalRequired
		protocolChanged = true
	}
	if in.StoryIDs != nil {
		c.StoryIDs = *in.StoryIDs
	}
	return protocolChanged
}
