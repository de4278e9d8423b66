// Package stories manages community story records: the narrative content at
// the heart of the platform, linked to the places where they happened and
// the speakers who told them.
package stories

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type stories carry into policy decisions.
const ResourceType = "story"

// Story represents a story record.
type Story struct {
	ID                    int64
	CommunityID           int64
	Title                 string
	Slug                  string
	Description           string
	Language              string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
	CreatedBy             int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
	PlaceIDs              []int64
	SpeakerIDs            []int64
}

// Resource extracts the policy descriptor from a persisted story. Pure and
// idempotent: the same story always yields the same descriptor.
func (s Story) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, s.ID, s.CommunityID, policy.Protocol{
		PermissionLevel:       s.PermissionLevel,
		CeremonialContent:     s.CeremonialContent,
		ElderApprovalRequired: s.ElderApprovalRequired,
	})
}

// CreateInput is the proposed story payload.
type CreateInput struct {
	Title                 string  `json:"title" validate:"required,max=200"`
	Description           string  `json:"description" validate:"max=10000"`
	Language              string  `json:"language" validate:"omitempty,bcp47_language_tag"`
	PermissionLevel       string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     bool    `json:"ceremonial_content"`
	ElderApprovalRequired bool    `json:"elder_approval_required"`
	PlaceIDs              []int64 `json:"place_ids" validate:"max=50"`
	SpeakerIDs            []int64 `json:"speaker_ids" validate:"max=50"`
}

// UpdateInput is the story update payload. Nil fields are left unchanged.
type UpdateInput struct {
	Title                 *string  `json:"title" validate:"omitempty,max=200"`
	Description           *string  `json:"description" validate:"omitempty,max=10000"`
	Language              *string  `json:"language" validate:"omitempty,bcp47_language_tag"`
	PermissionLevel       *string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool    `json:"ceremonial_content"`
	ElderApprovalRequired *bool    `json:"elder_approval_required"`
	PlaceIDs              *[]int64 `json:"place_ids" validate:"omitempty,max=50"`
	SpeakerIDs            *[]int64 `json:"speaker_ids" validate:"omitempty,max=50"`
}

// ProposedResource builds the policy descriptor for a story that does not
// exist yet, so protocol checks run before anything is persisted.
func ProposedResource(communityID int64, in CreateInput) policy.Resource {
	return policy.CommunityResource(ResourceType, 0, communityID, policy.Protocol{
		PermissionLevel:       policy.PermissionLevel(in.PermissionLevel),
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	})
}

// apply merges an update into the story and reports whether the cultural
// protocol changed.
func (s *Story) apply(in UpdateInput) (protocolChanged bool) {
	if in.Title != nil {
		s.Title = *in.Title
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Language != nil {
		s.Language = *in.Language
	}
	if in.PermissionLevel != nil && policy.PermissionLevel(*in.PermissionLevel) != s.PermissionLevel {
		s.PermissionLevel = policy.PermissionLevel(*in.PermissionLevel)
		protocolChanged = true
	}
	if in.CeremonialContent != nil && *in.CeremonialContent != s.CeremonialContent {
		s.CeremonialContent = *in.CeremonialContent
		protocolChanged = true
	}
	if in.ElderApprovalRequired != nil && *in.ElderApprovalRequired != s.ElderApprovalRequired {
		s.ElderApprovalRequired = *in.ElderApprovalRequired
		protocolChanged = true
	}
	if in.PlaceIDs != nil {
		s.PlaceIDs = *in.PlaceIDs
	}
	if in.SpeakerIDs != nil {
		s.SpeakerIDs = *in.SpeakerIDs
	}
	return protocolChanged
}
