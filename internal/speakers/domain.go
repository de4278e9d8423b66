// Package speakers manages the storytellers whose narrations the platform
// records, including their elder designation.
package speakers

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type speakers carry into policy decisions.
const ResourceType = "speaker"

// Speaker represents a community storyteller.
type Speaker struct {
	ID                    int64
	CommunityID           int64
	Name                  string
	Bio                   string
	Birthplace            string
	BirthYear             int
	IsElder               bool
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Resource extracts the policy descriptor from a persisted speaker.
func (s Speaker) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, s.ID, s.CommunityID, policy.Protocol{
		PermissionLevel:       s.PermissionLevel,
		CeremonialContent:     s.CeremonialContent,
		ElderApprovalRequired: s.ElderApprovalRequired,
	})
}

// CreateInput is the proposed speaker payload. Elder designation is not
// settable here; it goes through the dedicated elder-status operation.
type CreateInput struct {
	Name                  string `json:"name" validate:"required,max=200"`
	Bio                   string `json:"bio" validate:"max=10000"`
	Birthplace            string `json:"birthplace" validate:"max=200"`
	BirthYear             int    `json:"birth_year" validate:"omitempty,min=1800,max=2100"`
	PermissionLevel       string `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     bool   `json:"ceremonial_content"`
	ElderApprovalRequired bool   `json:"elder_approval_required"`
}

// UpdateInput is the speaker update payload. Nil fields are left unchanged.
type UpdateInput struct {
	Name                  *string `json:"name" validate:"omitempty,max=200"`
	Bio                   *string `json:"bio" validate:"omitempty,max=10000"`
	Birthplace            *string `json:"birthplace" validate:"omitempty,max=200"`
	BirthYear             *int    `json:"birth_year" validate:"omitempty,min=1800,max=2100"`
	PermissionLevel       *string `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool   `json:"ceremonial_content"`
	ElderApprovalRequired *bool   `json:"elder_approval_required"`
}

// ElderStatusInput toggles the elder designation of a speaker.
type ElderStatusInput struct {
	IsElder bool `json:"is_elder"`
}

// ProposedResource builds the policy descriptor for a speaker that does not
// exist yet.
func ProposedResource(communityID int64, in CreateInput) policy.Resource {
	return policy.CommunityResource(ResourceType, 0, communityID, policy.Protocol{
		PermissionLevel:       policy.PermissionLevel(in.PermissionLevel),
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	})
}

func (s *Speaker) apply(in UpdateInput) (protocolChanged bool) {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Bio != nil {
		s.Bio = *in.Bio
	}
	if in.Birthplace != nil {
		s.Birthplace = *in.Birthplace
	}
	if in.BirthYear != nil {
		s.BirthYear = *in.BirthYear
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
	return protocolChanged
}
