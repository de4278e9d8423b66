// Package places manages the geographic locations stories are tied to.
package places

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type places carry into policy decisions.
const ResourceType = "place"

// Place represents a named location on the community map.
type Place struct {
	ID                    int64
	CommunityID           int64
	Name                  string
	Slug                  string
	Description           string
	TypeOfPlace           string
	Latitude              float64
	Longitude             float64
	Region                string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Resource extracts the policy descriptor from a persisted place.
func (p Place) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, p.ID, p.CommunityID, policy.Protocol{
		PermissionLevel:       p.PermissionLevel,
		CeremonialContent:     p.CeremonialContent,
		ElderApprovalRequired: p.ElderApprovalRequired,
	})
}

// CreateInput is the proposed place payload.
type CreateInput struct {
	Name                  string  `json:"name" validate:"required,max=200"`
	Description           string  `json:"description" validate:"max=10000"`
	TypeOfPlace           string  `json:"type_of_place" validate:"max=100"`
	Latitude              float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude             float64 `json:"longitude" validate:"min=-180,max=180"`
	Region                string  `json:"region" validate:"max=200"`
	PermissionLevel       string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     bool    `json:"ceremonial_content"`
	ElderApprovalRequired bool    `json:"elder_approval_required"`
}

// UpdateInput is the place update payload. Nil fields are left unchanged.
type UpdateInput struct {
	Name                  *string  `json:"name" validate:"omitempty,max=200"`
	Description           *string  `json:"description" validate:"omitempty,max=10000"`
	TypeOfPlace           *string  `json:"type_of_place" validate:"omitempty,max=100"`
	Latitude              *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude             *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Region                *string  `json:"region" validate:"omitempty,max=200"`
	PermissionLevel       *string  `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     *bool    `json:"ceremonial_content"`
	ElderApprovalRequired *bool    `json:"elder_approval_required"`
}

// ProposedResource builds the policy descriptor for a place that does not
// exist yet.
func ProposedResource(communityID int64, in CreateInput) policy.Resource {
	return policy.CommunityResource(ResourceType, 0, communityID, policy.Protocol{
		PermissionLevel:       policy.PermissionLevel(in.PermissionLevel),
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	})
}

func (p *Place) apply(in UpdateInput) (protocolChanged bool) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.TypeOfPlace != nil {
		p.TypeOfPlace = *in.TypeOfPlace
	}
	if in.Latitude != nil {
		p.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		p.Longitude = *in.Longitude
	}
	if in.Region != nil {
		p.Region = *in.Region
	}
	if in.PermissionLevel != nil && policy.PermissionLevel(*in.PermissionLevel) != p.PermissionLevel {
		p.PermissionLevel = policy.PermissionLevel(*in.PermissionLevel)
		protocolChanged = true
	}
	if in.CeremonialContent != nil && *in.CeremonialContent != p.CeremonialContent {
		p.CeremonialContent = *in.CeremonialContent
		protocolChanged = true
	}
	if in.ElderApprovalRequired != nil && *in.ElderApprovalRequired != p.ElderApprovalRequired {
		p.ElderApprovalRequired = *in.ElderApprovalRequired
		protocolChanged = true
	}
	return protocolChanged
}
