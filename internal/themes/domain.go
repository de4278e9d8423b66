// Package themes manages per-community map theming: the default viewport and
// styling the community's map presents.
package themes

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type themes carry into policy decisions.
const ResourceType = "theme"

// Theme is one community's map configuration. One row per community.
type Theme struct {
	ID              int64
	CommunityID     int64
	MapboxStyleURL  string
	CenterLatitude  float64
	CenterLongitude float64
	ZoomLevel       float64
	PitchDegrees    float64
	BearingDegrees  float64
	PrimaryColor    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Resource extracts the policy descriptor for a theme. Theming carries the
// default community protocol.
func (t Theme) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, t.ID, t.CommunityID, policy.DefaultProtocol())
}

// UpsertInput replaces the community's theme settings.
type UpsertInput struct {
	MapboxStyleURL  string  `json:"mapbox_style_url" validate:"omitempty,url,max=500"`
	CenterLatitude  float64 `json:"center_latitude" validate:"min=-90,max=90"`
	CenterLongitude float64 `json:"center_longitude" validate:"min=-180,max=180"`
	ZoomLevel       float64 `json:"zoom_level" validate:"min=0,max=22"`
	PitchDegrees    float64 `json:"pitch_degrees" validate:"min=0,max=85"`
	BearingDegrees  float64 `json:"bearing_degrees" validate:"min=-180,max=180"`
	PrimaryColor    string  `json:"primary_color" validate:"omitempty,hexcolor"`
}
