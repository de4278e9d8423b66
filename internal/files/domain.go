// Package files manages media metadata for story audio, video and photos.
// Blob I/O happens elsewhere; this package issues object keys, records
// metadata and hands derivative work to the background worker.
package files

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type media files carry into policy
// decisions.
const ResourceType = "file"

// Status tracks derivative processing.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// File represents one stored media object. A file inherits the protocol tags
// of the content it is attached to at upload time.
type File struct {
	ID                    int64
	CommunityID           int64
	ObjectKey             string
	Filename              string
	ContentType           string
	SizeBytes             int64
	Status                Status
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
	UploadedBy            int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Resource extracts the policy descriptor from a persisted file.
func (f File) Resource() policy.Resource {
	return policy.CommunityResource(ResourceType, f.ID, f.CommunityID, policy.Protocol{
		PermissionLevel:       f.PermissionLevel,
		CeremonialContent:     f.CeremonialContent,
		ElderApprovalRequired: f.ElderApprovalRequired,
	})
}

// UploadInput registers a media object before its bytes are stored.
type UploadInput struct {
	Filename              string `json:"filename" validate:"required,max=300"`
	ContentType           string `json:"content_type" validate:"required,max=150"`
	SizeBytes             int64  `json:"size_bytes" validate:"required,min=1"`
	PermissionLevel       string `json:"permission_level" validate:"omitempty,oneof=public community restricted elder_only"`
	CeremonialContent     bool   `json:"ceremonial_content"`
	ElderApprovalRequired bool   `json:"elder_approval_required"`
}

// ProposedResource builds the policy descriptor for a file that does not
// exist yet.
func ProposedResource(communityID int64, in UploadInput) policy.Resource {
	return policy.CommunityResource(ResourceType, 0, communityID, policy.Protocol{
		PermissionLevel:       policy.PermissionLevel(in.PermissionLevel),
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	})
}
