// Package audit exposes the decision log for compliance review. It is a
// read-only surface over the rows the policy recorder appends; nothing here
// feeds back into authorization.
package audit

import (
	"time"

	"github.com/storyweave/storyweave/internal/policy"
)

// ResourceType is the descriptor type decision-log rows carry into policy
// decisions about who may review them.
const ResourceType = "decision"

// Entry is one reviewed row of the decision log.
type Entry struct {
	ID                  int64
	ActorID             int64
	ActorRole           policy.Role
	ActorCommunityID    *int64
	ResourceType        string
	ResourceID          int64
	ResourceCommunityID *int64
	Action              policy.Action
	Outcome             policy.Outcome
	Reason              policy.Reason
	Detail              string
	OccurredAt          time.Time
}

// Filters narrows a review query. Zero values mean "any".
type Filters struct {
	From         time.Time
	To           time.Time
	Outcome      policy.Outcome
	Reason       policy.Reason
	ActorID      int64
	ResourceType string
}
