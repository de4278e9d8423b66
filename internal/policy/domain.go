// Package policy centralizes access-control and data-sovereignty decisions
// for every community-scoped resource. Handlers and services call
// Engine.Authorize instead of performing ad-hoc role or community checks.
package policy

// Role is the platform role carried by an authenticated principal.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleElder      Role = "elder"
	RoleViewer     Role = "viewer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor, RoleElder, RoleViewer:
		return true
	}
	return false
}

// Action is the canonical operation set the engine decides on.
type Action string

const (
	ActionCreate            Action = "create"
	ActionRead              Action = "read"
	ActionList              Action = "list"
	ActionUpdate            Action = "update"
	ActionDelete            Action = "delete"
	ActionUpdateElderStatus Action = "update_elder_status"
)

// Valid reports whether the action is one of the known values.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionList, ActionUpdate, ActionDelete, ActionUpdateElderStatus:
		return true
	}
	return false
}

// Mutation reports whether the action changes persisted state. The decision
// recorder uses this to pick the grant-logging toggle.
func (a Action) Mutation() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionUpdateElderStatus:
		return true
	}
	return false
}

// PermissionLevel is the cultural-protocol visibility tier of a resource.
type PermissionLevel string

const (
	LevelPublic     PermissionLevel = "public"
	LevelCommunity  PermissionLevel = "community"
	LevelRestricted PermissionLevel = "restricted"
	LevelElderOnly  PermissionLevel = "elder_only"
)

// Valid reports whether the permission level is a known tier.
func (l PermissionLevel) Valid() bool {
	switch l {
	case LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly:
		return true
	}
	return false
}

// Protocol is the structured cultural-access tag set attached to a resource.
// The zero value is not ready for use; call Normalize or start from
// DefaultProtocol.
type Protocol struct {
	PermissionLevel       PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
}

// DefaultProtocol returns the protocol applied when a resource carries no
// explicit tags: community visibility, no ceremonial or elder flags.
func DefaultProtocol() Protocol {
	return Protocol{PermissionLevel: LevelCommunity}
}

// Normalize fills the default permission level for an untagged resource.
func (p Protocol) Normalize() Protocol {
	if p.PermissionLevel == "" {
		p.PermissionLevel = LevelCommunity
	}
	return p
}

// Principal is the authenticated actor. It is constructed once per request
// from session state and is immutable for the request's duration.
//
// CommunityID is nil only for super_admin; every other role must carry the
// community it belongs to. Principal IDs are only unique within a community
// and must never be compared without the community qualifier.
type Principal struct {
	ID          int64
	Role        Role
	CommunityID *int64
	Name        string
}

// Resource is the uniform, resource-agnostic descriptor of anything being
// accessed: the tenant that owns it plus its cultural-protocol tags.
//
// System marks platform-level entities (the community registry itself) that
// are owned by no community and sit outside the sovereignty guard.
type Resource struct {
	Type        string
	ID          int64
	CommunityID *int64
	Protocol    Protocol
	System      bool
}

// CommunityResource builds a descriptor for a community-owned record.
func CommunityResource(typ string, id, communityID int64, protocol Protocol) Resource {
	return Resource{
		Type:        typ,
		ID:          id,
		CommunityID: &communityID,
		Protocol:    protocol.Normalize(),
	}
}

// SystemResource builds a descriptor for a platform-level entity.
func SystemResource(typ string, id int64) Resource {
	return Resource{Type: typ, ID: id, Protocol: DefaultProtocol(), System: true}
}

// Outcome is the result classification of a decision.
type Outcome string

const (
	OutcomeGrant Outcome = "grant"
	OutcomeDeny  Outcome = "deny"
)

// Reason is the closed deny taxonomy. It is never free text; Detail on the
// Decision carries any secondary context for logs.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonSovereigntyViolation  Reason = "sovereignty_violation"
	ReasonCommunityMismatch     Reason = "community_mismatch"
	ReasonRoleInsufficient      Reason = "role_insufficient"
	ReasonElderContentProtected Reason = "elder_content_protected"
	ReasonMalformedInput        Reason = "malformed_input"
)

// Decision is the immutable outcome of a single Authorize call together with
// the audit tuple describing who attempted what against which tenant. The
// occurrence timestamp is stamped by the decision recorder at write time so
// that Authorize itself stays a pure function of its inputs.
type Decision struct {
	Outcome Outcome
	Reason  Reason
	Detail  string

	ActorID             int64
	ActorRole           Role
	ActorCommunityID    *int64
	ResourceType        string
	ResourceID          int64
	ResourceCommunityID *int64
	Action              Action
}

// Granted reports whether the decision permits the action.
func (d Decision) Granted() bool {
	return d.Outcome == OutcomeGrant
}

// DeniedError carries a deny decision across service boundaries as an error
// value. The engine itself never returns errors for policy outcomes; services
// wrap non-grant decisions so handlers can map them onto HTTP statuses.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	if e == nil {
		return "policy: denied"
	}
	return "policy: " + string(e.Decision.Action) + " denied: " + string(e.Decision.Reason)
}

// Err converts a decision into an error: nil for grants, a *DeniedError
// otherwise.
func (d Decision) Err() error {
	if d.Granted() {
		return nil
	}
	return &DeniedError{Decision: d}
}
