package policy

// Engine is the composition root of the policy subsystem. Authorize is a
// pure, synchronous function of its three inputs: it performs no I/O, holds
// no mutable state and may be called from any number of goroutines.
type Engine struct{}

// NewEngine constructs the policy engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Authorize decides whether the principal may perform the action on the
// resource. Checks run in strict order, short-circuiting on the first deny:
//
//  1. sovereignty guard: super_admin never touches community-scoped data
//  2. community match, relaxed only for reads of public resources
//  3. role capability table
//  4. cultural protocol narrowing
//
// Malformed inputs fail closed with ReasonMalformedInput rather than
// panicking past the boundary; callers map every deny to an HTTP status.
func (e *Engine) Authorize(p Principal, action Action, r Resource) Decision {
	d := Decision{
		Outcome:             OutcomeDeny,
		ActorID:             p.ID,
		ActorRole:           p.Role,
		ActorCommunityID:    p.CommunityID,
		ResourceType:        r.Type,
		ResourceID:          r.ID,
		ResourceCommunityID: r.CommunityID,
		Action:              action,
	}

	// Sovereignty guard. This runs before any validation or table lookup so
	// that no future edit to the capability table can reopen the path.
	if p.Role == RoleSuperAdmin && !r.System {
		d.Reason = ReasonSovereigntyViolation
		d.Detail = "super_admin cannot access community-scoped resources"
		return d
	}

	if !p.Role.Valid() {
		d.Reason = ReasonMalformedInput
		d.Detail = "unknown role"
		return d
	}
	if !action.Valid() {
		d.Reason = ReasonMalformedInput
		d.Detail = "unknown action"
		return d
	}

	if r.System {
		return e.authorizeSystem(d, p, action)
	}

	protocol := r.Protocol.Normalize()
	if !protocol.PermissionLevel.Valid() {
		d.Reason = ReasonMalformedInput
		d.Detail = "unknown permission level"
		return d
	}
	if p.CommunityID == nil {
		d.Reason = ReasonMalformedInput
		d.Detail = "principal missing community"
		return d
	}
	if r.CommunityID == nil {
		d.Reason = ReasonMalformedInput
		d.Detail = "resource missing community"
		return d
	}

	if *p.CommunityID != *r.CommunityID {
		publicRead := (action == ActionRead || action == ActionList) && protocol.PermissionLevel == LevelPublic
		if !publicRead {
			d.Reason = ReasonCommunityMismatch
			return d
		}
	}

	if !baselineAllows(p.Role, action) {
		d.Reason = ReasonRoleInsufficient
		return d
	}

	if reason, detail := resolveProtocol(p, action, Resource{
		Type:        r.Type,
		ID:          r.ID,
		CommunityID: r.CommunityID,
		Protocol:    protocol,
	}); reason != ReasonNone {
		d.Reason = reason
		d.Detail = detail
		return d
	}

	d.Outcome = OutcomeGrant
	return d
}

// authorizeSystem handles platform-level resources, the one place where
// super_admin retains capability. The sovereignty invariant holds in the
// other direction too: a super_admin principal carrying a community id is
// malformed, and community roles never operate at the platform level.
func (e *Engine) authorizeSystem(d Decision, p Principal, action Action) Decision {
	if p.Role != RoleSuperAdmin {
		d.Reason = ReasonRoleInsufficient
		d.Detail = "system resources require super_admin"
		return d
	}
	if p.CommunityID != nil {
		d.Reason = ReasonMalformedInput
		d.Detail = "super_admin must not carry a community"
		return d
	}
	if !systemCapability[action] {
		d.Reason = ReasonRoleInsufficient
		return d
	}
	d.Outcome = OutcomeGrant
	return d
}
