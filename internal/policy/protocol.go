package policy

// resolveProtocol applies cultural-protocol narrowing after the capability
// table has already granted the baseline action. It can only downgrade a
// grant to a deny, never the reverse; a (ReasonNone, "") return keeps the
// baseline grant intact.
func resolveProtocol(p Principal, action Action, r Resource) (Reason, string) {
	level := r.Protocol.PermissionLevel

	switch action {
	case ActionDelete:
		// Elder-only material is never deletable through the ordinary
		// action path, admin included. Removal of culturally protected
		// content happens out of band.
		if level == LevelElderOnly {
			return ReasonElderContentProtected, "elder-only content cannot be deleted"
		}

	case ActionCreate, ActionUpdate, ActionUpdateElderStatus:
		if level == LevelElderOnly || r.Protocol.CeremonialContent {
			if p.Role != RoleAdmin && p.Role != RoleElder {
				return ReasonElderContentProtected, "elder or ceremonial content requires admin or elder"
			}
		}

	case ActionRead, ActionList:
		switch level {
		case LevelRestricted:
			// Restricted records are visible to admin, editor and elder of
			// the owning community. Viewers need an explicit grant flag,
			// which is not modeled yet, so the viewer's baseline read bound
			// (public/community only) applies.
			if p.Role == RoleViewer {
				return ReasonRoleInsufficient, "restricted content hidden from viewer"
			}
		case LevelElderOnly:
			if p.Role == RoleAdmin || p.Role == RoleElder {
				break
			}
			if p.Role == RoleViewer {
				return ReasonRoleInsufficient, "elder-only content hidden from viewer"
			}
			return ReasonElderContentProtected, "elder-only content requires admin or elder"
		}
	}

	return ReasonNone, ""
}
