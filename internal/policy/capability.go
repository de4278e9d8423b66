package policy

// capabilityTable is the baseline role capability matrix, expressed as data
// so it can be tested exhaustively. It only bounds what the later layers may
// permit: the community match and the cultural protocol resolver can still
// deny an action listed here, and nothing outside the table is ever granted.
//
// super_admin has no row. The sovereignty guard excludes it from every
// community-scoped resource before this table is consulted, and adding a row
// here would not reopen that path.
var capabilityTable = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionCreate:            true,
		ActionRead:              true,
		ActionList:              true,
		ActionUpdate:            true,
		ActionDelete:            true,
		ActionUpdateElderStatus: true,
	},
	RoleEditor: {
		ActionCreate: true,
		ActionRead:   true,
		ActionList:   true,
		ActionUpdate: true,
	},
	RoleElder: {
		ActionCreate: true,
		ActionRead:   true,
		ActionList:   true,
		ActionUpdate: true,
	},
	RoleViewer: {
		ActionRead: true,
		ActionList: true,
	},
}

// systemCapability bounds what may be done to platform-level resources such
// as the community registry. Only super_admin operates at this level; the
// elder-status action has no meaning here.
var systemCapability = map[Action]bool{
	ActionCreate: true,
	ActionRead:   true,
	ActionList:   true,
	ActionUpdate: true,
	ActionDelete: true,
}

// baselineAllows reports whether the capability table permits the role to
// attempt the action at all.
func baselineAllows(role Role, action Action) bool {
	return capabilityTable[role][action]
}

// ReadableLevels returns the permission levels whose records the role may see
// in community-scoped listings. Repositories use this to filter list queries
// so that rows the engine would deny never leave the database.
func ReadableLevels(role Role) []PermissionLevel {
	switch role {
	case RoleAdmin, RoleElder:
		return []PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly}
	case RoleEditor:
		return []PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted}
	case RoleViewer:
		return []PermissionLevel{LevelPublic, LevelCommunity}
	default:
		return nil
	}
}
